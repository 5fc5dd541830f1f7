// Package stats records per-request metrics for locus (provider, lens,
// latency, fragment count, outcome) and persists them to
// ~/.locus/stats.json.
package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/arin/locus/internal/config"
)

const (
	fileName   = "stats.json"
	maxRecords = 1000
)

// Record is one finished query.
type Record struct {
	Timestamp time.Time     `json:"timestamp"`
	Provider  string        `json:"provider"`
	Lens      string        `json:"lens,omitempty"`
	Kind      string        `json:"kind"` // "lens", "followup" or "scan"
	Latency   time.Duration `json:"latency_ms"`
	Fragments int           `json:"fragments"`
	Success   bool          `json:"success"`
	Abandoned bool          `json:"abandoned,omitempty"`
}

// Summary is the aggregated dashboard.
type Summary struct {
	TotalRequests     int            `json:"total_requests"`
	SuccessRate       float64        `json:"success_rate"`
	AvgLatencyMs      int64          `json:"avg_latency_ms"`
	AvgFragments      float64        `json:"avg_fragments"`
	AbandonedCount    int            `json:"abandoned_count"`
	ProviderBreakdown map[string]int `json:"provider_breakdown"`
	KindBreakdown     map[string]int `json:"kind_breakdown"`
	TopLenses         []LensCount    `json:"top_lenses"`
	TodayCount        int            `json:"today_count"`
	ThisWeekCount     int            `json:"this_week_count"`
	LastRequest       time.Time      `json:"last_request,omitempty"`
}

// LensCount pairs a lens with its usage count.
type LensCount struct {
	Lens  string `json:"lens"`
	Count int    `json:"count"`
}

var fileMu sync.Mutex

func statsPath() string {
	return filepath.Join(config.Dir(), fileName)
}

// Save appends r to the stats file, keeping the most recent records.
func Save(r Record) error {
	fileMu.Lock()
	defer fileMu.Unlock()

	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	// Stored as milliseconds.
	r.Latency = r.Latency / time.Millisecond

	records, _ := loadAll()
	records = append(records, r)
	if len(records) > maxRecords {
		records = records[len(records)-maxRecords:]
	}

	if err := os.MkdirAll(config.Dir(), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(statsPath(), data, 0o600)
}

// LoadAll returns all stored records. Latency is in milliseconds.
func LoadAll() ([]Record, error) {
	fileMu.Lock()
	defer fileMu.Unlock()
	return loadAll()
}

func loadAll() ([]Record, error) {
	data, err := os.ReadFile(statsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Summarize aggregates all stored records.
func Summarize() (*Summary, error) {
	records, err := LoadAll()
	if err != nil {
		return nil, err
	}
	return summarize(records, time.Now()), nil
}

func summarize(records []Record, now time.Time) *Summary {
	s := &Summary{
		TotalRequests:     len(records),
		ProviderBreakdown: map[string]int{},
		KindBreakdown:     map[string]int{},
	}
	if len(records) == 0 {
		return s
	}

	var totalLatency int64
	var totalFragments, successCount int
	lensFreq := map[string]int{}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	weekAgo := now.AddDate(0, 0, -7)

	for _, r := range records {
		if r.Success {
			successCount++
		}
		if r.Abandoned {
			s.AbandonedCount++
		}
		totalLatency += int64(r.Latency)
		totalFragments += r.Fragments
		if r.Provider != "" {
			s.ProviderBreakdown[r.Provider]++
		}
		if r.Kind != "" {
			s.KindBreakdown[r.Kind]++
		}
		if r.Lens != "" {
			lensFreq[r.Lens]++
		}
		if !r.Timestamp.Before(today) {
			s.TodayCount++
		}
		if r.Timestamp.After(weekAgo) {
			s.ThisWeekCount++
		}
		if r.Timestamp.After(s.LastRequest) {
			s.LastRequest = r.Timestamp
		}
	}

	n := len(records)
	s.SuccessRate = float64(successCount) / float64(n) * 100
	s.AvgLatencyMs = totalLatency / int64(n)
	s.AvgFragments = float64(totalFragments) / float64(n)
	s.TopLenses = topN(lensFreq, 5)
	return s
}

func topN(freq map[string]int, n int) []LensCount {
	all := make([]LensCount, 0, len(freq))
	for id, count := range freq {
		all = append(all, LensCount{Lens: id, Count: count})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].Lens < all[j].Lens
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}
