package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/arin/locus/internal/ai"
	"github.com/arin/locus/internal/config"
	"github.com/arin/locus/internal/history"
	"github.com/arin/locus/internal/lens"
	"github.com/arin/locus/internal/logging"
	"github.com/arin/locus/internal/reader"
	"github.com/arin/locus/internal/session"
	"github.com/arin/locus/internal/stats"
)

// app bundles what every analysis command needs.
type app struct {
	settings *config.Settings
	lenses   *lens.Catalog
	engine   *ai.Engine
	readings *history.Log
	logger   *slog.Logger
}

func newApp() (*app, error) {
	settings, err := config.Load(config.DefaultStore())
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	catalog, err := lens.Load(config.Dir())
	if err != nil {
		return nil, fmt.Errorf("lens overrides: %w", err)
	}

	logger := logging.Logger()
	a := &app{
		settings: settings,
		lenses:   catalog,
		engine:   ai.NewEngine(ai.WithLogger(logger.With("component", "engine"))),
		logger:   logger,
	}

	// The reading log is optional; analysis works without it.
	if l, err := history.Open(history.DefaultPath()); err != nil {
		logger.Warn("reading log unavailable", "err", err)
	} else {
		a.readings = l
	}
	return a, nil
}

func (a *app) Close() {
	if a.readings != nil {
		_ = a.readings.Close()
	}
}

// controller builds a session whose outcomes are recorded, then passed to
// each of then in order.
func (a *app) controller(book reader.Book, l session.Listener, then ...func(session.Outcome)) *session.Controller {
	record := a.recorder(book)
	finish := func(o session.Outcome) {
		record(o)
		for _, fn := range then {
			fn(o)
		}
	}
	return session.New(a.engine, session.Options{
		Profile:  a.settings.Profile(),
		Book:     book,
		Lenses:   a.lenses,
		Listener: l,
		OnFinish: finish,
		Logger:   a.logger.With("component", "session"),
	})
}

// recorder persists usage metrics for every request and a reading-log
// entry for every passage that opened a session.
func (a *app) recorder(book reader.Book) func(session.Outcome) {
	provider := string(a.settings.Provider)
	return func(o session.Outcome) {
		err := stats.Save(stats.Record{
			Provider:  provider,
			Lens:      o.Lens,
			Kind:      string(o.Kind),
			Latency:   o.Elapsed,
			Fragments: o.Fragments,
			Success:   o.Err == nil && !o.Abandoned,
			Abandoned: o.Abandoned,
		})
		if err != nil {
			a.logger.Debug("failed to save stats", "err", err)
		}

		if a.readings == nil || o.Kind == session.KindFollowUp {
			return
		}
		_, err = a.readings.Add(history.Entry{
			Book:     book.Title,
			Locator:  o.Selection.Locator,
			Lens:     o.Lens,
			Kind:     string(o.Kind),
			Provider: provider,
			Excerpt:  o.Selection.Text,
		})
		if err != nil {
			a.logger.Debug("failed to record reading", "err", err)
		}
	}
}

// joinArgs turns positional words back into a passage.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
