// Package config handles loading and persisting reader settings. Settings
// are stored as key/value pairs in ~/.locus/settings.json.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/arin/locus/internal/ai"
)

const (
	dirName  = ".locus"
	fileName = "settings.json"

	defaultProvider    = ai.ProviderGemini
	defaultGeminiModel = "gemini-1.5-flash"

	envKeyProvider = "LOCUS_PROVIDER"
	envKeyAPIKey   = "LOCUS_API_KEY"
	envKeyModel    = "LOCUS_MODEL"
)

// Setting keys understood by Load.
const (
	KeyProvider        = "provider"
	KeyAPIKey          = "apiKey"
	KeyCustomBaseURL   = "customBaseUrl"
	KeyCustomModelName = "customModelName"
	KeyGeminiModelName = "geminiModelName"
)

// Keys lists every setting key in display order.
var Keys = []string{KeyProvider, KeyAPIKey, KeyCustomBaseURL, KeyCustomModelName, KeyGeminiModelName}

// Store is a string key/value settings backend.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// Dir returns the configuration directory path.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, dirName)
}

// FileStore keeps settings in a JSON object on disk. Every call re-reads
// the file so separate processes see each other's writes.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultStore returns the store at ~/.locus/settings.json.
func DefaultStore() *FileStore {
	return NewFileStore(filepath.Join(Dir(), fileName))
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return err
	}
	m[key] = value
	return s.write(m)
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return err
	}
	delete(m, key)
	return s.write(m)
}

func (s *FileStore) read() (map[string]string, error) {
	m := map[string]string{}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return m, nil
}

func (s *FileStore) write(m map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Settings are the resolved values the query engine needs at request time.
type Settings struct {
	Provider ai.ProviderKind
	// APIKey is nil when no key has been saved.
	APIKey          *string
	CustomBaseURL   string
	CustomModelName string
	GeminiModelName string
	// OpenAIModelName comes only from LOCUS_MODEL; empty means the adapter
	// default.
	OpenAIModelName string
}

// Load resolves settings from store and the environment. A missing or
// unreadable store yields defaults; Load only fails on values it cannot
// interpret.
func Load(store Store) (*Settings, error) {
	s := &Settings{
		Provider:        defaultProvider,
		GeminiModelName: defaultGeminiModel,
	}

	get := func(key string) (string, bool) {
		if store == nil {
			return "", false
		}
		v, ok, err := store.Get(key)
		if err != nil {
			return "", false
		}
		return v, ok
	}

	if v, ok := get(KeyProvider); ok && v != "" {
		p, err := ai.ParseProviderKind(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s setting: %w", KeyProvider, err)
		}
		s.Provider = p
	}
	if v, ok := get(KeyAPIKey); ok {
		s.APIKey = &v
	}
	if v, ok := get(KeyCustomBaseURL); ok {
		s.CustomBaseURL = v
	}
	if v, ok := get(KeyCustomModelName); ok {
		s.CustomModelName = v
	}
	if v, ok := get(KeyGeminiModelName); ok && v != "" {
		s.GeminiModelName = v
	}

	if v := os.Getenv(envKeyProvider); v != "" {
		p, err := ai.ParseProviderKind(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", envKeyProvider, err)
		}
		s.Provider = p
	}
	if v, ok := os.LookupEnv(envKeyAPIKey); ok {
		s.APIKey = &v
	}
	if v := os.Getenv(envKeyModel); v != "" {
		switch s.Provider {
		case ai.ProviderGemini:
			s.GeminiModelName = v
		case ai.ProviderCustom:
			s.CustomModelName = v
		default:
			s.OpenAIModelName = v
		}
	}

	return s, nil
}

// Profile is the provider selection passed into each query.
type Profile struct {
	Provider   ai.ProviderKind
	Credential *string
	Endpoint   string
	Model      string
}

// Profile resolves the endpoint and model for the selected provider.
func (s *Settings) Profile() Profile {
	p := Profile{Provider: s.Provider, Credential: s.APIKey}
	switch s.Provider {
	case ai.ProviderGemini:
		p.Model = s.GeminiModelName
	case ai.ProviderCustom:
		p.Endpoint = s.CustomBaseURL
		p.Model = s.CustomModelName
	case ai.ProviderOpenAI:
		p.Model = s.OpenAIModelName
	}
	return p
}

// Request builds a query for this profile.
func (p Profile) Request(systemPrompt string, conversation []ai.Turn) ai.QueryRequest {
	return ai.QueryRequest{
		Provider:     p.Provider,
		Credential:   p.Credential,
		Endpoint:     p.Endpoint,
		Model:        p.Model,
		SystemPrompt: systemPrompt,
		Conversation: conversation,
	}
}

// MaskedKey renders the API key for display without revealing it.
func (s *Settings) MaskedKey() string {
	switch {
	case s.APIKey == nil:
		return "(not set)"
	case *s.APIKey == "":
		return "(empty)"
	case len(*s.APIKey) <= 8:
		return "****"
	}
	k := *s.APIKey
	return k[:4] + "..." + k[len(k)-4:]
}
