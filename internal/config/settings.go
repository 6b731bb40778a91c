package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultIdentificationURL = "https://api.inaturalist.org/"
	DefaultGenerativeURL     = "https://api.openai.com/"
	DefaultVisionModel       = "gpt-4-vision-preview"
	DefaultTextModel         = "gpt-4"
	DefaultProvider          = "openai"
	DefaultLocale            = "en"
)

type IdentificationSettings struct {
	APIURL string `toml:"api_url" json:"api_url"`
	Token  string `toml:"token" json:"token"`
}

type GenerativeSettings struct {
	Provider    string `toml:"provider" json:"provider"`
	APIURL      string `toml:"api_url" json:"api_url"`
	Token       string `toml:"token" json:"token"`
	VisionModel string `toml:"vision_model" json:"vision_model"`
	TextModel   string `toml:"text_model" json:"text_model"`
}

// Settings are the user-editable API endpoints, credentials and model names.
type Settings struct {
	Identification IdentificationSettings `toml:"identification" json:"identification"`
	Generative     GenerativeSettings     `toml:"generative" json:"generative"`
	Locale         string                 `toml:"locale" json:"locale"`
}

// LLMConfig selects and authenticates one generative model.
type LLMConfig struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
}

const DefaultMaxTokens = 1000

func DefaultSettings() Settings {
	return Settings{
		Identification: IdentificationSettings{APIURL: DefaultIdentificationURL},
		Generative: GenerativeSettings{
			Provider:    DefaultProvider,
			APIURL:      DefaultGenerativeURL,
			VisionModel: DefaultVisionModel,
			TextModel:   DefaultTextModel,
		},
		Locale: DefaultLocale,
	}
}

// ProviderDefaults are the endpoint and model names used for a provider
// when the user has not chosen their own.
type ProviderDefaults struct {
	APIURL      string
	VisionModel string
	TextModel   string
}

var providerDefaults = map[string]ProviderDefaults{
	"openai":    {APIURL: DefaultGenerativeURL, VisionModel: DefaultVisionModel, TextModel: DefaultTextModel},
	"ollama":    {APIURL: "http://localhost:11434/", VisionModel: "llava", TextModel: "llama3"},
	"claude":    {APIURL: "https://api.anthropic.com/", VisionModel: "claude-3-5-sonnet-20240620", TextModel: "claude-3-5-sonnet-20240620"},
	"anthropic": {APIURL: "https://api.anthropic.com/", VisionModel: "claude-3-5-sonnet-20240620", TextModel: "claude-3-5-sonnet-20240620"},
	"gemini":    {APIURL: "https://generativelanguage.googleapis.com/", VisionModel: "gemini-1.5-flash", TextModel: "gemini-1.5-flash"},
}

// DefaultsFor returns the defaults of provider. Unknown providers get the
// OpenAI-compatible defaults.
func DefaultsFor(provider string) ProviderDefaults {
	if d, ok := providerDefaults[strings.ToLower(provider)]; ok {
		return d
	}
	return providerDefaults[DefaultProvider]
}

func providerOrDefault(p string) string {
	if p == "" {
		return DefaultProvider
	}
	return p
}

// SwitchProvider sets the provider and, when it differs from the current
// one, clears the endpoint and models so the new provider's defaults apply.
func (g GenerativeSettings) SwitchProvider(provider string) GenerativeSettings {
	if !strings.EqualFold(providerOrDefault(g.Provider), providerOrDefault(provider)) {
		g.APIURL = ""
		g.VisionModel = ""
		g.TextModel = ""
	}
	g.Provider = provider
	return g
}

// replacing returns g ready to be stored over prev. When the provider
// changes, values still equal to the previous provider's defaults are
// cleared so they do not leak into the new provider.
func (g GenerativeSettings) replacing(prev GenerativeSettings) GenerativeSettings {
	if strings.EqualFold(providerOrDefault(g.Provider), providerOrDefault(prev.Provider)) {
		return g
	}
	old := DefaultsFor(prev.Provider)
	if g.APIURL == old.APIURL {
		g.APIURL = ""
	}
	if g.VisionModel == old.VisionModel {
		g.VisionModel = ""
	}
	if g.TextModel == old.TextModel {
		g.TextModel = ""
	}
	return g
}

// WithDefaults fills every unset key with its documented default. Tokens
// stay empty.
func (s Settings) WithDefaults() Settings {
	if s.Identification.APIURL == "" {
		s.Identification.APIURL = DefaultIdentificationURL
	}
	if s.Generative.Provider == "" {
		s.Generative.Provider = DefaultProvider
	}
	d := DefaultsFor(s.Generative.Provider)
	if s.Generative.APIURL == "" {
		s.Generative.APIURL = d.APIURL
	}
	if s.Generative.VisionModel == "" {
		s.Generative.VisionModel = d.VisionModel
	}
	if s.Generative.TextModel == "" {
		s.Generative.TextModel = d.TextModel
	}
	if s.Locale == "" {
		s.Locale = DefaultLocale
	}
	return s
}

func (s Settings) VisionLLM() LLMConfig {
	return s.llm(s.Generative.VisionModel)
}

func (s Settings) TextLLM() LLMConfig {
	return s.llm(s.Generative.TextModel)
}

func (s Settings) llm(model string) LLMConfig {
	return LLMConfig{
		Provider:  s.Generative.Provider,
		Model:     model,
		APIKey:    s.Generative.Token,
		BaseURL:   s.Generative.APIURL,
		MaxTokens: DefaultMaxTokens,
	}
}

// Masked returns a copy safe to display: tokens reduced to their last four characters.
func (s Settings) Masked() Settings {
	s.Identification.Token = maskToken(s.Identification.Token)
	s.Generative.Token = maskToken(s.Generative.Token)
	return s
}

func maskToken(t string) string {
	if t == "" {
		return ""
	}
	if len(t) <= 4 {
		return strings.Repeat("*", len(t))
	}
	return strings.Repeat("*", 8) + t[len(t)-4:]
}

// Provider hands out the current settings. Implementations must return a
// fresh snapshot on every call.
type Provider interface {
	Current(ctx context.Context) (Settings, error)
}

// SettingsStore is a Provider that also accepts explicit user saves.
type SettingsStore interface {
	Provider
	SaveIdentification(ctx context.Context, s IdentificationSettings) error
	SaveGenerative(ctx context.Context, s GenerativeSettings) error
	SaveLocale(ctx context.Context, locale string) error
}

// FileSettings keeps Settings in a TOML file and re-reads it on every call.
type FileSettings struct {
	path string
	mu   sync.Mutex
}

func NewFileSettings(path string) *FileSettings {
	return &FileSettings{path: path}
}

func (f *FileSettings) Path() string {
	return f.path
}

func (f *FileSettings) Current(ctx context.Context) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}
	s, err := f.read()
	if err != nil {
		return Settings{}, err
	}
	return s.WithDefaults(), nil
}

func (f *FileSettings) read() (Settings, error) {
	var s Settings
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read settings '%s': %w", f.path, err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse settings TOML: %w", err)
	}
	return s, nil
}

func (f *FileSettings) SaveIdentification(ctx context.Context, in IdentificationSettings) error {
	return f.update(ctx, func(s *Settings) { s.Identification = in })
}

func (f *FileSettings) SaveGenerative(ctx context.Context, in GenerativeSettings) error {
	return f.update(ctx, func(s *Settings) {
		s.Generative = in.replacing(s.WithDefaults().Generative)
	})
}

func (f *FileSettings) SaveLocale(ctx context.Context, locale string) error {
	if _, err := Catalog(locale); err != nil {
		return err
	}
	return f.update(ctx, func(s *Settings) { s.Locale = locale })
}

func (f *FileSettings) update(ctx context.Context, mutate func(*Settings)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.read()
	if err != nil {
		return err
	}
	mutate(&s)

	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return WriteFileAtomic(f.path, data)
}

// WriteFileAtomic writes data to a temp file next to path and renames it into place.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write '%s': %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace '%s': %w", path, err)
	}
	return nil
}

// MemorySettings is an in-process SettingsStore.
type MemorySettings struct {
	mu sync.RWMutex
	s  Settings
}

func NewMemorySettings(s Settings) *MemorySettings {
	return &MemorySettings{s: s}
}

func (m *MemorySettings) Current(ctx context.Context) (Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.WithDefaults(), nil
}

func (m *MemorySettings) SaveIdentification(ctx context.Context, in IdentificationSettings) error {
	m.mu.Lock()
	m.s.Identification = in
	m.mu.Unlock()
	return nil
}

func (m *MemorySettings) SaveGenerative(ctx context.Context, in GenerativeSettings) error {
	m.mu.Lock()
	m.s.Generative = in.replacing(m.s.WithDefaults().Generative)
	m.mu.Unlock()
	return nil
}

func (m *MemorySettings) SaveLocale(ctx context.Context, locale string) error {
	if _, err := Catalog(locale); err != nil {
		return err
	}
	m.mu.Lock()
	m.s.Locale = locale
	m.mu.Unlock()
	return nil
}
