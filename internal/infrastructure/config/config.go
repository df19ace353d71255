// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// AppName is the directory name used under the user config directory.
	AppName = "anki-inject"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultPromptsFile is the default prompt presets file name.
	DefaultPromptsFile = "prompts.yaml"
	// DefaultHistoryFile is the default SQLite history database name.
	DefaultHistoryFile = "history.db"

	// EnvConfigDir overrides the config directory.
	EnvConfigDir = "ANKI_INJECT_CONFIG_DIR"
)

// LLM providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// GeminiBaseURL is the OpenAI-compatible endpoint of the Gemini API.
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// DefaultSystemPrompt is the extraction guidance used when none is configured.
const DefaultSystemPrompt = `Extract key information from the following text and create flashcards.
The 'front' should be a question or concept, and 'back' should be the answer or explanation.
Use basic HTML tags where appropriate for formatting (e.g., <b>bold</b>, <i>italics</i>, <ul><li>lists</li></ul>).`

// ErrAPIKeyMissing is returned when no LLM credential is configured.
var ErrAPIKeyMissing = errors.New("API key is not configured (run 'anki-inject config set-key' or set GEMINI_API_KEY)")

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	LLM      LLMConfig      `yaml:"llm,omitempty"`
	Anki     AnkiConfig     `yaml:"anki,omitempty"`
	Embedder EmbedderConfig `yaml:"embedder,omitempty"`
	Qdrant   QdrantConfig   `yaml:"qdrant,omitempty"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
	Log      LogConfig      `yaml:"log,omitempty"`
}

// LLMConfig holds configuration for the card generator.
type LLMConfig struct {
	Provider     string        `yaml:"provider,omitempty"`
	Model        string        `yaml:"model,omitempty"`
	APIKey       string        `yaml:"api_key,omitempty"`
	BaseURL      string        `yaml:"base_url,omitempty"`
	SystemPrompt string        `yaml:"system_prompt,omitempty"`
	Temperature  float32       `yaml:"temperature,omitempty"`
	ArrayKey     string        `yaml:"array_key,omitempty"`
	ChunkSize    int           `yaml:"chunk_size,omitempty"`
	// ChunkOverlap is carried from one chunk into the next. Zero disables
	// overlap and the cross-chunk de-duplication that comes with it.
	ChunkOverlap int           `yaml:"chunk_overlap"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
}

// AnkiConfig holds configuration for the AnkiConnect note store.
type AnkiConfig struct {
	URL            string        `yaml:"url,omitempty"`
	Deck           string        `yaml:"deck,omitempty"`
	NoteType       string        `yaml:"note_type,omitempty"`
	Tags           []string      `yaml:"tags,omitempty"`
	AllowDuplicate bool          `yaml:"allow_duplicate,omitempty"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
}

// EmbedderConfig holds configuration for the embedding provider.
type EmbedderConfig struct {
	Provider   string `yaml:"provider,omitempty"`
	Model      string `yaml:"model,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
	BaseURL    string `yaml:"base_url,omitempty"`
	Dimensions int    `yaml:"dimensions,omitempty"`
}

// QdrantConfig holds configuration for the Qdrant similarity index.
type QdrantConfig struct {
	// Enabled turns on similar-card detection.
	Enabled    bool    `yaml:"enabled,omitempty"`
	Host       string  `yaml:"host,omitempty"`
	Port       int     `yaml:"port,omitempty"`
	Collection string  `yaml:"collection,omitempty"`
	APIKey     string  `yaml:"api_key,omitempty"`
	Threshold  float32 `yaml:"threshold,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite history database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database. Relative paths are
	// resolved against the config directory.
	Path string `yaml:"path,omitempty"`
}

// LogConfig holds default logging settings. CLI flags take precedence.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
	JSON  bool   `yaml:"json,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:     ProviderGemini,
			Model:        "gemini-2.0-flash",
			ArrayKey:     "cards",
			ChunkSize:    12000,
			ChunkOverlap: 400,
			Timeout:      2 * time.Minute,
		},
		Anki: AnkiConfig{
			URL:      "http://localhost:8765",
			Deck:     "Default",
			NoteType: "Basic",
			Tags:     []string{"anki_inject"},
			Timeout:  10 * time.Second,
		},
		Embedder: EmbedderConfig{
			Provider:   ProviderOpenAI,
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "anki_inject_cards",
			Threshold:  0.92,
		},
		SQLite: SQLiteConfig{
			Path: DefaultHistoryFile,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultDir returns the config directory: $ANKI_INJECT_CONFIG_DIR, or
// anki-inject under the user config directory.
func DefaultDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("finding user config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Load loads configuration from dir. A missing file yields the defaults.
func Load(dir string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(FilePath(dir))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	return cfg, nil
}

// HistoryPath returns the SQLite database path, resolved against dir.
func (c *Config) HistoryPath(dir string) string {
	path := c.SQLite.Path
	if path == "" {
		path = DefaultHistoryFile
	}
	if path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// applyEnvOverrides fills unset credentials and endpoints from the environment.
func (c *Config) applyEnvOverrides() {
	llmEnv := "OPENAI_API_KEY"
	if c.LLM.Provider == ProviderGemini {
		llmEnv = "GEMINI_API_KEY"
	}
	if key := os.Getenv(llmEnv); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.Embedder.APIKey == "" {
		c.Embedder.APIKey = key
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" && c.Qdrant.APIKey == "" {
		c.Qdrant.APIKey = key
	}
	if url := os.Getenv("ANKI_CONNECT_URL"); url != "" {
		c.Anki.URL = url
	}
}

// RequireAPIKey returns ErrAPIKeyMissing if no LLM credential is set.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return ErrAPIKeyMissing
	}
	return nil
}

// Endpoint returns the base URL of the LLM API, or "" for the provider default.
func (l LLMConfig) Endpoint() string {
	if l.BaseURL != "" {
		return l.BaseURL
	}
	if l.Provider == ProviderGemini {
		return GeminiBaseURL
	}
	return ""
}

// Prompt returns the configured system prompt or the default.
func (l LLMConfig) Prompt() string {
	if strings.TrimSpace(l.SystemPrompt) != "" {
		return l.SystemPrompt
	}
	return DefaultSystemPrompt
}

// FilePath returns the path to the config file.
func FilePath(dir string) string {
	return filepath.Join(dir, DefaultConfigFile)
}

// PromptsFilePath returns the path to the prompt presets file.
func PromptsFilePath(dir string) string {
	return filepath.Join(dir, DefaultPromptsFile)
}

// SanitizeName converts a name to a valid collection suffix.
func SanitizeName(name string) string {
	// Convert to lowercase
	name = strings.ToLower(name)

	// Replace spaces, hyphens, and deck separators with underscores
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, "::", "_")

	// Remove any characters that aren't alphanumeric or underscore
	name = reNonAlphanumeric.ReplaceAllString(name, "")

	// Remove consecutive underscores
	name = reMultipleUnderscores.ReplaceAllString(name, "_")

	// Trim leading/trailing underscores
	name = strings.Trim(name, "_")

	if name == "" {
		return "default"
	}

	return name
}

// CollectionName returns the sanitized Qdrant collection name.
func (q QdrantConfig) CollectionName() string {
	return SanitizeName(q.Collection)
}
