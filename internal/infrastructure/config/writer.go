package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# anki-inject configuration

llm:
  provider: gemini
  model: gemini-2.0-flash
  # api_key: your-api-key (or set GEMINI_API_KEY env var)
  # system_prompt: custom extraction guidance
  array_key: cards
  chunk_size: 12000
  chunk_overlap: 400
  timeout: 2m

anki:
  url: http://localhost:8765
  deck: Default
  note_type: Basic
  tags: [anki_inject]
  timeout: 10s

# Similar-card detection (optional)
embedder:
  provider: openai
  model: text-embedding-3-small
  dimensions: 1536
  # api_key: your-api-key (or set OPENAI_API_KEY env var)

qdrant:
  enabled: false
  host: localhost
  port: 6334
  collection: anki_inject_cards
  threshold: 0.92
  # api_key: your-api-key (for Qdrant Cloud)

sqlite:
  path: history.db

log:
  level: info
`

// WriteDefault creates the config directory and writes a default config file.
func WriteDefault(dir string) error {
	configFile := FilePath(dir)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists: %s", configFile)
	}

	if err := os.WriteFile(configFile, []byte(DefaultConfigYAML), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Write writes the given config to the config file. The file may hold
// credentials, so it is only readable by the owner.
func Write(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(FilePath(dir), data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Exists checks if a config file exists in dir.
func Exists(dir string) bool {
	_, err := os.Stat(FilePath(dir))
	return err == nil
}

// Update applies fn to the settings stored in dir and writes them back.
// Environment overrides are not applied, so they never end up in the file.
func Update(dir string, fn func(*Config)) error {
	cfg := Default()
	data, err := os.ReadFile(FilePath(dir))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
	}
	fn(cfg)
	return Write(dir, cfg)
}

// SetAPIKey stores the LLM credential in the config file, keeping other settings.
func SetAPIKey(dir, key string) error {
	return Update(dir, func(cfg *Config) {
		cfg.LLM.APIKey = key
	})
}
