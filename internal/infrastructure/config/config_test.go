package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple lowercase",
			input:    "cards",
			expected: "cards",
		},
		{
			name:     "uppercase converted",
			input:    "MyCards",
			expected: "mycards",
		},
		{
			name:     "spaces to underscores",
			input:    "my cards",
			expected: "my_cards",
		},
		{
			name:     "deck separator",
			input:    "Languages::Spanish",
			expected: "languages_spanish",
		},
		{
			name:     "special characters removed",
			input:    "cards!@#$%",
			expected: "cards",
		},
		{
			name:     "consecutive underscores collapsed",
			input:    "my - cards",
			expected: "my_cards",
		},
		{
			name:     "empty becomes default",
			input:    "!!!",
			expected: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeName(tt.input))
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, "cards", cfg.LLM.ArrayKey)
	assert.Equal(t, 400, cfg.LLM.ChunkOverlap)
	assert.Equal(t, "http://localhost:8765", cfg.Anki.URL)
	assert.Equal(t, "Basic", cfg.Anki.NoteType)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.False(t, cfg.Qdrant.Enabled)
	assert.Equal(t, DefaultHistoryFile, cfg.SQLite.Path)
	assert.Equal(t, GeminiBaseURL, cfg.LLM.Endpoint())
	assert.Equal(t, DefaultSystemPrompt, cfg.LLM.Prompt())
}

func TestLoad(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("QDRANT_API_KEY", "")
	t.Setenv("ANKI_CONNECT_URL", "")

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(t.TempDir())

		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.ErrorIs(t, cfg.RequireAPIKey(), ErrAPIKeyMissing)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		dir := t.TempDir()
		data := "llm:\n  provider: openai\n  model: gpt-4o-mini\n  timeout: 30s\nanki:\n  deck: Spanish\n"
		require.NoError(t, os.WriteFile(FilePath(dir), []byte(data), 0600))

		cfg, err := Load(dir)

		require.NoError(t, err)
		assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
		assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
		assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
		assert.Equal(t, "Spanish", cfg.Anki.Deck)
		assert.Equal(t, "Basic", cfg.Anki.NoteType)
		assert.Empty(t, cfg.LLM.Endpoint())
	})

	t.Run("zero chunk overlap disables overlap", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(FilePath(dir), []byte("llm:\n  chunk_overlap: 0\n"), 0600))

		cfg, err := Load(dir)

		require.NoError(t, err)
		assert.Equal(t, 0, cfg.LLM.ChunkOverlap)
		assert.Equal(t, 12000, cfg.LLM.ChunkSize)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(FilePath(dir), []byte("llm: [unclosed"), 0600))

		_, err := Load(dir)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing config file")
	})
}

func TestLoad_EnvOverrides(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		env        map[string]string
		wantLLMKey string
		wantEmbKey string
		wantURL    string
	}{
		{
			name:       "gemini key for gemini provider",
			env:        map[string]string{"GEMINI_API_KEY": "g-key", "OPENAI_API_KEY": "o-key"},
			wantLLMKey: "g-key",
			wantEmbKey: "o-key",
			wantURL:    "http://localhost:8765",
		},
		{
			name:       "openai key for openai provider",
			file:       "llm:\n  provider: openai\n",
			env:        map[string]string{"GEMINI_API_KEY": "g-key", "OPENAI_API_KEY": "o-key"},
			wantLLMKey: "o-key",
			wantEmbKey: "o-key",
			wantURL:    "http://localhost:8765",
		},
		{
			name:       "file key wins over env",
			file:       "llm:\n  api_key: from-file\n",
			env:        map[string]string{"GEMINI_API_KEY": "g-key"},
			wantLLMKey: "from-file",
			wantURL:    "http://localhost:8765",
		},
		{
			name:    "anki url from env",
			env:     map[string]string{"ANKI_CONNECT_URL": "http://anki:8765"},
			wantURL: "http://anki:8765",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "QDRANT_API_KEY", "ANKI_CONNECT_URL"} {
				t.Setenv(key, tt.env[key])
			}
			dir := t.TempDir()
			if tt.file != "" {
				require.NoError(t, os.WriteFile(FilePath(dir), []byte(tt.file), 0600))
			}

			cfg, err := Load(dir)

			require.NoError(t, err)
			assert.Equal(t, tt.wantLLMKey, cfg.LLM.APIKey)
			assert.Equal(t, tt.wantEmbKey, cfg.Embedder.APIKey)
			assert.Equal(t, tt.wantURL, cfg.Anki.URL)
		})
	}
}

func TestHistoryPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "relative joined", path: "history.db", expected: filepath.Join("/cfg", "history.db")},
		{name: "empty uses default", path: "", expected: filepath.Join("/cfg", DefaultHistoryFile)},
		{name: "absolute kept", path: "/data/h.db", expected: "/data/h.db"},
		{name: "memory kept", path: ":memory:", expected: ":memory:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.SQLite.Path = tt.path
			assert.Equal(t, tt.expected, cfg.HistoryPath("/cfg"))
		})
	}
}

func TestWriteDefault(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANKI_CONNECT_URL", "")
	dir := filepath.Join(t.TempDir(), "anki-inject")

	require.NoError(t, WriteDefault(dir))
	assert.True(t, Exists(dir))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	err = WriteDefault(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestWriteAndSetAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANKI_CONNECT_URL", "")
	dir := t.TempDir()
	assert.False(t, Exists(dir))

	cfg := Default()
	cfg.Anki.Deck = "Spanish"
	require.NoError(t, Write(dir, cfg))
	require.NoError(t, SetAPIKey(dir, "secret"))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "secret", loaded.LLM.APIKey)
	assert.Equal(t, "Spanish", loaded.Anki.Deck)
	assert.NoError(t, loaded.RequireAPIKey())

	info, err := os.Stat(FilePath(dir))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestUpdate_IgnoresEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	dir := t.TempDir()
	require.NoError(t, WriteDefault(dir))

	require.NoError(t, Update(dir, func(cfg *Config) {
		cfg.Qdrant.Enabled = true
	}))

	data, err := os.ReadFile(FilePath(dir))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "from-env")

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, loaded.Qdrant.Enabled)
	assert.Equal(t, "from-env", loaded.LLM.APIKey)
}

func TestPrompts(t *testing.T) {
	dir := t.TempDir()

	prompts, err := LoadPrompts(dir)
	require.NoError(t, err)
	assert.Empty(t, prompts.Names())

	_, err = prompts.Get("vocab")
	require.Error(t, err)

	require.NoError(t, prompts.Add("vocab", PromptPreset{Prompt: "One word per card.", Model: "gemini-2.0-flash"}))
	require.NoError(t, prompts.Add("cloze", PromptPreset{Prompt: "Fill in the blank."}))
	require.Error(t, prompts.Add(" ", PromptPreset{Prompt: "x"}))
	require.Error(t, prompts.Add("blank", PromptPreset{Prompt: " "}))
	require.NoError(t, prompts.Save(dir))

	loaded, err := LoadPrompts(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"cloze", "vocab"}, loaded.Names())
	assert.True(t, loaded.Exists("vocab"))

	preset, err := loaded.Get("vocab")
	require.NoError(t, err)
	assert.Equal(t, "One word per card.", preset.Prompt)
	assert.Equal(t, "gemini-2.0-flash", preset.Model)

	_, err = loaded.Get("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: cloze, vocab")

	loaded.Remove("vocab")
	assert.False(t, loaded.Exists("vocab"))
}
