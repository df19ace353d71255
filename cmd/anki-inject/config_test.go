package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/anki-inject/internal/application/handlers"
	"github.com/ersonp/anki-inject/internal/domain/mocks"
	"github.com/ersonp/anki-inject/internal/infrastructure/config"
)

func TestPresets(t *testing.T) {
	configDir = t.TempDir()
	t.Cleanup(func() { configDir = "" })

	require.NoError(t, runPresetsAdd("vocab", config.PromptPreset{Prompt: "One word per card.", Model: "gpt-4o"}))

	err := runPresetsAdd("vocab", config.PromptPreset{Prompt: "again"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	prompts, err := config.LoadPrompts(configDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"vocab"}, prompts.Names())

	require.NoError(t, runPresetsRemove(nil, []string{"vocab"}))
	prompts, err = config.LoadPrompts(configDir)
	require.NoError(t, err)
	assert.Empty(t, prompts.Names())

	err = runPresetsRemove(nil, []string{"vocab"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestApplyPreset(t *testing.T) {
	configDir = t.TempDir()
	t.Cleanup(func() { configDir = "" })
	require.NoError(t, runPresetsAdd("vocab", config.PromptPreset{Prompt: "One word per card.", Model: "gpt-4o"}))

	tests := []struct {
		name       string
		preset     string
		model      string
		wantModel  string
		wantPrompt string
		wantErr    bool
	}{
		{
			name:       "preset model",
			preset:     "vocab",
			wantModel:  "gpt-4o",
			wantPrompt: "One word per card.",
		},
		{
			name:       "explicit model wins",
			preset:     "vocab",
			model:      "gemini-2.0-flash",
			wantModel:  "gemini-2.0-flash",
			wantPrompt: "One word per card.",
		},
		{
			name:    "unknown preset",
			preset:  "missing",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := handlers.GenerateOptions{Model: tt.model}
			err := applyPreset(&opts, tt.preset)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, opts.Model)
			assert.Equal(t, tt.wantPrompt, opts.SystemPrompt)
		})
	}
}

func TestResetIndex(t *testing.T) {
	collections := &mocks.CollectionManager{}
	require.NoError(t, resetIndex(context.Background(), collections, 1536))
	assert.Equal(t, 1, collections.DeleteCollectionCallCount)
	assert.Equal(t, 1, collections.EnsureCollectionCallCount)

	failing := &mocks.CollectionManager{DeleteErr: errors.New("not found")}
	assert.Error(t, resetIndex(context.Background(), failing, 1536))
	assert.Zero(t, failing.EnsureCollectionCallCount)
}

func TestVectorSize(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, uint64(1536), vectorSize(cfg))

	cfg.Embedder.Dimensions = 256
	assert.Equal(t, uint64(256), vectorSize(cfg))
}
