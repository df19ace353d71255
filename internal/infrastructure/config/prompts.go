package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// PromptsConfig holds named system prompt presets (read/write).
type PromptsConfig struct {
	Presets map[string]PromptPreset `yaml:"presets,omitempty"`
}

// PromptPreset is a reusable extraction guidance, optionally bound to a model.
type PromptPreset struct {
	Prompt      string `yaml:"prompt"`
	Description string `yaml:"description,omitempty"`
	Model       string `yaml:"model,omitempty"`
}

// LoadPrompts loads prompt presets from dir.
func LoadPrompts(dir string) (*PromptsConfig, error) {
	data, err := os.ReadFile(PromptsFilePath(dir))
	if os.IsNotExist(err) {
		// Return empty config if file doesn't exist
		return &PromptsConfig{
			Presets: make(map[string]PromptPreset),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading prompts file: %w", err)
	}

	var cfg PromptsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing prompts file: %w", err)
	}

	if cfg.Presets == nil {
		cfg.Presets = make(map[string]PromptPreset)
	}

	return &cfg, nil
}

// Save writes the presets to the prompts file.
func (p *PromptsConfig) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling prompts config: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(PromptsFilePath(dir)), data, 0600); err != nil {
		return fmt.Errorf("writing prompts file: %w", err)
	}

	return nil
}

// Add adds or replaces a preset.
func (p *PromptsConfig) Add(name string, preset PromptPreset) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("preset name is empty")
	}
	if strings.TrimSpace(preset.Prompt) == "" {
		return fmt.Errorf("preset %q has an empty prompt", name)
	}
	if p.Presets == nil {
		p.Presets = make(map[string]PromptPreset)
	}
	p.Presets[name] = preset
	return nil
}

// Remove removes a preset.
func (p *PromptsConfig) Remove(name string) {
	if p.Presets != nil {
		delete(p.Presets, name)
	}
}

// Get returns a preset by name.
func (p *PromptsConfig) Get(name string) (*PromptPreset, error) {
	if len(p.Presets) == 0 {
		return nil, errors.New("no prompt presets configured")
	}

	preset, ok := p.Presets[name]
	if !ok {
		names := p.Names()
		if len(names) > 5 {
			names = append(names[:5], "...")
		}
		return nil, fmt.Errorf("preset %q not found (available: %s)", name, strings.Join(names, ", "))
	}

	return &preset, nil
}

// Exists checks if a preset exists.
func (p *PromptsConfig) Exists(name string) bool {
	if p.Presets == nil {
		return false
	}
	_, ok := p.Presets[name]
	return ok
}

// Names returns the preset names in sorted order.
func (p *PromptsConfig) Names() []string {
	names := make([]string, 0, len(p.Presets))
	for name := range p.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
