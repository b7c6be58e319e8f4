// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package config loads scanner configuration from YAML. Loading never mutates
// global state; callers hold the returned value and derive policies from it.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"piiscrub/pkg/detector"
	"piiscrub/pkg/engine"
	"piiscrub/pkg/redact"
)

// Config is the full application configuration.
type Config struct {
	Defaults Settings `yaml:"defaults"`

	// Guard bounds detection work; zero fields keep the built-in limits.
	Guard struct {
		MaxDocumentLength    int `yaml:"max_document_length"`
		MaxMatchesPerPattern int `yaml:"max_matches_per_pattern"`
		MaxComplexityScore   int `yaml:"max_complexity_score"`
	} `yaml:"guard"`

	Rules struct {
		SuppressionEnabled *bool `yaml:"suppression_enabled,omitempty"`
		BoostEnabled       *bool `yaml:"boost_enabled,omitempty"`
	} `yaml:"rules"`

	// Profiles are named setting overlays for recurring scenarios.
	Profiles map[string]Profile `yaml:"profiles"`
}

// Settings are the tunables a profile can override.
type Settings struct {
	Format      string  `yaml:"format"`
	Action      string  `yaml:"action"`
	Sensitivity string  `yaml:"sensitivity"`
	Threshold   float64 `yaml:"threshold"`
	NoColor     bool    `yaml:"no_color"`
	Verbose     bool    `yaml:"verbose"`

	// StreamWindow is the hold-back size for streaming redaction, in bytes.
	StreamWindow int `yaml:"stream_window"`

	// TokenKeyEnv names the environment variable holding the tokenization
	// key. The key itself never lives in the config file.
	TokenKeyEnv string `yaml:"token_key_env"`

	// Types overrides the redaction action per finding type.
	Types map[string]TypeSettings `yaml:"types"`

	// ContextHints prime detection with caller-known vocabulary.
	ContextHints []string `yaml:"context_hints"`
}

// TypeSettings is the per-type policy block.
type TypeSettings struct {
	Action        string `yaml:"action"`
	PreserveLast4 bool   `yaml:"preserve_last_4"`
}

// Profile is a named settings overlay.
type Profile struct {
	Description string `yaml:"description"`
	Settings    `yaml:",inline"`
}

// Load reads configuration from path. An empty path returns defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path but falls back to defaults on any failure.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return defaultConfig()
	}
	return cfg
}

func defaultConfig() *Config {
	cfg := &Config{Profiles: make(map[string]Profile)}
	cfg.Defaults = Settings{
		Format:      "text",
		Action:      string(redact.ActionMask),
		Sensitivity: string(redact.SensitivityBalanced),
		Types: map[string]TypeSettings{
			string(detector.TypeCreditCard): {Action: string(redact.ActionMask), PreserveLast4: true},
		},
	}
	cfg.Profiles["precommit"] = Profile{
		Description: "Concise output tuned for pre-commit hooks",
		Settings: Settings{
			Format:      "text",
			Action:      string(redact.ActionMask),
			Sensitivity: string(redact.SensitivityStrict),
			NoColor:     true,
		},
	}
	return cfg
}

// FindFile looks for a config file in the standard locations, returning ""
// when none exists.
func FindFile() string {
	candidates := []string{
		"piiscrub.yaml",
		"piiscrub.yml",
		".piiscrub.yaml",
		".piiscrub.yml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".config", "piiscrub", "config.yaml"))
	}
	for _, c := range candidates {
		if fileExists(c) {
			return c
		}
	}
	return ""
}

func fileExists(name string) bool {
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}

// ListProfiles returns profile names.
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for n := range c.Profiles {
		names = append(names, n)
	}
	return names
}

// EffectiveSettings resolves the settings for a profile name, or the defaults
// when profile is empty. Unknown profiles are an error.
func (c *Config) EffectiveSettings(profile string) (Settings, error) {
	if profile == "" {
		return c.Defaults, nil
	}
	p, ok := c.Profiles[profile]
	if !ok {
		return Settings{}, fmt.Errorf("config: unknown profile %q", profile)
	}
	s := p.Settings
	if s.Format == "" {
		s.Format = c.Defaults.Format
	}
	if s.Action == "" {
		s.Action = c.Defaults.Action
	}
	if s.Sensitivity == "" {
		s.Sensitivity = c.Defaults.Sensitivity
	}
	if s.Types == nil {
		s.Types = c.Defaults.Types
	}
	return s, nil
}

// Policy converts settings into a redaction policy. The token key, if the
// settings name an environment variable, is read here.
func (s Settings) Policy() redact.Policy {
	p := redact.Policy{
		DefaultAction: redact.Action(s.Action),
		Sensitivity:   redact.Sensitivity(s.Sensitivity),
		Threshold:     s.Threshold,
		ContextHints:  s.ContextHints,
		Types:         make(map[detector.Type]redact.TypePolicy, len(s.Types)),
	}
	for t, ts := range s.Types {
		p.Types[detector.Type(t)] = redact.TypePolicy{
			Action:        redact.Action(ts.Action),
			PreserveLast4: ts.PreserveLast4,
		}
	}
	if s.TokenKeyEnv != "" {
		p.HMACKey = []byte(os.Getenv(s.TokenKeyEnv))
	}
	return p
}

// GuardLimits converts the guard block, keeping defaults for zero fields.
func (c *Config) GuardLimits() engine.Guard {
	g := engine.DefaultGuard()
	if c.Guard.MaxDocumentLength > 0 {
		g.MaxDocumentLength = c.Guard.MaxDocumentLength
	}
	if c.Guard.MaxMatchesPerPattern > 0 {
		g.MaxMatchesPerPattern = c.Guard.MaxMatchesPerPattern
	}
	if c.Guard.MaxComplexityScore > 0 {
		g.MaxComplexityScore = c.Guard.MaxComplexityScore
	}
	return g
}

func (c *Config) validate() error {
	if err := validateSettings("defaults", c.Defaults); err != nil {
		return err
	}
	for name, p := range c.Profiles {
		if err := validateSettings("profile "+name, p.Settings); err != nil {
			return err
		}
	}
	return nil
}

func validateSettings(where string, s Settings) error {
	switch s.Action {
	case "", string(redact.ActionMask), string(redact.ActionRemove),
		string(redact.ActionTokenize), string(redact.ActionIgnore):
	default:
		return fmt.Errorf("%s: unknown action %q", where, s.Action)
	}
	switch s.Sensitivity {
	case "", string(redact.SensitivityStrict), string(redact.SensitivityBalanced),
		string(redact.SensitivityRelaxed):
	default:
		return fmt.Errorf("%s: unknown sensitivity %q", where, s.Sensitivity)
	}
	if s.Threshold < 0 || s.Threshold > 0.99 {
		return fmt.Errorf("%s: threshold %v out of range", where, s.Threshold)
	}
	switch s.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%s: unknown format %q", where, s.Format)
	}
	return nil
}
