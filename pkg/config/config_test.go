// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piiscrub/pkg/detector"
	"piiscrub/pkg/redact"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "piiscrub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Defaults.Format)
	assert.Equal(t, string(redact.ActionMask), cfg.Defaults.Action)
	assert.Equal(t, string(redact.SensitivityBalanced), cfg.Defaults.Sensitivity)
	assert.Contains(t, cfg.Profiles, "precommit")
	assert.True(t, cfg.Defaults.Types[string(detector.TypeCreditCard)].PreserveLast4)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
defaults:
  format: json
  action: tokenize
  sensitivity: relaxed
  token_key_env: PIISCRUB_KEY
  types:
    email:
      action: remove
guard:
  max_document_length: 1024
profiles:
  audit:
    description: full audit output
    sensitivity: strict
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Defaults.Format)
	assert.Equal(t, "tokenize", cfg.Defaults.Action)
	assert.Equal(t, 1024, cfg.GuardLimits().MaxDocumentLength)
	assert.Equal(t, "remove", cfg.Defaults.Types["email"].Action)

	s, err := cfg.EffectiveSettings("audit")
	require.NoError(t, err)
	assert.Equal(t, "strict", s.Sensitivity)
	// Unset profile fields inherit the defaults.
	assert.Equal(t, "json", s.Format)
	assert.Equal(t, "tokenize", s.Action)
}

func TestLoad_InvalidValues(t *testing.T) {
	for _, body := range []string{
		"defaults:\n  action: shred\n",
		"defaults:\n  sensitivity: paranoid\n",
		"defaults:\n  format: xml\n",
		"defaults:\n  threshold: 2.5\n",
		"profiles:\n  p:\n    action: shred\n",
	} {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, body)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	cfg := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, "text", cfg.Defaults.Format)
}

func TestEffectiveSettings_UnknownProfile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	_, err = cfg.EffectiveSettings("nope")
	assert.Error(t, err)
}

func TestSettingsPolicy(t *testing.T) {
	t.Setenv("PIISCRUB_TEST_KEY", "0123456789abcdef0123456789abcdef")
	s := Settings{
		Action:      string(redact.ActionTokenize),
		Sensitivity: string(redact.SensitivityStrict),
		TokenKeyEnv: "PIISCRUB_TEST_KEY",
		Types: map[string]TypeSettings{
			"credit_card": {Action: "mask", PreserveLast4: true},
		},
		ContextHints: []string{"invoice"},
	}

	p := s.Policy()

	assert.Equal(t, redact.ActionTokenize, p.DefaultAction)
	assert.Equal(t, redact.SensitivityStrict, p.Sensitivity)
	assert.Len(t, p.HMACKey, 32)
	assert.True(t, p.Types[detector.TypeCreditCard].PreserveLast4)
	assert.NoError(t, p.Validate())
}
