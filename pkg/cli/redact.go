// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"piiscrub/pkg/pipeline"
	"piiscrub/pkg/redact"
)

var (
	flagAction      string
	flagSensitivity string
	flagThreshold   float64
	flagOut         string
	flagAudit       bool
)

var redactCmd = &cobra.Command{
	Use:   "redact [file]",
	Short: "Rewrite input with personal data redacted",
	Long:  "Redact reads a file (or stdin) and writes the redacted text to stdout or --out. Findings below the confidence threshold pass through unchanged.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRedact,
}

func init() {
	redactCmd.Flags().StringVar(&flagAction, "action", "", "Default action (mask, remove, tokenize, ignore)")
	redactCmd.Flags().StringVar(&flagSensitivity, "sensitivity", "", "Sensitivity level (strict, balanced, relaxed)")
	redactCmd.Flags().Float64Var(&flagThreshold, "threshold", 0, "Numeric confidence threshold, overrides sensitivity")
	redactCmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output file (default: stdout)")
	redactCmd.Flags().BoolVar(&flagAudit, "audit", false, "Print a JSON audit of applied actions to stderr")
}

func runRedact(cmd *cobra.Command, args []string) error {
	settings, cfg, err := loadSettings()
	if err != nil {
		exitCode = ExitUsageError
		return err
	}
	text, err := readInput(args)
	if err != nil {
		exitCode = ExitRuntimeError
		return err
	}

	policy := settings.Policy()
	if flagAction != "" {
		policy.DefaultAction = redact.Action(flagAction)
	}
	if flagSensitivity != "" {
		policy.Sensitivity = redact.Sensitivity(flagSensitivity)
	}
	if flagThreshold > 0 {
		policy.Threshold = flagThreshold
	}

	p := pipeline.New(pipelineOptions(cfg)...)
	out, applied, err := p.Redact(text, policy)
	if err != nil {
		exitCode = ExitRuntimeError
		return err
	}

	if err := writeOutput(out); err != nil {
		exitCode = ExitRuntimeError
		return err
	}

	if flagAudit {
		if err := json.NewEncoder(os.Stderr).Encode(applied); err != nil {
			logger.Error("writing audit", "err", err)
		}
	}
	logger.Debug("redaction complete", "actions", len(applied))
	return nil
}

func writeOutput(out string) error {
	if flagOut == "" {
		_, err := fmt.Fprint(os.Stdout, out)
		return err
	}
	return os.WriteFile(flagOut, []byte(out), 0o600)
}
