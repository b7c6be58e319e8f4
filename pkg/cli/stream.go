// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"piiscrub/pkg/pipeline"
	"piiscrub/pkg/stream"
)

var flagWindow int

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Redact stdin to stdout incrementally",
	Long:  "Stream redacts a pipe without buffering the whole input, holding back a small tail window so values split across chunks are still caught. Binary input passes through untouched.",
	RunE:  runStream,
}

func init() {
	streamCmd.Flags().IntVar(&flagWindow, "window", 0, "Tail window in bytes (default 96)")
}

func runStream(cmd *cobra.Command, args []string) error {
	settings, cfg, err := loadSettings()
	if err != nil {
		exitCode = ExitUsageError
		return err
	}

	policy := settings.Policy()
	if err := policy.Validate(); err != nil {
		exitCode = ExitUsageError
		return err
	}

	p := pipeline.New(pipelineOptions(cfg)...)
	transform := func(text string) (string, error) {
		out, _, err := p.Redact(text, policy)
		var rejected *pipeline.ErrInputRejected
		if errors.As(err, &rejected) {
			// A guard-refused chunk passes through unredacted rather than
			// killing the stream.
			logger.Warn("chunk passed through unredacted", "reason", rejected.Reason)
			return text, nil
		}
		return out, err
	}

	window := flagWindow
	if window == 0 {
		window = settings.StreamWindow
	}

	err = stream.Copy(os.Stdout, os.Stdin, transform, stream.WithWindow(window))
	if err != nil {
		exitCode = ExitRuntimeError
		return err
	}
	return nil
}
