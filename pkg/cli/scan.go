// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"piiscrub/pkg/batch"
	"piiscrub/pkg/config"
	"piiscrub/pkg/engine"
	"piiscrub/pkg/formatters"
	"piiscrub/pkg/observability"
	"piiscrub/pkg/pipeline"
	"piiscrub/pkg/rules"
)

var (
	flagScanFormat  string
	flagShowValues  bool
	flagObserveScan bool
	flagScanWorkers int
)

var scanCmd = &cobra.Command{
	Use:   "scan [file...]",
	Short: "Detect personal data and report findings",
	Long:  "Scan reads one or more files (or stdin) and prints the findings without modifying anything. Multiple files are scanned concurrently. Exit code 1 means findings were present.",
	Args:  cobra.ArbitraryArgs,
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&flagScanFormat, "format", "", "Output format (text, json)")
	scanCmd.Flags().BoolVar(&flagShowValues, "show-values", false, "Print the matched values themselves")
	scanCmd.Flags().BoolVar(&flagObserveScan, "observe", false, "Emit stage timing records to stderr")
	scanCmd.Flags().IntVar(&flagScanWorkers, "workers", runtime.NumCPU(), "Concurrent workers for multi-file scans")
}

func runScan(cmd *cobra.Command, args []string) error {
	settings, cfg, err := loadSettings()
	if err != nil {
		exitCode = ExitUsageError
		return err
	}
	if len(args) > 1 {
		return runScanBatch(cfg, args)
	}
	text, err := readInput(args)
	if err != nil {
		exitCode = ExitRuntimeError
		return err
	}

	p := pipeline.New(pipelineOptions(cfg)...)
	res := p.Detect(text, settings.ContextHints...)
	defer p.ReleaseHits(res)

	format := settings.Format
	if flagScanFormat != "" {
		format = flagScanFormat
	}
	formatter, ok := formatters.NewRegistry().Get(format)
	if !ok {
		exitCode = ExitUsageError
		return fmt.Errorf("unknown format %q", format)
	}

	out, err := formatter.Format(res, formatters.Options{
		Verbose:    settings.Verbose,
		NoColor:    settings.NoColor || !stdoutIsTerminal(),
		ShowValues: flagShowValues,
	})
	if err != nil {
		exitCode = ExitRuntimeError
		return err
	}
	fmt.Fprint(os.Stdout, out)

	if res.Rejected() {
		logger.Warn("input rejected", "reason", res.GuardReason)
		exitCode = ExitRuntimeError
		return nil
	}
	if len(res.Hits) > 0 {
		exitCode = ExitFindings
	}
	return nil
}

// runScanBatch fans the named files out across a worker pool and prints a
// per-file summary. Unreadable files count as runtime errors but do not stop
// the remaining jobs.
func runScanBatch(cfg *config.Config, paths []string) error {
	jobs := make([]batch.Job, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("read failed", "file", path, "err", err)
			exitCode = ExitRuntimeError
			continue
		}
		jobs = append(jobs, batch.Job{ID: path, Text: string(data)})
	}

	runner := batch.NewRunner(flagScanWorkers, nil, pipelineOptions(cfg)...)
	ctx := context.Background()
	runner.Start(ctx)

	go func() {
		for _, job := range jobs {
			if !runner.Submit(ctx, job) {
				return
			}
		}
		runner.Close()
	}()

	found := false
	for res := range runner.Results() {
		switch {
		case res.Err != nil:
			logger.Error("scan failed", "file", res.ID, "err", res.Err)
			exitCode = ExitRuntimeError
		case res.GuardReason != engine.GuardOK:
			logger.Warn("input rejected", "file", res.ID, "reason", res.GuardReason)
			exitCode = ExitRuntimeError
		default:
			fmt.Fprintf(os.Stdout, "%s: %d findings\n", res.ID, len(res.Findings))
			for _, f := range res.Findings {
				fmt.Fprintf(os.Stdout, "  %s [%d:%d) risk=%s confidence=%.2f\n",
					f.Type, f.Start, f.End, f.Risk, f.Confidence)
			}
			if len(res.Findings) > 0 {
				found = true
			}
		}
	}
	if found && exitCode == ExitSuccess {
		exitCode = ExitFindings
	}
	return nil
}

// pipelineOptions maps the config's guard and rule blocks onto pipeline
// construction options.
func pipelineOptions(cfg *config.Config) []pipeline.Option {
	opts := []pipeline.Option{pipeline.WithGuard(cfg.GuardLimits())}

	rc := rules.DefaultConfig()
	if cfg.Rules.SuppressionEnabled != nil {
		rc.SuppressionEnabled = *cfg.Rules.SuppressionEnabled
	}
	if cfg.Rules.BoostEnabled != nil {
		rc.BoostEnabled = *cfg.Rules.BoostEnabled
	}
	opts = append(opts, pipeline.WithRules(rules.NewEngine(rc)))

	if flagObserveScan {
		obs := observability.NewStandardObserver(observability.LevelDebug, os.Stderr)
		opts = append(opts, pipeline.WithObserver(obs))
	}
	return opts
}
