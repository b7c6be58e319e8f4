// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package cli implements the piiscrub command tree.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"piiscrub/pkg/config"
)

const version = "1.0.0"

// Exit codes. Findings are not an error, but scripts need to branch on them.
const (
	ExitSuccess      = 0
	ExitFindings     = 1
	ExitUsageError   = 2
	ExitRuntimeError = 4
)

var (
	flagConfig  string
	flagProfile string
	flagVerbose bool
	flagNoColor bool
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
	Prefix:          "piiscrub",
})

var rootCmd = &cobra.Command{
	Use:           "piiscrub",
	Short:         "Detect and redact personal data in text",
	Long:          "piiscrub scans text for emails, phone numbers, card numbers, and network identifiers, scores each finding in context, and redacts by policy.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyVerbosity()
	},
}

// applyVerbosity raises the log level once flags have been parsed.
func applyVerbosity() {
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	}
}

// exitCode is set by command handlers.
var exitCode = ExitSuccess

// Run executes the root command and returns the process exit code.
func Run() int {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: auto-discover)")
	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "Named settings profile")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(redactCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error(err.Error())
		if exitCode == ExitSuccess {
			return ExitRuntimeError
		}
	}
	return exitCode
}

// loadSettings resolves config file and profile into effective settings,
// returning the full config alongside for guard and rule blocks.
func loadSettings() (config.Settings, *config.Config, error) {
	path := flagConfig
	if path == "" {
		path = config.FindFile()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Settings{}, nil, err
	}
	s, err := cfg.EffectiveSettings(flagProfile)
	if err != nil {
		return config.Settings{}, nil, err
	}
	if flagNoColor {
		s.NoColor = true
	}
	if flagVerbose {
		s.Verbose = true
	}
	return s, cfg, nil
}

// readInput returns the text of the named file, or stdin for "-" or no arg.
func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}

// stdoutIsTerminal reports whether stdout is a TTY; color defaults off when
// output is piped.
func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print piiscrub version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "piiscrub version %s\n", version)
	},
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List configured profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagConfig
		if path == "" {
			path = config.FindFile()
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		for _, name := range cfg.ListProfiles() {
			p := cfg.Profiles[name]
			fmt.Fprintf(os.Stdout, "%s\t%s\n", name, p.Description)
		}
		return nil
	},
}
