// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"piiscrub/pkg/detector"
	"piiscrub/pkg/pipeline"
)

// TextFormatter renders human-readable colored output.
type TextFormatter struct {
	colors map[detector.Risk]*color.Color
}

// NewTextFormatter creates a text formatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		colors: map[detector.Risk]*color.Color{
			detector.RiskHigh:   color.New(color.FgRed, color.Bold),
			detector.RiskMedium: color.New(color.FgYellow),
			detector.RiskLow:    color.New(color.FgCyan),
		},
	}
}

func (f *TextFormatter) Name() string { return "text" }

func (f *TextFormatter) Description() string {
	return "Human-readable colored finding list"
}

func (f *TextFormatter) FileExtension() string { return ".txt" }

// Format renders the findings grouped by risk, highest first.
func (f *TextFormatter) Format(res *pipeline.Result, options Options) (string, error) {
	if options.NoColor {
		color.NoColor = true
	}

	if res.Rejected() {
		return fmt.Sprintf("Input rejected: %s\n", res.GuardReason), nil
	}
	if len(res.Hits) == 0 {
		return "No findings.\n", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Findings: %d\n\n", len(res.Hits))

	for _, risk := range []detector.Risk{detector.RiskHigh, detector.RiskMedium, detector.RiskLow} {
		for _, h := range res.Hits {
			if h.Risk != risk {
				continue
			}
			f.writeHit(&b, h, options)
		}
	}
	return b.String(), nil
}

func (f *TextFormatter) writeHit(b *strings.Builder, h *detector.Hit, options Options) {
	c, ok := f.colors[h.Risk]
	if !ok {
		c = color.New(color.FgWhite)
	}

	label := c.Sprintf("[%s]", strings.ToUpper(string(h.Risk)))
	fmt.Fprintf(b, "%s %s at %d-%d (confidence %.2f)\n",
		label, h.Type, h.Start, h.End, h.Confidence)

	if options.ShowValues {
		fmt.Fprintf(b, "    match: %s\n", h.Value)
	}
	if options.Verbose {
		if h.Features.Brand != "" {
			fmt.Fprintf(b, "    brand: %s\n", h.Features.Brand)
		}
		if h.Features.AddressClass != "" {
			fmt.Fprintf(b, "    class: %s\n", h.Features.AddressClass)
		}
		if len(h.Reasons) > 0 {
			fmt.Fprintf(b, "    reasons: %s\n", strings.Join(h.Reasons, ", "))
		}
		for _, e := range h.Features.RuleEffects {
			fmt.Fprintf(b, "    rule: %s (%s x%.2f)\n", e.RuleID, e.Direction, e.Weight)
		}
	}
}
