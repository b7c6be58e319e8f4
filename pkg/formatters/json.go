// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters

import (
	"encoding/json"

	"piiscrub/pkg/detector"
	"piiscrub/pkg/pipeline"
)

// JSONFormatter renders machine-readable output.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter() *JSONFormatter { return &JSONFormatter{} }

func (f *JSONFormatter) Name() string { return "json" }

func (f *JSONFormatter) Description() string {
	return "Machine-readable JSON findings"
}

func (f *JSONFormatter) FileExtension() string { return ".json" }

type jsonFinding struct {
	Type       detector.Type     `json:"type"`
	Start      int               `json:"start"`
	End        int               `json:"end"`
	Value      string            `json:"value,omitempty"`
	Risk       detector.Risk     `json:"risk"`
	Confidence float64           `json:"confidence"`
	Reasons    []string          `json:"reasons,omitempty"`
	Features   detector.Features `json:"features"`
}

type jsonReport struct {
	Findings    []jsonFinding `json:"findings"`
	GuardReason string        `json:"guard_reason,omitempty"`
}

// Format renders findings as indented JSON. Values are included only when the
// options ask for them.
func (f *JSONFormatter) Format(res *pipeline.Result, options Options) (string, error) {
	report := jsonReport{
		Findings:    make([]jsonFinding, 0, len(res.Hits)),
		GuardReason: string(res.GuardReason),
	}
	for _, h := range res.Hits {
		finding := jsonFinding{
			Type:       h.Type,
			Start:      h.Start,
			End:        h.End,
			Risk:       h.Risk,
			Confidence: h.Confidence,
			Features:   h.Features,
		}
		if options.ShowValues {
			finding.Value = h.Value
		}
		if options.Verbose {
			finding.Reasons = h.Reasons
		}
		report.Findings = append(report.Findings, finding)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out) + "\n", nil
}
