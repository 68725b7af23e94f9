package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"flaky/internal/domain"
)

// Save writes the analysis output to the configured JSON output file.
func (s *JSONStorage) Save(output *domain.AnalysisOutput) error {
	if output.Records == nil {
		output.Records = []domain.AggregatedRecord{}
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	path := s.cfg.GetOutputPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	// Write to a sibling file first so a viewer never reads a half-written file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// Load reads the last analysis output from the configured JSON output file.
func (s *JSONStorage) Load() (*domain.AnalysisOutput, error) {
	path := s.cfg.GetOutputPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var output domain.AnalysisOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &output, nil
}
