package storage

import (
	"flaky/internal/config"
	"flaky/internal/domain"
)

// Storage persists and loads analysis results (e.g. for the list and view commands).
type Storage interface {
	Save(output *domain.AnalysisOutput) error
	Load() (*domain.AnalysisOutput, error)
}

// JSONStorage stores results in a JSON file under the configured output path.
type JSONStorage struct {
	cfg *config.Config
}

// NewJSONStorage returns a Storage that reads/writes the config's output JSON path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}
