package discovery

import (
	"path/filepath"
	"strings"

	"flaky/internal/domain"
)

// Filter filters names by pattern
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByName filters file paths by name pattern using wildcard matching
// Supports patterns like "cycle-1*.json" or "*nightly*"
func (f *Filter) FilterByName(paths []string, pattern string) []string {
	if pattern == "" {
		return paths
	}

	var filtered []string
	for _, path := range paths {
		// Get just the filename from the full path
		if f.Match(filepath.Base(path), pattern) {
			filtered = append(filtered, path)
		}
	}

	return filtered
}

// FilterRecords keeps records whose test name, suite or file matches pattern
func (f *Filter) FilterRecords(records []domain.AggregatedRecord, pattern string) []domain.AggregatedRecord {
	if pattern == "" {
		return records
	}

	var filtered []domain.AggregatedRecord
	for _, r := range records {
		if f.Match(r.Name, pattern) || f.Match(r.Suite, pattern) || f.Match(r.File, pattern) {
			filtered = append(filtered, r)
		}
	}

	return filtered
}

// Match reports whether name matches pattern
func (f *Filter) Match(name, pattern string) bool {
	// Try to match using filepath.Match (supports * and ? wildcards)
	matched, err := filepath.Match(pattern, name)
	if err == nil && matched {
		return true
	}

	// If pattern contains wildcards but filepath.Match didn't match,
	// try a more flexible substring match for patterns like "*Payment*"
	if strings.Contains(pattern, "*") {
		hasNonEmptyPart := false
		for _, part := range strings.Split(pattern, "*") {
			if part == "" {
				continue
			}
			hasNonEmptyPart = true
			if !strings.Contains(name, part) {
				return false
			}
		}
		return hasNonEmptyPart
	}

	// If no wildcards, do a simple contains check
	if !strings.Contains(pattern, "?") {
		return strings.Contains(name, pattern)
	}

	return false
}
