package parser

import "flaky/internal/domain"

// Parser parses one cycle's raw report
type Parser interface {
	Parse(raw []byte) (*domain.Report, error)
}
