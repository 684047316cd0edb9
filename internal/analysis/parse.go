// internal/analysis/parse.go
package analysis

import (
	"errors"
	"log/slog"
)

// Parser turns analysis text into a Record. It holds no per-call state and is
// safe for concurrent use.
type Parser struct {
	logger *slog.Logger
}

type Option func(*Parser)

// WithLogger sets the logger used for non-fatal diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse returns a complete Record, or an error wrapping ErrRecordIncomplete.
func (p *Parser) Parse(text string) (*Record, error) {
	rec, _, err := p.ParseDetailed(text)
	return rec, err
}

// ParseDetailed also returns the non-fatal diagnostics gathered on the way.
func (p *Parser) ParseDetailed(text string) (*Record, []error, error) {
	ext := Extract(ScanSections(text))
	for _, d := range ext.Diagnostics {
		switch {
		case errors.Is(d, ErrSectionNotFound):
			p.logger.Debug("analysis section missing", "detail", d.Error())
		case errors.Is(d, ErrFieldNotExtracted):
			p.logger.Debug("analysis field missing", "detail", d.Error())
		}
	}

	rec, err := FromExtraction(ext).Build()
	if err != nil {
		p.logger.Warn("analysis text rejected", "error", err)
		return nil, ext.Diagnostics, err
	}
	return rec, ext.Diagnostics, nil
}

// Parse uses a parser bound to the current default logger.
func Parse(text string) (*Record, error) {
	return NewParser().Parse(text)
}
