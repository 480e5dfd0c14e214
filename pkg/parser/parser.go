// Package parser turns raw C-scan text exports into scan records.
//
// The format is detected from content, never from the filename. Detection
// runs an ordered list of strategies; the first strategy that recognises
// the content produces the grid. Malformed cells and axis tokens degrade to
// the no-data marker or a placeholder coordinate instead of failing the
// file, and a ParseError is returned only when no usable grid remains.
package parser

import (
	"errors"
	"fmt"

	"cscanfuse/internal/models"
	"cscanfuse/pkg/stats"
)

// ErrNotApplicable is returned by a Strategy that does not recognise the
// content it was given.
var ErrNotApplicable = errors.New("format not applicable")

// errNoMatrix is returned by a strategy that recognised the content but
// could not extract axes and rows from it.
var errNoMatrix = errors.New("no usable data matrix")

// ParseError reports a file from which no usable grid could be extracted.
type ParseError struct {
	// Filename is the display name of the offending file
	Filename string

	// Strategy names the format that claimed the file, if any
	Strategy string

	Reason string
	Err    error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Strategy != "" {
		return fmt.Sprintf("parse %s (%s): %s", e.Filename, e.Strategy, e.Reason)
	}
	return fmt.Sprintf("parse %s: %s", e.Filename, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Grid is the raw result of a strategy: axes, rows and header fields.
// Rows have already been fitted to len(XAxis).
type Grid struct {
	XAxis    []float64
	YAxis    []float64
	Data     [][]models.Cell
	Metadata models.Metadata
}

// usable reports whether the grid has at least one axis value on each
// axis and at least one row.
func (g *Grid) usable() bool {
	return len(g.XAxis) > 0 && len(g.YAxis) > 0 && len(g.Data) > 0
}

// Strategy recognises and parses one file layout.
type Strategy interface {
	// Name identifies the strategy in errors and logs
	Name() string

	// Parse returns the grid, ErrNotApplicable if the layout is not
	// recognised, or another error if it is recognised but unusable.
	Parse(lines []string) (*Grid, error)
}

// DefaultStrategies returns the detection order used by Parse: the
// metadata-header layout first, then the generic delimited layout.
func DefaultStrategies() []Strategy {
	return []Strategy{HeaderStrategy{}, GenericStrategy{}}
}

// Parser evaluates strategies in order.
type Parser struct {
	strategies []Strategy
}

// New creates a parser. With no strategies it uses DefaultStrategies.
func New(strategies ...Strategy) *Parser {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Parser{strategies: strategies}
}

var defaultParser = New()

// Parse parses content with the default strategies.
func Parse(filename, content string) (*models.ScanRecord, error) {
	return defaultParser.Parse(filename, content)
}

// Parse turns the text content of one file into a ScanRecord.
//
// Each call is independent; the parser holds no state between calls and
// can be shared between goroutines.
func (p *Parser) Parse(filename, content string) (*models.ScanRecord, error) {
	lines := splitLines(content)

	for _, s := range p.strategies {
		grid, err := s.Parse(lines)
		if errors.Is(err, ErrNotApplicable) {
			continue
		}
		if err != nil {
			return nil, &ParseError{Filename: filename, Strategy: s.Name(), Reason: err.Error(), Err: err}
		}
		if grid == nil || !grid.usable() {
			return nil, &ParseError{Filename: filename, Strategy: s.Name(), Reason: errNoMatrix.Error(), Err: errNoMatrix}
		}

		summary := stats.Calculate(grid.Data, grid.XAxis, grid.YAxis)
		return models.NewScanRecord(filename, grid.Data, grid.XAxis, grid.YAxis, summary, grid.Metadata), nil
	}

	return nil, &ParseError{Filename: filename, Reason: errNoMatrix.Error(), Err: errNoMatrix}
}
