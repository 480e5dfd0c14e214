package parser

import (
	"strings"

	"cscanfuse/internal/models"
)

// GenericStrategy parses a plain delimited matrix, with or without an axis
// label row. It accepts any content, so it belongs last in the detection
// order.
//
// The delimiter is taken from the first non-blank line: tab if present,
// else comma, else runs of whitespace. The first line is an axis label row
// when its first cell is empty, is "mm", or is not a number. Without label
// rows every cell is data and both axes are synthesized as 0..n-1.
type GenericStrategy struct{}

// Name implements Strategy
func (GenericStrategy) Name() string { return "generic" }

// Parse implements Strategy
func (GenericStrategy) Parse(lines []string) (*Grid, error) {
	var rows []string
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) == 0 {
		return nil, errNoMatrix
	}

	split := delimiterFor(rows[0])

	first := split(rows[0])
	hasLabels := len(first) == 0 || first[0] == "" || first[0] == markerPrefix
	if !hasLabels {
		_, numeric := parseNumber(first[0])
		hasLabels = !numeric
	}

	var xAxis, yAxis []float64
	start := 0
	if hasLabels {
		if len(first) > 1 {
			xAxis = axisValues(first[1:])
		}
		start = 1
	}

	var data [][]models.Cell
	for _, line := range rows[start:] {
		tokens := split(line)
		if len(tokens) == 0 {
			continue
		}

		if !hasLabels {
			data = append(data, cellRow(tokens))
			continue
		}

		y, ok := parseNumber(tokens[0])
		if !ok {
			continue
		}
		yAxis = append(yAxis, y)
		data = append(data, cellRow(tokens[1:]))
	}

	if len(xAxis) == 0 && len(data) > 0 {
		xAxis = indexAxis(len(data[0]))
	}
	if len(yAxis) == 0 {
		yAxis = indexAxis(len(data))
	}

	if len(xAxis) == 0 || len(yAxis) == 0 || len(data) == 0 {
		return nil, errNoMatrix
	}

	return &Grid{
		XAxis:    xAxis,
		YAxis:    yAxis,
		Data:     fitRows(data, len(xAxis)),
		Metadata: models.Metadata{},
	}, nil
}

// delimiterFor picks the splitting function for a matrix from its first line
func delimiterFor(line string) func(string) []string {
	switch {
	case strings.ContainsRune(line, '\t'):
		return splitOn('\t')
	case strings.ContainsRune(line, ','):
		return splitOn(',')
	default:
		return strings.Fields
	}
}

// splitOn splits on a single delimiter, trimming each token
func splitOn(delim rune) func(string) []string {
	return func(line string) []string {
		tokens := strings.Split(line, string(delim))
		for i, token := range tokens {
			tokens[i] = strings.TrimSpace(token)
		}
		return tokens
	}
}
