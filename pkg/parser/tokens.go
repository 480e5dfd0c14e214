package parser

import (
	"math"
	"strconv"
	"strings"

	"cscanfuse/internal/models"
)

// splitLines splits content on \n, dropping the \r of \r\n endings
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// splitTabOrComma splits a line on every tab and comma, keeping empty
// tokens so columns stay aligned. Tokens are trimmed.
func splitTabOrComma(line string) []string {
	var tokens []string

	start := 0
	for i := 0; i < len(line); i++ {
		if line[i] == '\t' || line[i] == ',' {
			tokens = append(tokens, strings.TrimSpace(line[start:i]))
			start = i + 1
		}
	}
	return append(tokens, strings.TrimSpace(line[start:]))
}

// parseNumber parses a trimmed token as a finite float. Decimal and
// exponent forms ("12.5", "1e3") parse; hex without a p exponent ("0x10"),
// NaN, Inf and trailing units ("12mm") do not.
func parseNumber(token string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// axisValue parses an axis token; unparsable tokens become 0 so the column
// keeps its position.
func axisValue(token string) float64 {
	v, ok := parseNumber(token)
	if !ok {
		return 0
	}
	return v
}

// isMissingToken reports whether a token is an explicit no-data marker
func isMissingToken(token string) bool {
	switch strings.TrimSpace(token) {
	case "ND", "", "-":
		return true
	}
	return false
}

// cellValue converts a data token into a cell. Markers and unparsable
// tokens become the no-data marker.
func cellValue(token string) models.Cell {
	if isMissingToken(token) {
		return models.Missing()
	}
	v, ok := parseNumber(token)
	if !ok {
		return models.Missing()
	}
	return models.Of(v)
}

// cellRow converts a run of data tokens into cells
func cellRow(tokens []string) []models.Cell {
	cells := make([]models.Cell, len(tokens))
	for i, token := range tokens {
		cells[i] = cellValue(token)
	}
	return cells
}

// axisValues converts a run of header tokens into axis coordinates
func axisValues(tokens []string) []float64 {
	axis := make([]float64, len(tokens))
	for i, token := range tokens {
		axis[i] = axisValue(token)
	}
	return axis
}

// indexAxis returns the coordinates 0..n-1
func indexAxis(n int) []float64 {
	axis := make([]float64, n)
	for i := range axis {
		axis[i] = float64(i)
	}
	return axis
}

// fitRows pads short rows with no-data cells and truncates long rows so
// every row has exactly width cells.
func fitRows(data [][]models.Cell, width int) [][]models.Cell {
	for i, row := range data {
		switch {
		case len(row) > width:
			data[i] = row[:width:width]
		case len(row) < width:
			padded := make([]models.Cell, width)
			copy(padded, row)
			data[i] = padded
		}
	}
	return data
}

// coerceValue returns a metadata value as a number when it parses cleanly,
// otherwise as the original string.
func coerceValue(value string) any {
	if v, ok := parseNumber(value); ok {
		return v
	}
	return value
}
