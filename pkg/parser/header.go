package parser

import (
	"strings"

	"cscanfuse/internal/models"
)

// markerPrefix starts the line that ends the metadata header and carries
// the X axis coordinates.
const markerPrefix = "mm"

// HeaderStrategy parses the instrument layout made of key=value header
// lines followed by a data matrix whose header row starts with "mm":
//
//	Operator=J. Smith
//	Velocity=5920
//	mm	0	1	2
//	0	10.1	10.2	ND
//	1	10.0	-	9.8
//
// Matrix lines are split on tabs or commas. The first column holds the Y
// coordinate; rows whose Y coordinate does not parse are skipped.
type HeaderStrategy struct{}

// Name implements Strategy
func (HeaderStrategy) Name() string { return "metadata-header" }

// Parse implements Strategy. Content without a marker line is not
// applicable.
func (HeaderStrategy) Parse(lines []string) (*Grid, error) {
	metadata := models.Metadata{}
	marker := -1

	// Step 1: Read key=value pairs until the marker line
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, markerPrefix) {
			marker = i
			break
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key != "" && value != "" {
			metadata[key] = coerceValue(value)
		}
	}

	if marker < 0 {
		return nil, ErrNotApplicable
	}

	// Step 2: The marker line holds the X axis after its label cell
	header := splitTabOrComma(strings.TrimSpace(lines[marker]))
	xAxis := axisValues(header[1:])

	// Step 3: Every following non-blank line with a numeric Y is a row
	var yAxis []float64
	var data [][]models.Cell
	for _, line := range lines[marker+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}

		tokens := splitTabOrComma(line)
		y, ok := parseNumber(tokens[0])
		if !ok {
			continue
		}

		yAxis = append(yAxis, y)
		data = append(data, cellRow(tokens[1:]))
	}

	if len(xAxis) == 0 || len(yAxis) == 0 || len(data) == 0 {
		return nil, errNoMatrix
	}

	return &Grid{
		XAxis:    xAxis,
		YAxis:    yAxis,
		Data:     fitRows(data, len(xAxis)),
		Metadata: metadata,
	}, nil
}
