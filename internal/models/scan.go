package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Cell is a single thickness reading in a scan grid.
// A cell with Present == false is the no-data (ND) marker; it is never
// represented by a numeric sentinel such as 0 or -1.
type Cell struct {
	Value   float64
	Present bool
}

// Missing returns the no-data marker
func Missing() Cell {
	return Cell{}
}

// Of returns a cell holding v
func Of(v float64) Cell {
	return Cell{Value: v, Present: true}
}

// Valid reports whether the cell holds a usable reading: present, not NaN
// and finite.
func (c Cell) Valid() bool {
	return c.Present && !math.IsNaN(c.Value) && !math.IsInf(c.Value, 0)
}

// MarshalJSON encodes a no-data cell as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// UnmarshalJSON decodes null as the no-data marker.
func (c *Cell) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = Missing()
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("invalid cell value: %w", err)
	}
	*c = Of(v)
	return nil
}

// MarshalYAML encodes a no-data cell as null.
func (c Cell) MarshalYAML() (interface{}, error) {
	if !c.Valid() {
		return nil, nil
	}
	return c.Value, nil
}

// Metadata holds instrument-reported header fields. Values are either
// string or float64; headers differ between manufacturers so no fixed
// shape is imposed.
type Metadata map[string]any

// String returns the value stored under key formatted as a string.
func (m Metadata) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), true
	default:
		return fmt.Sprint(t), true
	}
}

// Number returns the value stored under key if it is numeric.
func (m Metadata) Number(key string) (float64, bool) {
	v, ok := m[key].(float64)
	return v, ok
}

// StatsSummary is the derived, read-only summary of a scan grid.
type StatsSummary struct {
	// Value statistics, computed over valid cells only
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	StdDev float64 `json:"stdDev" yaml:"stdDev"`

	// Point counts
	ValidPoints int     `json:"validPoints" yaml:"validPoints"`
	TotalPoints int     `json:"totalPoints" yaml:"totalPoints"`
	NDCount     int     `json:"ndCount" yaml:"ndCount"`
	NDPercent   float64 `json:"ndPercent" yaml:"ndPercent"`

	// Physical areas, in squared axis units
	TotalArea float64 `json:"totalArea" yaml:"totalArea"`
	ValidArea float64 `json:"validArea" yaml:"validArea"`
	NDArea    float64 `json:"ndArea" yaml:"ndArea"`
}

// ScanRecord represents a single parsed C-scan, or a composite of several
// scans merged onto one grid.
//
// Data is indexed Data[row][col]; rows follow YAxis (index axis) and
// columns follow XAxis (scan axis). A ScanRecord is treated as immutable
// once built; use Clone before modifying it.
type ScanRecord struct {
	// ID is a unique identifier generated when the record is built
	ID string `json:"id" yaml:"id"`

	// Filename is the display name of the source file, or a synthesized
	// name for composites
	Filename string `json:"filename" yaml:"filename"`

	// Width and Height are the grid dimensions
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	Data  [][]Cell  `json:"data" yaml:"data"`
	XAxis []float64 `json:"xAxis" yaml:"xAxis"`
	YAxis []float64 `json:"yAxis" yaml:"yAxis"`

	// Stats is computed once when the record is built
	Stats StatsSummary `json:"stats" yaml:"stats"`

	Metadata Metadata `json:"metadata" yaml:"metadata"`

	// ValidPoints mirrors Stats.ValidPoints
	ValidPoints int `json:"validPoints" yaml:"validPoints"`

	// Timestamp is when this record was created
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Composite-only fields
	IsComposite bool     `json:"isComposite,omitempty" yaml:"isComposite,omitempty"`
	SourceFiles []string `json:"sourceFiles,omitempty" yaml:"sourceFiles,omitempty"`
	Resolution  float64  `json:"resolution,omitempty" yaml:"resolution,omitempty"`
}

// NewScanRecord assembles a record from a grid, its axes and its summary.
// Width and Height are taken from the axes.
func NewScanRecord(filename string, data [][]Cell, xAxis, yAxis []float64, stats StatsSummary, metadata Metadata) *ScanRecord {
	if metadata == nil {
		metadata = Metadata{}
	}
	return &ScanRecord{
		ID:          NewID(),
		Filename:    filename,
		Width:       len(xAxis),
		Height:      len(yAxis),
		Data:        data,
		XAxis:       xAxis,
		YAxis:       yAxis,
		Stats:       stats,
		Metadata:    metadata,
		ValidPoints: stats.ValidPoints,
		Timestamp:   time.Now(),
	}
}

// NewID returns a fresh, time-ordered record identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Validate checks the shape invariant: Width == len(XAxis),
// Height == len(YAxis) == len(Data), and every row has Width cells.
func (r *ScanRecord) Validate() error {
	if r.Width != len(r.XAxis) {
		return fmt.Errorf("width %d does not match x axis length %d", r.Width, len(r.XAxis))
	}
	if r.Height != len(r.YAxis) {
		return fmt.Errorf("height %d does not match y axis length %d", r.Height, len(r.YAxis))
	}
	if r.Height != len(r.Data) {
		return fmt.Errorf("height %d does not match row count %d", r.Height, len(r.Data))
	}
	for i, row := range r.Data {
		if len(row) != r.Width {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), r.Width)
		}
	}
	return nil
}

// Clone returns a deep copy of the record.
func (r *ScanRecord) Clone() *ScanRecord {
	c := *r

	c.Data = make([][]Cell, len(r.Data))
	for i, row := range r.Data {
		c.Data[i] = append([]Cell(nil), row...)
	}
	c.XAxis = append([]float64(nil), r.XAxis...)
	c.YAxis = append([]float64(nil), r.YAxis...)
	c.SourceFiles = append([]string(nil), r.SourceFiles...)

	c.Metadata = make(Metadata, len(r.Metadata))
	for k, v := range r.Metadata {
		c.Metadata[k] = v
	}

	return &c
}
