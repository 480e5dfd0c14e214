package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCellValid(t *testing.T) {
	assert.True(t, Of(0).Valid())
	assert.True(t, Of(-3.5).Valid())
	assert.False(t, Missing().Valid())
	assert.False(t, Of(math.NaN()).Valid())
	assert.False(t, Of(math.Inf(-1)).Valid())
}

func TestCellEncoding(t *testing.T) {
	row := []Cell{Of(1.5), Missing(), Of(math.NaN())}

	b, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null, null]`, string(b))

	var decoded []Cell
	require.NoError(t, json.Unmarshal([]byte(`[2, null]`), &decoded))
	assert.Equal(t, []Cell{Of(2), Missing()}, decoded)

	y, err := yaml.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, "- 1.5\n- null\n- null\n", string(y))
}

func TestMetadataAccessors(t *testing.T) {
	m := Metadata{"Operator": "J. Smith", "Velocity": 5920.0}

	s, ok := m.String("Velocity")
	assert.True(t, ok)
	assert.Equal(t, "5920", s)

	s, ok = m.String("Operator")
	assert.True(t, ok)
	assert.Equal(t, "J. Smith", s)

	_, ok = m.Number("Operator")
	assert.False(t, ok)

	_, ok = m.String("missing")
	assert.False(t, ok)
}

func TestNewScanRecord(t *testing.T) {
	data := [][]Cell{{Of(1), Missing()}}
	rec := NewScanRecord("a.txt", data, []float64{0, 1}, []float64{0}, StatsSummary{ValidPoints: 1}, nil)

	require.NoError(t, rec.Validate())
	assert.Equal(t, 2, rec.Width)
	assert.Equal(t, 1, rec.Height)
	assert.Equal(t, 1, rec.ValidPoints)
	assert.NotNil(t, rec.Metadata)
	assert.Len(t, rec.ID, 36)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		rec  ScanRecord
	}{
		{"width mismatch", ScanRecord{Width: 3, Height: 1, XAxis: []float64{0, 1}, YAxis: []float64{0}, Data: [][]Cell{{Of(1), Of(2)}}}},
		{"height mismatch", ScanRecord{Width: 1, Height: 2, XAxis: []float64{0}, YAxis: []float64{0}, Data: [][]Cell{{Of(1)}}}},
		{"row count mismatch", ScanRecord{Width: 1, Height: 1, XAxis: []float64{0}, YAxis: []float64{0}, Data: nil}},
		{"ragged row", ScanRecord{Width: 2, Height: 1, XAxis: []float64{0, 1}, YAxis: []float64{0}, Data: [][]Cell{{Of(1)}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.rec.Validate())
		})
	}
}

func TestClone(t *testing.T) {
	rec := NewScanRecord("a.txt", [][]Cell{{Of(1), Of(2)}}, []float64{0, 1}, []float64{0}, StatsSummary{}, Metadata{"k": "v"})
	rec.SourceFiles = []string{"x"}

	c := rec.Clone()
	assert.Equal(t, rec, c)

	c.Data[0][0] = Missing()
	c.XAxis[0] = 9
	c.Metadata["k"] = "changed"
	c.SourceFiles[0] = "y"

	assert.Equal(t, Of(1), rec.Data[0][0])
	assert.Equal(t, 0.0, rec.XAxis[0])
	assert.Equal(t, "v", rec.Metadata["k"])
	assert.Equal(t, "x", rec.SourceFiles[0])
}
