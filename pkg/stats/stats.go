// Package stats derives summary and area metrics from a C-scan grid.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"cscanfuse/internal/models"
)

// Calculate computes the summary of a grid of cells and its axes.
//
// The calculation follows these steps:
// 1. Collect the valid cells (present, not NaN, finite); everything else is ND
// 2. Compute min, max and mean over the valid values
// 3. Take the median as the element at floor(n/2) of the sorted values
// 4. Compute the population standard deviation (divisor n)
// 5. Convert point counts into areas using the spacing of each axis
//
// When the grid holds no valid cells the value statistics are all zero and
// NDPercent is 100, whatever the number of cells. Callers are responsible
// for passing a rectangular grid.
//
// Parameters:
//   - data: grid rows, each row a slice of cells
//   - xAxis, yAxis: axis coordinates, used only to infer point spacing
//
// Returns:
//   - the StatsSummary for the grid
func Calculate(data [][]models.Cell, xAxis, yAxis []float64) models.StatsSummary {
	total := 0
	for _, row := range data {
		total += len(row)
	}

	values := make([]float64, 0, total)
	for _, row := range data {
		for _, c := range row {
			if c.Valid() {
				values = append(values, c.Value)
			}
		}
	}

	summary := models.StatsSummary{
		ValidPoints: len(values),
		TotalPoints: total,
		NDCount:     total - len(values),
	}

	// Area metrics do not depend on the values themselves
	pointArea := PointArea(xAxis, yAxis)
	summary.TotalArea = float64(summary.TotalPoints) * pointArea
	summary.NDArea = float64(summary.NDCount) * pointArea
	summary.ValidArea = summary.TotalArea - summary.NDArea

	if len(values) == 0 {
		summary.NDPercent = 100
		return summary
	}

	summary.Min = floats.Min(values)
	summary.Max = floats.Max(values)
	summary.Mean = floats.Sum(values) / float64(len(values))
	summary.StdDev = stat.PopStdDev(values, nil)

	sort.Float64s(values)
	summary.Median = values[len(values)/2]

	summary.NDPercent = float64(summary.NDCount) / float64(summary.TotalPoints) * 100

	return summary
}

// Spacing returns the absolute distance between the first two coordinates
// of an axis. ok is false when the axis has fewer than two coordinates.
func Spacing(axis []float64) (spacing float64, ok bool) {
	if len(axis) < 2 {
		return 0, false
	}
	return math.Abs(axis[1] - axis[0]), true
}

// PointArea returns the physical area covered by one grid point. Axes with
// fewer than two coordinates are assumed to have unit spacing.
func PointArea(xAxis, yAxis []float64) float64 {
	xs, ok := Spacing(xAxis)
	if !ok {
		xs = 1.0
	}
	ys, ok := Spacing(yAxis)
	if !ok {
		ys = 1.0
	}
	return xs * ys
}
