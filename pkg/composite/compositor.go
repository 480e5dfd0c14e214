// Package composite merges spatially registered scans onto one shared grid.
package composite

import (
	"fmt"
	"math"
	"strings"

	"cscanfuse/internal/models"
	"cscanfuse/pkg/stats"
)

// DefaultResolution is used when no input axis yields a usable spacing
const DefaultResolution = 1.0

// MaxCells caps the number of cells of a composite grid. Inputs whose
// combined extent at the chosen resolution would exceed it produce no
// composite.
const MaxCells = 50_000_000

// Metadata keys set on composite records
const (
	MetaSourceFiles = "sourceFiles"
	MetaResolution  = "resolution"
)

// extent is the bounding rectangle of a set of scans
type extent struct {
	minX, maxX float64
	minY, maxY float64
}

// Compose merges two or more scans into one composite record.
//
// The merge follows these steps:
// 1. Compute the bounding rectangle of every axis coordinate
// 2. Choose the finest axis spacing of all inputs as the grid resolution
// 3. Bin every valid sample to the nearest grid cell and accumulate it
// 4. Average each cell over the samples it received; empty cells are ND
//
// Overlapping samples are combined by plain arithmetic mean. Inputs are
// not modified. ok is false and no composite is produced when fewer than two
// records are given, when no input has a finite coordinate on both axes, or
// when the grid would hold more than MaxCells cells.
//
// Parameters:
//   - records: the scans to merge, in caller order
//
// Returns:
//   - the composite record, and true when one was produced
func Compose(records []*models.ScanRecord) (*models.ScanRecord, bool) {
	if len(records) < 2 {
		return nil, false
	}

	// Step 1: Global extent
	ext, ok := globalExtent(records)
	if !ok {
		return nil, false
	}

	// Step 2: Resolution
	res := Resolution(records)

	// Step 3: Grid sizing; the +1 keeps the upper bound representable
	width, height, ok := gridSize(ext, res)
	if !ok {
		return nil, false
	}

	// Step 4: Accumulate into flat buffers indexed row*width+col
	sum := make([]float64, width*height)
	weight := make([]float64, width*height)

	for _, rec := range records {
		for r, row := range rec.Data {
			if r >= len(rec.YAxis) {
				break
			}
			y := rec.YAxis[r]
			if !isFinite(y) {
				continue
			}
			gridY := int(math.Round((y - ext.minY) / res))
			if gridY < 0 || gridY >= height {
				continue
			}

			for c, cell := range row {
				if c >= len(rec.XAxis) {
					break
				}
				if !cell.Valid() {
					continue
				}
				x := rec.XAxis[c]
				if !isFinite(x) {
					continue
				}
				gridX := int(math.Round((x - ext.minX) / res))
				if gridX < 0 || gridX >= width {
					continue
				}

				idx := gridY*width + gridX
				sum[idx] += cell.Value
				weight[idx]++
			}
		}
	}

	// Step 5: Average
	data := make([][]models.Cell, height)
	for r := range data {
		data[r] = make([]models.Cell, width)
		for c := range data[r] {
			idx := r*width + c
			if weight[idx] > 0 {
				data[r][c] = models.Of(sum[idx] / weight[idx])
			}
		}
	}

	// Step 6: Axes at the chosen resolution
	xAxis := make([]float64, width)
	for i := range xAxis {
		xAxis[i] = ext.minX + float64(i)*res
	}
	yAxis := make([]float64, height)
	for i := range yAxis {
		yAxis[i] = ext.minY + float64(i)*res
	}

	sources := make([]string, len(records))
	for i, rec := range records {
		sources[i] = rec.Filename
	}

	metadata := models.Metadata{
		MetaSourceFiles: strings.Join(sources, ", "),
		MetaResolution:  res,
	}

	summary := stats.Calculate(data, xAxis, yAxis)
	out := models.NewScanRecord(fmt.Sprintf("Composite_%d_files", len(records)), data, xAxis, yAxis, summary, metadata)
	out.IsComposite = true
	out.SourceFiles = sources
	out.Resolution = res

	return out, true
}

// Resolution returns the smallest positive spacing between the first two
// coordinates of any axis of any record, or DefaultResolution when none
// exists.
func Resolution(records []*models.ScanRecord) float64 {
	res := math.Inf(1)
	for _, rec := range records {
		for _, axis := range [][]float64{rec.XAxis, rec.YAxis} {
			spacing, ok := stats.Spacing(axis)
			if ok && spacing > 0 && isFinite(spacing) && spacing < res {
				res = spacing
			}
		}
	}

	if math.IsInf(res, 1) {
		return DefaultResolution
	}
	return res
}

// gridSize returns the composite dimensions, sized in float64 so that huge
// extents or tiny resolutions are rejected before any int conversion.
func gridSize(ext extent, res float64) (width, height int, ok bool) {
	w := math.Ceil((ext.maxX-ext.minX)/res) + 1
	h := math.Ceil((ext.maxY-ext.minY)/res) + 1
	if !isFinite(w) || !isFinite(h) || w > MaxCells || h > MaxCells || w*h > MaxCells {
		return 0, 0, false
	}
	return int(w), int(h), true
}

// globalExtent computes the bounding rectangle over all finite coordinates
func globalExtent(records []*models.ScanRecord) (extent, bool) {
	ext := extent{
		minX: math.Inf(1), maxX: math.Inf(-1),
		minY: math.Inf(1), maxY: math.Inf(-1),
	}

	for _, rec := range records {
		for _, x := range rec.XAxis {
			if isFinite(x) {
				ext.minX = math.Min(ext.minX, x)
				ext.maxX = math.Max(ext.maxX, x)
			}
		}
		for _, y := range rec.YAxis {
			if isFinite(y) {
				ext.minY = math.Min(ext.minY, y)
				ext.maxY = math.Max(ext.maxY, y)
			}
		}
	}

	if math.IsInf(ext.minX, 1) || math.IsInf(ext.minY, 1) {
		return ext, false
	}
	return ext, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
