// Package spatial provides the small data structures the simulation leans on:
// a uniform grid for broad-phase blast queries, a ranked skip list for the run
// leaderboard and a bounded MPSC queue for player commands.
//
// Structures use preallocated slices with integer indices (not pointers)
// to keep per-tick allocation at zero.
package spatial

import (
	"math"
	"sort"
)

// SpatialGrid buckets indices into fixed-size square cells.
//
// Cell size should be near the largest explosion radius so a blast covers
// at most a 3x3 block.
//
// Memory layout: cells are stored in row-major order (cells[row*cols+col])
type SpatialGrid struct {
	invCellSize float64
	cols, rows  int
	cells       [][]uint32
	scratch     []uint32
	seen        map[uint32]struct{}
}

// NewSpatialGrid creates a grid covering width x height.
// expected is used to size each cell's initial capacity.
func NewSpatialGrid(width, height, cellSize float64, expected int) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 64
	}
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]uint32, cols*rows)
	perCell := expected / len(cells)
	if perCell < 4 {
		perCell = 4
	}
	for i := range cells {
		cells[i] = make([]uint32, 0, perCell)
	}

	return &SpatialGrid{
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		scratch:     make([]uint32, 0, 64),
		seen:        make(map[uint32]struct{}, 64),
	}
}

// Clear resets all cells, keeping their capacity.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// InsertCircle registers index in every cell overlapped by the circle's
// bounding box, so that a point query finds it from any cell it covers.
// Parts outside the grid are clamped to the border cells.
func (g *SpatialGrid) InsertCircle(index uint32, cx, cy, radius float64) {
	minCol, minRow := g.clampCell(cx-radius, cy-radius)
	maxCol, maxRow := g.clampCell(cx+radius, cy+radius)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			idx := row*g.cols + col
			g.cells[idx] = append(g.cells[idx], index)
		}
	}
}

func (g *SpatialGrid) clampCell(x, y float64) (int, int) {
	col := int(math.Floor(x * g.invCellSize))
	row := int(math.Floor(y * g.invCellSize))
	if col < 0 {
		col = 0
	}
	if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

// QueryPoint returns the indices registered in the cell containing (x, y),
// deduplicated and in ascending order.
//
// IMPORTANT: The returned slice is reused on subsequent calls.
//
// Candidates may lie outside the exact shape; callers do the narrow phase.
func (g *SpatialGrid) QueryPoint(x, y float64) []uint32 {
	col, row := g.clampCell(x, y)
	return g.collect(col, row, col, row)
}

func (g *SpatialGrid) collect(minCol, minRow, maxCol, maxRow int) []uint32 {
	g.scratch = g.scratch[:0]
	clear(g.seen)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			for _, id := range g.cells[row*g.cols+col] {
				if _, dup := g.seen[id]; dup {
					continue
				}
				g.seen[id] = struct{}{}
				g.scratch = append(g.scratch, id)
			}
		}
	}
	// Ascending order keeps callers deterministic regardless of cell layout.
	sort.Slice(g.scratch, func(i, j int) bool { return g.scratch[i] < g.scratch[j] })
	return g.scratch
}
