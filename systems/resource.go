package systems

import (
	"github.com/ojrac/opensimplex-go"
)

// ResourceField is the grazing substrate: a coarse grid whose per-cell
// capacity comes from a coherent-noise landscape, giving the arena rich and
// poor regions. Grazing removes value; cells regenerate toward capacity.
type ResourceField struct {
	cellSize  float32
	cols      int
	rows      int
	regenRate float32
	value     []float32
	capacity  []float32
}

// NewResourceField creates a field covering the arena. noiseScale sets the
// spatial frequency of the capacity landscape; maxCapacity the peak value a
// cell can hold. Cells start full.
func NewResourceField(width, height, cellSize float32, noiseScale, regenRate, maxCapacity float64, seed int64) *ResourceField {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	f := &ResourceField{
		cellSize:  cellSize,
		cols:      cols,
		rows:      rows,
		regenRate: float32(regenRate),
		value:     make([]float32, cols*rows),
		capacity:  make([]float32, cols*rows),
	}

	noise := opensimplex.NewNormalized(seed)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			nx := float64(col) * float64(cellSize) * noiseScale
			ny := float64(row) * float64(cellSize) * noiseScale
			cap32 := float32(noise.Eval2(nx, ny) * maxCapacity)
			idx := row*cols + col
			f.capacity[idx] = cap32
			f.value[idx] = cap32
		}
	}

	return f
}

// Sample returns the resource value at a world position.
func (f *ResourceField) Sample(x, y float32) float32 {
	return f.value[f.cellIndex(x, y)]
}

// Graze removes up to want from the cell at the given position and returns
// the amount actually removed.
func (f *ResourceField) Graze(x, y, want float32) float32 {
	if want <= 0 {
		return 0
	}
	idx := f.cellIndex(x, y)
	removed := want
	if removed > f.value[idx] {
		removed = f.value[idx]
	}
	f.value[idx] -= removed
	return removed
}

// Regen moves every cell a fraction of the way back toward its capacity.
// Values never exceed capacity and never go negative.
func (f *ResourceField) Regen() {
	for i := range f.value {
		f.value[i] += f.regenRate * (f.capacity[i] - f.value[i])
	}
}

// Total returns the summed resource value across the field.
func (f *ResourceField) Total() float64 {
	var sum float64
	for _, v := range f.value {
		sum += float64(v)
	}
	return sum
}

func (f *ResourceField) cellIndex(x, y float32) int {
	col := int(x / f.cellSize)
	row := int(y / f.cellSize)

	if col < 0 {
		col = 0
	} else if col >= f.cols {
		col = f.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= f.rows {
		row = f.rows - 1
	}

	return row*f.cols + col
}
