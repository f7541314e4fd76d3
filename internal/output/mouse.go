package output

import "math"

// Accumulator turns fractional mouse motion into whole pixel steps, carrying the
// remainder into the next call.
type Accumulator struct {
	x, y float64
}

func (a *Accumulator) Add(dx, dy float64) (int32, int32) {
	if math.IsNaN(dx) || math.IsInf(dx, 0) {
		dx = 0
	}
	if math.IsNaN(dy) || math.IsInf(dy, 0) {
		dy = 0
	}
	a.x += dx
	a.y += dy
	ix, iy := math.Trunc(a.x), math.Trunc(a.y)
	a.x -= ix
	a.y -= iy
	return int32(ix), int32(iy)
}

// Reset drops the carried fraction.
func (a *Accumulator) Reset() {
	a.x, a.y = 0, 0
}
