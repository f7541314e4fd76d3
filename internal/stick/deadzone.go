package stick

import "math"

// ApplyDeadzones rescales (x, y) so the band between inner and outer maps to 0..1.
// Inside inner the result is zero; at or past outer it is normalized and pegged is true.
func ApplyDeadzones(x, y, inner, outer float64) (ox, oy float64, pegged bool) {
	length := math.Hypot(x, y)
	switch {
	case length <= inner:
		return 0, 0, false
	case length >= outer:
		return x / length, y / length, true
	}
	rescale := (length - inner) / (outer - inner) / length
	return x * rescale, y * rescale, false
}

// directions reports which of the four direction buttons a position presses.
// A direction wins when it is more than half the other axis, so diagonals press two.
func directions(x, y float64) (left, right, up, down bool) {
	ax, ay := math.Abs(x), math.Abs(y)
	return x < -0.5*ay, x > 0.5*ay, y > 0.5*ax, y < -0.5*ax
}

// ringThreshold splits a stick's travel into the inner and the outer ring.
const ringThreshold = 0.7

func inRing(length float64, inner bool) bool {
	if inner {
		return length > 0 && length < ringThreshold
	}
	return length > ringThreshold
}

// wrapAngle brings an angle difference into [-pi, pi).
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// Undeadzone maps v, 0..1, into the live range of a virtual stick whose game side
// deadzones are inner and outer, undoing a power curve of unpower first. ok is false
// when the deadzones leave no live range.
func Undeadzone(v, inner, outer, unpower float64) (out float64, ok bool) {
	live := 1 - outer - inner
	if live <= 0 {
		return 0, false
	}
	if unpower != 0 {
		v = math.Pow(v, 1/unpower)
	}
	if v < 1 {
		v = inner + v*live
	}
	return v, true
}

func radial(vx, vy, x, y float64) float64 {
	if x != 0 && y != 0 {
		return (vx*x + vy*y) / math.Hypot(x, y)
	}
	return 0
}

func angleBasedDeadzone(theta, deadzone, cutoff float64) float64 {
	if theta <= cutoff {
		return (theta - deadzone) / cutoff
	}
	return 0
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
