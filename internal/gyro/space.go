package gyro

import (
	"math"

	"github.com/soar/joymapper/internal/gamepad"
)

const (
	// turnRelax and leanRelax widen the cone in which a world axis still counts
	// fully: 2 gives 60 degrees, 1.41 gives 45.
	turnRelax = 2.0
	leanRelax = 1.41
)

// Transform maps the calibrated gyro g (degrees per second) into a 2D velocity.
// LOCAL uses the axis masks; the other spaces combine axes relative to gravity.
func Transform(space gamepad.GyroSpace, g, gravity Vec, xMask, yMask gamepad.GyroAxisMask) (x, y float64) {
	if space == gamepad.SpaceLocal {
		return localAxis(g, xMask, 1), localAxis(g, yMask, -1)
	}

	n := gravity.Normalized()
	sideReduction := clamp((max(math.Abs(n.Y), math.Abs(n.Z))-0.125)/0.125, 0, 1)
	// the local pitch axis projected onto the plane normal to gravity
	pitch := Vec{1 - n.X*n.X, -n.Y * n.X, -n.Z * n.X}

	switch space {
	case gamepad.SpacePlayerTurn:
		yaw := n.Y*g.Y + n.Z*g.Z
		x = sign(yaw) * min(math.Abs(yaw)*turnRelax, math.Hypot(g.Y, g.Z))
		y = -g.X
	case gamepad.SpacePlayerLean:
		if pitch.LengthSquared() > 0 {
			if roll := pitch.Cross(n).Normalized(); roll != (Vec{}) {
				worldRoll := roll.Y*g.Y + roll.Z*g.Z
				x = sign(worldRoll) * min(math.Abs(worldRoll)*leanRelax, math.Hypot(g.Y, g.Z))
				x *= sideReduction
			}
		}
		y = -g.X
	case gamepad.SpaceWorldTurn, gamepad.SpaceWorldLean:
		if pitch.LengthSquared() > 0 {
			pitch = pitch.Normalized()
			y = -pitch.Dot(g) * sideReduction
			if space == gamepad.SpaceWorldLean {
				if roll := pitch.Cross(n).Normalized(); roll != (Vec{}) {
					x = roll.Dot(g) * sideReduction
				}
			}
		}
		if space == gamepad.SpaceWorldTurn {
			x += n.Dot(g)
		}
	}
	return x, y
}

// localAxis sums the masked gyro axes. The X axis is taken with flip and the Y
// and Z axes against it, matching how the controller's axes point on screen.
func localAxis(g Vec, mask gamepad.GyroAxisMask, flip float64) float64 {
	var v float64
	if mask&gamepad.GyroAxisX != 0 {
		v += flip * g.X
	}
	if mask&gamepad.GyroAxisY != 0 {
		v -= flip * g.Y
	}
	if mask&gamepad.GyroAxisZ != 0 {
		v -= flip * g.Z
	}
	return v
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
