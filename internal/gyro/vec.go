package gyro

import "math"

// Vec is a 3D vector in controller space: X to the right, Y up out of the face
// buttons, Z toward the player.
type Vec struct {
	X, Y, Z float64
}

func VecFrom(a [3]float64) Vec { return Vec{a[0], a[1], a[2]} }

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec) Scale(f float64) Vec { return Vec{v.X * f, v.Y * f, v.Z * f} }
func (v Vec) Dot(o Vec) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec) Length() float64 { return math.Sqrt(v.Dot(v)) }
func (v Vec) LengthSquared() float64 { return v.Dot(v) }

func (v Vec) Cross(o Vec) Vec {
	return Vec{v.Y*o.Z - v.Z*o.Y, v.Z*o.X - v.X*o.Z, v.X*o.Y - v.Y*o.X}
}

// Normalized returns v scaled to unit length, or the zero vector.
func (v Vec) Normalized() Vec {
	l := v.Length()
	if l == 0 {
		return Vec{}
	}
	return v.Scale(1 / l)
}

// Quat is a rotation quaternion.
type Quat struct {
	W, X, Y, Z float64
}

var Identity = Quat{W: 1}

// AxisAngle returns the rotation of angle radians around axis, which must be
// normalized.
func AxisAngle(axis Vec, angle float64) Quat {
	s, c := math.Sincos(angle / 2)
	return Quat{c, axis.X * s, axis.Y * s, axis.Z * s}
}

func (q Quat) Mul(o Quat) Quat {
	return Quat{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

// Inverse is the conjugate; q is assumed to be a unit quaternion.
func (q Quat) Inverse() Quat { return Quat{q.W, -q.X, -q.Y, -q.Z} }

func (q Quat) Normalized() Quat {
	l := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if l == 0 {
		return Identity
	}
	return Quat{q.W / l, q.X / l, q.Y / l, q.Z / l}
}

// Rotate applies q to v.
func (q Quat) Rotate(v Vec) Vec {
	p := q.Mul(Quat{0, v.X, v.Y, v.Z}).Mul(q.Inverse())
	return Vec{p.X, p.Y, p.Z}
}
