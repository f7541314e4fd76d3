// Package gyro turns raw IMU samples into mouse or stick velocities: it fuses
// gyro and accelerometer readings into a gravity estimate, maps angular velocity
// into a 2D gyro space, then smooths, gates and scales the result.
package gyro

import "math"

const (
	// gravityCorrection is how far the gravity estimate moves toward the
	// accelerometer reading each sample.
	gravityCorrection = 0.01

	// Auto calibration treats the controller as resting while the gyro changes by
	// less than autoGyroThreshold degrees per second and the accelerometer by less
	// than autoAccelThreshold g between samples.
	autoGyroThreshold  = 1.2
	autoAccelThreshold = 0.015
	autoSettleTime     = 1.0
	autoRate           = 1.0
)

// Motion is the per-controller sensor fusion state. It is not safe for concurrent
// use; the controller's lock guards it.
type Motion struct {
	gravity     Vec
	orientation Quat
	neutral     Quat
	offset      Vec
	gyro        Vec
	lastRaw     Vec
	lastAccel   Vec
	started     bool

	auto      bool
	stillTime float64

	calibrating bool
	calSum      Vec
	calCount    int
}

func NewMotion() *Motion {
	return &Motion{gravity: Vec{Y: -1}, orientation: Identity, neutral: Identity}
}

// SetAutoCalibration turns resting-offset tracking on or off.
func (m *Motion) SetAutoCalibration(on bool) {
	m.auto = on
	if !on {
		m.stillTime = 0
	}
}

// StartCalibration discards the gyro offset and starts averaging every sample
// into a new one until FinishCalibration.
func (m *Motion) StartCalibration() {
	m.calibrating = true
	m.calSum = Vec{}
	m.calCount = 0
}

// FinishCalibration keeps the offset averaged so far.
func (m *Motion) FinishCalibration() {
	m.calibrating = false
}

func (m *Motion) Calibrating() bool { return m.calibrating }

// Offset is the gyro reading subtracted from every sample.
func (m *Motion) Offset() Vec { return m.offset }

// Process feeds one sample, gyro in degrees per second and accel in g, and returns
// the calibrated gyro.
func (m *Motion) Process(gyro, accel [3]float64, dt float64) Vec {
	raw, a := VecFrom(gyro), VecFrom(accel)
	switch {
	case m.calibrating:
		m.calSum = m.calSum.Add(raw)
		m.calCount++
		m.offset = m.calSum.Scale(1 / float64(m.calCount))
	case m.auto && m.started:
		m.autoCalibrate(raw, a, dt)
	}
	m.lastRaw, m.lastAccel = raw, a

	g := raw.Sub(m.offset)
	m.gyro = g
	if angle := g.Length() * math.Pi / 180 * dt; angle > 0 {
		axis := g.Normalized()
		m.gravity = AxisAngle(axis.Scale(-1), angle).Rotate(m.gravity)
		m.orientation = m.orientation.Mul(AxisAngle(axis, angle)).Normalized()
	}

	down := a.Scale(-1)
	if !m.started {
		if down.LengthSquared() > 0 {
			m.gravity = down
		}
		m.started = true
	} else {
		m.gravity = m.gravity.Add(down.Sub(m.gravity).Scale(gravityCorrection))
	}
	return g
}

func (m *Motion) autoCalibrate(raw, accel Vec, dt float64) {
	if raw.Sub(m.lastRaw).Length() > autoGyroThreshold || accel.Sub(m.lastAccel).Length() > autoAccelThreshold {
		m.stillTime = 0
		return
	}
	m.stillTime += dt
	if m.stillTime < autoSettleTime {
		return
	}
	m.offset = m.offset.Add(raw.Sub(m.offset).Scale(min(1, dt*autoRate)))
}

// Gyro returns the last calibrated gyro sample.
func (m *Motion) Gyro() Vec { return m.gyro }

// Gravity is the estimated direction of gravity in controller space, in g. A
// controller lying flat reads about (0, -1, 0).
func (m *Motion) Gravity() Vec { return m.gravity }

// Orientation is the integrated rotation since the first sample.
func (m *Motion) Orientation() Quat { return m.orientation }

// SetNeutral records the current pose as the motion stick's center and returns
// the rotation from flat to that pose.
func (m *Motion) SetNeutral() Quat {
	grav := m.gravity.Normalized()
	angle := math.Acos(max(-1, min(1, -grav.Y)))
	axis := Vec{Y: -1}.Cross(grav).Normalized()
	if axis == (Vec{}) {
		// flat, or exactly upside down
		axis = Vec{X: 1}
	}
	m.neutral = AxisAngle(axis, angle).Normalized()
	return m.neutral
}

// Neutral returns the pose SetNeutral recorded.
func (m *Motion) Neutral() Quat { return m.neutral }

// RelativeGravity is gravity seen from the neutral pose: (0, -1, 0) when the
// controller is held as it was when SetNeutral was called.
func (m *Motion) RelativeGravity() Vec {
	return m.neutral.Inverse().Rotate(m.gravity)
}
