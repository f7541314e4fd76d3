package gyro

import (
	"math"

	"github.com/soar/joymapper/internal/binding"
	"github.com/soar/joymapper/internal/button"
	"github.com/soar/joymapper/internal/gamepad"
	"github.com/soar/joymapper/internal/settings"
)

const maxTrackballSamples = 100

// Frame is one tick of gyro input.
type Frame struct {
	// Gyro is the calibrated angular velocity in degrees per second.
	Gyro    Vec
	Gravity Vec
	// Engaged reports whether the GYRO_ON / GYRO_OFF button or stick is in use.
	Engaged bool
	// Actions are the held gyro keys, oldest first.
	Actions []button.GyroAction
	DT      float64
}

// Output is the processed gyro velocity.
type Output struct {
	// X and Y are the signed, sensitivity-scaled velocity in degrees per second of
	// camera turn.
	X, Y float64
	// RawX and RawY are the 2D gyro velocity before gating and sensitivity.
	RawX, RawY float64
	Blocked    bool
}

type trackball struct {
	samples [maxTrackballSamples]float64
	index   int
	lastAbs float64
}

// push records v while the trackball is released.
func (t *trackball) push(v float64, n int) {
	t.index = (t.index + 1) % n
	t.samples[t.index] = v
}

// coast returns the decayed average of the recorded velocities, never faster than
// the speed the trackball was released at.
func (t *trackball) coast(n int, decay float64) float64 {
	var avg float64
	for i := range n {
		avg += t.samples[i]
		t.samples[i] *= decay
	}
	avg /= float64(n)
	if a := math.Abs(avg); a > t.lastAbs {
		avg *= t.lastAbs / a
	}
	return avg
}

// Processor runs the gyro pipeline of one controller: space, smoothing, cutoff,
// gating, trackball and sensitivity.
type Processor struct {
	space          *settings.Setting[gamepad.GyroSpace]
	mouseX, mouseY *settings.Setting[gamepad.GyroAxisMask]
	on             *settings.Setting[gamepad.GyroSettings]
	smoothTime     *settings.Setting[float64]
	smoothThresh   *settings.Setting[float64]
	tickTime       *settings.Setting[float64]
	cutoffSpeed    *settings.Setting[float64]
	cutoffRecovery *settings.Setting[float64]
	decay          *settings.Setting[float64]
	minThreshold   *settings.Setting[float64]
	maxThreshold   *settings.Setting[float64]
	minSens        *settings.Setting[gamepad.FloatXY]
	maxSens        *settings.Setting[gamepad.FloatXY]
	axisX, axisY   *settings.Setting[gamepad.AxisMode]

	smoother Smoother
	trackX   trackball
	trackY   trackball
}

func NewProcessor(r *settings.Registry) *Processor {
	return &Processor{
		space:          settings.MustLookup[gamepad.GyroSpace](r, settings.GyroSpace),
		mouseX:         settings.MustLookup[gamepad.GyroAxisMask](r, settings.MouseXFromGyroAxis),
		mouseY:         settings.MustLookup[gamepad.GyroAxisMask](r, settings.MouseYFromGyroAxis),
		on:             settings.MustLookup[gamepad.GyroSettings](r, settings.GyroOn),
		smoothTime:     settings.MustLookup[float64](r, settings.GyroSmoothTime),
		smoothThresh:   settings.MustLookup[float64](r, settings.GyroSmoothThreshold),
		tickTime:       settings.MustLookup[float64](r, settings.TickTime),
		cutoffSpeed:    settings.MustLookup[float64](r, settings.GyroCutoffSpeed),
		cutoffRecovery: settings.MustLookup[float64](r, settings.GyroCutoffRecovery),
		decay:          settings.MustLookup[float64](r, settings.TrackballDecay),
		minThreshold:   settings.MustLookup[float64](r, settings.MinGyroThreshold),
		maxThreshold:   settings.MustLookup[float64](r, settings.MaxGyroThreshold),
		minSens:        settings.MustLookup[gamepad.FloatXY](r, settings.MinGyroSens),
		maxSens:        settings.MustLookup[gamepad.FloatXY](r, settings.MaxGyroSens),
		axisX:          settings.MustLookup[gamepad.AxisMode](r, settings.GyroAxisX),
		axisY:          settings.MustLookup[gamepad.AxisMode](r, settings.GyroAxisY),
	}
}

// Gate returns the active GYRO_ON / GYRO_OFF assignment, so the caller can tell
// whether its button or stick is engaged.
func (p *Processor) Gate(stack []gamepad.ButtonID) gamepad.GyroSettings {
	return p.on.Resolve(stack)
}

// Reset drops smoothing and trackball history.
func (p *Processor) Reset() {
	p.smoother.Reset()
	p.trackX = trackball{}
	p.trackY = trackball{}
}

func (p *Processor) Process(stack []gamepad.ButtonID, f Frame) Output {
	x, y := Transform(p.space.Resolve(stack), f.Gyro, f.Gravity, p.mouseX.Resolve(stack), p.mouseY.Resolve(stack))

	window := int(p.smoothTime.Resolve(stack) * 1000 / p.tickTime.Value())
	threshold := p.smoothThresh.Resolve(stack)
	x, y = p.smoother.Smooth(x, y, threshold/2, threshold, window)
	x, y = Cutoff(x, y, p.cutoffSpeed.Resolve(stack), p.cutoffRecovery.Resolve(stack))
	out := Output{RawX: x, RawY: y}

	blocked := p.on.Resolve(stack).AlwaysOff != f.Engaged
	signX, signY := float64(p.axisX.Resolve(stack)), float64(p.axisY.Resolve(stack))
	var trackX, trackY bool
	for _, a := range f.Actions {
		switch a.Key.Code {
		case binding.CodeGyroOn:
			blocked = false
		case binding.CodeGyroOff:
			blocked = true
		case binding.CodeGyroInvX:
			signX = -float64(p.axisX.Resolve(stack))
		case binding.CodeGyroInvY:
			signY = -float64(p.axisY.Resolve(stack))
		case binding.CodeGyroInvert:
			signX = -float64(p.axisX.Resolve(stack))
			signY = -float64(p.axisY.Resolve(stack))
		case binding.CodeGyroTrackX:
			trackX = true
		case binding.CodeGyroTrackY:
			trackY = true
		case binding.CodeGyroTrackball:
			trackX, trackY = true, true
		}
	}

	decay := math.Exp2(-f.DT * p.decay.Resolve(stack))
	n := maxTrackballSamples
	if f.DT > 0 {
		n = max(1, min(maxTrackballSamples, int(0.125/f.DT)))
	}
	if !trackX && !trackY {
		p.trackX.lastAbs = math.Abs(x)
		p.trackY.lastAbs = math.Abs(y)
	}
	if trackX {
		x = p.trackX.coast(n, decay)
	} else {
		p.trackX.push(x, n)
	}
	if trackY {
		y = p.trackY.coast(n, decay)
	} else {
		p.trackY.push(y, n)
	}

	if blocked {
		x, y = 0, 0
		out.Blocked = true
	}
	s := Sensitivity(math.Hypot(x, y), p.minThreshold.Resolve(stack), p.maxThreshold.Resolve(stack))
	lo, hi := p.minSens.Resolve(stack), p.maxSens.Resolve(stack)
	out.X = x * signX * (lo.X*(1-s) + hi.X*s)
	out.Y = y * signY * (lo.Y*(1-s) + hi.Y*s)
	return out
}

// Cutoff silences slow gyro movement. Between speed and recovery the velocity is
// scaled up linearly; when recovery is not above speed, everything under speed is
// dropped.
func Cutoff(x, y, speed, recovery float64) (float64, float64) {
	length := math.Hypot(x, y)
	if recovery > speed {
		factor := (length - speed) / (recovery - speed)
		switch {
		case factor <= 0:
			return 0, 0
		case factor < 1:
			return x * factor, y * factor
		}
		return x, y
	}
	if speed > 0 && length < speed {
		return 0, 0
	}
	return x, y
}

// Sensitivity places magnitude on the threshold scale: 0 selects the MIN
// sensitivity and 1 the MAX. Overlapping thresholds jump straight to 1 once
// magnitude passes the minimum.
func Sensitivity(magnitude, minThreshold, maxThreshold float64) float64 {
	magnitude = max(0, magnitude-minThreshold)
	denom := maxThreshold - minThreshold
	if denom <= 0 {
		if magnitude > 0 {
			return 1
		}
		return 0
	}
	return min(1, magnitude/denom)
}
