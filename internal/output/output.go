// Package output holds the sinks mapped input is sent to: keyboard and mouse
// injection, the emulated controller and controller feedback.
package output

import (
	"errors"

	"github.com/soar/joymapper/internal/binding"
	"github.com/soar/joymapper/internal/gamepad"
)

// KeyMouse injects keyboard and mouse input.
type KeyMouse interface {
	// PressKey presses or releases a key or mouse button. Scroll keys only act on press.
	PressKey(k binding.KeyCode, pressed bool)
	// MoveMouse moves the pointer relatively. Fractions carry over to later moves.
	MoveMouse(dx, dy float64)
	// SetMouseNorm warps the pointer to a position normalized to the screen, 0..1 per axis.
	SetMouseNorm(x, y float64)
}

// VirtualController is an emulated gamepad.
type VirtualController interface {
	Scheme() gamepad.ControllerScheme
	SetButton(b binding.VirtualButton, pressed bool)
	// SetStick takes -1..1 per axis with up positive.
	SetStick(x, y float64, left bool)
	SetLeftTrigger(v float64)
	SetRightTrigger(v float64)
	// SetGyro forwards raw motion for PS_MOTION output. Sinks without motion ignore it.
	SetGyro(accel, gyro [3]float64)
	// Update flushes the state set since the last call.
	Update() error
	Close() error
}

// Feedback drives a physical controller's rumble motors, adaptive triggers and light bar.
type Feedback interface {
	Rumble(small, big uint8)
	SetTriggerEffect(left, right gamepad.TriggerEffect)
	SetLightBar(c gamepad.Color)
}

// ErrUnsupported is returned when the platform has no implementation of a sink.
var ErrUnsupported = errors.New("not supported on this platform")
