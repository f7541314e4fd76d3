// Package button turns raw button edges into mapped actions. Each Button runs a
// state machine that tells taps, holds, turbo, double presses, simultaneous
// presses and diagonal presses apart; the Context holds what the buttons of one
// controller, or of a joycon pair, share.
package button

import (
	"log"
	"slices"
	"sync"
	"time"

	"github.com/soar/joymapper/internal/binding"
	"github.com/soar/joymapper/internal/gamepad"
	"github.com/soar/joymapper/internal/output"
	"github.com/soar/joymapper/internal/settings"
)

// GyroAction is a gyro key held by a button.
type GyroAction struct {
	Button gamepad.ButtonID
	Key    binding.KeyCode
}

type toggle struct {
	button gamepad.ButtonID
	key    binding.KeyCode
}

// Calibrator receives CALIBRATE key presses.
type Calibrator interface {
	StartCalibration()
	FinishCalibration()
}

// Context is shared by the buttons of one controller, or of both halves of a
// merged joycon pair. Callers hold Lock while sending events.
type Context struct {
	sync.Mutex

	Chords   *settings.ChordStack
	Table    *binding.Table
	Keys     output.KeyMouse
	Virtual  output.VirtualController
	Feedback output.Feedback
	// Calibration handles CALIBRATE; nil ignores it.
	Calibration Calibrator
	// Command runs a console command bound to a key. It must not block, and it is
	// called with the Context locked.
	Command func(text string)

	buttons map[gamepad.ButtonID]*Button
	gyro    []GyroAction
	toggles []toggle

	holdTime   *settings.Setting[float64]
	turbo      *settings.Setting[float64]
	simWindow  *settings.Setting[float64]
	dblWindow  *settings.Setting[float64]
	rumbleGate *settings.Setting[gamepad.Switch]
}

// NewContext builds a Context with one Button per mappable button.
func NewContext(r *settings.Registry, table *binding.Table, keys output.KeyMouse) *Context {
	c := &Context{
		Chords:     settings.NewChordStack(),
		Table:      table,
		Keys:       keys,
		buttons:    make(map[gamepad.ButtonID]*Button),
		holdTime:   settings.MustLookup[float64](r, settings.HoldPressTime),
		turbo:      settings.MustLookup[float64](r, settings.TurboPeriod),
		simWindow:  settings.MustLookup[float64](r, settings.SimPressWindow),
		dblWindow:  settings.MustLookup[float64](r, settings.DblPressWindow),
		rumbleGate: settings.MustLookup[gamepad.Switch](r, settings.Rumble),
	}
	for b := gamepad.ButtonID(0); b < gamepad.NumButtons; b++ {
		c.buttons[b] = newButton(b, c)
	}
	for b := gamepad.ButtonT1; b < gamepad.ButtonT1+gamepad.MaxGridCells; b++ {
		c.buttons[b] = newButton(b, c)
	}
	return c
}

// Button returns the state machine of btn, or nil.
func (c *Context) Button(btn gamepad.ButtonID) *Button {
	return c.buttons[btn]
}

// IsPressed reports whether btn is held, which is whether it is in the chord stack.
func (c *Context) IsPressed(btn gamepad.ButtonID) bool {
	return btn != gamepad.ButtonNone && c.Chords.Contains(btn)
}

// GyroActions returns the active gyro actions, oldest first.
func (c *Context) GyroActions() []GyroAction {
	return c.gyro
}

// HasToggle reports whether a toggle bound to btn is currently on.
func (c *Context) HasToggle(btn gamepad.ButtonID) bool {
	return slices.ContainsFunc(c.toggles, func(t toggle) bool { return t.button == btn })
}

// Pressed lists the buttons whose state machines are not idle.
func (c *Context) Pressed() []gamepad.ButtonID {
	var out []gamepad.ButtonID
	for id, b := range c.buttons {
		if b.state != NoPress {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Reset releases everything held and returns every button to NoPress.
func (c *Context) Reset(now time.Time) {
	for _, b := range c.buttons {
		b.reset(now)
	}
	for _, t := range c.toggles {
		c.release(t.button, t.key)
	}
	c.toggles = nil
	c.gyro = nil
	c.Chords.Clear()
}

func (c *Context) ms(s *settings.Setting[float64]) time.Duration {
	return time.Duration(s.Resolve(c.Chords.Items()) * float64(time.Millisecond))
}

func (c *Context) holdPressTime() time.Duration  { return c.ms(c.holdTime) }
func (c *Context) turboPeriod() time.Duration    { return c.ms(c.turbo) }
func (c *Context) simPressWindow() time.Duration { return c.ms(c.simWindow) }
func (c *Context) dblPressWindow() time.Duration { return c.ms(c.dblWindow) }

func (c *Context) run(btn gamepad.ButtonID, a binding.Action, now time.Time) (deferred *binding.Action) {
	switch {
	case a.Toggle:
		i := slices.IndexFunc(c.toggles, func(t toggle) bool { return t.key == a.Key })
		if i >= 0 {
			c.toggles = slices.Delete(c.toggles, i, i+1)
			c.release(btn, a.Key)
			return nil
		}
		c.toggles = append(c.toggles, toggle{button: btn, key: a.Key})
		c.apply(btn, a.Key)
	case a.Release:
		c.release(btn, a.Key)
	default:
		c.apply(btn, a.Key)
		if a.Instant {
			return &binding.Action{Key: a.Key, Release: true}
		}
	}
	return nil
}

func (c *Context) apply(btn gamepad.ButtonID, k binding.KeyCode) {
	switch {
	case k.Code == binding.CodeNoHold:
	case k.IsGyroAction():
		c.gyro = append(c.gyro, GyroAction{Button: btn, Key: k})
	case k.Code == binding.CodeCalibrate:
		if c.Calibration != nil {
			c.Calibration.StartCalibration()
		}
	case k.Code == binding.CodeCommand:
		if c.Command != nil {
			c.Command(k.Name)
		}
	case k.Code == binding.CodeRumble:
		if small, big, ok := k.Rumble(); ok {
			c.rumble(small, big)
		}
	case k.IsVirtual():
		if c.Virtual == nil {
			log.Printf("%s: no virtual controller for %s", btn, k)
			return
		}
		c.Virtual.SetButton(k.Virtual(), true)
	default:
		if c.Keys != nil {
			c.Keys.PressKey(k, true)
		}
	}
}

func (c *Context) release(btn gamepad.ButtonID, k binding.KeyCode) {
	switch {
	case k.Code == binding.CodeNoHold, k.Code == binding.CodeCommand:
	case k.IsGyroAction():
		i := slices.IndexFunc(c.gyro, func(g GyroAction) bool { return g.Button == btn && g.Key.Code == k.Code })
		if i >= 0 {
			c.gyro = slices.Delete(c.gyro, i, i+1)
		}
	case k.Code == binding.CodeCalibrate:
		if c.Calibration != nil {
			c.Calibration.FinishCalibration()
		}
	case k.Code == binding.CodeRumble:
		c.rumble(0, 0)
	case k.IsVirtual():
		if c.Virtual != nil {
			c.Virtual.SetButton(k.Virtual(), false)
		}
	default:
		if c.Keys != nil && !(k.Code == binding.CodeScrollUp || k.Code == binding.CodeScrollDown) {
			c.Keys.PressKey(k, false)
		}
	}
}

func (c *Context) rumble(small, big uint8) {
	if c.Feedback == nil || c.rumbleGate.Value() != gamepad.On {
		return
	}
	c.Feedback.Rumble(small, big)
}
