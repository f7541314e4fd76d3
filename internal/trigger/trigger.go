// Package trigger layers a soft pull and a full pull binding over one analog
// trigger and computes the adaptive trigger effect matching its state.
package trigger

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/soar/joymapper/internal/button"
	"github.com/soar/joymapper/internal/gamepad"
)

// State is the dual stage state of a trigger.
type State int

const (
	NoPress State = iota
	PressStart
	PressStartResp
	QuickSoftTap
	QuickFullPress
	QuickFullRelease
	SoftPress
	DelayFullPress
	ExclFullPress
	numStates
)

var stateNames = [numStates]string{
	"NoPress", "PressStart", "PressStartResp", "QuickSoftTap", "QuickFullPress",
	"QuickFullRelease", "SoftPress", "DelayFullPress", "ExclFullPress",
}

func (s State) String() string {
	if s >= 0 && s < numStates {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

const historySize = 5

// Params are the settings one tick of a trigger runs with.
type Params struct {
	Mode gamepad.TriggerMode
	// Threshold is the soft pull point. Negative selects the hair trigger.
	Threshold float64
	// Offset and Range locate the trigger travel on the 0-255 effect scale.
	Offset float64
	Range  float64
	// SkipDelay is how long MAY_SKIP and MUST_SKIP wait for a full pull.
	SkipDelay time.Duration
	// TickMs is the poll period the effect ramps are scaled by.
	TickMs float64
	// DigitalTriggers forces NO_FULL for controllers whose triggers are on/off only.
	DigitalTriggers bool
}

// effect is the adaptive trigger descriptor before rounding.
type effect struct {
	mode  gamepad.AdaptiveTriggerMode
	start float64
	end   float64
	force float64
}

// Machine is the state of one analog trigger.
type Machine struct {
	Soft gamepad.ButtonID
	Full gamepad.ButtonID

	state   State
	history [historySize]float64
	fx      effect
}

// New returns a trigger whose soft pull presses soft and full pull presses full.
func New(soft, full gamepad.ButtonID) *Machine {
	return &Machine{Soft: soft, Full: full}
}

func (m *Machine) State() State { return m.state }

// Effect is the adaptive trigger effect computed by the last Handle.
func (m *Machine) Effect() gamepad.TriggerEffect {
	return gamepad.TriggerEffect{
		Mode:  m.fx.mode,
		Start: gamepad.ClampByte(m.fx.start),
		End:   gamepad.ClampByte(m.fx.end),
		Force: gamepad.ClampForce(m.fx.force),
	}
}

// Reset returns the trigger to NoPress and forgets the hair trigger history.
func (m *Machine) Reset() {
	m.state = NoPress
	m.history = [historySize]float64{}
	m.fx = effect{}
}

// startPos is where the soft pull resistance begins on the 0..1 trigger travel.
func startPos(threshold float64) float64 {
	return max(0, min(1, max(0, threshold)+0.05))
}

// Handle runs one tick with the trigger at pos, 0..1. ctx must be locked.
func (m *Machine) Handle(ctx *button.Context, p Params, pos float64, now time.Time) {
	mode := p.Mode
	if p.DigitalTriggers && !mode.IsNative() {
		mode = gamepad.TriggerNoFull
	}
	off, rng := p.Offset, p.Range
	soft, full := ctx.Button(m.Soft), ctx.Button(m.Full)

	if mode.IsNative() {
		if ctx.Virtual != nil {
			if mode == gamepad.TriggerXLT {
				ctx.Virtual.SetLeftTrigger(pos)
			} else {
				ctx.Virtual.SetRightTrigger(pos)
			}
		}
		m.fx = effect{mode: gamepad.EffectResistanceRaw, start: off + 0.05*rng}
		updateChord(ctx, pos > 0, m.Soft)
		updateChord(ctx, pos >= 1, m.Full)
		return
	}

	if soft.State() == button.TapPress {
		soft.Handle(false, now)
	}
	if full.State() == button.TapPress {
		full.Handle(false, now)
	}

	pressed := m.softPullPressed(pos, p.Threshold)
	switch m.state {
	case NoPress:
		sp := startPos(p.Threshold)
		if mode == gamepad.TriggerNoFull {
			m.fx = effect{mode: gamepad.EffectResistanceRaw, force: math.MaxUint16, start: off + sp*rng, end: m.fx.end}
		} else {
			m.fx = effect{
				mode:  gamepad.EffectSegment,
				force: 0.1 * math.MaxUint16,
				start: off + sp*rng,
				end:   off + min(1, sp+0.1)*rng,
			}
		}
		if !pressed {
			soft.Handle(false, now)
			break
		}
		switch mode {
		case gamepad.TriggerMaySkip, gamepad.TriggerMustSkip:
			m.state = PressStart
			soft.Send(button.ResetTime, now)
		case gamepad.TriggerMaySkipR, gamepad.TriggerMustSkipR:
			m.state = PressStartResp
			soft.Send(button.ResetTime, now)
			soft.Handle(true, now)
		default:
			m.state = SoftPress
			soft.Handle(true, now)
		}
	case PressStart:
		switch {
		case !pressed:
			m.state = QuickSoftTap
			soft.Handle(true, now)
		case pos == 1:
			m.state = QuickFullPress
			full.Handle(true, now)
		case soft.Duration(now) >= p.SkipDelay:
			if mode == gamepad.TriggerMustSkip {
				m.fx.start = off + (pos+0.05)*rng
			}
			m.state = SoftPress
			soft.Send(button.ResetTime, now)
			soft.Handle(true, now)
		}
	case PressStartResp:
		switch {
		case !pressed:
			m.state = NoPress
			soft.Handle(false, now)
		case pos == 1:
			m.state = QuickFullPress
			soft.Handle(false, now)
			full.Handle(true, now)
		default:
			if soft.Duration(now) >= p.SkipDelay {
				if mode == gamepad.TriggerMustSkipR {
					m.fx.start = off + (pos+0.05)*rng
				}
				m.state = SoftPress
			}
			soft.Handle(true, now)
		}
	case QuickSoftTap:
		m.state = NoPress
		soft.Handle(false, now)
	case QuickFullPress:
		m.fx = effect{mode: gamepad.EffectSegment, force: math.MaxUint16, start: off + 0.89*rng, end: off + 0.99*rng}
		if pos < 1 {
			m.state = QuickFullRelease
			full.Handle(false, now)
		} else {
			full.Handle(true, now)
		}
	case QuickFullRelease:
		m.fx = effect{mode: gamepad.EffectSegment, force: math.MaxUint16, start: off + 0.89*rng, end: off + 0.99*rng}
		switch {
		case !pressed:
			m.state = NoPress
		case pos == 1:
			m.state = QuickFullPress
			full.Handle(true, now)
		}
	case SoftPress:
		if !pressed {
			soft.Handle(false, now)
			m.state = NoPress
			break
		}
		ramp := float64(int(p.TickMs / 30 * math.MaxUint16))
		switch mode {
		case gamepad.TriggerNoSkip, gamepad.TriggerMaySkip, gamepad.TriggerMaySkipR:
			m.rampSegment(ramp, p)
			soft.Handle(true, now)
			if pos == 1 {
				m.state = DelayFullPress
				full.Handle(true, now)
			}
		case gamepad.TriggerNoSkipExclusive:
			m.rampSegment(ramp, p)
			soft.Handle(false, now)
			if pos == 1 {
				m.state = ExclFullPress
				full.Handle(true, now)
			}
		default:
			m.fx.mode = gamepad.EffectResistanceRaw
			m.fx.force = min(math.MaxUint16, m.fx.force+ramp)
			soft.Handle(true, now)
		}
	case DelayFullPress:
		m.fx = effect{mode: gamepad.EffectSegment, force: math.MaxUint16, start: off + 0.8*rng, end: off + 0.99*rng}
		if pos < 1 {
			m.state = SoftPress
			full.Handle(false, now)
		} else {
			full.Handle(true, now)
		}
		soft.Handle(true, now)
	case ExclFullPress:
		m.fx = effect{mode: gamepad.EffectSegment, force: math.MaxUint16, start: off + 0.89*rng, end: off + 0.99*rng}
		if pos < 1 {
			m.state = SoftPress
			full.Handle(false, now)
			soft.Handle(true, now)
		} else {
			full.Handle(true, now)
		}
	default:
		log.Printf("trigger %s: invalid state %d, resetting to NoPress", m.Soft, m.state)
		m.state = NoPress
	}
}

func (m *Machine) rampSegment(ramp float64, p Params) {
	m.fx.force = min(math.MaxUint16, m.fx.force+ramp)
	m.fx.start = min(p.Offset+0.89*p.Range, m.fx.start+p.TickMs/150*p.Range)
	m.fx.end = m.fx.start + 0.1*p.Range
}

// softPullPressed applies the threshold, or the hair trigger when it is negative.
// The hair trigger compares four overlapping 3-sample averages: all rising means
// pressed, all falling means released, anything else keeps the current state.
func (m *Machine) softPullPressed(pos, threshold float64) bool {
	if threshold >= 0 {
		return pos > threshold
	}
	h := &m.history
	tm3 := (h[0] + h[1] + h[2]) / 3
	tm2 := (h[1] + h[2] + h[3]) / 3
	tm1 := (h[2] + h[3] + h[4]) / 3
	t0 := (h[3] + h[4] + pos) / 3

	var pressed bool
	switch {
	case t0 > tm1 && tm1 > tm2 && tm2 > tm3:
		pressed = true
	case t0 < tm1 && tm1 < tm2 && tm2 < tm3:
		pressed = false
	default:
		pressed = m.state != NoPress && m.state != QuickSoftTap
	}
	copy(h[:], h[1:])
	h[historySize-1] = pos
	return pressed
}

func updateChord(ctx *button.Context, pressed bool, btn gamepad.ButtonID) {
	if pressed {
		ctx.Chords.Push(btn)
	} else {
		ctx.Chords.Remove(btn)
	}
}
