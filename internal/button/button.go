package button

import (
	"fmt"
	"log"
	"time"

	"github.com/soar/joymapper/internal/binding"
	"github.com/soar/joymapper/internal/gamepad"
)

// State is where a Button is in its press lifecycle.
type State int

const (
	NoPress State = iota
	BtnPress
	TapPress
	WaitSim
	SimPress
	SimRelease
	DblPressStart
	DblPressNoPress
	DiagPress
	InstRelease
	numStates
)

var stateNames = [numStates]string{
	"NoPress", "BtnPress", "TapPress", "WaitSim", "SimPress", "SimRelease",
	"DblPressStart", "DblPressNoPress", "DiagPress", "InstRelease",
}

func (s State) String() string {
	if s >= 0 && s < numStates {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// EventKind is what happened to a button.
type EventKind int

const (
	Pressed EventKind = iota
	Released
	// ResetTime restarts the press timer without changing state.
	ResetTime
)

type deferredAction struct {
	action binding.Action
	at     time.Time
}

// Button is the state machine of one mappable button.
type Button struct {
	id  gamepad.ButtonID
	ctx *Context

	state     State
	pressTime time.Time
	// releaseTime is when a double-press candidate was first let go.
	releaseTime time.Time
	mapping   *binding.Mapping
	holdFired bool
	nextTurbo time.Time
	// partner is the other button of a sim or diag press.
	partner gamepad.ButtonID
	// simMaster is set on the sim pair member that runs the shared mapping.
	simMaster bool

	pending []deferredAction
}

func newButton(id gamepad.ButtonID, ctx *Context) *Button {
	return &Button{id: id, ctx: ctx, mapping: binding.None, partner: gamepad.ButtonNone}
}

func (b *Button) ID() gamepad.ButtonID { return b.id }

func (b *Button) State() State { return b.state }

// Mapping returns the mapping the current press runs.
func (b *Button) Mapping() *binding.Mapping { return b.mapping }

// Duration is how long the current press has lasted.
func (b *Button) Duration(now time.Time) time.Duration {
	return now.Sub(b.pressTime)
}

// Handle sends Pressed or Released. Pollers call it every tick with the current
// physical state so timers advance while nothing changes.
func (b *Button) Handle(pressed bool, now time.Time) {
	if pressed {
		b.Send(Pressed, now)
	} else {
		b.Send(Released, now)
	}
}

// Send feeds an event to the state machine.
func (b *Button) Send(kind EventKind, now time.Time) {
	b.flushPending(now)
	if kind == ResetTime {
		b.pressTime = now
		return
	}
	pressed := kind == Pressed

	switch b.state {
	case NoPress:
		if pressed {
			b.press(now)
		}
	case BtnPress, DiagPress:
		if pressed {
			b.held(now)
		} else {
			b.ctx.Chords.Remove(b.id)
			b.release(now)
		}
	case TapPress, InstRelease:
		if len(b.pending) == 0 || pressed {
			b.flushAll()
			b.state = NoPress
			if pressed {
				b.press(now)
			}
		}
	case WaitSim:
		b.waitSim(pressed, now)
	case SimPress:
		if pressed {
			if b.simMaster {
				b.held(now)
			}
			return
		}
		b.ctx.Chords.Remove(b.id)
		b.endSim(now)
	case SimRelease:
		if !pressed {
			b.ctx.Chords.Remove(b.id)
			b.settle()
		}
	case DblPressStart:
		if pressed {
			if now.Sub(b.pressTime) > b.ctx.dblPressWindow() {
				b.start(b.resolve(), now, false)
			}
			return
		}
		b.ctx.Chords.Remove(b.id)
		b.releaseTime = now
		b.state = DblPressNoPress
	case DblPressNoPress:
		if pressed {
			if now.Sub(b.releaseTime) <= b.ctx.dblPressWindow() {
				m, ok := b.ctx.Table.DoublePress(b.id)
				if !ok {
					m = b.resolve()
				}
				b.ctx.Chords.Push(b.id)
				b.pressTime = now
				b.start(m, now, true)
				return
			}
			b.ctx.Chords.Push(b.id)
			b.tap(b.resolve(), now)
			b.state = NoPress
			b.press(now)
			return
		}
		if now.Sub(b.releaseTime) > b.ctx.dblPressWindow() {
			b.tap(b.resolve(), now)
		}
	default:
		log.Printf("button %s: invalid state %d, resetting", b.id, b.state)
		b.reset(now)
	}
}

// press handles a press edge out of NoPress.
func (b *Button) press(now time.Time) {
	b.pressTime = now
	b.holdFired = false
	b.ctx.Chords.Push(b.id)

	if p := b.diagPartner(); p != gamepad.ButtonNone {
		if m, ok := b.ctx.Table.DiagMapping(b.id, p); ok {
			b.partner = p
			b.mapping = m
			b.state = DiagPress
			b.fire(binding.OnPress, now)
			return
		}
	}
	if len(b.ctx.Table.SimPartners(b.id)) > 0 {
		b.state = WaitSim
		b.waitSim(true, now)
		return
	}
	if _, ok := b.ctx.Table.DoublePress(b.id); ok {
		b.state = DblPressStart
		return
	}
	b.start(b.resolve(), now, true)
}

// start enters BtnPress running m. fresh restarts the hold timer.
func (b *Button) start(m *binding.Mapping, now time.Time, fresh bool) {
	if fresh {
		b.pressTime = now
	}
	b.mapping = m
	b.holdFired = false
	b.state = BtnPress
	b.fire(binding.OnPress, now)
	b.held(now)
}

func (b *Button) resolve() *binding.Mapping {
	return b.ctx.Table.Resolve(b.id, b.ctx.Chords.Items())
}

// held advances hold and turbo timers while the button stays down.
func (b *Button) held(now time.Time) {
	hold := b.ctx.holdPressTime()
	if b.Duration(now) < hold {
		return
	}
	if !b.holdFired {
		b.holdFired = true
		b.fire(binding.OnHold, now)
		if b.mapping.HasTurbo() {
			b.fire(binding.OnTurbo, now)
			b.nextTurbo = now.Add(b.ctx.turboPeriod())
		}
		return
	}
	if b.mapping.HasTurbo() && !now.Before(b.nextTurbo) {
		b.fire(binding.OnTurbo, now)
		b.nextTurbo = now.Add(b.ctx.turboPeriod())
	}
}

// release ends the current press of b.mapping.
func (b *Button) release(now time.Time) {
	if !b.holdFired && b.Duration(now) >= b.ctx.holdPressTime() {
		b.holdFired = true
		b.fire(binding.OnHold, now)
	}
	b.fire(binding.OnRelease, now)
	if b.holdFired {
		b.fire(binding.OnHoldRelease, now)
		b.settle()
		return
	}
	b.fire(binding.OnTap, now)
	b.deferActions(binding.OnTapRelease, now.Add(b.mapping.TapDuration()))
	b.settle()
	if len(b.pending) > 0 {
		b.state = TapPress
	}
}

// tap runs a whole press and release of m at once, as when a double press
// window runs out.
func (b *Button) tap(m *binding.Mapping, now time.Time) {
	b.mapping = m
	b.holdFired = false
	b.fire(binding.OnPress, now)
	b.fire(binding.OnTap, now)
	b.deferActions(binding.OnRelease, now.Add(m.TapDuration()))
	b.deferActions(binding.OnTapRelease, now.Add(m.TapDuration()))
	b.ctx.Chords.Remove(b.id)
	b.settle()
	if len(b.pending) > 0 {
		b.state = TapPress
	}
}

// settle goes idle, waiting on instant releases first.
func (b *Button) settle() {
	b.partner = gamepad.ButtonNone
	b.simMaster = false
	if len(b.pending) > 0 {
		b.state = InstRelease
		return
	}
	b.state = NoPress
}

func (b *Button) waitSim(pressed bool, now time.Time) {
	if p := b.simPartner(); p != nil {
		m, ok := b.ctx.Table.SimMapping(b.id, p.id)
		if !ok {
			log.Printf("button %s: no sim partner %s", b.id, p.id)
		} else {
			p.state, b.state = SimPress, SimPress
			p.partner, b.partner = b.id, p.id
			p.simMaster, b.simMaster = false, true
			b.mapping = m
			b.pressTime = now
			b.holdFired = false
			b.fire(binding.OnPress, now)
			return
		}
	}
	if pressed && now.Sub(b.pressTime) <= b.ctx.simPressWindow() {
		return
	}
	if _, ok := b.ctx.Table.DoublePress(b.id); ok {
		b.state = DblPressStart
	} else {
		b.start(b.resolve(), now, false)
	}
	if !pressed {
		b.Send(Released, now)
	}
}

// simPartner is the first declared sim partner whose state matches this button's.
func (b *Button) simPartner() *Button {
	for _, id := range b.ctx.Table.SimPartners(b.id) {
		p := b.ctx.Button(id)
		if p == nil {
			log.Printf("button %s: cannot find sim partner %s", b.id, id)
			continue
		}
		if p != b && p.state == b.state {
			return p
		}
	}
	return nil
}

// diagPartner is the first declared diag partner that is being pressed.
func (b *Button) diagPartner() gamepad.ButtonID {
	for _, id := range b.ctx.Table.DiagPartners(b.id) {
		p := b.ctx.Button(id)
		if p == nil {
			log.Printf("button %s: cannot find diag partner %s", b.id, id)
			continue
		}
		if p != b && p.state != NoPress {
			return id
		}
	}
	return gamepad.ButtonNone
}

// endSim releases a sim press. The master runs the release of the shared mapping;
// whichever button is still held waits in SimRelease.
func (b *Button) endSim(now time.Time) {
	master, other := b, b.ctx.Button(b.partner)
	if !b.simMaster && other != nil {
		master, other = other, b
	}
	master.release(now)
	if other == nil {
		return
	}
	if other == b {
		b.settle()
		master.state = SimRelease
		return
	}
	other.partner = gamepad.ButtonNone
	other.simMaster = false
	other.state = SimRelease
}

func (b *Button) fire(e binding.Event, now time.Time) {
	for _, a := range b.mapping.Actions(e) {
		if rel := b.ctx.run(b.id, a, now); rel != nil {
			b.pending = append(b.pending, deferredAction{action: *rel, at: now.Add(binding.InstantDuration)})
		}
	}
}

func (b *Button) deferActions(e binding.Event, at time.Time) {
	for _, a := range b.mapping.Actions(e) {
		b.pending = append(b.pending, deferredAction{action: a, at: at})
	}
}

func (b *Button) flushPending(now time.Time) {
	if len(b.pending) == 0 {
		return
	}
	keep := b.pending[:0]
	var due []deferredAction
	for _, d := range b.pending {
		if now.Before(d.at) {
			keep = append(keep, d)
		} else {
			due = append(due, d)
		}
	}
	b.pending = keep
	for _, d := range due {
		b.ctx.run(b.id, d.action, now)
	}
}

func (b *Button) flushAll() {
	pending := b.pending
	b.pending = nil
	for _, d := range pending {
		b.ctx.run(b.id, d.action, d.at)
	}
}

func (b *Button) reset(now time.Time) {
	switch b.state {
	case BtnPress, DiagPress:
		b.release(now)
	case SimPress:
		if b.simMaster {
			b.release(now)
		}
	}
	b.flushAll()
	b.state = NoPress
	b.partner = gamepad.ButtonNone
	b.simMaster = false
}
