package output

import (
	"github.com/soar/joymapper/internal/binding"
	"github.com/soar/joymapper/internal/gamepad"
)

// padReport is the state of an emulated controller between two flushes.
type padReport struct {
	buttons        [binding.VirtualInvalid]bool
	lx, ly, rx, ry float64
	lt, rt         float64
}

func (r *padReport) trigger(left bool) float64 {
	if left {
		if r.buttons[binding.VirtualLT] {
			return 1
		}
		return r.lt
	}
	if r.buttons[binding.VirtualRT] {
		return 1
	}
	return r.rt
}

// triggerPulled is the digital state of an analog trigger.
func (r *padReport) triggerPulled(left bool) bool {
	return r.trigger(left) >= 0.5
}

// pad buffers the setters of VirtualController until Update. Concrete sinks
// embed it and read what changed since the last flush.
type pad struct {
	scheme gamepad.ControllerScheme
	next   padReport
	sent   padReport
	fresh  bool
}

func (p *pad) Scheme() gamepad.ControllerScheme { return p.scheme }

func (p *pad) SetButton(b binding.VirtualButton, pressed bool) {
	if b >= 0 && b < binding.VirtualInvalid {
		p.next.buttons[b] = pressed
	}
}

func (p *pad) SetStick(x, y float64, left bool) {
	x, y = clampUnit(x), clampUnit(y)
	if left {
		p.next.lx, p.next.ly = x, y
	} else {
		p.next.rx, p.next.ry = x, y
	}
}

func (p *pad) SetLeftTrigger(v float64)  { p.next.lt = max(0, min(1, v)) }
func (p *pad) SetRightTrigger(v float64) { p.next.rt = max(0, min(1, v)) }

// SetGyro is dropped: none of the sinks have motion sensors.
func (p *pad) SetGyro(accel, gyro [3]float64) {}

// changed lists the buttons whose state differs from the last flush.
func (p *pad) changed() []binding.VirtualButton {
	var out []binding.VirtualButton
	for b := range binding.VirtualInvalid {
		if b == binding.VirtualLT || b == binding.VirtualRT {
			continue
		}
		if p.next.buttons[b] != p.sent.buttons[b] || (!p.fresh && p.next.buttons[b]) {
			out = append(out, b)
		}
	}
	return out
}

// commit records the buffered report as sent.
func (p *pad) commit() {
	p.sent = p.next
	p.fresh = true
}

func clampUnit(v float64) float64 {
	return max(-1, min(1, v))
}
