package stick

import (
	"math"

	"github.com/soar/joymapper/internal/gamepad"
)

// GyroStick writes a virtual stick from the stick position (x, y) of length,
// merged with the gyro velocity when GYRO_OUTPUT names the same stick as mode,
// mode is INVALID, or force is set. It reports whether the stick itself is
// outside the game's deadzone.
func (p *Processor) GyroStick(x, y, length float64, mode gamepad.StickMode, force bool) bool {
	stack := p.Ctx.Chords.Snapshot()
	out := p.gyroOutput.Resolve(stack)
	isLeft := mode == gamepad.StickLeftStick
	matches := out == gamepad.OutputLeftStick && mode == gamepad.StickLeftStick ||
		out == gamepad.OutputRightStick && mode == gamepad.StickRightStick ||
		mode == gamepad.StickInvalid
	defer func() { p.GyroStickDone = p.GyroStickDone || matches }()

	v := p.virtual(isLeft, stack)
	maxSpeed := p.stickCal.Resolve(stack)
	live := 1 - v.outer - v.inner
	if live <= 0 || maxSpeed <= 0 {
		return false
	}
	unpower := v.unpower
	if unpower == 0 {
		unpower = 1
	}

	velocity := math.Pow(clamp((length-v.inner)/live, 0, 1), unpower) * maxSpeed * v.scale
	var ex, ey float64
	if velocity > 0 {
		ex = x / length * velocity
		ey = -y / length * velocity
	}
	if matches || force {
		ex += p.GyroX
		ey += p.GyroY
	}

	target := math.Hypot(ex, ey)
	strength := math.Pow(min(1, target/maxSpeed), 1/unpower)
	var gx, gy float64
	if strength > 0.01 {
		strength = v.inner + strength*live
		gx = ex / target * strength
		gy = ey / target * strength
	}
	if p.Ctx.Virtual != nil {
		if length <= v.inner && strength == 0 {
			// Sitting exactly on the game's deadzone edge makes it easy to find.
			p.Ctx.Virtual.SetStick(v.inner, 0, isLeft)
		} else {
			p.Ctx.Virtual.SetStick(gx, -gy, isLeft)
		}
	}
	return length > v.inner
}

// angleToAxis maps the stick's angle from straight up (or sideways for the Y
// variants) onto one virtual stick axis, scaled by how far it is pushed.
func (p *Processor) angleToAxis(in input, mode gamepad.StickMode, stack []gamepad.ButtonID) bool {
	isX := mode == gamepad.StickLeftAngleToX || mode == gamepad.StickRightAngleToX
	isLeft := mode == gamepad.StickLeftAngleToX || mode == gamepad.StickLeftAngleToY

	var angle float64
	if isX {
		angle = math.Atan2(in.x, math.Abs(in.y))
	} else {
		angle = math.Atan2(in.y, math.Abs(in.x))
	}
	inner, outer := p.angleInner.Resolve(stack), p.angleOuter.Resolve(stack)
	value := clamp((math.Abs(angle*180/math.Pi)-inner)/(90-outer-inner), 0, 1)
	value *= math.Pow(in.length, p.stickPower.Resolve(stack))

	v := p.virtual(isLeft, stack)
	out, ok := Undeadzone(value, v.inner, v.outer, v.unpower)
	if !ok {
		return false
	}
	out *= sign(angle)
	if isX {
		p.Ctx.Virtual.SetStick(out, 0, isLeft)
	} else {
		p.Ctx.Virtual.SetStick(0, out, isLeft)
	}
	return true
}

// wind accumulates the stick's rotation into a winding angle that drives a virtual
// stick's X axis. The angle unwinds toward zero while the stick is not at the edge.
func (p *Processor) wind(in input, mode gamepad.StickMode, stack []gamepad.ButtonID) bool {
	isLeft := mode == gamepad.StickLeftWindX
	angle := &p.windRight
	if isLeft {
		angle = &p.windLeft
	}

	var active bool
	if in.length > 0 && in.lastX != 0 && in.lastY != 0 {
		change := wrapAngle(math.Atan2(-in.x, in.y) - math.Atan2(-in.lastX, in.lastY))
		*angle -= change * in.length * 180 / math.Pi
		active = true
	}
	if in.length < 1 {
		unwind := p.unwindRate.Resolve(stack) * (1 - in.length) * in.dt
		if math.Abs(*angle) <= unwind {
			*angle = 0
		} else {
			*angle -= unwind * sign(*angle)
		}
	}

	power := p.windPower.Resolve(stack)
	if power == 0 {
		power = 1
	}
	remapped := min(math.Pow(math.Abs(*angle)/p.windRange.Resolve(stack)*2, power), 1)
	v := p.virtual(isLeft, stack)
	if out, ok := Undeadzone(remapped, v.inner, v.outer, v.unpower); ok {
		p.Ctx.Virtual.SetStick(sign(*angle)*out, 0, isLeft)
		active = true
	}
	return active
}

// Steer drives a virtual stick's X axis from how far the controller leans sideways,
// when the motion stick is in a steering mode. side is the sideways component of
// the normalized gravity and up its vertical component.
func (p *Processor) Steer(mode gamepad.StickMode, side, up float64) {
	if p.Ctx.Virtual == nil || (mode != gamepad.StickLeftSteerX && mode != gamepad.StickRightSteerX) {
		return
	}
	stack := p.Ctx.Chords.Snapshot()
	isLeft := mode == gamepad.StickLeftSteerX
	lean := math.Asin(clamp(side, -1, 1)) * 180 / math.Pi
	abs := math.Abs(lean)
	if up > 0 {
		// upside down
		abs = 180 - abs
	}
	inner, outer := p.motionInner.Resolve(stack), p.motionOuter.Resolve(stack)
	remapped := math.Pow(clamp((abs-inner)/(180-outer-inner), 0, 1), p.stickPower.Resolve(stack))

	v := p.virtual(isLeft, stack)
	if out, ok := Undeadzone(remapped, v.inner, v.outer, v.unpower); ok {
		p.Ctx.Virtual.SetStick(sign(lean)*out, 0, isLeft)
	}
}
