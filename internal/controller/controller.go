// Package controller runs the mapping pipeline of every connected device. Each
// poll feeds one sample through the gyro, the sticks, the buttons and the
// triggers, then flushes the virtual controller and the device feedback.
package controller

import (
	"log"
	"math"
	"time"

	"github.com/soar/joymapper/internal/button"
	"github.com/soar/joymapper/internal/gamepad"
	"github.com/soar/joymapper/internal/gyro"
	"github.com/soar/joymapper/internal/output"
	"github.com/soar/joymapper/internal/settings"
	"github.com/soar/joymapper/internal/stick"
	"github.com/soar/joymapper/internal/trigger"
)

// Device describes a physical controller as the input source sees it.
type Device struct {
	Name  string
	Type  gamepad.ControllerType
	Split gamepad.SplitType
	// Feedback drives the device's rumble, adaptive triggers and light bar. It may be nil.
	Feedback output.Feedback
}

// handles are the settings a poll reads outside the stick, gyro and trigger packages.
type handles struct {
	leftAxis    *settings.Setting[gamepad.AxisSignPair]
	rightAxis   *settings.Setting[gamepad.AxisSignPair]
	motionAxis  *settings.Setting[gamepad.AxisSignPair]
	touchAxis   *settings.Setting[gamepad.AxisSignPair]
	gyroMask    *settings.Setting[gamepad.JoyconMask]
	motionMask  *settings.Setting[gamepad.JoyconMask]
	motionMode  *settings.Setting[gamepad.StickMode]
	orientation *settings.Setting[gamepad.ControllerOrientation]
	lean        *settings.Setting[float64]
	autoCal     *settings.Setting[gamepad.Switch]

	zlMode      *settings.Setting[gamepad.TriggerMode]
	zrMode      *settings.Setting[gamepad.TriggerMode]
	dualStage   *settings.Setting[gamepad.TriggerMode]
	threshold   *settings.Setting[float64]
	skipDelay   *settings.Setting[float64]
	tickTime    *settings.Setting[float64]
	leftOffset  *settings.Setting[int]
	rightOffset *settings.Setting[int]
	leftRange   *settings.Setting[int]
	rightRange  *settings.Setting[int]
	adaptive    *settings.Setting[gamepad.Switch]
	leftEffect  *settings.Setting[gamepad.TriggerEffect]
	rightEffect *settings.Setting[gamepad.TriggerEffect]

	gyroOutput *settings.Setting[gamepad.GyroOutput]
	rwc        *settings.Setting[float64]
	inGameSens *settings.Setting[float64]
	lightBar   *settings.Setting[gamepad.Color]

	touchpadMode *settings.Setting[gamepad.TouchpadMode]
	gridSize     *settings.Setting[gamepad.FloatXY]
	touchRadius  *settings.Setting[float64]
	touchpadSens *settings.Setting[gamepad.FloatXY]
}

func lookupHandles(r *settings.Registry) handles {
	axis := func(id settings.SettingID) *settings.Setting[gamepad.AxisSignPair] {
		return settings.MustLookup[gamepad.AxisSignPair](r, id)
	}
	f := func(id settings.SettingID) *settings.Setting[float64] { return settings.MustLookup[float64](r, id) }
	i := func(id settings.SettingID) *settings.Setting[int] { return settings.MustLookup[int](r, id) }
	tm := func(id settings.SettingID) *settings.Setting[gamepad.TriggerMode] {
		return settings.MustLookup[gamepad.TriggerMode](r, id)
	}
	fx := func(id settings.SettingID) *settings.Setting[gamepad.TriggerEffect] {
		return settings.MustLookup[gamepad.TriggerEffect](r, id)
	}
	return handles{
		leftAxis:     axis(settings.LeftStickAxis),
		rightAxis:    axis(settings.RightStickAxis),
		motionAxis:   axis(settings.MotionStickAxis),
		touchAxis:    axis(settings.TouchStickAxis),
		gyroMask:     settings.MustLookup[gamepad.JoyconMask](r, settings.JoyconGyroMask),
		motionMask:   settings.MustLookup[gamepad.JoyconMask](r, settings.JoyconMotionMask),
		motionMode:   settings.MustLookup[gamepad.StickMode](r, settings.MotionStickMode),
		orientation:  settings.MustLookup[gamepad.ControllerOrientation](r, settings.ControllerOrientation),
		lean:         f(settings.LeanThreshold),
		autoCal:      settings.MustLookup[gamepad.Switch](r, settings.AutoCalibrateGyro),
		zlMode:       tm(settings.ZLMode),
		zrMode:       tm(settings.ZRMode),
		dualStage:    tm(settings.TouchpadDualStageMode),
		threshold:    f(settings.TriggerThreshold),
		skipDelay:    f(settings.TriggerSkipDelay),
		tickTime:     f(settings.TickTime),
		leftOffset:   i(settings.LeftTriggerOffset),
		rightOffset:  i(settings.RightTriggerOffset),
		leftRange:    i(settings.LeftTriggerRange),
		rightRange:   i(settings.RightTriggerRange),
		adaptive:     settings.MustLookup[gamepad.Switch](r, settings.AdaptiveTrigger),
		leftEffect:   fx(settings.LeftTriggerEffect),
		rightEffect:  fx(settings.RightTriggerEffect),
		gyroOutput:   settings.MustLookup[gamepad.GyroOutput](r, settings.GyroOutput),
		rwc:          f(settings.RealWorldCalibration),
		inGameSens:   f(settings.InGameSens),
		lightBar:     settings.MustLookup[gamepad.Color](r, settings.LightBar),
		touchpadMode: settings.MustLookup[gamepad.TouchpadMode](r, settings.TouchpadMode),
		gridSize:     settings.MustLookup[gamepad.FloatXY](r, settings.GridSize),
		touchRadius:  f(settings.TouchStickRadius),
		touchpadSens: settings.MustLookup[gamepad.FloatXY](r, settings.TouchpadSens),
	}
}

// touchStick is a stick driven by one finger on the touchpad.
type touchStick struct {
	stick    *stick.Stick
	location gamepad.Vector
	prevDown bool
}

// Controller is the mapping state of one device. The halves of a merged joycon
// pair are two Controllers sharing a button Context; every method takes the
// Context lock.
type Controller struct {
	Handle int
	Device

	ctx    *button.Context
	s      handles
	sticks *stick.Processor
	motion *gyro.Motion
	gyro   *gyro.Processor
	cal    *Calibration

	left, right, motionStick *stick.Stick
	touch                    [2]touchStick
	zl, zr, touchpad         *trigger.Machine

	last      time.Time
	touching  bool
	leftFx    gamepad.TriggerEffect
	rightFx   gamepad.TriggerEffect
	sentLeft  gamepad.TriggerEffect
	sentRight gamepad.TriggerEffect
	lightBar  gamepad.Color
	lightSet  bool
	virtErr   string

	state   gamepad.State
	onState func(gamepad.State)
}

func newController(handle int, d Device, ctx *button.Context, r *settings.Registry, cal *Calibration) *Controller {
	c := &Controller{
		Handle:      handle,
		Device:      d,
		ctx:         ctx,
		s:           lookupHandles(r),
		sticks:      stick.NewProcessor(ctx, r, d.Split),
		motion:      gyro.NewMotion(),
		gyro:        gyro.NewProcessor(r),
		cal:         cal,
		left:        stick.New(stick.LeftConfig, r),
		right:       stick.New(stick.RightConfig, r),
		motionStick: stick.New(stick.MotionConfig, r),
		zl:          trigger.New(gamepad.ButtonZL, gamepad.ButtonZLF),
		zr:          trigger.New(gamepad.ButtonZR, gamepad.ButtonZRF),
		touchpad:    trigger.New(gamepad.ButtonTouch, gamepad.ButtonCapture),
	}
	c.touch[0].stick = stick.New(stick.TouchConfig, r)
	c.touch[1].stick = stick.New(stick.SecondTouchConfig, r)
	return c
}

// Context returns the button Context, shared with a merged joycon partner.
func (c *Controller) Context() *button.Context { return c.ctx }

// Motion returns the sensor fusion state.
func (c *Controller) Motion() *gyro.Motion { return c.motion }

func (c *Controller) press(btn gamepad.ButtonID, pressed bool, now time.Time) {
	if b := c.ctx.Button(btn); b != nil {
		b.Handle(pressed, now)
	}
}

// Poll runs one tick of the pipeline for sample s.
func (c *Controller) Poll(s gamepad.Sample) {
	c.ctx.Lock()
	defer c.ctx.Unlock()

	now := s.Time
	dt := c.s.tickTime.Value() / 1000
	if !c.last.IsZero() {
		dt = now.Sub(c.last).Seconds()
	}
	c.last = now

	if c.cal.Active() {
		c.cal.Step(c, s)
		return
	}

	stack := c.ctx.Chords.Snapshot()
	c.motion.SetAutoCalibration(c.s.autoCal.Resolve(stack) == gamepad.On)
	calibrated := c.motion.Process(s.Gyro, s.Accel, dt)

	gate := c.gyro.Gate(stack)
	g := c.gyro.Process(stack, gyro.Frame{
		Gyro:    calibrated,
		Gravity: c.motion.Gravity(),
		Engaged: c.gyroEngaged(gate, s, stack),
		Actions: c.ctx.GyroActions(),
		DT:      dt,
	})
	c.sticks.GyroX, c.sticks.GyroY = g.X, g.Y
	c.sticks.SetTime(now)

	var camX, camY float64
	var lockMouse bool
	run := func(st *stick.Stick, x, y float64, sign gamepad.AxisSignPair) {
		res := c.sticks.Process(st, x*float64(sign.X), y*float64(sign.Y), dt)
		camX += res.CamX
		camY += res.CamY
		lockMouse = lockMouse || res.LockMouse
	}
	if c.Split.HasLeft() {
		run(c.left, s.LeftX, s.LeftY, c.s.leftAxis.Resolve(stack))
	}
	if c.Split.HasRight() {
		run(c.right, s.RightX, s.RightY, c.s.rightAxis.Resolve(stack))
	}
	if !c.s.motionMask.Resolve(stack).Ignores(c.Split) {
		c.motionStickTick(stack, now, run)
	}

	c.buttons(s, stack, now)
	c.sendEffects(stack)

	out := c.s.gyroOutput.Resolve(stack)
	if !c.sticks.GyroStickDone {
		switch out {
		case gamepad.OutputLeftStick:
			c.sticks.GyroStick(0, 0, 0, gamepad.StickLeftStick, false)
		case gamepad.OutputRightStick:
			c.sticks.GyroStick(0, 0, 0, gamepad.StickRightStick, false)
		case gamepad.OutputPSMotion:
			if c.ctx.Virtual != nil {
				c.ctx.Virtual.SetGyro(s.Accel, s.Gyro)
			}
		}
	}
	if !lockMouse && out == gamepad.OutputMouse && !c.s.gyroMask.Resolve(stack).Ignores(c.Split) && c.ctx.Keys != nil {
		scale := c.s.rwc.Resolve(stack) / c.sticks.OSMouseSpeed / c.s.inGameSens.Resolve(stack)
		c.ctx.Keys.MoveMouse(g.X*scale*dt+camX, g.Y*scale*dt-camY)
	}

	if c.ctx.Virtual != nil {
		c.flushVirtual()
	}
	if color := c.s.lightBar.Resolve(stack); c.Feedback != nil && (!c.lightSet || color != c.lightBar) {
		c.Feedback.SetLightBar(color)
		c.lightBar, c.lightSet = color, true
	}
	c.report(s, g)
}

func (c *Controller) gyroEngaged(gate gamepad.GyroSettings, s gamepad.Sample, stack []gamepad.ButtonID) bool {
	switch gate.IgnoreMode {
	case gamepad.IgnoreLeftStick:
		return c.left.Engaged(s.LeftX, s.LeftY, stack)
	case gamepad.IgnoreRightStick:
		return c.right.Engaged(s.RightX, s.RightY, stack)
	}
	return c.ctx.IsPressed(gate.Button)
}

// motionStickTick turns the tilt from the neutral pose into a stick position,
// then drives the lean buttons and steering from the sideways tilt.
func (c *Controller) motionStickTick(stack []gamepad.ButtonID, now time.Time, run func(*stick.Stick, float64, float64, gamepad.AxisSignPair)) {
	grav := c.motion.RelativeGravity()
	x, y := grav.X, -grav.Z
	length2D := math.Hypot(grav.X, grav.Z)
	if length2D > 0 {
		deflection := math.Atan2(length2D, -grav.Y) / math.Pi
		x *= deflection / length2D
		y *= deflection / length2D
	}
	run(c.motionStick, x, y, c.s.motionAxis.Resolve(stack))

	length3D := grav.Length()
	if length3D == 0 {
		return
	}
	var side float64
	switch c.s.orientation.Resolve(stack).ForSplit(c.Split) {
	case gamepad.OrientLeft:
		side = grav.Z
	case gamepad.OrientRight:
		side = -grav.Z
	case gamepad.OrientBackward:
		side = -grav.X
	default:
		side = grav.X
	}
	side /= length3D
	threshold := math.Sin(c.s.lean.Resolve(stack) * math.Pi / 180)
	c.press(gamepad.ButtonLeanLeft, side < -threshold, now)
	c.press(gamepad.ButtonLeanRight, side > threshold, now)
	c.sticks.Steer(c.s.motionMode.Resolve(stack), side, grav.Y)
}

func (c *Controller) buttons(s gamepad.Sample, stack []gamepad.ButtonID, now time.Time) {
	b := s.Buttons
	each := func(ids ...gamepad.ButtonID) {
		for _, id := range ids {
			c.press(id, b.Has(id), now)
		}
	}

	if c.Split.HasLeft() {
		each(gamepad.ButtonUp, gamepad.ButtonDown, gamepad.ButtonLeft, gamepad.ButtonRight,
			gamepad.ButtonL, gamepad.ButtonMinus, gamepad.ButtonL3)
		c.zl.Handle(c.ctx, c.triggerParams(c.s.zlMode.Resolve(stack), true, stack), s.LTrigger, now)

		switch c.Type {
		case gamepad.TypeDS4, gamepad.TypeDualSense:
			// the pad click is the full pull of a touch "trigger"
			var pos float64
			switch {
			case b.Has(gamepad.ButtonCapture):
				pos = 1
			case c.touching:
				pos = 0.99
			}
			p := trigger.Params{
				Mode:      c.s.dualStage.Resolve(stack),
				Threshold: c.s.threshold.Resolve(stack),
				SkipDelay: ms(c.s.skipDelay.Resolve(stack)),
				TickMs:    c.s.tickTime.Value(),
			}
			c.touchpad.Handle(c.ctx, p, pos, now)
		case gamepad.TypeXbox:
			each(gamepad.ButtonCapture)
		default:
			each(gamepad.ButtonCapture, gamepad.ButtonSL, gamepad.ButtonSR)
		}
	} else {
		each(gamepad.ButtonSL, gamepad.ButtonSR)
	}

	if c.Split.HasRight() {
		each(gamepad.ButtonE, gamepad.ButtonS, gamepad.ButtonN, gamepad.ButtonW,
			gamepad.ButtonR, gamepad.ButtonPlus, gamepad.ButtonHome, gamepad.ButtonR3)
		c.zr.Handle(c.ctx, c.triggerParams(c.s.zrMode.Resolve(stack), false, stack), s.RTrigger, now)
	}
}

func ms(v float64) time.Duration {
	return time.Duration(v * float64(time.Millisecond))
}

func (c *Controller) triggerParams(mode gamepad.TriggerMode, left bool, stack []gamepad.ButtonID) trigger.Params {
	threshold := c.s.threshold.Resolve(stack)
	if c.Type == gamepad.TypeDualSense && c.s.adaptive.Resolve(stack) != gamepad.Off {
		// adaptive triggers already give a hair trigger its click
		threshold = max(0, threshold)
	}
	p := trigger.Params{
		Mode:            mode,
		Threshold:       threshold,
		SkipDelay:       ms(c.s.skipDelay.Resolve(stack)),
		TickMs:          c.s.tickTime.Value(),
		DigitalTriggers: c.Type.HasDigitalTriggers(),
	}
	if left {
		p.Offset, p.Range = float64(c.s.leftOffset.Resolve(stack)), float64(c.s.leftRange.Resolve(stack))
	} else {
		p.Offset, p.Range = float64(c.s.rightOffset.Resolve(stack)), float64(c.s.rightRange.Resolve(stack))
	}
	return p
}

// sendEffects pushes the adaptive trigger effects when they changed. An effect
// set to ON follows the trigger state machine.
func (c *Controller) sendEffects(stack []gamepad.ButtonID) {
	var left, right gamepad.TriggerEffect
	if c.s.adaptive.Resolve(stack) != gamepad.Off {
		left, right = c.s.leftEffect.Resolve(stack), c.s.rightEffect.Resolve(stack)
		if left.Mode == gamepad.EffectOn {
			left = c.zl.Effect()
		}
		if right.Mode == gamepad.EffectOn {
			right = c.zr.Effect()
		}
	}
	c.setEffects(left, right)
}

func (c *Controller) setEffects(left, right gamepad.TriggerEffect) {
	if c.Feedback == nil || (left == c.sentLeft && right == c.sentRight) {
		return
	}
	c.Feedback.SetTriggerEffect(left, right)
	c.sentLeft, c.sentRight = left, right
}

func (c *Controller) flushVirtual() {
	err := c.ctx.Virtual.Update()
	switch {
	case err != nil && err.Error() != c.virtErr:
		log.Printf("Virtual controller update failed for device %d: %v", c.Handle, err)
		c.virtErr = err.Error()
	case err == nil:
		c.virtErr = ""
	}
}

// Touch handles a touchpad update: the touch grid buttons and touch sticks, or
// relative mouse motion.
func (c *Controller) Touch(t gamepad.Touch) {
	c.ctx.Lock()
	defer c.ctx.Unlock()

	now := t.Time
	dt := c.s.tickTime.Value() / 1000
	p0, p1 := t.Points[0], t.Points[1]
	c.touching = p0.Down || p1.Down
	if !c.touching {
		for _, id := range c.ctx.Chords.Snapshot() {
			if id.IsGrid() {
				c.ctx.Chords.Remove(id)
			}
		}
	}

	stack := c.ctx.Chords.Snapshot()
	switch c.s.touchpadMode.Resolve(stack) {
	case gamepad.TouchGridAndStick:
		grid := c.s.gridSize.Resolve(stack)
		cols, cells := int(grid.X), int(grid.X*grid.Y)
		cell := func(p gamepad.TouchPoint) int {
			if !p.Down {
				return -1
			}
			row := max(0, int(math.Ceil(p.Y*grid.Y))-1)
			col := max(0, int(math.Ceil(p.X*grid.X))-1)
			return row*cols + col
		}
		i0, i1 := cell(p0), cell(p1)
		for i := range cells {
			c.press(gamepad.ButtonT1+gamepad.ButtonID(i), i == i0 || i == i1, now)
		}
		c.sticks.SetTime(now)
		c.touchStickTick(&c.touch[0], p0, dt, stack)
		c.touchStickTick(&c.touch[1], p1, dt, stack)
	case gamepad.TouchMouse:
		p := p0
		if !p.Down {
			p = p1
		}
		if p.Down && c.ctx.Keys != nil {
			sens := c.s.touchpadSens.Resolve(stack)
			c.ctx.Keys.MoveMouse(p.DX*sens.X, p.DY*sens.Y)
		}
	}
}

// touchStickTick treats the finger's travel since it landed as a stick
// deflection of up to TOUCH_STICK_RADIUS pad pixels.
func (c *Controller) touchStickTick(ts *touchStick, p gamepad.TouchPoint, dt float64, stack []gamepad.ButtonID) {
	var x, y float64
	if p.Down {
		radius := c.s.touchRadius.Resolve(stack)
		x = max(-1, min(1, (ts.location.X+p.DX)/radius))
		y = max(-1, min(1, (ts.location.Y-p.DY)/radius))
	}
	sign := c.s.touchAxis.Resolve(stack)
	res := c.sticks.Process(ts.stick, x*float64(sign.X), y*float64(sign.Y), dt)
	if (res.CamX != 0 || res.CamY != 0) && c.ctx.Keys != nil {
		c.ctx.Keys.MoveMouse(res.CamX, -res.CamY)
	}

	if !p.Down && ts.prevDown {
		ts.location = gamepad.Vector{}
		ts.stick.Release()
	} else {
		ts.location.X += p.DX
		ts.location.Y -= p.DY
	}
	ts.prevDown = p.Down
}

// SetNeutral records the current pose as the motion stick's center.
func (c *Controller) SetNeutral() {
	c.ctx.Lock()
	defer c.ctx.Unlock()
	c.motion.SetNeutral()
}

// report publishes telemetry when something visible changed.
func (c *Controller) report(s gamepad.Sample, g gyro.Output) {
	st := gamepad.State{
		Connected:      true,
		Handle:         c.Handle,
		ControllerType: c.Type.String(),
		Name:           c.Name,
		Split:          c.Split.String(),
		Gyro:           gamepad.Vector{X: g.X, Y: g.Y},
	}
	for _, id := range c.ctx.Pressed() {
		st.Pressed = append(st.Pressed, id.String())
	}
	for _, id := range c.ctx.Chords.Items() {
		if id != gamepad.ButtonNone {
			st.Chords = append(st.Chords, id.String())
		}
	}
	stickState := func(st *stick.Stick) gamepad.StickState {
		return gamepad.StickState{Position: st.Output, Mode: st.LastMode.String()}
	}
	st.Sticks = gamepad.SticksState{Left: stickState(c.left), Right: stickState(c.right), Motion: stickState(c.motionStick)}
	st.Triggers = gamepad.TriggersState{
		LT: gamepad.TriggerState{Value: s.LTrigger, Phase: c.zl.State().String()},
		RT: gamepad.TriggerState{Value: s.RTrigger, Phase: c.zr.State().String()},
	}

	if c.onState == nil || gamepad.ComputeDelta(c.state, st).IsEmpty() {
		return
	}
	c.state = st
	c.onState(st)
}

// release drops everything held and stops feedback, for a disconnect or a rebuild.
func (c *Controller) release(now time.Time) {
	c.ctx.Lock()
	defer c.ctx.Unlock()
	c.ctx.Reset(now)
	c.zl.Reset()
	c.zr.Reset()
	c.touchpad.Reset()
	if c.Feedback != nil {
		c.Feedback.Rumble(0, 0)
		c.setEffects(gamepad.TriggerEffect{}, gamepad.TriggerEffect{})
	}
}
