package stick

import (
	"log"
	"math"
	"time"

	"github.com/soar/joymapper/internal/button"
	"github.com/soar/joymapper/internal/gamepad"
	"github.com/soar/joymapper/internal/settings"
)

// Result is what one stick contributed to a tick.
type Result struct {
	// CamX and CamY are mouse motion in pixels; the caller adds them to the gyro's.
	CamX float64
	CamY float64
	// Any reports deliberate stick input, for gyro gating.
	Any bool
	// LockMouse is set when the stick placed the pointer absolutely this tick.
	LockMouse bool
}

type virtualStickSettings struct {
	inner   *settings.Setting[float64]
	outer   *settings.Setting[float64]
	unpower *settings.Setting[float64]
	scale   *settings.Setting[float64]
}

type virtualStick struct {
	inner, outer, unpower, scale float64
}

func (v virtualStickSettings) resolve(stack []gamepad.ButtonID) virtualStick {
	return virtualStick{
		inner:   v.inner.Resolve(stack),
		outer:   v.outer.Resolve(stack),
		unpower: v.unpower.Resolve(stack),
		scale:   v.scale.Resolve(stack),
	}
}

// Processor runs the sticks of one controller. It is not safe for concurrent use;
// the controller's Context lock guards it.
type Processor struct {
	Ctx   *button.Context
	Split gamepad.SplitType
	// OSMouseSpeed is the operating system pointer speed multiplier.
	OSMouseSpeed float64
	// OnFlick receives the turns covered by a finished flick and its rotation.
	OnFlick func(turns float64)

	// GyroX and GyroY are the gyro velocity, in degrees per second, to merge into a
	// virtual stick this tick.
	GyroX float64
	GyroY float64
	// GyroStickDone is set once the gyro was merged into a virtual stick this tick.
	GyroStickDone bool

	now       time.Time
	rotation  RotationSmoother
	windLeft  float64
	windRight float64

	orientation   *settings.Setting[gamepad.ControllerOrientation]
	rwc           *settings.Setting[float64]
	inGameSens    *settings.Setting[float64]
	stickSens     *settings.Setting[gamepad.FloatXY]
	stickPower    *settings.Setting[float64]
	accelRate     *settings.Setting[float64]
	accelCap      *settings.Setting[float64]
	flickTime     *settings.Setting[float64]
	flickExponent *settings.Setting[float64]
	snapMode      *settings.Setting[gamepad.FlickSnapMode]
	snapStrength  *settings.Setting[float64]
	flickDeadzone *settings.Setting[float64]
	rotateSmooth  *settings.Setting[float64]
	tickTime      *settings.Setting[float64]
	flickOutput   *settings.Setting[gamepad.GyroOutput]
	gyroOutput    *settings.Setting[gamepad.GyroOutput]
	stickCal      *settings.Setting[float64]
	ringRadius    *settings.Setting[float64]
	screen        *settings.Setting[gamepad.FloatXY]
	scrollSens    *settings.Setting[gamepad.FloatXY]
	angleInner    *settings.Setting[float64]
	angleOuter    *settings.Setting[float64]
	windRange     *settings.Setting[float64]
	windPower     *settings.Setting[float64]
	unwindRate    *settings.Setting[float64]
	motionInner   *settings.Setting[float64]
	motionOuter   *settings.Setting[float64]
	mouselike     *settings.Setting[gamepad.FloatXY]
	returnActive  *settings.Setting[gamepad.Switch]
	edgePush      *settings.Setting[gamepad.Switch]
	returnAngle   *settings.Setting[float64]
	returnCutoff  *settings.Setting[float64]
	left          virtualStickSettings
	right         virtualStickSettings
}

// NewProcessor returns a Processor sending button events through ctx.
func NewProcessor(ctx *button.Context, r *settings.Registry, split gamepad.SplitType) *Processor {
	f := func(id settings.SettingID) *settings.Setting[float64] { return settings.MustLookup[float64](r, id) }
	xy := func(id settings.SettingID) *settings.Setting[gamepad.FloatXY] {
		return settings.MustLookup[gamepad.FloatXY](r, id)
	}
	sw := func(id settings.SettingID) *settings.Setting[gamepad.Switch] {
		return settings.MustLookup[gamepad.Switch](r, id)
	}
	return &Processor{
		Ctx:           ctx,
		Split:         split,
		OSMouseSpeed:  1,
		orientation:   settings.MustLookup[gamepad.ControllerOrientation](r, settings.ControllerOrientation),
		rwc:           f(settings.RealWorldCalibration),
		inGameSens:    f(settings.InGameSens),
		stickSens:     xy(settings.StickSens),
		stickPower:    f(settings.StickPower),
		accelRate:     f(settings.StickAccelerationRate),
		accelCap:      f(settings.StickAccelerationCap),
		flickTime:     f(settings.FlickTime),
		flickExponent: f(settings.FlickTimeExponent),
		snapMode:      settings.MustLookup[gamepad.FlickSnapMode](r, settings.FlickSnapMode),
		snapStrength:  f(settings.FlickSnapStrength),
		flickDeadzone: f(settings.FlickDeadzoneAngle),
		rotateSmooth:  f(settings.RotateSmoothOverride),
		tickTime:      f(settings.TickTime),
		flickOutput:   settings.MustLookup[gamepad.GyroOutput](r, settings.FlickStickOutput),
		gyroOutput:    settings.MustLookup[gamepad.GyroOutput](r, settings.GyroOutput),
		stickCal:      f(settings.VirtualStickCalibration),
		ringRadius:    f(settings.MouseRingRadius),
		screen:        xy(settings.ScreenResolution),
		scrollSens:    xy(settings.ScrollSens),
		angleInner:    f(settings.AngleToAxisDeadzoneInner),
		angleOuter:    f(settings.AngleToAxisDeadzoneOuter),
		windRange:     f(settings.WindStickRange),
		windPower:     f(settings.WindStickPower),
		unwindRate:    f(settings.UnwindRate),
		motionInner:   f(settings.MotionDeadzoneInner),
		motionOuter:   f(settings.MotionDeadzoneOuter),
		mouselike:     xy(settings.MouselikeFactor),
		returnActive:  sw(settings.ReturnDeadzoneIsActive),
		edgePush:      sw(settings.EdgePushIsActive),
		returnAngle:   f(settings.ReturnDeadzoneAngle),
		returnCutoff:  f(settings.ReturnDeadzoneAngleCutoff),
		left: virtualStickSettings{
			inner: f(settings.LeftStickUndeadzoneInner), outer: f(settings.LeftStickUndeadzoneOuter),
			unpower: f(settings.LeftStickUnpower), scale: f(settings.LeftStickVirtualScale),
		},
		right: virtualStickSettings{
			inner: f(settings.RightStickUndeadzoneInner), outer: f(settings.RightStickUndeadzoneOuter),
			unpower: f(settings.RightStickUnpower), scale: f(settings.RightStickVirtualScale),
		},
	}
}

// SetTime starts a tick at now and clears the per tick gyro merge state.
func (p *Processor) SetTime(now time.Time) {
	p.now = now
	p.GyroStickDone = false
}

// Orientation is the controller orientation in effect, with JOYCON_SIDEWAYS resolved.
func (p *Processor) Orientation() gamepad.ControllerOrientation {
	return p.orientation.Resolve(p.Ctx.Chords.Items()).ForSplit(p.Split)
}

// mouseScale converts degrees of in-game turn to mouse counts.
func (p *Processor) mouseScale(stack []gamepad.ButtonID) float64 {
	return p.rwc.Resolve(stack) / p.OSMouseSpeed / p.inGameSens.Resolve(stack)
}

func (p *Processor) virtual(left bool, stack []gamepad.ButtonID) virtualStick {
	if left {
		return p.left.resolve(stack)
	}
	return p.right.resolve(stack)
}

// input is one stick sample in the player's frame.
type input struct {
	x, y         float64 // deadzoned
	lastX, lastY float64 // deadzoned
	rawX, rawY   float64
	rawLastX     float64
	rawLastY     float64
	rawLength    float64
	length       float64
	inner, outer float64
	pegged       bool
	dt           float64
}

// Process runs st for one tick with the stick at (x, y), axis signs applied and
// up positive. dt is in seconds. The caller holds the Context lock.
func (p *Processor) Process(st *Stick, x, y, dt float64) Result {
	ctx := p.Ctx
	stack := ctx.Chords.Snapshot()
	orient := p.Orientation()

	lastX, lastY := orient.Rotate(st.LastX, st.LastY)
	st.LastX, st.LastY = x, y
	x, y = orient.Rotate(x, y)

	in := input{rawX: x, rawY: y, rawLastX: lastX, rawLastY: lastY, dt: dt}
	in.rawLength = math.Hypot(x, y)
	in.inner, in.outer = st.deadzones(stack)
	in.lastX, in.lastY, _ = ApplyDeadzones(lastX, lastY, in.inner, in.outer)
	in.x, in.y, in.pegged = ApplyDeadzones(x, y, in.inner, in.outer)
	in.length = math.Hypot(in.x, in.y)

	mode := st.resolveMode(stack)
	st.LastMode = mode
	st.Output = gamepad.Vector{X: in.x, Y: in.y}
	ring := st.ring.Resolve(stack)
	handle(ctx, st.cfg.RingButton, inRing(in.length, ring == gamepad.RingInner), p.now)

	var res Result
	switch mode {
	case gamepad.StickNoMouse, gamepad.StickInnerRing, gamepad.StickOuterRing, gamepad.StickScrollWheel:
	default:
		p.directionButtons(st, false, false, false, false)
	}

	switch {
	case st.ignoreMode && mode == gamepad.StickInvalid && in.x == 0 && in.y == 0:
		st.ignoreMode = false
	case mode == gamepad.StickFlick || mode == gamepad.StickFlickOnly || mode == gamepad.StickRotateOnly:
		res.CamX += p.flick(st, in, mode, stack)
		res.Any = in.pegged
	case mode == gamepad.StickAim:
		res.CamX, res.CamY, res.Any = p.aim(st, in, stack)
	case mode == gamepad.StickMouseArea:
		if ctx.Keys != nil {
			r := p.ringRadius.Resolve(stack)
			ctx.Keys.MoveMouse((in.rawX-in.rawLastX)*r, -(in.rawY-in.rawLastY)*r)
		}
	case mode == gamepad.StickMouseRing:
		if ctx.Keys != nil && (in.x != 0 || in.y != 0) {
			r := p.ringRadius.Resolve(stack)
			scr := p.screen.Resolve(stack)
			nx, ny := in.x/in.length, in.y/in.length
			// the ring is centered on the screen in both axes
			ctx.Keys.SetMouseNorm((scr.X*0.5+0.5+nx*r)/scr.X, (scr.Y*0.5+0.5-ny*r)/scr.Y)
		}
		res.LockMouse = in.x != 0 || in.y != 0
	case mode == gamepad.StickScrollWheel:
		p.scrollWheel(st, in, stack)
	case mode == gamepad.StickNoMouse || mode == gamepad.StickInnerRing || mode == gamepad.StickOuterRing:
		l, r, u, d := directions(in.x, in.y)
		p.directionButtons(st, l, r, u, d)
		res.Any = l || r || u || d
	case mode == gamepad.StickLeftStick || mode == gamepad.StickRightStick:
		if ctx.Virtual != nil {
			res.Any = p.GyroStick(in.lastX, in.lastY, in.length, mode, false)
		}
	case mode >= gamepad.StickLeftAngleToX && mode <= gamepad.StickRightAngleToY:
		if ctx.Virtual != nil && in.rawLength > in.inner {
			res.Any = p.angleToAxis(in, mode, stack)
		}
	case mode == gamepad.StickLeftWindX || mode == gamepad.StickRightWindX:
		if ctx.Virtual != nil {
			res.Any = p.wind(in, mode, stack)
		}
	case mode == gamepad.StickHybridAim:
		p.hybridAim(st, in, stack)
	}
	return res
}

func (p *Processor) directionButtons(st *Stick, left, right, up, down bool) {
	handle(p.Ctx, st.cfg.Left, left, p.now)
	handle(p.Ctx, st.cfg.Right, right, p.now)
	handle(p.Ctx, st.cfg.Up, up, p.now)
	handle(p.Ctx, st.cfg.Down, down, p.now)
}

func (p *Processor) aim(st *Stick, in input, stack []gamepad.ButtonID) (camX, camY float64, active bool) {
	if !in.pegged {
		st.acceleration = 1
	}
	if in.length == 0 {
		return 0, 0, false
	}
	warped := math.Pow(in.length, p.stickPower.Resolve(stack))
	sens := p.stickSens.Resolve(stack)
	k := warped * p.mouseScale(stack) * st.acceleration * in.dt
	camX = in.x / in.length * sens.X * k
	camY = in.y / in.length * sens.Y * k
	if in.pegged {
		st.acceleration = min(p.accelCap.Resolve(stack), st.acceleration+p.accelRate.Resolve(stack)*in.dt)
	}
	return camX, camY, true
}

func (p *Processor) scrollWheel(st *Stick, in input, stack []gamepad.ButtonID) {
	if in.x == 0 && in.y == 0 {
		st.scroll.Reset(p.Ctx, p.now)
		return
	}
	if in.lastX == 0 && in.lastY == 0 {
		return
	}
	last := math.Atan2(in.lastY, in.lastX) * 180 / math.Pi
	angle := math.Atan2(in.y, in.x) * 180 / math.Pi
	if (last > 0) != (angle > 0) && math.Abs(angle-last) > 270 {
		if last > 0 {
			last -= 360
		} else {
			last += 360
		}
	}
	st.scroll.Process(p.Ctx, angle-last, p.scrollSens.Resolve(stack).X, p.now)
}

// snap pulls a flick angle toward the nearest snap direction.
func (p *Processor) snap(angle float64, stack []gamepad.ButtonID) float64 {
	var interval float64
	switch p.snapMode.Resolve(stack) {
	case gamepad.SnapFour:
		interval = math.Pi / 2
	case gamepad.SnapEight:
		interval = math.Pi / 4
	default:
		return angle
	}
	snapped := math.Round(angle/interval) * interval
	strength := p.snapStrength.Resolve(stack)
	return angle*(1-strength) + snapped*strength
}

// easeOut is the flick progress curve, fast at first then settling.
func easeOut(t float64) float64 {
	return 1 - (1-t)*(1-t)
}

// flick runs FLICK, FLICK_ONLY and ROTATE_ONLY. Pushing the stick to the edge turns
// the camera to face that way over FLICK_TIME; rotating it while held turns with it.
func (p *Processor) flick(st *Stick, in input, mode gamepad.StickMode, stack []gamepad.ButtonID) float64 {
	output := p.flickOutput.Resolve(stack)
	isMouse := output == gamepad.OutputMouse
	mouseCal := 180 / math.Pi / p.OSMouseSpeed
	rwc, igs := p.rwc.Resolve(stack), p.inGameSens.Resolve(stack)

	var camX float64
	threshold := 1.0
	if st.flicking {
		threshold = 0.9
	}
	switch {
	case in.pegged || in.length >= threshold:
		angle := math.Atan2(-in.x, in.y)
		if !st.flicking {
			st.flicking = true
			if mode == gamepad.StickRotateOnly {
				break
			}
			angle = p.snap(angle, stack)
			if math.Abs(angle)*180/math.Pi < p.flickDeadzone.Resolve(stack) {
				angle = 0
			}
			st.flickStart = p.now
			st.flickDelta = angle
			st.flickProgress = 0
			st.flickRotation = angle
			p.rotation.Reset()
			log.Printf("Flick: %.3g degrees", angle*180/math.Pi)
			break
		}
		if mode == gamepad.StickFlickOnly {
			break
		}
		change := wrapAngle(angle - math.Atan2(-in.lastX, in.lastY))
		st.flickRotation += change
		constant := 1.0
		if isMouse {
			constant = rwc * mouseCal / igs
		}
		tick := p.tickTime.Resolve(stack)
		window := min(maxRotationSamples, int(math.Ceil(64/tick)))
		if override := p.rotateSmooth.Resolve(stack); override < 0 {
			camX = p.rotation.Smooth(-change*constant, constant*0.02, constant*0.04, window)
		} else {
			camX = p.rotation.Smooth(-change*constant, constant*override, constant*override*2, window)
		}
		if !isMouse {
			camX *= 180 / (math.Pi * 0.001 * tick)
		}
	case st.flicking:
		if mode == gamepad.StickFlick && p.OnFlick != nil {
			p.OnFlick(math.Abs(st.flickRotation) / (2 * math.Pi))
		}
		st.flicking = false
	}

	elapsed := p.now.Sub(st.flickStart).Seconds()
	if isMouse {
		percent := elapsed / p.flickTime.Resolve(stack)
		if d := math.Abs(st.flickDelta); d > 0 {
			percent /= math.Pow(d/math.Pi, p.flickExponent.Resolve(stack))
		}
		percent = min(percent, 1)
		previous := easeOut(st.flickProgress)
		st.flickProgress = percent
		return camX + (easeOut(percent)-previous)*st.flickDelta*rwc*-mouseCal/igs
	}

	maxSpeed := p.stickCal.Resolve(stack)
	duration := math.Abs(st.flickDelta) / (maxSpeed * math.Pi / 180)
	if elapsed <= duration {
		camX -= sign(st.flickDelta) * maxSpeed
		st.flickProgress = min(1, elapsed/duration)
	} else {
		st.flickProgress = 1
	}
	target := gamepad.StickRightStick
	if output == gamepad.OutputLeftStick {
		target = gamepad.StickLeftStick
	}
	if p.gyroOutput.Resolve(stack) == output {
		p.GyroX += camX
		p.GyroStick(0, 0, 0, target, false)
	} else {
		gx, gy := p.GyroX, p.GyroY
		p.GyroX, p.GyroY = camX, 0
		p.GyroStick(0, 0, 0, target, true)
		p.GyroX, p.GyroY = gx, gy
	}
	return 0
}
