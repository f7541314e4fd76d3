// Package stick turns analog stick positions into mouse motion, direction
// buttons and virtual controller sticks according to each stick's mode.
package stick

import (
	"math"
	"time"

	"github.com/soar/joymapper/internal/gamepad"
	"github.com/soar/joymapper/internal/settings"
)

// Config names the settings and derived buttons of one stick.
type Config struct {
	Name  string
	Inner settings.SettingID
	Outer settings.SettingID
	Ring  settings.SettingID
	Mode  settings.SettingID

	RingButton gamepad.ButtonID
	Left       gamepad.ButtonID
	Right      gamepad.ButtonID
	Up         gamepad.ButtonID
	Down       gamepad.ButtonID

	// Degrees marks deadzones stored in degrees of tilt, as the motion stick's are.
	Degrees bool
}

var (
	LeftConfig = Config{
		Name: "left", Inner: settings.LeftStickDeadzoneInner, Outer: settings.LeftStickDeadzoneOuter,
		Ring: settings.LeftRingMode, Mode: settings.LeftStickMode,
		RingButton: gamepad.ButtonLRing, Left: gamepad.ButtonLLeft, Right: gamepad.ButtonLRight,
		Up: gamepad.ButtonLUp, Down: gamepad.ButtonLDown,
	}
	RightConfig = Config{
		Name: "right", Inner: settings.RightStickDeadzoneInner, Outer: settings.RightStickDeadzoneOuter,
		Ring: settings.RightRingMode, Mode: settings.RightStickMode,
		RingButton: gamepad.ButtonRRing, Left: gamepad.ButtonRLeft, Right: gamepad.ButtonRRight,
		Up: gamepad.ButtonRUp, Down: gamepad.ButtonRDown,
	}
	MotionConfig = Config{
		Name: "motion", Inner: settings.MotionDeadzoneInner, Outer: settings.MotionDeadzoneOuter,
		Ring: settings.MotionRingMode, Mode: settings.MotionStickMode,
		RingButton: gamepad.ButtonMRing, Left: gamepad.ButtonMLeft, Right: gamepad.ButtonMRight,
		Up: gamepad.ButtonMUp, Down: gamepad.ButtonMDown,
		Degrees: true,
	}
	// TouchConfig is the first touch stick. The pad has no outer deadzone.
	TouchConfig = Config{
		Name: "touch", Inner: settings.TouchDeadzoneInner, Outer: settings.Zero,
		Ring: settings.TouchRingMode, Mode: settings.TouchStickMode,
		RingButton: gamepad.ButtonTRing, Left: gamepad.ButtonTLeft, Right: gamepad.ButtonTRight,
		Up: gamepad.ButtonTUp, Down: gamepad.ButtonTDown,
	}
	// SecondTouchConfig drives no buttons; only the first touch point has direction buttons.
	SecondTouchConfig = Config{
		Name: "touch2", Inner: settings.TouchDeadzoneInner, Outer: settings.Zero,
		Ring: settings.TouchRingMode, Mode: settings.TouchStickMode,
		RingButton: gamepad.ButtonNone, Left: gamepad.ButtonNone, Right: gamepad.ButtonNone,
		Up: gamepad.ButtonNone, Down: gamepad.ButtonNone,
	}
)

// smoothingSteps is the history length of the hybrid aim filters.
const smoothingSteps = 6

type hybridState struct {
	counter           int
	velocitiesX       [smoothingSteps]float64
	velocitiesY       [smoothingSteps]float64
	outputX           [smoothingSteps]float64
	outputY           [smoothingSteps]float64
	outputRadial      [smoothingSteps]float64
	edgePush          float64
	smallestMagnitude float64
}

// Stick is the state of one physical or derived stick.
type Stick struct {
	cfg   Config
	inner *settings.Setting[float64]
	outer *settings.Setting[float64]
	ring  *settings.Setting[gamepad.RingMode]
	mode  *settings.Setting[gamepad.StickMode]

	// LastX and LastY are the previous input, before orientation.
	LastX float64
	LastY float64

	flicking      bool
	flickStart    time.Time
	flickDelta    float64
	flickProgress float64
	flickRotation float64

	acceleration float64
	// ignoreMode is set once a chorded mode took over; the base mode stays ignored
	// until the stick is back at exactly zero.
	ignoreMode bool

	scroll ScrollAxis
	hybrid hybridState

	// Output is the last processed position, for telemetry.
	Output gamepad.Vector
	// LastMode is the mode resolved on the last tick.
	LastMode gamepad.StickMode
}

// New builds a stick reading its settings from r.
func New(cfg Config, r *settings.Registry) *Stick {
	s := &Stick{
		cfg:           cfg,
		inner:         settings.MustLookup[float64](r, cfg.Inner),
		outer:         settings.MustLookup[float64](r, cfg.Outer),
		ring:          settings.MustLookup[gamepad.RingMode](r, cfg.Ring),
		mode:          settings.MustLookup[gamepad.StickMode](r, cfg.Mode),
		flickProgress: 1,
		acceleration:  1,
	}
	// Turning counter-clockwise raises the angle.
	s.scroll = NewScrollAxis(cfg.Left, cfg.Right)
	return s
}

func (s *Stick) Config() Config { return s.cfg }

// Flicking reports whether a flick is in progress.
func (s *Stick) Flicking() bool { return s.flicking }

// Release forgets the transient state of a stick that stopped reporting, like a lifted finger.
func (s *Stick) Release() {
	s.flicking = false
	s.acceleration = 1
	s.ignoreMode = false
}

// resolveMode applies the stick mode hooks: a running flick finishes as FLICK_ONLY,
// and once a chorded mode was used the base mode reads as INVALID.
func (s *Stick) resolveMode(stack []gamepad.ButtonID) gamepad.StickMode {
	m, chorded := s.modeFor(stack)
	if chorded {
		s.ignoreMode = true
	}
	return m
}

// modeFor resolves the mode without touching ignoreMode. chorded is set when a
// chord supplied the mode.
func (s *Stick) modeFor(stack []gamepad.ButtonID) (m gamepad.StickMode, chorded bool) {
	m, err := s.mode.ResolveWith(stack, func(chord gamepad.ButtonID, v gamepad.StickMode, ok bool) (gamepad.StickMode, bool) {
		switch {
		case s.flickProgress < 1 && ok && v != gamepad.StickFlick && v != gamepad.StickFlickOnly:
			return gamepad.StickFlickOnly, true
		case s.ignoreMode && chord == gamepad.ButtonNone:
			return gamepad.StickInvalid, true
		}
		if ok && chord != gamepad.ButtonNone {
			chorded = true
		}
		return v, ok
	})
	if err != nil {
		return gamepad.StickInvalid, false
	}
	return m, chorded
}

// deadzones returns the inner radius and the outer edge, both on the 0..1 scale.
func (s *Stick) deadzones(stack []gamepad.ButtonID) (inner, outer float64) {
	inner, outer = s.inner.Resolve(stack), s.outer.Resolve(stack)
	if s.cfg.Degrees {
		inner, outer = inner/180, outer/180
	}
	return inner, 1 - outer
}

// Engaged reports whether the raw position (x, y) counts as deliberate input for
// the stick's mode, for GYRO_ON and GYRO_OFF bound to a stick.
func (s *Stick) Engaged(x, y float64, stack []gamepad.ButtonID) bool {
	inner, outer := s.deadzones(stack)
	length := math.Hypot(x, y)
	mode, _ := s.modeFor(stack)
	switch mode {
	case gamepad.StickAim, gamepad.StickLeftStick, gamepad.StickRightStick:
		return length > inner
	case gamepad.StickFlick:
		return length > outer
	case gamepad.StickNoMouse, gamepad.StickInnerRing, gamepad.StickOuterRing:
		dx, dy, _ := ApplyDeadzones(x, y, inner, outer)
		l, r, u, d := directions(dx, dy)
		return l || r || u || d
	}
	return false
}
