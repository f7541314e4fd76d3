package settings

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/soar/joymapper/internal/gamepad"
)

// Aliases are assignment names that set several settings at once.
var Aliases = map[string][]SettingID{
	"GYRO_SENS":              {MinGyroSens, MaxGyroSens},
	"STICK_DEADZONE_INNER":   {LeftStickDeadzoneInner, RightStickDeadzoneInner},
	"STICK_DEADZONE_OUTER":   {LeftStickDeadzoneOuter, RightStickDeadzoneOuter},
	"STICK_AXIS":             {LeftStickAxis, RightStickAxis},
	"STICK_UNDEADZONE_INNER": {LeftStickUndeadzoneInner, RightStickUndeadzoneInner},
	"STICK_UNDEADZONE_OUTER": {LeftStickUndeadzoneOuter, RightStickUndeadzoneOuter},
	"STICK_UNPOWER":          {LeftStickUnpower, RightStickUnpower},
	"STICK_VIRTUAL_SCALE":    {LeftStickVirtualScale, RightStickVirtualScale},
	"TRIGGER_OFFSET":         {LeftTriggerOffset, RightTriggerOffset},
	"TRIGGER_RANGE":          {LeftTriggerRange, RightTriggerRange},
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

// enumParser turns a Parse function that signals failure with a sentinel into a Parser.
func enumParser[T comparable](parse func(string) T, invalid T) Parser[T] {
	return func(s string) (T, error) {
		v := parse(s)
		if v == invalid {
			return v, fmt.Errorf("invalid value %q", s)
		}
		return v, nil
	}
}

func parseAxisSignPair(s string) (gamepad.AxisSignPair, error) {
	f := strings.Fields(s)
	switch len(f) {
	case 1:
		a := gamepad.ParseAxisMode(f[0])
		if a == gamepad.AxisInvalid {
			break
		}
		return gamepad.AxisSignPair{X: a, Y: a}, nil
	case 2:
		x, y := gamepad.ParseAxisMode(f[0]), gamepad.ParseAxisMode(f[1])
		if x == gamepad.AxisInvalid || y == gamepad.AxisInvalid {
			break
		}
		return gamepad.AxisSignPair{X: x, Y: y}, nil
	}
	return gamepad.AxisSignPair{}, fmt.Errorf("invalid axis pair %q", s)
}

func parseGyroSettings(s string) (gamepad.GyroSettings, error) {
	g, ok := gamepad.ParseGyroSettings(s)
	if !ok {
		return g, fmt.Errorf("invalid gyro button %q", s)
	}
	return g, nil
}

// parseTriggerEffect reads "MODE [start [end [force]]]".
func parseTriggerEffect(s string) (gamepad.TriggerEffect, error) {
	f := strings.Fields(s)
	if len(f) == 0 {
		return gamepad.TriggerEffect{}, fmt.Errorf("empty trigger effect")
	}
	mode, ok := gamepad.ParseAdaptiveTriggerMode(f[0])
	if !ok {
		return gamepad.TriggerEffect{}, fmt.Errorf("invalid trigger effect %q", f[0])
	}
	e := gamepad.TriggerEffect{Mode: mode}
	var nums [3]int
	for i, p := range f[1:] {
		if i >= len(nums) {
			return e, fmt.Errorf("too many trigger effect parameters in %q", s)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return e, err
		}
		nums[i] = n
	}
	e.Start = uint8(max(0, min(255, nums[0])))
	e.End = uint8(max(0, min(255, nums[1])))
	e.Force = uint16(max(0, min(65535, nums[2])))
	return e, nil
}

func parseGyroAxisMask(s string) (gamepad.GyroAxisMask, error) {
	m := gamepad.ParseGyroAxisMask(s)
	if m == gamepad.GyroAxisInvalid {
		return m, fmt.Errorf("invalid gyro axis %q", s)
	}
	return m, nil
}

func floatSetting(id SettingID, def float64, filter Filter[float64]) *Setting[float64] {
	s := NewSetting(id, def, parseFloat).SetFormat(func(v float64) string {
		return strconv.FormatFloat(v, 'g', -1, 64)
	})
	return s.WithFilter(filter)
}

func pairSetting(id SettingID, x, y float64) *Setting[gamepad.FloatXY] {
	return NewSetting(id, gamepad.FloatXY{X: x, Y: y}, gamepad.ParseFloatXY).WithFilter(filterFloatPair)
}

func intSetting(id SettingID, def int) *Setting[int] {
	return NewSetting(id, def, parseInt).WithFilter(filterClampByte)
}

func stickModeSetting(id SettingID, f Filter[gamepad.StickMode]) *Setting[gamepad.StickMode] {
	return NewSetting(id, gamepad.StickNoMouse,
		enumParser(gamepad.ParseStickMode, gamepad.StickInvalid)).WithFilter(f)
}

func ringModeSetting(id SettingID) *Setting[gamepad.RingMode] {
	return NewSetting(id, gamepad.RingOuter,
		enumParser(gamepad.ParseRingMode, gamepad.RingInvalid)).WithFilter(rejectValue(gamepad.RingInvalid))
}

func switchSetting(id SettingID, def gamepad.Switch) *Setting[gamepad.Switch] {
	return NewSetting(id, def,
		enumParser(gamepad.ParseSwitch, gamepad.SwitchInvalid)).WithFilter(rejectValue(gamepad.SwitchInvalid))
}

func axisPairSetting(id SettingID) *Setting[gamepad.AxisSignPair] {
	def := gamepad.AxisSignPair{X: gamepad.AxisStandard, Y: gamepad.AxisStandard}
	return NewSetting(id, def, parseAxisSignPair).WithFilter(filterSignPair)
}

func axisModeSetting(id SettingID) *Setting[gamepad.AxisMode] {
	return NewSetting(id, gamepad.AxisStandard,
		enumParser(gamepad.ParseAxisMode, gamepad.AxisInvalid)).WithFilter(filterAxisMode)
}

func triggerModeSetting(id SettingID, def gamepad.TriggerMode, f Filter[gamepad.TriggerMode]) *Setting[gamepad.TriggerMode] {
	return NewSetting(id, def, enumParser(gamepad.ParseTriggerMode, gamepad.TriggerInvalid)).WithFilter(f)
}

func orientationSetting() *Setting[gamepad.ControllerOrientation] {
	return NewSetting(ControllerOrientation, gamepad.OrientForward,
		enumParser(gamepad.ParseControllerOrientation, gamepad.OrientInvalid)).
		WithFilter(rejectValue(gamepad.OrientInvalid))
}

func atLeast(lo float64) Filter[float64] {
	return func(current, next float64) float64 {
		return math.Max(lo, filterFloat(current, next))
	}
}

func filterGridSize(current, next gamepad.FloatXY) gamepad.FloatXY {
	x, y := math.Floor(next.X), math.Floor(next.Y)
	if x < 1 || y < 1 || x*y > gamepad.MaxGridCells || x != next.X || y != next.Y {
		return current
	}
	return next
}

func filterPositivePair(current, next gamepad.FloatXY) gamepad.FloatXY {
	next = filterFloatPair(current, next)
	return gamepad.FloatXY{X: math.Max(0, next.X), Y: math.Max(0, next.Y)}
}

// ringFollower keeps a ring mode in step with INNER_RING/OUTER_RING stick modes.
type ringFollower struct {
	ring *Setting[gamepad.RingMode]
}

func (f ringFollower) OnChange(m gamepad.StickMode) {
	switch m {
	case gamepad.StickInnerRing:
		f.ring.Set(gamepad.RingInner)
	case gamepad.StickOuterRing:
		f.ring.Set(gamepad.RingOuter)
	}
}

// RegisterDefaults registers every setting with its default value and filter.
// env gates the modes that need a virtual controller; nil allows them.
func RegisterDefaults(r *Registry, env VirtualOutput) {
	Add(r, pairSetting(MinGyroSens, 0, 0))
	Add(r, pairSetting(MaxGyroSens, 0, 0))
	Add(r, floatSetting(MinGyroThreshold, 0, filterFloat))
	Add(r, floatSetting(MaxGyroThreshold, 0, filterFloat))
	Add(r, floatSetting(StickPower, 1, filterPositive))
	Add(r, floatSetting(RealWorldCalibration, 40, filterFloat))
	Add(r, floatSetting(InGameSens, 1, atLeast(0.0001)))
	Add(r, floatSetting(TriggerThreshold, 0, filterFloat))

	left := Add(r, stickModeSetting(LeftStickMode, stickModeFilter(env)))
	right := Add(r, stickModeSetting(RightStickMode, stickModeFilter(env)))
	motion := Add(r, stickModeSetting(MotionStickMode, motionStickModeFilter(env)))
	touch := Add(r, stickModeSetting(TouchStickMode, stickModeFilter(env)))
	left.Subscribe(ringFollower{Add(r, ringModeSetting(LeftRingMode))})
	right.Subscribe(ringFollower{Add(r, ringModeSetting(RightRingMode))})
	motion.Subscribe(ringFollower{Add(r, ringModeSetting(MotionRingMode))})
	touch.Subscribe(ringFollower{Add(r, ringModeSetting(TouchRingMode))})

	Add(r, NewSetting(MouseXFromGyroAxis, gamepad.GyroAxisY, parseGyroAxisMask).WithFilter(filterGyroAxisMask))
	Add(r, NewSetting(MouseYFromGyroAxis, gamepad.GyroAxisX, parseGyroAxisMask).WithFilter(filterGyroAxisMask))

	noGyroButton := gamepad.GyroSettings{Button: gamepad.ButtonNone, IgnoreMode: gamepad.IgnoreButton}
	Add(r, NewSetting(GyroOn, noGyroButton, parseGyroSettings).WithFilter(filterGyroSettings))

	joyconMask := enumParser(gamepad.ParseJoyconMask, gamepad.MaskInvalid)
	Add(r, NewSetting(JoyconGyroMask, gamepad.IgnoreLeft, joyconMask).WithFilter(rejectValue(gamepad.MaskInvalid)))
	Add(r, NewSetting(JoyconMotionMask, gamepad.IgnoreRight, joyconMask).WithFilter(rejectValue(gamepad.MaskInvalid)))

	Add(r, triggerModeSetting(ZLMode, gamepad.TriggerNoFull, triggerModeFilter(env)))
	Add(r, triggerModeSetting(ZRMode, gamepad.TriggerNoFull, triggerModeFilter(env)))
	Add(r, triggerModeSetting(TouchpadDualStageMode, gamepad.TriggerNoSkip, filterTouchpadDualStageMode))

	Add(r, floatSetting(TriggerSkipDelay, 150, filterPositive))
	Add(r, floatSetting(TurboPeriod, 80, filterPositive))
	sim := Add(r, floatSetting(SimPressWindow, 50, filterPositive))
	Add(r, floatSetting(HoldPressTime, 150, holdPressFilter(sim)))
	Add(r, floatSetting(DblPressWindow, 150, filterPositive))
	Add(r, floatSetting(TickTime, 3, filterTickTime))

	Add(r, pairSetting(StickSens, 360, 360))
	Add(r, floatSetting(FlickTime, 0.1, atLeast(0.0001)))
	Add(r, floatSetting(FlickTimeExponent, 0, filterFloat))
	Add(r, floatSetting(GyroSmoothTime, 0.125, filterPositive))
	Add(r, floatSetting(GyroSmoothThreshold, 0, filterPositive))
	Add(r, floatSetting(GyroCutoffSpeed, 0, filterPositive))
	Add(r, floatSetting(GyroCutoffRecovery, 0, filterPositive))
	Add(r, floatSetting(StickAccelerationRate, 0, filterPositive))
	Add(r, floatSetting(StickAccelerationCap, 1000000, atLeast(1)))

	Add(r, floatSetting(LeftStickDeadzoneInner, 0.15, filterClamp01))
	Add(r, floatSetting(LeftStickDeadzoneOuter, 0.1, filterClamp01))
	Add(r, floatSetting(RightStickDeadzoneInner, 0.15, filterClamp01))
	Add(r, floatSetting(RightStickDeadzoneOuter, 0.1, filterClamp01))
	Add(r, floatSetting(FlickDeadzoneAngle, 0, filterPositive))
	Add(r, floatSetting(MotionDeadzoneInner, 15, filterPositive))
	Add(r, floatSetting(MotionDeadzoneOuter, 135, filterPositive))
	Add(r, floatSetting(AngleToAxisDeadzoneInner, 0, filterPositive))
	Add(r, floatSetting(AngleToAxisDeadzoneOuter, 10, filterPositive))
	Add(r, floatSetting(LeanThreshold, 15, filterPositive))

	Add(r, orientationSetting())
	Add(r, NewSetting(GyroSpace, gamepad.SpaceLocal,
		enumParser(gamepad.ParseGyroSpace, gamepad.SpaceInvalid)).WithFilter(rejectValue(gamepad.SpaceInvalid)))
	Add(r, floatSetting(TrackballDecay, 1, filterPositive))
	Add(r, pairSetting(ScreenResolution, 1920, 1080).WithFilter(filterPositivePair))
	Add(r, floatSetting(MouseRingRadius, 128, filterPositive))
	Add(r, floatSetting(RotateSmoothOverride, -1, filterFloat))
	Add(r, NewSetting(FlickSnapMode, gamepad.SnapNone,
		enumParser(gamepad.ParseFlickSnapMode, gamepad.SnapInvalid)).WithFilter(rejectValue(gamepad.SnapInvalid)))
	Add(r, floatSetting(FlickSnapStrength, 1, filterClamp01))

	Add(r, NewSetting(VirtualController, gamepad.SchemeNone,
		enumParser(gamepad.ParseControllerScheme, gamepad.SchemeInvalid)).WithFilter(rejectValue(gamepad.SchemeInvalid)))
	Add(r, switchSetting(Rumble, gamepad.On))
	Add(r, switchSetting(AdaptiveTrigger, gamepad.On))
	onEffect := gamepad.TriggerEffect{Mode: gamepad.EffectOn}
	Add(r, NewSetting(LeftTriggerEffect, onEffect, parseTriggerEffect).WithFilter(filterTriggerEffect))
	Add(r, NewSetting(RightTriggerEffect, onEffect, parseTriggerEffect).WithFilter(filterTriggerEffect))
	Add(r, intSetting(LeftTriggerOffset, 25))
	Add(r, intSetting(RightTriggerOffset, 25))
	Add(r, intSetting(LeftTriggerRange, 150))
	Add(r, intSetting(RightTriggerRange, 150))

	Add(r, NewSetting(TouchpadMode, gamepad.TouchGridAndStick,
		enumParser(gamepad.ParseTouchpadMode, gamepad.TouchInvalid)).WithFilter(rejectValue(gamepad.TouchInvalid)))
	Add(r, floatSetting(TouchDeadzoneInner, 0.3, filterClamp01))
	Add(r, floatSetting(TouchStickRadius, 300, atLeast(1)))
	Add(r, pairSetting(TouchpadSens, 1, 1))
	Add(r, axisPairSetting(TouchStickAxis))
	Add(r, pairSetting(GridSize, 2, 1).WithFilter(filterGridSize))

	Add(r, axisPairSetting(LeftStickAxis))
	Add(r, axisPairSetting(RightStickAxis))
	Add(r, axisPairSetting(MotionStickAxis))
	Add(r, axisModeSetting(GyroAxisX))
	Add(r, axisModeSetting(GyroAxisY))
	Add(r, switchSetting(AutoCalibrateGyro, gamepad.Off))

	Add(r, floatSetting(LeftStickUndeadzoneInner, 0, filterClamp01))
	Add(r, floatSetting(LeftStickUndeadzoneOuter, 0, filterClamp01))
	Add(r, floatSetting(LeftStickUnpower, 0, filterFloat))
	Add(r, floatSetting(RightStickUndeadzoneInner, 0, filterClamp01))
	Add(r, floatSetting(RightStickUndeadzoneOuter, 0, filterClamp01))
	Add(r, floatSetting(RightStickUnpower, 0, filterFloat))
	Add(r, floatSetting(LeftStickVirtualScale, 1, filterFloat))
	Add(r, floatSetting(RightStickVirtualScale, 1, filterFloat))
	Add(r, floatSetting(WindStickRange, 900, filterPositive))
	Add(r, floatSetting(WindStickPower, 1, filterPositive))
	Add(r, floatSetting(UnwindRate, 1800, filterPositive))

	gyroOutput := enumParser(gamepad.ParseGyroOutput, gamepad.OutputInvalid)
	Add(r, NewSetting(GyroOutput, gamepad.OutputMouse, gyroOutput).WithFilter(gyroOutputFilter(env)))
	Add(r, NewSetting(FlickStickOutput, gamepad.OutputMouse, gyroOutput).WithFilter(rejectValue(gamepad.OutputInvalid)))

	Add(r, pairSetting(MouselikeFactor, 90, 90))
	Add(r, switchSetting(ReturnDeadzoneIsActive, gamepad.On))
	Add(r, switchSetting(EdgePushIsActive, gamepad.On))
	Add(r, floatSetting(ReturnDeadzoneAngle, 45, func(_, next float64) float64 { return max(0, min(90, next)) }))
	Add(r, floatSetting(ReturnDeadzoneAngleCutoff, 90, filterFloat))

	Add(r, NewSetting(LightBar, gamepad.Color(0xFFFFFF), gamepad.ParseColor))
	Add(r, pairSetting(ScrollSens, 30, 30))
	Add(r, floatSetting(VirtualStickCalibration, 360, filterFloat))
	Add(r, switchSetting(Autoconnect, gamepad.On))
	Add(r, switchSetting(JoyconMerge, gamepad.Off))
	Add(r, floatSetting(Zero, 0, func(_, _ float64) float64 { return 0 }))
}
