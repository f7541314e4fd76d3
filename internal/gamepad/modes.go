package gamepad

import (
	"fmt"
	"strings"
)

// StickMode selects how a stick's position is turned into output.
type StickMode int

const (
	StickNoMouse StickMode = iota
	StickAim
	StickFlick
	StickFlickOnly
	StickRotateOnly
	StickMouseRing
	StickMouseArea
	StickOuterRing
	StickInnerRing
	StickScrollWheel
	StickLeftStick
	StickRightStick
	StickLeftAngleToX
	StickLeftAngleToY
	StickRightAngleToX
	StickRightAngleToY
	StickLeftWindX
	StickRightWindX
	StickHybridAim
	StickLeftSteerX
	StickRightSteerX
	StickInvalid
)

var stickModeNames = []string{
	"NO_MOUSE", "AIM", "FLICK", "FLICK_ONLY", "ROTATE_ONLY", "MOUSE_RING", "MOUSE_AREA",
	"OUTER_RING", "INNER_RING", "SCROLL_WHEEL", "LEFT_STICK", "RIGHT_STICK",
	"LEFT_ANGLE_TO_X", "LEFT_ANGLE_TO_Y", "RIGHT_ANGLE_TO_X", "RIGHT_ANGLE_TO_Y",
	"LEFT_WIND_X", "RIGHT_WIND_X", "HYBRID_AIM", "LEFT_STEER_X", "RIGHT_STEER_X", "INVALID",
}

func (m StickMode) String() string { return enumString(stickModeNames, int(m), "StickMode") }

// IsVirtual reports whether the mode writes to a virtual controller stick.
func (m StickMode) IsVirtual() bool {
	return m >= StickLeftStick && m <= StickRightWindX || m == StickLeftSteerX || m == StickRightSteerX
}

// TriggerMode is the dual stage policy of an analog trigger.
type TriggerMode int

const (
	TriggerNoFull TriggerMode = iota
	TriggerNoSkip
	TriggerMaySkip
	TriggerMustSkip
	TriggerMaySkipR
	TriggerMustSkipR
	TriggerNoSkipExclusive
	TriggerXLT
	TriggerXRT
	TriggerInvalid
)

var triggerModeNames = []string{
	"NO_FULL", "NO_SKIP", "MAY_SKIP", "MUST_SKIP", "MAY_SKIP_R", "MUST_SKIP_R",
	"NO_SKIP_EXCLUSIVE", "X_LT", "X_RT", "INVALID",
}

func (m TriggerMode) String() string { return enumString(triggerModeNames, int(m), "TriggerMode") }

// IsNative reports whether the trigger bypasses the dual stage machine.
func (m TriggerMode) IsNative() bool { return m == TriggerXLT || m == TriggerXRT }

type RingMode int

const (
	RingOuter RingMode = iota
	RingInner
	RingInvalid
)

var ringModeNames = []string{"OUTER", "INNER", "INVALID"}

func (m RingMode) String() string { return enumString(ringModeNames, int(m), "RingMode") }

type FlickSnapMode int

const (
	SnapNone FlickSnapMode = iota
	SnapFour
	SnapEight
	SnapInvalid
)

var flickSnapNames = []string{"NONE", "FOUR", "EIGHT", "INVALID"}

func (m FlickSnapMode) String() string { return enumString(flickSnapNames, int(m), "FlickSnapMode") }

type GyroSpace int

const (
	SpaceLocal GyroSpace = iota
	SpacePlayerTurn
	SpacePlayerLean
	SpaceWorldTurn
	SpaceWorldLean
	SpaceInvalid
)

var gyroSpaceNames = []string{"LOCAL", "PLAYER_TURN", "PLAYER_LEAN", "WORLD_TURN", "WORLD_LEAN", "INVALID"}

func (s GyroSpace) String() string { return enumString(gyroSpaceNames, int(s), "GyroSpace") }

// GyroOutput says where gyro (or flick stick) motion goes.
type GyroOutput int

const (
	OutputMouse GyroOutput = iota
	OutputLeftStick
	OutputRightStick
	OutputPSMotion
	OutputInvalid
)

var gyroOutputNames = []string{"MOUSE", "LEFT_STICK", "RIGHT_STICK", "PS_MOTION", "INVALID"}

func (o GyroOutput) String() string { return enumString(gyroOutputNames, int(o), "GyroOutput") }

type GyroIgnoreMode int

const (
	IgnoreButton GyroIgnoreMode = iota
	IgnoreLeftStick
	IgnoreRightStick
	IgnoreInvalid
)

var gyroIgnoreNames = []string{"BUTTON", "LEFT_STICK", "RIGHT_STICK", "INVALID"}

func (m GyroIgnoreMode) String() string { return enumString(gyroIgnoreNames, int(m), "GyroIgnoreMode") }

// JoyconMask selects which halves of a joycon pair contribute.
type JoyconMask int

const (
	UseBoth JoyconMask = iota
	IgnoreLeft
	IgnoreRight
	IgnoreBoth
	MaskInvalid
)

var joyconMaskNames = []string{"USE_BOTH", "IGNORE_LEFT", "IGNORE_RIGHT", "IGNORE_BOTH", "INVALID"}

func (m JoyconMask) String() string { return enumString(joyconMaskNames, int(m), "JoyconMask") }

// Ignores reports whether the mask drops the half s. A full controller is never ignored.
func (m JoyconMask) Ignores(s SplitType) bool {
	return s != SplitFull && int(m)&int(s) != 0
}

type ControllerOrientation int

const (
	OrientForward ControllerOrientation = iota
	OrientLeft
	OrientRight
	OrientBackward
	OrientJoyconSideways
	OrientInvalid
)

var orientationNames = []string{"FORWARD", "LEFT", "RIGHT", "BACKWARD", "JOYCON_SIDEWAYS", "INVALID"}

func (o ControllerOrientation) String() string {
	return enumString(orientationNames, int(o), "ControllerOrientation")
}

// ForSplit resolves JOYCON_SIDEWAYS: a lone left joycon is held turned left, a lone
// right joycon turned right, anything else forward.
func (o ControllerOrientation) ForSplit(s SplitType) ControllerOrientation {
	if o != OrientJoyconSideways {
		return o
	}
	switch s {
	case SplitLeft:
		return OrientLeft
	case SplitRight:
		return OrientRight
	}
	return OrientForward
}

// Rotate turns a stick position from the controller's frame into the player's.
func (o ControllerOrientation) Rotate(x, y float64) (float64, float64) {
	switch o {
	case OrientLeft:
		return -y, x
	case OrientRight:
		return y, -x
	case OrientBackward:
		return -x, -y
	}
	return x, y
}

// AxisMode is the sign applied to an axis.
type AxisMode int

const (
	AxisStandard AxisMode = 1
	AxisInverted AxisMode = -1
	AxisInvalid  AxisMode = 0
)

func (a AxisMode) String() string {
	switch a {
	case AxisStandard:
		return "STANDARD"
	case AxisInverted:
		return "INVERTED"
	}
	return "INVALID"
}

// GyroAxisMask picks which gyro axes feed a mouse axis.
type GyroAxisMask int

const (
	GyroAxisNone    GyroAxisMask = 0
	GyroAxisX       GyroAxisMask = 1
	GyroAxisY       GyroAxisMask = 2
	GyroAxisZ       GyroAxisMask = 4
	GyroAxisInvalid GyroAxisMask = 8
)

var gyroAxisMaskNames = map[string]GyroAxisMask{
	"NONE": GyroAxisNone, "X": GyroAxisX, "Y": GyroAxisY, "Z": GyroAxisZ,
}

func (m GyroAxisMask) String() string {
	if m == GyroAxisInvalid {
		return "INVALID"
	}
	if m == GyroAxisNone {
		return "NONE"
	}
	var parts []string
	for _, a := range []struct {
		m GyroAxisMask
		n string
	}{{GyroAxisX, "X"}, {GyroAxisY, "Y"}, {GyroAxisZ, "Z"}} {
		if m&a.m != 0 {
			parts = append(parts, a.n)
		}
	}
	return strings.Join(parts, "")
}

type TouchpadMode int

const (
	TouchGridAndStick TouchpadMode = iota
	TouchMouse
	TouchInvalid
)

var touchpadModeNames = []string{"GRID_AND_STICK", "MOUSE", "INVALID"}

func (m TouchpadMode) String() string { return enumString(touchpadModeNames, int(m), "TouchpadMode") }

type Switch int

const (
	Off Switch = iota
	On
	SwitchInvalid
)

var switchNames = []string{"OFF", "ON", "INVALID"}

func (s Switch) String() string { return enumString(switchNames, int(s), "Switch") }

// ControllerScheme is the kind of virtual controller to emulate.
type ControllerScheme int

const (
	SchemeNone ControllerScheme = iota
	SchemeXbox
	SchemeDS4
	SchemeInvalid
)

var schemeNames = []string{"NONE", "XBOX", "DS4", "INVALID"}

func (s ControllerScheme) String() string { return enumString(schemeNames, int(s), "ControllerScheme") }

// AdaptiveTriggerMode is the effect family sent to a DualSense trigger.
type AdaptiveTriggerMode int

const (
	EffectOff AdaptiveTriggerMode = iota
	EffectResistanceRaw
	EffectSegment
	EffectResistance
	EffectBow
	EffectGalloping
	EffectSemiAutomatic
	EffectAutomatic
	EffectMachine
	// EffectOn uses the effect computed from the trigger state machine.
	EffectOn
)

var effectNames = []string{
	"OFF", "RESISTANCE_RAW", "SEGMENT", "RESISTANCE", "BOW", "GALLOPING",
	"SEMI_AUTOMATIC", "AUTOMATIC", "MACHINE", "ON",
}

func (m AdaptiveTriggerMode) String() string { return enumString(effectNames, int(m), "AdaptiveTriggerMode") }

// Parse functions return the type's INVALID value (or false) for unknown names.

func ParseStickMode(s string) StickMode {
	return StickMode(parseEnum(stickModeNames, s, int(StickInvalid)))
}

func ParseTriggerMode(s string) TriggerMode {
	return TriggerMode(parseEnum(triggerModeNames, s, int(TriggerInvalid)))
}

func ParseRingMode(s string) RingMode {
	return RingMode(parseEnum(ringModeNames, s, int(RingInvalid)))
}

func ParseFlickSnapMode(s string) FlickSnapMode {
	return FlickSnapMode(parseEnum(flickSnapNames, s, int(SnapInvalid)))
}

func ParseGyroSpace(s string) GyroSpace {
	return GyroSpace(parseEnum(gyroSpaceNames, s, int(SpaceInvalid)))
}

func ParseGyroOutput(s string) GyroOutput {
	return GyroOutput(parseEnum(gyroOutputNames, s, int(OutputInvalid)))
}

func ParseGyroIgnoreMode(s string) GyroIgnoreMode {
	return GyroIgnoreMode(parseEnum(gyroIgnoreNames, s, int(IgnoreInvalid)))
}

func ParseJoyconMask(s string) JoyconMask {
	return JoyconMask(parseEnum(joyconMaskNames, s, int(MaskInvalid)))
}

func ParseControllerOrientation(s string) ControllerOrientation {
	return ControllerOrientation(parseEnum(orientationNames, s, int(OrientInvalid)))
}

func ParseTouchpadMode(s string) TouchpadMode {
	return TouchpadMode(parseEnum(touchpadModeNames, s, int(TouchInvalid)))
}

func ParseSwitch(s string) Switch {
	return Switch(parseEnum(switchNames, s, int(SwitchInvalid)))
}

// ParseAdaptiveTriggerMode returns false for unknown names.
func ParseAdaptiveTriggerMode(s string) (AdaptiveTriggerMode, bool) {
	v := parseEnum(effectNames, s, -1)
	return AdaptiveTriggerMode(v), v >= 0
}

func ParseControllerScheme(s string) ControllerScheme {
	return ControllerScheme(parseEnum(schemeNames, s, int(SchemeInvalid)))
}

func ParseAxisMode(s string) AxisMode {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STANDARD":
		return AxisStandard
	case "INVERTED":
		return AxisInverted
	}
	return AxisInvalid
}

// ParseGyroAxisMask accepts combinations like "X", "YZ" or "NONE".
func ParseGyroAxisMask(s string) GyroAxisMask {
	s = strings.ToUpper(strings.TrimSpace(s))
	if m, ok := gyroAxisMaskNames[s]; ok {
		return m
	}
	var m GyroAxisMask
	for _, r := range s {
		a, ok := gyroAxisMaskNames[string(r)]
		if !ok || a == GyroAxisNone {
			return GyroAxisInvalid
		}
		m |= a
	}
	if s == "" {
		return GyroAxisInvalid
	}
	return m
}

func enumString(names []string, v int, typ string) string {
	if v >= 0 && v < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%s(%d)", typ, v)
}

func parseEnum(names []string, s string, invalid int) int {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return i
		}
	}
	return invalid
}
