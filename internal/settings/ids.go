package settings

import (
	"fmt"
	"strings"
)

// SettingID identifies a registered setting. Its String form is the name used in
// commands and configuration files.
type SettingID int

// ButtonMapping tags the Settings that hold a button's mapping. They live in the
// binding table, not in the Registry.
const ButtonMapping SettingID = -1

const (
	MinGyroSens SettingID = iota
	MaxGyroSens
	MinGyroThreshold
	MaxGyroThreshold
	StickPower
	RealWorldCalibration
	InGameSens
	TriggerThreshold
	LeftStickMode
	RightStickMode
	MotionStickMode
	LeftRingMode
	RightRingMode
	MotionRingMode
	MouseXFromGyroAxis
	MouseYFromGyroAxis
	// GyroOn holds both GYRO_ON and GYRO_OFF assignments; AlwaysOff tells them apart.
	GyroOn
	JoyconGyroMask
	JoyconMotionMask
	ZLMode
	ZRMode
	TriggerSkipDelay
	TurboPeriod
	HoldPressTime
	SimPressWindow
	DblPressWindow
	TickTime
	StickSens
	FlickTime
	FlickTimeExponent
	GyroSmoothTime
	GyroSmoothThreshold
	GyroCutoffSpeed
	GyroCutoffRecovery
	StickAccelerationRate
	StickAccelerationCap
	LeftStickDeadzoneInner
	LeftStickDeadzoneOuter
	RightStickDeadzoneInner
	RightStickDeadzoneOuter
	FlickDeadzoneAngle
	MotionDeadzoneInner
	MotionDeadzoneOuter
	AngleToAxisDeadzoneInner
	AngleToAxisDeadzoneOuter
	LeanThreshold
	ControllerOrientation
	GyroSpace
	TrackballDecay
	ScreenResolution
	MouseRingRadius
	RotateSmoothOverride
	FlickSnapMode
	FlickSnapStrength
	VirtualController
	Rumble
	AdaptiveTrigger
	LeftTriggerEffect
	RightTriggerEffect
	LeftTriggerOffset
	RightTriggerOffset
	LeftTriggerRange
	RightTriggerRange
	TouchpadMode
	TouchStickMode
	TouchRingMode
	TouchDeadzoneInner
	TouchStickRadius
	TouchpadSens
	TouchStickAxis
	GridSize
	TouchpadDualStageMode
	LeftStickAxis
	RightStickAxis
	MotionStickAxis
	GyroAxisX
	GyroAxisY
	AutoCalibrateGyro
	LeftStickUndeadzoneInner
	LeftStickUndeadzoneOuter
	LeftStickUnpower
	RightStickUndeadzoneInner
	RightStickUndeadzoneOuter
	RightStickUnpower
	LeftStickVirtualScale
	RightStickVirtualScale
	WindStickRange
	WindStickPower
	UnwindRate
	GyroOutput
	FlickStickOutput
	MouselikeFactor
	ReturnDeadzoneIsActive
	EdgePushIsActive
	ReturnDeadzoneAngle
	ReturnDeadzoneAngleCutoff
	LightBar
	ScrollSens
	VirtualStickCalibration
	Autoconnect
	JoyconMerge
	// Zero always resolves to 0. It stands in for unused float parameters.
	Zero

	numSettings
)

var settingNames = [numSettings]string{
	"MIN_GYRO_SENS", "MAX_GYRO_SENS", "MIN_GYRO_THRESHOLD", "MAX_GYRO_THRESHOLD",
	"STICK_POWER", "REAL_WORLD_CALIBRATION", "IN_GAME_SENS", "TRIGGER_THRESHOLD",
	"LEFT_STICK_MODE", "RIGHT_STICK_MODE", "MOTION_STICK_MODE",
	"LEFT_RING_MODE", "RIGHT_RING_MODE", "MOTION_RING_MODE",
	"MOUSE_X_FROM_GYRO_AXIS", "MOUSE_Y_FROM_GYRO_AXIS", "GYRO_ON",
	"JOYCON_GYRO_MASK", "JOYCON_MOTION_MASK", "ZL_MODE", "ZR_MODE",
	"TRIGGER_SKIP_DELAY", "TURBO_PERIOD", "HOLD_PRESS_TIME", "SIM_PRESS_WINDOW",
	"DBL_PRESS_WINDOW", "TICK_TIME", "STICK_SENS", "FLICK_TIME", "FLICK_TIME_EXPONENT",
	"GYRO_SMOOTH_TIME", "GYRO_SMOOTH_THRESHOLD", "GYRO_CUTOFF_SPEED", "GYRO_CUTOFF_RECOVERY",
	"STICK_ACCELERATION_RATE", "STICK_ACCELERATION_CAP",
	"LEFT_STICK_DEADZONE_INNER", "LEFT_STICK_DEADZONE_OUTER",
	"RIGHT_STICK_DEADZONE_INNER", "RIGHT_STICK_DEADZONE_OUTER",
	"FLICK_DEADZONE_ANGLE", "MOTION_DEADZONE_INNER", "MOTION_DEADZONE_OUTER",
	"ANGLE_TO_AXIS_DEADZONE_INNER", "ANGLE_TO_AXIS_DEADZONE_OUTER", "LEAN_THRESHOLD",
	"CONTROLLER_ORIENTATION", "GYRO_SPACE", "TRACKBALL_DECAY", "SCREEN_RESOLUTION",
	"MOUSE_RING_RADIUS", "ROTATE_SMOOTH_OVERRIDE", "FLICK_SNAP_MODE", "FLICK_SNAP_STRENGTH",
	"VIRTUAL_CONTROLLER", "RUMBLE", "ADAPTIVE_TRIGGER",
	"LEFT_TRIGGER_EFFECT", "RIGHT_TRIGGER_EFFECT",
	"LEFT_TRIGGER_OFFSET", "RIGHT_TRIGGER_OFFSET", "LEFT_TRIGGER_RANGE", "RIGHT_TRIGGER_RANGE",
	"TOUCHPAD_MODE", "TOUCH_STICK_MODE", "TOUCH_RING_MODE", "TOUCH_DEADZONE_INNER",
	"TOUCH_STICK_RADIUS", "TOUCHPAD_SENS", "TOUCH_STICK_AXIS", "GRID_SIZE",
	"TOUCHPAD_DUAL_STAGE_MODE", "LEFT_STICK_AXIS", "RIGHT_STICK_AXIS", "MOTION_STICK_AXIS",
	"GYRO_AXIS_X", "GYRO_AXIS_Y", "AUTO_CALIBRATE_GYRO",
	"LEFT_STICK_UNDEADZONE_INNER", "LEFT_STICK_UNDEADZONE_OUTER", "LEFT_STICK_UNPOWER",
	"RIGHT_STICK_UNDEADZONE_INNER", "RIGHT_STICK_UNDEADZONE_OUTER", "RIGHT_STICK_UNPOWER",
	"LEFT_STICK_VIRTUAL_SCALE", "RIGHT_STICK_VIRTUAL_SCALE",
	"WIND_STICK_RANGE", "WIND_STICK_POWER", "UNWIND_RATE", "GYRO_OUTPUT", "FLICK_STICK_OUTPUT",
	"MOUSELIKE_FACTOR", "RETURN_DEADZONE_IS_ACTIVE", "EDGE_PUSH_IS_ACTIVE",
	"RETURN_DEADZONE_ANGLE", "RETURN_DEADZONE_ANGLE_CUTOFF", "LIGHT_BAR", "SCROLL_SENS",
	"VIRTUAL_STICK_CALIBRATION", "AUTOCONNECT", "JOYCON_MERGE", "ZERO",
}

func (id SettingID) String() string {
	if id >= 0 && id < numSettings {
		return settingNames[id]
	}
	return fmt.Sprintf("SettingID(%d)", int(id))
}

// ParseSettingID looks a setting up by its command name.
func ParseSettingID(name string) (SettingID, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range settingNames {
		if n == name {
			return SettingID(i), true
		}
	}
	return 0, false
}
