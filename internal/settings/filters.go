package settings

import (
	"log"
	"math"

	"github.com/soar/joymapper/internal/gamepad"
)

func filterClampByte(_, next int) int {
	return max(0, min(0xff, next))
}

func filterClamp01(_, next float64) float64 {
	return max(0, min(1, next))
}

func filterPositive(_, next float64) float64 {
	return max(0, next)
}

func isNormalOrZero(f float64) bool {
	if f == 0 {
		return true
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return math.Abs(f) >= 0x1p-1022
}

func filterFloat(current, next float64) float64 {
	if isNormalOrZero(next) {
		return next
	}
	return current
}

func filterFloatPair(current, next gamepad.FloatXY) gamepad.FloatXY {
	if isNormalOrZero(next.X) && isNormalOrZero(next.Y) {
		return next
	}
	return current
}

func filterSignPair(current, next gamepad.AxisSignPair) gamepad.AxisSignPair {
	if next.X != gamepad.AxisInvalid && next.Y != gamepad.AxisInvalid {
		return next
	}
	return current
}

func filterAxisMode(current, next gamepad.AxisMode) gamepad.AxisMode {
	if next == gamepad.AxisInvalid {
		return current
	}
	return next
}

// rejectValue returns a filter that refuses one sentinel value.
func rejectValue[T comparable](invalid T) Filter[T] {
	return func(current, next T) T {
		if next == invalid {
			return current
		}
		return next
	}
}

func filterTickTime(_, next float64) float64 {
	return max(1, min(100, math.Round(next)))
}

func filterTriggerEffect(current, next gamepad.TriggerEffect) gamepad.TriggerEffect {
	if next.Mode < gamepad.EffectOff || next.Mode > gamepad.EffectOn {
		return current
	}
	return next
}

func filterGyroAxisMask(current, next gamepad.GyroAxisMask) gamepad.GyroAxisMask {
	if next < 0 || next >= gamepad.GyroAxisInvalid {
		return current
	}
	return next
}

func filterGyroSettings(current, next gamepad.GyroSettings) gamepad.GyroSettings {
	if next.IgnoreMode == gamepad.IgnoreInvalid || next.Button == gamepad.ButtonInvalid {
		return current
	}
	return next
}

func filterTouchpadDualStageMode(current, next gamepad.TriggerMode) gamepad.TriggerMode {
	if next.IsNative() || next == gamepad.TriggerInvalid {
		log.Printf("%s doesn't support virtual analog modes", TouchpadDualStageMode)
		return current
	}
	return next
}

// VirtualOutput reports whether virtual controller output is usable. Filters for
// modes that need a virtual controller consult it.
type VirtualOutput interface {
	// Scheme is the configured VIRTUAL_CONTROLLER.
	Scheme() gamepad.ControllerScheme
	// Ready reports whether every connected controller has a working virtual controller.
	Ready() bool
}

func needsVirtual(env VirtualOutput, name string) bool {
	if env == nil {
		return true
	}
	if env.Scheme() == gamepad.SchemeNone {
		log.Printf("Before using %s, you need to set %s", name, VirtualController)
		return false
	}
	return env.Ready()
}

func triggerModeFilter(env VirtualOutput) Filter[gamepad.TriggerMode] {
	return func(current, next gamepad.TriggerMode) gamepad.TriggerMode {
		if next.IsNative() && !needsVirtual(env, "trigger mode "+next.String()) {
			return current
		}
		if next == gamepad.TriggerInvalid {
			return current
		}
		return next
	}
}

func motionStickModeFilter(env VirtualOutput) Filter[gamepad.StickMode] {
	return func(current, next gamepad.StickMode) gamepad.StickMode {
		if next >= gamepad.StickLeftStick && next <= gamepad.StickRightWindX &&
			!needsVirtual(env, "stick mode "+next.String()) {
			return current
		}
		if next == gamepad.StickInvalid {
			return current
		}
		return next
	}
}

func stickModeFilter(env VirtualOutput) Filter[gamepad.StickMode] {
	motion := motionStickModeFilter(env)
	return func(current, next gamepad.StickMode) gamepad.StickMode {
		if next == gamepad.StickLeftSteerX || next == gamepad.StickRightSteerX {
			log.Printf("%s is only available for %s", next, MotionStickMode)
			return current
		}
		return motion(current, next)
	}
}

func gyroOutputFilter(env VirtualOutput) Filter[gamepad.GyroOutput] {
	return func(current, next gamepad.GyroOutput) gamepad.GyroOutput {
		if next == gamepad.OutputPSMotion && env != nil && env.Scheme() != gamepad.SchemeDS4 {
			log.Printf("Before using gyro output PS_MOTION, you need to set %s = DS4", VirtualController)
			return current
		}
		if (next == gamepad.OutputLeftStick || next == gamepad.OutputRightStick) &&
			!needsVirtual(env, "gyro output "+next.String()) {
			return current
		}
		if next == gamepad.OutputInvalid {
			return current
		}
		return next
	}
}

func holdPressFilter(simWindow *Setting[float64]) Filter[float64] {
	return func(current, next float64) float64 {
		if w := simWindow.Value(); next <= w {
			log.Printf("%s can only be set to a value higher than %s which is %gms", HoldPressTime, SimPressWindow, w)
			return current
		}
		return next
	}
}
