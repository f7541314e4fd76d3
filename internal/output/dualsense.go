package output

import (
	"encoding/binary"

	"github.com/soar/joymapper/internal/gamepad"
)

// DualSense effect report layout, as accepted by SDL's gamepad effect call.
const (
	dsReportSize   = 47
	dsEnableRight  = 0x04
	dsEnableLeft   = 0x08
	dsRightTrigger = 10
	dsLeftTrigger  = 21
	dsEffectSize   = 11
)

// Effect opcodes on the trigger motor.
const (
	dsOff        = 0x05
	dsContinuous = 0x01
	dsSection    = 0x02
	dsFeedback   = 0x21
	dsBow        = 0x22
	dsGalloping  = 0x23
	dsWeapon     = 0x25
	dsVibration  = 0x26
	dsMachine    = 0x27
)

// DualSenseTriggerReport builds the effect report that sets both adaptive triggers.
func DualSenseTriggerReport(left, right gamepad.TriggerEffect) []byte {
	buf := make([]byte, dsReportSize)
	buf[0] = dsEnableRight | dsEnableLeft
	r, l := encodeTrigger(right), encodeTrigger(left)
	copy(buf[dsRightTrigger:], r[:])
	copy(buf[dsLeftTrigger:], l[:])
	return buf
}

// zone maps a 0-255 travel position onto the ten trigger zones.
func zone(pos uint8) int {
	return int(pos) * 10 / 256
}

// level maps a 0-65535 force onto the motor's 1-8 strengths.
func level(force uint16) uint32 {
	return 1 + uint32(force)*7/0xFFFF
}

func encodeTrigger(e gamepad.TriggerEffect) [dsEffectSize]byte {
	var b [dsEffectSize]byte
	start, end := zone(e.Start), zone(e.End)
	end = max(end, start+1)
	force := level(e.Force)

	switch e.Mode {
	case gamepad.EffectResistanceRaw:
		b[0], b[1], b[2] = dsContinuous, e.Start, uint8(e.Force>>8)
	case gamepad.EffectSegment:
		b[0], b[1], b[2], b[3] = dsSection, e.Start, e.End, uint8(e.Force>>8)
	case gamepad.EffectResistance:
		var active uint16
		var forces uint32
		for i := start; i < 10; i++ {
			active |= 1 << i
			forces |= (force - 1) << (3 * i)
		}
		b[0] = dsFeedback
		binary.LittleEndian.PutUint16(b[1:], active)
		binary.LittleEndian.PutUint32(b[3:], forces)
	case gamepad.EffectBow:
		end = min(end, 8)
		b[0] = dsBow
		binary.LittleEndian.PutUint16(b[1:], 1<<start|1<<end)
		binary.LittleEndian.PutUint32(b[3:], (force-1)|(force-1)<<3)
	case gamepad.EffectGalloping:
		b[0] = dsGalloping
		binary.LittleEndian.PutUint16(b[1:], 1<<start|1<<min(end, 9))
		b[3] = uint8((force-1)&7 | ((force-1)&7)<<3)
		b[4] = 10
	case gamepad.EffectSemiAutomatic:
		start = max(2, min(start, 7))
		end = max(start+1, min(end, 8))
		b[0] = dsWeapon
		binary.LittleEndian.PutUint16(b[1:], 1<<start|1<<end)
		b[3] = uint8(force - 1)
	case gamepad.EffectAutomatic:
		var active uint16
		var amps uint32
		for i := start; i < 10; i++ {
			active |= 1 << i
			amps |= (force - 1) << (3 * i)
		}
		b[0] = dsVibration
		binary.LittleEndian.PutUint16(b[1:], active)
		binary.LittleEndian.PutUint32(b[3:], amps)
		b[9] = 20
	case gamepad.EffectMachine:
		b[0] = dsMachine
		binary.LittleEndian.PutUint16(b[1:], 1<<start|1<<min(end, 9))
		b[3] = uint8((force-1)&7 | ((force-1)&7)<<3)
		b[4], b[5] = 20, 5
	default:
		b[0] = dsOff
	}
	return b
}
