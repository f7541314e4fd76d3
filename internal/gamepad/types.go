package gamepad

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FloatXY is a pair setting such as STICK_SENS or SCREEN_RESOLUTION.
type FloatXY struct {
	X float64
	Y float64
}

func (f FloatXY) String() string {
	return strconv.FormatFloat(f.X, 'g', -1, 64) + " " + strconv.FormatFloat(f.Y, 'g', -1, 64)
}

// ParseFloatXY accepts "x y" or a single value used for both components.
func ParseFloatXY(s string) (FloatXY, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == 'x' })
	switch len(fields) {
	case 1:
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return FloatXY{}, err
		}
		return FloatXY{v, v}, nil
	case 2:
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return FloatXY{}, err
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return FloatXY{}, err
		}
		return FloatXY{x, y}, nil
	}
	return FloatXY{}, fmt.Errorf("expected one or two numbers, got %q", s)
}

// Color is a 0xRRGGBB light bar colour.
type Color uint32

func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

func (c Color) String() string { return fmt.Sprintf("0x%06X", uint32(c)) }

// ParseColor accepts hex (0xRRGGBB, #RRGGBB, xRRGGBB) or "r g b".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if f := strings.Fields(s); len(f) == 3 {
		var rgb [3]uint64
		for i, p := range f {
			v, err := strconv.ParseUint(p, 10, 8)
			if err != nil {
				return 0, err
			}
			rgb[i] = v
		}
		return Color(rgb[0]<<16 | rgb[1]<<8 | rgb[2]), nil
	}
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "#"), "x")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	if v > 0xFFFFFF {
		return 0, fmt.Errorf("colour %q out of range", s)
	}
	return Color(v), nil
}

// AxisSignPair holds the X and Y signs of a stick.
type AxisSignPair struct {
	X AxisMode
	Y AxisMode
}

func (p AxisSignPair) String() string {
	if p.X == p.Y {
		return p.X.String()
	}
	return p.X.String() + " " + p.Y.String()
}

// GyroSettings describes GYRO_ON / GYRO_OFF: which button or stick gates the gyro.
type GyroSettings struct {
	AlwaysOff  bool
	Button     ButtonID
	IgnoreMode GyroIgnoreMode
}

func (g GyroSettings) String() string {
	if g.IgnoreMode != IgnoreButton {
		return g.IgnoreMode.String()
	}
	return g.Button.String()
}

// ParseGyroSettings accepts a button name, NONE, LEFT_STICK or RIGHT_STICK.
func ParseGyroSettings(s string) (GyroSettings, bool) {
	if m := ParseGyroIgnoreMode(s); m == IgnoreLeftStick || m == IgnoreRightStick {
		return GyroSettings{Button: ButtonNone, IgnoreMode: m}, true
	}
	b := ParseButtonID(s)
	if b == ButtonInvalid {
		return GyroSettings{}, false
	}
	return GyroSettings{Button: b, IgnoreMode: IgnoreButton}, true
}

// TriggerEffect is an adaptive trigger descriptor. Start and End are positions on
// the 0-255 trigger travel scale; Force is 0-65535 for RESISTANCE_RAW and SEGMENT.
type TriggerEffect struct {
	Mode  AdaptiveTriggerMode
	Start uint8
	End   uint8
	Force uint16
}

func (e TriggerEffect) String() string {
	return fmt.Sprintf("%s %d %d %d", e.Mode, e.Start, e.End, e.Force)
}

// ClampByte rounds and clamps a trigger travel position.
func ClampByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

// ClampForce rounds and clamps an effect force.
func ClampForce(v float64) uint16 {
	return uint16(math.Max(0, math.Min(65535, math.Round(v))))
}
