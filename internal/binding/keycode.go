package binding

import (
	"fmt"
	"strconv"
	"strings"
)

// KeyCode is an output key. Code uses Windows virtual-key numbering; the mouse,
// gyro, rumble and virtual controller codes live in unassigned VK ranges.
type KeyCode struct {
	Code uint16
	Name string
}

// Special codes.
const (
	CodeNone        uint16 = 0x00
	CodeLeftMouse   uint16 = 0x01
	CodeRightMouse  uint16 = 0x02
	CodeScrollUp    uint16 = 0x03
	CodeMiddleMouse uint16 = 0x04
	CodeBackMouse   uint16 = 0x05
	CodeFwdMouse    uint16 = 0x06
	CodeScrollDown  uint16 = 0x07
	CodeNoHold      uint16 = 0x0A
	CodeCalibrate   uint16 = 0x0B

	CodeGyroInvX      uint16 = 0x88
	CodeGyroInvY      uint16 = 0x89
	CodeGyroInvert    uint16 = 0x8A
	CodeGyroOff       uint16 = 0x8B
	CodeGyroOn        uint16 = 0x8C
	CodeGyroTrackX    uint16 = 0x8D
	CodeGyroTrackY    uint16 = 0x8E
	CodeGyroTrackball uint16 = 0x8F
	CodeCommand       uint16 = 0x97
	CodeRumble        uint16 = 0xE6

	CodeVirtualGuide    uint16 = 0xB8
	CodeVirtualPadClick uint16 = 0xB9
	CodeVirtualLT       uint16 = 0xD8
	CodeVirtualRT       uint16 = 0xD9
	CodeVirtualFirst    uint16 = 0xE8
	CodeVirtualLast     uint16 = 0xF5
)

// VirtualButton is a button of the emulated controller.
type VirtualButton int

const (
	VirtualUp VirtualButton = iota
	VirtualDown
	VirtualLeft
	VirtualRight
	VirtualLB
	VirtualBack
	VirtualRB
	VirtualStart
	VirtualLS
	VirtualRS
	VirtualA
	VirtualB
	VirtualX
	VirtualY
	VirtualGuide
	VirtualPadClick
	VirtualLT
	VirtualRT
	VirtualInvalid
)

var virtualButtonNames = []string{
	"UP", "DOWN", "LEFT", "RIGHT", "LB", "BACK", "RB", "START", "LS", "RS",
	"A", "B", "X", "Y", "GUIDE", "PAD_CLICK", "LT", "RT",
}

func (v VirtualButton) String() string {
	if v >= 0 && int(v) < len(virtualButtonNames) {
		return virtualButtonNames[v]
	}
	return "INVALID"
}

var keyNames = map[string]uint16{
	"NONE":        CodeNoHold,
	"LMOUSE":      CodeLeftMouse,
	"RMOUSE":      CodeRightMouse,
	"MMOUSE":      CodeMiddleMouse,
	"BMOUSE":      CodeBackMouse,
	"FMOUSE":      CodeFwdMouse,
	"SCROLLUP":    CodeScrollUp,
	"SCROLLDOWN":  CodeScrollDown,
	"CALIBRATE":   CodeCalibrate,
	"BACKSPACE":   0x08,
	"TAB":         0x09,
	"ENTER":       0x0D,
	"SHIFT":       0x10,
	"CONTROL":     0x11,
	"ALT":         0x12,
	"PAUSE":       0x13,
	"CAPS_LOCK":   0x14,
	"ESC":         0x1B,
	"SPACE":       0x20,
	"PAGEUP":      0x21,
	"PAGEDOWN":    0x22,
	"END":         0x23,
	"HOME":        0x24,
	"LEFT":        0x25,
	"UP":          0x26,
	"RIGHT":       0x27,
	"DOWN":        0x28,
	"SCREENSHOT":  0x2C,
	"INSERT":      0x2D,
	"DELETE":      0x2E,
	"LWINDOWS":    0x5B,
	"RWINDOWS":    0x5C,
	"CONTEXT":     0x5D,
	"N*":          0x6A,
	"ADD":         0x6B,
	"SUBTRACT":    0x6D,
	"DECIMAL":     0x6E,
	"DIVIDE":      0x6F,
	"NUM_LOCK":    0x90,
	"SCROLL_LOCK": 0x91,
	"LSHIFT":      0xA0,
	"RSHIFT":      0xA1,
	"LCONTROL":    0xA2,
	"RCONTROL":    0xA3,
	"LALT":        0xA4,
	"RALT":        0xA5,
	"VOLUME_DOWN": 0xAE,
	"VOLUME_UP":   0xAF,
	"MUTE":        0xAD,
	"NEXT_TRACK":  0xB0,
	"PREV_TRACK":  0xB1,
	"STOP_TRACK":  0xB2,
	"PLAY_PAUSE":  0xB3,
	";":           0xBA,
	"+":           0xBB,
	",":           0xBC,
	"-":           0xBD,
	".":           0xBE,
	"/":           0xBF,
	"~":           0xC0,
	"[":           0xDB,
	"\\":          0xDC,
	"]":           0xDD,
	"'":           0xDE,

	"GYRO_INV_X":     CodeGyroInvX,
	"GYRO_INV_Y":     CodeGyroInvY,
	"GYRO_INVERT":    CodeGyroInvert,
	"GYRO_OFF":       CodeGyroOff,
	"GYRO_ON":        CodeGyroOn,
	"GYRO_TRACK_X":   CodeGyroTrackX,
	"GYRO_TRACK_Y":   CodeGyroTrackY,
	"GYRO_TRACKBALL": CodeGyroTrackball,

	"X_UP": 0xE8, "X_DOWN": 0xE9, "X_LEFT": 0xEA, "X_RIGHT": 0xEB,
	"X_LB": 0xEC, "X_BACK": 0xED, "X_RB": 0xEE, "X_START": 0xEF,
	"X_LS": 0xF0, "X_RS": 0xF1, "X_A": 0xF2, "X_B": 0xF3, "X_X": 0xF4, "X_Y": 0xF5,
	"X_GUIDE": CodeVirtualGuide, "X_LT": CodeVirtualLT, "X_RT": CodeVirtualRT,

	"PS_UP": 0xE8, "PS_DOWN": 0xE9, "PS_LEFT": 0xEA, "PS_RIGHT": 0xEB,
	"PS_L1": 0xEC, "PS_SHARE": 0xED, "PS_R1": 0xEE, "PS_OPTIONS": 0xEF,
	"PS_L3": 0xF0, "PS_R3": 0xF1, "PS_CROSS": 0xF2, "PS_CIRCLE": 0xF3,
	"PS_SQUARE": 0xF4, "PS_TRIANGLE": 0xF5,
	"PS_HOME": CodeVirtualGuide, "PS_PAD_CLICK": CodeVirtualPadClick,
	"PS_L2": CodeVirtualLT, "PS_R2": CodeVirtualRT,
}

var rumbleAliases = map[string]string{
	"SMALL_RUMBLE": "R0080",
	"BIG_RUMBLE":   "RFF00",
}

// ParseKeyCode resolves a single key name. Quoted text becomes a console
// command key; R followed by four hex digits is a rumble key (big then small motor).
func ParseKeyCode(name string) (KeyCode, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return KeyCode{}, fmt.Errorf("empty key name")
	}
	if len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"' {
		return KeyCode{Code: CodeCommand, Name: name[1 : len(name)-1]}, nil
	}
	upper := strings.ToUpper(name)
	if r, ok := rumbleAliases[upper]; ok {
		return KeyCode{Code: CodeRumble, Name: r}, nil
	}
	if len(upper) == 5 && upper[0] == 'R' {
		if _, err := strconv.ParseUint(upper[1:], 16, 16); err == nil {
			return KeyCode{Code: CodeRumble, Name: upper}, nil
		}
	}
	if c, ok := keyNames[upper]; ok {
		return KeyCode{Code: c, Name: upper}, nil
	}
	if len(upper) == 1 {
		switch c := upper[0]; {
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			return KeyCode{Code: uint16(c), Name: upper}, nil
		}
	}
	if len(upper) >= 2 && upper[0] == 'F' {
		if n, err := strconv.Atoi(upper[1:]); err == nil && n >= 1 && n <= 24 {
			return KeyCode{Code: 0x70 + uint16(n-1), Name: upper}, nil
		}
	}
	if len(upper) == 2 && upper[0] == 'N' && upper[1] >= '0' && upper[1] <= '9' {
		return KeyCode{Code: 0x60 + uint16(upper[1]-'0'), Name: upper}, nil
	}
	return KeyCode{}, fmt.Errorf("unknown key %q", name)
}

func (k KeyCode) String() string {
	if k.Code == CodeCommand {
		return `"` + k.Name + `"`
	}
	return k.Name
}

// IsMouse reports whether k is a mouse button or wheel key.
func (k KeyCode) IsMouse() bool {
	return k.Code >= CodeLeftMouse && k.Code <= CodeScrollDown
}

// IsGyroAction reports whether k changes gyro behaviour instead of pressing a key.
func (k KeyCode) IsGyroAction() bool {
	return k.Code >= CodeGyroInvX && k.Code <= CodeGyroTrackball
}

// IsVirtual reports whether k presses a button of the emulated controller.
func (k KeyCode) IsVirtual() bool {
	return k.Code >= CodeVirtualFirst && k.Code <= CodeVirtualLast ||
		k.Code == CodeVirtualGuide || k.Code == CodeVirtualPadClick ||
		k.Code == CodeVirtualLT || k.Code == CodeVirtualRT
}

// IsPlayStation reports whether k was written with a PS_ name.
func (k KeyCode) IsPlayStation() bool {
	return strings.HasPrefix(k.Name, "PS_")
}

// Virtual returns the emulated controller button k presses.
func (k KeyCode) Virtual() VirtualButton {
	switch {
	case k.Code >= CodeVirtualFirst && k.Code <= CodeVirtualLast:
		return VirtualUp + VirtualButton(k.Code-CodeVirtualFirst)
	case k.Code == CodeVirtualGuide:
		return VirtualGuide
	case k.Code == CodeVirtualPadClick:
		return VirtualPadClick
	case k.Code == CodeVirtualLT:
		return VirtualLT
	case k.Code == CodeVirtualRT:
		return VirtualRT
	}
	return VirtualInvalid
}

// Rumble decodes a rumble key into its motor intensities.
func (k KeyCode) Rumble() (small, big uint8, ok bool) {
	if k.Code != CodeRumble || len(k.Name) != 5 {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(k.Name[1:], 16, 16)
	if err != nil {
		return 0, 0, false
	}
	return uint8(v), uint8(v >> 8), true
}
