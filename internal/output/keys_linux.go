//go:build linux

package output

import "github.com/bendahl/uinput"

// linuxKeys maps virtual-key codes to evdev key codes.
var linuxKeys = map[uint16]int{
	0x08: uinput.KeyBackspace,
	0x09: uinput.KeyTab,
	0x0D: uinput.KeyEnter,
	0x10: uinput.KeyLeftshift,
	0x11: uinput.KeyLeftctrl,
	0x12: uinput.KeyLeftalt,
	0x13: uinput.KeyPause,
	0x14: uinput.KeyCapslock,
	0x1B: uinput.KeyEsc,
	0x20: uinput.KeySpace,
	0x21: uinput.KeyPageup,
	0x22: uinput.KeyPagedown,
	0x23: uinput.KeyEnd,
	0x24: uinput.KeyHome,
	0x25: uinput.KeyLeft,
	0x26: uinput.KeyUp,
	0x27: uinput.KeyRight,
	0x28: uinput.KeyDown,
	0x2C: uinput.KeySysrq,
	0x2D: uinput.KeyInsert,
	0x2E: uinput.KeyDelete,

	'0': uinput.Key0, '1': uinput.Key1, '2': uinput.Key2, '3': uinput.Key3, '4': uinput.Key4,
	'5': uinput.Key5, '6': uinput.Key6, '7': uinput.Key7, '8': uinput.Key8, '9': uinput.Key9,

	'A': uinput.KeyA, 'B': uinput.KeyB, 'C': uinput.KeyC, 'D': uinput.KeyD, 'E': uinput.KeyE,
	'F': uinput.KeyF, 'G': uinput.KeyG, 'H': uinput.KeyH, 'I': uinput.KeyI, 'J': uinput.KeyJ,
	'K': uinput.KeyK, 'L': uinput.KeyL, 'M': uinput.KeyM, 'N': uinput.KeyN, 'O': uinput.KeyO,
	'P': uinput.KeyP, 'Q': uinput.KeyQ, 'R': uinput.KeyR, 'S': uinput.KeyS, 'T': uinput.KeyT,
	'U': uinput.KeyU, 'V': uinput.KeyV, 'W': uinput.KeyW, 'X': uinput.KeyX, 'Y': uinput.KeyY,
	'Z': uinput.KeyZ,

	0x5B: uinput.KeyLeftmeta,
	0x5C: uinput.KeyRightmeta,
	0x5D: uinput.KeyCompose,

	0x60: uinput.KeyKp0, 0x61: uinput.KeyKp1, 0x62: uinput.KeyKp2, 0x63: uinput.KeyKp3, 0x64: uinput.KeyKp4,
	0x65: uinput.KeyKp5, 0x66: uinput.KeyKp6, 0x67: uinput.KeyKp7, 0x68: uinput.KeyKp8, 0x69: uinput.KeyKp9,
	0x6A: uinput.KeyKpasterisk,
	0x6B: uinput.KeyKpplus,
	0x6D: uinput.KeyKpminus,
	0x6E: uinput.KeyKpdot,
	0x6F: uinput.KeyKpslash,

	0x70: uinput.KeyF1, 0x71: uinput.KeyF2, 0x72: uinput.KeyF3, 0x73: uinput.KeyF4,
	0x74: uinput.KeyF5, 0x75: uinput.KeyF6, 0x76: uinput.KeyF7, 0x77: uinput.KeyF8,
	0x78: uinput.KeyF9, 0x79: uinput.KeyF10, 0x7A: uinput.KeyF11, 0x7B: uinput.KeyF12,
	0x7C: uinput.KeyF13, 0x7D: uinput.KeyF14, 0x7E: uinput.KeyF15, 0x7F: uinput.KeyF16,
	0x80: uinput.KeyF17, 0x81: uinput.KeyF18, 0x82: uinput.KeyF19, 0x83: uinput.KeyF20,
	0x84: uinput.KeyF21, 0x85: uinput.KeyF22, 0x86: uinput.KeyF23, 0x87: uinput.KeyF24,

	0x90: uinput.KeyNumlock,
	0x91: uinput.KeyScrolllock,
	0xA0: uinput.KeyLeftshift,
	0xA1: uinput.KeyRightshift,
	0xA2: uinput.KeyLeftctrl,
	0xA3: uinput.KeyRightctrl,
	0xA4: uinput.KeyLeftalt,
	0xA5: uinput.KeyRightalt,
	0xAD: uinput.KeyMute,
	0xAE: uinput.KeyVolumedown,
	0xAF: uinput.KeyVolumeup,
	0xB0: uinput.KeyNextsong,
	0xB1: uinput.KeyPrevioussong,
	0xB2: uinput.KeyStopcd,
	0xB3: uinput.KeyPlaypause,

	0xBA: uinput.KeySemicolon,
	0xBB: uinput.KeyEqual,
	0xBC: uinput.KeyComma,
	0xBD: uinput.KeyMinus,
	0xBE: uinput.KeyDot,
	0xBF: uinput.KeySlash,
	0xC0: uinput.KeyGrave,
	0xDB: uinput.KeyLeftbrace,
	0xDC: uinput.KeyBackslash,
	0xDD: uinput.KeyRightbrace,
	0xDE: uinput.KeyApostrophe,
}
