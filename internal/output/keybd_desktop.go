//go:build windows || darwin

package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/go-vgo/robotgo"
	"github.com/micmonay/keybd_event"

	"github.com/soar/joymapper/internal/binding"
	"github.com/soar/joymapper/internal/gamepad"
)

// modifier keys are sent as flags on an empty key bonding
type modifier int

const (
	modShift modifier = iota + 1
	modCtrl
	modAlt
)

var modifiers = map[uint16]modifier{
	0x10: modShift, 0xA0: modShift, 0xA1: modShift,
	0x11: modCtrl, 0xA2: modCtrl, 0xA3: modCtrl,
	0x12: modAlt, 0xA4: modAlt, 0xA5: modAlt,
}

var desktopKeys = map[uint16]int{
	0x08: keybd_event.VK_BACKSPACE,
	0x09: keybd_event.VK_TAB,
	0x0D: keybd_event.VK_ENTER,
	0x14: keybd_event.VK_CAPSLOCK,
	0x1B: keybd_event.VK_ESC,
	0x20: keybd_event.VK_SPACE,
	0x21: keybd_event.VK_PAGEUP,
	0x22: keybd_event.VK_PAGEDOWN,
	0x23: keybd_event.VK_END,
	0x24: keybd_event.VK_HOME,
	0x25: keybd_event.VK_LEFT,
	0x26: keybd_event.VK_UP,
	0x27: keybd_event.VK_RIGHT,
	0x28: keybd_event.VK_DOWN,
	0x2E: keybd_event.VK_DELETE,

	'0': keybd_event.VK_0, '1': keybd_event.VK_1, '2': keybd_event.VK_2, '3': keybd_event.VK_3,
	'4': keybd_event.VK_4, '5': keybd_event.VK_5, '6': keybd_event.VK_6, '7': keybd_event.VK_7,
	'8': keybd_event.VK_8, '9': keybd_event.VK_9,

	'A': keybd_event.VK_A, 'B': keybd_event.VK_B, 'C': keybd_event.VK_C, 'D': keybd_event.VK_D,
	'E': keybd_event.VK_E, 'F': keybd_event.VK_F, 'G': keybd_event.VK_G, 'H': keybd_event.VK_H,
	'I': keybd_event.VK_I, 'J': keybd_event.VK_J, 'K': keybd_event.VK_K, 'L': keybd_event.VK_L,
	'M': keybd_event.VK_M, 'N': keybd_event.VK_N, 'O': keybd_event.VK_O, 'P': keybd_event.VK_P,
	'Q': keybd_event.VK_Q, 'R': keybd_event.VK_R, 'S': keybd_event.VK_S, 'T': keybd_event.VK_T,
	'U': keybd_event.VK_U, 'V': keybd_event.VK_V, 'W': keybd_event.VK_W, 'X': keybd_event.VK_X,
	'Y': keybd_event.VK_Y, 'Z': keybd_event.VK_Z,

	0x70: keybd_event.VK_F1, 0x71: keybd_event.VK_F2, 0x72: keybd_event.VK_F3, 0x73: keybd_event.VK_F4,
	0x74: keybd_event.VK_F5, 0x75: keybd_event.VK_F6, 0x76: keybd_event.VK_F7, 0x77: keybd_event.VK_F8,
	0x78: keybd_event.VK_F9, 0x79: keybd_event.VK_F10, 0x7A: keybd_event.VK_F11, 0x7B: keybd_event.VK_F12,

	0xBA: keybd_event.VK_SEMICOLON,
	0xBB: keybd_event.VK_EQUAL,
	0xBC: keybd_event.VK_COMMA,
	0xBD: keybd_event.VK_MINUS,
	0xBE: keybd_event.VK_DOT,
	0xBF: keybd_event.VK_SLASH,
	0xDB: keybd_event.VK_LEFTBRACE,
	0xDC: keybd_event.VK_BACKSLASH,
	0xDD: keybd_event.VK_RIGHTBRACE,
	0xDE: keybd_event.VK_APOSTROPHE,
}

var mouseButtons = map[uint16]string{
	binding.CodeLeftMouse:   "left",
	binding.CodeRightMouse:  "right",
	binding.CodeMiddleMouse: "center",
}

// Injector sends keys through keybd_event and the mouse through robotgo.
type Injector struct {
	mu     sync.Mutex
	kb     keybd_event.KeyBonding
	held   map[modifier]bool
	acc    Accumulator
	warned map[uint16]bool
}

func NewInjector() (*Injector, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("key bonding: %w", err)
	}
	return &Injector{kb: kb, held: make(map[modifier]bool), warned: make(map[uint16]bool)}, nil
}

func (in *Injector) PressKey(k binding.KeyCode, pressed bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if name, ok := mouseButtons[k.Code]; ok {
		state := "up"
		if pressed {
			state = "down"
		}
		if err := robotgo.Toggle(name, state); err != nil {
			log.Printf("Sending %s: %v", k, err)
		}
		return
	}
	switch k.Code {
	case binding.CodeScrollUp:
		if pressed {
			robotgo.Scroll(0, 1)
		}
		return
	case binding.CodeScrollDown:
		if pressed {
			robotgo.Scroll(0, -1)
		}
		return
	}

	in.kb.Clear()
	if mod, ok := modifiers[k.Code]; ok {
		in.held[mod] = pressed
	} else if code, ok := desktopKeys[k.Code]; ok {
		in.kb.SetKeys(code)
	} else {
		if !in.warned[k.Code] {
			log.Printf("Key %s has no equivalent on this platform", k)
			in.warned[k.Code] = true
		}
		return
	}
	in.kb.HasSHIFT(in.held[modShift])
	in.kb.HasCTRL(in.held[modCtrl])
	in.kb.HasALT(in.held[modAlt])
	var err error
	if pressed {
		err = in.kb.Press()
	} else {
		err = in.kb.Release()
	}
	if err != nil {
		log.Printf("Sending key %s: %v", k, err)
	}
}

func (in *Injector) MoveMouse(dx, dy float64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if x, y := in.acc.Add(dx, dy); x != 0 || y != 0 {
		robotgo.MoveRelative(int(x), int(y))
	}
}

func (in *Injector) SetMouseNorm(x, y float64) {
	w, h := robotgo.GetScreenSize()
	robotgo.Move(int(float64(w)*max(0, min(1, x))), int(float64(h)*max(0, min(1, y))))
}

func (in *Injector) Close() error { return nil }

// NewGamepad is unavailable here: emulated controllers need a driver this
// build does not bind to.
func NewGamepad(scheme gamepad.ControllerScheme) (VirtualController, error) {
	return nil, fmt.Errorf("%s virtual controller: %w", scheme, ErrUnsupported)
}
