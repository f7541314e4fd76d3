//go:build linux

package output

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/bendahl/uinput"
	"golang.org/x/sys/unix"

	"github.com/soar/joymapper/internal/binding"
	"github.com/soar/joymapper/internal/gamepad"
)

const (
	uinputPath = "/dev/uinput"
	// absMax is the resolution of the absolute pointer device.
	absMax = 1 << 15
)

func checkUinput() error {
	if err := unix.Access(uinputPath, unix.W_OK); err != nil {
		return fmt.Errorf("%s is not writable, load the uinput module and check its permissions: %w", uinputPath, err)
	}
	return nil
}

// Injector sends keyboard and mouse events through uinput devices.
type Injector struct {
	mu       sync.Mutex
	keyboard uinput.Keyboard
	mouse    uinput.Mouse
	pointer  uinput.TouchPad
	acc      Accumulator
	warned   map[uint16]bool
}

func NewInjector() (*Injector, error) {
	if err := checkUinput(); err != nil {
		return nil, err
	}
	kb, err := uinput.CreateKeyboard(uinputPath, []byte("joymapper keyboard"))
	if err != nil {
		return nil, fmt.Errorf("create keyboard: %w", err)
	}
	mouse, err := uinput.CreateMouse(uinputPath, []byte("joymapper mouse"))
	if err != nil {
		kb.Close()
		return nil, fmt.Errorf("create mouse: %w", err)
	}
	pointer, err := uinput.CreateTouchPad(uinputPath, []byte("joymapper pointer"), 0, absMax, 0, absMax)
	if err != nil {
		kb.Close()
		mouse.Close()
		return nil, fmt.Errorf("create pointer: %w", err)
	}
	return &Injector{keyboard: kb, mouse: mouse, pointer: pointer, warned: make(map[uint16]bool)}, nil
}

func (in *Injector) PressKey(k binding.KeyCode, pressed bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	var err error
	switch k.Code {
	case binding.CodeLeftMouse:
		err = in.button(pressed, in.mouse.LeftPress, in.mouse.LeftRelease)
	case binding.CodeRightMouse:
		err = in.button(pressed, in.mouse.RightPress, in.mouse.RightRelease)
	case binding.CodeMiddleMouse:
		err = in.button(pressed, in.mouse.MiddlePress, in.mouse.MiddleRelease)
	case binding.CodeScrollUp:
		if pressed {
			err = in.mouse.Wheel(false, 1)
		}
	case binding.CodeScrollDown:
		if pressed {
			err = in.mouse.Wheel(false, -1)
		}
	default:
		code, ok := linuxKeys[k.Code]
		if !ok {
			if !in.warned[k.Code] {
				log.Printf("Key %s has no uinput equivalent", k)
				in.warned[k.Code] = true
			}
			return
		}
		if pressed {
			err = in.keyboard.KeyDown(code)
		} else {
			err = in.keyboard.KeyUp(code)
		}
	}
	if err != nil {
		log.Printf("Sending key %s: %v", k, err)
	}
}

func (in *Injector) button(pressed bool, press, release func() error) error {
	if pressed {
		return press()
	}
	return release()
}

func (in *Injector) MoveMouse(dx, dy float64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	x, y := in.acc.Add(dx, dy)
	if x == 0 && y == 0 {
		return
	}
	if err := in.mouse.Move(x, y); err != nil {
		log.Printf("Moving mouse: %v", err)
	}
}

func (in *Injector) SetMouseNorm(x, y float64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	px := int32(max(0, min(1, x)) * absMax)
	py := int32(max(0, min(1, y)) * absMax)
	if err := in.pointer.MoveTo(px, py); err != nil {
		log.Printf("Moving pointer: %v", err)
	}
}

func (in *Injector) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return errors.Join(in.keyboard.Close(), in.mouse.Close(), in.pointer.Close())
}

var padIDs = map[gamepad.ControllerScheme]struct{ vendor, product uint16 }{
	gamepad.SchemeXbox: {0x045E, 0x028E},
	gamepad.SchemeDS4:  {0x054C, 0x05C4},
}

var padButtons = map[binding.VirtualButton]int{
	binding.VirtualUp:    uinput.ButtonDpadUp,
	binding.VirtualDown:  uinput.ButtonDpadDown,
	binding.VirtualLeft:  uinput.ButtonDpadLeft,
	binding.VirtualRight: uinput.ButtonDpadRight,
	binding.VirtualLB:    uinput.ButtonBumperLeft,
	binding.VirtualBack:  uinput.ButtonSelect,
	binding.VirtualRB:    uinput.ButtonBumperRight,
	binding.VirtualStart: uinput.ButtonStart,
	binding.VirtualLS:    uinput.ButtonThumbLeft,
	binding.VirtualRS:    uinput.ButtonThumbRight,
	binding.VirtualA:     uinput.ButtonSouth,
	binding.VirtualB:     uinput.ButtonEast,
	binding.VirtualX:     uinput.ButtonWest,
	binding.VirtualY:     uinput.ButtonNorth,
	binding.VirtualGuide: uinput.ButtonMode,
}

// UinputPad is an emulated controller on a uinput gamepad device. uinput
// gamepads have no force feedback, so games never send rumble back.
type UinputPad struct {
	pad
	dev uinput.Gamepad
}

// NewGamepad creates a uinput gamepad announcing the vendor and product of scheme.
func NewGamepad(scheme gamepad.ControllerScheme) (VirtualController, error) {
	ids, ok := padIDs[scheme]
	if !ok {
		return nil, fmt.Errorf("no virtual controller for scheme %s", scheme)
	}
	if err := checkUinput(); err != nil {
		return nil, err
	}
	dev, err := uinput.CreateGamepad(uinputPath, []byte("joymapper "+scheme.String()), ids.vendor, ids.product)
	if err != nil {
		return nil, fmt.Errorf("create gamepad: %w", err)
	}
	return &UinputPad{pad: pad{scheme: scheme}, dev: dev}, nil
}

func (p *UinputPad) Update() error {
	var errs []error
	for _, b := range p.changed() {
		code, ok := padButtons[b]
		if !ok {
			continue
		}
		if p.next.buttons[b] {
			errs = append(errs, p.dev.ButtonDown(code))
		} else {
			errs = append(errs, p.dev.ButtonUp(code))
		}
	}
	n, s := p.next, p.sent
	if !p.fresh || n.lx != s.lx || n.ly != s.ly {
		errs = append(errs, p.dev.LeftStickMove(float32(n.lx), float32(-n.ly)))
	}
	if !p.fresh || n.rx != s.rx || n.ry != s.ry {
		errs = append(errs, p.dev.RightStickMove(float32(n.rx), float32(-n.ry)))
	}
	// uinput gamepads only carry the triggers as L2 and R2 buttons
	for _, left := range []bool{true, false} {
		on := n.triggerPulled(left)
		if p.fresh && on == s.triggerPulled(left) {
			continue
		}
		code := uinput.ButtonTriggerRight
		if left {
			code = uinput.ButtonTriggerLeft
		}
		if on {
			errs = append(errs, p.dev.ButtonDown(code))
		} else {
			errs = append(errs, p.dev.ButtonUp(code))
		}
	}
	p.commit()
	return errors.Join(errs...)
}

func (p *UinputPad) Close() error {
	return p.dev.Close()
}
