// Package source reads physical controllers through SDL3 and feeds their samples
// to the controller manager.
package source

import (
	"context"
	"fmt"
	"log"
	"math"
	"runtime"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/jupiterrider/purego-sdl3/sdl"

	"github.com/soar/joymapper/internal/controller"
	"github.com/soar/joymapper/internal/gamepad"
	"github.com/soar/joymapper/internal/output"
	"github.com/soar/joymapper/internal/settings"
)

const (
	hatUp    uint8 = 0x01
	hatRight uint8 = 0x02
	hatDown  uint8 = 0x04
	hatLeft  uint8 = 0x08

	standardGravity = 9.80665
	rumbleMs        = 30_000
)

// Debug enables [DEBUG] log lines.
var Debug bool

func debugf(format string, args ...any) {
	if Debug {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// touchpad sizes in pad pixels, for finger movement
var padSizes = map[gamepad.ControllerType][2]float64{
	gamepad.TypeDS4:       {1920, 943},
	gamepad.TypeDualSense: {1920, 1070},
}

type finger struct {
	down bool
	id   int
	x, y float64
}

type device struct {
	id      sdl.JoystickID
	js      *sdl.Joystick
	gp      *sdl.Gamepad
	mapping *gamepad.DeviceMapping
	name    string

	sensors  bool
	touchpad bool
	padSize  [2]float64
	fingers  [2]finger
	touchSeq int
}

// Reader polls every connected controller on one locked OS thread.
type Reader struct {
	m       *controller.Manager
	tick    *settings.Setting[float64]
	auto    *settings.Setting[gamepad.Switch]
	devices map[sdl.JoystickID]*device
	rescan  atomic.Bool

	// OnInit runs on the poll thread once SDL is initialized.
	OnInit func()
}

func NewReader(m *controller.Manager) *Reader {
	return &Reader{
		m:       m,
		tick:    settings.MustLookup[float64](m.Registry(), settings.TickTime),
		auto:    settings.MustLookup[gamepad.Switch](m.Registry(), settings.Autoconnect),
		devices: make(map[sdl.JoystickID]*device),
	}
}

// Rescan asks the poll loop to open every controller it has not opened yet.
// It is safe to call from any goroutine.
func (r *Reader) Rescan() {
	r.rescan.Store(true)
}

// Run initializes SDL and polls until ctx is done. SDL is bound to the calling
// thread for the duration.
func (r *Reader) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !sdl.Init(sdl.InitJoystick | sdl.InitGamepad) {
		return fmt.Errorf("SDL init failed: %s", sdl.GetError())
	}
	defer sdl.Quit()
	log.Println("SDL3 gamepad subsystem initialized")
	if r.OnInit != nil {
		r.OnInit()
	}

	r.openAll()
	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return nil
		default:
		}

		if r.rescan.Swap(false) {
			r.openAll()
		}
		r.processEvents()
		r.poll()
		sdl.DelayNS(uint64(r.delay()))
	}
}

func (r *Reader) delay() time.Duration {
	return max(time.Millisecond, time.Duration(r.tick.Value()*float64(time.Millisecond)))
}

func (r *Reader) openAll() {
	for _, id := range sdl.GetJoysticks() {
		r.open(id)
	}
}

func (r *Reader) processEvents() {
	var event sdl.Event
	for sdl.PollEvent(&event) {
		switch event.Type() {
		case sdl.EventJoystickAdded:
			id := event.JDevice().Which
			if r.auto.Value() == gamepad.Off {
				log.Printf("Controller %d plugged in, run RECONNECT_CONTROLLERS to use it", id)
				continue
			}
			r.open(id)

		case sdl.EventJoystickRemoved:
			r.remove(event.JDevice().Which)

		case sdl.EventJoystickButtonDown:
			be := event.JButton()
			debugf("Button DOWN: index=%d joystick=%d", be.Button, be.Which)

		case sdl.EventJoystickButtonUp:
			be := event.JButton()
			debugf("Button UP:   index=%d joystick=%d", be.Button, be.Which)

		case sdl.EventJoystickHatMotion:
			he := event.JHat()
			debugf("Hat: index=%d value=0x%02X joystick=%d", he.Hat, he.Value, he.Which)
		}
	}
}

func (r *Reader) open(id sdl.JoystickID) {
	if _, exists := r.devices[id]; exists {
		return
	}

	d := &device{id: id}
	if sdl.IsGamepad(id) {
		if d.gp = sdl.OpenGamepad(id); d.gp != nil {
			d.js = sdl.GetGamepadJoystick(d.gp)
		}
	}
	if d.js == nil {
		d.js = sdl.OpenJoystick(id)
	}
	if d.js == nil {
		log.Printf("Failed to open controller %d: %s", id, sdl.GetError())
		return
	}

	vendorID := sdl.GetJoystickVendor(d.js)
	productID := sdl.GetJoystickProduct(d.js)
	d.name = sdl.GetJoystickName(d.js)
	d.mapping = gamepad.GetMapping(vendorID, productID)

	var fb output.Feedback
	if d.gp != nil {
		d.sensors = true
		for _, s := range []sdl.SensorType{sdl.SensorGyro, sdl.SensorAccel} {
			if !sdl.GamepadHasSensor(d.gp, s) || !sdl.SetGamepadSensorEnabled(d.gp, s, true) {
				d.sensors = false
			}
		}
		d.touchpad = sdl.GetNumGamepadTouchpads(d.gp) > 0
		d.padSize = padSizes[d.mapping.Type]
		fb = &feedback{d: d}
	}
	r.devices[id] = d

	log.Printf("Controller connected: %s (VID=%04X PID=%04X) mapping=%s motion=%t touchpad=%t",
		d.name, vendorID, productID, d.mapping.Name, d.sensors, d.touchpad)

	r.m.Connect(int(id), controller.Device{
		Name:     d.name,
		Type:     d.mapping.Type,
		Split:    d.mapping.Split,
		Feedback: fb,
	})
}

func (r *Reader) remove(id sdl.JoystickID) {
	d, exists := r.devices[id]
	if !exists {
		return
	}
	log.Printf("Controller disconnected: %s", d.name)
	r.m.Disconnect(int(id))
	d.close()
	delete(r.devices, id)
}

func (r *Reader) closeAll() {
	for id := range r.devices {
		r.remove(id)
	}
}

func (d *device) close() {
	if d.gp != nil {
		sdl.CloseGamepad(d.gp)
		return
	}
	sdl.CloseJoystick(d.js)
}

func (r *Reader) poll() {
	for id, d := range r.devices {
		if !sdl.JoystickConnected(d.js) {
			continue
		}
		s := d.sample()
		r.m.Poll(int(id), s)
		if d.touchpad {
			r.m.Touch(int(id), d.touch(s.Time))
		}
	}
}

func (d *device) sample() gamepad.Sample {
	js := d.js
	s := gamepad.Sample{Time: time.Now()}

	for _, am := range d.mapping.Axes {
		raw := sdl.GetJoystickAxis(js, am.Index)
		if am.IsTrigger() {
			v := gamepad.NormalizeTrigger(raw, am.RawMin, am.RawMax)
			if am.Target == gamepad.AxisLeftTrigger {
				s.LTrigger = v
			} else {
				s.RTrigger = v
			}
			continue
		}
		v := gamepad.NormalizeAxis(raw)
		if am.Invert {
			v = -v
		}
		switch am.Target {
		case gamepad.AxisLeftX:
			s.LeftX = v
		case gamepad.AxisLeftY:
			s.LeftY = v
		case gamepad.AxisRightX:
			s.RightX = v
		case gamepad.AxisRightY:
			s.RightY = v
		}
	}

	numButtons := sdl.GetNumJoystickButtons(js)
	for _, bm := range d.mapping.Buttons {
		if bm.Index < numButtons && sdl.GetJoystickButton(js, bm.Index) {
			s.Buttons = s.Buttons.With(bm.Target)
		}
	}
	if d.mapping.HasHat && sdl.GetNumJoystickHats(js) > 0 {
		hat := sdl.GetJoystickHat(js, 0)
		for _, h := range []struct {
			bit uint8
			btn gamepad.ButtonID
		}{{hatUp, gamepad.ButtonUp}, {hatRight, gamepad.ButtonRight}, {hatDown, gamepad.ButtonDown}, {hatLeft, gamepad.ButtonLeft}} {
			if hat&h.bit != 0 {
				s.Buttons = s.Buttons.With(h.btn)
			}
		}
	}
	if d.mapping.Type.HasDigitalTriggers() {
		if s.Buttons.Has(gamepad.ButtonZL) {
			s.LTrigger = 1
		}
		if s.Buttons.Has(gamepad.ButtonZR) {
			s.RTrigger = 1
		}
	}

	if d.sensors {
		var g, a [3]float32
		if sdl.GetGamepadSensorData(d.gp, sdl.SensorGyro, &g[0], 3) {
			for i, v := range g {
				s.Gyro[i] = float64(v) * 180 / math.Pi
			}
		}
		if sdl.GetGamepadSensorData(d.gp, sdl.SensorAccel, &a[0], 3) {
			for i, v := range a {
				s.Accel[i] = float64(v) / standardGravity
			}
		}
	}
	return s
}

func (d *device) touch(now time.Time) gamepad.Touch {
	t := gamepad.Touch{Time: now}
	for i := range d.fingers {
		var down bool
		var x, y, pressure float32
		if !sdl.GetGamepadTouchpadFinger(d.gp, 0, int32(i), &down, &x, &y, &pressure) {
			down = false
		}
		prev := &d.fingers[i]
		p := gamepad.TouchPoint{Down: down, X: float64(x), Y: float64(y)}
		if down {
			if prev.down {
				p.DX = (p.X - prev.x) * d.padSize[0]
				p.DY = (p.Y - prev.y) * d.padSize[1]
			} else {
				d.touchSeq++
				prev.id = d.touchSeq
			}
			p.ID = prev.id
		}
		prev.down, prev.x, prev.y = down, p.X, p.Y
		t.Points[i] = p
	}
	return t
}

// feedback drives the device from the poll loop, which already holds the SDL thread.
type feedback struct {
	d *device
}

func (f *feedback) Rumble(small, big uint8) {
	// SDL's low frequency motor is the big one
	if !sdl.RumbleGamepad(f.d.gp, uint16(big)*0x101, uint16(small)*0x101, rumbleMs) {
		debugf("Rumble on %s: %s", f.d.name, sdl.GetError())
	}
}

func (f *feedback) SetTriggerEffect(left, right gamepad.TriggerEffect) {
	if f.d.mapping.Type != gamepad.TypeDualSense {
		return
	}
	buf := output.DualSenseTriggerReport(left, right)
	if !sdl.SendGamepadEffect(f.d.gp, unsafe.Pointer(&buf[0]), int32(len(buf))) {
		debugf("Trigger effect on %s: %s", f.d.name, sdl.GetError())
	}
}

func (f *feedback) SetLightBar(c gamepad.Color) {
	r, g, b := c.RGB()
	if !sdl.SetGamepadLED(f.d.gp, r, g, b) {
		debugf("Light bar on %s: %s", f.d.name, sdl.GetError())
	}
}
