package controller

import (
	"math"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/soar/joymapper/internal/binding"
	"github.com/soar/joymapper/internal/gamepad"
	"github.com/soar/joymapper/internal/output"
	"github.com/soar/joymapper/internal/settings"
)

type recorder struct {
	events []string
	dx, dy float64
}

func (r *recorder) PressKey(k binding.KeyCode, pressed bool) {
	if pressed {
		r.events = append(r.events, k.Name+" down")
	} else {
		r.events = append(r.events, k.Name+" up")
	}
}

func (r *recorder) MoveMouse(dx, dy float64) {
	r.dx += dx
	r.dy += dy
}

func (r *recorder) SetMouseNorm(x, y float64) {}

type feedback struct {
	lights  []gamepad.Color
	effects [][2]gamepad.TriggerEffect
	rumbles [][2]uint8
}

func (f *feedback) Rumble(small, big uint8) { f.rumbles = append(f.rumbles, [2]uint8{small, big}) }

func (f *feedback) SetTriggerEffect(left, right gamepad.TriggerEffect) {
	f.effects = append(f.effects, [2]gamepad.TriggerEffect{left, right})
}

func (f *feedback) SetLightBar(c gamepad.Color) { f.lights = append(f.lights, c) }

type virtualPad struct {
	scheme  gamepad.ControllerScheme
	updates int
	closed  bool
}

func (v *virtualPad) Scheme() gamepad.ControllerScheme      { return v.scheme }
func (v *virtualPad) SetButton(binding.VirtualButton, bool) {}
func (v *virtualPad) SetStick(x, y float64, left bool)      {}
func (v *virtualPad) SetLeftTrigger(float64)                {}
func (v *virtualPad) SetRightTrigger(float64)               {}
func (v *virtualPad) SetGyro(accel, gyro [3]float64)        {}
func (v *virtualPad) Update() error                         { v.updates++; return nil }
func (v *virtualPad) Close() error                          { v.closed = true; return nil }

func newManager(t *testing.T) (*Manager, *recorder) {
	t.Helper()
	rec := &recorder{}
	return NewManager(settings.NewRegistry(), rec), rec
}

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func sample(ms int, ids ...gamepad.ButtonID) gamepad.Sample {
	s := gamepad.Sample{Time: at(ms), Accel: [3]float64{0, 1, 0}}
	for _, id := range ids {
		s.Buttons = s.Buttons.With(id)
	}
	return s
}

func fullPad(fb output.Feedback) Device {
	return Device{Name: "pad", Type: gamepad.TypeDualSense, Split: gamepad.SplitFull, Feedback: fb}
}

func TestConnectMergesJoycons(t *testing.T) {
	m, _ := newManager(t)
	settings.MustLookup[gamepad.Switch](m.Registry(), settings.JoyconMerge).Set(gamepad.On)

	m.Connect(1, Device{Type: gamepad.TypeJoyconLeft, Split: gamepad.SplitLeft})
	m.Connect(2, Device{Type: gamepad.TypeJoyconRight, Split: gamepad.SplitRight})
	m.Connect(3, fullPad(nil))

	if m.Count() != 3 {
		t.Fatalf("expected 3 controllers, got %d", m.Count())
	}
	if m.Controller(1).Context() != m.Controller(2).Context() {
		t.Error("expected the joycon halves to share a context")
	}
	if m.Controller(3).Context() == m.Controller(1).Context() {
		t.Error("expected the full controller to have its own context")
	}

	m.Reconnect(false)
	if m.Controller(1).Context() == m.Controller(2).Context() {
		t.Error("expected split joycons after reconnecting without merge")
	}

	for len(m.Changes()) > 0 {
		<-m.Changes()
	}
	m.Disconnect(2)
	if got := m.Handles(); !slices.Equal(got, []int{1, 3}) {
		t.Errorf("expected handles [1 3], got %v", got)
	}
	select {
	case st := <-m.Changes():
		if st.Connected || st.Handle != 2 {
			t.Errorf("expected a disconnected state for handle 2, got %+v", st)
		}
	default:
		t.Error("expected a state on disconnect")
	}
}

func TestPollPressesMappedButton(t *testing.T) {
	m, rec := newManager(t)
	m.Table().Button(gamepad.ButtonE).Set(binding.MustParseMapping("SPACE"))
	m.Connect(1, fullPad(nil))

	m.Poll(1, sample(0, gamepad.ButtonE))
	m.Poll(1, sample(100, gamepad.ButtonE))
	m.Poll(1, sample(600))
	if want := []string{"SPACE down", "SPACE up"}; !slices.Equal(rec.events, want) {
		t.Errorf("expected %v, got %v", want, rec.events)
	}

	m.Poll(9, sample(700, gamepad.ButtonE))
	if len(rec.events) != 2 {
		t.Errorf("expected an unknown handle to be ignored, got %v", rec.events)
	}
}

func TestJoyconHalvesOnlyReadTheirButtons(t *testing.T) {
	m, rec := newManager(t)
	m.Table().Button(gamepad.ButtonE).Set(binding.MustParseMapping("SPACE"))
	m.Table().Button(gamepad.ButtonUp).Set(binding.MustParseMapping("W"))
	m.Connect(1, Device{Type: gamepad.TypeJoyconLeft, Split: gamepad.SplitLeft})

	m.Poll(1, sample(0, gamepad.ButtonE, gamepad.ButtonUp))
	if want := []string{"W down"}; !slices.Equal(rec.events, want) {
		t.Errorf("expected %v, got %v", want, rec.events)
	}
}

func TestLightBarSentOnChange(t *testing.T) {
	m, _ := newManager(t)
	fb := &feedback{}
	m.Connect(1, fullPad(fb))

	m.Poll(1, sample(0))
	m.Poll(1, sample(3))
	settings.MustLookup[gamepad.Color](m.Registry(), settings.LightBar).Set(0xFF0000)
	m.Poll(1, sample(6))
	if want := []gamepad.Color{0xFFFFFF, 0xFF0000}; !slices.Equal(fb.lights, want) {
		t.Errorf("expected %v, got %v", want, fb.lights)
	}
}

func TestDisconnectStopsFeedback(t *testing.T) {
	m, _ := newManager(t)
	fb := &feedback{}
	m.Connect(1, fullPad(fb))
	m.Disconnect(1)
	if len(fb.rumbles) != 1 || fb.rumbles[0] != [2]uint8{} {
		t.Errorf("expected the motors to be stopped once, got %v", fb.rumbles)
	}
}

func TestGyroMovesMouse(t *testing.T) {
	m, rec := newManager(t)
	r := m.Registry()
	settings.MustLookup[gamepad.FloatXY](r, settings.MinGyroSens).Set(gamepad.FloatXY{X: 1, Y: 1})
	settings.MustLookup[gamepad.FloatXY](r, settings.MaxGyroSens).Set(gamepad.FloatXY{X: 1, Y: 1})
	m.Connect(1, fullPad(nil))

	s := sample(0)
	s.Gyro = [3]float64{0, 10, 0}
	m.Poll(1, s)
	// 10 deg/s of yaw for one 3 ms tick at REAL_WORLD_CALIBRATION 40
	if math.Abs(rec.dx+1.2) > 1e-9 || math.Abs(rec.dy) > 1e-9 {
		t.Errorf("expected a mouse move of (-1.2, 0), got (%g, %g)", rec.dx, rec.dy)
	}

	// JOYCON_GYRO_MASK ignores a left joycon by default
	m.Connect(2, Device{Type: gamepad.TypeJoyconLeft, Split: gamepad.SplitLeft})
	rec.dx = 0
	m.Poll(2, s)
	if rec.dx != 0 {
		t.Errorf("expected no mouse output from a masked joycon, got %g", rec.dx)
	}
}

func TestTouchGridButtons(t *testing.T) {
	m, rec := newManager(t)
	m.Table().Button(gamepad.ButtonT1 + 1).Set(binding.MustParseMapping("Q"))
	m.Connect(1, fullPad(nil))

	// the default 2x1 grid puts the right half of the pad on T2
	down := gamepad.Touch{Time: at(0)}
	down.Points[0] = gamepad.TouchPoint{Down: true, X: 0.75, Y: 0.5}
	m.Touch(1, down)
	m.Touch(1, gamepad.Touch{Time: at(200)})
	if want := []string{"Q down", "Q up"}; !slices.Equal(rec.events, want) {
		t.Errorf("expected %v, got %v", want, rec.events)
	}
}

func TestTouchpadMouse(t *testing.T) {
	m, rec := newManager(t)
	r := m.Registry()
	settings.MustLookup[gamepad.TouchpadMode](r, settings.TouchpadMode).Set(gamepad.TouchMouse)
	settings.MustLookup[gamepad.FloatXY](r, settings.TouchpadSens).Set(gamepad.FloatXY{X: 2, Y: 3})
	m.Connect(1, fullPad(nil))

	touch := gamepad.Touch{Time: at(0)}
	touch.Points[1] = gamepad.TouchPoint{Down: true, DX: 4, DY: -1}
	m.Touch(1, touch)
	if rec.dx != 8 || rec.dy != -3 {
		t.Errorf("expected (8, -3), got (%g, %g)", rec.dx, rec.dy)
	}
}

func TestVirtualControllerFollowsScheme(t *testing.T) {
	m, _ := newManager(t)
	var made []*virtualPad
	m.NewVirtual = func(scheme gamepad.ControllerScheme, notify NotifyFunc) (output.VirtualController, error) {
		v := &virtualPad{scheme: scheme}
		made = append(made, v)
		return v, nil
	}
	m.Connect(1, fullPad(nil))
	if len(made) != 0 {
		t.Fatalf("expected no virtual controller with scheme NONE, got %d", len(made))
	}

	scheme := settings.MustLookup[gamepad.ControllerScheme](m.Registry(), settings.VirtualController)
	scheme.Set(gamepad.SchemeXbox)
	if len(made) != 1 || !m.Ready() {
		t.Fatalf("expected one xbox controller, got %d", len(made))
	}
	m.Poll(1, sample(0))
	if made[0].updates != 1 {
		t.Errorf("expected one update per poll, got %d", made[0].updates)
	}

	scheme.Set(gamepad.SchemeDS4)
	if len(made) != 2 || !made[0].closed {
		t.Errorf("expected the xbox controller to be replaced, got %d made", len(made))
	}
	m.Disconnect(1)
	if !made[1].closed {
		t.Error("expected the virtual controller to close with its device")
	}
}

func TestVirtualNotification(t *testing.T) {
	m, _ := newManager(t)
	var notify NotifyFunc
	m.NewVirtual = func(scheme gamepad.ControllerScheme, n NotifyFunc) (output.VirtualController, error) {
		notify = n
		return &virtualPad{scheme: scheme}, nil
	}
	settings.MustLookup[gamepad.ControllerScheme](m.Registry(), settings.VirtualController).Set(gamepad.SchemeDS4)
	fb := &feedback{}
	m.Connect(1, fullPad(fb))
	if notify == nil {
		t.Fatal("expected a virtual controller")
	}

	notify(10, 20, 0x00FF00)
	if len(fb.rumbles) != 1 || fb.rumbles[0] != [2]uint8{10, 20} {
		t.Errorf("expected rumble (10, 20), got %v", fb.rumbles)
	}
	if !slices.Equal(fb.lights, []gamepad.Color{0x00FF00}) {
		t.Errorf("expected the game's light bar color, got %v", fb.lights)
	}

	settings.MustLookup[gamepad.Switch](m.Registry(), settings.Rumble).Set(gamepad.Off)
	notify(30, 40, 0x00FF00)
	if len(fb.rumbles) != 1 {
		t.Errorf("expected RUMBLE = OFF to silence the motors, got %v", fb.rumbles)
	}
}

func TestTriggerCalibration(t *testing.T) {
	m, _ := newManager(t)
	fb := &feedback{}
	m.Connect(1, fullPad(fb))
	r := m.Registry()
	tick := settings.MustLookup[float64](r, settings.TickTime)

	m.CalibrateTriggers()
	ms := 0
	poll := func(lt, rt float64, ids ...gamepad.ButtonID) {
		s := sample(ms, ids...)
		s.LTrigger, s.RTrigger = lt, rt
		m.Poll(1, s)
		ms += 10
	}

	poll(0, 0)
	if last := fb.effects[len(fb.effects)-1][1]; last.Mode != gamepad.EffectSegment || last.Force != 255 {
		t.Fatalf("expected a resisting segment on the right trigger, got %v", last)
	}
	if tick.Value() != 100 {
		t.Errorf("expected TICK_TIME 100 while calibrating, got %g", tick.Value())
	}
	poll(0, 0)
	poll(0, 0, gamepad.ButtonDown)
	poll(0, 0)
	poll(0, 0)
	poll(0, 0.1)
	if tick.Value() != 40 {
		t.Errorf("expected TICK_TIME 40 while sweeping, got %g", tick.Value())
	}
	poll(0, 1)
	poll(0, 1)

	poll(0, 0)
	poll(0, 0, gamepad.ButtonS)
	poll(0.5, 0)
	poll(1, 0)
	poll(1, 0)
	poll(0, 0)
	if m.cal.Active() {
		t.Fatal("expected the calibration to be finished")
	}

	tests := []struct {
		id   settings.SettingID
		want int
	}{
		{settings.RightTriggerOffset, 2},
		{settings.RightTriggerRange, 2},
		{settings.LeftTriggerOffset, 0},
		{settings.LeftTriggerRange, 2},
	}
	for _, tt := range tests {
		if got := settings.MustLookup[int](r, tt.id).Value(); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.id, tt.want, got)
		}
	}
	if tick.Value() != 3 {
		t.Errorf("expected TICK_TIME back at its default, got %g", tick.Value())
	}
}

func TestTriggerCalibrationAbandon(t *testing.T) {
	m, _ := newManager(t)
	m.Connect(1, fullPad(nil))
	m.CalibrateTriggers()
	m.Poll(1, sample(0))
	m.Poll(1, sample(10, gamepad.ButtonHome))
	if m.cal.Active() {
		t.Error("expected HOME to abandon the calibration")
	}
	if got := settings.MustLookup[float64](m.Registry(), settings.TickTime).Value(); got != 3 {
		t.Errorf("expected TICK_TIME 3, got %g", got)
	}
}

func TestRecommendCalibration(t *testing.T) {
	m, _ := newManager(t)
	if got := m.RecommendCalibration(1); !strings.HasPrefix(got, "Need to use the flick stick") {
		t.Errorf("expected a request to flick first, got %q", got)
	}
	m.recordFlick(-0.5)
	tests := []struct {
		turns float64
		want  string
	}{
		{1, "Recommendation: REAL_WORLD_CALIBRATION = 20"},
		{0.5, "Recommendation: REAL_WORLD_CALIBRATION = 40"},
		{0, "Recommendation: REAL_WORLD_CALIBRATION = 20"},
	}
	for _, tt := range tests {
		if got := m.RecommendCalibration(tt.turns); got != tt.want {
			t.Errorf("turns %g: expected %q, got %q", tt.turns, tt.want, got)
		}
	}
}
