package stick

import (
	"math"
	"slices"
	"testing"
	"time"

	"github.com/soar/joymapper/internal/binding"
	"github.com/soar/joymapper/internal/button"
	"github.com/soar/joymapper/internal/gamepad"
	"github.com/soar/joymapper/internal/settings"
)

type recorder struct {
	events []string
	dx, dy float64
	nx, ny float64
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

func (r *recorder) SetMouseNorm(x, y float64) {
	r.nx, r.ny = x, y
}

type stickCall struct {
	x, y float64
	left bool
}

type fakeVirtual struct {
	sticks []stickCall
}

func (f *fakeVirtual) Scheme() gamepad.ControllerScheme      { return gamepad.SchemeXbox }
func (f *fakeVirtual) SetButton(binding.VirtualButton, bool) {}
func (f *fakeVirtual) SetStick(x, y float64, left bool) {
	f.sticks = append(f.sticks, stickCall{x, y, left})
}
func (f *fakeVirtual) SetLeftTrigger(v float64)       {}
func (f *fakeVirtual) SetRightTrigger(v float64)      {}
func (f *fakeVirtual) SetGyro(accel, gyro [3]float64) {}
func (f *fakeVirtual) Update() error                  { return nil }
func (f *fakeVirtual) Close() error                   { return nil }

type fixture struct {
	reg  *settings.Registry
	ctx  *button.Context
	keys *recorder
	proc *Processor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := settings.NewRegistry()
	settings.RegisterDefaults(r, nil)
	tbl := binding.NewTable(nil)
	tbl.Button(gamepad.ButtonLLeft).Set(binding.MustParseMapping("A"))
	tbl.Button(gamepad.ButtonLRight).Set(binding.MustParseMapping("D"))
	tbl.Button(gamepad.ButtonLUp).Set(binding.MustParseMapping("W"))
	tbl.Button(gamepad.ButtonLDown).Set(binding.MustParseMapping("S"))
	keys := &recorder{}
	ctx := button.NewContext(r, tbl, keys)
	return &fixture{reg: r, ctx: ctx, keys: keys, proc: NewProcessor(ctx, r, gamepad.SplitFull)}
}

func set[T comparable](f *fixture, id settings.SettingID, v T) {
	settings.MustLookup[T](f.reg, id).Set(v)
}

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// baseStack is a chord stack with nothing held.
var baseStack = []gamepad.ButtonID{gamepad.ButtonNone}

func TestApplyDeadzones(t *testing.T) {
	tests := []struct {
		name         string
		x, y         float64
		wantX, wantY float64
		wantPegged   bool
	}{
		{"inside inner", 0.1, 0, 0, 0, false},
		{"on inner", 0.2, 0, 0, 0, false},
		{"halfway", 0, 0.5, 0, 0.5, false},
		{"past outer", 0, -0.9, 0, -1, true},
		{"diagonal past outer", 0.6, 0.8, 0.6, 0.8, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, pegged := ApplyDeadzones(tt.x, tt.y, 0.2, 0.8)
			if !near(x, tt.wantX) || !near(y, tt.wantY) || pegged != tt.wantPegged {
				t.Errorf("expected (%g, %g, %v), got (%g, %g, %v)", tt.wantX, tt.wantY, tt.wantPegged, x, y, pegged)
			}
		})
	}
}

func TestUndeadzone(t *testing.T) {
	tests := []struct {
		v, inner, outer, unpower float64
		want                     float64
		ok                       bool
	}{
		{0.5, 0, 0, 0, 0.5, true},
		{0.5, 0.2, 0, 0, 0.6, true},
		{1, 0.2, 0.1, 0, 1, true},
		{0.25, 0, 0, 2, 0.5, true},
		{0.5, 0.6, 0.4, 0, 0, false},
	}
	for _, tt := range tests {
		got, ok := Undeadzone(tt.v, tt.inner, tt.outer, tt.unpower)
		if ok != tt.ok || !near(got, tt.want) {
			t.Errorf("Undeadzone(%g, %g, %g, %g): expected (%g, %v), got (%g, %v)",
				tt.v, tt.inner, tt.outer, tt.unpower, tt.want, tt.ok, got, ok)
		}
	}
}

func TestDirectionButtons(t *testing.T) {
	f := newFixture(t)
	st := New(LeftConfig, f.reg)

	f.proc.SetTime(at(0))
	if res := f.proc.Process(st, -1, 0, 0.003); !res.Any {
		t.Error("a pushed stick in NO_MOUSE should count as input")
	}
	f.proc.SetTime(at(3))
	f.proc.Process(st, 0, 0, 0.003)
	if want := []string{"A down", "A up"}; !slices.Equal(f.keys.events, want) {
		t.Errorf("expected %v, got %v", want, f.keys.events)
	}
}

func TestOrientationRotatesStick(t *testing.T) {
	f := newFixture(t)
	set(f, settings.ControllerOrientation, gamepad.OrientLeft)
	st := New(LeftConfig, f.reg)

	f.proc.SetTime(at(0))
	f.proc.Process(st, 0, 1, 0.003)
	if want := []string{"A down"}; !slices.Equal(f.keys.events, want) {
		t.Errorf("pushing up on a controller turned left should press left: expected %v, got %v", want, f.keys.events)
	}
}

func TestAimAcceleration(t *testing.T) {
	f := newFixture(t)
	set(f, settings.RightStickMode, gamepad.StickAim)
	set(f, settings.StickAccelerationRate, 2.0)
	set(f, settings.StickAccelerationCap, 2.5)
	st := New(RightConfig, f.reg)

	// 360 deg/s at full tilt, 40 counts per degree, half a second per tick
	var got []float64
	for i := range 4 {
		f.proc.SetTime(at(i * 500))
		got = append(got, f.proc.Process(st, 0, 1, 0.5).CamY)
	}
	want := []float64{7200, 14400, 18000, 18000}
	for i := range want {
		if !near(got[i], want[i]) {
			t.Errorf("tick %d: expected %g, got %g", i, want[i], got[i])
		}
	}

	f.proc.SetTime(at(2000))
	f.proc.Process(st, 0, 0.5, 0.5)
	if st.acceleration != 1 {
		t.Errorf("expected acceleration to reset below the outer deadzone, got %g", st.acceleration)
	}
}

func TestFlickSnapsToQuarterTurns(t *testing.T) {
	f := newFixture(t)
	set(f, settings.RightStickMode, gamepad.StickFlick)
	set(f, settings.FlickSnapMode, gamepad.SnapFour)
	st := New(RightConfig, f.reg)

	var total float64
	for _, ms := range []int{0, 50, 100, 150} {
		f.proc.SetTime(at(ms))
		total += f.proc.Process(st, 1, 0.5, 0.05).CamX
	}
	// a quarter turn right is 90 degrees at 40 counts per degree
	if !near(total, 3600) {
		t.Errorf("expected the flick to total 3600 counts, got %g", total)
	}
	if !st.Flicking() {
		t.Error("expected the stick to still be flicking")
	}

	var turns float64
	f.proc.OnFlick = func(v float64) { turns = v }
	f.proc.SetTime(at(200))
	f.proc.Process(st, 0, 0, 0.05)
	if st.Flicking() {
		t.Error("expected the flick to end when the stick returns")
	}
	if !near(turns, 0.25) {
		t.Errorf("expected a quarter turn reported, got %g", turns)
	}
}

func TestChordedModeIgnoresBaseUntilCentered(t *testing.T) {
	f := newFixture(t)
	st := New(LeftConfig, f.reg)
	settings.MustLookup[gamepad.StickMode](f.reg, settings.LeftStickMode).Chord(gamepad.ButtonZL).Set(gamepad.StickAim)

	steps := []struct {
		chord bool
		y     float64
		want  gamepad.StickMode
	}{
		{true, 1, gamepad.StickAim},
		{false, 1, gamepad.StickInvalid},
		{false, 0, gamepad.StickInvalid},
		{false, 0, gamepad.StickNoMouse},
	}
	for i, s := range steps {
		if s.chord {
			f.ctx.Chords.Push(gamepad.ButtonZL)
		} else {
			f.ctx.Chords.Remove(gamepad.ButtonZL)
		}
		f.proc.SetTime(at(i * 3))
		f.proc.Process(st, 0, s.y, 0.003)
		if st.LastMode != s.want {
			t.Errorf("step %d: expected %s, got %s", i, s.want, st.LastMode)
		}
	}
	if len(f.keys.events) != 0 {
		t.Errorf("expected no direction presses, got %v", f.keys.events)
	}
}

func TestScrollAxisTaps(t *testing.T) {
	f := newFixture(t)
	a := NewScrollAxis(gamepad.ButtonLLeft, gamepad.ButtonLRight)

	a.Process(f.ctx, 20, 30, at(0))
	a.Process(f.ctx, 15, 30, at(3))
	a.Process(f.ctx, 0, 30, at(6))
	a.Process(f.ctx, -40, 30, at(9))
	a.Reset(f.ctx, at(12))

	want := []string{"A down", "A up", "D down", "D up"}
	if !slices.Equal(f.keys.events, want) {
		t.Errorf("expected %v, got %v", want, f.keys.events)
	}
	if a.leftover != 0 {
		t.Errorf("expected reset to drop leftovers, got %g", a.leftover)
	}
}

func TestGyroStick(t *testing.T) {
	tests := []struct {
		name   string
		inner  float64
		gyroX  float64
		output gamepad.GyroOutput
		want   stickCall
	}{
		{"gyro merged", 0, 180, gamepad.OutputRightStick, stickCall{0.5, 0, false}},
		{"gyro elsewhere", 0, 180, gamepad.OutputMouse, stickCall{0, 0, false}},
		{"rest on deadzone edge", 0.2, 0, gamepad.OutputRightStick, stickCall{0.2, 0, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			v := &fakeVirtual{}
			f.ctx.Virtual = v
			set(f, settings.GyroOutput, tt.output)
			set(f, settings.RightStickUndeadzoneInner, tt.inner)
			f.proc.GyroX = tt.gyroX

			f.proc.GyroStick(0, 0, 0, gamepad.StickRightStick, false)
			if len(v.sticks) != 1 {
				t.Fatalf("expected one stick write, got %d", len(v.sticks))
			}
			got := v.sticks[0]
			if !near(got.x, tt.want.x) || !near(got.y, tt.want.y) || got.left != tt.want.left {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
			if f.proc.GyroStickDone != (tt.output == gamepad.OutputRightStick) {
				t.Errorf("unexpected GyroStickDone %v", f.proc.GyroStickDone)
			}
		})
	}
}

func TestRotationSmoother(t *testing.T) {
	var s RotationSmoother
	if got := s.Smooth(10, 1, 2, 4); got != 10 {
		t.Errorf("input above the top threshold should pass through, got %g", got)
	}
	s.Reset()
	if got := s.Smooth(0.4, 1, 2, 4); !near(got, 0.1) {
		t.Errorf("input below the bottom threshold should be averaged, got %g", got)
	}
}

func TestEngaged(t *testing.T) {
	tests := []struct {
		name string
		mode gamepad.StickMode
		x, y float64
		want bool
	}{
		{"aim inside deadzone", gamepad.StickAim, 0.1, 0, false},
		{"aim outside deadzone", gamepad.StickAim, 0.2, 0, true},
		{"flick short of the edge", gamepad.StickFlick, 0.5, 0, false},
		{"flick at the edge", gamepad.StickFlick, 0.95, 0, true},
		{"no mouse direction", gamepad.StickNoMouse, 0, -0.5, true},
		{"no mouse centered", gamepad.StickNoMouse, 0.05, 0.05, false},
		{"mouse area never", gamepad.StickMouseArea, 1, 0, false},
	}
	t.Run("ignored base mode", func(t *testing.T) {
		f := newFixture(t)
		set(f, settings.LeftStickMode, gamepad.StickAim)
		st := New(LeftConfig, f.reg)
		st.ignoreMode = true
		if st.Engaged(0.5, 0, baseStack) {
			t.Errorf("expected a stick waiting to recenter to count as idle")
		}
	})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			set(f, settings.LeftStickMode, tt.mode)
			st := New(LeftConfig, f.reg)
			if got := st.Engaged(tt.x, tt.y, baseStack); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMouseModesWithoutKeys(t *testing.T) {
	for _, mode := range []gamepad.StickMode{gamepad.StickMouseArea, gamepad.StickMouseRing, gamepad.StickHybridAim} {
		t.Run(mode.String(), func(t *testing.T) {
			r := settings.NewRegistry()
			settings.RegisterDefaults(r, nil)
			ctx := button.NewContext(r, binding.NewTable(nil), nil)
			settings.MustLookup[gamepad.StickMode](r, settings.LeftStickMode).Set(mode)
			proc := NewProcessor(ctx, r, gamepad.SplitFull)
			st := New(LeftConfig, r)
			for i, y := range []float64{0.5, 1, 0.8, 0} {
				proc.SetTime(at(i * 3))
				proc.Process(st, 0.3, y, 0.003)
			}
		})
	}
}

func TestMouseRingCentersOnScreen(t *testing.T) {
	f := newFixture(t)
	set(f, settings.LeftStickMode, gamepad.StickMouseRing)
	set(f, settings.ScreenResolution, gamepad.FloatXY{X: 1920, Y: 1080})
	set(f, settings.MouseRingRadius, 100.0)
	st := New(LeftConfig, f.reg)

	f.proc.SetTime(at(0))
	f.proc.Process(st, 0, 1, 0.003)
	if !near(f.keys.nx, 960.5/1920) || !near(f.keys.ny, 440.5/1080) {
		t.Errorf("expected (%g, %g), got (%g, %g)", 960.5/1920, 440.5/1080, f.keys.nx, f.keys.ny)
	}
}

func TestWindNeedsBothLastAxes(t *testing.T) {
	tests := []struct {
		name         string
		lastX, lastY float64
		wound        bool
	}{
		{"axis aligned", 0, 1, false},
		{"diagonal", 0.6, 0.8, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.ctx.Virtual = &fakeVirtual{}
			in := input{x: 0.8, y: 0.6, lastX: tt.lastX, lastY: tt.lastY, length: 1, dt: 0.003}
			f.proc.wind(in, gamepad.StickLeftWindX, nil)
			if got := f.proc.windLeft != 0; got != tt.wound {
				t.Errorf("expected wound %v, got angle %g", tt.wound, f.proc.windLeft)
			}
		})
	}
}

func TestGyroStickRespectsDeadzone(t *testing.T) {
	f := newFixture(t)
	v := &fakeVirtual{}
	f.ctx.Virtual = v
	set(f, settings.LeftStickMode, gamepad.StickRightStick)
	set(f, settings.GyroOutput, gamepad.OutputMouse)
	st := New(LeftConfig, f.reg)

	for i := range 3 {
		f.proc.SetTime(at(i * 3))
		f.proc.Process(st, 0.1, 0, 0.003)
	}
	for i, c := range v.sticks {
		if c.x != 0 || c.y != 0 {
			t.Errorf("write %d: expected a centered stick inside the deadzone, got %+v", i, c)
		}
	}
	if len(v.sticks) == 0 {
		t.Errorf("expected stick writes")
	}
}
