package trigger

import (
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
}

func (r *recorder) PressKey(k binding.KeyCode, pressed bool) {
	if pressed {
		r.events = append(r.events, k.Name+" down")
	} else {
		r.events = append(r.events, k.Name+" up")
	}
}

func (r *recorder) MoveMouse(dx, dy float64)  {}
func (r *recorder) SetMouseNorm(x, y float64) {}

type fakeVirtual struct {
	left, right float64
}

func (f *fakeVirtual) Scheme() gamepad.ControllerScheme      { return gamepad.SchemeXbox }
func (f *fakeVirtual) SetButton(binding.VirtualButton, bool) {}
func (f *fakeVirtual) SetStick(x, y float64, left bool)      {}
func (f *fakeVirtual) SetLeftTrigger(v float64)              { f.left = v }
func (f *fakeVirtual) SetRightTrigger(v float64)             { f.right = v }
func (f *fakeVirtual) SetGyro(accel, gyro [3]float64)        {}
func (f *fakeVirtual) Update() error                         { return nil }
func (f *fakeVirtual) Close() error                          { return nil }

func newContext(t *testing.T) (*button.Context, *recorder) {
	t.Helper()
	r := settings.NewRegistry()
	settings.RegisterDefaults(r, nil)
	tbl := binding.NewTable(nil)
	tbl.Button(gamepad.ButtonZL).Set(binding.MustParseMapping("Q"))
	tbl.Button(gamepad.ButtonZLF).Set(binding.MustParseMapping("E"))
	rec := &recorder{}
	return button.NewContext(r, tbl, rec), rec
}

func params(mode gamepad.TriggerMode, threshold float64) Params {
	return Params{
		Mode:      mode,
		Threshold: threshold,
		Offset:    25,
		Range:     150,
		SkipDelay: 150 * time.Millisecond,
		TickMs:    3,
	}
}

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func expectEvents(t *testing.T, rec *recorder, want ...string) {
	t.Helper()
	if !slices.Equal(rec.events, want) {
		t.Errorf("expected %v, got %v", want, rec.events)
	}
}

func TestThresholdIsMonotonic(t *testing.T) {
	m := New(gamepad.ButtonZL, gamepad.ButtonZLF)
	for _, threshold := range []float64{0, 0.25, 0.5, 0.99} {
		for pos := 0.0; pos <= 1; pos += 0.05 {
			if got, want := m.softPullPressed(pos, threshold), pos > threshold; got != want {
				t.Errorf("threshold %g position %g: expected %v, got %v", threshold, pos, want, got)
			}
		}
	}
}

func TestHairTrigger(t *testing.T) {
	m := New(gamepad.ButtonZL, gamepad.ButtonZLF)
	var got []bool
	for _, pos := range []float64{0.1, 0.2, 0.3} {
		got = append(got, m.softPullPressed(pos, -1))
	}
	if want := []bool{false, false, true}; !slices.Equal(got, want) {
		t.Errorf("rising pull: expected %v, got %v", want, got)
	}

	m.history = [historySize]float64{0.5, 0.5, 0.5, 0.5, 0.5}
	if m.softPullPressed(0.5, -1) {
		t.Error("a still trigger in NoPress should stay released")
	}
	m.state = SoftPress
	if !m.softPullPressed(0.5, -1) {
		t.Error("a still trigger in SoftPress should stay pressed")
	}

	m.history = [historySize]float64{0.9, 0.8, 0.7, 0.6, 0.5}
	if m.softPullPressed(0.4, -1) {
		t.Error("a falling trigger should release")
	}
}

func TestNoSkipSoftPress(t *testing.T) {
	ctx, rec := newContext(t)
	m := New(gamepad.ButtonZL, gamepad.ButtonZLF)
	p := params(gamepad.TriggerNoSkip, 0.3)

	m.Handle(ctx, p, 0.4, at(0))
	if m.State() != SoftPress {
		t.Fatalf("expected SoftPress, got %s", m.State())
	}
	expectEvents(t, rec, "Q down")

	m.Handle(ctx, p, 0, at(10))
	if m.State() != NoPress {
		t.Errorf("expected NoPress, got %s", m.State())
	}
	expectEvents(t, rec, "Q down", "Q up")
}

func TestMaySkipQuickFullPress(t *testing.T) {
	ctx, rec := newContext(t)
	m := New(gamepad.ButtonZL, gamepad.ButtonZLF)
	p := params(gamepad.TriggerMaySkip, 0.3)

	m.Handle(ctx, p, 0.5, at(0))
	if m.State() != PressStart {
		t.Fatalf("expected PressStart, got %s", m.State())
	}
	m.Handle(ctx, p, 1, at(20))
	m.Handle(ctx, p, 1, at(40))
	m.Handle(ctx, p, 0, at(60))
	m.Handle(ctx, p, 0, at(80))
	if m.State() != NoPress {
		t.Errorf("expected NoPress, got %s", m.State())
	}
	expectEvents(t, rec, "E down", "E up")
}

func TestMustSkipAfterDelay(t *testing.T) {
	ctx, rec := newContext(t)
	m := New(gamepad.ButtonZL, gamepad.ButtonZLF)
	p := params(gamepad.TriggerMustSkip, 0.3)

	m.Handle(ctx, p, 0.45, at(0))
	m.Handle(ctx, p, 0.45, at(100))
	expectEvents(t, rec)
	m.Handle(ctx, p, 0.45, at(160))
	if m.State() != SoftPress {
		t.Fatalf("expected SoftPress after the skip delay, got %s", m.State())
	}
	expectEvents(t, rec, "Q down")
	if got, want := m.Effect().Start, uint8(100); got != want {
		t.Errorf("expected resistance to start at the pull point %d, got %d", want, got)
	}
}

func TestQuickSoftTap(t *testing.T) {
	ctx, rec := newContext(t)
	m := New(gamepad.ButtonZL, gamepad.ButtonZLF)
	p := params(gamepad.TriggerMaySkip, 0.3)

	m.Handle(ctx, p, 0.5, at(0))
	m.Handle(ctx, p, 0, at(20))
	if m.State() != QuickSoftTap {
		t.Fatalf("expected QuickSoftTap, got %s", m.State())
	}
	m.Handle(ctx, p, 0, at(40))
	expectEvents(t, rec, "Q down", "Q up")
}

func TestEffectResetsInNoPress(t *testing.T) {
	tests := []struct {
		mode  gamepad.TriggerMode
		force uint16
	}{
		{gamepad.TriggerNoFull, 65535},
		{gamepad.TriggerNoSkip, 6554},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			ctx, _ := newContext(t)
			m := New(gamepad.ButtonZL, gamepad.ButtonZLF)
			p := params(tt.mode, 0.3)
			for i, pos := range []float64{0.5, 0.6, 0.7, 1, 0.6, 0, 0} {
				m.Handle(ctx, p, pos, at(i*3))
			}
			if m.State() != NoPress {
				t.Fatalf("expected NoPress, got %s", m.State())
			}
			if got := m.Effect().Force; got != tt.force {
				t.Errorf("expected force %d, got %d", tt.force, got)
			}
		})
	}
}

func TestDigitalTriggersIgnoreFullPull(t *testing.T) {
	ctx, rec := newContext(t)
	m := New(gamepad.ButtonZL, gamepad.ButtonZLF)
	p := params(gamepad.TriggerMaySkip, 0)
	p.DigitalTriggers = true

	m.Handle(ctx, p, 1, at(0))
	m.Handle(ctx, p, 1, at(3))
	if m.State() != SoftPress {
		t.Errorf("expected SoftPress, got %s", m.State())
	}
	expectEvents(t, rec, "Q down")
}

func TestNativeTrigger(t *testing.T) {
	ctx, rec := newContext(t)
	v := &fakeVirtual{}
	ctx.Virtual = v
	m := New(gamepad.ButtonZL, gamepad.ButtonZLF)
	p := params(gamepad.TriggerXLT, 0)

	m.Handle(ctx, p, 0.5, at(0))
	if v.left != 0.5 {
		t.Errorf("expected the virtual left trigger at 0.5, got %g", v.left)
	}
	if !ctx.IsPressed(gamepad.ButtonZL) || ctx.IsPressed(gamepad.ButtonZLF) {
		t.Error("a half pull should chord ZL only")
	}
	m.Handle(ctx, p, 1, at(3))
	if !ctx.IsPressed(gamepad.ButtonZLF) {
		t.Error("a full pull should chord ZLF")
	}
	m.Handle(ctx, p, 0, at(6))
	if ctx.IsPressed(gamepad.ButtonZL) {
		t.Error("a released trigger should leave the chord stack")
	}
	expectEvents(t, rec)
}

func TestInvalidStateResets(t *testing.T) {
	ctx, _ := newContext(t)
	m := New(gamepad.ButtonZL, gamepad.ButtonZLF)
	m.state = State(77)
	m.Handle(ctx, params(gamepad.TriggerNoSkip, 0.3), 0, at(0))
	if m.State() != NoPress {
		t.Errorf("expected NoPress, got %s", m.State())
	}
}
