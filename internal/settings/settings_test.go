package settings

import (
	"errors"
	"slices"
	"testing"

	"github.com/soar/joymapper/internal/gamepad"
)

func TestVariableFilterRejects(t *testing.T) {
	v := NewVariable(0.5).SetFilter(filterFloat)
	if v.Set(0x1p-1030) {
		t.Error("subnormal value should be rejected")
	}
	if v.Value() != 0.5 {
		t.Errorf("expected 0.5 after rejection, got %g", v.Value())
	}
	if !v.Set(2) || v.Value() != 2 {
		t.Errorf("expected 2 to be accepted, got %g", v.Value())
	}
}

func TestVariableListeners(t *testing.T) {
	v := NewVariable(1)
	var got []int
	cancel := v.Subscribe(ListenerFunc[int](func(n int) { got = append(got, n) }))

	v.Set(2)
	v.Set(2) // unchanged, no notification
	v.Reset()
	v.Reset() // reset always notifies

	want := []int{2, 1, 1}
	if !slices.Equal(got, want) {
		t.Errorf("expected notifications %v, got %v", want, got)
	}

	cancel()
	v.Set(5)
	if len(got) != len(want) {
		t.Error("cancelled listener should not be notified")
	}
}

func TestSubscribeNow(t *testing.T) {
	v := NewVariable("a")
	var got string
	v.SubscribeNow(ListenerFunc[string](func(s string) { got = s }))
	if got != "a" {
		t.Errorf("expected immediate notification with %q, got %q", "a", got)
	}
}

func TestChordStack(t *testing.T) {
	c := NewChordStack()
	if c.Len() != 0 || c.Items()[0] != gamepad.ButtonNone {
		t.Fatalf("new stack should only hold NONE, got %v", c.Items())
	}

	c.Push(gamepad.ButtonL)
	c.Push(gamepad.ButtonR)
	c.Push(gamepad.ButtonL) // already held
	want := []gamepad.ButtonID{gamepad.ButtonR, gamepad.ButtonL, gamepad.ButtonNone}
	if !slices.Equal(c.Items(), want) {
		t.Errorf("expected %v, got %v", want, c.Items())
	}

	c.Remove(gamepad.ButtonL)
	want = []gamepad.ButtonID{gamepad.ButtonR, gamepad.ButtonNone}
	if !slices.Equal(c.Items(), want) {
		t.Errorf("expected %v after removing from the middle, got %v", want, c.Items())
	}

	c.Remove(gamepad.ButtonNone)
	if c.Items()[c.Len()] != gamepad.ButtonNone {
		t.Error("the NONE sentinel cannot be removed")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty stack after Clear, got %v", c.Items())
	}
}

func TestSettingResolve(t *testing.T) {
	s := NewSetting(StickPower, 1.0, parseFloat)
	s.Chord(gamepad.ButtonL).Set(3)
	s.Chord(gamepad.ButtonR).Set(5)

	tests := []struct {
		name  string
		stack []gamepad.ButtonID
		want  float64
	}{
		{"no chord", []gamepad.ButtonID{gamepad.ButtonNone}, 1},
		{"one chord", []gamepad.ButtonID{gamepad.ButtonL, gamepad.ButtonNone}, 3},
		{"most recent wins", []gamepad.ButtonID{gamepad.ButtonR, gamepad.ButtonL, gamepad.ButtonNone}, 5},
		{"chord without override", []gamepad.ButtonID{gamepad.ButtonE, gamepad.ButtonNone}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Resolve(tt.stack); got != tt.want {
				t.Errorf("expected %g, got %g", tt.want, got)
			}
		})
	}
}

func TestSettingResolveWith(t *testing.T) {
	s := NewSetting(LeftStickMode, gamepad.StickNoMouse, nil)
	s.Chord(gamepad.ButtonL).Set(gamepad.StickInvalid)

	skipInvalid := func(_ gamepad.ButtonID, m gamepad.StickMode, ok bool) (gamepad.StickMode, bool) {
		return m, ok && m != gamepad.StickInvalid
	}
	got, err := s.ResolveWith([]gamepad.ButtonID{gamepad.ButtonL, gamepad.ButtonNone}, skipInvalid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != gamepad.StickNoMouse {
		t.Errorf("expected fallthrough to base value, got %s", got)
	}

	s.Set(gamepad.StickInvalid)
	_, err = s.ResolveWith([]gamepad.ButtonID{gamepad.ButtonL, gamepad.ButtonNone}, skipInvalid)
	if !errors.Is(err, ErrUnresolved) {
		t.Errorf("expected ErrUnresolved, got %v", err)
	}
}

func TestSettingAssign(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r, nil)
	e, ok := r.Find("stick_power")
	if !ok {
		t.Fatal("STICK_POWER should be registered")
	}

	if _, err := e.Assign(gamepad.ButtonNone, "2.5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Display(gamepad.ButtonNone) != "2.5" {
		t.Errorf("expected 2.5, got %s", e.Display(gamepad.ButtonNone))
	}
	if _, err := e.Assign(gamepad.ButtonN, "4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(e.Chords(), []gamepad.ButtonID{gamepad.ButtonN}) {
		t.Errorf("expected a chord on N, got %v", e.Chords())
	}
	if _, err := e.Assign(gamepad.ButtonN, "NONE"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.Chords()) != 0 {
		t.Error("assigning NONE to a chord should remove it")
	}
	if _, err := e.Assign(gamepad.ButtonNone, "DEFAULT"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Display(gamepad.ButtonNone) != "1" {
		t.Errorf("expected default 1, got %s", e.Display(gamepad.ButtonNone))
	}
	if _, err := e.Assign(gamepad.ButtonNone, "banana"); err == nil {
		t.Error("expected a parse error")
	}
}

func TestLookupErrors(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r, nil)

	if _, err := Lookup[float64](r, StickPower); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := Lookup[int](r, StickPower); !errors.Is(err, ErrWrongType) {
		t.Errorf("expected ErrWrongType, got %v", err)
	}
	if _, err := Lookup[float64](NewRegistry(), StickPower); !errors.Is(err, ErrUnknownSetting) {
		t.Errorf("expected ErrUnknownSetting, got %v", err)
	}
}

func TestEverySettingRegistered(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r, nil)
	for id := SettingID(0); id < numSettings; id++ {
		if _, ok := r.Entry(id); !ok {
			t.Errorf("%s has no registered setting", id)
		}
	}
}

func TestRingModeFollowsStickMode(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r, nil)
	stick := MustLookup[gamepad.StickMode](r, RightStickMode)
	ring := MustLookup[gamepad.RingMode](r, RightRingMode)

	stick.Set(gamepad.StickInnerRing)
	if ring.Value() != gamepad.RingInner {
		t.Errorf("expected INNER ring, got %s", ring.Value())
	}
	stick.Set(gamepad.StickOuterRing)
	if ring.Value() != gamepad.RingOuter {
		t.Errorf("expected OUTER ring, got %s", ring.Value())
	}
}

func TestHoldPressTimeAboveSimWindow(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r, nil)
	hold := MustLookup[float64](r, HoldPressTime)

	if hold.Set(50) {
		t.Error("hold press time equal to the sim press window should be rejected")
	}
	if hold.Value() != 150 {
		t.Errorf("expected 150, got %g", hold.Value())
	}
	if !hold.Set(51) {
		t.Error("hold press time above the sim press window should be accepted")
	}
}

type fakeVirtual struct {
	scheme gamepad.ControllerScheme
	ready  bool
}

func (f fakeVirtual) Scheme() gamepad.ControllerScheme { return f.scheme }
func (f fakeVirtual) Ready() bool                      { return f.ready }

func TestVirtualModesNeedController(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r, fakeVirtual{scheme: gamepad.SchemeNone})

	zl := MustLookup[gamepad.TriggerMode](r, ZLMode)
	if zl.Set(gamepad.TriggerXLT) {
		t.Error("X_LT should need a virtual controller")
	}
	left := MustLookup[gamepad.StickMode](r, LeftStickMode)
	if left.Set(gamepad.StickLeftStick) {
		t.Error("LEFT_STICK should need a virtual controller")
	}
	if left.Set(gamepad.StickLeftSteerX) {
		t.Error("steering modes are for the motion stick only")
	}
	motion := MustLookup[gamepad.StickMode](r, MotionStickMode)
	if !motion.Set(gamepad.StickLeftSteerX) {
		t.Error("the motion stick should accept steering modes")
	}

	r = NewRegistry()
	RegisterDefaults(r, fakeVirtual{scheme: gamepad.SchemeXbox, ready: true})
	if !MustLookup[gamepad.TriggerMode](r, ZRMode).Set(gamepad.TriggerXRT) {
		t.Error("X_RT should be accepted with a ready virtual controller")
	}
	if MustLookup[gamepad.GyroOutput](r, GyroOutput).Set(gamepad.OutputPSMotion) {
		t.Error("PS_MOTION should need a DS4 virtual controller")
	}
}

func TestFilters(t *testing.T) {
	if got := filterTickTime(3, 0.2); got != 1 {
		t.Errorf("tick time should clamp to 1, got %g", got)
	}
	if got := filterTickTime(3, 250); got != 100 {
		t.Errorf("tick time should clamp to 100, got %g", got)
	}
	if got := filterClampByte(0, 300); got != 255 {
		t.Errorf("expected 255, got %d", got)
	}
	grid := gamepad.FloatXY{X: 2, Y: 1}
	if got := filterGridSize(grid, gamepad.FloatXY{X: 6, Y: 5}); got != grid {
		t.Errorf("a 6x5 grid exceeds the cell limit, got %v", got)
	}
	if got := filterGridSize(grid, gamepad.FloatXY{X: 5, Y: 5}); got.X != 5 || got.Y != 5 {
		t.Errorf("expected 5x5, got %v", got)
	}
}

func TestParseTriggerEffect(t *testing.T) {
	e, err := parseTriggerEffect("RESISTANCE 10 200 180")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Mode != gamepad.EffectResistance || e.Start != 10 || e.End != 200 || e.Force != 180 {
		t.Errorf("unexpected effect %+v", e)
	}
	if _, err := parseTriggerEffect("WOBBLE"); err == nil {
		t.Error("expected an error for an unknown effect")
	}
}
