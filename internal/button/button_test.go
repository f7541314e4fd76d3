package button

import (
	"slices"
	"testing"
	"time"

	"github.com/soar/joymapper/internal/binding"
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

func newTestContext(t *testing.T, binds map[gamepad.ButtonID]string) (*Context, *recorder) {
	t.Helper()
	r := settings.NewRegistry()
	settings.RegisterDefaults(r, nil)
	tbl := binding.NewTable(nil)
	for btn, text := range binds {
		tbl.Button(btn).Set(binding.MustParseMapping(text))
	}
	rec := &recorder{}
	return NewContext(r, tbl, rec), rec
}

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func expectEvents(t *testing.T, rec *recorder, want ...string) {
	t.Helper()
	if !slices.Equal(rec.events, want) {
		t.Errorf("expected %v, got %v", want, rec.events)
	}
}

func TestPlainPress(t *testing.T) {
	ctx, rec := newTestContext(t, map[gamepad.ButtonID]string{gamepad.ButtonS: "Q"})
	s := ctx.Button(gamepad.ButtonS)

	s.Handle(true, at(0))
	if !ctx.IsPressed(gamepad.ButtonS) {
		t.Error("a held button should be in the chord stack")
	}
	s.Handle(true, at(500))
	s.Handle(false, at(600))
	expectEvents(t, rec, "Q down", "Q up")
	if s.State() != NoPress || ctx.IsPressed(gamepad.ButtonS) {
		t.Errorf("expected NoPress and no chord, got %s", s.State())
	}
}

func TestTapAndHold(t *testing.T) {
	t.Run("tap", func(t *testing.T) {
		ctx, rec := newTestContext(t, map[gamepad.ButtonID]string{gamepad.ButtonS: "Q E"})
		s := ctx.Button(gamepad.ButtonS)
		s.Handle(true, at(0))
		s.Handle(true, at(100))
		s.Handle(false, at(149))
		if s.State() != TapPress {
			t.Fatalf("expected TapPress, got %s", s.State())
		}
		expectEvents(t, rec, "Q down")
		s.Handle(false, at(170))
		expectEvents(t, rec, "Q down")
		s.Handle(false, at(190))
		expectEvents(t, rec, "Q down", "Q up")
		if s.State() != NoPress {
			t.Errorf("expected NoPress after the tap release, got %s", s.State())
		}
	})

	t.Run("hold", func(t *testing.T) {
		ctx, rec := newTestContext(t, map[gamepad.ButtonID]string{gamepad.ButtonS: "Q E"})
		s := ctx.Button(gamepad.ButtonS)
		s.Handle(true, at(0))
		s.Handle(true, at(150))
		s.Handle(true, at(300))
		s.Handle(false, at(400))
		expectEvents(t, rec, "E down", "E up")
	})

	t.Run("hold crossed between polls", func(t *testing.T) {
		ctx, rec := newTestContext(t, map[gamepad.ButtonID]string{gamepad.ButtonS: "Q E"})
		s := ctx.Button(gamepad.ButtonS)
		s.Handle(true, at(0))
		s.Handle(false, at(200))
		expectEvents(t, rec, "E down", "E up")
	})
}

func TestTurbo(t *testing.T) {
	ctx, rec := newTestContext(t, map[gamepad.ButtonID]string{gamepad.ButtonS: "Q+"})
	s := ctx.Button(gamepad.ButtonS)
	s.Handle(true, at(0))
	s.Handle(true, at(150))
	s.Handle(true, at(190))
	s.Handle(true, at(230))
	s.Handle(true, at(270))
	s.Handle(false, at(280))
	s.Handle(false, at(320))
	expectEvents(t, rec, "Q down", "Q up", "Q down", "Q up")
}

func TestDoublePress(t *testing.T) {
	binds := map[gamepad.ButtonID]string{gamepad.ButtonS: "Q"}

	t.Run("within window", func(t *testing.T) {
		ctx, rec := newTestContext(t, binds)
		ctx.Table.Button(gamepad.ButtonS).Chord(gamepad.ButtonS).Set(binding.MustParseMapping("E"))
		s := ctx.Button(gamepad.ButtonS)
		s.Handle(true, at(0))
		s.Handle(false, at(30))
		if s.State() != DblPressNoPress {
			t.Fatalf("expected DblPressNoPress, got %s", s.State())
		}
		s.Handle(true, at(60))
		s.Handle(false, at(90))
		expectEvents(t, rec, "E down", "E up")
	})

	t.Run("gap counts from release", func(t *testing.T) {
		ctx, rec := newTestContext(t, binds)
		ctx.dblWindow.Set(150)
		ctx.Table.Button(gamepad.ButtonS).Chord(gamepad.ButtonS).Set(binding.MustParseMapping("E"))
		s := ctx.Button(gamepad.ButtonS)
		s.Handle(true, at(0))
		s.Handle(false, at(100))
		s.Handle(true, at(200))
		s.Handle(false, at(230))
		s.Handle(false, at(600))
		expectEvents(t, rec, "E down", "E up")
		if s.State() != NoPress {
			t.Errorf("expected NoPress, got %s", s.State())
		}
	})

	t.Run("window runs out", func(t *testing.T) {
		ctx, rec := newTestContext(t, binds)
		ctx.Table.Button(gamepad.ButtonS).Chord(gamepad.ButtonS).Set(binding.MustParseMapping("E"))
		s := ctx.Button(gamepad.ButtonS)
		s.Handle(true, at(0))
		s.Handle(false, at(30))
		s.Handle(false, at(100))
		expectEvents(t, rec)
		s.Handle(false, at(200))
		s.Handle(false, at(300))
		expectEvents(t, rec, "Q down", "Q up")
	})
}

func TestSimPress(t *testing.T) {
	binds := map[gamepad.ButtonID]string{gamepad.ButtonL: "Q", gamepad.ButtonR: "E"}

	t.Run("both within window", func(t *testing.T) {
		ctx, rec := newTestContext(t, binds)
		ctx.Table.Sim(gamepad.ButtonL, gamepad.ButtonR).Set(binding.MustParseMapping("TAB"))
		l, r := ctx.Button(gamepad.ButtonL), ctx.Button(gamepad.ButtonR)

		l.Handle(true, at(0))
		r.Handle(true, at(10))
		if l.State() != SimPress || r.State() != SimPress {
			t.Fatalf("expected both in SimPress, got %s and %s", l.State(), r.State())
		}
		l.Handle(false, at(40))
		if r.State() != SimRelease {
			t.Errorf("expected the held partner in SimRelease, got %s", r.State())
		}
		r.Handle(true, at(50))
		r.Handle(false, at(60))
		expectEvents(t, rec, "TAB down", "TAB up")
		if l.State() != NoPress || r.State() != NoPress {
			t.Errorf("expected both idle, got %s and %s", l.State(), r.State())
		}
	})

	t.Run("window runs out", func(t *testing.T) {
		ctx, rec := newTestContext(t, binds)
		ctx.Table.Sim(gamepad.ButtonL, gamepad.ButtonR).Set(binding.MustParseMapping("TAB"))
		l := ctx.Button(gamepad.ButtonL)
		l.Handle(true, at(0))
		l.Handle(true, at(40))
		expectEvents(t, rec)
		l.Handle(true, at(60))
		l.Handle(false, at(300))
		expectEvents(t, rec, "Q down", "Q up")
	})
}

func TestChordedMapping(t *testing.T) {
	ctx, rec := newTestContext(t, map[gamepad.ButtonID]string{gamepad.ButtonS: "SPACE"})
	ctx.Table.Button(gamepad.ButtonS).Chord(gamepad.ButtonL).Set(binding.MustParseMapping("C"))

	ctx.Button(gamepad.ButtonL).Handle(true, at(0))
	ctx.Button(gamepad.ButtonS).Handle(true, at(10))
	ctx.Button(gamepad.ButtonS).Handle(false, at(20))
	ctx.Button(gamepad.ButtonL).Handle(false, at(30))
	ctx.Button(gamepad.ButtonS).Handle(true, at(300))
	expectEvents(t, rec, "C down", "C up", "SPACE down")
}

func TestDiagonalPress(t *testing.T) {
	ctx, rec := newTestContext(t, map[gamepad.ButtonID]string{gamepad.ButtonUp: "W", gamepad.ButtonRight: "D"})
	ctx.Table.Diag(gamepad.ButtonUp, gamepad.ButtonRight).Set(binding.MustParseMapping("E"))

	ctx.Button(gamepad.ButtonUp).Handle(true, at(0))
	ctx.Button(gamepad.ButtonRight).Handle(true, at(10))
	if got := ctx.Button(gamepad.ButtonRight).State(); got != DiagPress {
		t.Fatalf("expected DiagPress, got %s", got)
	}
	ctx.Button(gamepad.ButtonRight).Handle(false, at(20))
	expectEvents(t, rec, "W down", "E down", "E up")
}

func TestGyroActionQueue(t *testing.T) {
	ctx, _ := newTestContext(t, map[gamepad.ButtonID]string{gamepad.ButtonS: "GYRO_OFF"})
	s := ctx.Button(gamepad.ButtonS)
	s.Handle(true, at(0))
	if got := ctx.GyroActions(); len(got) != 1 || got[0].Key.Code != binding.CodeGyroOff {
		t.Fatalf("expected GYRO_OFF to be queued, got %v", got)
	}
	s.Handle(false, at(500))
	if got := ctx.GyroActions(); len(got) != 0 {
		t.Errorf("expected an empty queue after release, got %v", got)
	}
}

func TestToggle(t *testing.T) {
	ctx, rec := newTestContext(t, map[gamepad.ButtonID]string{gamepad.ButtonS: "^Q"})
	s := ctx.Button(gamepad.ButtonS)
	s.Handle(true, at(0))
	s.Handle(false, at(10))
	if !ctx.HasToggle(gamepad.ButtonS) {
		t.Error("expected the toggle to be on")
	}
	s.Handle(true, at(500))
	s.Handle(false, at(510))
	expectEvents(t, rec, "Q down", "Q up")
}

func TestResetTime(t *testing.T) {
	ctx, rec := newTestContext(t, map[gamepad.ButtonID]string{gamepad.ButtonS: "Q E"})
	s := ctx.Button(gamepad.ButtonS)
	s.Handle(true, at(0))
	s.Send(ResetTime, at(100))
	if d := s.Duration(at(200)); d != 100*time.Millisecond {
		t.Errorf("expected 100ms, got %s", d)
	}
	s.Handle(true, at(200))
	expectEvents(t, rec)
}

func TestInvalidStateResets(t *testing.T) {
	ctx, _ := newTestContext(t, nil)
	s := ctx.Button(gamepad.ButtonS)
	s.state = State(42)
	s.Handle(false, at(0))
	if s.State() != NoPress {
		t.Errorf("expected NoPress, got %s", s.State())
	}
}
