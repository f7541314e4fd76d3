package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	o, err := Parse([]string{"-c", "game.toml", "--tick", "5", "--virtual", "ds4", "-v", "--watch=false"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.ConfigFile != "game.toml" || o.Tick != 5*time.Millisecond || o.Virtual != "DS4" || !o.Verbose || o.Watch {
		t.Errorf("unexpected options %+v", o)
	}
	if o.Addr != ":8080" {
		t.Errorf("expected the default address, got %q", o.Addr)
	}
}

func TestParseEnvironment(t *testing.T) {
	t.Setenv("JOYMAPPER_ADDR", ":9000")
	t.Setenv("JOYMAPPER_NO_TRAY", "true")

	o, err := Parse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Addr != ":9000" || !o.NoTray {
		t.Errorf("expected environment values, got %+v", o)
	}

	o, err = Parse([]string{"--addr", "127.0.0.1:1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Addr != "127.0.0.1:1" {
		t.Errorf("expected the flag to win, got %q", o.Addr)
	}
}

func TestParseErrors(t *testing.T) {
	for _, args := range [][]string{{"--tick", "-1"}, {"--no-such-flag"}} {
		if _, err := Parse(args); err == nil {
			t.Errorf("%v: expected an error", args)
		}
	}
}

func TestPreamble(t *testing.T) {
	o := Options{Virtual: "XBOX", Tick: 4 * time.Millisecond}
	want := []string{"VIRTUAL_CONTROLLER = XBOX", "TICK_TIME = 4"}
	if got := o.Preamble(); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := (Options{}).Preamble(); len(got) != 0 {
		t.Errorf("expected no preamble, got %v", got)
	}
}

type recorder struct {
	lines []string
	fail  map[string]bool
}

var errFail = errors.New("fail")

func (r *recorder) Run(line string) (string, error) {
	r.lines = append(r.lines, line)
	if r.fail[line] {
		return "", errFail
	}
	return "", nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStructuredProfile(t *testing.T) {
	path := writeFile(t, "game.toml", `
STICK_POWER = 2
E = "SPACE"
"R,GYRO_SENS" = [2, 3]
AUTOCONNECT = false
virtual_controller = "xbox"
commands = ["RECONNECT_CONTROLLERS", "SET_MOTION_STICK_NEUTRAL"]
`)
	p, err := Open(path, &recorder{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := p.Lines()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"VIRTUAL_CONTROLLER = xbox",
		"AUTOCONNECT = OFF",
		"E = SPACE",
		"STICK_POWER = 2",
		"R,GYRO_SENS = 2 3",
		"RECONNECT_CONTROLLERS",
		"SET_MOTION_STICK_NEUTRAL",
	}
	if !slices.Equal(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestYAMLProfile(t *testing.T) {
	path := writeFile(t, "game.yaml", "LEFT_STICK_MODE: AIM\nZL,E: Q\n")
	p, err := Open(path, &recorder{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := p.Lines()
	want := []string{"LEFT_STICK_MODE = AIM", "ZL,E = Q"}
	if !slices.Equal(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestScriptProfile(t *testing.T) {
	path := writeFile(t, "game.txt", "# aim setup\nRESET_MAPPINGS\n\n  RIGHT_STICK_MODE = FLICK  \nE = SPACE\n")
	p, err := Open(path, &recorder{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := p.Lines()
	want := []string{"RESET_MAPPINGS", "RIGHT_STICK_MODE = FLICK", "E = SPACE"}
	if !slices.Equal(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "missing.txt"), &recorder{}, nil); err == nil {
		t.Error("expected an error for a missing script")
	}
	bad := writeFile(t, "bad.json", "{not json")
	if _, err := Open(bad, &recorder{}, nil); err == nil {
		t.Error("expected an error for a malformed file")
	}
}

func TestApply(t *testing.T) {
	path := writeFile(t, "game.txt", "A = 1\nB = 2\nC = 3\n")
	r := &recorder{fail: map[string]bool{"B = 2": true}}
	p, err := Open(path, r, []string{"TICK_TIME = 4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Apply(); !errors.Is(err, errFail) {
		t.Errorf("expected the failure to be reported, got %v", err)
	}
	want := []string{"RESET_MAPPINGS", "TICK_TIME = 4", "A = 1", "B = 2", "C = 3"}
	if !slices.Equal(r.lines, want) {
		t.Errorf("expected %q, got %q", want, r.lines)
	}
}

func TestApplyWithoutFile(t *testing.T) {
	r := &recorder{}
	p, err := Open("", r, []string{"VIRTUAL_CONTROLLER = XBOX"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Apply(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Watch(context.Background(), nil); err != nil {
		t.Errorf("expected watching nothing to succeed, got %v", err)
	}
	want := []string{"RESET_MAPPINGS", "VIRTUAL_CONTROLLER = XBOX"}
	if !slices.Equal(r.lines, want) {
		t.Errorf("expected %q, got %q", want, r.lines)
	}
}

func TestReloadReadsFileAgain(t *testing.T) {
	path := writeFile(t, "game.json", `{"STICK_POWER": 2}`)
	r := &recorder{}
	p, err := Open(path, r, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(path, []byte(`{"STICK_POWER": 3}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := p.Reload(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last := r.lines[len(r.lines)-1]; last != "STICK_POWER = 3" {
		t.Errorf("expected the new value, got %q", last)
	}
}

func TestWatchReloads(t *testing.T) {
	path := writeFile(t, "game.txt", "E = SPACE\n")
	r := &recorder{}
	p, err := Open(path, r, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan error, 4)
	if err := p.Watch(ctx, func(err error) { reloaded <- err }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(path, []byte("E = Q\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-reloaded:
		if err != nil {
			t.Errorf("unexpected reload error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("profile was not reloaded")
	}
	if last := r.lines[len(r.lines)-1]; last != "E = Q" {
		t.Errorf("expected the new mapping, got %q", last)
	}
}
