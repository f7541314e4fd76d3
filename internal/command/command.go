// Package command runs the console language: setting and button assignments
// such as "LEFT_STICK_MODE = AIM", "R,GYRO_SENS = 2" or "E = SPACE", value
// queries, and named commands such as RESET_MAPPINGS.
package command

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"strconv"
	"sync"
	"time"

	"github.com/soar/joymapper/internal/binding"
	"github.com/soar/joymapper/internal/gamepad"
	"github.com/soar/joymapper/internal/settings"
)

var (
	// ErrUnknownCommand is returned for a line naming no command, setting or button.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrBadValue is returned when an assignment is not understood or is rejected.
	ErrBadValue = errors.New("bad value")
)

const (
	gyroOffName = "GYRO_OFF"
	maxSleep    = 10 * time.Second
)

// Handler runs a named command. args is the rest of the line, trimmed.
type Handler func(args string) (string, error)

type named struct {
	run  Handler
	help string
}

// Dispatcher parses and runs command lines. It is safe for concurrent use;
// lines run one at a time.
type Dispatcher struct {
	reg   *settings.Registry
	table *binding.Table

	mu       sync.Mutex
	commands map[string]named

	queue chan string
}

func New(reg *settings.Registry, table *binding.Table) *Dispatcher {
	d := &Dispatcher{
		reg:      reg,
		table:    table,
		commands: make(map[string]named),
		queue:    make(chan string, 32),
	}
	d.Register("HELP", "List the commands, or show the help of one.", d.help)
	d.Register("RESET_MAPPINGS", "Restore every setting and button mapping to its default.", func(string) (string, error) {
		d.reg.ResetAll()
		d.table.Reset()
		return "All settings and mappings have been reset", nil
	})
	d.Register("SLEEP", "Wait for the given number of seconds, at most 10.", sleep)
	return d
}

// Register adds a named command. Names are case insensitive.
func (d *Dispatcher) Register(name, help string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands[strings.ToUpper(name)] = named{run: h, help: help}
}

// Names lists the named commands in order.
func (d *Dispatcher) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.commands))
	for n := range d.commands {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

func (d *Dispatcher) lookup(name string) (named, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.commands[name]
	return c, ok
}

func (d *Dispatcher) help(args string) (string, error) {
	if args == "" {
		return "Commands: " + strings.Join(d.Names(), ", "), nil
	}
	name := strings.ToUpper(strings.Fields(args)[0])
	if c, ok := d.lookup(name); ok {
		return name + ": " + c.help, nil
	}
	if _, ok := d.reg.Find(name); ok || name == gyroOffName {
		return name + " is a setting. Type " + name + " to see its value.", nil
	}
	if _, ok := settings.Aliases[name]; ok {
		return name + " sets several settings at once.", nil
	}
	if b := gamepad.ParseButtonID(name); b >= 0 {
		return name + " is a button. Assign it keys, for example " + name + " = SPACE.", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCommand, name)
}

// Run executes one line and returns the text to show. Blank lines and lines
// starting with # do nothing.
func (d *Dispatcher) Run(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", nil
	}
	lhs, rhs, assign := strings.Cut(line, "=")
	if !assign {
		name, args, _ := strings.Cut(line, " ")
		name = strings.ToUpper(name)
		args = strings.TrimSpace(args)
		if c, ok := d.lookup(name); ok {
			return c.run(args)
		}
		if strings.EqualFold(args, "HELP") {
			return d.help(name)
		}
		return d.query(name)
	}
	return d.assign(strings.ToUpper(strings.TrimSpace(lhs)), strings.TrimSpace(rhs))
}

// Exec runs line and logs the outcome.
func (d *Dispatcher) Exec(line string) {
	out, err := d.Run(line)
	switch {
	case err != nil:
		log.Printf("%s: %v", strings.TrimSpace(line), err)
	case out != "":
		log.Println(out)
	}
}

// Enqueue schedules line to run on the Serve goroutine. It never blocks: a line
// arriving while the queue is full is dropped.
func (d *Dispatcher) Enqueue(line string) {
	select {
	case d.queue <- line:
	default:
		log.Printf("Command queue full, dropping %q", line)
	}
}

// Serve runs enqueued lines until ctx is done.
func (d *Dispatcher) Serve(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case line := <-d.queue:
			d.Exec(line)
		}
	}
}

func sleep(args string) (string, error) {
	secs := 1.0
	if args != "" {
		v, err := strconv.ParseFloat(args, 64)
		if err != nil || v < 0 {
			return "", fmt.Errorf("%w: SLEEP takes a number of seconds, got %q", ErrBadValue, args)
		}
		secs = min(v, maxSleep.Seconds())
	}
	time.Sleep(time.Duration(secs * float64(time.Second)))
	return "", nil
}

// target is the left hand side of an assignment.
type target struct {
	op    byte // 0, ',' chord, '+' sim or '*' diag
	left  gamepad.ButtonID
	name  string
	label string
}

func parseTarget(lhs string) (target, error) {
	t := target{name: lhs, label: lhs}
	if lhs == "" {
		return t, fmt.Errorf("%w: nothing to assign to", ErrBadValue)
	}
	// the first byte may be the + button itself
	if j := strings.IndexAny(lhs[1:], ",+*"); j >= 0 {
		i := j + 1
		chord := gamepad.ParseButtonID(lhs[:i])
		if chord < 0 {
			return t, fmt.Errorf("%w: %s", ErrUnknownCommand, lhs[:i])
		}
		t.op, t.left, t.name = lhs[i], chord, strings.TrimSpace(lhs[i+1:])
		t.label = strings.TrimSpace(lhs[:i]) + string(lhs[i]) + t.name
	}
	return t, nil
}

func (d *Dispatcher) assign(lhs, rhs string) (string, error) {
	t, err := parseTarget(lhs)
	if err != nil {
		return "", err
	}
	if rhs == "" {
		return "", fmt.Errorf("%w: nothing assigned to %s", ErrBadValue, t.label)
	}

	if t.op == '+' || t.op == '*' {
		return d.assignPair(t, rhs)
	}
	chord := gamepad.ButtonNone
	if t.op == ',' {
		chord = t.left
	}

	if t.name == gyroOffName {
		return d.assignGyroOff(t, chord, rhs)
	}
	if ids, ok := settings.Aliases[t.name]; ok {
		var lines []string
		for _, id := range ids {
			e, ok := d.reg.Entry(id)
			if !ok {
				return "", fmt.Errorf("%w: %s", ErrUnknownCommand, id)
			}
			out, err := d.assignSetting(e, t.label, chord, rhs)
			if err != nil {
				return "", err
			}
			lines = append(lines, out)
		}
		return strings.Join(lines, "\n"), nil
	}
	if e, ok := d.reg.Find(t.name); ok {
		return d.assignSetting(e, t.label, chord, rhs)
	}

	btn := gamepad.ParseButtonID(t.name)
	s := d.table.Button(btn)
	if s == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, t.name)
	}
	if chord != gamepad.ButtonNone && strings.EqualFold(rhs, "NONE") {
		s.RemoveChord(chord)
		return t.label + " has been removed", nil
	}
	accepted, err := s.Assign(chord, rhs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadValue, err)
	}
	if !accepted {
		return "", fmt.Errorf("%w: %s rejected %s", ErrBadValue, t.label, rhs)
	}
	return t.label + " mapped to " + s.Display(chord), nil
}

func (d *Dispatcher) assignSetting(e settings.Entry, label string, chord gamepad.ButtonID, rhs string) (string, error) {
	if chord != gamepad.ButtonNone {
		label = chord.String() + "," + e.Name()
	} else {
		label = e.Name()
	}
	accepted, err := e.Assign(chord, rhs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadValue, err)
	}
	if !accepted {
		log.Printf("%s: rejected value %s", label, rhs)
		return "", fmt.Errorf("%w: %s kept %s", ErrBadValue, label, e.Display(chord))
	}
	if chord != gamepad.ButtonNone && e.Display(chord) == "NONE" {
		return "Modeshift " + label + " has been removed", nil
	}
	return label + " has been set to " + e.Display(chord), nil
}

func (d *Dispatcher) assignGyroOff(t target, chord gamepad.ButtonID, rhs string) (string, error) {
	s, err := settings.Lookup[gamepad.GyroSettings](d.reg, settings.GyroOn)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(rhs, "DEFAULT") {
		s.Chord(chord).Reset()
		return t.label + " has been reset", nil
	}
	g, ok := gamepad.ParseGyroSettings(rhs)
	if !ok {
		if chord != gamepad.ButtonNone && strings.EqualFold(rhs, "NONE") {
			s.RemoveChord(chord)
			return "Modeshift " + t.label + " has been removed", nil
		}
		return "", fmt.Errorf("%w: invalid gyro button %q", ErrBadValue, rhs)
	}
	g.AlwaysOff = true
	if !s.Chord(chord).Set(g) {
		return "", fmt.Errorf("%w: %s rejected %s", ErrBadValue, t.label, rhs)
	}
	return t.label + " has been set to " + g.String(), nil
}

func (d *Dispatcher) assignPair(t target, rhs string) (string, error) {
	other := gamepad.ParseButtonID(t.name)
	if d.table.Button(t.left) == nil || d.table.Button(other) == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, t.label)
	}
	if t.left == other {
		return "", fmt.Errorf("%w: %s pairs a button with itself", ErrBadValue, t.label)
	}
	var v *settings.Variable[*binding.Mapping]
	if t.op == '+' {
		v = d.table.Sim(t.left, other)
	} else {
		v = d.table.Diag(t.left, other)
	}
	if strings.EqualFold(rhs, "DEFAULT") {
		v.Reset()
		return t.label + " has been reset", nil
	}
	m, err := binding.ParseMapping(rhs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadValue, err)
	}
	if !v.Set(m) {
		return "", fmt.Errorf("%w: %s rejected %s", ErrBadValue, t.label, rhs)
	}
	return t.label + " mapped to " + m.String(), nil
}

// query shows the value of a setting or mapping, chorded or not.
func (d *Dispatcher) query(name string) (string, error) {
	t, err := parseTarget(name)
	if err != nil {
		return "", err
	}
	chord := gamepad.ButtonNone
	switch t.op {
	case ',':
		chord = t.left
	case '+', '*':
		other := gamepad.ParseButtonID(t.name)
		var m *binding.Mapping
		var ok bool
		if t.op == '+' {
			m, ok = d.table.SimMapping(t.left, other)
		} else {
			m, ok = d.table.DiagMapping(t.left, other)
		}
		if !ok {
			m = binding.None
		}
		return t.label + " = " + m.String(), nil
	}

	if t.name == gyroOffName {
		s, err := settings.Lookup[gamepad.GyroSettings](d.reg, settings.GyroOn)
		if err != nil {
			return "", err
		}
		v, ok := s.ChordValue(chord)
		if !ok || !v.AlwaysOff {
			return t.label + " = NONE", nil
		}
		return t.label + " = " + v.String(), nil
	}
	if ids, ok := settings.Aliases[t.name]; ok {
		var lines []string
		for _, id := range ids {
			if e, ok := d.reg.Entry(id); ok {
				lines = append(lines, e.Name()+" = "+e.Display(chord))
			}
		}
		return strings.Join(lines, "\n"), nil
	}
	if e, ok := d.reg.Find(t.name); ok {
		return t.label + " = " + e.Display(chord), nil
	}
	if s := d.table.Button(gamepad.ParseButtonID(t.name)); s != nil {
		return t.label + " = " + s.Display(chord), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCommand, name)
}
