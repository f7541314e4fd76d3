// Package binding describes what each controller button does: the output key
// vocabulary, the per-event action lists of a mapping and the table that holds
// base, chorded, simultaneous, diagonal and double press mappings.
package binding

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Event is a point in a button's press lifecycle that can carry actions.
type Event int

const (
	OnPress Event = iota
	OnRelease
	OnTap
	OnTapRelease
	OnHold
	OnHoldRelease
	OnTurbo
	numEvents
)

var eventNames = [numEvents]string{"press", "release", "tap", "tap release", "hold", "hold release", "turbo"}

func (e Event) String() string {
	if e >= 0 && e < numEvents {
		return eventNames[e]
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

const (
	// TapDuration is how long a tap keeps its key down.
	TapDuration = 40 * time.Millisecond
	// ExtendedTapDuration applies to taps of gyro actions, which need to span a few polls.
	ExtendedTapDuration = 500 * time.Millisecond
	// InstantDuration is how long an instant action stays applied.
	InstantDuration = 40 * time.Millisecond
)

// Action is one thing a mapping does at an event.
type Action struct {
	Key KeyCode
	// Release undoes Key instead of applying it.
	Release bool
	// Toggle flips Key between applied and released.
	Toggle bool
	// Instant releases Key InstantDuration after applying it.
	Instant bool
}

func (a Action) String() string {
	switch {
	case a.Toggle:
		return "toggle " + a.Key.String()
	case a.Release:
		return "release " + a.Key.String()
	case a.Instant:
		return "instant " + a.Key.String()
	}
	return "apply " + a.Key.String()
}

// Mapping is the immutable result of parsing a binding such as "Q E_".
type Mapping struct {
	text        string
	events      [numEvents][]Action
	tapDuration time.Duration
	hasVirtual  bool
}

// None is the empty mapping.
var None = &Mapping{text: "NONE", tapDuration: TapDuration}

var (
	// ErrTooManyKeys is returned when more than two keys carry no event modifier.
	ErrTooManyKeys = errors.New("at most two keys may omit an event modifier")
	// ErrBadMapping is returned for malformed binding text.
	ErrBadMapping = errors.New("bad mapping")
)

type eventModifier int

const (
	modNone eventModifier = iota
	modPress
	modRelease
	modTap
	modHold
	modTurbo
)

type actionModifier int

const (
	actNone actionModifier = iota
	actToggle
	actInstant
)

type token struct {
	key KeyCode
	evt eventModifier
	act actionModifier
}

// ParseMapping parses binding text. A single plain key is pressed while the button
// is held; two plain keys are a tap binding followed by a hold binding. Keys may
// carry one event suffix (\ press, / release, ' tap, _ hold, + turbo) and one
// action prefix (^ toggle, ! instant).
func ParseMapping(text string) (*Mapping, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, "NONE") {
		return None, nil
	}
	fields, err := splitKeys(text)
	if err != nil {
		return nil, err
	}

	tokens := make([]token, 0, len(fields))
	plain := 0
	explicitHold := false
	for _, f := range fields {
		tok, err := parseToken(f)
		if err != nil {
			return nil, err
		}
		switch tok.evt {
		case modNone:
			plain++
		case modHold, modTurbo:
			explicitHold = true
		}
		tokens = append(tokens, tok)
	}
	if plain > 2 {
		return nil, fmt.Errorf("%w: %q", ErrTooManyKeys, text)
	}

	m := &Mapping{text: text, tapDuration: TapDuration}
	seen := 0
	for _, tok := range tokens {
		if tok.evt == modNone {
			switch {
			case plain == 2 && seen == 0:
				tok.evt = modTap
			case plain == 2:
				tok.evt = modHold
			case explicitHold:
				tok.evt = modTap
			default:
				tok.evt = modPress
			}
			seen++
		}
		m.add(tok)
	}
	return m, nil
}

// MustParseMapping is ParseMapping for literals.
func MustParseMapping(text string) *Mapping {
	m, err := ParseMapping(text)
	if err != nil {
		panic(err)
	}
	return m
}

// splitKeys splits on spaces, keeping quoted console commands whole.
func splitKeys(text string) ([]string, error) {
	var out []string
	for text = strings.TrimSpace(text); text != ""; text = strings.TrimSpace(text) {
		start := 0
		for start < len(text) && (text[start] == '^' || text[start] == '!') {
			start++
		}
		if start < len(text) && text[start] == '"' {
			end := strings.IndexByte(text[start+1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated command in %q", ErrBadMapping, text)
			}
			end += start + 2
			// a suffix may follow the closing quote
			if end < len(text) && strings.IndexByte(`\/'_+`, text[end]) >= 0 {
				end++
			}
			out = append(out, text[:end])
			text = text[end:]
			continue
		}
		end := strings.IndexAny(text, " \t")
		if end < 0 {
			end = len(text)
		}
		out = append(out, text[:end])
		text = text[end:]
	}
	return out, nil
}

func parseToken(f string) (token, error) {
	var tok token
	if len(f) > 1 {
		switch f[0] {
		case '^':
			tok.act = actToggle
			f = f[1:]
		case '!':
			tok.act = actInstant
			f = f[1:]
		}
	}
	if len(f) > 1 {
		switch f[len(f)-1] {
		case '\\':
			tok.evt = modPress
		case '/':
			tok.evt = modRelease
		case '\'':
			tok.evt = modTap
		case '_':
			tok.evt = modHold
		case '+':
			tok.evt = modTurbo
		}
		if tok.evt != modNone {
			f = f[:len(f)-1]
		}
	}
	k, err := ParseKeyCode(f)
	if err != nil {
		return token{}, fmt.Errorf("%w: %v", ErrBadMapping, err)
	}
	tok.key = k
	return tok, nil
}

func (m *Mapping) add(tok token) {
	k := tok.key
	m.hasVirtual = m.hasVirtual || k.IsVirtual()
	if k.IsGyroAction() {
		m.tapDuration = ExtendedTapDuration
	}

	apply := Action{Key: k}
	release := Action{Key: k, Release: true}
	hasRelease := true
	switch tok.act {
	case actToggle:
		apply.Toggle = true
		hasRelease = false
	case actInstant:
		apply.Instant = true
		hasRelease = false
	}

	var on, off Event
	switch tok.evt {
	case modPress:
		on, off = OnPress, OnRelease
	case modRelease:
		on = OnRelease
		if tok.act == actNone {
			apply.Instant = true
		}
		hasRelease = false
	case modTap:
		on, off = OnTap, OnTapRelease
	case modHold:
		on, off = OnHold, OnHoldRelease
	case modTurbo:
		on = OnTurbo
		if tok.act == actNone {
			apply.Instant = true
		}
		hasRelease = false
	}
	m.events[on] = append(m.events[on], apply)
	if hasRelease && k.Code != CodeNoHold {
		m.events[off] = append(m.events[off], release)
	}
}

// Actions returns the actions bound to e.
func (m *Mapping) Actions(e Event) []Action {
	if m == nil || e < 0 || e >= numEvents {
		return nil
	}
	return m.events[e]
}

// IsNone reports whether the mapping does nothing.
func (m *Mapping) IsNone() bool {
	if m == nil {
		return true
	}
	for _, a := range m.events {
		if len(a) > 0 {
			return false
		}
	}
	return true
}

// HasTapOrHold reports whether a press must wait to be classified.
func (m *Mapping) HasTapOrHold() bool {
	return len(m.Actions(OnTap)) > 0 || len(m.Actions(OnHold)) > 0 || len(m.Actions(OnTurbo)) > 0
}

// HasHold reports whether holding the button past HOLD_PRESS_TIME does something.
func (m *Mapping) HasHold() bool {
	return len(m.Actions(OnHold)) > 0
}

func (m *Mapping) HasTurbo() bool {
	return len(m.Actions(OnTurbo)) > 0
}

// TapDuration is how long tap actions stay applied.
func (m *Mapping) TapDuration() time.Duration {
	if m == nil {
		return TapDuration
	}
	return m.tapDuration
}

// HasVirtual reports whether the mapping presses virtual controller buttons.
func (m *Mapping) HasVirtual() bool {
	return m != nil && m.hasVirtual
}

func (m *Mapping) String() string {
	if m == nil {
		return None.text
	}
	return m.text
}
