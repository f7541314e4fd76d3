package settings

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/soar/joymapper/internal/gamepad"
)

// Parser converts command text into a setting value.
type Parser[T any] func(text string) (T, error)

// PostProcess may adjust the value found (or not found, ok=false) at one chord level
// while a Setting is resolved. Returning ok=false moves on to the next chord.
type PostProcess[T any] func(chord gamepad.ButtonID, v T, ok bool) (T, bool)

// Setting is a Variable with per-chord overrides. The override for a chord button
// is active while that button is in the caller's ChordStack.
type Setting[T comparable] struct {
	*Variable[T]

	id     SettingID
	name   string
	parse  Parser[T]
	format func(T) string

	mu     sync.RWMutex
	chords map[gamepad.ButtonID]*Variable[T]
}

// NewSetting returns a Setting whose base value is def.
func NewSetting[T comparable](id SettingID, def T, parse Parser[T]) *Setting[T] {
	return &Setting[T]{
		Variable: NewVariable(def),
		id:       id,
		parse:    parse,
		chords:   make(map[gamepad.ButtonID]*Variable[T]),
	}
}

func (s *Setting[T]) ID() SettingID { return s.id }

func (s *Setting[T]) Name() string {
	if s.name != "" {
		return s.name
	}
	return s.id.String()
}

// Named sets the display name of a setting that is not in the SettingID table,
// such as a button mapping. It returns s for chaining.
func (s *Setting[T]) Named(name string) *Setting[T] {
	s.name = name
	return s
}

// SetFormat overrides how values are displayed. It returns s for chaining.
func (s *Setting[T]) SetFormat(f func(T) string) *Setting[T] {
	s.format = f
	return s
}

// WithFilter installs f on the base value and on every chord created later.
func (s *Setting[T]) WithFilter(f Filter[T]) *Setting[T] {
	s.Variable.SetFilter(f)
	return s
}

// Chord returns the override for btn, creating it from the base default when absent.
// ButtonNone returns the base Variable.
func (s *Setting[T]) Chord(btn gamepad.ButtonID) *Variable[T] {
	if btn == gamepad.ButtonNone {
		return s.Variable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.chords[btn]; ok {
		return v
	}
	s.Variable.mu.RLock()
	v := NewVariable(s.Variable.def)
	v.filter = s.Variable.filter
	s.Variable.mu.RUnlock()
	s.chords[btn] = v
	return v
}

// ChordValue returns the override for btn, or the base value for ButtonNone.
func (s *Setting[T]) ChordValue(btn gamepad.ButtonID) (T, bool) {
	if btn == gamepad.ButtonNone {
		return s.Value(), true
	}
	s.mu.RLock()
	v, ok := s.chords[btn]
	s.mu.RUnlock()
	if !ok {
		var zero T
		return zero, false
	}
	return v.Value(), true
}

// RemoveChord drops the override for btn.
func (s *Setting[T]) RemoveChord(btn gamepad.ButtonID) {
	s.mu.Lock()
	delete(s.chords, btn)
	s.mu.Unlock()
}

// Chords lists the buttons that carry an override, in ButtonID order.
func (s *Setting[T]) Chords() []gamepad.ButtonID {
	s.mu.RLock()
	out := make([]gamepad.ButtonID, 0, len(s.chords))
	for b := range s.chords {
		out = append(out, b)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Resolve walks stack most recent first and returns the first value found.
func (s *Setting[T]) Resolve(stack []gamepad.ButtonID) T {
	for _, chord := range stack {
		if v, ok := s.ChordValue(chord); ok {
			return v
		}
	}
	return s.Value()
}

// ResolveWith is Resolve with a per-level hook. It fails with ErrUnresolved when
// the hook skipped every level.
func (s *Setting[T]) ResolveWith(stack []gamepad.ButtonID, post PostProcess[T]) (T, error) {
	for _, chord := range stack {
		v, ok := s.ChordValue(chord)
		if post != nil {
			v, ok = post(chord, v, ok)
		}
		if ok {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %s", ErrUnresolved, s.Name())
}

// ResetAll restores the base default and drops every chord override.
func (s *Setting[T]) ResetAll() {
	s.mu.Lock()
	clear(s.chords)
	s.mu.Unlock()
	s.Reset()
}

// Assign parses text and sets the value at chord. "DEFAULT" resets it and, for a chord
// level, "NONE" removes the override when NONE is not itself a valid value.
func (s *Setting[T]) Assign(chord gamepad.ButtonID, text string) (accepted bool, err error) {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, "DEFAULT") {
		s.Chord(chord).Reset()
		return true, nil
	}
	if s.parse == nil {
		return false, fmt.Errorf("%s cannot be assigned", s.Name())
	}
	v, err := s.parse(text)
	if err != nil {
		if chord != gamepad.ButtonNone && strings.EqualFold(text, "NONE") {
			s.RemoveChord(chord)
			return true, nil
		}
		return false, err
	}
	return s.Chord(chord).Set(v), nil
}

// Display formats the value at chord, or the base value.
func (s *Setting[T]) Display(chord gamepad.ButtonID) string {
	v, ok := s.ChordValue(chord)
	if !ok {
		return "NONE"
	}
	return s.Format(v)
}

// Format renders v the way commands accept it.
func (s *Setting[T]) Format(v T) string {
	if s.format != nil {
		return s.format(v)
	}
	return fmt.Sprint(v)
}
