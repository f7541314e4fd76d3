package binding

import (
	"log"
	"sync"

	"github.com/soar/joymapper/internal/gamepad"
	"github.com/soar/joymapper/internal/settings"
)

type pairEntry struct {
	partner gamepad.ButtonID
	mapping *settings.Variable[*Mapping]
}

// Table holds every button's mappings. It is shared by all controllers; a button's
// chord overrides live in its Setting, and a chord on the button itself is its
// double press mapping.
type Table struct {
	env settings.VirtualOutput

	mu      sync.RWMutex
	buttons map[gamepad.ButtonID]*settings.Setting[*Mapping]
	sim     map[gamepad.ButtonID][]pairEntry
	diag    map[gamepad.ButtonID][]pairEntry
}

// NewTable returns a table where every button maps to None. env may be nil when
// virtual controller keys are always accepted.
func NewTable(env settings.VirtualOutput) *Table {
	t := &Table{
		env:     env,
		buttons: make(map[gamepad.ButtonID]*settings.Setting[*Mapping]),
		sim:     make(map[gamepad.ButtonID][]pairEntry),
		diag:    make(map[gamepad.ButtonID][]pairEntry),
	}
	for b := gamepad.ButtonID(0); b < gamepad.NumButtons; b++ {
		t.buttons[b] = t.newSetting(b.String())
	}
	for b := gamepad.ButtonT1; b < gamepad.ButtonT1+gamepad.MaxGridCells; b++ {
		t.buttons[b] = t.newSetting(b.String())
	}
	return t
}

func (t *Table) newSetting(name string) *settings.Setting[*Mapping] {
	s := settings.NewSetting(settings.ButtonMapping, None, ParseMapping).Named(name)
	s.SetFormat((*Mapping).String)
	s.WithFilter(t.filter)
	return s
}

func (t *Table) filter(current, next *Mapping) *Mapping {
	if next.HasVirtual() && t.env != nil && t.env.Scheme() == gamepad.SchemeNone {
		log.Printf("Before using virtual controller keys, you need to set %s", settings.VirtualController)
		return current
	}
	return next
}

func (t *Table) newVariable() *settings.Variable[*Mapping] {
	return settings.NewVariable(None).SetFilter(t.filter)
}

// Button returns the mapping Setting of btn, or nil for a button that takes no mapping.
func (t *Table) Button(btn gamepad.ButtonID) *settings.Setting[*Mapping] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.buttons[btn]
}

// Resolve returns btn's mapping under the chord stack. The button's own entry in
// the stack is skipped: a chord on itself is the double press mapping.
func (t *Table) Resolve(btn gamepad.ButtonID, stack []gamepad.ButtonID) *Mapping {
	s := t.Button(btn)
	if s == nil {
		return None
	}
	for _, chord := range stack {
		if chord == btn {
			continue
		}
		if m, ok := s.ChordValue(chord); ok {
			return m
		}
	}
	return s.Value()
}

// DoublePress returns btn's double press mapping.
func (t *Table) DoublePress(btn gamepad.ButtonID) (*Mapping, bool) {
	s := t.Button(btn)
	if s == nil {
		return nil, false
	}
	m, ok := s.ChordValue(btn)
	if !ok || m.IsNone() {
		return nil, false
	}
	return m, true
}

// Sim returns the Variable holding the simultaneous press mapping of a and b,
// creating it. The pair is stored under both buttons.
func (t *Table) Sim(a, b gamepad.ButtonID) *settings.Variable[*Mapping] {
	return t.pair(t.sim, a, b)
}

// Diag returns the Variable holding the diagonal press mapping of a and b, creating it.
func (t *Table) Diag(a, b gamepad.ButtonID) *settings.Variable[*Mapping] {
	return t.pair(t.diag, a, b)
}

func (t *Table) pair(m map[gamepad.ButtonID][]pairEntry, a, b gamepad.ButtonID) *settings.Variable[*Mapping] {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range m[a] {
		if e.partner == b {
			return e.mapping
		}
	}
	v := t.newVariable()
	m[a] = append(m[a], pairEntry{partner: b, mapping: v})
	if a != b {
		m[b] = append(m[b], pairEntry{partner: a, mapping: v})
	}
	return v
}

// SimPartners lists the buttons btn has simultaneous press mappings with, in the
// order they were declared.
func (t *Table) SimPartners(btn gamepad.ButtonID) []gamepad.ButtonID {
	return t.partners(t.sim, btn)
}

// DiagPartners lists btn's diagonal press partners in declaration order.
func (t *Table) DiagPartners(btn gamepad.ButtonID) []gamepad.ButtonID {
	return t.partners(t.diag, btn)
}

func (t *Table) partners(m map[gamepad.ButtonID][]pairEntry, btn gamepad.ButtonID) []gamepad.ButtonID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []gamepad.ButtonID
	for _, e := range m[btn] {
		if !e.mapping.Value().IsNone() {
			out = append(out, e.partner)
		}
	}
	return out
}

// SimMapping returns the simultaneous press mapping of a and b.
func (t *Table) SimMapping(a, b gamepad.ButtonID) (*Mapping, bool) {
	return t.lookup(t.sim, a, b)
}

// DiagMapping returns the diagonal press mapping of a and b.
func (t *Table) DiagMapping(a, b gamepad.ButtonID) (*Mapping, bool) {
	return t.lookup(t.diag, a, b)
}

func (t *Table) lookup(m map[gamepad.ButtonID][]pairEntry, a, b gamepad.ButtonID) (*Mapping, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, e := range m[a] {
		if e.partner == b {
			v := e.mapping.Value()
			return v, !v.IsNone()
		}
	}
	return nil, false
}

// Reset restores every mapping to None and forgets all sim and diag pairs.
func (t *Table) Reset() {
	t.mu.Lock()
	clear(t.sim)
	clear(t.diag)
	buttons := make([]*settings.Setting[*Mapping], 0, len(t.buttons))
	for _, s := range t.buttons {
		buttons = append(buttons, s)
	}
	t.mu.Unlock()
	for _, s := range buttons {
		s.ResetAll()
	}
}
