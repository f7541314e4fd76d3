package settings

import (
	"fmt"
	"sort"
	"sync"

	"github.com/soar/joymapper/internal/gamepad"
)

// Entry is the type-erased view of a Setting used by command dispatch.
type Entry interface {
	ID() SettingID
	Name() string
	Assign(chord gamepad.ButtonID, text string) (accepted bool, err error)
	Display(chord gamepad.ButtonID) string
	Chords() []gamepad.ButtonID
	RemoveChord(chord gamepad.ButtonID)
	ResetAll()
}

// Registry maps SettingIDs to their Settings. One Registry is shared by every
// controller and by the command goroutines.
type Registry struct {
	mu      sync.RWMutex
	entries map[SettingID]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[SettingID]Entry)}
}

// Add registers s under its id. Registering an id twice is a programming error.
func Add[T comparable](r *Registry, s *Setting[T]) *Setting[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.entries[s.ID()]; dup {
		panic(fmt.Sprintf("settings: %s registered twice", s.ID()))
	}
	r.entries[s.ID()] = s
	return s
}

// Lookup returns the Setting registered under id with value type T.
func Lookup[T comparable](r *Registry, id SettingID) (*Setting[T], error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, id)
	}
	s, ok := e.(*Setting[T])
	if !ok {
		var zero T
		return nil, fmt.Errorf("%w: %s is not %T", ErrWrongType, id, zero)
	}
	return s, nil
}

// MustLookup is Lookup for ids the caller registered itself.
func MustLookup[T comparable](r *Registry, id SettingID) *Setting[T] {
	s, err := Lookup[T](r, id)
	if err != nil {
		panic(err)
	}
	return s
}

// Entry returns the type-erased setting for id.
func (r *Registry) Entry(id SettingID) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// Find returns the setting named name.
func (r *Registry) Find(name string) (Entry, bool) {
	id, ok := ParseSettingID(name)
	if !ok {
		return nil, false
	}
	return r.Entry(id)
}

// Entries lists every registered setting in id order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// ResetAll resets every setting to its default and removes all chord overrides.
func (r *Registry) ResetAll() {
	for _, e := range r.Entries() {
		e.ResetAll()
	}
}

// Key is a typed handle on a registered setting.
type Key[T comparable] struct {
	ID SettingID
}

// In returns the Setting the key refers to in r.
func (k Key[T]) In(r *Registry) (*Setting[T], error) {
	return Lookup[T](r, k.ID)
}
