// Package settings holds the live, chord-aware configuration values read by the
// mapping engine. A Variable is a single observable value with a validating filter;
// a Setting adds per-chord overrides; the Registry maps SettingIDs to Settings.
//
// Each Variable locks only around its own value. Reading several related settings
// is not atomic: a chord press or an assignment may land in between.
package settings

import "sync"

// Filter validates a proposed value against the current one and returns the value
// to keep. Returning current rejects the proposal.
type Filter[T any] func(current, next T) T

// Listener observes value changes.
type Listener[T any] interface {
	OnChange(value T)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc[T any] func(T)

func (f ListenerFunc[T]) OnChange(v T) { f(v) }

type subscription[T any] struct {
	l Listener[T]
}

// Variable is a named, observable value cell with a default.
type Variable[T comparable] struct {
	mu        sync.RWMutex
	value     T
	def       T
	filter    Filter[T]
	listeners []*subscription[T]
}

// NewVariable returns a Variable holding def.
func NewVariable[T comparable](def T) *Variable[T] {
	return &Variable[T]{value: def, def: def}
}

func (v *Variable[T]) Value() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

func (v *Variable[T]) Default() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.def
}

// SetFilter installs the validator used by Set. It returns v for chaining.
func (v *Variable[T]) SetFilter(f Filter[T]) *Variable[T] {
	v.mu.Lock()
	v.filter = f
	v.mu.Unlock()
	return v
}

// Set proposes next. The filtered result is stored and listeners fire when the
// stored value changed. Set reports whether next was accepted as given.
func (v *Variable[T]) Set(next T) bool {
	v.mu.Lock()
	kept := next
	if v.filter != nil {
		kept = v.filter(v.value, next)
	}
	changed := kept != v.value
	v.value = kept
	subs := v.snapshot()
	v.mu.Unlock()

	if changed {
		notify(subs, kept)
	}
	return kept == next
}

// Reset restores the default and always notifies listeners.
func (v *Variable[T]) Reset() {
	v.mu.Lock()
	v.value = v.def
	val := v.value
	subs := v.snapshot()
	v.mu.Unlock()
	notify(subs, val)
}

// Subscribe registers l and returns a function that removes it.
func (v *Variable[T]) Subscribe(l Listener[T]) (cancel func()) {
	s := &subscription[T]{l: l}
	v.mu.Lock()
	v.listeners = append(v.listeners, s)
	v.mu.Unlock()
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		for i, o := range v.listeners {
			if o == s {
				v.listeners = append(v.listeners[:i:i], v.listeners[i+1:]...)
				return
			}
		}
	}
}

// SubscribeNow is Subscribe followed by an immediate notification with the current value.
func (v *Variable[T]) SubscribeNow(l Listener[T]) (cancel func()) {
	cancel = v.Subscribe(l)
	l.OnChange(v.Value())
	return cancel
}

func (v *Variable[T]) snapshot() []*subscription[T] {
	if len(v.listeners) == 0 {
		return nil
	}
	out := make([]*subscription[T], len(v.listeners))
	copy(out, v.listeners)
	return out
}

func notify[T any](subs []*subscription[T], val T) {
	for _, s := range subs {
		s.l.OnChange(val)
	}
}
