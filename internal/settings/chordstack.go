package settings

import "github.com/soar/joymapper/internal/gamepad"

// ChordStack lists the currently held chord buttons, most recent first. The last
// entry is always gamepad.ButtonNone. It is not safe for concurrent use; the owning
// controller's lock guards it.
type ChordStack struct {
	items []gamepad.ButtonID
}

func NewChordStack() *ChordStack {
	return &ChordStack{items: []gamepad.ButtonID{gamepad.ButtonNone}}
}

// Push puts btn in front. A button already in the stack keeps its place.
func (c *ChordStack) Push(btn gamepad.ButtonID) {
	if btn == gamepad.ButtonNone || c.Contains(btn) {
		return
	}
	c.items = append(c.items, 0)
	copy(c.items[1:], c.items)
	c.items[0] = btn
}

// Remove drops btn wherever it is in the stack.
func (c *ChordStack) Remove(btn gamepad.ButtonID) {
	if btn == gamepad.ButtonNone {
		return
	}
	out := c.items[:0]
	for _, b := range c.items {
		if b != btn {
			out = append(out, b)
		}
	}
	c.items = out
}

func (c *ChordStack) Contains(btn gamepad.ButtonID) bool {
	for _, b := range c.items {
		if b == btn {
			return true
		}
	}
	return false
}

// Items returns the stack. The slice is only valid until the next mutation.
func (c *ChordStack) Items() []gamepad.ButtonID {
	return c.items
}

// Snapshot returns a copy of the stack.
func (c *ChordStack) Snapshot() []gamepad.ButtonID {
	out := make([]gamepad.ButtonID, len(c.items))
	copy(out, c.items)
	return out
}

// Len counts held chords, the trailing sentinel excluded.
func (c *ChordStack) Len() int {
	return len(c.items) - 1
}

// Clear drops every held chord.
func (c *ChordStack) Clear() {
	c.items = append(c.items[:0], gamepad.ButtonNone)
}
