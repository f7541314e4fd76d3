package hub

import (
	"context"
	"encoding/json"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/soar/joymapper/internal/gamepad"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
)

// Broadcaster listens for controller state changes and broadcasts them to the hub.
type Broadcaster struct {
	hub     *Hub
	changes <-chan gamepad.State

	mu     sync.Mutex
	last   map[int]gamepad.State
	deltas map[int]int
	seq    int64
}

func NewBroadcaster(h *Hub, changes <-chan gamepad.State) *Broadcaster {
	return &Broadcaster{
		hub:     h,
		changes: changes,
		last:    make(map[int]gamepad.State),
		deltas:  make(map[int]int),
	}
}

// Run starts the broadcaster loop until ctx is done or the changes channel closes.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-b.changes:
			if !ok {
				return
			}
			b.update(state)
		case <-ticker.C:
			b.syncAll()
		}
	}
}

func (b *Broadcaster) update(state gamepad.State) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := state.Handle
	old, known := b.last[h]
	if !state.Connected {
		if !known {
			return
		}
		primary := h == b.primaryLocked()
		delete(b.last, h)
		delete(b.deltas, h)
		b.seq++
		b.send(NewFullMessage(b.seq, &state), h, primary)
		b.sendControllersLocked()
		return
	}

	b.last[h] = state
	if !known {
		b.seq++
		b.send(NewFullMessage(b.seq, &state), h, h == b.primaryLocked())
		b.sendControllersLocked()
		return
	}

	delta := gamepad.ComputeDelta(old, state)
	if delta.IsEmpty() {
		return
	}
	b.seq++
	b.deltas[h]++
	if b.deltas[h] >= deltaCountSync {
		b.deltas[h] = 0
		b.send(NewFullMessage(b.seq, &state), h, h == b.primaryLocked())
		return
	}
	b.send(NewDeltaMessage(b.seq, h, delta), h, h == b.primaryLocked())
}

func (b *Broadcaster) syncAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	primary := b.primaryLocked()
	for h, state := range b.last {
		b.seq++
		b.send(NewFullMessage(b.seq, &state), h, h == primary)
	}
}

// primaryLocked is the lowest connected handle, or 0 without controllers.
func (b *Broadcaster) primaryLocked() int {
	handles := b.handlesLocked()
	if len(handles) == 0 {
		return 0
	}
	return handles[0]
}

func (b *Broadcaster) handlesLocked() []int {
	handles := make([]int, 0, len(b.last))
	for h := range b.last {
		handles = append(handles, h)
	}
	slices.Sort(handles)
	return handles
}

func (b *Broadcaster) controllersLocked() []ControllerInfo {
	var list []ControllerInfo
	for _, h := range b.handlesLocked() {
		s := b.last[h]
		list = append(list, ControllerInfo{Handle: h, Name: s.Name, ControllerType: s.ControllerType, Split: s.Split})
	}
	return list
}

func (b *Broadcaster) sendControllersLocked() {
	b.seq++
	if data, ok := encode(NewControllersMessage(b.seq, b.controllersLocked())); ok {
		b.hub.BroadcastAll(data)
	}
}

func (b *Broadcaster) send(msg *WSMessage, handle int, primary bool) {
	if data, ok := encode(msg); ok {
		b.hub.BroadcastTo(data, handle, primary)
	}
}

// SendInitialState sends the controller list and the watched controller's full
// state to c.
func (b *Broadcaster) SendInitialState(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	if data, ok := encode(NewControllersMessage(b.seq, b.controllersLocked())); ok {
		b.hub.SendTo(c, data)
	}
	h := c.Handle()
	if h == 0 {
		h = b.primaryLocked()
	}
	state, ok := b.last[h]
	if !ok {
		return
	}
	b.seq++
	if data, ok := encode(NewFullMessage(b.seq, &state)); ok {
		b.hub.SendTo(c, data)
	}
}

func encode(msg *WSMessage) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling %s message: %v", msg.Type, err)
		return nil, false
	}
	return data, true
}
