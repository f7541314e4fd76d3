package hub

import (
	"context"
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/soar/joymapper/internal/gamepad"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func join(t *testing.T, h *Hub, handle int) *Client {
	t.Helper()
	c := NewClient(h, nil)
	c.Select(handle)
	n := h.Count()
	if !h.Register(c) {
		t.Fatal("hub stopped")
	}
	deadline := time.Now().Add(time.Second)
	for h.Count() == n {
		if time.Now().After(deadline) {
			t.Fatal("client was not registered")
		}
		time.Sleep(time.Millisecond)
	}
	return c
}

func drain(t *testing.T, c *Client) []WSMessage {
	t.Helper()
	var out []WSMessage
	for {
		select {
		case data := <-c.send:
			var m WSMessage
			if err := json.Unmarshal(data, &m); err != nil {
				t.Fatalf("bad message %s: %v", data, err)
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func ofType(msgs []WSMessage, typ string) []WSMessage {
	return slices.DeleteFunc(slices.Clone(msgs), func(m WSMessage) bool { return m.Type != typ })
}

func connected(handle int, name string) gamepad.State {
	return gamepad.State{Connected: true, Handle: handle, Name: name, ControllerType: "dualsense", Split: "full"}
}

func TestBroadcastFollowsSelection(t *testing.T) {
	h := startHub(t)
	primary := join(t, h, 0)
	second := join(t, h, 7)
	b := NewBroadcaster(h, nil)

	b.update(connected(3, "pad three"))
	b.update(connected(7, "pad seven"))

	got := drain(t, primary)
	if full := ofType(got, "full"); len(full) != 1 || full[0].Handle != 3 {
		t.Errorf("expected the primary follower to get controller 3, got %+v", full)
	}
	lists := ofType(got, "controllers")
	if len(lists) != 2 || len(lists[1].Controllers) != 2 || lists[1].Controllers[0].Handle != 3 {
		t.Errorf("expected two controller lists ending with both pads, got %+v", lists)
	}
	if full := ofType(drain(t, second), "full"); len(full) != 1 || full[0].Handle != 7 {
		t.Errorf("expected the second client to get controller 7, got %+v", full)
	}

	next := connected(3, "pad three")
	next.Pressed = []string{"E"}
	b.update(next)
	b.update(next)
	delta := ofType(drain(t, primary), "delta")
	if len(delta) != 1 || delta[0].Handle != 3 || !slices.Equal(delta[0].Changes.Pressed, []string{"E"}) {
		t.Errorf("expected one delta with E pressed, got %+v", delta)
	}
	if got := drain(t, second); len(got) != 0 {
		t.Errorf("expected nothing for the second client, got %+v", got)
	}

	b.update(gamepad.State{Handle: 3})
	full := ofType(drain(t, primary), "full")
	if len(full) != 1 || full[0].Data.Connected {
		t.Errorf("expected a disconnected state, got %+v", full)
	}
	b.update(gamepad.State{Connected: true, Handle: 7, Name: "pad seven", Pressed: []string{"S"}})
	if delta := ofType(drain(t, primary), "delta"); len(delta) != 1 || delta[0].Handle != 7 {
		t.Errorf("expected the follower to move to controller 7, got %+v", delta)
	}
}

func TestPeriodicFullSync(t *testing.T) {
	h := startHub(t)
	c := join(t, h, 0)
	b := NewBroadcaster(h, nil)
	b.update(connected(1, "pad"))
	drain(t, c)

	s := connected(1, "pad")
	for i := range deltaCountSync {
		s.Sticks.Left.Position.X = float64(i%2+1) * 0.25
		b.update(s)
	}
	got := drain(t, c)
	if n := len(ofType(got, "full")); n != 1 {
		t.Errorf("expected one full resync after %d deltas, got %d", deltaCountSync, n)
	}
	if n := len(ofType(got, "delta")); n != deltaCountSync-1 {
		t.Errorf("expected %d deltas, got %d", deltaCountSync-1, n)
	}
}

type handles []int

func (h handles) Handles() []int { return h }

func TestSelectController(t *testing.T) {
	h := startHub(t)
	c := join(t, h, 0)
	var selected int
	onSelect := func(c *Client) { selected = c.Handle() }

	c.handleMessage(ClientMessage{Type: "select_controller", Handle: 9}, handles{3, 7}, onSelect)
	if c.Handle() != 0 || selected != 0 {
		t.Errorf("expected an unknown controller to be refused, got %d", c.Handle())
	}
	c.handleMessage(ClientMessage{Type: "select_controller", Handle: 7}, handles{3, 7}, onSelect)
	if c.Handle() != 7 || selected != 7 {
		t.Errorf("expected controller 7, got %d", c.Handle())
	}
	msgs := ofType(drain(t, c), "controller_selected")
	if len(msgs) != 1 || msgs[0].Handle != 7 {
		t.Errorf("expected a confirmation for 7, got %+v", msgs)
	}
}

func TestSendInitialState(t *testing.T) {
	h := startHub(t)
	b := NewBroadcaster(h, nil)
	b.update(connected(4, "pad four"))
	b.update(connected(2, "pad two"))

	c := join(t, h, 0)
	b.SendInitialState(c)
	got := drain(t, c)
	if len(got) != 2 || got[0].Type != "controllers" || got[1].Type != "full" || got[1].Handle != 2 {
		t.Errorf("expected the list then controller 2, got %+v", got)
	}
}

func TestUnregisterAfterStop(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	c := join(t, h, 0)
	cancel()
	<-done

	if h.Register(NewClient(h, nil)) {
		t.Error("expected registration to fail after stop")
	}
	h.Unregister(c)
	if _, open := <-c.send; open {
		t.Error("expected the send channel to be closed")
	}
}
