package hub

import (
	"time"

	"github.com/soar/joymapper/internal/gamepad"
)

// WSMessage represents a WebSocket message sent from server to client.
type WSMessage struct {
	Type        string                `json:"type"`                  // "full", "delta", "controllers" or "controller_selected"
	Seq         int64                 `json:"seq"`                   // Sequence number for ordering
	Timestamp   int64                 `json:"timestamp"`             // Unix timestamp in milliseconds
	Handle      int                   `json:"handle,omitempty"`      // Controller the message is about
	Data        *gamepad.State        `json:"data,omitempty"`        // Full state for type "full"
	Changes     *gamepad.DeltaChanges `json:"changes,omitempty"`     // Delta changes for type "delta"
	Controllers []ControllerInfo      `json:"controllers,omitempty"` // Connected controllers for type "controllers"
}

// ControllerInfo is one entry of the "controllers" list.
type ControllerInfo struct {
	Handle         int    `json:"handle"`
	Name           string `json:"name"`
	ControllerType string `json:"controllerType"`
	Split          string `json:"split"`
}

func NewFullMessage(seq int64, state *gamepad.State) *WSMessage {
	return &WSMessage{
		Type:      "full",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Handle:    state.Handle,
		Data:      state,
	}
}

func NewDeltaMessage(seq int64, handle int, changes *gamepad.DeltaChanges) *WSMessage {
	return &WSMessage{
		Type:      "delta",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Handle:    handle,
		Changes:   changes,
	}
}

// NewControllersMessage lists the connected controllers. An empty list is
// omitted from the encoding.
func NewControllersMessage(seq int64, list []ControllerInfo) *WSMessage {
	return &WSMessage{
		Type:        "controllers",
		Seq:         seq,
		Timestamp:   time.Now().UnixMilli(),
		Controllers: list,
	}
}

func NewControllerSelectedMessage(handle int) *WSMessage {
	return &WSMessage{
		Type:      "controller_selected",
		Timestamp: time.Now().UnixMilli(),
		Handle:    handle,
	}
}

// ClientMessage represents a message sent from the client to the server.
type ClientMessage struct {
	Type   string `json:"type"`
	Handle int    `json:"handle,omitempty"`
}
