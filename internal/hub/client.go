package hub

import (
	"encoding/json"
	"log"
	"slices"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// Selector lists the controllers a client may watch.
type Selector interface {
	Handles() []int
}

// Client represents a connected WebSocket client.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	handle atomic.Int64 // controller watched, 0 follows the primary one
}

// NewClient creates a new Client attached to the hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Handle is the controller this client watches, 0 for the primary one.
func (c *Client) Handle() int {
	return int(c.handle.Load())
}

// Select makes the client watch handle.
func (c *Client) Select(handle int) {
	c.handle.Store(int64(handle))
}

// WritePump sends messages from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// ReadPump reads client commands until the connection closes. selected runs after
// the client switched controllers.
func (c *Client) ReadPump(sel Selector, selected func(*Client)) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var clientMsg ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			log.Printf("Error parsing client message: %v", err)
			continue
		}
		c.handleMessage(clientMsg, sel, selected)
	}
}

func (c *Client) handleMessage(m ClientMessage, sel Selector, selected func(*Client)) {
	switch m.Type {
	case "select_controller":
		if m.Handle != 0 && !slices.Contains(sel.Handles(), m.Handle) {
			log.Printf("Client asked for unknown controller %d", m.Handle)
			return
		}
		c.Select(m.Handle)
		data, _ := json.Marshal(NewControllerSelectedMessage(m.Handle))
		c.hub.SendTo(c, data)
		if selected != nil {
			selected(c)
		}
		log.Printf("Client switched to controller %d", m.Handle)
	default:
		log.Printf("Unknown client message %q", m.Type)
	}
}
