package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soar/joymapper/internal/gamepad"
	"github.com/soar/joymapper/internal/hub"
)

type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) Run(line string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	if strings.HasPrefix(line, "BAD") {
		return "", errors.New("unknown command")
	}
	if strings.HasPrefix(line, "SLEEP") {
		return "", nil
	}
	return line + " done", nil
}

type handles []int

func (h handles) Handles() []int { return h }

var page = fstest.MapFS{
	"index.html": {Data: []byte("<!doctype html>\n<html>\n  <body>\n    <p>  hello  </p>\n  </body>\n</html>\n")},
	"style.css":  {Data: []byte("body {\n  color: red;\n}\n")},
}

func newServer(t *testing.T, cmd Commander) (*httptest.Server, chan<- gamepad.State) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub()
	go h.Run(ctx)
	changes := make(chan gamepad.State, 4)
	b := hub.NewBroadcaster(h, changes)
	go b.Run(ctx)

	ts := httptest.NewServer(New(h, b, handles{1}, cmd, page, "").Handler())
	t.Cleanup(ts.Close)
	return ts, changes
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+path, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestExecute(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"E = SPACE", "E = SPACE done"},
		{"E = SPACE\n\n  S = ESC  \n", "E = SPACE done\nS = ESC done"},
		{"BAD\nE", "error: unknown command\nE done"},
		{"SLEEP 1", ""},
	}
	for _, tt := range tests {
		if got := execute(&recorder{}, tt.text); got != tt.want {
			t.Errorf("execute(%q): expected %q, got %q", tt.text, tt.want, got)
		}
	}
}

func TestStatusPageIsMinified(t *testing.T) {
	ts, _ := newServer(t, &recorder{})

	resp, err := http.Get(ts.URL + "/style.css")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "body{color:red}" {
		t.Errorf("expected minified css, got %q", body)
	}

	resp, err = http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "hello") || strings.Contains(string(body), "\n") {
		t.Errorf("expected minified html, got %q", body)
	}
}

func TestCommandSocket(t *testing.T) {
	cmd := &recorder{}
	ts, _ := newServer(t, cmd)
	conn := dial(t, ts, "/cmd")

	for _, tt := range []struct{ send, want string }{
		{"GYRO_SENS = 2", "GYRO_SENS = 2 done"},
		{"BAD", "error: unknown command"},
		{"SLEEP 0", "ok"},
	} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.send)); err != nil {
			t.Fatal(err)
		}
		_, reply, err := conn.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		if string(reply) != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.send, tt.want, reply)
		}
	}
	cmd.mu.Lock()
	defer cmd.mu.Unlock()
	if len(cmd.lines) != 3 {
		t.Errorf("expected 3 commands, got %v", cmd.lines)
	}
}

func TestTelemetrySocket(t *testing.T) {
	ts, changes := newServer(t, &recorder{})
	conn := dial(t, ts, "/ws")

	changes <- gamepad.State{Connected: true, Handle: 1, Name: "pad", ControllerType: "ds4", Split: "full"}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("expected a full state, got %v", err)
		}
		var m hub.WSMessage
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatal(err)
		}
		if m.Type == "full" {
			if m.Handle != 1 || m.Data == nil || m.Data.Name != "pad" {
				t.Errorf("expected the state of pad 1, got %+v", m)
			}
			return
		}
	}
}
