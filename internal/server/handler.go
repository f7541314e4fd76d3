package server

import (
	"bufio"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lxzan/gws"
	"github.com/soar/joymapper/internal/hub"
)

const (
	cmdPingInterval = 30 * time.Second
	cmdPingWait     = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local use
	},
}

// Commander runs one command line and returns its output.
type Commander interface {
	Run(line string) (string, error)
}

func handleWebSocket(h *hub.Hub, b *hub.Broadcaster, sel hub.Selector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := hub.NewClient(h, conn)
		if !h.Register(client) {
			conn.Close()
			return
		}

		b.SendInitialState(client)

		go client.WritePump()
		go client.ReadPump(sel, b.SendInitialState)
	}
}

// execute runs every non-empty line of text and joins the replies. Errors are
// reported inline so a script keeps going past a bad line.
func execute(cmd Commander, text string) string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		reply, err := cmd.Run(line)
		switch {
		case err != nil:
			log.Printf("Command %q failed: %v", line, err)
			out = append(out, "error: "+err.Error())
		case reply != "":
			out = append(out, reply)
		}
	}
	return strings.Join(out, "\n")
}

// commandSocket answers each text frame of the /cmd socket with the command output.
type commandSocket struct {
	gws.BuiltinEventHandler
	cmd Commander
}

func (s *commandSocket) OnOpen(socket *gws.Conn) {
	_ = socket.SetDeadline(time.Now().Add(cmdPingInterval + cmdPingWait))
	log.Printf("Command client connected from %s", socket.RemoteAddr())
}

func (s *commandSocket) OnClose(socket *gws.Conn, err error) {
	log.Printf("Command client disconnected: %v", err)
}

func (s *commandSocket) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(cmdPingInterval + cmdPingWait))
	_ = socket.WritePong(payload)
}

func (s *commandSocket) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	_ = socket.SetDeadline(time.Now().Add(cmdPingInterval + cmdPingWait))
	if message.Opcode != gws.OpcodeText {
		return
	}
	reply := execute(s.cmd, message.Data.String())
	if reply == "" {
		reply = "ok"
	}
	if err := socket.WriteString(reply); err != nil {
		log.Printf("Command reply failed: %v", err)
	}
}

func handleCommands(cmd Commander) http.HandlerFunc {
	up := gws.NewUpgrader(&commandSocket{cmd: cmd}, &gws.ServerOption{
		ParallelEnabled: false,
		Recovery:        gws.Recovery,
	})
	return func(w http.ResponseWriter, r *http.Request) {
		socket, err := up.Upgrade(w, r)
		if err != nil {
			log.Printf("Command socket upgrade failed: %v", err)
			return
		}
		go socket.ReadLoop()
	}
}
