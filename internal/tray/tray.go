package tray

import (
	"log"
	"net"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"

	"fyne.io/systray"
)

// Actions are the callbacks behind the menu entries. Nil entries are left out of
// the menu, except Shutdown which Exit always calls.
type Actions struct {
	Reload    func()
	Reconnect func()
	Shutdown  func()
}

// Tray manages the system tray icon and menu
type Tray struct {
	url          string
	actions      Actions
	once         sync.Once
	shuttingDown atomic.Bool
}

// New creates a tray whose "Open status page" entry points at url.
func New(url string, a Actions) *Tray {
	return &Tray{url: url, actions: a}
}

// Run initializes and runs the system tray (blocks until Quit())
func (t *Tray) Run(iconData []byte) {
	systray.Run(func() {
		t.onReady(iconData)
	}, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	t.shuttingDown.Store(true)
	systray.Quit()
}

func (t *Tray) onReady(iconData []byte) {
	if iconData != nil {
		systray.SetIcon(iconData)
	}
	systray.SetTitle("joymapper")
	systray.SetTooltip("joymapper - " + t.url)

	t.item("Reload config", "Reset mappings and apply the config file again", t.actions.Reload)
	t.item("Reconnect controllers", "Scan for controllers and rebuild them", t.actions.Reconnect)
	systray.AddSeparator()
	t.item("Open status page", "Open web interface", t.openBrowser)
	t.item("Exit", "Quit application", t.exit)

	log.Println("System tray initialized")
}

// item adds a menu entry whose clicks run fn on their own goroutine.
func (t *Tray) item(title, tooltip string, fn func()) {
	if fn == nil {
		return
	}
	mi := systray.AddMenuItem(title, tooltip)
	go func() {
		for range mi.ClickedCh {
			if t.shuttingDown.Load() {
				return
			}
			fn()
		}
	}()
}

func (t *Tray) exit() {
	if !t.shuttingDown.CompareAndSwap(false, true) {
		return
	}
	if t.actions.Shutdown != nil {
		t.once.Do(t.actions.Shutdown)
	}
	systray.Quit()
}

func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	log.Println("System tray exiting")
}

func (t *Tray) openBrowser() {
	name, args := browserCommand(runtime.GOOS, t.url)
	if err := exec.Command(name, args...).Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		return "open", []string{url}
	default:
		return "xdg-open", []string{url}
	}
}

// StatusURL is the browser address of a server listening on addr.
func StatusURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host, port = addr, ""
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	if port == "" {
		return "http://" + host
	}
	return "http://" + net.JoinHostPort(host, port)
}
