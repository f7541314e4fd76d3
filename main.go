package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soar/joymapper/internal/command"
	"github.com/soar/joymapper/internal/config"
	"github.com/soar/joymapper/internal/console"
	"github.com/soar/joymapper/internal/controller"
	"github.com/soar/joymapper/internal/gamepad"
	"github.com/soar/joymapper/internal/hub"
	"github.com/soar/joymapper/internal/output"
	"github.com/soar/joymapper/internal/server"
	"github.com/soar/joymapper/internal/settings"
	"github.com/soar/joymapper/internal/source"
	"github.com/soar/joymapper/internal/tray"
)

// os.Interrupt is Ctrl+C on every platform, SIGINT on Unix.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// controls routes RECONNECT_CONTROLLERS through the reader so devices that were
// refused while AUTOCONNECT was off get opened too.
type controls struct {
	*controller.Manager
	reader *source.Reader
}

func (c controls) Reconnect(merge bool) {
	c.reader.Rescan()
	c.Manager.Reconnect(merge)
}

func main() {
	opts, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}
	controller.Debug = opts.Verbose
	source.Debug = opts.Verbose
	config.Debug = opts.Verbose

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)
	consoleClosed := make(chan struct{})
	reregister := console.SetupConsoleHandler(consoleClosed)

	var keys output.KeyMouse = &output.LogSink{}
	if !opts.DryRun {
		inj, err := output.NewInjector()
		if err != nil {
			log.Printf("Keyboard and mouse injection unavailable, logging output instead: %v", err)
		} else {
			defer inj.Close()
			keys = inj
		}
	}

	m := controller.NewManager(settings.NewRegistry(), keys)
	m.NewVirtual = func(scheme gamepad.ControllerScheme, _ controller.NotifyFunc) (output.VirtualController, error) {
		if opts.DryRun {
			return output.NewLogPad(scheme), nil
		}
		return output.NewGamepad(scheme)
	}

	reader := source.NewReader(m)
	reader.OnInit = reregister

	d := command.New(m.Registry(), m.Table())
	d.RegisterControls(controls{Manager: m, reader: reader})
	m.Command = d.Enqueue
	go d.Serve(ctx)

	profile, err := config.Open(opts.ConfigFile, d, opts.Preamble())
	if err != nil {
		log.Fatalf("Failed to open profile: %v", err)
	}
	if err := profile.Apply(); err != nil {
		log.Printf("Profile applied with errors")
	}
	if opts.Watch {
		err := profile.Watch(ctx, func(err error) {
			if err != nil {
				log.Printf("Profile reloaded with errors")
			}
		})
		if err != nil {
			log.Printf("Failed to watch profile: %v", err)
		}
	}

	h := hub.NewHub()
	go h.Run(ctx)

	broadcaster := hub.NewBroadcaster(h, m.Changes())
	go broadcaster.Run(ctx)

	srv := server.New(h, broadcaster, m, d, getFrontendFS(), opts.Addr)
	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	url := tray.StatusURL(opts.Addr)
	log.Printf("joymapper started: %s", url)

	shutdownRequested := make(chan struct{})
	var t *tray.Tray
	if !opts.NoTray {
		t = tray.New(url, tray.Actions{
			Reload: func() {
				if err := profile.Reload(); err != nil {
					log.Printf("Profile reloaded with errors")
				}
			},
			Reconnect: func() { d.Exec("RECONNECT_CONTROLLERS") },
			Shutdown:  func() { close(shutdownRequested) },
		})
		go t.Run(tray.Icon())
	}

	consoleQuit := make(chan struct{})
	if console.IsRunningFromConsole() {
		log.Println("Type commands here, QUIT or Ctrl+C to exit")
		go func() {
			err := console.ReadCommands(ctx, os.Stdin, d, func() { close(consoleQuit) })
			if err != nil {
				log.Printf("Console input failed: %v", err)
			}
		}()
	}

	readerDone := make(chan error, 1)
	go func() {
		readerDone <- reader.Run(ctx)
	}()

	select {
	case <-sigCh:
		log.Println("Shutting down...")
	case <-consoleClosed:
		log.Println("Console closed, shutting down...")
	case <-consoleQuit:
		log.Println("Quit requested from console")
	case <-shutdownRequested:
		log.Println("Shutdown requested from tray")
	case err := <-serverErrCh:
		log.Printf("HTTP server error: %v", err)
	case err := <-readerDone:
		log.Printf("Controller input stopped: %v", err)
		readerDone <- nil
	}
	cancel()

	if err := <-readerDone; err != nil {
		log.Printf("Controller input error: %v", err)
	}
	m.Close()
	if t != nil {
		t.Quit()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("joymapper stopped")
}
