package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long the file must stay quiet before a reload. Editors often
// write a file in several steps.
const settle = 200 * time.Millisecond

// Watch reloads the profile whenever its file is written or replaced, until ctx
// is done. done, if set, receives the result of each reload. The directory is
// watched rather than the file so that atomic saves are seen.
func (p *Profile) Watch(ctx context.Context, done func(error)) error {
	if p.path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", p.path, err)
	}
	if err := w.Add(filepath.Dir(p.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", p.path, err)
	}

	go func() {
		defer w.Close()
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != p.path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				debugf("%s: %s", ev.Op, ev.Name)
				fire = time.After(settle)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("Watching %s: %v", p.name(), err)
			case <-fire:
				fire = nil
				log.Printf("%s changed, reloading", p.name())
				err := p.Reload()
				if done != nil {
					done(err)
				}
			}
		}
	}()
	return nil
}
