package output

import (
	"log"
	"sync"

	"github.com/soar/joymapper/internal/binding"
	"github.com/soar/joymapper/internal/gamepad"
)

// LogSink prints mapped keyboard and mouse output instead of injecting it. It is
// used for dry runs and on platforms without an injector.
type LogSink struct {
	mu  sync.Mutex
	acc Accumulator
}

func (l *LogSink) PressKey(k binding.KeyCode, pressed bool) {
	if pressed {
		log.Printf("key %s down", k)
	} else if k.Code != binding.CodeScrollUp && k.Code != binding.CodeScrollDown {
		log.Printf("key %s up", k)
	}
}

func (l *LogSink) MoveMouse(dx, dy float64) {
	l.mu.Lock()
	x, y := l.acc.Add(dx, dy)
	l.mu.Unlock()
	if x != 0 || y != 0 {
		log.Printf("mouse move %d %d", x, y)
	}
}

func (l *LogSink) SetMouseNorm(x, y float64) {
	log.Printf("mouse at %.3f %.3f", x, y)
}

// LogPad is an emulated controller that prints its changes on Update.
type LogPad struct {
	pad
}

func NewLogPad(scheme gamepad.ControllerScheme) *LogPad {
	return &LogPad{pad: pad{scheme: scheme}}
}

func (p *LogPad) Update() error {
	for _, b := range p.changed() {
		log.Printf("%s %s pressed=%t", p.scheme, b, p.next.buttons[b])
	}
	if p.next.lx != p.sent.lx || p.next.ly != p.sent.ly {
		log.Printf("%s left stick %.3f %.3f", p.scheme, p.next.lx, p.next.ly)
	}
	if p.next.rx != p.sent.rx || p.next.ry != p.sent.ry {
		log.Printf("%s right stick %.3f %.3f", p.scheme, p.next.rx, p.next.ry)
	}
	if lt := p.next.trigger(true); lt != p.sent.trigger(true) {
		log.Printf("%s left trigger %.3f", p.scheme, lt)
	}
	if rt := p.next.trigger(false); rt != p.sent.trigger(false) {
		log.Printf("%s right trigger %.3f", p.scheme, rt)
	}
	p.commit()
	return nil
}

func (p *LogPad) Close() error { return nil }
