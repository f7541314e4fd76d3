//go:build !linux && !windows && !darwin

package output

import (
	"fmt"

	"github.com/soar/joymapper/internal/gamepad"
)

// Injector is a LogSink where no injection backend exists.
type Injector struct {
	LogSink
}

func NewInjector() (*Injector, error) {
	return nil, ErrUnsupported
}

func (in *Injector) Close() error { return nil }

func NewGamepad(scheme gamepad.ControllerScheme) (VirtualController, error) {
	return nil, fmt.Errorf("%s virtual controller: %w", scheme, ErrUnsupported)
}
