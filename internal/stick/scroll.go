package stick

import (
	"math"
	"time"

	"github.com/soar/joymapper/internal/button"
	"github.com/soar/joymapper/internal/gamepad"
)

// ScrollAxis turns continuous motion into discrete presses of two buttons, one per
// direction. Every sens units of motion is one press; leftovers carry over.
type ScrollAxis struct {
	negative gamepad.ButtonID
	positive gamepad.ButtonID
	leftover float64
	pressed  gamepad.ButtonID
}

// NewScrollAxis returns an axis pressing positive for positive motion.
func NewScrollAxis(positive, negative gamepad.ButtonID) ScrollAxis {
	return ScrollAxis{positive: positive, negative: negative, pressed: gamepad.ButtonNone}
}

// Process adds delta and taps the direction buttons. Each press lasts one call, so
// consecutive steps come out as separate taps.
func (a *ScrollAxis) Process(ctx *button.Context, delta, sens float64, now time.Time) {
	a.leftover += delta
	if a.pressed != gamepad.ButtonNone {
		a.release(ctx, now)
		return
	}
	if sens <= 0 || math.Abs(a.leftover) < sens {
		return
	}
	if a.leftover > 0 {
		a.pressed = a.positive
		a.leftover -= sens
	} else {
		a.pressed = a.negative
		a.leftover += sens
	}
	handle(ctx, a.pressed, true, now)
}

// Reset releases any pressed button and drops the leftovers.
func (a *ScrollAxis) Reset(ctx *button.Context, now time.Time) {
	a.leftover = 0
	a.release(ctx, now)
}

func (a *ScrollAxis) release(ctx *button.Context, now time.Time) {
	if a.pressed != gamepad.ButtonNone {
		handle(ctx, a.pressed, false, now)
		a.pressed = gamepad.ButtonNone
	}
}

func handle(ctx *button.Context, btn gamepad.ButtonID, pressed bool, now time.Time) {
	if b := ctx.Button(btn); b != nil {
		b.Handle(pressed, now)
	}
}
