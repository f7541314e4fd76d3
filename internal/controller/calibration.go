package controller

import (
	"log"
	"sync"

	"github.com/soar/joymapper/internal/gamepad"
	"github.com/soar/joymapper/internal/settings"
)

// Calibration walks the user through locating the travel of both adaptive
// triggers. It is a sequence of steps driven by poll ticks of whichever
// controller polls next: a resisting segment sweeps along the trigger while it
// is held, and the positions where the trigger first moves and where it bottoms
// out become the trigger offset and range.
type Calibration struct {
	mu   sync.Mutex
	step int

	tickTime    *settings.Setting[float64]
	leftOffset  *settings.Setting[int]
	rightOffset *settings.Setting[int]
	leftRange   *settings.Setting[int]
	rightRange  *settings.Setting[int]
}

func NewCalibration(r *settings.Registry) *Calibration {
	return &Calibration{
		tickTime:    settings.MustLookup[float64](r, settings.TickTime),
		leftOffset:  settings.MustLookup[int](r, settings.LeftTriggerOffset),
		rightOffset: settings.MustLookup[int](r, settings.RightTriggerOffset),
		leftRange:   settings.MustLookup[int](r, settings.LeftTriggerRange),
		rightRange:  settings.MustLookup[int](r, settings.RightTriggerRange),
	}
}

// Start begins the sequence on the next poll.
func (k *Calibration) Start() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.step = 1
}

// Active reports whether a calibration is running. A nil Calibration never is.
func (k *Calibration) Active() bool {
	if k == nil {
		return false
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.step != 0
}

// Step advances the sequence with one sample from c. The caller holds c's
// Context lock.
func (k *Calibration) Step(c *Controller, s gamepad.Sample) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if s.Buttons.Has(gamepad.ButtonHome) {
		log.Println("Abandonning calibration")
		k.step = 0
		k.tickTime.Reset()
		return
	}

	switch k.step {
	case 1, 6:
		right := k.step == 1
		if right {
			log.Println("Softly press on the right trigger until you just feel the resistance.")
			log.Println("Then press the dpad down button to proceed, or press HOME to abandon.")
		} else {
			log.Println("Softly press on the left trigger until you just feel the resistance.")
			log.Println("Then press the cross button to proceed, or press HOME to abandon.")
		}
		k.tickTime.Set(100)
		fx := gamepad.TriggerEffect{Mode: gamepad.EffectSegment, Start: 0, End: 255, Force: 255}
		if right {
			c.rightFx = fx
		} else {
			c.leftFx = fx
		}
		k.step++
	case 2:
		if s.Buttons.Has(gamepad.ButtonDown) {
			k.step++
		}
	case 7:
		if s.Buttons.Has(gamepad.ButtonS) {
			k.step++
		}
	case 3, 4, 5:
		k.sweep(&c.rightFx, s.RTrigger, k.rightOffset, k.rightRange)
	case 8, 9, 10:
		k.sweep(&c.leftFx, s.LTrigger, k.leftOffset, k.leftRange)
	case 11:
		log.Println("Your triggers have been successfully calibrated. Add the trigger offset and range values to your configuration to have them set by default.")
		for _, s := range []*settings.Setting[int]{k.rightOffset, k.rightRange, k.leftOffset, k.leftRange} {
			log.Printf("%s = %d", s.Name(), s.Value())
		}
		k.step = 0
		k.tickTime.Reset()
	}
	c.setEffects(c.leftFx, c.rightFx)
}

// sweep runs one tick of steps 3-5 (or 8-10): the segment start moves one unit
// per tick while the trigger is read at pos.
func (k *Calibration) sweep(fx *gamepad.TriggerEffect, pos float64, offset, rng *settings.Setting[int]) {
	travel := int(pos * 255)
	debugf("trigger pos is at %d (%d%%) and effect pos is at %d", travel, int(pos*100), fx.Start)
	switch (k.step - 3) % 5 {
	case 0:
		if travel > 0 {
			offset.Set(int(fx.Start))
			k.tickTime.Set(40)
			k.step++
		}
	case 1:
		if travel > 240 {
			k.tickTime.Set(100)
			k.step++
		}
	case 2:
		if travel == 255 {
			rng.Set(int(fx.Start) - offset.Value())
			k.step++
		}
	}
	fx.Start++
}
