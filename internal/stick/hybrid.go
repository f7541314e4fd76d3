package stick

import (
	"math"

	"github.com/soar/joymapper/internal/gamepad"
)

// hybridAim blends stick-like and mouse-like aiming: the deflection turns at a
// steady rate while the stick's own velocity moves the pointer like a mouse.
// Reaching the edge keeps the last velocity going as an edge push, and output
// pointing back toward center is damped by the return deadzone.
func (p *Processor) hybridAim(st *Stick, in input, stack []gamepad.ButtonID) {
	h := &st.hybrid
	vx := in.rawX - in.rawLastX
	vy := -in.rawY + in.rawLastY
	velocityRadial := radial(vx, vy, in.rawX, -in.rawY)
	deflection := in.rawLength
	previousDeflection := math.Hypot(in.rawLastX, in.rawLastY)
	angle := math.Atan2(-in.rawY, in.rawX)
	sin, cos := math.Sincos(angle)

	var magnitude float64
	inDeadzone := deflection <= in.inner
	if inDeadzone {
		h.edgePush = 0
	} else {
		magnitude = (deflection - in.inner) / (in.outer - in.inner)
		if deflection > in.outer {
			if velocityRadial > 0 {
				// keep only the tangential part of an outward push
				dot := vx*sin + vy*-cos
				vx, vy = dot*sin, dot*-cos
			}
			magnitude = 1
			if previousDeflection <= in.outer {
				var avgX, avgY float64
				counter := h.counter
				for range smoothingSteps {
					avgX += h.velocitiesX[counter]
					avgY += h.velocitiesY[counter]
					if counter == 0 {
						counter = smoothingSteps - 1
					} else {
						counter--
					}
				}
				if p.edgePush.Resolve(stack) == gamepad.On {
					h.edgePush *= h.smallestMagnitude
					h.edgePush += radial(avgX, avgY, in.rawX, -in.rawY) / smoothingSteps
					h.smallestMagnitude = 1
				}
			}
		}
	}
	h.smallestMagnitude = min(h.smallestMagnitude, magnitude)

	power := p.stickPower.Resolve(stack)
	sticklike := p.stickSens.Resolve(stack)
	mouselike := p.mouselike.Resolve(stack)
	outX := sticklike.X / 2 * math.Pow(magnitude, power) * cos * in.dt
	outY := sticklike.Y / 2 * math.Pow(magnitude, power) * sin * in.dt
	push := math.Pow(h.smallestMagnitude, power) * h.edgePush
	outX += mouselike.X*push*cos + mouselike.X*vx
	outY += mouselike.Y*push*sin + mouselike.Y*vy

	h.counter = (h.counter + 1) % smoothingSteps
	h.velocitiesX[h.counter] = vx
	h.velocitiesY[h.counter] = vy
	h.outputRadial[h.counter] = radial(outX, outY, in.rawX, -in.rawY)
	h.outputX[h.counter] = outX
	h.outputY[h.counter] = outY

	if p.returnActive.Resolve(stack) == gamepad.On {
		scale := p.returnDeadzone(h, in, inDeadzone, previousDeflection, stack)
		outX *= scale
		outY *= scale
		if scale == 0 {
			h.edgePush = 0
		}
	}
	if p.Ctx.Keys != nil {
		p.Ctx.Keys.MoveMouse(outX, outY)
	}
}

// returnDeadzone scales output that points back toward the center: 0 drops it, 1
// leaves it unaltered.
func (p *Processor) returnDeadzone(h *hybridState, in input, inDeadzone bool, previousDeflection float64, stack []gamepad.ButtonID) float64 {
	var avgX, avgY, avgRadial float64
	for i := range smoothingSteps {
		avgX += h.outputX[i]
		avgY += h.outputY[i]
		avgRadial += h.outputRadial[i]
	}
	avgOutput := math.Hypot(avgX, avgY) / smoothingSteps
	avgX /= smoothingSteps
	avgY /= smoothingSteps
	avgRadial /= smoothingSteps

	deadzone := p.returnAngle.Resolve(stack) / 180 * math.Pi
	cutoff := p.returnCutoff.Resolve(stack) / 180 * math.Pi

	toCenter := 1.0
	if avgRadial < 0 {
		theta := math.Abs(math.Pi - math.Acos((avgX*in.rawLastX+avgY*-in.rawLastY)/(avgOutput*previousDeflection)))
		toCenter = angleBasedDeadzone(theta, deadzone, cutoff)
	}
	nearCenter := 1.0
	if inDeadzone {
		var theta float64
		if avgRadial < 0 {
			theta = math.Abs(in.rawLastX*avgY+-in.rawLastY*-avgX) / avgOutput
		} else {
			theta = math.Asin(previousDeflection / in.inner)
		}
		nearCenter = angleBasedDeadzone(theta, deadzone, cutoff)
	}
	return min(toCenter, nearCenter)
}
