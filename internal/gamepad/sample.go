package gamepad

import "time"

// Buttons is a bitmask indexed by ButtonID for the physical buttons a source reports.
type Buttons uint64

func (b Buttons) Has(id ButtonID) bool {
	return id >= 0 && id < 64 && b&(1<<uint(id)) != 0
}

func (b Buttons) With(id ButtonID) Buttons {
	if id < 0 || id >= 64 {
		return b
	}
	return b | 1<<uint(id)
}

// Sample is one poll of a controller: buttons, analog axes and raw IMU.
type Sample struct {
	Time     time.Time
	Buttons  Buttons
	LeftX    float64
	LeftY    float64
	RightX   float64
	RightY   float64
	LTrigger float64
	RTrigger float64
	// Gyro is in degrees per second, Accel in g.
	Gyro  [3]float64
	Accel [3]float64
}

// TouchPoint is one finger on a touchpad. X and Y are normalized to 0..1;
// DX and DY are the frame to frame movement in pad pixels.
type TouchPoint struct {
	Down bool
	ID   int
	X    float64
	Y    float64
	DX   float64
	DY   float64
}

// Touch is the state of up to two touch points.
type Touch struct {
	Time   time.Time
	Points [2]TouchPoint
}
