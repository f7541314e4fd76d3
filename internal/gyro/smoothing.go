package gyro

import "math"

const maxSmoothingSamples = 256

// Smoother is the 2D form of the tiered smoother: velocities below the bottom
// threshold are averaged over the window, velocities above the top threshold pass
// straight through, and those in between are split proportionally.
type Smoother struct {
	x, y  [maxSmoothingSamples]float64
	front int
}

func (s *Smoother) Reset() {
	*s = Smoother{}
}

// Smooth pushes (x, y) and returns the smoothed velocity over the last window
// samples.
func (s *Smoother) Smooth(x, y, bottom, top float64, window int) (float64, float64) {
	window = max(1, min(maxSmoothingSamples, window))
	s.front--
	if s.front < 0 {
		s.front = maxSmoothingSamples - 1
	}

	length := math.Hypot(x, y)
	var immediate float64
	if top <= bottom {
		if length >= bottom {
			immediate = 1
		}
	} else {
		immediate = clamp((length-bottom)/(top-bottom), 0, 1)
	}
	s.x[s.front] = x * (1 - immediate)
	s.y[s.front] = y * (1 - immediate)

	var outX, outY float64
	for i := range window {
		j := (s.front + i) % maxSmoothingSamples
		outX += s.x[j] / float64(window)
		outY += s.y[j] / float64(window)
	}
	return outX + x*immediate, outY + y*immediate
}
