package stick

import "math"

// maxRotationSamples is the capacity of the flick rotation smoother.
const maxRotationSamples = 256

// RotationSmoother is a soft tiered smoother. Inputs below the bottom threshold are
// averaged over the window, inputs above the top threshold pass straight through,
// and inputs in between are split proportionally.
type RotationSmoother struct {
	samples [maxRotationSamples]float64
	front   int
}

// Reset clears the history.
func (s *RotationSmoother) Reset() {
	s.samples = [maxRotationSamples]float64{}
	s.front = 0
}

// Smooth pushes value and returns its smoothed result over the last window samples.
func (s *RotationSmoother) Smooth(value, bottom, top float64, window int) float64 {
	window = max(1, min(maxRotationSamples, window))
	s.front--
	if s.front < 0 {
		s.front = maxRotationSamples - 1
	}
	immediate := 1.0
	if top > bottom {
		immediate = clamp((math.Abs(value)-bottom)/(top-bottom), 0, 1)
	}
	s.samples[s.front] = value * (1 - immediate)

	var result float64
	for i := 0; i < window; i++ {
		result += s.samples[(s.front+i)%maxRotationSamples] / float64(window)
	}
	return result + value*immediate
}
