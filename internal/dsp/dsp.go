// Package dsp contains the streaming effect modules driven by the apm
// processor: echo cancellation, noise suppression, gain control, voice
// activity detection and level estimation. Every module consumes one
// deinterleaved 10ms frame at a time and keeps its own adaptive state.
package dsp

import "math"

const epsilon = 1e-10

func dbToLinear(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20.0))
}

// RMS returns the root-mean-square level of a frame.
func RMS(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += float64(s * s)
	}
	return float32(math.Sqrt(sum / float64(len(samples))))
}

// meanSquare is the average signal power of a frame.
func meanSquare(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += float64(s * s)
	}
	return float32(sum / float64(len(samples)))
}

func clampSample(v float32) float32 {
	if v > 1.0 {
		return 1.0
	}
	if v < -1.0 {
		return -1.0
	}
	return v
}
