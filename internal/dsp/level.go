package dsp

import "math"

// LevelEstimator accumulates signal power across capture frames and
// reports the RMS level as a positive integer in [0, 127], where the
// value is the level in -dBFS (0 is full scale, 127 is the floor).
// Accumulation restarts after every report, so each stats query covers
// exactly the frames since the previous one.
type LevelEstimator struct {
	sumSquares  float64
	sampleCount int
}

func NewLevelEstimator() *LevelEstimator {
	return &LevelEstimator{}
}

// Process accumulates one frame.
func (le *LevelEstimator) Process(channels [][]float32) {
	for _, samples := range channels {
		for _, s := range samples {
			le.sumSquares += float64(s * s)
		}
		le.sampleCount += len(samples)
	}
}

// RMS reports the accumulated level and restarts the window.
func (le *LevelEstimator) RMS() int {
	defer le.resetWindow()

	if le.sampleCount == 0 {
		return 127
	}
	rms := math.Sqrt(le.sumSquares / float64(le.sampleCount))
	if rms <= 0 {
		return 127
	}
	db := -20 * math.Log10(rms)
	level := int(math.Round(db))
	if level < 0 {
		level = 0
	}
	if level > 127 {
		level = 127
	}
	return level
}

func (le *LevelEstimator) resetWindow() {
	le.sumSquares = 0
	le.sampleCount = 0
}

// Reset drops any accumulated window.
func (le *LevelEstimator) Reset() {
	le.resetWindow()
}
