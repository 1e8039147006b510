package dsp

import "testing"

func TestLevelEstimatorSilenceReportsFloor(t *testing.T) {
	le := NewLevelEstimator()
	le.Process([][]float32{make([]float32, 80)})
	if got := le.RMS(); got != 127 {
		t.Errorf("RMS() = %d for silence; want 127", got)
	}
}

func TestLevelEstimatorFullScaleReportsZero(t *testing.T) {
	le := NewLevelEstimator()
	frame := make([]float32, 80)
	for i := range frame {
		frame[i] = 1.0
	}
	le.Process([][]float32{frame})
	if got := le.RMS(); got != 0 {
		t.Errorf("RMS() = %d for full scale; want 0", got)
	}
}

func TestLevelEstimatorHalfScale(t *testing.T) {
	le := NewLevelEstimator()
	frame := make([]float32, 80)
	for i := range frame {
		frame[i] = 0.5
	}
	le.Process([][]float32{frame})
	// -6dBFS
	if got := le.RMS(); got != 6 {
		t.Errorf("RMS() = %d for half scale; want 6", got)
	}
}

func TestLevelEstimatorWindowResetsAfterQuery(t *testing.T) {
	le := NewLevelEstimator()
	frame := make([]float32, 80)
	for i := range frame {
		frame[i] = 0.5
	}
	le.Process([][]float32{frame})
	le.RMS()

	// next query covers only what came after the previous one
	if got := le.RMS(); got != 127 {
		t.Errorf("RMS() = %d for empty window; want 127", got)
	}
}

func TestLevelEstimatorNoFramesReportsFloor(t *testing.T) {
	le := NewLevelEstimator()
	if got := le.RMS(); got != 127 {
		t.Errorf("RMS() = %d with no frames; want 127", got)
	}
}
