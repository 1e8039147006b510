package dsp

import (
	"math"
	"testing"
)

func testNSConfig() NoiseSuppressorConfig {
	return NoiseSuppressorConfig{
		Channels:         1,
		NoiseFloor:       0.01,
		AttenuationDB:    12.0,
		EstimationFrames: 5,
	}
}

func TestNoiseSuppressorTrainingPassesThrough(t *testing.T) {
	ns := NewNoiseSuppressor(testNSConfig())

	frame := make([]float32, 80)
	for i := range frame {
		frame[i] = 0.005
	}
	original := make([]float32, 80)
	copy(original, frame)

	ns.Process([][]float32{frame})

	for i := range frame {
		if frame[i] != original[i] {
			t.Fatalf("sample %d modified during training: %f != %f", i, frame[i], original[i])
		}
	}
}

func TestNoiseSuppressorAttenuatesBelowFloor(t *testing.T) {
	ns := NewNoiseSuppressor(testNSConfig())

	// train on low-level noise
	for i := 0; i < 5; i++ {
		noise := make([]float32, 80)
		for j := range noise {
			noise[j] = 0.005
		}
		ns.Process([][]float32{noise})
	}

	quiet := make([]float32, 80)
	for i := range quiet {
		quiet[i] = 0.001
	}
	before := meanSquare(quiet)
	ns.Process([][]float32{quiet})
	after := meanSquare(quiet)

	if after >= before {
		t.Errorf("sub-floor noise not attenuated: before %g after %g", before, after)
	}
}

func TestNoiseSuppressorKeepsLoudSignal(t *testing.T) {
	ns := NewNoiseSuppressor(testNSConfig())
	for i := 0; i < 5; i++ {
		ns.Process([][]float32{make([]float32, 80)})
	}

	speech := sineFrame(80, 300, 8000, 0, 0.5)
	before := meanSquare(speech)
	ns.Process([][]float32{speech})
	after := meanSquare(speech)

	// signal well above the floor keeps nearly all of its energy
	if after < before*0.8 {
		t.Errorf("loud signal over-attenuated: before %g after %g", before, after)
	}
}

func TestNoiseSuppressorSilenceMapsToSilence(t *testing.T) {
	ns := NewNoiseSuppressor(testNSConfig())

	for i := 0; i < 10; i++ {
		frame := make([]float32, 80)
		ns.Process([][]float32{frame})
		for j, v := range frame {
			if v != 0 {
				t.Fatalf("frame %d sample %d = %f; want 0", i, j, v)
			}
		}
	}
}

func TestNoiseSuppressorReset(t *testing.T) {
	config := testNSConfig()
	ns := NewNoiseSuppressor(config)

	for i := 0; i < 5; i++ {
		noise := make([]float32, 80)
		for j := range noise {
			noise[j] = 0.02
		}
		ns.Process([][]float32{noise})
	}
	if !ns.trained {
		t.Fatalf("suppressor should be trained after EstimationFrames")
	}

	ns.Reset()

	if ns.trained {
		t.Errorf("Reset should drop the trained state")
	}
	if math.Abs(float64(ns.NoiseFloor(0)-config.NoiseFloor)) > 1e-6 {
		t.Errorf("NoiseFloor(0) = %f after Reset; want %f", ns.NoiseFloor(0), config.NoiseFloor)
	}
}
