package dsp

import (
	"math"
	"testing"
)

func testAGCConfig() GainControllerConfig {
	return GainControllerConfig{
		SampleRate:    8000,
		Channels:      1,
		TargetLevelDB: -20.0,
		MaxGainDB:     20.0,
		MinGainDB:     -20.0,
		AttackTimeMs:  5.0,
		ReleaseTimeMs: 50.0,
		NoiseGateDB:   -60.0,
		GateHoldMs:    20.0,
	}
}

func TestAGCAmplifiesQuietSignal(t *testing.T) {
	agc := NewGainController(testAGCConfig())

	// -40dBFS sine, well under the -20dBFS target
	var before, after float32
	for frame := 0; frame < 50; frame++ {
		phase := float64(frame * 80)
		samples := sineFrame(80, 300, 8000, phase, 0.01)
		before = RMS(samples)
		agc.Process([][]float32{samples})
		after = RMS(samples)
	}

	if after <= before {
		t.Errorf("quiet signal not amplified: before %g after %g", before, after)
	}
	if agc.CurrentGain(0) <= 1.0 {
		t.Errorf("CurrentGain(0) = %f; want > 1 for quiet input", agc.CurrentGain(0))
	}
}

func TestAGCClampsOutput(t *testing.T) {
	agc := NewGainController(testAGCConfig())

	for frame := 0; frame < 20; frame++ {
		phase := float64(frame * 80)
		samples := sineFrame(80, 300, 8000, phase, 1.0)
		agc.Process([][]float32{samples})
		for i, v := range samples {
			if v > 0.95 || v < -0.95 {
				t.Fatalf("sample %d = %f exceeds clipping guard", i, v)
			}
		}
	}
}

func TestAGCSilenceMapsToSilence(t *testing.T) {
	agc := NewGainController(testAGCConfig())

	for frame := 0; frame < 20; frame++ {
		samples := make([]float32, 80)
		agc.Process([][]float32{samples})
		for i, v := range samples {
			if v != 0 {
				t.Fatalf("sample %d = %f for silent input; want 0", i, v)
			}
		}
	}
}

func TestAGCDisabledPassesThrough(t *testing.T) {
	agc := NewGainController(testAGCConfig())
	agc.SetEnabled(false)

	samples := sineFrame(80, 300, 8000, 0, 0.01)
	original := make([]float32, 80)
	copy(original, samples)

	agc.Process([][]float32{samples})

	for i := range samples {
		if samples[i] != original[i] {
			t.Fatalf("sample %d modified while disabled", i)
		}
	}
}

func TestAGCPerChannelState(t *testing.T) {
	config := testAGCConfig()
	config.Channels = 2
	agc := NewGainController(config)

	for frame := 0; frame < 50; frame++ {
		phase := float64(frame * 80)
		quiet := sineFrame(80, 300, 8000, phase, 0.01)
		loud := sineFrame(80, 300, 8000, phase, 0.5)
		agc.Process([][]float32{quiet, loud})
	}

	if agc.CurrentGain(0) <= agc.CurrentGain(1) {
		t.Errorf("quiet channel gain %f should exceed loud channel gain %f",
			agc.CurrentGain(0), agc.CurrentGain(1))
	}
}

func TestAGCReset(t *testing.T) {
	agc := NewGainController(testAGCConfig())

	for frame := 0; frame < 20; frame++ {
		phase := float64(frame * 80)
		samples := sineFrame(80, 300, 8000, phase, 0.01)
		agc.Process([][]float32{samples})
	}

	agc.Reset()

	if math.Abs(float64(agc.CurrentGain(0)-1.0)) > 1e-6 {
		t.Errorf("CurrentGain(0) = %f after Reset; want 1.0", agc.CurrentGain(0))
	}
}
