package dsp

import "math"

// NoiseSuppressorConfig tunes the noise floor tracker and attenuation.
type NoiseSuppressorConfig struct {
	Channels int

	// NoiseFloor is the starting floor estimate (linear, 0.0-1.0).
	NoiseFloor float32
	// AttenuationDB is how hard samples under the floor are pushed down.
	AttenuationDB float32
	// EstimationFrames is how many initial frames feed the floor estimate
	// before suppression kicks in.
	EstimationFrames int
}

// NoiseSuppressor attenuates stationary background noise. The first
// EstimationFrames frames train a per-channel noise floor; afterwards
// samples below the floor are attenuated and samples near it get a
// soft transition so speech onsets are not clipped.
type NoiseSuppressor struct {
	config            NoiseSuppressorConfig
	attenuationFactor float32

	noiseFloor      []float32 // per channel
	framesProcessed int
	trained         bool
}

func NewNoiseSuppressor(config NoiseSuppressorConfig) *NoiseSuppressor {
	if config.NoiseFloor == 0 {
		config.NoiseFloor = 0.01
	}
	if config.AttenuationDB == 0 {
		config.AttenuationDB = 12.0
	}
	if config.EstimationFrames == 0 {
		config.EstimationFrames = 30
	}

	ns := &NoiseSuppressor{
		config:            config,
		attenuationFactor: float32(math.Pow(10, float64(-config.AttenuationDB/20.0))),
		noiseFloor:        make([]float32, config.Channels),
	}
	for ch := range ns.noiseFloor {
		ns.noiseFloor[ch] = config.NoiseFloor
	}
	return ns
}

// Process suppresses noise in place.
func (ns *NoiseSuppressor) Process(channels [][]float32) {
	if !ns.trained {
		for ch, samples := range channels {
			ns.updateFloor(ch, samples)
		}
		ns.framesProcessed++
		if ns.framesProcessed >= ns.config.EstimationFrames {
			ns.trained = true
		}
		return
	}

	for ch, samples := range channels {
		floor := ns.noiseFloor[ch]
		for i, sample := range samples {
			magnitude := float32(math.Abs(float64(sample)))
			if magnitude < floor {
				samples[i] = sample * ns.attenuationFactor
			} else {
				ratio := float32(math.Min(1.0, float64((magnitude-floor)/(floor*2+epsilon))))
				attenuation := ns.attenuationFactor + (1.0-ns.attenuationFactor)*ratio
				samples[i] = sample * attenuation
			}
		}
	}
}

func (ns *NoiseSuppressor) updateFloor(ch int, samples []float32) {
	ns.noiseFloor[ch] = 0.9*ns.noiseFloor[ch] + 0.1*RMS(samples)
}

// NoiseFloor reports the current floor estimate for a channel.
func (ns *NoiseSuppressor) NoiseFloor(ch int) float32 { return ns.noiseFloor[ch] }

// Reset drops the trained floor and restarts estimation.
func (ns *NoiseSuppressor) Reset() {
	for ch := range ns.noiseFloor {
		ns.noiseFloor[ch] = ns.config.NoiseFloor
	}
	ns.framesProcessed = 0
	ns.trained = false
}
