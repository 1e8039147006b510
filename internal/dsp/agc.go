package dsp

import "math"

// GainControllerConfig tunes the automatic gain control stage.
type GainControllerConfig struct {
	SampleRate int
	Channels   int

	// TargetLevelDB is the wanted signal level in dBFS.
	TargetLevelDB float32
	// MaxGainDB / MinGainDB clamp the applied gain.
	MaxGainDB float32
	MinGainDB float32
	// AttackTimeMs / ReleaseTimeMs shape how fast the gain follows the
	// envelope up and down.
	AttackTimeMs  float32
	ReleaseTimeMs float32
	// NoiseGateDB is the level below which the gate attenuates instead
	// of amplifying the residual noise.
	NoiseGateDB float32
	// GateHoldMs keeps the gate open shortly after the signal drops.
	GateHoldMs float32
}

type agcChannelState struct {
	envelope    float32
	currentGain float32
	holdCounter int
}

// GainController implements envelope-follower automatic gain control
// with a noise gate, one state per capture channel.
type GainController struct {
	config GainControllerConfig

	targetLevel   float32
	gateThreshold float32
	maxGain       float32
	minGain       float32
	attackCoeff   float32
	releaseCoeff  float32
	holdFrames    int

	state   []agcChannelState
	enabled bool // gain work skipped while the output is muted
}

func NewGainController(config GainControllerConfig) *GainController {
	if config.TargetLevelDB == 0 {
		config.TargetLevelDB = -23.0
	}
	if config.MaxGainDB == 0 {
		config.MaxGainDB = 12.0
	}
	if config.MinGainDB == 0 {
		config.MinGainDB = -30.0
	}
	if config.AttackTimeMs == 0 {
		config.AttackTimeMs = 20.0
	}
	if config.ReleaseTimeMs == 0 {
		config.ReleaseTimeMs = 400.0
	}
	if config.NoiseGateDB == 0 {
		config.NoiseGateDB = -40.0
	}
	if config.GateHoldMs == 0 {
		config.GateHoldMs = 50.0
	}

	samplesPerMs := float32(config.SampleRate) / 1000.0
	agc := &GainController{
		config:        config,
		targetLevel:   dbToLinear(config.TargetLevelDB),
		gateThreshold: dbToLinear(config.NoiseGateDB),
		maxGain:       dbToLinear(config.MaxGainDB),
		minGain:       dbToLinear(config.MinGainDB),
		attackCoeff:   float32(1.0 - math.Exp(float64(-1.0/(config.AttackTimeMs*samplesPerMs)))),
		releaseCoeff:  float32(1.0 - math.Exp(float64(-1.0/(config.ReleaseTimeMs*samplesPerMs)))),
		holdFrames:    int(config.GateHoldMs * samplesPerMs),
		state:         make([]agcChannelState, config.Channels),
		enabled:       true,
	}
	for ch := range agc.state {
		agc.state[ch].currentGain = 1.0
	}
	return agc
}

// SetEnabled pauses gain tracking, e.g. while downstream playback is
// muted and the processed signal goes nowhere.
func (agc *GainController) SetEnabled(enabled bool) { agc.enabled = enabled }

// Process applies gate and gain in place.
func (agc *GainController) Process(channels [][]float32) {
	if !agc.enabled {
		return
	}
	for ch, samples := range channels {
		agc.processChannel(&agc.state[ch], samples)
	}
}

func (agc *GainController) processChannel(st *agcChannelState, samples []float32) {
	for i, sample := range samples {
		absSample := float32(math.Abs(float64(sample)))

		// noise gate with hold
		if absSample < agc.gateThreshold {
			if st.holdCounter > 0 {
				st.holdCounter--
			} else {
				sample *= 0.1
				absSample *= 0.1
			}
		} else {
			st.holdCounter = agc.holdFrames
		}

		// envelope follower
		if absSample > st.envelope {
			st.envelope += agc.attackCoeff * (absSample - st.envelope)
		} else {
			st.envelope += agc.releaseCoeff * (absSample - st.envelope)
		}

		desiredGain := float32(1.0)
		if st.envelope > 0.001 {
			desiredGain = agc.targetLevel / st.envelope
		}
		if desiredGain > agc.maxGain {
			desiredGain = agc.maxGain
		} else if desiredGain < agc.minGain {
			desiredGain = agc.minGain
		}

		if desiredGain > st.currentGain {
			st.currentGain += agc.attackCoeff * (desiredGain - st.currentGain)
		} else {
			st.currentGain += agc.releaseCoeff * (desiredGain - st.currentGain)
		}

		out := sample * st.currentGain
		if out > 0.95 {
			out = 0.95
		} else if out < -0.95 {
			out = -0.95
		}
		samples[i] = out
	}
}

// CurrentGain reports the gain applied to a channel, for diagnostics.
func (agc *GainController) CurrentGain(ch int) float32 { return agc.state[ch].currentGain }

// Reset clears envelopes and gains back to unity.
func (agc *GainController) Reset() {
	for ch := range agc.state {
		agc.state[ch] = agcChannelState{currentGain: 1.0}
	}
}
