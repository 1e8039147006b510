package apm

// Config describes a processing session: the capture/render geometry
// and which effect modules run on the capture path. Zero values pick
// sensible telephony defaults (mono, 48kHz); modules are only built
// when their Enabled flag is set.
type Config struct {
	CaptureChannels int
	RenderChannels  int
	SampleRate      int

	EchoCancellation EchoCancellationConfig
	NoiseSuppression NoiseSuppressionConfig
	GainControl      GainControlConfig
	VoiceDetection   VoiceDetectionConfig
	LevelEstimation  LevelEstimationConfig
}

// EchoCancellationConfig tunes the NLMS echo canceller.
type EchoCancellationConfig struct {
	Enabled bool

	// FilterLengthMs is the echo tail length covered by the adaptive
	// filter, typically 64-256ms.
	FilterLengthMs int
	// AdaptationRate is the NLMS step size (0.1-0.5).
	AdaptationRate float32
	// DoubleTalkThreshold is the near/far power ratio that freezes
	// adaptation during simultaneous speech.
	DoubleTalkThreshold float32
	// MaxDelayMs bounds the render-to-capture delay the canceller can
	// compensate for.
	MaxDelayMs int
}

// NoiseSuppressionConfig tunes the noise floor tracker.
type NoiseSuppressionConfig struct {
	Enabled bool

	// NoiseFloor is the starting floor estimate (linear, 0.0-1.0).
	NoiseFloor float32
	// AttenuationDB is the suppression depth for sub-floor samples.
	AttenuationDB float32
	// EstimationFrames is the length of the initial training phase.
	EstimationFrames int
}

// GainControlConfig tunes the automatic gain control stage.
type GainControlConfig struct {
	Enabled bool

	TargetLevelDB float32
	MaxGainDB     float32
	MinGainDB     float32
	AttackTimeMs  float32
	ReleaseTimeMs float32
	NoiseGateDB   float32
	GateHoldMs    float32
}

// VoiceDetectionConfig tunes the voice activity detector.
type VoiceDetectionConfig struct {
	Enabled bool

	// Threshold is the frame energy above which speech is assumed.
	Threshold float64
	// HoldFrames bridges short pauses inside an utterance.
	HoldFrames int
}

// LevelEstimationConfig enables RMS level reporting in the stats.
type LevelEstimationConfig struct {
	Enabled bool
}

// DefaultConfig returns a mono 48kHz voice session with every module
// enabled at its default tuning.
func DefaultConfig() Config {
	return Config{
		CaptureChannels: 1,
		RenderChannels:  1,
		SampleRate:      48000,
		EchoCancellation: EchoCancellationConfig{
			Enabled:             true,
			FilterLengthMs:      128,
			AdaptationRate:      0.3,
			DoubleTalkThreshold: 2.0,
			MaxDelayMs:          500,
		},
		NoiseSuppression: NoiseSuppressionConfig{
			Enabled:          true,
			NoiseFloor:       0.01,
			AttenuationDB:    12.0,
			EstimationFrames: 30,
		},
		GainControl: GainControlConfig{
			Enabled:       true,
			TargetLevelDB: -23.0,
			MaxGainDB:     12.0,
			MinGainDB:     -30.0,
			AttackTimeMs:  20.0,
			ReleaseTimeMs: 400.0,
			NoiseGateDB:   -40.0,
			GateHoldMs:    50.0,
		},
		VoiceDetection: VoiceDetectionConfig{
			Enabled:    true,
			Threshold:  0.02,
			HoldFrames: 20,
		},
		LevelEstimation: LevelEstimationConfig{
			Enabled: true,
		},
	}
}

// withDefaults fills unset geometry fields.
func (c Config) withDefaults() Config {
	if c.CaptureChannels == 0 {
		c.CaptureChannels = 1
	}
	if c.RenderChannels == 0 {
		c.RenderChannels = 1
	}
	if c.SampleRate == 0 {
		c.SampleRate = 48000
	}
	return c
}

// validateModules checks module tuning values the way the engine does
// at initialization. A bad value fails the whole session construction.
func (c Config) validateModules() Status {
	ec := c.EchoCancellation
	if ec.FilterLengthMs < 0 || ec.AdaptationRate < 0 || ec.AdaptationRate > 1 ||
		ec.DoubleTalkThreshold < 0 || ec.MaxDelayMs < 0 {
		return StatusBadParameter
	}
	ns := c.NoiseSuppression
	if ns.NoiseFloor < 0 || ns.NoiseFloor > 1 || ns.AttenuationDB < 0 || ns.EstimationFrames < 0 {
		return StatusBadParameter
	}
	gc := c.GainControl
	if gc.AttackTimeMs < 0 || gc.ReleaseTimeMs < 0 || gc.GateHoldMs < 0 {
		return StatusBadParameter
	}
	vd := c.VoiceDetection
	if vd.Threshold < 0 || vd.Threshold > 1 || vd.HoldFrames < 0 {
		return StatusBadParameter
	}
	return StatusNoError
}
