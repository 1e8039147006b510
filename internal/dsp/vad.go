package dsp

// VoiceDetectorConfig tunes the energy-based voice activity detector.
type VoiceDetectorConfig struct {
	// Threshold is the frame energy (mean square, 0.0-1.0) above which
	// the frame counts as voiced.
	Threshold float64
	// HoldFrames keeps the detector active this many frames after the
	// energy drops back under the threshold, bridging short pauses.
	HoldFrames int
}

// VoiceDetector flags frames containing speech energy. The decision is
// latched: once triggered it stays active through HoldFrames of
// silence before releasing.
type VoiceDetector struct {
	config VoiceDetectorConfig

	avgEnergy   float64
	holdCounter int
	active      bool
	frameCount  int
}

func NewVoiceDetector(config VoiceDetectorConfig) *VoiceDetector {
	if config.Threshold == 0 {
		config.Threshold = 0.02
	}
	if config.HoldFrames == 0 {
		config.HoldFrames = 20
	}
	return &VoiceDetector{config: config}
}

// Process classifies one frame and updates the latched decision.
func (vad *VoiceDetector) Process(channels [][]float32) {
	energy := 0.0
	for _, samples := range channels {
		energy += float64(meanSquare(samples))
	}
	if len(channels) > 0 {
		energy /= float64(len(channels))
	}

	vad.frameCount++
	vad.avgEnergy += (energy - vad.avgEnergy) / float64(vad.frameCount)

	if energy > vad.config.Threshold {
		vad.active = true
		vad.holdCounter = vad.config.HoldFrames
		return
	}
	if vad.holdCounter > 0 {
		vad.holdCounter--
		return
	}
	vad.active = false
}

// VoiceDetected reports the latched decision for the last frame.
func (vad *VoiceDetector) VoiceDetected() bool { return vad.active }

// Reset clears the decision and energy statistics.
func (vad *VoiceDetector) Reset() {
	vad.avgEnergy = 0
	vad.holdCounter = 0
	vad.active = false
	vad.frameCount = 0
}
