// Package apm is a real-time adaptive audio processing engine for
// voice communication: acoustic echo cancellation, noise suppression,
// automatic gain control, voice activity detection and level
// estimation over synchronized capture and render streams at a fixed
// 10ms frame granularity.
//
// One Processor owns one processing session. Render frames feed the
// echo canceller's reference signal and must be supplied before the
// capture frames they help cancel echo from; capture frames are
// transformed in place. The per-frame calls must be driven from a
// single goroutine, but SetStreamDelayMS and SetOutputWillBeMuted may
// be called from other threads (e.g. a platform latency callback).
package apm

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/mushin-audio/apm/internal/dsp"
)

// engine bundles the enabled effect modules and the scratch buffers
// reserved for the convenience wrappers. Rebuilt wholesale on
// re-initialization so adaptation state never survives one.
type engine struct {
	aec   *dsp.EchoCanceller
	ns    *dsp.NoiseSuppressor
	agc   *dsp.GainController
	vad   *dsp.VoiceDetector
	level *dsp.LevelEstimator

	captureWrap   [][]float32 // mono wrapper for ProcessCapture
	renderWrap    [][]float32 // mono wrapper for ProcessRenderInt16
	renderScratch []float32   // int16 -> float32 conversion target
}

// Processor is a processing session. Create one with New, drive it one
// frame at a time, and release it with Close. After Close the handle
// is poisoned: every further call observes StatusNotInitialized or
// ErrProcessorClosed.
type Processor struct {
	mu sync.Mutex

	config        Config
	captureConfig StreamConfig
	renderConfig  StreamConfig
	frameSize     int

	engine *engine // nil once closed

	// Written from any thread, consumed once per capture frame.
	streamDelayMS atomic.Int64
	delaySet      atomic.Bool
	outputMuted   atomic.Bool
}

// New validates the geometry, allocates the adaptive state sized to it
// and returns a ready session. On failure nothing is retained: geometry
// problems surface as ErrInvalidGeometry, engine rejections as
// *InitializationError carrying the raw status code.
func New(config Config) (*Processor, error) {
	config = config.withDefaults()

	captureConfig, err := NewStreamConfig(config.SampleRate, config.CaptureChannels)
	if err != nil {
		return nil, err
	}
	renderConfig, err := NewStreamConfig(config.SampleRate, config.RenderChannels)
	if err != nil {
		return nil, err
	}

	pc := ProcessingConfig{
		CaptureInput:  captureConfig,
		CaptureOutput: captureConfig,
		RenderInput:   renderConfig,
		RenderOutput:  renderConfig,
	}
	if err := pc.Validate(); err != nil {
		return nil, err
	}

	if code := config.validateModules(); !IsSuccess(code) {
		return nil, &InitializationError{Code: code}
	}

	p := &Processor{
		config:        config,
		captureConfig: captureConfig,
		renderConfig:  renderConfig,
		frameSize:     captureConfig.FrameSize(),
	}
	p.engine = p.newEngine()

	logrus.WithFields(logrus.Fields{
		"sample_rate":      config.SampleRate,
		"capture_channels": config.CaptureChannels,
		"render_channels":  config.RenderChannels,
		"frame_size":       p.frameSize,
		"echo_cancel":      config.EchoCancellation.Enabled,
		"noise_suppress":   config.NoiseSuppression.Enabled,
		"gain_control":     config.GainControl.Enabled,
		"voice_detect":     config.VoiceDetection.Enabled,
	}).Debug("audio processor created")

	return p, nil
}

// newEngine builds the enabled modules with fresh adaptation state.
func (p *Processor) newEngine() *engine {
	c := p.config
	e := &engine{
		captureWrap:   make([][]float32, 1),
		renderWrap:    make([][]float32, 1),
		renderScratch: make([]float32, p.frameSize),
	}
	if c.EchoCancellation.Enabled {
		e.aec = dsp.NewEchoCanceller(dsp.EchoCancellerConfig{
			SampleRate:          c.SampleRate,
			Channels:            c.CaptureChannels,
			FrameSize:           p.frameSize,
			FilterLengthMs:      c.EchoCancellation.FilterLengthMs,
			StepSize:            c.EchoCancellation.AdaptationRate,
			DoubleTalkThreshold: c.EchoCancellation.DoubleTalkThreshold,
			MaxDelayMs:          c.EchoCancellation.MaxDelayMs,
		})
	}
	if c.NoiseSuppression.Enabled {
		e.ns = dsp.NewNoiseSuppressor(dsp.NoiseSuppressorConfig{
			Channels:         c.CaptureChannels,
			NoiseFloor:       c.NoiseSuppression.NoiseFloor,
			AttenuationDB:    c.NoiseSuppression.AttenuationDB,
			EstimationFrames: c.NoiseSuppression.EstimationFrames,
		})
	}
	if c.GainControl.Enabled {
		e.agc = dsp.NewGainController(dsp.GainControllerConfig{
			SampleRate:    c.SampleRate,
			Channels:      c.CaptureChannels,
			TargetLevelDB: c.GainControl.TargetLevelDB,
			MaxGainDB:     c.GainControl.MaxGainDB,
			MinGainDB:     c.GainControl.MinGainDB,
			AttackTimeMs:  c.GainControl.AttackTimeMs,
			ReleaseTimeMs: c.GainControl.ReleaseTimeMs,
			NoiseGateDB:   c.GainControl.NoiseGateDB,
			GateHoldMs:    c.GainControl.GateHoldMs,
		})
	}
	if c.VoiceDetection.Enabled {
		e.vad = dsp.NewVoiceDetector(dsp.VoiceDetectorConfig{
			Threshold:  c.VoiceDetection.Threshold,
			HoldFrames: c.VoiceDetection.HoldFrames,
		})
	}
	if c.LevelEstimation.Enabled {
		e.level = dsp.NewLevelEstimator()
	}
	return e
}

// Initialize re-initializes the session: modules are rebuilt with
// their configured tuning and all adaptation state is cleared. The
// stream geometry is kept.
func (p *Processor) Initialize() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine == nil {
		logrus.Warn("Initialize called on closed audio processor")
		return
	}
	p.engine = p.newEngine()
	p.delaySet.Store(false)
	p.streamDelayMS.Store(0)

	logrus.WithFields(logrus.Fields{
		"sample_rate": p.config.SampleRate,
		"frame_size":  p.frameSize,
	}).Debug("audio processor reinitialized")
}

// SetConfig applies a new processing geometry. Input and output must
// match on each path. The engine is fully re-initialized, which clears
// all adaptation state.
func (p *Processor) SetConfig(pc ProcessingConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine == nil {
		return ErrProcessorClosed
	}
	if err := pc.Validate(); err != nil {
		return err
	}

	p.captureConfig = pc.CaptureInput
	p.renderConfig = pc.RenderInput
	p.frameSize = pc.CaptureInput.FrameSize()
	p.config.SampleRate = pc.CaptureInput.SampleRate
	p.config.CaptureChannels = pc.CaptureInput.Channels
	p.config.RenderChannels = pc.RenderInput.Channels
	p.engine = p.newEngine()
	p.delaySet.Store(false)
	p.streamDelayMS.Store(0)

	logrus.WithFields(logrus.Fields{
		"sample_rate":      p.config.SampleRate,
		"capture_channels": p.config.CaptureChannels,
		"render_channels":  p.config.RenderChannels,
	}).Debug("audio processor geometry changed")
	return nil
}

// NumSamplesPerFrame is the per-channel sample count of one 10ms frame.
func (p *Processor) NumSamplesPerFrame() int {
	return p.frameSize
}

// ProcessCaptureFrame runs the capture pipeline over one frame of
// deinterleaved per-channel samples, in place: the buffers serve as
// both input and output. If echo cancellation is enabled, the current
// delay estimate (zero when none was set) is pushed to the canceller
// first. On a non-success status the buffer content is unspecified.
func (p *Processor) ProcessCaptureFrame(channels [][]float32) Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processCaptureLocked(channels)
}

func (p *Processor) processCaptureLocked(channels [][]float32) Status {
	e := p.engine
	if e == nil {
		return StatusNotInitialized
	}
	if len(channels) != p.captureConfig.Channels {
		return StatusBadNumberChannels
	}
	for _, samples := range channels {
		if len(samples) != p.frameSize {
			return StatusBadDataLength
		}
	}

	muted := p.outputMuted.Load()

	if e.aec != nil {
		delay := 0
		if p.delaySet.Load() {
			delay = int(p.streamDelayMS.Load())
		}
		e.aec.SetStreamDelay(delay)
		e.aec.SetAdaptationEnabled(!muted)
		e.aec.ProcessCapture(channels)
	}
	if e.ns != nil {
		e.ns.Process(channels)
	}
	if e.agc != nil {
		e.agc.SetEnabled(!muted)
		e.agc.Process(channels)
	}
	if e.vad != nil {
		e.vad.Process(channels)
	}
	if e.level != nil {
		e.level.Process(channels)
	}
	return StatusNoError
}

// ProcessRenderFrame feeds one frame of the render (loudspeaker)
// stream as the echo canceller's reference signal. Render frames
// logically precede the capture frames they help cancel echo from.
// The buffers follow the same shape rules as the capture path and are
// not modified.
func (p *Processor) ProcessRenderFrame(channels [][]float32) Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processRenderLocked(channels)
}

func (p *Processor) processRenderLocked(channels [][]float32) Status {
	e := p.engine
	if e == nil {
		return StatusNotInitialized
	}
	if len(channels) != p.renderConfig.Channels {
		return StatusBadNumberChannels
	}
	for _, samples := range channels {
		if len(samples) != p.frameSize {
			return StatusBadDataLength
		}
	}

	if e.aec != nil {
		e.aec.ProcessRender(channels)
	}
	return StatusNoError
}

// ProcessCapture is a mono convenience wrapper over
// ProcessCaptureFrame: samples are processed in place and returned.
func (p *Processor) ProcessCapture(samples []float32) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.engine
	if e == nil {
		return nil, ErrProcessorClosed
	}
	if p.captureConfig.Channels != 1 {
		return nil, statusErr(StatusBadNumberChannels)
	}
	e.captureWrap[0] = samples
	code := p.processCaptureLocked(e.captureWrap)
	e.captureWrap[0] = nil
	if !IsSuccess(code) {
		return nil, statusErr(code)
	}
	return samples, nil
}

// ProcessRenderInt16 feeds one mono PCM16 render frame, converting it
// into the scratch buffer reserved at initialization.
func (p *Processor) ProcessRenderInt16(samples []int16) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.engine
	if e == nil {
		return ErrProcessorClosed
	}
	if p.renderConfig.Channels != 1 {
		return statusErr(StatusBadNumberChannels)
	}
	if len(samples) != p.frameSize {
		return statusErr(StatusBadDataLength)
	}
	for i, v := range samples {
		e.renderScratch[i] = float32(v) / 32768.0
	}
	e.renderWrap[0] = e.renderScratch
	code := p.processRenderLocked(e.renderWrap)
	e.renderWrap[0] = nil
	return statusErr(code)
}

// SetStreamDelayMS stores the latest render-to-capture delay estimate
// in milliseconds. Purely a data update: the value is applied at the
// next capture frame, and only while echo cancellation is enabled.
// Safe to call from a different thread than the processing one.
func (p *Processor) SetStreamDelayMS(delay int) {
	p.streamDelayMS.Store(int64(delay))
	p.delaySet.Store(true)
}

// SetOutputWillBeMuted hints that downstream playback is muted, letting
// modules skip adaptation and gain work. Purely advisory.
func (p *Processor) SetOutputWillBeMuted(muted bool) {
	p.outputMuted.Store(muted)
}

// GetStats builds a fresh snapshot of the metrics the enabled modules
// publish. Disabled or unsupported metrics are absent, never zero.
func (p *Processor) GetStats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var stats Stats
	e := p.engine
	if e == nil {
		return stats
	}

	if e.vad != nil {
		detected := e.vad.VoiceDetected()
		stats.VoiceDetected = &detected
	}
	if e.level != nil {
		rms := e.level.RMS()
		stats.RMSLevel = &rms
	}
	if e.aec != nil && e.aec.FramesProcessed() > 0 {
		erl := e.aec.EchoReturnLoss()
		erle := e.aec.EchoReturnLossEnhancement()
		stats.EchoReturnLoss = &erl
		stats.EchoReturnLossEnhancement = &erle
	}
	// Divergent filter fraction, delay statistics and residual echo
	// likelihood have no producing module and stay absent.
	return stats
}

// Close releases the session. The handle is poisoned: subsequent calls
// fail with StatusNotInitialized or ErrProcessorClosed, and a second
// Close reports the same.
func (p *Processor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine == nil {
		return ErrProcessorClosed
	}
	p.engine = nil

	logrus.Debug("audio processor closed")
	return nil
}
