package dsp

import "math"

// EchoCancellerConfig tunes the NLMS adaptive filter.
type EchoCancellerConfig struct {
	SampleRate int
	Channels   int // capture channels, each with its own filter state
	FrameSize  int

	// FilterLengthMs is the echo tail covered by the adaptive filter.
	FilterLengthMs int
	// StepSize is the NLMS adaptation rate (0.1-0.5).
	StepSize float32
	// Regularization stabilises the normalized step for weak reference power.
	Regularization float32
	// DoubleTalkThreshold is the near/far power ratio above which
	// adaptation is frozen.
	DoubleTalkThreshold float32
	// MaxDelayMs bounds the reference history kept for delay alignment.
	MaxDelayMs int
}

// EchoCanceller removes the acoustic echo of the render stream from the
// capture stream with an NLMS adaptive filter per capture channel,
// followed by a residual echo suppressor. The render side feeds a mono
// downmixed reference ring; the capture side reads it back shifted by
// the stream delay reported by the platform.
type EchoCanceller struct {
	config EchoCancellerConfig

	filterLength int
	coeffs       [][]float32 // per channel, reversed tap order
	reference    *Ring
	refWindow    []float32 // scratch: filterLength + frameSize - 1
	downmix      []float32 // scratch: frameSize

	suppressors []*ResidualEchoSuppressor

	delayMS  int
	adapting bool

	// double-talk detector state
	nearEndPower float32
	farEndPower  float32
	doubleTalk   bool

	// smoothed metrics
	erl             float32
	erle            float32
	framesProcessed int
}

func NewEchoCanceller(config EchoCancellerConfig) *EchoCanceller {
	if config.FilterLengthMs == 0 {
		config.FilterLengthMs = 128
	}
	if config.StepSize == 0 {
		config.StepSize = 0.3
	}
	if config.Regularization == 0 {
		config.Regularization = 1e-7
	}
	if config.DoubleTalkThreshold == 0 {
		config.DoubleTalkThreshold = 2.0
	}
	if config.MaxDelayMs == 0 {
		config.MaxDelayMs = 500
	}

	filterLength := config.SampleRate * config.FilterLengthMs / 1000
	maxDelay := config.SampleRate * config.MaxDelayMs / 1000

	ec := &EchoCanceller{
		config:       config,
		filterLength: filterLength,
		coeffs:       make([][]float32, config.Channels),
		reference:    NewRing(filterLength + config.FrameSize + maxDelay),
		refWindow:    make([]float32, filterLength+config.FrameSize-1),
		downmix:      make([]float32, config.FrameSize),
		suppressors:  make([]*ResidualEchoSuppressor, config.Channels),
		adapting:     true,
	}
	for ch := 0; ch < config.Channels; ch++ {
		ec.coeffs[ch] = make([]float32, filterLength)
		ec.suppressors[ch] = NewResidualEchoSuppressor()
	}
	return ec
}

// SetStreamDelay supplies the render-to-capture delay hint consumed by
// the next capture frame.
func (ec *EchoCanceller) SetStreamDelay(ms int) {
	if ms < 0 {
		ms = 0
	}
	if ms > ec.config.MaxDelayMs {
		ms = ec.config.MaxDelayMs
	}
	ec.delayMS = ms
}

// StreamDelay reports the delay hint currently applied.
func (ec *EchoCanceller) StreamDelay() int { return ec.delayMS }

// SetAdaptationEnabled freezes or resumes filter adaptation. Used for
// the output-muted hint: a muted far end produces no echo worth
// adapting to.
func (ec *EchoCanceller) SetAdaptationEnabled(enabled bool) { ec.adapting = enabled }

// ProcessRender feeds one render frame as the echo reference. The frame
// is downmixed to mono before entering the history ring.
func (ec *EchoCanceller) ProcessRender(channels [][]float32) {
	n := len(ec.downmix)
	if len(channels) == 1 {
		copy(ec.downmix, channels[0])
	} else {
		scale := 1 / float32(len(channels))
		for i := 0; i < n; i++ {
			sum := float32(0)
			for _, ch := range channels {
				sum += ch[i]
			}
			ec.downmix[i] = sum * scale
		}
	}
	ec.reference.Write(ec.downmix)
}

// ProcessCapture cancels the estimated echo in place.
func (ec *EchoCanceller) ProcessCapture(channels [][]float32) {
	delaySamples := ec.delayMS * ec.config.SampleRate / 1000
	ec.reference.CopyEnding(ec.refWindow, delaySamples)

	refPower := meanSquare(ec.refWindow[len(ec.refWindow)-ec.config.FrameSize:])

	for ch, samples := range channels {
		inPower := meanSquare(samples)
		ec.processChannel(ch, samples)
		outPower := meanSquare(samples)
		ec.updateMetrics(refPower, inPower, outPower)
	}
	ec.framesProcessed++
}

func (ec *EchoCanceller) processChannel(ch int, samples []float32) {
	coeffs := ec.coeffs[ch]
	suppressor := ec.suppressors[ch]
	window := ec.refWindow

	// reference power slides with the window: subtract the sample
	// leaving, add the one entering
	power := float32(0)
	for _, v := range window[:ec.filterLength] {
		power += v * v
	}

	for n := range samples {
		// reference vector for this sample is window[n : n+filterLength],
		// taps stored oldest first
		x := window[n : n+ec.filterLength]

		if n > 0 {
			leaving := window[n-1]
			entering := x[ec.filterLength-1]
			power += entering*entering - leaving*leaving
			if power < 0 {
				power = 0
			}
		}

		estimate := float32(0)
		for i, w := range coeffs {
			estimate += w * x[i]
		}

		errSignal := samples[n] - estimate

		ec.detectDoubleTalk(samples[n], x[ec.filterLength-1])

		if ec.adapting && !ec.doubleTalk {
			step := ec.config.StepSize / (power + ec.config.Regularization)
			for i := range coeffs {
				coeffs[i] += step * errSignal * x[i]
			}
		}

		samples[n] = clampSample(suppressor.ProcessSample(errSignal, estimate))
	}
}

// detectDoubleTalk tracks smoothed near-end and reference powers; a
// near end much louder than any plausible echo of the reference means
// local speech, and adaptation must freeze or the filter diverges.
func (ec *EchoCanceller) detectDoubleTalk(nearEnd, reference float32) {
	const alpha = 0.99
	ec.nearEndPower = alpha*ec.nearEndPower + (1-alpha)*nearEnd*nearEnd
	ec.farEndPower = alpha*ec.farEndPower + (1-alpha)*reference*reference

	if ec.farEndPower > 1e-8 {
		ec.doubleTalk = ec.nearEndPower/ec.farEndPower > ec.config.DoubleTalkThreshold
	} else {
		// no far-end signal, nothing to protect the filter from
		ec.doubleTalk = false
	}
}

func (ec *EchoCanceller) updateMetrics(refPower, inPower, outPower float32) {
	const alpha = 0.1
	if refPower > epsilon && inPower > epsilon {
		erl := 10 * float32(math.Log10(float64(refPower/inPower)))
		ec.erl = (1-alpha)*ec.erl + alpha*erl
	}
	if inPower > epsilon && outPower > epsilon {
		erle := 10 * float32(math.Log10(float64(inPower/outPower)))
		ec.erle = (1-alpha)*ec.erle + alpha*erle
	}
}

// EchoReturnLoss reports the smoothed reference-to-capture loss in dB.
func (ec *EchoCanceller) EchoReturnLoss() float64 { return float64(ec.erl) }

// EchoReturnLossEnhancement reports the smoothed cancellation gain in dB.
func (ec *EchoCanceller) EchoReturnLossEnhancement() float64 { return float64(ec.erle) }

// FramesProcessed reports how many capture frames have passed through.
func (ec *EchoCanceller) FramesProcessed() int { return ec.framesProcessed }

// ReferenceFilled reports how many reference samples the render side
// has accumulated, up to the ring capacity.
func (ec *EchoCanceller) ReferenceFilled() int { return ec.reference.Filled() }

// CoefficientEnergy sums the squared filter taps across channels, a
// cheap convergence probe for diagnostics.
func (ec *EchoCanceller) CoefficientEnergy() float64 {
	total := 0.0
	for _, coeffs := range ec.coeffs {
		for _, w := range coeffs {
			total += float64(w * w)
		}
	}
	return total
}

// Reset clears all adaptation state while keeping the configuration.
func (ec *EchoCanceller) Reset() {
	for _, coeffs := range ec.coeffs {
		for i := range coeffs {
			coeffs[i] = 0
		}
	}
	ec.reference.Reset()
	for _, s := range ec.suppressors {
		s.Reset()
	}
	ec.nearEndPower = 0
	ec.farEndPower = 0
	ec.doubleTalk = false
	ec.erl = 0
	ec.erle = 0
	ec.framesProcessed = 0
	ec.delayMS = 0
	ec.adapting = true
}

// ResidualEchoSuppressor applies an MMSE-style post filter on the NLMS
// error signal to attenuate what the linear filter missed.
type ResidualEchoSuppressor struct {
	noise    *NoiseEstimator
	echo     *EchoEstimator
	priorSNR float32
}

func NewResidualEchoSuppressor() *ResidualEchoSuppressor {
	return &ResidualEchoSuppressor{
		noise: NewNoiseEstimator(),
		echo:  NewEchoEstimator(),
	}
}

func (res *ResidualEchoSuppressor) ProcessSample(errSignal, echoEstimate float32) float32 {
	noiseLevel := res.noise.Estimate(errSignal)
	residualEcho := res.echo.Estimate(echoEstimate)

	signalPower := errSignal*errSignal + epsilon
	disturbance := residualEcho*residualEcho + noiseLevel*noiseLevel + epsilon

	posteriorSNR := signalPower / disturbance
	res.priorSNR = 0.98*res.priorSNR + 0.02*float32(math.Max(0, float64(posteriorSNR-1)))

	gain := res.priorSNR / (1 + res.priorSNR)
	return errSignal * float32(math.Sqrt(float64(gain)))
}

func (res *ResidualEchoSuppressor) Reset() {
	res.noise.Reset()
	res.echo.Reset()
	res.priorSNR = 0
}

// NoiseEstimator tracks the background noise level of a sample stream
// with an initial averaging phase and asymmetric smoothing afterwards.
type NoiseEstimator struct {
	noiseLevel float32
	minNoise   float32
	smoothing  float32
	frameCount int
}

func NewNoiseEstimator() *NoiseEstimator {
	return &NoiseEstimator{
		noiseLevel: 1e-4,
		minNoise:   1e-6,
		smoothing:  0.98,
	}
}

func (ne *NoiseEstimator) Estimate(signal float32) float32 {
	signalPower := signal * signal

	if ne.frameCount < 100 {
		ne.noiseLevel = (ne.noiseLevel*float32(ne.frameCount) + signalPower) / float32(ne.frameCount+1)
	} else {
		alpha := ne.smoothing
		if signalPower < ne.noiseLevel {
			// decay slowly so speech bursts do not pull the floor up
			alpha = 0.99
		}
		ne.noiseLevel = alpha*ne.noiseLevel + (1-alpha)*signalPower
	}

	ne.frameCount++
	ne.noiseLevel = float32(math.Max(float64(ne.noiseLevel), float64(ne.minNoise)))
	return float32(math.Sqrt(float64(ne.noiseLevel)))
}

func (ne *NoiseEstimator) Reset() {
	ne.noiseLevel = 1e-4
	ne.frameCount = 0
}

// EchoEstimator smooths the magnitude of the linear echo estimate.
type EchoEstimator struct {
	echoLevel float32
	smoothing float32
}

func NewEchoEstimator() *EchoEstimator {
	return &EchoEstimator{echoLevel: 1e-4, smoothing: 0.9}
}

func (ee *EchoEstimator) Estimate(echoEstimate float32) float32 {
	echoPower := echoEstimate * echoEstimate
	alpha := ee.smoothing
	if echoPower < ee.echoLevel {
		alpha = 0.95
	}
	ee.echoLevel = alpha*ee.echoLevel + (1-alpha)*echoPower
	return float32(math.Sqrt(float64(ee.echoLevel)))
}

func (ee *EchoEstimator) Reset() {
	ee.echoLevel = 1e-4
}
