package apm

import "fmt"

// FrameDurationMs is the fixed processing granularity. Every capture
// and render call carries exactly one frame of this duration.
const FrameDurationMs = 10

// StreamConfig describes the geometry of one audio path: sample rate
// and channel count. Immutable once a processor is initialized against
// it; changing geometry requires a full re-initialization.
type StreamConfig struct {
	SampleRate int
	Channels   int
	// HasKeyboard marks a dedicated keyboard mic channel. Always false
	// in this engine, carried for config compatibility.
	HasKeyboard bool
}

// NewStreamConfig validates and builds a stream geometry. The sample
// rate must yield an integral number of samples per 10ms frame.
func NewStreamConfig(sampleRate, channels int) (StreamConfig, error) {
	config := StreamConfig{SampleRate: sampleRate, Channels: channels}
	if err := config.validate(); err != nil {
		return StreamConfig{}, err
	}
	return config, nil
}

// FrameSize is the number of samples per channel in one 10ms frame.
func (c StreamConfig) FrameSize() int {
	return c.SampleRate * FrameDurationMs / 1000
}

func (c StreamConfig) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidGeometry, c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("%w: channel count %d", ErrInvalidGeometry, c.Channels)
	}
	if c.SampleRate*FrameDurationMs%1000 != 0 {
		return fmt.Errorf("%w: sample rate %d does not yield an integral 10ms frame",
			ErrInvalidGeometry, c.SampleRate)
	}
	return nil
}

// ProcessingConfig pairs the input and output geometries of the capture
// and render paths. This engine processes in place, so input and output
// must match on each path.
type ProcessingConfig struct {
	CaptureInput  StreamConfig
	CaptureOutput StreamConfig
	RenderInput   StreamConfig
	RenderOutput  StreamConfig
}

// Validate checks every geometry and the in-place invariants.
func (pc ProcessingConfig) Validate() error {
	for _, c := range []StreamConfig{pc.CaptureInput, pc.CaptureOutput, pc.RenderInput, pc.RenderOutput} {
		if err := c.validate(); err != nil {
			return err
		}
	}
	if pc.CaptureInput != pc.CaptureOutput {
		return fmt.Errorf("%w: capture input and output geometries differ", ErrInvalidGeometry)
	}
	if pc.RenderInput != pc.RenderOutput {
		return fmt.Errorf("%w: render input and output geometries differ", ErrInvalidGeometry)
	}
	if pc.CaptureInput.SampleRate != pc.RenderInput.SampleRate {
		return fmt.Errorf("%w: capture and render sample rates differ", ErrInvalidGeometry)
	}
	return nil
}
