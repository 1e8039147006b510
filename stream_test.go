package apm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewStreamConfig(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate int
		channels   int
		wantErr    bool
		frameSize  int
	}{
		{name: "48kHz mono", sampleRate: 48000, channels: 1, frameSize: 480},
		{name: "16kHz stereo", sampleRate: 16000, channels: 2, frameSize: 160},
		{name: "8kHz mono", sampleRate: 8000, channels: 1, frameSize: 80},
		{name: "44.1kHz yields integral frames", sampleRate: 44100, channels: 1, frameSize: 441},
		{name: "22.05kHz splits a 10ms frame", sampleRate: 22050, channels: 1, wantErr: true},
		{name: "zero sample rate", sampleRate: 0, channels: 1, wantErr: true},
		{name: "negative sample rate", sampleRate: -8000, channels: 1, wantErr: true},
		{name: "zero channels", sampleRate: 48000, channels: 0, wantErr: true},
		{name: "negative channels", sampleRate: 48000, channels: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := NewStreamConfig(tt.sampleRate, tt.channels)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidGeometry)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.frameSize, config.FrameSize())
			assert.False(t, config.HasKeyboard)
		})
	}
}

func TestFrameSizeLaw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rate := rapid.IntRange(1, 3840).Draw(t, "hundreds") * 100
		channels := rapid.IntRange(1, 8).Draw(t, "channels")

		config, err := NewStreamConfig(rate, channels)
		if err != nil {
			t.Fatalf("NewStreamConfig(%d, %d) failed: %v", rate, channels, err)
		}
		if config.FrameSize() != rate/100 {
			t.Fatalf("FrameSize() = %d for rate %d; want %d", config.FrameSize(), rate, rate/100)
		}
	})
}

func TestProcessingConfigValidate(t *testing.T) {
	mono48k, err := NewStreamConfig(48000, 1)
	require.NoError(t, err)
	stereo48k, err := NewStreamConfig(48000, 2)
	require.NoError(t, err)
	mono16k, err := NewStreamConfig(16000, 1)
	require.NoError(t, err)

	t.Run("matching paths", func(t *testing.T) {
		pc := ProcessingConfig{
			CaptureInput: mono48k, CaptureOutput: mono48k,
			RenderInput: stereo48k, RenderOutput: stereo48k,
		}
		assert.NoError(t, pc.Validate())
	})

	t.Run("capture in/out mismatch", func(t *testing.T) {
		pc := ProcessingConfig{
			CaptureInput: mono48k, CaptureOutput: stereo48k,
			RenderInput: mono48k, RenderOutput: mono48k,
		}
		assert.ErrorIs(t, pc.Validate(), ErrInvalidGeometry)
	})

	t.Run("render in/out mismatch", func(t *testing.T) {
		pc := ProcessingConfig{
			CaptureInput: mono48k, CaptureOutput: mono48k,
			RenderInput: stereo48k, RenderOutput: mono48k,
		}
		assert.ErrorIs(t, pc.Validate(), ErrInvalidGeometry)
	})

	t.Run("sample rate mismatch across paths", func(t *testing.T) {
		pc := ProcessingConfig{
			CaptureInput: mono48k, CaptureOutput: mono48k,
			RenderInput: mono16k, RenderOutput: mono16k,
		}
		assert.ErrorIs(t, pc.Validate(), ErrInvalidGeometry)
	})
}
