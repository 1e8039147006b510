package apm

// Int16ToFloat32 converts PCM16 samples to [-1.0, 1.0] floats.
func Int16ToFloat32(pcm []int16) []float32 {
	floats := make([]float32, len(pcm))
	for i, v := range pcm {
		floats[i] = float32(v) / 32768.0
	}
	return floats
}

// Float32ToInt16 converts [-1.0, 1.0] floats to PCM16, clamping
// out-of-range samples.
func Float32ToInt16(floats []float32) []int16 {
	pcm := make([]int16, len(floats))
	for i, v := range floats {
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		pcm[i] = int16(v * 32767.0)
	}
	return pcm
}

// Deinterleave splits interleaved samples into the per-channel planar
// layout the processor consumes. dst must hold channels slices of
// len(samples)/channels each.
func Deinterleave(samples []float32, dst [][]float32) {
	channels := len(dst)
	for i, s := range samples {
		dst[i%channels][i/channels] = s
	}
}

// Interleave packs per-channel planar buffers back into interleaved
// order. dst must hold channels*frameSize samples.
func Interleave(src [][]float32, dst []float32) {
	channels := len(src)
	for ch, buf := range src {
		for i, s := range buf {
			dst[i*channels+ch] = s
		}
	}
}
