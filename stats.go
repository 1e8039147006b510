package apm

// Stats is an immutable snapshot of the diagnostic values the enabled
// modules currently publish. Every field is independently optional: a
// nil pointer means the producing module is disabled, has not yet
// computed the value, or does not support it. Absence is never encoded
// as a zero value.
type Stats struct {
	// VoiceDetected reports whether the last capture frame carried
	// speech. Published by the voice detection module.
	VoiceDetected *bool

	// RMSLevel is the capture level since the previous stats query as
	// a positive integer in [0, 127] (the level in -dBFS). Published
	// by the level estimation module.
	RMSLevel *int

	// EchoReturnLoss and EchoReturnLossEnhancement are the echo
	// canceller's smoothed metrics in dB, present once the canceller
	// has processed at least one capture frame.
	EchoReturnLoss            *float64
	EchoReturnLossEnhancement *float64

	// The remaining fields are reserved: no module currently produces
	// them and they are always absent.
	DivergentFilterFraction         *float64
	DelayMedianMs                   *int
	DelayStandardDeviationMs        *int
	ResidualEchoLikelihood          *float64
	ResidualEchoLikelihoodRecentMax *float64
	DelayMs                         *int
}
