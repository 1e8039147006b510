package apm

// Status is the engine's raw status code space. Success is the
// dedicated StatusNoError sentinel; callers must test codes through
// IsSuccess rather than comparing against zero, since not every path
// in this code space reserves zero for success.
type Status int

const (
	StatusNoError           Status = 0
	StatusUnspecifiedError  Status = -1
	StatusCreationFailed    Status = -2
	StatusBadParameter      Status = -6
	StatusBadSampleRate     Status = -7
	StatusBadDataLength     Status = -8
	StatusBadNumberChannels Status = -9
	StatusNotInitialized    Status = -13
)

// IsSuccess is the only sanctioned way to interpret a status code.
func IsSuccess(code Status) bool {
	return code == StatusNoError
}

func (s Status) String() string {
	switch s {
	case StatusNoError:
		return "no error"
	case StatusUnspecifiedError:
		return "unspecified error"
	case StatusCreationFailed:
		return "creation failed"
	case StatusBadParameter:
		return "bad parameter"
	case StatusBadSampleRate:
		return "bad sample rate"
	case StatusBadDataLength:
		return "bad data length"
	case StatusBadNumberChannels:
		return "bad number of channels"
	case StatusNotInitialized:
		return "not initialized"
	default:
		return "unknown status"
	}
}
