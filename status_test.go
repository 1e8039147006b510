package apm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSuccess(t *testing.T) {
	assert.True(t, IsSuccess(StatusNoError))

	failures := []Status{
		StatusUnspecifiedError,
		StatusCreationFailed,
		StatusBadParameter,
		StatusBadSampleRate,
		StatusBadDataLength,
		StatusBadNumberChannels,
		StatusNotInitialized,
	}
	for _, code := range failures {
		assert.False(t, IsSuccess(code), "IsSuccess(%s)", code)
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "no error", StatusNoError.String())
	assert.Equal(t, "bad data length", StatusBadDataLength.String())
	assert.Equal(t, "unknown status", Status(42).String())
}

func TestStatusErrMapping(t *testing.T) {
	assert.NoError(t, statusErr(StatusNoError))
	assert.ErrorIs(t, statusErr(StatusNotInitialized), ErrProcessorClosed)

	err := statusErr(StatusBadDataLength)
	var perr *ProcessingError
	assert.ErrorAs(t, err, &perr)
	assert.Equal(t, StatusBadDataLength, perr.Code)
}
