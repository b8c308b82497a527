package common

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindError_MatchesKindAndCause(t *testing.T) {
	err := KindError(ErrTransportIO, "fetch a.pdf", io.ErrUnexpectedEOF)

	assert.True(t, errors.Is(err, ErrTransportIO))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.False(t, errors.Is(err, ErrTransportConnect))
	assert.Equal(t, "TRANSPORT_IO: fetch a.pdf: unexpected EOF", err.Error())
}

func TestKindError_SurvivesFmtWrapping(t *testing.T) {
	err := WrapError(KindErrorf(ErrInvalidDate, "start date %q", "2024-13-40"), "parse payload")

	assert.True(t, errors.Is(err, ErrInvalidDate))
	assert.Equal(t, "INVALID_DATE", Code(err))
	assert.Equal(t, "", Code(io.EOF))
}

func TestWrapError_NilStaysNil(t *testing.T) {
	assert.NoError(t, WrapError(nil, "list ledger"))
}
