package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsInnermostCode(t *testing.T) {
	base := IOError("data.csv", fs.ErrNotExist)
	wrapped := Wrapf(base, "load session %s", "abc")

	assert.Equal(t, CodeIOError, GetCode(wrapped))
	assert.True(t, stderrors.Is(wrapped, fs.ErrNotExist))
	assert.Contains(t, wrapped.Error(), "load session abc")
	assert.Contains(t, wrapped.Error(), "cannot read data.csv")
}

func TestWrapPlainError(t *testing.T) {
	wrapped := Wrap(stderrors.New("boom"), "render")
	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestGetCodeThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", ParseError("bad quoting", nil))
	assert.Equal(t, CodeParseError, GetCode(err))
	assert.True(t, IsAppError(err))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("x")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{InvalidInput("bad gender"), http.StatusBadRequest},
		{NotFound("session"), http.StatusNotFound},
		{IOError("x", nil), http.StatusServiceUnavailable},
		{ParseError("x", nil), http.StatusServiceUnavailable},
		{InternalError("x"), http.StatusInternalServerError},
		{stderrors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeNotFound, stderrors.New("missing"))
	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.Equal(t, "missing", err.Error())
}

func TestWithCode_PlainErrorKeepsChain(t *testing.T) {
	cause := fmt.Errorf("session %s not found: %w", "abc", fs.ErrNotExist)
	err := WithCode(CodeNotFound, cause)

	assert.Equal(t, "session abc not found: file does not exist", err.Error())
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))

	wrapped := Wrap(err, "lookup failed")
	assert.Equal(t, "lookup failed: session abc not found: file does not exist", wrapped.Error())
	assert.Equal(t, CodeNotFound, GetCode(wrapped))
}
