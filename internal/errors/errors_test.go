package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestIs_MatchesByCode verifies sentinels match any error with the same code
func TestIs_MatchesByCode(t *testing.T) {
	err := Unattainable("n above %d", 100)
	assert.True(t, stderrors.Is(err, ErrUnattainable))
	assert.False(t, stderrors.Is(err, ErrConvergence))

	wrapped := fmt.Errorf("solve: %w", err)
	assert.True(t, stderrors.Is(wrapped, ErrUnattainable))
}

// TestWrap_PreservesCode verifies wrapping keeps the inner code
func TestWrap_PreservesCode(t *testing.T) {
	inner := Convergence("budget exhausted")
	err := Wrapf(inner, "solving for %s", "n")

	assert.Equal(t, CodeConvergence, GetCode(err))
	assert.Equal(t, "solving for n: budget exhausted", err.Error())
	assert.True(t, stderrors.Is(err, ErrConvergence))

	plain := Wrap(stderrors.New("boom"), "context")
	assert.Equal(t, CodeInternalError, GetCode(plain))
	assert.Nil(t, Wrap(nil, "nothing"))
}

// TestWithCode replaces the code of an existing error
func TestWithCode(t *testing.T) {
	err := WithCode(CodeCanceled, stderrors.New("context canceled"))
	assert.Equal(t, CodeCanceled, GetCode(err))
	assert.True(t, IsAppError(err))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("x")))
}

// TestHTTPStatus maps each error class onto a response code
func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Specification("bad"), http.StatusBadRequest},
		{InvalidInput("bad"), http.StatusBadRequest},
		{Domain("bad"), http.StatusUnprocessableEntity},
		{Unattainable("bad"), http.StatusUnprocessableEntity},
		{WithCode(CodeCanceled, stderrors.New("late")), http.StatusRequestTimeout},
		{Convergence("bad"), http.StatusInternalServerError},
		{stderrors.New("bad"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}
