package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorRendering(t *testing.T) {
	assert.Equal(t, `NOT_FOUND: page "x" not found`, NotFound("page %q not found", "x").Error())

	cause := errors.New("disk full")
	err := Configuration(cause, "open snapshot")
	assert.Equal(t, "CONFIGURATION: open snapshot: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnreachable, KindOf(Unreachable("no path")))
	assert.Equal(t, KindInvalidParameter, KindOf(fmt.Errorf("wrapped: %w", InvalidParameter("bad"))))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("x")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(Unreachable("x")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidParameter("x")))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(Configuration(nil, "x")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}
