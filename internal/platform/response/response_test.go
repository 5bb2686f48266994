package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/stayhive/service-rental/internal/domain"
)

func recordError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Error(c, err)
	return w
}

func TestError_MapsDomainErrorsToStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", domain.NewNotFoundError("Listing", "abc"), http.StatusNotFound},
		{"forbidden", domain.NewForbiddenError("cannot book your own property"), http.StatusForbidden},
		{"validation", domain.NewValidationError("stay must be at least one night"), http.StatusBadRequest},
		{"conflict", domain.NewConflictError("these dates are already booked"), http.StatusConflict},
		{"partial failure", domain.NewPartialFailureError("purge finished, delete failed", errors.New("boom")), http.StatusInternalServerError},
		{"unknown", errors.New("database exploded"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := recordError(t, tc.err)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestError_WrappedErrorStillMaps(t *testing.T) {
	inner := domain.NewConflictError("dates taken")
	w := recordError(t, errors.New("prefix: "+inner.Error()))
	// A stringified error loses its type and falls through to 500.
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// Wrapping with %w keeps the chain intact, so the inner domain error
	// still decides the status.
	w = recordError(t, fmt.Errorf("saving booking: %w", inner))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestError_HidesInternalDetails(t *testing.T) {
	w := recordError(t, errors.New("pq: connection refused"))
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Contains(t, w.Body.String(), "internal server error")
}
