package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{NotFound("no such event"), http.StatusNotFound},
		{State("already started"), http.StatusBadRequest},
		{Eligibility("not in audience"), http.StatusBadRequest},
		{CapacityFull("event is full"), http.StatusConflict},
		{Conflict("has registrations"), http.StatusConflict},
		{TimeConflict("overlapping event"), http.StatusConflict},
		{Contention("try again"), http.StatusServiceUnavailable},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestIsCodeUnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("registering: %w", CapacityFull("event is full"))

	assert.True(t, IsCode(err, CodeCapacityFull))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(errors.New("plain"), CodeCapacityFull))
}

func TestWithDetails(t *testing.T) {
	err := TimeConflict("overlapping event").WithDetails(map[string]interface{}{
		"conflicting_events": []uint{4, 9},
	})

	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, CodeTimeConflict, appErr.Code)
	assert.Equal(t, []uint{4, 9}, appErr.Details["conflicting_events"])
	assert.Equal(t, "TIME_CONFLICT: overlapping event", appErr.Error())
}
