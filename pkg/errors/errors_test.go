package errors

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTooManyRequestsSurfacesWaitTime(t *testing.T) {
	err := TooManyRequests("Slow down", 2500*time.Millisecond)

	assert.Equal(t, "TOO_MANY_REQUESTS", err.Code)
	assert.Equal(t, http.StatusTooManyRequests, err.Status)
	assert.Equal(t, "Slow down (retry in 3s)", err.Message)
}

func TestTooManyRequestsWithoutWaitTime(t *testing.T) {
	err := TooManyRequests("Slow down", 0)

	assert.Equal(t, "Slow down", err.Message)
}

func TestIsMatchesWrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("sending failed: %w", CapacityExceeded("No spots left"))

	assert.True(t, Is(wrapped, "CAPACITY_EXCEEDED"))
	assert.False(t, Is(wrapped, "NOT_FOUND"))
	assert.False(t, Is(fmt.Errorf("plain"), "CAPACITY_EXCEEDED"))
}
