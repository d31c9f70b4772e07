package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationIDsDistinct(t *testing.T) {
	seen := map[uint64]bool{}
	for i := 0; i < 1000; i++ {
		id := NewCorrelationID("prod-1", "buyer-1")
		assert.False(t, seen[id], "correlation id collided")
		seen[id] = true
	}
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, CanTransition(StatusRequested, StatusPaymentPending))
	assert.True(t, CanTransition(StatusPaymentPending, StatusCompleted))
	assert.True(t, CanTransition(StatusPaymentPending, StatusExpired))

	assert.False(t, CanTransition(StatusCompleted, StatusExpired))
	assert.False(t, CanTransition(StatusExpired, StatusCompleted))
	assert.False(t, CanTransition(StatusRequested, StatusCompleted))
}
