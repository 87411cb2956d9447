package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	legal := []struct{ from, to Status }{
		{StatusPending, StatusInProgress},
		{StatusPending, StatusCancelled},
		{StatusInProgress, StatusCompleted},
		{StatusInProgress, StatusFailed},
		{StatusInProgress, StatusCancelled},
	}
	for _, tc := range legal {
		next, err := tc.from.Transition(tc.to)
		assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
		assert.Equal(t, tc.to, next)
	}

	illegal := []struct{ from, to Status }{
		{StatusCompleted, StatusPending},
		{StatusCompleted, StatusInProgress},
		{StatusFailed, StatusPending},
		{StatusFailed, StatusCompleted},
		{StatusCancelled, StatusInProgress},
		{StatusPending, StatusCompleted},
		{StatusPending, StatusFailed},
	}
	for _, tc := range illegal {
		next, err := tc.from.Transition(tc.to)
		assert.ErrorIs(t, err, ErrIllegalTransition, "%s -> %s", tc.from, tc.to)
		assert.Equal(t, tc.from, next, "status must stay put on rejection")
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}
