package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommendationStatusTransitions(t *testing.T) {
	cases := []struct {
		from    RecommendationStatus
		to      RecommendationStatus
		allowed bool
	}{
		{RecommendationPending, RecommendationScheduled, true},
		{RecommendationPending, RecommendationDeclined, true},
		{RecommendationPending, RecommendationCompleted, true},
		{RecommendationPending, RecommendationPending, false},
		{RecommendationScheduled, RecommendationCompleted, true},
		{RecommendationScheduled, RecommendationDeclined, true},
		{RecommendationScheduled, RecommendationPending, false},
		{RecommendationDeclined, RecommendationPending, true},
		{RecommendationDeclined, RecommendationScheduled, false},
		{RecommendationCompleted, RecommendationPending, false},
		{RecommendationCompleted, RecommendationScheduled, false},
		{RecommendationCompleted, RecommendationDeclined, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestRecommendationStatusTerminal(t *testing.T) {
	assert.True(t, RecommendationCompleted.Terminal())
	assert.False(t, RecommendationPending.Terminal())
	assert.False(t, RecommendationScheduled.Terminal())
	assert.False(t, RecommendationDeclined.Terminal())
}

func TestRecommendationStatusValid(t *testing.T) {
	assert.True(t, RecommendationPending.Valid())
	assert.False(t, RecommendationStatus("archived").Valid())
}

func TestAppointmentStatusNonTerminal(t *testing.T) {
	assert.True(t, AppointmentPending.NonTerminal())
	assert.True(t, AppointmentConfirmed.NonTerminal())
	assert.False(t, AppointmentDeclined.NonTerminal())
	assert.False(t, AppointmentCompleted.NonTerminal())
	assert.False(t, AppointmentCancelled.NonTerminal())
}
