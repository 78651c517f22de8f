package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplaintStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from ComplaintStatus
		to   ComplaintStatus
		want bool
	}{
		{StatusSubmitted, StatusVerified, true},
		{StatusSubmitted, StatusEscalation, true},
		{StatusSubmitted, StatusResolved, false},
		{StatusVerified, StatusResolved, true},
		{StatusVerified, StatusEscalation, true},
		{StatusVerified, StatusSubmitted, false},
		{StatusResolved, StatusFeedback, true},
		{StatusResolved, StatusEscalation, true},
		{StatusResolved, StatusVerified, false},
		{StatusFeedback, StatusEscalation, true},
		{StatusFeedback, StatusPerformance, true},
		{StatusEscalation, StatusVerified, true},
		{StatusEscalation, StatusResolved, true},
		{StatusEscalation, StatusFeedback, false},
		{StatusPerformance, StatusDashboard, true},
		{StatusDashboard, StatusSubmitted, false},
		{StatusSubmitted, StatusSubmitted, false},
		{ComplaintStatus("pending"), StatusVerified, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestComplaintStatus_EveryStatusHasTransitionsEntry(t *testing.T) {
	for _, s := range AllStatuses {
		assert.True(t, s.IsValid(), s)
		for _, next := range s.AllowedTransitions() {
			assert.True(t, next.IsValid(), "%s -> %s", s, next)
			assert.NotEqual(t, s, next)
		}
	}
	assert.Empty(t, StatusDashboard.AllowedTransitions())
}

func TestComplaintStatus_AllowedTransitionsReturnsCopy(t *testing.T) {
	got := StatusSubmitted.AllowedTransitions()
	got[0] = StatusDashboard

	assert.Equal(t, StatusVerified, StatusSubmitted.AllowedTransitions()[0])
}

func TestParseComplaintStatus(t *testing.T) {
	s, err := ParseComplaintStatus("resolved")
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, s)

	_, err = ParseComplaintStatus("Resolved")
	assert.Error(t, err)

	_, err = ParseComplaintStatus("escalated")
	assert.Error(t, err)
}

func TestComplaintStatus_LabelsAndColors(t *testing.T) {
	assert.Equal(t, "Submitted", StatusSubmitted.Label())
	assert.Equal(t, "हल हुई", StatusResolved.LabelHindi())
	assert.Equal(t, "orange", StatusSubmitted.Color())
	assert.Equal(t, "blue", StatusVerified.Color())
	assert.Equal(t, "green", StatusResolved.Color())
	assert.Equal(t, "red", StatusEscalation.Color())

	unknown := ComplaintStatus("archived")
	assert.Equal(t, "gray", unknown.Color())
	assert.Equal(t, "archived", unknown.Label())
}

func TestParseComplaintFeedback(t *testing.T) {
	for _, f := range AllFeedback {
		got, err := ParseComplaintFeedback(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := ParseComplaintFeedback("ecstatic")
	assert.Error(t, err)
	assert.Equal(t, "🙂 Happy", FeedbackHappy.Label())
}

func TestComplaintStatus_PhaseColumn(t *testing.T) {
	assert.Equal(t, "verified_at", StatusVerified.PhaseColumn())
	assert.Equal(t, "resolved_at", StatusResolved.PhaseColumn())
	assert.Equal(t, "escalated_at", StatusEscalation.PhaseColumn())
	for _, s := range []ComplaintStatus{StatusSubmitted, StatusFeedback, StatusPerformance, StatusDashboard} {
		assert.Empty(t, s.PhaseColumn(), s)
	}
}
