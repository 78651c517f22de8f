package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awazgram-server/models"
)

func TestResolutionRate(t *testing.T) {
	tests := []struct {
		resolved, total int64
		want            float64
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 4, 0},
		{1, 4, 25},
		{4, 4, 100},
		{1, 3, 33.33},
		{2, 3, 66.67},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolutionRate(tt.resolved, tt.total), "%d/%d", tt.resolved, tt.total)
	}
}

func TestResolutionRate_Bounds(t *testing.T) {
	for total := int64(1); total <= 60; total++ {
		for resolved := int64(0); resolved <= total; resolved++ {
			r := ResolutionRate(resolved, total)
			assert.GreaterOrEqual(t, r, 0.0)
			assert.LessOrEqual(t, r, 100.0)
		}
	}
}

func TestStatsService_EmptyStore(t *testing.T) {
	f := newFixture(t)

	stats, err := f.stats.Stats(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.ResolutionRate)
	assert.Len(t, stats.ByStatus, len(models.AllStatuses))
	assert.Empty(t, stats.Recent)
}

func TestStatsService_Counts(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.submit(t, "A", "Rampur", "x")
	}
	resolved := f.submit(t, "B", "Rampur", "y")
	forceStatus(t, f.db, resolved, models.StatusResolved)
	withFeedback := f.submit(t, "C", "Delhi", "z")
	forceStatus(t, f.db, withFeedback, models.StatusResolved)
	_, err := f.complaints.AttachFeedback(context.Background(), nil, withFeedback.ComplaintID, "happy")
	require.NoError(t, err)
	escalated := f.submit(t, "D", "Delhi", "w")
	forceStatus(t, f.db, escalated, models.StatusEscalation)

	stats, err := f.stats.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(6), stats.Total)
	assert.Equal(t, int64(3), stats.ByStatus[models.StatusSubmitted])
	assert.Equal(t, int64(1), stats.ByStatus[models.StatusResolved])
	assert.Equal(t, int64(1), stats.ByStatus[models.StatusFeedback])
	assert.Equal(t, int64(1), stats.ByStatus[models.StatusEscalation])
	assert.Equal(t, int64(2), stats.Resolved)
	assert.Equal(t, 33.33, stats.ResolutionRate)
	assert.Equal(t, int64(1), stats.Feedback[models.FeedbackHappy])
	assert.Equal(t, int64(0), stats.Feedback[models.FeedbackAngry])
	assert.Len(t, stats.Recent, 5)
	assert.Equal(t, escalated.ComplaintID, stats.Recent[0].ComplaintID)
}

func TestStatsService_VillageStats(t *testing.T) {
	f := newFixture(t)
	f.submit(t, "A", "Rampur", "x")
	r := f.submit(t, "B", "rampur", "y")
	forceStatus(t, f.db, r, models.StatusResolved)
	f.submit(t, "C", "Delhi", "z")

	stats, err := f.stats.VillageStats(context.Background(), "RAMPUR")
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Resolved)
	assert.Equal(t, 50.0, stats.ResolutionRate)

	admin := createAdmin(t, f.db, "delhi_admin", "Delhi")
	stats, err = f.stats.ActorStats(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
}
