package services

import (
	"context"
	"math"

	"gorm.io/gorm"

	"awazgram-server/apperrors"
	"awazgram-server/models"
)

const maxRecentLimit = 50

// resolvedStatuses counts as resolved for the resolution rate: the complaint
// passed resolution and has not been escalated since.
var resolvedStatuses = []models.ComplaintStatus{
	models.StatusResolved,
	models.StatusFeedback,
	models.StatusPerformance,
	models.StatusDashboard,
}

// Stats is a snapshot of the complaint store, recomputed on every call.
type Stats struct {
	Total          int64                              `json:"total"`
	ByStatus       map[models.ComplaintStatus]int64   `json:"by_status"`
	Resolved       int64                              `json:"resolved"`
	ResolutionRate float64                            `json:"resolution_rate"`
	Feedback       map[models.ComplaintFeedback]int64 `json:"feedback"`
	Recent         []models.Complaint                 `json:"-"`
}

type StatsService struct {
	db          *gorm.DB
	recentLimit int
}

func NewStatsService(db *gorm.DB, recentLimit int) *StatsService {
	return &StatsService{db: db, recentLimit: clampRecent(recentLimit)}
}

// ResolutionRate is resolved/total as a percentage rounded to two decimals, 0 for an empty store.
func ResolutionRate(resolved, total int64) float64 {
	if total <= 0 {
		return 0
	}
	rate := float64(resolved) / float64(total) * 100
	return math.Round(rate*100) / 100
}

// Stats covers every complaint.
func (s *StatsService) Stats(ctx context.Context) (*Stats, error) {
	return s.compute(ctx, func(db *gorm.DB) *gorm.DB { return db })
}

// VillageStats covers one village, matched the same way as the access policy.
func (s *StatsService) VillageStats(ctx context.Context, village string) (*Stats, error) {
	return s.compute(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(location) = LOWER(?)", village)
	})
}

// ActorStats covers what actor may see.
func (s *StatsService) ActorStats(ctx context.Context, actor *Actor) (*Stats, error) {
	if actor.IsSuperuser() {
		return s.Stats(ctx)
	}
	if _, err := (AccessPolicy{}).Scope(s.db, actor); err != nil {
		return nil, err
	}
	return s.VillageStats(ctx, actor.Village())
}

type statusCount struct {
	Status models.ComplaintStatus
	Count  int64
}

type feedbackCount struct {
	Feedback models.ComplaintFeedback
	Count    int64
}

func (s *StatsService) compute(ctx context.Context, scope func(*gorm.DB) *gorm.DB) (*Stats, error) {
	base := func() *gorm.DB {
		return scope(s.db.WithContext(ctx).Model(&models.Complaint{}))
	}

	stats := &Stats{
		ByStatus: make(map[models.ComplaintStatus]int64, len(models.AllStatuses)),
		Feedback: make(map[models.ComplaintFeedback]int64, len(models.AllFeedback)),
	}
	for _, st := range models.AllStatuses {
		stats.ByStatus[st] = 0
	}
	for _, fb := range models.AllFeedback {
		stats.Feedback[fb] = 0
	}

	var byStatus []statusCount
	if err := base().Select("status, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, apperrors.NewInternalError("Failed to compute statistics", err)
	}
	for _, row := range byStatus {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
	}
	for _, st := range resolvedStatuses {
		stats.Resolved += stats.ByStatus[st]
	}
	stats.ResolutionRate = ResolutionRate(stats.Resolved, stats.Total)

	var byFeedback []feedbackCount
	if err := base().Select("feedback, COUNT(*) AS count").
		Where("feedback IS NOT NULL AND feedback <> ''").
		Group("feedback").
		Scan(&byFeedback).Error; err != nil {
		return nil, apperrors.NewInternalError("Failed to compute statistics", err)
	}
	for _, row := range byFeedback {
		stats.Feedback[row.Feedback] = row.Count
	}

	if err := base().Order("created_at DESC, id DESC").Limit(s.recentLimit).Find(&stats.Recent).Error; err != nil {
		return nil, apperrors.NewInternalError("Failed to load recent complaints", err)
	}

	return stats, nil
}

func clampRecent(n int) int {
	if n < 1 {
		return 5
	}
	if n > maxRecentLimit {
		return maxRecentLimit
	}
	return n
}
