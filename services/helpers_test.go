package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"awazgram-server/config"
	"awazgram-server/database"
	"awazgram-server/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// sequenceIDs hands out ids in order and repeats the last one.
type sequenceIDs struct {
	mu  sync.Mutex
	ids []string
	n   int
}

func (g *sequenceIDs) Generate(time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.n
	if i >= len(g.ids) {
		i = len(g.ids) - 1
	}
	g.n++
	return g.ids[i], nil
}

// switchableStore wraps a local store and can be told to fail.
type switchableStore struct {
	*LocalMediaStore
	fail bool
}

func (s *switchableStore) Save(ctx context.Context, folder, name string, data []byte) (string, error) {
	if s.fail {
		return "", errors.New("storage offline")
	}
	return s.LocalMediaStore.Save(ctx, folder, name, data)
}

type fixture struct {
	db         *gorm.DB
	store      *switchableStore
	complaints *ComplaintService
	stats      *StatsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	store := &switchableStore{LocalMediaStore: NewLocalMediaStore(t.TempDir(), "/media")}
	ids := &DateIDGenerator{Prefix: "AWZ", Location: time.UTC}
	svc := NewComplaintService(db, ids, NewQREncoder(store, 256), store, config.ComplaintConfig{IDMaxAttempts: 5})
	return &fixture{
		db:         db,
		store:      store,
		complaints: svc,
		stats:      NewStatsService(db, 5),
	}
}

func (f *fixture) submit(t *testing.T, name, location, issue string) *models.Complaint {
	t.Helper()
	c, err := f.complaints.Create(context.Background(), SubmitInput{
		ComplaintCreate: models.ComplaintCreate{Name: name, Location: location, Issue: issue},
	})
	require.NoError(t, err)
	return c
}

// createAdmin inserts an active admin scoped to village without going through bcrypt.
func createAdmin(t *testing.T, db *gorm.DB, username, village string) *Actor {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "x", Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, db.Create(user).Error)
	profile := &models.AdminProfile{UserID: user.ID, VillageName: village, IsActive: true}
	require.NoError(t, db.Create(profile).Error)
	return &Actor{User: user, Profile: profile}
}

func trackingCount(t *testing.T, db *gorm.DB, complaintPK uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.ComplaintTracking{}).Where("complaint_id = ?", complaintPK).Count(&n).Error)
	return n
}

func reload(t *testing.T, db *gorm.DB, complaintID string) *models.Complaint {
	t.Helper()
	var c models.Complaint
	require.NoError(t, db.Where("complaint_id = ?", complaintID).First(&c).Error)
	return &c
}

func forceStatus(t *testing.T, db *gorm.DB, c *models.Complaint, status models.ComplaintStatus) {
	t.Helper()
	require.NoError(t, db.Model(&models.Complaint{}).Where("id = ?", c.ID).Update("status", string(status)).Error)
}
