package services

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awazgram-server/apperrors"
	"awazgram-server/models"
)

type recordingMailer struct {
	mu       sync.Mutex
	delivers bool
	sent     []string
}

func (m *recordingMailer) Delivers() bool { return m.delivers }

func (m *recordingMailer) SendPasswordSetup(to, username, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to+"|"+username+"|"+token)
	return nil
}

func TestStaffService_AddStaffWithoutMailerReturnsToken(t *testing.T) {
	db := newTestDB(t)
	auth := newAuth(t, db)
	mailer := &recordingMailer{}
	svc := NewStaffService(db, auth, mailer)
	admin := createAdmin(t, db, "rampur_admin", "Rampur")
	ctx := context.Background()

	out, err := svc.AddStaff(ctx, admin, models.StaffMemberCreate{
		Username:    "worker1",
		Designation: "Lineman",
		PhoneNumber: "9876543210",
	})
	require.NoError(t, err)

	assert.False(t, out.Emailed)
	assert.NotEmpty(t, out.ResetToken)
	assert.Equal(t, admin.Profile.ID, out.Staff.AdminProfileID)
	assert.Equal(t, "+919876543210", out.Staff.PhoneNumber)

	var user models.User
	require.NoError(t, db.Where("username = ?", "worker1").First(&user).Error)
	assert.Equal(t, models.RoleStaff, user.Role)
	assert.True(t, user.MustResetPassword)

	// no default password works
	for _, guess := range []string{"", "password", "staff@123", "worker1"} {
		_, err := auth.Login(ctx, "worker1", guess)
		assert.Error(t, err, guess)
	}

	require.NoError(t, auth.ResetPassword(ctx, out.ResetToken, "my-own-password"))
	_, err = auth.Login(ctx, "worker1", "my-own-password")
	assert.NoError(t, err)

	staff, err := svc.ListStaff(ctx, admin)
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "worker1", staff[0].User.Username)
}

func TestStaffService_AddStaffEmailsToken(t *testing.T) {
	db := newTestDB(t)
	mailer := &recordingMailer{delivers: true}
	svc := NewStaffService(db, newAuth(t, db), mailer)
	admin := createAdmin(t, db, "rampur_admin", "Rampur")

	out, err := svc.AddStaff(context.Background(), admin, models.StaffMemberCreate{Username: "worker2", Email: "w2@example.com"})
	require.NoError(t, err)

	assert.True(t, out.Emailed)
	assert.Empty(t, out.ResetToken)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0], "w2@example.com|worker2|")
}

func TestStaffService_AddStaffRules(t *testing.T) {
	db := newTestDB(t)
	svc := NewStaffService(db, newAuth(t, db), &recordingMailer{})
	admin := createAdmin(t, db, "rampur_admin", "Rampur")
	ctx := context.Background()

	_, err := svc.AddStaff(ctx, admin, models.StaffMemberCreate{Username: "ab"})
	assert.True(t, apperrors.IsValidationError(err))

	_, err = svc.AddStaff(ctx, admin, models.StaffMemberCreate{Username: "worker3", PhoneNumber: "12"})
	assert.True(t, apperrors.IsValidationError(err))

	_, err = svc.AddStaff(ctx, admin, models.StaffMemberCreate{Username: "rampur_admin"})
	assert.True(t, apperrors.IsConflictError(err))

	staffActor := &Actor{User: &models.User{Role: models.RoleStaff, IsActive: true}, Profile: admin.Profile}
	_, err = svc.AddStaff(ctx, staffActor, models.StaffMemberCreate{Username: "worker4"})
	assert.True(t, apperrors.IsAuthorizationError(err))

	_, err = svc.AddStaff(ctx, &Actor{User: admin.User}, models.StaffMemberCreate{Username: "worker5"})
	assert.True(t, apperrors.IsAuthorizationError(err))
}

func TestLogMailer_OmitsSetupCode(t *testing.T) {
	var buf bytes.Buffer
	m := &LogMailer{log: slog.New(slog.NewJSONHandler(&buf, nil))}

	require.NoError(t, m.SendPasswordSetup("worker@example.org", "worker1", "one-time-code-123"))
	assert.Contains(t, buf.String(), "worker1")
	assert.NotContains(t, buf.String(), "one-time-code-123")
}
