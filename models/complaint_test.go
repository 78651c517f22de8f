package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplaint_StampPhaseSetsOnce(t *testing.T) {
	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	c := &Complaint{Status: StatusVerified}
	c.StampPhase(first)
	require.NotNil(t, c.VerifiedAt)
	assert.Equal(t, first, *c.VerifiedAt)

	// leave and come back: the original timestamp stays
	c.Status = StatusEscalation
	c.StampPhase(later)
	c.Status = StatusVerified
	c.StampPhase(later.Add(time.Hour))

	assert.Equal(t, first, *c.VerifiedAt)
	require.NotNil(t, c.EscalatedAt)
	assert.Equal(t, later, *c.EscalatedAt)
	assert.Nil(t, c.ResolvedAt)
}

func TestComplaint_StampPhaseIgnoresStatusesWithoutTimestamp(t *testing.T) {
	c := &Complaint{Status: StatusFeedback}
	c.StampPhase(time.Now())

	assert.Nil(t, c.VerifiedAt)
	assert.Nil(t, c.ResolvedAt)
	assert.Nil(t, c.EscalatedAt)
}

func TestComplaint_DaysSinceCreated(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &Complaint{CreatedAt: created}

	assert.Equal(t, 0, c.DaysSinceCreated(created.Add(23*time.Hour)))
	assert.Equal(t, 1, c.DaysSinceCreated(created.Add(25*time.Hour)))
	assert.Equal(t, 10, c.DaysSinceCreated(created.AddDate(0, 0, 10)))
	assert.Equal(t, 0, c.DaysSinceCreated(created.Add(-time.Hour)))
	assert.Equal(t, 0, (&Complaint{}).DaysSinceCreated(created))
}

func TestComplaint_HasQRCode(t *testing.T) {
	empty := ""
	url := "/media/complaint_qrcodes/AWZ.png"

	assert.False(t, (&Complaint{}).HasQRCode())
	assert.False(t, (&Complaint{QRCodeURL: &empty}).HasQRCode())
	assert.True(t, (&Complaint{QRCodeURL: &url}).HasQRCode())
}

func TestComplaint_ToResponse(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	happy := FeedbackHappy
	c := &Complaint{
		ComplaintID: "AWZ20250301ABC123",
		Name:        "Ram",
		Location:    "Rampur",
		Issue:       "No water",
		Status:      StatusResolved,
		Feedback:    &happy,
		CreatedAt:   created,
	}

	resp := c.ToResponse(created.AddDate(0, 0, 3))

	assert.Equal(t, "AWZ20250301ABC123", resp.ComplaintID)
	assert.Equal(t, "Resolved", resp.StatusLabel)
	assert.Equal(t, "green", resp.StatusColor)
	assert.Equal(t, 3, resp.DaysSinceCreated)
	require.NotNil(t, resp.Feedback)
	assert.Equal(t, FeedbackHappy, *resp.Feedback)
}

func TestComplaintTracking_ToResponse(t *testing.T) {
	system := ComplaintTracking{Status: StatusSubmitted, Notes: "Complaint submitted"}
	assert.Empty(t, system.ToResponse().UpdatedBy)

	byAdmin := ComplaintTracking{
		FromStatus: StatusSubmitted,
		Status:     StatusVerified,
		UpdatedBy:  &User{Username: "rampur_admin"},
	}
	resp := byAdmin.ToResponse()
	assert.Equal(t, "rampur_admin", resp.UpdatedBy)
	assert.Equal(t, "Verified", resp.StatusLabel)
	assert.Equal(t, StatusSubmitted, resp.FromStatus)
}

func TestPasswordResetToken_Validity(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tok := &PasswordResetToken{ExpiresAt: now.Add(time.Hour)}

	assert.True(t, tok.IsValid(now))
	assert.False(t, tok.IsValid(now.Add(2*time.Hour)))

	tok.MarkUsed(now)
	assert.False(t, tok.IsValid(now))
	require.NotNil(t, tok.UsedAt)
}

func TestUser_Roles(t *testing.T) {
	u := &User{Role: RoleStaff}
	assert.True(t, u.IsValidRole())
	assert.True(t, u.IsStaff())
	assert.False(t, u.IsAdmin())

	assert.False(t, (&User{Role: "customer"}).IsValidRole())
	assert.True(t, (&User{Role: RoleSuperuser}).IsSuperuser())
}

func TestComplaint_ToResponseHandling(t *testing.T) {
	staffID := uint(7)
	c := &Complaint{
		ComplaintID:     "AWZ20250301ABC123",
		Status:          StatusVerified,
		AssignedStaffID: &staffID,
		AssignedStaff:   &StaffMember{ID: staffID, User: User{Username: "lineman1"}},
		EscalatedTo:     "Block Office",
		SLABreached:     true,
	}
	resp := c.ToResponse(time.Now())
	assert.Equal(t, "lineman1", resp.AssignedStaff)
	assert.Equal(t, "Block Office", resp.EscalatedTo)
	assert.True(t, resp.SLABreached)
	assert.False(t, resp.TrustBadge)

	c.AssignedStaff = nil
	assert.Empty(t, c.ToResponse(time.Now()).AssignedStaff)
}
