package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Complaint represents an issue submitted by a villager
type Complaint struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	ComplaintID string `json:"complaint_id" gorm:"type:varchar(40);uniqueIndex;not null"`

	Name        string `json:"name" gorm:"type:varchar(100);not null"`
	Location    string `json:"location" gorm:"type:varchar(100);not null;index"`
	Category    string `json:"category" gorm:"type:varchar(50)"`
	Issue       string `json:"issue" gorm:"type:text;not null"`
	Description string `json:"description" gorm:"type:text"`

	// Media references, resolved by the media store
	PhotoURL     *string `json:"photo_url" gorm:"type:varchar(500)"`
	VoiceNoteURL *string `json:"voice_note_url" gorm:"type:varchar(500)"`
	QRCodeURL    *string `json:"qr_code_url" gorm:"type:varchar(500)"`

	Status   ComplaintStatus    `json:"status" gorm:"type:varchar(20);not null;default:'submitted';index"`
	Feedback *ComplaintFeedback `json:"feedback" gorm:"type:varchar(20)"`

	AssignedStaffID *uint        `json:"assigned_staff_id"`
	AssignedStaff   *StaffMember `json:"assigned_staff,omitempty" gorm:"foreignKey:AssignedStaffID"`
	EscalatedTo     string       `json:"escalated_to" gorm:"type:varchar(100)"`
	SLABreached     bool         `json:"sla_breached" gorm:"default:false"`
	TrustBadge      bool         `json:"trust_badge" gorm:"default:false"`

	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time  `json:"updated_at"`
	VerifiedAt  *time.Time `json:"verified_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
	EscalatedAt *time.Time `json:"escalated_at"`

	Trackings []ComplaintTracking `json:"trackings,omitempty" gorm:"foreignKey:ComplaintID;references:ID"`
}

// ComplaintCreate is the submission payload accepted from the public form or JSON clients
type ComplaintCreate struct {
	Name        string `json:"name" form:"name"`
	Location    string `json:"location" form:"location"`
	Category    string `json:"category" form:"category"`
	Issue       string `json:"issue" form:"issue"`
	Description string `json:"description" form:"description"`
	PhotoBase64 string `json:"photo_base64" form:"-"`
}

// ComplaintResponse is the read model handed to templates and JSON clients
type ComplaintResponse struct {
	ComplaintID      string             `json:"complaint_id"`
	Name             string             `json:"name"`
	Location         string             `json:"location"`
	Category         string             `json:"category"`
	Issue            string             `json:"issue"`
	Description      string             `json:"description"`
	PhotoURL         *string            `json:"photo_url"`
	VoiceNoteURL     *string            `json:"voice_note_url"`
	QRCodeURL        *string            `json:"qr_code_url"`
	Status           ComplaintStatus    `json:"status"`
	StatusLabel      string             `json:"status_label"`
	StatusLabelHindi string             `json:"status_label_hi"`
	StatusColor      string             `json:"status_color"`
	Feedback         *ComplaintFeedback `json:"feedback"`
	AssignedStaff    string             `json:"assigned_staff,omitempty"`
	EscalatedTo      string             `json:"escalated_to,omitempty"`
	SLABreached      bool               `json:"sla_breached"`
	TrustBadge       bool               `json:"trust_badge"`
	DaysSinceCreated int                `json:"days_since_created"`
	CreatedAt        time.Time          `json:"created_at"`
	VerifiedAt       *time.Time         `json:"verified_at"`
	ResolvedAt       *time.Time         `json:"resolved_at"`
	EscalatedAt      *time.Time         `json:"escalated_at"`
}

// TableName specifies the table name for the Complaint model
func (Complaint) TableName() string {
	return "complaints"
}

// BeforeCreate is a GORM hook that runs before a complaint is inserted
func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ComplaintID == "" {
		return errors.New("complaint_id must be assigned before create")
	}
	if c.Status == "" {
		c.Status = StatusSubmitted
	}
	c.StampPhase(time.Now())
	return nil
}

// BeforeSave keeps phase timestamps in step with the status on every save path.
func (c *Complaint) BeforeSave(tx *gorm.DB) error {
	c.StampPhase(time.Now())
	return nil
}

// StampPhase sets the timestamp for the current status if it has never been set.
func (c *Complaint) StampPhase(now time.Time) {
	switch c.Status {
	case StatusVerified:
		if c.VerifiedAt == nil {
			c.VerifiedAt = &now
		}
	case StatusResolved:
		if c.ResolvedAt == nil {
			c.ResolvedAt = &now
		}
	case StatusEscalation:
		if c.EscalatedAt == nil {
			c.EscalatedAt = &now
		}
	}
}

// PhaseColumn names the timestamp column set when a complaint first enters s,
// or "" for statuses without one.
func (s ComplaintStatus) PhaseColumn() string {
	switch s {
	case StatusVerified:
		return "verified_at"
	case StatusResolved:
		return "resolved_at"
	case StatusEscalation:
		return "escalated_at"
	}
	return ""
}

// DaysSinceCreated returns the complaint age in whole days.
func (c *Complaint) DaysSinceCreated(now time.Time) int {
	if c.CreatedAt.IsZero() || now.Before(c.CreatedAt) {
		return 0
	}
	return int(now.Sub(c.CreatedAt).Hours() / 24)
}

// HasQRCode reports whether the QR encoder already ran for this complaint.
func (c *Complaint) HasQRCode() bool {
	return c.QRCodeURL != nil && *c.QRCodeURL != ""
}

func (c *Complaint) ToResponse(now time.Time) ComplaintResponse {
	resp := ComplaintResponse{
		ComplaintID:      c.ComplaintID,
		Name:             c.Name,
		Location:         c.Location,
		Category:         c.Category,
		Issue:            c.Issue,
		Description:      c.Description,
		PhotoURL:         c.PhotoURL,
		VoiceNoteURL:     c.VoiceNoteURL,
		QRCodeURL:        c.QRCodeURL,
		Status:           c.Status,
		StatusLabel:      c.Status.Label(),
		StatusLabelHindi: c.Status.LabelHindi(),
		StatusColor:      c.Status.Color(),
		Feedback:         c.Feedback,
		EscalatedTo:      c.EscalatedTo,
		SLABreached:      c.SLABreached,
		TrustBadge:       c.TrustBadge,
		DaysSinceCreated: c.DaysSinceCreated(now),
		CreatedAt:        c.CreatedAt,
		VerifiedAt:       c.VerifiedAt,
		ResolvedAt:       c.ResolvedAt,
		EscalatedAt:      c.EscalatedAt,
	}
	if c.AssignedStaff != nil {
		resp.AssignedStaff = c.AssignedStaff.User.Username
	}
	return resp
}
