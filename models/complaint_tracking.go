package models

import (
	"time"
)

// ComplaintTracking is one append-only ledger entry for a status change
type ComplaintTracking struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	ComplaintID uint            `json:"complaint_id" gorm:"not null;index:idx_tracking_complaint_time"`
	FromStatus  ComplaintStatus `json:"from_status" gorm:"type:varchar(20)"`
	Status      ComplaintStatus `json:"status" gorm:"type:varchar(20);not null"`
	Notes       string          `json:"notes" gorm:"type:text"`

	// UpdatedByID is nil for entries written by the system
	UpdatedByID *uint `json:"updated_by_id"`
	UpdatedBy   *User `json:"updated_by,omitempty" gorm:"foreignKey:UpdatedByID"`

	UpdatedAt time.Time `json:"updated_at" gorm:"autoCreateTime;index:idx_tracking_complaint_time"`
}

// ComplaintTrackingResponse represents a ledger entry as shown on the tracking page
type ComplaintTrackingResponse struct {
	FromStatus  ComplaintStatus `json:"from_status,omitempty"`
	Status      ComplaintStatus `json:"status"`
	StatusLabel string          `json:"status_label"`
	StatusColor string          `json:"status_color"`
	Notes       string          `json:"notes"`
	UpdatedBy   string          `json:"updated_by,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the ComplaintTracking model
func (ComplaintTracking) TableName() string {
	return "complaint_trackings"
}

func (t *ComplaintTracking) ToResponse() ComplaintTrackingResponse {
	resp := ComplaintTrackingResponse{
		FromStatus:  t.FromStatus,
		Status:      t.Status,
		StatusLabel: t.Status.Label(),
		StatusColor: t.Status.Color(),
		Notes:       t.Notes,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.UpdatedBy != nil {
		resp.UpdatedBy = t.UpdatedBy.Username
	}
	return resp
}
