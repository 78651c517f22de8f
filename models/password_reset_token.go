package models

import (
	"time"

	"gorm.io/gorm"
)

// PasswordResetToken is a one-time credential used to set a first password.
// Token holds the SHA-256 of the code handed to the user, never the code itself.
type PasswordResetToken struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Token     string     `json:"-" gorm:"size:128;uniqueIndex;not null"`
	UserID    uint       `json:"user_id" gorm:"not null;index"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null;index"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for the PasswordResetToken model
func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

func (t *PasswordResetToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IsValid checks the token is neither expired nor already used
func (t *PasswordResetToken) IsValid(now time.Time) bool {
	return !t.IsExpired(now) && t.UsedAt == nil
}

func (t *PasswordResetToken) MarkUsed(now time.Time) {
	t.UsedAt = &now
}

// BeforeCreate is a GORM hook that runs before creating a reset token
func (t *PasswordResetToken) BeforeCreate(tx *gorm.DB) error {
	if t.ExpiresAt.IsZero() {
		t.ExpiresAt = time.Now().Add(72 * time.Hour)
	}
	return nil
}
