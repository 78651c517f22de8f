package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleStaff     UserRole = "staff"
	RoleSuperuser UserRole = "superuser"
)

type User struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	Username     string   `json:"username" gorm:"size:150;uniqueIndex;not null"`
	Email        string   `json:"email" gorm:"size:254"`
	PasswordHash string   `json:"-" gorm:"size:255;not null"` // Hidden from JSON
	Role         UserRole `json:"role" gorm:"type:varchar(20);not null;default:'admin'"`
	IsActive     bool     `json:"is_active" gorm:"default:true"`
	// MustResetPassword blocks login until the one-time reset flow completes
	MustResetPassword bool      `json:"must_reset_password" gorm:"default:false"`
	LastLoginAt       *time.Time `json:"last_login_at"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	AdminProfile *AdminProfile `json:"admin_profile,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate is a GORM hook that runs before creating a user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleAdmin
	}
	return nil
}

// IsValidRole checks if the user role is valid
func (u *User) IsValidRole() bool {
	switch u.Role {
	case RoleAdmin, RoleStaff, RoleSuperuser:
		return true
	default:
		return false
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsStaff() bool {
	return u.Role == RoleStaff
}

func (u *User) IsSuperuser() bool {
	return u.Role == RoleSuperuser
}
