package models

import (
	"time"
)

// AdminProfile binds an administrator to the village whose complaints they manage
type AdminProfile struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	User        User      `json:"user" gorm:"foreignKey:UserID"`
	VillageName string    `json:"village_name" gorm:"type:varchar(100);not null;index"`
	PhoneNumber string    `json:"phone_number" gorm:"type:varchar(15)"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Staff []StaffMember `json:"staff,omitempty" gorm:"foreignKey:AdminProfileID"`
}

// TableName specifies the table name for the AdminProfile model
func (AdminProfile) TableName() string {
	return "admin_profiles"
}

// StaffMember is a field worker created by and reporting to one administrator
type StaffMember struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	UserID         uint          `json:"user_id" gorm:"uniqueIndex;not null"`
	User           User          `json:"user" gorm:"foreignKey:UserID"`
	AdminProfileID uint          `json:"admin_profile_id" gorm:"not null;index"`
	AdminProfile   *AdminProfile `json:"admin_profile,omitempty" gorm:"foreignKey:AdminProfileID"`
	Designation    string        `json:"designation" gorm:"type:varchar(100)"`
	PhoneNumber    string        `json:"phone_number" gorm:"type:varchar(15)"`
	IsActive       bool          `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// StaffMemberCreate represents the request structure for adding a staff member
type StaffMemberCreate struct {
	Username    string `json:"username" form:"username" binding:"required,min=3,max=150"`
	Email       string `json:"email" form:"email" binding:"omitempty,email"`
	Designation string `json:"designation" form:"designation" binding:"max=100"`
	PhoneNumber string `json:"phone_number" form:"phone_number" binding:"max=15"`
}

// TableName specifies the table name for the StaffMember model
func (StaffMember) TableName() string {
	return "staff_members"
}
