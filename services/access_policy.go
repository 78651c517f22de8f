package services

import (
	"strings"

	"gorm.io/gorm"

	"awazgram-server/apperrors"
	"awazgram-server/models"
)

// Actor is the authenticated identity behind an admin request. Profile is the
// village scope: the admin's own profile, or for staff the profile of the admin
// who created them. It is nil for superusers and for accounts without one.
type Actor struct {
	User    *models.User
	Profile *models.AdminProfile
}

// UserID returns the id recorded on ledger entries; nil for system actions.
func (a *Actor) UserID() *uint {
	if a == nil || a.User == nil {
		return nil
	}
	id := a.User.ID
	return &id
}

func (a *Actor) IsSuperuser() bool {
	return a != nil && a.User != nil && a.User.IsSuperuser()
}

// Village returns the scope string, or "" when there is none.
func (a *Actor) Village() string {
	if a == nil || a.Profile == nil {
		return ""
	}
	return a.Profile.VillageName
}

// AccessPolicy partitions complaints by exact, case-insensitive village name.
// "Rampur" matches "rampur" but not "Rampur Khas" or " Rampur".
type AccessPolicy struct{}

func (AccessPolicy) CanAccess(actor *Actor, c *models.Complaint) bool {
	if actor == nil || actor.User == nil || !actor.User.IsActive || c == nil {
		return false
	}
	if actor.IsSuperuser() {
		return true
	}
	if actor.Profile == nil || !actor.Profile.IsActive {
		return false
	}
	return strings.EqualFold(actor.Profile.VillageName, c.Location)
}

// Authorize is CanAccess as an AuthorizationError.
func (p AccessPolicy) Authorize(actor *Actor, c *models.Complaint) error {
	if !p.CanAccess(actor, c) {
		return apperrors.NewAuthorizationError("You are not allowed to manage complaints outside your village")
	}
	return nil
}

// Scope limits a complaints query to what actor may see.
func (AccessPolicy) Scope(db *gorm.DB, actor *Actor) (*gorm.DB, error) {
	if actor == nil || actor.User == nil || !actor.User.IsActive {
		return nil, apperrors.NewUnauthorizedError("Authentication required")
	}
	if actor.IsSuperuser() {
		return db, nil
	}
	if actor.Profile == nil || !actor.Profile.IsActive {
		return nil, apperrors.NewAuthorizationError("No active village profile for this account")
	}
	return db.Where("LOWER(location) = LOWER(?)", actor.Profile.VillageName), nil
}
