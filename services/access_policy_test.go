package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"awazgram-server/apperrors"
	"awazgram-server/models"
)

func adminActor(village string) *Actor {
	return &Actor{
		User:    &models.User{ID: 7, Username: "admin", Role: models.RoleAdmin, IsActive: true},
		Profile: &models.AdminProfile{ID: 3, VillageName: village, IsActive: true},
	}
}

func TestAccessPolicy_CanAccess(t *testing.T) {
	tests := []struct {
		name     string
		village  string
		location string
		want     bool
	}{
		{"exact", "Rampur", "Rampur", true},
		{"case differs", "Rampur", "rampur", true},
		{"upper", "rampur", "RAMPUR", true},
		{"other village", "Rampur", "Delhi", false},
		{"no hierarchy", "Rampur", "Rampur Khas", false},
		{"no trimming", "Rampur", " Rampur", false},
		{"empty location", "Rampur", "", false},
	}

	var p AccessPolicy
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.CanAccess(adminActor(tt.village), &models.Complaint{Location: tt.location})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccessPolicy_Denials(t *testing.T) {
	var p AccessPolicy
	c := &models.Complaint{Location: "Rampur"}

	assert.False(t, p.CanAccess(nil, c))
	assert.False(t, p.CanAccess(&Actor{User: &models.User{Role: models.RoleAdmin, IsActive: true}}, c))

	inactiveProfile := adminActor("Rampur")
	inactiveProfile.Profile.IsActive = false
	assert.False(t, p.CanAccess(inactiveProfile, c))

	inactiveUser := adminActor("Rampur")
	inactiveUser.User.IsActive = false
	assert.False(t, p.CanAccess(inactiveUser, c))

	err := p.Authorize(adminActor("Delhi"), c)
	assert.True(t, apperrors.IsAuthorizationError(err))
	assert.NoError(t, p.Authorize(adminActor("Rampur"), c))
}

func TestAccessPolicy_Superuser(t *testing.T) {
	root := &Actor{User: &models.User{Role: models.RoleSuperuser, IsActive: true}}

	assert.True(t, AccessPolicy{}.CanAccess(root, &models.Complaint{Location: "Anywhere"}))
}

func TestActor_Helpers(t *testing.T) {
	var nilActor *Actor
	assert.Nil(t, nilActor.UserID())
	assert.Equal(t, "", nilActor.Village())
	assert.False(t, nilActor.IsSuperuser())

	a := adminActor("Rampur")
	assert.Equal(t, uint(7), *a.UserID())
	assert.Equal(t, "Rampur", a.Village())
}
