package services

import (
	"context"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"awazgram-server/apperrors"
	"awazgram-server/database"
	"awazgram-server/logger"
	"awazgram-server/models"
	"awazgram-server/utils"
)

// StaffService onboards field staff under an administrator's village profile.
type StaffService struct {
	db     *gorm.DB
	auth   *AuthService
	mailer Mailer
	log    *slog.Logger
}

func NewStaffService(db *gorm.DB, auth *AuthService, mailer Mailer) *StaffService {
	return &StaffService{
		db:     db,
		auth:   auth,
		mailer: mailer,
		log:    logger.WithComponent("staff_service"),
	}
}

// StaffOnboarding is a newly created staff member. ResetToken is set only when the
// setup code could not be emailed and has to be handed over by the administrator.
type StaffOnboarding struct {
	Staff      *models.StaffMember `json:"staff"`
	Emailed    bool                `json:"emailed"`
	ResetToken string              `json:"reset_token,omitempty"`
}

// AddStaff creates a staff account with no usable password plus a one-time setup token.
func (s *StaffService) AddStaff(ctx context.Context, actor *Actor, in models.StaffMemberCreate) (*StaffOnboarding, error) {
	if actor == nil || actor.User == nil || !actor.User.IsAdmin() {
		return nil, apperrors.NewAuthorizationError("Only village administrators can add staff")
	}
	if actor.Profile == nil || !actor.Profile.IsActive {
		return nil, apperrors.NewAuthorizationError("No active village profile for this account")
	}

	username := utils.SanitizeText(in.Username)
	if len(username) < 3 {
		return nil, apperrors.NewValidationError("Username must be at least 3 characters")
	}
	phone := strings.TrimSpace(in.PhoneNumber)
	if phone != "" {
		if !utils.ValidatePhoneNumber(phone) {
			return nil, apperrors.NewValidationError("Invalid phone number")
		}
		phone = utils.FormatPhoneNumber(phone)
	}

	// The stored hash is of a random secret nobody sees; the account is usable
	// only after the reset token is redeemed.
	secret, err := utils.GenerateSecureToken(32)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to create staff account", err)
	}
	hash, err := utils.HashPassword(secret)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to create staff account", err)
	}

	user := &models.User{
		Username:          username,
		Email:             strings.TrimSpace(in.Email),
		PasswordHash:      hash,
		Role:              models.RoleStaff,
		IsActive:          true,
		MustResetPassword: true,
	}
	staff := &models.StaffMember{
		AdminProfileID: actor.Profile.ID,
		Designation:    utils.SanitizeText(in.Designation),
		PhoneNumber:    phone,
		IsActive:       true,
	}

	var token string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if database.IsDuplicateError(err) {
				return apperrors.NewConflictError("Username already exists")
			}
			return apperrors.NewInternalError("Failed to create staff user", err)
		}
		staff.UserID = user.ID
		if err := tx.Create(staff).Error; err != nil {
			return apperrors.NewInternalError("Failed to create staff member", err)
		}
		var err error
		token, err = s.auth.IssueResetToken(tx, user.ID)
		if err != nil {
			return apperrors.NewInternalError("Failed to issue setup token", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	staff.User = *user

	out := &StaffOnboarding{Staff: staff}
	if user.Email != "" && s.mailer != nil && s.mailer.Delivers() {
		if err := s.mailer.SendPasswordSetup(user.Email, user.Username, token); err != nil {
			s.log.Warn("failed to email staff setup code", "user_id", user.ID, "error", err)
		} else {
			out.Emailed = true
		}
	} else if s.mailer != nil && !s.mailer.Delivers() {
		_ = s.mailer.SendPasswordSetup(user.Email, user.Username, token)
	}
	if !out.Emailed {
		out.ResetToken = token
	}

	s.log.Info("staff member added",
		"staff_id", staff.ID,
		"admin_profile_id", actor.Profile.ID,
		"emailed", out.Emailed,
	)
	return out, nil
}

// ListStaff returns the staff of actor's village profile.
func (s *StaffService) ListStaff(ctx context.Context, actor *Actor) ([]models.StaffMember, error) {
	if actor == nil || actor.Profile == nil {
		return []models.StaffMember{}, nil
	}
	var staff []models.StaffMember
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("admin_profile_id = ?", actor.Profile.ID).
		Order("created_at DESC").
		Find(&staff).Error; err != nil {
		return nil, apperrors.NewInternalError("Failed to list staff", err)
	}
	return staff, nil
}
