package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"awazgram-server/apperrors"
	"awazgram-server/database"
	"awazgram-server/logger"
	"awazgram-server/models"
	"awazgram-server/types"
	"awazgram-server/utils"
)

// ErrPasswordResetRequired is returned by Login for accounts that must set a password first.
var ErrPasswordResetRequired = apperrors.NewAuthorizationError("Password reset required before login")

// AuthService handles admin login, session validation and password setup.
type AuthService struct {
	db        *gorm.DB
	jwt       *JWTService
	blacklist TokenBlacklist
	resetTTL  time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func NewAuthService(db *gorm.DB, jwt *JWTService, blacklist TokenBlacklist, resetTTL time.Duration) *AuthService {
	if resetTTL <= 0 {
		resetTTL = 72 * time.Hour
	}
	return &AuthService{
		db:        db,
		jwt:       jwt,
		blacklist: blacklist,
		resetTTL:  resetTTL,
		now:       time.Now,
		log:       logger.WithComponent("auth_service"),
	}
}

// LoginResult is a successful login.
type LoginResult struct {
	Token *AccessToken
	User  *models.User
}

// Login checks credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.NewValidationError("Username and password are required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewInternalError("Failed to load user", err)
	}
	if err != nil || !utils.CheckPasswordHash(password, user.PasswordHash) {
		s.log.Warn("failed login attempt", "username", username)
		return nil, apperrors.NewUnauthorizedError("Invalid username or password")
	}
	if !user.IsActive {
		return nil, apperrors.NewAuthorizationError("Account is disabled")
	}
	if user.MustResetPassword {
		return nil, ErrPasswordResetRequired
	}

	token, err := s.jwt.GenerateAccessToken(&user)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to issue session", err)
	}

	now := s.now()
	user.LastLoginAt = &now
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		s.log.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}

	s.log.Info("user logged in", "user_id", user.ID, "role", user.Role)
	return &LoginResult{Token: token, User: &user}, nil
}

// Authenticate resolves a session token to the acting user and their village scope.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*Actor, *types.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, nil, apperrors.NewUnauthorizedError("Invalid or expired token")
	}

	if claims.ID != "" && s.blacklist != nil {
		// A blacklist outage lets unexpired tokens through instead of logging everyone out.
		revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.log.Warn("token blacklist lookup failed, accepting token", "token_id", claims.ID, "error", err)
			revoked = false
		}
		if revoked {
			return nil, nil, apperrors.NewUnauthorizedError("Session has been logged out")
		}
	}

	actor, err := s.LoadActor(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	return actor, claims, nil
}

// LoadActor loads an active user and the village profile that scopes them.
func (s *AuthService) LoadActor(ctx context.Context, userID uint) (*Actor, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewUnauthorizedError("User not found")
		}
		return nil, apperrors.NewInternalError("Failed to load user", err)
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorizedError("Account is disabled")
	}

	actor := &Actor{User: &user}
	switch user.Role {
	case models.RoleAdmin, models.RoleSuperuser:
		var profile models.AdminProfile
		err := db.Where("user_id = ?", user.ID).First(&profile).Error
		if err == nil {
			actor.Profile = &profile
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewInternalError("Failed to load admin profile", err)
		}
	case models.RoleStaff:
		var staff models.StaffMember
		err := db.Preload("AdminProfile").Where("user_id = ?", user.ID).First(&staff).Error
		if err == nil && staff.IsActive {
			actor.Profile = staff.AdminProfile
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewInternalError("Failed to load staff profile", err)
		}
	}
	return actor, nil
}

// Logout revokes the session until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, claims *types.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil || s.blacklist == nil {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperrors.NewInternalError("Failed to log out", err)
	}
	s.log.Info("user logged out", "user_id", claims.UserID)
	return nil
}

// IssueResetToken creates a one-time password setup token inside tx and returns
// the plain token. The row keeps only its hash.
func (s *AuthService) IssueResetToken(tx *gorm.DB, userID uint) (string, error) {
	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return "", err
	}
	if err := tx.Create(&models.PasswordResetToken{
		Token:     utils.HashToken(token),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.resetTTL),
	}).Error; err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword consumes a reset token and sets the account's password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.NewValidationError("Reset token is required")
	}
	if len(newPassword) < utils.MinPasswordLength {
		return apperrors.NewValidationError("Password must be at least 8 characters")
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return apperrors.NewInternalError("Failed to hash password", err)
	}

	var userID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rt models.PasswordResetToken
		if err := tx.Where("token = ?", utils.HashToken(token)).First(&rt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewValidationError("Invalid or expired reset token")
			}
			return apperrors.NewInternalError("Failed to load reset token", err)
		}
		now := s.now()
		if !rt.IsValid(now) {
			return apperrors.NewValidationError("Invalid or expired reset token")
		}

		if err := tx.Model(&models.User{}).Where("id = ?", rt.UserID).Updates(map[string]interface{}{
			"password_hash":       hash,
			"must_reset_password": false,
		}).Error; err != nil {
			return apperrors.NewInternalError("Failed to update password", err)
		}

		rt.MarkUsed(now)
		if err := tx.Model(&rt).Update("used_at", rt.UsedAt).Error; err != nil {
			return apperrors.NewInternalError("Failed to consume reset token", err)
		}
		userID = rt.UserID
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("password set through reset token", "user_id", userID)
	return nil
}

// AccountCreate describes an administrator or superuser created from the CLI.
type AccountCreate struct {
	Username    string
	Email       string
	Password    string
	Role        models.UserRole
	VillageName string
	PhoneNumber string
}

// CreateAccount creates an admin (with its village profile) or a superuser.
func (s *AuthService) CreateAccount(ctx context.Context, in AccountCreate) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.VillageName = strings.TrimSpace(in.VillageName)
	if in.Role == "" {
		in.Role = models.RoleAdmin
	}

	switch {
	case in.Username == "":
		return nil, apperrors.NewValidationError("Username is required")
	case len(in.Password) < utils.MinPasswordLength:
		return nil, apperrors.NewValidationError("Password must be at least 8 characters")
	case in.Role != models.RoleAdmin && in.Role != models.RoleSuperuser:
		return nil, apperrors.NewValidationError("Role must be admin or superuser")
	case in.Role == models.RoleAdmin && in.VillageName == "":
		return nil, apperrors.NewValidationError("Village name is required for an administrator")
	}
	if in.PhoneNumber != "" {
		if !utils.ValidatePhoneNumber(in.PhoneNumber) {
			return nil, apperrors.NewValidationError("Invalid phone number")
		}
		in.PhoneNumber = utils.FormatPhoneNumber(in.PhoneNumber)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to hash password", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if database.IsDuplicateError(err) {
				return apperrors.NewConflictError("Username already exists")
			}
			return apperrors.NewInternalError("Failed to create user", err)
		}
		if in.VillageName == "" {
			return nil
		}
		profile := &models.AdminProfile{
			UserID:      user.ID,
			VillageName: in.VillageName,
			PhoneNumber: in.PhoneNumber,
			IsActive:    true,
		}
		if err := tx.Create(profile).Error; err != nil {
			return apperrors.NewInternalError("Failed to create admin profile", err)
		}
		user.AdminProfile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("account created", "user_id", user.ID, "role", user.Role, "village", in.VillageName)
	return user, nil
}
