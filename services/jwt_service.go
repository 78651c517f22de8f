package services

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"awazgram-server/config"
	"awazgram-server/models"
	"awazgram-server/types"
)

// JWTService handles JWT token operations
type JWTService struct {
	secret []byte
	expiry time.Duration
	issuer string
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	hours := cfg.ExpiryHours
	if hours <= 0 {
		hours = 24
	}
	return &JWTService{
		secret: []byte(cfg.Secret),
		expiry: time.Duration(hours) * time.Hour,
		issuer: cfg.Issuer,
	}
}

// AccessToken is the session credential handed to an administrator at login
type AccessToken struct {
	AccessToken string    `json:"access_token"`
	TokenID     string    `json:"-"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"-"`
	TokenType   string    `json:"token_type"`
}

// GenerateAccessToken signs a session token for user
func (js *JWTService) GenerateAccessToken(user *models.User) (*AccessToken, error) {
	now := time.Now()
	expiresAt := now.Add(js.expiry)
	jti := uuid.NewString()

	claims := &types.Claims{
		UserID: user.ID,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    js.issuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(js.secret)
	if err != nil {
		return nil, err
	}

	return &AccessToken{
		AccessToken: tokenString,
		TokenID:     jti,
		ExpiresIn:   int64(js.expiry.Seconds()),
		ExpiresAt:   expiresAt,
		TokenType:   "Bearer",
	}, nil
}

// ValidateAccessToken validates an access token and returns its claims
func (js *JWTService) ValidateAccessToken(tokenString string) (*types.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &types.Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return js.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*types.Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// TTL is the lifetime of newly issued tokens.
func (js *JWTService) TTL() time.Duration {
	return js.expiry
}
