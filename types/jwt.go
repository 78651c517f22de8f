package types

import "github.com/golang-jwt/jwt/v5"

// Claims represents the JWT claims carried by an admin session
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
