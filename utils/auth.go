package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced on every password set through the reset flow or the CLI
const MinPasswordLength = 8

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	// Use higher cost for better security
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateSecureToken returns n random bytes hex-encoded
func GenerateSecureToken(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// HashToken returns the hex SHA-256 of a one-time token. Only the hash is stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidatePhoneNumber accepts a 10 digit Indian mobile number, optionally prefixed with +91
func ValidatePhoneNumber(phoneNumber string) bool {
	n := strings.TrimPrefix(FormatPhoneNumber(phoneNumber), "+91")
	if len(n) != 10 {
		return false
	}
	for _, r := range n {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return n[0] >= '6'
}

// FormatPhoneNumber formats phone number to include country code if not present
func FormatPhoneNumber(phoneNumber string) string {
	phoneNumber = strings.ReplaceAll(strings.TrimSpace(phoneNumber), " ", "")
	if phoneNumber == "" || strings.HasPrefix(phoneNumber, "+91") {
		return phoneNumber
	}
	phoneNumber = strings.TrimPrefix(phoneNumber, "0")
	return "+91" + phoneNumber
}
