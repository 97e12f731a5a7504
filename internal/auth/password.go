package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/Urdemonlord/atlasproject/internal/models"
)

// MinPasswordLength is the shortest password an account can be created with.
// The sign-up structs repeat it in their `min=6` validate tags.
const MinPasswordLength = 6

// bcrypt ignores everything past this many bytes.
const maxPasswordBytes = 72

// ValidatePassword reports a Validation error for passwords bcrypt should not
// be given: too short to accept, or long enough to be silently truncated.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return models.Validation("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return models.Validation("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

// HashPassword validates the password and returns its bcrypt hash.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPasswordHash reports whether password matches the stored bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
