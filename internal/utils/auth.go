package utils

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a stored credential. Registered
// users carry bcrypt hashes; rows migrated from the legacy system still hold
// base64-encoded plaintext, which is honored until the user re-registers.
func CheckPasswordHash(password, stored string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	decoded, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return password == stored
	}
	return password == string(decoded)
}

// DecodeClientPassword decodes the base64 password the mobile client sends.
// Anything that does not decode is treated as already-plain.
func DecodeClientPassword(password string) string {
	decoded, err := base64.StdEncoding.DecodeString(password)
	if err != nil {
		return password
	}
	return string(decoded)
}

// GenerateToken issues the 5h session token stored on the user row.
func GenerateToken(username string, secret string) (string, error) {
	// jti keeps back-to-back logins from minting identical tokens, which
	// would defeat the single-session check.
	claims := jwt.MapClaims{
		"username": username,
		"jti":      uuid.NewString(),
		"exp":      time.Now().Add(5 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and validates a token
func ValidateToken(tokenString string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
