package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateOTP returns a 6-digit one-time code, zero-padded.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// IsOTPExpired treats a missing expiry as expired.
func IsOTPExpired(expiry *time.Time) bool {
	return expiry == nil || time.Now().After(*expiry)
}

// GenerateToken issues an HS256 session token. subjectKey distinguishes the
// two principals: "adminId" or "participantId".
func GenerateToken(secret []byte, subjectKey, id, email string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		subjectKey: id,
		"email":    email,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies the signature and expiry and returns the claims.
func ParseToken(secret []byte, tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// SubjectFromClaims extracts the principal id stored under subjectKey.
func SubjectFromClaims(claims jwt.MapClaims, subjectKey string) (string, bool) {
	id, ok := claims[subjectKey].(string)
	return id, ok && id != ""
}
