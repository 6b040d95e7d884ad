package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/abogadosonline/aoe-api/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

// Token purposes
const (
	PurposeSession = "session"
	PurposeReset   = "password_reset"
)

// ResetTokenTTL bounds password reset links
const ResetTokenTTL = time.Hour

// ErrWrongPurpose is returned when a valid token is presented for another use
var ErrWrongPurpose = errors.New("token issued for a different purpose")

// UserClaims represents the JWT claims for a profile
type UserClaims struct {
	Email   string `json:"email"`
	UserID  string `json:"user_id"`
	Role    string `json:"role,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	config *config.JWTConfig
	now    func() time.Time
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(cfg *config.JWTConfig) *JWTUtil {
	return &JWTUtil{config: cfg, now: time.Now}
}

// GenerateToken creates a session token for a profile
func (j *JWTUtil) GenerateToken(userID, email, role string) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}
	ttl := time.Duration(j.config.ExpirationHours) * time.Hour
	return j.sign(userID, email, role, PurposeSession, ttl)
}

// GenerateResetToken creates a short-lived password reset token
func (j *JWTUtil) GenerateResetToken(userID, email string) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}
	return j.sign(userID, email, "", PurposeReset, ResetTokenTTL)
}

func (j *JWTUtil) sign(userID, email, role, purpose string, ttl time.Duration) (string, error) {
	now := j.now()
	claims := UserClaims{
		Email:   email,
		UserID:  userID,
		Role:    role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.SigningKey))
}

// ValidateToken validates a session token and returns the claims
func (j *JWTUtil) ValidateToken(tokenString string) (*UserClaims, error) {
	return j.validate(tokenString, PurposeSession)
}

// ValidateResetToken validates a password reset token
func (j *JWTUtil) ValidateResetToken(tokenString string) (*UserClaims, error) {
	return j.validate(tokenString, PurposeReset)
}

func (j *JWTUtil) validate(tokenString, purpose string) (*UserClaims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.config.SigningKey), nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}
