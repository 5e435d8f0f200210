package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a teacher.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and teacher profile.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	IssuedAt    time.Time   `json:"issued_at"`
	Teacher     TeacherInfo `json:"teacher"`
}

// UpdateThemeRequest selects a dashboard palette.
type UpdateThemeRequest struct {
	Theme string `json:"theme" validate:"required"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	TeacherID string `json:"teacher_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	jwt.RegisteredClaims
}
