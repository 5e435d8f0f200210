package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

func newTestAuthService(t *testing.T) (*AuthService, *mockTeacherRepo) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := newMockTeacherRepo(&models.Teacher{ID: "t1", Email: "teacher@school.edu", Name: "Ms Rahman", PasswordHash: string(hash)})
	svc := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "test-secret", AccessTokenExpiry: time.Hour, Issuer: "gradebook-test"})
	return svc, repo
}

func TestAuthServiceLoginIssuesVerifiableToken(t *testing.T) {
	svc, _ := newTestAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@school.edu", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "Ms Rahman", resp.Teacher.Name)
	assert.Equal(t, models.ThemeForEmail("teacher@school.edu").Key, resp.Teacher.Theme.Key)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "t1", claims.TeacherID)
	assert.Equal(t, "gradebook-test", claims.Issuer)
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@school.edu", Password: "wrong-pass"})
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, errCode(err))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@school.edu", Password: "secret123"})
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, errCode(err))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "secret123"})
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))
}

func TestAuthServiceValidateTokenRejectsForeignSecret(t *testing.T) {
	svc, _ := newTestAuthService(t)
	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@school.edu", Password: "secret123"})
	require.NoError(t, err)

	other := NewAuthService(newMockTeacherRepo(), nil, nil, AuthConfig{AccessTokenSecret: "other-secret", AccessTokenExpiry: time.Hour})
	_, err = other.ValidateToken(resp.AccessToken)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errCode(err))
}

func TestAuthServiceUpdateTheme(t *testing.T) {
	svc, repo := newTestAuthService(t)

	info, err := svc.UpdateTheme(context.Background(), "t1", models.UpdateThemeRequest{Theme: "rust"})
	require.NoError(t, err)
	assert.Equal(t, "rust", info.Theme.Key)
	assert.Equal(t, "rust", repo.themes["t1"])

	_, err = svc.UpdateTheme(context.Background(), "t1", models.UpdateThemeRequest{Theme: "plaid"})
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))
}

func TestAuthServiceRegister(t *testing.T) {
	svc, _ := newTestAuthService(t)

	teacher, err := svc.Register(context.Background(), "new@school.edu", "Mr New", "longenough")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte("longenough")))

	_, err = svc.Register(context.Background(), "teacher@school.edu", "Dup", "longenough")
	assert.Equal(t, appErrors.ErrConflict.Code, errCode(err))

	_, err = svc.Register(context.Background(), "short@school.edu", "Short", "abc")
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))
}
