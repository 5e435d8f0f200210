package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

type authTeacherRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	UpdateTheme(ctx context.Context, id, theme string) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService provides teacher authentication and profile use cases.
type AuthService struct {
	repo      authTeacherRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authTeacherRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{repo: repo, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login authenticates a teacher and returns an access token with their profile.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid login payload")
	}

	teacher, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch teacher")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	issuedAt := s.now().UTC()
	token, err := s.generateAccessToken(teacher, issuedAt)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}

	s.logger.Info("teacher signed in", zap.String("teacher_id", teacher.ID))
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		Teacher:     teacher.Info(),
	}, nil
}

// Register creates a teacher account with a bcrypt password hash.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*models.Teacher, error) {
	if err := s.validator.Var(email, "required,email"); err != nil {
		return nil, appErrors.Invalid(err, "invalid email")
	}
	if name == "" || len(password) < 8 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required and password needs at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}
	teacher := &models.Teacher{Email: email, Name: name, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, mapRepoError(err, "teacher already exists", "failed to create teacher")
	}
	return teacher, nil
}

// Me returns the authenticated teacher's profile.
func (s *AuthService) Me(ctx context.Context, teacherID string) (*models.TeacherInfo, error) {
	teacher, err := s.repo.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "teacher no longer exists")
		}
		return nil, appErrors.Internal(err, "failed to load teacher")
	}
	info := teacher.Info()
	return &info, nil
}

// UpdateTheme persists the teacher's palette choice.
func (s *AuthService) UpdateTheme(ctx context.Context, teacherID string, req models.UpdateThemeRequest) (*models.TeacherInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid theme payload")
	}
	if _, ok := models.LookupTheme(req.Theme); !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown theme %q", req.Theme))
	}
	if err := s.repo.UpdateTheme(ctx, teacherID, req.Theme); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Internal(err, "failed to update theme")
	}
	return s.Me(ctx, teacherID)
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.TeacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) generateAccessToken(teacher *models.Teacher, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		TeacherID: teacher.ID,
		Email:     teacher.Email,
		Name:      teacher.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   teacher.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
}
