package service

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/keystonemortgage/backend/internal/apperror"
	"golang.org/x/crypto/bcrypt"
)

const adminSubject = "admin"

// AdminService authenticates the site operator for the admin API.
type AdminService struct {
	passwordHash []byte
	secret       []byte
	tokenTTL     time.Duration
	now          func() time.Time
}

// NewAdminService creates an admin service. An empty hash disables login.
func NewAdminService(passwordHash, jwtSecret string) *AdminService {
	return &AdminService{
		passwordHash: []byte(passwordHash),
		secret:       []byte(jwtSecret),
		tokenTTL:     12 * time.Hour,
		now:          time.Now,
	}
}

// HashPassword produces the value for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if len(password) < 12 {
		return "", errors.New("password must be at least 12 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Login checks the password and issues a signed token.
func (s *AdminService) Login(password string) (string, time.Time, error) {
	if len(s.passwordHash) == 0 {
		return "", time.Time{}, apperror.Unauthorized("admin login is disabled")
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, &apperror.AppError{
			Err:        apperror.ErrInvalidCredentials,
			Message:    "invalid credentials",
			StatusCode: http.StatusUnauthorized,
		}
	}

	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	claims := jwt.MapClaims{
		"sub": adminSubject,
		"exp": expiresAt.Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, apperror.Internal(fmt.Errorf("sign token: %w", err))
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and validates an admin token.
func (s *AdminService) ValidateToken(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return apperror.Unauthorized("invalid token")
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub != adminSubject {
		return apperror.Unauthorized("invalid token subject")
	}
	return nil
}
