package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/Dosada05/double-elimination/models"
)

// AuthService checks the organizer password. Viewers never log in.
type AuthService interface {
	Login(ctx context.Context, input models.Credentials) (models.UserRole, error)
}

type authService struct {
	organizerPasswordHash []byte
}

func NewAuthService(organizerPasswordHash string) AuthService {
	return &authService{organizerPasswordHash: []byte(organizerPasswordHash)}
}

func (s *authService) Login(ctx context.Context, input models.Credentials) (models.UserRole, error) {
	if input.Password == "" || len(s.organizerPasswordHash) == 0 {
		return "", ErrAuthInvalidCredentials
	}
	err := bcrypt.CompareHashAndPassword(s.organizerPasswordHash, []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", ErrAuthInvalidCredentials
		}
		return "", fmt.Errorf("failed to verify organizer password: %w", err)
	}
	return models.RoleOrganizer, nil
}

// HashPassword produces a value suitable for ORGANIZER_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
