package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/Vulcanostrol/ringgzprotocol/internal/entity"
	"github.com/Vulcanostrol/ringgzprotocol/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type credentialRepo interface {
	Create(ctx context.Context, credential *entity.Credential) error
	GetByUsername(ctx context.Context, username string) (*entity.Credential, error)
}

// AuthService backs the security extension: registration stores a
// bcrypt hash, login compares against it. The wire handler only checks
// field format; everything else is decided here.
type AuthService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
}

type authService struct {
	credentials credentialRepo
}

func NewAuthService(credentials credentialRepo) AuthService {
	return &authService{
		credentials: credentials,
	}
}

func (that *authService) Register(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	credential := &entity.Credential{
		Username:     username,
		PasswordHash: string(hash),
	}

	if err = that.credentials.Create(ctx, credential); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	return nil
}

func (that *authService) Login(ctx context.Context, username, password string) error {
	credential, err := that.credentials.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrCredentialNotFound) {
		return ErrInvalidCredentials
	}

	if err != nil {
		return fmt.Errorf("failed to get credential: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}

	return nil
}
