package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Vulcanostrol/ringgzprotocol/internal/entity"
)

const credentialPrefix = "credential:"

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrCredentialExists   = errors.New("credential already registered")
)

type CredentialRepository interface {
	Create(ctx context.Context, credential *entity.Credential) error
	GetByUsername(ctx context.Context, username string) (*entity.Credential, error)
}

type dbCredential struct {
	client *redis.Client
}

func NewCredentialRepository(client *redis.Client) CredentialRepository {
	return &dbCredential{
		client: client,
	}
}

// Create stores a new credential. Registration never overwrites an
// existing pair; re-registering a username is an error.
func (that *dbCredential) Create(ctx context.Context, credential *entity.Credential) error {
	credentialJSON, err := json.Marshal(credential)
	if err != nil {
		return fmt.Errorf("could not marshal credential: %w", err)
	}

	created, err := that.client.SetNX(ctx, credentialPrefix+credential.Username, credentialJSON, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set credential: %w", err)
	}

	if !created {
		return fmt.Errorf("%w: %s", ErrCredentialExists, credential.Username)
	}

	return nil
}

func (that *dbCredential) GetByUsername(ctx context.Context, username string) (*entity.Credential, error) {
	response, err := that.client.Get(ctx, credentialPrefix+username).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrCredentialNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	var credential entity.Credential
	if err = json.Unmarshal([]byte(response), &credential); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}

	return &credential, nil
}
