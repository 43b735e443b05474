package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vulcanostrol/ringgzprotocol/internal/entity"
	"github.com/Vulcanostrol/ringgzprotocol/testing/suite"
)

func TestCredentialRepository_Create(t *testing.T) {
	t.Run("Create_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		credentialRepo := NewCredentialRepository(st.Storage)

		// Given: a fresh credential
		credential := &entity.Credential{
			Username:     "alice",
			PasswordHash: "$2a$10$something",
		}

		// When: Create is called
		err := credentialRepo.Create(ctx, credential)

		// Then: no error should be returned
		require.NoError(t, err)
	})

	t.Run("Create_AlreadyExists", func(t *testing.T) {
		ctx, st := suite.New(t)

		credentialRepo := NewCredentialRepository(st.Storage)

		credential := &entity.Credential{
			Username:     "alice",
			PasswordHash: "$2a$10$something",
		}
		require.NoError(t, credentialRepo.Create(ctx, credential))

		// When: the same username registers again
		err := credentialRepo.Create(ctx, credential)

		// Then: an ErrCredentialExists error should be returned
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCredentialExists)
	})
}

func TestCredentialRepository_GetByUsername(t *testing.T) {
	t.Run("GetByUsername_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		credentialRepo := NewCredentialRepository(st.Storage)

		credential := &entity.Credential{
			Username:     "alice",
			PasswordHash: "$2a$10$something",
		}
		require.NoError(t, credentialRepo.Create(ctx, credential))

		// When: GetByUsername is called with the stored name
		retrieved, err := credentialRepo.GetByUsername(ctx, "alice")

		// Then: the stored hash comes back
		require.NoError(t, err)
		assert.Equal(t, credential.Username, retrieved.Username)
		assert.Equal(t, credential.PasswordHash, retrieved.PasswordHash)
	})

	t.Run("GetByUsername_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		credentialRepo := NewCredentialRepository(st.Storage)

		// When: GetByUsername is called with an unknown name
		_, err := credentialRepo.GetByUsername(ctx, "nobody")

		// Then: an ErrCredentialNotFound error should be returned
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCredentialNotFound)
	})
}
