package identity

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mahfuz-dev/edupanel-api/internal/models"
)

type fakeCredentialRepo struct {
	users   map[string]*models.User
	deleted []string
}

func (f *fakeCredentialRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCredentialRepo) Create(ctx context.Context, user *models.User) error {
	if f.users == nil {
		f.users = make(map[string]*models.User)
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeCredentialRepo) HardDelete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.users, id)
	return nil
}

func TestLocalProviderCreateIdentity(t *testing.T) {
	repo := &fakeCredentialRepo{}
	provider := NewLocalProvider(repo, zap.NewNop())

	id, err := provider.CreateIdentity(context.Background(), "Rahim@Example.com", "secret123", Metadata{Name: "Rahim", Role: "student"})
	require.NoError(t, err)
	assert.NotEmpty(t, id.ID)
	assert.Equal(t, "rahim@example.com", id.Email, "email is normalised to lowercase")

	stored := repo.users[id.ID]
	require.NotNil(t, stored)
	assert.True(t, stored.Active, "credential is usable immediately")
	assert.Equal(t, models.RoleStudent, stored.Role)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret123")))
}

func TestLocalProviderFindIdentityByEmail(t *testing.T) {
	repo := &fakeCredentialRepo{}
	provider := NewLocalProvider(repo, zap.NewNop())

	found, err := provider.FindIdentityByEmail(context.Background(), "missing@example.com")
	require.NoError(t, err)
	assert.Nil(t, found, "absent identity is not an error")

	created, err := provider.CreateIdentity(context.Background(), "a@example.com", "secret123", Metadata{})
	require.NoError(t, err)

	found, err = provider.FindIdentityByEmail(context.Background(), "A@Example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
}

func TestLocalProviderDeleteIdentity(t *testing.T) {
	repo := &fakeCredentialRepo{}
	provider := NewLocalProvider(repo, zap.NewNop())

	created, err := provider.CreateIdentity(context.Background(), "a@example.com", "secret123", Metadata{})
	require.NoError(t, err)

	require.NoError(t, provider.DeleteIdentity(context.Background(), created.ID))
	assert.Contains(t, repo.deleted, created.ID)

	found, err := provider.FindIdentityByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestGeneratePassword(t *testing.T) {
	password, err := GeneratePassword(16)
	require.NoError(t, err)
	assert.Len(t, password, 16)
	for _, r := range password {
		assert.True(t, strings.ContainsRune(passwordAlphabet, r))
	}

	other, err := GeneratePassword(16)
	require.NoError(t, err)
	assert.NotEqual(t, password, other)

	fallback, err := GeneratePassword(0)
	require.NoError(t, err)
	assert.Len(t, fallback, 16)
}
