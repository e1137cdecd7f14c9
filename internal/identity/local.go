package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mahfuz-dev/edupanel-api/internal/models"
)

type credentialRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	HardDelete(ctx context.Context, id string) error
}

// LocalProvider implements Provider on top of the users table. Credentials
// are bcrypt-hashed and active immediately.
type LocalProvider struct {
	repo   credentialRepository
	logger *zap.Logger
}

// NewLocalProvider constructs a users-table backed identity provider.
func NewLocalProvider(repo credentialRepository, logger *zap.Logger) *LocalProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalProvider{repo: repo, logger: logger}
}

// CreateIdentity stores a new credential for the email.
func (p *LocalProvider) CreateIdentity(ctx context.Context, email, secret string, meta Metadata) (*Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash credential secret: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		FullName:     meta.Name,
		Role:         models.UserRole(meta.Role),
		Active:       true,
	}

	if err := p.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}

	p.logger.Info("identity created", zap.String("identity_id", user.ID))
	return &Identity{ID: user.ID, Email: user.Email}, nil
}

// FindIdentityByEmail returns the identity bound to the email, or (nil, nil).
func (p *LocalProvider) FindIdentityByEmail(ctx context.Context, email string) (*Identity, error) {
	user, err := p.repo.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find identity by email: %w", err)
	}
	return &Identity{ID: user.ID, Email: user.Email}, nil
}

// DeleteIdentity removes the credential row entirely. Used only by the
// provisioning compensation path.
func (p *LocalProvider) DeleteIdentity(ctx context.Context, id string) error {
	if err := p.repo.HardDelete(ctx, id); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}
