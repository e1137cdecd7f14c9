package identity

import (
	"context"
	"crypto/rand"
	"math/big"
)

// Identity is a durable login credential recognised by the auth layer.
type Identity struct {
	ID    string
	Email string
}

// Metadata carries profile hints attached to a credential at creation.
type Metadata struct {
	Name string
	Role string
}

// Provider abstracts the credential store used during provisioning. The
// production implementation is backed by the local users table; a hosted
// auth product can be substituted without touching the workflow.
//
// FindIdentityByEmail returns (nil, nil) when no identity exists for the
// email. Implementations must create identities pre-confirmed: the owner can
// log in immediately, no verification step gates the credential.
type Provider interface {
	CreateIdentity(ctx context.Context, email, secret string, meta Metadata) (*Identity, error)
	FindIdentityByEmail(ctx context.Context, email string) (*Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
}

const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GeneratePassword returns a random password of length n drawn from an
// unambiguous alphabet. The value is surfaced once to the approving admin
// and never stored in plaintext.
func GeneratePassword(n int) (string, error) {
	if n <= 0 {
		n = 16
	}
	buf := make([]byte, n)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = passwordAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
