// Package keyprovider keeps the SQLite store's master encryption key in the
// operating system keyring.
package keyprovider

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	gokeyring "github.com/zalando/go-keyring"
)

// KeySize is the length in bytes of the AES-256 master key.
const KeySize = 32

// DefaultUser is the keyring user the master key is stored under.
const DefaultUser = "master-key"

// Provider loads or creates the master key stored under Service/User.
type Provider struct {
	Service string
	User    string
}

// New returns a Provider for service using DefaultUser.
func New(service string) *Provider {
	return &Provider{Service: service, User: DefaultUser}
}

// Key returns the stored master key, generating and storing a fresh one the
// first time it is requested.
func (p *Provider) Key() ([]byte, error) {
	encoded, err := gokeyring.Get(p.Service, p.User)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return p.generate()
	}
	if err != nil {
		return nil, fmt.Errorf("read master key from keyring: %w", err)
	}

	key, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode master key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}

// Reset removes the stored master key. Items sealed with it become
// unreadable.
func (p *Provider) Reset() error {
	if err := gokeyring.Delete(p.Service, p.User); err != nil && !errors.Is(err, gokeyring.ErrNotFound) {
		return fmt.Errorf("delete master key: %w", err)
	}
	return nil
}

func (p *Provider) generate() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}
	if err := gokeyring.Set(p.Service, p.User, hex.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("store master key in keyring: %w", err)
	}
	return key, nil
}
