package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"

	"github.com/desertthunder/filmx/internal/shared"
)

const serviceName = "filmx"

func errNotFound() error {
	return fmt.Errorf("%w: %q", shared.ErrCredentialNotFound, Key)
}

// OpenKeyring opens the system keyring, falling back to an encrypted file
// backend under fileDir when no native backend is available.
func OpenKeyring(fileDir string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("filmx-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: opening keyring: %w", shared.ErrCredentialStore, err)
	}
	return ring, nil
}

// KeyringStore is a [Store] backed by a [keyring.Keyring].
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore wraps an opened keyring.
func NewKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

func (s *KeyringStore) Load() (string, error) {
	item, err := s.ring.Get(Key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", errNotFound()
	}
	if err != nil {
		return "", fmt.Errorf("%w: getting credential %q: %w", shared.ErrCredentialStore, Key, err)
	}
	return string(item.Data), nil
}

func (s *KeyringStore) Save(value string) error {
	err := s.ring.Set(keyring.Item{
		Key:   Key,
		Data:  []byte(value),
		Label: "filmx session",
	})
	if err != nil {
		return fmt.Errorf("%w: setting credential %q: %w", shared.ErrCredentialStore, Key, err)
	}
	return nil
}

func (s *KeyringStore) Delete() error {
	err := s.ring.Remove(Key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("%w: deleting credential %q: %w", shared.ErrCredentialStore, Key, err)
	}
	return nil
}
