package describe

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "guidecast"

// KeyStore keeps provider API keys in the OS keychain.
type KeyStore struct {
	service string
}

// NewKeyStore opens the default key store.
func NewKeyStore() *KeyStore {
	return &KeyStore{service: keyringService}
}

// SetAPIKey stores the key for a provider, replacing any previous value.
func (k *KeyStore) SetAPIKey(provider, key string) error {
	if err := keyring.Set(k.service, provider, key); err != nil {
		return fmt.Errorf("store api key for %s: %w", provider, err)
	}
	return nil
}

// APIKey retrieves the stored key for a provider.
func (k *KeyStore) APIKey(provider string) (string, error) {
	key, err := keyring.Get(k.service, provider)
	if err == nil {
		return key, nil
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrNoAPIKey, provider)
	}
	return "", fmt.Errorf("read api key for %s: %w", provider, err)
}

// DeleteAPIKey removes the stored key for a provider. A missing key is
// reported via ErrNoAPIKey.
func (k *KeyStore) DeleteAPIKey(provider string) error {
	err := keyring.Delete(k.service, provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNoAPIKey, provider)
	}
	if err != nil {
		return fmt.Errorf("delete api key for %s: %w", provider, err)
	}
	return nil
}

// HasAPIKey reports whether a key is stored for the provider.
func (k *KeyStore) HasAPIKey(provider string) bool {
	_, err := keyring.Get(k.service, provider)
	return err == nil
}
