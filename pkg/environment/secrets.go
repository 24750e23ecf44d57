package environment

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name secrets are filed under in the OS keyring
const KeyringService = "spin-companion"

// PasswordKey is the secret key holding the password of an environment
func PasswordKey(envName string) string {
	return fmt.Sprintf("fermyon.%s.hippo.password", envName)
}

// KeyringSecrets stores passwords in the OS keyring
type KeyringSecrets struct {
	service string
}

// NewKeyringSecrets creates a secret store under service
func NewKeyringSecrets(service string) *KeyringSecrets {
	return &KeyringSecrets{service: service}
}

// Password implements Secrets
func (k *KeyringSecrets) Password(envName string) (string, error) {
	secret, err := keyring.Get(k.service, PasswordKey(envName))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read password for %s: %w", envName, err)
	}
	return secret, nil
}

// SetPassword implements Secrets
func (k *KeyringSecrets) SetPassword(envName, password string) error {
	if err := keyring.Set(k.service, PasswordKey(envName), password); err != nil {
		return fmt.Errorf("failed to store password for %s: %w", envName, err)
	}
	return nil
}

// DeletePassword implements Secrets
func (k *KeyringSecrets) DeletePassword(envName string) error {
	err := keyring.Delete(k.service, PasswordKey(envName))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete password for %s: %w", envName, err)
	}
	return nil
}
