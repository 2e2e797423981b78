package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name used for keychain entries.
const KeyringService = "signfetch"

// Secret reference prefixes.
const (
	keyringPrefix = "keyring:"
	envPrefix     = "env:"
)

// ErrSecretNotFound is returned when a secret reference cannot be resolved.
var ErrSecretNotFound = errors.New("config: secret not found")

// ResolveSecret resolves a value that may be a secret reference.
// "keyring:<name>" reads from the system keychain, "env:<NAME>" reads an
// environment variable, and anything else is returned unchanged.
func ResolveSecret(_ context.Context, ref string) (string, error) {
	switch {
	case strings.HasPrefix(ref, keyringPrefix):
		name := strings.TrimPrefix(ref, keyringPrefix)

		value, err := keyring.Get(KeyringService, name)
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return "", fmt.Errorf("%w: %s", ErrSecretNotFound, ref)
			}
			return "", fmt.Errorf("keyring lookup for %s failed: %w", name, err)
		}

		return value, nil

	case strings.HasPrefix(ref, envPrefix):
		name := strings.TrimPrefix(ref, envPrefix)

		value, ok := os.LookupEnv(name)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, ref)
		}

		return value, nil

	default:
		return ref, nil
	}
}

// StoreSecret saves value in the system keychain under name, so it can be
// referenced as "keyring:<name>".
func StoreSecret(name, value string) error {
	if name == "" {
		return errors.New("config: secret name must not be empty")
	}

	return keyring.Set(KeyringService, name, value)
}

// DeleteSecret removes name from the system keychain.
func DeleteSecret(name string) error {
	if err := keyring.Delete(KeyringService, name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrSecretNotFound, name)
		}
		return err
	}

	return nil
}
