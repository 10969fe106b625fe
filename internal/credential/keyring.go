// Package credential reads and writes secrets in the system keyring.
// Environment variables take precedence so CI and containers need no
// keyring backend.
package credential

import (
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

const serviceName = "taskkeeper"

// Well-known credential keys and the environment variables overriding them.
const (
	KeyAIAPIKey     = "ai-api-key"
	KeySMTPPassword = "smtp-password"

	EnvAIAPIKey     = "TASKKEEPER_AI_API_KEY"
	EnvSMTPPassword = "TASKKEEPER_SMTP_PASSWORD"
)

var envByKey = map[string]string{
	KeyAIAPIKey:     EnvAIAPIKey,
	KeySMTPPassword: EnvSMTPPassword,
}

// ErrNotFound is returned when a credential is neither in the
// environment nor in the keyring.
var ErrNotFound = errors.New("credential not found")

// openKeyring returns a configured keyring instance. It is a variable so
// tests can substitute an in-memory ring.
var openKeyring = func() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/taskkeeper/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("taskkeeper-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get returns a credential, preferring its environment variable.
func Get(key string) (string, error) {
	if env, ok := envByKey[key]; ok {
		if v := os.Getenv(env); v != "" {
			return v, nil
		}
	}

	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Lookup is Get for optional credentials: a missing value yields "".
func Lookup(key string) (string, error) {
	v, err := Get(key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "taskkeeper " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	if err := ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
