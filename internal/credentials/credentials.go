// Package credentials keeps the archive remote's access token in the OS credential store.
package credentials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service name for OS credential store
	credentialService = "mathviz"
	// Key for the archive remote's Personal Access Token
	archiveTokenKey = "archive_pat"
)

// ErrNoToken is returned when no token has been stored.
var ErrNoToken = errors.New("no archive token stored")

// Manager handles secure storage and retrieval of the archive token.
type Manager struct {
	service string
}

func NewManager() *Manager {
	return &Manager{service: credentialService}
}

// newManagerForService isolates tests from the real service entry.
func newManagerForService(service string) *Manager {
	return &Manager{service: service}
}

// StoreToken validates and stores a Personal Access Token.
func (m *Manager) StoreToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if err := ValidateTokenFormat(token); err != nil {
		return fmt.Errorf("invalid token format: %w", err)
	}
	if err := keyring.Set(m.service, archiveTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token in credential store: %w", err)
	}
	return nil
}

// Token returns the stored token, or ErrNoToken.
func (m *Manager) Token() (string, error) {
	token, err := keyring.Get(m.service, archiveTokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to retrieve token from credential store: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// DeleteToken removes the stored token. Deleting a missing token is not an error.
func (m *Manager) DeleteToken() error {
	err := keyring.Delete(m.service, archiveTokenKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from credential store: %w", err)
	}
	return nil
}

func (m *Manager) HasToken() bool {
	_, err := m.Token()
	return err == nil
}

// ValidateTokenFormat checks for a GitHub-style Personal Access Token:
//   - Classic PATs: ghp_*
//   - Fine-grained PATs: github_pat_*
//   - OAuth tokens: gho_*
//   - User-to-server tokens: ghu_*
//   - Server-to-server tokens: ghs_*
func ValidateTokenFormat(token string) error {
	token = strings.TrimSpace(token)
	if len(token) < 20 {
		return fmt.Errorf("token too short (minimum 20 characters)")
	}

	validPrefixes := []string{"ghp_", "github_pat_", "gho_", "ghu_", "ghs_"}
	for _, prefix := range validPrefixes {
		if strings.HasPrefix(token, prefix) {
			return nil
		}
	}
	return fmt.Errorf("token does not match expected PAT format (should start with ghp_ or github_pat_)")
}
