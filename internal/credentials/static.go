// Package credentials provides the user store the claims builder draws from.
// The store itself is an external collaborator to the token core; this static
// implementation keeps everything in the config file.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/crypto/bcrypt"

	"github.com/averen/sigil/internal/config"
	"github.com/averen/sigil/internal/core"
)

// ErrBadCredentials is returned for unknown users and wrong passwords alike,
// so callers cannot tell the two apart.
var ErrBadCredentials = errors.New("invalid username or password")

// dummyHash is compared against for unknown users. bcrypt hash of "password".
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

var (
	_ core.CredentialVerifier = (*StaticStore)(nil)
	_ core.RoleStore          = (*StaticStore)(nil)
)

type userEntry struct {
	Username     string            `mapstructure:"username"`
	PasswordHash string            `mapstructure:"password_hash"`
	Roles        []string          `mapstructure:"roles"`
	Attributes   map[string]string `mapstructure:"attributes"`
}

// StaticStore is a config-backed credential verifier and role store.
// Read-only after construction, safe for concurrent use.
type StaticStore struct {
	users map[string]userEntry
}

func NewStaticStore(cfgs []config.UserConfig) (*StaticStore, error) {
	users := make(map[string]userEntry, len(cfgs))

	for idx, cfg := range cfgs {
		var entry userEntry
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Metadata: nil,
			Result:   &entry,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create decoder for user at index %d: %w", idx, err)
		}
		if err := decoder.Decode(map[string]any(cfg)); err != nil {
			return nil, fmt.Errorf("failed to decode user at index %d: %w", idx, err)
		}

		if entry.Username == "" {
			return nil, fmt.Errorf("user at index %d has empty username", idx)
		}
		if entry.PasswordHash == "" {
			return nil, fmt.Errorf("user '%s' has empty password_hash", entry.Username)
		}
		if _, exists := users[entry.Username]; exists {
			return nil, fmt.Errorf("user '%s' is defined twice", entry.Username)
		}
		users[entry.Username] = entry
	}

	return &StaticStore{users: users}, nil
}

// Verify checks the presented password against the stored bcrypt hash and
// returns the verified identity.
func (s *StaticStore) Verify(_ context.Context, username, password string) (*core.Identity, error) {
	entry, ok := s.users[username]
	if !ok {
		// unknown users cost the same as wrong passwords
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return nil, ErrBadCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(entry.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}

	return &core.Identity{
		Subject:    entry.Username,
		Roles:      entry.Roles,
		Attributes: entry.Attributes,
	}, nil
}

// RolesOf returns the roles assigned to the user.
func (s *StaticStore) RolesOf(_ context.Context, subject string) ([]string, error) {
	entry, ok := s.users[subject]
	if !ok {
		return nil, fmt.Errorf("unknown user '%s'", subject)
	}
	return entry.Roles, nil
}
