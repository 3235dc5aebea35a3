package core

import "context"

// Identity is a verified user as reported by the credential verifier.
// It is the input to the claims builder, nothing in the token layer sees it.
type Identity struct {
	// Subject is the unique user identifier (e.g. username, email).
	Subject string

	// Roles assigned to the user.
	Roles []string

	// Attributes are optional extra claims to include in issued tokens.
	Attributes map[string]string
}

// CredentialVerifier validates presented credentials against a user store.
// Implementations: static config-backed store; an LDAP or database verifier
// would slot in here.
type CredentialVerifier interface {
	// Verify checks the credentials and returns the verified identity.
	Verify(ctx context.Context, username, password string) (*Identity, error)
}

// RoleStore resolves the roles assigned to a user.
type RoleStore interface {
	RolesOf(ctx context.Context, subject string) ([]string, error)
}
