package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/averen/sigil/internal/audit"
	"github.com/averen/sigil/internal/authz"
	"github.com/averen/sigil/internal/cliconfig"
	"github.com/averen/sigil/internal/config"
	"github.com/averen/sigil/internal/core"
	"github.com/averen/sigil/internal/credentials"
	"github.com/averen/sigil/internal/service"
	"github.com/averen/sigil/internal/token"
	"github.com/averen/sigil/pkg/client"
)

// components holds everything built from one config file. The assembly is
// explicit: each piece is constructed once here and passed down, there is no
// runtime lookup by type.
type components struct {
	cfg      *config.Config
	store    *credentials.StaticStore
	issuer   *token.Issuer
	verifier *token.Verifier
	policies *authz.Registry
	auditor  core.Auditor
	service  *service.AuthService
}

func buildComponents(path string) (*components, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	store, err := credentials.NewStaticStore(cfg.Users)
	if err != nil {
		return nil, fmt.Errorf("building user store: %w", err)
	}

	key := []byte(cfg.Token.SigningKey)
	issuer, err := token.NewIssuer(key, cfg.Token.Issuer, cfg.Token.Audience, cfg.Token.DefaultExpiry())
	if err != nil {
		return nil, fmt.Errorf("building token issuer: %w", err)
	}
	verifier := token.NewVerifier(key, cfg.Token.Issuer, cfg.Token.Audience, cfg.Token.Leeway())

	policies, err := authz.NewRegistry(cfg.Policies)
	if err != nil {
		return nil, fmt.Errorf("building policy registry: %w", err)
	}

	auditor, err := audit.FromConfig(cfg.Audit)
	if err != nil {
		return nil, fmt.Errorf("building auditor: %w", err)
	}

	svc := service.NewAuthService(store, issuer, verifier, policies, auditor)

	return &components{
		cfg:      cfg,
		store:    store,
		issuer:   issuer,
		verifier: verifier,
		policies: policies,
		auditor:  auditor,
		service:  svc,
	}, nil
}

// resolveServer returns the remote server address, flag before environment.
func resolveServer() (string, error) {
	server := serverAddr
	if server == "" {
		server = viper.GetString(ServerAddrKey)
	}
	if server == "" {
		return "", fmt.Errorf("server address not configured (use --server or set SIGIL_ADDR)")
	}
	return server, nil
}

// getClient returns an authenticated HTTP client for remote operations.
func getClient() (*client.Client, error) {
	server, err := resolveServer()
	if err != nil {
		return nil, err
	}

	var authToken string
	if cfg, err := cliconfig.Load(); err == nil {
		if cred, err := cfg.GetCredential(server); err == nil {
			authToken = cred.Token
		}
	}
	// SIGIL_TOKEN wins over a saved credential
	if envToken := os.Getenv("SIGIL_TOKEN"); envToken != "" {
		authToken = envToken
	}

	return client.New(server, client.WithAuthToken(authToken)), nil
}
