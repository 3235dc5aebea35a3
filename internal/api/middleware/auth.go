package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/averen/sigil/internal/api/presenter"
	"github.com/averen/sigil/internal/core"
	"github.com/averen/sigil/internal/service"
)

type claimsKeyType struct{}

var claimsKey claimsKeyType

// ClaimsCtx retrieves the verified claim set attached by Authenticate.
func ClaimsCtx(ctx context.Context) (core.ClaimSet, bool) {
	claims, ok := ctx.Value(claimsKey).(core.ClaimSet)
	return claims, ok
}

// Authenticate verifies the bearer token on every request and attaches the
// reconstructed claim set to the context. Verification failures are
// distinct 401s; they never reach the wrapped handler.
func Authenticate(svc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer"))
			if tokenStr == "" {
				presenter.Error(w, r, "missing Authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := svc.Verify(r.Context(), tokenStr)
			if err != nil {
				presenter.Err(w, r, err, "authentication failed")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePolicy enforces the named policy against the claim set attached by
// Authenticate. The policy name is resolved at registration time, so a typo
// in the attachment fails startup, not this handler.
func RequirePolicy(svc *service.AuthService, policyName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsCtx(r.Context())
			if !ok {
				presenter.Error(w, r, "login required", http.StatusUnauthorized)
				return
			}

			if err := svc.Authorize(r.Context(), claims, policyName); err != nil {
				presenter.Err(w, r, err, "authorization failed")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
