package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/ankiqueue/ankiqueue/internal/api/shared"
	"github.com/ankiqueue/ankiqueue/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// SecretHeader is the header carrying the shared sync secret.
const SecretHeader = "X-API-Secret"

// AuthMiddleware authenticates sync clients with a shared secret. Both
// sides of the pipeline are configured with the same value; there is no
// token issuance and no per-request state.
type AuthMiddleware struct {
	cfg config.AuthConfig
}

// NewAuthMiddleware creates an AuthMiddleware from the auth section of
// the configuration. Either Secret or SecretHash must be set; Load
// validates that before the server starts.
func NewAuthMiddleware(cfg config.AuthConfig) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// Authenticate rejects requests whose X-API-Secret header does not
// match the configured secret. Failures are logged at WARN because a
// stream of them usually means a misconfigured client.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := r.Header.Get(SecretHeader)
		if presented == "" {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
				"Missing API secret",
				errors.New("request without secret header"),
				shared.WithElevatedLogLevel())
			return
		}

		if !m.matches(presented) {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
				"Invalid API secret",
				errors.New("request with wrong secret"),
				shared.WithElevatedLogLevel())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// matches compares the presented secret against the configured one.
// When a bcrypt hash is configured it takes precedence over the plain
// secret; otherwise a constant-time comparison is used so the check
// does not leak how much of the secret matched.
func (m *AuthMiddleware) matches(presented string) bool {
	if m.cfg.SecretHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(m.cfg.SecretHash), []byte(presented)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(m.cfg.Secret), []byte(presented)) == 1
}
