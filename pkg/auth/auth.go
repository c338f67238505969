// Package auth verifies OpenID Connect bearer tokens and carries the
// resulting Actor through request contexts. Tokens are only consumed,
// never issued.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/yusufekamaulana/rsua-akreditasi/pkg/handlers"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/lifecycle"
)

// Verifier resolves a raw bearer token to an Actor.
type Verifier interface {
	Verify(ctx context.Context, raw string) (Actor, error)
}

// System verifies tokens against an OIDC provider discovered at startup,
// retrying discovery on demand until it succeeds.
type System interface {
	Verifier
	// Middleware authenticates every request it wraps.
	Middleware() func(http.Handler) http.Handler
	// Start registers provider discovery with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
}

type oidcAuth struct {
	cfg      *Config
	logger   *slog.Logger
	verifier atomic.Pointer[oidc.IDTokenVerifier]

	mu          sync.Mutex
	lastAttempt time.Time
}

// New creates an OIDC auth system. The provider is not contacted until Start
// or the first verification.
func New(cfg *Config, logger *slog.Logger) System {
	return &oidcAuth{
		cfg:    cfg,
		logger: logger.With("system", "auth"),
	}
}

func (a *oidcAuth) Start(lc *lifecycle.Coordinator) error {
	a.logger.Info("starting oidc discovery", "issuer", a.cfg.Issuer)

	lc.OnStartup(func() {
		a.discover(lc.Context())
	})

	lc.AddProbe("auth", func(ctx context.Context) error {
		if a.discover(ctx) == nil {
			return fmt.Errorf("oidc provider %s not discovered", a.cfg.Issuer)
		}
		return nil
	})

	return nil
}

// discover returns the verifier, running provider discovery when none is
// held yet. Failed attempts are spaced by the configured retry interval and
// callers arriving during an attempt do not wait for it.
func (a *oidcAuth) discover(ctx context.Context) *oidc.IDTokenVerifier {
	if v := a.verifier.Load(); v != nil {
		return v
	}

	if !a.mu.TryLock() {
		return nil
	}
	defer a.mu.Unlock()

	if v := a.verifier.Load(); v != nil {
		return v
	}
	if !a.lastAttempt.IsZero() && time.Since(a.lastAttempt) < a.cfg.DiscoveryRetryDuration() {
		return nil
	}
	a.lastAttempt = time.Now()

	ctx, cancel := context.WithTimeout(ctx, a.cfg.DiscoveryTimeoutDuration())
	defer cancel()

	provider, err := oidc.NewProvider(ctx, a.cfg.Issuer)
	if err != nil {
		a.logger.Error("oidc discovery failed",
			"issuer", a.cfg.Issuer,
			"retry_after", a.cfg.DiscoveryRetry,
			"error", err,
		)
		return nil
	}

	v := provider.Verifier(&oidc.Config{
		ClientID:          a.cfg.ClientID,
		SkipClientIDCheck: a.cfg.SkipClientIDCheck,
	})
	a.verifier.Store(v)
	a.logger.Info("oidc provider ready", "issuer", a.cfg.Issuer)
	return v
}

func (a *oidcAuth) Verify(ctx context.Context, raw string) (Actor, error) {
	v := a.discover(ctx)
	if v == nil {
		return Actor{}, fmt.Errorf("%w: identity provider unavailable", ErrUnauthenticated)
	}

	token, err := v.Verify(ctx, raw)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	var claims map[string]any
	if err := token.Claims(&claims); err != nil {
		return Actor{}, fmt.Errorf("%w: decode claims: %v", ErrUnauthenticated, err)
	}

	return ActorFromClaims(token.Subject, claims, a.cfg.RolesClaim, a.cfg.DepartmentClaim)
}

func (a *oidcAuth) Middleware() func(http.Handler) http.Handler {
	return Middleware(a, a.logger)
}

// Middleware rejects requests without a valid bearer token with 401 and
// stores the verified Actor in the request context otherwise.
func Middleware(v Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if err != nil {
				handlers.RespondError(w, logger, http.StatusUnauthorized, err)
				return
			}

			actor, err := v.Verify(r.Context(), raw)
			if err != nil {
				handlers.RespondError(w, logger, http.StatusUnauthorized, ErrUnauthenticated)
				logger.Debug("token rejected", "error", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", ErrUnauthenticated)
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: expected bearer token", ErrUnauthenticated)
	}
	return strings.TrimSpace(token), nil
}
