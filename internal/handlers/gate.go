package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/memberhub/apiserver/internal/auth"
)

type contextKey string

const contextClaimsKey contextKey = "claims"

// AccessGate is the single authorization checkpoint for the API. Every
// member-scoped route goes through it; no handler re-implements token
// checks.
type AccessGate struct {
	verifier *auth.TokenVerifier
	logger   *slog.Logger
}

func NewAccessGate(verifier *auth.TokenVerifier, logger *slog.Logger) *AccessGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccessGate{verifier: verifier, logger: logger}
}

// Authenticate attaches verified claims to the request context. A missing
// or invalid token is ordinary input: the request continues without claims
// and downstream enforcement decides what that means. The two cases are
// kept apart in diagnostics only.
func (g *AccessGate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := g.verifier.Verify(raw)
		if err != nil {
			g.logger.Debug("rejected bearer token",
				slog.String("path", r.URL.Path), slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), contextClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests whose context carries no verified claims.
// It assumes Authenticate ran earlier in the middleware chain.
func (g *AccessGate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); !ok {
			writeFailure(w, http.StatusUnauthorized, 0, "not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the verified claims attached to the request,
// if any. Absence means verification was not attempted or failed; callers
// must not treat a zero Claims value as an identity.
func ClaimsFromContext(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(contextClaimsKey).(auth.Claims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// errMissingClaims guards against routes wired without the gate.
var errMissingClaims = errors.New("no verified claims in context")

func subjectFromContext(ctx context.Context) (string, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return "", errMissingClaims
	}
	return claims.MemberID, nil
}
