package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Mode represents the authentication strategy to apply for incoming requests.
type Mode string

const (
	// ModeClerk enables Clerk JWT verification using a JWKS endpoint.
	ModeClerk Mode = "clerk"
	// ModeNoop disables signature verification and treats the bearer token as the user ID (useful for local development and tests).
	ModeNoop Mode = "noop"
)

// AnonymousHeader carries the browser-persisted identifier of an unauthenticated writer.
const AnonymousHeader = "X-Anonymous-ID"

const anonymousPrefix = "anon:"

// Config captures the inputs required to initialize an authenticator.
type Config struct {
	Mode     Mode
	JWKSURL  string
	Audience string
	Issuer   string
}

// AuthenticatedUser represents the currently authenticated subject extracted from the bearer token.
type AuthenticatedUser struct {
	UserID    string
	SessionID string
	ExpiresAt int64
	Token     string
	Anonymous bool
}

// Verifier verifies a bearer token and returns the associated user context.
type Verifier interface {
	Verify(ctx context.Context, token string) (AuthenticatedUser, error)
}

// MiddlewareOption tweaks the behavior of Middleware.
type MiddlewareOption func(*middlewareOptions)

type middlewareOptions struct {
	allowAnonymous bool
}

// WithAnonymous accepts requests that carry no credentials but present a valid anonymous identifier.
func WithAnonymous(allow bool) MiddlewareOption {
	return func(o *middlewareOptions) {
		o.allowAnonymous = allow
	}
}

var (
	errMissingAuthHeader = errors.New("authorization header missing")
	errInvalidAuthHeader = errors.New("authorization header is malformed")
	errInvalidAnonymous  = errors.New("anonymous id is malformed")
)

type ctxKey string

const userCtxKey ctxKey = "inkwell:user"

// Middleware enforces authentication for the wrapped handler using the provided verifier.
func Middleware(verifier Verifier, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	var options middlewareOptions
	for _, opt := range opts {
		opt(&options)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			token, err := tokenFromRequest(r)
			if errors.Is(err, errMissingAuthHeader) && options.allowAnonymous {
				user, anonErr := anonymousFromRequest(r)
				if anonErr != nil {
					http.Error(w, anonErr.Error(), http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
				return
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims)))
		})
	}
}

func tokenFromRequest(r *http.Request) (string, error) {
	// Check for X-User-ID header first (for internal service-to-service calls)
	if userID := r.Header.Get("X-User-ID"); userID != "" {
		return userID, nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingAuthHeader
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errInvalidAuthHeader
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errInvalidAuthHeader
	}

	return token, nil
}

func anonymousFromRequest(r *http.Request) (AuthenticatedUser, error) {
	raw := strings.TrimSpace(r.Header.Get(AnonymousHeader))
	if raw == "" {
		return AuthenticatedUser{}, errMissingAuthHeader
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return AuthenticatedUser{}, errInvalidAnonymous
	}
	return AuthenticatedUser{UserID: anonymousPrefix + id.String(), Anonymous: true}, nil
}

// NewAnonymousID issues a fresh identifier for a browser that has no account yet.
func NewAnonymousID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, user AuthenticatedUser) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) (AuthenticatedUser, bool) {
	value, ok := ctx.Value(userCtxKey).(AuthenticatedUser)
	return value, ok
}

// NewVerifier constructs a Verifier matching the supplied configuration.
func NewVerifier(cfg Config) (Verifier, error) {
	switch cfg.Mode {
	case ModeClerk:
		return newClerkVerifier(cfg)
	case ModeNoop:
		return newNoopVerifier(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Mode)
	}
}
