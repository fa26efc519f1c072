package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingSubject  = errors.New("token missing subject claim")
	errMissingKeyID    = errors.New("token missing kid header")
	errReservedSubject = errors.New("token subject uses a reserved namespace")
)

const (
	jwksFetchTimeout = 5 * time.Second
	jwksCacheTTL     = 10 * time.Minute
)

// clerkVerifier validates Clerk-issued session JWTs against the instance JWKS.
type clerkVerifier struct {
	audience string
	issuer   string
	keys     *keySet
}

func newClerkVerifier(cfg Config) (Verifier, error) {
	if strings.TrimSpace(cfg.JWKSURL) == "" {
		return nil, fmt.Errorf("clerk JWKS URL is required")
	}

	return &clerkVerifier{
		audience: cfg.Audience,
		issuer:   cfg.Issuer,
		keys: &keySet{
			url:    cfg.JWKSURL,
			client: &http.Client{Timeout: jwksFetchTimeout},
			ttl:    jwksCacheTTL,
			keys:   make(map[string]*rsa.PublicKey),
		},
	}, nil
}

func (v *clerkVerifier) Verify(ctx context.Context, token string) (AuthenticatedUser, error) {
	options := []jwt.ParserOption{
		jwt.WithLeeway(5 * time.Second),
		jwt.WithValidMethods([]string{"RS256"}),
	}
	if v.audience != "" {
		options = append(options, jwt.WithAudience(v.audience))
	}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, v.keyFunc(ctx), options...); err != nil {
		return AuthenticatedUser{}, fmt.Errorf("token verification failed: %w", err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return AuthenticatedUser{}, errMissingSubject
	}
	if strings.HasPrefix(subject, anonymousPrefix) {
		return AuthenticatedUser{}, errReservedSubject
	}

	sessionID, _ := claims["sid"].(string)

	var expiresAt int64
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Unix()
	}

	return AuthenticatedUser{
		UserID:    subject,
		SessionID: sessionID,
		ExpiresAt: expiresAt,
		Token:     token,
	}, nil
}

func (v *clerkVerifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errMissingKeyID
		}
		return v.keys.lookup(ctx, kid)
	}
}

// keySet caches RSA keys from a JWKS endpoint and refreshes on unknown kids.
type keySet struct {
	url    string
	client *http.Client
	ttl    time.Duration

	mu         sync.RWMutex
	keys       map[string]*rsa.PublicKey
	lastLoaded time.Time
}

func (s *keySet) lookup(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := s.cached(kid); ok {
		return key, nil
	}
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	if key, ok := s.cached(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("jwks key %s not found", kid)
}

func (s *keySet) cached(kid string) (*rsa.PublicKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[kid]
	return key, ok
}

func (s *keySet) fresh() bool {
	return time.Since(s.lastLoaded) < s.ttl && len(s.keys) > 0
}

func (s *keySet) refresh(ctx context.Context) error {
	s.mu.RLock()
	if s.fresh() {
		s.mu.RUnlock()
		return nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fresh() {
		return nil
	}

	keys, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	s.keys = keys
	s.lastLoaded = time.Now()
	return nil
}

func (s *keySet) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create jwks request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var document struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&document); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(document.Keys))
	for _, key := range document.Keys {
		if key.Kty != "RSA" {
			continue
		}
		pub, err := key.rsaPublicKey()
		if err != nil {
			return nil, fmt.Errorf("parse jwks key %s: %w", key.Kid, err)
		}
		keys[key.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, errors.New("jwks contained no supported keys")
	}
	return keys, nil
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (j jwk) rsaPublicKey() (*rsa.PublicKey, error) {
	if j.N == "" || j.E == "" {
		return nil, errors.New("missing modulus or exponent")
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}

	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() == 0 {
		return nil, errors.New("invalid exponent value")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}
