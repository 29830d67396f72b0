package services

import (
	"context"
	"crypto/rsa"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/examprep-backend/internal/platform/apierr"
)

// DefaultJWKSURL serves the signing keys for identity-platform ID tokens.
const DefaultJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// VerifiedIdentity is what a valid identity token proves about its bearer.
type VerifiedIdentity struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
}

type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*VerifiedIdentity, error)
}

type IdentityVerifierConfig struct {
	ProjectID  string
	Issuer     string
	JWKSURL    string
	HTTPClient *http.Client
	Leeway     time.Duration
	Now        func() time.Time
}

type identityVerifier struct {
	issuer   string
	audience string
	leeway   time.Duration
	now      func() time.Time
	jwks     *jwksCache
}

// errKeysUnavailable marks failures to obtain signing keys, as opposed to
// tokens that are simply invalid.
var errKeysUnavailable = errors.New("signing keys unavailable")

func NewIdentityVerifier(cfg IdentityVerifierConfig) (IdentityVerifier, error) {
	project := strings.TrimSpace(cfg.ProjectID)
	if project == "" {
		return nil, fmt.Errorf("IDENTITY_PROJECT_ID is required")
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "https://securetoken.google.com/" + project
	}
	jwksURL := strings.TrimSpace(cfg.JWKSURL)
	if jwksURL == "" {
		jwksURL = DefaultJWKSURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &identityVerifier{
		issuer:   issuer,
		audience: project,
		leeway:   cfg.Leeway,
		now:      now,
		jwks:     newJWKSCache(httpClient, jwksURL, now),
	}, nil
}

func (v *identityVerifier) Verify(ctx context.Context, tokenString string) (*VerifiedIdentity, error) {
	const op = "identity.Verify"
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, apierr.Authentication(apierr.CodeInvalidToken, op, "identity token is empty")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithTimeFunc(v.now),
		jwt.WithLeeway(v.leeway),
	)
	claims := jwt.MapClaims{}

	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if strings.TrimSpace(kid) == "" {
			return nil, fmt.Errorf("missing kid")
		}
		return v.jwks.getKey(ctx, kid)
	})
	if err != nil {
		if errors.Is(err, errKeysUnavailable) {
			return nil, apierr.Unavailable(apierr.CodeIdentityUnavail, op, err)
		}
		return nil, apierr.Wrap(apierr.KindAuthentication, apierr.CodeInvalidToken, op, err)
	}
	if tok == nil || !tok.Valid {
		return nil, apierr.Authentication(apierr.CodeInvalidToken, op, "invalid identity token")
	}

	if err := validateTimeClaims(claims, v.now(), v.leeway); err != nil {
		return nil, apierr.Wrap(apierr.KindAuthentication, apierr.CodeInvalidToken, op, err)
	}

	iss, _ := claims["iss"].(string)
	if !containsIssuer([]string{v.issuer}, iss) {
		return nil, apierr.Authentication(apierr.CodeInvalidToken, op, fmt.Sprintf("issuer mismatch: %q", iss))
	}
	if !audContains(claims["aud"], v.audience) {
		return nil, apierr.Authentication(apierr.CodeInvalidToken, op, "audience mismatch")
	}

	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" || len(sub) > 128 {
		return nil, apierr.Authentication(apierr.CodeInvalidToken, op, "invalid sub")
	}

	out := &VerifiedIdentity{UID: sub}
	out.Email, _ = claims["email"].(string)
	out.Name, _ = claims["name"].(string)
	out.EmailVerified = parseBool(claims["email_verified"])
	return out, nil
}

func validateTimeClaims(claims jwt.MapClaims, now time.Time, leeway time.Duration) error {
	// exp is required for ID tokens
	expAny, ok := claims["exp"]
	if !ok {
		return fmt.Errorf("missing exp")
	}
	exp, err := parseNumericTime(expAny)
	if err != nil {
		return fmt.Errorf("invalid exp: %w", err)
	}
	if now.After(exp.Add(leeway)) {
		return fmt.Errorf("token expired")
	}

	// reject tokens issued too far in the future
	if iatAny, ok := claims["iat"]; ok {
		iat, err := parseNumericTime(iatAny)
		if err != nil {
			return fmt.Errorf("invalid iat: %w", err)
		}
		if iat.After(now.Add(5 * time.Minute)) {
			return fmt.Errorf("token issued in the future")
		}
	}
	return nil
}

func parseNumericTime(v any) (time.Time, error) {
	var sec int64
	switch x := v.(type) {
	case float64:
		sec = int64(x)
	case int64:
		sec = x
	case int:
		sec = int64(x)
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return time.Time{}, err
		}
		sec = n
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		sec = n
	default:
		return time.Time{}, fmt.Errorf("unexpected type %T", v)
	}
	if sec <= 0 {
		return time.Time{}, fmt.Errorf("non-positive numeric date")
	}
	return time.Unix(sec, 0).UTC(), nil
}

func constantTimeEq(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func containsIssuer(list []string, iss string) bool {
	for _, v := range list {
		if constantTimeEq(v, iss) {
			return true
		}
	}
	return false
}

func audContains(aud any, required string) bool {
	switch v := aud.(type) {
	case string:
		return v == required
	case []any:
		for _, it := range v {
			if s, ok := it.(string); ok && s == required {
				return true
			}
		}
	}
	return false
}

func parseBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return strings.EqualFold(x, "true") || x == "1"
	case float64:
		return x != 0
	default:
		return false
	}
}

// ----- JWKS cache -----

type jwksCache struct {
	httpClient *http.Client
	url        string
	now        func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
	ttl       time.Duration
}

func newJWKSCache(httpClient *http.Client, url string, now func() time.Time) *jwksCache {
	return &jwksCache{
		httpClient: httpClient,
		url:        url,
		now:        now,
		keys:       map[string]*rsa.PublicKey{},
		ttl:        time.Hour,
	}
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (j *jwksCache) getKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	j.mu.RLock()
	key := j.keys[kid]
	stale := j.now().Sub(j.fetchedAt) > j.ttl
	j.mu.RUnlock()

	if key != nil && !stale {
		return key, nil
	}

	if err := j.refresh(ctx); err != nil {
		// a stale key still verifies while the key endpoint is down
		if key != nil {
			return key, nil
		}
		return nil, fmt.Errorf("%w: %v", errKeysUnavailable, err)
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	key = j.keys[kid]
	if key == nil {
		return nil, fmt.Errorf("kid not found in jwks: %s", kid)
	}
	return key, nil
}

func (j *jwksCache) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.url, nil)
	if err != nil {
		return err
	}
	res, err := j.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("jwks fetch failed: %s", res.Status)
	}

	var set jwkSet
	if err := json.NewDecoder(res.Body).Decode(&set); err != nil {
		return err
	}

	next := map[string]*rsa.PublicKey{}
	for _, k := range set.Keys {
		if strings.TrimSpace(k.Kid) == "" || k.Kty != "RSA" {
			continue
		}
		if pub, err := rsaFromModExp(k.N, k.E); err == nil {
			next[k.Kid] = pub
		}
	}
	if len(next) == 0 {
		return fmt.Errorf("jwks contained no usable keys")
	}

	j.mu.Lock()
	j.keys = next
	j.fetchedAt = j.now()
	if ttl := maxAge(res.Header.Get("Cache-Control")); ttl > 0 {
		j.ttl = ttl
	}
	j.mu.Unlock()
	return nil
}

// maxAge reads max-age from a Cache-Control header.
func maxAge(header string) time.Duration {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if v, ok := strings.CutPrefix(part, "max-age="); ok {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return 0
}

func rsaFromModExp(nB64, eB64 string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(nB64)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(eB64)
	if err != nil {
		return nil, err
	}

	n := new(big.Int).SetBytes(nb)
	e := 0
	for _, b := range eb {
		e = e<<8 + int(b)
	}
	if e == 0 {
		return nil, fmt.Errorf("invalid exponent")
	}
	return &rsa.PublicKey{N: n, E: e}, nil
}
