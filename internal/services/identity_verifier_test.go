package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/examprep-backend/internal/platform/apierr"
)

type jwksFixture struct {
	key     *rsa.PrivateKey
	kid     string
	srv     *httptest.Server
	fetches atomic.Int32
	down    atomic.Bool
}

func newJWKSFixture(t *testing.T) *jwksFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	f := &jwksFixture{key: key, kid: "kid-1"}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.fetches.Add(1)
		if f.down.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		set := jwkSet{Keys: []jwk{{
			Kty: "RSA",
			Kid: f.kid,
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *jwksFixture) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = f.kid
	s, err := tok.SignedString(f.key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validClaims(now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":            "https://securetoken.google.com/exam-prep",
		"aud":            "exam-prep",
		"sub":            "user-1",
		"email":          "editor@example.com",
		"email_verified": true,
		"name":           "Editor One",
		"iat":            now.Add(-time.Minute).Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	}
}

func newTestVerifier(t *testing.T, f *jwksFixture, now time.Time) IdentityVerifier {
	t.Helper()
	v, err := NewIdentityVerifier(IdentityVerifierConfig{
		ProjectID: "exam-prep",
		JWKSURL:   f.srv.URL,
		Now:       func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewIdentityVerifier: %v", err)
	}
	return v
}

func TestIdentityVerifierAcceptsValidToken(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	f := newJWKSFixture(t)
	v := newTestVerifier(t, f, now)

	id, err := v.Verify(context.Background(), f.sign(t, validClaims(now)))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.UID != "user-1" || id.Email != "editor@example.com" || !id.EmailVerified || id.Name != "Editor One" {
		t.Fatalf("unexpected identity: %+v", id)
	}

	// second verification is served from the key cache
	if _, err := v.Verify(context.Background(), f.sign(t, validClaims(now))); err != nil {
		t.Fatalf("Verify (cached): %v", err)
	}
	if got := f.fetches.Load(); got != 1 {
		t.Fatalf("jwks fetches: want=1 got=%d", got)
	}
}

func TestIdentityVerifierRejectsBadClaims(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	f := newJWKSFixture(t)
	v := newTestVerifier(t, f, now)

	cases := map[string]func(c jwt.MapClaims){
		"wrong audience": func(c jwt.MapClaims) { c["aud"] = "other-project" },
		"wrong issuer":   func(c jwt.MapClaims) { c["iss"] = "https://securetoken.google.com/other" },
		"expired":        func(c jwt.MapClaims) { c["exp"] = now.Add(-time.Minute).Unix() },
		"missing sub":    func(c jwt.MapClaims) { delete(c, "sub") },
		"future iat":     func(c jwt.MapClaims) { c["iat"] = now.Add(time.Hour).Unix() },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validClaims(now)
			mutate(c)
			_, err := v.Verify(context.Background(), f.sign(t, c))
			if !apierr.IsCode(err, apierr.CodeInvalidToken) {
				t.Fatalf("want invalid_token got=%v", err)
			}
			if apierr.KindOf(err) != apierr.KindAuthentication {
				t.Fatalf("kind: want=%s got=%s", apierr.KindAuthentication, apierr.KindOf(err))
			}
		})
	}

	if _, err := v.Verify(context.Background(), "not-a-jwt"); !apierr.IsCode(err, apierr.CodeInvalidToken) {
		t.Fatalf("garbage token: want invalid_token got=%v", err)
	}
	if _, err := v.Verify(context.Background(), ""); !apierr.IsCode(err, apierr.CodeInvalidToken) {
		t.Fatalf("empty token: want invalid_token got=%v", err)
	}
}

func TestIdentityVerifierRejectsForeignSignature(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	f := newJWKSFixture(t)
	v := newTestVerifier(t, f, now)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims(now))
	tok.Header["kid"] = f.kid
	signed, err := tok.SignedString(other)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := v.Verify(context.Background(), signed); !apierr.IsCode(err, apierr.CodeInvalidToken) {
		t.Fatalf("want invalid_token got=%v", err)
	}
}

func TestIdentityVerifierKeysUnavailable(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	f := newJWKSFixture(t)
	f.down.Store(true)
	v := newTestVerifier(t, f, now)

	_, err := v.Verify(context.Background(), f.sign(t, validClaims(now)))
	if apierr.KindOf(err) != apierr.KindDependencyUnavailable {
		t.Fatalf("kind: want=%s got=%s (%v)", apierr.KindDependencyUnavailable, apierr.KindOf(err), err)
	}
	if !apierr.IsCode(err, apierr.CodeIdentityUnavail) {
		t.Fatalf("code: want=%s got=%s", apierr.CodeIdentityUnavail, apierr.CodeOf(err))
	}
}

func TestMaxAge(t *testing.T) {
	if got := maxAge("public, max-age=19970, must-revalidate"); got != 19970*time.Second {
		t.Fatalf("maxAge: got=%s", got)
	}
	if got := maxAge("no-cache"); got != 0 {
		t.Fatalf("maxAge: got=%s", got)
	}
}
