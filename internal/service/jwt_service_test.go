package service

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestTokenService(secret string, now time.Time) *TokenService {
	svc := NewTokenService(secret, 15*time.Minute)
	svc.now = fixedClock(now)
	return svc
}

func TestTokenService_IssueValidate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService("secret", now)

	token, err := svc.Issue("alice01")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	subject, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if subject != "alice01" {
		t.Fatalf("expected subject alice01, got %q", subject)
	}
}

func TestTokenService_ClaimsShape(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService("secret", now)

	token, err := svc.Issue("alice01")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected compact jws, got %q", token)
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(claims) != 3 {
		t.Fatalf("expected only sub/iat/exp, got %v", claims)
	}
	if claims["sub"] != "alice01" {
		t.Fatalf("unexpected sub: %v", claims["sub"])
	}
	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)
	if int64(exp-iat) != int64((15 * time.Minute).Seconds()) {
		t.Fatalf("expected exp = iat + ttl, got iat=%v exp=%v", iat, exp)
	}
}

func TestTokenService_ExpiredAfterTTL(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService("secret", now)
	token, err := svc.Issue("alice01")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc.now = fixedClock(now.Add(15*time.Minute - time.Second))
	if _, err := svc.Validate(token); err != nil {
		t.Fatalf("expected token valid just before expiry, got %v", err)
	}

	svc.now = fixedClock(now.Add(15*time.Minute + time.Second))
	_, err = svc.Validate(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if errors.Is(err, ErrTokenSignature) {
		t.Fatalf("expiry must never be reported as signature error")
	}
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected expiry to wrap ErrTokenInvalid")
	}
}

func TestTokenService_DifferentKeyIsSignatureError(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	issuer := newTestTokenService("other-secret", now)
	verifier := newTestTokenService("secret", now)

	token, err := issuer.Issue("alice01")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Validate(token); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("expected ErrTokenSignature, got %v", err)
	}

	verifier.now = fixedClock(now.Add(time.Hour))
	if _, err := verifier.Validate(token); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("expected signature error before expiry check, got %v", err)
	}
}

func TestTokenService_TamperedPayload(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService("secret", now)
	alice, _ := svc.Issue("alice01")
	bob, _ := svc.Issue("bob0001")

	a := strings.Split(alice, ".")
	b := strings.Split(bob, ".")
	forged := a[0] + "." + b[1] + "." + a[2]

	if _, err := svc.Validate(forged); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("expected ErrTokenSignature for swapped payload, got %v", err)
	}
}

func TestTokenService_Malformed(t *testing.T) {
	svc := newTestTokenService("secret", time.Now().UTC())
	for _, tok := range []string{"", "   ", "not-a-token", "a.b", "a.b.c"} {
		if _, err := svc.Validate(tok); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("expected ErrTokenMalformed for %q, got %v", tok, err)
		}
	}
}

func TestTokenService_UnsupportedAlgorithms(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService("secret", now)
	claims := jwt.RegisteredClaims{
		Subject:   "alice01",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign hs512: %v", err)
	}
	if _, err := svc.Validate(hs512); !errors.Is(err, ErrTokenUnsupported) {
		t.Fatalf("expected ErrTokenUnsupported for HS512, got %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := svc.Validate(none); !errors.Is(err, ErrTokenUnsupported) {
		t.Fatalf("expected ErrTokenUnsupported for alg none, got %v", err)
	}
}

func TestTokenService_MissingClaims(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService("secret", now)

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}).SignedString([]byte("secret"))
	if _, err := svc.Validate(noSubject); !errors.Is(err, ErrTokenUnsupported) {
		t.Fatalf("expected ErrTokenUnsupported without sub, got %v", err)
	}

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  "alice01",
		IssuedAt: jwt.NewNumericDate(now),
	}).SignedString([]byte("secret"))
	if _, err := svc.Validate(noExpiry); !errors.Is(err, ErrTokenUnsupported) {
		t.Fatalf("expected ErrTokenUnsupported without exp, got %v", err)
	}
}

func TestTokenService_RejectsEmptySecret(t *testing.T) {
	svc := NewTokenService("", time.Minute)
	if _, err := svc.Issue("alice01"); !errors.Is(err, ErrTokenUnsupported) {
		t.Fatalf("expected ErrTokenUnsupported on empty secret, got %v", err)
	}
	if _, err := svc.Validate("a.b.c"); !errors.Is(err, ErrTokenUnsupported) {
		t.Fatalf("expected ErrTokenUnsupported on empty secret, got %v", err)
	}
}

func TestTokenService_DefaultTTL(t *testing.T) {
	if ttl := NewTokenService("secret", 0).TTL(); ttl != defaultAccessTTL {
		t.Fatalf("expected default ttl, got %v", ttl)
	}
}

func TestTokenService_ExpiryOfAndIsExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService("secret", now)
	token, _ := svc.Issue("alice01")

	exp, err := svc.ExpiryOf(token)
	if err != nil {
		t.Fatalf("expiry of: %v", err)
	}
	if !exp.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", exp)
	}
	expired, err := svc.IsExpired(token)
	if err != nil || expired {
		t.Fatalf("expected fresh token, got %v,%v", expired, err)
	}

	svc.now = fixedClock(now.Add(time.Hour))
	expired, err = svc.IsExpired(token)
	if err != nil || !expired {
		t.Fatalf("expected expired token with readable expiry, got %v,%v", expired, err)
	}
}

func TestTokenService_ExpiryOfRequiresValidSignature(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	forger := newTestTokenService("attacker", now)
	svc := newTestTokenService("secret", now)
	forged, _ := forger.Issue("alice01")

	if _, err := svc.ExpiryOf(forged); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("expected ErrTokenSignature from ExpiryOf, got %v", err)
	}
	if _, err := svc.IsExpired(forged); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("expected ErrTokenSignature from IsExpired, got %v", err)
	}
	if _, err := svc.ExpiryOf("garbage"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed from ExpiryOf, got %v", err)
	}
}
