package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-key-for-unit-tests-only")

func TestIssueParseRoundTrip(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)

	raw, expiresAt, err := codec.Issue(42, 1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if until := time.Until(expiresAt); until < 59*time.Minute || until > time.Hour {
		t.Errorf("expiry %v not about an hour out", until)
	}

	claims, err := codec.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID: %v", err)
	}
	if id != 42 {
		t.Errorf("user id = %d, want 42", id)
	}
	if claims.Tier != 1 {
		t.Errorf("tier = %d, want 1", claims.Tier)
	}
	if claims.ID == "" {
		t.Error("token id missing")
	}
}

func TestIssueUniqueTokens(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)

	a, _, err := codec.Issue(1, 2)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	b, _, err := codec.Issue(1, 2)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if a == b {
		t.Error("two logins in the same instant must produce distinct tokens")
	}
}

func TestParseExpired(t *testing.T) {
	codec := NewCodec(testSecret, -time.Minute)
	raw, _, err := codec.Issue(42, 2)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = NewCodec(testSecret, time.Hour).Parse(raw)
	if err == nil {
		t.Fatal("expected error for expired token")
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expected jwt.ErrTokenExpired in chain, got %v", err)
	}
}

func TestParseWrongKey(t *testing.T) {
	raw, _, err := NewCodec([]byte("some-other-signing-key-entirely!"), time.Hour).Issue(42, 2)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := NewCodec(testSecret, time.Hour).Parse(raw); err == nil {
		t.Fatal("expected error for wrong signature")
	}
}

func TestParseGarbage(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)
	for _, raw := range []string{"", "abc", "a.b.c"} {
		if _, err := codec.Parse(raw); err == nil {
			t.Errorf("Parse(%q) should fail", raw)
		}
	}
}

func TestUserIDNonNumericSubject(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-number",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parsed, err := NewCodec(testSecret, time.Hour).Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := parsed.UserID(); err == nil {
		t.Fatal("expected error for non-numeric subject")
	}
}

func TestRejectsUnsignedAlgorithm(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewCodec(testSecret, time.Hour).Parse(raw); err == nil {
		t.Fatal("alg=none token must be rejected")
	}
}
