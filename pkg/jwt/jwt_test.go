package jwt

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// ============================================================================
// Test Helpers
// ============================================================================

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewTestService("test-secret", "test-issuer", 15*time.Minute)
}

// ============================================================================
// Round trip
// ============================================================================

func TestGenerateToken_ValidateToken_RoundTrip(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.GenerateToken("u1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected three token segments, got %q", token)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.ID != "u1" {
		t.Errorf("expected id u1, got %q", claims.ID)
	}
	if claims.Issuer != "test-issuer" {
		t.Errorf("expected issuer test-issuer, got %q", claims.Issuer)
	}
	if claims.ExpiresAt == nil {
		t.Error("expected expiry to be set")
	}
}

func TestGenerateToken_NoExpiration(t *testing.T) {
	t.Parallel()
	svc := NewTestService("test-secret", "", 0)

	token, err := svc.GenerateToken("u1")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.ExpiresAt != nil {
		t.Errorf("expected no expiry, got %v", claims.ExpiresAt)
	}
}

// ============================================================================
// Rejections
// ============================================================================

func TestValidateToken_Expired(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.Sign(Claims{
		ID: "u1",
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidateToken_NotYetValid(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.Sign(Claims{
		ID: "u1",
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    "test-issuer",
			NotBefore: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrTokenNotYetValid) {
		t.Errorf("expected ErrTokenNotYetValid, got %v", err)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	t.Parallel()
	token, err := NewTestService("one", "test-issuer", time.Minute).GenerateToken("u1")
	if err != nil {
		t.Fatal(err)
	}

	_, err = NewTestService("two", "test-issuer", time.Minute).ValidateToken(token)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	t.Parallel()
	token, err := NewTestService("s", "other", time.Minute).GenerateToken("u1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewTestService("s", "test-issuer", time.Minute).ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateToken_MissingID(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.Sign(Claims{RegisteredClaims: gojwt.RegisteredClaims{Issuer: "test-issuer"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateToken_Malformed(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	for _, token := range []string{"", "abc", "a.b.c", "a.b"} {
		if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, Claims{ID: "u1"}).
		SignedString(gojwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expected unsigned token to be rejected")
	}
}

// ============================================================================
// RSA keys
// ============================================================================

func TestNewService_RSAKeyPair(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")

	if err := GenerateKeyPair(priv, pub); err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	signer, err := NewService(Config{PrivateKeyPath: priv, Issuer: "guildhall"})
	if err != nil {
		t.Fatalf("NewService(private): %v", err)
	}
	verifier, err := NewService(Config{PublicKeyPath: pub, Issuer: "guildhall"})
	if err != nil {
		t.Fatalf("NewService(public): %v", err)
	}

	token, err := signer.GenerateToken("u1")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := verifier.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.ID != "u1" {
		t.Errorf("expected id u1, got %q", claims.ID)
	}

	if _, err := verifier.GenerateToken("u2"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("verify-only service should not sign, got %v", err)
	}
}

func TestNewService_NoKey(t *testing.T) {
	t.Parallel()

	if _, err := NewService(Config{}); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}
