package token

import (
	"testing"
	"time"
)

const testSecret = "test-secret-not-for-production"

func TestNewAccessClaims(t *testing.T) {
	acc, err := NewAccess(testSecret, 42, 60)
	if err != nil {
		t.Fatalf("NewAccess() error = %v", err)
	}
	if acc.JTI == "" {
		t.Error("access token must carry a jti")
	}
	if !acc.Exp.After(time.Now()) {
		t.Error("access token expiry must be in the future")
	}

	claims, err := Parse(testSecret, acc.Value)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	id, err := Subject(claims)
	if err != nil {
		t.Fatalf("Subject() error = %v", err)
	}
	if id != 42 {
		t.Errorf("subject = %d, want 42", id)
	}
	if jti, _ := claims["jti"].(string); jti != acc.JTI {
		t.Errorf("jti claim = %q, want %q", jti, acc.JTI)
	}
}

func TestAccessJTIUnique(t *testing.T) {
	a, err := NewAccess(testSecret, 1, 60)
	if err != nil {
		t.Fatalf("NewAccess() error = %v", err)
	}
	b, err := NewAccess(testSecret, 1, 60)
	if err != nil {
		t.Fatalf("NewAccess() error = %v", err)
	}
	if a.JTI == b.JTI {
		t.Error("two access tokens share a jti")
	}
}

func TestRefreshHasNoJTI(t *testing.T) {
	raw, err := NewRefresh(testSecret, 7, 7)
	if err != nil {
		t.Fatalf("NewRefresh() error = %v", err)
	}
	claims, err := Parse(testSecret, raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, ok := claims["jti"]; ok {
		t.Error("refresh token must not carry a jti")
	}
	id, err := Subject(claims)
	if err != nil || id != 7 {
		t.Errorf("Subject() = (%d, %v), want (7, nil)", id, err)
	}
}

func TestScopeIsolation(t *testing.T) {
	reset, err := NewScoped(testSecret, "a@example.com", ScopePasswordReset, PasswordResetTTL)
	if err != nil {
		t.Fatalf("NewScoped() error = %v", err)
	}
	verify, err := NewScoped(testSecret, "a@example.com", ScopeEmailVerification, EmailVerificationTTL)
	if err != nil {
		t.Fatalf("NewScoped() error = %v", err)
	}

	if _, err := VerifyScoped(testSecret, reset, ScopeEmailVerification); err == nil {
		t.Error("password-reset token validated under email-verification scope")
	}
	if _, err := VerifyScoped(testSecret, verify, ScopePasswordReset); err == nil {
		t.Error("email-verification token validated under password-reset scope")
	}

	sub, err := VerifyScoped(testSecret, reset, ScopePasswordReset)
	if err != nil {
		t.Fatalf("VerifyScoped() with matching scope error = %v", err)
	}
	if sub != "a@example.com" {
		t.Errorf("subject = %q, want a@example.com", sub)
	}
}

func TestAccessTokenFailsScopedVerify(t *testing.T) {
	acc, err := NewAccess(testSecret, 42, 60)
	if err != nil {
		t.Fatalf("NewAccess() error = %v", err)
	}
	if _, err := VerifyScoped(testSecret, acc.Value, ScopeTwoFactor); err == nil {
		t.Error("access token validated under a scoped verifier")
	}
}

func TestExpiredScopedToken(t *testing.T) {
	raw, err := NewScoped(testSecret, "a@example.com", ScopeTwoFactor, -time.Minute)
	if err != nil {
		t.Fatalf("NewScoped() error = %v", err)
	}
	if _, err := VerifyScoped(testSecret, raw, ScopeTwoFactor); err == nil {
		t.Error("expired token validated")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	acc, err := NewAccess(testSecret, 42, 60)
	if err != nil {
		t.Fatalf("NewAccess() error = %v", err)
	}
	if _, err := Parse("another-secret", acc.Value); err == nil {
		t.Error("token signed with a different secret validated")
	}
}

func TestExpiry(t *testing.T) {
	acc, err := NewAccess(testSecret, 42, 60)
	if err != nil {
		t.Fatalf("NewAccess() error = %v", err)
	}
	claims, err := Parse(testSecret, acc.Value)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	exp, err := Expiry(claims)
	if err != nil {
		t.Fatalf("Expiry() error = %v", err)
	}
	if exp.Unix() != acc.Exp.Unix() {
		t.Errorf("Expiry = %v, want %v", exp, acc.Exp)
	}
}
