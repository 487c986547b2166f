// Package token issues and verifies the four signed token kinds used by
// the API: access, refresh and the single-purpose scoped tokens (email
// verification, password reset, 2FA challenge).  All tokens are HS256 JWTs
// signed with the same secret; scoped tokens are separated purely by their
// scope claim, so verifiers must always check it.
package token

import (
    "errors"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
)

// Scope values accepted by scoped tokens.  A token carrying one scope must
// never validate under another scope's verifier.
const (
    ScopeEmailVerification = "email_verification"
    ScopePasswordReset     = "password_reset"
    ScopeTwoFactor         = "2fa_verification"
)

// Default scoped-token lifetimes.
const (
    EmailVerificationTTL = 24 * time.Hour
    PasswordResetTTL     = 15 * time.Minute
    TwoFactorTTL         = 5 * time.Minute
)

// ErrInvalid is returned for any token that fails signature, expiry,
// claim-shape or scope checks.  Callers translate it to a generic 401
// without detailing which check failed.
var ErrInvalid = errors.New("invalid token")

// Access represents a signed access token together with the metadata the
// blacklist needs at revocation time.
type Access struct {
    Value string    // serialized JWT
    JTI   string    // unique token id, blacklist key
    Exp   time.Time // UTC expiration time
}

// NewAccess builds and signs a short-lived access token for a user.  The
// payload carries sub (user id), a fresh random jti, exp and iat.
func NewAccess(secret string, userID uint64, ttlMin int) (Access, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    jti := uuid.NewString()
    claims := jwt.MapClaims{
        "sub": strconv.FormatUint(userID, 10),
        "jti": jti,
        "exp": exp.Unix(),
        "iat": now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return Access{}, err
    }
    return Access{Value: signed, JTI: jti, Exp: exp}, nil
}

// NewRefresh builds and signs a long-lived refresh token.  It carries only
// sub and exp; refresh tokens mint new pairs and grant nothing directly.
func NewRefresh(secret string, userID uint64, ttlDays int) (string, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
    claims := jwt.MapClaims{
        "sub": strconv.FormatUint(userID, 10),
        "exp": exp.Unix(),
    }
    return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// NewScoped builds a short-lived token restricted to one purpose.  The
// subject is an email address for verification/reset tokens and a user id
// for the 2FA challenge.
func NewScoped(secret, subject, scope string, ttl time.Duration) (string, error) {
    exp := time.Now().UTC().Add(ttl)
    claims := jwt.MapClaims{
        "sub":   subject,
        "scope": scope,
        "exp":   exp.Unix(),
    }
    return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyScoped decodes a scoped token and returns its subject.  Signature,
// expiry and scope equality are all enforced; a password-reset token can
// never pass the email-verification verifier and vice versa.
func VerifyScoped(secret, raw, expectedScope string) (string, error) {
    claims, err := Parse(secret, raw)
    if err != nil {
        return "", ErrInvalid
    }
    scope, _ := claims["scope"].(string)
    if scope != expectedScope {
        return "", ErrInvalid
    }
    sub, _ := claims["sub"].(string)
    if sub == "" {
        return "", ErrInvalid
    }
    return sub, nil
}

// Parse validates signature and expiry of any of our tokens and returns
// the raw claims.  Only HMAC signatures are accepted.
func Parse(secret, raw string) (jwt.MapClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalid
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return nil, ErrInvalid
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return nil, ErrInvalid
    }
    return claims, nil
}

// Subject extracts and parses the numeric sub claim shared by access and
// refresh tokens.
func Subject(claims jwt.MapClaims) (uint64, error) {
    s, _ := claims["sub"].(string)
    if s == "" {
        return 0, ErrInvalid
    }
    id, err := strconv.ParseUint(s, 10, 64)
    if err != nil || id == 0 {
        return 0, ErrInvalid
    }
    return id, nil
}

// Expiry extracts the exp claim as a UTC time.
func Expiry(claims jwt.MapClaims) (time.Time, error) {
    switch v := claims["exp"].(type) {
    case float64:
        return time.Unix(int64(v), 0).UTC(), nil
    case int64:
        return time.Unix(v, 0).UTC(), nil
    }
    return time.Time{}, ErrInvalid
}
