package utils // utils provides hashing and one-time-password helpers

import (
    "github.com/pquerna/otp/totp"
)

// NewTOTPSecret generates a fresh TOTP secret for a user and returns the
// base32 secret plus the otpauth:// provisioning URI that authenticator
// apps consume.
func NewTOTPSecret(issuer, account string) (secret, uri string, err error) {
    key, err := totp.Generate(totp.GenerateOpts{
        Issuer:      issuer,
        AccountName: account,
    })
    if err != nil {
        return "", "", err
    }
    return key.Secret(), key.URL(), nil
}

// VerifyTOTP checks a 6-digit code against the stored shared secret.
func VerifyTOTP(secret, code string) bool {
    return totp.Validate(code, secret)
}
