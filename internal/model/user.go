package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column in the database.  Handlers
// define separate response types with JSON tags; this struct is used by
// the repository layer.
//
// Fields:
//  ID              – primary key identifier of the user.
//  Username        – display name, not unique.
//  Email           – unique email address.
//  PasswordHash    – bcrypt hashed password.
//  Role            – permission level (user/requester/manager/admin).
//  SectorID        – optional reference into the sectors table.
//  IsActive        – whether the account may authenticate.
//  IsVerified      – whether the email address has been confirmed.
//  OTPSecret       – TOTP shared secret, nil until 2FA setup ran.
//  OTPEnabled      – whether the TOTP second factor is required at login.
//  TermsAccepted   – whether the terms of use were accepted.
//  TermsAcceptedAt – when the terms were accepted (nullable).
//  LoginAttempts   – consecutive failed login counter.
//  CreatedAt       – timestamp of creation.
//  UpdatedAt       – timestamp of last update.
type User struct {
    ID              uint64     // users.id
    Username        string     // users.username
    Email           string     // users.email
    PasswordHash    string     // users.password_hash
    Role            Role       // users.role
    SectorID        *uint64    // users.sector_id (nullable)
    IsActive        bool       // users.is_active
    IsVerified      bool       // users.is_verified
    OTPSecret       *string    // users.otp_secret (nullable)
    OTPEnabled      bool       // users.otp_enabled
    TermsAccepted   bool       // users.terms_accepted
    TermsAcceptedAt *time.Time // users.terms_accepted_at (nullable)
    LoginAttempts   int        // users.login_attempts
    CreatedAt       time.Time  // users.created_at
    UpdatedAt       time.Time  // users.updated_at
}

// RecordFailedLogin increments the failed-attempt counter and deactivates
// the account once the counter reaches limit.  It returns true when this
// failure locked the account.  The caller persists the mutated fields.
func (u *User) RecordFailedLogin(limit int) bool {
    u.LoginAttempts++
    if u.LoginAttempts >= limit {
        u.IsActive = false
        return true
    }
    return false
}

// TwoFactorReady reports whether the user has a stored TOTP secret and the
// second factor switched on.
func (u *User) TwoFactorReady() bool {
    return u.OTPEnabled && u.OTPSecret != nil && *u.OTPSecret != ""
}
