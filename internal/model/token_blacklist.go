package model

import "time"

// BlacklistedToken marks one revoked access token in the token_blacklist
// table.  The jti claim is the lookup key; ExpiresAt carries the token's
// original expiry so a periodic sweep can drop rows that no longer matter.
//
// Fields:
//  ID        – primary key identifier.
//  JTI       – unique token id embedded in the revoked JWT.
//  ExpiresAt – original expiry of the revoked token.
//  CreatedAt – when the revocation was recorded.
type BlacklistedToken struct {
    ID        uint64    // token_blacklist.id
    JTI       string    // token_blacklist.jti
    ExpiresAt time.Time // token_blacklist.expires_at
    CreatedAt time.Time // token_blacklist.created_at
}
