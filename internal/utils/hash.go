package utils

import (
    "crypto/sha256"
    "encoding/hex"
    "strings"
)

// HashIP returns the hex SHA-256 of an IP address.  Only the hash is ever
// stored with consent and audit rows.
func HashIP(ip string) string {
    if ip == "" {
        return ""
    }
    sum := sha256.Sum256([]byte(ip))
    return hex.EncodeToString(sum[:])
}

// HashEmail hashes a normalized email address.  It keys the audit entry
// written after a user's data has been erased.
func HashEmail(email string) string {
    sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
    return hex.EncodeToString(sum[:])
}
