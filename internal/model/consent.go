package model

import "time"

// Consent purposes.
const (
    ConsentEssential  = "essential"
    ConsentFunctional = "functional"
    ConsentAnalytics  = "analytics"
    ConsentMarketing  = "marketing"
)

// ConsentTypes lists every purpose in display order.
var ConsentTypes = []string{ConsentEssential, ConsentFunctional, ConsentAnalytics, ConsentMarketing}

// ValidConsentType reports whether t is a known purpose.
func ValidConsentType(t string) bool {
    for _, c := range ConsentTypes {
        if c == t {
            return true
        }
    }
    return false
}

// Consent is one entry of a user's consent history.  Rows are never
// updated; a withdrawal is a new row with Granted=false, so the latest row
// per type is the current state.
type Consent struct {
    ID          string    // consents.id
    UserID      string    // consents.user_id
    ConsentType string    // consents.consent_type
    Granted     bool      // consents.granted
    Version     string    // consents.version (privacy notice version)
    IPHash      string    // consents.ip_hash (sha256, never the raw IP)
    UserAgent   string    // consents.user_agent
    RecordedAt  time.Time // consents.recorded_at
}
