package model

import "time"

// Audit actions.
const (
    AuditReservationCreated = "reservation_created"
    AuditReservationStatus  = "reservation_status_changed"
    AuditConsentGranted     = "consent_granted"
    AuditConsentWithdrawn   = "consent_withdrawn"
    AuditDataExported       = "data_exported"
    AuditDataDeleted        = "user_data_deleted"
    AuditMagazineCreated    = "magazine_created"
)

// AuditLog records an action taken on personal data.  UserID is cleared
// when the user's data is deleted so the log itself holds no identity.
type AuditLog struct {
    ID        string    // audit_logs.id
    UserID    *string   // audit_logs.user_id (nullable)
    Action    string    // audit_logs.action
    Entity    string    // audit_logs.entity
    EntityID  string    // audit_logs.entity_id
    Details   string    // audit_logs.details (JSON)
    IPHash    string    // audit_logs.ip_hash
    CreatedAt time.Time // audit_logs.created_at
}

// DataProcessingLog documents a processing activity (Art. 30 GDPR record).
type DataProcessingLog struct {
    ID             string    // data_processing_logs.id
    UserID         *string   // data_processing_logs.user_id (nullable)
    Purpose        string    // data_processing_logs.purpose
    LegalBasis     string    // data_processing_logs.legal_basis
    DataCategories string    // data_processing_logs.data_categories
    CreatedAt      time.Time // data_processing_logs.created_at
}
