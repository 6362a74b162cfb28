package repository

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "github.com/goccy/go-json"
    "github.com/google/uuid"

    "github.com/iliyamo/kita-magazine-reservation/internal/database"
    "github.com/iliyamo/kita-magazine-reservation/internal/model"
    "github.com/iliyamo/kita-magazine-reservation/internal/utils"
)

const (
    maxDetailsLen = 2000 // audit_logs.details
    maxDetailText = 200
)

// truncatedDetails replaces details that still exceed the column after
// shortening their string values.
const truncatedDetails = `{"truncated":true}`

// AuditRepo writes the audit trail and the record of processing
// activities.  Both tables keep a nullable user reference so entries
// survive the erasure of the user they describe.
type AuditRepo struct {
    db *database.DB
}

func NewAuditRepo(db *database.DB) *AuditRepo { return &AuditRepo{db: db} }

// AuditEntry is the input for Log/LogTx.  Details is marshalled to JSON.
type AuditEntry struct {
    UserID   string
    Action   string
    Entity   string
    EntityID string
    Details  map[string]any
    IPHash   string
}

func nullable(s string) any {
    if s == "" {
        return nil
    }
    return s
}

// encodeDetails marshals d into a JSON document that fits audit_logs.details.
// String values are shortened first; the result is never cut mid-document.
func encodeDetails(d map[string]any) (string, error) {
    if len(d) == 0 {
        return "", nil
    }
    bounded := make(map[string]any, len(d))
    for k, v := range d {
        if s, ok := v.(string); ok {
            v = utils.Truncate(s, maxDetailText)
        }
        bounded[k] = v
    }
    b, err := json.Marshal(bounded)
    if err != nil {
        return "", err
    }
    if len(b) > maxDetailsLen {
        return truncatedDetails, nil
    }
    return string(b), nil
}

func (r *AuditRepo) log(ctx context.Context, ex execer, e AuditEntry) error {
    details, err := encodeDetails(e.Details)
    if err != nil {
        return err
    }
    const q = `INSERT INTO audit_logs (id, user_id, action, entity, entity_id, details, ip_hash, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    _, err = ex.ExecContext(ctx, r.db.Rebind(q), uuid.NewString(), nullable(e.UserID), e.Action, e.Entity,
        e.EntityID, details, e.IPHash, time.Now().UTC())
    return err
}

// Log writes an audit entry.
func (r *AuditRepo) Log(ctx context.Context, e AuditEntry) error {
    if err := r.log(ctx, r.db, e); err != nil {
        return fmt.Errorf("audit.Log: %w", err)
    }
    return nil
}

// LogTx writes an audit entry inside a transaction.
func (r *AuditRepo) LogTx(ctx context.Context, tx *sql.Tx, e AuditEntry) error {
    if err := r.log(ctx, tx, e); err != nil {
        return fmt.Errorf("audit.LogTx: %w", err)
    }
    return nil
}

// LogProcessingTx records a processing activity inside a transaction.
func (r *AuditRepo) LogProcessingTx(ctx context.Context, tx *sql.Tx, userID, purpose, legalBasis, categories string) error {
    return r.logProcessing(ctx, tx, userID, purpose, legalBasis, categories)
}

// LogProcessing records a processing activity.
func (r *AuditRepo) LogProcessing(ctx context.Context, userID, purpose, legalBasis, categories string) error {
    return r.logProcessing(ctx, r.db, userID, purpose, legalBasis, categories)
}

func (r *AuditRepo) logProcessing(ctx context.Context, ex execer, userID, purpose, legalBasis, categories string) error {
    const q = `INSERT INTO data_processing_logs (id, user_id, purpose, legal_basis, data_categories, created_at)
               VALUES (?, ?, ?, ?, ?, ?)`
    if _, err := ex.ExecContext(ctx, r.db.Rebind(q), uuid.NewString(), nullable(userID), purpose, legalBasis,
        categories, time.Now().UTC()); err != nil {
        return fmt.Errorf("audit.LogProcessing: %w", err)
    }
    return nil
}

// ListByUser returns the audit entries of a user, oldest first.
func (r *AuditRepo) ListByUser(ctx context.Context, userID string) ([]model.AuditLog, error) {
    const q = `SELECT id, user_id, action, entity, entity_id, details, ip_hash, created_at
               FROM audit_logs WHERE user_id = ? ORDER BY created_at, id`
    rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), userID)
    if err != nil {
        return nil, fmt.Errorf("audit.ListByUser: %w", err)
    }
    defer rows.Close()
    out := make([]model.AuditLog, 0)
    for rows.Next() {
        var a model.AuditLog
        var uid sql.NullString
        if err := rows.Scan(&a.ID, &uid, &a.Action, &a.Entity, &a.EntityID, &a.Details, &a.IPHash, &a.CreatedAt); err != nil {
            return nil, fmt.Errorf("audit.ListByUser: %w", err)
        }
        if uid.Valid {
            s := uid.String
            a.UserID = &s
        }
        out = append(out, a)
    }
    return out, rows.Err()
}

// ListProcessingByUser returns the processing records of a user.
func (r *AuditRepo) ListProcessingByUser(ctx context.Context, userID string) ([]model.DataProcessingLog, error) {
    const q = `SELECT id, user_id, purpose, legal_basis, data_categories, created_at
               FROM data_processing_logs WHERE user_id = ? ORDER BY created_at, id`
    rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), userID)
    if err != nil {
        return nil, fmt.Errorf("audit.ListProcessingByUser: %w", err)
    }
    defer rows.Close()
    out := make([]model.DataProcessingLog, 0)
    for rows.Next() {
        var p model.DataProcessingLog
        var uid sql.NullString
        if err := rows.Scan(&p.ID, &uid, &p.Purpose, &p.LegalBasis, &p.DataCategories, &p.CreatedAt); err != nil {
            return nil, fmt.Errorf("audit.ListProcessingByUser: %w", err)
        }
        if uid.Valid {
            s := uid.String
            p.UserID = &s
        }
        out = append(out, p)
    }
    return out, rows.Err()
}

// AnonymizeUserTx detaches audit and processing rows from a user that is
// being erased.
func (r *AuditRepo) AnonymizeUserTx(ctx context.Context, tx *sql.Tx, userID string) error {
    if _, err := tx.ExecContext(ctx, r.db.Rebind(`UPDATE audit_logs SET user_id = NULL WHERE user_id = ?`), userID); err != nil {
        return fmt.Errorf("audit.AnonymizeUserTx: %w", err)
    }
    if _, err := tx.ExecContext(ctx, r.db.Rebind(`UPDATE data_processing_logs SET user_id = NULL WHERE user_id = ?`), userID); err != nil {
        return fmt.Errorf("audit.AnonymizeUserTx: %w", err)
    }
    return nil
}
