package repository

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/kita-magazine-reservation/internal/database"
    "github.com/iliyamo/kita-magazine-reservation/internal/model"
    "github.com/iliyamo/kita-magazine-reservation/internal/utils"
)

// ConsentRepo stores the append-only consent history.
type ConsentRepo struct {
    db *database.DB
}

func NewConsentRepo(db *database.DB) *ConsentRepo { return &ConsentRepo{db: db} }

type execer interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const insertConsent = `INSERT INTO consents (id, user_id, consent_type, granted, version, ip_hash, user_agent, recorded_at)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (r *ConsentRepo) insert(ctx context.Context, ex execer, c *model.Consent) error {
    if !model.ValidConsentType(c.ConsentType) {
        return fmt.Errorf("%w: %q", ErrUnknownConsentType, c.ConsentType)
    }
    c.ID = uuid.NewString()
    if c.RecordedAt.IsZero() {
        c.RecordedAt = time.Now().UTC()
    }
    c.UserAgent = utils.Truncate(c.UserAgent, 255)
    _, err := ex.ExecContext(ctx, r.db.Rebind(insertConsent),
        c.ID, c.UserID, c.ConsentType, c.Granted, c.Version, c.IPHash, c.UserAgent, c.RecordedAt)
    return err
}

// Record appends a consent decision.
func (r *ConsentRepo) Record(ctx context.Context, c *model.Consent) error {
    if err := r.insert(ctx, r.db, c); err != nil {
        return fmt.Errorf("consents.Record: %w", err)
    }
    return nil
}

// RecordTx appends a consent decision inside a transaction.
func (r *ConsentRepo) RecordTx(ctx context.Context, tx *sql.Tx, c *model.Consent) error {
    if err := r.insert(ctx, tx, c); err != nil {
        return fmt.Errorf("consents.RecordTx: %w", err)
    }
    return nil
}

// Withdraw appends a Granted=false row for the purpose.
func (r *ConsentRepo) Withdraw(ctx context.Context, userID, consentType, version, ipHash, userAgent string) (model.Consent, error) {
    c := model.Consent{UserID: userID, ConsentType: consentType, Granted: false, Version: version, IPHash: ipHash, UserAgent: userAgent}
    if err := r.insert(ctx, r.db, &c); err != nil {
        return model.Consent{}, fmt.Errorf("consents.Withdraw: %w", err)
    }
    return c, nil
}

// ListByUser returns the full history, oldest first.  Rows sharing a
// timestamp come back in insertion order.
func (r *ConsentRepo) ListByUser(ctx context.Context, userID string) ([]model.Consent, error) {
    const q = `SELECT id, user_id, consent_type, granted, version, ip_hash, user_agent, recorded_at
               FROM consents WHERE user_id = ? ORDER BY recorded_at, seq`
    rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), userID)
    if err != nil {
        return nil, fmt.Errorf("consents.ListByUser: %w", err)
    }
    defer rows.Close()
    out := make([]model.Consent, 0)
    for rows.Next() {
        var c model.Consent
        if err := rows.Scan(&c.ID, &c.UserID, &c.ConsentType, &c.Granted, &c.Version, &c.IPHash, &c.UserAgent, &c.RecordedAt); err != nil {
            return nil, fmt.Errorf("consents.ListByUser: %w", err)
        }
        out = append(out, c)
    }
    if err := rows.Err(); err != nil {
        return nil, fmt.Errorf("consents.ListByUser: %w", err)
    }
    return out, nil
}

// Current folds the history into the latest decision per purpose.  On equal
// timestamps the later insert wins.  Types never recorded are absent from the
// map.
func (r *ConsentRepo) Current(ctx context.Context, userID string) (map[string]model.Consent, error) {
    history, err := r.ListByUser(ctx, userID)
    if err != nil {
        return nil, err
    }
    cur := make(map[string]model.Consent, len(model.ConsentTypes))
    for _, c := range history {
        if prev, ok := cur[c.ConsentType]; ok && c.RecordedAt.Before(prev.RecordedAt) {
            continue
        }
        cur[c.ConsentType] = c
    }
    return cur, nil
}

// DeleteByUserTx erases the consent history of a user.
func (r *ConsentRepo) DeleteByUserTx(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
    res, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM consents WHERE user_id = ?`), userID)
    if err != nil {
        return 0, fmt.Errorf("consents.DeleteByUserTx: %w", err)
    }
    return res.RowsAffected()
}
