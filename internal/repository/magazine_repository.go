package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/kita-magazine-reservation/internal/database"
    "github.com/iliyamo/kita-magazine-reservation/internal/model"
)

// MagazineRepo provides access to the magazines table.
type MagazineRepo struct {
    db *database.DB
}

// NewMagazineRepo returns a new MagazineRepo bound to the given database.
func NewMagazineRepo(db *database.DB) *MagazineRepo { return &MagazineRepo{db: db} }

const magazineColumns = `id, title, issue_number, description, cover_image_url, price_cents,
    total_copies, available_copies, publication_date, is_active, created_at, updated_at`

type rowScanner interface {
    Scan(dest ...any) error
}

func scanMagazine(s rowScanner) (model.Magazine, error) {
    var m model.Magazine
    err := s.Scan(&m.ID, &m.Title, &m.IssueNumber, &m.Description, &m.CoverImageURL, &m.PriceCents,
        &m.TotalCopies, &m.AvailableCopies, &m.PublicationDate, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
    return m, err
}

// ListActive returns all active issues, newest publication first.
func (r *MagazineRepo) ListActive(ctx context.Context) ([]model.Magazine, error) {
    q := `SELECT ` + magazineColumns + ` FROM magazines WHERE is_active = ? ORDER BY publication_date DESC, title`
    rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), true)
    if err != nil {
        return nil, fmt.Errorf("magazines.ListActive: %w", err)
    }
    defer rows.Close()
    out := make([]model.Magazine, 0)
    for rows.Next() {
        m, err := scanMagazine(rows)
        if err != nil {
            return nil, fmt.Errorf("magazines.ListActive: %w", err)
        }
        out = append(out, m)
    }
    return out, rows.Err()
}

// GetByID returns a magazine or ErrNotFound.
func (r *MagazineRepo) GetByID(ctx context.Context, id string) (model.Magazine, error) {
    q := `SELECT ` + magazineColumns + ` FROM magazines WHERE id = ?`
    m, err := scanMagazine(r.db.QueryRowContext(ctx, r.db.Rebind(q), id))
    if errors.Is(err, sql.ErrNoRows) {
        return model.Magazine{}, ErrNotFound
    }
    if err != nil {
        return model.Magazine{}, fmt.Errorf("magazines.GetByID: %w", err)
    }
    return m, nil
}

// Create inserts a magazine.  ID and timestamps are filled in when empty.
// AvailableCopies starts at TotalCopies unless set explicitly.
func (r *MagazineRepo) Create(ctx context.Context, m *model.Magazine) error {
    now := time.Now().UTC()
    if m.ID == "" {
        m.ID = uuid.NewString()
    }
    if m.AvailableCopies == 0 {
        m.AvailableCopies = m.TotalCopies
    }
    m.CreatedAt, m.UpdatedAt = now, now
    const q = `INSERT INTO magazines (id, title, issue_number, description, cover_image_url, price_cents,
        total_copies, available_copies, publication_date, is_active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    _, err := r.db.ExecContext(ctx, r.db.Rebind(q), m.ID, m.Title, m.IssueNumber, m.Description, m.CoverImageURL,
        m.PriceCents, m.TotalCopies, m.AvailableCopies, m.PublicationDate, m.IsActive, m.CreatedAt, m.UpdatedAt)
    if err != nil {
        return fmt.Errorf("magazines.Create: %w", err)
    }
    return nil
}

// DecrementStockTx takes qty copies out of stock.  The check and the update
// are one statement, so two concurrent reservations cannot both take the
// last copies.  ErrSoldOut is returned when the guard fails.
func (r *MagazineRepo) DecrementStockTx(ctx context.Context, tx *sql.Tx, id string, qty int) error {
    const q = `UPDATE magazines SET available_copies = available_copies - ?, updated_at = ?
               WHERE id = ? AND is_active = ? AND available_copies >= ?`
    res, err := tx.ExecContext(ctx, r.db.Rebind(q), qty, time.Now().UTC(), id, true, qty)
    if err != nil {
        return fmt.Errorf("magazines.DecrementStockTx: %w", err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return fmt.Errorf("magazines.DecrementStockTx: %w", err)
    }
    if n == 0 {
        return ErrSoldOut
    }
    return nil
}

// RestoreStockTx puts qty copies back, never above the print run.
func (r *MagazineRepo) RestoreStockTx(ctx context.Context, tx *sql.Tx, id string, qty int) error {
    const q = `UPDATE magazines SET available_copies = available_copies + ?, updated_at = ?
               WHERE id = ? AND available_copies + ? <= total_copies`
    if _, err := tx.ExecContext(ctx, r.db.Rebind(q), qty, time.Now().UTC(), id, qty); err != nil {
        return fmt.Errorf("magazines.RestoreStockTx: %w", err)
    }
    return nil
}
