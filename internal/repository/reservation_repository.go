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

// ReservationRepo provides CRUD operations for reservations.  All timestamp
// fields are stored in UTC.
type ReservationRepo struct {
    db *database.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *database.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, user_id, magazine_id, quantity, status, delivery_method, pickup_location,
    shipping_street, shipping_house_number, shipping_postal_code, shipping_city, shipping_country,
    order_photos, photo_package, child_name, child_group, notes, created_at, updated_at`

func scanReservation(s rowScanner) (model.Reservation, error) {
    var r model.Reservation
    err := s.Scan(&r.ID, &r.UserID, &r.MagazineID, &r.Quantity, &r.Status, &r.DeliveryMethod, &r.PickupLocation,
        &r.ShippingStreet, &r.ShippingHouseNumber, &r.ShippingPostalCode, &r.ShippingCity, &r.ShippingCountry,
        &r.OrderPhotos, &r.PhotoPackage, &r.ChildName, &r.ChildGroup, &r.Notes, &r.CreatedAt, &r.UpdatedAt)
    return r, err
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction and fills in the generated ID and timestamps.  The caller
// must commit or rollback the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    now := time.Now().UTC()
    res.ID = uuid.NewString()
    if res.Status == "" {
        res.Status = model.StatusPending
    }
    res.CreatedAt, res.UpdatedAt = now, now
    const q = `INSERT INTO reservations (id, user_id, magazine_id, quantity, status, delivery_method, pickup_location,
        shipping_street, shipping_house_number, shipping_postal_code, shipping_city, shipping_country,
        order_photos, photo_package, child_name, child_group, notes, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    _, err := tx.ExecContext(ctx, r.db.Rebind(q), res.ID, res.UserID, res.MagazineID, res.Quantity, res.Status,
        res.DeliveryMethod, res.PickupLocation, res.ShippingStreet, res.ShippingHouseNumber, res.ShippingPostalCode,
        res.ShippingCity, res.ShippingCountry, res.OrderPhotos, res.PhotoPackage, res.ChildName, res.ChildGroup,
        res.Notes, res.CreatedAt, res.UpdatedAt)
    if err != nil {
        return fmt.Errorf("reservations.CreateTx: %w", err)
    }
    return nil
}

// GetByIDTx returns a single reservation read inside tx, or ErrNotFound.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (model.Reservation, error) {
    q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
    res, err := scanReservation(tx.QueryRowContext(ctx, r.db.Rebind(q), id))
    if errors.Is(err, sql.ErrNoRows) {
        return model.Reservation{}, ErrNotFound
    }
    if err != nil {
        return model.Reservation{}, fmt.Errorf("reservations.GetByIDTx: %w", err)
    }
    return res, nil
}

// ListByUser returns the user's reservations, newest first.  An empty slice
// is returned when there are none.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
    q := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ? ORDER BY created_at DESC`
    return r.list(ctx, q, userID)
}

// List returns all reservations, optionally filtered by status.
func (r *ReservationRepo) List(ctx context.Context, status string) ([]model.Reservation, error) {
    if status == "" {
        return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY created_at DESC`)
    }
    return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE status = ? ORDER BY created_at DESC`, status)
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
    rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), args...)
    if err != nil {
        return nil, fmt.Errorf("reservations.list: %w", err)
    }
    defer rows.Close()
    out := make([]model.Reservation, 0)
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            return nil, fmt.Errorf("reservations.list: %w", err)
        }
        out = append(out, res)
    }
    if err := rows.Err(); err != nil {
        return nil, fmt.Errorf("reservations.list: %w", err)
    }
    return out, nil
}

// UpdateStatusTx sets a new status, guarded by the expected current status
// so two admins cannot apply conflicting transitions.  ErrConflict is
// returned when the row changed in between.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id, from, to string) error {
    const q = `UPDATE reservations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
    res, err := tx.ExecContext(ctx, r.db.Rebind(q), to, time.Now().UTC(), id, from)
    if err != nil {
        return fmt.Errorf("reservations.UpdateStatusTx: %w", err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return fmt.Errorf("reservations.UpdateStatusTx: %w", err)
    }
    if n == 0 {
        return ErrConflict
    }
    return nil
}

const countActiveQuery = `SELECT COUNT(*) FROM reservations WHERE user_id = ? AND status IN (?, ?)`

// CountActiveByUser counts pending and confirmed reservations.
func (r *ReservationRepo) CountActiveByUser(ctx context.Context, userID string) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx, r.db.Rebind(countActiveQuery), userID, model.StatusPending, model.StatusConfirmed).Scan(&n)
    if err != nil {
        return 0, fmt.Errorf("reservations.CountActiveByUser: %w", err)
    }
    return n, nil
}

// CountActiveByUserTx is CountActiveByUser inside a transaction.
func (r *ReservationRepo) CountActiveByUserTx(ctx context.Context, tx *sql.Tx, userID string) (int, error) {
    var n int
    err := tx.QueryRowContext(ctx, r.db.Rebind(countActiveQuery), userID, model.StatusPending, model.StatusConfirmed).Scan(&n)
    if err != nil {
        return 0, fmt.Errorf("reservations.CountActiveByUserTx: %w", err)
    }
    return n, nil
}

// DeleteByUserTx removes all reservations of a user and returns how many
// rows were deleted.
func (r *ReservationRepo) DeleteByUserTx(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
    res, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM reservations WHERE user_id = ?`), userID)
    if err != nil {
        return 0, fmt.Errorf("reservations.DeleteByUserTx: %w", err)
    }
    return res.RowsAffected()
}
