package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kita-magazine-reservation/internal/database"
    "github.com/iliyamo/kita-magazine-reservation/internal/model"
    "github.com/iliyamo/kita-magazine-reservation/internal/repository"
)

// AdminHandler backs the staff endpoints.  Routes are protected by JWTAuth
// and RequireRole(ADMIN).
type AdminHandler struct {
    DB           *database.DB
    Magazines    *repository.MagazineRepo
    Reservations *repository.ReservationRepo
    Audit        *repository.AuditRepo
    Cache        CacheInvalidator
}

// ListReservations handles GET /api/admin/reservations?status=.
func (h *AdminHandler) ListReservations(c echo.Context) error {
    status := strings.TrimSpace(c.QueryParam("status"))
    if status != "" && !model.ValidStatus(status) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Unbekannter Status"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    list, err := h.Reservations.List(ctx, status)
    if err != nil {
        return internalError(c, "admin.ListReservations", err)
    }
    out := make([]reservationDTO, 0, len(list))
    for _, r := range list {
        out = append(out, toReservationDTO(r))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

type statusReq struct {
    Status string `json:"status"`
}

// UpdateReservationStatus handles PATCH /api/admin/reservations/:id/status.
// Cancelling an active reservation returns its copies to stock.
func (h *AdminHandler) UpdateReservationStatus(c echo.Context) error {
    id := c.Param("id")
    var req statusReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": MsgInvalidRequest})
    }
    req.Status = strings.ToLower(strings.TrimSpace(req.Status))
    if !model.ValidStatus(req.Status) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Unbekannter Status"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    tx, err := h.DB.BeginTx(ctx, nil)
    if err != nil {
        return internalError(c, "admin.UpdateReservationStatus", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := h.Reservations.GetByIDTx(ctx, tx, id)
    if errors.Is(err, repository.ErrNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "Reservierung nicht gefunden"})
    }
    if err != nil {
        return internalError(c, "admin.UpdateReservationStatus", err)
    }
    if !model.CanTransition(res.Status, req.Status) {
        return c.JSON(http.StatusConflict, echo.Map{
            "error": "Statuswechsel nicht möglich",
            "from":  res.Status,
            "to":    req.Status,
        })
    }
    if err := h.Reservations.UpdateStatusTx(ctx, tx, res.ID, res.Status, req.Status); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "Die Reservierung wurde zwischenzeitlich geändert"})
        }
        return internalError(c, "admin.UpdateReservationStatus", err)
    }
    restored := req.Status == model.StatusCancelled && res.IsActive()
    if restored {
        if err := h.Magazines.RestoreStockTx(ctx, tx, res.MagazineID, res.Quantity); err != nil {
            return internalError(c, "admin.UpdateReservationStatus", err)
        }
    }
    subject, _ := c.Get("subject").(string)
    if err := h.Audit.LogTx(ctx, tx, repository.AuditEntry{
        UserID:   res.UserID,
        Action:   model.AuditReservationStatus,
        Entity:   "reservation",
        EntityID: res.ID,
        Details:  map[string]any{"from": res.Status, "to": req.Status, "by": subject},
    }); err != nil {
        return internalError(c, "admin.UpdateReservationStatus", err)
    }
    if err := tx.Commit(); err != nil {
        return internalError(c, "admin.UpdateReservationStatus", err)
    }
    committed = true
    if restored {
        invalidate(ctx, h.Cache)
    }

    res.Status = req.Status
    res.UpdatedAt = time.Now().UTC()
    return c.JSON(http.StatusOK, echo.Map{"reservation": toReservationDTO(res), "stock_restored": restored})
}

type magazineReq struct {
    Title           string `json:"title"`
    IssueNumber     string `json:"issue_number"`
    Description     string `json:"description"`
    CoverImageURL   string `json:"cover_image_url"`
    PriceCents      int    `json:"price_cents"`
    TotalCopies     int    `json:"total_copies"`
    PublicationDate string `json:"publication_date"` // YYYY-MM-DD
    IsActive        *bool  `json:"is_active"`
}

// CreateMagazine handles POST /api/admin/magazines.
func (h *AdminHandler) CreateMagazine(c echo.Context) error {
    var req magazineReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": MsgInvalidRequest})
    }
    req.Title = strings.TrimSpace(req.Title)
    req.IssueNumber = strings.TrimSpace(req.IssueNumber)
    if req.Title == "" || req.IssueNumber == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Titel und Ausgabe sind erforderlich"})
    }
    if req.TotalCopies < 1 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Auflage muss mindestens 1 sein"})
    }
    if req.PriceCents < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Preis darf nicht negativ sein"})
    }
    pub, err := time.Parse("2006-01-02", strings.TrimSpace(req.PublicationDate))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Erscheinungsdatum im Format JJJJ-MM-TT angeben"})
    }
    active := true
    if req.IsActive != nil {
        active = *req.IsActive
    }
    m := model.Magazine{
        Title:           req.Title,
        IssueNumber:     req.IssueNumber,
        Description:     strings.TrimSpace(req.Description),
        CoverImageURL:   strings.TrimSpace(req.CoverImageURL),
        PriceCents:      req.PriceCents,
        TotalCopies:     req.TotalCopies,
        AvailableCopies: req.TotalCopies,
        PublicationDate: pub,
        IsActive:        active,
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    if err := h.Magazines.Create(ctx, &m); err != nil {
        return internalError(c, "admin.CreateMagazine", err)
    }
    subject, _ := c.Get("subject").(string)
    if err := h.Audit.Log(ctx, repository.AuditEntry{Action: model.AuditMagazineCreated, Entity: "magazine",
        EntityID: m.ID, Details: map[string]any{"by": subject, "total_copies": m.TotalCopies}}); err != nil {
        return internalError(c, "admin.CreateMagazine", err)
    }
    invalidate(ctx, h.Cache)
    return c.JSON(http.StatusCreated, echo.Map{"magazine": toMagazineDTO(m)})
}
