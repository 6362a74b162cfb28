package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/kita-magazine-reservation/internal/database"
    "github.com/iliyamo/kita-magazine-reservation/internal/metrics"
    "github.com/iliyamo/kita-magazine-reservation/internal/model"
    "github.com/iliyamo/kita-magazine-reservation/internal/queue"
    "github.com/iliyamo/kita-magazine-reservation/internal/repository"
    "github.com/iliyamo/kita-magazine-reservation/internal/service"
    "github.com/iliyamo/kita-magazine-reservation/internal/validation"
)

// Legal bases recorded in the processing log.
const (
    PurposeReservation    = "reservation_fulfilment"
    LegalBasisContract    = "Art. 6 Abs. 1 lit. b DSGVO"
    LegalBasisConsent     = "Art. 6 Abs. 1 lit. a DSGVO"
    LegalBasisObligation  = "Art. 6 Abs. 1 lit. c DSGVO"
    reservationCategories = "Kontaktdaten, Lieferdaten, Reservierungsdaten"
)

// ReservationHandler creates reservations.  All dependencies except Cache
// and Metrics must be set.
type ReservationHandler struct {
    DB             *database.DB
    Magazines      *repository.MagazineRepo
    Users          *repository.UserRepo
    Reservations   *repository.ReservationRepo
    Consents       *repository.ConsentRepo
    Audit          *repository.AuditRepo
    Notifier       *service.Notifier
    Cache          CacheInvalidator
    Metrics        *metrics.Metrics
    ConsentVersion string
}

// Create handles POST /api/reservations.
//
// The stock decrement, the reservation row, one consent row per purpose and
// the audit entries are written in one transaction.  The decrement is a
// guarded UPDATE, so of two requests racing for the last copies exactly one
// wins and the other gets 409.  The confirmation email is dispatched after
// commit; when it fails the reservation still stands and the response says
// email_sent=false.
func (h *ReservationHandler) Create(c echo.Context) error {
    var req validation.ReservationRequest
    if err := c.Bind(&req); err != nil {
        h.Metrics.ReservationRejected(metrics.ReasonValidation)
        return c.JSON(http.StatusBadRequest, echo.Map{"error": MsgInvalidRequest})
    }
    if errs := validation.ValidateReservation(&req); len(errs) > 0 {
        h.Metrics.ReservationRejected(metrics.ReasonValidation)
        return invalidInput(c, errs)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    log := zerolog.Ctx(ctx).With().Str("op", "reservations.Create").Logger()

    mag, err := h.Magazines.GetByID(ctx, req.MagazineID)
    if errors.Is(err, repository.ErrNotFound) || (err == nil && !mag.IsActive) {
        h.Metrics.ReservationRejected(metrics.ReasonNotFound)
        return c.JSON(http.StatusNotFound, echo.Map{"error": MsgMagazineNotFound})
    }
    if err != nil {
        h.Metrics.ReservationRejected(metrics.ReasonInternal)
        return internalError(c, "reservations.Create", err)
    }
    if mag.AvailableCopies < req.Quantity {
        h.Metrics.ReservationRejected(metrics.ReasonSoldOut)
        return c.JSON(http.StatusConflict, echo.Map{"error": MsgSoldOut, "available_copies": mag.AvailableCopies})
    }

    res := model.Reservation{
        MagazineID:     mag.ID,
        Quantity:       req.Quantity,
        Status:         model.StatusPending,
        DeliveryMethod: req.DeliveryMethod,
        OrderPhotos:    req.OrderPhotos,
        ChildName:      req.ChildName,
        ChildGroup:     req.ChildGroup,
        Notes:          req.Notes,
    }
    if req.DeliveryMethod == model.DeliveryShipping {
        a := req.ShippingAddress
        res.ShippingStreet, res.ShippingHouseNumber, res.ShippingPostalCode = a.Street, a.HouseNumber, a.PostalCode
        res.ShippingCity, res.ShippingCountry = a.City, a.Country
    } else {
        res.PickupLocation = req.PickupLocation
    }
    if req.OrderPhotos {
        res.PhotoPackage = req.PhotoPackage
    }

    ipHash, ua := clientMeta(c)
    tx, err := h.DB.BeginTx(ctx, nil)
    if err != nil {
        h.Metrics.ReservationRejected(metrics.ReasonInternal)
        return internalError(c, "reservations.Create", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Nothing persists, the user row included, unless the reservation commits.
    user, err := h.Users.UpsertTx(ctx, tx, model.User{
        Email:     req.Email,
        FirstName: req.FirstName,
        LastName:  req.LastName,
        Phone:     req.Phone,
    })
    if errors.Is(err, repository.ErrEmailExists) {
        h.Metrics.ReservationRejected(metrics.ReasonConflict)
        return c.JSON(http.StatusConflict, echo.Map{"error": MsgRetry})
    }
    if err != nil {
        h.Metrics.ReservationRejected(metrics.ReasonInternal)
        return internalError(c, "reservations.Create", err)
    }
    res.UserID = user.ID

    if err := h.Magazines.DecrementStockTx(ctx, tx, mag.ID, req.Quantity); err != nil {
        if errors.Is(err, repository.ErrSoldOut) {
            h.Metrics.ReservationRejected(metrics.ReasonSoldOut)
            return c.JSON(http.StatusConflict, echo.Map{"error": MsgSoldOut})
        }
        h.Metrics.ReservationRejected(metrics.ReasonInternal)
        return internalError(c, "reservations.Create", err)
    }
    if err := h.Reservations.CreateTx(ctx, tx, &res); err != nil {
        h.Metrics.ReservationRejected(metrics.ReasonInternal)
        return internalError(c, "reservations.Create", err)
    }
    now := time.Now().UTC()
    for _, ct := range model.ConsentTypes {
        consent := model.Consent{
            UserID:      user.ID,
            ConsentType: ct,
            Granted:     req.Consent.Granted(ct),
            Version:     h.ConsentVersion,
            IPHash:      ipHash,
            UserAgent:   ua,
            RecordedAt:  now,
        }
        if err := h.Consents.RecordTx(ctx, tx, &consent); err != nil {
            h.Metrics.ReservationRejected(metrics.ReasonInternal)
            return internalError(c, "reservations.Create", err)
        }
    }
    if err := h.Audit.LogTx(ctx, tx, repository.AuditEntry{
        UserID:   user.ID,
        Action:   model.AuditReservationCreated,
        Entity:   "reservation",
        EntityID: res.ID,
        Details: map[string]any{
            "magazine_id":     mag.ID,
            "quantity":        res.Quantity,
            "delivery_method": res.DeliveryMethod,
        },
        IPHash: ipHash,
    }); err != nil {
        h.Metrics.ReservationRejected(metrics.ReasonInternal)
        return internalError(c, "reservations.Create", err)
    }
    if err := h.Audit.LogProcessingTx(ctx, tx, user.ID, PurposeReservation, LegalBasisContract, reservationCategories); err != nil {
        h.Metrics.ReservationRejected(metrics.ReasonInternal)
        return internalError(c, "reservations.Create", err)
    }
    if err := tx.Commit(); err != nil {
        h.Metrics.ReservationRejected(metrics.ReasonInternal)
        return internalError(c, "reservations.Create", err)
    }
    committed = true
    h.Metrics.ReservationCreated()
    invalidate(ctx, h.Cache)
    log.Info().Str("reservation_id", res.ID).Int("quantity", res.Quantity).Msg("reservation created")

    // The mail step gets its own deadline; the request context above was
    // sized for database work.
    mailCtx, mailCancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 20*time.Second)
    defer mailCancel()
    emailSent := h.Notifier.ReservationCreated(mailCtx, queue.ReservationCreatedEvent{
        ReservationID:  res.ID,
        UserID:         user.ID,
        Email:          user.Email,
        FirstName:      user.FirstName,
        LastName:       user.LastName,
        MagazineID:     mag.ID,
        MagazineTitle:  mag.Title,
        IssueNumber:    mag.IssueNumber,
        PriceCents:     mag.PriceCents,
        Quantity:       res.Quantity,
        DeliveryMethod: res.DeliveryMethod,
        PickupLocation: res.PickupLocation,
        Street:         res.ShippingStreet,
        HouseNumber:    res.ShippingHouseNumber,
        PostalCode:     res.ShippingPostalCode,
        City:           res.ShippingCity,
        Country:        res.ShippingCountry,
        OrderPhotos:    res.OrderPhotos,
        PhotoPackage:   res.PhotoPackage,
        ChildName:      res.ChildName,
        ChildGroup:     res.ChildGroup,
        Notes:          res.Notes,
        CreatedAt:      res.CreatedAt.Format(time.RFC3339),
    })

    return c.JSON(http.StatusCreated, echo.Map{
        "message":     "Reservierung erfolgreich erstellt",
        "reservation": toReservationDTO(res),
        "email_sent":  emailSent,
    })
}
