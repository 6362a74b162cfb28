// Package handler exposes the HTTP handlers of the reservation API.  Every
// failure is answered with a fixed German message in echo.Map{"error": ...};
// the underlying error only goes to the log.
package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/kita-magazine-reservation/internal/model"
    "github.com/iliyamo/kita-magazine-reservation/internal/utils"
    "github.com/iliyamo/kita-magazine-reservation/internal/validation"
)

// User-facing messages.
const (
    MsgInvalidRequest   = "Ungültige Anfrage"
    MsgInvalidInput     = "Ungültige Eingabedaten"
    MsgInternal         = "Ein interner Fehler ist aufgetreten. Bitte versuchen Sie es später erneut."
    MsgMagazineNotFound = "Die gewählte Ausgabe wurde nicht gefunden"
    MsgSoldOut          = "Leider sind nicht mehr genügend Exemplare verfügbar"
    MsgUserNotFound     = "Zu dieser E-Mail-Adresse liegen keine Daten vor"
    MsgNotFound         = "Nicht gefunden"
    MsgRetry            = "Die Anfrage überschneidet sich mit einer anderen. Bitte senden Sie sie erneut."
)

// dbTimeout bounds every handler's database work.
const dbTimeout = 5 * time.Second

// CacheInvalidator drops cached magazine listings.
type CacheInvalidator interface {
    Invalidate(ctx context.Context) error
}

// invalidate is best effort; a stale listing expires with its TTL.
func invalidate(ctx context.Context, c CacheInvalidator) {
    if c == nil {
        return
    }
    if err := c.Invalidate(ctx); err != nil {
        zerolog.Ctx(ctx).Warn().Err(err).Msg("cache invalidation failed")
    }
}

// internalError logs err with op and answers 500.
func internalError(c echo.Context, op string, err error) error {
    zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("op", op).Msg("request failed")
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": MsgInternal})
}

func invalidInput(c echo.Context, errs []validation.FieldError) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": MsgInvalidInput, "details": errs})
}

// clientMeta returns the hashed client IP and the user agent.
func clientMeta(c echo.Context) (ipHash, userAgent string) {
    return utils.HashIP(c.RealIP()), utils.Truncate(c.Request().UserAgent(), 255)
}

// ----- DTOs -----

type magazineDTO struct {
    ID              string    `json:"id"`
    Title           string    `json:"title"`
    IssueNumber     string    `json:"issue_number"`
    Description     string    `json:"description,omitempty"`
    CoverImageURL   string    `json:"cover_image_url,omitempty"`
    PriceCents      int       `json:"price_cents"`
    TotalCopies     int       `json:"total_copies"`
    AvailableCopies int       `json:"available_copies"`
    Available       bool      `json:"available"`
    PublicationDate time.Time `json:"publication_date"`
    IsActive        bool      `json:"is_active"`
}

func toMagazineDTO(m model.Magazine) magazineDTO {
    return magazineDTO{
        ID:              m.ID,
        Title:           m.Title,
        IssueNumber:     m.IssueNumber,
        Description:     m.Description,
        CoverImageURL:   m.CoverImageURL,
        PriceCents:      m.PriceCents,
        TotalCopies:     m.TotalCopies,
        AvailableCopies: m.AvailableCopies,
        Available:       m.IsActive && m.AvailableCopies > 0,
        PublicationDate: m.PublicationDate,
        IsActive:        m.IsActive,
    }
}

type addressDTO struct {
    Street      string `json:"street"`
    HouseNumber string `json:"house_number"`
    PostalCode  string `json:"postal_code"`
    City        string `json:"city"`
    Country     string `json:"country"`
}

type reservationDTO struct {
    ID              string      `json:"id"`
    UserID          string      `json:"user_id"`
    MagazineID      string      `json:"magazine_id"`
    Quantity        int         `json:"quantity"`
    Status          string      `json:"status"`
    DeliveryMethod  string      `json:"delivery_method"`
    PickupLocation  string      `json:"pickup_location,omitempty"`
    ShippingAddress *addressDTO `json:"shipping_address,omitempty"`
    OrderPhotos     bool        `json:"order_photos"`
    PhotoPackage    string      `json:"photo_package,omitempty"`
    ChildName       string      `json:"child_name,omitempty"`
    ChildGroup      string      `json:"child_group,omitempty"`
    Notes           string      `json:"notes,omitempty"`
    CreatedAt       time.Time   `json:"created_at"`
    UpdatedAt       time.Time   `json:"updated_at"`
}

func toReservationDTO(r model.Reservation) reservationDTO {
    out := reservationDTO{
        ID:             r.ID,
        UserID:         r.UserID,
        MagazineID:     r.MagazineID,
        Quantity:       r.Quantity,
        Status:         r.Status,
        DeliveryMethod: r.DeliveryMethod,
        PickupLocation: r.PickupLocation,
        OrderPhotos:    r.OrderPhotos,
        PhotoPackage:   r.PhotoPackage,
        ChildName:      r.ChildName,
        ChildGroup:     r.ChildGroup,
        Notes:          r.Notes,
        CreatedAt:      r.CreatedAt,
        UpdatedAt:      r.UpdatedAt,
    }
    if r.DeliveryMethod == model.DeliveryShipping {
        out.ShippingAddress = &addressDTO{
            Street:      r.ShippingStreet,
            HouseNumber: r.ShippingHouseNumber,
            PostalCode:  r.ShippingPostalCode,
            City:        r.ShippingCity,
            Country:     r.ShippingCountry,
        }
    }
    return out
}

type userDTO struct {
    ID        string    `json:"id"`
    Email     string    `json:"email"`
    FirstName string    `json:"first_name"`
    LastName  string    `json:"last_name"`
    Phone     string    `json:"phone,omitempty"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

func toUserDTO(u model.User) userDTO {
    return userDTO{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Phone: u.Phone,
        CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

type consentDTO struct {
    ConsentType string    `json:"consent_type"`
    Granted     bool      `json:"granted"`
    Version     string    `json:"version"`
    RecordedAt  time.Time `json:"recorded_at"`
}

func toConsentDTO(c model.Consent) consentDTO {
    return consentDTO{ConsentType: c.ConsentType, Granted: c.Granted, Version: c.Version, RecordedAt: c.RecordedAt}
}
