package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/kita-magazine-reservation/internal/database"
    "github.com/iliyamo/kita-magazine-reservation/internal/mail"
    "github.com/iliyamo/kita-magazine-reservation/internal/metrics"
    "github.com/iliyamo/kita-magazine-reservation/internal/model"
    "github.com/iliyamo/kita-magazine-reservation/internal/repository"
    "github.com/iliyamo/kita-magazine-reservation/internal/service"
    "github.com/iliyamo/kita-magazine-reservation/internal/utils"
    "github.com/iliyamo/kita-magazine-reservation/internal/validation"
)

// GDPR operations for gdpr_requests_total.
const (
    opConsentRecord   = "consent_record"
    opConsentWithdraw = "consent_withdraw"
    opConsentGet      = "consent_get"
    opExport          = "export"
    opDeletionCheck   = "deletion_check"
    opDelete          = "delete"
)

const (
    msgEssentialWithdraw = "Die notwendige Einwilligung kann nicht widerrufen werden. Bitte beantragen Sie stattdessen die Löschung Ihrer Daten."
    msgActiveReservation = "Es bestehen noch offene Reservierungen. Die Daten können erst nach deren Abschluss gelöscht werden."
)

// GDPRHandler implements consent management, data export and erasure.
type GDPRHandler struct {
    DB             *database.DB
    Users          *repository.UserRepo
    Reservations   *repository.ReservationRepo
    Consents       *repository.ConsentRepo
    Audit          *repository.AuditRepo
    Notifier       *service.Notifier
    Metrics        *metrics.Metrics
    ConsentVersion string
}

// lookupUser resolves the user by email and writes the 404/500 response
// itself when that fails; ok=false means the caller must return resp.
func (h *GDPRHandler) lookupUser(ctx context.Context, c echo.Context, email, op string) (u model.User, ok bool, resp error) {
    u, err := h.Users.GetByEmail(ctx, email)
    if errors.Is(err, repository.ErrNotFound) {
        return model.User{}, false, c.JSON(http.StatusNotFound, echo.Map{"error": MsgUserNotFound})
    }
    if err != nil {
        return model.User{}, false, internalError(c, op, err)
    }
    return u, true, nil
}

// RecordConsent handles POST /api/gdpr/consent.  Granted defaults to true.
func (h *GDPRHandler) RecordConsent(c echo.Context) error {
    h.Metrics.GDPRRequest(opConsentRecord)
    var req validation.ConsentRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": MsgInvalidRequest})
    }
    if errs := validation.ValidateConsent(&req); len(errs) > 0 {
        return invalidInput(c, errs)
    }
    granted := true
    if req.Granted != nil {
        granted = *req.Granted
    }
    if req.ConsentType == model.ConsentEssential && !granted {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msgEssentialWithdraw})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    user, ok, resp := h.lookupUser(ctx, c, req.Email, "gdpr.RecordConsent")
    if !ok {
        return resp
    }
    ipHash, ua := clientMeta(c)
    consent := model.Consent{UserID: user.ID, ConsentType: req.ConsentType, Granted: granted,
        Version: h.ConsentVersion, IPHash: ipHash, UserAgent: ua}
    if err := h.Consents.Record(ctx, &consent); err != nil {
        return internalError(c, "gdpr.RecordConsent", err)
    }
    action := model.AuditConsentGranted
    if !granted {
        action = model.AuditConsentWithdrawn
    }
    h.audit(ctx, repository.AuditEntry{UserID: user.ID, Action: action, Entity: "consent", EntityID: consent.ID,
        Details: map[string]any{"consent_type": consent.ConsentType, "version": consent.Version}, IPHash: ipHash})
    if granted && consent.ConsentType != model.ConsentEssential {
        if err := h.Audit.LogProcessing(ctx, user.ID, consent.ConsentType, LegalBasisConsent, "Kontaktdaten"); err != nil {
            zerolog.Ctx(ctx).Error().Err(err).Msg("processing log failed")
        }
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "message": "Einwilligung gespeichert",
        "consent": toConsentDTO(consent),
    })
}

// WithdrawConsent handles DELETE /api/gdpr/consent.  Email and
// consent_type may come in the body or the query string.
func (h *GDPRHandler) WithdrawConsent(c echo.Context) error {
    h.Metrics.GDPRRequest(opConsentWithdraw)
    var req validation.ConsentRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": MsgInvalidRequest})
    }
    if errs := validation.ValidateConsent(&req); len(errs) > 0 {
        return invalidInput(c, errs)
    }
    if req.ConsentType == model.ConsentEssential {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msgEssentialWithdraw})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    user, ok, resp := h.lookupUser(ctx, c, req.Email, "gdpr.WithdrawConsent")
    if !ok {
        return resp
    }
    ipHash, ua := clientMeta(c)
    consent, err := h.Consents.Withdraw(ctx, user.ID, req.ConsentType, h.ConsentVersion, ipHash, ua)
    if err != nil {
        return internalError(c, "gdpr.WithdrawConsent", err)
    }
    h.audit(ctx, repository.AuditEntry{UserID: user.ID, Action: model.AuditConsentWithdrawn, Entity: "consent",
        EntityID: consent.ID, Details: map[string]any{"consent_type": consent.ConsentType}, IPHash: ipHash})

    return c.JSON(http.StatusOK, echo.Map{
        "message": "Einwilligung widerrufen",
        "consent": toConsentDTO(consent),
    })
}

// GetConsent handles GET /api/gdpr/consent?email=.  Every purpose is
// reported; purposes never decided on are reported as not granted.
func (h *GDPRHandler) GetConsent(c echo.Context) error {
    h.Metrics.GDPRRequest(opConsentGet)
    var req validation.EmailRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": MsgInvalidRequest})
    }
    if errs := validation.ValidateEmail(&req); len(errs) > 0 {
        return invalidInput(c, errs)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    user, ok, resp := h.lookupUser(ctx, c, req.Email, "gdpr.GetConsent")
    if !ok {
        return resp
    }
    cur, err := h.Consents.Current(ctx, user.ID)
    if err != nil {
        return internalError(c, "gdpr.GetConsent", err)
    }
    type state struct {
        Granted    bool       `json:"granted"`
        Version    string     `json:"version,omitempty"`
        RecordedAt *time.Time `json:"recorded_at,omitempty"`
    }
    out := make(map[string]state, len(model.ConsentTypes))
    for _, ct := range model.ConsentTypes {
        s := state{}
        if rec, ok := cur[ct]; ok {
            at := rec.RecordedAt
            s = state{Granted: rec.Granted, Version: rec.Version, RecordedAt: &at}
        }
        out[ct] = s
    }
    return c.JSON(http.StatusOK, echo.Map{"email": user.Email, "consents": out})
}

// exportDocument is the Art. 15/20 GDPR data export.
type exportDocument struct {
    ExportedAt         time.Time        `json:"exported_at"`
    User               userDTO          `json:"user"`
    Reservations       []reservationDTO `json:"reservations"`
    Consents           []consentDTO     `json:"consents"`
    AuditLogs          []auditDTO       `json:"audit_logs"`
    DataProcessingLogs []processingDTO  `json:"data_processing_logs"`
}

type auditDTO struct {
    Action    string    `json:"action"`
    Entity    string    `json:"entity"`
    EntityID  string    `json:"entity_id,omitempty"`
    Details   string    `json:"details,omitempty"`
    CreatedAt time.Time `json:"created_at"`
}

type processingDTO struct {
    Purpose        string    `json:"purpose"`
    LegalBasis     string    `json:"legal_basis"`
    DataCategories string    `json:"data_categories"`
    CreatedAt      time.Time `json:"created_at"`
}

// ExportData handles POST /api/gdpr/export-data.  The response is offered
// as a file download; the export is itself audit-logged.
func (h *GDPRHandler) ExportData(c echo.Context) error {
    h.Metrics.GDPRRequest(opExport)
    var req validation.EmailRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": MsgInvalidRequest})
    }
    if errs := validation.ValidateEmail(&req); len(errs) > 0 {
        return invalidInput(c, errs)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    user, ok, resp := h.lookupUser(ctx, c, req.Email, "gdpr.ExportData")
    if !ok {
        return resp
    }

    reservations, err := h.Reservations.ListByUser(ctx, user.ID)
    if err != nil {
        return internalError(c, "gdpr.ExportData", err)
    }
    consents, err := h.Consents.ListByUser(ctx, user.ID)
    if err != nil {
        return internalError(c, "gdpr.ExportData", err)
    }
    audits, err := h.Audit.ListByUser(ctx, user.ID)
    if err != nil {
        return internalError(c, "gdpr.ExportData", err)
    }
    processing, err := h.Audit.ListProcessingByUser(ctx, user.ID)
    if err != nil {
        return internalError(c, "gdpr.ExportData", err)
    }

    doc := exportDocument{
        ExportedAt:         time.Now().UTC(),
        User:               toUserDTO(user),
        Reservations:       make([]reservationDTO, 0, len(reservations)),
        Consents:           make([]consentDTO, 0, len(consents)),
        AuditLogs:          make([]auditDTO, 0, len(audits)),
        DataProcessingLogs: make([]processingDTO, 0, len(processing)),
    }
    for _, r := range reservations {
        doc.Reservations = append(doc.Reservations, toReservationDTO(r))
    }
    for _, cs := range consents {
        doc.Consents = append(doc.Consents, toConsentDTO(cs))
    }
    for _, a := range audits {
        doc.AuditLogs = append(doc.AuditLogs, auditDTO{Action: a.Action, Entity: a.Entity, EntityID: a.EntityID,
            Details: a.Details, CreatedAt: a.CreatedAt})
    }
    for _, p := range processing {
        doc.DataProcessingLogs = append(doc.DataProcessingLogs, processingDTO{Purpose: p.Purpose,
            LegalBasis: p.LegalBasis, DataCategories: p.DataCategories, CreatedAt: p.CreatedAt})
    }

    ipHash, _ := clientMeta(c)
    h.audit(ctx, repository.AuditEntry{UserID: user.ID, Action: model.AuditDataExported, Entity: "user",
        EntityID: user.ID, IPHash: ipHash})

    c.Response().Header().Set(echo.HeaderContentDisposition,
        fmt.Sprintf(`attachment; filename="datenexport-%s.json"`, doc.ExportedAt.Format("2006-01-02")))
    return c.JSON(http.StatusOK, doc)
}

// CheckDeletion handles POST /api/gdpr/delete-data.  It reports whether
// DeleteData would succeed without changing anything.
func (h *GDPRHandler) CheckDeletion(c echo.Context) error {
    h.Metrics.GDPRRequest(opDeletionCheck)
    var req validation.EmailRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": MsgInvalidRequest})
    }
    if errs := validation.ValidateEmail(&req); len(errs) > 0 {
        return invalidInput(c, errs)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    user, ok, resp := h.lookupUser(ctx, c, req.Email, "gdpr.CheckDeletion")
    if !ok {
        return resp
    }
    active, err := h.Reservations.CountActiveByUser(ctx, user.ID)
    if err != nil {
        return internalError(c, "gdpr.CheckDeletion", err)
    }
    reasons := make([]string, 0, 1)
    if active > 0 {
        reasons = append(reasons, msgActiveReservation)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "can_delete":          active == 0,
        "reasons":             reasons,
        "active_reservations": active,
    })
}

// DeleteData handles DELETE /api/gdpr/delete-data.  Consents, reservations
// and the user row are deleted in one transaction; audit and processing
// rows lose their user reference, and a final audit entry keyed by the
// email hash records the erasure.
func (h *GDPRHandler) DeleteData(c echo.Context) error {
    h.Metrics.GDPRRequest(opDelete)
    var req validation.DeleteRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": MsgInvalidRequest})
    }
    if errs := validation.ValidateDelete(&req); len(errs) > 0 {
        return invalidInput(c, errs)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    user, ok, resp := h.lookupUser(ctx, c, req.Email, "gdpr.DeleteData")
    if !ok {
        return resp
    }

    tx, err := h.DB.BeginTx(ctx, nil)
    if err != nil {
        return internalError(c, "gdpr.DeleteData", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    active, err := h.Reservations.CountActiveByUserTx(ctx, tx, user.ID)
    if err != nil {
        return internalError(c, "gdpr.DeleteData", err)
    }
    if active > 0 {
        return c.JSON(http.StatusConflict, echo.Map{"error": msgActiveReservation, "active_reservations": active})
    }
    consents, err := h.Consents.DeleteByUserTx(ctx, tx, user.ID)
    if err != nil {
        return internalError(c, "gdpr.DeleteData", err)
    }
    reservations, err := h.Reservations.DeleteByUserTx(ctx, tx, user.ID)
    if err != nil {
        return internalError(c, "gdpr.DeleteData", err)
    }
    if err := h.Users.DeleteTx(ctx, tx, user.ID); err != nil {
        return internalError(c, "gdpr.DeleteData", err)
    }
    if err := h.Audit.AnonymizeUserTx(ctx, tx, user.ID); err != nil {
        return internalError(c, "gdpr.DeleteData", err)
    }
    ipHash, _ := clientMeta(c)
    if err := h.Audit.LogTx(ctx, tx, repository.AuditEntry{
        Action:   model.AuditDataDeleted,
        Entity:   "user",
        EntityID: utils.HashEmail(user.Email),
        Details:  map[string]any{"reservations": reservations, "consents": consents},
        IPHash:   ipHash,
    }); err != nil {
        return internalError(c, "gdpr.DeleteData", err)
    }
    if err := h.Audit.LogProcessingTx(ctx, tx, "", "data_erasure", LegalBasisObligation, "Löschnachweis"); err != nil {
        return internalError(c, "gdpr.DeleteData", err)
    }
    if err := tx.Commit(); err != nil {
        return internalError(c, "gdpr.DeleteData", err)
    }
    committed = true
    zerolog.Ctx(ctx).Info().Str("op", "gdpr.DeleteData").Int64("reservations", reservations).Msg("user data deleted")

    mailCtx, mailCancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 20*time.Second)
    defer mailCancel()
    emailSent := h.Notifier.DataDeleted(mailCtx, mail.DeletionData{
        Email: user.Email, FirstName: user.FirstName, Reservations: reservations, Consents: consents,
    })

    return c.JSON(http.StatusOK, echo.Map{
        "message":    "Ihre Daten wurden gelöscht",
        "deleted":    echo.Map{"reservations": reservations, "consents": consents, "user": true},
        "email_sent": emailSent,
    })
}

// audit writes a non-transactional audit entry; failures are only logged.
func (h *GDPRHandler) audit(ctx context.Context, e repository.AuditEntry) {
    if err := h.Audit.Log(ctx, e); err != nil {
        zerolog.Ctx(ctx).Error().Err(err).Str("action", e.Action).Msg("audit log failed")
    }
}
