package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kita-magazine-reservation/internal/repository"
)

// MagazineHandler serves the public magazine listing.
type MagazineHandler struct {
    Magazines *repository.MagazineRepo
}

// List handles GET /api/magazines.  It returns the active issues, newest
// first, each with an "available" flag for the form.
func (h *MagazineHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    mags, err := h.Magazines.ListActive(ctx)
    if err != nil {
        return internalError(c, "magazines.List", err)
    }
    out := make([]magazineDTO, 0, len(mags))
    for _, m := range mags {
        out = append(out, toMagazineDTO(m))
    }
    return c.JSON(http.StatusOK, echo.Map{"magazines": out})
}
