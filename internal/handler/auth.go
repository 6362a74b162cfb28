package handler

import (
    "crypto/subtle"    // constant-time username comparison
    "net/http"         // HTTP status codes and primitives
    "strings"          // string manipulation utilities
    "time"             // token expiry in responses

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/kita-magazine-reservation/internal/config"     // app configuration
    "github.com/iliyamo/kita-magazine-reservation/internal/middleware" // role names
    "github.com/iliyamo/kita-magazine-reservation/internal/utils"      // password check and token issuing
)

// AuthHandler issues admin access tokens.  There is a single admin account
// whose name and bcrypt hash come from the configuration.
type AuthHandler struct {
    Cfg config.Config
}

func NewAuthHandler(cfg config.Config) *AuthHandler {
    return &AuthHandler{Cfg: cfg}
}

// ----- DTOs -----

type loginReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}

// Login handles POST /api/admin/login and returns a short-lived JWT.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": MsgInvalidRequest})
    }
    req.Username = strings.TrimSpace(req.Username)
    if req.Username == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Benutzername und Passwort sind erforderlich"})
    }
    if h.Cfg.AdminPasswordHash == "" {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "Der Admin-Zugang ist nicht eingerichtet"})
    }
    nameOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.Cfg.AdminUsername)) == 1
    // always run bcrypt so a wrong name costs the same as a wrong password
    passOK := utils.VerifyPassword(h.Cfg.AdminPasswordHash, req.Password)
    if !nameOK || !passOK {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Ungültige Anmeldedaten"})
    }

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, req.Username, middleware.RoleAdmin, h.Cfg.AccessTTLMin)
    if err != nil {
        return internalError(c, "auth.Login", err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "access": tokenPart{Token: access.Token, Expires: access.Exp},
        "role":   middleware.RoleAdmin,
    })
}
