package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sekoucamara/bus-reservation/internal/config"
	"github.com/sekoucamara/bus-reservation/internal/model"
	"github.com/sekoucamara/bus-reservation/internal/repository"
	"github.com/sekoucamara/bus-reservation/internal/utils"
)

// AuthHandler issues access tokens to agency staff. Passengers never log
// in; every authenticated caller is an ADMIN, AGENT or DRIVER account.
type AuthHandler struct {
	Users *repository.UserRepo
	Cfg   *config.Config
}

func NewAuthHandler(users *repository.UserRepo, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Users: users, Cfg: cfg}
}

// Login handles POST /v1/auth/login. Unknown emails and bad passwords get
// the same 401 so the endpoint does not leak which accounts exist.
func (h *AuthHandler) Login(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil || body.Email == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	user, err := h.Users.GetByEmail(c.Request().Context(), body.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return serviceError(c, err)
	}
	if !utils.VerifyPassword(user.PasswordHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := utils.NewAccessToken(h.Cfg.JWTSecret, user.ID, user.Role, user.AgencyID, h.Cfg.AccessTTLMin)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": token.Token,
		"expires_at":   token.Exp,
		"role":         user.Role,
		"agency_id":    user.AgencyID,
	})
}

// CreateStaff handles POST /v1/admin/users. Admins provision agent and
// driver accounts for their agency here; there is no self-service signup.
func (h *AuthHandler) CreateStaff(c echo.Context) error {
	var body struct {
		AgencyID uint64 `json:"agency_id"`
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.AgencyID == 0 || body.Email == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "agency_id, email and password are required"})
	}
	switch body.Role {
	case model.RoleAdmin, model.RoleAgent, model.RoleDriver:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be ADMIN, AGENT or DRIVER"})
	}

	hash, err := utils.HashPassword(body.Password, h.Cfg.BcryptCost)
	if err != nil {
		return serviceError(c, err)
	}
	user := &model.User{
		AgencyID:     body.AgencyID,
		FullName:     body.FullName,
		Email:        body.Email,
		PasswordHash: hash,
		Role:         body.Role,
	}
	if err := h.Users.Create(c.Request().Context(), user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":        user.ID,
		"agency_id": user.AgencyID,
		"email":     user.Email,
		"role":      user.Role,
	})
}
