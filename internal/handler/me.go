package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/abogadosonline/aoe-api/internal/audit"
	"github.com/abogadosonline/aoe-api/internal/middleware"
	"github.com/abogadosonline/aoe-api/internal/model"
	"github.com/abogadosonline/aoe-api/internal/repository"
	"github.com/abogadosonline/aoe-api/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func profileNotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": "Perfil no encontrado"})
}

// GetMe returns the signed-in profile with its plan
func (h *Handler) GetMe(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	p, err := h.Repos.Profiles.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return profileNotFound(c)
	}
	if err != nil {
		return internalError(c, log, "Failed to load profile", err)
	}
	sub, err := h.Repos.Profiles.GetSubscription(ctx, userID)
	if err != nil {
		return internalError(c, log, "Failed to load subscription", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"profile": p, "subscription": sub})
}

type updateProfileRequest struct {
	FullName string `json:"fullName" validate:"required,min=3,max=120"`
	Phone    string `json:"phone" validate:"max=30"`
}

func (h *Handler) UpdateMe(c echo.Context) error {
	log := logger.FromContext(c)

	var req updateProfileRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}
	p, err := h.Repos.Profiles.UpdateProfile(c.Request().Context(), middleware.UserID(c),
		strings.TrimSpace(req.FullName), strings.TrimSpace(req.Phone))
	if errors.Is(err, repository.ErrProfileNotFound) {
		return profileNotFound(c)
	}
	if err != nil {
		return internalError(c, log, "Failed to update profile", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"profile": p})
}

// DeleteMe removes the account together with its subscription and contracts
func (h *Handler) DeleteMe(c echo.Context) error {
	log := logger.FromContext(c)
	withAudit(c)
	userID := middleware.UserID(c)

	err := h.Repos.Profiles.Delete(c.Request().Context(), userID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return profileNotFound(c)
	}
	if err != nil {
		return internalError(c, log, "Failed to delete profile", err)
	}

	h.Audit.Record(c.Request().Context(), audit.Entry{
		UserID:       &userID,
		Action:       model.ActionProfileDeleted,
		ResourceType: "profile",
		ResourceID:   userID,
	})
	log.Info("Profile deleted", zap.String("user_id", userID))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *Handler) ListMyContracts(c echo.Context) error {
	log := logger.FromContext(c)

	contracts, err := h.Repos.Contracts.ListByUser(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return internalError(c, log, "Failed to list contracts", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"contracts": contracts})
}
