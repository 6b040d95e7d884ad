package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/abogadosonline/aoe-api/internal/repository"
	"github.com/abogadosonline/aoe-api/pkg/logger"
	"github.com/labstack/echo/v4"
)

// ListPosts returns a page of published posts, newest first
func (h *Handler) ListPosts(c echo.Context) error {
	log := logger.FromContext(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	res, err := h.Repos.Blog.ListPublished(c.Request().Context(), repository.BlogQuery{
		Category: c.QueryParam("category"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return internalError(c, log, "Failed to list posts", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) GetPost(c echo.Context) error {
	log := logger.FromContext(c)

	post, err := h.Repos.Blog.GetPublishedBySlug(c.Request().Context(), c.Param("slug"))
	if errors.Is(err, repository.ErrPostNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Artículo no encontrado"})
	}
	if err != nil {
		return internalError(c, log, "Failed to load post", err)
	}
	return c.JSON(http.StatusOK, post)
}
