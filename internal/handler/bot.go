package handler

import (
	"net/http"

	"github.com/abogadosonline/aoe-api/internal/bot"
	"github.com/labstack/echo/v4"
)

// BotQuery answers one structured query from the assistant. Auth and the
// rate limit run as group middleware.
func (h *Handler) BotQuery(c echo.Context) error {
	var q bot.Query
	if err := c.Bind(&q); err != nil || !q.Type.IsValid() {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":      "Invalid request",
			"validTypes": bot.ValidTypes,
		})
	}

	res := h.Bot.Handle(c.Request().Context(), q)
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadRequest
	}
	return c.JSON(status, res)
}
