package httpapi

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

//go:embed web/index.html
var indexHTML []byte

// Health performs a single un-retried probe of the chat backend host.
func (h *Handler) Health(c echo.Context) error {
	ts := time.Now().UTC().Format(time.RFC3339)
	if err := h.pinger.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": ts,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "healthy",
		"telegram":  "reachable",
		"timestamp": ts,
	})
}

// Index serves the embedded submission page.
func (h *Handler) Index(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, indexHTML)
}
