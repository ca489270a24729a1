package presenter

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

// Empty acknowledges without a body.
func Empty(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func BadRequest(c echo.Context, err error) error {
	slog.WarnContext(c.Request().Context(), "bad request",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
		slog.String("module", "rest"),
	)
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// Forbidden rejects without revealing why.
func Forbidden(c echo.Context) error {
	return c.NoContent(http.StatusForbidden)
}
