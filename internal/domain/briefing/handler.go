package briefing

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/aegismedix/cortex/internal/domain/patient"
)

type Handler struct {
	builder *Builder
}

func NewHandler(b *Builder) *Handler {
	return &Handler{builder: b}
}

func (h *Handler) RegisterRoutes(patients *echo.Group) {
	patients.GET("/briefing", h.Get)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	text, err := h.builder.Build(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"context": text})
}
