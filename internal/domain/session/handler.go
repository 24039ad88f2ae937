package session

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Handler serves read access to sessions. Creating a session runs the
// reconciliation pipeline and is served elsewhere.
type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(patients *echo.Group) {
	patients.GET("/sessions/latest", h.Latest)
}

func (h *Handler) Latest(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	s, err := h.repo.Latest(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if s == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no sessions yet")
	}
	return c.JSON(http.StatusOK, s)
}
