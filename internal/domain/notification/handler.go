package notification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/aegismedix/cortex/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the inbox. Routes keyed by notification id act on the
// caller's own inbox.
func (h *Handler) RegisterRoutes(api, patients *echo.Group) {
	patients.GET("/notifications", h.List)
	patients.GET("/notifications/unread-count", h.UnreadCount)
	patients.PUT("/notifications/read-all", h.MarkAllRead)

	api.PUT("/notifications/:notificationId/read", h.MarkRead)
	api.DELETE("/notifications/:notificationId", h.Delete)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "notification not found")
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func parseID(c echo.Context, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+param)
	}
	return id, nil
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return id, nil
}

func (h *Handler) List(c echo.Context) error {
	patientID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	items, err := h.svc.List(c.Request().Context(), patientID, limit)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UnreadCount(c echo.Context) error {
	patientID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	n, err := h.svc.UnreadCount(c.Request().Context(), patientID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"count": n})
}

func (h *Handler) MarkAllRead(c echo.Context) error {
	patientID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	n, err := h.svc.MarkAllRead(c.Request().Context(), patientID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"updated": n})
}

func (h *Handler) MarkRead(c echo.Context) error {
	owner, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "notificationId")
	if err != nil {
		return err
	}
	if err := h.svc.MarkRead(c.Request().Context(), id, owner); err != nil {
		return mapErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Delete(c echo.Context) error {
	owner, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "notificationId")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id, owner); err != nil {
		return mapErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}
