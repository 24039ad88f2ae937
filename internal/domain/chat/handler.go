package chat

import (
	"errors"
	"net/http"

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

// RegisterRoutes mounts chat on an authenticated group. The caller is always
// the patient.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/chat")
	g.GET("/session", h.Current)
	g.POST("/session/new", h.NewSession)
	g.POST("/message", h.Send)
	g.GET("/history/:sessionId", h.History)
}

func caller(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return id, nil
}

func (h *Handler) Current(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	conv, err := h.svc.Current(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, conv)
}

func (h *Handler) NewSession(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	conv, err := h.svc.NewSession(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, conv)
}

type sendRequest struct {
	Content string `json:"content"`
}

func (h *Handler) Send(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ex, err := h.svc.Send(c.Request().Context(), uid, req.Content)
	if err != nil {
		if errors.Is(err, ErrEmptyMessage) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ex)
}

func (h *Handler) History(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	sid, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	msgs, err := h.svc.History(c.Request().Context(), uid, sid)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return echo.NewHTTPError(http.StatusForbidden, "access denied")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"messages": msgs})
}
