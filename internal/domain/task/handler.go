package task

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

// RegisterRoutes mounts patient-scoped routes on patients and task-id routes
// on api. The latter check ownership after loading the task.
func (h *Handler) RegisterRoutes(api, patients *echo.Group) {
	patients.GET("/tasks", h.List)
	patients.POST("/tasks", h.Create)
	api.PUT("/tasks/:taskId/status", h.UpdateStatus)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
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

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedBy  string `json:"assigned_by"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) List(c echo.Context) error {
	patientID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	tasks, err := h.svc.List(c.Request().Context(), patientID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *Handler) Create(c echo.Context) error {
	patientID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t := &Task{
		PatientID:   patientID,
		Title:       req.Title,
		Description: req.Description,
		AssignedBy:  req.AssignedBy,
	}
	if err := h.svc.Create(c.Request().Context(), t); err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, t)
}

// UpdateStatus accepts the status as a JSON body or a status query parameter.
func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "taskId")
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Status == "" {
		req.Status = c.QueryParam("status")
	}
	ctx := c.Request().Context()
	t, err := h.svc.Get(ctx, id)
	if err != nil {
		return mapErr(err)
	}
	if !auth.CanAccessPatient(ctx, t.PatientID.String()) {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	if err := h.svc.UpdateStatus(ctx, t, req.Status); err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, t)
}
