package medication

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

// RegisterRoutes mounts patient-scoped routes on patients (/patients/:id) and
// log routes on api.
func (h *Handler) RegisterRoutes(api, patients *echo.Group) {
	patients.GET("/medications", h.List)
	patients.POST("/medications", h.Create)
	patients.GET("/medications/today", h.Today)
	patients.POST("/medications/log", h.LogTaken)
	patients.POST("/medications/log-custom", h.LogCustom)
	patients.DELETE("/medications/:medId", h.Delete)

	api.DELETE("/medications/log/:logId", h.Untake)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "medication not found")
	case errors.Is(err, ErrLogNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "medication log not found")
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

func (h *Handler) List(c echo.Context) error {
	patientID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	meds, err := h.svc.List(c.Request().Context(), patientID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, meds)
}

func (h *Handler) Create(c echo.Context) error {
	patientID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var m Medication
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.PatientID = patientID
	if err := h.svc.Create(c.Request().Context(), &m); err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, &m)
}

func (h *Handler) Today(c echo.Context) error {
	patientID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	schedule, err := h.svc.Today(c.Request().Context(), patientID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, schedule)
}

type logRequest struct {
	MedicationID string `json:"medication_id"`
}

func (h *Handler) LogTaken(c echo.Context) error {
	patientID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req logRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	medID, err := uuid.Parse(req.MedicationID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid medication_id")
	}
	l, err := h.svc.LogTaken(c.Request().Context(), patientID, medID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, l)
}

type customLogRequest struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
}

type customLogResponse struct {
	Medication *Medication `json:"medication"`
	Log        *Log        `json:"log"`
}

func (h *Handler) LogCustom(c echo.Context) error {
	patientID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req customLogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, l, err := h.svc.AddAndLog(c.Request().Context(), patientID, req.Name, req.Dosage)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, customLogResponse{Medication: m, Log: l})
}

func (h *Handler) Delete(c echo.Context) error {
	patientID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	medID, err := parseID(c, "medId")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), medID, patientID); err != nil {
		return mapErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Untake(c echo.Context) error {
	logID, err := parseID(c, "logId")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	l, err := h.svc.GetLog(ctx, logID)
	if err != nil {
		return mapErr(err)
	}
	if !auth.CanAccessPatient(ctx, l.PatientID.String()) {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	if err := h.svc.Untake(ctx, logID); err != nil {
		return mapErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}
