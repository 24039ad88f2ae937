package reconcile

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aegismedix/cortex/internal/domain/session"
	"github.com/aegismedix/cortex/internal/platform/websocket"
)

type Handler struct {
	pipeline *Pipeline
	events   websocket.Publisher
	logger   zerolog.Logger
}

// NewHandler serves session creation. events may be nil.
func NewHandler(p *Pipeline, events websocket.Publisher, logger zerolog.Logger) *Handler {
	return &Handler{pipeline: p, events: events, logger: logger}
}

func (h *Handler) RegisterRoutes(patients *echo.Group) {
	patients.POST("/sessions", h.Create)
}

type createRequest struct {
	Transcript  string     `json:"transcript"`
	Turns       []Turn     `json:"turns"`
	StartedAt   *time.Time `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at"`
	SessionType string     `json:"session_type"`
}

func (h *Handler) Create(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	switch req.SessionType {
	case "", session.TypeVoice, session.TypeVideo, session.TypeChat:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "session_type must be VOICE, VIDEO or CHAT")
	}
	in := Input{
		PatientID:   patientID,
		Transcript:  req.Transcript,
		Turns:       req.Turns,
		SessionType: req.SessionType,
	}
	if req.StartedAt != nil {
		in.StartedAt = req.StartedAt.UTC()
	}
	if req.EndedAt != nil {
		in.EndedAt = req.EndedAt.UTC()
	}

	ctx := c.Request().Context()
	result, err := h.pipeline.Run(ctx, in)
	if err != nil {
		if IsPersistence(err) {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to save session")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if h.events != nil {
		ev, err := websocket.NewPatientEvent(websocket.EventSessionSummary, patientID.String(), result)
		if err == nil {
			err = h.events.Publish(ctx, ev)
		}
		if err != nil {
			h.logger.Warn().Err(err).Str("patient_id", patientID.String()).Msg("failed to publish session summary")
		}
	}
	return c.JSON(http.StatusCreated, result)
}
