package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harun/thakir/internal/tracing"
	"github.com/harun/thakir/pkg/alert"
	"github.com/harun/thakir/pkg/reminder"
	"github.com/harun/thakir/pkg/summarizer"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	views := s.sessions.Sessions()
	pending := 0
	for _, v := range views {
		if !v.Notified {
			pending++
		}
	}

	providers := []string{}
	if s.summarizer != nil {
		providers = s.summarizer.Providers()
	}

	resp := StatusResponse{
		Status:        "running",
		StartedAt:     s.startedAt,
		Uptime:        time.Since(s.startedAt).Round(time.Second).String(),
		Sessions:      len(views),
		Pending:       pending,
		PendingAlerts: len(s.alerts.Pending()),
		Clients:       s.clients.Count(),
		Providers:     providers,
		AlertChannels: s.channels,
	}
	if s.scheduler != nil {
		resp.Tasks = s.scheduler.Tasks()
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, s.sessions.Sessions())
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	params, err := sessionParams(req.Topic, req.Notes, req.DurationValue, req.DurationUnit)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	// Detached so a client disconnect cannot abort the save
	session, err := s.sessions.AddSession(tracing.Detach(c.Request.Context()), params)
	if err != nil {
		s.respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	s.sessions.DeleteSession(tracing.Detach(c.Request.Context()), c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, s.alerts.Pending())
}

func (s *Server) handleAckAlert(c *gin.Context) {
	if err := s.alerts.Ack(c.Param("id")); err != nil {
		if errors.Is(err, alert.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCreateSummary(c *gin.Context) {
	if s.summarizer == nil || !s.summarizer.Available() {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: summarizer.ErrNoProvider.Error()})
		return
	}

	var req summarizer.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	summary, err := s.summarizer.GenerateSummary(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, summarizer.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, summarizer.ErrNoProvider):
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		default:
			tracing.LoggerFromContext(c.Request.Context(), s.logger).Warn().
				Err(err).
				Str("topic", req.Topic).
				Msg("Summary generation failed")
			c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{
		Summary: summary,
		Prefill: summarizer.ToPrefill(summary),
	})
}

func (s *Server) handleScheduleSummary(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	params, err := sessionParams(req.Prefill.Topic, req.Prefill.Notes, req.DurationValue, req.DurationUnit)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	session, err := s.sessions.ScheduleFromSummary(tracing.Detach(c.Request.Context()), req.Prefill, params.DurationValue, params.DurationUnit)
	if err != nil {
		s.respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (s *Server) respondSessionError(c *gin.Context, err error) {
	if errors.Is(err, reminder.ErrInvalidSession) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}

// sessionParams applies the form defaults: a missing value is 30 and a
// missing unit is minutes. An explicit zero is rejected by validation.
func sessionParams(topic, notes string, value *int64, unit string) (reminder.SessionParams, error) {
	params := reminder.SessionParams{
		Topic:         topic,
		Notes:         notes,
		DurationValue: reminder.DefaultDurationValue,
		DurationUnit:  reminder.DefaultDurationUnit,
	}

	if value != nil {
		params.DurationValue = *value
	}

	if unit != "" {
		parsed, err := reminder.ParseDurationUnit(unit)
		if err != nil {
			return params, err
		}
		params.DurationUnit = parsed
	}

	return params, params.Validate()
}
