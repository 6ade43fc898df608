package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bluecomlabs/netrod/internal/feedback"
	"github.com/bluecomlabs/netrod/internal/troubleshoot"
)

type queryRequest struct {
	Query string `json:"query"`
}

type feedbackRequest struct {
	ResponseRef string   `json:"response_ref"`
	QueryText   string   `json:"query_text"`
	Mode        string   `json:"mode"`
	TopScore    *float64 `json:"top_score"`
	Verdict     string   `json:"verdict"`
	Comment     string   `json:"comment"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := s.pipeline.HandleQuery(c.Request().Context(), strings.TrimSpace(req.Query))
	if errors.Is(err, troubleshoot.ErrEmptyQuery) {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "query failed")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleFeedback(c echo.Context) error {
	var req feedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ack, err := s.pipeline.HandleFeedback(c.Request().Context(), feedback.Entry{
		ResponseRef: req.ResponseRef,
		QueryText:   req.QueryText,
		Mode:        req.Mode,
		TopScore:    req.TopScore,
		Verdict:     feedback.Verdict(req.Verdict),
		Comment:     req.Comment,
	})
	if errors.Is(err, feedback.ErrInvalidVerdict) || errors.Is(err, feedback.ErrMissingResponseRef) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "feedback not recorded")
	}
	return c.JSON(http.StatusAccepted, ack)
}
