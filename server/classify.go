package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/intentgate/router"
)

// maxMessageBytes bounds the accepted message size. Oversized inputs
// are rejected rather than truncated so the caller can react.
const maxMessageBytes = 8 * 1024

type classifyRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

type classifyResponse struct {
	*router.Decision
}

func (s *Server) classify(c echo.Context) error {
	var req classifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	req.ConversationID = strings.TrimSpace(req.ConversationID)
	if req.ConversationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation_id is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	if len(req.Message) > maxMessageBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "message exceeds size limit")
	}

	decision := s.orchestrator.HandleTurn(c.Request().Context(), req.ConversationID, req.Message)
	return c.JSON(http.StatusOK, classifyResponse{Decision: decision})
}
