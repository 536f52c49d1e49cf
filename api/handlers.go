package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
)

const (
	notReadyMessage = "Agent not initialized. Set OPENAI_API_KEY."
	internalMessage = "Internal server error"
)

type chatRequest struct {
	Messages []contractx.ChatMessage `json:"messages"`
}

type tokenPayload struct {
	Token string `json:"token"`
}

type donePayload struct {
	Intent     string              `json:"intent"`
	Specialist string              `json:"specialist"`
	Products   []contractx.Product `json:"products"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{
		"status":      "ok",
		"agent_ready": s.chat != nil,
	}
	if s.stats != nil {
		stats, err := s.stats.Stats(c.Request.Context())
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("catalog stats unavailable")
			body["status"] = "degraded"
			body["database"] = gin.H{"error": "unavailable"}
		} else {
			body["database"] = stats
		}
	}
	c.JSON(http.StatusOK, body)
}

// bind decodes the chat request and reports whether the handler may go on.
func (s *Server) bind(c *gin.Context) (chatRequest, bool) {
	var req chatRequest
	if s.chat == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": notReadyMessage})
		return req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body: " + err.Error()})
		return req, false
	}
	return req, true
}

func (s *Server) handleChat(c *gin.Context) {
	req, ok := s.bind(c)
	if !ok {
		return
	}

	out, err := s.chat.HandleMessage(c.Request.Context(), req.Messages)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("chat failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": internalMessage})
		return
	}
	if out.Products == nil {
		out.Products = []contractx.Product{}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleChatStream(c *gin.Context) {
	req, ok := s.bind(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	for ev := range s.chat.Stream(ctx, req.Messages) {
		c.SSEvent(string(ev.Type), ssePayload(ev))
		c.Writer.Flush()
		if ctx.Err() != nil {
			zerolog.Ctx(ctx).Debug().Msg("stream client disconnected")
			return
		}
	}
}

func ssePayload(ev contractx.Event) any {
	switch ev.Type {
	case contractx.EventMessage:
		return tokenPayload{Token: ev.Token}
	case contractx.EventDone:
		products := ev.Products
		if products == nil {
			products = []contractx.Product{}
		}
		return donePayload{Intent: ev.Intent, Specialist: ev.Specialist, Products: products}
	default:
		return errorPayload{Error: ev.Error}
	}
}
