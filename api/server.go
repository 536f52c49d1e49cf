// Package api exposes the chat orchestrator over HTTP: a blocking chat
// endpoint, a server-sent events stream, health and Prometheus metrics.
package api

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/partselect-assistant/agent/catalog"
	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
)

type Config struct {
	ListenAddr      string        `split_words:"true" default:":8000"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://127.0.0.1:3000"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

// ChatService is the orchestrator surface the transport needs.
type ChatService interface {
	HandleMessage(ctx context.Context, messages []contractx.ChatMessage) (contractx.Response, error)
	Stream(ctx context.Context, messages []contractx.ChatMessage) iter.Seq[contractx.Event]
}

type StatsSource interface {
	Stats(ctx context.Context) (catalog.Stats, error)
}

type Server struct {
	cfg    Config
	chat   ChatService
	stats  StatsSource
	engine *gin.Engine
}

// NewServer builds the router. A nil chat service keeps the server up but
// answers chat requests with 503.
func NewServer(cfg Config, chat ChatService, stats StatsSource) *Server {
	s := &Server{
		cfg:    cfg,
		chat:   chat,
		stats:  stats,
		engine: gin.New(),
	}

	s.engine.Use(gin.Recovery(), requestID(), accessLog(), corsPolicy(cfg.CORSOrigins))

	s.engine.GET("/api/health", s.health)
	s.engine.POST("/api/chat", s.handleChat)
	s.engine.POST("/api/chat/stream", s.handleChatStream)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.ListenAddr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Info().Msg("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
