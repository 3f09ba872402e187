// Package server is the HTTP side of the game: the speech proxy and the
// static assets.
package server

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"pinyinmatch/internal/tts"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Config holds server settings
type Config struct {
	Addr       string
	StaticRoot string
}

// Server serves POST /api/speak and static files
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	synth      tts.Synthesizer
	staticRoot string
	logger     *zap.Logger
}

// New creates a server. synth answers speech requests.
func New(cfg Config, synth tts.Synthesizer, logger *zap.Logger) (*Server, error) {
	root, err := filepath.Abs(cfg.StaticRoot)
	if err != nil {
		return nil, err
	}

	s := &Server{
		synth:      synth,
		staticRoot: root,
		logger:     logger,
	}

	r := gin.New()
	r.HandleMethodNotAllowed = false
	r.RedirectTrailingSlash = false
	r.Use(RequestID(), RequestLogger(logger), gin.Recovery())

	r.POST("/api/speak", s.handleSpeak)
	r.NoRoute(s.handleStatic)

	s.engine = r
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until Shutdown is called
func (s *Server) ListenAndServe() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for running ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
