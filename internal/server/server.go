// Package server is the HTTP control surface of a long-lived process:
// start, stop and state of the run controller, plus a websocket status
// stream.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"go-autoapply/internal/models"
	"go-autoapply/internal/reporter"
	"go-autoapply/internal/runner"
	"go-autoapply/internal/store"
)

// Message actions accepted on /api/actions.
const (
	ActionStart = "START_AUTO_APPLY"
	ActionStop  = "STOP_AUTO_APPLY"
	ActionState = "GET_STATE"
)

// Controller is the run controller as the server sees it.
type Controller interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
	Status() runner.Status
}

// State is the GET_STATE payload.
type State struct {
	runner.Status
	Form       *models.FormStatus    `json:"form,omitempty"`
	Page       *models.RunState      `json:"page,omitempty"`
	CurrentJob *models.JobDescriptor `json:"currentJob,omitempty"`
	Events     []reporter.Event      `json:"events,omitempty"`
}

type Server struct {
	// runs outlive the request that started them
	base   context.Context
	ctrl   Controller
	state  *store.State
	hub    *Hub
	events *reporter.Recorder
	logger arbor.ILogger

	upgrader websocket.Upgrader
	router   *gin.Engine
}

func New(base context.Context, ctrl Controller, state *store.State, hub *Hub, events *reporter.Recorder, logger arbor.ILogger) *Server {
	s := &Server{
		base:   base,
		ctrl:   ctrl,
		state:  state,
		hub:    hub,
		events: events,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "autoapply control server is running",
			"status":  "healthy",
		})
	})

	api := r.Group("/api/auto-apply")
	api.POST("/start", s.handleStart)
	api.POST("/stop", s.handleStop)
	api.GET("/state", s.handleState)
	r.POST("/api/actions", s.handleAction)

	r.GET("/ws", s.handleWebSocket)
	r.POST("/webhook/telegram", s.handleTelegram)
	return r
}

func (s *Server) start() (int, gin.H) {
	err := s.ctrl.Start(s.base)
	switch {
	case errors.Is(err, runner.ErrAlreadyRunning):
		return http.StatusConflict, gin.H{"success": false, "error": err.Error()}
	case err != nil:
		s.logger.Error().Err(err).Msg("start failed")
		return http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()}
	}
	s.logger.Info().Msg("▶️ run started from the control server")
	return http.StatusOK, gin.H{"success": true}
}

func (s *Server) stop() (int, gin.H) {
	if !s.ctrl.IsRunning() {
		return http.StatusOK, gin.H{"success": true, "running": false}
	}
	s.ctrl.Stop()
	s.logger.Info().Msg("⏹️ stop requested")
	return http.StatusOK, gin.H{"success": true}
}

func (s *Server) handleStart(c *gin.Context) {
	c.JSON(s.start())
}

func (s *Server) handleStop(c *gin.Context) {
	c.JSON(s.stop())
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshot(c.Request.Context()))
}

func (s *Server) handleAction(c *gin.Context) {
	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	switch req.Action {
	case ActionStart:
		c.JSON(s.start())
	case ActionStop:
		c.JSON(s.stop())
	case ActionState:
		c.JSON(http.StatusOK, s.snapshot(c.Request.Context()))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown action " + req.Action})
	}
}

func (s *Server) snapshot(ctx context.Context) State {
	st := State{Status: s.ctrl.Status()}
	if s.events != nil {
		st.Events = s.events.Events()
	}
	if s.state == nil {
		return st
	}
	if fs, ok, err := s.state.FormStatus(ctx); err == nil && ok {
		st.Form = &fs
	}
	if rs, ok, err := s.state.RunState(ctx); err == nil && ok {
		st.Page = &rs
	}
	if job, err := s.state.CurrentJob(ctx); err == nil && job.URL != "" {
		st.CurrentJob = &job
	}
	return st
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to upgrade to websocket")
		return
	}
	if err := conn.WriteJSON(gin.H{"type": "initial_state", "state": s.snapshot(c.Request.Context())}); err != nil {
		conn.Close()
		return
	}
	s.hub.Register(conn)
}
