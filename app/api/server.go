// Package api exposes the engine over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"careloop/app/config"
	"careloop/app/domain"
	"careloop/app/service/engine"
	"careloop/app/service/queue"
	"careloop/app/service/scoring"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

// Engine is the part of the engine the HTTP surface needs.
type Engine interface {
	StartSession(ctx context.Context, customerID string) (domain.Session, error)
	SubmitReply(ctx context.Context, customerID, text string) (domain.Session, error)
	Session(customerID string) (domain.Session, error)
	Sessions() []domain.Session
	AuditLog(customerID string) ([]domain.ToolCallRecord, error)
	Stats() engine.Stats
	OutreachPlan(ctx context.Context, capacity int) (scoring.OutreachPlan, error)
	Enqueue(event queue.Event) bool
}

type Server struct {
	cfg      *config.Config
	engine   Engine
	validate *validator.Validate
	app      *fiber.App
}

func New(di *do.Injector) (*Server, error) {
	return NewServer(do.MustInvoke[*config.Config](di), do.MustInvoke[*engine.Service](di)), nil
}

func NewServer(cfg *config.Config, e Engine) *Server {
	s := &Server{
		cfg:      cfg,
		engine:   e,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	app := fiber.New(fiber.Config{
		AppName:               "careloop",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/v1")
	v1.Post("/sessions", s.startSession)
	v1.Get("/sessions", s.listSessions)
	v1.Get("/sessions/:customer_id", s.getSession)
	v1.Get("/sessions/:customer_id/audit", s.getAuditLog)
	v1.Post("/sessions/:customer_id/replies", s.submitReply)
	v1.Post("/events", s.enqueueEvent)
	v1.Get("/outreach", s.outreachPlan)
	v1.Get("/stats", s.stats)

	s.app = app

	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			slog.Warn("HTTP shutdown error", slog.Any("error", err))
		}
	}()

	slog.Info("HTTP API listening", slog.String("addr", s.cfg.HTTP.Listen))

	if err := s.app.Listen(s.cfg.HTTP.Listen); err != nil {
		slog.Error("HTTP server stopped", slog.Any("error", err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
	case errors.Is(err, engine.ErrSessionNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, engine.ErrSessionTerminated):
		code = fiber.StatusConflict
	}

	if code >= fiber.StatusInternalServerError {
		slog.Error("HTTP request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
	}

	return c.Status(code).JSON(errorResponse{Error: err.Error()})
}
