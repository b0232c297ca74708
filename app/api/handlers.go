package api

import (
	"errors"

	"careloop/app/service/engine"
	"careloop/app/service/queue"

	"github.com/gofiber/fiber/v2"
)

type startSessionRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
}

type replyRequest struct {
	Text string `json:"text" validate:"required"`
}

type eventRequest struct {
	Kind       queue.Kind `json:"kind" validate:"oneof=payment_failed reply"`
	CustomerID string     `json:"customer_id" validate:"required"`
	Text       string     `json:"text" validate:"required_if=Kind reply"`
}

func (s *Server) bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}

	if err := s.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return nil
}

func (s *Server) startSession(c *fiber.Ctx) error {
	var req startSessionRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	session, err := s.engine.StartSession(c.UserContext(), req.CustomerID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

func (s *Server) listSessions(c *fiber.Ctx) error {
	return c.JSON(s.engine.Sessions())
}

func (s *Server) getSession(c *fiber.Ctx) error {
	session, err := s.engine.Session(c.Params("customer_id"))
	if err != nil {
		return err
	}

	return c.JSON(session)
}

func (s *Server) getAuditLog(c *fiber.Ctx) error {
	records, err := s.engine.AuditLog(c.Params("customer_id"))
	if err != nil {
		return err
	}

	return c.JSON(records)
}

func (s *Server) submitReply(c *fiber.Ctx) error {
	var req replyRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	session, err := s.engine.SubmitReply(c.UserContext(), c.Params("customer_id"), req.Text)
	if errors.Is(err, engine.ErrSessionTerminated) {
		return c.Status(fiber.StatusConflict).JSON(session)
	}
	if err != nil {
		return err
	}

	return c.JSON(session)
}

func (s *Server) enqueueEvent(c *fiber.Ctx) error {
	var req eventRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	if !s.engine.Enqueue(queue.Event{Kind: req.Kind, CustomerID: req.CustomerID, Text: req.Text}) {
		return fiber.NewError(fiber.StatusServiceUnavailable, "event queue is full")
	}

	return c.SendStatus(fiber.StatusAccepted)
}

func (s *Server) outreachPlan(c *fiber.Ctx) error {
	capacity := c.QueryInt("capacity", 0)
	if capacity < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "capacity must not be negative")
	}

	plan, err := s.engine.OutreachPlan(c.UserContext(), capacity)
	if err != nil {
		return err
	}

	return c.JSON(plan)
}

func (s *Server) stats(c *fiber.Ctx) error {
	return c.JSON(s.engine.Stats())
}
