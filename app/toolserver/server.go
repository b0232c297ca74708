// Package toolserver exposes the engine as MCP tools over stdio.
package toolserver

import (
	"context"
	"encoding/json"
	"errors"

	"careloop/app/domain"
	"careloop/app/service/engine"
	"careloop/app/service/scoring"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/do"
)

const version = "1.0.0"

// Engine is the part of the engine exposed as tools.
type Engine interface {
	StartSession(ctx context.Context, customerID string) (domain.Session, error)
	SubmitReply(ctx context.Context, customerID, text string) (domain.Session, error)
	Session(customerID string) (domain.Session, error)
	AuditLog(customerID string) ([]domain.ToolCallRecord, error)
	Stats() engine.Stats
	OutreachPlan(ctx context.Context, capacity int) (scoring.OutreachPlan, error)
}

type Server struct {
	engine Engine
	mcp    *server.MCPServer
}

func New(di *do.Injector) (*Server, error) {
	return NewServer(do.MustInvoke[*engine.Service](di)), nil
}

func NewServer(e Engine) *Server {
	s := &Server{
		engine: e,
		mcp:    server.NewMCPServer("careloop", version, server.WithToolCapabilities(false)),
	}

	customerID := mcp.WithString("customer_id",
		mcp.Required(),
		mcp.Description("Customer identifier, e.g. user_123"),
	)

	s.mcp.AddTool(mcp.NewTool("start_retention_session",
		mcp.WithDescription("Open a retention session after a failed payment. Returns the session with the selected offer and the outreach message."),
		customerID,
	), s.startSession)

	s.mcp.AddTool(mcp.NewTool("submit_customer_reply",
		mcp.WithDescription("Run one conversation cycle for a customer reply. Returns the updated session."),
		customerID,
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The customer's reply"),
		),
	), s.submitReply)

	s.mcp.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Read the current state of a customer's retention session."),
		customerID,
	), s.getSession)

	s.mcp.AddTool(mcp.NewTool("get_audit_log",
		mcp.WithDescription("Read the append-only decision log of a customer's retention session."),
		customerID,
	), s.getAuditLog)

	s.mcp.AddTool(mcp.NewTool("get_outreach_plan",
		mcp.WithDescription("Score every customer with a failed payment and plan today's AI outreach."),
		mcp.WithNumber("capacity",
			mcp.Description("Number of customers the AI agent can take; configured capacity when omitted"),
		),
	), s.outreachPlan)

	s.mcp.AddTool(mcp.NewTool("get_retention_stats",
		mcp.WithDescription("Sessions processed, churn prevented, revenue impact and retention rate."),
	), s.stats)

	return s
}

// Serve blocks on stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) startSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	customerID, err := req.RequireString("customer_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	session, err := s.engine.StartSession(ctx, customerID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(session)
}

func (s *Server) submitReply(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	customerID, err := req.RequireString("customer_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	session, err := s.engine.SubmitReply(ctx, customerID, text)
	if errors.Is(err, engine.ErrSessionTerminated) {
		return mcp.NewToolResultError("session is finished: " + string(session.Stage)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(session)
}

func (s *Server) getSession(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	customerID, err := req.RequireString("customer_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	session, err := s.engine.Session(customerID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(session)
}

func (s *Server) getAuditLog(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	customerID, err := req.RequireString("customer_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	records, err := s.engine.AuditLog(customerID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(records)
}

func (s *Server) outreachPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plan, err := s.engine.OutreachPlan(ctx, req.GetInt("capacity", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(plan)
}

func (s *Server) stats(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.engine.Stats())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return mcp.NewToolResultText(string(data)), nil
}
