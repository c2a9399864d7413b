// Package tools exposes the reminders page and event logging as MCP tools.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/clock"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/engine"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/journal"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/reminder"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for reminders and care events.
type Server struct {
	mcpServer *server.MCPServer
	board     *reminder.Board
	journal   *journal.Journal
	clock     clock.Clock
}

// NewServer registers the tools against board and j.
func NewServer(board *reminder.Board, j *journal.Journal, clk clock.Clock) *Server {
	s := &Server{
		board:   board,
		journal: j,
		clock:   clk,
	}

	s.mcpServer = server.NewMCPServer(
		config.MCPServerName,
		config.Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List manual and synced reminders sorted by due time, optionally filtered by status"),
			mcp.WithString("status", mcp.Description("Filter by status: pending, completed, or empty for all")),
		),
		s.handleListReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_due_reminders",
			mcp.WithDescription("Get all open reminders that are due now or overdue"),
		),
		s.handleGetDueReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("add_reminder",
			mcp.WithDescription("Add a manual reminder; a notification is scheduled when the due time is ahead"),
			mcp.WithString("title", mcp.Required(), mcp.Description("Reminder title")),
			mcp.WithString("due_date", mcp.Required(), mcp.Description("Due time in RFC3339 format (e.g. 2025-01-15T09:00:00Z)")),
			mcp.WithString("category", mcp.Description("feeding, sleep, diaper, health, medication, appointment, vaccination or general (default)")),
			mcp.WithString("notes", mcp.Description("Optional notes")),
			mcp.WithString("icon", mcp.Description("Optional emoji; defaults to the category icon")),
		),
		s.handleAddReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("complete_reminder",
			mcp.WithDescription("Mark a manual reminder as completed"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleCompleteReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("update_reminder",
			mcp.WithDescription("Update a manual reminder's fields (title, due_date, category, notes, icon)"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("due_date", mcp.Description("New due time in RFC3339 format")),
			mcp.WithString("category", mcp.Description("New category")),
			mcp.WithString("notes", mcp.Description("New notes")),
			mcp.WithString("icon", mcp.Description("New emoji")),
		),
		s.handleUpdateReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("delete_reminder",
			mcp.WithDescription("Delete a manual reminder permanently"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleDeleteReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("log_feeding",
			mcp.WithDescription("Log a feeding session and refresh the next-feeding reminder"),
			mcp.WithString("type", mcp.Description("breast, bottle or solid")),
			mcp.WithNumber("amount_ml", mcp.Description("Amount in millilitres")),
			mcp.WithNumber("duration_min", mcp.Description("Duration in minutes")),
			mcp.WithString("notes", mcp.Description("Optional notes")),
			mcp.WithString("timestamp", mcp.Description("When it happened, RFC3339 (default: now)")),
		),
		s.handleLogFeeding,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("log_diaper",
			mcp.WithDescription("Log a diaper change and refresh the next-diaper reminder"),
			mcp.WithString("type", mcp.Description("wet, dirty or both")),
			mcp.WithString("notes", mcp.Description("Optional notes")),
			mcp.WithString("timestamp", mcp.Description("When it happened, RFC3339 (default: now)")),
		),
		s.handleLogDiaper,
	)
}

func (s *Server) handleListReminders(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := req.GetString("status", "")

	var out []reminder.Reminder
	for _, r := range s.board.All() {
		switch {
		case status == config.StatusPending && r.Completed:
			continue
		case status == config.StatusDone && !r.Completed:
			continue
		}
		out = append(out, r)
	}

	if len(out) == 0 {
		return mcp.NewToolResultText("No reminders found."), nil
	}
	return jsonResult(out), nil
}

func (s *Server) handleGetDueReminders(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	due := s.board.Due(s.clock.Now())
	if len(due) == 0 {
		return mcp.NewToolResultText("No due reminders."), nil
	}
	return jsonResult(due), nil
}

func (s *Server) handleAddReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}
	dueStr := req.GetString("due_date", "")
	if dueStr == "" {
		return mcp.NewToolResultError("due_date is required"), nil
	}
	due, err := time.Parse(time.RFC3339, dueStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid due_date format: %v (use RFC3339, e.g. 2025-01-15T09:00:00Z)", err)), nil
	}

	added, err := s.board.Add(reminder.Reminder{
		Title:    title,
		DueAt:    due,
		Category: reminder.ParseCategory(req.GetString("category", "")),
		Notes:    req.GetString("notes", ""),
		Icon:     req.GetString("icon", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add reminder: %v", err)), nil
	}
	called("add_reminder", added.ID, config.LogKeyCategory, added.Category)
	return jsonResult(added), nil
}

func (s *Server) handleCompleteReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	r, err := s.board.Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete reminder: %v", err)), nil
	}
	if r.Completed {
		return mcp.NewToolResultText(fmt.Sprintf("Reminder %s is already completed.", id)), nil
	}
	if _, err := s.board.ToggleComplete(id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete reminder: %v", err)), nil
	}
	called("complete_reminder", id)
	return mcp.NewToolResultText(fmt.Sprintf("Reminder %s marked as completed.", id)), nil
}

func (s *Server) handleUpdateReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	var fields reminder.UpdateFields
	if v := req.GetString("title", ""); v != "" {
		fields.Title = &v
	}
	if v := req.GetString("due_date", ""); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid due_date: %v", err)), nil
		}
		fields.DueAt = &t
	}
	if v := req.GetString("category", ""); v != "" {
		c := reminder.ParseCategory(v)
		fields.Category = &c
	}
	if v := req.GetString("notes", ""); v != "" {
		fields.Notes = &v
	}
	if v := req.GetString("icon", ""); v != "" {
		fields.Icon = &v
	}

	updated, err := s.board.Update(id, fields)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update reminder: %v", err)), nil
	}
	called("update_reminder", id, config.LogKeyCategory, updated.Category)
	return jsonResult(updated), nil
}

func (s *Server) handleDeleteReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	if err := s.board.Delete(id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete reminder: %v", err)), nil
	}
	called("delete_reminder", id)
	return mcp.NewToolResultText(fmt.Sprintf("Reminder %s deleted.", id)), nil
}

func (s *Server) handleLogFeeding(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	at, err := optionalTime(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	f, err := s.journal.LogFeeding(engine.Feeding{
		Timestamp:   at,
		Type:        req.GetString("type", ""),
		AmountMl:    req.GetFloat("amount_ml", 0),
		DurationMin: req.GetInt("duration_min", 0),
		Notes:       req.GetString("notes", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to log feeding: %v", err)), nil
	}
	called("log_feeding", f.ID)
	return jsonResult(f), nil
}

func (s *Server) handleLogDiaper(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	at, err := optionalTime(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.journal.LogDiaper(engine.DiaperChange{
		Timestamp: at,
		Type:      req.GetString("type", ""),
		Notes:     req.GetString("notes", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to log diaper change: %v", err)), nil
	}
	called("log_diaper", d.ID)
	return jsonResult(d), nil
}

// optionalTime reads the "timestamp" argument. The zero time lets the journal default to now.
func optionalTime(req mcp.CallToolRequest) (time.Time, error) {
	v := req.GetString("timestamp", "")
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, errors.New("invalid timestamp (use RFC3339)")
	}
	return t, nil
}

func jsonResult(v any) *mcp.CallToolResult {
	output, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(output))
}

// called logs a tool call that changed state.
func called(tool, id string, attrs ...any) {
	slog.Info(config.MsgToolCalled, append([]any{
		config.LogKeyComponent, config.CompTools,
		config.LogKeyName, tool,
		config.LogKeyID, id,
	}, attrs...)...)
}
