// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Ansuz collections for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/collection"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
)

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp *server.MCPServer
	svc *collection.Service
}

// New creates a new MCP server with all Ansuz tools registered.
func New(svc *collection.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_records",
		mcp.WithDescription("List every record of one collection."),
		mcp.WithString("type", mcp.Required(),
			mcp.Description("Collection name: tasks, notes, documents, reminders or tags")),
	), s.listRecords)

	s.mcp.AddTool(mcp.NewTool("get_record",
		mcp.WithDescription("Fetch one record by id."),
		mcp.WithString("type", mcp.Required(),
			mcp.Description("Collection name: tasks, notes, documents, reminders or tags")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	), s.getRecord)

	s.mcp.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a new task. Read the ansuz://schema resource for "+
			"valid category, priority and status values."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("description", mcp.Description("Optional task description")),
		mcp.WithString("category", mcp.Description("Task category (default: other)")),
		mcp.WithString("priority", mcp.Description("Task priority (default: medium)")),
		mcp.WithString("dueDate", mcp.Description("Optional due date, YYYY-MM-DD")),
	), s.createTask)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note body text")),
		mcp.WithString("category", mcp.Description("Note category (default: personal)")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task as done."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task id")),
	), s.completeTask)

	// Resource: entity schema contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://schema", "Entity Schema",
			mcp.WithResourceDescription("Record shapes for every collection."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSchemaResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := models.ParseKind(typ)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	recs, err := s.svc.List(ctx, kind)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(recs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := models.ParseKind(typ)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.Get(ctx, kind, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if rec == nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s/%s", typ, id)), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	now := models.Now()
	rec := store.Record{
		"id":        models.NewID(),
		"title":     title,
		"category":  req.GetString("category", models.CategoryOther),
		"priority":  req.GetString("priority", models.PriorityMedium),
		"status":    models.StatusTodo,
		"tagIds":    []string{},
		"createdAt": now,
		"updatedAt": now,
	}
	if desc := req.GetString("description", ""); desc != "" {
		rec["description"] = desc
	}
	if due := req.GetString("dueDate", ""); due != "" {
		rec["dueDate"] = due
	}

	if _, err := s.svc.Create(ctx, models.KindTask, rec); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created task %s", rec["id"])), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	now := models.Now()
	rec := store.Record{
		"id":        models.NewID(),
		"title":     title,
		"content":   content,
		"category":  req.GetString("category", "personal"),
		"tagIds":    []string{},
		"createdAt": now,
		"updatedAt": now,
	}

	if _, err := s.svc.Create(ctx, models.KindNote, rec); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created note %s", rec["id"])), nil
}

func (s *Server) completeTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	existing, err := s.svc.Get(ctx, models.KindTask, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if existing == nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: tasks/%s", id)), nil
	}

	rec := store.Record{
		"id":        id,
		"status":    models.StatusDone,
		"updatedAt": models.Now(),
	}
	if _, err := s.svc.Update(ctx, models.KindTask, rec); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("completed task %s", id)), nil
}

func (s *Server) readSchemaResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://schema",
			MIMEType: "text/markdown",
			Text:     SchemaContract,
		},
	}, nil
}
