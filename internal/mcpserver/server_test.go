package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/collection"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/testutil"
)

func testServer(t *testing.T) (*Server, *collection.Service) {
	t.Helper()
	svc := collection.NewService(testutil.TestStore(t), nil, nil)
	return New(svc), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so we dispatch to
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_records":
		result, err = srv.listRecords(ctx, req)
	case "get_record":
		result, err = srv.getRecord(ctx, req)
	case "create_task":
		result, err = srv.createTask(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "complete_task":
		result, err = srv.completeTask(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateTaskAndList(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_task", map[string]interface{}{
		"title":    "Buy milk",
		"category": "shopping",
	})
	text := resultText(r)
	if !strings.HasPrefix(text, "created task ") {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "list_records", map[string]interface{}{"type": "tasks"})
	text = resultText(r)
	if !strings.Contains(text, "Buy milk") {
		t.Errorf("list = %q", text)
	}
	if !strings.Contains(text, `"status": "todo"`) {
		t.Errorf("new task should default to todo: %q", text)
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	srv, svc := testServer(t)

	callTool(t, srv, "create_task", map[string]interface{}{"title": "x"})

	recs, err := svc.List(context.Background(), models.KindTask)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("len = %d", len(recs))
	}
	rec := recs[0]
	if rec["category"] != models.CategoryOther || rec["priority"] != models.PriorityMedium {
		t.Errorf("defaults = %v / %v", rec["category"], rec["priority"])
	}
	if _, ok := rec["description"]; ok {
		t.Error("empty description should be omitted")
	}
}

func TestCreateNote(t *testing.T) {
	srv, svc := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"title":   "Groceries",
		"content": "milk, eggs",
	})
	if !strings.HasPrefix(resultText(r), "created note ") {
		t.Errorf("result = %q", resultText(r))
	}

	recs, _ := svc.List(context.Background(), models.KindNote)
	if len(recs) != 1 || recs[0]["content"] != "milk, eggs" {
		t.Errorf("notes = %v", recs)
	}
	if recs[0]["category"] != "personal" {
		t.Errorf("category = %v, want personal", recs[0]["category"])
	}
}

func TestCreateNoteRequiresContent(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_note", map[string]interface{}{"title": "x"})
	if !r.IsError {
		t.Error("expected error for missing content")
	}
}

func TestGetRecordMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_record", map[string]interface{}{"type": "tasks", "id": "ghost"})
	if !r.IsError {
		t.Error("expected error for missing record")
	}
}

func TestListRecordsBadType(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "list_records", map[string]interface{}{"type": "wishes"})
	if !r.IsError {
		t.Error("expected error for unknown type")
	}
}

func TestCompleteTask(t *testing.T) {
	srv, svc := testServer(t)

	callTool(t, srv, "create_task", map[string]interface{}{"title": "x"})
	recs, _ := svc.List(context.Background(), models.KindTask)
	id := recs[0]["id"].(string)

	r := callTool(t, srv, "complete_task", map[string]interface{}{"id": id})
	if r.IsError {
		t.Fatalf("complete_task failed: %q", resultText(r))
	}

	rec, _ := svc.Get(context.Background(), models.KindTask, id)
	if rec["status"] != models.StatusDone {
		t.Errorf("status = %v, want done", rec["status"])
	}
}

func TestCompleteTaskMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "complete_task", map[string]interface{}{"id": "ghost"})
	if !r.IsError {
		t.Error("expected error for missing task")
	}
}
