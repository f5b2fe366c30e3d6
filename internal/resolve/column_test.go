package resolve

import (
	"errors"
	"strings"
	"testing"

	"github.com/dkeegan/taskpilot/internal/workflow"
)

func twoColumnWorkflow() *workflow.Workflow {
	return &workflow.Workflow{
		Name: "test",
		Columns: []workflow.Column{
			{ID: "todo", Title: "To Do", Category: "todo"},
			{ID: "done", Title: "Done", Category: "done"},
		},
	}
}

func TestResolveColumn(t *testing.T) {
	wf := twoColumnWorkflow()

	tests := []struct {
		in   string
		want string
	}{
		{"done", "done"},
		{"Done", "done"},
		{"DONE", "done"},
		{"  done ", "done"},
		{"todo", "todo"},
		{"To Do", "todo"},
		{"to-do", "todo"},
		{"TO_DO", "todo"},
		// Alias spellings
		{"complete", "done"},
		{"finished", "done"},
		{"closed", "done"},
		{"queued", "todo"},
	}

	for _, tt := range tests {
		got, err := ResolveColumn(wf, tt.in)
		if err != nil {
			t.Errorf("ResolveColumn(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveColumn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveColumnRejection(t *testing.T) {
	wf := twoColumnWorkflow()

	_, err := ResolveColumn(wf, "archived")
	if err == nil {
		t.Fatal("Expected rejection for unknown column")
	}

	var colErr *ColumnError
	if !errors.As(err, &colErr) {
		t.Fatalf("Expected *ColumnError, got %T", err)
	}

	msg := err.Error()
	if !strings.Contains(msg, "To Do") || !strings.Contains(msg, "Done") {
		t.Errorf("Rejection message must list all valid columns, got: %s", msg)
	}
	if !strings.Contains(msg, "archived") {
		t.Errorf("Rejection message should name the bad input, got: %s", msg)
	}
	if len(colErr.Columns) != 2 {
		t.Errorf("ColumnError should carry every column, got %v", colErr.Columns)
	}
}

func TestResolveColumnCaseInsensitiveIDBeforeTitle(t *testing.T) {
	// A workflow where one column's title equals another column's id,
	// differing in case; id match must win
	wf := &workflow.Workflow{
		Name: "tricky",
		Columns: []workflow.Column{
			{ID: "open", Title: "Open", Category: "todo"},
			{ID: "pending", Title: "OPEN review", Category: "in-progress"},
		},
	}

	got, err := ResolveColumn(wf, "OPEN")
	if err != nil {
		t.Fatal(err)
	}
	if got != "open" {
		t.Errorf("Expected id match to win, got %q", got)
	}
}

func TestResolveColumnAgainstBuiltinModes(t *testing.T) {
	p := workflow.NewProvider()
	wf, err := p.Get("contact-center")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"Pending Customer", "pending"},
		{"waiting", "pending"},
		{"on hold", "pending"},
		{"resolved", "resolved"},
		{"triage", "new"},
	}

	for _, tt := range tests {
		got, err := ResolveColumn(wf, tt.in)
		if err != nil {
			t.Errorf("ResolveColumn(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveColumn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
