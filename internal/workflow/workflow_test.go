package workflow

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProviderBuiltinModes(t *testing.T) {
	p := NewProvider()

	modes := p.Modes()
	want := []string{"agile", "contact-center", "itsm"}
	if len(modes) != len(want) {
		t.Fatalf("Expected %d modes, got %d", len(want), len(modes))
	}
	for i, name := range want {
		if modes[i] != name {
			t.Errorf("Modes()[%d] = %s, want %s", i, modes[i], name)
		}
	}

	wf, err := p.Get("agile")
	if err != nil {
		t.Fatalf("Get(agile) failed: %v", err)
	}
	if wf.FirstColumn() != "backlog" {
		t.Errorf("Expected first agile column backlog, got %s", wf.FirstColumn())
	}

	// Mode lookup tolerates case and whitespace
	if _, err := p.Get("  ITSM "); err != nil {
		t.Errorf("Get with case/space variation failed: %v", err)
	}

	if _, err := p.Get("scrumban"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestColumnUniqueIDs(t *testing.T) {
	p := NewProvider()
	for _, mode := range p.Modes() {
		wf, err := p.Get(mode)
		if err != nil {
			t.Fatal(err)
		}
		seen := make(map[string]bool)
		for _, col := range wf.Columns {
			if seen[col.ID] {
				t.Errorf("Mode %s has duplicate column id %s", mode, col.ID)
			}
			seen[col.ID] = true
			if col.Category != "todo" && col.Category != "in-progress" && col.Category != "done" {
				t.Errorf("Mode %s column %s has unexpected category %s", mode, col.ID, col.Category)
			}
		}
	}
}

func TestDoneColumns(t *testing.T) {
	p := NewProvider()
	wf, _ := p.Get("contact-center")

	done := wf.DoneColumns()
	if len(done) != 2 {
		t.Fatalf("Expected 2 done columns, got %d", len(done))
	}
	if done[0] != "resolved" || done[1] != "closed" {
		t.Errorf("Unexpected done columns: %v", done)
	}
}

func TestNewProviderFromFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "taskpilot-workflow-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	modesFile := filepath.Join(tmpDir, "modes.yaml")
	content := `modes:
  - name: kanban
    columns:
      - id: queued
        title: Queued
        category: todo
      - id: doing
        title: Doing
        category: in-progress
      - id: shipped
        title: Shipped
        category: done
`
	if err := os.WriteFile(modesFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := NewProviderFromFile(modesFile)
	if err != nil {
		t.Fatalf("NewProviderFromFile failed: %v", err)
	}

	wf, err := p.Get("kanban")
	if err != nil {
		t.Fatalf("Get(kanban) failed: %v", err)
	}
	if len(wf.Columns) != 3 {
		t.Errorf("Expected 3 columns, got %d", len(wf.Columns))
	}

	// Built-ins still present
	if _, err := p.Get("agile"); err != nil {
		t.Errorf("Built-in mode lost after file merge: %v", err)
	}
}

func TestNewProviderFromFileRejectsDuplicates(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "taskpilot-workflow-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	modesFile := filepath.Join(tmpDir, "modes.yaml")
	content := `modes:
  - name: broken
    columns:
      - id: a
        title: A
        category: todo
      - id: a
        title: A again
        category: done
`
	if err := os.WriteFile(modesFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewProviderFromFile(modesFile); err == nil {
		t.Error("Expected error for duplicate column ids")
	}
}
