package workflow

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Column is one valid status value within a workflow
type Column struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Category string `yaml:"category"` // "todo" | "in-progress" | "done"
}

// Workflow is a named mode with its ordered status columns
type Workflow struct {
	Name    string   `yaml:"name"`
	Columns []Column `yaml:"columns"`
}

// Provider resolves a workflow mode name to its schema
type Provider interface {
	Get(mode string) (*Workflow, error)
	Modes() []string
}

// ColumnByID returns the column with the given id
func (w *Workflow) ColumnByID(id string) (Column, bool) {
	for _, col := range w.Columns {
		if col.ID == id {
			return col, true
		}
	}
	return Column{}, false
}

// DoneColumns returns the ids of all columns in the "done" category
func (w *Workflow) DoneColumns() []string {
	var ids []string
	for _, col := range w.Columns {
		if col.Category == "done" {
			ids = append(ids, col.ID)
		}
	}
	return ids
}

// FirstColumn returns the id of the workflow's first column, the default
// status for newly created work
func (w *Workflow) FirstColumn() string {
	if len(w.Columns) == 0 {
		return ""
	}
	return w.Columns[0].ID
}

// ColumnList returns human-readable "Title (id)" pairs for every column
func (w *Workflow) ColumnList() []string {
	out := make([]string, 0, len(w.Columns))
	for _, col := range w.Columns {
		out = append(out, fmt.Sprintf("%s (%s)", col.Title, col.ID))
	}
	return out
}

// builtinModes are the workflow configurations shipped with the application
func builtinModes() map[string]*Workflow {
	return map[string]*Workflow{
		"agile": {
			Name: "agile",
			Columns: []Column{
				{ID: "backlog", Title: "Backlog", Category: "todo"},
				{ID: "todo", Title: "To Do", Category: "todo"},
				{ID: "in-progress", Title: "In Progress", Category: "in-progress"},
				{ID: "review", Title: "In Review", Category: "in-progress"},
				{ID: "done", Title: "Done", Category: "done"},
			},
		},
		"contact-center": {
			Name: "contact-center",
			Columns: []Column{
				{ID: "new", Title: "New", Category: "todo"},
				{ID: "open", Title: "Open", Category: "in-progress"},
				{ID: "pending", Title: "Pending Customer", Category: "in-progress"},
				{ID: "resolved", Title: "Resolved", Category: "done"},
				{ID: "closed", Title: "Closed", Category: "done"},
			},
		},
		"itsm": {
			Name: "itsm",
			Columns: []Column{
				{ID: "new", Title: "New", Category: "todo"},
				{ID: "investigating", Title: "Investigating", Category: "in-progress"},
				{ID: "mitigating", Title: "Mitigating", Category: "in-progress"},
				{ID: "resolved", Title: "Resolved", Category: "done"},
				{ID: "postmortem", Title: "Postmortem", Category: "done"},
			},
		},
	}
}

// StaticProvider serves built-in modes plus optional overrides from a YAML file
type StaticProvider struct {
	modes map[string]*Workflow
}

// NewProvider creates a provider with the built-in modes
func NewProvider() *StaticProvider {
	return &StaticProvider{modes: builtinModes()}
}

// NewProviderFromFile creates a provider with built-in modes merged with
// modes loaded from a YAML file. File modes override built-ins by name.
func NewProviderFromFile(path string) (*StaticProvider, error) {
	p := NewProvider()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow modes file: %w", err)
	}

	var extra struct {
		Modes []*Workflow `yaml:"modes"`
	}
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to parse workflow modes file: %w", err)
	}

	for _, wf := range extra.Modes {
		if err := validate(wf); err != nil {
			return nil, err
		}
		p.modes[wf.Name] = wf
	}

	return p, nil
}

// validate checks a workflow definition for structural problems
func validate(wf *Workflow) error {
	if wf.Name == "" {
		return fmt.Errorf("workflow mode missing name")
	}
	if len(wf.Columns) == 0 {
		return fmt.Errorf("workflow mode %q has no columns", wf.Name)
	}
	seen := make(map[string]bool)
	for _, col := range wf.Columns {
		if col.ID == "" {
			return fmt.Errorf("workflow mode %q has a column with empty id", wf.Name)
		}
		if seen[col.ID] {
			return fmt.Errorf("workflow mode %q has duplicate column id %q", wf.Name, col.ID)
		}
		seen[col.ID] = true
	}
	return nil
}

// Get returns the workflow for a mode name
func (p *StaticProvider) Get(mode string) (*Workflow, error) {
	wf, ok := p.modes[strings.ToLower(strings.TrimSpace(mode))]
	if !ok {
		return nil, fmt.Errorf("unknown workflow mode: %s (available: %s)",
			mode, strings.Join(p.Modes(), ", "))
	}
	return wf, nil
}

// Modes returns the sorted list of available mode names
func (p *StaticProvider) Modes() []string {
	names := make([]string, 0, len(p.modes))
	for name := range p.modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
