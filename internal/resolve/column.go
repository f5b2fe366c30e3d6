package resolve

import (
	"fmt"
	"strings"

	"github.com/dkeegan/taskpilot/internal/normalize"
	"github.com/dkeegan/taskpilot/internal/workflow"
)

// statusAliases maps normalized free-text status spellings to normalized
// column keys, covering spellings that no column id or title contains
var statusAliases = map[string]string{
	"complete":  "done",
	"completed": "done",
	"finished":  "done",
	"closed":    "done",
	"doing":     "inprogress",
	"wip":       "inprogress",
	"started":   "inprogress",
	"active":    "inprogress",
	"queued":    "todo",
	"planned":   "todo",
	"waiting":   "pending",
	"onhold":    "pending",
	"triage":    "new",
	"incoming":  "new",
}

// ColumnError is the structured rejection for a status string that matches
// no column in the active workflow. Error() embeds the valid column list
// verbatim so callers can surface it directly.
type ColumnError struct {
	Input   string
	Columns []string // "Title (id)" for every valid column
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("unknown status %q. Valid columns: %s",
		e.Input, strings.Join(e.Columns, ", "))
}

// ResolveColumn validates a free-text status string against the workflow's
// columns and returns the canonical column id. Match order: exact id,
// case-insensitive id, case-insensitive title, alias-normalized id,
// alias-normalized title. Failure returns a *ColumnError listing every
// valid column.
func ResolveColumn(wf *workflow.Workflow, raw string) (string, error) {
	s := strings.TrimSpace(raw)

	for _, col := range wf.Columns {
		if col.ID == s {
			return col.ID, nil
		}
	}

	lower := strings.ToLower(s)
	for _, col := range wf.Columns {
		if strings.ToLower(col.ID) == lower {
			return col.ID, nil
		}
	}
	for _, col := range wf.Columns {
		if strings.ToLower(col.Title) == lower {
			return col.ID, nil
		}
	}

	key := normalize.StatusKey(s)
	if mapped, ok := statusAliases[key]; ok {
		key = mapped
	}
	for _, col := range wf.Columns {
		if normalize.StatusKey(col.ID) == key {
			return col.ID, nil
		}
	}
	for _, col := range wf.Columns {
		if normalize.StatusKey(col.Title) == key {
			return col.ID, nil
		}
	}

	return "", &ColumnError{Input: raw, Columns: wf.ColumnList()}
}
