package tools

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dkeegan/taskpilot/internal/normalize"
	"github.com/dkeegan/taskpilot/internal/workflow"
)

func reportTools(wf *workflow.Workflow) []*Definition {
	return []*Definition{
		summarizeBoardTool(),
		cycleTimeReportTool(),
		resolutionTimeReportTool(),
		exportTasksTool(wf),
	}
}

func summarizeBoardTool() *Definition {
	return &Definition{
		Name:        "summarize_board",
		Description: "Summarize the board: task counts per column, plus overdue and unassigned totals.",
		Params:      []Param{},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}

			counts := make(map[string]int)
			overdue := 0
			unassigned := 0
			now := env.Now()
			for _, t := range snap.Tasks {
				counts[t.Status]++
				if t.DueDate != nil && t.DueDate.Before(now) && t.CompletedAt == nil {
					overdue++
				}
				if t.Assignee == "" {
					unassigned++
				}
			}

			var lines []string
			byColumn := make(map[string]int)
			for _, col := range env.Workflow.Columns {
				lines = append(lines, fmt.Sprintf("- %s: %d", col.Title, counts[col.ID]))
				byColumn[col.ID] = counts[col.ID]
			}
			lines = append(lines,
				fmt.Sprintf("Overdue: %d", overdue),
				fmt.Sprintf("Unassigned: %d", unassigned))

			return Ok("Board summary (%d tasks):\n%s", len(snap.Tasks), strings.Join(lines, "\n")).
				With("total", len(snap.Tasks)).
				With("byColumn", byColumn).
				With("overdue", overdue).
				With("unassigned", unassigned), nil
		},
	}
}

func cycleTimeReportTool() *Definition {
	return &Definition{
		Name:        "cycle_time_report",
		Description: "Report average and per-task cycle time (creation to completion) for completed tasks.",
		Params:      []Param{},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}

			var total time.Duration
			var lines []string
			count := 0
			for _, t := range snap.Tasks {
				if t.CompletedAt == nil {
					continue
				}
				elapsed := t.CompletedAt.Sub(t.CreatedAt)
				if elapsed < 0 {
					elapsed = 0
				}
				total += elapsed
				count++
				lines = append(lines, fmt.Sprintf("- %s: %s", t.Title, normalize.FormatDuration(elapsed)))
			}

			if count == 0 {
				return Ok("No completed tasks to report cycle time for").With("completed", 0), nil
			}

			average := total / time.Duration(count)
			return Ok("Cycle time over %d completed task(s), average %s:\n%s",
				count, normalize.FormatDuration(average), strings.Join(lines, "\n")).
				With("completed", count).
				With("averageHours", average.Hours()), nil
		},
	}
}

func resolutionTimeReportTool() *Definition {
	return &Definition{
		Name:        "resolution_time_report",
		Description: "Report average and per-incident resolution time for resolved incidents.",
		Params:      []Param{},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			incidents, err := env.Store.ListIncidents()
			if err != nil {
				return nil, err
			}

			var total time.Duration
			var lines []string
			count := 0
			for _, in := range incidents {
				if in.ResolvedAt == nil {
					continue
				}
				elapsed := in.ResolvedAt.Sub(in.CreatedAt)
				if elapsed < 0 {
					elapsed = 0
				}
				total += elapsed
				count++
				lines = append(lines, fmt.Sprintf("- [%s] %s: %s", in.Severity, in.Title, normalize.FormatDuration(elapsed)))
			}

			if count == 0 {
				return Ok("No resolved incidents to report on").With("resolved", 0), nil
			}

			average := total / time.Duration(count)
			return Ok("Resolution time over %d incident(s), average %s:\n%s",
				count, normalize.FormatDuration(average), strings.Join(lines, "\n")).
				With("resolved", count).
				With("averageHours", average.Hours()), nil
		},
	}
}

func exportTasksTool(wf *workflow.Workflow) *Definition {
	return &Definition{
		Name:        "export_tasks",
		Description: "Export all tasks as CSV or JSON. " + columnHint(wf),
		Params: []Param{
			{Name: "format", Type: TypeString, Description: "Export format; defaults to csv", Enum: []string{"csv", "json"}},
			{Name: "status", Type: TypeString, Description: "Only export tasks in this status column"},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			format := "csv"
			if raw, ok := args.String("format"); ok {
				switch strings.ToLower(raw) {
				case "csv", "json":
					format = strings.ToLower(raw)
				default:
					return Fail("Unknown export format %q. Valid formats: csv, json", raw), nil
				}
			}

			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}

			status := ""
			if raw, ok := args.String("status"); ok {
				resolved, failed := resolveStatus(env, raw)
				if failed != nil {
					return failed, nil
				}
				status = resolved
			}

			tasks := snap.Tasks
			if status != "" {
				filtered := tasks[:0:0]
				for _, t := range tasks {
					if t.Status == status {
						filtered = append(filtered, t)
					}
				}
				tasks = filtered
			}

			var content string
			switch format {
			case "json":
				raw, err := json.MarshalIndent(tasks, "", "  ")
				if err != nil {
					return nil, fmt.Errorf("failed to encode tasks: %w", err)
				}
				content = string(raw)
			case "csv":
				var buf bytes.Buffer
				w := csv.NewWriter(&buf)
				_ = w.Write([]string{"id", "title", "status", "priority", "assignee", "project", "due", "created"})
				for _, t := range tasks {
					due := ""
					if t.DueDate != nil {
						due = t.DueDate.Format("2006-01-02")
					}
					_ = w.Write([]string{
						t.ID, t.Title, t.Status, t.Priority, t.Assignee, t.ProjectID,
						due, t.CreatedAt.Format("2006-01-02"),
					})
				}
				w.Flush()
				if err := w.Error(); err != nil {
					return nil, fmt.Errorf("failed to encode tasks: %w", err)
				}
				content = buf.String()
			}

			return Ok("Exported %d task(s) as %s", len(tasks), format).
				With("format", format).
				With("count", len(tasks)).
				With("content", content), nil
		},
	}
}
