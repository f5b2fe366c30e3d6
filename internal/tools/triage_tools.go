package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dkeegan/taskpilot/internal/normalize"
)

func triageTools() []*Definition {
	return []*Definition{
		triageTaskTool(),
		slaStatusTool(),
	}
}

// triage keyword heuristics, checked in priority order against the task's
// title and description
var triageRules = []struct {
	priority string
	keywords []string
}{
	{normalize.PriorityUrgent, []string{"outage", "down", "data loss", "security", "breach", "crash", "urgent", "production"}},
	{normalize.PriorityHigh, []string{"bug", "broken", "error", "fail", "regression", "blocked", "customer"}},
	{normalize.PriorityLow, []string{"typo", "cosmetic", "cleanup", "polish", "nice to have", "someday", "docs"}},
}

var triageTags = map[string]string{
	"bug":      "bug",
	"crash":    "bug",
	"error":    "bug",
	"security": "security",
	"breach":   "security",
	"docs":     "docs",
	"document": "docs",
	"design":   "design",
	"ui":       "design",
	"perf":     "performance",
	"slow":     "performance",
	"latency":  "performance",
}

func triageTaskTool() *Definition {
	return &Definition{
		Name:        "triage_task",
		Description: "Triage a task: infer priority and tags from its title and description using keyword heuristics and apply them. Suggests an assignee when the text names a known user.",
		Params: []Param{
			{Name: "task", Type: TypeString, Description: "Task title fragment or id", Required: true},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			fragment, err := args.RequiredString("task")
			if err != nil {
				return Fail("%v", err), nil
			}

			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}
			task, notFound := findTask(snap, fragment)
			if notFound != nil {
				return notFound, nil
			}

			text := strings.ToLower(task.Title + " " + task.Description)

			priority := normalize.DefaultPriority
			matched := ""
			for _, rule := range triageRules {
				for _, kw := range rule.keywords {
					if strings.Contains(text, kw) {
						priority = rule.priority
						matched = kw
						break
					}
				}
				if matched != "" {
					break
				}
			}

			existing := make(map[string]bool, len(task.Tags))
			for _, tag := range task.Tags {
				existing[tag] = true
			}
			var added []string
			for kw, tag := range triageTags {
				if strings.Contains(text, kw) && !existing[tag] {
					task.Tags = append(task.Tags, tag)
					existing[tag] = true
					added = append(added, tag)
				}
			}

			// assignee is suggested, never applied, so the inverse stays a
			// single priority restore
			suggested := ""
			if task.Assignee == "" {
				for _, u := range snap.Users {
					fields := strings.Fields(u.Name)
					if len(fields) == 0 {
						continue
					}
					first := strings.ToLower(fields[0])
					if len(first) >= 3 && strings.Contains(text, first) {
						suggested = u.Name
						break
					}
				}
			}

			priorPriority := task.Priority
			task.Priority = priority

			updated, updateErr := env.Store.UpdateTask(task)
			if updateErr != nil {
				return nil, updateErr
			}
			if updated == nil {
				return Fail("Task %q no longer exists", task.Title), nil
			}

			detail := "priority " + priority
			if matched != "" {
				detail += " (keyword: " + matched + ")"
			}
			audit(env, task.ID, "triaged", detail)

			summary := fmt.Sprintf("Triaged %q: priority %s", task.Title, priority)
			if matched != "" {
				summary += fmt.Sprintf(" (matched %q)", matched)
			}
			if len(added) > 0 {
				summary += ", tagged " + strings.Join(added, ", ")
			}
			if suggested != "" {
				summary += fmt.Sprintf(". Consider assigning it to %s", suggested)
			}

			res := Ok("%s", summary).
				With("task", taskBrief(updated)).
				With("addedTags", added)
			if suggested != "" {
				res = res.With("suggestedAssignee", suggested)
			}
			return res.
				WithInverse("set_priority", map[string]any{"task": task.ID, "priority": priorPriority}), nil
		},
	}
}

// slaTargets is the time allowed per priority from creation to completion
var slaTargets = map[string]time.Duration{
	normalize.PriorityUrgent: 24 * time.Hour,
	normalize.PriorityHigh:   3 * 24 * time.Hour,
	normalize.PriorityMedium: 7 * 24 * time.Hour,
	normalize.PriorityLow:    14 * 24 * time.Hour,
}

func slaStatusTool() *Definition {
	return &Definition{
		Name:        "sla_status",
		Description: "Check open tasks against their priority's completion target (urgent 1d, high 3d, medium 7d, low 14d) and list breaches.",
		Params:      []Param{},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}

			now := env.Now()
			var breaches []string
			var atRisk []string
			open := 0
			for _, t := range snap.Tasks {
				if t.CompletedAt != nil {
					continue
				}
				target, ok := slaTargets[t.Priority]
				if !ok {
					continue
				}
				open++
				age := now.Sub(t.CreatedAt)
				switch {
				case age > target:
					breaches = append(breaches, fmt.Sprintf("- %s (%s, open %s, target %s)",
						t.Title, t.Priority, normalize.FormatDuration(age), normalize.FormatDuration(target)))
				case age > target*3/4:
					atRisk = append(atRisk, fmt.Sprintf("- %s (%s, open %s of %s)",
						t.Title, t.Priority, normalize.FormatDuration(age), normalize.FormatDuration(target)))
				}
			}

			if len(breaches) == 0 && len(atRisk) == 0 {
				return Ok("All %d open task(s) are within their completion targets", open).
					With("open", open).With("breached", 0).With("atRisk", 0), nil
			}

			var sections []string
			if len(breaches) > 0 {
				sections = append(sections, fmt.Sprintf("%d breach(es):\n%s", len(breaches), strings.Join(breaches, "\n")))
			}
			if len(atRisk) > 0 {
				sections = append(sections, fmt.Sprintf("%d at risk:\n%s", len(atRisk), strings.Join(atRisk, "\n")))
			}

			return Ok("%s", strings.Join(sections, "\n")).
				With("open", open).
				With("breached", len(breaches)).
				With("atRisk", len(atRisk)), nil
		},
	}
}
