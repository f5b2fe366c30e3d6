package tools

import (
	"context"

	"github.com/dkeegan/taskpilot/internal/normalize"
	"github.com/dkeegan/taskpilot/internal/store"
)

func convertTools() []*Definition {
	return []*Definition{
		emailToTaskTool(),
		incidentToTaskTool(),
		emailToIncidentTool(),
	}
}

// recordDerivation links a created entity back to its source record so the
// conversion mapping survives in the link table
func recordDerivation(env *Env, sourceType, sourceID, targetType, targetID string) error {
	_, err := env.Store.LinkEntities(&store.Link{
		SourceType: sourceType,
		SourceID:   sourceID,
		TargetType: targetType,
		TargetID:   targetID,
		Kind:       store.LinkDerivedFrom,
	})
	return err
}

// severityPriority maps incident severities onto task priority levels
func severityPriority(severity string) string {
	switch severity {
	case normalize.SeveritySev1:
		return normalize.PriorityUrgent
	case normalize.SeveritySev2:
		return normalize.PriorityHigh
	case normalize.SeveritySev4:
		return normalize.PriorityLow
	default:
		return normalize.PriorityMedium
	}
}

func emailToTaskTool() *Definition {
	return &Definition{
		Name:        "email_to_task",
		Description: "Create a task from an email, carrying over the subject and body, and archive the email.",
		Params: []Param{
			{Name: "email", Type: TypeString, Description: "Email subject fragment or id", Required: true},
			{Name: "priority", Type: TypeString, Description: "Priority for the new task; defaults to medium"},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			fragment, err := args.RequiredString("email")
			if err != nil {
				return Fail("%v", err), nil
			}

			email, failed, findErr := findEmail(env, fragment)
			if findErr != nil {
				return nil, findErr
			}
			if failed != nil {
				return failed, nil
			}

			priority := normalize.DefaultPriority
			if raw, ok := args.String("priority"); ok {
				priority = normalize.Priority(raw)
			}

			task, createErr := env.Store.CreateTask(&store.Task{
				Title:       email.Subject,
				Description: "From: " + email.From + "\n\n" + email.Body,
				Status:      env.Workflow.FirstColumn(),
				Priority:    priority,
			})
			if createErr != nil {
				return nil, createErr
			}
			if err := recordDerivation(env, "email", email.ID, "task", task.ID); err != nil {
				return nil, err
			}

			email.Archived = true
			email.Read = true
			if _, updateErr := env.Store.UpdateEmail(email); updateErr != nil {
				return nil, updateErr
			}
			audit(env, task.ID, "created_from_email", email.Subject)

			return Ok("Created task %q from email and archived the original", task.Title).
				With("task", taskBrief(task)).
				With("sourceEmailId", email.ID).
				WithInverse("delete_task", map[string]any{"task": task.ID}), nil
		},
	}
}

func incidentToTaskTool() *Definition {
	return &Definition{
		Name:        "incident_to_task",
		Description: "Create a follow-up task from an incident. Severity maps to task priority (sev1 becomes urgent, sev4 becomes low).",
		Params: []Param{
			{Name: "incident", Type: TypeString, Description: "Incident title fragment or id", Required: true},
			{Name: "title", Type: TypeString, Description: "Task title; defaults to 'Follow up: <incident title>'"},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			fragment, err := args.RequiredString("incident")
			if err != nil {
				return Fail("%v", err), nil
			}

			incident, failed, findErr := findIncident(env, fragment)
			if findErr != nil {
				return nil, findErr
			}
			if failed != nil {
				return failed, nil
			}

			title := "Follow up: " + incident.Title
			if raw, ok := args.String("title"); ok {
				title = raw
			}

			task, createErr := env.Store.CreateTask(&store.Task{
				Title:       title,
				Description: incident.Description,
				Status:      env.Workflow.FirstColumn(),
				Priority:    severityPriority(incident.Severity),
			})
			if createErr != nil {
				return nil, createErr
			}
			if err := recordDerivation(env, "incident", incident.ID, "task", task.ID); err != nil {
				return nil, err
			}
			audit(env, task.ID, "created_from_incident", incident.Title)

			return Ok("Created %s-priority task %q from incident %q", task.Priority, task.Title, incident.Title).
				With("task", taskBrief(task)).
				With("sourceIncidentId", incident.ID).
				WithInverse("delete_task", map[string]any{"task": task.ID}), nil
		},
	}
}

func emailToIncidentTool() *Definition {
	return &Definition{
		Name:        "email_to_incident",
		Description: "Open an incident from an email report, carrying over the subject and body.",
		Params: []Param{
			{Name: "email", Type: TypeString, Description: "Email subject fragment or id", Required: true},
			{Name: "severity", Type: TypeString, Description: "Incident severity; defaults to sev3"},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			fragment, err := args.RequiredString("email")
			if err != nil {
				return Fail("%v", err), nil
			}

			email, failed, findErr := findEmail(env, fragment)
			if findErr != nil {
				return nil, findErr
			}
			if failed != nil {
				return failed, nil
			}

			severity := normalize.DefaultSeverity
			if raw, ok := args.String("severity"); ok {
				severity = normalize.Severity(raw)
			}

			incident, createErr := env.Store.CreateIncident(&store.Incident{
				Title:       email.Subject,
				Description: "Reported by " + email.From + "\n\n" + email.Body,
				Severity:    severity,
				Status:      store.IncidentOpen,
			})
			if createErr != nil {
				return nil, createErr
			}
			if err := recordDerivation(env, "email", email.ID, "incident", incident.ID); err != nil {
				return nil, err
			}

			email.Read = true
			if _, updateErr := env.Store.UpdateEmail(email); updateErr != nil {
				return nil, updateErr
			}
			audit(env, incident.ID, "opened_from_email", email.Subject)

			return Ok("Opened %s incident %q from email", incident.Severity, incident.Title).
				With("incident", incidentBrief(incident)).
				With("sourceEmailId", email.ID), nil
		},
	}
}
