package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeegan/taskpilot/internal/normalize"
	"github.com/dkeegan/taskpilot/internal/store"
)

func incidentTools() []*Definition {
	return []*Definition{
		createIncidentTool(),
		updateIncidentSeverityTool(),
		resolveIncidentTool(),
		listIncidentsTool(),
	}
}

// findIncident resolves an incident by exact id first, then by
// case-insensitive title substring, first match wins
func findIncident(env *Env, fragment string) (*store.Incident, *Result, error) {
	incidents, err := env.Store.ListIncidents()
	if err != nil {
		return nil, nil, err
	}
	for _, in := range incidents {
		if in.ID == fragment {
			return in, nil, nil
		}
	}
	needle := strings.ToLower(fragment)
	for _, in := range incidents {
		if strings.Contains(strings.ToLower(in.Title), needle) {
			return in, nil, nil
		}
	}
	return nil, Fail("No incident found matching %q", fragment), nil
}

func incidentBrief(in *store.Incident) map[string]any {
	brief := map[string]any{
		"id":       in.ID,
		"title":    in.Title,
		"severity": in.Severity,
		"status":   in.Status,
	}
	if in.ResolvedAt != nil {
		brief["resolvedAt"] = normalize.FormatDateTime(*in.ResolvedAt)
	}
	return brief
}

func createIncidentTool() *Definition {
	return &Definition{
		Name:        "create_incident",
		Description: "Open a new incident. Severity is normalized from free text (sev1-sev4, critical, major, minor, low).",
		Params: []Param{
			{Name: "title", Type: TypeString, Description: "Incident title", Required: true},
			{Name: "severity", Type: TypeString, Description: "Severity level; defaults to sev3"},
			{Name: "description", Type: TypeString, Description: "What is happening"},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			title, err := args.RequiredString("title")
			if err != nil {
				return Fail("%v", err), nil
			}

			severity := normalize.DefaultSeverity
			if raw, ok := args.String("severity"); ok {
				severity = normalize.Severity(raw)
			}

			incident := &store.Incident{
				Title:    title,
				Severity: severity,
				Status:   store.IncidentOpen,
			}
			if desc, ok := args.String("description"); ok {
				incident.Description = desc
			}

			created, createErr := env.Store.CreateIncident(incident)
			if createErr != nil {
				return nil, createErr
			}
			audit(env, created.ID, "incident_opened", severity)

			return Ok("Opened %s incident %q", created.Severity, created.Title).
				With("incident", incidentBrief(created)), nil
		},
	}
}

func updateIncidentSeverityTool() *Definition {
	return &Definition{
		Name:        "update_incident_severity",
		Description: "Change an incident's severity level.",
		Params: []Param{
			{Name: "incident", Type: TypeString, Description: "Incident title fragment or id", Required: true},
			{Name: "severity", Type: TypeString, Description: "New severity level", Required: true},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			fragment, err := args.RequiredString("incident")
			if err != nil {
				return Fail("%v", err), nil
			}
			raw, err := args.RequiredString("severity")
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

			prior := incident.Severity
			incident.Severity = normalize.Severity(raw)

			updated, updateErr := env.Store.UpdateIncident(incident)
			if updateErr != nil {
				return nil, updateErr
			}
			if updated == nil {
				return Fail("Incident %q no longer exists", incident.Title), nil
			}
			audit(env, incident.ID, "severity_changed", fmt.Sprintf("%s -> %s", prior, incident.Severity))

			return Ok("Changed severity of %q from %s to %s", incident.Title, prior, incident.Severity).
				With("incident", incidentBrief(updated)).
				WithInverse("update_incident_severity", map[string]any{"incident": incident.ID, "severity": prior}), nil
		},
	}
}

func resolveIncidentTool() *Definition {
	return &Definition{
		Name:        "resolve_incident",
		Description: "Mark an incident as resolved, recording the resolution time.",
		Params: []Param{
			{Name: "incident", Type: TypeString, Description: "Incident title fragment or id", Required: true},
			{Name: "note", Type: TypeString, Description: "Optional resolution note"},
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
			if incident.Status == store.IncidentResolved {
				return Ok("Incident %q is already resolved", incident.Title).
					With("incident", incidentBrief(incident)), nil
			}

			incident.Status = store.IncidentResolved
			now := env.Now()
			incident.ResolvedAt = &now

			updated, updateErr := env.Store.UpdateIncident(incident)
			if updateErr != nil {
				return nil, updateErr
			}
			if updated == nil {
				return Fail("Incident %q no longer exists", incident.Title), nil
			}

			detail := ""
			if note, ok := args.String("note"); ok {
				detail = note
			}
			audit(env, incident.ID, "incident_resolved", detail)

			elapsed := now.Sub(incident.CreatedAt)
			return Ok("Resolved incident %q after %s", incident.Title, normalize.FormatDuration(elapsed)).
				With("incident", incidentBrief(updated)), nil
		},
	}
}

func listIncidentsTool() *Definition {
	return &Definition{
		Name:        "list_incidents",
		Description: "List incidents, optionally filtered to open or resolved.",
		Params: []Param{
			{Name: "status", Type: TypeString, Description: "Filter by status", Enum: []string{store.IncidentOpen, store.IncidentResolved}},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			incidents, err := env.Store.ListIncidents()
			if err != nil {
				return nil, err
			}

			filter := ""
			if raw, ok := args.String("status"); ok {
				switch strings.ToLower(raw) {
				case store.IncidentOpen, store.IncidentResolved:
					filter = strings.ToLower(raw)
				default:
					return Fail("Unknown incident status %q. Valid values: %s, %s",
						raw, store.IncidentOpen, store.IncidentResolved), nil
				}
			}

			var briefs []map[string]any
			var lines []string
			for _, in := range incidents {
				if filter != "" && in.Status != filter {
					continue
				}
				briefs = append(briefs, incidentBrief(in))
				lines = append(lines, fmt.Sprintf("- [%s] %s (%s)", in.Severity, in.Title, in.Status))
			}

			if len(briefs) == 0 {
				return Ok("No incidents match").With("incidents", []map[string]any{}), nil
			}
			return Ok("%d incident(s):\n%s", len(briefs), strings.Join(lines, "\n")).
				With("incidents", briefs), nil
		},
	}
}
