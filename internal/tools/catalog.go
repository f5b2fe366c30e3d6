package tools

import (
	"github.com/dkeegan/taskpilot/internal/workflow"
)

// NewCatalog builds the full tool registry for a workflow. Descriptions of
// status-taking tools embed the workflow's columns, so the catalog must be
// rebuilt if the active workflow changes.
func NewCatalog(wf *workflow.Workflow) *Registry {
	r := NewRegistry()

	for _, group := range [][]*Definition{
		taskTools(wf),
		incidentTools(),
		emailTools(),
		projectTools(),
		relationTools(),
		scheduleTools(),
		collabTools(),
		reportTools(wf),
		convertTools(),
		triageTools(),
	} {
		for _, def := range group {
			r.MustRegister(def)
		}
	}

	return r
}
