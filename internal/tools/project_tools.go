package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeegan/taskpilot/internal/store"
)

func projectTools() []*Definition {
	return []*Definition{
		createProjectTool(),
		listProjectsTool(),
		moveTaskToProjectTool(),
	}
}

func createProjectTool() *Definition {
	return &Definition{
		Name:        "create_project",
		Description: "Create a new project to group tasks under.",
		Params: []Param{
			{Name: "name", Type: TypeString, Description: "Project name", Required: true},
			{Name: "description", Type: TypeString, Description: "What the project is about"},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			name, err := args.RequiredString("name")
			if err != nil {
				return Fail("%v", err), nil
			}

			project := &store.Project{Name: name}
			if desc, ok := args.String("description"); ok {
				project.Description = desc
			}

			created, createErr := env.Store.CreateProject(project)
			if createErr != nil {
				return nil, createErr
			}
			audit(env, created.ID, "project_created", name)

			return Ok("Created project %q", created.Name).
				With("project", map[string]any{"id": created.ID, "name": created.Name}), nil
		},
	}
}

func listProjectsTool() *Definition {
	return &Definition{
		Name:        "list_projects",
		Description: "List all projects with their task counts.",
		Params:      []Param{},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}
			if len(snap.Projects) == 0 {
				return Ok("No projects yet").With("projects", []map[string]any{}), nil
			}

			counts := make(map[string]int)
			for _, t := range snap.Tasks {
				if t.ProjectID != "" {
					counts[t.ProjectID]++
				}
			}

			var briefs []map[string]any
			var lines []string
			for _, p := range snap.Projects {
				briefs = append(briefs, map[string]any{
					"id":    p.ID,
					"name":  p.Name,
					"tasks": counts[p.ID],
				})
				lines = append(lines, fmt.Sprintf("- %s (%d task(s))", p.Name, counts[p.ID]))
			}

			return Ok("%d project(s):\n%s", len(briefs), strings.Join(lines, "\n")).
				With("projects", briefs), nil
		},
	}
}

func moveTaskToProjectTool() *Definition {
	return &Definition{
		Name:        "move_task_to_project",
		Description: "Move a task into a project, or pass 'none' to remove it from its project.",
		Params: []Param{
			{Name: "task", Type: TypeString, Description: "Task title fragment or id", Required: true},
			{Name: "project", Type: TypeString, Description: "Project name fragment or id, or 'none'", Required: true},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			taskFragment, err := args.RequiredString("task")
			if err != nil {
				return Fail("%v", err), nil
			}
			projectFragment, err := args.RequiredString("project")
			if err != nil {
				return Fail("%v", err), nil
			}

			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}
			task, notFound := findTask(snap, taskFragment)
			if notFound != nil {
				return notFound, nil
			}

			priorArg := task.ProjectID
			if priorArg == "" {
				priorArg = "none"
			}

			if strings.EqualFold(projectFragment, "none") {
				task.ProjectID = ""
				updated, updateErr := env.Store.UpdateTask(task)
				if updateErr != nil {
					return nil, updateErr
				}
				if updated == nil {
					return Fail("Task %q no longer exists", task.Title), nil
				}
				audit(env, task.ID, "project_cleared", "")
				return Ok("Removed %q from its project", task.Title).
					With("task", taskBrief(updated)).
					WithInverse("move_task_to_project", map[string]any{"task": task.ID, "project": priorArg}), nil
			}

			project, failed := findProject(snap, projectFragment)
			if failed != nil {
				return failed, nil
			}

			task.ProjectID = project.ID
			updated, updateErr := env.Store.UpdateTask(task)
			if updateErr != nil {
				return nil, updateErr
			}
			if updated == nil {
				return Fail("Task %q no longer exists", task.Title), nil
			}
			audit(env, task.ID, "project_moved", project.Name)

			return Ok("Moved %q into project %q", task.Title, project.Name).
				With("task", taskBrief(updated)).
				WithInverse("move_task_to_project", map[string]any{"task": task.ID, "project": priorArg}), nil
		},
	}
}
