package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeegan/taskpilot/internal/normalize"
	"github.com/dkeegan/taskpilot/internal/store"
	"github.com/dkeegan/taskpilot/internal/workflow"
)

// columnHint appends the active workflow's columns to a status parameter
// description so model callers see the valid values up front
func columnHint(wf *workflow.Workflow) string {
	return "Valid columns: " + strings.Join(wf.ColumnList(), ", ")
}

func taskTools(wf *workflow.Workflow) []*Definition {
	return []*Definition{
		createTaskTool(wf),
		getTaskTool(),
		listTasksTool(wf),
		updateTaskTool(),
		updateTaskStatusTool(wf),
		completeTaskTool(),
		assignTaskTool(),
		setDueDateTool(),
		setPriorityTool(),
		addSubtaskTool(),
		deleteTaskTool(),
		archiveDoneTasksTool(),
	}
}

func createTaskTool(wf *workflow.Workflow) *Definition {
	return &Definition{
		Name:        "create_task",
		Description: "Create a new task on the board. " + columnHint(wf),
		Params: []Param{
			{Name: "title", Type: TypeString, Description: "Task title", Required: true},
			{Name: "description", Type: TypeString, Description: "Longer task description"},
			{Name: "priority", Type: TypeString, Description: "Priority (urgent, high, medium, low, or aliases like p1/critical)"},
			{Name: "status", Type: TypeString, Description: "Starting status column; defaults to the first column"},
			{Name: "assignee", Type: TypeString, Description: "User to assign; 'me' assigns to yourself"},
			{Name: "project", Type: TypeString, Description: "Project to file the task under"},
			{Name: "due", Type: TypeString, Description: "Due date, e.g. 'tomorrow', 'next friday', '2026-04-01'"},
			{Name: "tags", Type: TypeString, Description: "Comma-separated tags"},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			title, err := args.RequiredString("title")
			if err != nil {
				return Fail("%v", err), nil
			}

			task := &store.Task{
				Title:    title,
				Status:   env.Workflow.FirstColumn(),
				Priority: normalize.DefaultPriority,
			}
			if desc, ok := args.String("description"); ok {
				task.Description = desc
			}
			if raw, ok := args.String("priority"); ok {
				task.Priority = normalize.Priority(raw)
			}
			if raw, ok := args.String("status"); ok {
				status, failed := resolveStatus(env, raw)
				if failed != nil {
					return failed, nil
				}
				task.Status = status
			}

			tags, listErr := args.StringList("tags")
			if listErr != nil {
				return Fail("%v", listErr), nil
			}
			task.Tags = tags

			if raw, ok := args.String("due"); ok {
				due, parsed := normalize.Date(raw, env.Now())
				if !parsed {
					return Fail("Could not understand due date %q; %s", raw, normalize.DateFormatsHint), nil
				}
				task.DueDate = &due
			}

			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}
			if raw, ok := args.String("assignee"); ok {
				user, failed := findUser(snap, raw)
				if failed != nil {
					return failed, nil
				}
				task.Assignee = user.ID
			}
			if raw, ok := args.String("project"); ok {
				project, failed := findProject(snap, raw)
				if failed != nil {
					return failed, nil
				}
				task.ProjectID = project.ID
			}

			created, createErr := env.Store.CreateTask(task)
			if createErr != nil {
				return nil, createErr
			}
			audit(env, created.ID, "created", fmt.Sprintf("task %q created", created.Title))

			return Ok("Created task %q with priority %s in column %s", created.Title, created.Priority, created.Status).
				With("task", taskBrief(created)).
				WithInverse("delete_task", map[string]any{"task": created.ID}), nil
		},
	}
}

func getTaskTool() *Definition {
	return &Definition{
		Name:        "get_task",
		Description: "Look up a single task by title fragment or id and return its details.",
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
			task, failed := findTask(snap, fragment)
			if failed != nil {
				return failed, nil
			}

			summary := fmt.Sprintf("%q is %s, priority %s", task.Title, task.Status, task.Priority)
			if task.Assignee != "" {
				summary += ", assigned to " + userName(snap, task.Assignee)
			}
			if task.DueDate != nil {
				summary += ", due " + normalize.FormatDate(*task.DueDate)
			}
			return Ok("%s", summary).With("task", taskBrief(task)), nil
		},
	}
}

func listTasksTool(wf *workflow.Workflow) *Definition {
	return &Definition{
		Name:        "list_tasks",
		Description: "List tasks, optionally filtered by status column, assignee or project. " + columnHint(wf),
		Params: []Param{
			{Name: "status", Type: TypeString, Description: "Only tasks in this status column"},
			{Name: "assignee", Type: TypeString, Description: "Only tasks assigned to this user; 'me' for yourself"},
			{Name: "project", Type: TypeString, Description: "Only tasks in this project"},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
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

			assignee := ""
			if raw, ok := args.String("assignee"); ok {
				user, failed := findUser(snap, raw)
				if failed != nil {
					return failed, nil
				}
				assignee = user.ID
			}

			projectID := ""
			if raw, ok := args.String("project"); ok {
				project, failed := findProject(snap, raw)
				if failed != nil {
					return failed, nil
				}
				projectID = project.ID
			}

			var briefs []map[string]any
			var lines []string
			for _, t := range snap.Tasks {
				if status != "" && t.Status != status {
					continue
				}
				if assignee != "" && t.Assignee != assignee {
					continue
				}
				if projectID != "" && t.ProjectID != projectID {
					continue
				}
				briefs = append(briefs, taskBrief(t))
				lines = append(lines, fmt.Sprintf("- %s [%s, %s]", t.Title, t.Status, t.Priority))
			}

			if len(briefs) == 0 {
				return Ok("No tasks match the given filters").With("tasks", []map[string]any{}), nil
			}
			return Ok("%d task(s):\n%s", len(briefs), strings.Join(lines, "\n")).
				With("tasks", briefs), nil
		},
	}
}

func updateTaskTool() *Definition {
	return &Definition{
		Name:        "update_task",
		Description: "Update a task's title or description.",
		Params: []Param{
			{Name: "task", Type: TypeString, Description: "Task title fragment or id", Required: true},
			{Name: "title", Type: TypeString, Description: "New title"},
			{Name: "description", Type: TypeString, Description: "New description"},
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
			task, failed := findTask(snap, fragment)
			if failed != nil {
				return failed, nil
			}

			newTitle, hasTitle := args.String("title")
			newDesc, hasDesc := args.String("description")
			if !hasTitle && !hasDesc {
				return Fail("Nothing to update: provide a new title or description"), nil
			}

			oldTitle := task.Title
			if hasTitle {
				task.Title = newTitle
			}
			if hasDesc {
				task.Description = newDesc
			}

			updated, updateErr := env.Store.UpdateTask(task)
			if updateErr != nil {
				return nil, updateErr
			}
			if updated == nil {
				return Fail("Task %q no longer exists", oldTitle), nil
			}
			audit(env, task.ID, "updated", "task fields edited")

			return Ok("Updated task %q", updated.Title).With("task", taskBrief(updated)), nil
		},
	}
}

func updateTaskStatusTool(wf *workflow.Workflow) *Definition {
	return &Definition{
		Name:        "update_task_status",
		Description: "Move a task to a different status column. " + columnHint(wf),
		Params: []Param{
			{Name: "task", Type: TypeString, Description: "Task title fragment or id", Required: true},
			{Name: "status", Type: TypeString, Description: "Target status column", Required: true},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			fragment, err := args.RequiredString("task")
			if err != nil {
				return Fail("%v", err), nil
			}
			rawStatus, err := args.RequiredString("status")
			if err != nil {
				return Fail("%v", err), nil
			}

			status, failed := resolveStatus(env, rawStatus)
			if failed != nil {
				return failed, nil
			}

			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}
			task, notFound := findTask(snap, fragment)
			if notFound != nil {
				return notFound, nil
			}

			prior := task.Status
			if prior == status {
				return Ok("Task %q is already in %s", task.Title, status).With("task", taskBrief(task)), nil
			}

			task.Status = status
			if isDone(env.Workflow, status) && task.CompletedAt == nil {
				now := env.Now()
				task.CompletedAt = &now
			}
			if !isDone(env.Workflow, status) {
				task.CompletedAt = nil
			}

			updated, updateErr := env.Store.UpdateTask(task)
			if updateErr != nil {
				return nil, updateErr
			}
			if updated == nil {
				return Fail("Task %q no longer exists", task.Title), nil
			}
			audit(env, task.ID, "status_changed", fmt.Sprintf("%s -> %s", prior, status))

			return Ok("Moved %q from %s to %s", task.Title, prior, status).
				With("task", taskBrief(updated)).
				With("priorStatus", prior).
				WithInverse("update_task_status", map[string]any{"task": task.ID, "status": prior}), nil
		},
	}
}

// isDone reports whether a column id is in the workflow's done category
func isDone(wf *workflow.Workflow, columnID string) bool {
	col, ok := wf.ColumnByID(columnID)
	return ok && col.Category == "done"
}

func completeTaskTool() *Definition {
	return &Definition{
		Name:        "complete_task",
		Description: "Mark a task as done by moving it to the workflow's first done-category column.",
		Params: []Param{
			{Name: "task", Type: TypeString, Description: "Task title fragment or id", Required: true},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			fragment, err := args.RequiredString("task")
			if err != nil {
				return Fail("%v", err), nil
			}

			done := env.Workflow.DoneColumns()
			if len(done) == 0 {
				return Fail("Workflow %s has no done-category column", env.Workflow.Name), nil
			}

			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}
			task, notFound := findTask(snap, fragment)
			if notFound != nil {
				return notFound, nil
			}

			prior := task.Status
			task.Status = done[0]
			now := env.Now()
			task.CompletedAt = &now

			updated, updateErr := env.Store.UpdateTask(task)
			if updateErr != nil {
				return nil, updateErr
			}
			if updated == nil {
				return Fail("Task %q no longer exists", task.Title), nil
			}
			audit(env, task.ID, "completed", fmt.Sprintf("%s -> %s", prior, task.Status))

			return Ok("Completed %q", task.Title).
				With("task", taskBrief(updated)).
				WithInverse("update_task_status", map[string]any{"task": task.ID, "status": prior}), nil
		},
	}
}

func assignTaskTool() *Definition {
	return &Definition{
		Name:        "assign_task",
		Description: "Assign a task to a user, or pass 'none' to clear the assignee.",
		Params: []Param{
			{Name: "task", Type: TypeString, Description: "Task title fragment or id", Required: true},
			{Name: "assignee", Type: TypeString, Description: "User name fragment, 'me' for yourself, or 'none' to unassign", Required: true},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			fragment, err := args.RequiredString("task")
			if err != nil {
				return Fail("%v", err), nil
			}
			who, err := args.RequiredString("assignee")
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

			prior := task.Assignee
			priorArg := prior
			if priorArg == "" {
				priorArg = "none"
			}

			if strings.EqualFold(who, "none") {
				task.Assignee = ""
				updated, updateErr := env.Store.UpdateTask(task)
				if updateErr != nil {
					return nil, updateErr
				}
				if updated == nil {
					return Fail("Task %q no longer exists", task.Title), nil
				}
				audit(env, task.ID, "unassigned", "")
				return Ok("Cleared assignee on %q", task.Title).
					With("task", taskBrief(updated)).
					WithInverse("assign_task", map[string]any{"task": task.ID, "assignee": priorArg}), nil
			}

			user, failed := findUser(snap, who)
			if failed != nil {
				return failed, nil
			}

			task.Assignee = user.ID
			updated, updateErr := env.Store.UpdateTask(task)
			if updateErr != nil {
				return nil, updateErr
			}
			if updated == nil {
				return Fail("Task %q no longer exists", task.Title), nil
			}
			audit(env, task.ID, "assigned", user.Name)

			return Ok("Assigned %q to %s", task.Title, user.Name).
				With("task", taskBrief(updated)).
				WithInverse("assign_task", map[string]any{"task": task.ID, "assignee": priorArg}), nil
		},
	}
}

func setDueDateTool() *Definition {
	return &Definition{
		Name:        "set_due_date",
		Description: "Set or clear a task's due date. Accepts natural language like 'tomorrow' or 'next friday', an optional time of day, or 'none' to clear.",
		Params: []Param{
			{Name: "task", Type: TypeString, Description: "Task title fragment or id", Required: true},
			{Name: "due", Type: TypeString, Description: "Due date, or 'none' to clear", Required: true},
			{Name: "time", Type: TypeString, Description: "Optional time of day, e.g. '17:00' or '5pm'"},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			fragment, err := args.RequiredString("task")
			if err != nil {
				return Fail("%v", err), nil
			}
			rawDue, err := args.RequiredString("due")
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

			priorArg := "none"
			if task.DueDate != nil {
				priorArg = task.DueDate.Format("2006-01-02")
			}

			if strings.EqualFold(rawDue, "none") {
				task.DueDate = nil
				updated, updateErr := env.Store.UpdateTask(task)
				if updateErr != nil {
					return nil, updateErr
				}
				if updated == nil {
					return Fail("Task %q no longer exists", task.Title), nil
				}
				audit(env, task.ID, "due_cleared", "")
				return Ok("Cleared due date on %q", task.Title).
					With("task", taskBrief(updated)).
					WithInverse("set_due_date", map[string]any{"task": task.ID, "due": priorArg}), nil
			}

			due, parsed := normalize.Date(rawDue, env.Now())
			if !parsed {
				return Fail("Could not understand due date %q; %s", rawDue, normalize.DateFormatsHint), nil
			}
			if rawTime, ok := args.String("time"); ok {
				at, timeParsed := normalize.TimeOfDay(rawTime, due)
				if !timeParsed {
					return Fail("Could not understand time %q; accepted formats: HH:MM, H:MM am/pm, or 5pm", rawTime), nil
				}
				due = at
			}

			task.DueDate = &due
			updated, updateErr := env.Store.UpdateTask(task)
			if updateErr != nil {
				return nil, updateErr
			}
			if updated == nil {
				return Fail("Task %q no longer exists", task.Title), nil
			}
			audit(env, task.ID, "due_set", normalize.FormatDateTime(due))

			return Ok("Set due date on %q to %s", task.Title, normalize.FormatDateTime(due)).
				With("task", taskBrief(updated)).
				WithInverse("set_due_date", map[string]any{"task": task.ID, "due": priorArg}), nil
		},
	}
}

func setPriorityTool() *Definition {
	return &Definition{
		Name:        "set_priority",
		Description: "Change a task's priority. Free-text levels like 'p1', 'critical' or 'minor' are normalized.",
		Params: []Param{
			{Name: "task", Type: TypeString, Description: "Task title fragment or id", Required: true},
			{Name: "priority", Type: TypeString, Description: "New priority level", Required: true},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			fragment, err := args.RequiredString("task")
			if err != nil {
				return Fail("%v", err), nil
			}
			raw, err := args.RequiredString("priority")
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

			prior := task.Priority
			task.Priority = normalize.Priority(raw)

			updated, updateErr := env.Store.UpdateTask(task)
			if updateErr != nil {
				return nil, updateErr
			}
			if updated == nil {
				return Fail("Task %q no longer exists", task.Title), nil
			}
			audit(env, task.ID, "priority_changed", fmt.Sprintf("%s -> %s", prior, task.Priority))

			return Ok("Set priority of %q to %s", task.Title, task.Priority).
				With("task", taskBrief(updated)).
				WithInverse("set_priority", map[string]any{"task": task.ID, "priority": prior}), nil
		},
	}
}

func addSubtaskTool() *Definition {
	return &Definition{
		Name:        "add_subtask",
		Description: "Create a subtask under an existing parent task.",
		Params: []Param{
			{Name: "parent", Type: TypeString, Description: "Parent task title fragment or id", Required: true},
			{Name: "title", Type: TypeString, Description: "Subtask title", Required: true},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			parentFragment, err := args.RequiredString("parent")
			if err != nil {
				return Fail("%v", err), nil
			}
			title, err := args.RequiredString("title")
			if err != nil {
				return Fail("%v", err), nil
			}

			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}
			parent, notFound := findTask(snap, parentFragment)
			if notFound != nil {
				return notFound, nil
			}

			created, createErr := env.Store.CreateTask(&store.Task{
				Title:     title,
				Status:    env.Workflow.FirstColumn(),
				Priority:  parent.Priority,
				ParentID:  parent.ID,
				ProjectID: parent.ProjectID,
			})
			if createErr != nil {
				return nil, createErr
			}
			audit(env, parent.ID, "subtask_added", title)

			return Ok("Added subtask %q under %q", created.Title, parent.Title).
				With("task", taskBrief(created)).
				WithInverse("delete_task", map[string]any{"task": created.ID}), nil
		},
	}
}

func deleteTaskTool() *Definition {
	return &Definition{
		Name:        "delete_task",
		Description: "Permanently delete a task. This cannot be undone.",
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

			deleted, deleteErr := env.Store.DeleteTask(task.ID)
			if deleteErr != nil {
				return nil, deleteErr
			}
			if !deleted {
				return Fail("Task %q no longer exists", task.Title), nil
			}

			return Ok("Deleted task %q", task.Title).With("taskId", task.ID), nil
		},
	}
}

func archiveDoneTasksTool() *Definition {
	return &Definition{
		Name:        "archive_done_tasks",
		Description: "Archive every task sitting in a done-category column of the active workflow.",
		Params:      []Param{},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			done := env.Workflow.DoneColumns()
			if len(done) == 0 {
				return Fail("Workflow %s has no done-category column", env.Workflow.Name), nil
			}
			doneSet := make(map[string]bool, len(done))
			for _, id := range done {
				doneSet[id] = true
			}

			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}

			archived := 0
			for _, t := range snap.Tasks {
				if err := requireContext(ctx, "archive_done_tasks"); err != nil {
					return nil, err
				}
				if !doneSet[t.Status] {
					continue
				}
				ok, archiveErr := env.Store.ArchiveTask(t.ID)
				if archiveErr != nil {
					return nil, archiveErr
				}
				if ok {
					archived++
					audit(env, t.ID, "archived", "")
				}
			}

			if archived == 0 {
				return Ok("No tasks in done columns to archive"), nil
			}
			return Ok("Archived %d completed task(s)", archived).With("archived", archived), nil
		},
	}
}
