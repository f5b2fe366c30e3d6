package tools

import (
	"strings"
	"testing"
	"time"

	"github.com/dkeegan/taskpilot/internal/store"
)

func TestCreateTaskDefaults(t *testing.T) {
	e, s := newTestEngine(t)

	res := exec(t, e, "create_task", map[string]any{"title": "Fix login bug"})
	if !res.Success {
		t.Fatalf("create_task failed: %s", res.Message)
	}

	tasks, _ := s.ListTasks()
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	if tasks[0].Status != "backlog" {
		t.Errorf("status = %q, want first column backlog", tasks[0].Status)
	}
	if tasks[0].Priority != "medium" {
		t.Errorf("priority = %q, want default medium", tasks[0].Priority)
	}
	if res.Inverse == nil || res.Inverse.Function != "delete_task" {
		t.Error("create_task result missing delete_task inverse")
	}
}

func TestCreateTaskMissingTitle(t *testing.T) {
	e, s := newTestEngine(t)

	res := exec(t, e, "create_task", map[string]any{"priority": "high"})
	if res.Success {
		t.Fatal("expected failure without title")
	}
	if !strings.Contains(res.Message, "missing required parameter: title") {
		t.Errorf("message = %q", res.Message)
	}
	if tasks, _ := s.ListTasks(); len(tasks) != 0 {
		t.Error("failed create_task should not persist anything")
	}
}

func TestCreateTaskRejectsUnknownStatus(t *testing.T) {
	e, s := newTestEngine(t)

	res := exec(t, e, "create_task", map[string]any{
		"title":  "Ship the thing",
		"status": "shipped",
	})
	if res.Success {
		t.Fatal("expected failure for unknown status")
	}
	if !strings.Contains(res.Message, `unknown status "shipped"`) {
		t.Errorf("message = %q", res.Message)
	}
	if !strings.Contains(res.Message, "To Do (todo)") {
		t.Errorf("message %q should list the valid columns", res.Message)
	}
	if tasks, _ := s.ListTasks(); len(tasks) != 0 {
		t.Error("unvalidated status must never be written")
	}
}

func TestUpdateTaskStatusAliasAndInverse(t *testing.T) {
	e, s := newTestEngine(t)

	created, _ := s.CreateTask(&store.Task{Title: "Fix login bug", Status: "todo", Priority: "high"})

	res := exec(t, e, "update_task_status", map[string]any{
		"task":   "login",
		"status": "Doing", // alias for the in-progress category column
	})
	if !res.Success {
		t.Fatalf("update_task_status failed: %s", res.Message)
	}

	got, _ := s.GetTask(created.ID)
	if got.Status != "in-progress" {
		t.Errorf("status = %q, want in-progress", got.Status)
	}
	if res.Inverse == nil {
		t.Fatal("missing inverse")
	}
	if res.Inverse.Function != "update_task_status" || res.Inverse.Arguments["status"] != "todo" {
		t.Errorf("inverse = %+v, want update_task_status back to todo", res.Inverse)
	}
}

func TestCompleteTaskSetsCompletedAt(t *testing.T) {
	e, s := newTestEngine(t)

	created, _ := s.CreateTask(&store.Task{Title: "Write release notes", Status: "todo", Priority: "low"})

	res := exec(t, e, "complete_task", map[string]any{"task": "release notes"})
	if !res.Success {
		t.Fatalf("complete_task failed: %s", res.Message)
	}

	got, _ := s.GetTask(created.ID)
	if got.Status != "done" {
		t.Errorf("status = %q, want done", got.Status)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(testClock) {
		t.Errorf("completedAt = %v, want test clock", got.CompletedAt)
	}
}

func TestAssignTaskNoneClearsAssignee(t *testing.T) {
	e, s := newTestEngine(t)

	sarah := s.AddUser(&store.User{Name: "Sarah Chen"})
	created, _ := s.CreateTask(&store.Task{Title: "Audit deps", Status: "todo", Priority: "medium", Assignee: sarah.ID})

	res := exec(t, e, "assign_task", map[string]any{"task": "audit", "assignee": "none"})
	if !res.Success {
		t.Fatalf("assign_task failed: %s", res.Message)
	}

	got, _ := s.GetTask(created.ID)
	if got.Assignee != "" {
		t.Errorf("assignee = %q, want cleared", got.Assignee)
	}
	if res.Inverse == nil || res.Inverse.Arguments["assignee"] != sarah.ID {
		t.Errorf("inverse should restore %s, got %+v", sarah.ID, res.Inverse)
	}
}

func TestAssignTaskSelfLiteral(t *testing.T) {
	e, s := newTestEngine(t)

	created, _ := s.CreateTask(&store.Task{Title: "Audit deps", Status: "todo", Priority: "medium"})

	res := exec(t, e, "assign_task", map[string]any{"task": "audit", "assignee": "me"})
	if !res.Success {
		t.Fatalf("assign_task failed: %s", res.Message)
	}

	me, _ := s.CurrentUser()
	got, _ := s.GetTask(created.ID)
	if got.Assignee != me.ID {
		t.Errorf("assignee = %q, want current user %s", got.Assignee, me.ID)
	}
}

func TestSetDueDateNaturalLanguage(t *testing.T) {
	e, s := newTestEngine(t)

	created, _ := s.CreateTask(&store.Task{Title: "Prep demo", Status: "todo", Priority: "medium"})

	res := exec(t, e, "set_due_date", map[string]any{"task": "demo", "due": "next friday", "time": "5pm"})
	if !res.Success {
		t.Fatalf("set_due_date failed: %s", res.Message)
	}

	got, _ := s.GetTask(created.ID)
	// test clock is Wednesday 2026-03-11; next friday is 2026-03-13 at 17:00
	want := time.Date(2026, time.March, 13, 17, 0, 0, 0, time.UTC)
	if got.DueDate == nil || !got.DueDate.Equal(want) {
		t.Errorf("dueDate = %v, want %v", got.DueDate, want)
	}
}

func TestSetDueDateRejectsGibberish(t *testing.T) {
	e, s := newTestEngine(t)
	s.CreateTask(&store.Task{Title: "Prep demo", Status: "todo", Priority: "medium"})

	res := exec(t, e, "set_due_date", map[string]any{"task": "demo", "due": "whenever it rains"})
	if res.Success {
		t.Fatal("expected failure for unparseable date")
	}
	if !strings.Contains(res.Message, "accepted formats") {
		t.Errorf("message %q should include the format hint", res.Message)
	}
}

func TestFindTaskSuggestsCandidates(t *testing.T) {
	e, s := newTestEngine(t)
	s.CreateTask(&store.Task{Title: "Fix login bug", Status: "todo", Priority: "high"})

	res := exec(t, e, "get_task", map[string]any{"task": "logn bug"})
	if res.Success {
		t.Fatal("expected not-found failure")
	}
	if !strings.Contains(res.Message, "Did you mean") || !strings.Contains(res.Message, "Fix login bug") {
		t.Errorf("message = %q, want candidate suggestion", res.Message)
	}
}

func TestListTasksFilters(t *testing.T) {
	e, s := newTestEngine(t)

	sarah := s.AddUser(&store.User{Name: "Sarah Chen"})
	s.CreateTask(&store.Task{Title: "A", Status: "todo", Priority: "medium", Assignee: sarah.ID})
	s.CreateTask(&store.Task{Title: "B", Status: "done", Priority: "medium", Assignee: sarah.ID})
	s.CreateTask(&store.Task{Title: "C", Status: "todo", Priority: "medium"})

	res := exec(t, e, "list_tasks", map[string]any{"status": "to do", "assignee": "sarah"})
	if !res.Success {
		t.Fatalf("list_tasks failed: %s", res.Message)
	}
	briefs, ok := res.Data["tasks"].([]map[string]any)
	if !ok || len(briefs) != 1 {
		t.Fatalf("tasks = %v, want exactly one match", res.Data["tasks"])
	}
	if briefs[0]["title"] != "A" {
		t.Errorf("matched %v, want A", briefs[0]["title"])
	}
}

func TestAddSubtaskInheritsParent(t *testing.T) {
	e, s := newTestEngine(t)

	project, _ := s.CreateProject(&store.Project{Name: "Website"})
	parent, _ := s.CreateTask(&store.Task{Title: "Redesign landing", Status: "in-progress", Priority: "high", ProjectID: project.ID})

	res := exec(t, e, "add_subtask", map[string]any{"parent": "landing", "title": "Pick hero image"})
	if !res.Success {
		t.Fatalf("add_subtask failed: %s", res.Message)
	}

	tasks, _ := s.ListTasks()
	var sub *store.Task
	for _, task := range tasks {
		if task.Title == "Pick hero image" {
			sub = task
		}
	}
	if sub == nil {
		t.Fatal("subtask not created")
	}
	if sub.ParentID != parent.ID {
		t.Errorf("parentId = %q, want %s", sub.ParentID, parent.ID)
	}
	if sub.ProjectID != project.ID || sub.Priority != "high" {
		t.Errorf("subtask should inherit project and priority, got %+v", sub)
	}
	if sub.Status != "backlog" {
		t.Errorf("subtask status = %q, want first column", sub.Status)
	}
}

func TestArchiveDoneTasks(t *testing.T) {
	e, s := newTestEngine(t)

	s.CreateTask(&store.Task{Title: "Done one", Status: "done", Priority: "medium"})
	s.CreateTask(&store.Task{Title: "Done two", Status: "done", Priority: "medium"})
	s.CreateTask(&store.Task{Title: "Still open", Status: "todo", Priority: "medium"})

	res := exec(t, e, "archive_done_tasks", nil)
	if !res.Success {
		t.Fatalf("archive_done_tasks failed: %s", res.Message)
	}
	if res.Data["archived"] != 2 {
		t.Errorf("archived = %v, want 2", res.Data["archived"])
	}

	remaining, _ := s.ListTasks()
	if len(remaining) != 1 || remaining[0].Title != "Still open" {
		t.Errorf("remaining = %v, want only the open task", remaining)
	}
}

func TestDeleteTaskHasNoInverse(t *testing.T) {
	e, s := newTestEngine(t)
	s.CreateTask(&store.Task{Title: "Scrap this", Status: "todo", Priority: "low"})

	res := exec(t, e, "delete_task", map[string]any{"task": "scrap"})
	if !res.Success {
		t.Fatalf("delete_task failed: %s", res.Message)
	}
	if res.Inverse != nil {
		t.Error("delete_task must not claim to be reversible")
	}
}
