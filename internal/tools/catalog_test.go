package tools

import (
	"strings"
	"testing"
	"time"

	"github.com/dkeegan/taskpilot/internal/store"
)

func TestIncidentLifecycle(t *testing.T) {
	e, s := newTestEngine(t)

	res := exec(t, e, "create_incident", map[string]any{
		"title":    "Checkout errors spiking",
		"severity": "critical",
	})
	if !res.Success {
		t.Fatalf("create_incident failed: %s", res.Message)
	}

	incidents, _ := s.ListIncidents()
	if len(incidents) != 1 {
		t.Fatalf("got %d incidents, want 1", len(incidents))
	}
	if incidents[0].Severity != "sev1" {
		t.Errorf("severity = %q, want sev1 from 'critical'", incidents[0].Severity)
	}

	res = exec(t, e, "update_incident_severity", map[string]any{
		"incident": "checkout",
		"severity": "major",
	})
	if !res.Success {
		t.Fatalf("update_incident_severity failed: %s", res.Message)
	}
	if res.Inverse == nil || res.Inverse.Arguments["severity"] != "sev1" {
		t.Errorf("inverse = %+v, want severity restored to sev1", res.Inverse)
	}

	res = exec(t, e, "resolve_incident", map[string]any{"incident": "checkout"})
	if !res.Success {
		t.Fatalf("resolve_incident failed: %s", res.Message)
	}
	got, _ := s.GetIncident(incidents[0].ID)
	if got.Status != store.IncidentResolved || got.ResolvedAt == nil {
		t.Errorf("incident not resolved: %+v", got)
	}

	// resolving again is a no-op success
	res = exec(t, e, "resolve_incident", map[string]any{"incident": "checkout"})
	if !res.Success || !strings.Contains(res.Message, "already resolved") {
		t.Errorf("second resolve: success=%v message=%q", res.Success, res.Message)
	}
}

func TestListIncidentsRejectsBadFilter(t *testing.T) {
	e, _ := newTestEngine(t)

	res := exec(t, e, "list_incidents", map[string]any{"status": "pending"})
	if res.Success {
		t.Fatal("expected failure for unknown incident status")
	}
	if !strings.Contains(res.Message, "open") || !strings.Contains(res.Message, "resolved") {
		t.Errorf("message %q should list valid values", res.Message)
	}
}

func TestEmailArchiveHidesFromInbox(t *testing.T) {
	e, s := newTestEngine(t)

	s.CreateEmail(&store.Email{From: "alex@example.com", Subject: "Standup notes"})
	s.CreateEmail(&store.Email{From: "ci@example.com", Subject: "Build failed on main"})

	res := exec(t, e, "archive_email", map[string]any{"email": "standup"})
	if !res.Success {
		t.Fatalf("archive_email failed: %s", res.Message)
	}

	res = exec(t, e, "list_emails", nil)
	if !res.Success {
		t.Fatalf("list_emails failed: %s", res.Message)
	}
	if strings.Contains(res.Message, "Standup notes") {
		t.Error("archived email still listed")
	}
	if !strings.Contains(res.Message, "Build failed on main") {
		t.Error("live email missing from listing")
	}
}

func TestSendEmailResolvesRecipientName(t *testing.T) {
	e, s := newTestEngine(t)
	s.AddUser(&store.User{Name: "Sarah Chen", Email: "sarah@example.com"})

	res := exec(t, e, "send_email", map[string]any{
		"to":      "sarah",
		"subject": "Sprint recap",
	})
	if !res.Success {
		t.Fatalf("send_email failed: %s", res.Message)
	}

	emails, _ := s.ListEmails()
	var sent *store.Email
	for _, m := range emails {
		if m.Subject == "Sprint recap" {
			sent = m
		}
	}
	if sent == nil {
		t.Fatal("sent email not stored")
	}
	if sent.To != "sarah@example.com" {
		t.Errorf("to = %q, want resolved address", sent.To)
	}
}

func TestMoveTaskToProject(t *testing.T) {
	e, s := newTestEngine(t)

	s.CreateProject(&store.Project{Name: "Website Redesign"})
	created, _ := s.CreateTask(&store.Task{Title: "Update hero copy", Status: "todo", Priority: "medium"})

	res := exec(t, e, "move_task_to_project", map[string]any{"task": "hero", "project": "website"})
	if !res.Success {
		t.Fatalf("move_task_to_project failed: %s", res.Message)
	}

	got, _ := s.GetTask(created.ID)
	if got.ProjectID == "" {
		t.Error("task not moved into project")
	}
	if res.Inverse == nil || res.Inverse.Arguments["project"] != "none" {
		t.Errorf("inverse = %+v, want project restored to none", res.Inverse)
	}
}

func TestBlockerRoundTrip(t *testing.T) {
	e, s := newTestEngine(t)

	s.CreateTask(&store.Task{Title: "Design API", Status: "in-progress", Priority: "high"})
	s.CreateTask(&store.Task{Title: "Build client", Status: "todo", Priority: "medium"})

	res := exec(t, e, "add_blocker", map[string]any{"blocker": "design api", "blocked": "build client"})
	if !res.Success {
		t.Fatalf("add_blocker failed: %s", res.Message)
	}

	// duplicates are tolerated without a second link
	res = exec(t, e, "add_blocker", map[string]any{"blocker": "design api", "blocked": "build client"})
	if !res.Success || !strings.Contains(res.Message, "already blocks") {
		t.Errorf("duplicate add_blocker: success=%v message=%q", res.Success, res.Message)
	}

	res = exec(t, e, "remove_blocker", map[string]any{"blocker": "design api", "blocked": "build client"})
	if !res.Success {
		t.Fatalf("remove_blocker failed: %s", res.Message)
	}

	res = exec(t, e, "remove_blocker", map[string]any{"blocker": "design api", "blocked": "build client"})
	if res.Success {
		t.Fatal("removing an absent blocker should fail")
	}
}

func TestLinkTaskToItselfRejected(t *testing.T) {
	e, s := newTestEngine(t)
	s.CreateTask(&store.Task{Title: "Solo task", Status: "todo", Priority: "medium"})

	res := exec(t, e, "link_tasks", map[string]any{"task": "solo", "other": "solo"})
	if res.Success {
		t.Fatal("expected failure linking a task to itself")
	}
}

func TestSetReminderRejectsPast(t *testing.T) {
	e, s := newTestEngine(t)
	s.CreateTask(&store.Task{Title: "Prep demo", Status: "todo", Priority: "medium"})

	res := exec(t, e, "set_reminder", map[string]any{"task": "demo", "when": "yesterday"})
	if res.Success {
		t.Fatal("expected failure for past reminder")
	}
	if !strings.Contains(res.Message, "in the past") {
		t.Errorf("message = %q", res.Message)
	}
}

func TestScheduleMeetingIncludesSelf(t *testing.T) {
	e, s := newTestEngine(t)
	s.AddUser(&store.User{Name: "Mike Johnson"})

	res := exec(t, e, "schedule_meeting", map[string]any{
		"title":     "Sprint planning",
		"when":      "tomorrow",
		"time":      "10:00",
		"duration":  "45m",
		"attendees": "mike",
	})
	if !res.Success {
		t.Fatalf("schedule_meeting failed: %s", res.Message)
	}
	if !strings.Contains(res.Message, "Mike Johnson") {
		t.Errorf("message %q should name the attendee", res.Message)
	}
	me, _ := s.CurrentUser()
	if !strings.Contains(res.Message, me.Name) {
		t.Errorf("message %q should include the organizer", res.Message)
	}
}

func TestSummarizeBoard(t *testing.T) {
	e, s := newTestEngine(t)

	due := testClock.AddDate(0, 0, -2)
	s.CreateTask(&store.Task{Title: "Overdue one", Status: "todo", Priority: "high", DueDate: &due})
	s.CreateTask(&store.Task{Title: "Fresh", Status: "backlog", Priority: "medium"})

	res := exec(t, e, "summarize_board", nil)
	if !res.Success {
		t.Fatalf("summarize_board failed: %s", res.Message)
	}
	if res.Data["total"] != 2 || res.Data["overdue"] != 1 || res.Data["unassigned"] != 2 {
		t.Errorf("summary data = %v", res.Data)
	}
	if !strings.Contains(res.Message, "To Do: 1") {
		t.Errorf("message %q should show per-column counts", res.Message)
	}
}

func TestCycleTimeReport(t *testing.T) {
	e, s := newTestEngine(t)

	created, _ := s.CreateTask(&store.Task{Title: "Shipped", Status: "done", Priority: "medium"})
	created.CreatedAt = testClock.Add(-48 * time.Hour)
	done := testClock
	created.CompletedAt = &done
	s.UpdateTask(created)

	res := exec(t, e, "cycle_time_report", nil)
	if !res.Success {
		t.Fatalf("cycle_time_report failed: %s", res.Message)
	}
	if res.Data["completed"] != 1 {
		t.Errorf("completed = %v, want 1", res.Data["completed"])
	}
	if hours, ok := res.Data["averageHours"].(float64); !ok || hours != 48 {
		t.Errorf("averageHours = %v, want 48", res.Data["averageHours"])
	}
}

func TestExportTasksCSV(t *testing.T) {
	e, s := newTestEngine(t)
	s.CreateTask(&store.Task{Title: "Alpha", Status: "todo", Priority: "high"})
	s.CreateTask(&store.Task{Title: "Beta", Status: "done", Priority: "low"})

	res := exec(t, e, "export_tasks", map[string]any{"format": "csv", "status": "todo"})
	if !res.Success {
		t.Fatalf("export_tasks failed: %s", res.Message)
	}
	content, _ := res.Data["content"].(string)
	if !strings.Contains(content, "Alpha") {
		t.Error("csv missing filtered task")
	}
	if strings.Contains(content, "Beta") {
		t.Error("csv contains task outside the status filter")
	}
	if !strings.HasPrefix(content, "id,title,status") {
		t.Errorf("csv header = %q", strings.SplitN(content, "\n", 2)[0])
	}
}

func TestEmailToTask(t *testing.T) {
	e, s := newTestEngine(t)
	email, _ := s.CreateEmail(&store.Email{From: "ops@example.com", Subject: "Renew TLS cert", Body: "Expires next month"})

	res := exec(t, e, "email_to_task", map[string]any{"email": "tls", "priority": "p1"})
	if !res.Success {
		t.Fatalf("email_to_task failed: %s", res.Message)
	}

	tasks, _ := s.ListTasks()
	if len(tasks) != 1 || tasks[0].Title != "Renew TLS cert" {
		t.Fatalf("tasks = %v", tasks)
	}
	if tasks[0].Priority != "urgent" {
		t.Errorf("priority = %q, want urgent from p1", tasks[0].Priority)
	}

	got, _ := s.GetEmail(email.ID)
	if !got.Archived {
		t.Error("source email should be archived")
	}

	links, _ := s.ListLinks(tasks[0].ID)
	found := false
	for _, l := range links {
		if l.Kind == store.LinkDerivedFrom && l.SourceID == email.ID {
			found = true
		}
	}
	if !found {
		t.Error("derived-from link to source email not recorded")
	}
}

func TestIncidentToTaskSeverityMapping(t *testing.T) {
	e, s := newTestEngine(t)
	s.CreateIncident(&store.Incident{Title: "DB failover", Severity: "sev1", Status: store.IncidentOpen})

	res := exec(t, e, "incident_to_task", map[string]any{"incident": "failover"})
	if !res.Success {
		t.Fatalf("incident_to_task failed: %s", res.Message)
	}

	tasks, _ := s.ListTasks()
	if len(tasks) != 1 {
		t.Fatalf("tasks = %v", tasks)
	}
	if tasks[0].Priority != "urgent" {
		t.Errorf("priority = %q, want urgent for sev1", tasks[0].Priority)
	}
	if tasks[0].Title != "Follow up: DB failover" {
		t.Errorf("title = %q", tasks[0].Title)
	}
}

func TestEmailToIncident(t *testing.T) {
	e, s := newTestEngine(t)
	s.CreateEmail(&store.Email{From: "alerts@example.com", Subject: "API latency alert", Body: "p99 over 2s"})

	res := exec(t, e, "email_to_incident", map[string]any{"email": "latency", "severity": "degraded"})
	if !res.Success {
		t.Fatalf("email_to_incident failed: %s", res.Message)
	}

	incidents, _ := s.ListIncidents()
	if len(incidents) != 1 || incidents[0].Severity != "sev2" {
		t.Fatalf("incidents = %v, want one sev2", incidents)
	}
}

func TestTriageTask(t *testing.T) {
	e, s := newTestEngine(t)
	created, _ := s.CreateTask(&store.Task{
		Title:    "Crash on checkout in production",
		Status:   "backlog",
		Priority: "medium",
	})

	res := exec(t, e, "triage_task", map[string]any{"task": "checkout"})
	if !res.Success {
		t.Fatalf("triage_task failed: %s", res.Message)
	}

	got, _ := s.GetTask(created.ID)
	if got.Priority != "urgent" {
		t.Errorf("priority = %q, want urgent for production crash", got.Priority)
	}
	hasBugTag := false
	for _, tag := range got.Tags {
		if tag == "bug" {
			hasBugTag = true
		}
	}
	if !hasBugTag {
		t.Errorf("tags = %v, want bug tag from crash keyword", got.Tags)
	}
	if res.Inverse == nil || res.Inverse.Arguments["priority"] != "medium" {
		t.Errorf("inverse = %+v, want prior priority restored", res.Inverse)
	}
}

func TestTriageSuggestsAssigneeFromText(t *testing.T) {
	e, s := newTestEngine(t)
	s.AddUser(&store.User{Name: "Sarah Chen", Email: "sarah@example.com"})
	created, _ := s.CreateTask(&store.Task{
		Title:    "Ask Sarah about the billing bug",
		Status:   "backlog",
		Priority: "medium",
	})

	res := exec(t, e, "triage_task", map[string]any{"task": "billing"})
	if !res.Success {
		t.Fatalf("triage_task failed: %s", res.Message)
	}
	if res.Data["suggestedAssignee"] != "Sarah Chen" {
		t.Errorf("suggestedAssignee = %v", res.Data["suggestedAssignee"])
	}

	got, _ := s.GetTask(created.ID)
	if got.Assignee != "" {
		t.Error("triage applied the assignee instead of suggesting it")
	}
}

func TestSLAStatus(t *testing.T) {
	e, s := newTestEngine(t)

	breached, _ := s.CreateTask(&store.Task{Title: "Old urgent", Status: "todo", Priority: "urgent"})
	breached.CreatedAt = testClock.Add(-48 * time.Hour)
	s.UpdateTask(breached)

	fresh, _ := s.CreateTask(&store.Task{Title: "Fresh low", Status: "todo", Priority: "low"})
	fresh.CreatedAt = testClock.Add(-time.Hour)
	s.UpdateTask(fresh)

	res := exec(t, e, "sla_status", nil)
	if !res.Success {
		t.Fatalf("sla_status failed: %s", res.Message)
	}
	if res.Data["breached"] != 1 {
		t.Errorf("breached = %v, want 1", res.Data["breached"])
	}
	if !strings.Contains(res.Message, "Old urgent") {
		t.Errorf("message %q should name the breaching task", res.Message)
	}
}

func TestAddCommentAndActivity(t *testing.T) {
	e, s := newTestEngine(t)
	created, _ := s.CreateTask(&store.Task{Title: "Review PR", Status: "todo", Priority: "medium"})

	res := exec(t, e, "add_comment", map[string]any{"task": "review", "body": "looks good overall"})
	if !res.Success {
		t.Fatalf("add_comment failed: %s", res.Message)
	}

	res = exec(t, e, "get_activity", map[string]any{"task": "review"})
	if !res.Success {
		t.Fatalf("get_activity failed: %s", res.Message)
	}
	if !strings.Contains(res.Message, "looks good overall") {
		t.Errorf("activity %q should include the comment", res.Message)
	}

	comments, _ := s.ListComments(created.ID)
	if len(comments) != 1 {
		t.Errorf("comments = %d, want 1", len(comments))
	}
}
