package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// openStores returns both implementations so the shared behavior tests run
// against each
func openStores(t *testing.T) map[string]Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "taskpilot-store-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	sqlite, err := NewSQLiteStore(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"sqlite": sqlite,
		"memory": NewMemStore(),
	}
}

func TestTaskCRUD(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			due := time.Now().Add(48 * time.Hour).Truncate(time.Second)
			created, err := s.CreateTask(&Task{
				Title:    "Fix login bug",
				Status:   "todo",
				Priority: "high",
				Tags:     []string{"auth", "frontend"},
				DueDate:  &due,
			})
			if err != nil {
				t.Fatalf("CreateTask failed: %v", err)
			}
			if created.ID == "" {
				t.Fatal("CreateTask should assign an id")
			}

			got, err := s.GetTask(created.ID)
			if err != nil {
				t.Fatalf("GetTask failed: %v", err)
			}
			if got == nil || got.Title != "Fix login bug" {
				t.Fatalf("GetTask returned %+v", got)
			}
			if len(got.Tags) != 2 || got.Tags[0] != "auth" {
				t.Errorf("Tags round-trip failed: %v", got.Tags)
			}
			if got.DueDate == nil {
				t.Error("DueDate round-trip failed")
			}

			got.Status = "in-progress"
			if _, err := s.UpdateTask(got); err != nil {
				t.Fatalf("UpdateTask failed: %v", err)
			}
			again, _ := s.GetTask(created.ID)
			if again.Status != "in-progress" {
				t.Errorf("Status not persisted: %s", again.Status)
			}

			// Missing task lookups return nil, not an error
			missing, err := s.GetTask("no-such-id")
			if err != nil || missing != nil {
				t.Errorf("GetTask(missing) = %v, %v; want nil, nil", missing, err)
			}

			ok, err := s.DeleteTask(created.ID)
			if err != nil || !ok {
				t.Fatalf("DeleteTask = %v, %v", ok, err)
			}
			ok, _ = s.DeleteTask(created.ID)
			if ok {
				t.Error("Second delete should report not found")
			}
		})
	}
}

func TestArchiveHidesTaskFromList(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			created, err := s.CreateTask(&Task{Title: "Old chore", Status: "done", Priority: "low"})
			if err != nil {
				t.Fatal(err)
			}

			ok, err := s.ArchiveTask(created.ID)
			if err != nil || !ok {
				t.Fatalf("ArchiveTask = %v, %v", ok, err)
			}

			tasks, err := s.ListTasks()
			if err != nil {
				t.Fatal(err)
			}
			for _, task := range tasks {
				if task.ID == created.ID {
					t.Error("Archived task should not appear in ListTasks")
				}
			}
		})
	}
}

func TestCurrentUserSeeded(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			me, err := s.CurrentUser()
			if err != nil {
				t.Fatalf("CurrentUser failed: %v", err)
			}
			if me == nil || !me.IsMe {
				t.Errorf("Expected a seeded current user, got %+v", me)
			}
		})
	}
}

func TestIncidentLifecycle(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			in, err := s.CreateIncident(&Incident{
				Title: "Checkout down", Severity: "sev1", Status: IncidentOpen,
			})
			if err != nil {
				t.Fatal(err)
			}

			now := time.Now().Truncate(time.Second)
			in.Status = IncidentResolved
			in.ResolvedAt = &now
			if _, err := s.UpdateIncident(in); err != nil {
				t.Fatal(err)
			}

			got, err := s.GetIncident(in.ID)
			if err != nil {
				t.Fatal(err)
			}
			if got.Status != IncidentResolved || got.ResolvedAt == nil {
				t.Errorf("Incident resolution not persisted: %+v", got)
			}
		})
	}
}

func TestCommentsActivityLinks(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			task, _ := s.CreateTask(&Task{Title: "Spec review", Status: "todo", Priority: "medium"})

			if _, err := s.AddComment(&Comment{EntityID: task.ID, Author: "me", Body: "looks good"}); err != nil {
				t.Fatal(err)
			}
			comments, err := s.ListComments(task.ID)
			if err != nil || len(comments) != 1 {
				t.Fatalf("ListComments = %v, %v", comments, err)
			}

			if err := s.LogActivity(&Activity{EntityID: task.ID, Action: "created"}); err != nil {
				t.Fatal(err)
			}
			entries, err := s.ListActivity(task.ID, 10)
			if err != nil || len(entries) != 1 {
				t.Fatalf("ListActivity = %v, %v", entries, err)
			}

			other, _ := s.CreateTask(&Task{Title: "Blocked task", Status: "todo", Priority: "medium"})
			link, err := s.LinkEntities(&Link{
				SourceType: "task", SourceID: task.ID,
				TargetType: "task", TargetID: other.ID,
				Kind: LinkBlocks,
			})
			if err != nil {
				t.Fatal(err)
			}

			links, err := s.ListLinks(other.ID)
			if err != nil || len(links) != 1 {
				t.Fatalf("ListLinks = %v, %v", links, err)
			}

			ok, err := s.Unlink(link.ID)
			if err != nil || !ok {
				t.Fatalf("Unlink = %v, %v", ok, err)
			}
		})
	}
}

func TestSessionMessages(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			id, err := s.CreateSession()
			if err != nil {
				t.Fatal(err)
			}

			for _, content := range []string{"one", "two", "three"} {
				if err := s.SaveMessage(id, &Message{Role: "user", Content: content}); err != nil {
					t.Fatal(err)
				}
			}

			msgs, err := s.GetMessages(id, 2)
			if err != nil {
				t.Fatal(err)
			}
			if len(msgs) != 2 || msgs[0].Content != "two" || msgs[1].Content != "three" {
				t.Errorf("GetMessages limit window wrong: %+v", msgs)
			}

			latest, err := s.GetLatestSession()
			if err != nil || latest == nil || latest.ID != id {
				t.Errorf("GetLatestSession = %+v, %v", latest, err)
			}

			if err := s.ClearSession(id); err != nil {
				t.Fatal(err)
			}
			msgs, _ = s.GetMessages(id, 10)
			if len(msgs) != 0 {
				t.Error("Messages should be gone after ClearSession")
			}
		})
	}
}

func TestActionLogAppendTrimPop(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			session := "sess-1"

			for i := 0; i < 5; i++ {
				if _, err := s.AppendAction(&ActionEntry{
					SessionID: session, ActionType: "create_task",
				}); err != nil {
					t.Fatal(err)
				}
			}

			count, err := s.CountActions(session)
			if err != nil || count != 5 {
				t.Fatalf("CountActions = %d, %v", count, err)
			}

			if err := s.TrimActions(session, 3); err != nil {
				t.Fatal(err)
			}
			count, _ = s.CountActions(session)
			if count != 3 {
				t.Errorf("Expected 3 entries after trim, got %d", count)
			}

			tail, err := s.LastAction(session)
			if err != nil || tail == nil {
				t.Fatalf("LastAction = %+v, %v", tail, err)
			}

			ok, err := s.DeleteAction(tail.ID)
			if err != nil || !ok {
				t.Fatalf("DeleteAction = %v, %v", ok, err)
			}
			count, _ = s.CountActions(session)
			if count != 2 {
				t.Errorf("Expected 2 entries after pop, got %d", count)
			}

			next, _ := s.LastAction(session)
			if next != nil && next.ID == tail.ID {
				t.Error("Popped entry still returned by LastAction")
			}
		})
	}
}

func TestMemStoreMutationCount(t *testing.T) {
	s := NewMemStore()

	if s.MutationCount() != 0 {
		t.Fatal("Fresh store should have zero mutations")
	}

	s.ListTasks()
	s.Snapshot()
	if s.MutationCount() != 0 {
		t.Error("Read-only calls should not count as mutations")
	}

	s.CreateTask(&Task{Title: "x", Status: "todo", Priority: "low"})
	if s.MutationCount() != 1 {
		t.Errorf("Expected 1 mutation, got %d", s.MutationCount())
	}
}
