package tools

import (
	"fmt"
	"strings"

	"github.com/dkeegan/taskpilot/internal/resolve"
	"github.com/dkeegan/taskpilot/internal/store"
)

// snapshot loads the current resolution snapshot; failures here are
// upstream store faults, surfaced as errors for the engine boundary
func snapshot(env *Env) (*store.Snapshot, error) {
	snap, err := env.Store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to load state snapshot: %w", err)
	}
	return snap, nil
}

// findTask resolves a task fragment against the snapshot. A nil Result
// means the task was found; otherwise the Result is the not-found failure,
// with nearby candidates suggested when any word of the fragment matches.
func findTask(snap *store.Snapshot, fragment string) (*store.Task, *Result) {
	task := resolve.FindTask(snap, fragment)
	if task != nil {
		return task, nil
	}

	var candidates []string
	for _, word := range strings.Fields(fragment) {
		if len(word) < 3 {
			continue
		}
		for _, title := range resolve.TaskCandidates(snap, word, 3) {
			candidates = append(candidates, title)
			if len(candidates) == 3 {
				break
			}
		}
		if len(candidates) == 3 {
			break
		}
	}

	if len(candidates) > 0 {
		return nil, Fail("No task found matching %q. Did you mean: %s?",
			fragment, strings.Join(candidates, ", "))
	}
	return nil, Fail("No task found matching %q", fragment)
}

// findUser resolves a user fragment, honoring the self literals
func findUser(snap *store.Snapshot, fragment string) (*store.User, *Result) {
	user := resolve.FindUser(snap, fragment)
	if user != nil {
		return user, nil
	}

	var names []string
	for _, u := range snap.Users {
		names = append(names, u.Name)
	}
	return nil, Fail("No user found matching %q. Known users: %s",
		fragment, strings.Join(names, ", "))
}

// findProject resolves a project fragment
func findProject(snap *store.Snapshot, fragment string) (*store.Project, *Result) {
	project := resolve.FindProject(snap, fragment)
	if project != nil {
		return project, nil
	}

	var names []string
	for _, p := range snap.Projects {
		names = append(names, p.Name)
	}
	if len(names) == 0 {
		return nil, Fail("No project found matching %q; no projects exist yet", fragment)
	}
	return nil, Fail("No project found matching %q. Known projects: %s",
		fragment, strings.Join(names, ", "))
}

// resolveStatus validates a free-text status against the active workflow.
// Every tool that accepts a status argument must pass it through here
// before writing; nothing persists an unvalidated status string.
func resolveStatus(env *Env, raw string) (string, *Result) {
	id, err := resolve.ResolveColumn(env.Workflow, raw)
	if err != nil {
		return "", Fail("%v", err)
	}
	return id, nil
}

// audit best-effort appends to an entity's activity feed
func audit(env *Env, entityID, action, detail string) {
	_ = env.Store.LogActivity(&store.Activity{
		EntityID: entityID,
		Action:   action,
		Detail:   detail,
	})
}

// taskBrief is the compact task payload returned in Result data
func taskBrief(t *store.Task) map[string]any {
	brief := map[string]any{
		"id":       t.ID,
		"title":    t.Title,
		"status":   t.Status,
		"priority": t.Priority,
	}
	if t.Assignee != "" {
		brief["assignee"] = t.Assignee
	}
	if t.ProjectID != "" {
		brief["projectId"] = t.ProjectID
	}
	if t.ParentID != "" {
		brief["parentId"] = t.ParentID
	}
	if t.DueDate != nil {
		brief["dueDate"] = t.DueDate.Format("2006-01-02")
	}
	if len(t.Tags) > 0 {
		brief["tags"] = t.Tags
	}
	return brief
}

// userName renders an assignee id as a display name when resolvable
func userName(snap *store.Snapshot, userID string) string {
	for _, u := range snap.Users {
		if u.ID == userID {
			return u.Name
		}
	}
	return userID
}
