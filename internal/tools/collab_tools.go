package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeegan/taskpilot/internal/store"
)

func collabTools() []*Definition {
	return []*Definition{
		addCommentTool(),
		addNoteTool(),
		getActivityTool(),
	}
}

func addCommentTool() *Definition {
	return &Definition{
		Name:        "add_comment",
		Description: "Add a comment to a task, authored by the current user.",
		Params: []Param{
			{Name: "task", Type: TypeString, Description: "Task title fragment or id", Required: true},
			{Name: "body", Type: TypeString, Description: "Comment text", Required: true},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			fragment, err := args.RequiredString("task")
			if err != nil {
				return Fail("%v", err), nil
			}
			body, err := args.RequiredString("body")
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

			author := ""
			if snap.Me != nil {
				author = snap.Me.ID
			}
			comment, addErr := env.Store.AddComment(&store.Comment{
				EntityID: task.ID,
				Author:   author,
				Body:     body,
			})
			if addErr != nil {
				return nil, addErr
			}
			audit(env, task.ID, "commented", "")

			return Ok("Added comment to %q", task.Title).With("commentId", comment.ID), nil
		},
	}
}

func addNoteTool() *Definition {
	return &Definition{
		Name:        "add_note",
		Description: "Append a freeform note to a task's description.",
		Params: []Param{
			{Name: "task", Type: TypeString, Description: "Task title fragment or id", Required: true},
			{Name: "note", Type: TypeString, Description: "Note text", Required: true},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			fragment, err := args.RequiredString("task")
			if err != nil {
				return Fail("%v", err), nil
			}
			note, err := args.RequiredString("note")
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

			if task.Description == "" {
				task.Description = note
			} else {
				task.Description = task.Description + "\n\n" + note
			}

			updated, updateErr := env.Store.UpdateTask(task)
			if updateErr != nil {
				return nil, updateErr
			}
			if updated == nil {
				return Fail("Task %q no longer exists", task.Title), nil
			}
			audit(env, task.ID, "note_added", "")

			return Ok("Added note to %q", task.Title).With("task", taskBrief(updated)), nil
		},
	}
}

func getActivityTool() *Definition {
	return &Definition{
		Name:        "get_activity",
		Description: "Show the recent activity feed and comments for a task.",
		Params: []Param{
			{Name: "task", Type: TypeString, Description: "Task title fragment or id", Required: true},
			{Name: "limit", Type: TypeNumber, Description: "Max feed entries to return; defaults to 10"},
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

			limit := 10
			if n, ok := args.Int("limit"); ok && n > 0 {
				limit = n
			}

			feed, feedErr := env.Store.ListActivity(task.ID, limit)
			if feedErr != nil {
				return nil, feedErr
			}
			comments, commentsErr := env.Store.ListComments(task.ID)
			if commentsErr != nil {
				return nil, commentsErr
			}

			var lines []string
			for _, a := range feed {
				line := "- " + a.Action
				if a.Detail != "" {
					line += ": " + a.Detail
				}
				lines = append(lines, line)
			}
			for _, c := range comments {
				lines = append(lines, fmt.Sprintf("- comment by %s: %s", userName(snap, c.Author), c.Body))
			}

			if len(lines) == 0 {
				return Ok("No activity recorded for %q yet", task.Title), nil
			}
			return Ok("Activity for %q:\n%s", task.Title, strings.Join(lines, "\n")).
				With("entries", len(lines)), nil
		},
	}
}
