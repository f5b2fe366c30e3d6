package tools

import (
	"context"

	"github.com/dkeegan/taskpilot/internal/store"
)

func relationTools() []*Definition {
	return []*Definition{
		linkTasksTool(),
		addBlockerTool(),
		removeBlockerTool(),
	}
}

func linkTasksTool() *Definition {
	return &Definition{
		Name:        "link_tasks",
		Description: "Record a relationship between two tasks.",
		Params: []Param{
			{Name: "task", Type: TypeString, Description: "First task title fragment or id", Required: true},
			{Name: "other", Type: TypeString, Description: "Second task title fragment or id", Required: true},
			{Name: "kind", Type: TypeString, Description: "Relationship kind; defaults to relates", Enum: []string{store.LinkRelates, store.LinkBlocks, store.LinkParent}},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			firstFragment, err := args.RequiredString("task")
			if err != nil {
				return Fail("%v", err), nil
			}
			secondFragment, err := args.RequiredString("other")
			if err != nil {
				return Fail("%v", err), nil
			}

			kind := store.LinkRelates
			if raw, ok := args.String("kind"); ok {
				switch raw {
				case store.LinkRelates, store.LinkBlocks, store.LinkParent:
					kind = raw
				default:
					return Fail("Unknown link kind %q. Valid kinds: %s, %s, %s",
						raw, store.LinkRelates, store.LinkBlocks, store.LinkParent), nil
				}
			}

			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}
			first, notFound := findTask(snap, firstFragment)
			if notFound != nil {
				return notFound, nil
			}
			second, notFound := findTask(snap, secondFragment)
			if notFound != nil {
				return notFound, nil
			}
			if first.ID == second.ID {
				return Fail("Cannot link task %q to itself", first.Title), nil
			}

			link, linkErr := env.Store.LinkEntities(&store.Link{
				SourceType: "task",
				SourceID:   first.ID,
				TargetType: "task",
				TargetID:   second.ID,
				Kind:       kind,
			})
			if linkErr != nil {
				return nil, linkErr
			}
			audit(env, first.ID, "linked", kind+" "+second.Title)

			return Ok("Linked %q %s %q", first.Title, kind, second.Title).
				With("linkId", link.ID), nil
		},
	}
}

func addBlockerTool() *Definition {
	return &Definition{
		Name:        "add_blocker",
		Description: "Mark one task as blocking another.",
		Params: []Param{
			{Name: "blocker", Type: TypeString, Description: "The blocking task", Required: true},
			{Name: "blocked", Type: TypeString, Description: "The task that is blocked", Required: true},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			blockerFragment, err := args.RequiredString("blocker")
			if err != nil {
				return Fail("%v", err), nil
			}
			blockedFragment, err := args.RequiredString("blocked")
			if err != nil {
				return Fail("%v", err), nil
			}

			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}
			blocker, notFound := findTask(snap, blockerFragment)
			if notFound != nil {
				return notFound, nil
			}
			blocked, notFound := findTask(snap, blockedFragment)
			if notFound != nil {
				return notFound, nil
			}
			if blocker.ID == blocked.ID {
				return Fail("A task cannot block itself"), nil
			}

			// reject duplicates so removing a blocker is unambiguous
			links, listErr := env.Store.ListLinks(blocked.ID)
			if listErr != nil {
				return nil, listErr
			}
			for _, l := range links {
				if l.Kind == store.LinkBlocks && l.SourceID == blocker.ID && l.TargetID == blocked.ID {
					return Ok("%q already blocks %q", blocker.Title, blocked.Title), nil
				}
			}

			link, linkErr := env.Store.LinkEntities(&store.Link{
				SourceType: "task",
				SourceID:   blocker.ID,
				TargetType: "task",
				TargetID:   blocked.ID,
				Kind:       store.LinkBlocks,
			})
			if linkErr != nil {
				return nil, linkErr
			}
			audit(env, blocked.ID, "blocked_by", blocker.Title)

			return Ok("%q now blocks %q", blocker.Title, blocked.Title).
				With("linkId", link.ID).
				WithInverse("remove_blocker", map[string]any{"blocker": blocker.ID, "blocked": blocked.ID}), nil
		},
	}
}

func removeBlockerTool() *Definition {
	return &Definition{
		Name:        "remove_blocker",
		Description: "Remove a blocking relationship between two tasks.",
		Params: []Param{
			{Name: "blocker", Type: TypeString, Description: "The blocking task", Required: true},
			{Name: "blocked", Type: TypeString, Description: "The blocked task", Required: true},
		},
		Run: func(ctx context.Context, env *Env, args Args) (*Result, error) {
			blockerFragment, err := args.RequiredString("blocker")
			if err != nil {
				return Fail("%v", err), nil
			}
			blockedFragment, err := args.RequiredString("blocked")
			if err != nil {
				return Fail("%v", err), nil
			}

			snap, snapErr := snapshot(env)
			if snapErr != nil {
				return nil, snapErr
			}
			blocker, notFound := findTask(snap, blockerFragment)
			if notFound != nil {
				return notFound, nil
			}
			blocked, notFound := findTask(snap, blockedFragment)
			if notFound != nil {
				return notFound, nil
			}

			links, listErr := env.Store.ListLinks(blocked.ID)
			if listErr != nil {
				return nil, listErr
			}
			for _, l := range links {
				if l.Kind != store.LinkBlocks || l.SourceID != blocker.ID || l.TargetID != blocked.ID {
					continue
				}
				removed, unlinkErr := env.Store.Unlink(l.ID)
				if unlinkErr != nil {
					return nil, unlinkErr
				}
				if !removed {
					return Fail("Blocker link between %q and %q no longer exists", blocker.Title, blocked.Title), nil
				}
				audit(env, blocked.ID, "unblocked", blocker.Title)
				return Ok("%q no longer blocks %q", blocker.Title, blocked.Title).
					WithInverse("add_blocker", map[string]any{"blocker": blocker.ID, "blocked": blocked.ID}), nil
			}

			return Fail("%q does not block %q", blocker.Title, blocked.Title), nil
		},
	}
}
