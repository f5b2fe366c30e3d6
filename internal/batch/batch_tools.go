package batch

import (
	"context"
	"fmt"

	"github.com/dkeegan/taskpilot/internal/tools"
)

// RegisterTools adds batch_execute and undo_last_action to a registry. They
// live here rather than in the catalog because their bodies close over the
// orchestrator, which itself wraps the engine.
func RegisterTools(r *tools.Registry, o *Orchestrator) error {
	if err := r.Register(batchExecuteTool(o)); err != nil {
		return err
	}
	return r.Register(undoLastActionTool(o))
}

// parseOps converts the raw operations argument into tool calls
func parseOps(raw any) ([]tools.Call, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("parameter operations must be a list of {tool, arguments} objects")
	}

	var ops []tools.Call
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("operation %d is not an object", i+1)
		}
		name, _ := obj["tool"].(string)
		if name == "" {
			return nil, fmt.Errorf("operation %d is missing its tool name", i+1)
		}
		args, _ := obj["arguments"].(map[string]any)
		ops = append(ops, tools.Call{Function: name, Arguments: args})
	}
	return ops, nil
}

func batchExecuteTool(o *Orchestrator) *tools.Definition {
	return &tools.Definition{
		Name: "batch_execute",
		Description: "Run several tool calls as one batch. Without confirm, returns a numbered " +
			"preview and executes nothing; with confirm=true, runs every operation in order " +
			"and reports a per-operation breakdown.",
		Params: []tools.Param{
			{Name: "operations", Type: tools.TypeArray, Description: "List of {tool, arguments} objects to execute in order", Required: true},
			{Name: "confirm", Type: tools.TypeBoolean, Description: "Set true to execute the previously proposed batch"},
		},
		Run: func(ctx context.Context, env *tools.Env, args tools.Args) (*tools.Result, error) {
			raw, present := args["operations"]
			if !present {
				return tools.Fail("missing required parameter: operations"), nil
			}
			ops, err := parseOps(raw)
			if err != nil {
				return tools.Fail("%v", err), nil
			}

			if confirm, _ := args.Bool("confirm"); !confirm {
				return o.Propose(ops), nil
			}
			return o.Run(ctx, ops), nil
		},
	}
}

func undoLastActionTool(o *Orchestrator) *tools.Definition {
	return &tools.Definition{
		Name:        "undo_last_action",
		Description: "Undo the most recent action by executing its recorded inverse. Actions without an inverse are removed from the log with a warning.",
		Params:      []tools.Param{},
		Run: func(ctx context.Context, env *tools.Env, args tools.Args) (*tools.Result, error) {
			return o.Undo(ctx), nil
		},
	}
}
