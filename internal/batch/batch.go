// Package batch layers multi-step execution and undo on top of the tool
// engine: a propose/confirm protocol for batches, and a session-scoped
// action log that records each mutation with its compensating call.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dkeegan/taskpilot/internal/logger"
	"github.com/dkeegan/taskpilot/internal/store"
	"github.com/dkeegan/taskpilot/internal/tools"
)

// DefaultActionLogCap bounds the per-session action log
const DefaultActionLogCap = 1000

// readOnly names the tools whose calls never enter the action log
var readOnly = map[string]bool{
	"get_task":               true,
	"list_tasks":             true,
	"list_incidents":         true,
	"list_emails":            true,
	"list_projects":          true,
	"get_activity":           true,
	"summarize_board":        true,
	"cycle_time_report":      true,
	"resolution_time_report": true,
	"export_tasks":           true,
	"sla_status":             true,
	"batch_execute":          true,
	"undo_last_action":       true,
}

// Orchestrator executes tool calls through the engine while maintaining the
// undo log for one session
type Orchestrator struct {
	engine    *tools.Engine
	store     store.Store
	sessionID string
	logCap    int
}

// NewOrchestrator wires an orchestrator over an engine and its store
func NewOrchestrator(engine *tools.Engine, sessionID string, logCap int) *Orchestrator {
	if logCap <= 0 {
		logCap = DefaultActionLogCap
	}
	return &Orchestrator{
		engine:    engine,
		store:     engine.Env().Store,
		sessionID: sessionID,
		logCap:    logCap,
	}
}

// SetSession points the action log at a different session; used when the
// conversation starts over
func (o *Orchestrator) SetSession(sessionID string) {
	o.sessionID = sessionID
}

// Dispatch executes one tool call and records it in the action log when it
// succeeds and is a mutation. All top-level execution goes through here so
// undo_last_action always sees the newest action.
func (o *Orchestrator) Dispatch(ctx context.Context, call tools.Call) *tools.Result {
	res := o.engine.Execute(ctx, call)
	if res.Success && !readOnly[call.Function] {
		o.record(call, res)
	}
	return res
}

// record appends one executed mutation to the action log and evicts the
// oldest entries beyond the cap. Logging failures never fail the action
// itself; the mutation has already happened.
func (o *Orchestrator) record(call tools.Call, res *tools.Result) {
	input, err := json.Marshal(call.Arguments)
	if err != nil {
		logger.Warn("action log: failed to encode arguments for %s: %v", call.Function, err)
		input = []byte("{}")
	}
	outcome, err := json.Marshal(res)
	if err != nil {
		logger.Warn("action log: failed to encode result for %s: %v", call.Function, err)
		outcome = []byte("{}")
	}

	inverse := ""
	if res.Inverse != nil {
		raw, err := json.Marshal(res.Inverse)
		if err != nil {
			logger.Warn("action log: failed to encode inverse for %s: %v", call.Function, err)
		} else {
			inverse = string(raw)
		}
	}

	if _, err := o.store.AppendAction(&store.ActionEntry{
		SessionID:   o.sessionID,
		ActionType:  call.Function,
		InputParams: string(input),
		Result:      string(outcome),
		Inverse:     inverse,
	}); err != nil {
		logger.Error("action log: append failed: %v", err)
		return
	}
	if err := o.store.TrimActions(o.sessionID, o.logCap); err != nil {
		logger.Warn("action log: trim failed: %v", err)
	}
}

// Propose renders a numbered preview of a batch without executing anything.
// The caller is expected to re-submit with confirmation to run it.
func (o *Orchestrator) Propose(ops []tools.Call) *tools.Result {
	if len(ops) == 0 {
		return tools.Fail("Batch is empty: nothing to propose")
	}

	var lines []string
	for i, op := range ops {
		line := fmt.Sprintf("%d. %s", i+1, op.Function)
		if len(op.Arguments) > 0 {
			if raw, err := json.Marshal(op.Arguments); err == nil {
				line += " " + string(raw)
			}
		}
		lines = append(lines, line)
	}

	return tools.Ok("Proposed batch of %d operation(s):\n%s\nConfirm to execute.",
		len(ops), strings.Join(lines, "\n")).
		With("requiresConfirmation", true).
		With("operations", len(ops))
}

// Run executes a confirmed batch sequentially. A failed operation never
// stops the batch; the result carries the per-operation breakdown and
// succeeds only when every operation did.
func (o *Orchestrator) Run(ctx context.Context, ops []tools.Call) *tools.Result {
	if len(ops) == 0 {
		return tools.Fail("Batch is empty: nothing to execute")
	}

	succeeded := 0
	failed := 0
	var lines []string
	var breakdown []map[string]any
	for i, op := range ops {
		res := o.Dispatch(ctx, op)
		status := "ok"
		if res.Success {
			succeeded++
		} else {
			failed++
			status = "failed"
		}
		lines = append(lines, fmt.Sprintf("%d. %s [%s]: %s", i+1, op.Function, status, res.Message))
		breakdown = append(breakdown, map[string]any{
			"tool":    op.Function,
			"success": res.Success,
			"message": res.Message,
		})
	}

	summary := fmt.Sprintf("Batch finished: %d succeeded, %d failed.\n%s",
		succeeded, failed, strings.Join(lines, "\n"))

	out := &tools.Result{Success: failed == 0, Message: summary}
	return out.
		With("succeeded", succeeded).
		With("failed", failed).
		With("operations", breakdown)
}

// Undo pops the newest action log entry and executes its inverse. Entries
// without an inverse are still popped, with an explicit warning that the
// action could not be fully reversed.
func (o *Orchestrator) Undo(ctx context.Context) *tools.Result {
	entry, err := o.store.LastAction(o.sessionID)
	if err != nil {
		return tools.Fail("Error reading action log: %v", err)
	}
	if entry == nil {
		return tools.Fail("No actions to undo")
	}

	if _, err := o.store.DeleteAction(entry.ID); err != nil {
		return tools.Fail("Error removing action log entry: %v", err)
	}

	if entry.Inverse == "" {
		return tools.Ok("Removed %s from the action log, but it could not be fully reversed", entry.ActionType).
			With("reversed", false).
			With("action", entry.ActionType)
	}

	var inverse tools.Call
	if err := json.Unmarshal([]byte(entry.Inverse), &inverse); err != nil {
		return tools.Fail("Action %s has a corrupt inverse and could not be fully reversed: %v",
			entry.ActionType, err)
	}

	res := o.engine.Execute(ctx, inverse)
	if !res.Success {
		return tools.Fail("Undo of %s failed: %s", entry.ActionType, res.Message).
			With("reversed", false).
			With("action", entry.ActionType)
	}

	return tools.Ok("Undid %s: %s", entry.ActionType, res.Message).
		With("reversed", true).
		With("action", entry.ActionType)
}

// PendingActions reports how many entries the session's action log holds
func (o *Orchestrator) PendingActions() (int, error) {
	return o.store.CountActions(o.sessionID)
}
