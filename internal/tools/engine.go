package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeegan/taskpilot/internal/logger"
)

// Engine dispatches tool calls into the catalog and normalizes every
// outcome into a Result. No error or panic from a tool body propagates
// past Execute; this is the single mandatory catch boundary.
type Engine struct {
	registry *Registry
	env      *Env
	timeout  time.Duration // per-call deadline, 0 disables
}

// NewEngine creates an execution engine over a registry and environment
func NewEngine(registry *Registry, env *Env, timeout time.Duration) *Engine {
	return &Engine{registry: registry, env: env, timeout: timeout}
}

// Registry returns the catalog this engine dispatches into
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Env returns the environment injected into tool bodies
func (e *Engine) Env() *Env {
	return e.env
}

// Execute looks up and runs a tool call. Unknown names, returned errors
// and panics all surface as failed Results; Execute itself never fails.
func (e *Engine) Execute(ctx context.Context, call Call) (result *Result) {
	def, exists := e.registry.Get(call.Function)
	if !exists {
		return Fail("Unknown tool: %s", call.Function)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("tool %s panicked: %v", call.Function, r)
			result = Fail("Error executing %s: %v", call.Function, r)
		}
	}()

	res, err := def.Run(ctx, e.env, Args(call.Arguments))
	if err != nil {
		logger.Warn("tool %s failed: %v", call.Function, err)
		return Fail("Error executing %s: %v", call.Function, err)
	}
	if res == nil {
		return Fail("Error executing %s: tool returned no result", call.Function)
	}

	if !res.Success {
		logger.Debug("tool %s rejected call: %s", call.Function, res.Message)
	}
	return res
}

// requireContext returns the context error as a Go error when the per-call
// deadline elapsed; long-running tool bodies check this between store calls
func requireContext(ctx context.Context, toolName string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s canceled: %w", toolName, err)
	}
	return nil
}
