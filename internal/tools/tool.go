// Package tools holds the tool catalog exposed to model-driven and scripted
// callers, and the execution engine that dispatches calls into it.
package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeegan/taskpilot/internal/store"
	"github.com/dkeegan/taskpilot/internal/workflow"
)

// Parameter kinds
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
)

// Param declares one tool parameter
type Param struct {
	Name        string
	Type        string // TypeString | TypeNumber | TypeBoolean | TypeArray
	Description string
	Required    bool
	Enum        []string // allowed literal values, optional
}

// Definition is one immutable catalog entry: a declarative parameter schema
// paired with an executable body. Definitions are registered at process
// start and never mutated.
type Definition struct {
	Name        string
	Description string
	Params      []Param
	Run         func(ctx context.Context, env *Env, args Args) (*Result, error)
}

// Call is a transient tool invocation request
type Call struct {
	ID        string         `json:"id"`
	Function  string         `json:"function"`
	Arguments map[string]any `json:"arguments"`
}

// Result is the uniform outcome shape every tool produces. Message is
// always set; when Success is false it names the failed precondition and
// lists valid alternatives where applicable.
type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`

	// Inverse is the compensating call that reverses this action, set by
	// mutating tools that support undo. Never serialized to callers.
	Inverse *Call `json:"-"`
}

// Ok builds a successful result
func Ok(format string, args ...any) *Result {
	return &Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

// Fail builds a failed result. Tool bodies return expected failures
// (validation, not-found) this way; returned errors are reserved for
// unexpected faults.
func Fail(format string, args ...any) *Result {
	return &Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

// With attaches a data entry to the result
func (r *Result) With(key string, value any) *Result {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	r.Data[key] = value
	return r
}

// WithInverse records the compensating call for undo
func (r *Result) WithInverse(function string, arguments map[string]any) *Result {
	r.Inverse = &Call{Function: function, Arguments: arguments}
	return r
}

// Env carries the collaborators a tool body needs. It is injected rather
// than reached globally so tests can substitute fakes.
type Env struct {
	Store    store.Store
	Workflow *workflow.Workflow
	Clock    func() time.Time
}

// Now returns the current time, honoring a test clock when set
func (e *Env) Now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}
