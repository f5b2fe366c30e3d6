// Package agent drives the conversation loop: it feeds user input and the
// tool catalog to the model, executes the tool calls it asks for, and keeps
// the session transcript in the store.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkeegan/taskpilot/internal/batch"
	"github.com/dkeegan/taskpilot/internal/config"
	"github.com/dkeegan/taskpilot/internal/llm"
	"github.com/dkeegan/taskpilot/internal/logger"
	"github.com/dkeegan/taskpilot/internal/store"
	"github.com/dkeegan/taskpilot/internal/tools"
	"github.com/dkeegan/taskpilot/internal/workflow"
)

// MaxToolIterations bounds the model's tool-call rounds per user turn
const MaxToolIterations = 10

// Agent is one assistant conversation over a tracker
type Agent struct {
	cfg          *config.Config
	promptCfg    *config.PromptConfig
	llm          *llm.Client
	store        store.Store
	registry     *tools.Registry
	orchestrator *batch.Orchestrator
	wf           *workflow.Workflow

	sessionID      string
	maxContextMsgs int

	streamHandler   func(content string)
	toolCallHandler func(name string, args map[string]any, result *tools.Result)
}

// Option configures an Agent
type Option func(*Agent)

// WithStreamHandler streams assistant content fragments as they arrive
func WithStreamHandler(handler func(content string)) Option {
	return func(a *Agent) {
		a.streamHandler = handler
	}
}

// WithToolCallHandler observes every executed tool call and its result
func WithToolCallHandler(handler func(name string, args map[string]any, result *tools.Result)) Option {
	return func(a *Agent) {
		a.toolCallHandler = handler
	}
}

// New creates an agent over an engine, resuming the latest session when one
// exists. It wires the batch and undo tools into the engine's registry.
func New(cfg *config.Config, llmClient *llm.Client, engine *tools.Engine, opts ...Option) (*Agent, error) {
	promptCfg, err := config.LoadPromptConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt config: %w", err)
	}

	a := &Agent{
		cfg:            cfg,
		promptCfg:      promptCfg,
		llm:            llmClient,
		store:          engine.Env().Store,
		registry:       engine.Registry(),
		wf:             engine.Env().Workflow,
		maxContextMsgs: cfg.Store.MaxContextMessages,
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.initSession(); err != nil {
		return nil, err
	}

	a.orchestrator = batch.NewOrchestrator(engine, a.sessionID, cfg.Engine.ActionLogCap)
	if err := batch.RegisterTools(a.registry, a.orchestrator); err != nil {
		return nil, fmt.Errorf("failed to register batch tools: %w", err)
	}

	return a, nil
}

func (a *Agent) initSession() error {
	session, err := a.store.GetLatestSession()
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if session != nil {
		a.sessionID = session.ID
		return nil
	}

	sessionID, err := a.store.CreateSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	a.sessionID = sessionID
	return nil
}

// NewSession starts a fresh conversation, pointing the action log at it
func (a *Agent) NewSession() error {
	sessionID, err := a.store.CreateSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	a.sessionID = sessionID
	a.orchestrator.SetSession(sessionID)
	return nil
}

// ClearSession drops the current session's transcript and action log, then
// starts a new one
func (a *Agent) ClearSession() error {
	if err := a.store.ClearSession(a.sessionID); err != nil {
		return err
	}
	return a.NewSession()
}

// SessionID returns the current session id
func (a *Agent) SessionID() string {
	return a.sessionID
}

// Orchestrator exposes batch and undo operations for direct (non-model) use
func (a *Agent) Orchestrator() *batch.Orchestrator {
	return a.orchestrator
}

// Chat runs one user turn: the model may call tools for several rounds
// before producing its final reply
func (a *Agent) Chat(ctx context.Context, userMessage string) (string, error) {
	if err := a.store.SaveMessage(a.sessionID, &store.Message{
		Role:    "user",
		Content: userMessage,
	}); err != nil {
		return "", fmt.Errorf("failed to save user message: %w", err)
	}

	messages, err := a.buildMessages(userMessage)
	if err != nil {
		return "", fmt.Errorf("failed to build messages: %w", err)
	}

	toolDefs := llm.FromSchemas(a.registry.Schemas())

	var finalResponse string
	for i := 0; i < MaxToolIterations; i++ {
		var resp *llm.Response
		if a.streamHandler != nil {
			resp, err = a.llm.ChatStream(ctx, messages, toolDefs, a.streamHandler)
		} else {
			resp, err = a.llm.Chat(ctx, messages, toolDefs)
		}
		if err != nil {
			return "", fmt.Errorf("failed to call model: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			finalResponse = resp.Content
			break
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		toolCallsJSON, _ := json.Marshal(resp.ToolCalls)
		if err := a.store.SaveMessage(a.sessionID, &store.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: string(toolCallsJSON),
		}); err != nil {
			return "", fmt.Errorf("failed to save assistant tool call message: %w", err)
		}

		for _, tc := range resp.ToolCalls {
			content := a.runToolCall(ctx, tc)

			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    content,
				ToolCallID: tc.ID,
			})
			if err := a.store.SaveMessage(a.sessionID, &store.Message{
				Role:       "tool",
				Content:    content,
				ToolCallID: tc.ID,
			}); err != nil {
				return "", fmt.Errorf("failed to save tool message: %w", err)
			}
		}
	}

	if finalResponse != "" {
		if err := a.store.SaveMessage(a.sessionID, &store.Message{
			Role:    "assistant",
			Content: finalResponse,
		}); err != nil {
			return "", fmt.Errorf("failed to save assistant message: %w", err)
		}
	}

	return finalResponse, nil
}

// runToolCall executes one model-requested tool call through the
// orchestrator and renders the result for the tool message
func (a *Agent) runToolCall(ctx context.Context, tc llm.ToolCall) string {
	var args map[string]any
	if tc.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			logger.Warn("tool %s sent unparseable arguments: %v", tc.Function.Name, err)
			failed := tools.Fail("%s: could not parse tool arguments: %v", a.promptCfg.GetErrorPrefix(), err)
			if a.toolCallHandler != nil {
				a.toolCallHandler(tc.Function.Name, nil, failed)
			}
			return renderResult(failed)
		}
	}

	result := a.orchestrator.Dispatch(ctx, tools.Call{
		ID:        tc.ID,
		Function:  tc.Function.Name,
		Arguments: args,
	})
	if a.toolCallHandler != nil {
		a.toolCallHandler(tc.Function.Name, args, result)
	}
	return renderResult(result)
}

func renderResult(r *tools.Result) string {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"success":%t,"message":%q}`, r.Success, r.Message)
	}
	return string(raw)
}

// buildMessages assembles the system prompt and recent transcript for one
// completion request
func (a *Agent) buildMessages(userMessage string) ([]llm.Message, error) {
	messages := []llm.Message{
		{Role: "system", Content: a.promptCfg.SystemPrompt(a.wf.Name, a.wf.ColumnList())},
	}

	history, err := a.store.GetMessages(a.sessionID, a.maxContextMsgs)
	if err != nil {
		return nil, fmt.Errorf("failed to get history messages: %w", err)
	}

	// the just-saved user message is appended explicitly at the end
	for i, msg := range history {
		if i == len(history)-1 && msg.Role == "user" && msg.Content == userMessage {
			continue
		}

		m := llm.Message{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		if msg.ToolCalls != "" {
			var toolCalls []llm.ToolCall
			if err := json.Unmarshal([]byte(msg.ToolCalls), &toolCalls); err == nil {
				m.ToolCalls = toolCalls
			}
		}
		messages = append(messages, m)
	}

	return append(messages, llm.Message{Role: "user", Content: userMessage}), nil
}
