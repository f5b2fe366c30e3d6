// Package llm is a minimal client for OpenAI-compatible chat completion
// APIs with function calling, in both buffered and streaming form.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dkeegan/taskpilot/internal/tools"
)

// Client talks to one chat completion endpoint
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

// Message is one chat turn on the wire
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a model-requested function invocation
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the function name and its JSON-encoded arguments
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Response is the assembled reply of one completion
type Response struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// StreamHandler receives content fragments as they arrive
type StreamHandler func(content string)

// Tool is a function-calling tool declaration on the wire
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction describes one callable function to the model
type ToolFunction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

// FromSchemas converts the tool registry's exported schemas to wire form
func FromSchemas(schemas []tools.ToolSchema) []Tool {
	out := make([]Tool, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, Tool{
			Type: s.Type,
			Function: ToolFunction{
				Name:        s.Function.Name,
				Description: s.Function.Description,
				Parameters:  s.Function.Parameters,
			},
		})
	}
	return out
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Tools       []Tool    `json:"tools,omitempty"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

// streamedToolCall is a tool call fragment in a streaming delta; arguments
// arrive chunked across events under the same index
type streamedToolCall struct {
	Index    int          `json:"index"`
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
		Delta   struct {
			Content   string             `json:"content"`
			ToolCalls []streamedToolCall `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// New creates a client for one endpoint and model
func New(apiKey, baseURL, model string, temperature float64, maxTokens int) *Client {
	return &Client{
		apiKey:      apiKey,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Chat sends a buffered completion request
func (c *Client) Chat(ctx context.Context, messages []Message, toolDefs []Tool) (*Response, error) {
	return c.complete(ctx, messages, toolDefs, false, nil)
}

// ChatStream sends a streaming completion request, invoking handler for
// each content fragment
func (c *Client) ChatStream(ctx context.Context, messages []Message, toolDefs []Tool, handler StreamHandler) (*Response, error) {
	return c.complete(ctx, messages, toolDefs, true, handler)
}

func (c *Client) complete(ctx context.Context, messages []Message, toolDefs []Tool, stream bool, handler StreamHandler) (*Response, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Tools:       toolDefs,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned error (status %d): %s", resp.StatusCode, string(body))
	}

	if stream {
		return readStream(resp.Body, handler)
	}
	return readBuffered(resp.Body)
}

func readBuffered(body io.Reader) (*Response, error) {
	var resp chatResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("API returned empty response")
	}

	choice := resp.Choices[0]
	return &Response{
		Content:   choice.Message.Content,
		ToolCalls: choice.Message.ToolCalls,
	}, nil
}

// readStream consumes server-sent events, accumulating content and merging
// chunked tool-call arguments by their delta index
func readStream(body io.Reader, handler StreamHandler) (*Response, error) {
	reader := bufio.NewReader(body)
	var content strings.Builder
	partial := make(map[int]*ToolCall)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to read streaming response: %w", err)
		}

		data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: ")
		if !ok {
			continue
		}
		if data == "[DONE]" {
			break
		}

		var resp chatResponse
		if err := json.Unmarshal([]byte(data), &resp); err != nil {
			continue // malformed keep-alive or partial event
		}
		if len(resp.Choices) == 0 {
			continue
		}

		delta := resp.Choices[0].Delta
		if delta.Content != "" {
			content.WriteString(delta.Content)
			if handler != nil {
				handler(delta.Content)
			}
		}

		for _, tc := range delta.ToolCalls {
			if existing, ok := partial[tc.Index]; ok {
				existing.Function.Arguments += tc.Function.Arguments
				continue
			}
			partial[tc.Index] = &ToolCall{
				ID:       tc.ID,
				Type:     tc.Type,
				Function: tc.Function,
			}
		}
	}

	var indexes []int
	for idx := range partial {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var toolCalls []ToolCall
	for _, idx := range indexes {
		toolCalls = append(toolCalls, *partial[idx])
	}

	return &Response{
		Content:   content.String(),
		ToolCalls: toolCalls,
	}, nil
}

// ChatWithRetry retries transient failures with linear backoff, honoring
// context cancellation between attempts
func (c *Client) ChatWithRetry(ctx context.Context, messages []Message, toolDefs []Tool, maxRetries int) (*Response, error) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		resp, err := c.Chat(ctx, messages, toolDefs)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * time.Second):
		}
	}
	return nil, fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

// ChatStreamWithRetry is ChatWithRetry for streaming requests
func (c *Client) ChatStreamWithRetry(ctx context.Context, messages []Message, toolDefs []Tool, handler StreamHandler, maxRetries int) (*Response, error) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		resp, err := c.ChatStream(ctx, messages, toolDefs, handler)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * time.Second):
		}
	}
	return nil, fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
