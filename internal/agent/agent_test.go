package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeegan/taskpilot/internal/config"
	"github.com/dkeegan/taskpilot/internal/llm"
	"github.com/dkeegan/taskpilot/internal/store"
	"github.com/dkeegan/taskpilot/internal/tools"
	"github.com/dkeegan/taskpilot/internal/workflow"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Model.APIKey = "test-key"
	cfg.Store.Ephemeral = true
	return cfg
}

func newTestAgent(t *testing.T, serverURL string, opts ...Option) (*Agent, *store.MemStore) {
	t.Helper()
	config.SetConfigDir(t.TempDir())

	wf, err := workflow.NewProvider().Get("agile")
	if err != nil {
		t.Fatalf("get workflow: %v", err)
	}

	s := store.NewMemStore()
	t.Cleanup(func() { s.Close() })

	env := &tools.Env{
		Store:    s,
		Workflow: wf,
		Clock:    func() time.Time { return time.Date(2026, time.March, 11, 14, 30, 0, 0, time.UTC) },
	}
	engine := tools.NewEngine(tools.NewCatalog(wf), env, 0)

	cfg := testConfig()
	client := llm.New(cfg.Model.APIKey, serverURL, cfg.Model.Model, cfg.Model.Temperature, cfg.Model.MaxTokens)

	a, err := New(cfg, client, engine, opts...)
	if err != nil {
		t.Fatalf("New agent: %v", err)
	}
	return a, s
}

// fakeModel answers each request with the next scripted response body
func fakeModel(t *testing.T, responses []string) *httptest.Server {
	t.Helper()
	i := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if i >= len(responses) {
			t.Errorf("model called %d times, only %d responses scripted", i+1, len(responses))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(responses[i]))
		i++
	}))
}

func contentResponse(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` + jsonString(content) + `},"finish_reason":"stop"}]}`
}

func toolCallResponse(name, arguments string) string {
	return `{"choices":[{"message":{"role":"assistant","tool_calls":[` +
		`{"id":"call_1","type":"function","function":{"name":"` + name + `","arguments":` + jsonString(arguments) + `}}` +
		`]},"finish_reason":"tool_calls"}]}`
}

func jsonString(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

func TestChatPlainReply(t *testing.T) {
	server := fakeModel(t, []string{contentResponse("Nothing to do.")})
	defer server.Close()

	a, s := newTestAgent(t, server.URL)
	reply, err := a.Chat(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "Nothing to do." {
		t.Errorf("reply = %q", reply)
	}

	msgs, _ := s.GetMessages(a.SessionID(), 10)
	if len(msgs) != 2 {
		t.Fatalf("transcript has %d messages, want user+assistant", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("roles = %s, %s", msgs[0].Role, msgs[1].Role)
	}
}

func TestChatExecutesToolCall(t *testing.T) {
	server := fakeModel(t, []string{
		toolCallResponse("create_task", `{"title":"Fix login bug","priority":"high"}`),
		contentResponse("Created the task."),
	})
	defer server.Close()

	var observed []string
	a, s := newTestAgent(t, server.URL,
		WithToolCallHandler(func(name string, args map[string]any, result *tools.Result) {
			observed = append(observed, name)
			if !result.Success {
				t.Errorf("tool %s failed: %s", name, result.Message)
			}
		}))

	reply, err := a.Chat(context.Background(), "create a task to fix the login bug")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "Created the task." {
		t.Errorf("reply = %q", reply)
	}

	tasks, _ := s.ListTasks()
	if len(tasks) != 1 || tasks[0].Title != "Fix login bug" || tasks[0].Priority != "high" {
		t.Fatalf("tasks = %+v", tasks)
	}
	if len(observed) != 1 || observed[0] != "create_task" {
		t.Errorf("handler saw %v", observed)
	}

	// transcript: user, assistant(tool call), tool, assistant(final)
	msgs, _ := s.GetMessages(a.SessionID(), 10)
	if len(msgs) != 4 {
		t.Fatalf("transcript has %d messages, want 4", len(msgs))
	}
	if msgs[2].Role != "tool" || msgs[2].ToolCallID != "call_1" {
		t.Errorf("tool message = %+v", msgs[2])
	}
	if !strings.Contains(msgs[2].Content, `"success":true`) {
		t.Errorf("tool message content = %q", msgs[2].Content)
	}
}

func TestChatToolCallEntersActionLog(t *testing.T) {
	server := fakeModel(t, []string{
		toolCallResponse("create_task", `{"title":"Undo me"}`),
		contentResponse("Done."),
	})
	defer server.Close()

	a, s := newTestAgent(t, server.URL)
	if _, err := a.Chat(context.Background(), "create a task"); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	undo := a.Orchestrator().Undo(context.Background())
	if !undo.Success {
		t.Fatalf("Undo: %s", undo.Message)
	}
	if tasks, _ := s.ListTasks(); len(tasks) != 0 {
		t.Error("undo did not reverse the model's create_task")
	}
}

func TestChatBadArgumentsBecomeFailedResult(t *testing.T) {
	server := fakeModel(t, []string{
		toolCallResponse("create_task", `{not json`),
		contentResponse("Sorry, that failed."),
	})
	defer server.Close()

	var failures int
	a, _ := newTestAgent(t, server.URL,
		WithToolCallHandler(func(name string, args map[string]any, result *tools.Result) {
			if !result.Success {
				failures++
			}
		}))

	reply, err := a.Chat(context.Background(), "create a task")
	if err != nil {
		t.Fatalf("Chat should not error on bad tool arguments: %v", err)
	}
	if reply != "Sorry, that failed." {
		t.Errorf("reply = %q", reply)
	}
	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}
}

func TestBuildMessagesSystemPrompt(t *testing.T) {
	server := fakeModel(t, nil)
	defer server.Close()

	a, _ := newTestAgent(t, server.URL)
	messages, err := a.buildMessages("hi")
	if err != nil {
		t.Fatalf("buildMessages: %v", err)
	}

	if messages[0].Role != "system" {
		t.Fatalf("first message role = %s", messages[0].Role)
	}
	system := messages[0].Content
	if !strings.Contains(system, `"agile"`) {
		t.Errorf("system prompt missing workflow name: %q", system)
	}
	if !strings.Contains(system, "In Progress (in-progress)") {
		t.Errorf("system prompt missing column list: %q", system)
	}
	if messages[len(messages)-1].Role != "user" || messages[len(messages)-1].Content != "hi" {
		t.Errorf("last message = %+v", messages[len(messages)-1])
	}
}

func TestNewSessionIsolatesTranscript(t *testing.T) {
	server := fakeModel(t, []string{contentResponse("ok")})
	defer server.Close()

	a, s := newTestAgent(t, server.URL)
	if _, err := a.Chat(context.Background(), "hello"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	first := a.SessionID()

	if err := a.NewSession(); err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if a.SessionID() == first {
		t.Error("NewSession did not change session id")
	}
	msgs, _ := s.GetMessages(a.SessionID(), 10)
	if len(msgs) != 0 {
		t.Errorf("new session has %d messages, want 0", len(msgs))
	}
}
