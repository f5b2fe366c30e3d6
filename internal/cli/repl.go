// Package cli is the interactive REPL: it wires the store, workflow, tool
// engine and agent together and drives a readline loop.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/dkeegan/taskpilot/internal/agent"
	"github.com/dkeegan/taskpilot/internal/config"
	"github.com/dkeegan/taskpilot/internal/llm"
	"github.com/dkeegan/taskpilot/internal/logger"
	"github.com/dkeegan/taskpilot/internal/store"
	"github.com/dkeegan/taskpilot/internal/tools"
	"github.com/dkeegan/taskpilot/internal/workflow"
)

const (
	Version = "0.1.0"

	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// Run starts the interactive assistant
func Run(cfg *config.Config) error {
	if err := logger.Init(logger.Config{
		Dir:         config.LogDir(),
		Level:       logger.ParseLevel(cfg.Log.Level),
		KeepDays:    cfg.Log.KeepDays,
		EchoConsole: cfg.Log.ConsoleOut,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
	}
	defer logger.Close()

	printWelcome()

	if !cfg.IsAPIKeyConfigured() {
		return promptAPIKey(cfg)
	}

	llmClient := llm.New(
		cfg.Model.APIKey,
		cfg.Model.BaseURL,
		cfg.Model.Model,
		cfg.Model.Temperature,
		cfg.Model.MaxTokens,
	)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	wf, err := loadWorkflow(cfg)
	if err != nil {
		return err
	}

	env := &tools.Env{Store: st, Workflow: wf, Clock: time.Now}
	engine := tools.NewEngine(tools.NewCatalog(wf), env,
		time.Duration(cfg.Engine.ToolTimeoutSeconds)*time.Second)

	ag, err := agent.New(
		cfg, llmClient, engine,
		agent.WithStreamHandler(streamOutput),
		agent.WithToolCallHandler(toolCallOutput),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	fmt.Printf("%sWorkflow: %s (%s)%s\n\n", colorGray, wf.Name,
		strings.Join(wf.ColumnList(), ", "), colorReset)

	return runREPL(ag, engine, cfg)
}

// openStore opens the configured store: SQLite for persistent runs, a
// demo-seeded in-memory store for ephemeral ones
func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Store.Ephemeral {
		s := store.NewMemStore()
		store.SeedDemo(s)
		fmt.Printf("%sEphemeral mode: using a demo board, nothing is persisted%s\n", colorYellow, colorReset)
		return s, nil
	}

	s, err := store.NewSQLiteStore(cfg.Store.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open task store: %w", err)
	}
	return s, nil
}

// loadWorkflow resolves the configured workflow mode
func loadWorkflow(cfg *config.Config) (*workflow.Workflow, error) {
	provider, err := workflow.NewProviderFromFile(cfg.Workflow.ModesFile)
	if err != nil {
		return nil, err
	}
	return provider.Get(cfg.Workflow.Mode)
}

func printWelcome() {
	fmt.Printf("\n%sTaskPilot v%s%s - conversational project tracker\n", colorCyan, Version, colorReset)
	fmt.Printf("%sType /help for help, /exit to quit%s\n", colorGray, colorReset)
	fmt.Printf("%sFor multi-line input: end a line with \\ and press Enter twice to submit%s\n\n", colorGray, colorReset)
}

// promptAPIKey asks for the model API key and persists it
func promptAPIKey(cfg *config.Config) error {
	fmt.Printf("%sAPI key not configured%s\n\n", colorYellow, colorReset)

	rl, err := readline.New("Enter your model API key: ")
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	apiKey, err := rl.Readline()
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	cfg.Model.APIKey = apiKey
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("\n%sAPI key saved%s\n\n", colorGreen, colorReset)
	return Run(cfg)
}

func historyFilePath() string {
	dir := config.GetConfigDir()
	if dir == "" {
		return ""
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}

func runREPL(ag *agent.Agent, engine *tools.Engine, cfg *config.Config) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 fmt.Sprintf("%sYou: %s", colorGreen, colorReset),
		HistoryFile:            historyFilePath(),
		HistoryLimit:           1000,
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
		HistorySearchFold:      true,
		DisableAutoSaveHistory: false,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Printf("\n\n%sGoodbye!%s\n", colorCyan, colorReset)
		cancel()
		rl.Close()
		os.Exit(0)
	}()

	var multiLineBuffer strings.Builder
	inMultiLine := false

	for {
		if inMultiLine {
			rl.SetPrompt(fmt.Sprintf("%s...  %s", colorGray, colorReset))
		} else {
			rl.SetPrompt(fmt.Sprintf("%sYou: %s", colorGreen, colorReset))
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if inMultiLine {
					multiLineBuffer.Reset()
					inMultiLine = false
					fmt.Println()
					continue
				}
				fmt.Printf("\n%sPress Ctrl+C again or type /exit to quit%s\n", colorYellow, colorReset)
				continue
			}
			if err == io.EOF {
				fmt.Printf("\n%sGoodbye!%s\n", colorCyan, colorReset)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		if inMultiLine {
			if line == "" {
				inMultiLine = false
				input := strings.TrimSpace(multiLineBuffer.String())
				multiLineBuffer.Reset()
				if input == "" {
					continue
				}
				processInput(ctx, ag, input)
				continue
			}
			multiLineBuffer.WriteString(line)
			multiLineBuffer.WriteString("\n")
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasSuffix(input, "\\") {
			inMultiLine = true
			multiLineBuffer.WriteString(strings.TrimSuffix(input, "\\"))
			multiLineBuffer.WriteString("\n")
			fmt.Printf("%s(Multi-line mode: press Enter twice to submit, Ctrl+C to cancel)%s\n", colorGray, colorReset)
			continue
		}

		if strings.HasPrefix(input, "/") {
			if handleCommand(ctx, input, ag, engine, cfg) {
				continue
			}
			return nil
		}

		processInput(ctx, ag, input)
	}
}

func processInput(ctx context.Context, ag *agent.Agent, input string) {
	fmt.Printf("\n%sTaskPilot: %s", colorBlue, colorReset)

	_, err := ag.Chat(ctx, input)
	if err != nil {
		fmt.Printf("\n%sError: %v%s\n", colorRed, err, colorReset)
	}

	fmt.Println()
	fmt.Println()
}

// handleCommand handles slash commands; returns false only for /exit
func handleCommand(ctx context.Context, cmd string, ag *agent.Agent, engine *tools.Engine, cfg *config.Config) bool {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true
	}

	switch strings.ToLower(parts[0]) {
	case "/help":
		printHelp()
		return true

	case "/tools":
		printTools(engine)
		return true

	case "/workflow":
		wf := engine.Env().Workflow
		fmt.Printf("%sWorkflow %s:%s\n", colorCyan, wf.Name, colorReset)
		for _, col := range wf.Columns {
			fmt.Printf("  %s (%s) [%s]\n", col.Title, col.ID, col.Category)
		}
		return true

	case "/undo":
		res := ag.Orchestrator().Undo(ctx)
		color := colorGreen
		if !res.Success {
			color = colorRed
		}
		fmt.Printf("%s%s%s\n", color, res.Message, colorReset)
		return true

	case "/clear":
		if err := ag.ClearSession(); err != nil {
			fmt.Printf("%sFailed to clear session: %v%s\n", colorRed, err, colorReset)
		} else {
			fmt.Printf("%sSession cleared%s\n", colorGreen, colorReset)
		}
		return true

	case "/new":
		if err := ag.NewSession(); err != nil {
			fmt.Printf("%sFailed to create new session: %v%s\n", colorRed, err, colorReset)
		} else {
			fmt.Printf("%sNew session created%s\n", colorGreen, colorReset)
		}
		return true

	case "/config":
		fmt.Println(cfg.String())
		return true

	case "/history":
		if len(parts) > 1 && parts[1] == "clear" {
			if historyFile := historyFilePath(); historyFile != "" {
				if err := os.WriteFile(historyFile, []byte{}, 0644); err != nil {
					fmt.Printf("%sFailed to clear history: %v%s\n", colorRed, err, colorReset)
				} else {
					fmt.Printf("%sCommand history cleared%s\n", colorGreen, colorReset)
				}
			}
		} else {
			fmt.Printf("%sUse Up/Down arrow keys to browse command history%s\n", colorGray, colorReset)
			fmt.Printf("%sUse /history clear to clear history%s\n", colorGray, colorReset)
		}
		return true

	case "/exit", "/quit", "/q":
		fmt.Printf("%sGoodbye!%s\n", colorCyan, colorReset)
		return false

	default:
		fmt.Printf("%sUnknown command: %s%s\n", colorYellow, cmd, colorReset)
		fmt.Println("Type /help for available commands")
		return true
	}
}

// printTools lists the registered tools grouped as the catalog orders them
func printTools(engine *tools.Engine) {
	defs := engine.Registry().List()
	fmt.Printf("%s%d tools available:%s\n", colorCyan, len(defs), colorReset)
	for _, def := range defs {
		desc := def.Description
		if i := strings.IndexByte(desc, '.'); i > 0 {
			desc = desc[:i+1]
		}
		fmt.Printf("  %s%-24s%s %s\n", colorYellow, def.Name, colorReset, desc)
	}
}

func printHelp() {
	fmt.Printf(`
%sTaskPilot Help%s

%sBuilt-in Commands:%s
  /help           - Show this help message
  /tools          - List available tools
  /workflow       - Show the active workflow's columns
  /undo           - Undo the most recent action
  /clear          - Clear current session history
  /new            - Create new session
  /config         - Show current configuration
  /history clear  - Clear command history
  /exit           - Exit program

%sInput Tips:%s
  - Up/Down arrow keys browse command history
  - End a line with \ for multi-line input
  - Press Enter twice to submit in multi-line mode
  - Ctrl+C cancels the current input

%sExamples:%s
  "Create a high priority task to fix the login bug, due next friday"
  "Move the landing page task to in progress and assign it to Sarah"
  "Open a sev2 incident for the checkout errors"
  "What does my board look like?"
  "Undo that"

`, colorCyan, colorReset, colorYellow, colorReset, colorYellow, colorReset, colorYellow, colorReset)
}

func streamOutput(content string) {
	fmt.Print(content)
}

// toolCallOutput reports each tool call the model makes
func toolCallOutput(name string, args map[string]any, result *tools.Result) {
	fmt.Printf("\n\n%sTool: %s%s\n", colorYellow, name, colorReset)
	if len(args) > 0 {
		fmt.Printf("%s   Args: %v%s\n", colorGray, args, colorReset)
	}
	if result.Success {
		fmt.Printf("%s   OK: %s%s\n", colorGreen, firstLine(result.Message), colorReset)
	} else {
		fmt.Printf("%s   Failed: %s%s\n", colorRed, firstLine(result.Message), colorReset)
	}
	fmt.Println()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
