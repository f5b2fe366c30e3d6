package main

import (
	"fmt"
	"os"

	"github.com/dkeegan/taskpilot/internal/cli"
	"github.com/dkeegan/taskpilot/internal/config"
	"github.com/dkeegan/taskpilot/internal/tools"
	"github.com/dkeegan/taskpilot/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"

	flagEphemeral bool
	flagWorkflow  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskpilot",
		Short: "TaskPilot - conversational project tracker",
		Long: `TaskPilot is a chat assistant that manages your project board through
natural language.

It can:
  • Create, move, assign and complete tasks
  • Track incidents with severities and resolution times
  • Turn emails and incidents into tasks
  • Schedule reminders and meetings
  • Summarize your board and undo mistakes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return cli.Run(cfg)
		},
	}
	rootCmd.PersistentFlags().BoolVar(&flagEphemeral, "ephemeral", false,
		"use an in-memory demo board instead of the persistent store")
	rootCmd.PersistentFlags().StringVar(&flagWorkflow, "workflow", "",
		"workflow mode to use (agile, contact-center, itsm)")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			fmt.Println(cfg.String())

			path, _ := config.ConfigPath()
			fmt.Printf("\nConfig file path: %s\n", path)
			return nil
		},
	}

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the assistant can call",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return printToolCatalog(cfg)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("TaskPilot v%s\n", version)
		},
	}

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file and applies command-line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flagEphemeral {
		cfg.Store.Ephemeral = true
	}
	if flagWorkflow != "" {
		cfg.Workflow.Mode = flagWorkflow
	}
	return cfg, nil
}

// printToolCatalog builds the catalog for the configured workflow and lists
// every tool with its parameters
func printToolCatalog(cfg *config.Config) error {
	provider, err := workflow.NewProviderFromFile(cfg.Workflow.ModesFile)
	if err != nil {
		return err
	}
	wf, err := provider.Get(cfg.Workflow.Mode)
	if err != nil {
		return err
	}

	for _, def := range tools.NewCatalog(wf).List() {
		fmt.Printf("%s\n  %s\n", def.Name, def.Description)
		for _, p := range def.Params {
			req := ""
			if p.Required {
				req = " (required)"
			}
			fmt.Printf("    - %s <%s>%s: %s\n", p.Name, p.Type, req, p.Description)
		}
		fmt.Println()
	}
	return nil
}
