// linsync bulk-applies workflow states to Linear issues and statuses to
// Linear projects.
//
// Usage:
//
//	linsync --issues ENG-101,ENG-102 --state Done
//	linsync --verify ENG-101,ENG-102 --expected-state Done
//	linsync --project "Mobile App" --project-state completed
//	linsync --list-project "Mobile App"
//	linsync mcp    # serve the same operations over MCP stdio
//
// LINEAR_API_KEY must be set (an .env file in the working directory is
// honored). Exit status is 0 only when every requested operation fully
// succeeds.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clintrovert/linsync/internal/config"
	"github.com/clintrovert/linsync/internal/linear"
	mcpserver "github.com/clintrovert/linsync/internal/server"
	"github.com/clintrovert/linsync/internal/syncer"
	mcptransport "github.com/mark3labs/mcp-go/server"
)

var (
	flagIssues       string
	flagState        string
	flagProject      string
	flagProjectID    string
	flagProjectState string
	flagVerify       string
	flagExpected     string
	flagListProject  string
	flagVerbose      bool
)

func main() {
	root := &cobra.Command{
		Use:           "linsync",
		Short:         "Bulk-apply workflow states to Linear issues and projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	root.Flags().StringVar(&flagIssues, "issues", "", "comma-separated issue identifiers to transition (e.g. ENG-101,ENG-102)")
	root.Flags().StringVar(&flagState, "state", "", "target workflow state name for --issues")
	root.Flags().StringVar(&flagProject, "project", "", "project to update, located by name fragment")
	root.Flags().StringVar(&flagProjectID, "project-id", "", "project to update, by exact opaque ID")
	root.Flags().StringVar(&flagProjectState, "project-state", "", "target status for the project (falls back to --state)")
	root.Flags().StringVar(&flagVerify, "verify", "", "comma-separated issue identifiers to verify, read-only")
	root.Flags().StringVar(&flagExpected, "expected-state", "", "expected workflow state name for --verify")
	root.Flags().StringVar(&flagListProject, "list-project", "", "enumerate a project's issues, read-only")
	root.Flags().BoolVar(&flagVerbose, "verbose", false, "emit step-by-step diagnostic trace")

	root.AddCommand(mcpCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if flagIssues == "" && flagProject == "" && flagProjectID == "" &&
		flagVerify == "" && flagListProject == "" {
		return cmd.Help()
	}

	// Flag pairings are validated before any network activity.
	if flagIssues != "" && flagState == "" {
		return fmt.Errorf("--issues requires --state")
	}
	if flagVerify != "" && flagExpected == "" {
		return fmt.Errorf("--verify requires --expected-state")
	}
	if (flagProject != "" || flagProjectID != "") && flagProjectState == "" && flagState == "" {
		return fmt.Errorf("--project requires --project-state (or --state)")
	}

	logger, err := newLogger(flagVerbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client := linear.NewClient(cfg.Endpoint, cfg.APIKey, cfg.PageSize, logger)
	engine := syncer.NewEngine(client, cfg.Pacing, os.Stdout, logger)
	ctx := cmd.Context()

	var failed bool

	if flagIssues != "" {
		summary, err := engine.SyncIssues(ctx, syncer.SplitCSV(flagIssues), flagState)
		if err != nil {
			return err
		}
		if summary.Failed > 0 {
			failed = true
		}
	}

	if flagProject != "" || flagProjectID != "" {
		status := flagProjectState
		if status == "" {
			status = flagState
		}
		if err := engine.SyncProject(ctx, flagProject, flagProjectID, status); err != nil {
			return err
		}
	}

	if flagVerify != "" {
		report, err := engine.Verify(ctx, syncer.SplitCSV(flagVerify), flagExpected)
		if err != nil {
			return err
		}
		if !report.Passed {
			failed = true
		}
	}

	if flagListProject != "" {
		if _, err := engine.ListProject(ctx, flagListProject); err != nil {
			return err
		}
	}

	if failed {
		return fmt.Errorf("one or more operations failed")
	}
	return nil
}

func mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the sync operations over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Diagnostics go to stderr so they don't interfere with
			// MCP's stdio transport on stdout.
			logger, err := newLogger(flagVerbose)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer logger.Sync()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			client := linear.NewClient(cfg.Endpoint, cfg.APIKey, cfg.PageSize, logger)
			s := mcpserver.New(client, cfg.Pacing, logger)

			return mcptransport.ServeStdio(s)
		},
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		return cfg.Build()
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
