// GAudit Core - workspace compliance audit runner
//
// This is the command line entry point. It wires configuration, logging,
// the connection pool and the audit engine together, runs the fixed audit
// sequence, and renders stored runs for inspection.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gaudit-core/internal/audit"
	"github.com/nerrad567/gaudit-core/internal/engine"
	"github.com/nerrad567/gaudit-core/internal/infrastructure/config"
	"github.com/nerrad567/gaudit-core/internal/infrastructure/database"
	"github.com/nerrad567/gaudit-core/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "gaudit",
		Short:         "Run workspace compliance audits against a local store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("GAUDIT_CONFIG"), "path to YAML config (optional)")

	root.AddCommand(newRunCmd(&configPath))
	root.AddCommand(newShowCmd(&configPath))
	root.AddCommand(newVersionCmd())

	return root
}

// newRunCmd builds the command that executes the full audit sequence.
func newRunCmd(configPath *string) *cobra.Command {
	var domain string
	var skip []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the fixed audit sequence and record the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if domain != "" {
				cfg.Audit.Domain = domain
			}
			if len(skip) > 0 {
				cfg.Audit.SkippedServices = append(cfg.Audit.SkippedServices, skip...)
			}

			log := logging.New(cfg.Logging, version)

			pool, err := database.NewPool(database.Config{
				Path:        cfg.Database.Path,
				Capacity:    cfg.Database.PoolCapacity,
				BusyTimeout: cfg.Database.BusyTimeout,
			})
			if err != nil {
				return err
			}
			defer pool.Close() //nolint:errcheck // Shutdown path

			ctx := cmd.Context()
			if err := pool.Initialize(ctx); err != nil {
				return err
			}
			log.Info("database ready", "path", cfg.Database.Path)

			store := audit.NewStore(pool, audit.NewTracker(), log)
			runner := engine.NewRunner(store, engine.Environment{
				Domain:          cfg.Audit.Domain,
				APIServices:     cfg.Audit.APIServices,
				SkippedServices: cfg.Audit.SkippedServices,
				CLIArgs:         invocationArgs(domain, skip),
			}, log)

			report, err := runner.Run(ctx)
			if err != nil {
				return err
			}

			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "workspace domain under audit")
	cmd.Flags().StringSliceVar(&skip, "skip", nil, "services to skip (repeatable)")

	return cmd
}

// newShowCmd builds the command that renders a stored run.
func newShowCmd(configPath *string) *cobra.Command {
	var runID int64
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the last recorded run, or a specific run by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			pool, err := database.NewPool(database.Config{
				Path:        cfg.Database.Path,
				Capacity:    cfg.Database.PoolCapacity,
				BusyTimeout: cfg.Database.BusyTimeout,
			})
			if err != nil {
				return err
			}
			defer pool.Close() //nolint:errcheck // Shutdown path

			ctx := cmd.Context()
			reader := audit.NewReader(pool)

			var run *audit.Run
			if runID > 0 {
				run, err = reader.FetchRun(ctx, runID)
			} else {
				run, err = reader.FetchLastRun(ctx)
			}
			if err != nil {
				return err
			}
			if run == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(run)
			}

			printRun(cmd.OutOrStdout(), run)
			return nil
		},
	}

	cmd.Flags().Int64Var(&runID, "run-id", 0, "run id to show (default: latest)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gaudit %s (%s)\n", version, commit)
		},
	}
}

// invocationArgs captures the flags used for this run, recorded on the run
// record for later reporting.
func invocationArgs(domain string, skip []string) map[string]string {
	args := map[string]string{}
	if domain != "" {
		args["domain"] = domain
	}
	for i, s := range skip {
		args[fmt.Sprintf("skip.%d", i)] = s
	}
	if len(args) == 0 {
		return nil
	}
	return args
}
