// Command radiumd is the workstation-local entrypoint for the Radium
// agent orchestration engine: it wires configuration, the model cache,
// router, tool/policy registries, and sandbox into an engine.Engine, then
// dispatches the command-surface verb named in spec §6 (plan, run,
// complete, status, clean, doctor).
//
// Grounded on the teacher's cmd/nexus/main.go entrypoint shape (resolve
// config path, build a root cobra.Command, wire subcommands, run with a
// signal-aware context) narrowed to this engine's verb set — the CLI
// presentation layer beyond these verbs (TUI, desktop shell, admin
// command groups) is named only as an external contract in spec §1/§6
// and is not implemented here.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := buildRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, renderCLIError(err))
		os.Exit(exitCodeFor(err))
	}
}

func buildRootCmd() *cobra.Command {
	var workspaceRoot string

	root := &cobra.Command{
		Use:   "radiumd",
		Short: "Radium agent orchestration engine",
		Long: `radiumd plans a requirement into a task graph, executes it with AI
agents under tool policy and sandboxing, and tracks cost/token telemetry.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&workspaceRoot, "workspace", "", "workspace root (default: $RADIUM_WORKSPACE or cwd)")

	root.AddCommand(
		buildPlanCmd(&workspaceRoot),
		buildRunCmd(&workspaceRoot),
		buildCompleteCmd(&workspaceRoot),
		buildStatusCmd(&workspaceRoot),
		buildCleanCmd(&workspaceRoot),
		buildDoctorCmd(&workspaceRoot),
	)
	return root
}

func resolveWorkspaceRoot(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("RADIUM_WORKSPACE"); env != "" {
		return env, nil
	}
	return os.Getwd()
}
