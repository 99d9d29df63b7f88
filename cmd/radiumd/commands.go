package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func buildPlanCmd(workspaceRoot *string) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "plan <source>",
		Short: "Decompose a requirement into a task graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveWorkspaceRoot(*workspaceRoot)
			if err != nil {
				return err
			}
			dag, err := runPlan(cmd.Context(), root, args[0], title)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "planned %s: %d tasks -> %s\n", dag.RequirementID, len(dag.Tasks), dagPath(root, dag.RequirementID))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "human-readable requirement title (default: source)")
	return cmd
}

func buildRunCmd(workspaceRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run <requirement-id>",
		Short: "Execute a previously planned task graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveWorkspaceRoot(*workspaceRoot)
			if err != nil {
				return err
			}
			report, err := runRun(cmd.Context(), root, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatReport(report))
			if !report.Success {
				return withHint(fmt.Errorf("requirement %s did not complete", args[0]), "inspect `radiumd status "+args[0]+"`")
			}
			return nil
		},
	}
}

func buildCompleteCmd(workspaceRoot *string) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "complete <source>",
		Short: "Plan and execute a requirement in one step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveWorkspaceRoot(*workspaceRoot)
			if err != nil {
				return err
			}
			report, err := runComplete(cmd.Context(), root, args[0], title)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatReport(report))
			if !report.Success {
				return withHint(fmt.Errorf("requirement did not complete"), "inspect `radiumd status`")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "human-readable requirement title (default: source)")
	return cmd
}

func buildStatusCmd(workspaceRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status [requirement-id]",
		Short: "Report on resumable requirements and telemetry totals",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveWorkspaceRoot(*workspaceRoot)
			if err != nil {
				return err
			}
			var id string
			if len(args) == 1 {
				id = args[0]
			}
			lines, summary, err := runStatus(cmd.Context(), root, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(lines) == 0 {
				fmt.Fprintln(out, "no resumable requirements")
			}
			for _, l := range lines {
				fmt.Fprintf(out, "%s: %d completed, %d failed, %d blocked, %d pending\n",
					l.RequirementID, l.Completed, l.Failed, l.Blocked, l.Pending)
			}
			if summary != nil {
				fmt.Fprintf(out, "tokens: %d  cost: $%.4f\n", summary.TotalTokens, summary.TotalCost)
			}
			return nil
		},
	}
}

func buildCleanCmd(workspaceRoot *string) *cobra.Command {
	var wipePlans bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove scheduler snapshots, telemetry DB, and agent memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveWorkspaceRoot(*workspaceRoot)
			if err != nil {
				return err
			}
			if err := runClean(root, wipePlans); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleaned", root+"/.radium/_internals")
			return nil
		},
	}
	cmd.Flags().BoolVar(&wipePlans, "plans", false, "also remove persisted task graphs under .radium/plan")
	return cmd
}

func buildDoctorCmd(workspaceRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose config, sandbox, provider credentials, and tool policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveWorkspaceRoot(*workspaceRoot)
			if err != nil {
				return err
			}
			report, err := runDoctor(cmd.Context(), root)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !report.ConfigOK {
				fmt.Fprintf(out, "config: FAIL (%s)\n", report.ConfigErr)
				return withHint(fmt.Errorf("config at %s is invalid", report.ConfigPath), "run `radiumd doctor` after fixing the file")
			}
			fmt.Fprintf(out, "config: ok (%s)\n", report.ConfigPath)
			fmt.Fprintf(out, "sandbox: %s\n", report.SandboxKind)
			fmt.Fprintf(out, "providers with credentials: %v\n", report.ProvidersOK)
			if len(report.ProvidersMissed) > 0 {
				fmt.Fprintf(out, "providers missing credentials: %v\n", report.ProvidersMissed)
			}
			fmt.Fprintf(out, "tool policy conflicts: %d\n", report.PolicyConflicts)
			return nil
		},
	}
}
