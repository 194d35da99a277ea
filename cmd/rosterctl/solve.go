package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/amara/rosterd/internal/model"
	"github.com/amara/rosterd/internal/roster"
)

var (
	solveInputPath  string
	solveOutputPath string
	solveQuiet      bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a roster input document",
	RunE:  runSolve,
}

func init() {
	solveCmd.Flags().StringVarP(&solveInputPath, "input", "i", "", "input JSON document (required)")
	solveCmd.Flags().StringVarP(&solveOutputPath, "output", "o", "", "write output JSON to this file (default stdout)")
	solveCmd.Flags().BoolVarP(&solveQuiet, "quiet", "q", false, "suppress the summary table")
	_ = solveCmd.MarkFlagRequired("input")
}

func runSolve(cmd *cobra.Command, _ []string) error {
	raw, err := os.ReadFile(solveInputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var in model.Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	started := time.Now()
	out, err := roster.Run(context.Background(), &in, roster.RunOptions{})
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if solveOutputPath == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	} else if err := os.WriteFile(solveOutputPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if !solveQuiet {
		printSummary(out, time.Since(started))
	}
	return nil
}

func printSummary(out *model.Output, elapsed time.Duration) {
	statusColor := color.New(color.FgGreen)
	switch out.SolverRun.Status {
	case model.SolveStatusInfeasible:
		statusColor = color.New(color.FgRed)
	case model.SolveStatusFeasible, model.SolveStatusUnknown:
		statusColor = color.New(color.FgYellow)
	}

	fmt.Fprintf(os.Stderr, "Status: %s  unassigned: %d  warnings: %d  elapsed: %s\n",
		statusColor.Sprint(out.SolverRun.Status),
		out.Score.UnassignedSlots,
		len(out.Warnings),
		elapsed.Round(time.Millisecond))

	table := tablewriter.NewWriter(os.Stderr)
	table.SetHeader([]string{"Employee", "Scheme", "Month", "Work Days", "Normal", "OT", "RDP", "Paid"})
	for _, r := range out.EmployeeRoster {
		for _, mt := range r.MonthlyTotals {
			table.Append([]string{
				r.EmployeeID,
				r.Scheme,
				mt.Month,
				fmt.Sprintf("%d", mt.WorkDays),
				mt.Normal.String(),
				mt.OT.String(),
				mt.RestDayPay.String(),
				mt.Paid.String(),
			})
		}
	}
	table.Render()
}
