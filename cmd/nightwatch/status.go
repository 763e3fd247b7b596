package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"nightwatch/internal/shifts"
	"nightwatch/internal/store"
	"nightwatch/internal/systemwatch"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var noSystem bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active shift, its tasks, and machine health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *shifts.Service, _ *store.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				active, err := svc.GetActiveShift(runCtx)
				if err != nil {
					return err
				}
				for _, line := range renderSectionHeader("Shift", colorize) {
					fmt.Fprintln(out, line)
				}
				if active == nil {
					fmt.Fprintln(out, renderStatusLine("Active", statusWarn, "no shift in progress", colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("Active", statusOK,
						fmt.Sprintf("shift %d since %s", active.ID, formatLocal(active.StartedAt)), colorize))
					if active.Notes != "" {
						fmt.Fprintln(out, renderStatusLine("Notes", statusInfo, active.Notes, colorize))
					}

					tasks, err := svc.ListTasksForActiveShift(runCtx)
					if err != nil {
						return err
					}
					open, done := 0, 0
					for _, task := range tasks {
						if task.Completed() {
							done++
						} else {
							open++
						}
					}
					fmt.Fprintln(out, renderStatusLine("Tasks", statusInfo,
						fmt.Sprintf("%d open, %d done", open, done), colorize))
				}

				if noSystem {
					return nil
				}

				snapCtx, cancel := context.WithTimeout(runCtx, 5*time.Second)
				defer cancel()
				snap := systemwatch.Read(snapCtx)

				for _, line := range renderSectionHeader("System", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("CPU", gaugeKind(snap.CPUPercent),
					fmt.Sprintf("%.1f%%", snap.CPUPercent), colorize))
				fmt.Fprintln(out, renderStatusLine("RAM", gaugeKind(snap.RAMPercent),
					fmt.Sprintf("%.1f%% (%d/%d MB)", snap.RAMPercent, snap.RAMUsedMB, snap.RAMTotalMB), colorize))
				fmt.Fprintln(out, renderStatusLine("Disk", gaugeKind(snap.DiskPercent),
					fmt.Sprintf("%.1f%% (%.1f/%.1f GB)", snap.DiskPercent, snap.DiskUsedGB, snap.DiskTotalGB), colorize))
				if snap.TempC != nil {
					fmt.Fprintln(out, renderStatusLine("Temperature", statusInfo,
						strconv.FormatFloat(*snap.TempC, 'f', 1, 64)+" C", colorize))
				}
				networkKind := statusOK
				if !snap.NetworkUp {
					networkKind = statusError
				}
				fmt.Fprintln(out, renderStatusLine("Network", networkKind, "up: "+yesNo(snap.NetworkUp), colorize))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&noSystem, "no-system", false, "Skip the machine health section")
	return cmd
}

func gaugeKind(percent float64) statusKind {
	switch {
	case percent >= 90:
		return statusError
	case percent >= 75:
		return statusWarn
	default:
		return statusOK
	}
}
