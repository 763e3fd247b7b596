package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nightwatch/internal/shifts"
	"nightwatch/internal/store"
)

func newStartShiftCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start-shift",
		Short: "Start a shift, carrying forward incomplete tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *shifts.Service, _ *store.Store) error {
				result, err := svc.StartShift(runCtx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if result.AlreadyActive {
					fmt.Fprintf(out, "Shift %d is already active (started %s)\n",
						result.Shift.ID, formatLocal(result.Shift.StartedAt))
					return nil
				}
				fmt.Fprintf(out, "Started shift %d\n", result.Shift.ID)
				if result.Carried > 0 {
					fmt.Fprintf(out, "Carried forward %d incomplete task(s)\n", result.Carried)
				}
				return nil
			})
		},
	}
}

func newEndShiftCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "end-shift",
		Short: "End the active shift",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *shifts.Service, _ *store.Store) error {
				shift, err := svc.EndShift(runCtx)
				if errors.Is(err, shifts.ErrNoActiveShift) {
					return errors.New("no active shift to end")
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ended shift %d (started %s)\n",
					shift.ID, formatLocal(shift.StartedAt))
				return nil
			})
		},
	}
}

func newNotesCommand(ctx *commandContext) *cobra.Command {
	var shiftID int64

	cmd := &cobra.Command{
		Use:   "notes [text]",
		Short: "Replace the notes on a shift (active shift by default)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes := strings.Join(args, " ")
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *shifts.Service, _ *store.Store) error {
				target := shiftID
				if target == 0 {
					active, err := svc.GetActiveShift(runCtx)
					if err != nil {
						return err
					}
					if active == nil {
						return errors.New("no active shift; pass --shift to target a past one")
					}
					target = active.ID
				}
				shift, err := svc.SetShiftNotes(runCtx, target, notes)
				if errors.Is(err, shifts.ErrShiftNotFound) {
					return fmt.Errorf("shift %d not found", target)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated notes on shift %d\n", shift.ID)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&shiftID, "shift", 0, "Shift id to annotate (defaults to the active shift)")
	return cmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func formatLocal(ts time.Time) string {
	return ts.Local().Format("2006-01-02 15:04")
}
