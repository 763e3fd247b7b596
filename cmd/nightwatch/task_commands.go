package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"nightwatch/internal/shifts"
	"nightwatch/internal/store"
)

func newTasksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List tasks on the active shift",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *shifts.Service, _ *store.Store) error {
				active, err := svc.GetActiveShift(runCtx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if active == nil {
					fmt.Fprintln(out, "No active shift")
					return nil
				}
				tasks, err := svc.ListTasksForActiveShift(runCtx)
				if err != nil {
					return err
				}
				if len(tasks) == 0 {
					fmt.Fprintf(out, "Shift %d has no tasks\n", active.ID)
					return nil
				}

				rows := make([][]string, 0, len(tasks))
				for _, task := range tasks {
					state := "open"
					if task.Completed() {
						state = "done"
					}
					rows = append(rows, []string{
						strconv.FormatInt(task.ID, 10),
						state,
						task.Title,
						formatLocal(task.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "STATE", "TITLE", "CREATED"}, rows))
				return nil
			})
		},
	}
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task (attached to the active shift when one exists)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if len(title) > shifts.MaxTitleLength {
				return fmt.Errorf("task title exceeds %d characters", shifts.MaxTitleLength)
			}
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *shifts.Service, _ *store.Store) error {
				task, err := svc.AddTask(runCtx, title)
				if errors.Is(err, shifts.ErrEmptyTitle) {
					return errors.New("task title is required")
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if task.ShiftID == nil {
					fmt.Fprintf(out, "Added task %d (unassigned; it will join the next shift)\n", task.ID)
					return nil
				}
				fmt.Fprintf(out, "Added task %d to shift %d\n", task.ID, *task.ShiftID)
				return nil
			})
		},
	}
}

func newDoneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "done [id]",
		Short: "Mark a task complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *shifts.Service, _ *store.Store) error {
				task, err := svc.CompleteTask(runCtx, id)
				if errors.Is(err, shifts.ErrTaskNotFound) {
					return fmt.Errorf("task %d not found", id)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Completed task %d: %s\n", task.ID, task.Title)
				return nil
			})
		},
	}
}

func newReopenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reopen [id]",
		Short: "Reopen a completed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *shifts.Service, _ *store.Store) error {
				task, err := svc.ReopenTask(runCtx, id)
				if errors.Is(err, shifts.ErrTaskNotFound) {
					return fmt.Errorf("task %d not found", id)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reopened task %d: %s\n", task.ID, task.Title)
				return nil
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *shifts.Service, _ *store.Store) error {
				deleted, err := svc.DeleteTask(runCtx, id)
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("task %d not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
				return nil
			})
		},
	}
}
