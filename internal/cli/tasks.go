package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/BuzzLyutic/task-sync/internal/edit"
	"github.com/BuzzLyutic/task-sync/internal/model"
)

func newListCmd(a *app) *cobra.Command {
	var pendingOnly bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tasks.Refresh(cmd.Context()); err != nil {
				return a.userError(err)
			}

			var tasks []model.Task
			for _, t := range a.tasks.Tasks() {
				if pendingOnly && t.Done() {
					continue
				}
				tasks = append(tasks, t)
			}

			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLABEL\tDUE\tSTATUS\tTASK")
			for _, t := range tasks {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					t.ID, t.Label.Title(), model.FormatDue(t.DueDate), statusText(t.Status), t.WhatToDo)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Only show tasks that are not done")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var due, label string

	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Add a task",
		Long: `Add a task. The due date defaults to now; use --due with
"2006-01-02T15:04" or "2006-01-02 15:04" in local time.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dueAt, err := model.ParseDue(due, time.Local)
			if err != nil {
				return err
			}
			in := model.NewTask{
				Description: strings.Join(args, " "),
				DueDate:     model.At(dueAt),
				Label:       model.Label(label),
			}
			if err := a.tasks.Add(cmd.Context(), in); err != nil {
				return a.userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Task added")
			return nil
		},
	}
	cmd.Flags().StringVarP(&due, "due", "d", "", "Due date")
	cmd.Flags().StringVarP(&label, "label", "l", string(model.LabelPersonal), "Label: personal or work")
	return cmd
}

func newDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.tasks.MarkDone(cmd.Context(), id); err != nil {
				return a.userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d marked as done\n", id)
			return nil
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.tasks.Remove(cmd.Context(), id); err != nil {
				return a.userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d deleted\n", id)
			return nil
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	var text, due, label, status string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task",
		Long:  `Change the description, due date, label or status of a task. Fields without a flag keep their value.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.tasks.Refresh(cmd.Context()); err != nil {
				return a.userError(err)
			}
			task, ok := a.tasks.Find(id)
			if !ok {
				return fmt.Errorf("task %d not found", id)
			}

			flags := cmd.Flags()
			var dueAt time.Time
			if flags.Changed("due") {
				if dueAt, err = model.ParseDue(due, time.Local); err != nil {
					return err
				}
			}
			if flags.Changed("status") && !model.Status(status).Valid() {
				return fmt.Errorf("invalid status %q", status)
			}

			sess := edit.New(a.tasks)
			sess.Start(task)
			err = sess.Change(func(d *model.Draft) {
				if flags.Changed("text") {
					d.WhatToDo = text
				}
				if flags.Changed("due") {
					d.DueDate = model.At(dueAt).Minute()
				}
				if flags.Changed("label") {
					d.Label = model.Label(label).Normalize()
				}
				if flags.Changed("status") {
					d.Status = model.Status(status)
				}
			})
			if err != nil {
				return err
			}
			if err := sess.Save(cmd.Context()); err != nil {
				return a.userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d updated\n", id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "New description")
	cmd.Flags().StringVarP(&due, "due", "d", "", "New due date")
	cmd.Flags().StringVarP(&label, "label", "l", "", "New label: personal or work")
	cmd.Flags().StringVarP(&status, "status", "s", "", "New status: pending or done")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func statusText(s model.Status) string {
	if s == model.StatusDone {
		return "Done"
	}
	return "Pending"
}
