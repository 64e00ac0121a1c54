package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/and161185/eco-actions/internal/model"
	"github.com/and161185/eco-actions/internal/service"
	"github.com/and161185/eco-actions/internal/ui"
	"github.com/and161185/eco-actions/internal/validate"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var sortBy string
	var desc, asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recorded actions with totals",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := ui.ParseSortField(sortBy)
			if err != nil {
				return err
			}
			b := ui.NewBoard(opts.client())
			b.SetSort(ui.SortState{Field: field, Desc: desc})
			if err := b.Refresh(cmd.Context()); err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(b.View())
			}
			return ui.Render(cmd.OutOrStdout(), b)
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", string(ui.SortByID), "sort column: id, action, date or points")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

type formFlags struct {
	action, date, points string
}

func (f *formFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.action, "action", "a", "", "what you did")
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "when (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&f.points, "points", "p", "", "points earned (0-1000)")
}

func (f *formFlags) values() validate.FormValues {
	return validate.FormValues{Action: f.action, Date: f.date, Points: f.points}
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var f formFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new action",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := ui.NewBoard(opts.client())
			fe, err := b.Submit(cmd.Context(), f.values())
			if fe.OrNil() != nil {
				return fieldErrors(fe)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Action recorded.")
			return ui.Render(cmd.OutOrStdout(), b)
		},
	}
	f.bind(cmd)
	return cmd
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var f formFlags
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Replace an action; omitted flags keep the current values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := service.ParseID(args[0])
			if err != nil {
				return fmt.Errorf("invalid action ID %q", args[0])
			}
			b := ui.NewBoard(opts.client())
			if err := b.Refresh(cmd.Context()); err != nil {
				return err
			}
			if err := b.StartEdit(id); err != nil {
				return err
			}
			cur := *b.Editing()
			if !cmd.Flags().Changed("action") {
				f.action = cur.Action
			}
			if !cmd.Flags().Changed("date") {
				f.date = cur.Date
			}

			var fe validate.Errors
			if cmd.Flags().Changed("points") {
				fe, err = b.Submit(cmd.Context(), f.values())
			} else {
				// stored points may be fractional, which the form does not accept
				in := model.ActionInput{
					Action: strings.TrimSpace(f.action),
					Date:   strings.TrimSpace(f.date),
					Points: cur.Points,
				}
				if in == (model.ActionInput{Action: cur.Action, Date: cur.Date, Points: cur.Points}) {
					b.CancelEdit()
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to change.")
					return nil
				}
				fe, err = b.Save(cmd.Context(), in)
			}
			if fe.OrNil() != nil {
				return fieldErrors(fe)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Action %d updated.\n", id)
			return ui.Render(cmd.OutOrStdout(), b)
		},
	}
	f.bind(cmd)
	return cmd
}

func newPatchCmd(opts *rootOptions) *cobra.Command {
	var f formFlags
	cmd := &cobra.Command{
		Use:   "patch ID",
		Short: "Update only the given fields of an action (no form checks)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := service.ParseID(args[0])
			if err != nil {
				return fmt.Errorf("invalid action ID %q", args[0])
			}
			var p model.ActionPatch
			if cmd.Flags().Changed("action") {
				p.Action = &f.action
			}
			if cmd.Flags().Changed("date") {
				p.Date = &f.date
			}
			if cmd.Flags().Changed("points") {
				n, err := strconv.ParseFloat(f.points, 64)
				if err != nil {
					return fmt.Errorf("points must be a number: %q", f.points)
				}
				p.Points = &n
			}
			if p.Empty() {
				return errors.New("nothing to patch: pass --action, --date or --points")
			}

			a, err := opts.client().Patch(cmd.Context(), id, p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Table([]model.Action{a}, ui.DefaultSort))
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete an action after confirmation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := service.ParseID(args[0])
			if err != nil {
				return fmt.Errorf("invalid action ID %q", args[0])
			}
			b := ui.NewBoard(opts.client())
			if err := b.Refresh(cmd.Context()); err != nil {
				return err
			}
			confirm := func(a model.Action) bool {
				return yes || ask(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Are you sure you want to delete %q?", a.Action))
			}
			ok, err := b.Delete(cmd.Context(), id, confirm)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Action %d deleted.\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func ask(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func fieldErrors(fe validate.Errors) error {
	return fmt.Errorf("invalid input: %w", fe.OrNil())
}
