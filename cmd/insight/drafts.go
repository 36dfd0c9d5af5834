package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"insight-memory/pkg/draft"
)

func newDraftCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Manage report drafts awaiting review",
	}

	var period, kind, status string
	addKeyFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&period, "period", "", "period key: YYYY-MM-DD or YYYY-Www")
		c.Flags().StringVar(&kind, "kind", string(draft.KindDaily), "daily or weekly")
		_ = c.MarkFlagRequired("period")
	}

	var file string
	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Save a draft unless it was already approved or sent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var payload json.RawMessage
			if err := a.readJSON(file, &payload); err != nil {
				return err
			}
			var opts []draft.SaveOption
			if status != "" {
				opts = append(opts, draft.WithStatus(draft.Status(status)))
			}
			d, written, err := a.svc.Drafts.Save(period, draft.Kind(kind), payload, opts...)
			if err != nil {
				return err
			}
			return a.print(map[string]any{"written": written, "draft": d})
		},
	}
	addKeyFlags(saveCmd)
	saveCmd.Flags().StringVar(&file, "file", "-", "JSON draft payload")
	saveCmd.Flags().StringVar(&status, "status", "", "initial status (default pending_review)")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print a draft",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.svc.Drafts.Load(period, draft.Kind(kind))
			if err != nil {
				return err
			}
			return a.print(d)
		},
	}
	addKeyFlags(showCmd)

	statusCmd := &cobra.Command{
		Use:   "status <pending_review|approved|sent>",
		Short: "Move a draft to another review status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.svc.Drafts.UpdateStatus(period, draft.Kind(kind), draft.Status(args[0]))
			if err != nil {
				return err
			}
			return a.print(d)
		},
	}
	addKeyFlags(statusCmd)

	var listKind, listStatus string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List drafts, optionally filtered",
		RunE: func(cmd *cobra.Command, _ []string) error {
			drafts, err := a.svc.Drafts.List(draft.Kind(listKind), draft.Status(listStatus))
			if err != nil {
				return err
			}
			rows := make([]string, 0, len(drafts))
			for _, d := range drafts {
				rows = append(rows, fmt.Sprintf("%s\t%s\t%s\t%s", d.PeriodKey, d.Kind, d.Status, d.UpdatedAt))
			}
			return a.print(rows)
		},
	}
	listCmd.Flags().StringVar(&listKind, "kind", "", "filter by kind")
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")

	cmd.AddCommand(saveCmd, showCmd, statusCmd, listCmd)
	return cmd
}
