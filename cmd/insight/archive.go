package main

import (
	"github.com/spf13/cobra"

	"insight-memory/pkg/archive"
)

func newArchiveCmd(a *app) *cobra.Command {
	var date, rawFile, insightsFile, summary string
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Write the day's brief and referenced sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var raw []archive.RawItem
			if err := a.readJSON(rawFile, &raw); err != nil {
				return err
			}
			var insights []archive.Insight
			if err := a.readJSON(insightsFile, &insights); err != nil {
				return err
			}
			if date == "" {
				date = a.svc.Clock.Today()
			}
			brief, sources, err := a.svc.Archive.Archive(date, raw, insights, summary)
			if err != nil {
				return err
			}
			return a.print(map[string]any{
				"date":         brief.Date,
				"insights":     len(brief.Insights),
				"source_items": sources.ItemCount,
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day key YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&rawFile, "raw", "", "JSON array of collected raw items")
	cmd.Flags().StringVar(&insightsFile, "insights", "", "JSON array of insights")
	cmd.Flags().StringVar(&summary, "trend-summary", "", "trend summary paragraph")
	_ = cmd.MarkFlagRequired("raw")
	_ = cmd.MarkFlagRequired("insights")
	return cmd
}

func newCleanupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Apply retention to drafts, archived sources, captures and proposal records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := a.svc.Config.Retention
			drafts, err := a.svc.Drafts.Sweep(r.DraftDays)
			if err != nil {
				return err
			}
			swept, err := a.svc.Archive.Sweep(r.SourcesDays, r.CaptureDays)
			if err != nil {
				return err
			}
			proposals, err := a.svc.Journal.Sweep(r.SourcesDays)
			if err != nil {
				return err
			}
			return a.print(map[string]any{
				"drafts":    drafts,
				"sources":   swept.Sources,
				"captures":  swept.Captures,
				"proposals": proposals,
			})
		},
	}
}
