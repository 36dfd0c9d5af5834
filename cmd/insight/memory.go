package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"insight-memory/pkg/insight"
	"insight-memory/pkg/memory"
)

func newWeekCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Accumulate signals for the weekly report",
	}

	var date, file string
	appendCmd := &cobra.Command{
		Use:   "append",
		Short: "Record one day's signal batch, rolling the week over when needed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var batch []memory.Signal
			if err := a.readJSON(file, &batch); err != nil {
				return err
			}
			if date == "" {
				date = a.svc.Clock.Today()
			}
			if err := a.svc.Weekly.AppendDay(date, batch); err != nil {
				return err
			}
			return a.print(map[string]any{"date": date, "signals": len(batch)})
		},
	}
	appendCmd.Flags().StringVar(&date, "date", "", "day key YYYY-MM-DD (default today)")
	appendCmd.Flags().StringVar(&file, "file", "-", "JSON array of signals")

	var flat bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the weekly ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flat {
				return a.print(a.svc.Weekly.FlattenCurrentWeek())
			}
			return a.print(a.svc.Weekly.Load())
		},
	}
	showCmd.Flags().BoolVar(&flat, "flat", false, "print the current week's signals as one list")

	rotateCmd := &cobra.Command{
		Use:   "rotate",
		Short: "Archive the current week after the weekly report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.svc.Weekly.Rotate(); err != nil {
				return err
			}
			return a.print(map[string]any{"archived_weeks": len(a.svc.Weekly.Load().ArchivedWeeks)})
		},
	}

	cmd.AddCommand(appendCmd, showCmd, rotateCmd)
	return cmd
}

func newTrendsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Maintain the trend ledger",
	}

	var updateFile string
	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Merge a trend update document into the ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var update memory.TrendUpdate
			if err := a.readJSON(updateFile, &update); err != nil {
				return err
			}
			res, err := a.svc.Trends.Apply(update)
			if err != nil {
				return err
			}
			return a.print(res)
		},
	}
	applyCmd.Flags().StringVar(&updateFile, "file", "-", "JSON {updated_trends, new_trends}")

	var signalsFile string
	proposeCmd := &cobra.Command{
		Use:   "propose",
		Short: "Ask the model for trend deltas and merge them",
		Long: `Ask the model for trend deltas and merge them.

Signals come from --file when given, otherwise from the current week.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.svc.Proposer == nil {
				return insight.ErrNoClient
			}
			var signals []memory.Signal
			if signalsFile != "" {
				if err := a.readJSON(signalsFile, &signals); err != nil {
					return err
				}
			} else {
				signals = a.svc.Weekly.FlattenCurrentWeek()
			}
			res, ok, err := a.svc.Proposer.ProposeAndApply(cmd.Context(), signals)
			if err != nil {
				return err
			}
			if !ok {
				return a.print(map[string]any{"applied": false})
			}
			return a.print(map[string]any{"applied": true, "result": res})
		},
	}
	proposeCmd.Flags().StringVar(&signalsFile, "file", "", "JSON array of signals")

	var summary bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the trend ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger := a.svc.Trends.Load()
			if summary {
				return a.print(ledger.Summaries())
			}
			return a.print(ledger)
		},
	}
	showCmd.Flags().BoolVar(&summary, "summary", false, "print name, trajectory and count only, strongest first")

	cmd.AddCommand(applyCmd, proposeCmd, showCmd)
	return cmd
}

func newPredictionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predictions",
		Short: "Record and recall stated implications",
	}

	var pred memory.Prediction
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Append a prediction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pred.PredictionText == "" {
				return errors.New("--text is required")
			}
			saved, err := a.svc.Predictions.Append(pred)
			if err != nil {
				return err
			}
			return a.print(saved)
		},
	}
	addCmd.Flags().StringVar(&pred.PredictionText, "text", "", "prediction text")
	addCmd.Flags().StringVar(&pred.Category, "category", "", "category")
	addCmd.Flags().StringVar(&pred.SourceSignal, "source", "", "title of the signal it came from")
	addCmd.Flags().StringVar(&pred.Timeframe, "timeframe", "", "expected timeframe")

	var weeks int
	var asContext bool
	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "Print predictions from the last weeks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if weeks < 0 {
				return fmt.Errorf("--weeks cannot be negative")
			}
			if asContext {
				_, err := fmt.Fprintln(a.out, insight.PredictionContext(a.svc.Predictions, weeks))
				return err
			}
			return a.print(a.svc.Predictions.Recent(weeks))
		},
	}
	recentCmd.Flags().IntVar(&weeks, "weeks", insight.DefaultPredictionWeeks, "lookback in weeks")
	recentCmd.Flags().BoolVar(&asContext, "context", false, "render as prompt context")

	cmd.AddCommand(addCmd, recentCmd)
	return cmd
}
