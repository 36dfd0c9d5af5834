package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeromicro/go-zero/core/logx"

	"insight-memory/internal/cli"
	"insight-memory/internal/config"
	"insight-memory/internal/svc"
)

const defaultConfig = "etc/insight.yaml"

// app carries what every subcommand needs once the root has loaded config.
type app struct {
	configPath string
	verbose    bool
	in         io.Reader
	out        io.Writer
	svc        *svc.ServiceContext
	opts       []svc.Option
}

func newRootCmd(in io.Reader, out io.Writer, opts ...svc.Option) *cobra.Command {
	a := &app{in: in, out: out, opts: opts}
	root := &cobra.Command{
		Use:   "insight",
		Short: "Persistent memory for the daily insight pipeline",
		Long: `insight manages the documents the daily pipeline remembers between runs:
the weekly signal log, the trend ledger, the prediction history, report drafts
and the per-day archive.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.svc == nil {
				return nil
			}
			return a.svc.Close()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&a.configPath, "config", "f", defaultConfig, "the config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log the configuration summary")

	root.AddCommand(
		newWeekCmd(a),
		newTrendsCmd(a),
		newPredictionsCmd(a),
		newDraftCmd(a),
		newArchiveCmd(a),
		newCleanupCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := logx.SetUp(cfg.Log); err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	if a.verbose {
		cli.LogConfigSummary(cfg)
	}
	a.svc, err = svc.NewServiceContext(*cfg, a.opts...)
	return err
}

// readJSON decodes the document at path into v; "-" reads the command input.
func (a *app) readJSON(path string, v any) error {
	var r io.Reader
	switch path {
	case "":
		return fmt.Errorf("an input file is required (use - for stdin)")
	case "-":
		r = a.in
	default:
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
