package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/kioku/internal/engine"
	"github.com/verte-zerg/kioku/internal/model"
	"github.com/verte-zerg/kioku/internal/stats"
	"github.com/verte-zerg/kioku/internal/statsui"
	"github.com/verte-zerg/kioku/internal/transfer"
)

const defaultChartWindow = statsui.DefaultWindow

var (
	statsDays      int
	statsThreshold float64
	statsWindow    int
	statsPlain     bool

	exportCategories string
	exportOutput     string
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().IntVar(&statsDays, "days", stats.DefaultDays, "days in the daily report")
	cmd.Flags().Float64Var(&statsThreshold, "threshold", stats.DefaultThreshold, "score at which a problem counts as mastered")
	cmd.Flags().IntVar(&statsWindow, "window", defaultChartWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print text instead of opening the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyIntConfig(cmd, "days", &statsDays, fileCfg.Stats.Days)
	applyFloatConfig(cmd, "threshold", &statsThreshold, fileCfg.Stats.Threshold)
	applyIntConfig(cmd, "window", &statsWindow, fileCfg.Stats.Window)
	if statsDays <= 0 {
		return fmt.Errorf("--days must be > 0")
	}
	if statsWindow < 1 {
		return fmt.Errorf("--window must be >= 1")
	}

	cfg := model.StatsConfig{Days: statsDays, Threshold: statsThreshold}
	return withEngine(0, func(_ context.Context, eng *engine.Engine) error {
		report := eng.Report(cfg)
		if statsPlain {
			return writePlainStats(cmd.OutOrStdout(), report, statsWindow, listWidth())
		}
		program := tea.NewProgram(statsui.NewModel(report, statsWindow), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	})
}

func writePlainStats(w io.Writer, report stats.Report, window, width int) error {
	if err := stats.RenderSummary(w, report); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	if err := stats.RenderAccuracyChart(w, report.Days, window, width); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	if err := stats.RenderDaily(w, report.Days); err != nil {
		return fmt.Errorf("failed to write daily stats: %w", err)
	}
	if err := stats.RenderCategories(w, report.Categories, report.Threshold); err != nil {
		return fmt.Errorf("failed to write category stats: %w", err)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export problems and stats to JSON",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportCategories, "categories", "", "only export problems in these categories (any match)")
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output path (default: export_YYYYMMDD.json)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	path := exportOutput
	if path == "" {
		path = transfer.FileName(time.Now())
	}
	return withEngine(0, func(_ context.Context, eng *engine.Engine) error {
		bundle := eng.Export(parseList(exportCategories))
		if err := transfer.WriteBundle(path, bundle); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "exported %d problems to %s\n", len(bundle.Problems), path)
		return err
	})
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json|file.tsv>",
		Short: "Merge an export bundle or a TSV deck",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	bundle, err := readImport(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return withEngine(0, func(ctx context.Context, eng *engine.Engine) error {
		res, err := eng.Import(ctx, bundle)
		if err != nil {
			return fmt.Errorf("failed to import: %w", err)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d new, %d merged\n", res.Added, res.Updated)
		return err
	})
}

// readImport decodes a bundle, or a TSV deck wrapped as a bundle without stats.
func readImport(path string) (model.Bundle, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".txt":
		problems, err := transfer.LoadDeck(path, time.Now())
		if err != nil {
			return model.Bundle{}, err
		}
		return model.Bundle{Problems: problems}, nil
	default:
		return transfer.ReadBundle(path)
	}
}
