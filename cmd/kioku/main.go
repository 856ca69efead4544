// Package main provides the CLI entrypoint for kioku.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/kioku/internal/config"
	"github.com/verte-zerg/kioku/internal/engine"
	"github.com/verte-zerg/kioku/internal/model"
	"github.com/verte-zerg/kioku/internal/problem"
	"github.com/verte-zerg/kioku/internal/scheduler"
	"github.com/verte-zerg/kioku/internal/stats"
	"github.com/verte-zerg/kioku/internal/store"
	"github.com/verte-zerg/kioku/internal/tui"
)

const (
	defaultMaxScore = problem.MaxScore
	defaultWeakTop  = 0
)

var (
	sessionCategories string
	sessionTypes      string
	sessionMaxScore   float64
	sessionSeed       int64
	sessionWeak       int

	configPaths bool
)

func main() {
	if err := config.LoadEnv(config.DefaultEnvPath(), ".env"); err != nil {
		logErrf("%v\n", err)
	}
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kioku",
		Short:         "TUI study quiz with weighted review",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runQuizCmd,
	}

	rootCmd.Flags().StringVar(&sessionCategories, "categories", "", "comma-separated categories (any match)")
	rootCmd.Flags().StringVar(&sessionTypes, "types", "", "comma-separated problem types (mask,qa,ox)")
	rootCmd.Flags().Float64Var(&sessionMaxScore, "max-score", defaultMaxScore, "only include problems with score <= value")
	rootCmd.Flags().Int64Var(&sessionSeed, "seed", 0, "random seed (0 = clock)")
	rootCmd.Flags().IntVar(&sessionWeak, "weak", defaultWeakTop, "study the N least accurate categories")

	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newEditCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newRestoreCmd())
	rootCmd.AddCommand(newCategoriesCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runQuizCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "categories", &sessionCategories, fileCfg.Session.Categories)
	applyStringConfig(cmd, "types", &sessionTypes, fileCfg.Session.Types)
	applyFloatConfig(cmd, "max-score", &sessionMaxScore, fileCfg.Session.MaxScore)
	applyInt64Config(cmd, "seed", &sessionSeed, fileCfg.Session.Seed)
	if !cmd.Flags().Changed("seed") {
		seed, err := seedFromEnv()
		if err != nil {
			return err
		}
		if seed != 0 {
			sessionSeed = seed
		}
	}

	filter, err := buildFilter(sessionCategories, sessionTypes, sessionMaxScore)
	if err != nil {
		return err
	}
	cfg := model.Config{Filter: filter, Seed: sessionSeed}

	return withEngine(cfg.Seed, func(ctx context.Context, eng *engine.Engine) error {
		if sessionWeak < 0 {
			return fmt.Errorf("--weak must be >= 0")
		}
		if sessionWeak > 0 && len(cfg.Filter.Categories) == 0 {
			report := eng.Report(model.StatsConfig{})
			cfg.Filter.Categories = stats.WeakCategories(report.Categories, sessionWeak)
			if len(cfg.Filter.Categories) == 0 {
				logErrln("no answered categories yet; studying everything")
			}
		}

		size, err := eng.StartSession(ctx, cfg.Filter)
		if err != nil {
			if errors.Is(err, scheduler.ErrEmptyPool) {
				return fmt.Errorf("%w (add problems with: kioku add)", err)
			}
			return fmt.Errorf("failed to start session: %w", err)
		}
		defer func() {
			if err := eng.EndSession(ctx); err != nil {
				logErrf("failed to end session: %v\n", err)
			}
		}()

		program := tea.NewProgram(tui.NewModel(eng, size), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		return nil
	})
}

// buildFilter turns session flags into a pool filter.
func buildFilter(categories, types string, maxScore float64) (model.Filter, error) {
	f := model.Filter{}
	if cats := parseList(categories); len(cats) > 0 {
		f.Categories = cats
	}
	parsed, err := parseTypes(types)
	if err != nil {
		return model.Filter{}, err
	}
	f.Types = parsed
	if maxScore < defaultMaxScore {
		v := maxScore
		f.MaxScore = &v
	}
	return f, nil
}

func parseTypes(s string) ([]model.ProblemType, error) {
	var out []model.ProblemType
	for _, part := range parseList(strings.ToLower(s)) {
		t := model.ProblemType(part)
		if !t.Valid() {
			return nil, fmt.Errorf("unknown problem type %q (use mask, qa or ox)", part)
		}
		out = append(out, t)
	}
	return out, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func seedFromEnv() (int64, error) {
	raw := strings.TrimSpace(os.Getenv(config.EnvSeed))
	if raw == "" {
		return 0, nil
	}
	seed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", config.EnvSeed, err)
	}
	return seed, nil
}

func loadFileConfig() (config.FileConfig, error) {
	cfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// withEngine opens the database and the engine around fn.
func withEngine(seed int64, fn func(ctx context.Context, eng *engine.Engine) error) error {
	ctx := context.Background()
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	eng, err := engine.Open(ctx, st, engine.Options{
		Seed: seed,
		Warnf: func(format string, args ...any) {
			logErrf(format+"\n", args...)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	return fn(ctx, eng)
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
	cmd.Flags().BoolVar(&configPaths, "paths", false, "print file locations and stored state instead of opening the editor")
	return cmd
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	if configPaths {
		return runConfigPaths(cmd.OutOrStdout())
	}
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	editorCmd := exec.Command(parts[0], append(parts[1:], path)...)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func runConfigPaths(w io.Writer) error {
	dbPath := config.DefaultDBPath()
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	keys, err := st.Keys(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list stored state: %w", err)
	}
	return writePaths(w, config.DefaultConfigPath(), config.DefaultEnvPath(), dbPath, keys)
}

// writePaths prints file locations followed by each stored key and when it last changed.
func writePaths(w io.Writer, configPath, envPath, dbPath string, keys map[string]time.Time) error {
	lines := []string{
		"Config: " + configPath,
		"Env: " + envPath,
		"Database: " + dbPath,
	}
	if len(keys) == 0 {
		lines = append(lines, "Stored state: none")
	}
	names := make([]string, 0, len(keys))
	for name := range keys {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("  %-18s %s", name, keys[name].Local().Format("2006-01-02 15:04:05")))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# kioku configuration
# Uncomment a value to enable it. CLI flags override config values.

[session]
# categories = "tax,law"  # Categories to study (any match)
# types = "mask,qa,ox"    # Problem types to include
# max-score = %.1f        # Only include problems with score <= value
# seed = 0                # Random seed (0 = clock)

[stats]
# days = %d               # Days in the daily report
# threshold = %.1f        # Score at which a problem counts as mastered
# window = %d             # Moving-average window of the accuracy chart
`,
		defaultMaxScore,
		stats.DefaultDays,
		stats.DefaultThreshold,
		defaultChartWindow,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
