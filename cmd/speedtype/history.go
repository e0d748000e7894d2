package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/speedtype/internal/config"
	"github.com/verte-zerg/speedtype/internal/engine"
	"github.com/verte-zerg/speedtype/internal/historyui"
	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/stats"
	"github.com/verte-zerg/speedtype/internal/store"
)

var (
	historyPlain      bool
	historyPolicy     string
	historyDifficulty string
	historySince      string
	historyLast       int

	exportOut string
	shareCopy bool

	copyToClipboard = clipboard.WriteAll
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past results",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print a summary and table instead of the TUI")
	cmd.Flags().StringVar(&historyPolicy, "policy", "", "policy filter")
	cmd.Flags().StringVar(&historyDifficulty, "difficulty", "", "difficulty filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N results")
	return cmd
}

func historyFilter() (store.ResultFilter, error) {
	filter := store.ResultFilter{Limit: historyLast}
	if historyPolicy != "" {
		p, err := model.ParsePolicy(historyPolicy)
		if err != nil {
			return filter, fmt.Errorf("invalid --policy value: %w", err)
		}
		filter.Policy = p
	}
	if historyDifficulty != "" {
		d, err := model.ParseDifficulty(historyDifficulty)
		if err != nil {
			return filter, fmt.Errorf("invalid --difficulty value: %w", err)
		}
		filter.Difficulty = d
	}
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	return filter, nil
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	filter, err := historyFilter()
	if err != nil {
		return err
	}
	return withStore(func(ctx context.Context, st *store.Store) error {
		if historyPlain {
			results, err := st.ListResults(ctx, filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := stats.RenderSummary(out, results); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			if err := stats.RenderHistoryTable(out, results); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		}
		program := tea.NewProgram(historyui.NewModel(st, filter), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run history TUI: %w", err)
		}
		return nil
	})
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export history as JSON",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportOut, "out", "", "output file (default typing-test-history-YYYY-MM-DD.json, - for stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		eng, err := loadEngine(ctx, cmd, st)
		if err != nil {
			return err
		}
		data, err := eng.SerializeHistory()
		if err != nil {
			return err
		}
		data = append(data, '\n')
		if exportOut == "-" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		path := exportOut
		if path == "" {
			path = engine.ExportFileName(time.Now())
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d results to %s\n", len(eng.History()), path)
		return err
	})
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a previously exported history file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}
	results, err := engine.DeserializeHistory(data)
	if err != nil {
		return err
	}
	return withStore(func(ctx context.Context, st *store.Store) error {
		if _, err := historyLimit(cmd); err != nil {
			return err
		}
		added, err := st.ImportResults(ctx, results)
		if err != nil {
			return err
		}
		eng, err := loadEngine(ctx, cmd, st)
		if err != nil {
			return err
		}
		if err := st.ReplaceResults(ctx, eng.History()); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d results\n", added, len(results))
		return err
	})
}

func newClearHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-history",
		Short: "Delete all stored results",
		Args:  cobra.NoArgs,
		RunE:  runClearHistoryCmd,
	}
}

func runClearHistoryCmd(cmd *cobra.Command, _ []string) error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		eng, err := loadEngine(ctx, cmd, st)
		if err != nil {
			return err
		}
		eng.ClearHistory()
		if err := st.ReplaceResults(ctx, eng.History()); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		return err
	})
}

func newBestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "best",
		Short: "Show the personal best",
		Args:  cobra.NoArgs,
		RunE:  runBestCmd,
	}
}

func runBestCmd(cmd *cobra.Command, _ []string) error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		eng, err := loadEngine(ctx, cmd, st)
		if err != nil {
			return err
		}
		best, ok := eng.PersonalBest()
		if !ok {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "No results yet.")
			return err
		}
		return writeResult(cmd.OutOrStdout(), "Personal best", best)
	})
}

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Print the share text for the latest result",
		Args:  cobra.NoArgs,
		RunE:  runShareCmd,
	}
	cmd.Flags().BoolVar(&shareCopy, "copy", false, "copy the text to the clipboard")
	return cmd
}

func runShareCmd(cmd *cobra.Command, _ []string) error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		results, err := st.ListResults(ctx, store.ResultFilter{Limit: 1})
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return fmt.Errorf("no results to share")
		}
		text := engine.ShareText(results[0])
		if shareCopy {
			if err := copyToClipboard(text); err != nil {
				return fmt.Errorf("failed to copy to clipboard: %w", err)
			}
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
		return err
	})
}

func withStore(fn func(ctx context.Context, st *store.Store) error) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	return fn(context.Background(), st)
}

func historyLimit(cmd *cobra.Command) (int, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return 0, fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "history-limit", &practiceHistoryLimit, fileCfg.Practice.HistoryLimit)
	applyLogConfig(cmd, fileCfg)
	if practiceHistoryLimit <= 0 {
		return 0, fmt.Errorf("--history-limit must be > 0")
	}
	return practiceHistoryLimit, nil
}

// loadEngine builds an engine over the stored history for read-only commands.
func loadEngine(ctx context.Context, cmd *cobra.Command, st *store.Store) (*engine.Engine, error) {
	limit, err := historyLimit(cmd)
	if err != nil {
		return nil, err
	}
	log, err := newCLILogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	results, err := st.ListResults(ctx, store.ResultFilter{Limit: limit})
	if err != nil {
		return nil, err
	}
	cfg := engine.DefaultConfig()
	cfg.HistoryLimit = limit
	return engine.New(cfg, engine.WithLogger(log), engine.WithHistory(results))
}

func writeResult(w io.Writer, label string, r model.TestResult) error {
	_, err := fmt.Fprintf(w, "%s: %d WPM (%d Net WPM, %d CPM) with %d%% accuracy, %s, %s, %s\n",
		label, r.WPM, r.NetWPM, r.CPM, r.Accuracy, r.Policy, r.Difficulty, r.Date.Local().Format("2006-01-02 15:04"))
	return err
}
