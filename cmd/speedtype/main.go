// Package main provides the CLI entrypoint for speedtype.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/speedtype/internal/config"
	"github.com/verte-zerg/speedtype/internal/engine"
	"github.com/verte-zerg/speedtype/internal/logging"
	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/store"
	"github.com/verte-zerg/speedtype/internal/textsource"
	"github.com/verte-zerg/speedtype/internal/tui"
	"github.com/verte-zerg/speedtype/internal/wordlist"
)

const (
	defaultDuration   = 60
	defaultPolicy     = string(model.PolicyStandard)
	defaultDifficulty = string(model.DifficultyMedium)
	defaultTextType   = string(model.TextParagraphs)
)

var (
	configPath string
	dbPath     string
	logLevel   string
	logFormat  string
	logFile    string

	practiceDuration     int
	practicePolicy       string
	practiceDifficulty   string
	practiceTextType     string
	practiceWordsFile    string
	practiceTextEndpoint string
	practiceHistoryLimit int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "speedtype",
		Short:         "Terminal typing speed tester",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	pf.StringVar(&dbPath, "db", config.DefaultDBPath(), "database path")
	pf.StringVar(&logLevel, "log-level", logging.DefaultLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", logging.DefaultFormat, "log format (text, json)")
	pf.IntVar(&practiceHistoryLimit, "history-limit", engine.DefaultHistoryLimit, "number of results to keep")

	rootCmd.Flags().IntVar(&practiceDuration, "duration", defaultDuration, "test duration in seconds (0 disables the timer)")
	rootCmd.Flags().StringVar(&practicePolicy, "policy", defaultPolicy, "calculation policy (traditional, actual, standard)")
	rootCmd.Flags().StringVar(&practiceDifficulty, "difficulty", defaultDifficulty, "difficulty (easy, medium, hard, expert)")
	rootCmd.Flags().StringVar(&practiceTextType, "text-type", defaultTextType, "text type (paragraphs, quotes)")
	rootCmd.Flags().StringVar(&practiceWordsFile, "words-file", "", "word list file, one word per line")
	rootCmd.Flags().StringVar(&practiceTextEndpoint, "text-endpoint", "", "remote text generation endpoint")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "log file used while the TUI is running")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newClearHistoryCmd())
	rootCmd.AddCommand(newBestCmd())
	rootCmd.AddCommand(newShareCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	if err := applyStoredSettings(ctx, cmd, st); err != nil {
		return err
	}
	applyIntConfig(cmd, "duration", &practiceDuration, fileCfg.Practice.Duration)
	applyStringConfig(cmd, "policy", &practicePolicy, fileCfg.Practice.Policy)
	applyStringConfig(cmd, "difficulty", &practiceDifficulty, fileCfg.Practice.Difficulty)
	applyStringConfig(cmd, "text-type", &practiceTextType, fileCfg.Practice.TextType)
	applyStringConfig(cmd, "words-file", &practiceWordsFile, fileCfg.Practice.WordsFile)
	applyStringConfig(cmd, "text-endpoint", &practiceTextEndpoint, fileCfg.Practice.TextEndpoint)
	applyLogConfig(cmd, fileCfg)
	applyIntConfig(cmd, "history-limit", &practiceHistoryLimit, fileCfg.Practice.HistoryLimit)
	applyStringConfig(cmd, "log-file", &logFile, fileCfg.Log.File)

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if logFile == "" {
		logFile = config.DefaultLogPath()
	}
	out, err := logging.OpenFile(logFile)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()
	log, err := logging.New(logLevel, logFormat, out)
	if err != nil {
		return err
	}

	history, err := st.ListResults(ctx, store.ResultFilter{Limit: cfg.HistoryLimit})
	if err != nil {
		return err
	}
	eng, err := engine.New(engineConfig(cfg), engine.WithLogger(log), engine.WithHistory(history))
	if err != nil {
		return err
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"policy":     string(cfg.Policy),
		"difficulty": string(cfg.Difficulty),
		"duration":   cfg.Duration,
	}).Info("starting practice")
	m := tui.NewModel(cfg, eng, st, provider, log)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func buildConfig() (model.Config, error) {
	if practiceDuration < 0 {
		return model.Config{}, fmt.Errorf("--duration must be >= 0")
	}
	if practiceHistoryLimit <= 0 {
		return model.Config{}, fmt.Errorf("--history-limit must be > 0")
	}
	policy, err := model.ParsePolicy(practicePolicy)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid --policy value: %w", err)
	}
	difficulty, err := model.ParseDifficulty(practiceDifficulty)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid --difficulty value: %w", err)
	}
	textType, err := model.ParseTextType(practiceTextType)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid --text-type value: %w", err)
	}
	return model.Config{
		Duration:     practiceDuration,
		Policy:       policy,
		Difficulty:   difficulty,
		TextType:     textType,
		WordsFile:    practiceWordsFile,
		TextEndpoint: practiceTextEndpoint,
		HistoryLimit: practiceHistoryLimit,
	}, nil
}

func engineConfig(cfg model.Config) engine.Config {
	return engine.Config{
		Policy:       cfg.Policy,
		Difficulty:   cfg.Difficulty,
		Duration:     time.Duration(cfg.Duration) * time.Second,
		HistoryLimit: cfg.HistoryLimit,
	}
}

func newProvider(cfg model.Config) (textsource.Provider, error) {
	if cfg.TextEndpoint != "" {
		return textsource.NewHTTPProvider(cfg.TextEndpoint), nil
	}
	words, err := wordlist.Load(cfg.WordsFile)
	if err != nil {
		return nil, err
	}
	return textsource.NewGenerator(words), nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.DefaultTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

// newCLILogger returns the logger used by non-interactive subcommands.
func newCLILogger(w io.Writer) (*logrus.Logger, error) {
	return logging.New(logLevel, logFormat, w)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
