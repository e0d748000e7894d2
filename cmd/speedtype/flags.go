package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/speedtype/internal/config"
	"github.com/verte-zerg/speedtype/internal/store"
)

type settingsReader interface {
	Get(ctx context.Context, key, def string) (string, error)
}

// applyStoredSettings overlays settings saved by the TUI onto flags the user did not set.
func applyStoredSettings(ctx context.Context, cmd *cobra.Command, st settingsReader) error {
	stringSettings := []struct {
		key    string
		flag   string
		target *string
	}{
		{store.KeyPolicy, "policy", &practicePolicy},
		{store.KeyDifficulty, "difficulty", &practiceDifficulty},
		{store.KeyTextType, "text-type", &practiceTextType},
	}
	for _, s := range stringSettings {
		value, err := st.Get(ctx, s.key, "")
		if err != nil {
			return err
		}
		if value != "" {
			applyStringConfig(cmd, s.flag, s.target, &value)
		}
	}

	raw, err := st.Get(ctx, store.KeyDuration, "")
	if err != nil {
		return err
	}
	if raw != "" {
		duration, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid stored %s %q: %w", store.KeyDuration, raw, err)
		}
		applyIntConfig(cmd, "duration", &practiceDuration, &duration)
	}
	return nil
}

func applyLogConfig(cmd *cobra.Command, fileCfg config.FileConfig) {
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-format", &logFormat, fileCfg.Log.Format)
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
