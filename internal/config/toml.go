// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Log      LogConfig      `toml:"log"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Duration     *int    `toml:"duration"`
	Policy       *string `toml:"policy"`
	Difficulty   *string `toml:"difficulty"`
	TextType     *string `toml:"text-type"`
	WordsFile    *string `toml:"words-file"`
	TextEndpoint *string `toml:"text-endpoint"`
	HistoryLimit *int    `toml:"history-limit"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
	File   *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// DefaultTemplate returns the commented config written by `speedtype config`.
func DefaultTemplate() string {
	return `# speedtype configuration
# CLI flags override values in this file.

[practice]
# Countdown in seconds; 0 disables the timer.
# duration = 60
# traditional, actual or standard.
# policy = "standard"
# easy, medium, hard or expert.
# difficulty = "medium"
# paragraphs or quotes.
# text-type = "paragraphs"
# words-file = "/path/to/words.txt"
# text-endpoint = "https://example.com/api/generate-text"
# history-limit = 20

[log]
# level = "info"
# format = "text"
# file = "/path/to/speedtype.log"
`
}
