package jail

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/failguard/failguard/internal/entity"
)

// Definition is one jail definition as written in YAML. Durations accept
// either Go duration strings ("10m") or plain seconds ("600").
type Definition struct {
	Name          string   `yaml:"name"`
	Enabled       *bool    `yaml:"enabled"` // nil means enabled
	MaxRetry      int      `yaml:"maxretry"`
	FindTime      string   `yaml:"findtime"`
	BanTime       string   `yaml:"bantime"`
	BantimeFactor float64  `yaml:"bantime_factor"`
	Patterns      []string `yaml:"patterns"`
	Ignore        []string `yaml:"ignore"`
}

// Config converts the definition into a validated-ready JailConfig.
func (d Definition) Config() (entity.JailConfig, error) {
	findtime, err := parseSeconds(d.FindTime)
	if err != nil {
		return entity.JailConfig{}, fmt.Errorf("findtime: %w", err)
	}
	bantime, err := parseSeconds(d.BanTime)
	if err != nil {
		return entity.JailConfig{}, fmt.Errorf("bantime: %w", err)
	}

	return entity.JailConfig{
		Name:           d.Name,
		MaxRetry:       d.MaxRetry,
		FindTime:       findtime,
		BanTime:        bantime,
		BantimeFactor:  d.BantimeFactor,
		Patterns:       d.Patterns,
		IgnorePatterns: d.Ignore,
	}, nil
}

// parseSeconds reads a duration string or a bare number of seconds.
// Empty means zero; Normalize fills the default later.
func parseSeconds(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

// LoadDefinitions reads all *.yaml jail definitions from a directory and
// constructs the enabled ones. A broken definition is logged and skipped —
// one bad file never takes down the rest of the jails.
func LoadDefinitions(dir string, logger *slog.Logger, opts ...Option) ([]*Jail, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob jail definitions: %w", err)
	}

	var jails []*Jail
	for _, file := range files {
		def, err := loadDefinition(file)
		if err != nil {
			logger.Warn("skipping jail definition", "file", file, "error", err)
			continue
		}
		if def.Enabled != nil && !*def.Enabled {
			logger.Debug("jail disabled", "file", file, "jail", def.Name)
			continue
		}
		if def.Name == "" {
			def.Name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		}

		cfg, err := def.Config()
		if err != nil {
			logger.Warn("skipping jail definition", "file", file, "jail", def.Name, "error", err)
			continue
		}

		j, err := New(cfg, opts...)
		if err != nil {
			logger.Warn("skipping jail definition", "file", file, "jail", def.Name, "error", err)
			continue
		}

		jails = append(jails, j)
		logger.Info("loaded jail", "jail", j.Name(), "patterns", len(cfg.Patterns))
	}

	logger.Info("jail definitions loaded", "dir", dir, "count", len(jails))
	return jails, nil
}

func loadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &def, nil
}
