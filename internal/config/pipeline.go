package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ControlPagos/internal/schema"
)

// RetryConfig is the lock retry policy for unattended runs.
type RetryConfig struct {
	MaxAttempts int    `yaml:"max_attempts"`
	Delay       string `yaml:"delay"`
}

// PipelineConfig is the `pipeline:` block of services.yaml.
type PipelineConfig struct {
	SourcePath      string         `yaml:"source_path"`
	SourceSheet     string         `yaml:"source_sheet"`
	OutputRoot      string         `yaml:"output_root"`
	LedgerPath      string         `yaml:"ledger_path"`
	LedgerSheets    []string       `yaml:"ledger_sheets"`
	PendingToken    string         `yaml:"pending_token"`
	MatchMode       string         `yaml:"match_mode"`
	StatusFallback  bool           `yaml:"status_fallback"`
	BlankSeparators bool           `yaml:"blank_separators"`
	SeparatorRows   int            `yaml:"separator_rows"`
	Locale          string         `yaml:"locale"`
	TimeZone        string         `yaml:"timezone"`
	Retry           RetryConfig    `yaml:"retry"`
	Aliases         []schema.Alias `yaml:"aliases"`
}

type document struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// Default returns the configuration used when services.yaml says nothing.
func Default() PipelineConfig {
	return PipelineConfig{
		SourcePath:    DefaultSourceFile,
		SourceSheet:   DefaultSourceSheet,
		OutputRoot:    DefaultOutputRoot,
		LedgerPath:    DefaultLedgerFile,
		PendingToken:  PendingToken,
		MatchMode:     DefaultMatchMode,
		SeparatorRows: SeparatorRows,
		Locale:        DefaultLocale,
		TimeZone:      DefaultTimeZone,
		Retry: RetryConfig{
			MaxAttempts: DefaultRetryAttempts,
			Delay:       DefaultRetryDelay.String(),
		},
	}
}

// Load reads the pipeline block from a services.yaml file. Keys that are not
// set keep their defaults.
func Load(path string) (PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PipelineConfig{}, err
	}
	return Parse(data)
}

// Parse is Load for in-memory YAML.
func Parse(data []byte) (PipelineConfig, error) {
	doc := document{Pipeline: Default()}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return PipelineConfig{}, fmt.Errorf("parse pipeline config: %w", err)
	}
	return doc.Pipeline, nil
}

// ApplyEnv overrides settings from CONTROL_PAGOS_* variables.
func (c *PipelineConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
		return nil
	}

	str("SOURCE", &c.SourcePath)
	str("SOURCE_SHEET", &c.SourceSheet)
	str("OUTPUT_ROOT", &c.OutputRoot)
	str("LEDGER", &c.LedgerPath)
	str("PENDING_TOKEN", &c.PendingToken)
	str("MATCH_MODE", &c.MatchMode)
	str("LOCALE", &c.Locale)
	str("TIMEZONE", &c.TimeZone)
	str("RETRY_DELAY", &c.Retry.Delay)
	if v, ok := lookup(EnvPrefix + "RETRY_ATTEMPTS"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sRETRY_ATTEMPTS: %w", EnvPrefix, err)
		}
		c.Retry.MaxAttempts = n
	}
	if err := boolean("STATUS_FALLBACK", &c.StatusFallback); err != nil {
		return err
	}
	return boolean("BLANK_SEPARATORS", &c.BlankSeparators)
}

// Validate checks the values that cannot be defaulted silently.
func (c PipelineConfig) Validate() error {
	if strings.TrimSpace(c.SourcePath) == "" {
		return fmt.Errorf("pipeline.source_path is required")
	}
	if strings.TrimSpace(c.LedgerPath) == "" {
		return fmt.Errorf("pipeline.ledger_path is required")
	}
	switch strings.ToLower(strings.TrimSpace(c.MatchMode)) {
	case "", "day", "week":
	default:
		return fmt.Errorf("pipeline.match_mode must be day or week, got %q", c.MatchMode)
	}
	if _, err := c.RetryDelay(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	for _, a := range c.Aliases {
		if _, err := schema.ParseField(string(a.Field)); err != nil {
			return fmt.Errorf("pipeline.aliases %q: %w", a.Header, err)
		}
	}
	return nil
}

// AliasTable merges the configured aliases into the built-in table.
func (c PipelineConfig) AliasTable() schema.AliasTable {
	extra := make([]schema.Alias, 0, len(c.Aliases))
	for _, a := range c.Aliases {
		if f, err := schema.ParseField(string(a.Field)); err == nil {
			a.Field = f
			extra = append(extra, a)
		}
	}
	return schema.DefaultAliases().Merge(extra)
}

// RetryDelay parses Retry.Delay.
func (c PipelineConfig) RetryDelay() (time.Duration, error) {
	if strings.TrimSpace(c.Retry.Delay) == "" {
		return DefaultRetryDelay, nil
	}
	d, err := time.ParseDuration(c.Retry.Delay)
	if err != nil {
		return 0, fmt.Errorf("pipeline.retry.delay: %w", err)
	}
	return d, nil
}

// Location loads the configured time zone.
func (c PipelineConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(c.TimeZone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("pipeline.timezone: %w", err)
	}
	return loc, nil
}
