package config

import (
	"fmt"
	"strings"
)

// Dataset formats accepted by the loaders.
const (
	FormatSQuAD = "squad"
	FormatText  = "text"
)

// NormalizeFormat canonicalizes a dataset format value. Empty input selects
// the SQuAD format.
func NormalizeFormat(raw string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(raw))
	if format == "" {
		format = FormatSQuAD
	}
	switch format {
	case FormatSQuAD, FormatText:
		return format, nil
	default:
		return "", fmt.Errorf("invalid dataset format %q (expected %s|%s)", raw, FormatSQuAD, FormatText)
	}
}

// Validate rejects values no command can run with.
func (c Config) Validate() error {
	if _, err := NormalizeFormat(c.Format); err != nil {
		return err
	}
	if c.Vocab == "" {
		return fmt.Errorf("vocab is required")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1, got %d", c.BatchSize)
	}
	if c.SeqLength < 1 {
		return fmt.Errorf("seq_length must be at least 1, got %d", c.SeqLength)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.QueueDepth < 0 {
		return fmt.Errorf("queue_depth must not be negative, got %d", c.QueueDepth)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q (expected debug|info|warn|error)", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (expected text|json)", c.LogFormat)
	}
	return nil
}
