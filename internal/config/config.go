package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Vocab        string `mapstructure:"vocab"`
	Format       string `mapstructure:"format"`
	Out          string `mapstructure:"out"`
	BatchSize    int    `mapstructure:"batch_size"`
	SeqLength    int    `mapstructure:"seq_length"`
	DropLast     bool   `mapstructure:"drop_last"`
	Lowercase    bool   `mapstructure:"lowercase"`
	StripAccents bool   `mapstructure:"strip_accents"`
	Workers      int    `mapstructure:"workers"`
	QueueDepth   int    `mapstructure:"queue_depth"`
	CacheSize    int    `mapstructure:"cache_size"`
	Strict       bool   `mapstructure:"strict"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Vocab:        "bert-base-uncased",
		Format:       FormatSQuAD,
		Out:          "out",
		BatchSize:    32,
		SeqLength:    384,
		DropLast:     false,
		Lowercase:    true,
		StripAccents: true,
		Workers:      0,
		QueueDepth:   32,
		CacheSize:    256,
		Strict:       false,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("vocab", defaults.Vocab, "Vocabulary file path or pinned model name")
	fs.String("format", defaults.Format, "Dataset format (squad or text)")
	fs.String("out", defaults.Out, "Output directory for batch archives")
	fs.Int("batch-size", defaults.BatchSize, "Rows per batch")
	fs.Int("seq-length", defaults.SeqLength, "Fixed row width in token positions")
	fs.Bool("drop-last", defaults.DropLast, "Discard the final partial batch")
	fs.Bool("lowercase", defaults.Lowercase, "Lowercase text during normalization")
	fs.Bool("strip-accents", defaults.StripAccents, "Strip combining accent marks during normalization")
	fs.Int("workers", defaults.Workers, "Tokenizer goroutines (0 = GOMAXPROCS)")
	fs.Int("queue-depth", defaults.QueueDepth, "Bound on buffered examples awaiting the consumer")
	fs.Int("cache-size", defaults.CacheSize, "Context tokenization LRU entries (0 disables)")
	fs.Bool("strict", defaults.Strict, "Abort on the first document whose question cannot fit")
	fs.String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-format", defaults.LogFormat, "Log format (text or json)")
}

// flagKeys maps each config key to the flag that overrides it. Binding
// per key keeps config file values reachable through Unmarshal, which
// viper aliases would shadow.
var flagKeys = map[string]string{
	"vocab":         "vocab",
	"format":        "format",
	"out":           "out",
	"batch_size":    "batch-size",
	"seq_length":    "seq-length",
	"drop_last":     "drop-last",
	"lowercase":     "lowercase",
	"strip_accents": "strip-accents",
	"workers":       "workers",
	"queue_depth":   "queue-depth",
	"cache_size":    "cache-size",
	"strict":        "strict",
	"log_level":     "log-level",
	"log_format":    "log-format",
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		fs := opts.Cmd.Flags()
		for key, name := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	v.SetEnvPrefix("QAPREP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("qaprep")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("vocab", c.Vocab)
	v.SetDefault("format", c.Format)
	v.SetDefault("out", c.Out)
	v.SetDefault("batch_size", c.BatchSize)
	v.SetDefault("seq_length", c.SeqLength)
	v.SetDefault("drop_last", c.DropLast)
	v.SetDefault("lowercase", c.Lowercase)
	v.SetDefault("strip_accents", c.StripAccents)
	v.SetDefault("workers", c.Workers)
	v.SetDefault("queue_depth", c.QueueDepth)
	v.SetDefault("cache_size", c.CacheSize)
	v.SetDefault("strict", c.Strict)
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("log_format", c.LogFormat)
}
