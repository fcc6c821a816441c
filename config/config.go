package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTxCacheSize = 64 * 1024 * 1024
	DefaultLogLevel    = "info"
)

// environment overrides
const (
	EnvTxCacheSize   = "BALANCES_TX_CACHE_SIZE"
	EnvPruneAccounts = "BALANCES_PRUNE_ACCOUNTS"
	EnvJournalDir    = "BALANCES_JOURNAL_DIR"
	EnvJournalSync   = "BALANCES_JOURNAL_SYNC"
	EnvMetricsFile   = "BALANCES_METRICS_FILE"
	EnvLogLevel      = "BALANCES_LOG_LEVEL"
)

type Config struct {
	// TxCacheSize bounds how many non-disputed transactions stay referenceable by disputes.
	TxCacheSize   int
	PruneAccounts bool
	// JournalDir enables the audit journal when set.
	JournalDir string
	// JournalSync fsyncs every journal row. Each input row then costs one disk sync.
	JournalSync bool
	// MetricsFile enables the metrics textfile dump when set.
	MetricsFile string
	LogLevel    string
	SortOutput  bool
}

// ConfigTmp mirrors the yaml layout. Values are kept as strings so that
// parse errors can name the offending key.
type ConfigTmp struct {
	TxCacheSize   string `yaml:"tx_cache_size,omitempty"`
	PruneAccounts string `yaml:"prune_accounts,omitempty"`
	JournalDir    string `yaml:"journal_dir,omitempty"`
	JournalSync   string `yaml:"journal_sync,omitempty"`
	MetricsFile   string `yaml:"metrics_file,omitempty"`
	LogLevel      string `yaml:"log_level,omitempty"`
	SortOutput    string `yaml:"sort_output,omitempty"`
}

func Default() Config {
	return Config{
		TxCacheSize:   DefaultTxCacheSize,
		PruneAccounts: true,
		JournalSync:   true,
		LogLevel:      DefaultLogLevel,
		SortOutput:    true,
	}
}

// Load builds the configuration from defaults, the optional yaml file at path
// and environment overrides, in that order.
func Load(path string) (Config, error) {
	cfg, err := load(path)
	if err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.applyYaml(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports the first invalid value.
func (c Config) Validate() error {
	if c.TxCacheSize < 1 {
		return errors.Errorf("incorrect 'tx_cache_size' param: must be a positive integer, got %d", c.TxCacheSize)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "incorrect 'log_level' param %q", c.LogLevel)
	}

	return nil
}

// ZapLevel returns the parsed log level. Call Validate first.
func (c Config) ZapLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}

	return level
}

func (c *Config) applyYaml(path string) error {
	f, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config")
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return errors.Wrapf(err, "parse yaml config %s", path)
	}

	if tmp.TxCacheSize != "" {
		if c.TxCacheSize, err = parseInt("tx_cache_size", tmp.TxCacheSize); err != nil {
			return err
		}
	}
	if tmp.PruneAccounts != "" {
		if c.PruneAccounts, err = parseBool("prune_accounts", tmp.PruneAccounts); err != nil {
			return err
		}
	}
	if tmp.SortOutput != "" {
		if c.SortOutput, err = parseBool("sort_output", tmp.SortOutput); err != nil {
			return err
		}
	}
	if tmp.JournalSync != "" {
		if c.JournalSync, err = parseBool("journal_sync", tmp.JournalSync); err != nil {
			return err
		}
	}
	if tmp.JournalDir != "" {
		c.JournalDir = tmp.JournalDir
	}
	if tmp.MetricsFile != "" {
		c.MetricsFile = tmp.MetricsFile
	}
	if tmp.LogLevel != "" {
		c.LogLevel = strings.ToLower(tmp.LogLevel)
	}

	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var err error
	if v, ok := lookup(EnvTxCacheSize); ok {
		if c.TxCacheSize, err = parseInt(EnvTxCacheSize, v); err != nil {
			return err
		}
	}
	if v, ok := lookup(EnvPruneAccounts); ok {
		if c.PruneAccounts, err = parseBool(EnvPruneAccounts, v); err != nil {
			return err
		}
	}
	if v, ok := lookup(EnvJournalDir); ok {
		c.JournalDir = v
	}
	if v, ok := lookup(EnvJournalSync); ok {
		if c.JournalSync, err = parseBool(EnvJournalSync, v); err != nil {
			return err
		}
	}
	if v, ok := lookup(EnvMetricsFile); ok {
		c.MetricsFile = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = strings.ToLower(v)
	}

	return nil
}

func parseInt(key, v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, errors.Wrapf(err, "incorrect '%s' param (must be an integer)", key)
	}

	return n, nil
}

func parseBool(key, v string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, errors.Wrapf(err, "incorrect '%s' param (must be a boolean)", key)
	}

	return b, nil
}
