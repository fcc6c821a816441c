package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

const (
	FlagConfig        = "config"
	FlagTxCacheSize   = "tx-cache-size"
	FlagPruneAccounts = "prune-accounts"
	FlagJournalDir    = "journal-dir"
	FlagJournalSync   = "journal-sync"
	FlagMetricsFile   = "metrics-file"
	FlagLogLevel      = "log-level"
	FlagSortOutput    = "sort-output"
)

// RegisterFlags declares the command line overrides. Defaults shown in help are
// the built-in ones; only flags set explicitly are applied by ApplyFlags.
func RegisterFlags(fs *pflag.FlagSet) {
	def := Default()
	fs.String(FlagConfig, "", "path to yaml config")
	fs.Int(FlagTxCacheSize, def.TxCacheSize, "number of non-disputed transactions kept referenceable")
	fs.Bool(FlagPruneAccounts, def.PruneAccounts, "delete accounts that became empty")
	fs.String(FlagJournalDir, def.JournalDir, "directory of the audit journal, disabled when empty")
	fs.Bool(FlagJournalSync, def.JournalSync, "fsync every journal row; disable to speed up large inputs at the cost of durability")
	fs.String(FlagMetricsFile, def.MetricsFile, "write prometheus metrics to this file after the run")
	fs.String(FlagLogLevel, def.LogLevel, "log level: debug, info, warn, error")
	fs.Bool(FlagSortOutput, def.SortOutput, "sort output rows by client id")
}

// FromFlags loads the config named by --config and applies explicitly set flags on top.
func FromFlags(fs *pflag.FlagSet) (Config, error) {
	path, err := fs.GetString(FlagConfig)
	if err != nil {
		return Config{}, errors.Wrap(err, "read --config")
	}

	cfg, err := load(path)
	if err != nil {
		return Config{}, err
	}

	if err := cfg.ApplyFlags(fs); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// ApplyFlags overrides fields whose flag was set on the command line.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	if fs.Changed(FlagTxCacheSize) {
		if c.TxCacheSize, err = fs.GetInt(FlagTxCacheSize); err != nil {
			return errors.Wrapf(err, "invalid --%s", FlagTxCacheSize)
		}
	}
	if fs.Changed(FlagPruneAccounts) {
		if c.PruneAccounts, err = fs.GetBool(FlagPruneAccounts); err != nil {
			return errors.Wrapf(err, "invalid --%s", FlagPruneAccounts)
		}
	}
	if fs.Changed(FlagJournalDir) {
		if c.JournalDir, err = fs.GetString(FlagJournalDir); err != nil {
			return errors.Wrapf(err, "invalid --%s", FlagJournalDir)
		}
	}
	if fs.Changed(FlagJournalSync) {
		if c.JournalSync, err = fs.GetBool(FlagJournalSync); err != nil {
			return errors.Wrapf(err, "invalid --%s", FlagJournalSync)
		}
	}
	if fs.Changed(FlagMetricsFile) {
		if c.MetricsFile, err = fs.GetString(FlagMetricsFile); err != nil {
			return errors.Wrapf(err, "invalid --%s", FlagMetricsFile)
		}
	}
	if fs.Changed(FlagLogLevel) {
		if c.LogLevel, err = fs.GetString(FlagLogLevel); err != nil {
			return errors.Wrapf(err, "invalid --%s", FlagLogLevel)
		}
	}
	if fs.Changed(FlagSortOutput) {
		if c.SortOutput, err = fs.GetBool(FlagSortOutput); err != nil {
			return errors.Wrapf(err, "invalid --%s", FlagSortOutput)
		}
	}

	return nil
}
