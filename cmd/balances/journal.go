package main

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vadiminshakov/balances/config"
	"github.com/vadiminshakov/balances/internal/storage/journal"
)

func newJournalCmd() *cobra.Command {
	var (
		cfgPath string
		dir     string
		after   uint64
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print journaled row outcomes as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// --dir wins, then journal_dir from the config file or environment
			if !cmd.Flags().Changed("dir") {
				cfg, err := config.Load(cfgPath)
				if err != nil {
					return err
				}
				if cfg.JournalDir != "" {
					dir = cfg.JournalDir
				}
			}

			store, err := journal.NewWALStore(dir)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			entries, err := store.EntriesAfter(after)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, e := range entries {
				if err := enc.Encode(e); err != nil {
					return errors.Wrap(err, "encode journal entry")
				}
			}

			return nil
		},
	}
	cmd.Flags().StringVar(&cfgPath, config.FlagConfig, "", "path to yaml config providing journal_dir")
	cmd.Flags().StringVar(&dir, "dir", journal.DefaultDir, "journal directory")
	cmd.Flags().Uint64Var(&after, "after", 0, "print entries with an index greater than this")

	return cmd
}
