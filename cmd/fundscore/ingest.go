// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fundscore/internal/fundstore"
	"github.com/pdiddy/fundscore/internal/ingest"
	"github.com/pdiddy/fundscore/internal/logging"
	"github.com/pdiddy/fundscore/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Ingest fund records that clear the confidence threshold",
	Long: `Ingest normalizes and scores every record, then stores those scoring at
least --min-confidence in the fund store under <data-dir>/index/funds.db.
Funds are deduplicated on an identifier derived from name and vintage year;
duplicates are reported and skipped. Each run writes an ingestion log.

Use --dry-run to see which records would be accepted without storing them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := ingestConfig()
	if err != nil {
		return err
	}

	n, s, err := buildStages()
	if err != nil {
		return err
	}

	recs, err := readInputs(cmd, args)
	if err != nil {
		return err
	}

	logger := logging.New("ingest")

	var sink ingest.Sink
	if !dryRun {
		store, err := fundstore.NewStore(storeConfig())
		if err != nil {
			return err
		}
		defer store.Close()
		logger.Info("fund store opened", "path", store.Path())
		sink = store
	}

	p, err := ingest.New(n, s, sink, cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := p.Run(ctx, recs, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d record(s) failed ingestion", summary.Failed)
	}
	return nil
}

// ingestConfig reads the ingestion settings from flags, the config file
// and FUNDSCORE_INGEST_* environment variables.
func ingestConfig() (types.IngestConfig, error) {
	cfg := types.IngestConfig{
		Workers:       viper.GetInt("ingest.workers"),
		DefaultSource: viper.GetString("ingest.default_source"),
	}
	if raw := viper.GetString("ingest.min_confidence"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return types.IngestConfig{}, fmt.Errorf("parsing min confidence %q: %w", raw, err)
		}
		cfg.MinConfidence = d
	}
	return cfg, nil
}

func init() {
	ingestCmd.Flags().String("min-confidence", ingest.DefaultMinConfidence.String(), "acceptance threshold in [0,1]")
	ingestCmd.Flags().Int("workers", 0, "records evaluated concurrently (0 = default)")
	ingestCmd.Flags().String("default-source", "", "source for records without a data_source field")
	ingestCmd.Flags().Bool("dry-run", false, "evaluate records without storing them")
	addInputFlags(ingestCmd)

	for key, flag := range map[string]string{
		"ingest.min_confidence": "min-confidence",
		"ingest.workers":        "workers",
		"ingest.default_source": "default-source",
	} {
		if err := viper.BindPFlag(key, ingestCmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(ingestCmd)
}
