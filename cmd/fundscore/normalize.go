// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fundscore/internal/records"
	"github.com/pdiddy/fundscore/pkg/types"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <file>...",
	Short: "Normalize raw fund records",
	Long: `Normalize reads raw fund records from JSON, JSON Lines or YAML files and
writes them back with canonical names, strategies, geographies, fund sizes
and vintage years. Values that cannot be canonicalized become null; all
other fields pass through unchanged.

Normalizing already normalized records leaves them unchanged.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNormalize,
}

func runNormalize(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	n, _, err := buildStages()
	if err != nil {
		return err
	}

	recs, err := readInputs(cmd, args)
	if err != nil {
		return err
	}

	out := make([]types.Record, len(recs))
	for i, rec := range recs {
		out[i] = n.Normalize(rec)
	}
	return records.Write(os.Stdout, out, format)
}

func init() {
	normalizeCmd.Flags().String("format", "json", "output format: json, jsonl, yaml")
	addInputFlags(normalizeCmd)

	rootCmd.AddCommand(normalizeCmd)
}
