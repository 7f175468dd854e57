// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fundscore/internal/records"
	"github.com/pdiddy/fundscore/pkg/types"
)

// readInputs reads the records of every file in args, in order. "-" reads
// standard input in the format given by --input-format.
func readInputs(cmd *cobra.Command, args []string) ([]types.Record, error) {
	var all []types.Record
	for _, path := range args {
		var (
			recs []types.Record
			err  error
		)
		if path == "-" {
			name, _ := cmd.Flags().GetString("input-format")
			format, ferr := records.ParseFormat(name)
			if ferr != nil {
				return nil, ferr
			}
			recs, err = records.Read(os.Stdin, format)
			if err != nil {
				err = fmt.Errorf("stdin: %w", err)
			}
		} else {
			recs, err = records.ReadFile(path)
		}
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}
	return all, nil
}

// addInputFlags registers the flags read by readInputs.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("input-format", "json", "format of standard input when a file is \"-\": json, jsonl, yaml")
}

// outputFormat returns the --format flag as a records format.
func outputFormat(cmd *cobra.Command) (records.Format, error) {
	name, _ := cmd.Flags().GetString("format")
	return records.ParseFormat(name)
}
