// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fundscore/internal/tables"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Inspect the scoring and normalization tables",
	Long: `Tables prints the tables in effect: the built-in defaults with the
--tables file layered over them. The output of "tables show" is a valid
--tables file and a starting point for custom tables.`,
}

var tablesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective tables as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := tables.Marshal(loadedTables)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var tablesSourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List known sources and their reliability",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := buildStages()
		if err != nil {
			return err
		}
		for _, src := range s.Sources() {
			fmt.Printf("%-28s %s\n", src, s.Reliability(src).StringFixed(2))
		}
		fmt.Printf("%-28s %s\n", "(other)", s.Config().DefaultReliability.StringFixed(2))
		return nil
	},
}

func init() {
	tablesCmd.AddCommand(tablesShowCmd)
	tablesCmd.AddCommand(tablesSourcesCmd)

	rootCmd.AddCommand(tablesCmd)
}
