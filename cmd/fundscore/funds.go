// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/pdiddy/fundscore/internal/fundstore"
	"github.com/pdiddy/fundscore/internal/normalize"
	"github.com/pdiddy/fundscore/internal/records"
	"github.com/pdiddy/fundscore/pkg/types"
)

var fundsCmd = &cobra.Command{
	Use:   "funds",
	Short: "Query the fund store (list, show, export, stats, logs)",
	Long: `Funds reads the local SQLite fund store populated by ingest. Use
subcommands to list and filter funds, show one fund, export the store, or
review ingestion history.`,
}

// --- list subcommand ---

var fundsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored funds, largest first",
	Long: `List prints stored funds ordered by fund size, largest first, with
optional filters on confidence, strategy, geography, vintage year, size
and text in the name, manager or identifier. Strategy and geography filters are normalized the same way
ingested records are, so --strategy lbo matches "Buyout".`,
	RunE: runFundsList,
}

func runFundsList(cmd *cobra.Command, args []string) error {
	opts, err := listOptsFromFlags(cmd)
	if err != nil {
		return err
	}

	store, err := fundstore.NewStore(storeConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	funds, err := store.List(ctx, opts)
	if err != nil {
		return err
	}
	total, err := store.Count(ctx, opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatFundsOutput(os.Stdout, funds, total, jsonOutput)
}

func formatFundsOutput(w io.Writer, funds []types.Fund, total int, jsonOutput bool) error {
	if jsonOutput {
		entries := make([]fundstore.ExportEntry, len(funds))
		for i, f := range funds {
			entries[i] = fundstore.NewExportEntry(f)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(funds) == 0 {
		fmt.Fprintln(w, "No funds found.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-7s  %-20s  %-16s  %16s  %s\n",
		"Fund", "Vintage", "Strategy", "Geography", "Size (USD)", "Score")
	fmt.Fprintln(w, strings.Repeat("-", 112))

	for _, f := range funds {
		vintage := ""
		if f.VintageYear != nil {
			vintage = fmt.Sprint(*f.VintageYear)
		}
		size := ""
		if f.FundSizeUSD.Valid {
			size = f.FundSizeUSD.Decimal.StringFixed(0)
		}
		fmt.Fprintf(w, "%-36s  %-7s  %-20s  %-16s  %16s  %s\n",
			truncate(f.Name, 36), vintage, truncate(f.Strategy, 20),
			truncate(f.Geography, 16), size, f.Confidence.StringFixed(4))
	}

	fmt.Fprintf(w, "\n%d of %d funds\n", len(funds), total)
	return nil
}

// --- show subcommand ---

var fundsShowCmd = &cobra.Command{
	Use:   "show <identifier>",
	Short: "Show one stored fund",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := fundstore.NewStore(storeConfig())
		if err != nil {
			return err
		}
		defer store.Close()

		f, err := store.Get(context.Background(), strings.ToUpper(args[0]))
		if err != nil {
			return err
		}
		return records.WriteYAML(os.Stdout, fundstore.NewExportEntry(f))
	},
}

// --- export subcommand ---

var fundsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored funds to YAML or JSON",
	Long: `Export writes the fund store (or a filtered subset) to
<data-dir>/index/export.yaml or export.json. Supports the same filter
flags as list.`,
	RunE: runFundsExport,
}

func runFundsExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	opts, err := listOptsFromFlags(cmd)
	if err != nil {
		return err
	}

	store, err := fundstore.NewStore(storeConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(context.Background(), opts)
	case "json":
		path, err = store.ExportJSON(context.Background(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

// --- stats subcommand ---

var fundsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the fund store",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := fundstore.NewStore(storeConfig())
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Stats(context.Background())
		if err != nil {
			return err
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		return formatStatsOutput(os.Stdout, st, jsonOutput)
	},
}

func formatStatsOutput(w io.Writer, st fundstore.Stats, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	fmt.Fprintf(w, "Funds:              %d\n", st.Funds)
	fmt.Fprintf(w, "Average confidence: %s\n", st.AvgConfidence.StringFixed(4))
	fmt.Fprintf(w, "Total size (USD):   %s\n", st.TotalSize.StringFixed(0))
	if st.Funds == 0 {
		return nil
	}

	fmt.Fprintf(w, "\n%-28s  %5s  %20s  %8s  %8s\n", "Strategy", "Funds", "Total size (USD)", "Avg fee", "Avg carry")
	fmt.Fprintln(w, strings.Repeat("-", 77))
	for _, s := range sortedKeys(st.ByStrategy) {
		ss := st.ByStrategy[s]
		fmt.Fprintf(w, "%-28s  %5d  %20s  %8s  %8s\n", orNone(s), ss.Funds,
			ss.TotalSize.StringFixed(0), ss.AvgFee.StringFixed(2), ss.AvgCarry.StringFixed(2))
	}

	fmt.Fprintf(w, "\n%-28s  %5s\n", "Geography", "Funds")
	fmt.Fprintln(w, strings.Repeat("-", 35))
	for _, g := range sortedKeys(st.ByGeography) {
		fmt.Fprintf(w, "%-28s  %5d\n", orNone(g), st.ByGeography[g])
	}

	fmt.Fprintf(w, "\n%-28s  %5s\n", "Vintage", "Funds")
	fmt.Fprintln(w, strings.Repeat("-", 35))
	for _, v := range sortedKeys(st.ByVintage) {
		label := "(none)"
		if v != 0 {
			label = strconv.Itoa(v)
		}
		fmt.Fprintf(w, "%-28s  %5d\n", label, st.ByVintage[v])
	}
	return nil
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// --- logs subcommand ---

var fundsLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent ingestion runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := fundstore.NewStore(storeConfig())
		if err != nil {
			return err
		}
		defer store.Close()

		logs, err := store.IngestionLogs(context.Background(), limit)
		if err != nil {
			return err
		}
		if len(logs) == 0 {
			fmt.Println("No ingestion runs.")
			return nil
		}

		fmt.Printf("%-20s  %-24s  %-8s  %9s  %8s  %8s\n",
			"Started", "Source", "Status", "Processed", "Accepted", "Rejected")
		fmt.Println(strings.Repeat("-", 88))
		for _, l := range logs {
			fmt.Printf("%-20s  %-24s  %-8s  %9d  %8d  %8d\n",
				l.StartedAt.Local().Format("2006-01-02 15:04:05"), truncate(l.Source, 24),
				l.Status, l.Processed, l.Accepted, l.Rejected)
		}
		return nil
	},
}

// --- shared helpers ---

// listOptsFromFlags builds list filters from flags. Strategy and geography
// go through the normalizer so they match stored canonical labels.
func listOptsFromFlags(cmd *cobra.Command) (fundstore.ListOptions, error) {
	strategy, _ := cmd.Flags().GetString("strategy")
	geography, _ := cmd.Flags().GetString("geography")
	vintage, _ := cmd.Flags().GetInt("vintage")
	search, _ := cmd.Flags().GetString("search")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	opts := fundstore.ListOptions{
		VintageYear: vintage,
		Search:      search,
		Limit:       limit,
		Offset:      offset,
	}

	n, _, err := buildStages()
	if err != nil {
		return opts, err
	}
	if strategy != "" {
		opts.Strategy = n.Strategy(types.Text(strategy)).String()
	}
	if geography != "" {
		opts.Geography = n.Geography(types.Text(geography)).String()
	}

	if raw, _ := cmd.Flags().GetString("min-confidence"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return opts, fmt.Errorf("--min-confidence: %w", err)
		}
		if !types.Bounded(d) {
			return opts, fmt.Errorf("--min-confidence: %q is out of range", raw)
		}
		opts.MinConfidence = d
	}
	if opts.MinSize, err = sizeFlag(cmd, "min-size"); err != nil {
		return opts, err
	}
	if opts.MaxSize, err = sizeFlag(cmd, "max-size"); err != nil {
		return opts, err
	}
	return opts, nil
}

// sizeFlag parses a fund-size flag with the same rules as fund_size_usd,
// so "1.5B" and "$500M" are accepted. An unset flag yields zero.
func sizeFlag(cmd *cobra.Command, flag string) (decimal.Decimal, error) {
	raw, _ := cmd.Flags().GetString(flag)
	if raw == "" {
		return decimal.Zero, nil
	}
	size, ok := normalize.FundSize(types.Text(raw)).Num()
	if !ok {
		return decimal.Zero, fmt.Errorf("--%s: cannot parse %q as a fund size", flag, raw)
	}
	return size, nil
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("strategy", "", "filter by strategy (normalized, e.g. lbo matches Buyout)")
	cmd.Flags().String("geography", "", "filter by geography (normalized, e.g. uk matches Europe)")
	cmd.Flags().Int("vintage", 0, "filter by vintage year")
	cmd.Flags().String("search", "", "filter by text in name, manager or identifier")
	cmd.Flags().String("min-confidence", "", "minimum confidence score")
	cmd.Flags().String("min-size", "", "minimum fund size, e.g. 500M or $1.5B")
	cmd.Flags().String("max-size", "", "maximum fund size, e.g. 10B")
}

func init() {
	addFilterFlags(fundsListCmd)
	fundsListCmd.Flags().Int("limit", 0, "maximum funds listed (0 = use default)")
	fundsListCmd.Flags().Int("offset", 0, "funds skipped before listing")
	fundsListCmd.Flags().Bool("json", false, "output funds as JSON")

	addFilterFlags(fundsExportCmd)
	fundsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	fundsStatsCmd.Flags().Bool("json", false, "output statistics as JSON")

	fundsLogsCmd.Flags().Int("limit", 20, "maximum runs shown")

	fundsCmd.AddCommand(fundsListCmd)
	fundsCmd.AddCommand(fundsShowCmd)
	fundsCmd.AddCommand(fundsExportCmd)
	fundsCmd.AddCommand(fundsStatsCmd)
	fundsCmd.AddCommand(fundsLogsCmd)

	rootCmd.AddCommand(fundsCmd)
}
