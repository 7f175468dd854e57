// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fundscore/internal/ingest"
	"github.com/pdiddy/fundscore/internal/logging"
	"github.com/pdiddy/fundscore/internal/records"
	"github.com/pdiddy/fundscore/internal/score"
	"github.com/pdiddy/fundscore/pkg/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score <file>...",
	Short: "Normalize and confidence-score fund records",
	Long: `Score normalizes each record and computes its confidence score from the
reliability of its source, the completeness of the required and important
fields, and a plausibility check of vintage year, fund size, fee and carry.

The source of a record is its data_source field, or --default-source when
the field is missing. --source scores every record against one source.
Only a score of exactly 1 is trusted without manual review.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScore,
}

// scoredRecord is one row of machine-readable score output.
type scoredRecord struct {
	Index     int              `json:"index" yaml:"index"`
	Name      string           `json:"name" yaml:"name"`
	Source    string           `json:"source" yaml:"source"`
	Score     string           `json:"score" yaml:"score"`
	Review    bool             `json:"requires_manual_review" yaml:"requires_manual_review"`
	Breakdown *score.Breakdown `json:"breakdown,omitempty" yaml:"breakdown,omitempty"`
	Record    types.Record     `json:"record,omitempty" yaml:"record,omitempty"`
}

func runScore(cmd *cobra.Command, args []string) error {
	source, _ := cmd.Flags().GetString("source")
	defaultSource, _ := cmd.Flags().GetString("default-source")
	explain, _ := cmd.Flags().GetBool("explain")
	withRecord, _ := cmd.Flags().GetBool("records")
	format, _ := cmd.Flags().GetString("format")
	workers, _ := cmd.Flags().GetInt("workers")

	n, s, err := buildStages()
	if err != nil {
		return err
	}
	if source != "" {
		if err := s.RequireSource(source); err != nil {
			return err
		}
	}

	p, err := ingest.New(n, s, nil, types.IngestConfig{
		Workers:       workers,
		DefaultSource: defaultSource,
	}, logging.New("score"))
	if err != nil {
		return err
	}

	recs, err := readInputs(cmd, args)
	if err != nil {
		return err
	}
	if source != "" {
		for i, rec := range recs {
			rec = rec.Clone()
			rec[types.FieldDataSource] = types.Text(source)
			recs[i] = rec
		}
	}

	outcomes, err := p.Evaluate(context.Background(), recs)
	if err != nil {
		return err
	}

	rows := make([]scoredRecord, len(outcomes))
	for i, o := range outcomes {
		rows[i] = scoredRecord{
			Index:  o.Index,
			Name:   o.Record.Get(types.FieldName).String(),
			Source: o.Source,
			Score:  o.Score().String(),
			Review: score.RequiresManualReview(o.Score()),
		}
		if explain {
			b := o.Breakdown
			rows[i].Breakdown = &b
		}
		if withRecord {
			rows[i].Record = o.Record
		}
	}

	switch format {
	case "text", "":
		return formatScoreOutput(os.Stdout, outcomes, explain)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "yaml":
		return records.WriteYAML(os.Stdout, rows)
	default:
		return fmt.Errorf("unsupported format %q: use text, json or yaml", format)
	}
}

func formatScoreOutput(w io.Writer, outcomes []ingest.Outcome, explain bool) error {
	if len(outcomes) == 0 {
		fmt.Fprintln(w, "No records.")
		return nil
	}

	fmt.Fprintf(w, "%-5s  %-40s  %-24s  %-8s  %s\n", "#", "Name", "Source", "Score", "Review")
	fmt.Fprintln(w, strings.Repeat("-", 92))

	review := 0
	for _, o := range outcomes {
		name := truncate(o.Record.Get(types.FieldName).String(), 40)
		flag := ""
		if score.RequiresManualReview(o.Score()) {
			flag = "yes"
			review++
		}
		fmt.Fprintf(w, "%-5d  %-40s  %-24s  %-8s  %s\n",
			o.Index, name, truncate(o.Source, 24), o.Score().StringFixed(4), flag)

		if explain {
			b := o.Breakdown
			fmt.Fprintf(w, "       source %s x weight = %s, required %s, important %s, validation %s\n",
				b.Reliability, b.SourceScore.StringFixed(4), b.RequiredScore.StringFixed(4),
				b.ImportantScore.StringFixed(4), b.ValidationScore.StringFixed(4))
			if len(b.MissingRequired) > 0 {
				fmt.Fprintf(w, "       missing required: %s\n", strings.Join(b.MissingRequired, ", "))
			}
			if len(b.MissingImportant) > 0 {
				fmt.Fprintf(w, "       missing important: %s\n", strings.Join(b.MissingImportant, ", "))
			}
			for _, v := range b.Violations {
				fmt.Fprintf(w, "       violation: %s\n", v)
			}
		}
	}

	fmt.Fprintf(w, "\n%d records, %d require manual review\n", len(outcomes), review)
	return nil
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	scoreCmd.Flags().String("source", "", "score every record against this source")
	scoreCmd.Flags().String("default-source", "", "source for records without a data_source field")
	scoreCmd.Flags().Bool("explain", false, "show the components of each score")
	scoreCmd.Flags().Bool("records", false, "include the normalized record in json and yaml output")
	scoreCmd.Flags().String("format", "text", "output format: text, json, yaml")
	scoreCmd.Flags().Int("workers", 0, "records scored concurrently (0 = default)")
	addInputFlags(scoreCmd)

	rootCmd.AddCommand(scoreCmd)
}
