package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/rsvep/internal/annotate"
	"github.com/inodb/rsvep/internal/duckdb"
	"github.com/inodb/rsvep/internal/output"
	"github.com/inodb/rsvep/internal/rsid"
	"github.com/inodb/rsvep/internal/vep"
)

type annotateOptions struct {
	inputPath    string
	outputPath   string
	species      string
	maxRetries   int
	extraFields  []string
	outputFormat string
	overwrite    bool
}

func newAnnotateCmd() *cobra.Command {
	var opts annotateOptions

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Annotate RSIDs from a file",
		Long: `Read RSIDs from a line-oriented input file, query the Ensembl VEP REST API
for each one, and write one output row per input identifier. Identifiers
that fail all retry attempts get a row with empty annotation fields; one
bad identifier never stops the rest of the batch.`,
		Example: `  rsvep annotate -i rsids.txt -o annotations.tsv
  rsvep annotate -i rsids.txt -o annotations.tsv -s human -r 5
  rsvep annotate -i rsids.txt -o annotations.tsv -a assembly_name -a impact
  rsvep annotate -i rsids.txt -o annotations.duckdb -f duckdb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.inputPath, "input", "i", "", "Input file containing RSIDs, one per line (required)")
	flags.StringVarP(&opts.outputPath, "output", "o", "", "Output file for annotations (required)")
	flags.StringVarP(&opts.species, "species", "s", "", `Species name for the variants (default from config, then "human")`)
	flags.IntVarP(&opts.maxRetries, "max-retries", "r", 0, "Maximum attempts per API request (default from config, then 3)")
	flags.StringArrayVarP(&opts.extraFields, "additional-fields", "a", nil, "Additional response fields to include (repeatable)")
	flags.StringVarP(&opts.outputFormat, "output-format", "f", "tab", "Output format: tab, duckdb")
	flags.BoolVar(&opts.overwrite, "overwrite", false, "Overwrite the output file if it exists")

	cobra.CheckErr(cmd.MarkFlagRequired("input"))
	cobra.CheckErr(cmd.MarkFlagRequired("output"))

	return cmd
}

func runAnnotate(ctx context.Context, opts annotateOptions) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.species == "" {
		opts.species = viper.GetString("species")
	}
	if opts.maxRetries <= 0 {
		opts.maxRetries = viper.GetInt("max_retries")
	}

	if _, err := os.Stat(opts.outputPath); err == nil {
		if !opts.overwrite {
			return fmt.Errorf("output file %s already exists (use --overwrite to replace it)", opts.outputPath)
		}
		// A leftover DuckDB file would be appended to, not replaced.
		if opts.outputFormat == "duckdb" {
			if err := os.Remove(opts.outputPath); err != nil {
				return fmt.Errorf("remove existing output: %w", err)
			}
		}
	}

	reader := rsid.NewReader()
	reader.SetLogger(logger)

	rsids, err := reader.ReadFile(opts.inputPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Processing %d RSIDs...\n", len(rsids))

	client := vep.NewClient(opts.species)
	client.SetMaxRetries(opts.maxRetries)
	client.SetLogger(logger)
	if d := viper.GetDuration("retry_delay"); d > 0 {
		client.SetRetryDelay(d)
	}

	ann := annotate.NewAnnotator(client)
	ann.SetLogger(logger)
	ann.SetExtraFields(opts.extraFields)
	if d := viper.GetDuration("request_delay"); d > 0 {
		ann.SetRequestDelay(d)
	}

	var writer annotate.AnnotationWriter
	switch opts.outputFormat {
	case "tab":
		f, err := os.Create(opts.outputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		writer = output.NewTabWriter(f, opts.extraFields)
	case "duckdb":
		store, err := duckdb.Open(opts.outputPath)
		if err != nil {
			return err
		}
		defer store.Close()
		writer = duckdb.NewWriter(store)
	default:
		return fmt.Errorf("unknown output format %q", opts.outputFormat)
	}

	summary, err := ann.AnnotateAll(ctx, rsids, writer)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\nResults summary:\n")
	fmt.Fprintf(os.Stderr, "  Total RSIDs:            %d\n", summary.Total)
	fmt.Fprintf(os.Stderr, "  Successfully annotated: %d\n", summary.Annotated)
	fmt.Fprintf(os.Stderr, "  Failed to annotate:     %d\n", summary.Failed)
	if summary.Failed > 0 {
		fmt.Fprintf(os.Stderr, "  Failure rate:           %.1f%%\n",
			float64(summary.Failed)/float64(summary.Total)*100)
	}
	fmt.Fprintf(os.Stderr, "\nAnnotations saved to %s\n", opts.outputPath)

	return nil
}
