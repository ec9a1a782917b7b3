package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/rsvep/internal/annotate"
	"github.com/inodb/rsvep/internal/output"
	"github.com/inodb/rsvep/internal/rsid"
	"github.com/inodb/rsvep/internal/vep"
)

// TestPipeline_EndToEnd wires the real reader, client, annotator, and TSV
// writer against a stub VEP service: three identifiers, one failing every
// retry, must still produce exactly three rows in input order.
func TestPipeline_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		switch id {
		case "rs1":
			w.Write([]byte(`[{
				"start": 90000,
				"end": 90010,
				"most_severe_consequence": "missense_variant",
				"transcript_consequences": [
					{"gene_symbol": "GENE1"},
					{"gene_symbol": "GENE1"},
					{"gene_symbol": "GENE2"}
				]
			}]`))
		case "rs3":
			w.Write([]byte(`[{"most_severe_consequence": "intron_variant"}]`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	inputPath := filepath.Join(dir, "rsids.txt")
	outputPath := filepath.Join(dir, "annotations.tsv")
	require.NoError(t, os.WriteFile(inputPath, []byte("rs1\nrs2\n\nrs3\n"), 0644))

	rsids, err := rsid.NewReader().ReadFile(inputPath)
	require.NoError(t, err)
	require.Equal(t, []string{"rs1", "rs2", "rs3"}, rsids)

	client := vep.NewClient("human")
	client.SetBaseURL(srv.URL)
	client.SetMaxRetries(3)
	client.SetRetryDelay(0)

	ann := annotate.NewAnnotator(client)
	ann.SetRequestDelay(0)

	out, err := os.Create(outputPath)
	require.NoError(t, err)

	summary, err := ann.AnnotateAll(context.Background(), rsids, output.NewTabWriter(out, nil))
	require.NoError(t, err)
	require.NoError(t, out.Close())

	assert.Equal(t, annotate.Summary{Total: 3, Annotated: 2, Failed: 1}, summary)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 4, "header plus one row per identifier")

	assert.Equal(t, "rsid\tstart\tend\tmost_severe_consequence\tgene_symbols", lines[0])
	assert.Equal(t, "rs1\t90000\t90010\tmissense_variant\tGENE1,GENE2", lines[1])
	assert.Equal(t, "rs2\t\t\t\t", lines[2], "failed identifier gets an empty row")
	assert.Equal(t, "rs3\t\t\tintron_variant\t", lines[3])
}

func TestRunAnnotate_RefusesExistingOutput(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "rsids.txt")
	outputPath := filepath.Join(dir, "annotations.tsv")
	require.NoError(t, os.WriteFile(inputPath, []byte("rs1\n"), 0644))
	require.NoError(t, os.WriteFile(outputPath, []byte("precious\n"), 0644))

	err := runAnnotate(context.Background(), annotateOptions{
		inputPath:    inputPath,
		outputPath:   outputPath,
		outputFormat: "tab",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "precious\n", string(data))
}

func TestRunAnnotate_MissingInputIsFatal(t *testing.T) {
	dir := t.TempDir()

	err := runAnnotate(context.Background(), annotateOptions{
		inputPath:    filepath.Join(dir, "nope.txt"),
		outputPath:   filepath.Join(dir, "out.tsv"),
		outputFormat: "tab",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open input file")
}

func TestRunAnnotate_UnknownOutputFormat(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "rsids.txt")
	require.NoError(t, os.WriteFile(inputPath, []byte(""), 0644))

	err := runAnnotate(context.Background(), annotateOptions{
		inputPath:    inputPath,
		outputPath:   filepath.Join(dir, "out.xyz"),
		outputFormat: "xyz",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestRunAnnotate_EmptyInputWritesHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "rsids.txt")
	outputPath := filepath.Join(dir, "out.tsv")
	require.NoError(t, os.WriteFile(inputPath, []byte("\n\n"), 0644))

	err := runAnnotate(context.Background(), annotateOptions{
		inputPath:    inputPath,
		outputPath:   outputPath,
		outputFormat: "tab",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "rsid\tstart\tend\tmost_severe_consequence\tgene_symbols\n", string(data))
}
