// Package output provides annotation output formatters.
package output

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/inodb/rsvep/internal/annotate"
)

// standardColumns always lead the output, in this order.
var standardColumns = []string{
	"rsid",
	"start",
	"end",
	"most_severe_consequence",
	"gene_symbols",
}

// TabWriter writes annotation records as tab-separated values.
type TabWriter struct {
	w     *bufio.Writer
	extra []string
}

// NewTabWriter creates a TSV writer. Requested additional fields become
// extra columns after the standard ones, in sorted order.
func NewTabWriter(w io.Writer, extraFields []string) *TabWriter {
	extra := append([]string(nil), extraFields...)
	sort.Strings(extra)
	return &TabWriter{
		w:     bufio.NewWriter(w),
		extra: extra,
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	columns := append(append([]string(nil), standardColumns...), tw.extra...)
	_, err := tw.w.WriteString(strings.Join(columns, "\t") + "\n")
	return err
}

// Write writes one annotation row.
func (tw *TabWriter) Write(ann *annotate.Annotation) error {
	values := make([]string, 0, len(standardColumns)+len(tw.extra))
	values = append(values,
		ann.RSID,
		ann.Start,
		ann.End,
		ann.MostSevereConsequence,
		ann.GeneSymbols,
	)
	for _, f := range tw.extra {
		values = append(values, ann.Extra[f])
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes buffered rows to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
