package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/rsvep/internal/annotate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Writer buffers annotation records and batch-inserts them on Flush using
// the DuckDB Appender API. It implements annotate.AnnotationWriter.
type Writer struct {
	store *Store
	anns  []*annotate.Annotation
}

// NewWriter creates a writer backed by the given store.
func NewWriter(s *Store) *Writer {
	return &Writer{store: s}
}

// WriteHeader is a no-op; the table schema is the header.
func (w *Writer) WriteHeader() error {
	return nil
}

// Write buffers one annotation record.
func (w *Writer) Write(ann *annotate.Annotation) error {
	w.anns = append(w.anns, ann)
	return nil
}

// Flush batch-inserts the buffered records.
func (w *Writer) Flush() error {
	if len(w.anns) == 0 {
		return nil
	}

	conn, err := w.store.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "annotations")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, ann := range w.anns {
		extra := ""
		if len(ann.Extra) > 0 {
			s, err := json.MarshalToString(ann.Extra)
			if err != nil {
				return fmt.Errorf("encode extra fields: %w", err)
			}
			extra = s
		}

		if err := appender.AppendRow(
			ann.RSID,
			nullablePos(ann.Start),
			nullablePos(ann.End),
			ann.MostSevereConsequence,
			ann.GeneSymbols,
			extra,
		); err != nil {
			return fmt.Errorf("append annotation: %w", err)
		}
	}

	w.anns = w.anns[:0]
	return appender.Flush()
}

// nullablePos converts a verbatim position string to a DuckDB value,
// NULL when absent or non-numeric.
func nullablePos(s string) driver.Value {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return n
}
