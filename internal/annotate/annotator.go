package annotate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/inodb/rsvep/internal/vep"
)

// defaultRequestDelay spaces requests out against the public service.
const defaultRequestDelay = 100 * time.Millisecond

// Fetcher fetches the VEP payload for one identifier.
type Fetcher interface {
	Fetch(ctx context.Context, rsid string) (vep.Response, error)
}

// AnnotationWriter defines the interface for writing annotation records.
type AnnotationWriter interface {
	WriteHeader() error
	Write(ann *Annotation) error
	Flush() error
}

// Summary reports the outcome of a run.
type Summary struct {
	Total     int
	Annotated int
	Failed    int
}

// Annotator drives the fetch-extract-write pipeline, one identifier at a
// time, in input order.
type Annotator struct {
	fetcher      Fetcher
	extraFields  []string
	requestDelay time.Duration
	logger       *zap.Logger
}

// NewAnnotator creates an annotator backed by the given fetcher.
func NewAnnotator(f Fetcher) *Annotator {
	return &Annotator{
		fetcher:      f,
		requestDelay: defaultRequestDelay,
		logger:       zap.NewNop(),
	}
}

// SetExtraFields configures additional response fields to extract.
func (a *Annotator) SetExtraFields(fields []string) {
	a.extraFields = fields
}

// SetRequestDelay configures the pause between consecutive requests.
func (a *Annotator) SetRequestDelay(d time.Duration) {
	if d >= 0 {
		a.requestDelay = d
	}
}

// SetLogger sets the logger for progress and failure messages.
func (a *Annotator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// AnnotateAll annotates every identifier and writes exactly one record per
// input, in input order. An identifier whose fetch fails degrades to an
// all-empty record and never stops the batch; only context cancellation and
// write errors abort the run.
func (a *Annotator) AnnotateAll(ctx context.Context, rsids []string, w AnnotationWriter) (Summary, error) {
	summary := Summary{Total: len(rsids)}

	if err := w.WriteHeader(); err != nil {
		return summary, fmt.Errorf("write header: %w", err)
	}

	for i, rsid := range rsids {
		if i > 0 && a.requestDelay > 0 {
			timer := time.NewTimer(a.requestDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return summary, ctx.Err()
			case <-timer.C:
			}
		}

		resp, err := a.fetcher.Fetch(ctx, rsid)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			a.logger.Warn("no annotation",
				zap.String("rsid", rsid),
				zap.Error(err))
			resp = nil
		}

		ann := Extract(rsid, resp, a.extraFields)
		if ann.IsEmpty() {
			summary.Failed++
		} else {
			summary.Annotated++
		}

		a.logger.Debug("processed identifier",
			zap.String("rsid", rsid),
			zap.Int("index", i+1),
			zap.Int("total", summary.Total))

		if err := w.Write(ann); err != nil {
			return summary, fmt.Errorf("write annotation for %s: %w", rsid, err)
		}
	}

	return summary, w.Flush()
}
