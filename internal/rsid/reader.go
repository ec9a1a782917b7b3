// Package rsid reads variant identifier lists from line-oriented files.
package rsid

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Reader loads identifier lists, one identifier per line.
type Reader struct {
	logger *zap.Logger
}

// NewReader creates a reader.
func NewReader() *Reader {
	return &Reader{logger: zap.NewNop()}
}

// SetLogger sets the logger for suspicious-identifier warnings.
func (r *Reader) SetLogger(l *zap.Logger) {
	r.logger = l
}

// ReadFile returns the whitespace-trimmed, non-empty lines of the file in
// order. Blank lines are dropped. Identifiers that do not look like dbSNP
// RSIDs (rs followed by digits) are kept but logged, since the remote
// service is the authority on what resolves.
func (r *Reader) ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	var rsids []string
	suspicious := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		if !LooksValid(id) {
			suspicious++
			r.logger.Warn("identifier does not look like an RSID",
				zap.String("id", id))
		}
		rsids = append(rsids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}

	if suspicious > 0 {
		r.logger.Warn("input contains identifiers that may not resolve",
			zap.Int("count", suspicious))
	}

	return rsids, nil
}

// LooksValid reports whether id has the rs<digits> shape of a dbSNP RSID.
func LooksValid(id string) bool {
	if !strings.HasPrefix(id, "rs") || len(id) == 2 {
		return false
	}
	for _, c := range id[2:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
