// Package annotate turns VEP API responses into flat annotation records.
package annotate

import (
	"strconv"
	"strings"

	"github.com/inodb/rsvep/internal/vep"
)

// Annotation is the flat record extracted for one identifier. An empty
// string means the value was absent from the response.
type Annotation struct {
	RSID                  string
	Start                 string
	End                   string
	MostSevereConsequence string
	GeneSymbols           string            // comma-joined, encounter order
	Extra                 map[string]string // requested additional fields
}

// IsEmpty reports whether every extracted field is absent.
func (a *Annotation) IsEmpty() bool {
	if a.Start != "" || a.End != "" || a.MostSevereConsequence != "" || a.GeneSymbols != "" {
		return false
	}
	for _, v := range a.Extra {
		if v != "" {
			return false
		}
	}
	return true
}

// Extract pulls the annotation fields for one identifier out of a VEP
// payload. Every lookup degrades to an empty value when its key is missing
// at any level; a nil or empty payload yields an all-empty record.
func Extract(rsid string, resp vep.Response, extraFields []string) *Annotation {
	ann := &Annotation{RSID: rsid}
	if len(extraFields) > 0 {
		ann.Extra = make(map[string]string, len(extraFields))
		for _, f := range extraFields {
			ann.Extra[f] = ""
		}
	}

	if len(resp) == 0 {
		return ann
	}

	// The endpoint returns one object per queried identifier.
	variant := resp[0]

	ann.Start = scalarField(variant, "start")
	ann.End = scalarField(variant, "end")
	ann.MostSevereConsequence = stringField(variant, "most_severe_consequence")
	ann.GeneSymbols = strings.Join(geneSymbols(variant), ",")

	for _, f := range extraFields {
		ann.Extra[f] = extraField(variant, f)
	}

	return ann
}

// geneSymbols collects gene_symbol values from the transcript consequences
// in encounter order, collapsing duplicates to their first occurrence. When
// the list yields nothing, a top-level gene_symbol is used as fallback.
func geneSymbols(variant map[string]any) []string {
	var symbols []string
	seen := make(map[string]bool)

	for _, tc := range transcriptConsequences(variant) {
		s := stringField(tc, "gene_symbol")
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		symbols = append(symbols, s)
	}

	if len(symbols) == 0 {
		if s := stringField(variant, "gene_symbol"); s != "" {
			symbols = append(symbols, s)
		}
	}

	return symbols
}

func transcriptConsequences(variant map[string]any) []map[string]any {
	raw, ok := variant["transcript_consequences"].([]any)
	if !ok {
		return nil
	}
	tcs := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		if m, ok := entry.(map[string]any); ok {
			tcs = append(tcs, m)
		}
	}
	return tcs
}

// extraField looks a caller-requested field up on the variant object first,
// then on the first transcript consequence carrying the key.
func extraField(variant map[string]any, key string) string {
	if _, ok := variant[key]; ok {
		return scalarField(variant, key)
	}
	for _, tc := range transcriptConsequences(variant) {
		if _, ok := tc[key]; ok {
			return scalarField(tc, key)
		}
	}
	return ""
}

// scalarField formats a scalar JSON value as a string. JSON numbers that are
// whole render without a decimal point. Missing and non-scalar values become
// the empty string.
func scalarField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
