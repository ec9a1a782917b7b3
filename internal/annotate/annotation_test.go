package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inodb/rsvep/internal/vep"
)

func TestExtract_AllFields(t *testing.T) {
	resp := vep.Response{
		{
			"start":                   float64(90000),
			"end":                     float64(90010),
			"most_severe_consequence": "missense_variant",
			"transcript_consequences": []any{
				map[string]any{"gene_symbol": "GENE1"},
				map[string]any{"gene_symbol": "GENE1"},
				map[string]any{"gene_symbol": "GENE2"},
			},
		},
	}

	ann := Extract("rs12345", resp, nil)

	assert.Equal(t, "rs12345", ann.RSID)
	assert.Equal(t, "90000", ann.Start)
	assert.Equal(t, "90010", ann.End)
	assert.Equal(t, "missense_variant", ann.MostSevereConsequence)
	assert.Equal(t, "GENE1,GENE2", ann.GeneSymbols)
	assert.False(t, ann.IsEmpty())
}

func TestExtract_EncounterOrderPreserved(t *testing.T) {
	resp := vep.Response{
		{
			"transcript_consequences": []any{
				map[string]any{"gene_symbol": "ZNF1"},
				map[string]any{"gene_symbol": "ABC1"},
				map[string]any{"gene_symbol": "ZNF1"},
			},
		},
	}

	ann := Extract("rs1", resp, nil)
	assert.Equal(t, "ZNF1,ABC1", ann.GeneSymbols)
}

func TestExtract_EmptyObject(t *testing.T) {
	ann := Extract("rs12345", vep.Response{{}}, nil)

	assert.Equal(t, "rs12345", ann.RSID)
	assert.Empty(t, ann.Start)
	assert.Empty(t, ann.End)
	assert.Empty(t, ann.MostSevereConsequence)
	assert.Empty(t, ann.GeneSymbols)
	assert.True(t, ann.IsEmpty())
}

func TestExtract_NilPayload(t *testing.T) {
	ann := Extract("rs12345", nil, nil)
	assert.True(t, ann.IsEmpty())
	assert.Equal(t, "rs12345", ann.RSID)
}

func TestExtract_ConsequencesWithoutGeneSymbols(t *testing.T) {
	resp := vep.Response{
		{
			"most_severe_consequence": "intergenic_variant",
			"transcript_consequences": []any{
				map[string]any{"impact": "MODIFIER"},
				map[string]any{"gene_symbol": ""},
			},
		},
	}

	ann := Extract("rs1", resp, nil)
	assert.Equal(t, "intergenic_variant", ann.MostSevereConsequence)
	assert.Empty(t, ann.GeneSymbols)
}

func TestExtract_TopLevelGeneSymbolFallback(t *testing.T) {
	resp := vep.Response{
		{
			"gene_symbol": "BRCA2",
		},
	}

	ann := Extract("rs1", resp, nil)
	assert.Equal(t, "BRCA2", ann.GeneSymbols)
}

func TestExtract_MalformedTranscriptConsequences(t *testing.T) {
	// transcript_consequences present but not a list of objects
	resp := vep.Response{
		{
			"start":                   float64(100),
			"transcript_consequences": "bogus",
		},
	}

	ann := Extract("rs1", resp, nil)
	assert.Equal(t, "100", ann.Start)
	assert.Empty(t, ann.GeneSymbols)
}

func TestExtract_ExtraFields(t *testing.T) {
	resp := vep.Response{
		{
			"assembly_name": "GRCh38",
			"strand":        float64(1),
			"transcript_consequences": []any{
				map[string]any{"impact": "MODERATE", "gene_symbol": "KRAS"},
			},
		},
	}

	ann := Extract("rs1", resp, []string{"assembly_name", "strand", "impact", "nonexistent"})

	assert.Equal(t, "GRCh38", ann.Extra["assembly_name"])
	assert.Equal(t, "1", ann.Extra["strand"])
	assert.Equal(t, "MODERATE", ann.Extra["impact"], "falls through to transcript consequences")
	assert.Empty(t, ann.Extra["nonexistent"])
}

func TestExtract_ExtraFieldsEmptyPayload(t *testing.T) {
	ann := Extract("rs1", nil, []string{"assembly_name"})

	v, ok := ann.Extra["assembly_name"]
	assert.True(t, ok, "requested fields are always present in the record")
	assert.Empty(t, v)
	assert.True(t, ann.IsEmpty())
}

func TestScalarField(t *testing.T) {
	m := map[string]any{
		"int":    float64(42),
		"float":  1.5,
		"string": "hello",
		"bool":   true,
		"object": map[string]any{},
		"list":   []any{},
	}

	tests := []struct {
		key      string
		expected string
	}{
		{"int", "42"},
		{"float", "1.5"},
		{"string", "hello"},
		{"bool", "true"},
		{"object", ""},
		{"list", ""},
		{"missing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, scalarField(m, tt.key))
		})
	}
}
