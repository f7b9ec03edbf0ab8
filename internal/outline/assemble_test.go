package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conspectus/conspectus/internal/models"
)

func TestAssemble_TitleHoisted(t *testing.T) {
	candidates := []candidate{
		{level: models.LevelTitle, line: Line{Page: 1, Text: "Distributed Consensus", Size: 18, Y: 760}},
		{level: models.LevelH1, line: Line{Page: 1, Text: "1. Introduction", Size: 14, Y: 700}},
		{level: models.LevelH2, line: Line{Page: 2, Text: "1.1 Motivation", Size: 12, Y: 720}},
	}

	result := assemble(candidates, "consensus.pdf")

	assert.Equal(t, "Distributed Consensus", result.Title)
	require.Len(t, result.Outline, 2)
	for _, entry := range result.Outline {
		assert.NotEqual(t, models.LevelTitle, entry.Level)
	}
	assert.Equal(t, "1. Introduction", result.Outline[0].Text)
	assert.Equal(t, 1, result.Outline[0].Page)
	assert.Equal(t, "1.1 Motivation", result.Outline[1].Text)
}

func TestAssemble_TitleFallbackToFirstH1(t *testing.T) {
	candidates := []candidate{
		{level: models.LevelH1, line: Line{Page: 1, Text: "Introduction", Size: 14, Y: 700}},
		{level: models.LevelH2, line: Line{Page: 1, Text: "Scope", Size: 12, Y: 650}},
	}

	result := assemble(candidates, "paper.pdf")

	assert.Equal(t, "Introduction", result.Title)
	// The H1 still appears in the outline, it is borrowed, not moved.
	require.Len(t, result.Outline, 2)
	assert.Equal(t, "Introduction", result.Outline[0].Text)
}

func TestAssemble_TitleFallbackToFilename(t *testing.T) {
	result := assemble(nil, "/uploads/annual_report-2025.pdf")

	assert.Equal(t, "annual report 2025", result.Title)
	require.NotNil(t, result.Outline)
	assert.Empty(t, result.Outline)
}

func TestMergeWrapped_JoinsWrappedHeading(t *testing.T) {
	candidates := []candidate{
		{level: models.LevelH1, line: Line{Page: 3, Text: "A Very Long Heading That the", Size: 14, X: 72, Y: 700}},
		{level: models.LevelH1, line: Line{Page: 3, Text: "Layout Engine Wrapped", Size: 14, X: 72, Y: 684}},
		{level: models.LevelH2, line: Line{Page: 3, Text: "First Subsection", Size: 12, X: 72, Y: 640}},
	}

	merged := mergeWrapped(candidates)

	require.Len(t, merged, 2)
	assert.Equal(t, "A Very Long Heading That the Layout Engine Wrapped", merged[0].line.Text)
	assert.Equal(t, "First Subsection", merged[1].line.Text)
}

func TestMergeWrapped_RespectsBoundaries(t *testing.T) {
	tests := []struct {
		name string
		a, b candidate
	}{
		{
			name: "different pages",
			a:    candidate{level: models.LevelH1, line: Line{Page: 1, Text: "Overview", Size: 14, X: 72, Y: 80}},
			b:    candidate{level: models.LevelH1, line: Line{Page: 2, Text: "Details", Size: 14, X: 72, Y: 760}},
		},
		{
			name: "different levels",
			a:    candidate{level: models.LevelH1, line: Line{Page: 1, Text: "Overview", Size: 14, X: 72, Y: 700}},
			b:    candidate{level: models.LevelH2, line: Line{Page: 1, Text: "Details", Size: 12, X: 72, Y: 684}},
		},
		{
			name: "gap exceeds one line height",
			a:    candidate{level: models.LevelH1, line: Line{Page: 1, Text: "Overview", Size: 14, X: 72, Y: 700}},
			b:    candidate{level: models.LevelH1, line: Line{Page: 1, Text: "Details", Size: 14, X: 72, Y: 600}},
		},
		{
			name: "next line starts its own numbering",
			a:    candidate{level: models.LevelH1, line: Line{Page: 1, Text: "1. Overview", Size: 14, X: 72, Y: 700}},
			b:    candidate{level: models.LevelH1, line: Line{Page: 1, Text: "2. Details", Size: 14, X: 72, Y: 684}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := mergeWrapped([]candidate{tt.a, tt.b})
			assert.Len(t, merged, 2)
		})
	}
}

func TestFilenameTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report"},
		{"/tmp/deep/q3_sales-summary.pdf", "q3 sales summary"},
		{"no_extension", "no extension"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, filenameTitle(tt.in))
	}
}
