package outline

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(s string, size, x, y float64) pdf.Text {
	return pdf.Text{S: s, Font: "Helvetica", FontSize: size, X: x, Y: y, W: float64(len(s)) * size * 0.5}
}

func boldRun(s string, size, x, y float64) pdf.Text {
	t := run(s, size, x, y)
	t.Font = "Helvetica-Bold"
	return t
}

func TestAggregateLines_ReadingOrder(t *testing.T) {
	cfg := DefaultDetectionConfig()

	// Runs supplied out of order: the aggregator must emit top-to-bottom.
	page := pageRuns{
		page: 1,
		runs: []pdf.Text{
			run("Bottom line", 10, 72, 100),
			run("Top line", 10, 72, 700),
			run("Middle line", 10, 72, 400),
		},
	}

	lines := aggregateLines(page, cfg)
	require.Len(t, lines, 3)
	assert.Equal(t, "Top line", lines[0].Text)
	assert.Equal(t, "Middle line", lines[1].Text)
	assert.Equal(t, "Bottom line", lines[2].Text)
}

func TestAggregateLines_MergesSameBand(t *testing.T) {
	cfg := DefaultDetectionConfig()

	// Two runs at nearly the same Y with same size form one line, joined
	// left to right with a space at the word gap.
	page := pageRuns{
		page: 2,
		runs: []pdf.Text{
			run("Methods", 12, 150, 500.5),
			run("Results", 12, 72, 501),
		},
	}

	lines := aggregateLines(page, cfg)
	require.Len(t, lines, 1)
	assert.Equal(t, "Results Methods", lines[0].Text)
	assert.Equal(t, 2, lines[0].Page)
	assert.InDelta(t, 12.0, lines[0].Size, 0.01)
}

func TestAggregateLines_SplitsBySizeWithinBand(t *testing.T) {
	cfg := DefaultDetectionConfig()

	// A heading with an inline footnote marker at body size must not be
	// flattened into a single body-size line.
	page := pageRuns{
		page: 1,
		runs: []pdf.Text{
			run("Overview", 16, 72, 600),
			run("1", 9, 180, 601),
		},
	}

	lines := aggregateLines(page, cfg)
	require.Len(t, lines, 2)

	sizes := []float64{lines[0].Size, lines[1].Size}
	assert.Contains(t, sizes, 16.0)
	assert.Contains(t, sizes, 9.0)
}

func TestAggregateLines_DropsWhitespaceRuns(t *testing.T) {
	cfg := DefaultDetectionConfig()

	page := pageRuns{
		page: 1,
		runs: []pdf.Text{
			run("   ", 10, 72, 700),
			run("\t", 10, 100, 700),
		},
	}

	assert.Empty(t, aggregateLines(page, cfg))
}

func TestAggregateLines_BoldDetection(t *testing.T) {
	cfg := DefaultDetectionConfig()

	page := pageRuns{
		page: 1,
		runs: []pdf.Text{
			boldRun("Key Terms", 10, 72, 700),
		},
	}

	lines := aggregateLines(page, cfg)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Bold)
}

func TestAggregateLines_OCRText(t *testing.T) {
	cfg := DefaultDetectionConfig()

	page := pageRuns{
		page:    3,
		scanned: true,
		ocrText: "Chapter 1\n\nSome recovered body text\n",
	}

	lines := aggregateLines(page, cfg)
	require.Len(t, lines, 2)
	assert.Equal(t, "Chapter 1", lines[0].Text)
	assert.True(t, lines[0].OCR)
	assert.Zero(t, lines[0].Size)
	assert.Equal(t, 3, lines[0].Page)
}

func TestIsBoldFont(t *testing.T) {
	tests := []struct {
		font string
		want bool
	}{
		{"Helvetica-Bold", true},
		{"TimesNewRomanPS-BoldMT", true},
		{"Arial-Black", true},
		{"Helvetica", false},
		{"Times-Italic", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isBoldFont(tt.font), tt.font)
	}
}
