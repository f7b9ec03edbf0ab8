package outline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func bodyLine(text string, size float64) Line {
	return Line{Page: 1, Text: text, Size: size, CharCount: len([]rune(text))}
}

func TestBuildProfile_ModalBodySize(t *testing.T) {
	cfg := DefaultDetectionConfig()

	// Body text dominates by character count even though headings appear
	// on more lines.
	lines := []Line{
		bodyLine("Introduction", 16),
		bodyLine("Background", 16),
		bodyLine("The quick brown fox jumps over the lazy dog repeatedly", 10),
		bodyLine("Another long paragraph of ordinary body text in the document", 10),
	}

	profile := buildProfile(lines, cfg)
	assert.InDelta(t, 10.0, profile.BodySize, 0.01)
	assert.False(t, profile.SingleSize)
}

func TestBuildProfile_SingleSizeDocument(t *testing.T) {
	cfg := DefaultDetectionConfig()

	lines := []Line{
		bodyLine("Everything", 11),
		bodyLine("is the same size", 11),
	}

	profile := buildProfile(lines, cfg)
	assert.True(t, profile.SingleSize)
	assert.Equal(t, 1.0, profile.Ratio(11))
	assert.Equal(t, 1.0, profile.Ratio(22), "single-size documents always report ratio 1.0")
}

func TestBuildProfile_VarietyCap(t *testing.T) {
	cfg := DefaultDetectionConfig()
	cfg.MaxFontVariety = 3

	var lines []Line
	for i := 0; i < 10; i++ {
		size := 8.0 + float64(i)*2
		lines = append(lines, bodyLine(fmt.Sprintf("text at size %d with padding characters", i), size))
	}

	profile := buildProfile(lines, cfg)
	assert.LessOrEqual(t, profile.Variety(), 3)
}

func TestBuildProfile_ModelSizeBound(t *testing.T) {
	cfg := DefaultDetectionConfig()
	cfg.MaxModelSize = 5
	cfg.MaxFontVariety = 100

	// Far more distinct sizes than the model is allowed to track. Sizes seen
	// after the cap contribute nothing; earlier ones keep accumulating.
	var lines []Line
	for i := 0; i < 50; i++ {
		size := 6.0 + float64(i)
		lines = append(lines, bodyLine(fmt.Sprintf("line rendered at size bucket %d", i), size))
	}
	lines = append(lines, bodyLine("more text at an already tracked size to keep it modal", 6))

	profile := buildProfile(lines, cfg)
	assert.LessOrEqual(t, profile.Variety(), 5)
	assert.InDelta(t, 6.0, profile.BodySize, 0.01)
}

func TestBuildProfile_RatioMonotonic(t *testing.T) {
	cfg := DefaultDetectionConfig()

	lines := []Line{
		bodyLine("plenty of body text at the standard size for this document", 10),
		bodyLine("A Heading", 15),
	}

	profile := buildProfile(lines, cfg)

	// Larger size never yields a smaller ratio.
	prev := 0.0
	for _, size := range []float64{8, 10, 12, 15, 20} {
		ratio := profile.Ratio(size)
		assert.GreaterOrEqual(t, ratio, prev, "ratio must be monotonic in size")
		prev = ratio
	}
}

func TestBuildProfile_OCRLinesIgnored(t *testing.T) {
	cfg := DefaultDetectionConfig()

	lines := []Line{
		{Page: 1, Text: "recovered text", CharCount: 14, OCR: true},
	}

	profile := buildProfile(lines, cfg)
	assert.True(t, profile.SingleSize)
	assert.Equal(t, 1.0, profile.Ratio(0))
}
