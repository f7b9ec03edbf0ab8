package outline

import (
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Line is one visual text line: the runs on a page sharing a font size
// (within SizeEpsilon) and a vertical band. Lines are the classification
// unit for the heading detector.
type Line struct {
	Page      int
	Text      string
	Size      float64
	X         float64
	Y         float64
	Bold      bool
	CharCount int
	OCR       bool
}

// rowTolerance is the Y band (in points) within which runs belong to the
// same visual line.
const rowTolerance = 3.0

// wordSpaceMultiplier of the font size is the horizontal gap that separates
// words within a line.
const wordSpaceMultiplier = 0.3

// aggregateLines groups a page's raw runs into reading-order lines:
// top to bottom (descending Y in PDF coordinates), then left to right.
// Runs in the same band with font sizes further apart than SizeEpsilon stay
// separate lines, so an inline footnote marker does not drag a heading down
// to body size. Lines that normalize to empty text are dropped.
func aggregateLines(page pageRuns, cfg DetectionConfig) []Line {
	if page.ocrText != "" {
		return ocrLines(page.ocrText, page.page)
	}

	runs := page.runs
	if len(runs) == 0 {
		return nil
	}

	rows := groupIntoRows(runs)

	var lines []Line
	for _, row := range rows {
		for _, group := range splitBySize(row, cfg.SizeEpsilon) {
			if line, ok := buildLine(group, page.page); ok {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

// groupIntoRows buckets runs by Y coordinate and returns the buckets in
// top-to-bottom order (higher Y first).
func groupIntoRows(runs []pdf.Text) [][]pdf.Text {
	type rowBucket struct {
		yMin, yMax float64
		runs       []pdf.Text
	}

	var buckets []rowBucket
	for _, t := range runs {
		found := false
		for i := range buckets {
			if t.Y >= buckets[i].yMin-rowTolerance && t.Y <= buckets[i].yMax+rowTolerance {
				buckets[i].runs = append(buckets[i].runs, t)
				if t.Y < buckets[i].yMin {
					buckets[i].yMin = t.Y
				}
				if t.Y > buckets[i].yMax {
					buckets[i].yMax = t.Y
				}
				found = true
				break
			}
		}
		if !found {
			buckets = append(buckets, rowBucket{yMin: t.Y, yMax: t.Y, runs: []pdf.Text{t}})
		}
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].yMax > buckets[j].yMax
	})

	rows := make([][]pdf.Text, len(buckets))
	for i, b := range buckets {
		rows[i] = b.runs
	}
	return rows
}

// splitBySize partitions a row by font size so that runs differing by more
// than epsilon form separate lines. Groups keep left-to-right order.
func splitBySize(row []pdf.Text, epsilon float64) [][]pdf.Text {
	if len(row) == 0 {
		return nil
	}

	groups := make(map[int][]pdf.Text)
	var keys []int
	for _, t := range row {
		// Bucket sizes by epsilon so 11.9pt and 12.1pt land together.
		key := int(math.Round(t.FontSize / maxFloat(epsilon, 0.1)))
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], t)
	}

	sort.Ints(keys)
	out := make([][]pdf.Text, 0, len(keys))
	for _, k := range keys {
		out = append(out, groups[k])
	}
	return out
}

// buildLine merges a size-consistent run group into a single Line, joining
// run text left to right with spaces at word gaps.
func buildLine(group []pdf.Text, pageNr int) (Line, bool) {
	sort.Slice(group, func(i, j int) bool {
		return group[i].X < group[j].X
	})

	var sb strings.Builder
	var lastEnd float64
	size := 0.0
	bold := false
	for i, t := range group {
		if t.FontSize > size {
			size = t.FontSize
		}
		if isBoldFont(t.Font) {
			bold = true
		}
		if i > 0 {
			gap := t.X - lastEnd
			threshold := wordSpaceMultiplier * t.FontSize
			if threshold <= 0 {
				threshold = 3.0
			}
			if gap > threshold && !strings.HasSuffix(sb.String(), " ") && !strings.HasPrefix(t.S, " ") {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.S)
		lastEnd = t.X + t.W
	}

	text := strings.Join(strings.Fields(sb.String()), " ")
	if text == "" {
		return Line{}, false
	}

	return Line{
		Page:      pageNr,
		Text:      text,
		Size:      size,
		X:         group[0].X,
		Y:         group[0].Y,
		Bold:      bold,
		CharCount: len([]rune(text)),
	}, true
}

// ocrLines converts recovered OCR text into lines. OCR output carries no
// font geometry, so Size stays zero and classification falls back to
// pattern matching only.
func ocrLines(text string, pageNr int) []Line {
	var lines []Line
	for _, raw := range strings.Split(text, "\n") {
		trimmed := strings.Join(strings.Fields(raw), " ")
		if trimmed == "" {
			continue
		}
		lines = append(lines, Line{
			Page:      pageNr,
			Text:      trimmed,
			CharCount: len([]rune(trimmed)),
			OCR:       true,
		})
	}
	return lines
}

// isBoldFont reports whether a PostScript font name indicates a bold face.
func isBoldFont(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "bold") || strings.HasSuffix(lower, "-b") || strings.Contains(lower, "black") || strings.Contains(lower, "heavy")
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
