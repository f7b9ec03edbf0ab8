package outline

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/conspectus/conspectus/internal/models"
)

// wrapGapMultiplier of the font size is the largest vertical gap between two
// same-level candidates that still counts as a wrapped heading.
const wrapGapMultiplier = 1.6

// assemble turns classified candidates into the final outline. Adjacent
// same-level candidates on the same page within one line-height are merged
// (a heading wrapped across visual lines), the title is hoisted, and only
// H1/H2/H3 entries remain in the outline array.
func assemble(candidates []candidate, filename string) *models.ExtractionResult {
	merged := mergeWrapped(candidates)

	result := &models.ExtractionResult{
		Outline: []models.OutlineEntry{},
	}

	var firstH1 *models.OutlineEntry
	for _, c := range merged {
		if c.level == models.LevelTitle {
			if result.Title == "" {
				result.Title = c.line.Text
			}
			continue // the title never appears in the outline array
		}
		entry := models.OutlineEntry{
			Level: c.level,
			Text:  c.line.Text,
			Page:  c.line.Page,
		}
		result.Outline = append(result.Outline, entry)
		if firstH1 == nil && c.level == models.LevelH1 {
			firstH1 = &result.Outline[len(result.Outline)-1]
		}
	}

	// Title fallback chain: Title candidate, then first H1 (which stays in
	// the outline), then the filename base.
	if result.Title == "" {
		if firstH1 != nil {
			result.Title = firstH1.Text
		} else {
			result.Title = filenameTitle(filename)
		}
	}

	return result
}

// mergeWrapped joins consecutive same-level candidates on the same page when
// their vertical gap is within one line-height. A long heading wrapped by
// the layout engine comes back as one entry.
func mergeWrapped(candidates []candidate) []candidate {
	if len(candidates) == 0 {
		return nil
	}

	out := make([]candidate, 0, len(candidates))
	current := candidates[0]
	for _, next := range candidates[1:] {
		if next.level == current.level && next.line.Page == current.line.Page && isWrapContinuation(current.line, next.line) {
			current.line.Text = current.line.Text + " " + next.line.Text
			current.line.CharCount += 1 + next.line.CharCount
			current.line.Y = next.line.Y
			continue
		}
		out = append(out, current)
		current = next
	}
	out = append(out, current)
	return out
}

// isWrapContinuation reports whether b directly continues a below it.
func isWrapContinuation(a, b Line) bool {
	size := a.Size
	if size <= 0 {
		return false // OCR lines carry no geometry to judge the gap
	}
	gap := a.Y - b.Y
	if gap <= 0 {
		return false
	}
	if gap > size*wrapGapMultiplier {
		return false
	}
	// A continuation line never starts its own numbering.
	if h1NumberRe.MatchString(b.Text) {
		return false
	}
	// Left edges of wrapped lines roughly align.
	return math.Abs(a.X-b.X) < size*4
}

// filenameTitle derives a title from the filename base.
func filenameTitle(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.TrimSpace(base)
}
