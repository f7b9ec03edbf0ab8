package outline

import (
	"regexp"
	"strings"

	"github.com/conspectus/conspectus/internal/models"
)

// Numbering patterns. Deeper numbering always wins over font size:
// "1.1.1 Overview" is H3 even when rendered at H1 size.
var (
	h1NumberRe = regexp.MustCompile(`^\d+\.?\s+\S`)
	h2NumberRe = regexp.MustCompile(`^\d+\.\d+\.?\s+\S`)
	h3NumberRe = regexp.MustCompile(`^\d+\.\d+\.\d+\.?\s+\S`)
)

// Keyword patterns that mark section starts regardless of font size.
var (
	chapterRe     = regexp.MustCompile(`^(Chapter|CHAPTER|Section|SECTION)\s+\d+`)
	h1KeywordRe   = regexp.MustCompile(`^(Introduction|Conclusion|Abstract|References)\b`)
	sectionWordRe = regexp.MustCompile(`^(Background|Methodology|Results|Discussion)\b`)
)

// Exclusion patterns: page furniture that must never become a heading.
var (
	pureNumberRe = regexp.MustCompile(`^\d+\.?$`)
	pageLabelRe  = regexp.MustCompile(`^(Page\s+\d+(\s+of\s+\d+)?|p\.\s*\d+|-\s*\d+\s*-)$`)
)

// titleWindow is how many lines into the first page a Title candidate may
// appear.
const titleWindow = 10

// candidate is a classified line before assembly.
type candidate struct {
	level models.HeadingLevel
	line  Line
}

// classifier applies the detection cascade to aggregated lines.
type classifier struct {
	cfg     DetectionConfig
	profile FontProfile
}

// classify walks the lines in reading order and returns heading candidates
// in the same order.
func (c *classifier) classify(lines []Line) []candidate {
	if len(lines) == 0 {
		return nil
	}
	var out []candidate
	for i, line := range lines {
		nearStart := line.Page == lines[0].Page && i < titleWindow
		if level, ok := c.classifyLine(line, nearStart); ok {
			out = append(out, candidate{level: level, line: line})
		}
	}
	return out
}

// classifyLine runs the ordered cascade for one line. The order matters:
// exclusions first, then numbering depth, then size ratios.
func (c *classifier) classifyLine(line Line, nearStart bool) (models.HeadingLevel, bool) {
	text := strings.TrimSpace(line.Text)
	if c.excluded(text) {
		return "", false
	}

	// Numbering depth beats size.
	switch {
	case h3NumberRe.MatchString(text):
		return models.LevelH3, true
	case h2NumberRe.MatchString(text):
		return models.LevelH2, true
	case h1NumberRe.MatchString(text):
		if looksLikeSentence(text) {
			return "", false
		}
		return models.LevelH1, true
	}

	ratio := c.profile.Ratio(line.Size)

	if ratio >= c.cfg.TitleSizeRatio && nearStart {
		return models.LevelTitle, true
	}
	if ratio >= c.cfg.H1SizeRatio || chapterRe.MatchString(text) || h1KeywordRe.MatchString(text) || sectionWordRe.MatchString(text) {
		if looksLikeSentence(text) {
			return "", false
		}
		return models.LevelH1, true
	}
	if ratio >= c.cfg.H2SizeRatio {
		if looksLikeSentence(text) {
			return "", false
		}
		return models.LevelH2, true
	}
	if ratio >= c.cfg.H3SizeRatio {
		if looksLikeSentence(text) {
			return "", false
		}
		return models.LevelH3, true
	}

	// Bold at body size is at most an H3, never promoted above it.
	if line.Bold && ratio >= 1.0 && !looksLikeSentence(text) && len([]rune(text)) <= 120 {
		return models.LevelH3, true
	}

	return "", false
}

// excluded filters page furniture: bare numbers, page labels, and fragments
// too short to be headings.
func (c *classifier) excluded(text string) bool {
	if text == "" {
		return true
	}
	if pureNumberRe.MatchString(text) || pageLabelRe.MatchString(text) {
		return true
	}
	// Single words under three characters are fragments, not headings.
	if len([]rune(text)) < 3 && !strings.Contains(text, " ") {
		return true
	}
	return false
}

// looksLikeSentence guards against body paragraphs rendered in a large or
// bold face. Long runs of words ending in sentence punctuation are prose.
func looksLikeSentence(text string) bool {
	words := strings.Fields(text)
	if len(words) > 25 {
		return true
	}
	if len(words) > 10 && strings.HasSuffix(text, ".") && !h1NumberRe.MatchString(text) {
		return true
	}
	return false
}
