package models

// HeadingLevel identifies the hierarchy level assigned to a detected heading.
type HeadingLevel string

const (
	LevelTitle HeadingLevel = "Title"
	LevelH1    HeadingLevel = "H1"
	LevelH2    HeadingLevel = "H2"
	LevelH3    HeadingLevel = "H3"
)

// Rank returns the numeric depth of a heading level (Title=0, H1=1, H2=2, H3=3).
func (l HeadingLevel) Rank() int {
	switch l {
	case LevelTitle:
		return 0
	case LevelH1:
		return 1
	case LevelH2:
		return 2
	case LevelH3:
		return 3
	}
	return 4
}

// OutlineEntry is a single heading in a document outline. Page is 1-based.
type OutlineEntry struct {
	Level HeadingLevel `json:"level"`
	Text  string       `json:"text"`
	Page  int          `json:"page"`
}

// ExtractionResult is the persisted outline contract: the document title and
// the ordered H1/H2/H3 headings. Degraded and ExtractionTimeSeconds are
// informational extras and omitted when zero.
type ExtractionResult struct {
	Title                 string         `json:"title"`
	Outline               []OutlineEntry `json:"outline"`
	Degraded              bool           `json:"degraded,omitempty"`
	UsedOCR               bool           `json:"used_ocr,omitempty"`
	ExtractionTimeSeconds float64        `json:"extraction_time_seconds,omitempty"`
}

// PDFInfo holds lightweight document metadata gathered without a full parse.
type PDFInfo struct {
	PageCount int   `json:"page_count"`
	FileSize  int64 `json:"file_size"`
	Encrypted bool  `json:"encrypted"`
}
