package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
)

// Service renders a document's outline back into a printable PDF report.
type Service struct {
	docs   interfaces.DocumentService
	logger arbor.ILogger
}

// NewService creates an outline report service
func NewService(docs interfaces.DocumentService, logger arbor.ILogger) *Service {
	return &Service{
		docs:   docs,
		logger: logger,
	}
}

// OutlineReport renders the outline of one document as a PDF and returns the
// file bytes.
func (s *Service) OutlineReport(ctx context.Context, documentID string) ([]byte, error) {
	doc, err := s.docs.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	outline, err := s.docs.GetOutline(ctx, documentID)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetTitle(outline.Title, true)
	pdf.SetAutoPageBreak(true, 54)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.MultiCell(0, 26, sanitize(outline.Title), "", "L", false)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(110, 110, 110)
	meta := fmt.Sprintf("%s  ·  %d pages  ·  %d headings", doc.Filename, doc.PageCount, len(outline.Outline))
	pdf.MultiCell(0, 14, sanitize(meta), "", "L", false)
	pdf.Ln(12)
	pdf.SetTextColor(0, 0, 0)

	if len(outline.Outline) == 0 {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, 16, "No headings were detected in this document.", "", "L", false)
	}

	for _, entry := range outline.Outline {
		size, indent := entryStyle(entry.Level)
		pdf.SetFont("Helvetica", styleFor(entry.Level), size)
		pdf.SetX(pdf.GetX() + indent)

		line := fmt.Sprintf("%s    (p. %d)", sanitize(entry.Text), entry.Page)
		pdf.MultiCell(0, size+6, line, "", "L", false)
		pdf.SetX(pdf.GetX() - indent)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render outline report: %w", err)
	}

	s.logger.Debug().
		Str("doc_id", documentID).
		Int("headings", len(outline.Outline)).
		Int("bytes", buf.Len()).
		Msg("Outline report rendered")

	return buf.Bytes(), nil
}

func entryStyle(level models.HeadingLevel) (size, indent float64) {
	switch level {
	case models.LevelH1:
		return 14, 0
	case models.LevelH2:
		return 12, 18
	default:
		return 11, 36
	}
}

func styleFor(level models.HeadingLevel) string {
	if level == models.LevelH1 {
		return "B"
	}
	return ""
}

// sanitize keeps the report within fpdf's core-font (latin-1) character set.
func sanitize(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r < 256 {
			b.WriteRune(r)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}
