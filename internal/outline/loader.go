package outline

import (
	"context"
	"fmt"
	"os"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Recognizer recovers text from a scanned page. Implementations rasterize
// the page and run it through an OCR engine. Failures are recoverable per
// page: the page simply contributes no lines to the outline.
type Recognizer interface {
	RecognizePage(ctx context.Context, path string, page int) (string, error)
}

// NoopRecognizer is the default Recognizer when no OCR backend is wired.
type NoopRecognizer struct{}

func (NoopRecognizer) RecognizePage(ctx context.Context, path string, page int) (string, error) {
	return "", ErrOCRUnavailable
}

// pageRuns is the raw per-page extraction output before line aggregation.
type pageRuns struct {
	page    int
	runs    []pdf.Text
	scanned bool
	ocrText string
}

// openDocument opens a PDF for positioned text extraction. The caller owns
// the returned file handle.
func openDocument(path string) (*os.File, *pdf.Reader, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}
	return f, r, nil
}

// parsePage extracts the positioned text runs for a single 1-based page and
// decides whether the page should be treated as scanned. The underlying
// parser panics on some malformed content streams, so parsing is fenced.
func parsePage(r *pdf.Reader, pageNr int, cfg DetectionConfig) (result pageRuns) {
	result = pageRuns{page: pageNr}

	defer func() {
		if rec := recover(); rec != nil {
			// Malformed page content. Treat as scanned so OCR gets a chance.
			result.runs = nil
			result.scanned = true
		}
	}()

	p := r.Page(pageNr)
	if p.V.IsNull() {
		result.scanned = true
		return result
	}

	content := p.Content()
	runs := make([]pdf.Text, 0, len(content.Text))
	printable, total := 0, 0
	for _, t := range content.Text {
		for _, c := range t.S {
			total++
			if unicode.IsPrint(c) && !unicode.IsControl(c) {
				printable++
			}
		}
		runs = append(runs, t)
	}

	result.runs = runs
	if total == 0 {
		result.scanned = true
	} else if float64(printable)/float64(total) < cfg.MinTextExtractionRate {
		// Text layer exists but is mostly garbage glyphs.
		result.scanned = true
		result.runs = nil
	}
	return result
}

// recoverScannedPages runs the recognizer over every scanned page. A failed
// page is logged by the caller and skipped; recovered text replaces the
// page's (empty) run set.
func recoverScannedPages(ctx context.Context, recognizer Recognizer, path string, pages []pageRuns) (recovered int) {
	if recognizer == nil {
		return 0
	}
	for i := range pages {
		if !pages[i].scanned {
			continue
		}
		if err := ctx.Err(); err != nil {
			return recovered
		}
		text, err := recognizer.RecognizePage(ctx, path, pages[i].page)
		if err != nil || text == "" {
			continue
		}
		pages[i].ocrText = text
		recovered++
	}
	return recovered
}

// scannedFraction reports the fraction of pages flagged as scanned.
func scannedFraction(pages []pageRuns) float64 {
	if len(pages) == 0 {
		return 0
	}
	scanned := 0
	for _, p := range pages {
		if p.scanned {
			scanned++
		}
	}
	return float64(scanned) / float64(len(pages))
}
