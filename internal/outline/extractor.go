package outline

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/models"
)

// defaultDeadline applies when MaxProcessingTime is missing or malformed.
const defaultDeadline = 10 * time.Second

// Extractor runs the full outline pipeline: load, aggregate, profile,
// classify, assemble. Safe for concurrent use; all per-document state lives
// on the stack.
type Extractor struct {
	cfg        DetectionConfig
	deadline   time.Duration
	recognizer Recognizer
	logger     arbor.ILogger
}

// NewExtractor creates an extractor. A nil recognizer disables OCR recovery
// (scanned pages then contribute no lines).
func NewExtractor(cfg DetectionConfig, recognizer Recognizer, logger arbor.ILogger) *Extractor {
	if recognizer == nil {
		recognizer = NoopRecognizer{}
	}

	deadline := defaultDeadline
	if cfg.MaxProcessingTime != "" {
		if d, err := time.ParseDuration(cfg.MaxProcessingTime); err == nil && d > 0 {
			deadline = d
		} else {
			logger.Warn().
				Str("max_processing_time", cfg.MaxProcessingTime).
				Msg("Invalid processing deadline, using default")
		}
	}

	return &Extractor{
		cfg:        cfg,
		deadline:   deadline,
		recognizer: recognizer,
		logger:     logger,
	}
}

// Generate produces the outline for the PDF at path. The soft deadline from
// MaxProcessingTime is checked cooperatively at page boundaries: when it
// fires, the result covers a strict prefix of the document and Degraded is
// set. Two calls over the same unchanged file produce identical results.
func (e *Extractor) Generate(ctx context.Context, path string) (*models.ExtractionResult, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	f, r, err := openDocument(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pageCount := r.NumPage()
	if pageCount == 0 {
		return e.emptyResult(path, start), nil
	}

	pages, degraded := e.loadPages(ctx, r, pageCount)

	// Route through OCR when enough of the document is scanned. Per-page
	// recognizer failures are recoverable; the page is just skipped.
	fraction := scannedFraction(pages)
	usedOCR := false
	if !degraded && fraction > e.cfg.ScannedPageThreshold {
		recovered := recoverScannedPages(ctx, e.recognizer, path, pages)
		usedOCR = recovered > 0
		e.logger.Debug().
			Str("path", path).
			Float64("scanned_fraction", fraction).
			Int("pages_recovered", recovered).
			Msg("Scanned document routed through OCR")
	}

	// Aggregate in page order with deadline checks at page boundaries.
	var lines []Line
	for i := range pages {
		if ctx.Err() != nil {
			degraded = true
			break
		}
		lines = append(lines, aggregateLines(pages[i], e.cfg)...)
	}

	if len(lines) == 0 {
		if !degraded && fraction > e.cfg.ScannedPageThreshold && hasImageStreams(path) {
			return nil, fmt.Errorf("%w: image-only document with no recoverable text", ErrUnreadablePDF)
		}
		result := e.emptyResult(path, start)
		result.Degraded = degraded
		return result, nil
	}

	profile := buildProfile(lines, e.cfg)
	cls := &classifier{cfg: e.cfg, profile: profile}
	result := assemble(cls.classify(lines), path)
	result.Degraded = degraded
	result.UsedOCR = usedOCR
	result.ExtractionTimeSeconds = time.Since(start).Seconds()

	e.logger.Debug().
		Str("path", path).
		Int("pages", pageCount).
		Int("lines", len(lines)).
		Int("headings", len(result.Outline)).
		Float64("body_size", profile.BodySize).
		Bool("degraded", result.Degraded).
		Dur("duration", time.Since(start)).
		Msg("Outline generated")

	return result, nil
}

// loadPages parses every page. Above the parallel threshold pages are parsed
// concurrently and joined by page number, so output order never depends on
// scheduling. Either way a deadline hit leaves a strict prefix.
func (e *Extractor) loadPages(ctx context.Context, r *pdf.Reader, pageCount int) ([]pageRuns, bool) {
	if e.cfg.EnableParallel && pageCount > e.cfg.ParallelThreshold {
		return e.loadPagesParallel(ctx, r, pageCount)
	}

	pages := make([]pageRuns, 0, pageCount)
	for nr := 1; nr <= pageCount; nr++ {
		if ctx.Err() != nil {
			return pages, true
		}
		pages = append(pages, parsePage(r, nr, e.cfg))
	}
	return pages, false
}

// loadPagesParallel fans page parsing out over a bounded worker pool and
// keeps the longest fully-parsed page prefix. Classification stays
// sequential; only the parse is concurrent.
func (e *Extractor) loadPagesParallel(ctx context.Context, r *pdf.Reader, pageCount int) ([]pageRuns, bool) {
	results := make([]pageRuns, pageCount)
	done := make([]bool, pageCount)

	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var mu sync.Mutex

	for nr := 1; nr <= pageCount; nr++ {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(nr int) {
			defer wg.Done()
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			page := parsePage(r, nr, e.cfg)
			mu.Lock()
			results[nr-1] = page
			done[nr-1] = true
			mu.Unlock()
		}(nr)
	}
	wg.Wait()

	// Deterministic join: only the unbroken prefix of completed pages
	// counts, so a timeout never yields results with holes.
	prefix := 0
	for prefix < pageCount && done[prefix] {
		prefix++
	}
	return results[:prefix], prefix < pageCount
}

// emptyResult is the valid outcome for a blank document: filename-derived
// title, empty (non-nil) outline.
func (e *Extractor) emptyResult(path string, start time.Time) *models.ExtractionResult {
	return &models.ExtractionResult{
		Title:                 filenameTitle(path),
		Outline:               []models.OutlineEntry{},
		ExtractionTimeSeconds: time.Since(start).Seconds(),
	}
}
