package outline

// DetectionConfig carries every threshold the extraction pipeline uses.
// All state is explicit so two extractors with different configs can run
// side by side; nothing here is global.
type DetectionConfig struct {
	// Font size ratios relative to the modal body size.
	TitleSizeRatio float64 `toml:"title_size_ratio"`
	H1SizeRatio    float64 `toml:"h1_size_ratio"`
	H2SizeRatio    float64 `toml:"h2_size_ratio"`
	H3SizeRatio    float64 `toml:"h3_size_ratio"`

	// SizeEpsilon is the tolerance (in points) within which two font sizes
	// are treated as the same size when grouping runs into lines.
	SizeEpsilon float64 `toml:"size_epsilon"`

	// MinTextExtractionRate is the minimum fraction of printable characters
	// a page must yield before it is treated as scanned.
	MinTextExtractionRate float64 `toml:"min_text_extraction_rate"`

	// ScannedPageThreshold is the fraction of scanned pages above which the
	// whole document is routed through OCR.
	ScannedPageThreshold float64 `toml:"scanned_page_threshold"`

	// MaxFontVariety caps the number of distinct font sizes kept in the
	// profile; the least frequent sizes beyond the cap are folded away.
	MaxFontVariety int `toml:"max_font_variety"`

	// MaxModelSize hard-bounds the number of size bins tracked while the
	// font profile is built, before MaxFontVariety folding runs. Guards
	// against pathological documents with hundreds of distinct sizes.
	MaxModelSize int `toml:"max_model_size"`

	// MaxProcessingTime is the soft per-document deadline as a duration
	// string (e.g. "10s"). When exceeded the extractor returns the outline
	// built so far with Degraded set.
	MaxProcessingTime string `toml:"max_processing_time"`

	// ParallelThreshold is the page count above which page parsing runs
	// concurrently. EnableParallel gates the behavior entirely.
	ParallelThreshold int  `toml:"parallel_threshold"`
	EnableParallel    bool `toml:"enable_parallel"`
}

// DefaultDetectionConfig returns the tuned production thresholds.
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		TitleSizeRatio:        1.5,
		H1SizeRatio:           1.3,
		H2SizeRatio:           1.15,
		H3SizeRatio:           1.1,
		SizeEpsilon:           0.5,
		MinTextExtractionRate: 0.5,
		ScannedPageThreshold:  0.3,
		MaxFontVariety:        15,
		MaxModelSize:          200,
		MaxProcessingTime:     "10s",
		ParallelThreshold:     10,
		EnableParallel:        true,
	}
}
