package outline

import (
	"math"
	"sort"
)

// FontProfile is the character-weighted font size histogram for a document.
// BodySize is the modal size: the size carrying the most characters after
// singleton outliers are excluded.
type FontProfile struct {
	BodySize   float64
	SingleSize bool
	histogram  map[float64]int
}

// buildProfile computes the font profile over all aggregated lines.
// Sizes are bucketed to 0.5pt so near-identical sizes share a bin, at most
// MaxModelSize bins are tracked at all, and at most MaxFontVariety distinct
// sizes are kept (least frequent folded away).
func buildProfile(lines []Line, cfg DetectionConfig) FontProfile {
	histogram := make(map[float64]int)
	for _, line := range lines {
		if line.Size <= 0 {
			continue // OCR lines carry no geometry
		}
		bucket := bucketSize(line.Size)
		if _, seen := histogram[bucket]; !seen && cfg.MaxModelSize > 0 && len(histogram) >= cfg.MaxModelSize {
			continue
		}
		histogram[bucket] += line.CharCount
	}

	if len(histogram) == 0 {
		return FontProfile{SingleSize: true}
	}

	// Cap font variety: keep the most frequent sizes, drop the rest.
	if cfg.MaxFontVariety > 0 && len(histogram) > cfg.MaxFontVariety {
		type bin struct {
			size  float64
			count int
		}
		bins := make([]bin, 0, len(histogram))
		for s, c := range histogram {
			bins = append(bins, bin{s, c})
		}
		sort.Slice(bins, func(i, j int) bool {
			if bins[i].count != bins[j].count {
				return bins[i].count > bins[j].count
			}
			return bins[i].size < bins[j].size
		})
		trimmed := make(map[float64]int, cfg.MaxFontVariety)
		for _, b := range bins[:cfg.MaxFontVariety] {
			trimmed[b.size] = b.count
		}
		histogram = trimmed
	}

	// Modal body size, excluding sizes that appear only on a single short
	// line (a lone page number should never become the body size).
	bodySize, bodyCount := 0.0, -1
	for s, c := range histogram {
		if c <= 1 && len(histogram) > 1 {
			continue
		}
		if c > bodyCount || (c == bodyCount && s < bodySize) {
			bodySize, bodyCount = s, c
		}
	}
	if bodyCount < 0 {
		// Every size was a singleton; fall back to the plain mode.
		for s, c := range histogram {
			if c > bodyCount || (c == bodyCount && s < bodySize) {
				bodySize, bodyCount = s, c
			}
		}
	}

	return FontProfile{
		BodySize:   bodySize,
		SingleSize: len(histogram) == 1,
		histogram:  histogram,
	}
}

// Ratio returns size relative to the body size. Single-size documents and
// OCR lines (size zero) report 1.0 so classification falls back to pattern
// matching alone.
func (p FontProfile) Ratio(size float64) float64 {
	if p.SingleSize || p.BodySize <= 0 || size <= 0 {
		return 1.0
	}
	return bucketSize(size) / p.BodySize
}

// Variety returns the number of distinct sizes retained in the profile.
func (p FontProfile) Variety() int {
	return len(p.histogram)
}

// bucketSize rounds a font size to the nearest 0.5pt.
func bucketSize(size float64) float64 {
	return math.Round(size*2) / 2
}
