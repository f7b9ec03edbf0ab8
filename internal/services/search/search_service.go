package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/common"
	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
)

// Service keeps an in-memory heading index over every persisted outline and
// scores queries against it with TF-IDF cosine similarity. The index is
// rebuilt lazily on first use and explicitly via Reindex after the library
// changes.
type Service struct {
	docs   interfaces.DocumentService
	cfg    *common.SearchConfig
	logger arbor.ILogger

	mu      sync.RWMutex
	entries []indexEntry
	df      map[string]int // token -> number of headings containing it
	built   bool
}

// indexEntry is one heading with its pre-tokenized term frequencies.
type indexEntry struct {
	documentID string
	document   string
	heading    string
	level      models.HeadingLevel
	page       int
	terms      map[string]int
	norm       float64 // cached tf-idf vector norm, set during build
}

// NewService creates a heading search service
func NewService(docs interfaces.DocumentService, cfg *common.SearchConfig, logger arbor.ILogger) *Service {
	return &Service{
		docs:   docs,
		cfg:    cfg,
		logger: logger,
		df:     make(map[string]int),
	}
}

// Search scores every indexed heading against the query and returns matches
// above the relevance floor, best first.
func (s *Service) Search(ctx context.Context, query string, opts interfaces.SearchOptions) ([]*models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" && opts.Level == "" && opts.DocumentID == "" {
		return nil, fmt.Errorf("search query is required")
	}

	if err := s.ensureIndex(ctx); err != nil {
		return nil, err
	}

	queryTerms := termFrequencies(tokenize(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	level := models.HeadingLevel(strings.ToUpper(strings.TrimSpace(opts.Level)))

	results := make([]*models.SearchResult, 0)
	for i := range s.entries {
		entry := &s.entries[i]
		if level != "" && entry.level != level {
			continue
		}
		if opts.DocumentID != "" && entry.documentID != opts.DocumentID {
			continue
		}

		score := s.cosine(queryTerms, entry)
		if len(queryTerms) > 0 && score < s.cfg.MinScore {
			continue
		}
		// A pure level/document listing (empty query terms after stopword
		// removal) still returns entries, unscored.
		if len(queryTerms) > 0 || level != "" || opts.DocumentID != "" {
			results = append(results, &models.SearchResult{
				DocumentID: entry.documentID,
				Document:   entry.document,
				Heading:    entry.heading,
				Level:      entry.level,
				Page:       entry.page,
				Relevance:  score,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})

	limit := opts.Limit
	if limit <= 0 || limit > s.cfg.MaxResults {
		limit = s.cfg.MaxResults
	}
	if len(results) > limit {
		results = results[:limit]
	}

	s.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("Heading search completed")

	return results, nil
}

// Reindex rebuilds the heading index from every document's persisted outline
func (s *Service) Reindex(ctx context.Context) error {
	docs, err := s.docs.List(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	entries := make([]indexEntry, 0)
	df := make(map[string]int)

	for _, doc := range docs {
		if !doc.HasOutline {
			continue
		}
		outline, err := s.docs.GetOutline(ctx, doc.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("doc_id", doc.ID).Msg("Skipping document during reindex")
			continue
		}
		for _, heading := range outline.Outline {
			terms := termFrequencies(tokenize(heading.Text))
			entries = append(entries, indexEntry{
				documentID: doc.ID,
				document:   doc.Filename,
				heading:    heading.Text,
				level:      heading.Level,
				page:       heading.Page,
				terms:      terms,
			})
			for token := range terms {
				df[token]++
			}
		}
	}

	// Vector norms depend on the document frequencies, so they are computed
	// after the full corpus pass.
	total := len(entries)
	for i := range entries {
		entries[i].norm = vectorNorm(entries[i].terms, df, total)
	}

	s.mu.Lock()
	s.entries = entries
	s.df = df
	s.built = true
	s.mu.Unlock()

	s.logger.Info().
		Int("documents", len(docs)).
		Int("headings", total).
		Msg("Search index rebuilt")

	return nil
}

// IndexedHeadings returns the number of headings currently indexed
func (s *Service) IndexedHeadings() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Service) ensureIndex(ctx context.Context) error {
	s.mu.RLock()
	built := s.built
	s.mu.RUnlock()
	if built {
		return nil
	}
	return s.Reindex(ctx)
}

// cosine computes tf-idf cosine similarity between the query and one heading.
// Caller holds the read lock.
func (s *Service) cosine(query map[string]int, entry *indexEntry) float64 {
	if len(query) == 0 || entry.norm == 0 {
		return 0
	}

	total := len(s.entries)
	var dot, queryNorm float64
	for token, qf := range query {
		weight := idf(token, s.df, total)
		q := float64(qf) * weight
		queryNorm += q * q
		if hf, ok := entry.terms[token]; ok {
			dot += q * float64(hf) * weight
		}
	}
	if dot == 0 || queryNorm == 0 {
		return 0
	}
	return dot / (math.Sqrt(queryNorm) * entry.norm)
}

// idf uses smoothed inverse document frequency; unseen tokens get the weight
// of a token appearing in a single heading.
func idf(token string, df map[string]int, total int) float64 {
	count := df[token]
	if count == 0 {
		count = 1
	}
	return math.Log(float64(total+1)/float64(count+1)) + 1
}

func vectorNorm(terms map[string]int, df map[string]int, total int) float64 {
	var sum float64
	for token, freq := range terms {
		w := float64(freq) * idf(token, df, total)
		sum += w * w
	}
	return math.Sqrt(sum)
}

func termFrequencies(tokens []string) map[string]int {
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}

// stopwords filtered from both headings and queries; bare structural words
// never carry relevance between headings.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "is": true,
	"it": true, "of": true, "on": true, "or": true, "that": true, "the": true,
	"to": true, "with": true,
}

// tokenize splits text into lowercase search tokens. Hyphenated words are
// indexed both whole and as parts, so "cross-validation" matches both forms.
func tokenize(text string) []string {
	lower := strings.ToLower(text)
	var tokens []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		word := strings.Trim(buf.String(), "-")
		buf.Reset()
		if len(word) < 2 || stopwords[word] {
			return
		}
		tokens = append(tokens, word)
		if strings.Contains(word, "-") {
			for _, part := range strings.Split(word, "-") {
				if len(part) >= 2 && !stopwords[part] {
					tokens = append(tokens, part)
				}
			}
		}
	}

	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			buf.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

var _ interfaces.SearchService = (*Service)(nil)
