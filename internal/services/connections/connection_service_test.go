package connections

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
)

// scriptedLLM replays canned responses in order; an entry of "" yields an
// error for that call.
type scriptedLLM struct {
	responses []string
	calls     [][]interfaces.Message
}

func (s *scriptedLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	s.calls = append(s.calls, messages)
	if len(s.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	if next == "" {
		return "", errors.New("provider unavailable")
	}
	return next, nil
}

func (s *scriptedLLM) HealthCheck(ctx context.Context) error { return nil }
func (s *scriptedLLM) Provider() string                      { return "scripted" }
func (s *scriptedLLM) Close() error                          { return nil }

type stubLibrary struct {
	interfaces.DocumentService
	docs     []*models.Document
	outlines map[string]*models.ExtractionResult
}

func (s *stubLibrary) List(ctx context.Context, opts *interfaces.ListOptions) ([]*models.Document, error) {
	return s.docs, nil
}

func (s *stubLibrary) GetOutline(ctx context.Context, id string) (*models.ExtractionResult, error) {
	return s.outlines[id], nil
}

func (s *stubLibrary) Get(ctx context.Context, id string) (*models.Document, error) {
	for _, doc := range s.docs {
		if doc.ID == id {
			return doc, nil
		}
	}
	return nil, errors.New("document not found")
}

func newTestLibrary() *stubLibrary {
	manyHeadings := make([]models.OutlineEntry, 0, 12)
	for i := 0; i < 12; i++ {
		manyHeadings = append(manyHeadings, models.OutlineEntry{
			Level: models.LevelH2, Text: "Deep Section", Page: i + 1,
		})
	}

	return &stubLibrary{
		docs: []*models.Document{
			{ID: "doc_a", Filename: "alpha.pdf", HasOutline: true},
			{ID: "doc_b", Filename: "beta.pdf", HasOutline: true},
		},
		outlines: map[string]*models.ExtractionResult{
			"doc_a": {
				Title: "Alpha",
				Outline: []models.OutlineEntry{
					{Level: models.LevelH1, Text: "Queueing Theory", Page: 3},
				},
			},
			"doc_b": {Title: "Beta", Outline: manyHeadings},
		},
	}
}

func TestFindConnections_ParsesProviderJSON(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		`Here you go:
[{"title":"Queueing Theory","document":"alpha.pdf","pages":[3],"snippet":"Queue depth math applies. Latency follows from arrival rates.","strength":"high"},
 {"title":"Deep Section","document":"beta.pdf","pages":[7],"snippet":"Related context found here.","strength":"low"}]`,
		"These sections both relate queue behavior to latency.",
	}}

	svc := NewService(newTestLibrary(), llm, arbor.NewLogger())

	resp, err := svc.FindConnections(context.Background(), &models.ConnectionRequest{
		SelectedText:    "tail latency under load",
		CurrentDocument: "doc_b",
	})
	require.NoError(t, err)
	require.Len(t, resp.Connections, 2)
	assert.False(t, resp.Fallback)

	first := resp.Connections[0]
	assert.Equal(t, "Queueing Theory", first.Title)
	assert.Equal(t, "alpha.pdf", first.TargetDocument)
	assert.Equal(t, "beta.pdf", first.SourceDocument)
	assert.Equal(t, 3, first.TargetPage)
	assert.Equal(t, "high", first.Strength)

	assert.Equal(t, "These sections both relate queue behavior to latency.", resp.Summary)
}

func TestFindConnections_FallbackOnUnparseableResponse(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		"I could not find anything relevant, sorry.",
		"", // summary call fails too
	}}

	svc := NewService(newTestLibrary(), llm, arbor.NewLogger())

	resp, err := svc.FindConnections(context.Background(), &models.ConnectionRequest{
		SelectedText:    "tail latency",
		CurrentDocument: "doc_a",
	})
	require.NoError(t, err)
	assert.True(t, resp.Fallback)
	require.Len(t, resp.Connections, 2)
	assert.Equal(t, "Related Section", resp.Connections[0].Title)
	assert.Equal(t, "medium", resp.Connections[0].Strength)
	assert.Equal(t, "Found 2 cross-document connections related to the selected text.", resp.Summary)
}

func TestFindConnections_CapsAndPads(t *testing.T) {
	// Six provider objects must be cut to four.
	many := `[` + strings.Repeat(`{"title":"S","document":"alpha.pdf","pages":[1],"snippet":"x","strength":"medium"},`, 5) +
		`{"title":"S","document":"alpha.pdf","pages":[1],"snippet":"x","strength":"medium"}]`

	llm := &scriptedLLM{responses: []string{many, "summary"}}
	svc := NewService(newTestLibrary(), llm, arbor.NewLogger())

	resp, err := svc.FindConnections(context.Background(), &models.ConnectionRequest{SelectedText: "x"})
	require.NoError(t, err)
	assert.Len(t, resp.Connections, 4)

	// A single provider object must be padded up to two.
	llm = &scriptedLLM{responses: []string{
		`[{"title":"Only One","document":"alpha.pdf","pages":[2],"snippet":"x","strength":"high"}]`,
		"summary",
	}}
	svc = NewService(newTestLibrary(), llm, arbor.NewLogger())

	resp, err = svc.FindConnections(context.Background(), &models.ConnectionRequest{SelectedText: "x"})
	require.NoError(t, err)
	require.Len(t, resp.Connections, 2)
	assert.Equal(t, "Only One", resp.Connections[0].Title)
	assert.Equal(t, "Related Concept 2", resp.Connections[1].Title)
	assert.Equal(t, "low", resp.Connections[1].Strength)
}

func TestFindConnections_SnippetWordCap(t *testing.T) {
	long := strings.Repeat("word ", 30)
	llm := &scriptedLLM{responses: []string{
		`[{"title":"A","document":"alpha.pdf","pages":[1],"snippet":"` + strings.TrimSpace(long) + `","strength":"medium"},
		  {"title":"B","document":"beta.pdf","pages":[1],"snippet":"short","strength":"medium"}]`,
		"summary",
	}}
	svc := NewService(newTestLibrary(), llm, arbor.NewLogger())

	resp, err := svc.FindConnections(context.Background(), &models.ConnectionRequest{SelectedText: "x"})
	require.NoError(t, err)
	assert.Len(t, strings.Fields(resp.Connections[0].Snippet), 20)
}

func TestBuildLibraryContext_CapsHeadingsPerDocument(t *testing.T) {
	svc := NewService(newTestLibrary(), &scriptedLLM{}, arbor.NewLogger())

	ctx, err := svc.buildLibraryContext(context.Background(), "selection", "beta.pdf", nil)
	require.NoError(t, err)

	assert.Equal(t, headingsPerDocument, strings.Count(ctx, "Deep Section"))
	assert.Contains(t, ctx, "Queueing Theory (p.3)")
	assert.Contains(t, ctx, "--- alpha.pdf ---")
}

func TestNormalizeStrength(t *testing.T) {
	assert.Equal(t, "high", normalizeStrength(" HIGH "))
	assert.Equal(t, "low", normalizeStrength("low"))
	assert.Equal(t, "medium", normalizeStrength("strongish"))
	assert.Equal(t, "medium", normalizeStrength(""))
}
