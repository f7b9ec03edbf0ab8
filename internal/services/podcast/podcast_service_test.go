package podcast

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
)

type scriptedLLM struct {
	response string
	err      error
	calls    int
}

func (s *scriptedLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	s.calls++
	return s.response, s.err
}

func (s *scriptedLLM) HealthCheck(ctx context.Context) error { return nil }
func (s *scriptedLLM) Provider() string                      { return "scripted" }
func (s *scriptedLLM) Close() error                          { return nil }

type memoryScriptStore struct {
	scripts map[string]*models.PodcastScript
}

func newMemoryScriptStore() *memoryScriptStore {
	return &memoryScriptStore{scripts: make(map[string]*models.PodcastScript)}
}

func (m *memoryScriptStore) SaveScript(documentID, length string, script *models.PodcastScript) error {
	m.scripts[documentID+":"+length] = script
	return nil
}

func (m *memoryScriptStore) GetScript(documentID, length string) (*models.PodcastScript, error) {
	return m.scripts[documentID+":"+length], nil
}

func (m *memoryScriptStore) DeleteScriptsByDocument(documentID string) error { return nil }

type fakeTTS struct {
	available bool
	audio     []byte
	err       error
}

func (f *fakeTTS) Available() bool { return f.available }

func (f *fakeTTS) SynthesizeScript(ctx context.Context, script *models.PodcastScript) ([]byte, error) {
	return f.audio, f.err
}

func newTestService(t *testing.T, llm *scriptedLLM, tts interfaces.TTSService) (*Service, *memoryScriptStore) {
	t.Helper()
	if tts == nil {
		tts = &fakeTTS{}
	}
	store := newMemoryScriptStore()
	svc, err := NewService(llm, tts, store, t.TempDir(), arbor.NewLogger())
	require.NoError(t, err)
	return svc, store
}

func TestGenerateScript_ParsesDialogue(t *testing.T) {
	llm := &scriptedLLM{response: `Sure, here is the script:
[{"speaker":"Host","text":"What makes write-ahead logs durable?"},
 {"speaker":"Expert","text":"Every mutation hits the log before the page cache, so a crash replays cleanly."}]`}

	svc, store := newTestService(t, llm, nil)

	script, err := svc.GenerateScript(context.Background(), &models.PodcastRequest{
		SelectedText: "write-ahead logging",
		DocumentID:   "doc_wal",
		Duration:     "short",
	})
	require.NoError(t, err)
	require.Len(t, script.Segments, 2)
	assert.False(t, script.Fallback)
	assert.Equal(t, "Host", script.Segments[0].Speaker)
	assert.Equal(t, "Expert", script.Segments[1].Speaker)
	assert.Greater(t, script.DurationSeconds, 0)

	// Cached under the document and length preset.
	cached, err := store.GetScript("doc_wal", "short")
	require.NoError(t, err)
	require.NotNil(t, cached)
}

func TestGenerateScript_ServesFromCache(t *testing.T) {
	llm := &scriptedLLM{response: `[{"speaker":"Host","text":"hello"},{"speaker":"Expert","text":"world"}]`}
	svc, _ := newTestService(t, llm, nil)

	req := &models.PodcastRequest{SelectedText: "x", DocumentID: "doc_1", Duration: "medium"}

	_, err := svc.GenerateScript(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.GenerateScript(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, llm.calls, "second request must hit the cache")
}

func TestGenerateScript_WrapsNonJSONResponse(t *testing.T) {
	llm := &scriptedLLM{response: "Write-ahead logs guarantee durability by ordering writes."}
	svc, store := newTestService(t, llm, nil)

	script, err := svc.GenerateScript(context.Background(), &models.PodcastRequest{
		SelectedText: "x",
		DocumentID:   "doc_raw",
	})
	require.NoError(t, err)
	assert.True(t, script.Fallback)
	require.Len(t, script.Segments, 2)
	assert.Equal(t, "Host", script.Segments[0].Speaker)
	assert.Contains(t, script.Segments[1].Text, "durability")

	// Fallback scripts are not cached.
	cached, _ := store.GetScript("doc_raw", "medium")
	assert.Nil(t, cached)
}

func TestGenerateScript_ProviderFailure(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("provider down")}
	svc, _ := newTestService(t, llm, nil)

	script, err := svc.GenerateScript(context.Background(), &models.PodcastRequest{
		SelectedText: "consensus protocols",
		Format:       "overview",
	})
	require.NoError(t, err)
	assert.True(t, script.Fallback)
	require.Len(t, script.Segments, 1)
	assert.Equal(t, "Narrator", script.Segments[0].Speaker)
	assert.Contains(t, script.Segments[0].Text, "consensus protocols")
}

func TestGenerateScript_OverviewSingleNarrator(t *testing.T) {
	llm := &scriptedLLM{response: `[{"speaker":"Narrator","text":"A single flowing narration about the topic."}]`}
	svc, _ := newTestService(t, llm, nil)

	script, err := svc.GenerateScript(context.Background(), &models.PodcastRequest{
		SelectedText: "x",
		Format:       "overview",
	})
	require.NoError(t, err)
	require.Len(t, script.Segments, 1)
	assert.Equal(t, "Narrator", script.Segments[0].Speaker)
}

func TestGenerateAudio_WritesWavFile(t *testing.T) {
	tts := &fakeTTS{available: true, audio: []byte("RIFFfakewav")}
	svc, _ := newTestService(t, &scriptedLLM{}, tts)

	script := &models.PodcastScript{Segments: []models.PodcastSegment{{Speaker: "Narrator", Text: "hi"}}}

	path, err := svc.GenerateAudio(context.Background(), "doc_audio", script)
	require.NoError(t, err)
	require.NotEmpty(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFFfakewav"), data)
}

func TestGenerateAudio_NoBackendConfigured(t *testing.T) {
	svc, _ := newTestService(t, &scriptedLLM{}, &fakeTTS{available: false})

	path, err := svc.GenerateAudio(context.Background(), "doc_x", &models.PodcastScript{})
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestGenerateAudio_SynthesisError(t *testing.T) {
	svc, _ := newTestService(t, &scriptedLLM{}, &fakeTTS{available: true, err: errors.New("azure down")})

	_, err := svc.GenerateAudio(context.Background(), "doc_x", &models.PodcastScript{})
	assert.Error(t, err)
}

func TestEstimateDuration(t *testing.T) {
	// 150 words should estimate to one minute.
	words := make([]string, 150)
	for i := range words {
		words[i] = "word"
	}
	script := []models.PodcastSegment{{Speaker: "Narrator", Text: strings.Join(words, " ")}}
	assert.Equal(t, 60, estimateDuration(script))

	assert.Equal(t, 0, estimateDuration(nil))
}

func TestParseSegments_SingleObject(t *testing.T) {
	segments, err := parseSegments(`{"speaker":"Narrator","text":"solo narration"}`)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "solo narration", segments[0].Text)
}

func TestParseSegments_EmptySegmentsDropped(t *testing.T) {
	segments, err := parseSegments(`[{"speaker":"Host","text":"  "},{"speaker":"Expert","text":"kept"}]`)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "kept", segments[0].Text)
}
