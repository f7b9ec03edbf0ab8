package tts

import (
	"context"
	"encoding/binary"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/common"
	"github.com/conspectus/conspectus/internal/models"
)

func TestEncodeExtractRoundTrip(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	wav := encodeWAV(pcm)

	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint32(sampleRate), binary.LittleEndian.Uint32(wav[24:28]))

	out, err := extractPCM(wav)
	require.NoError(t, err)
	assert.Equal(t, pcm, out)
}

func TestExtractPCM_RejectsGarbage(t *testing.T) {
	_, err := extractPCM([]byte("definitely not audio"))
	assert.Error(t, err)

	_, err = extractPCM(nil)
	assert.Error(t, err)
}

func TestConcatWAV_InsertsSilence(t *testing.T) {
	a := encodeWAV([]byte{1, 1})
	b := encodeWAV([]byte{2, 2})

	combined, err := concatWAV([][]byte{a, b}, 500)
	require.NoError(t, err)

	pcm, err := extractPCM(combined)
	require.NoError(t, err)

	// 500ms at 16kHz mono 16-bit is 16000 bytes of silence between the
	// two 2-byte payloads.
	assert.Len(t, pcm, 2+16000+2)
	assert.Equal(t, byte(1), pcm[0])
	assert.Equal(t, byte(0), pcm[2])
	assert.Equal(t, byte(2), pcm[len(pcm)-1])
}

func TestConcatWAV_Empty(t *testing.T) {
	_, err := concatWAV(nil, 500)
	assert.Error(t, err)
}

func TestSilenceBytes(t *testing.T) {
	assert.Len(t, silenceBytes(1000), sampleRate*bytesPerSample)
	assert.Len(t, silenceBytes(0), 0)
}

// newAzureTestService points an AzureService at a local test server.
func newAzureTestService(t *testing.T, handler http.HandlerFunc) (*AzureService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewAzureService(&common.TTSConfig{
		Enabled: true,
		Region:  "eastus",
		APIKey:  "test-key",
	}, arbor.NewLogger())
	require.NoError(t, err)

	// Route region endpoint calls to the test server.
	svc.client = server.Client()
	svc.client.Transport = rewriteTransport{base: http.DefaultTransport, target: server.URL}
	return svc, server
}

// rewriteTransport redirects every request to the test server while keeping
// path and headers intact.
type rewriteTransport struct {
	base   http.RoundTripper
	target string
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = strings.TrimPrefix(rt.target, "http://")
	return rt.base.RoundTrip(req)
}

func TestSynthesizeScript_MapsVoicesAndStitches(t *testing.T) {
	var requests []string
	svc, _ := newAzureTestService(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, string(body))

		assert.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, outputFormat, r.Header.Get("X-Microsoft-OutputFormat"))

		w.Write(encodeWAV([]byte{9, 9}))
	})

	script := &models.PodcastScript{Segments: []models.PodcastSegment{
		{Speaker: "Host", Text: "Welcome to the show"},
		{Speaker: "Expert", Text: "Glad to be here"},
	}}

	audio, err := svc.SynthesizeScript(context.Background(), script)
	require.NoError(t, err)

	pcm, err := extractPCM(audio)
	require.NoError(t, err)
	assert.Len(t, pcm, 2+16000+2)

	require.Len(t, requests, 2)
	assert.Contains(t, requests[0], "en-US-JennyNeural")
	assert.Contains(t, requests[1], "en-US-GuyNeural")
}

func TestSynthesizeScript_SkipsFailedSegments(t *testing.T) {
	call := 0
	svc, _ := newAzureTestService(t, func(w http.ResponseWriter, r *http.Request) {
		call++
		if call == 1 {
			http.Error(w, "throttled", http.StatusTooManyRequests)
			return
		}
		w.Write(encodeWAV([]byte{7, 7}))
	})

	script := &models.PodcastScript{Segments: []models.PodcastSegment{
		{Speaker: "Host", Text: "first"},
		{Speaker: "Expert", Text: "second"},
	}}

	audio, err := svc.SynthesizeScript(context.Background(), script)
	require.NoError(t, err)

	pcm, err := extractPCM(audio)
	require.NoError(t, err)
	assert.Len(t, pcm, 2, "only the surviving segment contributes audio")
}

func TestSynthesizeScript_AllSegmentsFail(t *testing.T) {
	svc, _ := newAzureTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	})

	_, err := svc.SynthesizeScript(context.Background(), &models.PodcastScript{
		Segments: []models.PodcastSegment{{Speaker: "Host", Text: "x"}},
	})
	assert.Error(t, err)
}

func TestEscapeXML(t *testing.T) {
	assert.Equal(t, "a &amp; b &lt;c&gt;", escapeXML(`a & b <c>`))
}

func TestNewService_FallsBackToNoop(t *testing.T) {
	logger := arbor.NewLogger()

	svc := NewService(&common.TTSConfig{Enabled: false}, logger)
	assert.False(t, svc.Available())

	svc = NewService(&common.TTSConfig{Enabled: true}, logger) // no key
	assert.False(t, svc.Available())

	svc = NewService(&common.TTSConfig{Enabled: true, APIKey: "k", Region: "eastus"}, logger)
	assert.True(t, svc.Available())
}
