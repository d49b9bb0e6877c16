package analyze

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/medialens/internal/inference"
	"github.com/thebtf/medialens/internal/memstore"
)

// stubFetcher serves a fixed page or error.
type stubFetcher struct {
	page  string
	err   error
	calls int
}

func (f *stubFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	f.calls++
	return f.page, f.err
}

// stubInference returns a fixed completion.
type stubInference struct {
	completion string
	err        error
}

func (s *stubInference) ChatWithTools(ctx context.Context, system string, history []inference.Message, query string, tools []inference.ToolDef) (*inference.ToolCall, error) {
	return nil, nil
}

func (s *stubInference) Complete(ctx context.Context, system, prompt string) (string, error) {
	return s.completion, s.err
}

func (s *stubInference) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("not used")
}

func analyzeRequest() Request {
	return Request{
		ImageURL:   "https://example.com/img/jacket.png",
		PageURL:    "https://example.com/spring",
		Occurrence: 1,
		SiteKey:    "site-a",
	}
}

func TestAnalyzeProducesSuggestion(t *testing.T) {
	fetcher := &stubFetcher{page: galleryPage}
	inf := &stubInference{completion: `{"suggestedAlt":"green rain jacket on display","reasoning":"describes the product","wcagCompliance":"1.1.1","type":"informative","confidence":0.9}`}
	a := NewAnalyzer(memstore.NewCache(), inf, fetcher, time.Hour)

	result, err := a.Analyze(context.Background(), analyzeRequest())
	require.NoError(t, err)

	assert.Equal(t, "green rain jacket on display", result.SuggestedAlt)
	assert.Equal(t, "1.1.1", result.WCAGCompliance)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
	assert.Equal(t, 1, result.Occurrence)
	assert.Equal(t, 2, result.TotalOccurrences)
	assert.Equal(t, "Spring Collection", result.PageContext.NearestHeading)
	assert.NotEmpty(t, result.Keywords)
	assert.False(t, result.Cached)
	assert.Positive(t, result.Impact.SEOAfter)
}

func TestAnalyzeCacheHit(t *testing.T) {
	fetcher := &stubFetcher{page: galleryPage}
	inf := &stubInference{completion: `{"suggestedAlt":"green rain jacket","confidence":0.8}`}
	a := NewAnalyzer(memstore.NewCache(), inf, fetcher, time.Hour)

	first, err := a.Analyze(context.Background(), analyzeRequest())
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := a.Analyze(context.Background(), analyzeRequest())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.SuggestedAlt, second.SuggestedAlt)
	assert.Equal(t, 1, fetcher.calls, "cache hit must not refetch the page")
}

func TestAnalyzeCacheKeyDistinguishesOccurrences(t *testing.T) {
	a := analyzeRequest()
	b := analyzeRequest()
	b.Occurrence = 2
	assert.NotEqual(t, a.CacheKey(), b.CacheKey())
}

func TestAnalyzeImageNotFound(t *testing.T) {
	fetcher := &stubFetcher{page: galleryPage}
	a := NewAnalyzer(memstore.NewCache(), &stubInference{}, fetcher, time.Hour)

	req := analyzeRequest()
	req.Occurrence = 5
	_, err := a.Analyze(context.Background(), req)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestAnalyzeFetchFailureIsUpstream(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	a := NewAnalyzer(memstore.NewCache(), &stubInference{}, fetcher, time.Hour)

	_, err := a.Analyze(context.Background(), analyzeRequest())
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "fetch page", upstream.Op)
}

func TestAnalyzeCompletionFailureIsUpstream(t *testing.T) {
	fetcher := &stubFetcher{page: galleryPage}
	inf := &stubInference{err: errors.New("model overloaded")}
	a := NewAnalyzer(memstore.NewCache(), inf, fetcher, time.Hour)

	_, err := a.Analyze(context.Background(), analyzeRequest())
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "suggestion completion", upstream.Op)
}

func TestParseSuggestionTolerantOfProse(t *testing.T) {
	raw := "Sure! Here is the JSON you asked for:\n" +
		`{"suggestedAlt":"a lighthouse","reasoning":"r","type":"informative","confidence":0.7}` +
		"\nLet me know if you need anything else."

	s := parseSuggestion(raw)
	assert.Equal(t, "a lighthouse", s.SuggestedAlt)
	assert.Equal(t, "1.1.1", s.WCAGCompliance, "missing compliance field is defaulted")
	assert.InDelta(t, 0.7, s.Confidence, 1e-9)
}

func TestParseSuggestionSynthesizesFallback(t *testing.T) {
	s := parseSuggestion("The image   shows a lighthouse at dusk, no JSON here")

	assert.Equal(t, "The image shows a lighthouse at dusk, no JSON here", s.SuggestedAlt)
	assert.InDelta(t, synthesizedConfidence, s.Confidence, 1e-9)
	assert.Equal(t, "informative", s.Type)
}
