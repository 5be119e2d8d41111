package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/globechat/internal/cache"
	"github.com/ppiankov/globechat/internal/llm"
	"github.com/ppiankov/globechat/internal/model"
	"github.com/ppiankov/globechat/internal/prompt"
)

// recordingProvider captures every request and answers with text or err
type recordingProvider struct {
	mu    sync.Mutex
	reqs  []llm.GenerateRequest
	text  string
	err   error
	delay time.Duration
}

func (r *recordingProvider) Name() string { return "fake" }

func (r *recordingProvider) IsAvailable(ctx context.Context) bool { return true }

func (r *recordingProvider) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()

	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, &llm.GenerationError{Kind: llm.KindBackendFailure, Provider: "fake", Err: ctx.Err()}
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &llm.GenerateResponse{Text: r.text, Model: "fake-1"}, nil
}

func (r *recordingProvider) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reqs)
}

func TestAnswer_GroundedSingleTopArea(t *testing.T) {
	fake := &recordingProvider{text: "**AI** leads with 120 works."}
	p := NewPipeline(fake, nil, 0)

	record := &model.StatisticsRecord{
		CountryName:  "United States",
		TopSubfields: []model.Subfield{{Name: "AI", TotalWorks: 120}},
	}

	answer, err := p.Answer(context.Background(), "What is the #1 research field?", record)
	require.NoError(t, err)

	assert.Equal(t, "**AI** leads with 120 works.", answer.Text)
	assert.True(t, answer.Grounded)
	assert.Equal(t, "fake", answer.Provider)
	assert.Equal(t, "fake-1", answer.Model)

	require.Equal(t, 1, fake.calls())
	payload := fake.reqs[0].Payload
	assert.Contains(t, payload.Instruction(), "United States")
	assert.Contains(t, payload.Instruction(),
		`{"country":"United States","top_areas":[{"name":"AI","totalWorks":120}],"specializations":[]}`)
	assert.Equal(t, "What is the #1 research field?", payload.Question())
}

func TestAnswer_NoCountry(t *testing.T) {
	fake := &recordingProvider{text: "Please click a country on the globe first."}
	p := NewPipeline(fake, nil, 0)

	answer, err := p.Answer(context.Background(), "Summarize the trends", nil)
	require.NoError(t, err)

	assert.False(t, answer.Grounded)
	assert.Equal(t, "Please click a country on the globe first.", answer.Text)
	assert.Equal(t, prompt.NoCountryInstruction, fake.reqs[0].Payload.Instruction())
}

func TestAnswer_EmptyQuestionNeverReachesProvider(t *testing.T) {
	fake := &recordingProvider{text: "unused"}
	p := NewPipeline(fake, nil, 0)

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := p.Answer(context.Background(), q, nil)
		assert.ErrorIs(t, err, ErrEmptyQuestion)
	}
	assert.Zero(t, fake.calls())
}

func TestAnswer_NilProviderIsMissingCredential(t *testing.T) {
	p := NewPipeline(nil, nil, 0)

	_, err := p.Answer(context.Background(), "Any notable recent papers?", nil)
	require.Error(t, err)

	kind, ok := llm.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, llm.KindMissingCredential, kind)
	assert.ErrorIs(t, err, llm.ErrMissingCredential)
}

func TestAnswer_PropagatesGenerationErrors(t *testing.T) {
	cause := &llm.GenerationError{Kind: llm.KindMalformedResponse, Provider: "fake", Err: errors.New("no candidates")}
	fake := &recordingProvider{err: cause}
	p := NewPipeline(fake, nil, 0)

	_, err := p.Answer(context.Background(), "What makes this country unique?", &model.StatisticsRecord{CountryName: "Japan"})
	require.Error(t, err)

	kind, _ := llm.KindOf(err)
	assert.Equal(t, llm.KindMalformedResponse, kind)
}

func TestAnswer_AppliesTimeout(t *testing.T) {
	fake := &recordingProvider{text: "late", delay: time.Second}
	p := NewPipeline(fake, nil, 20*time.Millisecond)

	start := time.Now()
	_, err := p.Answer(context.Background(), "Summarize the trends", nil)
	require.Error(t, err)

	assert.True(t, llm.IsTimeout(err))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestAnswer_DoesNotMutateRecord(t *testing.T) {
	fake := &recordingProvider{text: "ok"}
	p := NewPipeline(fake, nil, 0)

	record := &model.StatisticsRecord{CountryName: "Germany"}
	for i := 0; i < 8; i++ {
		record.TopSubfields = append(record.TopSubfields, model.Subfield{Name: strings.Repeat("x", i+1), TotalWorks: i})
	}
	before := record.Clone()

	_, err := p.Answer(context.Background(), "What is the #1 research field?", record)
	require.NoError(t, err)
	assert.Equal(t, before, *record)
}

func TestAnswer_CachedProviderReportsHits(t *testing.T) {
	fake := &recordingProvider{text: "cached answer"}
	cached := llm.NewCachedProvider(fake, cache.NewMemoryCache[llm.GenerateResponse](time.Minute, 0), 0)
	p := NewPipeline(cached, nil, 0)

	first, err := p.Answer(context.Background(), "Summarize the trends", nil)
	require.NoError(t, err)
	second, err := p.Answer(context.Background(), "Summarize the trends", nil)
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, fake.calls())
}
