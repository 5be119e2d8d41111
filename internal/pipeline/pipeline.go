package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ppiankov/globechat/internal/llm"
	"github.com/ppiankov/globechat/internal/logging"
	"github.com/ppiankov/globechat/internal/metrics"
	"github.com/ppiankov/globechat/internal/model"
	"github.com/ppiankov/globechat/internal/prompt"
)

// ErrEmptyQuestion is returned for questions that are blank after trimming
var ErrEmptyQuestion = errors.New("question is empty")

// Answerer answers one question about one (optional) country.
// *Pipeline implements it.
type Answerer interface {
	Answer(ctx context.Context, question string, record *model.StatisticsRecord) (*Answer, error)
}

// Pipeline answers one question about one (optional) country
type Pipeline struct {
	provider llm.Provider // nil when no credential is configured
	logger   *logging.Logger
	timeout  time.Duration
}

// Answer is the outcome of a successful generation
type Answer struct {
	Text       string
	Provider   string
	Model      string
	Grounded   bool
	Cached     bool
	TokensUsed int
	Duration   time.Duration
}

// NewPipeline creates a pipeline. provider may be nil, in which case every
// call fails with a missing-credential error. timeout <= 0 leaves the
// provider's own deadline in charge.
func NewPipeline(provider llm.Provider, logger *logging.Logger, timeout time.Duration) *Pipeline {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Pipeline{
		provider: provider,
		logger:   logger,
		timeout:  timeout,
	}
}

// Provider returns the configured provider, or nil
func (p *Pipeline) Provider() llm.Provider {
	return p.provider
}

// Answer summarizes the record, composes the prompt and calls the provider.
// A nil record means no country is selected.
func (p *Pipeline) Answer(ctx context.Context, question string, record *model.StatisticsRecord) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		metrics.RecordChat(metrics.OutcomeRejected, record != nil)
		return nil, ErrEmptyQuestion
	}

	payload := prompt.ComposeFor(question, record)

	log := p.logger.With("grounded", payload.Grounded)
	if record != nil {
		log = log.With("country", record.CountryCode)
	}

	if p.provider == nil {
		err := &llm.GenerationError{Kind: llm.KindMissingCredential, Provider: "none", Err: llm.ErrMissingCredential}
		log.Error("Generation skipped", "error", err)
		metrics.RecordChat(metrics.OutcomeFailed, payload.Grounded)
		return nil, err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := p.provider.Generate(ctx, llm.GenerateRequest{Payload: payload})
	elapsed := time.Since(start)

	if err != nil {
		kind, _ := llm.KindOf(err)
		if kind == "" {
			kind = llm.KindBackendFailure
		}
		metrics.RecordGeneration(p.provider.Name(), string(kind), elapsed)
		metrics.RecordChat(metrics.OutcomeFailed, payload.Grounded)
		log.Error("Generation failed",
			"provider", p.provider.Name(),
			"kind", kind,
			"timeout", llm.IsTimeout(err),
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	if _, ok := p.provider.(*llm.CachedProvider); ok {
		metrics.RecordCacheLookup(resp.Cached)
	}
	metrics.RecordGeneration(p.provider.Name(), "", elapsed)
	metrics.RecordChat(metrics.OutcomeAnswered, payload.Grounded)

	log.Info("Generation complete",
		"provider", p.provider.Name(),
		"model", resp.Model,
		"cached", resp.Cached,
		"tokens", resp.TokensUsed,
		"duration_ms", elapsed.Milliseconds(),
	)

	return &Answer{
		Text:       resp.Text,
		Provider:   p.provider.Name(),
		Model:      resp.Model,
		Grounded:   payload.Grounded,
		Cached:     resp.Cached,
		TokensUsed: resp.TokensUsed,
		Duration:   elapsed,
	}, nil
}

// Ask returns only the answer text
func (p *Pipeline) Ask(ctx context.Context, question string, record *model.StatisticsRecord) (string, error) {
	answer, err := p.Answer(ctx, question, record)
	if err != nil {
		return "", err
	}
	return answer.Text, nil
}
