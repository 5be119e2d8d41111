package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/globechat/internal/api"
	"github.com/ppiankov/globechat/internal/cache"
	"github.com/ppiankov/globechat/internal/conversation"
	"github.com/ppiankov/globechat/internal/countrydata"
	"github.com/ppiankov/globechat/internal/llm"
	"github.com/ppiankov/globechat/internal/logging"
	"github.com/ppiankov/globechat/internal/model"
	"github.com/ppiankov/globechat/internal/pipeline"
	"github.com/ppiankov/globechat/internal/render"
)

// buildProvider creates the configured generation backend. A missing
// credential is not fatal: the pipeline reports it per request, the way
// the HTTP endpoint answers with "API Key missing".
func buildProvider(cfg *model.Config, log *logging.Logger) (llm.Provider, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		if kind, ok := llm.KindOf(err); ok && kind == llm.KindMissingCredential {
			log.Warn("no API key configured, questions will fail", "provider", cfg.LLM.Provider)
			return nil, nil
		}
		return nil, err
	}

	if cfg.Cache.Enabled && cfg.Cache.TTL > 0 {
		memory := cache.NewMemoryCache[llm.GenerateResponse](cfg.Cache.TTL, cfg.Cache.MaxEntries)
		return llm.NewCachedProvider(provider, memory, cfg.Cache.TTL), nil
	}
	return provider, nil
}

// buildPipeline wires the answering pipeline for in-process use
func buildPipeline(cfg *model.Config, log *logging.Logger) (*pipeline.Pipeline, error) {
	provider, err := buildProvider(cfg, log)
	if err != nil {
		return nil, err
	}
	// The provider enforces llm.timeout per call; the pipeline bound adds
	// headroom for the cache and request setup
	seconds := cfg.LLM.Timeout
	if seconds <= 0 {
		seconds = llm.DefaultTimeout
	}
	timeout := time.Duration(seconds)*time.Second + 5*time.Second
	return pipeline.NewPipeline(provider, log, timeout), nil
}

// cacheStats returns the response cache counters of p, or nil when
// answers are not cached
func cacheStats(p *pipeline.Pipeline) func() cache.Stats {
	if p == nil {
		return nil
	}
	if cached, ok := p.Provider().(*llm.CachedProvider); ok {
		return cached.Stats
	}
	return nil
}

// providerName reports the configured backend, or "none"
func providerName(p *pipeline.Pipeline) string {
	if p == nil || p.Provider() == nil {
		return "none"
	}
	return p.Provider().Name()
}

// catalog resolves countries either from the local dataset or from a
// running server
type catalog interface {
	Lookup(ctx context.Context, code string) (*model.StatisticsRecord, error)
	Rows(ctx context.Context) ([]render.CountryRow, error)
}

type localCatalog struct {
	store *countrydata.Store
}

func (c localCatalog) Lookup(_ context.Context, code string) (*model.StatisticsRecord, error) {
	record, ok := c.store.Lookup(code)
	if !ok {
		return nil, fmt.Errorf("unknown country code %q", code)
	}
	return &record, nil
}

func (c localCatalog) Rows(_ context.Context) ([]render.CountryRow, error) {
	codes := c.store.Codes()
	rows := make([]render.CountryRow, 0, len(codes))
	for _, code := range codes {
		record, _ := c.store.Lookup(code)
		rows = append(rows, render.RowFor(countrydata.Flag(code), record))
	}
	return rows, nil
}

type remoteCatalog struct {
	client *api.Client
}

func (c remoteCatalog) Lookup(ctx context.Context, code string) (*model.StatisticsRecord, error) {
	record, ok, err := c.client.Country(ctx, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("unknown country code %q", code)
	}
	return record, nil
}

func (c remoteCatalog) Rows(ctx context.Context) ([]render.CountryRow, error) {
	summaries, err := c.client.Countries(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]render.CountryRow, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, render.CountryRow{
			Code:     s.Code,
			Flag:     s.Flag,
			Name:     s.Name,
			TopField: s.TopField,
		})
	}
	return rows, nil
}

// backend is where questions go and where countries come from
type backend struct {
	asker   conversation.Asker
	catalog catalog
	label   string
}

// newBackend talks to client.server_url when set, otherwise answers
// in-process against the local dataset
func newBackend(s *session) (*backend, error) {
	if url := s.cfg.Client.ServerURL; url != "" {
		client := api.NewClient(url, s.cfg.Client.Timeout)
		return &backend{asker: client, catalog: remoteCatalog{client: client}, label: url}, nil
	}

	store, err := countrydata.Load(s.cfg.Data.Path)
	if err != nil {
		return nil, err
	}
	p, err := buildPipeline(s.cfg, s.log)
	if err != nil {
		return nil, err
	}
	return &backend{asker: p, catalog: localCatalog{store: store}, label: providerName(p)}, nil
}

// newCatalog resolves countries without building a generation backend
func newCatalog(s *session) (catalog, error) {
	if url := s.cfg.Client.ServerURL; url != "" {
		return remoteCatalog{client: api.NewClient(url, s.cfg.Client.Timeout)}, nil
	}
	store, err := countrydata.Load(s.cfg.Data.Path)
	if err != nil {
		return nil, err
	}
	return localCatalog{store: store}, nil
}
