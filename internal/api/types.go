package api

import (
	"github.com/ppiankov/globechat/internal/cache"
	"github.com/ppiankov/globechat/internal/model"
)

// ChatRequest is the body of POST /api/chat. A null countryData means no
// country is selected.
type ChatRequest struct {
	Message     string                  `json:"message"`
	CountryData *model.StatisticsRecord `json:"countryData"`
}

// ChatResponse is returned on success
type ChatResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is returned with every non-2xx status
type ErrorResponse struct {
	Error string `json:"error"`
}

// CountrySummary is one row of GET /api/countries
type CountrySummary struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Flag     string `json:"flag"`
	TopField string `json:"topField,omitempty"`
}

// CountryDetail is the body of GET /api/countries/:code
type CountryDetail struct {
	model.StatisticsRecord
	Flag string `json:"flag"`
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status    string       `json:"status"`
	Provider  string       `json:"provider"`
	Countries int          `json:"countries"`
	Cache     *CacheHealth `json:"cache,omitempty"`
}

// CacheHealth reports the response cache when one is configured
type CacheHealth struct {
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	Entries  int     `json:"entries"`
	HitRatio float64 `json:"hitRatio"`
}

func newCacheHealth(s cache.Stats) *CacheHealth {
	return &CacheHealth{
		Hits:     s.Hits,
		Misses:   s.Misses,
		Entries:  s.Entries,
		HitRatio: s.HitRatio(),
	}
}
