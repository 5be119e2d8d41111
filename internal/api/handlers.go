package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/globechat/internal/countrydata"
)

func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		respondError(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(c, http.StatusBadRequest, msgMessageRequired)
		return
	}

	answer, err := s.opts.Answerer.Answer(c.Request.Context(), req.Message, req.CountryData)
	if err != nil {
		status, msg := statusFor(err)
		s.logger.Error("Chat request failed",
			"request_id", c.GetString(requestIDKey),
			"status", status,
			"error", err,
		)
		respondError(c, status, msg)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Response: answer.Text})
}

func (s *Server) handleCountries(c *gin.Context) {
	codes := s.opts.Store.Codes()
	out := make([]CountrySummary, 0, len(codes))
	for _, code := range codes {
		record, ok := s.opts.Store.Lookup(code)
		if !ok {
			continue
		}
		summary := CountrySummary{
			Code: code,
			Name: record.CountryName,
			Flag: countrydata.Flag(code),
		}
		if len(record.TopSubfields) > 0 {
			summary.TopField = record.TopSubfields[0].Name
		}
		out = append(out, summary)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCountry(c *gin.Context) {
	code := c.Param("code")
	record, ok := s.opts.Store.Lookup(code)
	if !ok {
		respondError(c, http.StatusNotFound, msgCountryNotFound)
		return
	}
	c.JSON(http.StatusOK, CountryDetail{
		StatisticsRecord: record,
		Flag:             countrydata.Flag(record.CountryCode),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Provider:  s.opts.ProviderName,
		Countries: s.opts.Store.Len(),
	}
	if s.opts.CacheStats != nil {
		resp.Cache = newCacheHealth(s.opts.CacheStats())
	}
	c.JSON(http.StatusOK, resp)
}
