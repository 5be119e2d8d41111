package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/globechat/internal/llm"
	"github.com/ppiankov/globechat/internal/pipeline"
)

// User-facing error messages. Backend details stay in the logs.
const (
	msgInvalidBody     = "Invalid request body"
	msgBodyTooLarge    = "Request body too large"
	msgMessageRequired = "Message is required"
	msgMissingKey      = "API Key missing"
	msgFailed          = "Failed to process request"
	msgTimeout         = "Generation timed out"
	msgRateLimited     = "Too many requests"
	msgCountryNotFound = "Country not found"
)

// statusFor maps a pipeline failure to an HTTP status and message
func statusFor(err error) (int, string) {
	if errors.Is(err, pipeline.ErrEmptyQuestion) {
		return http.StatusBadRequest, msgMessageRequired
	}

	kind, _ := llm.KindOf(err)
	switch {
	case kind == llm.KindMissingCredential:
		return http.StatusInternalServerError, msgMissingKey
	case llm.IsTimeout(err):
		return http.StatusGatewayTimeout, msgTimeout
	case kind == llm.KindBackendFailure, kind == llm.KindMalformedResponse:
		return http.StatusBadGateway, msgFailed
	default:
		return http.StatusInternalServerError, msgFailed
	}
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}
