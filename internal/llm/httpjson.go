package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ppiankov/globechat/internal/util"
)

// maxReplyBytes bounds how much of a backend reply is read
const maxReplyBytes = 4 << 20

// jsonTransport exchanges JSON with backends that have no Go SDK
type jsonTransport struct {
	provider string
	baseURL  string
	headers  map[string]string
	client   *http.Client

	// apiError extracts the backend's own message from an error body
	apiError func(body []byte) string
}

func newJSONTransport(provider, baseURL string, config Config, headers map[string]string, apiError func([]byte) string) *jsonTransport {
	return &jsonTransport{
		provider: provider,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		headers:  headers,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		},
		apiError: apiError,
	}
}

// call sends in (nil for no body) and decodes a 200 reply into out.
// Transport problems and non-200 statuses are backend failures; a 200 body
// that does not decode is a malformed response.
func (t *jsonTransport) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return backendFailure(t.provider, fmt.Errorf("marshal request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, body)
	if err != nil {
		return backendFailure(t.provider, fmt.Errorf("create request: %w", err))
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return backendFailure(t.provider, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	reply, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return backendFailure(t.provider, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		msg := ""
		if t.apiError != nil {
			msg = t.apiError(reply)
		}
		if msg == "" {
			msg = strings.TrimSpace(string(reply))
		}
		return backendFailure(t.provider, fmt.Errorf("API error (%d): %s", resp.StatusCode, msg))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(reply, out); err != nil {
		return malformedResponse(t.provider, fmt.Errorf("unmarshal response: %w", err))
	}
	return nil
}
