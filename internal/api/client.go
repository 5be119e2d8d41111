package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/globechat/internal/model"
	"github.com/ppiankov/globechat/internal/util"
)

// maxResponseBytes bounds how much of a server reply is read
const maxResponseBytes = 1 << 20

// ErrNoResponse is returned when a 2xx reply lacks the response field
var ErrNoResponse = errors.New("server reply has no response field")

// StatusError is a non-2xx reply from the chat server
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status: %d: %s", e.StatusCode, e.Message)
}

// Client talks to a globechat server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc("", "", ""),
			},
		},
	}
}

// Ask posts one question to /api/chat. The record is trimmed to the
// bounded summary shape before it leaves the process.
func (c *Client) Ask(ctx context.Context, message string, record *model.StatisticsRecord) (string, error) {
	req := ChatRequest{Message: message}
	if record != nil {
		bounded := record.Bounded()
		req.CountryData = &bounded
	}

	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	if resp.Response == "" {
		return "", ErrNoResponse
	}
	return resp.Response, nil
}

// Countries lists the countries the server has data for
func (c *Client) Countries(ctx context.Context) ([]CountrySummary, error) {
	var out []CountrySummary
	if err := c.do(ctx, http.MethodGet, "/api/countries", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Country fetches one country's record. ok is false for unknown codes.
func (c *Client) Country(ctx context.Context, code string) (*model.StatisticsRecord, bool, error) {
	var detail CountryDetail
	err := c.do(ctx, http.MethodGet, "/api/countries/"+url.PathEscape(code), nil, &detail)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	record := detail.StatisticsRecord
	return &record, true, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr ErrorResponse
		_ = json.Unmarshal(data, &apiErr)
		return &StatusError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
