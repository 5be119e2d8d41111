package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/globechat/internal/llm"
	"github.com/ppiankov/globechat/internal/model"
)

func bigRecord() *model.StatisticsRecord {
	r := &model.StatisticsRecord{CountryName: "Germany", CountryCode: "DE"}
	for i := 0; i < 9; i++ {
		r.TopSubfields = append(r.TopSubfields, model.Subfield{Name: string(rune('A' + i)), TotalWorks: 100 - i})
		r.UniqueSubfields = append(r.UniqueSubfields, model.UniqueSubfield{Name: string(rune('a' + i)), Score: float64(i)})
	}
	r.Trends = map[string][]model.TrendPoint{"A": {{Year: 2020, Volume: 10}}}
	return r
}

func TestClient_AskRoundTrip(t *testing.T) {
	fake := &fakeAnswerer{text: "**A** leads."}
	ts := httptest.NewServer(newTestServer(t, fake, nil).Handler())
	defer ts.Close()

	client := NewClient(ts.URL, 5*time.Second)
	record := bigRecord()

	answer, err := client.Ask(context.Background(), "What is the #1 research field?", record)
	require.NoError(t, err)
	assert.Equal(t, "**A** leads.", answer)

	// The record is trimmed before it is sent
	require.NotNil(t, fake.record)
	assert.Len(t, fake.record.TopSubfields, model.MaxTopAreas)
	assert.Len(t, fake.record.UniqueSubfields, model.MaxSpecializations)
	assert.Empty(t, fake.record.Trends)
	assert.Len(t, record.TopSubfields, 9, "caller's record is untouched")
}

func TestClient_AskWithoutCountry(t *testing.T) {
	fake := &fakeAnswerer{text: "Pick a country first."}
	ts := httptest.NewServer(newTestServer(t, fake, nil).Handler())
	defer ts.Close()

	_, err := NewClient(ts.URL, 0).Ask(context.Background(), "Summarize the trends", nil)
	require.NoError(t, err)
	assert.Nil(t, fake.record)
}

func TestClient_AskServerError(t *testing.T) {
	fake := &fakeAnswerer{err: &llm.GenerationError{Kind: llm.KindMissingCredential, Err: llm.ErrMissingCredential}}
	ts := httptest.NewServer(newTestServer(t, fake, nil).Handler())
	defer ts.Close()

	_, err := NewClient(ts.URL, 0).Ask(context.Background(), "q", nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "API Key missing", statusErr.Message)
}

func TestClient_AskMissingResponseField(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer": "wrong field"}`))
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, 0).Ask(context.Background(), "q", nil)
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestClient_AskTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := NewClient(url, time.Second).Ask(context.Background(), "q", nil)
	assert.Error(t, err)
}

func TestClient_Countries(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, &fakeAnswerer{}, nil).Handler())
	defer ts.Close()

	client := NewClient(ts.URL, 0)

	list, err := client.Countries(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	record, ok, err := client.Country(context.Background(), "jp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Japan", record.CountryName)

	_, ok, err = client.Country(context.Background(), "zz")
	require.NoError(t, err)
	assert.False(t, ok)
}
