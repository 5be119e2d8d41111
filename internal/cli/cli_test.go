package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/globechat/internal/conversation"
	"github.com/ppiankov/globechat/internal/countrydata"
	"github.com/ppiankov/globechat/internal/llm"
	"github.com/ppiankov/globechat/internal/logging"
	"github.com/ppiankov/globechat/internal/model"
	"github.com/ppiankov/globechat/internal/render"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, model.DefaultConfig())
	bindEnv(v)
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, model.DefaultConfig(), cfg)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("GLOBECHAT_LLM_PROVIDER", "ollama")
	t.Setenv("GLOBECHAT_CACHE_TTL", "90s")
	t.Setenv("GLOBECHAT_RATE_LIMIT_BURST", "12")

	cfg, err := loadConfig(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 12, cfg.RateLimit.Burst)
}

func TestBuildProvider_SwitchingProviderUsesItsDefaultModel(t *testing.T) {
	var sent openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&sent)
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Model: sent.Model,
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "AI leads."}},
			},
		})
	}))
	defer server.Close()

	t.Setenv("GLOBECHAT_LLM_PROVIDER", "openai")
	t.Setenv("GLOBECHAT_LLM_API_KEY", "test-key")
	t.Setenv("GLOBECHAT_LLM_BASE_URL", server.URL)
	t.Setenv("GLOBECHAT_CACHE_ENABLED", "false")

	cfg, err := loadConfig(newTestViper())
	require.NoError(t, err)
	assert.Empty(t, cfg.LLM.Model)

	provider, err := buildProvider(cfg, logging.Nop())
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.Equal(t, "openai", provider.Name())

	payload := model.PromptPayload{Segments: []model.PromptSegment{
		{Kind: model.SegmentQuestion, Label: model.QuestionLabel, Text: "What is the #1 research field?"},
	}}
	resp, err := provider.Generate(context.Background(), llm.GenerateRequest{Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, openai.GPT4oMini, sent.Model)
	assert.Equal(t, openai.GPT4oMini, resp.Model)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: anthropic\nserver:\n  addr: \":9999\"\n"), 0o600))

	v := newTestViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 512, cfg.LLM.MaxTokens)
}

func TestInitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, initConfigFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# globechat configuration file")
	assert.Contains(t, string(data), "provider: gemini")
	assert.Contains(t, string(data), "GEMINI_API_KEY")

	err = initConfigFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRedacted(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "secret"

	out := redacted(cfg)
	assert.Equal(t, "********", out.LLM.APIKey)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
}

func testStore() *countrydata.Store {
	return countrydata.New(map[string]model.StatisticsRecord{
		"IN": {
			CountryName:  "India",
			TopSubfields: []model.Subfield{{Name: "Artificial Intelligence", TotalWorks: 120}},
		},
		"JP": {CountryName: "Japan"},
	})
}

func TestLocalCatalog(t *testing.T) {
	c := localCatalog{store: testStore()}

	record, err := c.Lookup(context.Background(), "in")
	require.NoError(t, err)
	assert.Equal(t, "India", record.CountryName)

	_, err = c.Lookup(context.Background(), "XX")
	assert.Error(t, err)

	rows, err := c.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "IN", rows[0].Code)
	assert.Equal(t, "Artificial Intelligence", rows[0].TopField)
	assert.Equal(t, "JP", rows[1].Code)
}

type fakeAsker struct {
	records []*model.StatisticsRecord
	err     error
}

func (f *fakeAsker) Ask(_ context.Context, message string, record *model.StatisticsRecord) (string, error) {
	f.records = append(f.records, record)
	if f.err != nil {
		return "", f.err
	}
	return "**Answer** to " + message, nil
}

func newTestREPL(asker conversation.Asker) (*repl, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	b := &backend{asker: asker, catalog: localCatalog{store: testStore()}, label: "test"}
	return &repl{
		ctx:     context.Background(),
		backend: b,
		printer: render.NewPrinter(&out, &errOut, render.ColorNever),
		ctrl:    conversation.New(asker, conversation.WithLogger(logging.Nop())),
	}, &out, &errOut
}

func TestREPL_SelectAndAsk(t *testing.T) {
	asker := &fakeAsker{}
	r, out, _ := newTestREPL(asker)

	err := r.run(strings.NewReader("/country IN\n\nWhat is the #1 research field?\n/quit\nignored\n"))
	require.NoError(t, err)

	require.Len(t, asker.records, 1)
	require.NotNil(t, asker.records[0])
	assert.Equal(t, "India", asker.records[0].CountryName)

	s := out.String()
	assert.Contains(t, s, "India")
	assert.Contains(t, s, render.LoadingText)
	assert.Contains(t, s, "Assistant: Answer to What is the #1 research field?")

	messages := r.ctrl.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, model.RoleUser, messages[1].Role)
}

func TestREPL_SuggestionWithoutCountry(t *testing.T) {
	asker := &fakeAsker{}
	r, out, _ := newTestREPL(asker)

	require.NoError(t, r.run(strings.NewReader("/2\n")))

	require.Len(t, asker.records, 1)
	assert.Nil(t, asker.records[0])
	assert.Contains(t, out.String(), "You: "+conversation.Suggestions[1])
}

func TestREPL_FailureShowsApology(t *testing.T) {
	asker := &fakeAsker{err: errors.New("backend down")}
	r, out, errOut := newTestREPL(asker)

	require.NoError(t, r.run(strings.NewReader("hello\n")))

	assert.Contains(t, out.String(), conversation.Apology)
	assert.Contains(t, errOut.String(), "backend down")
	assert.Equal(t, model.StateFailed, r.ctrl.LastOutcome())
}

func TestREPL_Commands(t *testing.T) {
	r, out, errOut := newTestREPL(&fakeAsker{})

	require.NoError(t, r.run(strings.NewReader("/countries\n/country XX\n/suggest\n/9\n/bogus\n/country\n")))

	s := out.String()
	assert.Contains(t, s, "Japan")
	assert.Contains(t, s, "[1] "+conversation.Suggestions[0])
	assert.Contains(t, s, "No country selected")
	assert.Contains(t, errOut.String(), `unknown country code "XX"`)
	assert.Contains(t, errOut.String(), "pick a suggestion")
	assert.Contains(t, errOut.String(), "unknown command")
	assert.Nil(t, r.ctrl.Selected())
}

// holdingAsker blocks every question until its context ends
type holdingAsker struct {
	started chan struct{}
}

func (h *holdingAsker) Ask(ctx context.Context, _ string, _ *model.StatisticsRecord) (string, error) {
	h.started <- struct{}{}
	<-ctx.Done()
	return "", ctx.Err()
}

func TestREPL_InterruptDismissesThenExits(t *testing.T) {
	asker := &holdingAsker{started: make(chan struct{}, 1)}
	r, _, errOut := newTestREPL(asker)
	interrupts := make(chan os.Signal, 1)
	r.interrupts = interrupts

	pr, pw := io.Pipe()
	defer pw.Close()

	done := make(chan error, 1)
	go func() { done <- r.run(pr) }()
	go func() { _, _ = pw.Write([]byte("What makes Japan unique?\n")) }()

	<-asker.started
	interrupts <- os.Interrupt // dismiss the pending question
	interrupts <- os.Interrupt // leave from the idle prompt

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("interrupt at the prompt did not end the session")
	}

	assert.Contains(t, errOut.String(), "question dismissed")
	messages := r.ctrl.Messages()
	require.Len(t, messages, 2, "greeting and the dismissed question only")
	assert.Equal(t, model.StateIdle, r.ctrl.State())
	assert.NotEqual(t, model.StateFailed, r.ctrl.LastOutcome())
}
