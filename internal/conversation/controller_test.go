package conversation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/globechat/internal/model"
)

// stubAsker answers immediately with reply or err
type stubAsker struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	last    string
	records []*model.StatisticsRecord
}

func (s *stubAsker) Ask(ctx context.Context, message string, record *model.StatisticsRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = message
	s.records = append(s.records, record)
	return s.reply, s.err
}

// blockingAsker holds every call until release is closed or ctx ends
type blockingAsker struct {
	started chan struct{}
	release chan struct{}
	reply   string
}

func newBlockingAsker(reply string) *blockingAsker {
	return &blockingAsker{
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
		reply:   reply,
	}
}

func (b *blockingAsker) Ask(ctx context.Context, message string, record *model.StatisticsRecord) (string, error) {
	b.started <- struct{}{}
	select {
	case <-b.release:
		return b.reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestNew_StartsWithGreeting(t *testing.T) {
	c := New(&stubAsker{})

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleAssistant, msgs[0].Role)
	assert.Equal(t, Greeting, msgs[0].Text)
	assert.Equal(t, model.StateIdle, c.State())
	assert.Equal(t, model.StateIdle, c.LastOutcome())
}

func TestSubmit_EmptyIsRejected(t *testing.T) {
	asker := &stubAsker{reply: "unused"}
	c := New(asker)
	c.SetInput("   ")

	for _, q := range []string{"", " ", "\t\n"} {
		err := c.Submit(context.Background(), q)
		assert.ErrorIs(t, err, ErrEmptyQuestion)
	}
	assert.ErrorIs(t, c.SubmitInput(context.Background()), ErrEmptyQuestion)

	assert.Len(t, c.Messages(), 1)
	assert.Equal(t, model.StateIdle, c.State())
	assert.Zero(t, asker.calls)
}

func TestSubmit_SuccessAddsTwoMessages(t *testing.T) {
	asker := &stubAsker{reply: "**AI** leads with 120 works."}
	c := New(asker)
	c.SetInput("What is the #1 research field?")

	before := len(c.Messages())
	require.NoError(t, c.SubmitInput(context.Background()))

	msgs := c.Messages()
	require.Len(t, msgs, before+2)
	assert.Equal(t, model.Message{Role: model.RoleUser, Text: "What is the #1 research field?"}, msgs[before])
	assert.Equal(t, model.Message{Role: model.RoleAssistant, Text: "**AI** leads with 120 works."}, msgs[before+1])
	assert.Empty(t, c.Input())
	assert.Equal(t, model.StateIdle, c.State())
	assert.Equal(t, model.StateSucceeded, c.LastOutcome())
}

func TestSubmit_SendsTextUnmodified(t *testing.T) {
	asker := &stubAsker{reply: "ok"}
	c := New(asker)

	text := "  Compare AI and oncology\n  output across years  "
	require.NoError(t, c.Submit(context.Background(), text))

	assert.Equal(t, text, asker.last)
	assert.Equal(t, text, c.Messages()[1].Text)
}

func TestSubmit_TransportErrorAddsApologyOnly(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	c := New(&stubAsker{err: cause})

	before := len(c.Messages())
	err := c.Submit(context.Background(), "Summarize the trends")
	require.NoError(t, err, "failures never escape to the caller")

	msgs := c.Messages()
	require.Len(t, msgs, before+2)
	assert.Equal(t, model.RoleUser, msgs[before].Role)
	assert.Equal(t, model.Message{Role: model.RoleAssistant, Text: Apology}, msgs[before+1])
	assert.Equal(t, model.StateIdle, c.State())
	assert.Equal(t, model.StateFailed, c.LastOutcome())
	assert.Equal(t, cause, c.LastError())
}

func TestSubmit_FailureAfterUserMessageAddsExactlyOne(t *testing.T) {
	asker := newBlockingAsker("")
	c := New(&failingAfter{inner: asker})

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), "Any notable recent papers?") }()
	<-asker.started

	// The user message is already visible while pending
	pendingCount := len(c.Messages())
	close(asker.release)
	require.NoError(t, <-done)

	assert.Len(t, c.Messages(), pendingCount+1)
	assert.Equal(t, Apology, c.Messages()[pendingCount].Text)
}

// failingAfter waits for inner to return, then fails
type failingAfter struct {
	inner *blockingAsker
}

func (f *failingAfter) Ask(ctx context.Context, message string, record *model.StatisticsRecord) (string, error) {
	_, _ = f.inner.Ask(ctx, message, record)
	return "", errors.New("upstream 502")
}

func TestSubmit_SecondSubmissionWhilePendingIsNoop(t *testing.T) {
	asker := newBlockingAsker("done")
	c := New(asker)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), "first") }()
	<-asker.started

	assert.Equal(t, model.StatePending, c.State())
	count := len(c.Messages())

	assert.ErrorIs(t, c.Submit(context.Background(), "second"), ErrRequestPending)
	assert.ErrorIs(t, c.SubmitSuggestion(context.Background(), 0), ErrRequestPending)
	assert.ErrorIs(t, c.Submit(context.Background(), "  "), ErrRequestPending)

	assert.Len(t, c.Messages(), count)
	assert.Equal(t, model.StatePending, c.State())

	close(asker.release)
	require.NoError(t, <-done)
	assert.Equal(t, model.StateIdle, c.State())
	assert.Len(t, c.Messages(), count+1)
}

func TestSubmit_ConcurrentCallersOnlyOnePending(t *testing.T) {
	asker := newBlockingAsker("ok")
	c := New(asker)

	const callers = 20
	var accepted, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := c.Submit(context.Background(), "q")
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, ErrRequestPending):
				rejected.Add(1)
			}
		}()
	}

	<-asker.started
	require.Eventually(t, func() bool { return rejected.Load() == callers-1 }, time.Second, 5*time.Millisecond)
	close(asker.release)
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
	assert.Len(t, c.Messages(), 3)
}

func TestDismiss_DropsInFlightResult(t *testing.T) {
	asker := newBlockingAsker("too late")
	var changes atomic.Int32
	c := New(asker, WithOnChange(func() { changes.Add(1) }))

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), "What makes this country unique?") }()
	<-asker.started

	c.Dismiss()
	assert.Equal(t, model.StateIdle, c.State())
	require.NoError(t, <-done)

	msgs := c.Messages()
	require.Len(t, msgs, 2, "greeting and the user message only")
	assert.Equal(t, model.RoleUser, msgs[1].Role)
	assert.Equal(t, model.StateIdle, c.LastOutcome())
	assert.Positive(t, changes.Load())

	// The session stays usable
	c2 := newBlockingAsker("fresh")
	close(c2.release)
	c.asker = c2
	require.NoError(t, c.Submit(context.Background(), "Summarize the trends"))
	assert.Equal(t, "fresh", c.Messages()[3].Text)
}

func TestDismiss_WhenIdleIsNoop(t *testing.T) {
	c := New(&stubAsker{reply: "x"})
	c.Dismiss()
	assert.Equal(t, model.StateIdle, c.State())
	assert.Len(t, c.Messages(), 1)
}

func TestSubmit_SendsSelectedCountryCopy(t *testing.T) {
	asker := &stubAsker{reply: "ok"}
	c := New(asker)

	require.NoError(t, c.Submit(context.Background(), "no country yet"))

	record := &model.StatisticsRecord{
		CountryName:  "United States",
		CountryCode:  "US",
		TopSubfields: []model.Subfield{{Name: "AI", TotalWorks: 120}},
	}
	c.Select(record)
	record.TopSubfields[0].Name = "mutated"

	require.NoError(t, c.Submit(context.Background(), "What is the #1 research field?"))

	require.Len(t, asker.records, 2)
	assert.Nil(t, asker.records[0])
	require.NotNil(t, asker.records[1])
	assert.Equal(t, "AI", asker.records[1].TopSubfields[0].Name)

	c.Select(nil)
	assert.Nil(t, c.Selected())
}

func TestSubmitSuggestion(t *testing.T) {
	asker := &stubAsker{reply: "ok"}
	c := New(asker)

	require.NoError(t, c.SubmitSuggestion(context.Background(), 2))
	assert.Equal(t, "Summarize the trends", asker.last)

	assert.ErrorIs(t, c.SubmitSuggestion(context.Background(), -1), ErrUnknownSuggestion)
	assert.ErrorIs(t, c.SubmitSuggestion(context.Background(), len(Suggestions)), ErrUnknownSuggestion)
}

func TestKeyAction(t *testing.T) {
	asker := &stubAsker{reply: "ok"}
	c := New(asker)
	c.SetInput("Summarize the trends")

	handled, err := c.KeyAction(context.Background(), KeyEnter, true)
	assert.False(t, handled)
	assert.NoError(t, err)
	assert.Zero(t, asker.calls, "Shift+Enter does not submit")

	handled, err = c.KeyAction(context.Background(), "a", false)
	assert.False(t, handled)
	assert.NoError(t, err)

	handled, err = c.KeyAction(context.Background(), KeyEnter, false)
	assert.True(t, handled)
	assert.NoError(t, err)
	assert.Equal(t, 1, asker.calls)
	assert.Empty(t, c.Input())
}

func TestMessages_OrderMatchesSubmissions(t *testing.T) {
	asker := &stubAsker{reply: "answer"}
	c := New(asker)

	for _, q := range []string{"one", "two", "three"} {
		require.NoError(t, c.Submit(context.Background(), q))
	}

	msgs := c.Messages()
	require.Len(t, msgs, 7)
	for i := 1; i < len(msgs); i += 2 {
		assert.Equal(t, model.RoleUser, msgs[i].Role)
		assert.Equal(t, model.RoleAssistant, msgs[i+1].Role)
	}
	assert.Equal(t, "three", msgs[5].Text)
}

func TestMessages_ReturnsCopy(t *testing.T) {
	c := New(&stubAsker{})
	msgs := c.Messages()
	msgs[0].Text = "changed"
	assert.Equal(t, Greeting, c.Messages()[0].Text)
}
