// Package conversation drives one chat session: message history, input
// state and the lifecycle of the single outstanding question.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/ppiankov/globechat/internal/logging"
	"github.com/ppiankov/globechat/internal/model"
)

const (
	// Greeting opens every session
	Greeting = "Hi! Select a country and ask me about its research."

	// Apology replaces the answer whenever a round trip fails
	Apology = "Connection error. Please try again."

	// KeyEnter is the key that submits the input
	KeyEnter = "Enter"
)

// Suggestions are the fixed question shortcuts offered to the user
var Suggestions = []string{
	"What is the #1 research field?",
	"What makes this country unique?",
	"Summarize the trends",
	"Any notable recent papers?",
}

var (
	// ErrEmptyQuestion is returned for blank submissions; nothing changes
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrRequestPending is returned while another question is in flight
	ErrRequestPending = errors.New("a request is already pending")

	// ErrUnknownSuggestion is returned for an out-of-range shortcut index
	ErrUnknownSuggestion = errors.New("unknown suggestion")
)

// Asker sends one question, with the selected country if any, and returns
// the answer text
type Asker interface {
	Ask(ctx context.Context, message string, record *model.StatisticsRecord) (string, error)
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger used for failed round trips
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithOnChange registers a callback fired after every state or history
// change. It runs without the controller lock held.
func WithOnChange(fn func()) Option {
	return func(c *Controller) { c.onChange = fn }
}

// Controller owns the message history and the request state. At most one
// question is pending at a time.
type Controller struct {
	mu       sync.Mutex
	asker    Asker
	logger   *logging.Logger
	onChange func()

	messages []model.Message
	input    string
	selected *model.StatisticsRecord
	state    model.RequestState
	last     model.RequestState
	lastErr  error

	// round identifies the pending request; Dismiss bumps it so a late
	// result is recognized as stale and dropped
	round  uint64
	cancel context.CancelFunc
}

// New creates a controller whose history starts with the greeting
func New(asker Asker, opts ...Option) *Controller {
	c := &Controller{
		asker:    asker,
		logger:   logging.Nop(),
		messages: []model.Message{{Role: model.RoleAssistant, Text: Greeting}},
		state:    model.StateIdle,
		last:     model.StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.Nop()
	}
	return c
}

// Submit asks text about the selected country and blocks until the answer
// or failure has been appended. Failures become the apology message and are
// not returned; LastError exposes the cause.
func (c *Controller) Submit(ctx context.Context, text string) error {
	c.mu.Lock()
	if c.state == model.StatePending {
		c.mu.Unlock()
		return ErrRequestPending
	}
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return ErrEmptyQuestion
	}

	c.messages = append(c.messages, model.Message{Role: model.RoleUser, Text: text})
	c.input = ""
	c.state = model.StatePending
	c.round++
	round := c.round

	callCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	var record *model.StatisticsRecord
	if c.selected != nil {
		r := c.selected.Clone()
		record = &r
	}
	c.mu.Unlock()
	c.notify()

	reply, err := c.asker.Ask(callCtx, text, record)
	cancel()

	c.mu.Lock()
	if c.round != round || c.state != model.StatePending {
		// Dismissed while in flight
		c.mu.Unlock()
		c.logger.Debug("Dropped answer for dismissed question")
		return nil
	}

	c.cancel = nil
	c.state = model.StateIdle
	if err != nil {
		c.messages = append(c.messages, model.Message{Role: model.RoleAssistant, Text: Apology})
		c.last = model.StateFailed
		c.lastErr = err
	} else {
		c.messages = append(c.messages, model.Message{Role: model.RoleAssistant, Text: reply})
		c.last = model.StateSucceeded
		c.lastErr = nil
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("Question failed", "error", err)
	}
	c.notify()
	return nil
}

// SubmitInput submits the current input field
func (c *Controller) SubmitInput(ctx context.Context) error {
	return c.Submit(ctx, c.Input())
}

// SubmitSuggestion submits the i-th shortcut from Suggestions
func (c *Controller) SubmitSuggestion(ctx context.Context, i int) error {
	if i < 0 || i >= len(Suggestions) {
		return ErrUnknownSuggestion
	}
	return c.Submit(ctx, Suggestions[i])
}

// KeyAction handles a key press in the input field. Enter without Shift
// submits; handled reports whether the key was consumed.
func (c *Controller) KeyAction(ctx context.Context, key string, shift bool) (handled bool, err error) {
	if key != KeyEnter || shift {
		return false, nil
	}
	return true, c.SubmitInput(ctx)
}

// Dismiss abandons the pending question, if any. Its result is dropped and
// the controller is immediately ready for a new question.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	if c.state != model.StatePending {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.cancel = nil
	c.round++
	c.state = model.StateIdle
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.notify()
}

// SetInput replaces the input field
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
}

// Input returns the input field
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Select changes the selected country. nil clears the selection.
func (c *Controller) Select(record *model.StatisticsRecord) {
	c.mu.Lock()
	if record == nil {
		c.selected = nil
	} else {
		r := record.Clone()
		c.selected = &r
	}
	c.mu.Unlock()
	c.notify()
}

// Selected returns a copy of the selected country, or nil
func (c *Controller) Selected() *model.StatisticsRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return nil
	}
	r := c.selected.Clone()
	return &r
}

// Messages returns a copy of the history
func (c *Controller) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// State is StatePending while a question is in flight, StateIdle otherwise
func (c *Controller) State() model.RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastOutcome reports how the most recent round trip ended: StateSucceeded,
// StateFailed, or StateIdle before the first one
func (c *Controller) LastOutcome() model.RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// LastError is the cause of the most recent failure, or nil
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}
