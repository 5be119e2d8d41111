package llm

import (
	"context"
	"sync/atomic"
)

// stubProvider answers every request with a fixed reply or error and
// counts how often the backend was reached.
type stubProvider struct {
	name  string
	reply *GenerateResponse
	err   error
	calls atomic.Int32
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) IsAvailable(context.Context) bool { return s.err == nil }

func (s *stubProvider) Generate(_ context.Context, _ GenerateRequest) (*GenerateResponse, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	out := *s.reply
	return &out, nil
}
