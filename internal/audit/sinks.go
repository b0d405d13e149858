package audit

import (
	"context"
	"log/slog"
	"sync"
)

// LogSink writes events as structured log lines.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(ctx context.Context, e Event) error {
	s.logger.InfoContext(ctx, "audit",
		"event_id", e.ID.String(),
		"action", string(e.Action),
		"request_id", e.RequestID,
		"account_hash", e.AccountHash,
		"bank_hint", e.BankHint,
		"verdict", e.Verdict,
		"source_bank", e.SourceBank,
		"attempted", e.Attempted,
		"duration_ms", e.Duration.Milliseconds(),
	)
	return nil
}

// MemorySink keeps events in memory.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// Events returns a copy of everything written so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}
