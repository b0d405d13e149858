package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifiedEvent(verdict string) Event {
	return Event{
		Action:      ActionNameVerified,
		AccountHash: HashAccount("0123456789"),
		BankHint:    "VCB",
		Verdict:     verdict,
	}
}

func TestPublisher_SyncMode(t *testing.T) {
	sink := NewMemorySink()
	pub := NewPublisher(sink)
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), verifiedEvent("match")))

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "match", events[0].Verdict)
	assert.NotEqual(t, uuid.Nil, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisher_PreservesIdentity(t *testing.T) {
	sink := NewMemorySink()
	pub := NewPublisher(sink)
	defer pub.Close()

	e := verifiedEvent("mismatch")
	e.ID = uuid.New()
	e.Timestamp = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), e))

	got := sink.Events()[0]
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, e.Timestamp, got.Timestamp)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	sink := NewMemorySink()
	pub := NewPublisher(sink, WithAsyncBuffer(100))

	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), verifiedEvent("timeout")))
	}
	pub.Close()

	assert.Len(t, sink.Events(), 10, "all events should be drained on close")
}

// blockingSink holds every write until release is closed.
type blockingSink struct {
	release chan struct{}
	started sync.Once
	first   chan struct{}
}

func (s *blockingSink) Write(context.Context, Event) error {
	s.started.Do(func() { close(s.first) })
	<-s.release
	return nil
}

func TestPublisher_BufferFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{}), first: make(chan struct{})}
	pub := NewPublisher(sink, WithAsyncBuffer(1))

	require.NoError(t, pub.Emit(context.Background(), verifiedEvent("match")))
	<-sink.first
	require.NoError(t, pub.Emit(context.Background(), verifiedEvent("match")))

	err := pub.Emit(context.Background(), verifiedEvent("match"))
	assert.ErrorIs(t, err, ErrBufferFull)

	close(sink.release)
	pub.Close()
}

func TestPublisher_CancelledContext(t *testing.T) {
	pub := NewPublisher(NewMemorySink(), WithAsyncBuffer(1))
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, pub.Emit(ctx, verifiedEvent("match")), context.Canceled)
}

type failingSink struct{}

func (failingSink) Write(context.Context, Event) error { return errors.New("broker down") }

func TestPublisher_AsyncLogsSinkFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	pub := NewPublisher(failingSink{}, WithAsyncBuffer(1), WithPublisherLogger(logger))

	require.NoError(t, pub.Emit(context.Background(), verifiedEvent("match")))
	pub.Close()

	assert.Contains(t, buf.String(), "failed to write audit event")
	assert.Contains(t, buf.String(), "broker down")
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	e := verifiedEvent("mismatch")
	e.SourceBank = "ACB"
	require.NoError(t, sink.Write(context.Background(), e))

	out := buf.String()
	assert.Contains(t, out, `"verdict":"mismatch"`)
	assert.Contains(t, out, `"source_bank":"ACB"`)
	assert.NotContains(t, out, "0123456789")
}

func TestHashAccount(t *testing.T) {
	assert.Equal(t, HashAccount("0123456789"), HashAccount("0123456789"))
	assert.NotEqual(t, HashAccount("0123456789"), HashAccount("0123456780"))
	assert.Len(t, HashAccount("x"), 64)
}
