package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// quickwitStub records NDJSON ingest requests.
type quickwitStub struct {
	mu     sync.Mutex
	events []AuditEvent
	fail   bool
}

func (s *quickwitStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.fail {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		scanner := bufio.NewScanner(r.Body)
		for scanner.Scan() {
			var event AuditEvent
			if err := json.Unmarshal(scanner.Bytes(), &event); err == nil {
				s.events = append(s.events, event)
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (s *quickwitStub) recorded() []AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *quickwitStub) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func newTestLogger(t *testing.T, batch bool) (*Logger, *quickwitStub) {
	t.Helper()
	stub := &quickwitStub{}
	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)

	config := DefaultQuickwitConfig()
	config.BaseURL = server.URL
	config.EnableBatch = batch
	config.FlushInterval = time.Hour // flush manually in tests

	client := NewQuickwitClient(config, zap.NewNop())
	logger := NewLogger(client, config, zap.NewNop())
	if batch {
		t.Cleanup(func() { logger.Close() })
	}
	return logger, stub
}

func TestLogFillsDefaults(t *testing.T) {
	logger, stub := newTestLogger(t, false)

	require.NoError(t, logger.Log(context.Background(), &AuditEvent{
		EventType: EventTypeSystem,
		Action:    ActionCreate,
	}))

	events := stub.recorded()
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, OutcomeSuccess, events[0].Outcome)
}

func TestBatchFlush(t *testing.T) {
	logger, stub := newTestLogger(t, true)
	ctx := context.Background()

	require.NoError(t, logger.LogAuth(ctx, "u1", "admin@example.com", ActionLogin, true, "127.0.0.1"))
	require.NoError(t, logger.LogEntityEvent(ctx, "host", "h1", ActionCreate, "u1", true))

	// Nothing sent until the batch is flushed.
	assert.Empty(t, stub.recorded())

	require.NoError(t, logger.Flush(ctx))
	events := stub.recorded()
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeAuth, events[0].EventType)
	assert.Equal(t, EventTypeEntity, events[1].EventType)
}

func TestFlushRequeuesOnFailure(t *testing.T) {
	logger, stub := newTestLogger(t, true)
	ctx := context.Background()

	require.NoError(t, logger.LogConfigEvent(ctx, "a1", "prod", ActionBuild, "u1", true, nil))

	stub.setFail(true)
	require.Error(t, logger.Flush(ctx))
	assert.Empty(t, stub.recorded())

	stub.setFail(false)
	require.NoError(t, logger.Flush(ctx))
	events := stub.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, ActionBuild, events[0].Action)
	assert.Equal(t, "a1", events[0].ResourceID)
	assert.Equal(t, "prod", events[0].Metadata["filename"])
}

func TestAuthFailureOutcome(t *testing.T) {
	logger, stub := newTestLogger(t, false)

	require.NoError(t, logger.LogAuth(context.Background(),
		"", "intruder@example.com", ActionLogin, false, "10.1.2.3"))

	events := stub.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, OutcomeFailure, events[0].Outcome)
	assert.Equal(t, "intruder@example.com", events[0].ActorEmail)
	assert.Equal(t, "10.1.2.3", events[0].IPAddress)
}
