// Package audit provides audit logging with Quickwit integration.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Logger provides audit logging functionality
type Logger struct {
	client *QuickwitClient
	logger *zap.Logger
	config *QuickwitConfig

	mu          sync.Mutex
	batch       []AuditEvent
	flushTicker *time.Ticker
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// NewLogger creates a new audit logger
func NewLogger(client *QuickwitClient, config *QuickwitConfig, logger *zap.Logger) *Logger {
	l := &Logger{
		client:   client,
		logger:   logger,
		config:   config,
		batch:    make([]AuditEvent, 0, config.BatchSize),
		stopChan: make(chan struct{}),
	}

	if config.EnableBatch {
		l.startBatchProcessor()
	}

	return l
}

// startBatchProcessor starts the background batch processor
func (l *Logger) startBatchProcessor() {
	l.flushTicker = time.NewTicker(l.config.FlushInterval)
	l.wg.Add(1)

	go func() {
		defer l.wg.Done()
		for {
			select {
			case <-l.flushTicker.C:
				if err := l.Flush(context.Background()); err != nil {
					l.logger.Error("failed to flush audit logs", zap.Error(err))
				}
			case <-l.stopChan:
				return
			}
		}
	}()
}

// Close stops the logger and flushes remaining events
func (l *Logger) Close() error {
	if l.flushTicker != nil {
		l.flushTicker.Stop()
	}

	close(l.stopChan)
	l.wg.Wait()

	return l.Flush(context.Background())
}

// Log logs an audit event
func (l *Logger) Log(ctx context.Context, event *AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Outcome == "" {
		event.Outcome = OutcomeSuccess
	}

	if l.config.EnableBatch {
		return l.addToBatch(ctx, event)
	}

	return l.client.IngestSingle(ctx, event)
}

// addToBatch adds an event to the batch
func (l *Logger) addToBatch(ctx context.Context, event *AuditEvent) error {
	l.mu.Lock()
	l.batch = append(l.batch, *event)
	shouldFlush := len(l.batch) >= l.config.BatchSize
	l.mu.Unlock()

	if shouldFlush {
		return l.Flush(ctx)
	}

	return nil
}

// Flush flushes the current batch
func (l *Logger) Flush(ctx context.Context) error {
	l.mu.Lock()
	if len(l.batch) == 0 {
		l.mu.Unlock()
		return nil
	}

	batch := l.batch
	l.batch = make([]AuditEvent, 0, l.config.BatchSize)
	l.mu.Unlock()

	if err := l.client.Ingest(ctx, batch); err != nil {
		// Put events back in batch on failure
		l.mu.Lock()
		l.batch = append(batch, l.batch...)
		l.mu.Unlock()
		return err
	}

	l.logger.Debug("flushed audit logs", zap.Int("count", len(batch)))
	return nil
}

// LogAuth logs a login or logout event
func (l *Logger) LogAuth(ctx context.Context, actorID, email string, action EventAction, success bool, ipAddress string) error {
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}

	return l.Log(ctx, &AuditEvent{
		EventType:  EventTypeAuth,
		Action:     action,
		Outcome:    outcome,
		ActorID:    actorID,
		ActorEmail: email,
		IPAddress:  ipAddress,
	})
}

// LogEntityEvent logs a change to an inventory entity (host, group,
// user, service, profile, rule).
func (l *Logger) LogEntityEvent(ctx context.Context, resourceType, resourceID string, action EventAction, actorID string, success bool) error {
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}

	return l.Log(ctx, &AuditEvent{
		EventType:    EventTypeEntity,
		Action:       action,
		Outcome:      outcome,
		ActorID:      actorID,
		ResourceID:   resourceID,
		ResourceType: resourceType,
	})
}

// LogConfigEvent logs a configuration lifecycle event: build, syntax
// check, activation, or deletion of an artifact.
func (l *Logger) LogConfigEvent(ctx context.Context, artifactID, filename string, action EventAction, actorID string, success bool, metadata map[string]interface{}) error {
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}

	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	metadata["filename"] = filename

	return l.Log(ctx, &AuditEvent{
		EventType:    EventTypeConfig,
		Action:       action,
		Outcome:      outcome,
		ActorID:      actorID,
		ResourceID:   artifactID,
		ResourceType: "config_artifact",
		Metadata:     metadata,
	})
}

// LogSettingsEvent logs a change to the daemon or MAVIS settings.
func (l *Logger) LogSettingsEvent(ctx context.Context, resourceType, actorID string, success bool) error {
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}

	return l.Log(ctx, &AuditEvent{
		EventType:    EventTypeSettings,
		Action:       ActionUpdate,
		Outcome:      outcome,
		ActorID:      actorID,
		ResourceType: resourceType,
	})
}

// LogSystemEvent logs a system event
func (l *Logger) LogSystemEvent(ctx context.Context, action EventAction, description string, metadata map[string]interface{}) error {
	return l.Log(ctx, &AuditEvent{
		EventType:   EventTypeSystem,
		Action:      action,
		Outcome:     OutcomeSuccess,
		Description: description,
		Metadata:    metadata,
	})
}

// Search searches audit logs
func (l *Logger) Search(ctx context.Context, query *SearchQuery) (*SearchResult, error) {
	return l.client.Search(ctx, query)
}

// GetEventsByResource gets events for a specific resource
func (l *Logger) GetEventsByResource(ctx context.Context, resourceID string, limit, offset int) (*SearchResult, error) {
	return l.client.Search(ctx, &SearchQuery{
		ResourceID:  resourceID,
		MaxHits:     limit,
		StartOffset: offset,
		SortBy: []SortField{
			{Field: "timestamp", Order: "desc"},
		},
	})
}

// EnsureIndex ensures the audit index exists
func (l *Logger) EnsureIndex(ctx context.Context) error {
	exists, err := l.client.IndexExists(ctx, l.config.IndexID)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}

	if !exists {
		config := DefaultAuditIndexConfig(l.config.IndexID)
		if err := l.client.CreateIndex(ctx, config); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
