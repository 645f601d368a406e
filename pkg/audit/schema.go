// Package audit provides audit logging with Quickwit integration.
package audit

import (
	"time"
)

// EventType represents the type of audit event
type EventType string

const (
	EventTypeAuth     EventType = "auth"
	EventTypeEntity   EventType = "entity"
	EventTypeConfig   EventType = "config"
	EventTypeSettings EventType = "settings"
	EventTypeSystem   EventType = "system"
)

// EventAction represents the action performed
type EventAction string

const (
	ActionCreate   EventAction = "create"
	ActionUpdate   EventAction = "update"
	ActionDelete   EventAction = "delete"
	ActionBuild    EventAction = "build"
	ActionActivate EventAction = "activate"
	ActionCheck    EventAction = "check"
	ActionLogin    EventAction = "login"
	ActionLogout   EventAction = "logout"
)

// EventOutcome represents the outcome of the action
type EventOutcome string

const (
	OutcomeSuccess EventOutcome = "success"
	OutcomeFailure EventOutcome = "failure"
)

// AuditEvent represents an audit log event
type AuditEvent struct {
	ID           string                 `json:"id"`
	Timestamp    time.Time              `json:"timestamp"`
	EventType    EventType              `json:"event_type"`
	Action       EventAction            `json:"action"`
	Outcome      EventOutcome           `json:"outcome"`
	ActorID      string                 `json:"actor_id,omitempty"`
	ActorEmail   string                 `json:"actor_email,omitempty"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	ResourceType string                 `json:"resource_type,omitempty"`
	Description  string                 `json:"description,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	IPAddress    string                 `json:"ip_address,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
	ErrorCode    string                 `json:"error_code,omitempty"`
	ErrorMsg     string                 `json:"error_message,omitempty"`
}

// QuickwitIndexConfig represents Quickwit index configuration
type QuickwitIndexConfig struct {
	Version          string           `json:"version"`
	IndexID          string           `json:"index_id"`
	DocMapping       DocMapping       `json:"doc_mapping"`
	SearchSettings   SearchSettings   `json:"search_settings"`
	IndexingSettings IndexingSettings `json:"indexing_settings"`
	RetentionPolicy  *RetentionPolicy `json:"retention_policy,omitempty"`
}

// DocMapping represents document mapping configuration
type DocMapping struct {
	Mode           string         `json:"mode"`
	FieldMappings  []FieldMapping `json:"field_mappings"`
	TimestampField string         `json:"timestamp_field"`
	TagFields      []string       `json:"tag_fields"`
}

// FieldMapping represents a field mapping
type FieldMapping struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Indexed   bool   `json:"indexed,omitempty"`
	Stored    bool   `json:"stored,omitempty"`
	Fast      bool   `json:"fast,omitempty"`
	Tokenizer string `json:"tokenizer,omitempty"`
}

// SearchSettings represents search configuration
type SearchSettings struct {
	DefaultSearchFields []string `json:"default_search_fields"`
}

// IndexingSettings represents indexing configuration
type IndexingSettings struct {
	CommitTimeoutSecs int `json:"commit_timeout_secs"`
}

// RetentionPolicy represents data retention configuration
type RetentionPolicy struct {
	Period   string `json:"period"`
	Schedule string `json:"schedule"`
}

// DefaultAuditIndexConfig returns the default audit index configuration
func DefaultAuditIndexConfig(indexID string) *QuickwitIndexConfig {
	return &QuickwitIndexConfig{
		Version: "0.7",
		IndexID: indexID,
		DocMapping: DocMapping{
			Mode:           "dynamic",
			TimestampField: "timestamp",
			TagFields:      []string{"event_type", "action", "outcome", "resource_type"},
			FieldMappings: []FieldMapping{
				{Name: "id", Type: "text", Indexed: true, Stored: true},
				{Name: "timestamp", Type: "datetime", Indexed: true, Stored: true, Fast: true},
				{Name: "event_type", Type: "text", Indexed: true, Stored: true, Fast: true},
				{Name: "action", Type: "text", Indexed: true, Stored: true, Fast: true},
				{Name: "outcome", Type: "text", Indexed: true, Stored: true, Fast: true},
				{Name: "actor_id", Type: "text", Indexed: true, Stored: true},
				{Name: "actor_email", Type: "text", Indexed: true, Stored: true},
				{Name: "resource_id", Type: "text", Indexed: true, Stored: true},
				{Name: "resource_type", Type: "text", Indexed: true, Stored: true, Fast: true},
				{Name: "description", Type: "text", Indexed: true, Stored: true, Tokenizer: "default"},
				{Name: "ip_address", Type: "text", Indexed: true, Stored: true},
				{Name: "request_id", Type: "text", Indexed: true, Stored: true},
				{Name: "error_code", Type: "text", Indexed: true, Stored: true},
				{Name: "error_message", Type: "text", Indexed: true, Stored: true},
			},
		},
		SearchSettings: SearchSettings{
			DefaultSearchFields: []string{"description", "actor_email", "resource_id"},
		},
		IndexingSettings: IndexingSettings{
			CommitTimeoutSecs: 30,
		},
		RetentionPolicy: &RetentionPolicy{
			Period:   "90 days",
			Schedule: "daily",
		},
	}
}

// SearchQuery represents a search query
type SearchQuery struct {
	Query       string         `json:"query"`
	EventTypes  []EventType    `json:"-"`
	Actions     []EventAction  `json:"-"`
	Outcomes    []EventOutcome `json:"-"`
	ActorID     string         `json:"-"`
	ResourceID  string         `json:"-"`
	StartTime   *time.Time     `json:"-"`
	EndTime     *time.Time     `json:"-"`
	MaxHits     int            `json:"max_hits"`
	StartOffset int            `json:"start_offset"`
	SortBy      []SortField    `json:"sort_by,omitempty"`
}

// SortField represents a sort field
type SortField struct {
	Field string `json:"field"`
	Order string `json:"order"` // asc, desc
}

// SearchResult represents search results
type SearchResult struct {
	Hits        []AuditEvent `json:"hits"`
	NumHits     int64        `json:"num_hits"`
	ElapsedSecs float64      `json:"elapsed_secs"`
}
