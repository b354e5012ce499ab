package domain

import (
	"encoding/json"
	"fmt"
)

// EventType enumerates the billable actions.
type EventType string

const (
	EventAPICall          EventType = "api_call"
	EventStorageUpload    EventType = "storage_upload"
	EventUserSession      EventType = "user_session"
	EventDashboardView    EventType = "dashboard_view"
	EventReportGeneration EventType = "report_generation"
	EventCustomQuery      EventType = "custom_query"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventAPICall, EventStorageUpload, EventUserSession,
		EventDashboardView, EventReportGeneration, EventCustomQuery:
		return true
	}
	return false
}

// Deltas is the set of counter increments a single event contributes.
type Deltas struct {
	APICalls          int64
	DataProcessed     int64
	StorageUsed       int64
	UserSessions      int64
	DashboardViews    int64
	ReportGenerations int64
	CustomQueries     int64
}

// Payload is the typed event body. Each event type carries only the
// fields its aggregation step reads.
type Payload interface {
	Deltas() Deltas
	validate() error
}

// APICallPayload optionally reports bytes processed by the call.
type APICallPayload struct {
	DataSize int64 `json:"data_size,omitempty"`
}

func (p APICallPayload) Deltas() Deltas {
	return Deltas{APICalls: 1, DataProcessed: p.DataSize}
}

func (p APICallPayload) validate() error {
	if p.DataSize < 0 {
		return ErrInvalidPayload
	}
	return nil
}

// StorageUploadPayload reports bytes written to storage.
type StorageUploadPayload struct {
	Size int64 `json:"size,omitempty"`
}

func (p StorageUploadPayload) Deltas() Deltas {
	return Deltas{StorageUsed: p.Size}
}

func (p StorageUploadPayload) validate() error {
	if p.Size < 0 {
		return ErrInvalidPayload
	}
	return nil
}

// CustomQueryPayload optionally reports bytes scanned by the query.
type CustomQueryPayload struct {
	DataSize int64 `json:"data_size,omitempty"`
}

func (p CustomQueryPayload) Deltas() Deltas {
	return Deltas{CustomQueries: 1, DataProcessed: p.DataSize}
}

func (p CustomQueryPayload) validate() error {
	if p.DataSize < 0 {
		return ErrInvalidPayload
	}
	return nil
}

// EmptyPayload is used by event types whose aggregation reads no fields.
type EmptyPayload struct {
	kind EventType
}

func (p EmptyPayload) Deltas() Deltas {
	switch p.kind {
	case EventUserSession:
		return Deltas{UserSessions: 1}
	case EventDashboardView:
		return Deltas{DashboardViews: 1}
	case EventReportGeneration:
		return Deltas{ReportGenerations: 1}
	}
	return Deltas{}
}

func (p EmptyPayload) validate() error { return nil }

// DecodePayload parses raw JSON into the payload variant for the given
// event type. Unknown fields are discarded; unknown event types fail.
func DecodePayload(eventType EventType, raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	var payload Payload
	switch eventType {
	case EventAPICall:
		var p APICallPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		payload = p
	case EventStorageUpload:
		var p StorageUploadPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		payload = p
	case EventCustomQuery:
		var p CustomQueryPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		payload = p
	case EventUserSession, EventDashboardView, EventReportGeneration:
		payload = EmptyPayload{kind: eventType}
	default:
		return nil, ErrInvalidEventType
	}

	if err := payload.validate(); err != nil {
		return nil, err
	}
	return payload, nil
}
