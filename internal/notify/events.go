package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// ProtocolVersion identifies the inspection contract version exposed via /health.
	ProtocolVersion = "1.0.0"
	// EventSchemaVersion is the currently supported event version.
	EventSchemaVersion = 1
)

// Event types emitted while definitions are registered and overlays applied.
const (
	TypeDefinitionRegistered = "definition.registered"
	TypeOverlayApplied       = "overlay.applied"
	TypeOverlaySkipped       = "overlay.skipped"
	TypeOverlayFailed        = "overlay.failed"
	TypeCatalogReloaded      = "catalog.reloaded"
)

// Event captures a single notification emitted during an apply or reload.
type Event struct {
	Version      int             `json:"version"`
	EventID      string          `json:"event_id"`
	Sequence     int64           `json:"sequence"`
	Type         string          `json:"type"`
	Time         time.Time       `json:"time"`
	RunID        string          `json:"run_id,omitempty"`
	DefinitionID string          `json:"definition_id,omitempty"`
	OverlayID    string          `json:"overlay_id,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds a stamped event ready for routing. The payload is encoded
// to JSON; encoding failures leave the payload empty rather than failing the
// notification.
func NewEvent(eventType, runID, definitionID, overlayID string, payload any) Event {
	event := Event{
		Version:      EventSchemaVersion,
		EventID:      uuid.NewString(),
		Type:         eventType,
		Time:         time.Now().UTC(),
		RunID:        runID,
		DefinitionID: definitionID,
		OverlayID:    overlayID,
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			event.Payload = data
		}
	}
	return event
}

// Normalize applies defaults and canonical formatting before validation.
func (e *Event) Normalize() {
	if e == nil {
		return
	}
	if e.Version == 0 {
		e.Version = EventSchemaVersion
	}
	e.EventID = strings.TrimSpace(e.EventID)
	e.Type = strings.TrimSpace(e.Type)
	e.RunID = strings.TrimSpace(e.RunID)
	e.DefinitionID = strings.TrimSpace(e.DefinitionID)
	e.OverlayID = strings.TrimSpace(e.OverlayID)
}

// Stamp overwrites Time with the supplied clock reading (UTC).
func (e *Event) Stamp(now time.Time) {
	if e == nil {
		return
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	e.Time = now.UTC()
}

// Validate enforces baseline schema requirements for events.
func (e Event) Validate() error {
	if e.Version != EventSchemaVersion {
		return fmt.Errorf("version %d not supported", e.Version)
	}
	if e.EventID == "" {
		return errors.New("event_id is required")
	}
	if e.Type == "" {
		return errors.New("type is required")
	}
	switch e.Type {
	case TypeOverlayApplied, TypeOverlaySkipped, TypeOverlayFailed:
		if e.DefinitionID == "" {
			return errors.New("definition_id is required for overlay events")
		}
		if e.OverlayID == "" {
			return errors.New("overlay_id is required for overlay events")
		}
	case TypeDefinitionRegistered:
		if e.DefinitionID == "" {
			return errors.New("definition_id is required")
		}
	}
	return nil
}

// EventSink consumes validated events.
type EventSink interface {
	HandleEvent(Event) error
}

// EventSinkFunc adapts a function into an EventSink.
type EventSinkFunc func(Event) error

// HandleEvent executes f(e).
func (f EventSinkFunc) HandleEvent(e Event) error {
	if f == nil {
		return nil
	}
	return f(e)
}

// Logger records notification status information. It matches logging.Logger's
// signature.
type Logger interface {
	Printf(format string, args ...any)
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Definitions   int    `json:"definitions"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
