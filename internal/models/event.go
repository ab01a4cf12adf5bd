package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventStreamAdded   = "stream_added"
	EventStreamRemoved = "stream_removed"
)

// ScheduleEvent is pushed to connected clients when an owner's schedule
// changes.
type ScheduleEvent struct {
	Type       string    `json:"type"`
	StreamerID uuid.UUID `json:"streamer_id"`
	StreamID   uuid.UUID `json:"stream_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
