package models

import (
	"time"

	"github.com/google/uuid"
)

// Stream is one scheduled or already-aired broadcast in a user's personal
// schedule. Rows are immutable after creation except for deletion.
type Stream struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	StreamerID  uuid.UUID  `json:"streamer_id" db:"streamer_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	Platform    string     `json:"platform" db:"platform"`
	URL         string     `json:"url" db:"url"`
	StartTime   time.Time  `json:"start_time_utc" db:"start_time_utc"`
	EndTime     *time.Time `json:"end_time_utc,omitempty" db:"end_time_utc"`
	Category    *string    `json:"category,omitempty" db:"category"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	// StreamerName is populated on aggregated schedule reads only.
	StreamerName *string `json:"streamer_name,omitempty" db:"-"`
}

// Bounded reports whether the stream has a concrete end time. Only bounded
// streams participate in the overlap guard.
func (s *Stream) Bounded() bool {
	return s.EndTime != nil
}

type CreateStreamRequest struct {
	Title       string  `json:"title" binding:"required"`
	Platform    string  `json:"platform" binding:"required"`
	URL         string  `json:"url" binding:"required"`
	StartTime   string  `json:"start_time" binding:"required"`
	EndTime     string  `json:"end_time" binding:"required"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
}

type AddYouTubeStreamRequest struct {
	URL string `json:"url" binding:"required"`
}

type ImportChannelRequest struct {
	ChannelID string `json:"channel_id" binding:"required"`
}

type ImportResult struct {
	ImportedCount int `json:"imported_count"`
}
