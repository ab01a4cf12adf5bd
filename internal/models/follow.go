package models

import (
	"time"

	"github.com/google/uuid"
)

// Follow is an asymmetric viewer -> streamer edge, used purely for
// read-time schedule aggregation.
type Follow struct {
	ViewerID   uuid.UUID `json:"viewer_id" db:"viewer_id"`
	StreamerID uuid.UUID `json:"streamer_id" db:"streamer_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type FollowRequest struct {
	StreamerID uuid.UUID `json:"streamer_id" binding:"required"`
}

// StreamerSummary is what streamer search returns.
type StreamerSummary struct {
	ID          uuid.UUID `json:"id" db:"id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Role        string    `json:"role" db:"role"`
}
