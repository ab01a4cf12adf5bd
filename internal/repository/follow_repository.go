package repository

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/holosched/backend/internal/database"
	"github.com/holosched/backend/internal/models"
)

type FollowRepository struct {
	db *database.DB
}

func NewFollowRepository(db *database.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

// Create adds a follow edge; following twice is a no-op
func (r *FollowRepository) Create(viewerID, streamerID uuid.UUID) error {
	query := `
		INSERT INTO follows (viewer_id, streamer_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (viewer_id, streamer_id) DO NOTHING
	`
	if _, err := r.db.Exec(query, viewerID, streamerID); err != nil {
		return fmt.Errorf("failed to create follow: %w", err)
	}
	return nil
}

// Delete removes a follow edge
func (r *FollowRepository) Delete(viewerID, streamerID uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM follows WHERE viewer_id = $1 AND streamer_id = $2`, viewerID, streamerID)
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("follow %s -> %s: %w", viewerID, streamerID, ErrNotFound)
	}
	return nil
}

// ListFollowed returns the streamers a viewer follows
func (r *FollowRepository) ListFollowed(viewerID uuid.UUID) ([]models.StreamerSummary, error) {
	query := `
		SELECT u.id, u.display_name, u.role
		FROM follows f
		JOIN users u ON u.id = f.streamer_id
		WHERE f.viewer_id = $1
		ORDER BY u.display_name ASC
	`
	rows, err := r.db.Query(query, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list follows: %w", err)
	}
	defer rows.Close()

	var out []models.StreamerSummary
	for rows.Next() {
		var s models.StreamerSummary
		if err := rows.Scan(&s.ID, &s.DisplayName, &s.Role); err != nil {
			return nil, fmt.Errorf("failed to scan follow: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
