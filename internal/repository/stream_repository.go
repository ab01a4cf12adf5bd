package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/holosched/backend/internal/database"
	"github.com/holosched/backend/internal/models"
	"github.com/holosched/backend/internal/schedule"
)

type StreamRepository struct {
	db *database.DB
}

func NewStreamRepository(db *database.DB) *StreamRepository {
	return &StreamRepository{db: db}
}

// CreateGuarded inserts a stream after running the dedup and overlap guards,
// the SQL rendering of schedule.CheckCandidate. The checks and the insert
// share one transaction so a concurrent add for the same owner cannot slip
// between check and act.
func (r *StreamRepository) CreateGuarded(s *models.Stream) error {
	if err := schedule.ValidateInterval(s.StartTime, s.EndTime); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if s.URL != "" {
		var exists bool
		err = tx.QueryRow(
			`SELECT EXISTS (SELECT 1 FROM streams WHERE streamer_id = $1 AND url = $2)`,
			s.StreamerID, s.URL,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to run dedup check: %w", err)
		}
		if exists {
			return schedule.ErrDuplicateURL
		}
	}

	// Only bounded candidates are subject to the overlap guard, and only
	// bounded rows count against them (half-open intervals, touching
	// boundaries allowed).
	if s.EndTime != nil {
		var overlaps int
		err = tx.QueryRow(
			`SELECT COUNT(*) FROM streams
			 WHERE streamer_id = $1
			   AND end_time_utc IS NOT NULL
			   AND NOT (end_time_utc <= $2 OR start_time_utc >= $3)`,
			s.StreamerID, s.StartTime, *s.EndTime,
		).Scan(&overlaps)
		if err != nil {
			return fmt.Errorf("failed to run overlap check: %w", err)
		}
		if overlaps > 0 {
			return schedule.ErrOverlap
		}
	}

	err = tx.QueryRow(
		`INSERT INTO streams (id, streamer_id, title, description, platform, url, start_time_utc, end_time_utc, category, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		s.ID,
		s.StreamerID,
		s.Title,
		s.Description,
		s.Platform,
		s.URL,
		s.StartTime,
		s.EndTime,
		s.Category,
		s.CreatedAt,
	).Scan(&s.ID, &s.CreatedAt)
	if isUniqueViolation(err) {
		// The partial unique index on (streamer_id, url) backstops the
		// dedup check against concurrent imports.
		return schedule.ErrDuplicateURL
	}
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stream: %w", err)
	}
	return nil
}

// ListByOwner returns all of an owner's entries, soonest first
func (r *StreamRepository) ListByOwner(ownerID uuid.UUID) ([]models.Stream, error) {
	query := `
		SELECT id, streamer_id, title, description, platform, url, start_time_utc, end_time_utc, category, created_at
		FROM streams WHERE streamer_id = $1 ORDER BY start_time_utc ASC
	`
	rows, err := r.db.Query(query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list streams: %w", err)
	}
	defer rows.Close()
	return scanStreams(rows)
}

// ListUpcomingByOwner returns the owner's entries that have not yet ended.
// Open-ended entries count as upcoming while their start date is not past.
func (r *StreamRepository) ListUpcomingByOwner(ownerID uuid.UUID, now time.Time) ([]models.Stream, error) {
	startOfDay := now.UTC().Truncate(24 * time.Hour)
	query := `
		SELECT id, streamer_id, title, description, platform, url, start_time_utc, end_time_utc, category, created_at
		FROM streams
		WHERE streamer_id = $1
		  AND (
			(end_time_utc IS NOT NULL AND end_time_utc >= $2)
			OR (end_time_utc IS NULL AND start_time_utc >= $3)
		  )
		ORDER BY start_time_utc ASC
	`
	rows, err := r.db.Query(query, ownerID, now.UTC(), startOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming streams: %w", err)
	}
	defer rows.Close()
	return scanStreams(rows)
}

// ListUpcomingFollowed returns not-yet-ended entries of every streamer the
// viewer follows, with the streamer's display name attached.
func (r *StreamRepository) ListUpcomingFollowed(viewerID uuid.UUID, now time.Time) ([]models.Stream, error) {
	startOfDay := now.UTC().Truncate(24 * time.Hour)
	query := `
		SELECT s.id, s.streamer_id, s.title, s.description, s.platform, s.url,
		       s.start_time_utc, s.end_time_utc, s.category, s.created_at,
		       u.display_name
		FROM streams s
		JOIN follows f ON f.streamer_id = s.streamer_id
		JOIN users u ON u.id = s.streamer_id
		WHERE f.viewer_id = $1
		  AND (
			(s.end_time_utc IS NOT NULL AND s.end_time_utc >= $2)
			OR (s.end_time_utc IS NULL AND s.start_time_utc >= $3)
		  )
		ORDER BY s.start_time_utc ASC
	`
	rows, err := r.db.Query(query, viewerID, now.UTC(), startOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to list followed streams: %w", err)
	}
	defer rows.Close()

	var out []models.Stream
	for rows.Next() {
		var s models.Stream
		var streamerName string
		if err := rows.Scan(&s.ID, &s.StreamerID, &s.Title, &s.Description, &s.Platform, &s.URL, &s.StartTime, &s.EndTime, &s.Category, &s.CreatedAt, &streamerName); err != nil {
			return nil, fmt.Errorf("failed to scan stream: %w", err)
		}
		s.StreamerName = &streamerName
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteOwned removes an entry if and only if the caller owns it
func (r *StreamRepository) DeleteOwned(id, ownerID uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM streams WHERE id = $1 AND streamer_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete stream: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete stream: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("stream %s: %w", id, ErrNotFound)
	}
	return nil
}

type streamRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanStreams(rows streamRows) ([]models.Stream, error) {
	var out []models.Stream
	for rows.Next() {
		var s models.Stream
		if err := rows.Scan(&s.ID, &s.StreamerID, &s.Title, &s.Description, &s.Platform, &s.URL, &s.StartTime, &s.EndTime, &s.Category, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stream: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
