package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/holosched/backend/internal/database"
	"github.com/holosched/backend/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (id, email, display_name, role, timezone, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.Role,
		user.Timezone,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if isUniqueViolation(err) {
		return fmt.Errorf("email %s: %w", user.Email, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, email, display_name, role, timezone, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	user := &models.User{}
	err := r.db.QueryRow(query, id).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.Role,
		&user.Timezone,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `
		SELECT id, email, display_name, role, timezone, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	user := &models.User{}
	err := r.db.QueryRow(query, email).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.Role,
		&user.Timezone,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetStreamer retrieves a user by ID, restricted to the streamer role.
// Used when creating follow edges.
func (r *UserRepository) GetStreamer(id uuid.UUID) (*models.User, error) {
	user, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleStreamer {
		return nil, fmt.Errorf("streamer %s: %w", id, ErrNotFound)
	}
	return user, nil
}

// SearchStreamers finds streamers by display name fragment
func (r *UserRepository) SearchStreamers(query string, limit int) ([]models.StreamerSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	sqlQuery := `
		SELECT id, display_name, role
		FROM users
		WHERE role = 'streamer' AND display_name ILIKE $1
		ORDER BY display_name ASC
		LIMIT $2
	`

	rows, err := r.db.Query(sqlQuery, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search streamers: %w", err)
	}
	defer rows.Close()

	var out []models.StreamerSummary
	for rows.Next() {
		var s models.StreamerSummary
		if err := rows.Scan(&s.ID, &s.DisplayName, &s.Role); err != nil {
			return nil, fmt.Errorf("failed to scan streamer: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}
