package database

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Up      string
	Down    string
}

// Migrations contains all database migrations
var Migrations = []Migration{
	{
		Version: 1,
		Up: `
			CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

			CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				email VARCHAR(255) UNIQUE NOT NULL,
				display_name VARCHAR(255) NOT NULL,
				role VARCHAR(50) NOT NULL DEFAULT 'viewer' CHECK (role IN ('viewer', 'streamer')),
				timezone VARCHAR(100) NOT NULL DEFAULT 'UTC',
				password_hash VARCHAR(255) NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
		`,
		Down: `
			DROP TABLE IF EXISTS users;
		`,
	},
	{
		Version: 2,
		Up: `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INT PRIMARY KEY,
				applied_at TIMESTAMP NOT NULL DEFAULT NOW()
			);
		`,
		Down: `
			DROP TABLE IF EXISTS schema_migrations;
		`,
	},
	{
		Version: 3,
		Up: `
			CREATE TABLE IF NOT EXISTS streams (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				streamer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				title VARCHAR(255) NOT NULL,
				description TEXT,
				platform VARCHAR(50) NOT NULL,
				url TEXT NOT NULL DEFAULT '',
				start_time_utc TIMESTAMP NOT NULL,
				end_time_utc TIMESTAMP,
				category VARCHAR(255),
				created_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_streams_owner ON streams(streamer_id);
			CREATE INDEX IF NOT EXISTS idx_streams_owner_window ON streams(streamer_id, start_time_utc, end_time_utc);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_streams_owner_url ON streams(streamer_id, url) WHERE url <> '';
		`,
		Down: `
			DROP TABLE IF EXISTS streams;
		`,
	},
	{
		Version: 4,
		Up: `
			CREATE TABLE IF NOT EXISTS follows (
				viewer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				streamer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				PRIMARY KEY (viewer_id, streamer_id)
			);

			CREATE INDEX IF NOT EXISTS idx_follows_streamer ON follows(streamer_id);
		`,
		Down: `
			DROP TABLE IF EXISTS follows;
		`,
	},
	{
		Version: 5,
		Up: `
			CREATE TABLE IF NOT EXISTS book_categories (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				name VARCHAR(255) UNIQUE NOT NULL
			);

			CREATE TABLE IF NOT EXISTS books (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				title VARCHAR(255) NOT NULL,
				author VARCHAR(255) NOT NULL,
				description TEXT,
				isbn VARCHAR(20) UNIQUE,
				copies_available INT NOT NULL DEFAULT 0 CHECK (copies_available >= 0),
				total_copies INT NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS book_category_links (
				book_id UUID NOT NULL REFERENCES books(id) ON DELETE CASCADE,
				category_id UUID NOT NULL REFERENCES book_categories(id) ON DELETE CASCADE,
				PRIMARY KEY (book_id, category_id)
			);

			CREATE INDEX IF NOT EXISTS idx_books_title ON books(title);
		`,
		Down: `
			DROP TABLE IF EXISTS book_category_links;
			DROP TABLE IF EXISTS books;
			DROP TABLE IF EXISTS book_categories;
		`,
	},
	{
		Version: 6,
		Up: `
			CREATE TABLE IF NOT EXISTS loans (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				book_id UUID NOT NULL REFERENCES books(id) ON DELETE CASCADE,
				loan_date DATE NOT NULL,
				due_date DATE NOT NULL,
				return_date DATE,
				status VARCHAR(20) NOT NULL DEFAULT 'BORROWED' CHECK (status IN ('BORROWED', 'RETURNED')),
				created_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_loans_user ON loans(user_id);
			CREATE INDEX IF NOT EXISTS idx_loans_book_status ON loans(book_id, status);
		`,
		Down: `
			DROP TABLE IF EXISTS loans;
		`,
	},
	{
		Version: 7,
		Up: `
			INSERT INTO book_categories (id, name) VALUES
				('a1111111-1111-1111-1111-111111111111', 'Dystopian'),
				('a2222222-2222-2222-2222-222222222222', 'Science Fiction'),
				('a3333333-3333-3333-3333-333333333333', 'Fantasy')
			ON CONFLICT (name) DO NOTHING;

			INSERT INTO books (id, title, author, description, isbn, copies_available, total_copies) VALUES
				('b1111111-1111-1111-1111-111111111111', '1984', 'George Orwell', 'A dystopian novel about a totalitarian regime that controls every aspect of life.', '9780451524935', 3, 3),
				('b2222222-2222-2222-2222-222222222222', 'Brave New World', 'Aldous Huxley', 'A science fiction classic about a future society built on genetic engineering and conditioning.', '9780060850524', 1, 1),
				('b3333333-3333-3333-3333-333333333333', 'The Hobbit', 'J.R.R. Tolkien', 'A fantasy adventure following Bilbo Baggins on a journey to reclaim a lost dwarf kingdom.', '9780547928227', 2, 2)
			ON CONFLICT (isbn) DO NOTHING;

			INSERT INTO book_category_links (book_id, category_id) VALUES
				('b1111111-1111-1111-1111-111111111111', 'a1111111-1111-1111-1111-111111111111'),
				('b1111111-1111-1111-1111-111111111111', 'a2222222-2222-2222-2222-222222222222'),
				('b2222222-2222-2222-2222-222222222222', 'a1111111-1111-1111-1111-111111111111'),
				('b3333333-3333-3333-3333-333333333333', 'a3333333-3333-3333-3333-333333333333')
			ON CONFLICT DO NOTHING;
		`,
		Down: `
			DELETE FROM book_category_links;
			DELETE FROM books;
			DELETE FROM book_categories;
		`,
	},
}

// RunMigrations runs all pending migrations
func RunMigrations(db *sql.DB) error {
	// Ensure migrations table exists
	if err := ensureMigrationsTable(db); err != nil {
		return err
	}

	// Get current version
	currentVersion, err := getCurrentVersion(db)
	if err != nil {
		return err
	}

	// Run pending migrations in ascending order by version
	sorted := make([]Migration, len(Migrations))
	copy(sorted, Migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	// Run pending migrations
	for _, migration := range sorted {
		if migration.Version <= currentVersion {
			continue
		}

		fmt.Printf("Running migration %d...\n", migration.Version)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if _, err := tx.Exec(migration.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to run migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES ($1)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		fmt.Printf("Migration %d completed\n", migration.Version)
	}

	return nil
}

// RollbackLast reverts the most recently applied migration
func RollbackLast(db *sql.DB) error {
	if err := ensureMigrationsTable(db); err != nil {
		return err
	}

	currentVersion, err := getCurrentVersion(db)
	if err != nil {
		return err
	}
	if currentVersion == 0 {
		return fmt.Errorf("no migrations to roll back")
	}

	var target *Migration
	for i := range Migrations {
		if Migrations[i].Version == currentVersion {
			target = &Migrations[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("no migration found for version %d", currentVersion)
	}

	fmt.Printf("Rolling back migration %d...\n", target.Version)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(target.Down); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to roll back migration %d: %w", target.Version, err)
	}

	if _, err := tx.Exec("DELETE FROM schema_migrations WHERE version = $1", target.Version); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to unrecord migration %d: %w", target.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rollback %d: %w", target.Version, err)
	}

	fmt.Printf("Migration %d rolled back\n", target.Version)
	return nil
}

func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func getCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}
