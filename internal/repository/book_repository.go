package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/holosched/backend/internal/database"
	"github.com/holosched/backend/internal/models"
)

type BookRepository struct {
	db *database.DB
}

func NewBookRepository(db *database.DB) *BookRepository {
	return &BookRepository{db: db}
}

// Search finds books whose title or description matches the query.
// An empty query returns the whole catalog.
func (r *BookRepository) Search(query string) ([]models.Book, error) {
	sqlQuery := `
		SELECT id, title, author, description, isbn, copies_available, total_copies, created_at
		FROM books
		WHERE $1 = '' OR title ILIKE $2 OR description ILIKE $2
		ORDER BY title ASC
	`
	rows, err := r.db.Query(sqlQuery, query, "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	defer rows.Close()

	var out []models.Book
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.ISBN, &b.CopiesAvailable, &b.TotalCopies, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		b.Available = b.CopiesAvailable > 0
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetByID retrieves a book with its categories
func (r *BookRepository) GetByID(id uuid.UUID) (*models.Book, error) {
	query := `
		SELECT id, title, author, description, isbn, copies_available, total_copies, created_at
		FROM books WHERE id = $1
	`
	b := &models.Book{}
	err := r.db.QueryRow(query, id).Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.ISBN, &b.CopiesAvailable, &b.TotalCopies, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	b.Available = b.CopiesAvailable > 0

	catRows, err := r.db.Query(`
		SELECT c.id, c.name
		FROM book_categories c
		JOIN book_category_links l ON l.category_id = c.id
		WHERE l.book_id = $1
		ORDER BY c.name ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get book categories: %w", err)
	}
	defer catRows.Close()

	for catRows.Next() {
		var c models.Category
		if err := catRows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		b.Categories = append(b.Categories, c)
	}
	return b, catRows.Err()
}

// ListCategories returns all categories
func (r *BookRepository) ListCategories() ([]models.Category, error) {
	rows, err := r.db.Query(`SELECT id, name FROM book_categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListByCategory returns the books in one category
func (r *BookRepository) ListByCategory(categoryID uuid.UUID) ([]models.Book, error) {
	query := `
		SELECT b.id, b.title, b.author, b.description, b.isbn, b.copies_available, b.total_copies, b.created_at
		FROM books b
		JOIN book_category_links l ON l.book_id = b.id
		WHERE l.category_id = $1
		ORDER BY b.title ASC
	`
	rows, err := r.db.Query(query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list books by category: %w", err)
	}
	defer rows.Close()

	var out []models.Book
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.ISBN, &b.CopiesAvailable, &b.TotalCopies, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		b.Available = b.CopiesAvailable > 0
		out = append(out, b)
	}
	return out, rows.Err()
}
