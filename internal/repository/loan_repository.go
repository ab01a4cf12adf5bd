package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/holosched/backend/internal/database"
	"github.com/holosched/backend/internal/models"
)

var (
	// ErrNoCopies means every copy of the book is currently on loan.
	ErrNoCopies = errors.New("no copies available")
	// ErrNoActiveLoan means the user has no outstanding loan for the book.
	ErrNoActiveLoan = errors.New("no active loan for this user and book")
)

type LoanRepository struct {
	db *database.DB
}

func NewLoanRepository(db *database.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

// Borrow creates a loan and decrements the book's available copies in one
// transaction. The book row is locked so concurrent borrows cannot take the
// last copy twice.
func (r *LoanRepository) Borrow(userID, bookID uuid.UUID) (*models.Loan, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var copies int
	err = tx.QueryRow(`SELECT copies_available FROM books WHERE id = $1 FOR UPDATE`, bookID).Scan(&copies)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("book %s: %w", bookID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock book: %w", err)
	}
	if copies <= 0 {
		return nil, ErrNoCopies
	}

	if _, err := tx.Exec(`UPDATE books SET copies_available = copies_available - 1 WHERE id = $1`, bookID); err != nil {
		return nil, fmt.Errorf("failed to decrement copies: %w", err)
	}

	now := time.Now().UTC()
	loan := &models.Loan{
		ID:       uuid.New(),
		UserID:   userID,
		BookID:   bookID,
		LoanDate: now,
		DueDate:  now.Add(models.LoanPeriod),
		Status:   models.LoanStatusBorrowed,
	}

	err = tx.QueryRow(
		`INSERT INTO loans (id, user_id, book_id, loan_date, due_date, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		loan.ID, loan.UserID, loan.BookID, loan.LoanDate, loan.DueDate, loan.Status, now,
	).Scan(&loan.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit loan: %w", err)
	}
	return loan, nil
}

// Return closes the user's active loan for the book and restores the copy
func (r *LoanRepository) Return(userID, bookID uuid.UUID) (*models.Loan, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	loan := &models.Loan{}
	err = tx.QueryRow(
		`SELECT id, user_id, book_id, loan_date, due_date, status, created_at
		 FROM loans
		 WHERE user_id = $1 AND book_id = $2 AND status = $3
		 ORDER BY loan_date ASC
		 LIMIT 1
		 FOR UPDATE`,
		userID, bookID, models.LoanStatusBorrowed,
	).Scan(&loan.ID, &loan.UserID, &loan.BookID, &loan.LoanDate, &loan.DueDate, &loan.Status, &loan.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoActiveLoan
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active loan: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(
		`UPDATE loans SET status = $1, return_date = $2 WHERE id = $3`,
		models.LoanStatusReturned, now, loan.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to close loan: %w", err)
	}

	if _, err := tx.Exec(`UPDATE books SET copies_available = copies_available + 1 WHERE id = $1`, bookID); err != nil {
		return nil, fmt.Errorf("failed to restore copies: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit return: %w", err)
	}

	loan.Status = models.LoanStatusReturned
	loan.ReturnDate = &now
	return loan, nil
}

// ListByUser returns all loans for a user, newest first
func (r *LoanRepository) ListByUser(userID uuid.UUID) ([]models.Loan, error) {
	query := `
		SELECT id, user_id, book_id, loan_date, due_date, return_date, status, created_at
		FROM loans WHERE user_id = $1 ORDER BY loan_date DESC
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var out []models.Loan
	for rows.Next() {
		var l models.Loan
		if err := rows.Scan(&l.ID, &l.UserID, &l.BookID, &l.LoanDate, &l.DueDate, &l.ReturnDate, &l.Status, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
