package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/holosched/backend/internal/models"
	"github.com/holosched/backend/internal/repository"
)

type LibraryHandler struct {
	bookRepo *repository.BookRepository
	loanRepo *repository.LoanRepository
}

func NewLibraryHandler(bookRepo *repository.BookRepository, loanRepo *repository.LoanRepository) *LibraryHandler {
	return &LibraryHandler{bookRepo: bookRepo, loanRepo: loanRepo}
}

// SearchBooks lists books matching ?query=, or the whole catalog
func (h *LibraryHandler) SearchBooks(c *gin.Context) {
	books, err := h.bookRepo.Search(c.Query("query"))
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to search books")
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	c.JSON(http.StatusOK, gin.H{"books": books})
}

// GetBook returns one book with its categories
func (h *LibraryHandler) GetBook(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusUnprocessableEntity, "invalid book id")
		return
	}

	book, err := h.bookRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorResponse(c, http.StatusNotFound, "Book not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// ListCategories returns all book categories
func (h *LibraryHandler) ListCategories(c *gin.Context) {
	categories, err := h.bookRepo.ListCategories()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to list categories")
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// ListBooksByCategory returns the books in one category
func (h *LibraryHandler) ListBooksByCategory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusUnprocessableEntity, "invalid category id")
		return
	}

	books, err := h.bookRepo.ListByCategory(id)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to list books")
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	c.JSON(http.StatusOK, gin.H{"books": books})
}

// BorrowBook creates a loan for the caller
func (h *LibraryHandler) BorrowBook(c *gin.Context) {
	var req models.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	loan, err := h.loanRepo.Borrow(uid, req.BookID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			ErrorResponse(c, http.StatusNotFound, "Book not found")
		case errors.Is(err, repository.ErrNoCopies):
			ErrorResponse(c, http.StatusConflict, "No copies available")
		default:
			ErrorResponse(c, http.StatusInternalServerError, "Failed to borrow book")
		}
		return
	}
	c.JSON(http.StatusCreated, loan)
}

// ReturnBook closes the caller's active loan for a book
func (h *LibraryHandler) ReturnBook(c *gin.Context) {
	var req models.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	loan, err := h.loanRepo.Return(uid, req.BookID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNoActiveLoan):
			ErrorResponse(c, http.StatusConflict, "No active loan for this book")
		default:
			ErrorResponse(c, http.StatusInternalServerError, "Failed to return book")
		}
		return
	}
	c.JSON(http.StatusOK, loan)
}

// ListLoans returns all of the caller's loans
func (h *LibraryHandler) ListLoans(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	loans, err := h.loanRepo.ListByUser(uid)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to list loans")
		return
	}
	if loans == nil {
		loans = []models.Loan{}
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans})
}
