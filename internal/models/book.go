package models

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Author          string     `json:"author" db:"author"`
	Description     *string    `json:"description,omitempty" db:"description"`
	ISBN            *string    `json:"isbn,omitempty" db:"isbn"`
	CopiesAvailable int        `json:"copies_available" db:"copies_available"`
	TotalCopies     int        `json:"total_copies" db:"total_copies"`
	Available       bool       `json:"available" db:"-"`
	Categories      []Category `json:"categories,omitempty" db:"-"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

type Category struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
}
