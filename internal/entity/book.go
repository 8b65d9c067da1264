package entity

import "time"

// Book carries catalog metadata plus two derived counters. AvailableCopies
// always equals the count of this book's copies in AVAILABLE state; both
// counters are mutated only through inventory operations, never directly.
type Book struct {
	ID              string    `json:"id"`
	ISBN            string    `json:"isbn"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Genre           string    `json:"genre"`
	Publisher       string    `json:"publisher"`
	Description     string    `json:"description,omitempty"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
