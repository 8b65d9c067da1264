package book

import (
	"context"

	"libraryapi/internal/entity"
)

// Query filters a catalog listing.
type Query struct {
	Q             string // matches title, author, isbn, publisher
	Genre         string
	Author        string
	AvailableOnly bool
	Sort          string // title, created_at, available
	Desc          bool
	Limit         int
	Offset        int
}

type Repository interface {
	Create(ctx context.Context, b *entity.Book) error
	Update(ctx context.Context, b entity.Book) (entity.Book, error)
	GetBook(ctx context.Context, id string) (entity.Book, error)
	GetByISBN(ctx context.Context, isbn string) (entity.Book, error)
	List(ctx context.Context, q Query) ([]entity.Book, int, error)
}
