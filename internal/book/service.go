// Package book is the catalog: title-level metadata. Physical copies and
// their availability counters belong to the inventory package.
package book

import (
	"context"

	"libraryapi/internal/entity"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a title with zero copies; stock arrives through the
// inventory's add-copies operation.
func (s *Service) Create(ctx context.Context, b entity.Book) (entity.Book, error) {
	if b.Title == "" {
		return entity.Book{}, entity.NewValidation("title is required")
	}
	if b.ISBN != "" {
		if _, err := s.repo.GetByISBN(ctx, b.ISBN); err == nil {
			return entity.Book{}, entity.NewValidation("isbn already in catalog")
		}
	}
	b.TotalCopies = 0
	b.AvailableCopies = 0
	if err := s.repo.Create(ctx, &b); err != nil {
		return entity.Book{}, err
	}
	return b, nil
}

// Update changes metadata only; the copy counters are owned by inventory and
// ignored here.
func (s *Service) Update(ctx context.Context, b entity.Book) (entity.Book, error) {
	if b.Title == "" {
		return entity.Book{}, entity.NewValidation("title is required")
	}
	return s.repo.Update(ctx, b)
}

func (s *Service) GetBook(ctx context.Context, id string) (entity.Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *Service) GetByISBN(ctx context.Context, isbn string) (entity.Book, error) {
	return s.repo.GetByISBN(ctx, isbn)
}

func (s *Service) List(ctx context.Context, q Query) ([]entity.Book, int, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return s.repo.List(ctx, q)
}
