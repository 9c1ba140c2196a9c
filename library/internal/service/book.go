package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/errs"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/model"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/repository"
)

type Books struct {
	log *zap.Logger
	now Clock
}

func NewBooks(log *zap.Logger, opts ...Option) *Books {
	o := newOptions(opts)
	return &Books{
		log: log.Named("books"),
		now: o.clock,
	}
}

// Create stores a new available book. A duplicate (title, author) pair
// yields errs.ErrConflict.
func (s *Books) Create(ctx context.Context, st repository.Store, title, author string) (model.Book, error) {
	now := s.now()
	book, err := st.InsertBook(ctx, model.Book{
		Title:     strings.TrimSpace(title),
		Author:    strings.TrimSpace(author),
		Available: true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.log.Warn("create book", zap.String("title", title), zap.Error(err))
		return model.Book{}, err
	}
	s.log.Info("created book", zap.Int64("book_id", book.ID), zap.String("title", book.Title))
	return book, nil
}

func (s *Books) List(ctx context.Context, st repository.Store, onlyAvailable bool) ([]model.Book, error) {
	return st.SelectBooks(ctx, onlyAvailable)
}

// Get reports absence through found, not through the error.
func (s *Books) Get(ctx context.Context, st repository.Store, id int64) (book model.Book, found bool, err error) {
	return s.get(ctx, st, id, false)
}

// GetForUpdate is Get holding the row until the transaction ends.
func (s *Books) GetForUpdate(ctx context.Context, st repository.Store, id int64) (book model.Book, found bool, err error) {
	return s.get(ctx, st, id, true)
}

func (s *Books) get(ctx context.Context, st repository.Store, id int64, lock bool) (model.Book, bool, error) {
	book, err := st.SelectBook(ctx, id, lock)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Book{}, false, nil
	}
	if err != nil {
		return model.Book{}, false, err
	}
	return book, true, nil
}

// Update keeps availability and created_at.
func (s *Books) Update(ctx context.Context, st repository.Store, book model.Book, title, author string) (model.Book, error) {
	book.Title = strings.TrimSpace(title)
	book.Author = strings.TrimSpace(author)
	book.UpdatedAt = s.now()
	return st.UpdateBook(ctx, book)
}

// Delete removes the row; callers check availability first.
func (s *Books) Delete(ctx context.Context, st repository.Store, book model.Book) error {
	if err := st.DeleteBook(ctx, book.ID); err != nil {
		return err
	}
	s.log.Info("deleted book", zap.Int64("book_id", book.ID))
	return nil
}
