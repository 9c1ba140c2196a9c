package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/errs"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/model"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/repository"
)

// Borrowings drives the Open -> Returned lifecycle. Both transitions change
// the book row and the borrowing row through the same Store, so availability
// and "has an open borrowing" commit together.
type Borrowings struct {
	log *zap.Logger
	now Clock
}

func NewBorrowings(log *zap.Logger, opts ...Option) *Borrowings {
	o := newOptions(opts)
	return &Borrowings{
		log: log.Named("borrowings"),
		now: o.clock,
	}
}

// Borrow returns nil without error when the book is not available, either
// already known from book or lost to a concurrent borrow. A nil result may
// leave the availability flip in st, so the caller must roll back.
func (s *Borrowings) Borrow(ctx context.Context, st repository.Store, book model.Book, memberID int64) (*model.Borrowing, error) {
	if !book.Available {
		return nil, nil
	}
	now := s.now()
	flipped, err := st.MarkBookBorrowed(ctx, book.ID, now)
	if err != nil {
		return nil, err
	}
	if !flipped {
		s.log.Debug("book taken concurrently", zap.Int64("book_id", book.ID))
		return nil, nil
	}
	borrowing, err := st.InsertBorrowing(ctx, model.Borrowing{
		BookID:     book.ID,
		MemberID:   memberID,
		BorrowedAt: now,
	})
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			// an open borrowing already holds the book; the flip above is
			// discarded by the caller's rollback
			s.log.Warn("open borrowing exists for available book", zap.Int64("book_id", book.ID))
			return nil, nil
		}
		s.log.Error("failed to create borrowing record", zap.Int64("book_id", book.ID), zap.Error(err))
		return nil, err
	}
	s.log.Info("book borrowed", zap.Int64("book_id", book.ID), zap.Int64("borrowing_id", borrowing.ID))
	return &borrowing, nil
}

func (s *Borrowings) Get(ctx context.Context, st repository.Store, id int64) (model.Borrowing, bool, error) {
	return s.get(ctx, st, id, false)
}

func (s *Borrowings) GetForUpdate(ctx context.Context, st repository.Store, id int64) (model.Borrowing, bool, error) {
	return s.get(ctx, st, id, true)
}

func (s *Borrowings) get(ctx context.Context, st repository.Store, id int64, lock bool) (model.Borrowing, bool, error) {
	b, err := st.SelectBorrowing(ctx, id, lock)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Borrowing{}, false, nil
	}
	if err != nil {
		return model.Borrowing{}, false, err
	}
	return b, true, nil
}

// ListOpen returns unreturned borrowings ordered by id, with the borrow date
// projected as YYYY-MM-DD.
func (s *Borrowings) ListOpen(ctx context.Context, st repository.Store) ([]model.BorrowedBook, error) {
	items, err := st.SelectOpenBorrowings(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].BorrowedDate = items[i].BorrowedAt.UTC().Format(model.BorrowedDateLayout)
	}
	return items, nil
}

func (s *Borrowings) History(ctx context.Context, st repository.Store, memberID int64) ([]model.Borrowing, error) {
	return st.SelectMemberBorrowings(ctx, memberID)
}

func (s *Borrowings) HasOpen(ctx context.Context, st repository.Store, memberID int64) (bool, error) {
	return st.HasOpenBorrowing(ctx, memberID)
}

// Return closes the borrowing at returnTime (now when zero) and makes the
// book available again. Times before borrowed_at are clamped to it. A second
// return yields errs.ErrAlreadyReturned.
func (s *Borrowings) Return(ctx context.Context, st repository.Store, b model.Borrowing, returnTime time.Time) (model.Borrowing, error) {
	at := returnTime
	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()
	if at.Before(b.BorrowedAt) {
		at = b.BorrowedAt.UTC()
	}
	if err := st.CloseBorrowing(ctx, b.ID, at); err != nil {
		return model.Borrowing{}, err
	}
	if err := st.MarkBookAvailable(ctx, b.BookID, at); err != nil {
		return model.Borrowing{}, errors.Wrapf(err, "book %d", b.BookID)
	}
	b.ReturnedAt = &at
	s.log.Info("book returned", zap.Int64("book_id", b.BookID), zap.Int64("borrowing_id", b.ID))
	return b, nil
}
