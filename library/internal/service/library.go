package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/errs"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/events"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/model"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/repository"
	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/validate"
)

const (
	opBorrow = "borrow"
	opReturn = "return"

	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

// Library is the request facade. Each call validates its input, runs in one
// transaction and returns either a result or an *errs.Error.
type Library struct {
	log        *zap.Logger
	repo       repository.Repository
	books      *Books
	members    *Members
	borrowings *Borrowings
	publisher  events.Publisher
	metrics    LendingRecorder
}

func NewLibrary(repo repository.Repository, publisher events.Publisher, log *zap.Logger, opts ...Option) *Library {
	o := newOptions(opts)
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Library{
		log:        log.Named("library"),
		repo:       repo,
		books:      NewBooks(log, opts...),
		members:    NewMembers(log, opts...),
		borrowings: NewBorrowings(log, opts...),
		publisher:  publisher,
		metrics:    o.metrics,
	}
}

func invalid(err error) error {
	return errs.InvalidArgument(err.Error())
}

// fail passes classified errors through and hides everything else behind
// errs.Internal after logging it.
func (l *Library) fail(op string, err error) error {
	var e *errs.Error
	if errors.As(err, &e) && e.Code != errs.CodeInternal {
		return e
	}
	l.log.Error(op, zap.Error(err))
	if e != nil {
		return e
	}
	return errs.Internal(err)
}

func (l *Library) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	if err := validate.RequiredString("title", req.Title); err != nil {
		return model.Book{}, invalid(err)
	}
	if err := validate.RequiredString("author", req.Author); err != nil {
		return model.Book{}, invalid(err)
	}

	var book model.Book
	err := l.repo.WithTx(ctx, func(st repository.Store) (err error) {
		book, err = l.books.Create(ctx, st, req.Title, req.Author)
		return err
	})
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return model.Book{}, errs.Conflict(errs.MsgBookExists, err)
		}
		return model.Book{}, l.fail("CreateBook", err)
	}
	return book, nil
}

func (l *Library) ListBooks(ctx context.Context) ([]model.Book, error) {
	return l.listBooks(ctx, "ListBooks", false)
}

func (l *Library) ListAvailableBooks(ctx context.Context) ([]model.Book, error) {
	return l.listBooks(ctx, "ListAvailableBooks", true)
}

func (l *Library) listBooks(ctx context.Context, op string, onlyAvailable bool) ([]model.Book, error) {
	var books []model.Book
	err := l.repo.WithTx(ctx, func(st repository.Store) (err error) {
		books, err = l.books.List(ctx, st, onlyAvailable)
		return err
	})
	if err != nil {
		return nil, l.fail(op, err)
	}
	return books, nil
}

func (l *Library) GetBook(ctx context.Context, id int64) (model.Book, error) {
	if err := validate.PositiveInteger("id", id); err != nil {
		return model.Book{}, invalid(err)
	}
	var book model.Book
	err := l.repo.WithTx(ctx, func(st repository.Store) error {
		b, found, err := l.books.Get(ctx, st, id)
		if err != nil {
			return err
		}
		if !found {
			return errs.NotFound(errs.MsgBookNotFound)
		}
		book = b
		return nil
	})
	if err != nil {
		return model.Book{}, l.fail("GetBook", err)
	}
	return book, nil
}

func (l *Library) UpdateBook(ctx context.Context, req model.UpdateBookRequest) (model.Book, error) {
	if err := validate.PositiveInteger("id", req.ID); err != nil {
		return model.Book{}, invalid(err)
	}
	if err := validate.RequiredString("title", req.Title); err != nil {
		return model.Book{}, invalid(err)
	}
	if err := validate.RequiredString("author", req.Author); err != nil {
		return model.Book{}, invalid(err)
	}

	var book model.Book
	err := l.repo.WithTx(ctx, func(st repository.Store) error {
		b, found, err := l.books.GetForUpdate(ctx, st, req.ID)
		if err != nil {
			return err
		}
		if !found {
			return errs.NotFound(errs.MsgBookNotFound)
		}
		book, err = l.books.Update(ctx, st, b, req.Title, req.Author)
		return err
	})
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return model.Book{}, errs.Conflict(errs.MsgBookExists, err)
		}
		return model.Book{}, l.fail("UpdateBook", err)
	}
	return book, nil
}

// DeleteBook refuses to delete a borrowed book. The check and the delete
// share one transaction and the book row stays locked in between.
func (l *Library) DeleteBook(ctx context.Context, id int64) error {
	if err := validate.PositiveInteger("id", id); err != nil {
		return invalid(err)
	}
	err := l.repo.WithTx(ctx, func(st repository.Store) error {
		book, found, err := l.books.GetForUpdate(ctx, st, id)
		if err != nil {
			return err
		}
		if !found {
			return errs.NotFound(errs.MsgBookNotFound)
		}
		if !book.Available {
			return errs.FailedPrecondition(errs.MsgCannotDeleteBorrowed)
		}
		return l.books.Delete(ctx, st, book)
	})
	if err != nil {
		return l.fail("DeleteBook", err)
	}
	return nil
}

func (l *Library) AddMember(ctx context.Context, req model.AddMemberRequest) (model.Member, error) {
	if err := validate.RequiredString("name", req.Name); err != nil {
		return model.Member{}, invalid(err)
	}
	if err := validate.RequiredString("contact", req.Contact); err != nil {
		return model.Member{}, invalid(err)
	}

	var member model.Member
	err := l.repo.WithTx(ctx, func(st repository.Store) (err error) {
		member, err = l.members.Create(ctx, st, req.Name, req.Contact)
		return err
	})
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return model.Member{}, errs.Conflict(errs.MsgMemberContactExists, err)
		}
		return model.Member{}, l.fail("AddMember", err)
	}
	return member, nil
}

func (l *Library) ListMembers(ctx context.Context) ([]model.Member, error) {
	var members []model.Member
	err := l.repo.WithTx(ctx, func(st repository.Store) (err error) {
		members, err = l.members.List(ctx, st)
		return err
	})
	if err != nil {
		return nil, l.fail("ListMembers", err)
	}
	return members, nil
}

func (l *Library) GetMember(ctx context.Context, id int64) (model.Member, error) {
	if err := validate.PositiveInteger("id", id); err != nil {
		return model.Member{}, invalid(err)
	}
	var member model.Member
	err := l.repo.WithTx(ctx, func(st repository.Store) error {
		m, found, err := l.members.Get(ctx, st, id)
		if err != nil {
			return err
		}
		if !found {
			return errs.NotFound(errs.MsgMemberNotFound)
		}
		member = m
		return nil
	})
	if err != nil {
		return model.Member{}, l.fail("GetMember", err)
	}
	return member, nil
}

func (l *Library) UpdateMember(ctx context.Context, req model.UpdateMemberRequest) (model.Member, error) {
	if err := validate.PositiveInteger("id", req.ID); err != nil {
		return model.Member{}, invalid(err)
	}
	if err := validate.RequiredString("name", req.Name); err != nil {
		return model.Member{}, invalid(err)
	}
	if err := validate.RequiredString("contact", req.Contact); err != nil {
		return model.Member{}, invalid(err)
	}

	var member model.Member
	err := l.repo.WithTx(ctx, func(st repository.Store) error {
		m, found, err := l.members.GetForUpdate(ctx, st, req.ID)
		if err != nil {
			return err
		}
		if !found {
			return errs.NotFound(errs.MsgMemberNotFound)
		}
		member, err = l.members.Update(ctx, st, m, req.Name, req.Contact)
		return err
	})
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return model.Member{}, errs.Conflict(errs.MsgMemberContactExists, err)
		}
		return model.Member{}, l.fail("UpdateMember", err)
	}
	return member, nil
}

// DeleteMember refuses while the member holds an open borrowing.
func (l *Library) DeleteMember(ctx context.Context, id int64) error {
	if err := validate.PositiveInteger("id", id); err != nil {
		return invalid(err)
	}
	err := l.repo.WithTx(ctx, func(st repository.Store) error {
		member, found, err := l.members.GetForUpdate(ctx, st, id)
		if err != nil {
			return err
		}
		if !found {
			return errs.NotFound(errs.MsgMemberNotFound)
		}
		open, err := l.borrowings.HasOpen(ctx, st, member.ID)
		if err != nil {
			return err
		}
		if open {
			return errs.FailedPrecondition(errs.MsgCannotDeleteWithBorrows)
		}
		return l.members.Delete(ctx, st, member)
	})
	if err != nil {
		return l.fail("DeleteMember", err)
	}
	return nil
}

// BorrowBook lends an available book. Unknown and unavailable books are both
// reported as "Book not available".
func (l *Library) BorrowBook(ctx context.Context, req model.BorrowBookRequest) (model.Borrowing, error) {
	if err := validate.PositiveInteger("book_id", req.BookID); err != nil {
		return model.Borrowing{}, invalid(err)
	}
	if err := validate.PositiveInteger("member_id", req.MemberID); err != nil {
		return model.Borrowing{}, invalid(err)
	}

	var borrowing model.Borrowing
	err := l.repo.WithTx(ctx, func(st repository.Store) error {
		book, found, err := l.books.GetForUpdate(ctx, st, req.BookID)
		if err != nil {
			return err
		}
		if !found || !book.Available {
			return errs.NotFound(errs.MsgBookNotAvailable)
		}
		member, found, err := l.members.GetForUpdate(ctx, st, req.MemberID)
		if err != nil {
			return err
		}
		if !found {
			return errs.NotFound(errs.MsgMemberNotFound)
		}
		b, err := l.borrowings.Borrow(ctx, st, book, member.ID)
		if err != nil {
			return err
		}
		if b == nil {
			return errs.NotFound(errs.MsgBookNotAvailable)
		}
		borrowing = *b
		return nil
	})
	if err != nil {
		l.record(opBorrow, err)
		return model.Borrowing{}, l.fail("BorrowBook", err)
	}
	l.record(opBorrow, nil)
	l.publish(ctx, events.Borrowed(borrowing))
	return borrowing, nil
}

// ReturnBook closes an open borrowing. Returning twice is refused with
// FailedPrecondition and changes nothing.
func (l *Library) ReturnBook(ctx context.Context, req model.ReturnBookRequest) (model.Borrowing, error) {
	if err := validate.PositiveInteger("borrowing_id", req.BorrowingID); err != nil {
		return model.Borrowing{}, invalid(err)
	}

	var borrowing model.Borrowing
	err := l.repo.WithTx(ctx, func(st repository.Store) error {
		b, found, err := l.borrowings.GetForUpdate(ctx, st, req.BorrowingID)
		if err != nil {
			return err
		}
		if !found {
			return errs.NotFound(errs.MsgBorrowingNotFound)
		}
		if !b.Open() {
			return errs.FailedPrecondition(errs.MsgBookAlreadyReturned)
		}
		borrowing, err = l.borrowings.Return(ctx, st, b, time.Time{})
		if errors.Is(err, errs.ErrAlreadyReturned) {
			return errs.FailedPrecondition(errs.MsgBookAlreadyReturned)
		}
		return err
	})
	if err != nil {
		l.record(opReturn, err)
		return model.Borrowing{}, l.fail("ReturnBook", err)
	}
	l.record(opReturn, nil)
	l.publish(ctx, events.Returned(borrowing))
	return borrowing, nil
}

func (l *Library) ListBorrowedBooks(ctx context.Context) ([]model.BorrowedBook, error) {
	var items []model.BorrowedBook
	err := l.repo.WithTx(ctx, func(st repository.Store) (err error) {
		items, err = l.borrowings.ListOpen(ctx, st)
		return err
	})
	if err != nil {
		return nil, l.fail("ListBorrowedBooks", err)
	}
	return items, nil
}

func (l *Library) MemberBorrowings(ctx context.Context, memberID int64) ([]model.Borrowing, error) {
	if err := validate.PositiveInteger("id", memberID); err != nil {
		return nil, invalid(err)
	}
	var items []model.Borrowing
	err := l.repo.WithTx(ctx, func(st repository.Store) error {
		_, found, err := l.members.Get(ctx, st, memberID)
		if err != nil {
			return err
		}
		if !found {
			return errs.NotFound(errs.MsgMemberNotFound)
		}
		items, err = l.borrowings.History(ctx, st, memberID)
		return err
	})
	if err != nil {
		return nil, l.fail("MemberBorrowings", err)
	}
	return items, nil
}

func (l *Library) record(op string, err error) {
	switch {
	case err == nil:
		l.metrics.Lending(op, outcomeOK)
	case errs.CodeOf(err) == errs.CodeInternal:
		l.metrics.Lending(op, outcomeFailed)
	default:
		l.metrics.Lending(op, outcomeRejected)
	}
}

// publish runs after commit; a lost event never fails the request.
func (l *Library) publish(ctx context.Context, e events.Event) {
	if err := l.publisher.Publish(ctx, e); err != nil {
		l.log.Warn("publish lending event",
			zap.String("type", string(e.Type)),
			zap.Int64("borrowing_id", e.BorrowingID),
			zap.Error(err))
	}
}
