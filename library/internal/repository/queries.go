package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/errs"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/model"
)

var (
	bookColumns      = []string{"id", "title", "author", "available", "created_at", "updated_at"}
	memberColumns    = []string{"id", "name", "contact", "created_at", "updated_at"}
	borrowingColumns = []string{
		"id",
		"coalesce(book_id, 0) as book_id",
		"coalesce(member_id, 0) as member_id",
		"borrowed_at",
		"returned_at",
	}
)

type queries struct {
	ext sqlx.ExtContext
	qb  sq.StatementBuilderType
	d   dialect
	log *zap.Logger
}

var _ Store = (*queries)(nil)

func newQueries(ext sqlx.ExtContext, d dialect, log *zap.Logger) *queries {
	return &queries{
		ext: ext,
		qb:  sq.StatementBuilder.PlaceholderFormat(d.placeholder),
		d:   d,
		log: log,
	}
}

func (q *queries) lock(sb sq.SelectBuilder, lock bool) sq.SelectBuilder {
	if lock && q.d.forUpdate != "" {
		return sb.Suffix(q.d.forUpdate)
	}
	return sb
}

func (q *queries) get(ctx context.Context, dest any, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	if err := sqlx.GetContext(ctx, q.ext, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errs.ErrNotFound
		}
		q.log.Error("get", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return classify(err)
	}
	return nil
}

func (q *queries) list(ctx context.Context, dest any, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	q.log.Debug("list", zap.String("query", query), zap.Any("args", args))
	return sqlx.SelectContext(ctx, q.ext, dest, query, args...)
}

// exec reports the number of affected rows.
func (q *queries) exec(ctx context.Context, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := q.ext.ExecContext(ctx, query, args...)
	if err != nil {
		q.log.Error("exec", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return 0, classify(err)
	}
	return res.RowsAffected()
}

func (q *queries) InsertBook(ctx context.Context, book model.Book) (model.Book, error) {
	b := q.qb.Insert(booksTableName).
		Columns("title", "author", "available", "created_at", "updated_at").
		Values(book.Title, book.Author, book.Available, book.CreatedAt, book.UpdatedAt).
		Suffix("RETURNING id")
	if err := q.get(ctx, &book.ID, b); err != nil {
		return model.Book{}, errors.Wrap(err, "insert book")
	}
	return book, nil
}

func (q *queries) SelectBooks(ctx context.Context, onlyAvailable bool) ([]model.Book, error) {
	b := q.qb.Select(bookColumns...).
		From(booksTableName).
		OrderBy("id")
	if onlyAvailable {
		b = b.Where(sq.Eq{"available": true})
	}
	books := make([]model.Book, 0)
	if err := q.list(ctx, &books, b); err != nil {
		return nil, errors.Wrap(err, "select books")
	}
	return books, nil
}

func (q *queries) SelectBook(ctx context.Context, id int64, lock bool) (model.Book, error) {
	b := q.lock(q.qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": id}), lock)
	var book model.Book
	if err := q.get(ctx, &book, b); err != nil {
		return model.Book{}, err
	}
	return book, nil
}

func (q *queries) UpdateBook(ctx context.Context, book model.Book) (model.Book, error) {
	n, err := q.exec(ctx, q.qb.Update(booksTableName).
		Set("title", book.Title).
		Set("author", book.Author).
		Set("updated_at", book.UpdatedAt).
		Where(sq.Eq{"id": book.ID}))
	if err != nil {
		return model.Book{}, errors.Wrap(err, "update book")
	}
	if n == 0 {
		return model.Book{}, errs.ErrNotFound
	}
	return book, nil
}

func (q *queries) DeleteBook(ctx context.Context, id int64) error {
	n, err := q.exec(ctx, q.qb.Delete(booksTableName).Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "delete book")
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// MarkBookBorrowed flips available only if it is still true and reports
// whether this call did it.
func (q *queries) MarkBookBorrowed(ctx context.Context, id int64, at time.Time) (bool, error) {
	n, err := q.exec(ctx, q.qb.Update(booksTableName).
		Set("available", false).
		Set("updated_at", at).
		Where(sq.Eq{"id": id, "available": true}))
	if err != nil {
		return false, errors.Wrap(err, "mark book borrowed")
	}
	return n == 1, nil
}

func (q *queries) MarkBookAvailable(ctx context.Context, id int64, at time.Time) error {
	n, err := q.exec(ctx, q.qb.Update(booksTableName).
		Set("available", true).
		Set("updated_at", at).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "mark book available")
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (q *queries) InsertMember(ctx context.Context, member model.Member) (model.Member, error) {
	b := q.qb.Insert(membersTableName).
		Columns("name", "contact", "created_at", "updated_at").
		Values(member.Name, member.Contact, member.CreatedAt, member.UpdatedAt).
		Suffix("RETURNING id")
	if err := q.get(ctx, &member.ID, b); err != nil {
		return model.Member{}, errors.Wrap(err, "insert member")
	}
	return member, nil
}

func (q *queries) SelectMembers(ctx context.Context) ([]model.Member, error) {
	members := make([]model.Member, 0)
	if err := q.list(ctx, &members, q.qb.Select(memberColumns...).
		From(membersTableName).
		OrderBy("id")); err != nil {
		return nil, errors.Wrap(err, "select members")
	}
	return members, nil
}

func (q *queries) SelectMember(ctx context.Context, id int64, lock bool) (model.Member, error) {
	b := q.lock(q.qb.Select(memberColumns...).
		From(membersTableName).
		Where(sq.Eq{"id": id}), lock)
	var member model.Member
	if err := q.get(ctx, &member, b); err != nil {
		return model.Member{}, err
	}
	return member, nil
}

func (q *queries) UpdateMember(ctx context.Context, member model.Member) (model.Member, error) {
	n, err := q.exec(ctx, q.qb.Update(membersTableName).
		Set("name", member.Name).
		Set("contact", member.Contact).
		Set("updated_at", member.UpdatedAt).
		Where(sq.Eq{"id": member.ID}))
	if err != nil {
		return model.Member{}, errors.Wrap(err, "update member")
	}
	if n == 0 {
		return model.Member{}, errs.ErrNotFound
	}
	return member, nil
}

func (q *queries) DeleteMember(ctx context.Context, id int64) error {
	n, err := q.exec(ctx, q.qb.Delete(membersTableName).Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "delete member")
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (q *queries) InsertBorrowing(ctx context.Context, borrowing model.Borrowing) (model.Borrowing, error) {
	b := q.qb.Insert(borrowingsTableName).
		Columns("book_id", "member_id", "borrowed_at").
		Values(borrowing.BookID, borrowing.MemberID, borrowing.BorrowedAt).
		Suffix("RETURNING id")
	if err := q.get(ctx, &borrowing.ID, b); err != nil {
		return model.Borrowing{}, errors.Wrap(err, "insert borrowing")
	}
	return borrowing, nil
}

func (q *queries) SelectBorrowing(ctx context.Context, id int64, lock bool) (model.Borrowing, error) {
	b := q.lock(q.qb.Select(borrowingColumns...).
		From(borrowingsTableName).
		Where(sq.Eq{"id": id}), lock)
	var borrowing model.Borrowing
	if err := q.get(ctx, &borrowing, b); err != nil {
		return model.Borrowing{}, err
	}
	return borrowing, nil
}

func (q *queries) SelectOpenBorrowings(ctx context.Context) ([]model.BorrowedBook, error) {
	b := q.qb.Select(
		"br.id as borrowing_id",
		"b.id as book_id",
		"b.title as book_title",
		"m.id as member_id",
		"m.name as member_name",
		"br.borrowed_at",
	).
		From(borrowingsTableName + " br").
		Join(fmt.Sprintf("%s b on b.id = br.book_id", booksTableName)).
		Join(fmt.Sprintf("%s m on m.id = br.member_id", membersTableName)).
		Where(sq.Eq{"br.returned_at": nil}).
		OrderBy("br.id")

	items := make([]model.BorrowedBook, 0)
	if err := q.list(ctx, &items, b); err != nil {
		return nil, errors.Wrap(err, "select open borrowings")
	}
	return items, nil
}

func (q *queries) SelectMemberBorrowings(ctx context.Context, memberID int64) ([]model.Borrowing, error) {
	items := make([]model.Borrowing, 0)
	if err := q.list(ctx, &items, q.qb.Select(borrowingColumns...).
		From(borrowingsTableName).
		Where(sq.Eq{"member_id": memberID}).
		OrderBy("id")); err != nil {
		return nil, errors.Wrap(err, "select member borrowings")
	}
	return items, nil
}

// CloseBorrowing sets returned_at once. A second call yields
// errs.ErrAlreadyReturned.
func (q *queries) CloseBorrowing(ctx context.Context, id int64, at time.Time) error {
	n, err := q.exec(ctx, q.qb.Update(borrowingsTableName).
		Set("returned_at", at).
		Where(sq.Eq{"id": id, "returned_at": nil}))
	if err != nil {
		return errors.Wrap(err, "close borrowing")
	}
	if n == 1 {
		return nil
	}
	if _, err := q.SelectBorrowing(ctx, id, false); err != nil {
		return err
	}
	return errs.ErrAlreadyReturned
}

func (q *queries) HasOpenBorrowing(ctx context.Context, memberID int64) (bool, error) {
	var cnt int
	if err := q.get(ctx, &cnt, q.qb.Select("count(*)").
		From(borrowingsTableName).
		Where(sq.Eq{"member_id": memberID, "returned_at": nil})); err != nil {
		return false, errors.Wrap(err, "count open borrowings")
	}
	return cnt > 0, nil
}
