package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/errs"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/model"
	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/database"
)

// Store is a unit of work. Every call made through one Store runs on the same
// session; inside WithTx that session is the transaction.
type Store interface {
	InsertBook(ctx context.Context, book model.Book) (model.Book, error)
	SelectBooks(ctx context.Context, onlyAvailable bool) ([]model.Book, error)
	SelectBook(ctx context.Context, id int64, lock bool) (model.Book, error)
	UpdateBook(ctx context.Context, book model.Book) (model.Book, error)
	DeleteBook(ctx context.Context, id int64) error
	MarkBookBorrowed(ctx context.Context, id int64, at time.Time) (bool, error)
	MarkBookAvailable(ctx context.Context, id int64, at time.Time) error

	InsertMember(ctx context.Context, member model.Member) (model.Member, error)
	SelectMembers(ctx context.Context) ([]model.Member, error)
	SelectMember(ctx context.Context, id int64, lock bool) (model.Member, error)
	UpdateMember(ctx context.Context, member model.Member) (model.Member, error)
	DeleteMember(ctx context.Context, id int64) error

	InsertBorrowing(ctx context.Context, borrowing model.Borrowing) (model.Borrowing, error)
	SelectBorrowing(ctx context.Context, id int64, lock bool) (model.Borrowing, error)
	SelectOpenBorrowings(ctx context.Context) ([]model.BorrowedBook, error)
	SelectMemberBorrowings(ctx context.Context, memberID int64) ([]model.Borrowing, error)
	CloseBorrowing(ctx context.Context, id int64, at time.Time) error
	HasOpenBorrowing(ctx context.Context, memberID int64) (bool, error)
}

type Repository interface {
	Store
	// WithTx runs fn in one transaction: commit when fn returns nil, rollback
	// on error or panic. The transaction never outlives the call.
	WithTx(ctx context.Context, fn func(st Store) error) error
}

const (
	booksTableName      = `books`
	membersTableName    = `members`
	borrowingsTableName = `borrowings`
)

type dialect struct {
	placeholder sq.PlaceholderFormat
	isolation   sql.IsolationLevel
	forUpdate   string
}

var dialects = map[string]dialect{
	database.DriverPostgres: {
		placeholder: sq.Dollar,
		isolation:   sql.LevelReadCommitted,
		forUpdate:   "FOR UPDATE",
	},
	// writers are serialized by _txlock=immediate, sqlite has no row locks
	database.DriverSQLite: {
		placeholder: sq.Question,
		isolation:   sql.LevelDefault,
	},
}

type repository struct {
	*queries
	db *sqlx.DB
}

var _ Repository = (*repository)(nil)

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	d, ok := dialects[db.DriverName()]
	if !ok {
		return nil, errors.Errorf("repository: unsupported driver %q", db.DriverName())
	}
	log = log.Named("repo")
	return &repository{
		queries: newQueries(db, d, log),
		db:      db,
	}, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(st Store) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: r.d.isolation})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				r.log.Error("tx.Rollback", zap.Error(rbErr))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = errors.Wrap(classify(cErr), "commit tx")
		}
	}()

	return fn(newQueries(tx, r.d, r.log))
}

// classify turns driver constraint errors into errs sentinels.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return errors.Wrap(errs.ErrConflict, pgErr.ConstraintName)
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return errors.Wrap(errs.ErrConflict, liteErr.Error())
	}
	return err
}
