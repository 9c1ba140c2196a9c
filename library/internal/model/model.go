package model

import (
	"time"
)

type Book struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Author    string    `json:"author" db:"author"`
	Available bool      `json:"available" db:"available"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Member struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Contact   string    `json:"contact" db:"contact"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Borrowing references its book and member by id only. A zero id means the
// referenced row was deleted after the borrowing was returned.
type Borrowing struct {
	ID         int64      `json:"id" db:"id"`
	BookID     int64      `json:"book_id" db:"book_id"`
	MemberID   int64      `json:"member_id" db:"member_id"`
	BorrowedAt time.Time  `json:"borrowed_at" db:"borrowed_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty" db:"returned_at"`
}

func (b Borrowing) Open() bool {
	return b.ReturnedAt == nil
}

type BorrowedBook struct {
	BorrowingID  int64     `json:"borrowing_id" db:"borrowing_id"`
	BookID       int64     `json:"book_id" db:"book_id"`
	BookTitle    string    `json:"book_title" db:"book_title"`
	MemberID     int64     `json:"member_id" db:"member_id"`
	MemberName   string    `json:"member_name" db:"member_name"`
	BorrowedDate string    `json:"borrowed_date" db:"-"`
	BorrowedAt   time.Time `json:"-" db:"borrowed_at"`
}

const BorrowedDateLayout = time.DateOnly

type CreateBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

type UpdateBookRequest struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

type AddMemberRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

type UpdateMemberRequest struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

type BorrowBookRequest struct {
	BookID   int64 `json:"book_id"`
	MemberID int64 `json:"member_id"`
}

type ReturnBookRequest struct {
	BorrowingID int64 `json:"borrowing_id"`
}
