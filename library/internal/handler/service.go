package handler

import (
	"context"

	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/model"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LibraryService interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	ListAvailableBooks(ctx context.Context) ([]model.Book, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	UpdateBook(ctx context.Context, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id int64) error

	AddMember(ctx context.Context, req model.AddMemberRequest) (model.Member, error)
	ListMembers(ctx context.Context) ([]model.Member, error)
	GetMember(ctx context.Context, id int64) (model.Member, error)
	UpdateMember(ctx context.Context, req model.UpdateMemberRequest) (model.Member, error)
	DeleteMember(ctx context.Context, id int64) error
	MemberBorrowings(ctx context.Context, memberID int64) ([]model.Borrowing, error)

	BorrowBook(ctx context.Context, req model.BorrowBookRequest) (model.Borrowing, error)
	ReturnBook(ctx context.Context, req model.ReturnBookRequest) (model.Borrowing, error)
	ListBorrowedBooks(ctx context.Context) ([]model.BorrowedBook, error)
}

var _ LibraryService = (*service.Library)(nil)
