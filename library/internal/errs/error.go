package errs

import (
	"github.com/pkg/errors"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrAlreadyReturned = errors.New("borrowing already returned")
)

const (
	MsgBookNotFound            = "Book not found"
	MsgBookNotAvailable        = "Book not available"
	MsgBookExists              = "Book already exists"
	MsgBookAlreadyReturned     = "Book already returned"
	MsgBorrowingNotFound       = "Borrowing record not found"
	MsgMemberNotFound          = "Member not found"
	MsgMemberContactExists     = "Member contact already exists"
	MsgCannotDeleteBorrowed    = "Cannot delete a borrowed book"
	MsgCannotDeleteWithBorrows = "Cannot delete member with borrowed books"
	MsgInternal                = "internal error"
)

type Code uint8

const (
	CodeInternal Code = iota
	CodeInvalidArgument
	CodeNotFound
	CodeFailedPrecondition
	CodeConflict
)

func (c Code) String() string {
	switch c {
	case CodeInvalidArgument:
		return "INVALID_ARGUMENT"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeFailedPrecondition:
		return "FAILED_PRECONDITION"
	case CodeConflict:
		return "CONFLICT"
	default:
		return "INTERNAL"
	}
}

// Error is what the facade hands to the transport. Message is safe to show
// to callers, Err is for logs only.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code.String() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func InvalidArgument(msg string) error {
	return &Error{Code: CodeInvalidArgument, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Code: CodeNotFound, Message: msg}
}

func FailedPrecondition(msg string) error {
	return &Error{Code: CodeFailedPrecondition, Message: msg}
}

func Conflict(msg string, err error) error {
	return &Error{Code: CodeConflict, Message: msg, Err: err}
}

func Internal(err error) error {
	return &Error{Code: CodeInternal, Message: MsgInternal, Err: err}
}

// CodeOf classifies err; anything that is not an *Error is internal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf returns the caller-safe message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return MsgInternal
}
