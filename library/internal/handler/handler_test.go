package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
	"go.uber.org/zap"

	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/errs"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/handler"
	service_mocks "github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/handler/mocks"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/model"
	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/metrics"
)

var ts = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

type request struct {
	method string
	target string
	body   string
}

type response struct {
	expectedCode int
	expectedBody string
}

type mockBehavior func(r *service_mocks.MockLibraryService)

type testCase struct {
	name         string
	mockBehavior mockBehavior
	request      request
	response     response
}

func run(t *testing.T, route string, handlerFn func(h *handler.Handler) echo.HandlerFunc, tests []testCase) {
	t.Helper()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLibraryService(c)
			h := handler.New(svc, zap.NewNop())

			e := echo.New()
			e.Add(tt.request.method, route, handlerFn(h))

			var body io.Reader = http.NoBody
			if tt.request.body != "" {
				body = strings.NewReader(tt.request.body)
			}
			r := httptest.NewRequest(tt.request.method, tt.request.target, body)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_CreateBook(t *testing.T) {
	t.Parallel()
	req := model.CreateBookRequest{Title: "Dune", Author: "Herbert"}
	run(t, "/books", func(h *handler.Handler) echo.HandlerFunc { return h.CreateBook }, []testCase{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().CreateBook(context.Background(), req).
					Return(model.Book{ID: 1, Title: "Dune", Author: "Herbert", Available: true, CreatedAt: ts, UpdatedAt: ts}, nil)
			},
			request: request{method: http.MethodPost, target: "/books", body: `{"title":"Dune","author":"Herbert"}`},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"id":1,"title":"Dune","author":"Herbert","available":true,"created_at":"2024-03-01T10:30:00Z","updated_at":"2024-03-01T10:30:00Z"}`,
			},
		},
		{
			name:         "err. malformed body",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			request:      request{method: http.MethodPost, target: "/books", body: `{"title":`},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"invalid request body"}`,
			},
		},
		{
			name: "err. title required",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().CreateBook(context.Background(), model.CreateBookRequest{Title: " ", Author: "Herbert"}).
					Return(model.Book{}, errs.InvalidArgument("title is required and must be a non-empty string"))
			},
			request: request{method: http.MethodPost, target: "/books", body: `{"title":" ","author":"Herbert"}`},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"title is required and must be a non-empty string"}`,
			},
		},
		{
			name: "err. duplicate",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().CreateBook(context.Background(), req).
					Return(model.Book{}, errs.Conflict(errs.MsgBookExists, errs.ErrConflict))
			},
			request: request{method: http.MethodPost, target: "/books", body: `{"title":"Dune","author":"Herbert"}`},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"Book already exists"}`,
			},
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().CreateBook(context.Background(), req).
					Return(model.Book{}, errors.New("db internal"))
			},
			request: request{method: http.MethodPost, target: "/books", body: `{"title":"Dune","author":"Herbert"}`},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"internal error"}`,
			},
		},
	})
}

func TestHandler_ListBooks(t *testing.T) {
	t.Parallel()
	book := model.Book{ID: 2, Title: "Emma", Author: "Austen", Available: true, CreatedAt: ts, UpdatedAt: ts}
	const bookJSON = `{"id":2,"title":"Emma","author":"Austen","available":true,"created_at":"2024-03-01T10:30:00Z","updated_at":"2024-03-01T10:30:00Z"}`
	run(t, "/books", func(h *handler.Handler) echo.HandlerFunc { return h.ListBooks }, []testCase{
		{
			name: "ok. empty",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().ListBooks(context.Background()).Return([]model.Book{}, nil)
			},
			request:  request{method: http.MethodGet, target: "/books"},
			response: response{expectedCode: http.StatusOK, expectedBody: `[]`},
		},
		{
			name: "ok. only available",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().ListAvailableBooks(context.Background()).Return([]model.Book{book}, nil)
			},
			request:  request{method: http.MethodGet, target: "/books?available=true"},
			response: response{expectedCode: http.StatusOK, expectedBody: `[` + bookJSON + `]`},
		},
		{
			name: "ok. available=false lists all",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().ListBooks(context.Background()).Return([]model.Book{book}, nil)
			},
			request:  request{method: http.MethodGet, target: "/books?available=false"},
			response: response{expectedCode: http.StatusOK, expectedBody: `[` + bookJSON + `]`},
		},
		{
			name:         "err. available invalid",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			request:      request{method: http.MethodGet, target: "/books?available=maybe"},
			response:     response{expectedCode: http.StatusBadRequest, expectedBody: `{"message":"available is invalid"}`},
		},
	})
}

func TestHandler_UpdateBook(t *testing.T) {
	t.Parallel()
	run(t, "/books/:id", func(h *handler.Handler) echo.HandlerFunc { return h.UpdateBook }, []testCase{
		{
			name: "ok. id from path wins",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().UpdateBook(context.Background(), model.UpdateBookRequest{ID: 7, Title: "Dune Messiah", Author: "Herbert"}).
					Return(model.Book{ID: 7, Title: "Dune Messiah", Author: "Herbert", CreatedAt: ts, UpdatedAt: ts}, nil)
			},
			request: request{method: http.MethodPut, target: "/books/7", body: `{"id":99,"title":"Dune Messiah","author":"Herbert"}`},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":7,"title":"Dune Messiah","author":"Herbert","available":false,"created_at":"2024-03-01T10:30:00Z","updated_at":"2024-03-01T10:30:00Z"}`,
			},
		},
		{
			name: "err. not found",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().UpdateBook(context.Background(), model.UpdateBookRequest{ID: 7, Title: "X", Author: "Y"}).
					Return(model.Book{}, errs.NotFound(errs.MsgBookNotFound))
			},
			request:  request{method: http.MethodPut, target: "/books/7", body: `{"title":"X","author":"Y"}`},
			response: response{expectedCode: http.StatusNotFound, expectedBody: `{"message":"Book not found"}`},
		},
		{
			name:         "err. id invalid",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			request:      request{method: http.MethodPut, target: "/books/abc", body: `{"title":"X","author":"Y"}`},
			response:     response{expectedCode: http.StatusBadRequest, expectedBody: `{"message":"id must be a positive integer"}`},
		},
	})
}

func TestHandler_DeleteBook(t *testing.T) {
	t.Parallel()
	run(t, "/books/:id", func(h *handler.Handler) echo.HandlerFunc { return h.DeleteBook }, []testCase{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().DeleteBook(context.Background(), int64(3)).Return(nil)
			},
			request:  request{method: http.MethodDelete, target: "/books/3"},
			response: response{expectedCode: http.StatusNoContent},
		},
		{
			name: "err. borrowed",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().DeleteBook(context.Background(), int64(3)).
					Return(errs.FailedPrecondition(errs.MsgCannotDeleteBorrowed))
			},
			request:  request{method: http.MethodDelete, target: "/books/3"},
			response: response{expectedCode: http.StatusPreconditionFailed, expectedBody: `{"message":"Cannot delete a borrowed book"}`},
		},
		{
			name:         "err. id zero",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			request:      request{method: http.MethodDelete, target: "/books/0"},
			response:     response{expectedCode: http.StatusBadRequest, expectedBody: `{"message":"id must be a positive integer"}`},
		},
	})
}

func TestHandler_AddMember(t *testing.T) {
	t.Parallel()
	req := model.AddMemberRequest{Name: "Ann", Contact: "ann@example.com"}
	run(t, "/members", func(h *handler.Handler) echo.HandlerFunc { return h.AddMember }, []testCase{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().AddMember(context.Background(), req).
					Return(model.Member{ID: 1, Name: "Ann", Contact: "ann@example.com", CreatedAt: ts, UpdatedAt: ts}, nil)
			},
			request: request{method: http.MethodPost, target: "/members", body: `{"name":"Ann","contact":"ann@example.com"}`},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"id":1,"name":"Ann","contact":"ann@example.com","created_at":"2024-03-01T10:30:00Z","updated_at":"2024-03-01T10:30:00Z"}`,
			},
		},
		{
			name: "err. contact taken",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().AddMember(context.Background(), req).
					Return(model.Member{}, errs.Conflict(errs.MsgMemberContactExists, errs.ErrConflict))
			},
			request:  request{method: http.MethodPost, target: "/members", body: `{"name":"Ann","contact":"ann@example.com"}`},
			response: response{expectedCode: http.StatusConflict, expectedBody: `{"message":"Member contact already exists"}`},
		},
	})
}

func TestHandler_DeleteMember(t *testing.T) {
	t.Parallel()
	run(t, "/members/:id", func(h *handler.Handler) echo.HandlerFunc { return h.DeleteMember }, []testCase{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().DeleteMember(context.Background(), int64(5)).Return(nil)
			},
			request:  request{method: http.MethodDelete, target: "/members/5"},
			response: response{expectedCode: http.StatusNoContent},
		},
		{
			name: "err. holds books",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().DeleteMember(context.Background(), int64(5)).
					Return(errs.FailedPrecondition(errs.MsgCannotDeleteWithBorrows))
			},
			request:  request{method: http.MethodDelete, target: "/members/5"},
			response: response{expectedCode: http.StatusPreconditionFailed, expectedBody: `{"message":"Cannot delete member with borrowed books"}`},
		},
		{
			name: "err. not found",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().DeleteMember(context.Background(), int64(5)).
					Return(errs.NotFound(errs.MsgMemberNotFound))
			},
			request:  request{method: http.MethodDelete, target: "/members/5"},
			response: response{expectedCode: http.StatusNotFound, expectedBody: `{"message":"Member not found"}`},
		},
	})
}

func TestHandler_BorrowBook(t *testing.T) {
	t.Parallel()
	req := model.BorrowBookRequest{BookID: 1, MemberID: 2}
	run(t, "/borrow", func(h *handler.Handler) echo.HandlerFunc { return h.BorrowBook }, []testCase{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().BorrowBook(context.Background(), req).
					Return(model.Borrowing{ID: 9, BookID: 1, MemberID: 2, BorrowedAt: ts}, nil)
			},
			request: request{method: http.MethodPost, target: "/borrow", body: `{"book_id":1,"member_id":2}`},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"id":9,"book_id":1,"member_id":2,"borrowed_at":"2024-03-01T10:30:00Z"}`,
			},
		},
		{
			name: "err. not available",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().BorrowBook(context.Background(), req).
					Return(model.Borrowing{}, errs.NotFound(errs.MsgBookNotAvailable))
			},
			request:  request{method: http.MethodPost, target: "/borrow", body: `{"book_id":1,"member_id":2}`},
			response: response{expectedCode: http.StatusNotFound, expectedBody: `{"message":"Book not available"}`},
		},
		{
			name:         "err. book_id not a number",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			request:      request{method: http.MethodPost, target: "/borrow", body: `{"book_id":"one","member_id":2}`},
			response:     response{expectedCode: http.StatusBadRequest, expectedBody: `{"message":"invalid request body"}`},
		},
	})
}

func TestHandler_ReturnBook(t *testing.T) {
	t.Parallel()
	returned := ts.Add(time.Hour)
	req := model.ReturnBookRequest{BorrowingID: 9}
	run(t, "/return", func(h *handler.Handler) echo.HandlerFunc { return h.ReturnBook }, []testCase{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().ReturnBook(context.Background(), req).
					Return(model.Borrowing{ID: 9, BookID: 1, MemberID: 2, BorrowedAt: ts, ReturnedAt: &returned}, nil)
			},
			request: request{method: http.MethodPost, target: "/return", body: `{"borrowing_id":9}`},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":9,"book_id":1,"member_id":2,"borrowed_at":"2024-03-01T10:30:00Z","returned_at":"2024-03-01T11:30:00Z"}`,
			},
		},
		{
			name: "err. already returned",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().ReturnBook(context.Background(), req).
					Return(model.Borrowing{}, errs.FailedPrecondition(errs.MsgBookAlreadyReturned))
			},
			request:  request{method: http.MethodPost, target: "/return", body: `{"borrowing_id":9}`},
			response: response{expectedCode: http.StatusPreconditionFailed, expectedBody: `{"message":"Book already returned"}`},
		},
		{
			name: "err. unknown borrowing",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().ReturnBook(context.Background(), req).
					Return(model.Borrowing{}, errs.NotFound(errs.MsgBorrowingNotFound))
			},
			request:  request{method: http.MethodPost, target: "/return", body: `{"borrowing_id":9}`},
			response: response{expectedCode: http.StatusNotFound, expectedBody: `{"message":"Borrowing record not found"}`},
		},
	})
}

func TestHandler_ListBorrowedBooks(t *testing.T) {
	t.Parallel()
	run(t, "/borrowed", func(h *handler.Handler) echo.HandlerFunc { return h.ListBorrowedBooks }, []testCase{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().ListBorrowedBooks(context.Background()).Return([]model.BorrowedBook{{
					BorrowingID:  9,
					BookID:       1,
					BookTitle:    "Dune",
					MemberID:     2,
					MemberName:   "Ann",
					BorrowedDate: "2024-03-01",
					BorrowedAt:   ts,
				}}, nil)
			},
			request: request{method: http.MethodGet, target: "/borrowed"},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `[{"borrowing_id":9,"book_id":1,"book_title":"Dune","member_id":2,"member_name":"Ann","borrowed_date":"2024-03-01"}]`,
			},
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().ListBorrowedBooks(context.Background()).Return(nil, errs.Internal(errors.New("db down")))
			},
			request:  request{method: http.MethodGet, target: "/borrowed"},
			response: response{expectedCode: http.StatusInternalServerError, expectedBody: `{"message":"internal error"}`},
		},
	})
}

func TestHandler_Router(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockLibraryService(c)
	svc.EXPECT().ListMembers(gomock.Any()).Return([]model.Member{}, nil)

	m := metrics.New(prometheus.NewRegistry())
	e := handler.New(svc, zap.NewNop(), handler.WithMetrics(m), handler.WithMaxWorkers(2)).NewRouter()

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/manage/health", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())

	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/members", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Header().Get(echo.HeaderXRequestID))

	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `library_http_requests_total{method="GET",path="/api/v1/members",status="200"} 1`)
}

func TestHandler_SwaggerCoversRoutes(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	e := handler.New(service_mocks.NewMockLibraryService(c), zap.NewNop()).NewRouter()

	doc, err := swag.ReadDoc()
	require.NoError(t, err)
	var spec struct {
		BasePath string                                    `json:"basePath"`
		Paths    map[string]map[string]jsoniter.RawMessage `json:"paths"`
	}
	require.NoError(t, jsoniter.UnmarshalFromString(doc, &spec))
	require.Equal(t, "/api/v1", spec.BasePath)

	var checked int
	for _, r := range e.Routes() {
		if !strings.HasPrefix(r.Path, spec.BasePath+"/") || strings.Contains(r.Path, "*") {
			continue
		}
		path := strings.ReplaceAll(strings.TrimPrefix(r.Path, spec.BasePath), ":id", "{id}")
		ops, ok := spec.Paths[path]
		require.True(t, ok, "undocumented path %s", path)
		_, ok = ops[strings.ToLower(r.Method)]
		require.True(t, ok, "undocumented %s %s", r.Method, path)
		checked++
	}
	require.Equal(t, 15, checked)
}
