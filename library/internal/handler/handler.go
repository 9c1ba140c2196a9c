package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "github.com/mangesh-sakordekar/Neighborhood-Library/library/docs"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/errs"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/model"
	md "github.com/mangesh-sakordekar/Neighborhood-Library/pkg/middleware"
	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/metrics"
)

const (
	msgInvalidID   = "id must be a positive integer"
	msgInvalidBody = "invalid request body"
)

type Handler struct {
	librarySvc LibraryService
	metrics    *metrics.Metrics
	maxWorkers int64
	log        *zap.Logger
}

type Option func(h *Handler)

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

func WithMaxWorkers(n int64) Option {
	return func(h *Handler) {
		h.maxWorkers = n
	}
}

func New(librarySvc LibraryService, log *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		librarySvc: librarySvc,
		maxWorkers: md.DefaultMaxWorkers,
		log:        log,
	}
	for _, op := range opts {
		op(h)
	}
	return h
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)
	if h.metrics != nil {
		base.GET("/metrics", echo.WrapHandler(h.metrics.Handler()))
	}

	mws := []echo.MiddlewareFunc{
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	}
	if h.metrics != nil {
		mws = append(mws, h.metrics.Middleware())
	}
	mws = append(mws, md.WorkerPool(h.maxWorkers))
	api := e.Group("/api/v1", mws...)
	h.register(api)

	return e
}

func (h *Handler) register(api *echo.Group) {
	api.POST("/books", h.CreateBook)
	api.GET("/books", h.ListBooks)
	api.GET("/availablebooks", h.ListAvailableBooks)
	api.GET("/books/:id", h.GetBook)
	api.PUT("/books/:id", h.UpdateBook)
	api.DELETE("/books/:id", h.DeleteBook)

	api.POST("/members", h.AddMember)
	api.GET("/members", h.ListMembers)
	api.GET("/members/:id", h.GetMember)
	api.PUT("/members/:id", h.UpdateMember)
	api.DELETE("/members/:id", h.DeleteMember)
	api.GET("/members/:id/borrowings", h.MemberBorrowings)

	api.POST("/borrow", h.BorrowBook)
	api.POST("/return", h.ReturnBook)
	api.GET("/borrowed", h.ListBorrowedBooks)
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// httpError renders an *errs.Error as {"message": ...}. Internal failures
// never leak their cause.
func httpError(err error) *echo.HTTPError {
	switch errs.CodeOf(err) {
	case errs.CodeInvalidArgument:
		return echo.NewHTTPError(http.StatusBadRequest, errs.MessageOf(err))
	case errs.CodeNotFound:
		return echo.NewHTTPError(http.StatusNotFound, errs.MessageOf(err))
	case errs.CodeFailedPrecondition:
		return echo.NewHTTPError(http.StatusPreconditionFailed, errs.MessageOf(err))
	case errs.CodeConflict:
		return echo.NewHTTPError(http.StatusConflict, errs.MessageOf(err))
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, errs.MsgInternal).SetInternal(err)
	}
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, msgInvalidID)
	}
	return id, nil
}

func bind(c echo.Context, req any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody)
	}
	return nil
}

// @Summary Create a book
// @Tags books
// @Accept json
// @Produce json
// @Param book body model.CreateBookRequest true "book"
// @Success 201 {object} model.Book
// @Failure 400,409,500 {object} echo.HTTPError
// @Router /books [post]
func (h *Handler) CreateBook(c echo.Context) error {
	var req model.CreateBookRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	book, err := h.librarySvc.CreateBook(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

// @Summary List books
// @Tags books
// @Produce json
// @Param available query bool false "only available books"
// @Success 200 {array} model.Book
// @Router /books [get]
func (h *Handler) ListBooks(c echo.Context) error {
	if v := c.QueryParam("available"); v != "" {
		only, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "available is invalid")
		}
		if only {
			return h.ListAvailableBooks(c)
		}
	}
	books, err := h.librarySvc.ListBooks(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

// @Summary List available books
// @Tags books
// @Produce json
// @Success 200 {array} model.Book
// @Router /availablebooks [get]
func (h *Handler) ListAvailableBooks(c echo.Context) error {
	books, err := h.librarySvc.ListAvailableBooks(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

// @Summary Get a book
// @Tags books
// @Produce json
// @Param id path int true "book id"
// @Success 200 {object} model.Book
// @Failure 400,404,500 {object} echo.HTTPError
// @Router /books/{id} [get]
func (h *Handler) GetBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	book, err := h.librarySvc.GetBook(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// @Summary Update a book
// @Tags books
// @Accept json
// @Produce json
// @Param id path int true "book id"
// @Param book body model.CreateBookRequest true "book"
// @Success 200 {object} model.Book
// @Failure 400,404,409,500 {object} echo.HTTPError
// @Router /books/{id} [put]
func (h *Handler) UpdateBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req model.UpdateBookRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	req.ID = id
	book, err := h.librarySvc.UpdateBook(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// @Summary Delete a book
// @Tags books
// @Param id path int true "book id"
// @Success 204
// @Failure 400,404,412,500 {object} echo.HTTPError
// @Router /books/{id} [delete]
func (h *Handler) DeleteBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.librarySvc.DeleteBook(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// @Summary Add a member
// @Tags members
// @Accept json
// @Produce json
// @Param member body model.AddMemberRequest true "member"
// @Success 201 {object} model.Member
// @Failure 400,409,500 {object} echo.HTTPError
// @Router /members [post]
func (h *Handler) AddMember(c echo.Context) error {
	var req model.AddMemberRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	member, err := h.librarySvc.AddMember(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, member)
}

// @Summary List members
// @Tags members
// @Produce json
// @Success 200 {array} model.Member
// @Router /members [get]
func (h *Handler) ListMembers(c echo.Context) error {
	members, err := h.librarySvc.ListMembers(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, members)
}

// @Summary Get a member
// @Tags members
// @Produce json
// @Param id path int true "member id"
// @Success 200 {object} model.Member
// @Failure 400,404,500 {object} echo.HTTPError
// @Router /members/{id} [get]
func (h *Handler) GetMember(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	member, err := h.librarySvc.GetMember(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, member)
}

// @Summary Update a member
// @Tags members
// @Accept json
// @Produce json
// @Param id path int true "member id"
// @Param member body model.AddMemberRequest true "member"
// @Success 200 {object} model.Member
// @Failure 400,404,409,500 {object} echo.HTTPError
// @Router /members/{id} [put]
func (h *Handler) UpdateMember(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req model.UpdateMemberRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	req.ID = id
	member, err := h.librarySvc.UpdateMember(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, member)
}

// @Summary Delete a member
// @Tags members
// @Param id path int true "member id"
// @Success 204
// @Failure 400,404,412,500 {object} echo.HTTPError
// @Router /members/{id} [delete]
func (h *Handler) DeleteMember(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.librarySvc.DeleteMember(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// @Summary Borrowing history of a member
// @Tags members
// @Produce json
// @Param id path int true "member id"
// @Success 200 {array} model.Borrowing
// @Failure 400,404,500 {object} echo.HTTPError
// @Router /members/{id}/borrowings [get]
func (h *Handler) MemberBorrowings(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	items, err := h.librarySvc.MemberBorrowings(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

// @Summary Borrow a book
// @Tags lending
// @Accept json
// @Produce json
// @Param req body model.BorrowBookRequest true "book and member"
// @Success 201 {object} model.Borrowing
// @Failure 400,404,500 {object} echo.HTTPError
// @Router /borrow [post]
func (h *Handler) BorrowBook(c echo.Context) error {
	var req model.BorrowBookRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	borrowing, err := h.librarySvc.BorrowBook(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, borrowing)
}

// @Summary Return a book
// @Tags lending
// @Accept json
// @Produce json
// @Param req body model.ReturnBookRequest true "borrowing"
// @Success 200 {object} model.Borrowing
// @Failure 400,404,412,500 {object} echo.HTTPError
// @Router /return [post]
func (h *Handler) ReturnBook(c echo.Context) error {
	var req model.ReturnBookRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	borrowing, err := h.librarySvc.ReturnBook(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, borrowing)
}

// @Summary List borrowed books
// @Tags lending
// @Produce json
// @Success 200 {array} model.BorrowedBook
// @Router /borrowed [get]
func (h *Handler) ListBorrowedBooks(c echo.Context) error {
	items, err := h.librarySvc.ListBorrowedBooks(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}
