package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jackyYam/mybooklist/internal/apperr"
	"github.com/jackyYam/mybooklist/internal/metrics"
	"github.com/jackyYam/mybooklist/internal/middleware"
	"github.com/jackyYam/mybooklist/internal/model"
	"github.com/jackyYam/mybooklist/internal/queue"
	"github.com/jackyYam/mybooklist/internal/repository"
	"github.com/jackyYam/mybooklist/internal/service"
)

// BookHandler serves the book catalog and the favourites of the caller.
type BookHandler struct {
	Books    BookStore
	Events   EventPublisher // optional
	PageSize int
	Log      *slog.Logger
}

func NewBookHandler(books BookStore, events EventPublisher, pageSize int, log *slog.Logger) *BookHandler {
	if pageSize < 1 {
		pageSize = 10
	}
	return &BookHandler{Books: books, Events: events, PageSize: pageSize, Log: log}
}

// bookReq is the body of POST and PUT.  Any id or creator sent by the client
// is ignored.
type bookReq struct {
	Title           string `json:"title" validate:"required,max=100"`
	Author          string `json:"author" validate:"required,max=100"`
	PublicationYear *int   `json:"publicationYear" validate:"required"`
	ISBN            string `json:"isbn" validate:"required,max=64,isbn"`
}

func (r *bookReq) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
}

// bookPatchReq is the body of PATCH; absent fields keep their value.
type bookPatchReq struct {
	Title           *string `json:"title" validate:"omitnil,min=1,max=100"`
	Author          *string `json:"author" validate:"omitnil,min=1,max=100"`
	PublicationYear *int    `json:"publicationYear"`
	ISBN            *string `json:"isbn" validate:"omitnil,max=64,isbn"`
}

func (r *bookPatchReq) normalize() {
	for _, s := range []*string{r.Title, r.Author} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
}

// List returns one page of all books ordered by id.
func (h *BookHandler) List(c echo.Context) error {
	page, err := pageParam(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	count, err := h.Books.Count(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if err := checkPage(page, h.PageSize, count); err != nil {
		return writeError(c, h.Log, err)
	}
	books, err := h.Books.List(ctx, h.PageSize, (page-1)*h.PageSize)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newBookPage(c, page, h.PageSize, count, books))
}

// Create adds a book owned by the caller.
func (h *BookHandler) Create(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	if err := service.Authorize(id, service.OpCreate, nil); err != nil {
		return writeError(c, h.Log, err)
	}

	var req bookReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.Log, err)
	}

	b := &model.Book{
		Title:           req.Title,
		Author:          req.Author,
		PublicationYear: *req.PublicationYear,
		ISBN:            req.ISBN,
		CreatorID:       id.UserID,
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	if err := h.Books.Create(ctx, b); err != nil {
		return writeError(c, h.Log, err)
	}
	metrics.BookCreated()
	h.publish(c, queue.EventBookCreated, *b, id.UserID)
	return c.JSON(http.StatusCreated, b)
}

// Get returns a single book.
func (h *BookHandler) Get(c echo.Context) error {
	bookID, err := bookIDParam(c, "id")
	if err != nil {
		return writeError(c, h.Log, apperr.ErrNotFound)
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	b, err := h.Books.GetByID(ctx, bookID)
	if err != nil {
		return writeError(c, h.Log, notFound(err))
	}
	return c.JSON(http.StatusOK, b)
}

// Update serves PUT (all fields required) and PATCH (partial).  The checks
// run in a fixed order: authentication, existence, ownership, body.
func (h *BookHandler) Update(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	b, err := h.loadForMutation(c, id, service.OpUpdate)
	if err != nil {
		return writeError(c, h.Log, err)
	}

	if c.Request().Method == http.MethodPatch {
		var req bookPatchReq
		if err := bindAndValidate(c, &req); err != nil {
			return writeError(c, h.Log, err)
		}
		if req.Title != nil {
			b.Title = *req.Title
		}
		if req.Author != nil {
			b.Author = *req.Author
		}
		if req.PublicationYear != nil {
			b.PublicationYear = *req.PublicationYear
		}
		if req.ISBN != nil {
			b.ISBN = *req.ISBN
		}
	} else {
		var req bookReq
		if err := bindAndValidate(c, &req); err != nil {
			return writeError(c, h.Log, err)
		}
		b.Title = req.Title
		b.Author = req.Author
		b.PublicationYear = *req.PublicationYear
		b.ISBN = req.ISBN
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	updated, err := h.Books.Update(ctx, b)
	if err != nil {
		return writeError(c, h.Log, notFound(err))
	}
	h.publish(c, queue.EventBookUpdated, *updated, id.UserID)
	return c.JSON(http.StatusOK, updated)
}

// Delete removes a book owned by the caller.
func (h *BookHandler) Delete(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	b, err := h.loadForMutation(c, id, service.OpDelete)
	if err != nil {
		return writeError(c, h.Log, err)
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	if err := h.Books.Delete(ctx, b.ID); err != nil {
		return writeError(c, h.Log, notFound(err))
	}
	h.publish(c, queue.EventBookDeleted, *b, id.UserID)
	return c.JSON(http.StatusOK, echo.Map{"message": "Book deleted successfully."})
}

// loadForMutation authenticates the caller before touching the store, then
// loads the book and checks ownership.
func (h *BookHandler) loadForMutation(c echo.Context, id *service.Identity, op service.Operation) (*model.Book, error) {
	if err := service.Authenticate(id, op); err != nil {
		return nil, err
	}
	bookID, err := bookIDParam(c, "id")
	if err != nil {
		return nil, apperr.ErrNotFound
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	b, err := h.Books.GetByID(ctx, bookID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := service.Authorize(id, op, b); err != nil {
		return nil, err
	}
	return b, nil
}

// publish sends a lifecycle event without failing the request.
func (h *BookHandler) publish(c echo.Context, typ string, b model.Book, actor uint64) {
	if h.Events == nil {
		return
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	if err := h.Events.Publish(ctx, queue.NewBookEvent(typ, b, actor, time.Now())); err != nil {
		h.Log.Warn("publish book event failed", "type", typ, "book_id", b.ID, "error", err)
	}
}

func bookIDParam(c echo.Context, name string) (uint64, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, errors.New("invalid id")
	}
	return n, nil
}

// notFound converts the repository sentinel to the taxonomy error.
func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.ErrNotFound
	}
	return err
}
