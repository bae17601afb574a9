package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jackyYam/mybooklist/internal/apperr"
	"github.com/jackyYam/mybooklist/internal/middleware"
	"github.com/jackyYam/mybooklist/internal/repository"
	"github.com/jackyYam/mybooklist/internal/service"
)

var errNoSuchBook = apperr.Validation("Book does not exist.")

// ListFavourites returns one page of the caller's favourite books.
func (h *BookHandler) ListFavourites(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	if err := service.Authorize(id, service.OpFavourite, nil); err != nil {
		return writeError(c, h.Log, err)
	}
	page, err := pageParam(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	count, err := h.Books.CountFavourites(ctx, id.UserID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if err := checkPage(page, h.PageSize, count); err != nil {
		return writeError(c, h.Log, err)
	}
	books, err := h.Books.ListFavourites(ctx, id.UserID, h.PageSize, (page-1)*h.PageSize)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newBookPage(c, page, h.PageSize, count, books))
}

// AddFavourite marks a book as favourite of the caller.  Idempotent.
func (h *BookHandler) AddFavourite(c echo.Context) error {
	return h.changeFavourite(c, h.Books.AddFavourite)
}

// RemoveFavourite drops a book from the caller's favourites.  Idempotent.
func (h *BookHandler) RemoveFavourite(c echo.Context) error {
	return h.changeFavourite(c, h.Books.RemoveFavourite)
}

type favouriteOp func(ctx context.Context, userID, bookID uint64) error

func (h *BookHandler) changeFavourite(c echo.Context, op favouriteOp) error {
	id := middleware.IdentityFrom(c)
	if err := service.Authorize(id, service.OpFavourite, nil); err != nil {
		return writeError(c, h.Log, err)
	}
	bookID, err := bookIDParam(c, "book_id")
	if err != nil {
		return writeError(c, h.Log, errNoSuchBook)
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	if err := op(ctx, id.UserID, bookID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return writeError(c, h.Log, errNoSuchBook)
		}
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
