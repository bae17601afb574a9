package service

import (
	"github.com/jackyYam/mybooklist/internal/apperr"
	"github.com/jackyYam/mybooklist/internal/model"
)

// Operation names an action on the book catalog.
type Operation string

const (
	OpRead      Operation = "read"
	OpCreate    Operation = "create"
	OpUpdate    Operation = "update"
	OpDelete    Operation = "delete"
	OpFavourite Operation = "favourite"
)

// Authenticate is the first phase of authorization and runs before any book
// is loaded.  Reads are open; every other operation needs an identity.
func Authenticate(id *Identity, op Operation) error {
	if op == OpRead {
		return nil
	}
	if id == nil {
		return apperr.ErrUnauthenticated
	}
	return nil
}

// Authorize decides whether id may perform op on book.  Update and delete are
// reserved to the book's creator.
func Authorize(id *Identity, op Operation, book *model.Book) error {
	if err := Authenticate(id, op); err != nil {
		return err
	}
	switch op {
	case OpRead, OpCreate, OpFavourite:
		return nil
	case OpUpdate, OpDelete:
		if book == nil || book.CreatorID != id.UserID {
			return apperr.ErrForbidden
		}
		return nil
	default:
		return apperr.ErrForbidden
	}
}
