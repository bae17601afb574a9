package handler

import (
	"context"

	"github.com/jackyYam/mybooklist/internal/model"
	"github.com/jackyYam/mybooklist/internal/queue"
	"github.com/jackyYam/mybooklist/internal/service"
)

// UserStore is the credential store used by the auth endpoints.
type UserStore interface {
	Create(ctx context.Context, username, email, password string, cost int) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// BookStore persists books and favourites.  Implemented by
// repository.BookRepo.
type BookStore interface {
	List(ctx context.Context, limit, offset int) ([]model.Book, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, b *model.Book) error
	GetByID(ctx context.Context, id uint64) (*model.Book, error)
	Update(ctx context.Context, b *model.Book) (*model.Book, error)
	Delete(ctx context.Context, id uint64) error

	AddFavourite(ctx context.Context, userID, bookID uint64) error
	RemoveFavourite(ctx context.Context, userID, bookID uint64) error
	ListFavourites(ctx context.Context, userID uint64, limit, offset int) ([]model.Book, error)
	CountFavourites(ctx context.Context, userID uint64) (int, error)
}

// Tokens issues, refreshes and revokes session tokens.  Implemented by
// service.TokenService.
type Tokens interface {
	Issue(u model.User) (service.TokenPair, error)
	IssueAccess(id service.Identity) (string, error)
	ValidateRefresh(ctx context.Context, raw string) (service.Identity, error)
	Revoke(ctx context.Context, raw string) error
}

// EventPublisher receives book lifecycle events.  Implemented by
// queue.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookEvent) error
}
