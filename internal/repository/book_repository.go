// Package repository contains data access logic separated from HTTP handlers.
// This file defines the Book repository: CRUD over the `books` table and the
// user/book favourites relation stored in `book_favourites`.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"

	"github.com/jackyYam/mybooklist/internal/model"
)

const bookColumns = "id, title, author, creator_id, publication_year, isbn"

// BookRepo encapsulates all database queries related to books and
// favourites.  All listings are ordered by ascending id.
type BookRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewBookRepo constructs a BookRepo with the provided DB handle.
func NewBookRepo(db *sql.DB) *BookRepo {
	return &BookRepo{db: db}
}

// List returns one page of books ordered by id.
func (r *BookRepo) List(ctx context.Context, limit, offset int) ([]model.Book, error) {
	q := "SELECT " + bookColumns + " FROM books ORDER BY id LIMIT ? OFFSET ?"
	return r.query(ctx, q, limit, offset)
}

// Count returns the total number of books.
func (r *BookRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&n)
	return n, err
}

// Create inserts a new book.  On success the book's ID field is populated
// with the auto-generated value.  The caller is responsible for setting
// CreatorID from the authenticated identity.
func (r *BookRepo) Create(ctx context.Context, b *model.Book) error {
	const q = `INSERT INTO books (title, author, creator_id, publication_year, isbn)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.Title, b.Author, b.CreatorID, b.PublicationYear, b.ISBN)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID fetches a book by its ID regardless of creator.  It returns
// ErrNotFound if no row is found.
func (r *BookRepo) GetByID(ctx context.Context, id uint64) (*model.Book, error) {
	q := "SELECT " + bookColumns + " FROM books WHERE id = ?"
	var b model.Book
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.CreatorID, &b.PublicationYear, &b.ISBN)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Update writes the mutable fields (title, author, publication year, isbn)
// of b and returns the stored row.  id and creator_id are never written.
// Returns ErrNotFound if the book disappeared in the meantime.
func (r *BookRepo) Update(ctx context.Context, b *model.Book) (*model.Book, error) {
	const q = `UPDATE books
	           SET title = ?, author = ?, publication_year = ?, isbn = ?
	           WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, b.Title, b.Author, b.PublicationYear, b.ISBN, b.ID); err != nil {
		return nil, err
	}
	// MySQL reports zero affected rows for no-op updates, so existence is
	// confirmed by reading the row back.
	return r.GetByID(ctx, b.ID)
}

// Delete removes a book; favourites referencing it go with it (ON DELETE
// CASCADE).  Returns ErrNotFound when no row was deleted.
func (r *BookRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether a book with the given id exists.
func (r *BookRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM books WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddFavourite marks a book as a favourite of the user.  Adding an existing
// favourite is a no-op.  Returns ErrNotFound if the book does not exist; the
// foreign key decides that, so a concurrent delete cannot slip through.
func (r *BookRepo) AddFavourite(ctx context.Context, userID, bookID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO book_favourites (user_id, book_id) VALUES (?, ?)", userID, bookID)
	switch {
	case isDuplicateKey(err):
		return nil
	case isForeignKeyViolation(err):
		return ErrNotFound
	}
	return err
}

// RemoveFavourite removes a book from the user's favourites.  Removing a book
// that is not a favourite is a no-op.  Returns ErrNotFound if the book does
// not exist.
func (r *BookRepo) RemoveFavourite(ctx context.Context, userID, bookID uint64) error {
	ok, err := r.Exists(ctx, bookID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	_, err = r.db.ExecContext(ctx,
		"DELETE FROM book_favourites WHERE user_id = ? AND book_id = ?", userID, bookID)
	return err
}

// ListFavourites returns one page of the user's favourite books ordered by
// book id.
func (r *BookRepo) ListFavourites(ctx context.Context, userID uint64, limit, offset int) ([]model.Book, error) {
	const q = `SELECT b.id, b.title, b.author, b.creator_id, b.publication_year, b.isbn
	           FROM books b
	           JOIN book_favourites f ON f.book_id = b.id
	           WHERE f.user_id = ?
	           ORDER BY b.id
	           LIMIT ? OFFSET ?`
	return r.query(ctx, q, userID, limit, offset)
}

// CountFavourites returns the number of favourites of the user.
func (r *BookRepo) CountFavourites(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM book_favourites WHERE user_id = ?", userID).Scan(&n)
	return n, err
}

func (r *BookRepo) query(ctx context.Context, q string, args ...any) ([]model.Book, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Book, 0)
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.CreatorID, &b.PublicationYear, &b.ISBN); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
