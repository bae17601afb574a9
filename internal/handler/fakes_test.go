package handler_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jackyYam/mybooklist/internal/model"
	"github.com/jackyYam/mybooklist/internal/queue"
	"github.com/jackyYam/mybooklist/internal/repository"
	"github.com/jackyYam/mybooklist/internal/utils"
)

type memUsers struct {
	mu     sync.Mutex
	nextID uint64
	byName map[string]model.User
}

func newMemUsers() *memUsers { return &memUsers{byName: make(map[string]model.User)} }

func (m *memUsers) Create(_ context.Context, username, email, password string, _ int) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[username]; ok {
		return model.User{}, repository.ErrUsernameExists
	}
	for _, u := range m.byName {
		if u.Email == email {
			return model.User{}, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		return model.User{}, err
	}
	m.nextID++
	u := model.User{ID: m.nextID, Username: username, Email: email, PasswordHash: hash}
	m.byName[username] = u
	return u, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byName[username]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type memBooks struct {
	mu     sync.Mutex
	nextID uint64
	books  map[uint64]model.Book
	favs   map[uint64]map[uint64]bool
	fail   error
}

func newMemBooks() *memBooks {
	return &memBooks{books: make(map[uint64]model.Book), favs: make(map[uint64]map[uint64]bool)}
}

func (m *memBooks) sorted(keep func(model.Book) bool) []model.Book {
	out := make([]model.Book, 0)
	for _, b := range m.books {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func window(all []model.Book, limit, offset int) []model.Book {
	if offset >= len(all) {
		return []model.Book{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

func (m *memBooks) List(_ context.Context, limit, offset int) ([]model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	return window(m.sorted(func(model.Book) bool { return true }), limit, offset), nil
}

func (m *memBooks) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.fail
	}
	return len(m.books), nil
}

func (m *memBooks) Create(_ context.Context, b *model.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = m.nextID
	m.books[b.ID] = *b
	return nil
}

func (m *memBooks) GetByID(_ context.Context, id uint64) (*model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (m *memBooks) Update(_ context.Context, b *model.Book) (*model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.books[b.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cur.Title, cur.Author, cur.PublicationYear, cur.ISBN = b.Title, b.Author, b.PublicationYear, b.ISBN
	m.books[b.ID] = cur
	return &cur, nil
}

func (m *memBooks) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.books, id)
	for _, set := range m.favs {
		delete(set, id)
	}
	return nil
}

func (m *memBooks) AddFavourite(_ context.Context, userID, bookID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[bookID]; !ok {
		return repository.ErrNotFound
	}
	if m.favs[userID] == nil {
		m.favs[userID] = make(map[uint64]bool)
	}
	m.favs[userID][bookID] = true
	return nil
}

func (m *memBooks) RemoveFavourite(_ context.Context, userID, bookID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[bookID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.favs[userID], bookID)
	return nil
}

func (m *memBooks) ListFavourites(_ context.Context, userID uint64, limit, offset int) ([]model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.favs[userID]
	return window(m.sorted(func(b model.Book) bool { return set[b.ID] }), limit, offset), nil
}

func (m *memBooks) CountFavourites(_ context.Context, userID uint64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.favs[userID]), nil
}

type memBlacklist struct {
	mu  sync.Mutex
	set map[string]bool
}

func (m *memBlacklist) Add(_ context.Context, jti string, _ uint64, _ time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.set[jti] {
		return false, nil
	}
	m.set[jti] = true
	return true, nil
}

func (m *memBlacklist) Contains(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set[jti], nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

var errStoreDown = errors.New("store down")
