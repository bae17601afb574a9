package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"

	"github.com/jackyYam/mybooklist/internal/handler"
	"github.com/jackyYam/mybooklist/internal/queue"
	"github.com/jackyYam/mybooklist/internal/router"
	"github.com/jackyYam/mybooklist/internal/service"
	"github.com/jackyYam/mybooklist/internal/validation"
)

type session struct {
	ID      uint64
	Access  string
	Refresh string
}

type APISuite struct {
	suite.Suite
	users  *memUsers
	books  *memBooks
	events *recordingPublisher
	e      *echo.Echo
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.users = newMemUsers()
	s.books = newMemBooks()
	s.events = &recordingPublisher{}
	tokens := service.NewTokenService("handler-test-secret", 5*time.Minute, time.Hour,
		&memBlacklist{set: make(map[string]bool)})

	s.e = router.New(router.Deps{
		Log:             log,
		Validator:       validation.New(),
		AccessValidator: tokens,
		Auth:            handler.NewAuthHandler(s.users, tokens, 4, log),
		Books:           handler.NewBookHandler(s.books, s.events, 10, log),
	})
}

func (s *APISuite) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *APISuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *APISuite) register(username string) session {
	rec := s.do(http.MethodPost, "/api/auth/register/", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "pa55word",
	}, "")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	body := s.decode(rec)
	return session{
		ID:      uint64(body["id"].(float64)),
		Access:  body["access"].(string),
		Refresh: body["refresh"].(string),
	}
}

func validBook(title string) map[string]any {
	return map[string]any{
		"title":           title,
		"author":          "Some Author",
		"publicationYear": 2001,
		"isbn":            "1234567890",
	}
}

func (s *APISuite) createBook(token, title string) map[string]any {
	rec := s.do(http.MethodPost, "/api/books/", validBook(title), token)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return s.decode(rec)
}

func bookPath(b map[string]any) string {
	return fmt.Sprintf("/api/books/%d/", uint64(b["id"].(float64)))
}

// ----- auth -----

func (s *APISuite) TestRegister_NoPasswordAndUsablePair() {
	rec := s.do(http.MethodPost, "/api/auth/register/", map[string]any{
		"username": "alice", "email": "alice@example.com", "password": "secret",
	}, "")
	s.Equal(http.StatusCreated, rec.Code)
	body := s.decode(rec)
	s.NotContains(body, "password")
	s.NotContains(rec.Body.String(), "secret")
	s.Equal("alice", body["username"])
	s.Equal("alice@example.com", body["email"])

	access := body["access"].(string)
	refresh := body["refresh"].(string)
	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/api/books/", validBook("B"), access).Code)
	s.Equal(http.StatusOK, s.do(http.MethodPost, "/api/auth/refresh/", map[string]any{"refresh": refresh}, "").Code)
}

func (s *APISuite) TestRegister_Rejects() {
	s.register("alice")

	rec := s.do(http.MethodPost, "/api/auth/register/", map[string]any{
		"username": "alice", "email": "other@example.com", "password": "x",
	}, "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(s.decode(rec)["error"], "username")

	rec = s.do(http.MethodPost, "/api/auth/register/", map[string]any{
		"username": "bob", "email": "not-an-email", "password": "x",
	}, "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(s.decode(rec)["fields"], "email")

	rec = s.do(http.MethodPost, "/api/auth/register/", map[string]any{"username": "bob"}, "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestLogin() {
	reg := s.register("alice")

	rec := s.do(http.MethodPost, "/api/auth/login/", map[string]any{"username": "alice", "password": "wrong"}, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(map[string]any{"error": "Invalid Credentials"}, s.decode(rec))

	rec = s.do(http.MethodPost, "/api/auth/login/", map[string]any{"username": "nobody", "password": "pa55word"}, "")
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login/", map[string]any{"username": "alice", "password": "pa55word"}, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	s.Equal(float64(reg.ID), body["id"])
	s.Equal("alice", body["username"])
	s.NotEmpty(body["access"])
	s.NotEmpty(body["refresh"])
	s.NotContains(body, "password")
}

func (s *APISuite) TestLogout() {
	sess := s.register("alice")

	rec := s.do(http.MethodPost, "/api/auth/logout/", map[string]any{}, sess.Access)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(map[string]any{"error": "Refresh token not provided"}, s.decode(rec))

	rec = s.do(http.MethodPost, "/api/auth/logout/", map[string]any{"refresh_token": sess.Refresh}, "")
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/logout/", map[string]any{"refresh_token": "garbage"}, sess.Access)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Token is invalid or expired", s.decode(rec)["error"])

	rec = s.do(http.MethodPost, "/api/auth/logout/", map[string]any{"refresh_token": sess.Refresh}, sess.Access)
	s.Equal(http.StatusResetContent, rec.Code)
	s.Equal(map[string]any{"success": true}, s.decode(rec))

	rec = s.do(http.MethodPost, "/api/auth/logout/", map[string]any{"refresh_token": sess.Refresh}, sess.Access)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Token is blacklisted", s.decode(rec)["error"])

	rec = s.do(http.MethodPost, "/api/auth/refresh/", map[string]any{"refresh": sess.Refresh}, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *APISuite) TestRefresh() {
	sess := s.register("alice")

	rec := s.do(http.MethodPost, "/api/auth/refresh/", map[string]any{"refresh": sess.Refresh}, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	access := s.decode(rec)["access"].(string)
	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/api/books/", validBook("B"), access).Code)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/auth/refresh/", map[string]any{}, "").Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/api/auth/refresh/", map[string]any{"refresh": sess.Access}, "").Code)
}

func (s *APISuite) TestInvalidBearerRejectedOnPublicRead() {
	rec := s.do(http.MethodGet, "/api/books/", nil, "not-a-token")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

// ----- books -----

func (s *APISuite) TestCreate_CreatorFromIdentity() {
	alice := s.register("alice")
	body := validBook("Dune")
	body["creator"] = 999
	body["id"] = 12345

	rec := s.do(http.MethodPost, "/api/books/", body, alice.Access)
	s.Require().Equal(http.StatusCreated, rec.Code)
	got := s.decode(rec)
	s.Equal(float64(alice.ID), got["creator"])
	s.NotEqual(float64(12345), got["id"])
	s.Equal([]string{queue.EventBookCreated}, s.events.types())
}

func (s *APISuite) TestCreate_Rejects() {
	alice := s.register("alice")

	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/api/books/", validBook("X"), "").Code)

	bad := validBook("X")
	bad["isbn"] = "12345"
	rec := s.do(http.MethodPost, "/api/books/", bad, alice.Access)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(s.decode(rec)["fields"], "isbn")

	noYear := validBook("X")
	delete(noYear, "publicationYear")
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/books/", noYear, alice.Access).Code)

	long := validBook(string(bytes.Repeat([]byte("t"), 101)))
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/books/", long, alice.Access).Code)

	blank := validBook("   ")
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/books/", blank, alice.Access).Code)

	s.Empty(s.books.books)
}

func (s *APISuite) TestISBNRoundTrip() {
	alice := s.register("alice")
	created := s.createBook(alice.Access, "Round Trip")

	rec := s.do(http.MethodGet, bookPath(created), nil, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("1234567890", s.decode(rec)["isbn"])
}

func (s *APISuite) TestGet_NotFound() {
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/books/42/", nil, "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/books/abc/", nil, "").Code)
}

func (s *APISuite) TestNonOwnerCannotMutate() {
	alice := s.register("alice")
	bob := s.register("bob")
	created := s.createBook(alice.Access, "Mine")
	path := bookPath(created)

	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		rec := s.do(method, path, validBook("Stolen"), bob.Access)
		s.Equal(http.StatusForbidden, rec.Code, method)
	}
	s.Equal(http.StatusForbidden, s.do(http.MethodDelete, path, nil, bob.Access).Code)

	rec := s.do(http.MethodGet, path, nil, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(created, s.decode(rec))
}

func (s *APISuite) TestMutationCheckOrder() {
	alice := s.register("alice")
	bob := s.register("bob")
	created := s.createBook(alice.Access, "Mine")

	// authentication precedes existence
	s.Equal(http.StatusUnauthorized, s.do(http.MethodDelete, "/api/books/999/", nil, "").Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPatch, bookPath(created), map[string]any{"title": "x"}, "").Code)
	// existence precedes ownership
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/api/books/999/", nil, bob.Access).Code)
	// ownership precedes body validation
	s.Equal(http.StatusForbidden, s.do(http.MethodPatch, bookPath(created), map[string]any{"isbn": "bad"}, bob.Access).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPatch, bookPath(created), map[string]any{"isbn": "bad"}, alice.Access).Code)
}

func (s *APISuite) TestUpdate() {
	alice := s.register("alice")
	created := s.createBook(alice.Access, "Draft")
	path := bookPath(created)

	rec := s.do(http.MethodPatch, path, map[string]any{"title": "Final", "creator": 77}, alice.Access)
	s.Require().Equal(http.StatusOK, rec.Code)
	got := s.decode(rec)
	s.Equal("Final", got["title"])
	s.Equal(created["author"], got["author"])
	s.Equal(created["isbn"], got["isbn"])
	s.Equal(float64(alice.ID), got["creator"])

	rec = s.do(http.MethodPut, path, map[string]any{"title": "Only title"}, alice.Access)
	s.Equal(http.StatusBadRequest, rec.Code)

	full := validBook("Rewritten")
	full["isbn"] = "978-0-306-40615-7"
	rec = s.do(http.MethodPut, path, full, alice.Access)
	s.Require().Equal(http.StatusOK, rec.Code)
	got = s.decode(rec)
	s.Equal("Rewritten", got["title"])
	s.Equal("978-0-306-40615-7", got["isbn"])
	s.Equal(created["id"], got["id"])

	s.Equal([]string{queue.EventBookCreated, queue.EventBookUpdated, queue.EventBookUpdated}, s.events.types())
}

func (s *APISuite) TestDeleteOwnBook() {
	alice := s.register("alice")
	created := s.createBook(alice.Access, "Short lived")

	rec := s.do(http.MethodDelete, bookPath(created), nil, alice.Access)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(map[string]any{"message": "Book deleted successfully."}, s.decode(rec))
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, bookPath(created), nil, "").Code)
	s.Contains(s.events.types(), queue.EventBookDeleted)
}

func (s *APISuite) TestPublishFailureDoesNotFailRequest() {
	s.events.err = errStoreDown
	alice := s.register("alice")
	s.createBook(alice.Access, "Still created")
}

func (s *APISuite) TestList_Pagination() {
	alice := s.register("alice")
	for i := 0; i < 12; i++ {
		s.createBook(alice.Access, fmt.Sprintf("Book %02d", i))
	}

	rec := s.do(http.MethodGet, "/api/books/", nil, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	page := s.decode(rec)
	s.Equal(float64(12), page["count"])
	s.Equal("http://example.com/api/books/?page=2", page["next"])
	s.Nil(page["previous"])
	results := page["results"].([]any)
	s.Len(results, 10)
	for i := 1; i < len(results); i++ {
		prev := results[i-1].(map[string]any)["id"].(float64)
		cur := results[i].(map[string]any)["id"].(float64)
		s.Less(prev, cur)
	}

	rec = s.do(http.MethodGet, "/api/books/?page=2", nil, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	page = s.decode(rec)
	s.Len(page["results"], 2)
	s.Nil(page["next"])
	s.Equal("http://example.com/api/books/", page["previous"])

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/books/?page=3", nil, "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/books/?page=abc", nil, "").Code)
}

func (s *APISuite) TestList_EmptyAndNoTrailingSlash() {
	rec := s.do(http.MethodGet, "/api/books", nil, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	page := s.decode(rec)
	s.Equal(float64(0), page["count"])
	s.Equal([]any{}, page["results"])
}

func (s *APISuite) TestStoreFailureIsGeneric400() {
	s.books.fail = errStoreDown
	rec := s.do(http.MethodGet, "/api/books/", nil, "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(map[string]any{"error": "request failed"}, s.decode(rec))
}

// ----- favourites -----

func (s *APISuite) TestFavourites() {
	alice := s.register("alice")
	bob := s.register("bob")
	b1 := s.createBook(bob.Access, "One")
	b2 := s.createBook(bob.Access, "Two")
	fav := func(b map[string]any) string {
		return fmt.Sprintf("/api/favourites/%d/", uint64(b["id"].(float64)))
	}

	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/favourites/", nil, "").Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, fav(b1), nil, "").Code)

	for i := 0; i < 2; i++ {
		rec := s.do(http.MethodPost, fav(b2), nil, alice.Access)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(map[string]any{"success": true}, s.decode(rec))
	}
	s.Equal(http.StatusOK, s.do(http.MethodPost, fav(b1), nil, alice.Access).Code)

	rec := s.do(http.MethodGet, "/api/favourites/", nil, alice.Access)
	s.Require().Equal(http.StatusOK, rec.Code)
	page := s.decode(rec)
	s.Equal(float64(2), page["count"])
	results := page["results"].([]any)
	s.Equal(b1["id"], results[0].(map[string]any)["id"])
	s.Equal(b2["id"], results[1].(map[string]any)["id"])

	// bob's favourites are his own
	rec = s.do(http.MethodGet, "/api/favourites/", nil, bob.Access)
	s.Equal(float64(0), s.decode(rec)["count"])

	s.Equal(http.StatusOK, s.do(http.MethodDelete, fav(b1), nil, alice.Access).Code)
	s.Equal(http.StatusOK, s.do(http.MethodDelete, fav(b1), nil, alice.Access).Code)
	rec = s.do(http.MethodGet, "/api/favourites/", nil, alice.Access)
	s.Equal(float64(1), s.decode(rec)["count"])
}

func (s *APISuite) TestFavourites_NonexistentBook() {
	alice := s.register("alice")

	rec := s.do(http.MethodPost, "/api/favourites/999/", nil, alice.Access)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Book does not exist.", s.decode(rec)["error"])
	s.Equal(http.StatusBadRequest, s.do(http.MethodDelete, "/api/favourites/999/", nil, alice.Access).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/favourites/abc/", nil, alice.Access).Code)

	rec = s.do(http.MethodGet, "/api/favourites/", nil, alice.Access)
	s.Equal(float64(0), s.decode(rec)["count"])
	s.False(s.books.favs[alice.ID][999])
}

// ----- operational -----

func (s *APISuite) TestHealthAndMetrics() {
	rec := s.do(http.MethodGet, "/healthz", nil, "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("ok", rec.Body.String())

	rec = s.do(http.MethodGet, "/metrics", nil, "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "mybooklist_books_created_total")
}

func (s *APISuite) TestUnknownRoute() {
	rec := s.do(http.MethodGet, "/api/nothing/", nil, "")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Contains(s.decode(rec), "error")
}

func (s *APISuite) TestBookBodiesAreTrimmed() {
	alice := s.register("alice")

	created := s.createBook(alice.Access, "  Dune  ")
	s.Equal("Dune", created["title"])
	path := bookPath(created)

	rec := s.do(http.MethodPatch, path, map[string]any{"author": "  Herbert "}, alice.Access)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("Herbert", s.decode(rec)["author"])

	rec = s.do(http.MethodPut, path, validBook(" Children of Dune\t"), alice.Access)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("Children of Dune", s.decode(rec)["title"])

	rec = s.do(http.MethodPatch, path, map[string]any{"title": "   "}, alice.Access)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestMalformedBookBody() {
	alice := s.register("alice")
	created := s.createBook(alice.Access, "Dune")

	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		req := httptest.NewRequest(method, bookPath(created), bytes.NewReader([]byte("{")))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+alice.Access)
		rec := httptest.NewRecorder()
		s.e.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code, method)
		s.Equal(map[string]any{"error": "invalid body"}, s.decode(rec), method)
	}
}

func (s *APISuite) TestUnexpectedFailuresAreGeneric400() {
	s.e.GET("/api/explode/", func(echo.Context) error { panic("boom") })
	s.e.GET("/api/fail/", func(echo.Context) error { return errors.New("raw failure") })

	for _, path := range []string{"/api/explode/", "/api/fail/"} {
		rec := s.do(http.MethodGet, path, nil, "")
		s.Equal(http.StatusBadRequest, rec.Code, path)
		s.Equal(map[string]any{"error": "request failed"}, s.decode(rec), path)
	}
}
