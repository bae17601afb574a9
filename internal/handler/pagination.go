package handler

import (
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jackyYam/mybooklist/internal/apperr"
	"github.com/jackyYam/mybooklist/internal/model"
)

// BookPage is a page-number paginated listing.  Next and Previous are
// absolute URLs, or null at either end.
type BookPage struct {
	Count    int          `json:"count"`
	Next     *string      `json:"next"`
	Previous *string      `json:"previous"`
	Results  []model.Book `json:"results"`
}

var errInvalidPage = apperr.NotFound("Invalid page.")

// pageParam reads ?page=N.  Missing means 1; anything that is not a positive
// integer is an invalid page.
func pageParam(c echo.Context) (int, error) {
	raw := c.QueryParam("page")
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errInvalidPage
	}
	return n, nil
}

// checkPage rejects pages past the end.  The first page always exists, even
// when the listing is empty.
func checkPage(page, size, count int) error {
	if page > 1 && (page-1)*size >= count {
		return errInvalidPage
	}
	return nil
}

func newBookPage(c echo.Context, page, size, count int, results []model.Book) BookPage {
	p := BookPage{Count: count, Results: results}
	if page*size < count {
		p.Next = pageURL(c, page+1)
	}
	if page > 1 {
		p.Previous = pageURL(c, page-1)
	}
	return p
}

// pageURL rebuilds the request URL pointing at another page.  The page
// parameter is dropped for page 1.
func pageURL(c echo.Context, page int) *string {
	req := c.Request()
	q := req.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := url.URL{
		Scheme:   c.Scheme(),
		Host:     req.Host,
		Path:     req.URL.Path,
		RawQuery: q.Encode(),
	}
	s := u.String()
	return &s
}
