// Package pagination implements page-number pagination for list endpoints:
// resolving ?page and ?page_size, checking the page exists and building the
// {count, next, previous, results} envelope.
package pagination

import (
	"net/url"
	"strconv"

	"github.com/deppfellow/portfolio/internal/config"
	"github.com/deppfellow/portfolio/internal/errs"
)

const (
	PageParam     = "page"
	PageSizeParam = "page_size"
)

// Params is a resolved page request.
type Params struct {
	Page     int
	PageSize int
	// Last is set for ?page=last; Settle replaces Page once the total is known.
	Last bool
}

// Offset is the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit is the number of rows to fetch.
func (p Params) Limit() int {
	return p.PageSize
}

// Page is the list envelope returned to clients.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Paginator resolves page requests against the configured sizes.
type Paginator struct {
	defaultSize int
	maxSize     int
}

func New(cfg config.PaginationConfig) *Paginator {
	return &Paginator{defaultSize: cfg.DefaultPageSize, maxSize: cfg.MaxPageSize}
}

// ErrInvalidPage is returned for pages that do not exist.
func ErrInvalidPage() *errs.HTTPError {
	return errs.NewNotFoundError("Invalid page.", true, nil)
}

// Resolve parses raw query values. A missing or malformed page size falls
// back to the default and a too large one is clamped; a malformed page is
// an error.
func (p *Paginator) Resolve(rawPage, rawSize string) (Params, error) {
	size := p.defaultSize
	if rawSize != "" {
		if n, err := strconv.Atoi(rawSize); err == nil && n > 0 {
			size = min(n, p.maxSize)
		}
	}

	if rawPage == "last" {
		return Params{Page: 1, PageSize: size, Last: true}, nil
	}

	page := 1
	if rawPage != "" {
		n, err := strconv.Atoi(rawPage)
		if err != nil || n < 1 {
			return Params{}, ErrInvalidPage()
		}
		page = n
	}

	return Params{Page: page, PageSize: size}, nil
}

// PageCount returns how many pages total rows span. An empty result still
// has one (empty) page.
func PageCount(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

// Settle fixes the page against the row count: ?page=last becomes the final
// page and a page past the end is an error.
func (p Params) Settle(total int64) (Params, error) {
	pages := PageCount(total, p.PageSize)
	if p.Last {
		p.Page = pages
		p.Last = false
	}
	if p.Page > pages {
		return p, ErrInvalidPage()
	}
	return p, nil
}

// Build assembles the envelope. base is the absolute URL of the current
// request; its other query parameters are preserved in the links.
func Build[T any](base *url.URL, params Params, total int64, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}

	out := Page[T]{Count: total, Results: results}

	if params.Page < PageCount(total, params.PageSize) {
		next := link(base, params.Page+1)
		out.Next = &next
	}
	if params.Page > 1 {
		prev := link(base, params.Page-1)
		out.Previous = &prev
	}

	return out
}

// link rewrites the page parameter. Page 1 is expressed by dropping it.
func link(base *url.URL, page int) string {
	u := *base
	q := u.Query()
	if page <= 1 {
		q.Del(PageParam)
	} else {
		q.Set(PageParam, strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
