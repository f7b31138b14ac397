package shared

import (
	"net/http"
	"strconv"
)

// Pagination is a limit/offset window read from the query string.
type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination ignores malformed values and caps limit at maxLimit when
// maxLimit is positive.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	q := r.URL.Query()
	p := Pagination{Limit: defaultLimit}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		p.Offset = v
	}
	if maxLimit > 0 {
		p.Limit = min(p.Limit, maxLimit)
	}
	return p
}

// Previous returns the offset of the window before p, if there is one.
func (p Pagination) Previous() (int, bool) {
	if p.Offset == 0 {
		return 0, false
	}
	return max(p.Offset-p.Limit, 0), true
}

// Following returns the offset of the window after p when total rows remain.
func (p Pagination) Following(total int) (int, bool) {
	next := p.Offset + p.Limit
	return next, next < total
}
