// Package pagination normalizes page/limit query parameters for list endpoints.
package pagination

const (
	DefaultLimit = 20
	MaxLimit     = 100
	MaxPage      = 10000
)

// Meta is the pagination block of list responses.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Page is a normalized page request.
type Page struct {
	Page  int
	Limit int
}

// Normalize applies defaults: page 1, limit 20, limit capped at 100, page
// capped at MaxPage.
func Normalize(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit}
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta builds the response block for total matching rows.
func (p Page) Meta(total int) Meta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}
	return Meta{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: totalPages}
}
