package paging

// Page is one page of a paginated listing.
// Page is a client-held cursor: requesting a page past the end yields an
// empty Items slice, not an error.
type Page[T any] struct {
	Items []T   `json:"items"`
	Page  int64 `json:"page"`  // Current page number (1-based)
	Limit int64 `json:"limit"` // Number of records per page
	Total int64 `json:"total"` // Total number of records
	Pages int64 `json:"pages"` // Total number of pages
}

// NewPage creates a Page with Pages calculated as ceil(total/limit).
func NewPage[T any](items []T, total, page, limit int64) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: TotalPages(total, limit),
	}
}

// TotalPages returns ceil(total/limit), or 0 when limit is not positive.
func TotalPages(total, limit int64) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Empty reports whether the page holds no items.
func (p *Page[T]) Empty() bool {
	return p == nil || len(p.Items) == 0
}
