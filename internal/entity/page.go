package entity

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// ListParams selects a page of URLs, optionally filtered by a search term.
type ListParams struct {
	Search string
	Page   int
	Limit  int
}

// Pagination describes where a page sits in the filtered result set.
type Pagination struct {
	TotalCount      int
	TotalPages      int
	CurrentPage     int
	HasNextPage     bool
	HasPreviousPage bool
}

// URLPage is a single page of URLs ordered by creation time, newest first.
type URLPage struct {
	URLs       []URL
	Pagination Pagination
}
