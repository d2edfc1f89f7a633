package types

// Filter represents query parameters for list endpoints.
type Filter struct {
	Search string `json:"search,omitempty"`
	Limit  uint64 `json:"limit"`
	Offset uint64 `json:"offset"`
}

// Pagination represents pagination metadata returned alongside lists.
type Pagination struct {
	TotalCount uint64 `json:"total_count"`
	Limit      uint64 `json:"limit"`
	Offset     uint64 `json:"offset"`
}
