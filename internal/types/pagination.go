package types

// PaginationResponse carries pagination info in list responses
type PaginationResponse struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListResponse is a generic wrapper for paginated list responses
type ListResponse[T any] struct {
	Items      []T                `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
}

// NewListResponse creates a new list response with pagination
func NewListResponse[T any](items []T, total, limit, offset int) ListResponse[T] {
	return ListResponse[T]{
		Items: items,
		Pagination: PaginationResponse{
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	}
}
