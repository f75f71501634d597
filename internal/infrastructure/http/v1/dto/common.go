// Package dto provides data transfer objects for API requests and
// responses.
package dto

// PaginationRequest contains pagination parameters.
type PaginationRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"pageSize" binding:"omitempty,min=1,max=500"`
}

// Defaults sets default pagination values.
func (p *PaginationRequest) Defaults() {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PageSize == 0 {
		p.PageSize = 50
	}
}

// Offset calculates the SQL offset.
func (p *PaginationRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ListResponse wraps list results.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
}

// IDResponse returns a created entity's ID.
type IDResponse struct {
	ID string `json:"id"`
}
