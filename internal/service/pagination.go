package service

import "github.com/straye-as/finance-api/internal/domain"

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// normalizePage clamps page to >= 1 and pageSize to [1, maxPageSize]
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// paginate slices items after in-memory filtering and wraps them in a PaginatedResponse
func paginate[T any](items []T, page, pageSize int) *domain.PaginatedResponse {
	page, pageSize = normalizePage(page, pageSize)
	total := len(items)

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	return &domain.PaginatedResponse{
		Data:       items[start:end],
		Total:      int64(total),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
