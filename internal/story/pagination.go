package story

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (p Pagination) normalized() Pagination {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

func totalPages(totalItems, pageSize int) int {
	pages := totalItems / pageSize
	if totalItems%pageSize != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return pages
}

// paginate slices an already ordered snapshot.
func paginate[T any](items []T, p Pagination) ([]T, PageInfo) {
	p = p.normalized()
	total := len(items)
	info := PageInfo{
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages(total, p.PageSize),
		TotalItems: total,
	}

	start := (p.Page - 1) * p.PageSize
	if start >= total {
		return []T{}, info
	}
	end := min(start+p.PageSize, total)

	out := make([]T, end-start)
	copy(out, items[start:end])
	info.HasNext = p.Page < info.TotalPages
	return out, info
}
