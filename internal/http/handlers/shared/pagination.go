package shared

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NormalizePagination 页码从 1 开始，每页默认 20 条，最多 100 条
func NormalizePagination(page, pageSize int) (int, int) {
	page = max(page, 1)
	if pageSize <= 0 {
		return page, defaultPageSize
	}
	return page, min(pageSize, maxPageSize)
}
