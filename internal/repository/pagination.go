package repository

import "gorm.io/gorm"

// applyPagination pageSize 不大于 0 表示不分页，page 小于 1 按第一页处理
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	return query.Offset((max(page, 1) - 1) * pageSize).Limit(pageSize)
}
