package utils

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type PageParams struct {
	Page     int
	PageSize int
}

// ParsePageParams 解析分页查询参数，带默认值与上限保护
func ParsePageParams(c *gin.Context, defaultPage, defaultPageSize, maxPageSize int) PageParams {
	page := defaultPage
	pageSize := defaultPageSize
	if v := strings.TrimSpace(c.Query("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := strings.TrimSpace(c.Query("page_size")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			if n > maxPageSize {
				n = maxPageSize
			}
			pageSize = n
		}
	}
	return PageParams{Page: page, PageSize: pageSize}
}
