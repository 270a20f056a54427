// internal/utils/pagination.go
package utils

import (
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	defaultSortField = "created_at"
)

type PaginationParams struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Sort   string `json:"sort"`
	Order  string `json:"order"`
	Search string `json:"search"`
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
	Data       interface{} `json:"data"`
}

// GetPaginationParams reads page, limit, sort, order and search from the
// query string. Out-of-range values fall back to the defaults.
func GetPaginationParams(c *gin.Context) PaginationParams {
	params := PaginationParams{
		Page:   1,
		Limit:  defaultPageLimit,
		Sort:   c.DefaultQuery("sort", defaultSortField),
		Order:  "desc",
		Search: c.Query("search"),
	}

	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		params.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 && limit <= maxPageLimit {
		params.Limit = limit
	}
	if c.Query("order") == "asc" {
		params.Order = "asc"
	}
	return params
}

// Offset is the number of rows before the requested page.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// ApplyPagination leaves the query unbounded when no limit is set.
func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	if params.Limit <= 0 {
		return db
	}
	return db.Offset(params.Offset()).Limit(params.Limit)
}

// ApplySort orders by params.Sort when it is one of allowed, otherwise by
// creation time. Column names never come straight from the request.
func ApplySort(db *gorm.DB, params PaginationParams, allowed []string) *gorm.DB {
	field := defaultSortField
	if slices.Contains(allowed, params.Sort) {
		field = params.Sort
	}

	direction := "desc"
	if params.Order == "asc" {
		direction = "asc"
	}
	return db.Order(field + " " + direction)
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	totalPages := 1
	if params.Limit > 0 {
		limit := int64(params.Limit)
		totalPages = int((total + limit - 1) / limit)
	}

	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		Data:       data,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	headers := map[string]string{
		"X-Total-Count": strconv.FormatInt(result.Total, 10),
		"X-Page":        strconv.Itoa(result.Page),
		"X-Per-Page":    strconv.Itoa(result.Limit),
		"X-Total-Pages": strconv.Itoa(result.TotalPages),
	}
	for name, value := range headers {
		c.Header(name, value)
	}
}
