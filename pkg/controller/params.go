package controller

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mentneo/mentmine/pkg/query"
)

// ParseLimit parses an optional non-negative limit. An empty value means no limit.
func ParseLimit(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, NewValidationError("validation.limit", "limit must be a non-negative integer", map[string]any{"limit": raw})
	}
	return query.Limit(n), nil
}

// ParseBool parses an optional boolean flag; empty means false.
func ParseBool(name, raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, NewValidationError("validation."+name, name+" must be a boolean", map[string]any{name: raw})
	}
	return b, nil
}

// ParseQueryConfig reads repeated where expressions, sort and limit, for example
// ?where=featured=true&where=price>=100&sort=-price&limit=3.
// The literal "now" in a where value resolves to the now argument.
func ParseQueryConfig(c *gin.Context, now time.Time) (query.Config, error) {
	limit, err := ParseLimit(c.Query("limit"))
	if err != nil {
		return query.Config{}, err
	}

	filters := query.Filters{}
	for _, expr := range c.QueryArray("where") {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		field, cond, err := query.ParseExpressionAt(expr, now)
		if err != nil {
			return query.Config{}, NewValidationError("validation.where", err.Error(), map[string]any{"where": expr})
		}
		filters[field] = cond
	}

	return query.Config{
		Filters:   filters,
		SortField: strings.TrimSpace(c.Query("sort")),
		Limit:     limit,
	}, nil
}
