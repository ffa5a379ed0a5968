package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mentneo/mentmine/pkg/observability/logger"
)

// ListResponse wraps a query result.
type ListResponse struct {
	Collection string `json:"collection,omitempty"`
	Count      int    `json:"count"`
	Items      any    `json:"items"`
	RequestID  string `json:"request_id,omitempty"`
}

// List sends a 200 response with items and their count.
func List[T any](c *gin.Context, collection string, items []T) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, ListResponse{
		Collection: collection,
		Count:      len(items),
		Items:      items,
		RequestID:  logger.RequestIDFromContext(c.Request.Context()),
	})
}

// Error records err on the gin context for the logging middleware and sends
// the mapped error response.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := MapError(c.Request.Context(), err)
	c.AbortWithStatusJSON(status, body)
}
