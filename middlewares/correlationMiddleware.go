package middlewares

import (
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const correlationHeader = "X-Correlation-Id"

// CorrelationMiddleware tags every request with a correlation id so log
// lines from one request can be stitched together. Callers may supply
// their own id; otherwise one is minted.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.Request.Header.Get(correlationHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), cid)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(correlationHeader, cid)
		c.Next()
	}
}
