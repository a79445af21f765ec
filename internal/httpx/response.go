package httpx

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// ErrorResponse body of every non-2xx answer.
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}

// Abort writes msg as an ErrorResponse and stops the chain.
func Abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, ErrorResponse{Error: msg})
}

// PositiveID parses a path or query value as an id greater than zero.
func PositiveID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
