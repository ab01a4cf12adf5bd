package handlers

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse writes the error envelope every handler shares. Guard and
// resolver failures map onto it via the respond* helpers in stream_handler.
func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
