package http

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-generator/internal/adapters/http/dto"
)

// NoRoute answers unknown paths with the standard error envelope.
func NoRoute(c *gin.Context) {
	dto.RespondWithCode(c, dto.ErrorCodeNotFound, "no route for "+c.Request.Method+" "+c.Request.URL.Path)
}

// NoMethod answers known paths requested with an unsupported method.
func NoMethod(c *gin.Context) {
	dto.RespondWithCode(c, dto.ErrorCodeMethodNotAllowed, c.Request.Method+" is not allowed on "+c.Request.URL.Path)
}
