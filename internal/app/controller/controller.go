package controller

import (
	"strconv"

	apperrors "github.com/bizcribe/bizcribe-backend/internal/errors"
	"github.com/gin-gonic/gin"
)

// parseIDParam reads a positive integer path parameter, writing a 400
// response and returning false when it is malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an integer query parameter with a default.
func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
