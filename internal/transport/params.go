package transport

import (
	"strconv"

	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/gin-gonic/gin"
)

func idParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, entity.ErrInvalidInput
	}
	return id, nil
}
