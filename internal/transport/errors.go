package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func statusFor(kind entity.ErrorKind) int {
	switch kind {
	case entity.KindValidation:
		return http.StatusBadRequest
	case entity.KindAuthorization:
		return http.StatusForbidden
	case entity.KindNotFound:
		return http.StatusNotFound
	case entity.KindInventory, entity.KindState:
		return http.StatusConflict
	case entity.KindConflict:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes domain errors with their kind's status and hides
// everything else behind a 500.
func respondError(c *gin.Context, err error) {
	var domainErr *entity.Error
	if errors.As(err, &domainErr) {
		c.AbortWithStatusJSON(statusFor(domainErr.Kind), ErrorResponse{
			Error: domainErr.Message,
			Code:  domainErr.Code,
		})
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, ErrorResponse{
			Error: "request timed out",
			Code:  "timeout",
		})
		return
	}

	logrus.WithError(err).WithField("path", c.FullPath()).Error("Internal error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error: "internal server error",
		Code:  "internal",
	})
}

func respondBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error: err.Error(),
		Code:  entity.ErrInvalidInput.Code,
	})
}
