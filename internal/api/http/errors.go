package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/fserr"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusFor maps an operation error onto an HTTP status
func StatusFor(err error) int {
	switch fserr.KindOf(err) {
	case fserr.KindSecurityViolation:
		return http.StatusForbidden
	case fserr.KindDenied, fserr.KindAlreadyExists:
		return http.StatusConflict
	case fserr.KindNotFound:
		return http.StatusNotFound
	case fserr.KindValidation, fserr.KindNotADirectory, fserr.KindIsADirectory:
		return http.StatusBadRequest
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("route", c.FullPath()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err))
	}
	c.JSON(status, ErrorResponse{
		Error:     err.Error(),
		Kind:      fserr.KindOf(err).String(),
		RequestID: middleware.GetRequestID(c),
	})
}

// badRequest reports malformed input that never reached the client
func (h *Handlers) badRequest(c *gin.Context, format string, args ...interface{}) {
	h.fail(c, fserr.Validationf("request", "", format, args...))
}
