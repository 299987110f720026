package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Error codes of the JSON error envelope
const (
	ErrNotFound       = "NOT_FOUND"
	ErrBadRequest     = "BAD_REQUEST"
	ErrConflict       = "CONFLICT"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
)

// ErrorResponse is the top-level error response structure
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			RequestID: GetRequestID(c),
		},
	})
}

func notFound(c *gin.Context, message string) {
	requestLogger(c).WithField("path", c.Request.URL.Path).Warn("Resource not found")
	respondError(c, http.StatusNotFound, ErrNotFound, message)
}

func badRequest(c *gin.Context, message string) {
	requestLogger(c).WithFields(logrus.Fields{
		"path":    c.Request.URL.Path,
		"message": message,
	}).Warn("Bad request")
	respondError(c, http.StatusBadRequest, ErrBadRequest, message)
}

func conflict(c *gin.Context, message string) {
	respondError(c, http.StatusConflict, ErrConflict, message)
}

// internalError logs err and sends a generic message
func internalError(c *gin.Context, message string, err error) {
	requestLogger(c).WithError(err).WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).Error("Internal server error")
	respondError(c, http.StatusInternalServerError, ErrInternalServer, message)
}
