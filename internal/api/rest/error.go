package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/logger"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	errCodeBadRequest ErrorCode = "bad_request"
	errCodeNotFound   ErrorCode = "not_found"
	errCodeForbidden  ErrorCode = "forbidden"
	errCodeConflict   ErrorCode = "conflict"

	// Server errors (5xx)
	errCodeInternalError ErrorCode = "internal_error"
)

// errorResponse represents a standardized error response
type errorResponse struct {
	Error errorDetail `json:"error"`
}

// errorDetail contains error information
type errorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// domainStatus maps a domain sentinel to its HTTP status and error code
func domainStatus(err error) (int, ErrorCode, bool) {
	switch {
	case errors.Is(err, domain.ErrSegmentNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errCodeNotFound, true
	case errors.Is(err, domain.ErrNotOwned),
		errors.Is(err, domain.ErrNotAllowed),
		errors.Is(err, domain.ErrNotHosting),
		errors.Is(err, domain.ErrNotJoined):
		return http.StatusForbidden, errCodeForbidden, true
	case errors.Is(err, domain.ErrNotMergeable),
		errors.Is(err, domain.ErrAlreadyMerged),
		errors.Is(err, domain.ErrNotEnoughTokens),
		errors.Is(err, domain.ErrCavesLimit),
		errors.Is(err, domain.ErrInvalidCoordinate),
		errors.Is(err, domain.ErrNoImageProvided),
		errors.Is(err, domain.ErrInvalidFileFormat):
		return http.StatusBadRequest, errCodeBadRequest, true
	case errors.Is(err, domain.ErrAlreadyInGame),
		errors.Is(err, domain.ErrBothTokensOwned),
		errors.Is(err, domain.ErrCaveAlreadyExists),
		errors.Is(err, domain.ErrResyncRunning):
		return http.StatusConflict, errCodeConflict, true
	}
	return 0, "", false
}

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...string) {
	response := errorResponse{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	}

	if len(details) > 0 {
		response.Error.Details = details[0]
	}

	c.JSON(statusCode, response)
}

// respondError maps a service error to a stable code/message pair, falling
// back to a logged 500 for anything outside the domain taxonomy
func respondError(c *gin.Context, err error) {
	if status, code, ok := domainStatus(err); ok {
		respondWithError(c, status, code, err.Error())
		return
	}

	logger.Error(err, zap.String("path", c.Request.URL.Path))
	respondWithError(c, http.StatusInternalServerError, errCodeInternalError, "Internal server error")
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusBadRequest, errCodeBadRequest, message, details...)
}
