package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arcanaland/corvid/internal/archive"
	"github.com/arcanaland/corvid/internal/deck"
	"github.com/arcanaland/corvid/internal/oracle"
	"github.com/arcanaland/corvid/internal/validator"
)

const (
	codeValidation  = "validation_error"
	codeNotFound    = "not_found"
	codeUnavailable = "upstream_unavailable"
	codeTimeout     = "upstream_timeout"
	codeUpstream    = "upstream_failure"
	codeUnexpected  = "unexpected_error"
	codeStorage     = "storage_unavailable"
	codeInternal    = "internal_error"
)

// apiError is the body of every error response
type apiError struct {
	Code   string           `json:"code"`
	Detail string           `json:"detail"`
	Fields validator.Errors `json:"fields,omitempty"`
}

// classify maps an error onto a status and response body
func classify(err error) (int, apiError) {
	var fieldErrs validator.Errors
	if errors.As(err, &fieldErrs) {
		return http.StatusUnprocessableEntity, apiError{Code: codeValidation, Detail: fieldErrs.Error(), Fields: fieldErrs}
	}

	var notFound *deck.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound, apiError{Code: codeNotFound, Detail: notFound.Error()}
	}

	switch {
	case errors.Is(err, oracle.ErrUnavailable):
		return http.StatusServiceUnavailable, apiError{Code: codeUnavailable, Detail: err.Error()}
	case errors.Is(err, oracle.ErrTimeout):
		return http.StatusGatewayTimeout, apiError{Code: codeTimeout, Detail: "AI interpretation request timed out"}
	case errors.Is(err, oracle.ErrUpstream):
		return http.StatusBadGateway, apiError{Code: codeUpstream, Detail: "AI model request failed: " + err.Error()}
	case errors.Is(err, oracle.ErrUnexpected):
		return http.StatusInternalServerError, apiError{Code: codeUnexpected, Detail: "AI interpretation error: " + err.Error()}
	case errors.Is(err, archive.ErrStorage):
		return http.StatusInternalServerError, apiError{Code: codeStorage, Detail: err.Error()}
	}

	return http.StatusInternalServerError, apiError{Code: codeInternal, Detail: "internal server error"}
}

// fail aborts the request with the response classify picks for err
func (s *Server) fail(c *gin.Context, err error) {
	status, body := classify(err)

	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("code", body.Code),
			zap.String(requestIDKey, c.GetString(requestIDKey)),
			zap.Error(err),
		)
	}

	c.AbortWithStatusJSON(status, body)
}
