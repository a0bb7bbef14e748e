package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/ironpoint/steeltrack-backend/internal/domain/aggregates"
	"github.com/ironpoint/steeltrack-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondError(c *gin.Context, status int, code string, err error) {
	respond(c, apierr.New(status, code, err))
}

// RespondDomainError maps service error codes onto HTTP statuses so handlers
// never inspect errors themselves.
func RespondDomainError(c *gin.Context, err error) {
	code := domainagg.CodeOf(err)
	respond(c, apierr.New(statusForCode(code), string(code), err))
}

func respond(c *gin.Context, e *apierr.Error) {
	msg := e.Error()
	if msg == "" {
		msg = "unknown error"
	}
	c.JSON(e.Status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    e.Code,
		},
	})
}

func statusForCode(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeForbidden:
		return http.StatusForbidden
	case domainagg.CodeInvalidTransition,
		domainagg.CodeLocationLocked,
		domainagg.CodeOverReceipt,
		domainagg.CodeConcurrentModification:
		return http.StatusConflict
	case domainagg.CodeIncompleteReconciliation:
		return http.StatusUnprocessableEntity
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
