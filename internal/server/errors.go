package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// Error codes returned in the error envelope.
const (
	CodeInvalidBody      = "INVALID_BODY"
	CodeValidation       = "VALIDATION_ERROR"
	CodeImport           = "IMPORT_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInvalidToken     = "INVALID_REFRESH_TOKEN"
	CodeInternal         = "INTERNAL_ERROR"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeNotFound         = "NOT_FOUND"
)

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorResponse wraps ErrorBody as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// abort writes an error envelope and stops the handler chain.
func abort(c *gin.Context, status int, code string, msgAndArgs ...any) {
	msg := ""
	if len(msgAndArgs) == 1 {
		msg = fmt.Sprintf("%v", msgAndArgs[0])
	}
	if len(msgAndArgs) > 1 {
		msg = fmt.Sprintf(msgAndArgs[0].(string), msgAndArgs[1:]...)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: msg}})
}
