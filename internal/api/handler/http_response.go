package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pix-disbursement-service/internal/api/middleware"
	"github.com/pix-disbursement-service/internal/domain/company"
	"github.com/pix-disbursement-service/internal/domain/installment"
	"github.com/pix-disbursement-service/internal/domain/invoice"
	"github.com/pix-disbursement-service/internal/domain/shared"
)

// Response represents a standard API response
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewResponse creates a new response with data
func NewResponse(data interface{}) *Response {
	return &Response{
		Data: data,
	}
}

// NewErrorResponse creates a new error response
func NewErrorResponse(code, message string) *Response {
	return &Response{
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// RespondWithData sends a JSON response with data
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	response := NewResponse(data)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondWithError sends a JSON response with an error
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	response := NewErrorResponse(code, message)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondCreated sends a 201 Created response with data
func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

// RespondNoContent sends a 204 No Content response
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RespondBadRequest sends a 400 Bad Request response with an error
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// RespondNotFound sends a 404 Not Found response with an error
func RespondNotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, "NOT_FOUND", message)
}

// RespondConflict sends a 409 Conflict response with an error
func RespondConflict(c *gin.Context, message string) {
	RespondWithError(c, http.StatusConflict, "CONFLICT", message)
}

// RespondInternalError sends a 500 Internal Server Error response with an error
func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}

// RespondDomainError maps a lifecycle error to the HTTP status its class
// deserves. Typed not-found errors map to 404, duplicate sends and the paid
// immutability guard map to 409, and tagged business errors map by kind:
// validation to 400, configuration to 422, conflict to 409, transport to 502.
func RespondDomainError(c *gin.Context, err error) {
	var (
		instNotFound    installment.ErrInstallmentNotFound
		invNotFound     invoice.ErrInvoiceNotFound
		compNotFound    company.ErrCompanyNotFound
		journalNotFound company.ErrJournalNotFound
		accNotFound     company.ErrBankAccountNotFound
		alreadySent     installment.ErrAlreadySent
	)

	switch {
	case errors.As(err, &instNotFound),
		errors.As(err, &invNotFound),
		errors.As(err, &compNotFound),
		errors.As(err, &journalNotFound),
		errors.As(err, &accNotFound):
		RespondNotFound(c, err.Error())
	case errors.As(err, &alreadySent), errors.Is(err, installment.ErrPaidImmutable):
		RespondConflict(c, err.Error())
	default:
		switch shared.KindOf(err) {
		case shared.ErrorKindValidation:
			RespondBadRequest(c, err.Error())
		case shared.ErrorKindConfig:
			RespondWithError(c, http.StatusUnprocessableEntity, "CONFIGURATION", err.Error())
		case shared.ErrorKindConflict:
			RespondConflict(c, err.Error())
		case shared.ErrorKindTransport:
			RespondWithError(c, http.StatusBadGateway, "GATEWAY_UNAVAILABLE", err.Error())
		default:
			RespondInternalError(c)
		}
	}
}
