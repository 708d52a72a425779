package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/erp/vatchallan/internal/domain/challan"
	"github.com/erp/vatchallan/internal/interfaces/http/dto"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "X-Request-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	if id := c.GetHeader(RequestIDKey); id != "" {
		return id
	}
	return ""
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	statusCode := dto.GetHTTPStatus(code)
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// UnprocessableEntity sends a 422 unprocessable entity response
func (h *BaseHandler) UnprocessableEntity(c *gin.Context, code, message string) {
	h.Error(c, http.StatusUnprocessableEntity, code, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindingError sends a 400 validation response built from a gin binding
// failure. Field-level details are extracted when the underlying error is a
// validator.ValidationErrors.
func (h *BaseHandler) BindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]dto.ValidationDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, dto.ValidationDetail{
				Field:   fe.Field(),
				Message: fe.Tag(),
			})
		}
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Request validation failed",
			getRequestID(c),
			details,
		))
		return
	}
	h.BadRequest(c, err.Error())
}

// sentinelCode maps a domain sentinel error to an API error code. The bool is
// false for errors the mapping does not know.
func sentinelCode(err error) (string, bool) {
	switch {
	case errors.Is(err, challan.ErrRetailerNotFound),
		errors.Is(err, challan.ErrBranchNotFound),
		errors.Is(err, challan.ErrInvoiceNotFound):
		return dto.ErrCodeNotFound, true

	case errors.Is(err, challan.ErrConfigNotFound):
		return dto.ErrCodeConfigMissing, true
	case errors.Is(err, challan.ErrConfigDisabled),
		errors.Is(err, challan.ErrConfigMissingBaseURL),
		errors.Is(err, challan.ErrConfigMissingClientID),
		errors.Is(err, challan.ErrConfigMissingSecret):
		return dto.ErrCodeConfigIncomplete, true

	case errors.Is(err, challan.ErrZoneNotFound),
		errors.Is(err, challan.ErrDivisionNotFound),
		errors.Is(err, challan.ErrCircleNotFound),
		errors.Is(err, challan.ErrCommissionRateNotFound),
		errors.Is(err, challan.ErrServiceTypeNotFound),
		errors.Is(err, challan.ErrDivisionOutsideZone),
		errors.Is(err, challan.ErrCircleOutsideDivision),
		errors.Is(err, challan.ErrRateOutsideSelection):
		return dto.ErrCodeJurisdictionInvalid, true

	case errors.Is(err, challan.ErrRetailerNotRegistered),
		errors.Is(err, challan.ErrParentNotRegistered):
		return dto.ErrCodeNotRegistered, true

	case errors.Is(err, challan.ErrDocumentEmpty),
		errors.Is(err, challan.ErrDocumentCategory),
		errors.Is(err, challan.ErrReturnAmountInvalid):
		return dto.ErrCodeInvalidInput, true

	case errors.Is(err, challan.ErrInvoiceNotSyncable),
		errors.Is(err, challan.ErrInvoiceNotReturnable),
		errors.Is(err, challan.ErrInvoiceNotSynced):
		return dto.ErrCodeInvalidState, true

	case errors.Is(err, challan.ErrReturnExceedsInvoice):
		return dto.ErrCodeReturnExceedsInvoice, true

	case errors.Is(err, challan.ErrAuthorityUnavailable):
		return dto.ErrCodeAuthorityUnavailable, true
	case errors.Is(err, challan.ErrAuthorityRequestFailed):
		return dto.ErrCodeAuthorityRejected, true
	case errors.Is(err, challan.ErrAuthorityInvalidResponse):
		return dto.ErrCodeAuthorityResponse, true
	case errors.Is(err, challan.ErrAuthorityAuthFailed):
		return dto.ErrCodeAuthorityAuth, true
	}
	return "", false
}

// HandleError converts domain errors to HTTP responses. Sentinel errors carry
// their own message; everything else is reported as an internal error without
// leaking details.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	requestID := getRequestID(c)

	if code, ok := sentinelCode(err); ok {
		c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, err.Error(), requestID))
		return
	}

	var domainErr *challan.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}
