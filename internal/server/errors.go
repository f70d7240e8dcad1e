package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/merchflow/merchflow/internal/billing/domain"
	merchantdomain "github.com/merchflow/merchflow/internal/merchant/domain"
	offeringdomain "github.com/merchflow/merchflow/internal/offering/domain"
	subscriptiondomain "github.com/merchflow/merchflow/internal/subscription/domain"
	"github.com/merchflow/merchflow/pkg/log"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		if status >= http.StatusInternalServerError {
			log.L(c.Request.Context()).Error("request failed",
				zap.String("path", c.FullPath()),
				zap.Error(lastErr.Err),
			)
		}
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	var validationErrs *ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  validationErrs.Errors,
		}
	}

	switch {
	case errors.Is(err, merchantdomain.ErrMerchantNotFound),
		errors.Is(err, offeringdomain.ErrOfferingNotFound),
		errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound),
		errors.Is(err, billingdomain.ErrBillingRecordNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: err.Error()}

	case errors.Is(err, merchantdomain.ErrDuplicateMerchant),
		errors.Is(err, offeringdomain.ErrDuplicateOffering),
		errors.Is(err, subscriptiondomain.ErrAlreadyCancelled),
		errors.Is(err, billingdomain.ErrInvalidTransition):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: err.Error()}

	case errors.Is(err, merchantdomain.ErrInvalidName),
		errors.Is(err, merchantdomain.ErrInvalidEmail),
		errors.Is(err, merchantdomain.ErrInvalidStatus),
		errors.Is(err, offeringdomain.ErrInvalidCode),
		errors.Is(err, offeringdomain.ErrInvalidName),
		errors.Is(err, offeringdomain.ErrInvalidListPrice),
		errors.Is(err, subscriptiondomain.ErrInvalidMerchant),
		errors.Is(err, subscriptiondomain.ErrInvalidOffering),
		errors.Is(err, subscriptiondomain.ErrInvalidQuantity),
		errors.Is(err, subscriptiondomain.ErrInvalidStartDate),
		errors.Is(err, subscriptiondomain.ErrOfferingInactive),
		errors.Is(err, billingdomain.ErrInvalidMerchant):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: err.Error()}
	}

	return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal error"}
}
