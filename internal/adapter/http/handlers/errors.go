package handlers

import (
	"errors"
	"log"
	"net/http"

	"juragites_estimation/internal/domain/domainerr"
	"juragites_estimation/internal/usecase"
	"juragites_estimation/pkg"

	"github.com/gin-gonic/gin"
)

var (
	errInvalidRequest = pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	errInternal       = pkg.NewDomainErrorSimple("INTERNAL_ERROR", "An internal error occurred", http.StatusInternalServerError)
)

// mapError turns usecase and domain errors into the HTTP error shape.
// System faults keep a generic message; the cause only goes to the logs.
func mapError(err error) *pkg.AppError {
	var (
		validation *domainerr.ValidationError
		transition *domainerr.StateTransitionError
		payment    *domainerr.PaymentError
	)
	switch {
	case errors.Is(err, usecase.ErrCalculationNeedsSupport):
		return pkg.NewDomainError("CALCULATION_NEEDS_SUPPORT", usecase.ErrCalculationNeedsSupport.Error(), err, http.StatusInternalServerError)
	case errors.Is(err, usecase.ErrInvalidEstimationID), errors.Is(err, usecase.ErrInvalidVersionNum), errors.Is(err, usecase.ErrInvalidPaymentPayload):
		return pkg.NewDomainError(errInvalidRequest.Code, errInvalidRequest.Message, err, http.StatusBadRequest)
	case errors.As(err, &validation):
		return pkg.NewDomainError("VALIDATION_ERROR", validation.Error(), err, http.StatusUnprocessableEntity)
	case errors.Is(err, usecase.ErrConsentNotAccepted), errors.Is(err, usecase.ErrMissingConsentIP):
		return pkg.NewDomainError("CONSENT_REQUIRED", err.Error(), err, http.StatusUnprocessableEntity)
	case errors.Is(err, usecase.ErrForbidden):
		return pkg.NewDomainError("FORBIDDEN", "Access to this estimation is not allowed", err, http.StatusForbidden)
	case errors.Is(err, usecase.ErrEstimationNotFound):
		return pkg.NewDomainError("ESTIMATION_NOT_FOUND", "Estimation not found", err, http.StatusNotFound)
	case errors.Is(err, usecase.ErrRuleVersionNotFound):
		return pkg.NewDomainError("RULE_VERSION_NOT_FOUND", "Rule version not found", err, http.StatusNotFound)
	case errors.Is(err, usecase.ErrResultNotAvailable):
		return pkg.NewDomainError("RESULT_NOT_AVAILABLE", "The result is not available yet", err, http.StatusConflict)
	case errors.Is(err, usecase.ErrReportNotAvailable):
		return pkg.NewDomainError("REPORT_NOT_AVAILABLE", "The report is not available yet", err, http.StatusConflict)
	case errors.As(err, &transition):
		return pkg.NewDomainError("INVALID_STATE_TRANSITION", transition.Error(), err, http.StatusConflict)
	case errors.Is(err, usecase.ErrPaymentReferenceMismatch), errors.Is(err, usecase.ErrPaymentAmountMismatch), errors.Is(err, usecase.ErrPaymentNotCompleted):
		return pkg.NewDomainError("PAYMENT_CONFLICT", err.Error(), err, http.StatusConflict)
	case errors.Is(err, domainerr.ErrProviderUnavailable):
		return pkg.NewDomainError("PAYMENT_UNAVAILABLE", "The payment provider is unavailable, please retry later", err, http.StatusServiceUnavailable)
	case errors.As(err, &payment):
		return pkg.NewDomainError("PAYMENT_FAILED", "The payment could not be completed: "+payment.Reason, err, http.StatusPaymentRequired)
	case errors.Is(err, usecase.ErrPaymentGatewayMissing):
		return pkg.NewDomainError("PAYMENT_UNAVAILABLE", "Payments are temporarily unavailable", err, http.StatusServiceUnavailable)
	default:
		return pkg.NewDomainError(errInternal.Code, errInternal.Message, err, http.StatusInternalServerError)
	}
}

func writeError(c *gin.Context, scope string, err error) {
	appErr := mapError(err)
	if appErr.Status() >= http.StatusInternalServerError {
		log.Printf("[%s][handler] failed path=%s status=%d err=%v", scope, c.FullPath(), appErr.Status(), err)
	}
	c.JSON(appErr.Status(), appErr.ToHTTPError())
}
