package handlers

import (
	"errors"
	"log"
	"net/http"

	request "juragites_estimation/internal/adapter/http/dto/request"
	"juragites_estimation/internal/adapter/http/middleware"
	"juragites_estimation/internal/domain/domainerr"
	"juragites_estimation/internal/usecase"
	"juragites_estimation/pkg"

	"github.com/gin-gonic/gin"
)

var errInvalidSignature = pkg.NewDomainErrorSimple("INVALID_SIGNATURE", "Invalid webhook signature", http.StatusUnauthorized)

// SignatureVerifier checks the provider x-signature header.
type SignatureVerifier interface {
	Verify(signatureHeader, requestID, dataID string) error
}

// WebhookHandler receives Mercado Pago notifications. The body is only a hint:
// the payment is re-read from the provider before any state change.
//
// Outcomes the provider cannot fix by retrying are acknowledged with 200.
// Storage faults answer 500 and provider outages 503, so the notification is redelivered.
type WebhookHandler struct {
	usecase  usecase.IPaymentUseCase
	verifier SignatureVerifier
}

func NewWebhookHandler(uc usecase.IPaymentUseCase, verifier SignatureVerifier) *WebhookHandler {
	return &WebhookHandler{usecase: uc, verifier: verifier}
}

// MercadoPago godoc
// @Summary      Mercado Pago payment notification
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        body  body  request.WebhookRequest  true  "Notification"
// @Success      200
// @Failure      401   {object}  pkg.HTTPError
// @Router       /webhooks/mercadopago [post]
func (h *WebhookHandler) MercadoPago(c *gin.Context) {
	var payload request.WebhookRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(errInvalidRequest.HTTPStatus, errInvalidRequest.ToHTTPError())
			return
		}
	}
	queryType := c.Query("type")
	if queryType == "" {
		queryType = c.Query("topic")
	}
	queryID := c.Query("data.id")
	if queryID == "" {
		queryID = c.Query("id")
	}
	n := payload.ToNotification(queryType, queryID)

	if h.verifier != nil {
		if err := h.verifier.Verify(c.GetHeader("x-signature"), c.GetHeader("x-request-id"), n.DataID); err != nil {
			log.Printf("[payment][webhook] signature rejected data_id=%s err=%v", n.DataID, err)
			c.JSON(errInvalidSignature.HTTPStatus, errInvalidSignature.ToHTTPError())
			return
		}
	}

	if n.Type != "payment" || n.DataID == "" {
		log.Printf("[payment][webhook] ignored type=%s data_id=%s", n.Type, n.DataID)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	e, err := h.usecase.HandleWebhook(c.Request.Context(), n, middleware.MetaFrom(c))
	if err != nil {
		if redeliver(err) {
			writeError(c, "payment", err)
			return
		}
		log.Printf("[payment][webhook] acknowledged with error data_id=%s err=%v", n.DataID, err)
		c.JSON(http.StatusOK, gin.H{"status": "acknowledged"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed", "estimation_id": e.ID, "estimation_status": e.Status})
}

func redeliver(err error) bool {
	if errors.Is(err, usecase.ErrCalculationNeedsSupport) {
		return false
	}
	return domainerr.IsSystemFault(err) || errors.Is(err, usecase.ErrPaymentGatewayMissing) || mapError(err).Status() >= http.StatusInternalServerError
}
