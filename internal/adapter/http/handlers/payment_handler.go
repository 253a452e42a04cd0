package handlers

import (
	"log"
	"net/http"

	request "juragites_estimation/internal/adapter/http/dto/request"
	response "juragites_estimation/internal/adapter/http/dto/response"
	"juragites_estimation/internal/adapter/http/middleware"
	"juragites_estimation/internal/usecase"

	"github.com/gin-gonic/gin"
)

// PaymentHandler serves payment initiation and confirmation, plus the admin
// refund and finalize operations.
type PaymentHandler struct {
	usecase usecase.IPaymentUseCase
}

func NewPaymentHandler(uc usecase.IPaymentUseCase) *PaymentHandler {
	return &PaymentHandler{usecase: uc}
}

// Initiate godoc
// @Summary      Pay for an estimation
// @Description  Amount and currency are fixed server-side. A synchronous approval runs the calculation at once.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        id    path      string                          true  "Estimation id"
// @Param        body  body      request.InitiatePaymentRequest  true  "Mercado Pago client fields"
// @Success      200   {object}  response.EstimationResponse
// @Failure      402   {object}  pkg.HTTPError
// @Failure      409   {object}  pkg.HTTPError
// @Router       /estimations/{id}/payment [post]
func (h *PaymentHandler) Initiate(c *gin.Context) {
	id := c.Param("id")
	log.Printf("[payment][handler] initiate start estimation_id=%s request_id=%s", id, middleware.RequestID(c))

	var payload request.InitiatePaymentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			log.Printf("[payment][handler] invalid payload estimation_id=%s err=%v", id, err)
			c.JSON(errInvalidRequest.HTTPStatus, errInvalidRequest.ToHTTPError())
			return
		}
	}

	e, err := h.usecase.Initiate(c.Request.Context(), middleware.CallerFrom(c), id, payload.ToInput(), middleware.MetaFrom(c))
	if err != nil {
		log.Printf("[payment][handler] initiate failed estimation_id=%s err=%v", id, err)
		writeError(c, "payment", err)
		return
	}
	log.Printf("[payment][handler] initiate done estimation_id=%s status=%s payment_status=%s", id, e.Status, e.PaymentStatus)
	c.JSON(http.StatusOK, response.FromEstimation(e))
}

// Confirm godoc
// @Summary      Re-check a pending payment with the provider
// @Tags         payments
// @Produce      json
// @Security     Bearer
// @Param        id   path      string  true  "Estimation id"
// @Success      200  {object}  response.EstimationResponse
// @Router       /estimations/{id}/payment/confirm [post]
func (h *PaymentHandler) Confirm(c *gin.Context) {
	e, err := h.usecase.Confirm(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), middleware.MetaFrom(c))
	if err != nil {
		writeError(c, "payment", err)
		return
	}
	c.JSON(http.StatusOK, response.FromEstimation(e))
}

// Refund godoc
// @Summary      Refund a paid estimation
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        id    path      string                 true  "Estimation id"
// @Param        body  body      request.RefundRequest  true  "Reason"
// @Success      200   {object}  response.EstimationResponse
// @Router       /admin/estimations/{id}/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	var payload request.RefundRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidRequest.HTTPStatus, errInvalidRequest.ToHTTPError())
		return
	}
	e, err := h.usecase.Refund(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), payload.Reason, middleware.MetaFrom(c))
	if err != nil {
		writeError(c, "payment", err)
		return
	}
	c.JSON(http.StatusOK, response.FromEstimation(e))
}

// Finalize godoc
// @Summary      Resume calculation and report generation of a paid estimation
// @Tags         admin
// @Produce      json
// @Security     Bearer
// @Param        id   path      string  true  "Estimation id"
// @Success      200  {object}  response.EstimationResponse
// @Router       /admin/estimations/{id}/finalize [post]
func (h *PaymentHandler) Finalize(c *gin.Context) {
	e, err := h.usecase.Finalize(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), middleware.MetaFrom(c))
	if err != nil {
		writeError(c, "payment", err)
		return
	}
	c.JSON(http.StatusOK, response.FromEstimation(e))
}
