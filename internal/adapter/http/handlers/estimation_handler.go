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

// EstimationHandler serves the client side of the estimation workflow.
type EstimationHandler struct {
	usecase usecase.IEstimationUseCase
}

func NewEstimationHandler(uc usecase.IEstimationUseCase) *EstimationHandler {
	return &EstimationHandler{usecase: uc}
}

// Create godoc
// @Summary      Create an estimation draft
// @Tags         estimations
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        body  body      request.CreateEstimationRequest  true  "Reason and property attributes"
// @Success      201   {object}  response.EstimationResponse
// @Failure      400   {object}  pkg.HTTPError
// @Router       /estimations [post]
func (h *EstimationHandler) Create(c *gin.Context) {
	var payload request.CreateEstimationRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidRequest.HTTPStatus, errInvalidRequest.ToHTTPError())
		return
	}

	e, err := h.usecase.Create(c.Request.Context(), middleware.CallerFrom(c), payload.ToInput(), middleware.MetaFrom(c))
	if err != nil {
		writeError(c, "estimation", err)
		return
	}
	log.Printf("[estimation][handler] created estimation_id=%s request_id=%s", e.ID, middleware.RequestID(c))
	c.JSON(http.StatusCreated, response.FromEstimation(e))
}

// List godoc
// @Summary      List the caller's estimations
// @Tags         estimations
// @Produce      json
// @Security     Bearer
// @Success      200  {array}  response.EstimationResponse
// @Router       /estimations [get]
func (h *EstimationHandler) List(c *gin.Context) {
	list, err := h.usecase.List(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		writeError(c, "estimation", err)
		return
	}
	c.JSON(http.StatusOK, response.FromEstimations(list))
}

// Get godoc
// @Summary      Get an estimation
// @Tags         estimations
// @Produce      json
// @Security     Bearer
// @Param        id   path      string  true  "Estimation id"
// @Success      200  {object}  response.EstimationResponse
// @Failure      403  {object}  pkg.HTTPError
// @Failure      404  {object}  pkg.HTTPError
// @Router       /estimations/{id} [get]
func (h *EstimationHandler) Get(c *gin.Context) {
	e, err := h.usecase.Get(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, "estimation", err)
		return
	}
	c.JSON(http.StatusOK, response.FromEstimation(e))
}

// UpdateAttributes godoc
// @Summary      Replace the property attributes
// @Description  Refused once the payment is recorded.
// @Tags         estimations
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        id    path      string                              true  "Estimation id"
// @Param        body  body      request.PropertyAttributesRequest  true  "Property attributes"
// @Success      200   {object}  response.EstimationResponse
// @Failure      409   {object}  pkg.HTTPError
// @Router       /estimations/{id}/attributes [put]
func (h *EstimationHandler) UpdateAttributes(c *gin.Context) {
	var payload request.PropertyAttributesRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidRequest.HTTPStatus, errInvalidRequest.ToHTTPError())
		return
	}
	e, err := h.usecase.UpdateAttributes(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), payload.ToEntity())
	if err != nil {
		writeError(c, "estimation", err)
		return
	}
	c.JSON(http.StatusOK, response.FromEstimation(e))
}

// Submit godoc
// @Summary      Submit the draft for validation
// @Tags         estimations
// @Produce      json
// @Security     Bearer
// @Param        id   path      string  true  "Estimation id"
// @Success      200  {object}  response.EstimationResponse
// @Failure      422  {object}  pkg.HTTPError
// @Router       /estimations/{id}/submit [post]
func (h *EstimationHandler) Submit(c *gin.Context) {
	e, err := h.usecase.Submit(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), middleware.MetaFrom(c))
	if err != nil {
		writeError(c, "estimation", err)
		return
	}
	c.JSON(http.StatusOK, response.FromEstimation(e))
}

// Consent godoc
// @Summary      Accept the legal notice
// @Tags         estimations
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        id    path      string                  true  "Estimation id"
// @Param        body  body      request.ConsentRequest  true  "Explicit acceptance"
// @Success      200   {object}  response.EstimationResponse
// @Failure      422   {object}  pkg.HTTPError
// @Router       /estimations/{id}/consent [post]
func (h *EstimationHandler) Consent(c *gin.Context) {
	var payload request.ConsentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidRequest.HTTPStatus, errInvalidRequest.ToHTTPError())
		return
	}
	e, err := h.usecase.AcceptConsent(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), payload.ToInput(), middleware.MetaFrom(c))
	if err != nil {
		writeError(c, "estimation", err)
		return
	}
	c.JSON(http.StatusOK, response.FromEstimation(e))
}

// Cancel godoc
// @Summary      Cancel before payment
// @Tags         estimations
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        id    path      string                 true   "Estimation id"
// @Param        body  body      request.CancelRequest  false  "Reason"
// @Success      200   {object}  response.EstimationResponse
// @Failure      409   {object}  pkg.HTTPError
// @Router       /estimations/{id}/cancel [post]
func (h *EstimationHandler) Cancel(c *gin.Context) {
	var payload request.CancelRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(errInvalidRequest.HTTPStatus, errInvalidRequest.ToHTTPError())
			return
		}
	}
	e, err := h.usecase.Cancel(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), payload.Reason, middleware.MetaFrom(c))
	if err != nil {
		writeError(c, "estimation", err)
		return
	}
	c.JSON(http.StatusOK, response.FromEstimation(e))
}

// Result godoc
// @Summary      Get the valuation range
// @Description  Available once calculated. Each read is recorded in the audit trail.
// @Tags         estimations
// @Produce      json
// @Security     Bearer
// @Param        id   path      string  true  "Estimation id"
// @Success      200  {object}  response.ResultResponse
// @Failure      409  {object}  pkg.HTTPError
// @Router       /estimations/{id}/result [get]
func (h *EstimationHandler) Result(c *gin.Context) {
	e, err := h.usecase.ViewResult(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), middleware.MetaFrom(c))
	if err != nil {
		writeError(c, "estimation", err)
		return
	}
	c.JSON(http.StatusOK, response.FromResult(e))
}

// Report godoc
// @Summary      Get a time-limited report download link
// @Tags         estimations
// @Produce      json
// @Security     Bearer
// @Param        id   path      string  true  "Estimation id"
// @Success      200  {object}  response.ReportLinkResponse
// @Failure      409  {object}  pkg.HTTPError
// @Router       /estimations/{id}/report [get]
func (h *EstimationHandler) Report(c *gin.Context) {
	link, err := h.usecase.DownloadReport(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), middleware.MetaFrom(c))
	if err != nil {
		writeError(c, "estimation", err)
		return
	}
	c.JSON(http.StatusOK, response.FromReportLink(link))
}
