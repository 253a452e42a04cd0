package handlers

import (
	"net/http"

	response "juragites_estimation/internal/adapter/http/dto/response"
	"juragites_estimation/internal/adapter/http/middleware"
	"juragites_estimation/internal/usecase"

	"github.com/gin-gonic/gin"
)

// AuditHandler exposes the audit trail, the data export and the compliance report.
type AuditHandler struct {
	ledger usecase.IAuditLedger
}

func NewAuditHandler(ledger usecase.IAuditLedger) *AuditHandler {
	return &AuditHandler{ledger: ledger}
}

// Trail godoc
// @Summary      Audit trail of an estimation, in append order
// @Tags         audit
// @Produce      json
// @Security     Bearer
// @Param        id   path      string  true  "Estimation id"
// @Success      200  {object}  response.AuditTrailResponse
// @Router       /estimations/{id}/audit [get]
func (h *AuditHandler) Trail(c *gin.Context) {
	id := c.Param("id")
	events, err := h.ledger.Trail(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		writeError(c, "audit", err)
		return
	}
	c.JSON(http.StatusOK, response.FromAuditTrail(id, events))
}

// Export godoc
// @Summary      Personal data export of an estimation
// @Tags         audit
// @Produce      json
// @Security     Bearer
// @Param        id   path      string  true  "Estimation id"
// @Success      200  {object}  response.ExportResponse
// @Router       /estimations/{id}/export [get]
func (h *AuditHandler) Export(c *gin.Context) {
	rec, err := h.ledger.Export(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, "audit", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="estimation_`+rec.Estimation.ID+`_export.json"`)
	c.JSON(http.StatusOK, response.FromExport(rec))
}

// Compliance godoc
// @Summary      Compliance report of an estimation
// @Tags         admin
// @Produce      json
// @Security     Bearer
// @Param        id   path      string  true  "Estimation id"
// @Success      200  {object}  response.ComplianceResponse
// @Router       /admin/estimations/{id}/compliance [get]
func (h *AuditHandler) Compliance(c *gin.Context) {
	r, err := h.ledger.Compliance(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, "audit", err)
		return
	}
	c.JSON(http.StatusOK, response.FromCompliance(r))
}
