package routes

import (
	"juragites_estimation/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathEstimations = "/estimations"
	PathAdmin       = "/admin"
	PathWebhooks    = "/webhooks"
)

func addEstimationRoutes(rg *gin.RouterGroup, h Handlers) {
	estimations := rg.Group(PathEstimations)
	{
		estimations.POST("", h.Estimations.Create)
		estimations.GET("", h.Estimations.List)
		estimations.GET("/:id", h.Estimations.Get)
		estimations.PUT("/:id/attributes", h.Estimations.UpdateAttributes)
		estimations.POST("/:id/submit", h.Estimations.Submit)
		estimations.POST("/:id/consent", h.Estimations.Consent)
		estimations.POST("/:id/cancel", h.Estimations.Cancel)
		estimations.GET("/:id/result", h.Estimations.Result)
		estimations.GET("/:id/report", h.Estimations.Report)

		estimations.POST("/:id/payment", h.Payments.Initiate)
		estimations.POST("/:id/payment/confirm", h.Payments.Confirm)

		estimations.GET("/:id/audit", h.Audit.Trail)
		estimations.GET("/:id/export", h.Audit.Export)
	}
}

func addAdminRoutes(rg *gin.RouterGroup, h Handlers) {
	rules := rg.Group("/rule-versions")
	{
		rules.POST("", h.Rules.Activate)
		rules.GET("", h.Rules.List)
		rules.GET("/active", h.Rules.Active)
		rules.GET("/:number", h.Rules.Get)
	}

	estimations := rg.Group(PathEstimations)
	{
		estimations.POST("/:id/refund", h.Payments.Refund)
		estimations.POST("/:id/finalize", h.Payments.Finalize)
		estimations.GET("/:id/compliance", h.Audit.Compliance)
	}
}

func addWebhookRoutes(rg *gin.RouterGroup, h *handlers.WebhookHandler) {
	webhooks := rg.Group(PathWebhooks)
	webhooks.POST("/mercadopago", h.MercadoPago)
}
