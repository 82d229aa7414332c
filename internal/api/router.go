package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"firmflow/pkg/rbac"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *AuthHandler,
	webhookHandler *WebhookHandler,
	flowHandler *FlowHandler,
	todoHandler *TodoHandler,
	jwtSecret string,
) *Router {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())

	// Ops
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/readyz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/webhook/emails", webhookHandler.HandleInboundEmails)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.GET("/todos", todoHandler.GetTodos)

		flows := auth.Group("/flows")
		flows.POST("/email/classify", RequirePermission(rbac.PermissionRunEmailFlows), flowHandler.ClassifyEmail)
		flows.POST("/email/draft", RequirePermission(rbac.PermissionRunEmailFlows), flowHandler.DraftEmail)
		flows.POST("/schedule", RequirePermission(rbac.PermissionRunScheduling), flowHandler.ScheduleBatch)
		flows.POST("/invoice", RequirePermission(rbac.PermissionRunInvoiceFlow), flowHandler.DraftInvoice)
		flows.POST("/leave", RequirePermission(rbac.PermissionRunLeaveFlow), flowHandler.PlanLeave)
		flows.POST("/review", RequirePermission(rbac.PermissionRunReviewFlow), flowHandler.ReviewEmployee)
		flows.POST("/reallocate", RequirePermission(rbac.PermissionRunReallocation), flowHandler.ReallocateWork)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
