package handler

import (
	"github.com/abogadosonline/aoe-api/internal/middleware"
	"github.com/abogadosonline/aoe-api/internal/ratelimit"
	"github.com/abogadosonline/aoe-api/pkg/jwtutil"
	"github.com/labstack/echo/v4"
)

// Routes carries what the route groups need besides the handlers
type Routes struct {
	JWT        *jwtutil.JWTUtil
	BotSecret  string
	BotLimiter ratelimit.Limiter
	// FormLimiter throttles the public forms per client IP; nil disables it
	FormLimiter *middleware.IPRateLimiter
}

// Mount registers every API route on e
func (h *Handler) Mount(e *echo.Echo, r Routes) {
	e.GET("/health", h.HealthCheck)

	api := e.Group("/api")
	optionalAuth := middleware.OptionalJWTMiddleware(r.JWT)

	forms := []echo.MiddlewareFunc{}
	if r.FormLimiter != nil {
		forms = append(forms, r.FormLimiter.Middleware())
	}

	// Authentication
	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Register, forms...)
	authGroup.POST("/login", h.Login, forms...)
	authGroup.POST("/forgot-password", h.ForgotPassword, forms...)
	authGroup.POST("/reset-password", h.ResetPassword, forms...)
	authGroup.GET("/google", h.GoogleLogin)
	authGroup.GET("/google/callback", h.GoogleCallback)

	// Calculators
	calc := api.Group("/calculators")
	calc.GET("/notarial/tramites", h.ListTramites)
	calc.POST("/notarial", h.CalculateNotarial)
	calc.POST("/alcabala", h.CalculateAlcabala)
	calc.POST("/utilidad", h.CalculateUtilidad)
	calc.POST("/consejo-provincial", h.CalculateConsejoProvincial)
	calc.POST("/registro", h.CalculateRegistro)
	calc.POST("/vehicular", h.CalculateVehicular)
	calc.POST("/inmobiliario", h.CalculateInmobiliario)
	api.POST("/calculator-sessions", h.CreateCalculatorSession)

	// Lead capture
	api.POST("/leads", h.CreateLead, forms...)
	api.POST("/contact", h.Contact, forms...)
	api.POST("/lead-magnets/presupuesto", h.SendPresupuesto, forms...)

	// Blog
	api.GET("/blog", h.ListPosts)
	api.GET("/blog/:slug", h.GetPost)

	// Vehicle contracts
	api.POST("/cuv/parse", h.ParseCUV)
	api.POST("/contracts", h.CreateContract, optionalAuth)
	api.GET("/contracts/download", h.DownloadContract)

	// Payments
	pay := api.Group("/payments/payphone")
	pay.POST("/prepare", h.PreparePayment, optionalAuth)
	pay.GET("/status", h.PaymentStatus)
	pay.GET("/callback", h.PaymentCallback)

	// Webhooks
	api.POST("/webhooks/payphone", h.PayPhoneWebhook)
	api.POST("/webhooks/n8n", h.N8NWebhook)

	// Bot API
	botGroup := api.Group("/bot")
	botGroup.Use(middleware.BotAuthMiddleware(r.BotSecret))
	if r.BotLimiter != nil {
		botGroup.Use(middleware.BotRateLimitMiddleware(r.BotLimiter))
	}
	botGroup.POST("/query", h.BotQuery)

	// Account, requires a session
	me := api.Group("/me")
	me.Use(middleware.JWTAuthMiddleware(r.JWT))
	me.GET("", h.GetMe)
	me.PUT("", h.UpdateMe)
	me.DELETE("", h.DeleteMe)
	me.GET("/contracts", h.ListMyContracts)
}
