package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fx-rate-api/internal/logger"
	"fx-rate-api/internal/middleware"
	"fx-rate-api/internal/models"
	"fx-rate-api/internal/ratelimit"
	"fx-rate-api/internal/service"
)

const serviceVersion = "1.0.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	logger       *logger.Logger
	ratesService *service.RatesService
	rateLimiter  *ratelimit.Limiter
	startTime    time.Time
}

// HandlerConfig bundles the handler dependencies
type HandlerConfig struct {
	Logger       *logger.Logger
	RatesService *service.RatesService
	RateLimiter  *ratelimit.Limiter
}

// NewHandlers creates a new handlers instance
func NewHandlers(handlerConfig HandlerConfig) *Handlers {
	return &Handlers{
		logger:       handlerConfig.Logger,
		ratesService: handlerConfig.RatesService,
		rateLimiter:  handlerConfig.RateLimiter,
		startTime:    time.Now(),
	}
}

var registerValidationsOnce sync.Once

// registerValidations installs the custom "currency" binding tag on gin's
// validator engine.
func registerValidations() {
	registerValidationsOnce.Do(func() {
		if engine, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = engine.RegisterValidation("currency", func(fieldLevel validator.FieldLevel) bool {
				_, valid := models.ParseCurrencyCode(fieldLevel.Field().String())
				return valid
			})
		}
	})
}

// SetupRoutes configures all the routes using Gin
func (handlers *Handlers) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	registerValidations()

	router := gin.New()

	router.Use(middleware.RequestLogger(handlers.logger))
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestID())
	router.Use(handlers.corsMiddleware())

	if handlers.rateLimiter != nil {
		router.Use(handlers.rateLimitMiddleware())
	}

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/rate", handlers.GetRate)
		apiV1.GET("/convert", handlers.Convert)
	}

	return router
}

// HealthCheck handles health check requests
func (handlers *Handlers) HealthCheck(context *gin.Context) {
	context.JSON(http.StatusOK, models.HealthCheck{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   serviceVersion,
		Uptime:    time.Since(handlers.startTime).Round(time.Second).String(),
	})
}

// GetRate handles GET /api/v1/rate?base=USD&target=EUR
func (handlers *Handlers) GetRate(context *gin.Context) {
	var query models.RateQuery
	if bindError := context.ShouldBindQuery(&query); bindError != nil {
		handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid_currency_code", bindError.Error())
		return
	}

	rateResponse, serviceError := handlers.ratesService.GetRate(context.Request.Context(), query.Base, query.Target)
	if serviceError != nil {
		handlers.writeServiceError(context, serviceError)
		return
	}

	context.JSON(http.StatusOK, rateResponse)
}

// Convert handles GET /api/v1/convert?amount=100&from=USD&to=EUR
func (handlers *Handlers) Convert(context *gin.Context) {
	var query models.ConvertQuery
	if bindError := context.ShouldBindQuery(&query); bindError != nil {
		handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid_amount", bindError.Error())
		return
	}

	convertResponse, serviceError := handlers.ratesService.Convert(context.Request.Context(), *query.Amount, query.From, query.To)
	if serviceError != nil {
		handlers.writeServiceError(context, serviceError)
		return
	}

	context.JSON(http.StatusOK, convertResponse)
}

// writeServiceError maps a typed service failure to its HTTP status
func (handlers *Handlers) writeServiceError(context *gin.Context, serviceError error) {
	kind := service.KindOf(serviceError)
	handlers.writeErrorResponse(context, statusForErrorKind(kind), kind.String(), serviceError.Error())
}

// statusForErrorKind maps service error kinds to HTTP status codes
func statusForErrorKind(kind service.ErrorKind) int {
	switch kind {
	case service.ErrorKindInvalidCurrencyCode, service.ErrorKindInvalidAmount:
		return http.StatusBadRequest
	case service.ErrorKindUnknownCurrencyCode:
		return http.StatusNotFound
	case service.ErrorKindProviderTimeout:
		return http.StatusGatewayTimeout
	case service.ErrorKindProviderUnavailable, service.ErrorKindProviderBadResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeErrorResponse writes an error response using Gin context
func (handlers *Handlers) writeErrorResponse(context *gin.Context, statusCode int, errorMessage, errorDetails string) {
	context.JSON(statusCode, models.ErrorResponse{
		Error:   errorMessage,
		Message: errorDetails,
		Code:    statusCode,
	})
}

// corsMiddleware adds CORS headers using Gin middleware
func (handlers *Handlers) corsMiddleware() gin.HandlerFunc {
	return func(context *gin.Context) {
		context.Header("Access-Control-Allow-Origin", "*")
		context.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		context.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if context.Request.Method == http.MethodOptions {
			context.AbortWithStatus(http.StatusOK)
			return
		}

		context.Next()
	}
}

// rateLimitMiddleware provides rate limiting using Gin middleware
func (handlers *Handlers) rateLimitMiddleware() gin.HandlerFunc {
	return func(context *gin.Context) {
		clientIP := handlers.rateLimiter.GetClientIP(context.Request)

		if !handlers.rateLimiter.Allow(clientIP) {
			handlers.logger.Warnf("Rate limit exceeded for IP: %s", clientIP)
			context.Header("X-RateLimit-Limit", strconv.Itoa(handlers.rateLimiter.Limit()))
			context.Header("X-RateLimit-Remaining", "0")
			context.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(handlers.rateLimiter.Window()).Unix(), 10))
			context.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			context.Abort()
			return
		}

		context.Next()
	}
}
