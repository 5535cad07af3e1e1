package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"interviewgpt/internal/handler"
	"interviewgpt/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	allowedOrigins []string,
	interviewH *handler.InterviewHandler,
	chatH *handler.ChatHandler,
	extractH *handler.ExtractHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	v1.POST("/extract-text", extractH.ExtractText)
	v1.POST("/chat", chatH.Chat)

	interviews := v1.Group("/interviews")
	interviews.POST("", interviewH.Start)
	interviews.GET("/:id", interviewH.Get)
	interviews.DELETE("/:id", interviewH.End)
	interviews.POST("/:id/messages", interviewH.SendMessage)
	interviews.POST("/:id/retry", interviewH.Retry)
	interviews.GET("/:id/transcript", interviewH.Transcript)

	return r
}
