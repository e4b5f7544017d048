package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/recipevault-backend/internal/handlers"
	"github.com/yungbote/recipevault-backend/internal/platform/envutil"
)

type RouterConfig struct {
	RecipeHandler *handlers.RecipeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.Healthcheck)
	router.GET("/metrics", handlers.Metrics)

	api := router.Group("/api")
	{
		api.POST("/recipes", cfg.RecipeHandler.Save)
		api.POST("/recipes/batch", cfg.RecipeHandler.Batch)
		api.GET("/recipes/:id", cfg.RecipeHandler.Get)
		api.GET("/recipes/:id/status", cfg.RecipeHandler.Status)
		api.PATCH("/recipes/:id", cfg.RecipeHandler.Update)
		api.DELETE("/recipes/:id", cfg.RecipeHandler.Delete)
	}

	return router
}

func allowedOrigins() []string {
	raw := envutil.String("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5174")
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
