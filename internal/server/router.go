package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/botvine/huddle/internal/handlers"
  "github.com/botvine/huddle/internal/observability"
)

type RouterConfig struct {
  OAuthHandler *handlers.OAuthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5000",
    },
    AllowMethods:     []string{"GET", "POST", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  router.GET("/healthcheck", handlers.HealthCheck)
  router.GET("/oauth2/callback", cfg.OAuthHandler.Callback)

  if observability.Enabled() {
    router.GET("/metrics", func(c *gin.Context) {
      observability.Current().WriteHTTP(c.Writer, c.Request)
    })
  }

  return router
}
