package app

import (
	"github.com/gin-gonic/gin"

	"github.com/botvine/huddle/internal/handlers"
	"github.com/botvine/huddle/internal/logger"
	"github.com/botvine/huddle/internal/server"
)

type Handlers struct {
	OAuth *handlers.OAuthHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		OAuth: handlers.NewOAuthHandler(serviceset.GoogleAuth, log),
	}
}

func wireRouter(handlerset Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		OAuthHandler: handlerset.OAuth,
	})
}
