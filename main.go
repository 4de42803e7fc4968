package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"community-service/internal/cache"
	"community-service/internal/config"
	"community-service/internal/events"
	"community-service/internal/observability"
	"community-service/internal/repositories"
	"community-service/internal/store"
	"community-service/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	badger, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer badger.Close()

	repos := repositories.NewSet(badger, cache.New(), cfg.CacheTTL)

	hub := ws.NewHub()
	broadcaster := events.NewBroadcaster(hub, repos.Courses, repos.Clubs)

	registry := events.NewRegistry()
	events.NewHandlers(repos, broadcaster).Register(registry)
	eventRouter := events.NewRouter(registry)

	socket := ws.NewSocketHandler(hub, eventRouter, cfg.JWTSecret)

	publisher := observability.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)

	router := gin.Default()

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", socket.Handle)

	if cfg.DebugRoutes {
		router.GET("/debug/connections", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"count":       hub.Len(),
				"connections": hub.Snapshot(),
			})
		})
	}

	if err := router.Run(cfg.Addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
