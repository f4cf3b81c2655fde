package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/menjil-org/menjil-backend/internal/handlers"
	"github.com/menjil-org/menjil-backend/internal/logger"
	"github.com/menjil-org/menjil-backend/internal/middleware"
	"github.com/menjil-org/menjil-backend/internal/socket"
)

type RouterConfig struct {
	Log            *logger.Logger
	AllowOrigins   []string
	Publisher      socket.Publisher
	AuthMiddleware *middleware.AuthMiddleware
	RoomHandler    *handlers.RoomHandler
	MessageHandler *handlers.MessageHandler
	WsHandler      gin.HandlerFunc
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.Metrics())

	//-----------------------------------------
	// Cors Setup
	//-----------------------------------------
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	//-----------------------------------------
	// Health Routes
	//-----------------------------------------
	router.GET("/healthz", handlers.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	//------------------------------------------
	// Protected Routes
	//------------------------------------------
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	api.GET("/ws", cfg.WsHandler)

	chat := api.Group("/chat")
	chat.Use(middleware.AttachRequestContext(cfg.Publisher))
	chat.POST("/room/enter", cfg.RoomHandler.EnterRoom)
	chat.GET("/rooms", cfg.RoomHandler.GetAllRooms)
	chat.POST("/room/:roomId/question", cfg.MessageHandler.AskQuestion)
	chat.POST("/room/:roomId/message", cfg.MessageHandler.SendTalk)

	return router
}
