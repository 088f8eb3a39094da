package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"rtchat/internal/auth"
	"rtchat/internal/authz"
	"rtchat/internal/config"
	"rtchat/internal/db"
	"rtchat/internal/delivery"
	"rtchat/internal/handlers"
	"rtchat/internal/observability"
	"rtchat/internal/presence"
	"rtchat/internal/rabbitmq"
	"rtchat/internal/repositories"
	"rtchat/internal/telemetry"
	"rtchat/internal/ws"
)

func main() {
	cfg := config.Load()

	database, err := db.Connect(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	presenceStore := presence.NewRedisStore(redisClient)

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	defer publisher.Close()
	audit := telemetry.NewAuditEmitter(publisher, "chat.audit", "rtchat", cfg.Environment)

	userRepo := repositories.NewUserRepo(database)
	roomRepo := repositories.NewRoomRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	directRepo := repositories.NewDirectMessageRepo(database)

	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	validator := authz.NewValidator(authz.DefaultSanitizer)

	hub := ws.NewHub()
	sessions := delivery.NewSessionRegistry()
	eventRouter := delivery.NewRouter(userRepo, roomRepo, messageRepo, directRepo, presenceStore, validator, hub, sessions, audit)
	wsHandler := ws.NewHandler(hub, eventRouter, tokens)

	authHandler := handlers.NewAuthHandler(userRepo, tokens, audit)
	roomHandler := handlers.NewRoomHandler(roomRepo, messageRepo, hub, audit)
	conversationHandler := handlers.NewConversationHandler(directRepo)
	userHandler := handlers.NewUserHandler(userRepo, roomRepo, hub, audit)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": err.Error()})
			return
		}
		if err := presenceStore.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)

	authMiddleware := handlers.RequireAuth(tokens)

	router.GET("/rooms", authMiddleware, roomHandler.ListRooms)
	router.POST("/rooms", authMiddleware, roomHandler.CreateRoom)
	router.POST("/rooms/:room_id/join", authMiddleware, roomHandler.JoinRoom)
	router.POST("/rooms/:room_id/leave", authMiddleware, roomHandler.LeaveRoom)
	router.GET("/rooms/:room_id/members", authMiddleware, roomHandler.ListMembers)
	router.GET("/rooms/:room_id/messages", authMiddleware, roomHandler.GetRoomMessages)
	router.GET("/rooms/:room_id/messages/:message_id/history", authMiddleware, roomHandler.GetMessageHistory)

	router.GET("/conversations", authMiddleware, conversationHandler.ListConversations)
	router.GET("/conversations/:partner_id/messages", authMiddleware, conversationHandler.GetConversationMessages)

	router.GET("/users/me", authMiddleware, userHandler.GetMe)
	router.PATCH("/users/me", authMiddleware, userHandler.UpdateMe)

	router.GET("/ws", wsHandler.Serve)

	handlers.RegisterDebugRoutes(router, audit, cfg.Debug)

	// Websocket connections are exempt from these timeouts: the upgrade
	// hijacks the conn and clears its deadlines.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
