package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/menjil-org/menjil-backend/internal/config"
	"github.com/menjil-org/menjil-backend/internal/db"
	"github.com/menjil-org/menjil-backend/internal/handlers"
	"github.com/menjil-org/menjil-backend/internal/logger"
	"github.com/menjil-org/menjil-backend/internal/middleware"
	"github.com/menjil-org/menjil-backend/internal/repos"
	"github.com/menjil-org/menjil-backend/internal/server"
	"github.com/menjil-org/menjil-backend/internal/services"
	"github.com/menjil-org/menjil-backend/internal/socket"
)

var (
	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "menjil",
	Short: "Mentee-mentor chat backend",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		log, err = logger.New(cfg.LogMode)
		if err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and websocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables and indexes, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrate(cmd.Context())
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrate(ctx context.Context) error {
	log.Info("Running migrations...", "messageStore", cfg.MessageStore)
	postgresService, err := db.NewPostgresService(cfg.PostgresDSN(), log)
	if err != nil {
		return err
	}
	defer postgresService.Close()
	if err := postgresService.AutoMigrateAll(cfg.MessageStore == config.MessageStorePostgres); err != nil {
		return err
	}
	if cfg.MessageStore == config.MessageStoreMongo {
		mongoService, err := db.NewMongoService(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.StoreTimeout, log)
		if err != nil {
			return err
		}
		defer mongoService.Close(context.Background())
		if err := mongoService.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	log.Info("Migrations complete :)")
	return nil
}

func serve(ctx context.Context) error {
	// Postgres Setup
	log.Info("Setting Up Postgres from Main now...")
	postgresService, err := db.NewPostgresService(cfg.PostgresDSN(), log)
	if err != nil {
		return fmt.Errorf("postgres init failed: %w", err)
	}
	defer postgresService.Close()
	if err := postgresService.AutoMigrateAll(cfg.MessageStore == config.MessageStorePostgres); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repositories Setup
	log.Info("Setting Up Repositories from Main now...", "messageStore", cfg.MessageStore)
	roomRepo := repos.NewRoomRepo(thePG, log)
	var messageRepo repos.ChatMessageRepo
	switch cfg.MessageStore {
	case config.MessageStoreMongo:
		mongoService, err := db.NewMongoService(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.StoreTimeout, log)
		if err != nil {
			return fmt.Errorf("mongo init failed: %w", err)
		}
		defer mongoService.Close(context.Background())
		if err := mongoService.EnsureIndexes(ctx); err != nil {
			log.Warn("Mongo index creation failed", "error", err)
		}
		messageRepo = repos.NewMongoChatMessageRepo(mongoService.Database(), log)
	default:
		messageRepo = repos.NewChatMessageRepo(thePG, log)
	}

	// Websocket Setup
	wsHub := socket.NewHub(log)
	redisPubSub, err := socket.NewRedisPubSub(log, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisChannel)
	if err != nil {
		log.Warn("Failed to init redis pubsub; fan-out stays local to this node", "error", err)
	} else if err := redisPubSub.StartSubscriber(wsHub); err != nil {
		log.Warn("Failed to subscribe to Redis pub/sub", "error", err)
	} else {
		wsHub.SetRedisPubSub(redisPubSub)
		defer redisPubSub.Stop()
		log.Info("Redis pubsub is active!")
	}

	// Services Setup
	log.Info("Setting up Services from Main now...")
	summarizerService, err := services.NewSummarizerService(log, cfg.SummarizerBaseURL, cfg.SummarizerAPIKey, cfg.SummarizerModel)
	if err != nil {
		return fmt.Errorf("cannot init SummarizerService: %w", err)
	}
	similarityService, err := services.NewSimilarityService(log, cfg.SimilarityBaseURL, cfg.SimilarityTimeout)
	if err != nil {
		return fmt.Errorf("cannot init SimilarityService: %w", err)
	}
	authService := services.NewAuthService(log, cfg.JWTSecretKey)
	roomService := services.NewRoomService(log, roomRepo, messageRepo, cfg.Location(), cfg.StoreTimeout)
	questionService := services.NewQuestionService(log, roomRepo, messageRepo, summarizerService, similarityService, services.QuestionServiceConfig{
		Location:          cfg.Location(),
		StoreTimeout:      cfg.StoreTimeout,
		SummarizerTimeout: cfg.SummarizerTimeout,
		SimilarityTimeout: cfg.SimilarityTimeout,
	})
	messageService := services.NewMessageService(log, roomRepo, messageRepo, cfg.Location(), cfg.StoreTimeout)

	// Router Setup
	if cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(server.RouterConfig{
		Log:            log,
		AllowOrigins:   cfg.CORSAllowOrigins,
		Publisher:      wsHub,
		AuthMiddleware: middleware.NewAuthMiddleware(log, authService),
		RoomHandler:    handlers.NewRoomHandler(log, roomService),
		MessageHandler: handlers.NewMessageHandler(log, questionService, messageService),
		WsHandler:      handlers.WsHandler(wsHub, handlers.NewUpgrader(cfg.CORSAllowOrigins), log),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
