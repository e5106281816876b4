package main

import (
	"time"

	"go.uber.org/zap"

	"todoapp/internal/config"
	"todoapp/internal/db"
	"todoapp/internal/handler"
	"todoapp/internal/httpserver"
	"todoapp/internal/repository"
	"todoapp/internal/service/auth"
	"todoapp/internal/service/todo"
	"todoapp/internal/session"
	"todoapp/pkg/logger"
	"todoapp/pkg/mq"
)

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	cfg, err := config.Load(config.GetEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal("Config load failed", zap.Error(err))
	}

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init Redis
	rdb := session.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	// Init RabbitMQ Publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("MQ initialization failed", zap.Error(err))
	}
	defer publisher.Close()

	// Init Repositories
	userRepo := repository.NewUserRepository(dbConn, log)
	todoRepo := repository.NewTodoRepository(dbConn, log)

	// Init Session Store
	sessions := session.NewStore(rdb, time.Duration(cfg.Session.TTLMinutes)*time.Minute)

	// Init Services
	authService := auth.NewService(userRepo, sessions, publisher, cfg.Provider.JWTSecret, log)
	todoService := todo.NewService(todoRepo, publisher, log)

	// Init Handlers
	authHandler := handler.NewAuthHandler(authService, cfg.Session, log)
	todoHandler := handler.NewTodoHandler(todoService, log)

	// Router
	router := httpserver.NewRouter(authHandler, todoHandler, authService, log, dbConn, publisher)

	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("server start failed", zap.Error(err))
	}
}
