package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/config"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/db"
	httpHandlers "github.com/Algorithm-Archetict/raqmiya-backend/internal/http/handlers"
	httpRouter "github.com/Algorithm-Archetict/raqmiya-backend/internal/http/router"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/logger"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/repository"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/service"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/storage"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret)

	attachmentStorage, err := storage.NewAttachmentStorage(cfg.AttachmentStorageDir, cfg.AttachmentBaseURL, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	conversationRepo := repository.NewConversationRepository(dbConn)
	serviceRequestRepo := repository.NewServiceRequestRepository(dbConn)
	deliveryRepo := repository.NewDeliveryRepository(dbConn)
	productRepo := repository.NewProductRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Сервисы.
	chatService := service.NewChatService(conversationRepo)
	serviceRequestService := service.NewServiceRequestService(serviceRequestRepo, conversationRepo, deliveryRepo)
	deliveryService := service.NewDeliveryService(deliveryRepo, productRepo, serviceRequestRepo, conversationRepo)
	notificationService := service.NewNotificationService(notificationRepo)

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	hub.SetNotificationSaver(notificationService)
	go hub.Run()

	chatService.SetHub(hub)
	serviceRequestService.SetHub(hub)
	deliveryService.SetHub(hub)

	// HTTP хэндлеры.
	chatHandler := httpHandlers.NewChatHandler(chatService, attachmentStorage)
	serviceRequestHandler := httpHandlers.NewServiceRequestHandler(serviceRequestService)
	deliveryHandler := httpHandlers.NewDeliveryHandler(deliveryService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager, chatService)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, chatHandler, serviceRequestHandler, deliveryHandler, notificationHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
