package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/pharmacart/gateway"
	"github.com/example/pharmacart/pkg/config"
	"github.com/example/pharmacart/pkg/crypto"
	"github.com/example/pharmacart/pkg/notify"
	"github.com/example/pharmacart/pkg/repository"
	"github.com/example/pharmacart/pkg/service"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting pharmacart",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	// Encryption key is mandatory; refuse to start without it.
	cipher, err := crypto.NewCipher(cfg.Security.EncryptionKey)
	if err != nil {
		logger.Fatal("Failed to initialize encryption", zap.Error(err))
	}

	// MySQL
	store, err := repository.NewStore(&cfg.MySQL)
	if err != nil {
		logger.Fatal("Failed to connect to MySQL", zap.Error(err))
	}

	// MongoDB audit sink
	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB, logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	// Redis
	redisRepo := repository.NewRedisRepository(&cfg.Redis)

	ctx := context.Background()
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}
	if err := mongoRepo.Ping(ctx); err != nil {
		logger.Warn("MongoDB ping failed", zap.Error(err))
	}

	notifier := notify.NewEmailNotifier(&cfg.SMTP, logger)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	payments := service.NewPaymentService(store, mongoRepo, notifier, cfg.Payment, rng, logger)
	services := gateway.Services{
		Customers: service.NewCustomerService(store, mongoRepo, logger),
		Products:  service.NewProductService(store, redisRepo, mongoRepo, cfg.Product.MinStockVisible, logger),
		Carts:     service.NewCartService(store, logger),
		Tokens:    service.NewTokenService(store, mongoRepo, cipher, cfg.Tokenization.RejectProbability, rng, logger),
		Orders:    service.NewOrderService(store, mongoRepo, payments, logger),
	}

	if err := services.Products.Seed(ctx); err != nil {
		logger.Fatal("Failed to seed products", zap.Error(err))
	}

	gw := gateway.NewGateway(cfg, logger, services, redisRepo)

	// Start gateway in goroutine
	gwErr := make(chan error, 1)
	go func() {
		if err := gw.Start(); err != nil {
			gwErr <- err
		}
	}()

	logger.Info("Gateway started successfully")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-gwErr:
		logger.Fatal("Gateway error", zap.Error(err))
	}

	redisRepo.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mongoRepo.Close(shutdownCtx); err != nil {
		logger.Error("Failed to close MongoDB connection", zap.Error(err))
	}

	logger.Info("Service stopped")
}
