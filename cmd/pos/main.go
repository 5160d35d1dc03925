package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dreamer95g/habana-express-app/internal/backend"
	"github.com/dreamer95g/habana-express-app/internal/cache"
	"github.com/dreamer95g/habana-express-app/internal/cart"
	"github.com/dreamer95g/habana-express-app/internal/catalog"
	"github.com/dreamer95g/habana-express-app/internal/checkout"
	"github.com/dreamer95g/habana-express-app/internal/httpapi"
	"github.com/dreamer95g/habana-express-app/internal/journal"
	"github.com/dreamer95g/habana-express-app/internal/notify"
	"github.com/dreamer95g/habana-express-app/internal/repository"
)

type Config struct {
	HTTPPort        string
	BackendURL      string
	BackendToken    string
	RedisAddr       string
	RedisPassword   string
	MongoURI        string
	MongoDBName     string
	PostgresHost    string
	PostgresPort    int
	PostgresUser    string
	PostgresPass    string
	PostgresDB      string
	MigrationsPath  string
	KafkaBrokers    []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	pgPort, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	if err != nil {
		pgPort = 5432
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		BackendURL:      getEnv("BACKEND_GRAPHQL_URL", "http://localhost:4000/graphql"),
		BackendToken:    os.Getenv("BACKEND_AUTH_TOKEN"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "posdb"),
		PostgresHost:    os.Getenv("POSTGRES_HOST"),
		PostgresPort:    pgPort,
		PostgresUser:    getEnv("POSTGRES_USER", "postgres"),
		PostgresPass:    os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:      getEnv("POSTGRES_DB", "posdb"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "internal/journal/migrations"),
		KafkaBrokers:    brokers,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	// Missing .env is fine; plain environment variables still apply.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := loadConfig()
	ctx := context.Background()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	// Session carts live in memory unless a Mongo URI asks for durability.
	var cartRepo repository.CartRepository
	if cfg.MongoURI != "" {
		mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			logger.Fatal("mongodb connection failed", zap.Error(err))
		}
		defer mongoDB.Client().Disconnect(ctx)
		cartRepo = repository.NewMongoRepository(mongoDB)
		logger.Info("using mongodb cart store", zap.String("db", cfg.MongoDBName))
	} else {
		cartRepo = repository.NewMemoryRepository()
		logger.Info("using in-memory cart store")
	}
	defer cartRepo.Close()

	gql := backend.NewClient(cfg.BackendURL, cfg.BackendToken, cfg.RequestTimeout)
	stockClient := backend.NewStockClient(gql)
	configSource := backend.NewConfigSource(gql, logger)
	saleClient := backend.NewSaleClient(gql)

	bus := notify.NewBus()
	catalogService := catalog.NewService(stockClient, cache.NewRedisCatalogCache(redisClient), logger)
	cartService := cart.NewService(cartRepo, cache.NewRedisCartCache(redisClient), bus, logger)

	// The journal (and its Kafka publisher) is optional; without Postgres
	// the engine still sells, it just keeps no local history.
	var saleJournal checkout.SaleJournal
	var salesReader httpapi.SalesReader
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()
	if cfg.PostgresHost != "" {
		creds := &journal.Credentials{
			Host:              cfg.PostgresHost,
			Port:              cfg.PostgresPort,
			User:              cfg.PostgresUser,
			Password:          cfg.PostgresPass,
			DBName:            cfg.PostgresDB,
			MigrationsDirPath: cfg.MigrationsPath,
		}
		journalRepo, err := journal.NewRepository(creds, logger)
		if err != nil {
			logger.Fatal("postgres connection failed", zap.Error(err))
		}
		defer journalRepo.Close()
		if err := journalRepo.RunMigrations(creds); err != nil {
			logger.Fatal("journal migrations failed", zap.Error(err))
		}
		saleJournal = journalRepo
		salesReader = journalRepo

		if len(cfg.KafkaBrokers) > 0 {
			publisher := journal.NewPublisher(journalRepo, logger, cfg.KafkaBrokers...)
			defer publisher.Close()
			go publisher.Run(publisherCtx)
			logger.Info("outbox publisher started", zap.Strings("brokers", cfg.KafkaBrokers))
		}
	}

	submitter := checkout.NewSubmitter(cartService, catalogService, configSource, saleClient, saleJournal, bus, logger)

	router := httpapi.NewRouter(httpapi.Services{
		Catalog:       catalogService,
		Cart:          cartService,
		Config:        configSource,
		Checkout:      submitter,
		Sales:         salesReader,
		Notifications: bus,
	}, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("pos engine starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
