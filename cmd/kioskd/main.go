package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LoctusTM/oskiosk-client/internal/cartstore"
	"github.com/LoctusTM/oskiosk-client/internal/catalog"
	"github.com/LoctusTM/oskiosk-client/internal/httpapi"
	"github.com/LoctusTM/oskiosk-client/internal/metrics"
	"github.com/LoctusTM/oskiosk-client/internal/payment"
	"github.com/LoctusTM/oskiosk-client/internal/pgdb"
)

func main() {
	httpPort := getEnv("HTTP_PORT", "8080")
	apiToken := getEnv("KIOSK_API_TOKEN", "")
	currency := getEnv("KIOSK_CURRENCY", "EUR")
	pgHost := getEnv("POSTGRES_HOST", "localhost")
	pgPort := getEnvInt("POSTGRES_PORT", 5432)
	pgUser := getEnv("POSTGRES_USER", "kiosk")
	pgPassword := getEnv("POSTGRES_PASSWORD", "kiosk")
	pgName := getEnv("POSTGRES_DB", "kioskdb")
	migrationsDir := getEnv("MIGRATIONS_DIR", "migrations")
	mongoURI := getEnv("MONGO_URI", "mongodb://localhost:27017")
	mongoDBName := getEnv("MONGO_DB_NAME", "kioskdb")
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	refusalPercent := getEnvInt("PAYMENT_REFUSAL_PERCENT", 0)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres holds the catalog and the payment ledger
	db, err := pgdb.Connect(&pgdb.Credentials{
		Host:     pgHost,
		Port:     pgPort,
		User:     pgUser,
		Password: pgPassword,
		DBName:   pgName,
	})
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer db.Close()
	if err := pgdb.RunMigrations(db, migrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Connected to postgres at %s:%d", pgHost, pgPort)

	// Mongo holds in-progress carts
	mongoDB, err := cartstore.ConnectMongoDB(ctx, mongoURI, mongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Client().Disconnect(context.Background())
	carts := cartstore.NewMongoRepository(mongoDB)
	log.Printf("Connected to MongoDB at %s", mongoURI)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	catalogRepo := catalog.NewRepository(db)
	catalogSvc := catalog.NewService(catalogRepo, catalog.NewRedisCache(redisClient))

	var approver payment.Approver = payment.ApproveAll{}
	if refusalPercent > 0 {
		approver = payment.FlakyApprover{RefusalPercent: refusalPercent}
	}
	paymentRepo := payment.NewRepository(db)
	paymentSvc := payment.NewService(carts, paymentRepo, approver, currency)

	poller := payment.NewOutboxPoller(paymentRepo, kafkaBrokers...)
	defer poller.Close()
	go poller.Run(ctx)

	m := metrics.NewServerMetrics("kioskd")
	handler := httpapi.NewHandler(httpapi.Config{
		APIToken:       apiToken,
		RequestTimeout: 30 * time.Second,
	}, catalogSvc, carts, paymentSvc, m)

	srv := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("kioskd listening on :%s", httpPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("shutting down kioskd...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("kioskd stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Invalid %s: %v", key, err)
	}
	return n
}
