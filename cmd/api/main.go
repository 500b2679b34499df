package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	"github.com/example/product-catalog/internal/api"
	"github.com/example/product-catalog/internal/auth"
	"github.com/example/product-catalog/internal/catalog"
	"github.com/example/product-catalog/internal/config"
	"github.com/example/product-catalog/internal/consumer"
	"github.com/example/product-catalog/internal/events"
	"github.com/example/product-catalog/internal/infrastructure/kafka"
	"github.com/example/product-catalog/internal/infrastructure/store"
	"github.com/example/product-catalog/internal/inventory"
	"github.com/example/product-catalog/internal/search"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	log.Println("[API] ========================================")
	log.Println("[API] Product Catalog Service")
	log.Println("[API] ========================================")
	log.Printf("[API] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[API] Store backend: %s", cfg.StoreBackend)

	// Kafka producers, one per outbound topic
	productProducer := kafka.NewProducer(cfg.KafkaBrokers, events.TopicProductEvents)
	defer productProducer.Close()
	inventoryProducer := kafka.NewProducer(cfg.KafkaBrokers, events.TopicInventoryEvents)
	defer inventoryProducer.Close()
	searchProducer := kafka.NewProducer(cfg.KafkaBrokers, events.TopicSearchEvents)
	defer searchProducer.Close()

	publisher := events.NewPublisher(map[string]events.Producer{
		events.TopicProductEvents:   productProducer,
		events.TopicInventoryEvents: inventoryProducer,
		events.TopicSearchEvents:    searchProducer,
	})
	analytics := events.NewAnalytics(publisher)

	// Primary store and search index
	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[API] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()
	log.Println("[API] Connected to PostgreSQL")

	if err := store.EnsureSchema(db); err != nil {
		log.Fatalf("[API] Failed to create schema: %v", err)
	}

	var productStore catalog.ProductStore
	switch cfg.StoreBackend {
	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatalf("[API] Failed to load AWS config: %v", err)
		}
		productStore = store.NewDynamoProductStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTableName)
		log.Printf("[API] Products: DynamoDB (%s)", cfg.DynamoTableName)
	default:
		productStore = store.NewPostgresProductStore(db)
		log.Println("[API] Products: PostgreSQL")
	}

	searchIndex := store.NewPostgresSearchIndex(db)
	categoryStore := store.NewPostgresCategoryStore(db)

	// Optional Redis cache
	var cache catalog.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		cache = store.NewProductCache(rdb, cfg.CacheTTL)
		log.Printf("[API] Cache: Redis (%s)", cfg.RedisAddr)
	}

	// Domain services
	propagator := search.NewPropagatorWithRetry(searchIndex, cfg.SyncMaxAttempts, cfg.SyncRetryDelay)
	propagator.Start(ctx)

	productSvc := catalog.NewService(productStore, propagator, publisher, cache)
	categorySvc := catalog.NewCategoryService(categoryStore)
	ledger := inventory.NewLedger(productStore, propagator, publisher, cache)
	searchEngine := search.NewEngine(searchIndex, productStore)

	if err := categorySvc.SeedDefaults(ctx); err != nil {
		log.Printf("[API] Category seeding failed: %v", err)
	}

	// JWT service (optional: write endpoints are open without it)
	var jwtService *auth.JWTService
	if cfg.JWTSecret != "" {
		if len(cfg.JWTSecret) < 32 {
			log.Fatal("[API] JWT_SECRET must be at least 32 characters long")
		}
		jwtService = auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenExpiry)
	} else {
		log.Println("[API] WARNING: JWT_SECRET not set, write endpoints are unprotected")
	}

	// Cart events consumer
	cartConsumer := consumer.NewCartEventConsumer(ledger)
	kafkaConsumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.CartEventsTopic, cfg.ConsumerGroupID)
	defer kafkaConsumer.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("[API] Consuming %s as %s", cfg.CartEventsTopic, cfg.ConsumerGroupID)
		if err := kafkaConsumer.Consume(ctx, cartConsumer.HandleMessage); err != nil {
			if ctx.Err() == nil {
				log.Printf("[API] Consumer error: %v", err)
			}
		}
	}()

	// HTTP server
	handlers := api.NewHandlers(productSvc, categorySvc, ledger, searchEngine, analytics)
	router := api.NewRouter(handlers, jwtService)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Printf("[API] Server started on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	wg.Wait()
}
