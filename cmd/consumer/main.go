package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	"github.com/example/product-catalog/internal/catalog"
	"github.com/example/product-catalog/internal/config"
	"github.com/example/product-catalog/internal/consumer"
	"github.com/example/product-catalog/internal/events"
	"github.com/example/product-catalog/internal/infrastructure/kafka"
	"github.com/example/product-catalog/internal/infrastructure/store"
	"github.com/example/product-catalog/internal/inventory"
	"github.com/example/product-catalog/internal/search"
)

// Standalone cart-events consumer. Runs the same handler as the API
// binary, for deployments that scale consumption separately.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	log.Println("[Consumer] Product Catalog - cart events consumer")
	log.Printf("[Consumer] Kafka: %v", cfg.KafkaBrokers)

	inventoryProducer := kafka.NewProducer(cfg.KafkaBrokers, events.TopicInventoryEvents)
	defer inventoryProducer.Close()

	publisher := events.NewPublisher(map[string]events.Producer{
		events.TopicInventoryEvents: inventoryProducer,
	})

	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Consumer] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	if err := store.EnsureSchema(db); err != nil {
		log.Fatalf("[Consumer] Failed to create schema: %v", err)
	}

	var productStore catalog.ProductStore
	switch cfg.StoreBackend {
	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatalf("[Consumer] Failed to load AWS config: %v", err)
		}
		productStore = store.NewDynamoProductStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTableName)
	default:
		productStore = store.NewPostgresProductStore(db)
	}

	// The API binary reads through the same Redis cache, so stock
	// mutations here must invalidate it too.
	var cache catalog.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		cache = store.NewProductCache(rdb, cfg.CacheTTL)
	}

	propagator := search.NewPropagatorWithRetry(store.NewPostgresSearchIndex(db), cfg.SyncMaxAttempts, cfg.SyncRetryDelay)
	propagator.Start(ctx)

	ledger := inventory.NewLedger(productStore, propagator, publisher, cache)
	cartConsumer := consumer.NewCartEventConsumer(ledger)

	kafkaConsumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.CartEventsTopic, cfg.ConsumerGroupID)
	defer kafkaConsumer.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("[Consumer] Consuming %s as %s", cfg.CartEventsTopic, cfg.ConsumerGroupID)
		if err := kafkaConsumer.Consume(ctx, cartConsumer.HandleMessage); err != nil {
			if ctx.Err() == nil {
				log.Printf("[Consumer] Consumer error: %v", err)
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Consumer] Shutting down...")
	cancel()
	wg.Wait()
}
