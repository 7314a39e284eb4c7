package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/intentgate-dev/intentgate/internal/gateway"
	"github.com/intentgate-dev/intentgate/internal/interpreter"
	"github.com/intentgate-dev/intentgate/pkg/cache"
	"github.com/intentgate-dev/intentgate/pkg/config"
	"github.com/intentgate-dev/intentgate/pkg/conversation"
)

var (
	// Version information (set via ldflags)
	Version = "dev"

	// Command line flags
	configFile = flag.String("config", getEnv("CONFIG_FILE", ""), "Configuration file")
	grpcPort   = flag.Int("grpc-port", getEnvInt("GRPC_PORT", 0), "gRPC server port (overrides config)")
	httpPort   = flag.Int("http-port", getEnvInt("PORT", 0), "HTTP observability port (overrides config)")
)

func main() {
	flag.Parse()

	log.Printf("Starting IntentGate v%s", Version)

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	store, err := conversation.NewRedisStore(conversation.RedisConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		Prefix:     cfg.Redis.Prefix,
		SessionTTL: time.Duration(cfg.SessionTTLSeconds) * time.Second,
		MaxHistory: cfg.MaxHistoryLength,
		PoolSize:   cfg.Redis.PoolSize,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() { _ = store.Close() }()

	respCache := cache.New(cache.Config{
		MaxSize: cfg.CacheMaxSize,
		TTL:     time.Duration(cfg.CacheTTLSeconds) * time.Second,
	})

	interp := interpreter.New(
		openai.NewClient(cfg.OpenAIKey),
		store,
		respCache,
		interpreter.Options{
			Model:          cfg.Model,
			SystemPrompt:   cfg.SystemPrompt,
			MaxInputChars:  cfg.MaxInputChars,
			HistoryWindow:  cfg.HistoryWindow,
			StoreTimeout:   time.Duration(cfg.StoreTimeoutMS) * time.Millisecond,
			MaxConcurrent:  int64(cfg.MaxConcurrentCalls),
			InferenceRPS:   cfg.InferenceRPS,
			InferenceBurst: cfg.InferenceBurst,
		},
	)

	gw := gateway.New(gateway.Config{
		GRPCPort:       cfg.GRPCPort,
		HTTPPort:       cfg.HTTPPort,
		RequestTimeout: time.Duration(cfg.RequestTimeoutMS) * time.Millisecond,
		SweepSchedule:  cfg.CleanupSchedule,
		Version:        Version,
	}, interp, store)

	ctx := context.Background()
	if err := gw.Start(ctx); err != nil {
		log.Fatalf("Failed to start gateway: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down gateway...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := gw.Stop(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}

	log.Println("Gateway stopped")
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.LoadConfig(*configFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}
	if *grpcPort != 0 {
		cfg.GRPCPort = *grpcPort
	}
	if *httpPort != 0 {
		cfg.HTTPPort = *httpPort
	}
	return cfg, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
