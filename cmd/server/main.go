package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"travelagency.app/bot/common/id"
	"travelagency.app/bot/common/llm"
	"travelagency.app/bot/common/logger"
	"travelagency.app/bot/common/otel"
	"travelagency.app/bot/internal/config"
	"travelagency.app/bot/internal/discord"
	"travelagency.app/bot/internal/httpapi"
	"travelagency.app/bot/internal/maps"
	"travelagency.app/bot/internal/orchestrator"
	"travelagency.app/bot/internal/queue"
	"travelagency.app/bot/internal/record"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "travel agency bot starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	store, err := record.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to mongo", "error", err)
		os.Exit(1)
	}
	defer store.Close(ctx)
	slog.InfoContext(ctx, "mongo connected", "database", cfg.MongoDatabase)

	redisOpts, err := redis.ParseURL(cfg.RedisAddr)
	if err != nil {
		redisOpts = &redis.Options{Addr: cfg.RedisAddr}
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "redis connected", "stream", cfg.RedisStream)

	producer := queue.NewRedisProducer(redisClient, cfg.RedisStream)
	defer producer.Close()

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.RedisStream,
		Group:        "plan-workers",
		Consumer:     fmt.Sprintf("worker-%d", os.Getpid()),
		DLQStream:    cfg.RedisStream + ":dlq",
		BatchSize:    10,
		Block:        5 * time.Second,
		MaxAttempts:  3,
		RequeueDelay: 2 * time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize plan dispatch consumer", "error", err)
		os.Exit(1)
	}

	pack, err := config.LoadPromptPack(cfg.ConfigDirectory, cfg.ConfigFileName)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load prompt pack", "error", err)
		os.Exit(1)
	}

	gateway, err := llm.NewGateway(llm.ProviderKeys{
		OpenAI:     cfg.OpenAIAPIKey,
		Anthropic:  cfg.AnthropicAPIKey,
		DeepSeek:   cfg.DeepSeekAPIKey,
		Moonshot:   cfg.MoonshotAPIKey,
		Zhipu:      cfg.ZhipuAPIKey,
		VolcEngine: cfg.VolcEngineAPIKey,
		StepFun:    cfg.StepFunAPIKey,
		OpenRouter: cfg.OpenRouterAPIKey,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize llm gateway", "error", err)
		os.Exit(1)
	}

	mapsClient := maps.New(cfg.GoogleAPIKey)

	chat, err := discord.New(cfg.BotToken, cfg.ApplicationID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize discord client", "error", err)
		os.Exit(1)
	}

	engine := &orchestrator.Engine{
		Gateway:              gateway,
		Maps:                 mapsClient,
		Chat:                 chat,
		Store:                store,
		Prompts:              pack,
		PlanDeadline:         time.Duration(cfg.PlanDeadlineSeconds) * time.Second,
		MaxPlannerRetryCount: cfg.MaxPlannerRetryCount,
		MaxToolRetryCount:    cfg.MaxToolRetryCount,
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	go queue.RunConsumerPool(workerCtx, consumer, cfg.PlanWorkerConcurrency, func(procCtx context.Context, msg queue.Message) error {
		return engine.RunPlan(procCtx, msg.Dispatch.InteractionToken, msg.Dispatch.ChannelID, msg.Dispatch.OriginalMessageID, msg.Dispatch.Prompt)
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, producer)
	server := &http.Server{
		Addr:              cfg.ServerBindPoint + ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")
	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, producer queue.Producer) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(httpapi.Recovery())
	router.Use(httpapi.Logger())

	router.GET("/healthz", httpapi.HealthCheck)

	handler := &httpapi.Handler{Producer: producer}
	interactions := router.Group("/api/discord")
	interactions.Use(discord.VerifySignature(cfg.ApplicationPublicKey))
	interactions.POST("/interaction", handler.HandleInteraction)

	return router
}

const banner = `
████████╗██████╗  █████╗ ██╗   ██╗███████╗██╗         █████╗  ██████╗ ███████╗███╗   ██╗ ██████╗██╗   ██╗
╚══██╔══╝██╔══██╗██╔══██╗██║   ██║██╔════╝██║        ██╔══██╗██╔════╝ ██╔════╝████╗  ██║██╔════╝╚██╗ ██╔╝
   ██║   ██████╔╝███████║██║   ██║█████╗  ██║        ███████║██║  ███╗█████╗  ██╔██╗ ██║██║      ╚████╔╝
   ██║   ██╔══██╗██╔══██║╚██╗ ██╔╝██╔══╝  ██║        ██╔══██║██║   ██║██╔══╝  ██║╚██╗██║██║       ╚██╔╝
   ██║   ██║  ██║██║  ██║ ╚████╔╝ ███████╗███████╗    ██║  ██║╚██████╔╝███████╗██║ ╚████║╚██████╗  ██║
   ╚═╝   ╚═╝  ╚═╝╚═╝  ╚═╝  ╚═══╝  ╚══════╝╚══════╝    ╚═╝  ╚═╝ ╚═════╝ ╚══════╝╚═╝  ╚═══╝ ╚═════╝  ╚═╝
`
