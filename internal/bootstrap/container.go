package bootstrap

import (
	"context"
	"log"

	"filechat-be/internal/config"
	"filechat-be/internal/controller"
	"filechat-be/internal/pkg/logger"
	"filechat-be/internal/repository/implementation"
	"filechat-be/internal/service"
	"filechat-be/internal/websocket"
	"filechat-be/pkg/drive"
	"filechat-be/pkg/embedding"
	"filechat-be/pkg/llm/factory"

	pktNats "filechat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	IngestController  controller.IIngestController
	SessionController controller.ISessionController
	ChannelController controller.IChannelController

	// Background Services (Exposed for main.go to run)
	ChatService    service.IChatService
	CleanupService service.ICleanupService

	// WebSockets
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	} else {
		var err error
		embeddingProvider, err = embedding.NewOpenAIProvider(cfg.Ai.OpenAIBaseURL, cfg.Ai.OpenAIKey, cfg.Ai.EmbeddingModel)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize Embedding Provider: %v", err)
		}
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OpenAIBaseURL,
		cfg.Ai.OpenAIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// Google Drive
	var driveClient *drive.Client
	if cfg.Drive.CredentialsFile != "" {
		driveClient, err = drive.NewServiceAccountClient(context.Background(), cfg.Drive.BaseURL, cfg.Drive.CredentialsFile)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize Drive service account client: %v", err)
		}
		log.Println("[INFO] Using Drive auth: service account")
	} else {
		driveClient = drive.NewClient(cfg.Drive.BaseURL, cfg.Drive.APIKey, nil)
		log.Println("[INFO] Using Drive auth: API key")
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/channel.log")
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run()

	// 5. Repositories
	chunkRepo := implementation.NewChunkRepository(db)
	connectionRepo := implementation.NewConnectionRepository(rdb)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Ingest.MessageTopic, pubSub)
	ingestService, err := service.NewIngestService(chunkRepo, embeddingProvider, driveClient, natsPub, cfg.Ingest, sysLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize Ingest Service: %v", err)
	}
	sessionService := service.NewSessionService(chunkRepo)
	channelService := service.NewChannelService(connectionRepo, cfg.App.BaseURL, cfg.Channel)
	chatService := service.NewChatService(
		pubSub,
		cfg.Ingest.MessageTopic,
		chunkRepo,
		embeddingProvider,
		llmProvider,
		wsHub,
		sysLogger,
	)
	cleanupService := service.NewCleanupService(chunkRepo, natsPub, cfg.Retention, sysLogger)

	// 7. Controllers
	return &Container{
		IngestController:  controller.NewIngestController(ingestService),
		SessionController: controller.NewSessionController(sessionService),
		ChannelController: controller.NewChannelController(channelService, publisherService, wsHub, sysLogger),

		ChatService:    chatService,
		CleanupService: cleanupService,

		WebSocketHub: wsHub,
	}
}
