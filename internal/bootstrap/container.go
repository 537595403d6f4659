package bootstrap

import (
	"log"

	"ai-realtime-relay/internal/config"
	"ai-realtime-relay/internal/controller"
	"ai-realtime-relay/internal/pkg/logger"
	"ai-realtime-relay/internal/relay"
	"ai-realtime-relay/internal/service"
	"ai-realtime-relay/pkg/embedding"
	"ai-realtime-relay/pkg/rag"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	FileController controller.IFileController

	// Relay
	RelayManager *relay.Manager

	// Background Services (Exposed for main.go to run)
	AuditService service.IAuditService

	Logger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	relayLogger := logger.NewIsolatedLogger(cfg.App.RelayLogFilePath)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Services
	// Initialize Embedding Provider based on Config
	var embeddingProvider embedding.Provider
	if cfg.Rag.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Rag.OllamaBaseURL,
			cfg.Rag.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Rag.OllamaModel)
	} else {
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Keys.OpenAI, cfg.Rag.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Rag.EmbeddingModel)
	}

	store := rag.NewDocumentStore()
	engine, err := rag.NewEngine(store, embeddingProvider, rag.Options{
		TopK:         cfg.Rag.TopK,
		MinScore:     cfg.Rag.MinScore,
		ChunkSize:    cfg.Rag.ChunkSize,
		ChunkOverlap: cfg.Rag.ChunkOverlap,
		Chunked:      cfg.Rag.ChunkedIngestion,
		EmbedTimeout: cfg.Rag.EmbeddingTimeout,
	}, sysLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize retrieval engine: %v", err)
	}

	publisherService := service.NewPublisherService(pubSub, service.RelayEventsTopic)
	auditService := service.NewAuditService(pubSub, service.RelayEventsTopic, sysLogger)

	relayManager := relay.NewManager(engine, relay.ManagerOptions{
		APIKey:          cfg.Keys.OpenAI,
		Endpoint:        cfg.Realtime.Endpoint,
		Model:           cfg.Realtime.Model,
		ResponseTimeout: cfg.Realtime.ResponseTimeout,
	}, relayLogger, publisherService)

	return &Container{
		FileController: controller.NewFileController(engine, publisherService),
		RelayManager:   relayManager,
		AuditService:   auditService,
		Logger:         sysLogger,
	}
}
