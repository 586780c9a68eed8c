package bootstrap

import (
	"log"
	"os"

	"ai-flowchat-be/internal/config"
	"ai-flowchat-be/internal/controller"
	"ai-flowchat-be/internal/pkg/logger"
	"ai-flowchat-be/internal/pkg/serverutils"
	"ai-flowchat-be/internal/repository/implementation"
	"ai-flowchat-be/internal/repository/memory"
	"ai-flowchat-be/internal/service"
	"ai-flowchat-be/pkg/embedding"
	"ai-flowchat-be/pkg/events"
	"ai-flowchat-be/pkg/flow"
	"ai-flowchat-be/pkg/gateway"
	"ai-flowchat-be/pkg/language"
	"ai-flowchat-be/pkg/llm"
	"ai-flowchat-be/pkg/rag/search"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController   controller.IChatController
	FlowController   controller.IFlowController
	ActionController controller.IActionController
	HealthController controller.IHealthController

	// Middleware bound to the resolved gateway mode.
	IdentityMiddleware fiber.Handler

	// Background services (exposed for main.go to run).
	NoticeConsumerService service.INoticeConsumerService

	// Shared infrastructure exposed for shutdown.
	Registry *flow.Registry
	Gateway  gateway.HostGateway
	Bus      *events.Bus
	Logger   logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	stdLogger := log.New(os.Stdout, "[flowchat] ", log.LstdFlags)

	// 2. Flow registry
	registry, err := flow.NewRegistry(DefaultFlowDefinitions(cfg))
	if err != nil {
		log.Fatalf("[FATAL] Invalid flow configuration: %v", err)
	}

	// 3. Host gateway: host-integrated when a platform URL is configured
	// and reachable, standalone demo mode otherwise.
	var hostGateway gateway.HostGateway
	if cfg.Host.BaseURL != "" {
		httpGateway := gateway.NewHTTPGateway(cfg.Host.BaseURL, cfg.Host.ApiToken, registry, stdLogger)
		if httpGateway.IsAvailable() {
			hostGateway = httpGateway
			log.Printf("[INFO] Host platform detected at %s, running integrated", cfg.Host.BaseURL)
		}
	}
	if hostGateway == nil {
		hostGateway = gateway.NewStandaloneGateway(registry)
		log.Printf("[INFO] No host platform, running in standalone demo mode")
	}

	// 4. Providers
	completionProvider := llm.NewGeminiProvider(
		cfg.Keys.GoogleGemini,
		cfg.Ai.CompletionModel,
		stdLogger,
		llm.WithHistoryWindow(cfg.Ai.HistoryWindow),
	)
	embeddingProvider := embedding.NewGeminiProvider(cfg.Keys.GoogleGemini, cfg.Ai.EmbeddingModel, "")

	// 5. Retrieval engine over the pgvector-backed knowledge store
	knowledgeRepo := implementation.NewKnowledgeRepository(db)
	retrievalEngine := search.NewEngine(
		registry,
		embeddingProvider,
		completionProvider,
		knowledgeRepo,
		search.Config{
			ExcerptLimit:      cfg.Retrieval.ExcerptLimit,
			ContextLimit:      cfg.Retrieval.ContextLimit,
			CanonicalLanguage: cfg.Ai.CanonicalLanguage,
		},
		stdLogger,
	)

	// 6. In-memory session state and event bus
	conversationRepo := memory.NewConversationRepository()
	taskRepo := memory.NewTaskRepository()
	noticeRepo := memory.NewNoticeRepository()
	bus := events.NewBus()

	// 7. Services
	chatService := service.NewChatService(service.ChatServiceParams{
		Registry:      registry,
		Detector:      language.NewScriptDetector(),
		Completions:   completionProvider,
		Retrieval:     retrievalEngine,
		Conversations: conversationRepo,
		Tasks:         taskRepo,
		Notices:       noticeRepo,
		Bus:           bus,
		Logger:        sysLogger,
		Temperature:   cfg.Ai.Temperature,
		MaxTokens:     cfg.Ai.MaxTokens,
		HistoryWindow: cfg.Ai.HistoryWindow,
	})
	actionService := service.NewActionService(registry, hostGateway, bus, sysLogger)
	flowService := service.NewFlowService(registry)
	noticeConsumer := service.NewNoticeConsumerService(bus, noticeRepo, sysLogger)

	return &Container{
		ChatController:        controller.NewChatController(chatService),
		FlowController:        controller.NewFlowController(flowService),
		ActionController:      controller.NewActionController(actionService),
		HealthController:      controller.NewHealthController(hostGateway),
		IdentityMiddleware:    serverutils.IdentityMiddleware(hostGateway),
		NoticeConsumerService: noticeConsumer,
		Registry:              registry,
		Gateway:               hostGateway,
		Bus:                   bus,
		Logger:                sysLogger,
	}
}
