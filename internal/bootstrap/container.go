package bootstrap

import (
	"context"
	"log"

	"formchat-be/internal/config"
	"formchat-be/internal/controller"
	"formchat-be/internal/handler"
	"formchat-be/internal/pkg/logger"
	"formchat-be/internal/repository/memory"
	"formchat-be/internal/repository/redisstore"
	"formchat-be/internal/repository/unitofwork"
	"formchat-be/internal/service"
	"formchat-be/internal/websocket"
	"formchat-be/pkg/agent/orchestrator"
	"formchat-be/pkg/agent/predictor"
	"formchat-be/pkg/agent/prompt"
	"formchat-be/pkg/events"
	"formchat-be/pkg/forms"
	"formchat-be/pkg/llm"
	"formchat-be/pkg/llm/factory"
	"formchat-be/pkg/store"

	pktNats "formchat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ConversationController controller.IConversationController
	FormController         controller.IFormController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	ReviewService   service.IReviewService

	// WebSockets
	ConversationSocketHandler *handler.ConversationSocketHandler
	WebSocketHub              *websocket.Hub

	DB     *gorm.DB
	Logger logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{DB: db}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)
	c.Logger = sysLogger

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	rdb := connectRedis(ctx, cfg.App.RedisURL)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	var eventPublisher events.Publisher = events.NopPublisher{}
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		c.closers = append(c.closers, natsSub.Close)
	}

	var sessions store.Store
	switch cfg.Session.Store {
	case "redis":
		if rdb == nil {
			log.Fatalf("[FATAL] SESSION_STORE=redis but Redis is unreachable")
		}
		sessions = redisstore.NewSessionRepository(rdb, cfg.Session.TTL, cfg.Session.ArchiveTTL)
	default:
		sessions = memory.NewSessionRepository(cfg.Session.TTL)
	}
	log.Printf("[INFO] Using Session Store: %s", cfg.Session.Store)

	// 4. LLM
	llmProvider, err := factory.NewLLMProvider(ctx, providerConfig(cfg))
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	policy := llm.NewPolicy(cfg.Ai.RequestTimeout, cfg.Ai.MaxRetries, cfg.Ai.RateLimit, cfg.Ai.RateBurst)
	llmClient := llm.NewStructuredClient(llmProvider, cfg.Ai.LLMProvider, policy)

	catalog, err := prompt.NewCatalog()
	if err != nil {
		log.Fatalf("[FATAL] Failed to parse prompt templates: %v", err)
	}

	// 5. Forms
	formCatalog := service.NewFormCatalog(uowFactory)
	templates := forms.NewCachedProvider(formCatalog, cfg.Orchestration.TemplateCacheTTL)

	// 6. Orchestration
	settings := orchestrator.Settings{
		Thresholds: predictor.Thresholds{
			High: cfg.Orchestration.HighThreshold,
			Low:  cfg.Orchestration.LowThreshold,
		},
		TopN:                cfg.Orchestration.TopN,
		MaxReprompts:        cfg.Orchestration.MaxReprompts,
		RouterMinConfidence: cfg.Orchestration.RouterMinConfidence,
		HistoryLimit:        cfg.Orchestration.HistoryLimit,
	}
	orch, err := orchestrator.New(
		sessions,
		templates,
		formCatalog,
		llmClient,
		catalog,
		settings,
		sysLogger,
		orchestrator.WithPublisher(eventPublisher),
	)
	if err != nil {
		log.Fatalf("[FATAL] Invalid orchestration settings: %v", err)
	}

	// WebSocket Hub
	wsHub := websocket.NewHub(rdb, sysLogger)

	// 7. Services
	publisherService := service.NewPublisherService(cfg.App.ConversationTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.ConversationTopic,
		uowFactory,
		sysLogger,
		auditLogger,
	)

	conversationService := service.NewConversationService(
		orch,
		sessions,
		uowFactory,
		publisherService,
		eventPublisher,
		cfg.Session.ConflictRetries,
		sysLogger,
	)
	formService := service.NewFormService(uowFactory, templates, formCatalog, wsHub, sysLogger)

	if natsSub != nil {
		c.ReviewService = service.NewReviewService(natsSub, formService, wsHub, sysLogger)
	}

	// 8. Controllers
	c.ConversationController = controller.NewConversationController(conversationService)
	c.FormController = controller.NewFormController(formService)
	c.ConversationSocketHandler = handler.NewConversationSocketHandler(conversationService, wsHub, sysLogger)
	c.WebSocketHub = wsHub
	c.ConsumerService = consumerService

	return c
}

// Close releases broker and cache connections in reverse order of creation
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func connectRedis(ctx context.Context, url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func providerConfig(cfg *config.Config) factory.ProviderConfig {
	pc := factory.ProviderConfig{
		Type:    cfg.Ai.LLMProvider,
		Model:   cfg.Ai.LLMModel,
		BaseURL: cfg.Ai.LLMBaseURL,
	}
	switch cfg.Ai.LLMProvider {
	case "ollama":
		pc.BaseURL = cfg.Ai.OllamaBaseURL
	case "openai":
		pc.APIKey = cfg.Keys.OpenAI
	case "huggingface":
		pc.APIKey = cfg.Keys.HuggingFace
	case "gemini":
		pc.APIKey = cfg.Keys.GoogleGemini
	}
	return pc
}
