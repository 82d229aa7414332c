package main

import (
	"time"

	"go.uber.org/zap"

	"firmflow/config"
	"firmflow/internal/flow"
	"firmflow/internal/llm"
	"firmflow/internal/mq"
	"firmflow/internal/mqhandler"
	redisclient "firmflow/internal/redis"
	"firmflow/internal/repository"
	"firmflow/internal/service"
	"firmflow/internal/store"
	"firmflow/internal/tools"
	"firmflow/internal/util"
	"firmflow/pkg/logger"
)

func main() {
	// Load config
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting worker...")

	// Init Redis
	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, time.Hour, log)
	retryCounter := util.NewRetryCounter(rdb, time.Hour)

	// Init document store
	st, err := store.NewPostgres(cfg.DB, log)
	if err != nil {
		log.Fatal("store initialization failed", zap.Error(err))
	}
	defer st.Close()

	// Publisher for downstream fan-out
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Repositories
	clientRepo := repository.NewClientRepository(st)
	employeeRepo := repository.NewEmployeeRepository(st)
	engagementRepo := repository.NewEngagementRepository(st)
	todoRepo := repository.NewTodoRepository(st)

	registry := tools.NewRegistry(tools.Deps{
		Clients:         clientRepo,
		Employees:       employeeRepo,
		Engagements:     engagementRepo,
		EngagementTypes: repository.NewEngagementTypeRepository(st),
		Timesheets:      repository.NewTimesheetRepository(st),
		Calendar:        repository.NewCalendarEventRepository(st),
		Firms:           repository.NewFirmRepository(st),
		Leaves:          repository.NewLeaveRequestRepository(st),
	})
	provider := llm.NewOpenAIProvider(cfg.Inference, log)
	applier := flow.NewApplier(todoRepo, log, nil)

	classifyFlow := flow.NewInboundEmailFlow(flow.Deps{
		Provider:  provider,
		Tools:     registry,
		Clients:   clientRepo,
		Employees: employeeRepo,
		Applier:   applier,
		Config: flow.Config{
			FallbackAdminID:   cfg.Flow.FallbackAdminID,
			FallbackPartnerID: cfg.Flow.FallbackPartnerID,
		},
		Logger: log,
	})

	// Handlers
	emailHandler := mqhandler.NewEmailInboundHandler(classifyFlow, publisher, retryCounter, deduper, log)
	engagementHandler := mqhandler.NewEngagementCreatedHandler(clientRepo, applier, deduper, log)
	classifiedHandler := mqhandler.NewEmailClassifiedHandler(employeeRepo, applier, service.NewLogMailer(log), deduper, log)

	// (1) Consumer for inbound email classification
	log.Info("Initializing email consumer", zap.String("queue", "email.inbound.classify.q"))
	emailConsumer, err := mq.NewConsumer(cfg.MQ.URL, "email.inbound.classify.q", mq.RoutingKeyEmailInbound, log)
	if err != nil {
		log.Fatal("failed to init email consumer", zap.Error(err))
	}
	emailConsumer.SetHandler(emailHandler.HandleEmailInbound)
	go func() {
		if err := emailConsumer.StartConsuming(); err != nil {
			log.Fatal("email consumer failed", zap.Error(err))
		}
	}()
	defer emailConsumer.Close()

	// (2) Consumer for engagement kickoff todos
	log.Info("Initializing engagement consumer", zap.String("queue", "engagement.created.kickoff.q"))
	engagementConsumer, err := mq.NewConsumer(cfg.MQ.URL, "engagement.created.kickoff.q", mq.RoutingKeyEngagementCreated, log)
	if err != nil {
		log.Fatal("failed to init engagement consumer", zap.Error(err))
	}
	engagementConsumer.SetHandler(engagementHandler.HandleEngagementCreated)
	go func() {
		if err := engagementConsumer.StartConsuming(); err != nil {
			log.Fatal("engagement consumer failed", zap.Error(err))
		}
	}()
	defer engagementConsumer.Close()

	// (3) Consumer for urgent email fan-out
	log.Info("Initializing classified consumer", zap.String("queue", "email.classified.notify.q"))
	classifiedConsumer, err := mq.NewConsumer(cfg.MQ.URL, "email.classified.notify.q", mq.RoutingKeyEmailClassified, log)
	if err != nil {
		log.Fatal("failed to init classified consumer", zap.Error(err))
	}
	classifiedConsumer.SetHandler(classifiedHandler.HandleEmailClassified)
	go func() {
		if err := classifiedConsumer.StartConsuming(); err != nil {
			log.Fatal("classified consumer failed", zap.Error(err))
		}
	}()
	defer classifiedConsumer.Close()

	log.Info("All consumers started, worker is ready to process messages")

	// Keep worker running
	select {}
}
