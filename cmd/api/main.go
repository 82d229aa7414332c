package main

import (
	"firmflow/config"
	"firmflow/internal/api"
	"firmflow/internal/flow"
	"firmflow/internal/llm"
	"firmflow/internal/mq"
	"firmflow/internal/repository"
	"firmflow/internal/service"
	"firmflow/internal/store"
	"firmflow/internal/tools"
	"firmflow/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// Load config
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	// Init document store
	st, err := store.NewPostgres(cfg.DB, log)
	if err != nil {
		log.Fatal("store initialization failed", zap.Error(err))
	}
	defer st.Close()

	// Init RabbitMQ Publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Repositories
	clientRepo := repository.NewClientRepository(st)
	employeeRepo := repository.NewEmployeeRepository(st)
	engagementRepo := repository.NewEngagementRepository(st)
	typeRepo := repository.NewEngagementTypeRepository(st)
	timesheetRepo := repository.NewTimesheetRepository(st)
	calendarRepo := repository.NewCalendarEventRepository(st)
	firmRepo := repository.NewFirmRepository(st)
	leaveRepo := repository.NewLeaveRequestRepository(st)
	todoRepo := repository.NewTodoRepository(st)
	userRepo := repository.NewUserRepository(st)

	// Tools + inference
	registry := tools.NewRegistry(tools.Deps{
		Clients:         clientRepo,
		Employees:       employeeRepo,
		Engagements:     engagementRepo,
		EngagementTypes: typeRepo,
		Timesheets:      timesheetRepo,
		Calendar:        calendarRepo,
		Firms:           firmRepo,
		Leaves:          leaveRepo,
	})
	provider := llm.NewOpenAIProvider(cfg.Inference, log)

	// Flows
	flowDeps := flow.Deps{
		Provider:    provider,
		Tools:       registry,
		Clients:     clientRepo,
		Employees:   employeeRepo,
		Engagements: engagementRepo,
		Firms:       firmRepo,
		Timesheets:  timesheetRepo,
		Leaves:      leaveRepo,
		Applier:     flow.NewApplier(todoRepo, log, nil),
		Config: flow.Config{
			FallbackAdminID:   cfg.Flow.FallbackAdminID,
			FallbackPartnerID: cfg.Flow.FallbackPartnerID,
		},
		Logger: log,
	}

	// Services and handlers
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret)
	authHandler := api.NewAuthHandler(authService)
	webhookHandler := api.NewWebhookHandler(publisher, log)
	todoHandler := api.NewTodoHandler(todoRepo)
	flowHandler := api.NewFlowHandler(
		flow.NewInboundEmailFlow(flowDeps),
		flow.NewBulkScheduleFlow(flowDeps),
		flow.NewTemplatedEmailFlow(flowDeps),
		flow.NewGenerateInvoiceFlow(flowDeps),
		flow.NewLeaveFlow(flowDeps),
		flow.NewPerformanceReviewFlow(flowDeps),
		flow.NewReallocateFlow(flowDeps),
		log,
	)

	// Router
	router := api.NewRouter(authHandler, webhookHandler, flowHandler, todoHandler, cfg.JWT.Secret)

	log.Info("API server starting", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("server start failed", zap.Error(err))
	}
}
