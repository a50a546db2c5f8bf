package main

import (
	cataloghandler "cospace/internal/catalog/handler"
	catalogrepo "cospace/internal/catalog/repository"
	catalogservice "cospace/internal/catalog/service"
	catalogvalidator "cospace/internal/catalog/validator"
	"cospace/internal/jobs"
	ledgerrepo "cospace/internal/ledger/repository"
	"cospace/internal/scheduler/coordinator"
	schedulerhandler "cospace/internal/scheduler/handler"
	schedulerservice "cospace/internal/scheduler/service"
	schedulervalidator "cospace/internal/scheduler/validator"
	"cospace/pkg/app"
	"cospace/pkg/config"
	"cospace/pkg/contracts"
	"cospace/pkg/kafka"
	kafka_config "cospace/pkg/kafka/config"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
)

const ServiceName = "reservations"

// apiRoutes combines the catalog and reservation route sets behind one
// router.
type apiRoutes struct {
	handlers []contracts.Handler
}

func (a apiRoutes) RegisterRoutes(router *httprouter.Router) {
	for _, h := range a.handlers {
		h.RegisterRoutes(router)
	}
}

func main() {
	// Local development convenience; the file is absent in production.
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Reservations service")

	catalogSvc := initCatalog(cfg)
	events := initEvents(cfg)
	schedulerSvc := initScheduler(cfg, catalogSvc, events)

	sweeper := jobs.NewExpirySweeper(schedulerSvc, cfg)
	if err := sweeper.Start(); err != nil {
		cfg.Log.Fatal("Failed to start expiry sweeper", "error", err)
	}
	defer sweeper.Stop()
	defer events.Close()

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		apiRoutes{handlers: []contracts.Handler{
			schedulerhandler.NewReservationHandler(schedulerSvc, cfg.Log),
			cataloghandler.NewResourceHandler(catalogSvc, cfg.Log),
		}},
		schedulerhandler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
	)
	serverApp.Run()
}

func initCatalog(cfg *config.Config) catalogservice.CatalogService {
	resourceValidator := catalogvalidator.NewResourceValidator(cfg.Log)
	resourceRepo := catalogrepo.NewMongoResourceRepository(cfg)
	catalogSvc := catalogservice.NewCatalogService(resourceRepo, resourceValidator, cfg)

	cfg.Log.Info("Catalog service initialized", "database", cfg.MongoDatabaseName)
	return catalogSvc
}

func initEvents(cfg *config.Config) schedulerservice.EventPublisher {
	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	if !kafkaCfg.Enabled {
		cfg.Log.Info("Kafka disabled; booking events will not be published")
		return schedulerservice.NewNoopEventPublisher()
	}

	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.EventTopic, kafkaCfg.DLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	cfg.Log.Info("Kafka event publisher initialized", "topic", kafkaCfg.EventTopic)
	return schedulerservice.NewKafkaEventPublisher(producer, cfg)
}

func initScheduler(cfg *config.Config, catalogSvc catalogservice.CatalogService, events schedulerservice.EventPublisher) schedulerservice.SchedulerService {
	requestValidator := schedulervalidator.NewRequestValidator(cfg)
	bookingRepo := ledgerrepo.NewMongoBookingRepository(cfg)
	resourceCoordinator := coordinator.New(cfg.LockWaitTimeout)

	schedulerSvc := schedulerservice.NewSchedulerService(
		bookingRepo,
		catalogSvc,
		resourceCoordinator,
		requestValidator,
		events,
		cfg,
	)

	cfg.Log.Info("Scheduler service initialized", "database", cfg.MongoDatabaseName)
	return schedulerSvc
}
