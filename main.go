package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Urdemonlord/atlasproject/internal/api"
	"github.com/Urdemonlord/atlasproject/internal/cache"
	"github.com/Urdemonlord/atlasproject/internal/config"
	"github.com/Urdemonlord/atlasproject/internal/db"
	"github.com/Urdemonlord/atlasproject/internal/email"
	"github.com/Urdemonlord/atlasproject/internal/logging"
	"github.com/Urdemonlord/atlasproject/internal/repository"
	"github.com/Urdemonlord/atlasproject/internal/services"
	"github.com/Urdemonlord/atlasproject/internal/storage"
	"github.com/Urdemonlord/atlasproject/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'all' (default)")

type stores struct {
	props    repository.PropertyRepository
	bookings repository.BookingRepository
	users    repository.UserRepository
}

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load(*runMode)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	log := logging.New(cfg.LogLevel)

	// Redis is optional: without it there is no property cache, no task
	// queue and no mock email capture.
	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient, err = cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to Redis")
		}
		defer func() {
			if err := cache.DisconnectRedis(redisClient, log); err != nil {
				log.WithError(err).Error("error disconnecting from Redis")
			}
		}()
	}

	st, mongoClient, err := openStores(cfg, log, redisClient)
	if err != nil {
		log.WithError(err).Fatal("failed to open stores")
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient, log); err != nil {
			log.WithError(err).Error("error disconnecting from MongoDB")
		}
	}()

	var s3Store storage.IS3Storage
	if cfg.S3Enabled() {
		s3Store, err = storage.NewS3Storage(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize S3 storage")
		}
	} else {
		log.Info("S3 not configured, image uploads disabled")
	}

	var enqueuer tasks.Enqueuer = tasks.NoopEnqueuer{Log: log}
	if redisClient != nil {
		taskClient := tasks.NewClient(redisClient)
		defer taskClient.Close()
		enqueuer = taskClient
	}

	userService := services.NewUserService(st.users, cfg.JwtSecret, cfg.JwtTTL, log)
	propertyService := services.NewPropertyService(st.props, s3Store, enqueuer, log)
	bookingService := services.NewBookingService(st.bookings, st.props, enqueuer, log)
	dashboardService := services.NewDashboardService(st.props, st.bookings)

	taskProcessor := tasks.NewTaskProcessor(cfg, log, newEmailSender(cfg, log, redisClient), s3Store, propertyService, st.props, st.bookings, st.users)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// Channel to signal shutdown from Service API
	shutdownChan := make(chan struct{}, 1)

	var mockEmails api.MockEmailStore
	if redisClient != nil {
		mockEmails = redisClient
	}
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(log, mockEmails, shutdownChan),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.WithField("port", cfg.ServiceApiPort).Info("service API listening")
		if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("service API ListenAndServe error")
		}
	}()

	var mainApiSrv *http.Server
	var backgroundTaskSrv *asynq.Server

	log.WithField("mode", cfg.RunMode).Info("starting application")

	apiMode := func() {
		mainApiSrv = &http.Server{
			Addr: ":" + cfg.ApiPort,
			Handler: api.SetupRouter(ctx, cfg, log, api.Services{
				Users:     userService,
				Property:  propertyService,
				Booking:   bookingService,
				Dashboard: dashboardService,
			}),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.WithField("port", cfg.ApiPort).Info("main API listening")
			if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Fatal("main API ListenAndServe error")
			}
		}()
	}

	bgMode := func() {
		if redisClient == nil {
			log.Warn("REDIS_ADDR not set, background worker not started")
			return
		}
		backgroundTaskSrv = tasks.NewServer(redisClient, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := backgroundTaskSrv.Run(taskProcessor.Mux()); err != nil {
				log.WithError(err).Fatal("background task server error")
			}
		}()
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		log.Fatalf("invalid run mode: %s", cfg.RunMode)
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down gracefully")
	case <-shutdownChan:
		log.Info("shutdown requested via service API")
	}
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Error("service API shutdown error")
	}
	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			log.WithError(err).Error("main API shutdown error")
		}
	}
	if backgroundTaskSrv != nil {
		backgroundTaskSrv.Shutdown()
	}

	wg.Wait()
	log.Info("server gracefully stopped")
}

// openStores builds the repositories for the configured backend. The Mongo
// repositories sit behind circuit breakers, and properties additionally
// behind the Redis cache when Redis is available.
func openStores(cfg *config.Config, log logrus.FieldLogger, rdb *redis.Client) (*stores, *mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.StoreBackend == config.StoreMemory {
		st := &stores{
			props:    repository.NewMemoryPropertyRepository(),
			bookings: repository.NewMemoryBookingRepository(),
			users:    repository.NewMemoryUserRepository(),
		}
		if cfg.SeedData {
			if err := repository.Seed(ctx, st.props, st.bookings, st.users); err != nil {
				return nil, nil, err
			}
			log.Info("memory store seeded")
		}
		return st, nil, nil
	}

	client, database, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName, log)
	if err != nil {
		return nil, nil, err
	}
	if err := repository.EnsureIndexes(ctx, database); err != nil {
		return nil, client, err
	}

	settings := repository.BreakerSettings{MaxFailures: uint32(cfg.BreakerMaxFailures), Timeout: cfg.BreakerTimeout}
	var props repository.PropertyRepository = repository.NewBreakerPropertyRepository(
		repository.NewMongoPropertyRepository(database),
		repository.NewCircuitBreaker("properties", settings, log),
	)
	if rdb != nil {
		props = repository.NewCachedPropertyRepository(props, rdb, cfg.GetCacheTTL, log)
	}
	st := &stores{
		props: props,
		bookings: repository.NewBreakerBookingRepository(
			repository.NewMongoBookingRepository(database),
			repository.NewCircuitBreaker("bookings", settings, log),
		),
		users: repository.NewMongoUserRepository(database),
	}

	if cfg.SeedData {
		existing, err := st.props.List(ctx)
		if err != nil {
			return nil, client, err
		}
		if len(existing) == 0 {
			if err := repository.Seed(ctx, st.props, st.bookings, st.users); err != nil {
				return nil, client, err
			}
			log.Info("mongo store seeded")
		}
	}
	return st, client, nil
}

// newEmailSender picks where booking emails go: Redis when MOCK_SERVICES is
// set, SMTP otherwise.
func newEmailSender(cfg *config.Config, log logrus.FieldLogger, rdb *redis.Client) email.Sender {
	var primary email.Sender
	switch {
	case cfg.MockServices && rdb != nil:
		log.Info("MOCK_SERVICES enabled, storing emails in Redis")
		primary = email.NewRedisSender(rdb, cfg.SmtpFromAddress, log)
	case cfg.MockServices:
		log.Warn("MOCK_SERVICES needs Redis, logging emails instead")
		primary = email.NewLoggingSender(cfg.SmtpFromAddress, log)
	default:
		primary = email.NewSMTPSender(cfg, log)
	}
	return email.NewCompositeSender(primary)
}
