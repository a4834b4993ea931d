// File: backend/services/integrity-service/internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/config"
	repoPostgres "github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/repository/postgres"
	repoRedis "github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/repository/redis"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/service"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/events/kafka"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/utils/logger"
)

// App wires configuration, storage, messaging and the service layer together
// and owns their lifecycle.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	pool        *pgxpool.Pool
	redisClient *goredis.Client
	producer    *kafka.Producer
	intake      *service.IncidentIntake

	metricsServer *http.Server

	// Service surface exposed to transports and tooling.
	TenantGuard TenantGuardAccess
}

// TenantGuardAccess groups the services transports consume.
type TenantGuardAccess struct {
	Guard       service.TenantGuardService
	Ledger      service.AuditLedgerService
	Attendance  service.AttendanceService
	ClockDrift  service.ClockDriftService
	Escalations service.EscalationService
	Incidents   service.IncidentService
}

// New builds the application: config, logger, postgres (with migrations),
// redis, kafka and the full service graph.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := runMigrations(cfg.Database, log); err != nil {
			return nil, err
		}
	}

	pool, err := repoPostgres.NewDBPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	redisClient, err := repoRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	var publisher service.EventPublisher = service.NoopPublisher{}
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(cfg.Kafka, log)
		if err != nil {
			pool.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("failed to create kafka producer: %w", err)
		}
		publisher = producer
	}

	tm := repoPostgres.NewTransactionManager(pool)
	auditRepo := repoPostgres.NewAuditLogRepositoryPostgres(pool)
	attendanceRepo := repoPostgres.NewAttendanceRepositoryPostgres(pool)
	flagRepo := repoPostgres.NewIntegrityFlagRepositoryPostgres(pool)
	driftRepo := repoPostgres.NewClockDriftRepositoryPostgres(pool)
	historyRepo := repoPostgres.NewRoleHistoryRepositoryPostgres(pool)
	escalationRepo := repoPostgres.NewEscalationRepositoryPostgres(pool)
	incidentRepo := repoPostgres.NewIncidentRepositoryPostgres(pool)
	queue := repoRedis.NewRevalidationQueueRedis(redisClient)

	ledger := service.NewAuditLedgerService(auditRepo, log)
	driftSvc := service.NewClockDriftService(driftRepo, cfg.Integrity, log)
	incidentSvc := service.NewIncidentService(incidentRepo, ledger, tm, publisher, cfg.Integrity, log)

	intake := service.NewIncidentIntake(incidentSvc, cfg.Integrity, log)
	intake.Start(ctx)

	attendanceSvc := service.NewAttendanceService(attendanceRepo, flagRepo, driftSvc, ledger, tm, intake, log)
	escalationSvc := service.NewEscalationService(historyRepo, escalationRepo, queue, ledger, tm, publisher, intake, cfg.Integrity, log)

	store := repoPostgres.NewTenantStore(pool, tenantTables())
	guard := service.NewTenantGuardService(store, ledger, tm, log)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: mux,
	}

	return &App{
		cfg:           cfg,
		logger:        log,
		pool:          pool,
		redisClient:   redisClient,
		producer:      producer,
		intake:        intake,
		metricsServer: metricsServer,
		TenantGuard: TenantGuardAccess{
			Guard:       guard,
			Ledger:      ledger,
			Attendance:  attendanceSvc,
			ClockDrift:  driftSvc,
			Escalations: escalationSvc,
			Incidents:   incidentSvc,
		},
	}, nil
}

// Run serves metrics and blocks until a termination signal arrives, then
// shuts everything down in dependency order.
func (a *App) Run() error {
	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("metrics server starting", zap.String("addr", a.metricsServer.Addr))
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("metrics server error: %w", err)
		}
	}()
	a.logger.Info("integrity service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		a.shutdown()
		return err
	case sig := <-quit:
		a.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		a.shutdown()
		return nil
	}
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.metricsServer.Shutdown(ctx); err != nil {
		a.logger.Error("metrics server shutdown failed", zap.Error(err))
	}
	// Intake drains before storage closes so no buffered evidence is lost.
	a.intake.Stop()
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close failed", zap.Error(err))
		}
	}
	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close failed", zap.Error(err))
	}
	a.pool.Close()
	_ = a.logger.Sync()
}

func runMigrations(cfg config.DatabaseConfig, log *zap.Logger) error {
	m, err := migrate.New("file://"+cfg.MigrationsPath, cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	log.Info("database migrations applied")
	return nil
}

// tenantTables lists the business tables the boundary guard may touch. The
// engine's own tables are reached through typed repositories only.
func tenantTables() []repoPostgres.TableSpec {
	return []repoPostgres.TableSpec{
		{Name: "members", Columns: []string{"display_name", "email", "role", "external_ref", "active"}},
		{Name: "sessions", Columns: []string{"title", "starts_at", "ends_at", "location", "session_key"}},
		{Name: "devices", Columns: []string{"label", "device_class", "registered_by", "active"}},
	}
}

// RunUntilSignal is a convenience used by func main: build then run.
func RunUntilSignal() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := New(ctx)
	if err != nil {
		return err
	}
	return app.Run()
}
