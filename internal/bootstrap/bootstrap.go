package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appAuth "github.com/yigit/eduschedule/internal/app/auth"
	appControllers "github.com/yigit/eduschedule/internal/app/controllers"
	appMigrations "github.com/yigit/eduschedule/internal/app/migrations"
	appRepos "github.com/yigit/eduschedule/internal/app/repositories"
	appRoutes "github.com/yigit/eduschedule/internal/app/routes"
	appServices "github.com/yigit/eduschedule/internal/app/services"
	"github.com/yigit/eduschedule/internal/config"
	"github.com/yigit/eduschedule/internal/db"
	appMiddleware "github.com/yigit/eduschedule/internal/middleware"
	pkgAuth "github.com/yigit/eduschedule/internal/pkg/auth"
	"github.com/yigit/eduschedule/internal/pkg/helpers"
	"github.com/yigit/eduschedule/internal/pkg/lock"
	"github.com/yigit/eduschedule/internal/pkg/logger"
	"github.com/yigit/eduschedule/internal/pkg/metrics"
	"github.com/yigit/eduschedule/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	DB                   *db.PostgresDB
	Redis                *redis.Client // nil when Redis is not configured
	Repos                *appRepos.Repositories
	JWTService           *pkgAuth.JWTService
	AuthzService         *appAuth.AuthorizationService
	Locker               lock.Locker
	RateLimiter          appMiddleware.RateLimiter
	SessionService       *appServices.SessionService
	AttendanceService    *appServices.AttendanceService
	TeachingHoursService *appServices.TeachingHoursService
	SessionController    *appControllers.SessionController
	AttendanceController *appControllers.AttendanceController
	TeacherController    *appControllers.TeacherController
	HealthController     *appControllers.HealthController
	AuthMiddleware       *appMiddleware.AuthMiddleware
	Logger               zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	lgr.Info().Msg("Running database migrations...")
	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}

// SetupRedis connects to Redis. A blank address disables it and returns nil.
func SetupRedis(cfg *config.Config, lgr zerolog.Logger) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		if cfg.Scheduling.LockBackend == config.LockBackendRedis {
			return nil, fmt.Errorf("lock backend %q requires redis.addr", config.LockBackendRedis)
		}
		lgr.Info().Msg("Redis not configured")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if cfg.Scheduling.LockBackend == config.LockBackendRedis {
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		// Only the rate limiter would use it; fall back to the in-process bucket
		lgr.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, continuing without it")
		return nil, nil
	}

	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established.")
	return client, nil
}

// newLocker picks the per-course lock implementation
func newLocker(cfg *config.Config, database *db.PostgresDB, redisClient *redis.Client) (lock.Locker, error) {
	switch cfg.Scheduling.LockBackend {
	case config.LockBackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("lock backend %q requires a redis connection", config.LockBackendRedis)
		}
		return lock.NewRedisLocker(redisClient, helpers.ParseDuration(cfg.Scheduling.LockTTL, 30*time.Second)), nil
	case config.LockBackendLocal:
		return lock.NewLocalLocker(), nil
	case config.LockBackendPostgres:
		if database == nil {
			return nil, fmt.Errorf("lock backend %q requires a database connection", config.LockBackendPostgres)
		}
		return lock.NewPostgresLocker(database.Pool), nil
	default:
		return nil, fmt.Errorf("unknown scheduling lock backend %q", cfg.Scheduling.LockBackend)
	}
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, redisClient *redis.Client, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{DB: database, Redis: redisClient, Logger: lgr}

	deps.Repos = appRepos.NewRepositories(database)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.AuthzService = appAuth.NewAuthorizationService(
		deps.Repos.CourseRepository,
		deps.Repos.UserRepository,
		deps.Repos.SessionRepository,
	)

	locker, err := newLocker(cfg, database, redisClient)
	if err != nil {
		return nil, err
	}
	deps.Locker = locker
	lgr.Info().Str("backend", cfg.Scheduling.LockBackend).Msg("Scheduling lock configured")

	clock := appServices.NewClock(cfg.Location())

	deps.SessionService = appServices.NewSessionService(
		deps.Repos.CourseRepository,
		deps.Repos.SessionRepository,
		deps.AuthzService,
		deps.Locker,
		helpers.ParseDuration(cfg.Scheduling.LockTimeout, 5*time.Second),
		clock,
	)
	deps.AttendanceService = appServices.NewAttendanceService(
		deps.Repos.CourseRepository,
		deps.Repos.SessionRepository,
		deps.Repos.AttendanceRepository,
		database,
		deps.AuthzService,
		clock,
	)
	deps.TeachingHoursService = appServices.NewTeachingHoursService(
		deps.Repos.SessionRepository,
		deps.AuthzService,
		cfg.Scheduling.TeachingHourFactor,
	)

	if redisClient != nil {
		deps.RateLimiter = appMiddleware.NewRedisWindowLimiter(redisClient, cfg.Server.RateLimitPerMin)
	} else {
		deps.RateLimiter = appMiddleware.NewTokenBucket(cfg.Server.RateLimitPerMin, cfg.Server.RateLimitPerMin)
	}

	healthChecks := map[string]appControllers.HealthCheck{"database": database.Ping}
	if redisClient != nil {
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.SessionController = appControllers.NewSessionController(deps.SessionService)
	deps.AttendanceController = appControllers.NewAttendanceController(deps.AttendanceService)
	deps.TeacherController = appControllers.NewTeacherController(deps.TeachingHoursService)
	deps.HealthController = appControllers.NewHealthController(healthChecks)

	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return deps, nil
}

// SeedDemoData loads the demo institute when the config asks for it.
// Failures are logged and do not stop startup.
func SeedDemoData(cfg *config.Config, deps *Dependencies) {
	if !cfg.Database.SeedDemoData {
		return
	}

	var tokens seed.TokenIssuer
	if !cfg.IsProduction() {
		tokens = deps.JWTService
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := seed.CreateDemoData(ctx, deps.DB, tokens, time.Now().In(cfg.Location()), deps.Logger); err != nil {
		deps.Logger.Error().Err(err).Msg("Failed to create demo data, proceeding anyway...")
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		appMiddleware.RequestID(),
		appMiddleware.LoggerMiddleware(),
		gin.Recovery(),
		appMiddleware.CORS(cfg.Server.AllowedOrigins),
		metrics.Middleware(),
	)

	// Operational endpoints stay outside the rate limit
	router.GET("/metrics", metrics.Handler())
	appRoutes.SetupSwagger(router)

	limited := router.Group("", appMiddleware.RateLimit(deps.RateLimiter))
	appRoutes.SetupRouter(limited, appRoutes.Controllers{
		Session:    deps.SessionController,
		Attendance: deps.AttendanceController,
		Teacher:    deps.TeacherController,
		Health:     deps.HealthController,
	}, deps.AuthMiddleware)

	return router
}
