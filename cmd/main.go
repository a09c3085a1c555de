package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/creator-marketplace/config"
	"github.com/oksasatya/creator-marketplace/internal/application"
	"github.com/oksasatya/creator-marketplace/internal/container"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/commerce"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/messaging"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/metrics"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/paypal"
	pginfra "github.com/oksasatya/creator-marketplace/internal/infrastructure/postgres"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/search"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/storage"
	"github.com/oksasatya/creator-marketplace/internal/interface/middleware"
	"github.com/oksasatya/creator-marketplace/internal/router"
	"github.com/oksasatya/creator-marketplace/pkg/csrf"
	"github.com/oksasatya/creator-marketplace/pkg/helpers"
	"github.com/oksasatya/creator-marketplace/pkg/response"
	"github.com/oksasatya/creator-marketplace/pkg/sanitize"
	"github.com/oksasatya/creator-marketplace/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// Initialize Postgres pool
	pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{
		DSN:         cfg.PostgresDSN(),
		AppName:     cfg.AppName,
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
		MaxConnLife: cfg.DBMaxConnLife,
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	// Run migrations using database/sql with pgx stdlib
	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	// Redis
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	// GCS for avatars and listing photos
	gcsClient, err := storage.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
	if err != nil {
		log.Fatalf("failed to init GCS client: %v", err)
	}
	defer func() { _ = gcsClient.Close() }()

	// Elasticsearch is optional; search returns nothing without it
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := search.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch disabled")
		} else {
			container.SetES(es)
		}
	}

	// Email jobs go to RabbitMQ; dropped when sending is disabled
	if cfg.MailSendEnabled {
		pub, err := messaging.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer pub.Close()
		container.SetEmailQueue(pub)
	} else {
		logger.Warn("MAIL_SEND_ENABLED=false; email jobs are discarded")
		container.SetEmailQueue(messaging.Discard{})
	}

	if cfg.CommerceEnabled() {
		client, err := commerce.New(commerce.Config{
			StoreDomain: cfg.CommerceStoreDomain,
			AccessToken: cfg.CommerceAccessToken,
			APIVersion:  cfg.CommerceAPIVersion,
		})
		if err != nil {
			log.Fatalf("invalid commerce config: %v", err)
		}
		container.SetCommerce(client)
	} else {
		logger.Info("commerce sync disabled")
	}

	if cfg.PayPalEnabled() {
		container.SetPayPal(paypal.NewAddressVerifier(paypal.Config{
			Endpoint:  cfg.PayPalNVPEndpoint,
			User:      cfg.PayPalUser,
			Password:  cfg.PayPalPassword,
			Signature: cfg.PayPalSignature,
		}))
	} else {
		logger.Warn("paypal verification disabled; payout settings cannot be saved")
	}

	jwtManager := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	m := metrics.New()

	// Provide infra singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetRedis(rdb)
	container.SetGCS(gcsClient)
	container.SetJWT(jwtManager)
	container.SetCSRF(csrf.NewManager(csrf.NewRedisStore(rdb), cfg.CSRFTokenTTL))
	container.SetMetrics(m)
	container.SetResponder(response.NewResponder(logger, application.Relayable()...))
	container.SetPlatforms(sanitize.DefaultPlatforms())

	// Gin engine and global middleware
	r := gin.New()
	// forwarding headers are resolved by RealIP, never by gin
	if err := r.SetTrustedProxies(nil); err != nil {
		logger.WithError(err).Fatal("failed to configure trusted proxies")
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP(cfg.TrustProxyHeaders))
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.CSRFHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled {
		r.Use(middleware.AccessLog(logger))
	}
	r.Use(middleware.Metrics(m))

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
