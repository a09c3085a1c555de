package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/creator-marketplace/config"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/commerce"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/messaging"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/metrics"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/paypal"
	"github.com/oksasatya/creator-marketplace/pkg/csrf"
	"github.com/oksasatya/creator-marketplace/pkg/helpers"
	"github.com/oksasatya/creator-marketplace/pkg/response"
	"github.com/oksasatya/creator-marketplace/pkg/sanitize"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client
	esClient    *elasticsearch.Client

	jwtManager  *helpers.JWTManager
	csrfManager *csrf.Manager
	responder   *response.Responder
	platforms   *sanitize.Platforms
	mtr         *metrics.Metrics

	emailQueue messaging.EmailQueue
	catalog    *commerce.Client
	verifier   *paypal.AddressVerifier
)

func SetConfig(c *config.Config)    { cfg = c }
func GetConfig() *config.Config     { return cfg }
func SetLogger(l *logrus.Logger)    { logger = l }
func GetLogger() *logrus.Logger     { return logger }
func SetPGPool(p *pgxpool.Pool)     { pgPool = p }
func GetPGPool() *pgxpool.Pool      { return pgPool }
func SetRedis(r *redis.Client)      { redisClient = r }
func GetRedis() *redis.Client       { return redisClient }
func SetGCS(s *storage.Client)      { gcsClient = s }
func GetGCS() *storage.Client       { return gcsClient }
func SetES(c *elasticsearch.Client) { esClient = c }
func GetES() *elasticsearch.Client  { return esClient }
func SetJWT(m *helpers.JWTManager)  { jwtManager = m }
func GetJWT() *helpers.JWTManager   { return jwtManager }
func SetCSRF(m *csrf.Manager)       { csrfManager = m }
func GetCSRF() *csrf.Manager        { return csrfManager }
func SetMetrics(m *metrics.Metrics) { mtr = m }

// GetMetrics may return nil; Metrics methods are nil-safe.
func GetMetrics() *metrics.Metrics { return mtr }

func SetResponder(r *response.Responder) { responder = r }
func GetResponder() *response.Responder {
	if responder == nil {
		responder = response.NewResponder(logger)
	}
	return responder
}

func SetPlatforms(p *sanitize.Platforms) { platforms = p }
func GetPlatforms() *sanitize.Platforms {
	if platforms == nil {
		platforms = sanitize.DefaultPlatforms()
	}
	return platforms
}

func SetEmailQueue(q messaging.EmailQueue) { emailQueue = q }
func GetEmailQueue() messaging.EmailQueue {
	if emailQueue == nil {
		return messaging.Discard{}
	}
	return emailQueue
}

// SetCommerce leaves product sync disabled when c is nil.
func SetCommerce(c *commerce.Client) { catalog = c }
func GetCommerce() *commerce.Client  { return catalog }

func SetPayPal(v *paypal.AddressVerifier) { verifier = v }
func GetPayPal() *paypal.AddressVerifier  { return verifier }
