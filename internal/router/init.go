package router

import (
	"github.com/oksasatya/creator-marketplace/internal/application"
	"github.com/oksasatya/creator-marketplace/internal/container"
	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/oauth"
	pginfra "github.com/oksasatya/creator-marketplace/internal/infrastructure/postgres"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/search"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/storage"
	handlers "github.com/oksasatya/creator-marketplace/internal/interface/http"
	"github.com/oksasatya/creator-marketplace/internal/router/modules"
	"github.com/oksasatya/creator-marketplace/pkg/upload"
)

// Services groups the application layer built from the container.
type Services struct {
	Auth       *application.AuthService
	Creators   *application.CreatorService
	Listings   *application.ListingService
	Moderation *application.ModerationService
	Social     *application.SocialService
	Payouts    *application.PayoutService
}

func buildServices() Services {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()
	mail := container.GetEmailQueue()
	platforms := container.GetPlatforms()

	users := pginfra.NewUserRepository(pool)
	creators := pginfra.NewCreatorRepository(pool)
	verifications := pginfra.NewVerificationRepository(pool)
	listings := pginfra.NewListingRepository(pool)
	photos := pginfra.NewListingPhotoRepository(pool)
	interventions := pginfra.NewInterventionRepository(pool)
	payouts := pginfra.NewPayoutRepository(pool)
	audit := pginfra.NewAuditRepository(pool)

	store := storage.NewGCSStore(container.GetGCS(), cfg.GCSBucket)

	var index application.ListingSearch
	if es := container.GetES(); es != nil {
		index = search.NewListingIndex(es, cfg.ESListingsIndex)
	}

	productSync := &application.ProductSync{
		Listings:      listings,
		Creators:      creators,
		Interventions: interventions,
		Mail:          mail,
		Config:        cfg,
		Metrics:       container.GetMetrics(),
		Logger:        logger,
	}
	if c := container.GetCommerce(); c != nil {
		productSync.Catalog = c
	}

	var verifier application.AddressVerifier
	if v := container.GetPayPal(); v != nil {
		verifier = v
	}

	providers := oauth.NewRegistry(platforms, map[string]oauth.Credentials{
		"instagram": {ClientID: cfg.InstagramClientID, ClientSecret: cfg.InstagramClientSecret},
		"tiktok":    {ClientID: cfg.TikTokClientID, ClientSecret: cfg.TikTokClientSecret},
		"youtube":   {ClientID: cfg.YouTubeClientID, ClientSecret: cfg.YouTubeClientSecret},
		"twitter":   {ClientID: cfg.TwitterClientID, ClientSecret: cfg.TwitterClientSecret},
	}, cfg.OAuthRedirectBaseURL)

	photoPolicy := upload.ImagePolicy{
		MaxBytes:  cfg.MaxPhotoBytes,
		MinWidth:  cfg.MinPhotoDimension,
		MinHeight: cfg.MinPhotoDimension,
		MaxWidth:  cfg.MaxPhotoDimension,
		MaxHeight: cfg.MaxPhotoDimension,
	}
	avatarPolicy := photoPolicy
	avatarPolicy.MinWidth, avatarPolicy.MinHeight = 100, 100

	return Services{
		Auth: &application.AuthService{
			Users:  users,
			JWT:    container.GetJWT(),
			Redis:  container.GetRedis(),
			CSRF:   container.GetCSRF(),
			Mail:   mail,
			Config: cfg,
			Logger: logger,
		},
		Creators: &application.CreatorService{
			Creators:      creators,
			Verifications: verifications,
			Listings:      listings,
			Store:         store,
			Platforms:     platforms,
			AvatarPolicy:  avatarPolicy,
			Logger:        logger,
		},
		Listings: &application.ListingService{
			Listings:        listings,
			Photos:          photos,
			Creators:        creators,
			Users:           users,
			Store:           store,
			Sync:            productSync,
			Index:           index,
			Metrics:         container.GetMetrics(),
			Logger:          logger,
			Categories:      entity.NewCategorySet(cfg.Categories()...),
			PhotoPolicy:     photoPolicy,
			PriceFloorCents: cfg.ListingPriceFloor,
			MaxPhotos:       cfg.MaxPhotosPerListing,
		},
		Moderation: &application.ModerationService{
			Listings:         listings,
			Creators:         creators,
			Users:            users,
			InterventionRepo: interventions,
			Audit:            audit,
			Sync:             productSync,
			Index:            index,
			Mail:             mail,
			Config:           cfg,
			Logger:           logger,
		},
		Social: &application.SocialService{
			Providers:     providers,
			Platforms:     platforms,
			Creators:      creators,
			Verifications: verifications,
			Redis:         container.GetRedis(),
			Logger:        logger,
		},
		Payouts: &application.PayoutService{
			Payouts:  payouts,
			Creators: creators,
			Users:    users,
			Verifier: verifier,
			Audit:    audit,
			Mail:     mail,
			Config:   cfg,
			Logger:   logger,
		},
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	resp := container.GetResponder()
	svc := buildServices()

	r.Add(modules.NewUserModule(handlers.NewUserHandler(svc.Auth, container.GetCSRF(), container.GetLogger(), resp, cfg.CookieDomain, cfg.CookieSecure)))
	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(svc.Auth, container.GetCSRF(), resp)))
	r.Add(modules.NewCreatorModule(handlers.NewCreatorHandler(svc.Creators, resp), handlers.NewPayoutHandler(svc.Payouts, resp)))
	r.Add(modules.NewListingModule(handlers.NewListingHandler(svc.Listings, resp)))
	r.Add(modules.NewSocialModule(handlers.NewSocialHandler(svc.Social, resp)))
	r.Add(modules.NewAdminModule(handlers.NewAdminHandler(svc.Moderation, svc.Payouts, resp)))
	r.Add(Health(container.GetPGPool(), container.GetRedis()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
