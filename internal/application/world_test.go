package application

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/creator-marketplace/config"
	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/metrics"
	"github.com/oksasatya/creator-marketplace/pkg/sanitize"
	"github.com/oksasatya/creator-marketplace/pkg/upload"
)

type world struct {
	users         *fakeUsers
	creators      *fakeCreators
	verifications *fakeVerifications
	photos        *fakePhotos
	listings      *fakeListings
	interventions *fakeInterventions
	audit         *fakeAudit
	payouts       *fakePayouts
	store         *fakeStore
	catalog       *fakeCatalog
	queue         *fakeQueue
	index         *fakeIndex

	cfg     *config.Config
	logger  *logrus.Logger
	logs    *test.Hook
	metrics *metrics.Metrics
	sync    *ProductSync
}

func testConfig() *config.Config {
	return &config.Config{
		AppName:          "marketplace",
		CompanyName:      "Creator Marketplace",
		AdminAlertEmail:  "ops@example.com",
		AdminConsoleURL:  "https://admin.example.com",
		StorefrontURL:    "https://example.com/s",
		VerifyEmailURL:   "https://example.com/verify-email",
		ResetPasswordURL: "https://example.com/reset-password",
		SessionTTL:       time.Hour,
	}
}

func newWorld(t *testing.T) *world {
	t.Helper()
	logger, hook := test.NewNullLogger()
	photos := &fakePhotos{failAfter: -1}
	w := &world{
		users:         newFakeUsers(),
		creators:      newFakeCreators(),
		verifications: newFakeVerifications(),
		photos:        photos,
		listings:      newFakeListings(photos),
		interventions: newFakeInterventions(),
		audit:         &fakeAudit{},
		payouts:       newFakePayouts(),
		store:         newFakeStore(),
		catalog:       &fakeCatalog{},
		queue:         &fakeQueue{},
		index:         &fakeIndex{},
		cfg:           testConfig(),
		logger:        logger,
		logs:          hook,
		metrics:       metrics.New(),
	}
	w.sync = &ProductSync{
		Listings:      w.listings,
		Creators:      w.creators,
		Interventions: w.interventions,
		Catalog:       w.catalog,
		Mail:          w.queue,
		Config:        w.cfg,
		Metrics:       w.metrics,
		Logger:        logger,
		NewBackOff:    func() backoff.BackOff { return &backoff.ZeroBackOff{} },
	}
	return w
}

func (w *world) listingService() *ListingService {
	return &ListingService{
		Listings:        w.listings,
		Photos:          w.photos,
		Creators:        w.creators,
		Users:           w.users,
		Store:           w.store,
		Sync:            w.sync,
		Index:           w.index,
		Metrics:         w.metrics,
		Logger:          w.logger,
		Categories:      entity.NewCategorySet("art", "books", "apparel"),
		PhotoPolicy:     upload.ImagePolicy{MaxBytes: 1 << 20, MinWidth: 100, MinHeight: 100, MaxWidth: 4000, MaxHeight: 4000},
		PriceFloorCents: 10000,
		MaxPhotos:       5,
	}
}

func (w *world) moderationService() *ModerationService {
	return &ModerationService{
		Listings:         w.listings,
		Creators:         w.creators,
		Users:            w.users,
		InterventionRepo: w.interventions,
		Audit:            w.audit,
		Sync:             w.sync,
		Index:            w.index,
		Mail:             w.queue,
		Config:           w.cfg,
		Logger:           w.logger,
	}
}

func (w *world) creatorService() *CreatorService {
	return &CreatorService{
		Creators:      w.creators,
		Verifications: w.verifications,
		Listings:      w.listings,
		Store:         w.store,
		Platforms:     sanitize.DefaultPlatforms(),
		AvatarPolicy:  upload.ImagePolicy{MaxBytes: 1 << 20, MinWidth: 100, MinHeight: 100},
		Logger:        w.logger,
	}
}

// seedCreator adds a user with a creator profile.
func (w *world) seedCreator(t *testing.T, username string, verified bool) (*entity.User, *entity.Creator) {
	t.Helper()
	ctx := context.Background()
	u := &entity.User{Email: username + "@example.com", Name: "Jane " + username, IsVerified: verified}
	require.NoError(t, w.users.Create(ctx, u))
	require.NoError(t, w.users.AssignRole(ctx, u.ID, entity.RoleCreator))
	c := &entity.Creator{UserID: u.ID, Username: username, DisplayName: "Jane " + username}
	require.NoError(t, w.creators.Create(ctx, c))
	return u, c
}

func (w *world) seedAdmin(t *testing.T) Actor {
	t.Helper()
	ctx := context.Background()
	u := &entity.User{Email: "admin@example.com", Name: "Admin", IsVerified: true}
	require.NoError(t, w.users.Create(ctx, u))
	require.NoError(t, w.users.AssignRole(ctx, u.ID, entity.RoleAdmin))
	return Actor{UserID: u.ID, Roles: []string{entity.RoleAdmin}, IP: "203.0.113.9"}
}

func pngFile(t *testing.T, name string, w, h int) upload.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return upload.FromBytes(name, buf.Bytes())
}

func exeFile(name string) upload.File {
	return upload.FromBytes(name, append([]byte("MZ\x90\x00"), make([]byte, 256)...))
}

func validInput(t *testing.T, photos ...upload.File) CreateListingInput {
	if len(photos) == 0 {
		photos = []upload.File{pngFile(t, "a.png", 200, 200)}
	}
	return CreateListingInput{
		Title:     "Signed <b>tour</b> poster",
		Category:  "Art",
		Condition: "like_new",
		Story:     "<p>Worn on stage.</p><script>alert(1)</script>",
		Price:     "150.005",
		Photos:    photos,
	}
}
