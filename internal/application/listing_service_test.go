package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	"github.com/oksasatya/creator-marketplace/pkg/apperror"
	"github.com/oksasatya/creator-marketplace/pkg/mailer/templates"
	"github.com/oksasatya/creator-marketplace/pkg/upload"
)

func TestCreateListingStoresPhotosAndSyncs(t *testing.T) {
	w := newWorld(t)
	u, c := w.seedCreator(t, "jane", true)
	svc := w.listingService()

	in := validInput(t, pngFile(t, "one.png", 200, 200), exeFile("two.jpg"), pngFile(t, "three.png", 300, 300))
	res, err := svc.Create(context.Background(), Actor{UserID: u.ID}, in)
	require.NoError(t, err)

	l := res.Listing
	assert.Equal(t, entity.ListingPending, l.Status)
	assert.Equal(t, "Signed tour poster", l.Title)
	assert.Equal(t, "art", l.Category)
	assert.Equal(t, entity.ConditionLikeNew, l.Condition)
	assert.Equal(t, int64(15001), l.PriceCents)
	assert.NotContains(t, l.Story, "script")
	assert.Equal(t, 2, res.PhotosStored)
	require.Len(t, res.PhotosRejected, 1)
	assert.Equal(t, "two.jpg", res.PhotosRejected[0].Name)

	prefix := "creators/" + c.ID + "/listings/" + l.ID + "/"
	for _, p := range w.store.paths() {
		assert.True(t, strings.HasPrefix(p, prefix), p)
	}
	rows, _ := w.photos.ListByListing(context.Background(), l.ID)
	assert.Len(t, rows, 2)

	assert.Equal(t, entity.SyncSynced, res.SyncStatus)
	require.Len(t, w.catalog.created, 1)
	assert.Len(t, w.catalog.created[0].ImageURLs, 2)
	stored, err := w.listings.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, "gid-listing:"+l.ID, stored.ExternalProductID)
	assert.Equal(t, entity.SyncSynced, stored.SyncStatus)
	assert.Empty(t, w.interventions.all())
}

func TestCreateListingRollsBackWhenNoPhotoIsStored(t *testing.T) {
	w := newWorld(t)
	u, _ := w.seedCreator(t, "jane", true)
	w.store.fail = func(string) bool { return true }
	svc := w.listingService()

	_, err := svc.Create(context.Background(), Actor{UserID: u.ID},
		validInput(t, pngFile(t, "a.png", 200, 200), pngFile(t, "b.png", 200, 200)))
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindUpstream))
	assert.ErrorIs(t, err, ErrNoPhotosStored)

	assert.Empty(t, w.listings.byID, "no orphan listing row")
	assert.Empty(t, w.photos.rows)
	assert.Empty(t, w.store.paths())
	assert.Empty(t, w.catalog.created)
}

func TestCreateListingRollsBackWhenPhotoRowsFail(t *testing.T) {
	w := newWorld(t)
	u, _ := w.seedCreator(t, "jane", true)
	w.photos.failAfter = 0
	svc := w.listingService()

	_, err := svc.Create(context.Background(), Actor{UserID: u.ID}, validInput(t))
	assert.ErrorIs(t, err, ErrNoPhotosStored)
	assert.Empty(t, w.listings.byID)
	assert.Empty(t, w.store.paths(), "uploaded object without a row is removed")
	assert.Len(t, w.store.deleted, 1)
}

func TestCreateListingToleratesPartialUploadFailure(t *testing.T) {
	w := newWorld(t)
	u, _ := w.seedCreator(t, "jane", true)
	calls := 0
	w.store.fail = func(string) bool {
		calls++
		return calls == 1
	}
	svc := w.listingService()

	res, err := svc.Create(context.Background(), Actor{UserID: u.ID},
		validInput(t, pngFile(t, "a.png", 200, 200), pngFile(t, "b.png", 200, 200)))
	require.NoError(t, err)
	assert.Equal(t, 1, res.PhotosStored)
	assert.Equal(t, []PhotoRejection{{Name: "a.png", Reason: "upload failed"}}, res.PhotosRejected)
	assert.Equal(t, 0, res.Listing.Photos[0].Position)
}

func TestCreateListingValidation(t *testing.T) {
	w := newWorld(t)
	u, _ := w.seedCreator(t, "jane", true)
	svc := w.listingService()

	cases := map[string]struct {
		mutate func(*CreateListingInput)
		field  string
	}{
		"price below floor": {func(in *CreateListingInput) { in.Price = "99.99" }, "price"},
		"price not numeric": {func(in *CreateListingInput) { in.Price = "lots" }, "price"},
		"unknown category":  {func(in *CreateListingInput) { in.Category = "weapons" }, "category"},
		"bad condition":     {func(in *CreateListingInput) { in.Condition = "refurbished" }, "condition"},
		"empty title":       {func(in *CreateListingInput) { in.Title = "<b></b>" }, "title"},
		"long story":        {func(in *CreateListingInput) { in.Story = strings.Repeat("a", 5001) }, "story"},
		"no photos":         {func(in *CreateListingInput) { in.Photos = nil }, "photos"},
		"only bad photos":   {func(in *CreateListingInput) { in.Photos = []upload.File{exeFile("x.png")} }, "photos"},
		"too many photos": {func(in *CreateListingInput) {
			for i := 0; i < 6; i++ {
				in.Photos = append(in.Photos, pngFile(t, "p.png", 200, 200))
			}
		}, "photos"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput(t)
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), Actor{UserID: u.ID}, in)
			var ae *apperror.Error
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, apperror.KindValidation, ae.Kind)
			assert.Contains(t, ae.Fields, tc.field)
		})
	}
	assert.Empty(t, w.listings.byID)
}

func TestCreateListingRequiresVerifiedCreator(t *testing.T) {
	w := newWorld(t)
	svc := w.listingService()

	u, _ := w.seedCreator(t, "unverified", false)
	_, err := svc.Create(context.Background(), Actor{UserID: u.ID}, validInput(t))
	assert.True(t, apperror.Is(err, apperror.KindAuthorization))

	bare := &entity.User{Email: "bare@example.com", IsVerified: true}
	require.NoError(t, w.users.Create(context.Background(), bare))
	_, err = svc.Create(context.Background(), Actor{UserID: bare.ID}, validInput(t))
	assert.True(t, apperror.Is(err, apperror.KindAuthorization))
}

func TestCreateListingRetriesLinkingExternalID(t *testing.T) {
	w := newWorld(t)
	u, _ := w.seedCreator(t, "jane", true)
	w.listings.linkFailures = 2
	svc := w.listingService()

	res, err := svc.Create(context.Background(), Actor{UserID: u.ID}, validInput(t))
	require.NoError(t, err)
	assert.Equal(t, entity.SyncSynced, res.SyncStatus)
	assert.Equal(t, 3, w.listings.linkCalls)
	assert.Empty(t, w.interventions.all())
}

func TestCreateListingOpensInterventionWhenLinkKeepsFailing(t *testing.T) {
	w := newWorld(t)
	u, _ := w.seedCreator(t, "jane", true)
	w.listings.linkFailures = 100
	svc := w.listingService()

	res, err := svc.Create(context.Background(), Actor{UserID: u.ID}, validInput(t))
	require.NoError(t, err, "the listing stays valid")
	assert.Equal(t, entity.SyncNeedsManual, res.SyncStatus)
	assert.Equal(t, 3, w.listings.linkCalls)

	ins := w.interventions.all()
	require.Len(t, ins, 1)
	assert.Equal(t, entity.ReasonLinkFailed, ins[0].Reason)
	assert.Equal(t, "gid-listing:"+res.Listing.ID, ins[0].ExternalProductID)
	assert.Equal(t, entity.InterventionOpen, ins[0].Status)

	stored, _ := w.listings.GetByID(context.Background(), res.Listing.ID)
	assert.Equal(t, entity.SyncNeedsManual, stored.SyncStatus)
	assert.Equal(t, []string{templates.SyncIntervention}, w.queue.templates())
	assert.Equal(t, "ops@example.com", w.queue.last().To)
}

func TestCreateListingOpensInterventionWhenProductCreateFails(t *testing.T) {
	w := newWorld(t)
	u, _ := w.seedCreator(t, "jane", true)
	w.catalog.createErr = errBoom
	svc := w.listingService()

	res, err := svc.Create(context.Background(), Actor{UserID: u.ID}, validInput(t))
	require.NoError(t, err)
	assert.Equal(t, entity.SyncNeedsManual, res.SyncStatus)
	ins := w.interventions.all()
	require.Len(t, ins, 1)
	assert.Equal(t, entity.ReasonCreateFailed, ins[0].Reason)
	assert.Zero(t, w.listings.linkCalls)
}

func TestCreateListingWithoutCommerce(t *testing.T) {
	w := newWorld(t)
	u, _ := w.seedCreator(t, "jane", true)
	svc := w.listingService()
	svc.Sync = nil

	res, err := svc.Create(context.Background(), Actor{UserID: u.ID}, validInput(t))
	require.NoError(t, err)
	assert.Equal(t, entity.SyncDisabled, res.SyncStatus)
	assert.Empty(t, w.catalog.created)
}

func TestGetListingVisibility(t *testing.T) {
	w := newWorld(t)
	owner, _ := w.seedCreator(t, "jane", true)
	other, _ := w.seedCreator(t, "john", true)
	admin := w.seedAdmin(t)
	svc := w.listingService()
	ctx := context.Background()

	res, err := svc.Create(ctx, Actor{UserID: owner.ID}, validInput(t))
	require.NoError(t, err)
	id := res.Listing.ID

	_, err = svc.Get(ctx, id, nil)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	_, err = svc.Get(ctx, id, &Actor{UserID: other.ID})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	_, err = svc.Get(ctx, id, &Actor{UserID: owner.ID})
	assert.NoError(t, err)
	_, err = svc.Get(ctx, id, &admin)
	assert.NoError(t, err)

	_, err = w.moderationService().Approve(ctx, id, admin)
	require.NoError(t, err)
	l, err := svc.Get(ctx, id, nil)
	require.NoError(t, err)
	assert.Len(t, l.Photos, 1)

	_, err = svc.Get(ctx, "not-a-uuid", nil)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestDeleteListing(t *testing.T) {
	w := newWorld(t)
	owner, _ := w.seedCreator(t, "jane", true)
	other, _ := w.seedCreator(t, "john", true)
	svc := w.listingService()
	ctx := context.Background()

	res, err := svc.Create(ctx, Actor{UserID: owner.ID}, validInput(t))
	require.NoError(t, err)
	id := res.Listing.ID

	err = svc.Delete(ctx, id, Actor{UserID: other.ID})
	assert.True(t, apperror.Is(err, apperror.KindAuthorization))

	require.NoError(t, svc.Delete(ctx, id, Actor{UserID: owner.ID}))
	assert.Empty(t, w.listings.byID)
	assert.Empty(t, w.store.paths())
	assert.Equal(t, []string{"gid-listing:" + id}, w.catalog.deleted)

	err = svc.Delete(ctx, id, Actor{UserID: owner.ID})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestDeleteActiveListingConflicts(t *testing.T) {
	w := newWorld(t)
	owner, _ := w.seedCreator(t, "jane", true)
	admin := w.seedAdmin(t)
	svc := w.listingService()
	ctx := context.Background()

	res, err := svc.Create(ctx, Actor{UserID: owner.ID}, validInput(t))
	require.NoError(t, err)
	_, err = w.moderationService().Approve(ctx, res.Listing.ID, admin)
	require.NoError(t, err)

	err = svc.Delete(ctx, res.Listing.ID, Actor{UserID: owner.ID})
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestListMine(t *testing.T) {
	w := newWorld(t)
	owner, _ := w.seedCreator(t, "jane", true)
	svc := w.listingService()
	ctx := context.Background()

	_, err := svc.Create(ctx, Actor{UserID: owner.ID}, validInput(t))
	require.NoError(t, err)

	all, err := svc.ListMine(ctx, owner.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
	active, err := svc.ListMine(ctx, owner.ID, entity.ListingActive)
	require.NoError(t, err)
	assert.Empty(t, active)

	none, err := svc.ListMine(ctx, "no-such-user", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}
