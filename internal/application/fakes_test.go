package application

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/creator-marketplace/internal/domain/repository"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/commerce"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/paypal"
	"github.com/oksasatya/creator-marketplace/internal/infrastructure/search"
	"github.com/oksasatya/creator-marketplace/pkg/mailer"
)

var errBoom = errors.New("boom")

type fakeUsers struct {
	mu        sync.Mutex
	byID      map[string]*entity.User
	roles     map[string][]string
	assignErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]*entity.User{}, roles: map[string][]string{}}
}

func (f *fakeUsers) Create(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.byID {
		if strings.EqualFold(x.Email, u.Email) {
			return repo.ErrConflict
		}
	}
	u.ID = uuid.NewString()
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	cp.Roles = append([]string(nil), f.roles[id]...)
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	var id string
	for _, x := range f.byID {
		if strings.EqualFold(x.Email, email) {
			id = x.ID
		}
	}
	f.mu.Unlock()
	if id == "" {
		return nil, repo.ErrNotFound
	}
	return f.GetByID(ctx, id)
}

func (f *fakeUsers) Update(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) MarkVerified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.IsVerified = true
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Password = hash
	return nil
}

func (f *fakeUsers) AssignRole(_ context.Context, userID, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assignErr != nil {
		return f.assignErr
	}
	f.roles[userID] = append(f.roles[userID], role)
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.byID, id)
	delete(f.roles, id)
	return nil
}

type fakeCreators struct {
	mu        sync.Mutex
	byID      map[string]*entity.Creator
	updateErr error
}

func newFakeCreators() *fakeCreators { return &fakeCreators{byID: map[string]*entity.Creator{}} }

func (f *fakeCreators) taken(username, exceptID string) bool {
	for _, c := range f.byID {
		if c.Username == username && c.ID != exceptID {
			return true
		}
	}
	return false
}

func (f *fakeCreators) Create(_ context.Context, c *entity.Creator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.taken(c.Username, "") {
		return repo.ErrConflict
	}
	c.ID = uuid.NewString()
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCreators) find(pred func(*entity.Creator) bool) (*entity.Creator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if pred(c) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeCreators) GetByID(_ context.Context, id string) (*entity.Creator, error) {
	return f.find(func(c *entity.Creator) bool { return c.ID == id })
}

func (f *fakeCreators) GetByUserID(_ context.Context, userID string) (*entity.Creator, error) {
	return f.find(func(c *entity.Creator) bool { return c.UserID == userID })
}

func (f *fakeCreators) GetByUsername(_ context.Context, username string) (*entity.Creator, error) {
	return f.find(func(c *entity.Creator) bool { return c.Username == strings.ToLower(username) })
}

func (f *fakeCreators) Update(_ context.Context, c *entity.Creator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.taken(c.Username, c.ID) {
		return repo.ErrConflict
	}
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCreators) SetPayPal(_ context.Context, id, email string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	c.PayPalEmail, c.PayPalVerifiedAt = email, &at
	return nil
}

type fakeVerifications struct {
	mu   sync.Mutex
	rows map[string]entity.CreatorVerification // creator|platform
}

func newFakeVerifications() *fakeVerifications {
	return &fakeVerifications{rows: map[string]entity.CreatorVerification{}}
}

func (f *fakeVerifications) Upsert(_ context.Context, v *entity.CreatorVerification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := v.CreatorID + "|" + v.Platform
	if old, ok := f.rows[k]; ok {
		v.ID = old.ID
		if !v.Verified && old.Verified && old.ProfileURL == v.ProfileURL {
			v.Verified, v.VerifiedAt, v.Handle = true, old.VerifiedAt, old.Handle
		}
	} else {
		v.ID = uuid.NewString()
	}
	f.rows[k] = *v
	return nil
}

func (f *fakeVerifications) ListByCreator(_ context.Context, creatorID string) ([]entity.CreatorVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.CreatorVerification{}
	for _, v := range f.rows {
		if v.CreatorID == creatorID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out, nil
}

func (f *fakeVerifications) Delete(_ context.Context, creatorID, platform string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := creatorID + "|" + platform
	if _, ok := f.rows[k]; !ok {
		return repo.ErrNotFound
	}
	delete(f.rows, k)
	return nil
}

type fakePhotos struct {
	mu        sync.Mutex
	rows      []entity.ListingPhoto
	failAfter int // fail Create once this many rows were written; <0 never
}

func (f *fakePhotos) Create(_ context.Context, p *entity.ListingPhoto) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter >= 0 && len(f.rows) >= f.failAfter {
		return errBoom
	}
	p.ID = uuid.NewString()
	f.rows = append(f.rows, *p)
	return nil
}

func (f *fakePhotos) ListByListing(_ context.Context, listingID string) ([]entity.ListingPhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.ListingPhoto
	for _, p := range f.rows {
		if p.ListingID == listingID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePhotos) DeleteByListing(_ context.Context, listingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	for _, p := range f.rows {
		if p.ListingID != listingID {
			kept = append(kept, p)
		}
	}
	f.rows = kept
	return nil
}

type fakeListings struct {
	mu        sync.Mutex
	byID      map[string]*entity.Listing
	photos    *fakePhotos
	createErr error
	// linkFailures makes the first n SetExternalProduct calls fail.
	linkFailures int
	linkCalls    int
}

func newFakeListings(photos *fakePhotos) *fakeListings {
	return &fakeListings{byID: map[string]*entity.Listing{}, photos: photos}
}

func (f *fakeListings) Create(_ context.Context, l *entity.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now()
	cp := *l
	f.byID[l.ID] = &cp
	return nil
}

func (f *fakeListings) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	f.mu.Lock()
	l, ok := f.byID[id]
	var cp entity.Listing
	if ok {
		cp = *l
	}
	f.mu.Unlock()
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp.Photos, _ = f.photos.ListByListing(ctx, id)
	return &cp, nil
}

func (f *fakeListings) ListByCreator(_ context.Context, creatorID string, status entity.ListingStatus) ([]entity.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.Listing{}
	for _, l := range f.byID {
		if l.CreatorID == creatorID && (status == "" || l.Status == status) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeListings) ListByStatus(_ context.Context, status entity.ListingStatus, limit, offset int) ([]entity.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.Listing{}
	for _, l := range f.byID {
		if l.Status == status {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeListings) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	_, ok := f.byID[id]
	delete(f.byID, id)
	f.mu.Unlock()
	if !ok {
		return repo.ErrNotFound
	}
	return f.photos.DeleteByListing(ctx, id)
}

func (f *fakeListings) SetExternalProduct(_ context.Context, id, externalID string, sync entity.SyncStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkCalls++
	if f.linkCalls <= f.linkFailures {
		return errBoom
	}
	l, ok := f.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	l.ExternalProductID, l.SyncStatus = externalID, sync
	return nil
}

func (f *fakeListings) SetSyncStatus(_ context.Context, id string, sync entity.SyncStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	l.SyncStatus = sync
	return nil
}

func (f *fakeListings) Transition(_ context.Context, id string, from, to entity.ListingStatus, reason string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	if l.Status != from {
		return repo.ErrConflict
	}
	l.Status, l.RejectionReason = to, reason
	if to == entity.ListingActive {
		l.ApprovedAt = &at
	}
	return nil
}

type fakeInterventions struct {
	mu   sync.Mutex
	byID map[string]*entity.SyncIntervention
}

func newFakeInterventions() *fakeInterventions {
	return &fakeInterventions{byID: map[string]*entity.SyncIntervention{}}
}

func (f *fakeInterventions) Create(_ context.Context, in *entity.SyncIntervention) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	in.ID = uuid.NewString()
	cp := *in
	f.byID[in.ID] = &cp
	return nil
}

func (f *fakeInterventions) GetByID(_ context.Context, id string) (*entity.SyncIntervention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *in
	return &cp, nil
}

func (f *fakeInterventions) List(_ context.Context, status entity.InterventionStatus, limit, offset int) ([]entity.SyncIntervention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.SyncIntervention{}
	for _, in := range f.byID {
		if status == "" || in.Status == status {
			out = append(out, *in)
		}
	}
	return out, nil
}

func (f *fakeInterventions) RecordAttempt(_ context.Context, id, detail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	in.Attempts++
	in.Detail = detail
	return nil
}

func (f *fakeInterventions) Resolve(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	in.Status, in.ResolvedAt = entity.InterventionResolved, &at
	return nil
}

func (f *fakeInterventions) all() []entity.SyncIntervention {
	out, _ := f.List(context.Background(), "", 0, 0)
	return out
}

type fakeAudit struct {
	mu   sync.Mutex
	rows []entity.AuditLog
}

func (f *fakeAudit) Insert(_ context.Context, a *entity.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *a)
	return nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.rows {
		out = append(out, r.Action)
	}
	return out
}

type fakePayouts struct {
	mu   sync.Mutex
	byID map[string]*entity.Payout
}

func newFakePayouts() *fakePayouts { return &fakePayouts{byID: map[string]*entity.Payout{}} }

func (f *fakePayouts) Create(_ context.Context, p *entity.Payout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = uuid.NewString()
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePayouts) GetByID(_ context.Context, id string) (*entity.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePayouts) ListByCreator(_ context.Context, creatorID string) ([]entity.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.Payout{}
	for _, p := range f.byID {
		if p.CreatorID == creatorID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePayouts) ListByStatus(_ context.Context, status entity.PayoutStatus, limit, offset int) ([]entity.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.Payout{}
	for _, p := range f.byID {
		if p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePayouts) MarkPaid(_ context.Context, id, reference string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	if p.Status != entity.PayoutPending {
		return repo.ErrConflict
	}
	p.Status, p.Reference, p.PaidAt = entity.PayoutPaid, reference, &at
	return nil
}

// fakeStore keeps objects in memory. A Put fails when fail reports true for its path.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    func(path string) bool
	deleted []string
}

func newFakeStore() *fakeStore { return &fakeStore{objects: map[string][]byte{}} }

func (f *fakeStore) Put(_ context.Context, path, _ string, r io.Reader) (string, error) {
	if f.fail != nil && f.fail(path) {
		return "", errBoom
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[path] = b
	return "https://cdn.test/" + path, nil
}

func (f *fakeStore) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, path)
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeStore) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.objects))
	for p := range f.objects {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type fakeCatalog struct {
	mu        sync.Mutex
	createErr   error
	statusErr   error
	createCalls int
	created     []commerce.Product
	statuses  map[string]string
	deleted   []string
}

func (f *fakeCatalog) CreateProduct(_ context.Context, p commerce.Product) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, p)
	return "gid-" + p.Tags[0], nil
}

func (f *fakeCatalog) SetProductStatus(_ context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return f.statusErr
	}
	if f.statuses == nil {
		f.statuses = map[string]string{}
	}
	f.statuses[id] = status
	return nil
}

func (f *fakeCatalog) DeleteProduct(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
	err  error
}

func (f *fakeQueue) Enqueue(_ context.Context, job mailer.EmailJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeQueue) templates() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, j := range f.jobs {
		out = append(out, j.Template)
	}
	return out
}

func (f *fakeQueue) last() mailer.EmailJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[len(f.jobs)-1]
}

type fakeIndex struct {
	mu      sync.Mutex
	docs    map[string]search.ListingDocument
	removed []string
}

func (f *fakeIndex) Index(_ context.Context, doc search.ListingDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs == nil {
		f.docs = map[string]search.ListingDocument{}
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeIndex) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, q string, size int) ([]search.ListingDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []search.ListingDocument{}
	for _, d := range f.docs {
		if strings.Contains(strings.ToLower(d.Title), strings.ToLower(q)) {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeVerifier struct {
	result paypal.Result
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(context.Context, string, string, string) (paypal.Result, error) {
	f.calls++
	return f.result, f.err
}
