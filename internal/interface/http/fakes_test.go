package handlers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/creator-marketplace/internal/domain/repository"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[string]*entity.User
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Email == u.Email {
			return repo.ErrConflict
		}
	}
	u.ID, u.CreatedAt = uuid.NewString(), time.Now()
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) get(pred func(*entity.User) bool) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if pred(u) {
			cp := *u
			cp.Roles = append([]string(nil), u.Roles...)
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	return m.get(func(u *entity.User) bool { return u.ID == id })
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return m.get(func(u *entity.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *memUsers) Update(context.Context, *entity.User) error { return nil }

func (m *memUsers) MarkVerified(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		u.IsVerified = true
		return nil
	}
	return repo.ErrNotFound
}

func (m *memUsers) UpdatePassword(context.Context, string, string) error { return nil }

func (m *memUsers) AssignRole(_ context.Context, userID, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[userID].Roles = append(m.byID[userID].Roles, role)
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

type memCreators struct {
	mu   sync.Mutex
	byID map[string]*entity.Creator
}

func (m *memCreators) find(pred func(*entity.Creator) bool) (*entity.Creator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if pred(c) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memCreators) Create(_ context.Context, c *entity.Creator) error {
	if _, err := m.find(func(x *entity.Creator) bool { return x.Username == c.Username }); err == nil {
		return repo.ErrConflict
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.NewString()
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memCreators) GetByID(_ context.Context, id string) (*entity.Creator, error) {
	return m.find(func(c *entity.Creator) bool { return c.ID == id })
}

func (m *memCreators) GetByUserID(_ context.Context, userID string) (*entity.Creator, error) {
	return m.find(func(c *entity.Creator) bool { return c.UserID == userID })
}

func (m *memCreators) GetByUsername(_ context.Context, username string) (*entity.Creator, error) {
	return m.find(func(c *entity.Creator) bool { return c.Username == strings.ToLower(username) })
}

func (m *memCreators) Update(_ context.Context, c *entity.Creator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memCreators) SetPayPal(_ context.Context, id, email string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].PayPalEmail, m.byID[id].PayPalVerifiedAt = email, &at
	return nil
}

type memVerifications struct{}

func (memVerifications) Upsert(context.Context, *entity.CreatorVerification) error { return nil }
func (memVerifications) ListByCreator(context.Context, string) ([]entity.CreatorVerification, error) {
	return []entity.CreatorVerification{}, nil
}
func (memVerifications) Delete(context.Context, string, string) error { return nil }

type memListings struct {
	mu   sync.Mutex
	byID map[string]*entity.Listing
}

func (m *memListings) put(l entity.Listing) { m.mu.Lock(); m.byID[l.ID] = &l; m.mu.Unlock() }

func (m *memListings) Create(_ context.Context, l *entity.Listing) error {
	l.ID = uuid.NewString()
	m.put(*l)
	return nil
}

func (m *memListings) GetByID(_ context.Context, id string) (*entity.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.byID[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, repo.ErrNotFound
}

func (m *memListings) ListByCreator(_ context.Context, creatorID string, status entity.ListingStatus) ([]entity.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []entity.Listing{}
	for _, l := range m.byID {
		if l.CreatorID == creatorID && (status == "" || l.Status == status) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memListings) ListByStatus(context.Context, entity.ListingStatus, int, int) ([]entity.Listing, error) {
	return nil, nil
}
func (m *memListings) Delete(context.Context, string) error { return nil }
func (m *memListings) SetExternalProduct(context.Context, string, string, entity.SyncStatus) error {
	return nil
}
func (m *memListings) SetSyncStatus(context.Context, string, entity.SyncStatus) error { return nil }
func (m *memListings) Transition(context.Context, string, entity.ListingStatus, entity.ListingStatus, string, time.Time) error {
	return nil
}
