package entity

import (
	"sort"
	"strings"
	"time"
)

type ListingStatus string

const (
	ListingPending  ListingStatus = "pending_approval"
	ListingActive   ListingStatus = "active"
	ListingRejected ListingStatus = "rejected"
	ListingRemoved  ListingStatus = "removed"
)

type SyncStatus string

const (
	SyncDisabled    SyncStatus = "disabled"
	SyncPending     SyncStatus = "pending"
	SyncSynced      SyncStatus = "synced"
	SyncNeedsManual SyncStatus = "needs_manual"
)

type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionUsed    Condition = "used"
)

// ParseCondition accepts one of the three listing conditions.
func ParseCondition(s string) (Condition, bool) {
	switch c := Condition(strings.ToLower(strings.TrimSpace(s))); c {
	case ConditionNew, ConditionLikeNew, ConditionUsed:
		return c, true
	}
	return "", false
}

type Listing struct {
	ID                string
	CreatorID         string
	Title             string
	Category          string
	Condition         Condition
	Story             string
	PriceCents        int64
	Status            ListingStatus
	RejectionReason   string
	ExternalProductID string
	SyncStatus        SyncStatus
	Photos            []ListingPhoto
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ApprovedAt        *time.Time
}

// CategorySet is the immutable category allow-list built at startup.
type CategorySet struct {
	set  map[string]struct{}
	list []string
}

func NewCategorySet(categories ...string) CategorySet {
	cs := CategorySet{set: make(map[string]struct{}, len(categories))}
	for _, c := range categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, dup := cs.set[c]; dup {
			continue
		}
		cs.set[c] = struct{}{}
		cs.list = append(cs.list, c)
	}
	sort.Strings(cs.list)
	return cs
}

// Normalize returns the canonical category for s, if allowed.
func (cs CategorySet) Normalize(s string) (string, bool) {
	c := strings.ToLower(strings.TrimSpace(s))
	_, ok := cs.set[c]
	return c, ok
}

func (cs CategorySet) List() []string { return append([]string(nil), cs.list...) }
