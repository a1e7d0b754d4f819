package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/paydesk/api/internal/clock"
	"github.com/paydesk/api/internal/domain"
	"github.com/shopspring/decimal"
)

// Draft is the per-owner order being gathered field by field before the
// Create transition fires. It lives only in memory and expires if abandoned.
type Draft struct {
	OwnerID      int64
	ServiceLabel string
	BaseAmount   decimal.Decimal
	AmountSet    bool
	UpdatedAt    time.Time
}

// Complete reports whether every field required by Create has been supplied.
func (d Draft) Complete() bool {
	return d.ServiceLabel != "" && d.AmountSet
}

// DraftStore accumulates drafts keyed by owner id, evicting entries that sit
// untouched past the TTL.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[int64]Draft
	ttl    time.Duration
	clock  clock.Clock
}

func NewDraftStore(ttl time.Duration, clk clock.Clock) *DraftStore {
	return &DraftStore{
		drafts: make(map[int64]Draft),
		ttl:    ttl,
		clock:  clk,
	}
}

// SetService records the service label, starting a draft if needed.
func (s *DraftStore) SetService(ownerID int64, label string) (Draft, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Draft{}, domain.ErrServiceRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.liveLocked(ownerID)
	draft.ServiceLabel = label
	draft.UpdatedAt = s.clock.Now()
	s.drafts[ownerID] = draft
	return draft, nil
}

// SetAmount records the base amount, starting a draft if needed.
func (s *DraftStore) SetAmount(ownerID int64, amount decimal.Decimal) (Draft, error) {
	if amount.Sign() <= 0 {
		return Draft{}, domain.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.liveLocked(ownerID)
	draft.BaseAmount = amount
	draft.AmountSet = true
	draft.UpdatedAt = s.clock.Now()
	s.drafts[ownerID] = draft
	return draft, nil
}

// Get returns the owner's live draft, if any. Expired drafts count as absent.
func (s *DraftStore) Get(ownerID int64) (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, ok := s.drafts[ownerID]
	if !ok {
		return Draft{}, false
	}
	if s.expired(draft) {
		delete(s.drafts, ownerID)
		return Draft{}, false
	}
	return draft, true
}

// Take removes and returns a complete draft, failing when the draft is
// missing, expired or still gathering fields.
func (s *DraftStore) Take(ownerID int64) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, ok := s.drafts[ownerID]
	if !ok || s.expired(draft) {
		delete(s.drafts, ownerID)
		return Draft{}, domain.ErrDraftIncomplete
	}
	if !draft.Complete() {
		return Draft{}, domain.ErrDraftIncomplete
	}
	delete(s.drafts, ownerID)
	return draft, nil
}

// Put restores a draft, e.g. after a failed submit.
func (s *DraftStore) Put(draft Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.OwnerID] = draft
}

// Clear drops the owner's draft.
func (s *DraftStore) Clear(ownerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, ownerID)
}

// Run evicts expired drafts until ctx is cancelled.
func (s *DraftStore) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.purge()
		}
	}
}

func (s *DraftStore) purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ownerID, draft := range s.drafts {
		if s.expired(draft) {
			delete(s.drafts, ownerID)
		}
	}
}

// liveLocked returns the owner's draft for modification, replacing an
// expired one with a fresh draft. Caller holds s.mu.
func (s *DraftStore) liveLocked(ownerID int64) Draft {
	draft, ok := s.drafts[ownerID]
	if !ok || s.expired(draft) {
		return Draft{OwnerID: ownerID}
	}
	return draft
}

func (s *DraftStore) expired(draft Draft) bool {
	return s.clock.Now().Sub(draft.UpdatedAt) > s.ttl
}
