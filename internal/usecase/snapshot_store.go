package usecase

import (
	"sync"
	"sync/atomic"

	"dental-referral-tracker/internal/domain/entity"
)

// snapshotStore owns the in-memory snapshot. Reads take copies; writes go
// through apply (reload results) or mutate (acknowledged local edits).
//
// Every reload and every mutation draws a ticket. A reload carrying a
// ticket older than the last applied one is discarded, so a slow reload
// can never overwrite newer state.
type snapshotStore struct {
	mu      sync.RWMutex
	snap    entity.Snapshot
	loaded  bool
	issued  atomic.Uint64
	applied uint64
}

func (s *snapshotStore) nextTicket() uint64 {
	return s.issued.Add(1)
}

// apply installs a reloaded snapshot. It reports false when the result is stale.
func (s *snapshotStore) apply(ticket uint64, snap entity.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket < s.applied {
		return false
	}
	s.applied = ticket
	s.snap = snap
	s.loaded = true
	return true
}

// mutate edits the snapshot in place under the write lock.
func (s *snapshotStore) mutate(fn func(snap *entity.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.snap)
	s.applied = s.nextTicket()
}

func (s *snapshotStore) isLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// current returns a copy that callers may read freely.
func (s *snapshotStore) current() entity.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySnapshot(&s.snap)
}

// view runs fn under the read lock. fn must not retain snap.
func (s *snapshotStore) view(fn func(snap *entity.Snapshot)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.snap)
}

// referral returns a copy of the referral with id.
func (s *snapshotStore) referral(id int64) (entity.Referral, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := indexOfReferral(s.snap.Referrals, id); i >= 0 {
		return s.snap.Referrals[i], true
	}
	return entity.Referral{}, false
}

func indexOfReferral(referrals []entity.Referral, id int64) int {
	for i := range referrals {
		if referrals[i].ID == id {
			return i
		}
	}
	return -1
}

func copySnapshot(src *entity.Snapshot) entity.Snapshot {
	dst := entity.Snapshot{
		Dentists:  append([]entity.Dentist(nil), src.Dentists...),
		Staff:     append([]entity.StaffMember(nil), src.Staff...),
		Referrals: make([]entity.Referral, len(src.Referrals)),
		LoadedAt:  src.LoadedAt,
	}
	for i, r := range src.Referrals {
		if r.PaidAt != nil {
			t := *r.PaidAt
			r.PaidAt = &t
		}
		if r.PaymentMonth != nil {
			m := *r.PaymentMonth
			r.PaymentMonth = &m
		}
		dst.Referrals[i] = r
	}
	return dst
}
