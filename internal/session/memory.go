package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"interviewgpt/internal/domain"
	"interviewgpt/internal/port"
)

type memoryItem struct {
	rec       port.SessionRecord
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Expired entries are dropped on
// access, and abandoned ones are swept out when new sessions are created.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	items     map[uuid.UUID]memoryItem
	now       func() time.Time
	nextSweep time.Time
}

// NewMemoryStore creates an in-memory session store with the given TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return NewMemoryStoreWithClock(ttl, time.Now)
}

// NewMemoryStoreWithClock creates an in-memory session store using now as its clock.
func NewMemoryStoreWithClock(ttl time.Duration, now func() time.Time) *MemoryStore {
	return &MemoryStore{
		ttl:   ttl,
		items: make(map[uuid.UUID]memoryItem),
		now:   now,
	}
}

func (s *MemoryStore) Create(_ context.Context, rec *port.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	if _, ok := s.live(rec.ID); ok {
		return fmt.Errorf("session %s already exists", rec.ID)
	}
	s.items[rec.ID] = memoryItem{rec: copyRecord(rec), expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*port.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.live(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	rec := copyRecord(&item.rec)
	return &rec, nil
}

// Save replaces an existing session and extends its expiry.
func (s *MemoryStore) Save(_ context.Context, rec *port.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(rec.ID); !ok {
		return domain.ErrSessionNotFound
	}
	s.items[rec.ID] = memoryItem{rec: copyRecord(rec), expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(id); !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.items, id)
	return nil
}

// Len returns the number of sessions held, expired ones not yet swept included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// sweep drops every expired entry, at most once per half TTL. Caller holds s.mu.
func (s *MemoryStore) sweep() {
	if s.ttl <= 0 {
		return
	}
	now := s.now()
	if now.Before(s.nextSweep) {
		return
	}
	s.nextSweep = now.Add(s.ttl / 2)
	for id, item := range s.items {
		if !now.Before(item.expiresAt) {
			delete(s.items, id)
		}
	}
}

// live returns the item if present and unexpired. Caller holds s.mu.
func (s *MemoryStore) live(id uuid.UUID) (memoryItem, bool) {
	item, ok := s.items[id]
	if !ok {
		return memoryItem{}, false
	}
	if s.ttl > 0 && !s.now().Before(item.expiresAt) {
		delete(s.items, id)
		return memoryItem{}, false
	}
	return item, true
}

func copyRecord(rec *port.SessionRecord) port.SessionRecord {
	out := *rec
	out.Turns = append([]domain.Turn(nil), rec.Turns...)
	if rec.Resume != nil {
		resume := *rec.Resume
		out.Resume = &resume
	}
	return out
}
