package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewgpt/internal/domain"
	"interviewgpt/internal/port"
	"interviewgpt/internal/session"
)

func newRecord() *port.SessionRecord {
	now := time.Now().UTC()
	return &port.SessionRecord{
		ID:    uuid.New(),
		State: domain.StateActive,
		Turns: []domain.Turn{
			{Seq: 1, Role: domain.RoleUser, Content: "resume", Hidden: true, CreatedAt: now},
			{Seq: 2, Role: domain.RoleAssistant, Content: "Q1", CreatedAt: now},
		},
		Resume:    &domain.ExtractedText{Text: "resume", Method: domain.ExtractionTextLayer, PageCount: 1, PagesRead: 1},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestMemoryStore_CreateGet(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	ctx := context.Background()
	rec := newRecord()

	require.NoError(t, store.Create(ctx, rec))

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Turns, got.Turns)
	assert.Equal(t, domain.StateActive, got.State)
}

func TestMemoryStore_CreateDuplicate(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	rec := newRecord()
	require.NoError(t, store.Create(context.Background(), rec))

	err := store.Create(context.Background(), rec)

	assert.Error(t, err)
}

func TestMemoryStore_GetReturnsIsolatedCopy(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	ctx := context.Background()
	rec := newRecord()
	require.NoError(t, store.Create(ctx, rec))

	rec.Turns[0].Content = "mutated after create"
	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	got.Turns[1].Content = "mutated after get"

	again, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "resume", again.Turns[0].Content)
	assert.Equal(t, "Q1", again.Turns[1].Content)
}

func TestMemoryStore_NotFound(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	ctx := context.Background()

	_, err := store.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.ErrorIs(t, store.Save(ctx, newRecord()), domain.ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, uuid.New()), domain.ErrSessionNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := session.NewMemoryStoreWithClock(time.Hour, clock.now)
	ctx := context.Background()
	rec := newRecord()
	require.NoError(t, store.Create(ctx, rec))

	clock.t = clock.t.Add(59 * time.Minute)
	require.NoError(t, store.Save(ctx, rec), "save before expiry extends the TTL")

	clock.t = clock.t.Add(59 * time.Minute)
	_, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)

	clock.t = clock.t.Add(2 * time.Minute)
	_, err = store.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestMemoryStore_CreateSweepsAbandonedSessions(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := session.NewMemoryStoreWithClock(time.Minute, clock.now)
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		require.NoError(t, store.Create(ctx, newRecord()))
	}
	require.Equal(t, 1000, store.Len())

	clock.t = clock.t.Add(time.Hour)
	fresh := newRecord()
	require.NoError(t, store.Create(ctx, fresh))

	assert.Equal(t, 1, store.Len())
	_, err := store.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestMemoryStore_SweepKeepsLiveSessions(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := session.NewMemoryStoreWithClock(time.Hour, clock.now)
	ctx := context.Background()
	old, recent := newRecord(), newRecord()
	require.NoError(t, store.Create(ctx, old))

	clock.t = clock.t.Add(40 * time.Minute)
	require.NoError(t, store.Create(ctx, recent))

	clock.t = clock.t.Add(30 * time.Minute)
	require.NoError(t, store.Create(ctx, newRecord()))

	assert.Equal(t, 2, store.Len())
	_, err := store.Get(ctx, recent.ID)
	assert.NoError(t, err)
	_, err = store.Get(ctx, old.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestMemoryStore_SaveAndDelete(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	ctx := context.Background()
	rec := newRecord()
	require.NoError(t, store.Create(ctx, rec))

	rec.Turns = append(rec.Turns, domain.Turn{Seq: 3, Role: domain.RoleUser, Content: "A1"})
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, got.Turns, 3)

	require.NoError(t, store.Delete(ctx, rec.ID))
	_, err = store.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestMemoryStore_SessionsAreIsolated(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	ctx := context.Background()
	a, b := newRecord(), newRecord()
	require.NoError(t, store.Create(ctx, a))
	require.NoError(t, store.Create(ctx, b))

	require.NoError(t, store.Delete(ctx, a.ID))

	_, err := store.Get(ctx, b.ID)
	assert.NoError(t, err)
}
