package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Urdemonlord/atlasproject/internal/logging"
	"github.com/Urdemonlord/atlasproject/internal/models"
)

type fakeRedis struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failGet bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type countingProps struct {
	PropertyRepository
	lists, finds int
}

func (c *countingProps) List(ctx context.Context) ([]models.Property, error) {
	c.lists++
	return c.PropertyRepository.List(ctx)
}

func (c *countingProps) FindByID(ctx context.Context, id string) (*models.Property, error) {
	c.finds++
	return c.PropertyRepository.FindByID(ctx, id)
}

func TestCachedProperty_ReadThroughAndInvalidate(t *testing.T) {
	ctx := context.Background()
	props, _, _ := seededMemory(t)
	inner := &countingProps{PropertyRepository: props}
	rdb := newFakeRedis()
	cached := NewCachedPropertyRepository(inner, rdb, time.Minute, logging.Discard())

	first, err := cached.List(ctx)
	require.NoError(t, err)
	second, err := cached.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.lists)
	assert.Equal(t, first, second)
	assert.Equal(t, time.Minute, rdb.ttls[cacheKeyAllProperties])

	p, err := cached.FindByID(ctx, "1")
	require.NoError(t, err)
	_, err = cached.FindByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.finds)

	p.Title = "Kos Putri Premium Renovasi"
	require.NoError(t, cached.Update(ctx, p))

	got, err := cached.FindByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Kos Putri Premium Renovasi", got.Title)
	assert.Equal(t, 2, inner.finds)

	_, err = cached.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.lists)
}

func TestCachedProperty_FallsThroughWhenRedisFails(t *testing.T) {
	ctx := context.Background()
	props, _, _ := seededMemory(t)
	rdb := newFakeRedis()
	rdb.failGet = true
	cached := NewCachedPropertyRepository(props, rdb, time.Minute, logging.Discard())

	all, err := cached.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	_, err = cached.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

type failingProps struct {
	PropertyRepository
	err error
}

func (f *failingProps) List(ctx context.Context) ([]models.Property, error) {
	return nil, f.err
}

func TestBreakerProperty_OpensOnInfrastructureFailures(t *testing.T) {
	ctx := context.Background()
	inner := &failingProps{PropertyRepository: NewMemoryPropertyRepository(), err: errors.New("server selection timeout")}
	cb := NewCircuitBreaker("properties", BreakerSettings{MaxFailures: 2, Timeout: time.Minute}, logging.Discard())
	repo := NewBreakerPropertyRepository(inner, cb)

	for i := 0; i < 3; i++ {
		_, err := repo.List(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrTransient)
		assert.ErrorIs(t, err, inner.err)
	}

	_, err := repo.List(ctx)
	assert.ErrorIs(t, err, models.ErrTransient)
	assert.NotErrorIs(t, err, inner.err)

	// Open circuit rejects every call, even ones the store would answer.
	_, err = repo.FindByID(ctx, "1")
	assert.ErrorIs(t, err, models.ErrTransient)
}

func TestBreakerProperty_DomainErrorsDoNotTrip(t *testing.T) {
	ctx := context.Background()
	cb := NewCircuitBreaker("properties", BreakerSettings{MaxFailures: 1, Timeout: time.Minute}, logging.Discard())
	repo := NewBreakerPropertyRepository(NewMemoryPropertyRepository(), cb)

	for i := 0; i < 5; i++ {
		_, err := repo.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NotErrorIs(t, err, models.ErrTransient)
	}
	require.NoError(t, repo.Create(ctx, &models.Property{ID: "x", Title: "Kos"}))
}

func TestBreakerBooking_PassesThrough(t *testing.T) {
	ctx := context.Background()
	_, bookings, _ := seededMemory(t)
	cb := NewCircuitBreaker("bookings", BreakerSettings{MaxFailures: 2, Timeout: time.Minute}, logging.Discard())
	repo := NewBreakerBookingRepository(bookings, cb)

	list, err := repo.ListByTenant(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = repo.UpdateStatus(ctx, "1", models.BookingStatusPending, models.BookingStatusCancelled, time.Now())
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}
