package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Urdemonlord/atlasproject/internal/models"
)

const (
	cacheKeyAllProperties = "properties:all"
	cacheKeyPropertyBy    = "property:"
)

// RedisStore is the subset of *redis.Client the cache needs.
type RedisStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// cachedPropertyRepository is a read-through Redis cache in front of another
// PropertyRepository. Cache failures are logged and never fail a request.
type cachedPropertyRepository struct {
	inner PropertyRepository
	rdb   RedisStore
	ttl   time.Duration
	log   logrus.FieldLogger
}

func NewCachedPropertyRepository(inner PropertyRepository, rdb RedisStore, ttl time.Duration, log logrus.FieldLogger) PropertyRepository {
	return &cachedPropertyRepository{inner: inner, rdb: rdb, ttl: ttl, log: log.WithField("component", "property_cache")}
}

func (r *cachedPropertyRepository) load(ctx context.Context, key string, dst interface{}) bool {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.WithError(err).WithField("key", key).Warn("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		r.log.WithError(err).WithField("key", key).Warn("discarding undecodable cache entry")
		return false
	}
	return true
}

func (r *cachedPropertyRepository) store(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		r.log.WithError(err).WithField("key", key).Warn("cache encode failed")
		return
	}
	if err := r.rdb.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

func (r *cachedPropertyRepository) invalidate(ctx context.Context, id string) {
	if err := r.rdb.Del(ctx, cacheKeyAllProperties, cacheKeyPropertyBy+id).Err(); err != nil {
		r.log.WithError(err).WithField("property_id", id).Warn("cache invalidation failed")
	}
}

func (r *cachedPropertyRepository) List(ctx context.Context) ([]models.Property, error) {
	var props []models.Property
	if r.load(ctx, cacheKeyAllProperties, &props) {
		return props, nil
	}
	props, err := r.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	r.store(ctx, cacheKeyAllProperties, props)
	return props, nil
}

func (r *cachedPropertyRepository) FindByID(ctx context.Context, id string) (*models.Property, error) {
	var p models.Property
	if r.load(ctx, cacheKeyPropertyBy+id, &p) {
		return &p, nil
	}
	found, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, cacheKeyPropertyBy+id, found)
	return found, nil
}

func (r *cachedPropertyRepository) FindByOwner(ctx context.Context, ownerID string) ([]models.Property, error) {
	return r.inner.FindByOwner(ctx, ownerID)
}

func (r *cachedPropertyRepository) Create(ctx context.Context, p *models.Property) error {
	if err := r.inner.Create(ctx, p); err != nil {
		return err
	}
	r.invalidate(ctx, p.ID)
	return nil
}

func (r *cachedPropertyRepository) Update(ctx context.Context, p *models.Property) error {
	if err := r.inner.Update(ctx, p); err != nil {
		return err
	}
	r.invalidate(ctx, p.ID)
	return nil
}

func (r *cachedPropertyRepository) AddImage(ctx context.Context, id, image string) error {
	if err := r.inner.AddImage(ctx, id, image); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}
