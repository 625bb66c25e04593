package services

import (
	"context"
	"time"

	"academy_app_echo/internal/models"
	"academy_app_echo/internal/repository"
)

const activeSubscriptionsCacheKey = "webhook:subscriptions:active"

// DefaultSubscriptionCacheTTL bounds how stale the dispatcher's view of
// the registry can get if an invalidation is missed.
const DefaultSubscriptionCacheTTL = 60 * time.Second

// CachedSubscriptionStore wraps a SubscriptionRepository with a Redis
// cache over the active set, which the dispatcher reads on every event.
// Writes go straight through and drop the cached set.
type CachedSubscriptionStore struct {
	repository.SubscriptionRepository
	cache *RedisCache
	ttl   time.Duration
}

func NewCachedSubscriptionStore(inner repository.SubscriptionRepository, cache *RedisCache, ttl time.Duration) *CachedSubscriptionStore {
	if ttl <= 0 {
		ttl = DefaultSubscriptionCacheTTL
	}
	return &CachedSubscriptionStore{SubscriptionRepository: inner, cache: cache, ttl: ttl}
}

func (s *CachedSubscriptionStore) Active(ctx context.Context) ([]models.WebhookSubscription, error) {
	return GetOrSet(s.cache, ctx, activeSubscriptionsCacheKey, s.ttl, func() ([]models.WebhookSubscription, error) {
		return s.SubscriptionRepository.Active(ctx)
	})
}

func (s *CachedSubscriptionStore) ActiveForEvent(ctx context.Context, eventType string) ([]models.WebhookSubscription, error) {
	active, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}
	return repository.FilterByEvent(active, eventType), nil
}

func (s *CachedSubscriptionStore) Create(ctx context.Context, sub *models.WebhookSubscription) error {
	if err := s.SubscriptionRepository.Create(ctx, sub); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachedSubscriptionStore) Update(ctx context.Context, sub *models.WebhookSubscription) error {
	if err := s.SubscriptionRepository.Update(ctx, sub); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachedSubscriptionStore) Delete(ctx context.Context, id uint) error {
	if err := s.SubscriptionRepository.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachedSubscriptionStore) invalidate(ctx context.Context) {
	// Best effort, the TTL bounds staleness anyway.
	_ = s.cache.Delete(ctx, activeSubscriptionsCacheKey)
}
