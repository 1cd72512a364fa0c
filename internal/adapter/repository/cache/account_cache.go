// Package cache keeps recently used accounts in memory in front of a slower repository.
package cache

import (
	"context"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2"
	"github.com/simaogato/wealthflow-transfer/internal/domain"
)

// DefaultAccountCacheSize is used when a non-positive size is configured
const DefaultAccountCacheSize = 256

// accountCache implements domain.AccountRepository.
// Lookups by ID are served from an LRU cache; List always reads through.
type accountCache struct {
	next   domain.AccountRepository
	recent *lru.Cache[uuid.UUID, domain.Account]
}

// NewAccountCache wraps next with an LRU cache of size accounts
func NewAccountCache(next domain.AccountRepository, size int) (domain.AccountRepository, error) {
	if size <= 0 {
		size = DefaultAccountCacheSize
	}

	recent, err := lru.New[uuid.UUID, domain.Account](size)
	if err != nil {
		return nil, err
	}

	return &accountCache{next: next, recent: recent}, nil
}

// GetByID returns a copy of the cached account, loading it on a miss.
// Failed lookups are not cached.
func (c *accountCache) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	if account, ok := c.recent.Get(id); ok {
		return &account, nil
	}

	account, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.recent.Add(id, *account)
	return account, nil
}

// Create stores the account and caches it once the write succeeded
func (c *accountCache) Create(ctx context.Context, account *domain.Account) error {
	if err := c.next.Create(ctx, account); err != nil {
		return err
	}

	c.recent.Add(account.ID, *account)
	return nil
}

// List reads through to the underlying repository
func (c *accountCache) List(ctx context.Context, kindFilter domain.AccountKind) ([]*domain.Account, error) {
	return c.next.List(ctx, kindFilter)
}
