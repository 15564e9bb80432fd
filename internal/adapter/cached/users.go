// Package cached decorates API listings with a cache-aside layer.
package cached

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-order-console/internal/adapter/cache"
	"user-order-console/internal/adapter/rest"
	"user-order-console/internal/domain/paging"
	"user-order-console/internal/domain/user"
)

// UserLister lists users a page at a time.
type UserLister interface {
	ListUsers(ctx context.Context, p rest.ListParams) (*paging.Page[user.User], error)
}

// Users implements UserLister with caching support for the first,
// unfiltered page. Every other request goes straight to the API.
type Users struct {
	api   UserLister
	cache cache.UserPageCache
	log   *zap.Logger
	group singleflight.Group
}

// NewUsers creates a caching user lister. A nil cache disables caching.
func NewUsers(api UserLister, c cache.UserPageCache, log *zap.Logger) *Users {
	return &Users{
		api:   api,
		cache: c,
		log:   log,
	}
}

func cacheable(p rest.ListParams) bool {
	return p.Query == "" && (p.Page == 0 || p.Page == rest.DefaultPage)
}

// ListUsers retrieves a page of users using the cache-aside pattern.
func (u *Users) ListUsers(ctx context.Context, p rest.ListParams) (*paging.Page[user.User], error) {
	if u.cache == nil || !cacheable(p) {
		return u.api.ListUsers(ctx, p)
	}
	limit := p.Limit
	if limit <= 0 {
		limit = rest.DefaultLimit
	}

	if page, err := u.cache.Get(ctx, limit); err != nil {
		u.log.Warn("cache get error, falling back to api", zap.Int64("limit", limit), zap.Error(err))
	} else if page != nil {
		return page, nil
	}

	// Cache miss: single-flight so concurrent loads share one request.
	key := fmt.Sprintf("users:first-page:%d", limit)
	result, err, _ := u.group.Do(key, func() (any, error) {
		if page, err := u.cache.Get(ctx, limit); err == nil && page != nil {
			u.log.Debug("users page retrieved from cache after single-flight wait", zap.Int64("limit", limit))
			return page, nil
		}

		page, err := u.api.ListUsers(ctx, rest.ListParams{Page: rest.DefaultPage, Limit: limit})
		if err != nil {
			return nil, err
		}

		if err := u.cache.Set(ctx, limit, page); err != nil {
			u.log.Warn("failed to cache users page", zap.Int64("limit", limit), zap.Error(err))
		}
		return page, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*paging.Page[user.User]), nil
}

// Invalidate drops cached pages, typically after a user was created or
// imported.
func (u *Users) Invalidate(ctx context.Context) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Invalidate(ctx); err != nil {
		u.log.Warn("failed to invalidate users cache", zap.Error(err))
	}
}
