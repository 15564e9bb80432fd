package cached

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-order-console/internal/adapter/cache"
	"user-order-console/internal/adapter/rest"
	"user-order-console/internal/domain/paging"
	"user-order-console/internal/domain/user"
)

type mockLister struct {
	mock.Mock
}

func (m *mockLister) ListUsers(ctx context.Context, p rest.ListParams) (*paging.Page[user.User], error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paging.Page[user.User]), args.Error(1)
}

func newRedisCache(t *testing.T) (cache.UserPageCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisUserPageCache(client, time.Minute, zaptest.NewLogger(t)), mr
}

func firstPage(limit int64) *paging.Page[user.User] {
	return paging.NewPage([]user.User{{ID: 1, Name: "Ada", Email: "ada@example.com"}}, 1, 1, limit)
}

func TestUsers_CachesFirstPage(t *testing.T) {
	api := new(mockLister)
	c, _ := newRedisCache(t)
	users := NewUsers(api, c, zaptest.NewLogger(t))
	ctx := context.Background()

	params := rest.ListParams{Page: 1, Limit: 50}
	api.On("ListUsers", mock.Anything, params).Return(firstPage(50), nil).Once()

	for range 3 {
		page, err := users.ListUsers(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", page.Items[0].Email)
	}
	api.AssertNumberOfCalls(t, "ListUsers", 1)
}

func TestUsers_CachesWhenServerClampsLimit(t *testing.T) {
	api := new(mockLister)
	c, _ := newRedisCache(t)
	users := NewUsers(api, c, zaptest.NewLogger(t))
	ctx := context.Background()

	params := rest.ListParams{Page: 1, Limit: 500}
	api.On("ListUsers", mock.Anything, params).Return(firstPage(100), nil).Once()

	for range 2 {
		_, err := users.ListUsers(ctx, params)
		require.NoError(t, err)
	}
	api.AssertNumberOfCalls(t, "ListUsers", 1)
}

func TestUsers_BypassesCacheForSearchAndLaterPages(t *testing.T) {
	api := new(mockLister)
	c, mr := newRedisCache(t)
	users := NewUsers(api, c, zaptest.NewLogger(t))
	ctx := context.Background()

	search := rest.ListParams{Page: 1, Limit: 50, Query: "ada"}
	second := rest.ListParams{Page: 2, Limit: 50}
	api.On("ListUsers", mock.Anything, search).Return(firstPage(50), nil).Twice()
	api.On("ListUsers", mock.Anything, second).Return(paging.NewPage[user.User](nil, 1, 2, 50), nil).Once()

	_, err := users.ListUsers(ctx, search)
	require.NoError(t, err)
	_, err = users.ListUsers(ctx, search)
	require.NoError(t, err)
	_, err = users.ListUsers(ctx, second)
	require.NoError(t, err)

	api.AssertExpectations(t)
	assert.Empty(t, mr.Keys())
}

func TestUsers_NilCachePassesThrough(t *testing.T) {
	api := new(mockLister)
	users := NewUsers(api, nil, zaptest.NewLogger(t))

	params := rest.ListParams{Page: 1, Limit: 50}
	api.On("ListUsers", mock.Anything, params).Return(firstPage(50), nil).Twice()

	for range 2 {
		_, err := users.ListUsers(context.Background(), params)
		require.NoError(t, err)
	}
	api.AssertExpectations(t)
	users.Invalidate(context.Background())
}

func TestUsers_APIErrorIsNotCached(t *testing.T) {
	api := new(mockLister)
	c, mr := newRedisCache(t)
	users := NewUsers(api, c, zaptest.NewLogger(t))

	params := rest.ListParams{Page: 1, Limit: 50}
	api.On("ListUsers", mock.Anything, params).Return(nil, errors.New("boom")).Once()

	_, err := users.ListUsers(context.Background(), params)
	assert.EqualError(t, err, "boom")
	assert.Empty(t, mr.Keys())
}

func TestUsers_CacheFailureFallsBackToAPI(t *testing.T) {
	api := new(mockLister)
	c, mr := newRedisCache(t)
	users := NewUsers(api, c, zaptest.NewLogger(t))
	mr.Close()

	params := rest.ListParams{Page: 1, Limit: 50}
	api.On("ListUsers", mock.Anything, params).Return(firstPage(50), nil).Once()

	page, err := users.ListUsers(context.Background(), params)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestUsers_Invalidate(t *testing.T) {
	api := new(mockLister)
	c, _ := newRedisCache(t)
	users := NewUsers(api, c, zaptest.NewLogger(t))
	ctx := context.Background()

	params := rest.ListParams{Page: 1, Limit: 50}
	api.On("ListUsers", mock.Anything, params).Return(firstPage(50), nil).Twice()

	_, err := users.ListUsers(ctx, params)
	require.NoError(t, err)
	users.Invalidate(ctx)
	_, err = users.ListUsers(ctx, params)
	require.NoError(t, err)

	api.AssertExpectations(t)
}

func TestUsers_ConcurrentMissesShareOneRequest(t *testing.T) {
	api := new(mockLister)
	c, _ := newRedisCache(t)
	users := NewUsers(api, c, zaptest.NewLogger(t))

	params := rest.ListParams{Page: 1, Limit: 50}
	release := make(chan time.Time)
	api.On("ListUsers", mock.Anything, params).
		WaitUntil(release).
		Return(firstPage(50), nil)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := users.ListUsers(context.Background(), params)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	// Late arrivals may read the cache instead of joining the flight.
	assert.LessOrEqual(t, len(api.Calls), 2)
	assert.GreaterOrEqual(t, len(api.Calls), 1)
}
