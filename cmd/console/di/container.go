package di

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"user-order-console/internal/adapter/cache"
	"user-order-console/internal/adapter/cached"
	"user-order-console/internal/adapter/rest"
	"user-order-console/internal/config"
	"user-order-console/internal/ui/notify"
	"user-order-console/internal/usecase/transfer"
	redisclient "user-order-console/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Client      *rest.Client
	RedisClient *redisclient.Client // nil when the cache is disabled or unreachable
	UserOptions *cached.Users
	Bus         *notify.Bus
	Notifier    notify.Notifier
	Transfer    *transfer.Control

	unsubscribe []func()
}

// NewContainer creates and initializes all application dependencies.
// Notifications are written to out and logged.
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger, out io.Writer) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	client := rest.New(rest.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout(),
	}, l)

	notifier := notify.Multi{notify.NewWriter(out), notify.NewLog(l)}
	bus := notify.NewBus()

	// The cache is optional; without Redis the options come straight from the API.
	var (
		rdb       *redisclient.Client
		pageCache cache.UserPageCache
	)
	if cfg.Redis.Enabled {
		var err error
		rdb, err = redisclient.NewClient(ctx, redisclient.Config{
			Addr:        cfg.Redis.Addr(),
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			MaxRetries:  cfg.Redis.MaxRetries,
			PoolSize:    cfg.Redis.PoolSize,
			MinIdleConn: cfg.Redis.MinIdleConn,
		}, l)
		if err != nil {
			l.Warn("user options cache disabled", zap.Error(err))
		} else {
			pageCache = cache.NewRedisUserPageCache(rdb.Client, cfg.Redis.UserOptionsTTL(), l.Named("cache"))
		}
	}
	userOptions := cached.NewUsers(client, pageCache, l.Named("user_options"))

	c := &Container{
		Config:      cfg,
		Logger:      l,
		Client:      client,
		RedisClient: rdb,
		UserOptions: userOptions,
		Bus:         bus,
		Notifier:    notifier,
		Transfer:    transfer.New(client, cfg.UI.ExportDir, notifier, bus, l),
	}

	// New or imported users make cached options stale.
	c.unsubscribe = append(c.unsubscribe, bus.Subscribe(notify.TopicUsers, func() {
		userOptions.Invalidate(context.WithoutCancel(ctx))
	}))

	return c, nil
}

// Close releases container resources
func (c *Container) Close() error {
	for _, fn := range c.unsubscribe {
		fn()
	}
	if c.RedisClient != nil {
		return c.RedisClient.Close()
	}
	return nil
}
