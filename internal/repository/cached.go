package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/dcplaces/backend/internal/cache"
	"github.com/emilythestrangee/dcplaces/backend/internal/logs"
	"github.com/emilythestrangee/dcplaces/backend/internal/models"
)

// CachedPosts serves listings from redis and invalidates them on any write.
// Single-post reads always go to the store.
type CachedPosts struct {
	PostStore
	lists *cache.Cache[[]models.Post]
	gen   *cache.Generation
	ttl   time.Duration
}

func NewCachedPosts(store PostStore, rc *redis.Client, ttl time.Duration) *CachedPosts {
	return &CachedPosts{
		PostStore: store,
		lists:     cache.NewCache[[]models.Post](rc, "posts"),
		gen:       cache.NewGeneration(rc, "posts:generation"),
		ttl:       ttl,
	}
}

func (c *CachedPosts) List(ctx context.Context, opts ListOptions) ([]models.Post, error) {
	field := fmt.Sprintf("list:%s:%s", opts.Sort, strings.ToLower(strings.TrimSpace(opts.Search)))
	return c.cached(ctx, field, func() ([]models.Post, error) {
		return c.PostStore.List(ctx, opts)
	})
}

func (c *CachedPosts) Featured(ctx context.Context, limit int) ([]models.Post, error) {
	return c.cached(ctx, fmt.Sprintf("featured:%d", limit), func() ([]models.Post, error) {
		return c.PostStore.Featured(ctx, limit)
	})
}

func (c *CachedPosts) Create(ctx context.Context, post *models.Post) error {
	if err := c.PostStore.Create(ctx, post); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedPosts) Update(ctx context.Context, id int64, req models.UpdatePostRequest) (*models.Post, error) {
	post, err := c.PostStore.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return post, nil
}

func (c *CachedPosts) Delete(ctx context.Context, id int64) error {
	if err := c.PostStore.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedPosts) Upvote(ctx context.Context, id int64) (int, error) {
	n, err := c.PostStore.Upvote(ctx, id)
	if err != nil {
		return 0, err
	}
	c.invalidate(ctx)
	return n, nil
}

func (c *CachedPosts) cached(ctx context.Context, field string, load func() ([]models.Post, error)) ([]models.Post, error) {
	if !c.lists.Enabled() {
		return load()
	}

	gen, err := c.gen.Current(ctx)
	if err != nil {
		logs.WithError(err).Warn("Post cache unavailable")
		return load()
	}
	key := fmt.Sprintf("%d:%s", gen, field)

	if hit, err := c.lists.Get(ctx, key); err != nil {
		logs.WithError(err).Warn("Post cache read failed")
	} else if hit != nil {
		return *hit, nil
	}

	posts, err := load()
	if err != nil {
		return nil, err
	}
	if err := c.lists.Set(ctx, key, &posts, c.ttl); err != nil {
		logs.WithError(err).Warn("Post cache write failed")
	}
	return posts, nil
}

func (c *CachedPosts) invalidate(ctx context.Context) {
	if err := c.gen.Bump(ctx); err != nil {
		logs.WithFields(logrus.Fields{"error": err.Error()}).Warn("Post cache invalidation failed")
	}
}
