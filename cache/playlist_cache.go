package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wildcats/logger"
	"wildcats/metrics"
	"wildcats/model"
	"wildcats/repository"

	"github.com/go-redis/redis/v8"
)

// PlaylistCache 在 PlaylistRepository 前加一层 Redis 读缓存。
// 读操作按ID缓存整行，任何写操作之后递增版本号并删除对应的键。
// 回填时 WATCH 版本号，查库期间有写入则放弃回填，避免把旧数据写回缓存。
// Redis 出错时只记录日志，请求回落到数据库。
type PlaylistCache struct {
	next   repository.PlaylistRepository
	client *redis.Client
	ttl    time.Duration
}

var _ repository.PlaylistRepository = (*PlaylistCache)(nil)

// NewPlaylistCache 包装一个歌单仓库
func NewPlaylistCache(next repository.PlaylistRepository, client *redis.Client, ttl time.Duration) *PlaylistCache {
	return &PlaylistCache{next: next, client: client, ttl: ttl}
}

// GetPlaylistKey 根据歌单ID生成Redis键
func GetPlaylistKey(id int64) string {
	return fmt.Sprintf("wildcats:playlist:%d", id)
}

// versionKey 记录歌单的写入次数，不设过期，保证版本号不会重复
func versionKey(id int64) string {
	return fmt.Sprintf("wildcats:playlist:%d:ver", id)
}

// errStaleFill 查库期间歌单被修改
var errStaleFill = errors.New("playlist changed during cache fill")

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// version 读取当前版本号，键不存在视为 "0"
func version(ctx context.Context, getter stringGetter, id int64) (string, error) {
	v, err := getter.Get(ctx, versionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return v, err
}

func (c *PlaylistCache) get(ctx context.Context, id int64) (*model.Playlist, bool) {
	data, err := c.client.Get(ctx, GetPlaylistKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Playlist cache read failed", logger.Int64("playlistId", id), logger.ErrorField(err))
		}
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	var p model.Playlist
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Warn("Playlist cache entry is corrupt", logger.Int64("playlistId", id), logger.ErrorField(err))
		c.invalidate(ctx, id)
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
	return &p, true
}

// set 仅在版本号仍为 ver 时回填
func (c *PlaylistCache) set(ctx context.Context, p *model.Playlist, ver string) {
	data, err := json.Marshal(p)
	if err != nil {
		logger.Warn("Failed to marshal playlist for cache", logger.Int64("playlistId", p.ID), logger.ErrorField(err))
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := version(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		if current != ver {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, GetPlaylistKey(p.ID), data, c.ttl)
			return nil
		})
		return err
	}, versionKey(p.ID))

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		logger.Debug("Skip stale playlist cache fill", logger.Int64("playlistId", p.ID))
	default:
		logger.Warn("Playlist cache write failed", logger.Int64("playlistId", p.ID), logger.ErrorField(err))
	}
}

// invalidate 先递增版本号让进行中的回填失效，再删除缓存
func (c *PlaylistCache) invalidate(ctx context.Context, id int64) {
	if err := c.client.Incr(ctx, versionKey(id)).Err(); err != nil {
		logger.Warn("Playlist cache version bump failed", logger.Int64("playlistId", id), logger.ErrorField(err))
	}
	if err := c.client.Del(ctx, GetPlaylistKey(id)).Err(); err != nil {
		logger.Warn("Playlist cache invalidation failed", logger.Int64("playlistId", id), logger.ErrorField(err))
	}
}

// Fetch 先查缓存，未命中时查库并回填
func (c *PlaylistCache) Fetch(ctx context.Context, id int64) (*model.Playlist, error) {
	if p, ok := c.get(ctx, id); ok {
		return p, nil
	}

	// 版本号必须在查库之前读取
	ver, verErr := version(ctx, c.client, id)
	if verErr != nil {
		logger.Warn("Playlist cache version read failed", logger.Int64("playlistId", id), logger.ErrorField(verErr))
	}

	p, err := c.next.Fetch(ctx, id)
	if err != nil || p == nil {
		return p, err
	}
	if verErr == nil {
		c.set(ctx, p, ver)
	}
	return p, nil
}

// LoadByID 与 Fetch 相同，不存在时返回 repository.ErrPlaylistNotFound
func (c *PlaylistCache) LoadByID(ctx context.Context, id int64) (*model.Playlist, error) {
	p, err := c.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: id %d", repository.ErrPlaylistNotFound, id)
	}
	return p, nil
}

// List 不走缓存
func (c *PlaylistCache) List(ctx context.Context, creator string) ([]*model.Playlist, error) {
	return c.next.List(ctx, creator)
}

// Create 新ID不会有缓存，直接透传
func (c *PlaylistCache) Create(ctx context.Context, p *model.Playlist) (int64, error) {
	return c.next.Create(ctx, p)
}

func (c *PlaylistCache) Update(ctx context.Context, p *model.Playlist) error {
	defer c.invalidate(ctx, p.ID)
	return c.next.Update(ctx, p)
}

func (c *PlaylistCache) Delete(ctx context.Context, p *model.Playlist) error {
	defer c.invalidate(ctx, p.ID)
	return c.next.Delete(ctx, p)
}

func (c *PlaylistCache) AddSong(ctx context.Context, p *model.Playlist, songID int64) error {
	defer c.invalidate(ctx, p.ID)
	return c.next.AddSong(ctx, p, songID)
}

func (c *PlaylistCache) RemoveSong(ctx context.Context, p *model.Playlist, songID int64) error {
	defer c.invalidate(ctx, p.ID)
	return c.next.RemoveSong(ctx, p, songID)
}
