// Package cache provides a read-through cache for skill profiles. The
// cache is an optimisation only: the profile store stays the source of
// truth and a cache failure must never fail a caller.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/skillscope/internal/mastery"
)

// DefaultTTL is how long a cached profile stays valid.
const DefaultTTL = 60 * time.Second

// ProfileCache stores serialised profiles by student id.
type ProfileCache interface {
	// Get returns the cached profile, or ok=false on a miss.
	Get(ctx context.Context, studentID string) (p *mastery.Profile, ok bool, err error)
	Set(ctx context.Context, p *mastery.Profile) error
	Invalidate(ctx context.Context, studentID string) error
	Close() error
}

// Options configures a Redis-backed cache.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, opts Options) (ProfileCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}

	return NewRedisFromClient(client, opts.TTL), nil
}

// NewRedisFromClient wraps an existing client. A zero ttl uses DefaultTTL.
func NewRedisFromClient(client *redis.Client, ttl time.Duration) ProfileCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisCache{client: client, ttl: ttl}
}

func profileKey(studentID string) string {
	return fmt.Sprintf("skillprofile:%s", studentID)
}

func (c *redisCache) Get(ctx context.Context, studentID string) (*mastery.Profile, bool, error) {
	data, err := c.client.Get(ctx, profileKey(studentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached profile: %w", err)
	}

	p, err := decodeProfile(data)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (c *redisCache) Set(ctx context.Context, p *mastery.Profile) error {
	data, err := encodeProfile(p)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, profileKey(p.StudentID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached profile: %w", err)
	}
	return nil
}

func (c *redisCache) Invalidate(ctx context.Context, studentID string) error {
	if err := c.client.Del(ctx, profileKey(studentID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached profile: %w", err)
	}
	return nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

func encodeProfile(p *mastery.Profile) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	return data, nil
}

func decodeProfile(data []byte) (*mastery.Profile, error) {
	var p mastery.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal cached profile: %w", err)
	}
	if p.StudentID == "" {
		return nil, errors.New("cached profile has no student id")
	}
	if p.Skills == nil {
		p.Skills = make(map[mastery.SkillTag]mastery.SkillState)
	}
	if p.ConceptCursors == nil {
		p.ConceptCursors = make(map[string]string)
	}
	return &p, nil
}

// Noop is a ProfileCache that stores nothing.
type Noop struct{}

func (Noop) Get(context.Context, string) (*mastery.Profile, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, *mastery.Profile) error                { return nil }
func (Noop) Invalidate(context.Context, string) error                   { return nil }
func (Noop) Close() error                                               { return nil }
