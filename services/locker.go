package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyLocker khoá theo khoá chuỗi; unlock phải được gọi đúng một lần
type KeyLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LocalLocker khoá trong một tiến trình, tự dọn khoá khi không còn ai giữ hoặc chờ
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*refLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &refLock{ch: make(chan struct{}, 1)}
		l.locks[key] = m
	}
	m.refs++
	l.mu.Unlock()

	select {
	case m.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, m)
		return nil, ctx.Err()
	}
	return func() {
		<-m.ch
		l.release(key, m)
	}, nil
}

func (l *LocalLocker) release(key string, m *refLock) {
	l.mu.Lock()
	m.refs--
	if m.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker khoá phân tán bằng SET NX, nhả khoá bằng Lua so khớp giá trị
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

func NewRedisLocker(redisURL string, ttl time.Duration) (*RedisLocker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URL không hợp lệ: %w", err)
	}
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("không kết nối được Redis: %w", err)
	}
	return &RedisLocker{client: client, ttl: ttl, retry: 100 * time.Millisecond, prefix: "examprep:lock:"}, nil
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := r.prefix + key
	value := uuid.NewString()
	for {
		ok, err := r.client.SetNX(ctx, lockKey, value, r.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, r.client, []string{lockKey}, value).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.retry):
		}
	}
}

func (r *RedisLocker) Close() error { return r.client.Close() }
