package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/faculty-timetable-api/pkg/errors"
)

// BatchLocker serializes generation runs over a set of keys.
// Lock blocks until every key is held or the wait budget runs out; the returned
// release func must be called exactly once.
type BatchLocker interface {
	Lock(ctx context.Context, keys []string) (func(), error)
}

// GenerationLockKeys returns the sorted, de-duplicated lock scope of a run.
func GenerationLockKeys(facultyID string, batchIDs []string) []string {
	seen := map[string]struct{}{}
	keys := []string{"faculty:" + facultyID}
	seen[keys[0]] = struct{}{}
	for _, id := range batchIDs {
		key := "batch:" + id
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedUnique(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func lockTimeout() error {
	return appErrors.Clone(appErrors.ErrLocked, "timed out waiting for generation lock")
}

// MemoryBatchLocker holds per-key semaphores inside one process.
type MemoryBatchLocker struct {
	mu    sync.Mutex
	slots map[string]*keySlot
	wait  time.Duration
}

type keySlot struct {
	sem  chan struct{}
	refs int
}

// NewMemoryBatchLocker builds a locker whose Lock gives up after wait.
func NewMemoryBatchLocker(wait time.Duration) *MemoryBatchLocker {
	if wait <= 0 {
		wait = 10 * time.Second
	}
	return &MemoryBatchLocker{slots: make(map[string]*keySlot), wait: wait}
}

// Lock acquires keys in sorted order so overlapping scopes cannot deadlock.
func (l *MemoryBatchLocker) Lock(ctx context.Context, keys []string) (func(), error) {
	keys = sortedUnique(keys)
	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	held := make([]*keySlot, 0, len(keys))
	heldKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		slot := l.ref(key)
		select {
		case slot.sem <- struct{}{}:
			held = append(held, slot)
			heldKeys = append(heldKeys, key)
		case <-ctx.Done():
			l.unref(key)
			l.release(heldKeys, held)
			return nil, lockTimeout()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(heldKeys, held) })
	}, nil
}

func (l *MemoryBatchLocker) ref(key string) *keySlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &keySlot{sem: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	return slot
}

func (l *MemoryBatchLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot := l.slots[key]
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *MemoryBatchLocker) release(keys []string, held []*keySlot) {
	for i := len(held) - 1; i >= 0; i-- {
		<-held[i].sem
		l.unref(keys[i])
	}
}

// lockStore is the Redis primitive behind RedisBatchLocker.
type lockStore interface {
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
	Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
}

// RedisBatchLockerConfig tunes the distributed locker.
// Held keys are renewed every RenewInterval, which defaults to a third of TTL.
type RedisBatchLockerConfig struct {
	TTL           time.Duration
	Wait          time.Duration
	PollInterval  time.Duration
	RenewInterval time.Duration
}

// RedisBatchLocker serializes runs across API replicas with token-guarded Redis keys.
type RedisBatchLocker struct {
	store  lockStore
	cfg    RedisBatchLockerConfig
	logger *zap.Logger
}

// NewRedisBatchLocker constructs the locker.
func NewRedisBatchLocker(store lockStore, cfg RedisBatchLockerConfig, logger *zap.Logger) *RedisBatchLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.Wait <= 0 {
		cfg.Wait = 10 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}
	if cfg.RenewInterval <= 0 || cfg.RenewInterval >= cfg.TTL {
		cfg.RenewInterval = cfg.TTL / 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBatchLocker{store: store, cfg: cfg, logger: logger}
}

// Lock acquires every key with one token, polling until the wait budget expires.
// The keys are kept alive until the returned release func runs.
func (l *RedisBatchLocker) Lock(ctx context.Context, keys []string) (func(), error) {
	keys = sortedUnique(keys)
	token := uuid.NewString()
	ctx, cancel := context.WithTimeout(ctx, l.cfg.Wait)
	defer cancel()

	held := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := l.acquire(ctx, key, token); err != nil {
			l.release(held, token)
			return nil, err
		}
		held = append(held, key)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.renew(held, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			l.release(held, token)
		})
	}, nil
}

func (l *RedisBatchLocker) renew(keys []string, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.cfg.RenewInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), l.cfg.RenewInterval)
		for _, key := range keys {
			ok, err := l.store.Extend(ctx, key, token, l.cfg.TTL)
			switch {
			case err != nil:
				l.logger.Warn("failed to extend generation lock", zap.String("key", key), zap.Error(err))
			case !ok:
				l.logger.Error("generation lock lost", zap.String("key", key))
			}
		}
		cancel()
	}
}

func (l *RedisBatchLocker) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()
	for {
		ok, err := l.store.Acquire(ctx, key, token, l.cfg.TTL)
		if err != nil {
			if ctx.Err() != nil {
				return lockTimeout()
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire generation lock")
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return lockTimeout()
		case <-ticker.C:
		}
	}
}

func (l *RedisBatchLocker) release(keys []string, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(keys) - 1; i >= 0; i-- {
		if err := l.store.Release(ctx, keys[i], token); err != nil {
			l.logger.Warn("failed to release generation lock", zap.String("key", keys[i]), zap.Error(err))
		}
	}
}
