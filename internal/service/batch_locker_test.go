package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appErrors "github.com/noah-isme/faculty-timetable-api/pkg/errors"
)

func TestGenerationLockKeys(t *testing.T) {
	keys := GenerationLockKeys("fac-9", []string{"b-2", "b-1", "b-2"})
	assert.Equal(t, []string{"batch:b-1", "batch:b-2", "faculty:fac-9"}, keys)
}

func TestMemoryBatchLockerSerializesOverlappingScopes(t *testing.T) {
	locker := NewMemoryBatchLocker(time.Second)
	release, err := locker.Lock(context.Background(), []string{"faculty:f1", "batch:b1"})
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := locker.Lock(context.Background(), []string{"batch:b1", "faculty:f2"})
		if err == nil {
			close(acquired)
			second()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("overlapping scope acquired while held")
	case <-time.After(30 * time.Millisecond):
	}

	release()
	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired released scope")
	}
}

func TestMemoryBatchLockerDisjointScopesRunConcurrently(t *testing.T) {
	locker := NewMemoryBatchLocker(time.Second)
	first, err := locker.Lock(context.Background(), []string{"faculty:f1", "batch:b1"})
	require.NoError(t, err)
	defer first()

	second, err := locker.Lock(context.Background(), []string{"faculty:f2", "batch:b2"})
	require.NoError(t, err)
	second()
}

func TestMemoryBatchLockerTimesOut(t *testing.T) {
	locker := NewMemoryBatchLocker(20 * time.Millisecond)
	release, err := locker.Lock(context.Background(), []string{"batch:b1"})
	require.NoError(t, err)
	defer release()

	_, err = locker.Lock(context.Background(), []string{"batch:a0", "batch:b1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLocked.Code, appErrors.FromError(err).Code)

	// the partially acquired key must be free again
	other, err := locker.Lock(context.Background(), []string{"batch:a0"})
	require.NoError(t, err)
	other()
}

type lockStoreStub struct {
	mu       sync.Mutex
	owners   map[string]string
	err      error
	released []string
	extended map[string]int
}

func newLockStoreStub() *lockStoreStub {
	return &lockStoreStub{owners: map[string]string{}, extended: map[string]int{}}
}

func (s *lockStoreStub) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if _, taken := s.owners[key]; taken {
		return false, nil
	}
	s.owners[key] = token
	return true, nil
}

func (s *lockStoreStub) Release(ctx context.Context, key, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owners[key] == token {
		delete(s.owners, key)
	}
	s.released = append(s.released, key)
	return nil
}

func (s *lockStoreStub) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owners[key] != token {
		return false, nil
	}
	s.extended[key]++
	return true, nil
}

func (s *lockStoreStub) extensions(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extended[key]
}

func (s *lockStoreStub) steal(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[key] = "someone-else"
}

func TestRedisBatchLockerAcquireAndRelease(t *testing.T) {
	store := newLockStoreStub()
	locker := NewRedisBatchLocker(store, RedisBatchLockerConfig{Wait: 50 * time.Millisecond, PollInterval: 5 * time.Millisecond}, nil)

	release, err := locker.Lock(context.Background(), []string{"faculty:f1", "batch:b1"})
	require.NoError(t, err)
	assert.Len(t, store.owners, 2)

	_, err = locker.Lock(context.Background(), []string{"batch:b1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLocked.Code, appErrors.FromError(err).Code)

	release()
	release()
	assert.Empty(t, store.owners)
	assert.Equal(t, []string{"faculty:f1", "batch:b1"}, store.released)
}

func TestRedisBatchLockerBackendError(t *testing.T) {
	store := newLockStoreStub()
	store.err = errors.New("connection refused")
	locker := NewRedisBatchLocker(store, RedisBatchLockerConfig{Wait: time.Second}, nil)

	_, err := locker.Lock(context.Background(), []string{"faculty:f1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestRedisBatchLockerRenewsHeldKeys(t *testing.T) {
	store := newLockStoreStub()
	locker := NewRedisBatchLocker(store, RedisBatchLockerConfig{TTL: 30 * time.Millisecond, RenewInterval: 5 * time.Millisecond}, nil)

	release, err := locker.Lock(context.Background(), []string{"batch:b1"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return store.extensions("batch:b1") >= 2 }, time.Second, time.Millisecond)

	release()
	after := store.extensions("batch:b1")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, store.extensions("batch:b1"))
	assert.Empty(t, store.owners)
}

func TestRedisBatchLockerReportsLostLease(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	store := newLockStoreStub()
	locker := NewRedisBatchLocker(store, RedisBatchLockerConfig{TTL: 30 * time.Millisecond, RenewInterval: 5 * time.Millisecond}, zap.New(core))

	release, err := locker.Lock(context.Background(), []string{"batch:b1"})
	require.NoError(t, err)
	defer release()
	store.steal("batch:b1")

	require.Eventually(t, func() bool {
		return logs.FilterMessage("generation lock lost").Len() > 0
	}, time.Second, time.Millisecond)
}
