package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 2, cfg.Scheduler.MaxLabsPerDay)
	assert.Equal(t, "truncate", cfg.Scheduler.LabRounding)
	assert.Equal(t, LockBackendMemory, cfg.Scheduler.LockBackend)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.LockTTL)
	assert.Equal(t, []int{2, 4}, cfg.Scheduler.BreakAfter)
	assert.Equal(t, []time.Duration{10 * time.Minute, 40 * time.Minute}, cfg.Scheduler.BreakLengths)
	assert.Equal(t, 8, cfg.Scheduler.PeriodsPerDay)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.StatusTTL)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 5*time.Second, cfg.Redis.DialTimeout)
	assert.Equal(t, time.Second, cfg.Redis.OpTimeout)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("SCHEDULER_LOCK_BACKEND", "REDIS")
	v.Set("SCHEDULER_LAB_ROUNDING", "ceil")
	v.Set("SCHEDULER_LOCK_WAIT", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := fromViper(v)
	assert.Equal(t, LockBackendRedis, cfg.Scheduler.LockBackend)
	assert.Equal(t, "ceil", cfg.Scheduler.LabRounding)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.LockWait)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestParseHelpersSkipGarbage(t *testing.T) {
	assert.Equal(t, []int{1, 3}, parseInts("1,x,3"))
	assert.Equal(t, []time.Duration{time.Minute}, parseDurations("1m,soon"))
	assert.Nil(t, splitAndTrim(""))
}
