package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/faculty-timetable-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:           "db",
		Port:           5432,
		User:           "timetable",
		Password:       "p@ss word",
		Name:           "faculty_timetable",
		ConnectTimeout: 3 * time.Second,
	})

	assert.Equal(t, "postgres://timetable:p%40ss%20word@db:5432/faculty_timetable?connect_timeout=3&sslmode=disable", dsn)
}

func TestDSNKeepsSSLMode(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Name: "n", SSLMode: "require"})

	assert.Equal(t, "postgres://u:@db:5432/n?sslmode=require", dsn)
}
