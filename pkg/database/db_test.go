package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_MAX_CONNS", "")
	t.Setenv("DATABASE_TIMEOUT", "")
	t.Setenv("DATABASE_TIMEZONE", "")
	t.Setenv("DATABASE_CLIENT_ENCODING", "")

	cfg := ConfigFromEnv()
	assert.Contains(t, cfg.DSN, "localhost:5432")
	assert.Equal(t, 5, cfg.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/books")
	t.Setenv("DATABASE_MAX_CONNS", "12")
	t.Setenv("DATABASE_TIMEOUT", "2s")
	t.Setenv("DATABASE_TIMEZONE", "UTC")

	cfg = ConfigFromEnv()
	assert.Equal(t, "postgres://u:p@db:5432/books", cfg.DSN)
	assert.Equal(t, 12, cfg.MaxConns)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, "UTC", cfg.TimeZone)
}

func TestSessionStatements(t *testing.T) {
	assert.Empty(t, sessionStatements(Config{}))
	assert.Equal(t,
		[]string{"SET TIME ZONE 'Europe/Riga'", "SET client_encoding = 'UTF8'"},
		sessionStatements(Config{TimeZone: "Europe/Riga", ClientEncoding: "UTF8"}),
	)
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, "'UTC'", quoteLiteral("UTC"))
	assert.Equal(t, "'O''Brien'", quoteLiteral("O'Brien"))
}
