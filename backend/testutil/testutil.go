// Package testutil holds helpers shared by package tests.
package testutil

import (
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"skillsync/backend/config"
	"skillsync/backend/docstore"
	"skillsync/backend/utils"

	"github.com/stretchr/testify/require"
)

// NewStore opens a migrated store on a fresh SQLite file under t.TempDir().
func NewStore(t *testing.T) *docstore.Store {
	t.Helper()

	db, err := utils.InitDB(&config.Config{
		DBDriver:   "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)

	store := docstore.New(db)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { store.Close() })
	return store
}

// Logger discards output.
func Logger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// Clock is a settable time source.
type Clock struct {
	T time.Time
}

func NewClock(t time.Time) *Clock {
	return &Clock{T: t}
}

func (c *Clock) Now() time.Time {
	return c.T
}

func (c *Clock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}

// TestConfig returns a config suitable for HTTP tests.
func TestConfig() *config.Config {
	return &config.Config{
		DBDriver:            "sqlite",
		JWTSecret:           "test-secret",
		JWTTTLHours:         1,
		CORSOrigins:         "*",
		BootstrapAdminEmail: "admin@example.com",
		GoogleUserInfoURL:   "http://127.0.0.1/userinfo",
	}
}
