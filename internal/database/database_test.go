package database

import (
	"testing"

	"github.com/JAFletch-surg/dukes-club/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_SQLiteMigratesEveryTable(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBPath: "file::memory:?cache=shared"}

	db, err := Connect(cfg)
	require.NoError(t, err)

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
}
