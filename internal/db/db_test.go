package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/praevia/atmp/internal/models"
)

func TestConnectAndMigrateSqlite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "atmp.db")
	conn, err := ConnectAndMigrate(dsn)
	require.NoError(t, err)

	// Every table exists after AutoMigrate.
	for _, m := range Models {
		require.True(t, conn.Migrator().HasTable(m), "missing table for %T", m)
	}

	// French nouns keep their spelling.
	require.True(t, conn.Migrator().HasTable("contentieux"))
	require.True(t, conn.Migrator().HasTable("tiers"))
}

func TestConnectAndMigrateEmptyDSN(t *testing.T) {
	_, err := ConnectAndMigrate("")
	require.Error(t, err)
}

func TestSeedAdmin(t *testing.T) {
	t.Setenv("DB_SEED", "1")
	t.Setenv("ADMIN_EMAIL", "admin@acme.fr")
	t.Setenv("ADMIN_PASSWORD", "changeme")

	dsn := filepath.Join(t.TempDir(), "atmp.db")
	conn, err := ConnectAndMigrate(dsn)
	require.NoError(t, err)

	var admin models.User
	require.NoError(t, conn.Where("email = ?", "admin@acme.fr").First(&admin).Error)
	require.Equal(t, models.RoleAdmin, admin.Role)
	require.True(t, admin.IsSuperuser)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("changeme")))

	// Seeding is idempotent.
	_, err = ConnectAndMigrate(dsn)
	require.NoError(t, err)
	var count int64
	conn.Model(&models.User{}).Count(&count)
	require.EqualValues(t, 1, count)
}
