package db

import (
	"fmt"
	"os"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/praevia/atmp/internal/models"
)

// Models lists every entity in migration order.
var Models = []any{
	&models.User{},
	&models.DossierATMP{},
	&models.Audit{},
	&models.Contentieux{},
	&models.JuridictionStep{},
	&models.Action{},
	&models.Document{},
	&models.Temoin{},
	&models.Tiers{},
}

// ConnectAndMigrate opens the database and brings the schema up to date.
// A postgres:// DSN selects the postgres driver; anything else is treated as
// a sqlite path. With MIGRATIONS=1 the SQL migrations in ./migrations run via
// golang-migrate (postgres only); otherwise AutoMigrate keeps dev and test
// databases current.
func ConnectAndMigrate(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN est vide, vérifiez la configuration de l'environnement")
	}

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	isPostgres := strings.HasPrefix(strings.ToLower(dsn), "postgres://") ||
		strings.HasPrefix(strings.ToLower(dsn), "postgresql://")

	var conn *gorm.DB
	var err error
	if isPostgres {
		for i := 0; i < 10; i++ {
			conn, err = gorm.Open(postgres.Open(dsn), cfg)
			if err == nil {
				break
			}
			time.Sleep(2 * time.Second)
		}
	} else {
		conn, err = gorm.Open(sqlite.Open(dsn), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	if isPostgres && boolEnv("MIGRATIONS") {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range Models {
			if migErr := conn.AutoMigrate(m); migErr != nil {
				return nil, fmt.Errorf("automigrate %T: %w", m, migErr)
			}
		}
	}

	if boolEnv("DB_SEED") {
		if err := seed(conn); err != nil {
			return nil, fmt.Errorf("seed failed: %w", err)
		}
	}
	return conn, nil
}

// seed provisions the bootstrap admin account when missing. Credentials come
// from ADMIN_EMAIL / ADMIN_PASSWORD.
func seed(conn *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}
	var count int64
	if err := conn.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		Email:       email,
		Password:    string(hash),
		Name:        "Administrator",
		Role:        models.RoleAdmin,
		IsSuperuser: true,
	}
	return conn.Create(&admin).Error
}

func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func boolEnv(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}
