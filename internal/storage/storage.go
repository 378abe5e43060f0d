package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/geoportal-waw/waw-events/internal/event"
	"github.com/geoportal-waw/waw-events/internal/logger"
	"github.com/geoportal-waw/waw-events/internal/metrics"
)

// Location is one geocoded address.
type Location struct {
	ID        uint      `gorm:"primaryKey"`
	Address   string    `gorm:"uniqueIndex;not null"`
	Latitude  float64   `gorm:"not null"`
	Longitude float64   `gorm:"not null"`
	CachedAt  time.Time `gorm:"not null"`
}

// TableName pins the table name regardless of gorm's naming strategy.
func (Location) TableName() string {
	return "locations"
}

// LocationCache persists address to coordinate mappings.
//
// Get, Save and Stats never return storage errors: failures are logged and
// reported as a miss, a failed save or a zero count.
type LocationCache struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to dsn and makes sure the schema exists.
//
// A dsn starting with postgres:// or postgresql:// selects PostgreSQL; any
// other value is a SQLite file path, where a leading ~/ is expanded to the
// home directory and missing parent directories are created.
func Open(dsn string) (*LocationCache, error) {
	dialector, sqliteFile, err := dialectorFor(dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(logger.Default(), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB: %w", err)
	}
	if sqliteFile {
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.AutoMigrate(&Location{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &LocationCache{
		db:  db,
		log: logger.Default().With(logger.Fields{"component": "storage"}),
	}, nil
}

func dialectorFor(dsn string) (gorm.Dialector, bool, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgres.Open(dsn), false, nil
	}

	path := dsn
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, false, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, false, fmt.Errorf("creating data directory: %w", err)
		}
	}
	return sqlite.Open(path), true, nil
}

// Get returns the cached coordinates of address.
func (c *LocationCache) Get(ctx context.Context, address string) (event.Position, bool) {
	var loc Location
	err := c.db.WithContext(ctx).Where("address = ?", address).Take(&loc).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.log.Error("Reading location cache failed", logger.Fields{"address": address}, err)
		}
		return event.Position{}, false
	}
	return event.Position{Latitude: loc.Latitude, Longitude: loc.Longitude}, true
}

// Save stores the coordinates of address, replacing any previous entry and
// refreshing its timestamp. It reports whether the write succeeded.
func (c *LocationCache) Save(ctx context.Context, address string, lat, lon float64) bool {
	loc := Location{
		Address:   address,
		Latitude:  lat,
		Longitude: lon,
		CachedAt:  time.Now().UTC(),
	}
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"latitude", "longitude", "cached_at"}),
	}).Create(&loc).Error
	if err != nil {
		c.log.Error("Writing location cache failed", logger.Fields{"address": address}, err)
		return false
	}
	c.log.Debug("Cached location", logger.Fields{"address": address})
	return true
}

// Stats returns the number of cached addresses, or 0 when the count fails.
func (c *LocationCache) Stats(ctx context.Context) int64 {
	var n int64
	if err := c.db.WithContext(ctx).Model(&Location{}).Count(&n).Error; err != nil {
		c.log.Error("Counting cached locations failed", nil, err)
		return 0
	}
	metrics.CachedLocations.Set(float64(n))
	return n
}

// Clear deletes every cached location and returns how many were removed.
func (c *LocationCache) Clear(ctx context.Context) (int64, error) {
	res := c.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&Location{})
	if res.Error != nil {
		return 0, fmt.Errorf("clearing location cache: %w", res.Error)
	}
	metrics.CachedLocations.Set(0)
	return res.RowsAffected, nil
}

// Close releases the underlying connection pool.
func (c *LocationCache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("getting sql.DB: %w", err)
	}
	return sqlDB.Close()
}
