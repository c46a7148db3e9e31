// Package sqlite implements a SQLite-backed content index using GORM.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentindex"
)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "contentindex.db"

func init() {
	contentindex.Register("sqlite", func(ctx context.Context, cfg *contentindex.DriverConfig) (contentindex.Index, error) {
		return Open(ctx, cfg.DataDir)
	})
}

// mediaRow is the persisted form of contentindex.Row.
type mediaRow struct {
	Collection string `gorm:"primaryKey"`
	RowID      int64  `gorm:"primaryKey;autoIncrement:false"`
	Data       string `gorm:"not null"`
}

func (mediaRow) TableName() string { return "media_rows" }

// Index implements contentindex.Index on top of SQLite.
type Index struct {
	db *gorm.DB
}

// Open opens (creating if needed) the index database in dataDir and migrates it.
func Open(ctx context.Context, dataDir string) (*Index, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data_dir is required for sqlite content index")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dataDir, err)
	}

	db, err := gorm.Open(sqlite.Open(filepath.Join(dataDir, DatabaseFile)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&mediaRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Index{db: db}, nil
}

func (x *Index) Lookup(ctx context.Context, q contentindex.Query) (string, error) {
	target, err := q.Resolve()
	if err != nil {
		return "", err
	}

	var row mediaRow
	result := x.db.WithContext(ctx).
		Where("collection = ? AND row_id = ?", target.Collection, target.ID).
		Take(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", contentindex.ErrNoRows
		}
		return "", result.Error
	}

	return q.Project(&contentindex.Row{Collection: row.Collection, ID: row.RowID, Data: row.Data}), nil
}

func (x *Index) Put(ctx context.Context, row contentindex.Row) error {
	row = row.Normalize()
	if err := row.Validate(); err != nil {
		return err
	}

	rec := mediaRow{Collection: row.Collection, RowID: row.ID, Data: row.Data}
	result := x.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec)
	return result.Error
}

// Close closes the database connection.
func (x *Index) Close() error {
	if x.db == nil {
		return nil
	}
	sqlDB, err := x.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
