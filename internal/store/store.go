// Package store persists validated solve runs with gorm. A postgres:// URL
// selects postgres; anything else is treated as a sqlite path.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stitts-dev/fpl-squad/internal/optimizer"
)

// ErrRunNotFound is returned when no run has the requested id
var ErrRunNotFound = errors.New("solve run not found")

type Store struct {
	db *gorm.DB
}

// Open connects to databaseURL and migrates the schema.
func Open(databaseURL string, isDevelopment bool) (*Store, error) {
	logLevel := gormlogger.Error
	if isDevelopment {
		logLevel = gormlogger.Info
	}

	dialector, isSQLite, err := dialectorFor(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if isSQLite {
		// sqlite allows a single writer, and each :memory: connection is its own database
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.AutoMigrate(); err != nil {
		s.Close()
		return nil, err
	}

	logrus.WithField("driver", dialector.Name()).Debug("Run store ready")
	return s, nil
}

func dialectorFor(databaseURL string) (gorm.Dialector, bool, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return postgres.Open(databaseURL), false, nil
	}
	if databaseURL == "" {
		return nil, false, fmt.Errorf("database url is empty")
	}
	if databaseURL != ":memory:" && !strings.HasPrefix(databaseURL, "file:") {
		if dir := filepath.Dir(databaseURL); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, false, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	return sqlite.Open(databaseURL), true, nil
}

// AutoMigrate creates or updates the run tables
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&SolveRun{}, &SquadPick{}); err != nil {
		return fmt.Errorf("failed to migrate run store: %w", err)
	}
	return nil
}

// SaveRun stores a result and its selected players in one transaction.
func (s *Store) SaveRun(ctx context.Context, result *optimizer.Result, source string) (*SolveRun, error) {
	if result == nil || result.Squad == nil {
		return nil, fmt.Errorf("cannot save an empty result")
	}
	run := NewSolveRun(result, source)
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return run, nil
}

// RecentRuns returns up to limit runs, newest first, with their picks.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]SolveRun, error) {
	if limit <= 0 {
		limit = 10
	}
	var runs []SolveRun
	err := s.db.WithContext(ctx).
		Preload("Picks", func(db *gorm.DB) *gorm.DB {
			return db.Order("player_index ASC")
		}).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun loads one run by id
func (s *Store) GetRun(ctx context.Context, id string) (*SolveRun, error) {
	var run SolveRun
	err := s.db.WithContext(ctx).Preload("Picks").First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return &run, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
