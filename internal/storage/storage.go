package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// TimeLayout is the fixed-width UTC layout of sent_time, so text ordering matches time ordering.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// SentEvent is a row of the sent_events table
type SentEvent struct {
	EventID  string `gorm:"column:event_id;primaryKey"`
	Title    string `gorm:"column:title"`
	SentTime string `gorm:"column:sent_time"`
}

// TableName overrides the table name
func (SentEvent) TableName() string {
	return "sent_events"
}

// SentAt parses SentTime, returning the zero time when it is malformed
func (e SentEvent) SentAt() time.Time {
	t, err := time.Parse(TimeLayout, e.SentTime)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Store handles persistence of sent events
type Store struct {
	db *gorm.DB
}

// New opens (creating if needed) the SQLite database at path
func New(path string) (*Store, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&SentEvent{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// HasBeenSent reports whether an event with this ID was already announced
func (s *Store) HasBeenSent(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&SentEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking event %s: %w", eventID, err)
	}
	return count > 0, nil
}

// MarkSent records an event as announced at now. An existing row for the same
// ID is replaced, refreshing its title and timestamp.
func (s *Store) MarkSent(ctx context.Context, eventID, title string, now time.Time) error {
	row := SentEvent{
		EventID:  eventID,
		Title:    title,
		SentTime: now.UTC().Format(TimeLayout),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "sent_time"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("marking event %s as sent: %w", eventID, err)
	}
	return nil
}

// List returns stored events, newest first. A non-positive limit returns all rows.
func (s *Store) List(ctx context.Context, limit int) ([]SentEvent, error) {
	var rows []SentEvent
	q := s.db.WithContext(ctx).Order("sent_time DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing sent events: %w", err)
	}
	return rows, nil
}

// Count returns the number of stored events
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&SentEvent{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting sent events: %w", err)
	}
	return count, nil
}

// Close releases the underlying database handle
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
