package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dealflow/server/internal/models"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	ErrDealNotFound  = errors.New("deal not found")
	ErrDuplicateDeal = errors.New("deal already exists for email")
)

type Database struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewDatabase opens the SQLite file at dbPath, creating its directory if
// needed, and brings the schema up to date.
func NewDatabase(dbPath string, logger *logrus.Logger) (*Database, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return open(dbPath, logger)
}

// NewTestDB returns a migrated in-memory database.
func NewTestDB() (*Database, error) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return open(":memory:", logger)
}

func open(dsn string, logger *logrus.Logger) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	// SQLite allows a single writer; an in-memory database only exists on
	// one connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	d := &Database{db: db, logger: logger}
	if err := d.RunMigrations(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB exposes the underlying gorm handle
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Transaction runs fc inside a database transaction
func (d *Database) Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
	return d.db.Transaction(fc, opts...)
}

// Exists reports whether a deal was already stored for the email
func (d *Database) Exists(emailID string) (bool, error) {
	var count int64
	if err := d.db.Model(&models.Deal{}).Where("email_id = ?", emailID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check deal: %w", err)
	}
	return count > 0, nil
}

func (d *Database) Insert(deal *models.Deal) error {
	return InsertDeals(d.db, []*models.Deal{deal})
}

// InsertBatch stores all deals or none of them
func (d *Database) InsertBatch(deals []*models.Deal) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		return InsertDeals(tx, deals)
	})
}

// InsertDeals creates deals on tx, assigning IDs and the pending status
// where they are missing.
func InsertDeals(tx *gorm.DB, deals []*models.Deal) error {
	for _, deal := range deals {
		if deal.ID == "" {
			deal.ID = uuid.NewString()
		}
		if deal.Status == "" {
			deal.Status = models.DealStatusPending
		}
		if err := tx.Create(deal).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrDuplicateDeal, deal.EmailID)
			}
			return fmt.Errorf("failed to insert deal %s: %w", deal.EmailID, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func (d *Database) Get(id string) (*models.Deal, error) {
	var deal models.Deal
	err := d.db.First(&deal, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}
	return &deal, nil
}

// List returns the newest deals first, optionally filtered by status. A
// limit of zero or less returns every deal.
func (d *Database) List(status models.DealStatus, limit int) ([]models.Deal, error) {
	query := d.db.Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	deals := []models.Deal{}
	if err := query.Find(&deals).Error; err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	return deals, nil
}

// UpdateStatus records a review decision. Approvals keep the reviewer and
// time; any other status clears them.
func (d *Database) UpdateStatus(id string, status models.DealStatus, by string) error {
	updates := map[string]interface{}{
		"status":      status,
		"approved_by": "",
		"approved_at": nil,
	}
	if status == models.DealStatusApproved {
		updates["approved_by"] = by
		updates["approved_at"] = time.Now()
	}
	return d.update(id, updates)
}

func (d *Database) UpdateReportPath(id, path string) error {
	return d.update(id, map[string]interface{}{"report_path": path})
}

func (d *Database) UpdateNotes(id, notes string) error {
	return d.update(id, map[string]interface{}{"notes": notes})
}

func (d *Database) update(id string, updates map[string]interface{}) error {
	result := d.db.Model(&models.Deal{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update deal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDealNotFound
	}
	return nil
}

func (d *Database) Delete(id string) error {
	result := d.db.Delete(&models.Deal{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete deal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDealNotFound
	}
	return nil
}

func (d *Database) Stats() (models.DealStats, error) {
	query := `
        SELECT
            COUNT(*) as total_deals,
            COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) as pending_deals,
            COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0) as approved_deals,
            COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0) as rejected_deals,
            COALESCE(SUM(gdv), 0) as total_gdv,
            COALESCE(AVG(net_profit), 0) as average_net_profit,
            COALESCE(AVG(confidence), 0) as average_confidence
        FROM deals
    `

	var stats models.DealStats
	err := d.db.Raw(query).Row().Scan(
		&stats.TotalDeals,
		&stats.PendingDeals,
		&stats.ApprovedDeals,
		&stats.RejectedDeals,
		&stats.TotalGDV,
		&stats.AverageNetProfit,
		&stats.AverageConfidence,
	)
	if err != nil {
		return stats, fmt.Errorf("failed to get deal stats: %w", err)
	}
	return stats, nil
}

// GetTelegramConfig returns the stored bot settings, or nil when none
// have been saved.
func (d *Database) GetTelegramConfig() (*models.TelegramConfig, error) {
	var cfg models.TelegramConfig
	err := d.db.First(&cfg, "id = ?", telegramConfigID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get telegram config: %w", err)
	}
	return &cfg, nil
}

func (d *Database) UpdateTelegramConfig(req *models.TelegramConfigRequest) error {
	cfg := models.TelegramConfig{ID: telegramConfigID}
	if err := d.db.Where("id = ?", telegramConfigID).FirstOrInit(&cfg).Error; err != nil {
		return fmt.Errorf("failed to load telegram config: %w", err)
	}

	cfg.IsEnabled = req.IsEnabled
	cfg.BotToken = req.BotToken
	cfg.ChatID = req.ChatID
	if err := d.db.Save(&cfg).Error; err != nil {
		return fmt.Errorf("failed to save telegram config: %w", err)
	}
	return nil
}

func (d *Database) UpdateTelegramFilters(filters *models.TelegramFilters) error {
	cfg := models.TelegramConfig{ID: telegramConfigID}
	if err := d.db.Where("id = ?", telegramConfigID).FirstOrInit(&cfg).Error; err != nil {
		return fmt.Errorf("failed to load telegram config: %w", err)
	}

	cfg.Filters = filters
	if err := d.db.Save(&cfg).Error; err != nil {
		return fmt.Errorf("failed to save telegram filters: %w", err)
	}
	return nil
}
