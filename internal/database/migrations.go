package database

import (
	"fmt"

	"dealflow/server/internal/models"
)

// Settings live in a single row
const telegramConfigID = 1

func (d *Database) RunMigrations() error {
	if err := d.db.AutoMigrate(&models.Deal{}, &models.TelegramConfig{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Review queue lists pending deals newest first
	err := d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_deals_status_created
		ON deals(status, created_at);
	`).Error
	if err != nil {
		return fmt.Errorf("failed to create deals status index: %w", err)
	}

	return nil
}
