package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		Port        string   `env:"SERVER_PORT" envDefault:"5250"`
		CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	}

	Database struct {
		Path string `env:"DATABASE_PATH" envDefault:"database/deals.db"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Maximum number of emails accumulated before a batch is pushed
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"20"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`

		// Emails received at or before midnight UTC of this date (YYYY-MM-DD) are ignored
		CutoffDate string `env:"BATCH_CUTOFF_DATE" envDefault:""`
	}

	Scheduler struct {
		Enabled  bool   `env:"SCHEDULER_ENABLED" envDefault:"false"`
		Spec     string `env:"SCHEDULER_SPEC" envDefault:"0 */15 * * * *"`
		InboxDir string `env:"SCHEDULER_INBOX_DIR" envDefault:"inbox"`

		// Daily pipeline summary sent to Telegram; empty disables it
		DigestSpec string `env:"SCHEDULER_DIGEST_SPEC" envDefault:"0 0 8 * * *"`
	}

	Assumptions struct {
		// CSV with one column per deal type; empty means built-in rates
		Path string `env:"ASSUMPTIONS_PATH" envDefault:""`
	}

	Appraisal struct {
		TimelineMonths        int     `env:"APPRAISAL_TIMELINE_MONTHS" envDefault:"24"`
		OwnFundsInvested      float64 `env:"APPRAISAL_OWN_FUNDS" envDefault:"1500"`
		RentalPerUnitPerMonth float64 `env:"APPRAISAL_RENT_PER_UNIT" envDefault:"3000"`
	}

	Anthropic struct {
		APIKey    string `env:"ANTHROPIC_API_KEY"`
		Model     string `env:"ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-20250514"`
		MaxTokens int64  `env:"ANTHROPIC_MAX_TOKENS" envDefault:"4096"`

		// Deal type used when the model answers with an unknown one
		FallbackDealType string `env:"CLASSIFIER_FALLBACK_DEAL_TYPE" envDefault:""`
	}

	Telegram struct {
		Enabled  bool   `env:"TELEGRAM_ENABLED" envDefault:"false"`
		BotToken string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `env:"TELEGRAM_CHAT_ID"`
	}

	Geocoding struct {
		Enabled       bool    `env:"GEOCODING_ENABLED" envDefault:"false"`
		CacheDir      string  `env:"GEOCODING_CACHE_DIR" envDefault:""`
		// Origin used for travel estimates to a site
		HomeLatitude  float64 `env:"GEOCODING_HOME_LAT" envDefault:"51.5074"`
		HomeLongitude float64 `env:"GEOCODING_HOME_LON" envDefault:"-0.1278"`
	}

	ReportDir string `env:"REPORT_DIR" envDefault:"reports"`
}

// LoadConfig reads an optional .env file and parses the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
