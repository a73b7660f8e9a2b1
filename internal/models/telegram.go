package models

import "time"

// TelegramConfig stores the bot credentials and basic settings
type TelegramConfig struct {
	ID        int64            `gorm:"primaryKey" json:"id"`
	IsEnabled bool             `json:"is_enabled"`
	BotToken  string           `json:"bot_token"`
	ChatID    string           `json:"chat_id"`
	Filters   *TelegramFilters `gorm:"serializer:json" json:"filters"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TelegramConfigRequest is used when updating the configuration
type TelegramConfigRequest struct {
	IsEnabled bool   `json:"is_enabled"`
	BotToken  string `json:"bot_token"`
	ChatID    string `json:"chat_id"`
}

// TelegramFilters decides which appraised deals trigger a notification
type TelegramFilters struct {
	MinConfidence *int     `json:"min_confidence"`
	MinNetProfit  *float64 `json:"min_net_profit"`
	MinGDV        *float64 `json:"min_gdv"`
	DealTypes     []string `json:"deal_types"`
}

// IsDealAllowed checks if a deal matches the filter criteria
func (f *TelegramFilters) IsDealAllowed(deal *Deal) bool {
	if f == nil {
		return true // No filters means allow all
	}

	if f.MinConfidence != nil && deal.Confidence < *f.MinConfidence {
		return false
	}

	// Deals without a computed figure fail a filter that requires one
	if f.MinNetProfit != nil {
		if deal.NetProfit == nil || *deal.NetProfit < *f.MinNetProfit {
			return false
		}
	}
	if f.MinGDV != nil {
		if deal.GDV == nil || *deal.GDV < *f.MinGDV {
			return false
		}
	}

	if len(f.DealTypes) > 0 {
		allowed := false
		for _, dealType := range f.DealTypes {
			if dealType == deal.DealType {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	return true
}
