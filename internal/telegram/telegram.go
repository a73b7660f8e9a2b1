package telegram

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"dealflow/server/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const defaultBaseURL = "https://api.telegram.org"

var gbp = message.NewPrinter(language.BritishEnglish)

type Service struct {
	logger  *logrus.Logger
	client  *http.Client
	baseURL string

	mu     sync.RWMutex
	config *models.TelegramConfig
}

func NewService(logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		logger:  logger,
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetBaseURL points the service at another Bot API host
func (s *Service) SetBaseURL(url string) {
	s.baseURL = strings.TrimRight(url, "/")
}

func (s *Service) UpdateConfig(config *models.TelegramConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
}

func (s *Service) currentConfig() *models.TelegramConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// SendMessage sends a message to the configured Telegram chat. It is a
// no-op while notifications are disabled.
func (s *Service) SendMessage(text string) error {
	cfg := s.currentConfig()
	if cfg == nil || !cfg.IsEnabled {
		return nil
	}
	return s.send(cfg, text)
}

// SendTestMessage sends text with cfg regardless of the enabled flag
func (s *Service) SendTestMessage(cfg *models.TelegramConfig, text string) error {
	return s.send(cfg, text)
}

func (s *Service) send(cfg *models.TelegramConfig, text string) error {
	if cfg.BotToken == "" {
		return errors.New("Telegram bot token is not configured")
	}

	if cfg.ChatID == "" {
		return errors.New("Telegram chat ID is not configured")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, cfg.BotToken)
	payload := map[string]interface{}{
		"chat_id":                  cfg.ChatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token - please check your token from @BotFather")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		case http.StatusNotFound:
			return errors.New("bot not found - please check your token from @BotFather")
		default:
			return fmt.Errorf("Telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}

// NotifyDealAppraised announces a newly appraised deal when it passes the
// configured filters.
func (s *Service) NotifyDealAppraised(deal *models.Deal) error {
	cfg := s.currentConfig()
	if cfg == nil || !cfg.IsEnabled {
		return nil
	}

	if !cfg.Filters.IsDealAllowed(deal) {
		s.logger.WithFields(logrus.Fields{
			"deal_id":   deal.ID,
			"deal_type": deal.DealType,
		}).Debug("Deal filtered out of notifications")
		return nil
	}

	return s.send(cfg, FormatDeal(deal))
}

// FormatDeal renders the HTML notification body for a deal
func FormatDeal(deal *models.Deal) string {
	var b strings.Builder
	b.WriteString("<b>New Deal Appraised</b>\n\n")
	fmt.Fprintf(&b, "📧 %s\n", html.EscapeString(deal.Subject))
	fmt.Fprintf(&b, "🏷️ %s (%d%% confidence)\n", html.EscapeString(deal.DealType), deal.Confidence)

	if c := deal.Classification; c != nil {
		if addr := c.PropertyDetails.SiteAddress; addr != nil && *addr != "" {
			fmt.Fprintf(&b, "📍 %s\n", html.EscapeString(*addr))
		}
		fmt.Fprintf(&b, "💰 Asking: %s\n", money(c.PropertyDetails.AskingPrice))
	}

	fmt.Fprintf(&b, "🏗️ GDV: %s\n", money(deal.GDV))
	fmt.Fprintf(&b, "📈 Net profit: %s", money(deal.NetProfit))
	if deal.GDV != nil && deal.NetProfit != nil && *deal.GDV > 0 {
		fmt.Fprintf(&b, " (%.1f%% on GDV)", *deal.NetProfit / *deal.GDV * 100)
	}
	b.WriteString("\n")

	if deal.Sender != "" {
		fmt.Fprintf(&b, "\nFrom: %s", html.EscapeString(deal.Sender))
	}
	return b.String()
}

func money(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return gbp.Sprintf("£%.0f", *v)
}
