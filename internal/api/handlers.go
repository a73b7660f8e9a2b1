package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dealflow/server/config"
	"dealflow/server/internal/appraisal"
	"dealflow/server/internal/assumptions"
	"dealflow/server/internal/database"
	"dealflow/server/internal/geometry"
	"dealflow/server/internal/models"
	"dealflow/server/internal/queue"
	"dealflow/server/internal/report"
	"dealflow/server/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
)

// EmailQueue accepts emails for background appraisal
type EmailQueue interface {
	Push(emails []*models.Email) error
}

type Handler struct {
	db              *database.Database
	logger          *logrus.Logger
	queue           EmailQueue
	assumptions     *assumptions.Table
	config          *config.Config
	telegramService *telegram.Service
}

type ReviewRequest struct {
	By string `json:"by"`
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

// AppraisalRequest runs the appraisal core on an already classified deal.
// Unset scalars take the configured defaults.
type AppraisalRequest struct {
	Classification        *models.Classification `json:"classification" binding:"required"`
	TimelineMonths        *int                   `json:"timeline_months"`
	OwnFundsInvested      *float64               `json:"own_funds_invested"`
	TotalUnits            *int                   `json:"total_units"`
	RentalPerUnitPerMonth *float64               `json:"rental_per_unit_per_month"`
	Travel                *models.Travel         `json:"travel"`
}

type DealTypeInfo struct {
	Name           string `json:"name"`
	Residential    bool   `json:"residential"`
	HasAssumptions bool   `json:"has_assumptions"`
}

func NewHandler(db *database.Database, emails EmailQueue, table *assumptions.Table, cfg *config.Config, telegramService *telegram.Service, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if telegramService == nil {
		telegramService = telegram.NewService(logger)
	}

	return &Handler{
		db:              db,
		logger:          logger,
		queue:           emails,
		assumptions:     table,
		config:          cfg,
		telegramService: telegramService,
	}
}

func (h *Handler) GetDeals(c *gin.Context) {
	status := models.DealStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		limit = 0
	}

	deals, err := h.db.List(status, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get deals")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get deals"})
		return
	}

	c.JSON(http.StatusOK, deals)
}

func (h *Handler) GetDeal(c *gin.Context) {
	deal, ok := h.loadDeal(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, deal)
}

func (h *Handler) ApproveDeal(c *gin.Context) {
	h.review(c, models.DealStatusApproved)
}

func (h *Handler) RejectDeal(c *gin.Context) {
	h.review(c, models.DealStatusRejected)
}

func (h *Handler) review(c *gin.Context, status models.DealStatus) {
	var req ReviewRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}
	if req.By == "" {
		req.By = "api"
	}

	id := c.Param("id")
	if err := h.db.UpdateStatus(id, status, req.By); err != nil {
		h.writeDealError(c, err, "Failed to update deal status")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"deal_id": id,
		"status":  status,
		"by":      req.By,
	}).Info("Deal reviewed")

	deal, ok := h.loadDeal(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, deal)
}

func (h *Handler) UpdateNotes(c *gin.Context) {
	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.db.UpdateNotes(c.Param("id"), req.Notes); err != nil {
		h.writeDealError(c, err, "Failed to update notes")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notes updated successfully"})
}

func (h *Handler) DeleteDeal(c *gin.Context) {
	deal, ok := h.loadDeal(c)
	if !ok {
		return
	}

	if err := h.db.Delete(deal.ID); err != nil {
		h.writeDealError(c, err, "Failed to delete deal")
		return
	}

	if deal.ReportPath != "" {
		if err := os.Remove(deal.ReportPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.logger.WithError(err).WithField("deal_id", deal.ID).Warn("Failed to remove deal report")
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deal deleted successfully"})
}

// GetDealReport downloads the deal spreadsheet, rendering it from the
// stored appraisal when the file is missing.
func (h *Handler) GetDealReport(c *gin.Context) {
	deal, ok := h.loadDeal(c)
	if !ok {
		return
	}

	path := deal.ReportPath
	if path == "" || !fileExists(path) {
		rendered, err := h.renderReport(deal)
		if err != nil {
			h.logger.WithError(err).WithField("deal_id", deal.ID).Error("Failed to render deal report")
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not available"})
			return
		}
		path = rendered
	}

	c.FileAttachment(path, fmt.Sprintf("deal-%s.xlsx", deal.ID))
}

func (h *Handler) renderReport(deal *models.Deal) (string, error) {
	if len(deal.Appraisal) == 0 {
		return "", errors.New("deal has no appraisal")
	}

	var result appraisal.Appraisal
	if err := json.Unmarshal(deal.Appraisal, &result); err != nil {
		return "", fmt.Errorf("failed to decode appraisal: %w", err)
	}

	path := filepath.Join(h.reportDir(), deal.ID+".xlsx")
	if err := report.Write(path, deal, &result); err != nil {
		return "", err
	}
	if err := h.db.UpdateReportPath(deal.ID, path); err != nil {
		return "", err
	}
	return path, nil
}

func (h *Handler) reportDir() string {
	if h.config != nil && h.config.ReportDir != "" {
		return h.config.ReportDir
	}
	return "reports"
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.db.Stats()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get deal stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get deal stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetDealTypes(c *gin.Context) {
	types := make([]DealTypeInfo, 0, len(config.SupportedDealTypes))
	for _, dt := range config.SupportedDealTypes {
		_, err := h.assumptions.RateSheet(dt.Name)
		types = append(types, DealTypeInfo{
			Name:           dt.Name,
			Residential:    dt.Residential,
			HasAssumptions: err == nil,
		})
	}

	c.JSON(http.StatusOK, types)
}

// GetDealsMap returns deal sites as GeoJSON. near=lat,lon and radius
// (miles) narrow the result to sites around a point.
func (h *Handler) GetDealsMap(c *gin.Context) {
	status := models.DealStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	deals, err := h.db.List(status, 0)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get deals")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get deals"})
		return
	}

	if near := c.Query("near"); near != "" {
		center, err := parseLatLon(near)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		radius, err := strconv.ParseFloat(c.DefaultQuery("radius", "10"), 64)
		if err != nil || radius <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid radius"})
			return
		}
		deals = geometry.SitesWithin(deals, center, radius)
	}

	c.JSON(http.StatusOK, geometry.SiteFeatures(deals))
}

func parseLatLon(s string) (orb.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return orb.Point{}, errors.New("near must be lat,lon")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return orb.Point{}, errors.New("invalid latitude")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lon < -180 || lon > 180 {
		return orb.Point{}, errors.New("invalid longitude")
	}
	return orb.Point{lon, lat}, nil
}

// RunAppraisal appraises a posted classification without storing it
func (h *Handler) RunAppraisal(c *gin.Context) {
	var req AppraisalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if dt := config.GetDealTypeByName(req.Classification.DealType); dt != nil {
		req.Classification.DealType = dt.Name
	}

	in := appraisal.Prepare(appraisal.Input{
		Classification:        req.Classification,
		TimelineMonths:        req.TimelineMonths,
		OwnFundsInvested:      req.OwnFundsInvested,
		TotalUnits:            req.TotalUnits,
		RentalPerUnitPerMonth: req.RentalPerUnitPerMonth,
		Travel:                req.Travel,
	}, h.defaults())

	result, err := appraisal.Run(in, h.assumptions.RateSheetOrDefault(req.Classification.DealType))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) defaults() appraisal.Defaults {
	if h.config == nil {
		return appraisal.Defaults{TimelineMonths: 24, OwnFundsInvested: 1500, RentalPerUnitPerMonth: 3000}
	}
	return appraisal.Defaults{
		TimelineMonths:        h.config.Appraisal.TimelineMonths,
		OwnFundsInvested:      h.config.Appraisal.OwnFundsInvested,
		RentalPerUnitPerMonth: h.config.Appraisal.RentalPerUnitPerMonth,
	}
}

// SubmitEmail queues an email for classification and appraisal
func (h *Handler) SubmitEmail(c *gin.Context) {
	var email models.Email
	if err := c.ShouldBindJSON(&email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if email.ReceivedAt.IsZero() {
		email.ReceivedAt = time.Now()
	}

	if err := h.queue.Push([]*models.Email{&email}); err != nil {
		if errors.Is(err, queue.ErrQueueFull) || errors.Is(err, queue.ErrQueueClosed) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to queue email")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue email"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "email_id": email.ID})
}

// GetTelegramConfig returns the current Telegram configuration
func (h *Handler) GetTelegramConfig(c *gin.Context) {
	settings, err := h.db.GetTelegramConfig()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get Telegram config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get Telegram config"})
		return
	}

	if settings == nil {
		c.JSON(http.StatusOK, gin.H{
			"is_enabled": false,
			"chat_id":    "",
			"bot_token":  "",
		})
		return
	}

	// Only the last four characters of the token leave the server
	settings.BotToken = maskToken(settings.BotToken)
	c.JSON(http.StatusOK, settings)
}

func maskToken(token string) string {
	if len(token) <= 4 {
		return "••••"
	}
	return "••••" + token[len(token)-4:]
}

// UpdateTelegramConfig updates the Telegram configuration after a test
// message goes through.
func (h *Handler) UpdateTelegramConfig(c *gin.Context) {
	var request models.TelegramConfigRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.WithError(err).Error("Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if len(request.BotToken) < 20 || !strings.Contains(request.BotToken, ":") {
		h.logger.Error("Invalid bot token format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bot token format. Please check your bot token from @BotFather"})
		return
	}

	if request.ChatID == "" {
		h.logger.Error("Chat ID is required")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chat ID is required"})
		return
	}

	testConfig := &models.TelegramConfig{
		BotToken:  request.BotToken,
		ChatID:    request.ChatID,
		IsEnabled: true,
	}
	testMessage := "🔔 Test notification from DealFlow\n\nIf you see this message, your Telegram configuration is working correctly!"
	if err := h.telegramService.SendTestMessage(testConfig, testMessage); err != nil {
		h.logger.WithError(err).Error("Failed to send test message")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.UpdateTelegramConfig(&request); err != nil {
		h.logger.WithError(err).Error("Failed to update Telegram config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save configuration to database"})
		return
	}

	h.reloadTelegramConfig()
	c.JSON(http.StatusOK, gin.H{"message": "Telegram configuration updated successfully"})
}

// UpdateTelegramFilters replaces the notification filters
func (h *Handler) UpdateTelegramFilters(c *gin.Context) {
	var filters models.TelegramFilters
	if err := c.ShouldBindJSON(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	for i, name := range filters.DealTypes {
		dt := config.GetDealTypeByName(name)
		if dt == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown deal type: %s", name)})
			return
		}
		filters.DealTypes[i] = dt.Name
	}

	if err := h.db.UpdateTelegramFilters(&filters); err != nil {
		h.logger.WithError(err).Error("Failed to update Telegram filters")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save filters to database"})
		return
	}

	h.reloadTelegramConfig()
	c.JSON(http.StatusOK, gin.H{"message": "Telegram filters updated successfully"})
}

// TestTelegramConfig sends a sample deal notification with the stored
// configuration.
func (h *Handler) TestTelegramConfig(c *gin.Context) {
	settings, err := h.db.GetTelegramConfig()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get Telegram config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get Telegram configuration"})
		return
	}

	if settings == nil || !settings.IsEnabled {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Telegram is not configured or is disabled"})
		return
	}

	if err := h.telegramService.SendTestMessage(settings, telegram.FormatDeal(sampleDeal())); err != nil {
		h.logger.WithError(err).Error("Failed to send test notification")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Test notification sent successfully"})
}

func sampleDeal() *models.Deal {
	address := "12 Test Street, London SE1 7PB"
	asking := 1250000.0
	gdv := 4200000.0
	profit := 610000.0
	return &models.Deal{
		Subject:    "Test: consented residential site",
		Sender:     "agent@example.com",
		DealType:   "Residential – New Build",
		Confidence: 92,
		Classification: &models.Classification{
			DealType:   "Residential – New Build",
			Confidence: 92,
			PropertyDetails: models.PropertyDetails{
				SiteAddress: &address,
				AskingPrice: &asking,
			},
		},
		GDV:       &gdv,
		NetProfit: &profit,
	}
}

func (h *Handler) reloadTelegramConfig() {
	settings, err := h.db.GetTelegramConfig()
	if err != nil {
		h.logger.WithError(err).Error("Failed to reload Telegram config")
		return
	}
	if settings != nil {
		h.telegramService.UpdateConfig(settings)
	}
}

func (h *Handler) loadDeal(c *gin.Context) (*models.Deal, bool) {
	deal, err := h.db.Get(c.Param("id"))
	if err != nil {
		h.writeDealError(c, err, "Failed to get deal")
		return nil, false
	}
	return deal, true
}

func (h *Handler) writeDealError(c *gin.Context, err error, message string) {
	if errors.Is(err, database.ErrDealNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Deal not found"})
		return
	}
	h.logger.WithError(err).Error(message)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
