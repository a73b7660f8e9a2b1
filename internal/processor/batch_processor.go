package processor

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"dealflow/server/config"
	"dealflow/server/internal/appraisal"
	"dealflow/server/internal/assumptions"
	"dealflow/server/internal/database"
	"dealflow/server/internal/models"
	"dealflow/server/internal/queue"
)

const cutoffLayout = "2006-01-02"

// Store is the part of the deal store the processor writes through
type Store interface {
	Exists(emailID string) (bool, error)
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

type Classifier interface {
	Classify(ctx context.Context, email *models.Email) (*models.Classification, error)
}

type TravelPlanner interface {
	Travel(ctx context.Context, address string) (*models.Travel, orb.Point, error)
}

type Notifier interface {
	NotifyDealAppraised(deal *models.Deal) error
}

// CompletionFunc is told the outcome of every email of a batch: nil once
// its deal is stored or it was skipped, the failure otherwise.
type CompletionFunc func(email *models.Email, err error)

// ReportWriter renders a deal's appraisal to path
type ReportWriter func(path string, deal *models.Deal, a *appraisal.Appraisal) error

// BatchProcessor turns queued email batches into appraised deals
type BatchProcessor struct {
	db          Store
	logger      *logrus.Logger
	config      *config.Config
	queue       *queue.EmailQueue
	classifier  Classifier
	assumptions *assumptions.Table
	travel      TravelPlanner
	notifier    Notifier
	report      ReportWriter
	completed   CompletionFunc
	cutoff      time.Time
	waitGroup   sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance. A nil table
// appraises every deal type with the built-in rates.
func NewBatchProcessor(db Store, queue *queue.EmailQueue, classifier Classifier, table *assumptions.Table, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &BatchProcessor{
		db:          db,
		queue:       queue,
		classifier:  classifier,
		assumptions: table,
		config:      config,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}

	if date := config.BatchProcessing.CutoffDate; date != "" {
		cutoff, err := time.Parse(cutoffLayout, date)
		if err != nil {
			logger.WithError(err).WithField("cutoff_date", date).Warn("Ignoring invalid cutoff date")
		} else {
			p.cutoff = cutoff
		}
	}
	return p
}

func (p *BatchProcessor) SetTravelPlanner(t TravelPlanner) { p.travel = t }

func (p *BatchProcessor) SetNotifier(n Notifier) { p.notifier = n }

// SetReportWriter enables spreadsheet reports, written under the
// configured report directory.
func (p *BatchProcessor) SetReportWriter(w ReportWriter) { p.report = w }

func (p *BatchProcessor) SetCompletionHandler(f CompletionFunc) { p.completed = f }

// Start subscribes the processor to the queue
func (p *BatchProcessor) Start() {
	p.queue.Subscribe(func(batch []*models.Email) error {
		p.waitGroup.Add(1)
		defer p.waitGroup.Done()
		if p.ctx.Err() != nil {
			return p.ctx.Err()
		}
		_, err := p.processBatch(batch)
		return err
	})
}

// Stop cancels in-flight work and waits for running batches to finish
func (p *BatchProcessor) Stop() {
	p.cancel()
	p.waitGroup.Wait()
}

// ProcessEmails appraises emails and stores the resulting deals, the same
// way a queued batch is handled.
func (p *BatchProcessor) ProcessEmails(emails []*models.Email) ([]*models.Deal, error) {
	return p.processBatch(emails)
}

// processBatch appraises every email of the batch concurrently, then stores
// the deals in one transaction with retry logic.
func (p *BatchProcessor) processBatch(batch []*models.Email) ([]*models.Deal, error) {
	results := make([]*models.Deal, len(batch))
	failures := make([]error, len(batch))

	g, ctx := errgroup.WithContext(p.ctx)
	if n := p.config.BatchProcessing.ProcessorCount; n > 0 {
		g.SetLimit(n)
	}
	for i, email := range batch {
		g.Go(func() error {
			deal, err := p.appraiseEmail(ctx, email)
			if err != nil {
				// One bad email must not sink the rest of the batch
				p.logger.WithError(err).WithField("email_id", email.ID).Error("Failed to appraise email")
				failures[i] = err
				return nil
			}
			results[i] = deal
			return nil
		})
	}
	_ = g.Wait()

	deals := make([]*models.Deal, 0, len(results))
	for _, deal := range results {
		if deal != nil {
			deals = append(deals, deal)
		}
	}
	if len(deals) == 0 {
		p.complete(batch, failures)
		return nil, nil
	}

	if err := p.store(deals); err != nil {
		for i := range batch {
			if results[i] != nil {
				failures[i] = err
			}
		}
		p.complete(batch, failures)
		return nil, err
	}
	p.complete(batch, failures)

	if p.notifier != nil {
		for _, deal := range deals {
			if err := p.notifier.NotifyDealAppraised(deal); err != nil {
				p.logger.WithError(err).WithField("deal_id", deal.ID).Error("Failed to send deal notification")
			}
		}
	}
	return deals, nil
}

func (p *BatchProcessor) complete(batch []*models.Email, failures []error) {
	if p.completed == nil {
		return
	}
	for i, email := range batch {
		p.completed(email, failures[i])
	}
}

func (p *BatchProcessor) store(deals []*models.Deal) error {
	var err error
	for attempt := 0; attempt <= p.config.BatchProcessing.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, p.config.BatchProcessing.MaxRetries)
			time.Sleep(time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second)
		}

		err = p.db.Transaction(func(tx *gorm.DB) error {
			if err := database.InsertDeals(tx, deals); err != nil {
				return fmt.Errorf("failed to insert deals batch: %w", err)
			}
			return nil
		})

		if err == nil {
			p.logger.Infof("Successfully processed batch of %d deals", len(deals))
			return nil
		}

		p.logger.Errorf("Batch processing failed: %v", err)
		if errors.Is(err, database.ErrDuplicateDeal) {
			return err
		}
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", p.config.BatchProcessing.MaxRetries, err)
}

// appraiseEmail runs one email through the pipeline. It returns nil
// without error for emails that are skipped.
func (p *BatchProcessor) appraiseEmail(ctx context.Context, email *models.Email) (*models.Deal, error) {
	log := p.logger.WithField("email_id", email.ID)

	if !p.cutoff.IsZero() && !email.ReceivedAt.After(p.cutoff) {
		log.Debug("Skipping email received on or before cutoff")
		return nil, nil
	}

	exists, err := p.db.Exists(email.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		log.Debug("Skipping already appraised email")
		return nil, nil
	}

	classification, err := p.classifier.Classify(ctx, email)
	if err != nil {
		return nil, err
	}
	details := classification.PropertyDetails

	deal := &models.Deal{
		ID:             uuid.NewString(),
		EmailID:        email.ID,
		Subject:        email.Subject,
		Sender:         email.Sender,
		ReceivedAt:     email.ReceivedAt,
		DealType:       classification.DealType,
		Confidence:     classification.Confidence,
		Status:         models.DealStatusPending,
		Classification: classification,
	}

	in := appraisal.Input{Classification: classification}
	if p.travel != nil && details.SiteAddress != nil && *details.SiteAddress != "" {
		travel, site, err := p.travel.Travel(ctx, *details.SiteAddress)
		if err != nil {
			log.WithError(err).Warn("Travel estimate unavailable")
		} else {
			in.Travel = travel
			lat, lon := site.Lat(), site.Lon()
			deal.Latitude, deal.Longitude = &lat, &lon
		}
	}

	defaults := appraisal.Defaults{
		TimelineMonths:        p.config.Appraisal.TimelineMonths,
		OwnFundsInvested:      p.config.Appraisal.OwnFundsInvested,
		RentalPerUnitPerMonth: p.config.Appraisal.RentalPerUnitPerMonth,
	}
	in = appraisal.Prepare(in, defaults)
	classification.AppliedAssumptions = map[string]any{
		"timeline_months":           *in.TimelineMonths,
		"own_funds_invested":        *in.OwnFundsInvested,
		"rental_per_unit_per_month": *in.RentalPerUnitPerMonth,
		"rate_sheet":                p.rateSheetName(classification.DealType),
	}

	result, err := appraisal.Run(in, p.assumptions.RateSheetOrDefault(classification.DealType))
	if err != nil {
		return nil, fmt.Errorf("failed to appraise deal: %w", err)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode appraisal: %w", err)
	}
	deal.Appraisal = raw
	deal.GDV = result.GDV.Totals().Amount
	if deal.GDV == nil {
		deal.GDV = details.GDV
	}
	deal.NetProfit = result.NetProfit.NetProfit

	if p.report != nil && p.config.ReportDir != "" {
		path := filepath.Join(p.config.ReportDir, deal.ID+".xlsx")
		if err := p.report(path, deal, result); err != nil {
			log.WithError(err).Error("Failed to write deal report")
		} else {
			deal.ReportPath = path
		}
	}

	log.WithFields(logrus.Fields{
		"deal_id":   deal.ID,
		"deal_type": deal.DealType,
	}).Info("Appraised deal")
	return deal, nil
}

// rateSheetName reports which assumption column priced the deal
func (p *BatchProcessor) rateSheetName(dealType string) string {
	if _, err := p.assumptions.RateSheet(dealType); err == nil {
		return dealType
	}
	return "default"
}
