package scheduler

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"dealflow/server/internal/inbox"
	"dealflow/server/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// JobType represents the different scheduled jobs
type JobType int

const (
	JobTypeInbox JobType = iota
	JobTypeDigest
)

// String returns the string representation of a JobType
func (j JobType) String() string {
	switch j {
	case JobTypeInbox:
		return "inbox"
	case JobTypeDigest:
		return "digest"
	default:
		return "unknown"
	}
}

type Inbox interface {
	Fetch() ([]inbox.Message, error)
	MarkProcessed(path string) error
}

type Queue interface {
	Push(emails []*models.Email) error
}

// StatsSource supplies the figures for the daily digest
type StatsSource interface {
	Stats() (models.DealStats, error)
}

type Messenger interface {
	SendMessage(text string) error
}

// Options holds the cron specs (with seconds) and batch size
type Options struct {
	InboxSpec  string
	DigestSpec string
	BatchSize  int
}

// Scheduler polls the inbox and sends the digest on cron schedules
type Scheduler struct {
	inbox     Inbox
	queue     Queue
	stats     StatsSource
	messenger Messenger
	opts      Options
	logger    *logrus.Logger
	cron      *cron.Cron
	wg        sync.WaitGroup
	jobMutex  sync.Mutex // Ensures sequential job execution

	// inbox files queued and not yet handled, by email ID
	pendingMu sync.Mutex
	pending   map[string]string
}

// NewScheduler creates a new scheduler
func NewScheduler(in Inbox, queue Queue, opts Options, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}

	return &Scheduler{
		inbox:   in,
		queue:   queue,
		opts:    opts,
		logger:  logger,
		cron:    cron.New(cron.WithSeconds()),
		pending: make(map[string]string),
	}
}

// SetDigest enables the digest job
func (s *Scheduler) SetDigest(stats StatsSource, messenger Messenger) {
	s.stats = stats
	s.messenger = messenger
}

// Start registers the jobs, runs an initial inbox poll and begins the
// schedule.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.opts.InboxSpec, func() { s.run(JobTypeInbox) }); err != nil {
		return fmt.Errorf("failed to schedule inbox job: %w", err)
	}
	if s.opts.DigestSpec != "" && s.stats != nil && s.messenger != nil {
		if _, err := s.cron.AddFunc(s.opts.DigestSpec, func() { s.run(JobTypeDigest) }); err != nil {
			return fmt.Errorf("failed to schedule digest job: %w", err)
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("Running startup inbox poll")
		s.run(JobTypeInbox)
	}()

	s.cron.Start()
	return nil
}

// Stop waits for running jobs and stops the schedule
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
}

func (s *Scheduler) run(job JobType) {
	log := s.logger.WithField("job_type", job.String())
	log.Debug("Starting scheduled job")

	var err error
	switch job {
	case JobTypeInbox:
		var queued int
		queued, err = s.PollInbox()
		if err == nil && queued > 0 {
			log = log.WithField("queued", queued)
		}
	case JobTypeDigest:
		err = s.SendDigest()
	}

	if err != nil {
		log.WithError(err).Error("Scheduled job failed")
		return
	}
	log.Debug("Scheduled job completed successfully")
}

// PollInbox pushes pending inbox messages to the queue in batches. Files
// stay in the inbox until Complete reports their email handled, so a
// failed appraisal is picked up again by a later poll. It returns how many
// emails were queued.
func (s *Scheduler) PollInbox() (int, error) {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	messages, err := s.inbox.Fetch()
	if err != nil {
		return 0, err
	}
	messages = s.claim(messages)

	queued := 0
	for start := 0; start < len(messages); start += s.opts.BatchSize {
		end := start + s.opts.BatchSize
		if end > len(messages) {
			end = len(messages)
		}
		chunk := messages[start:end]

		emails := make([]*models.Email, len(chunk))
		for i, m := range chunk {
			emails[i] = m.Email
		}
		if err := s.queue.Push(emails); err != nil {
			s.release(messages[start:])
			return queued, fmt.Errorf("failed to queue emails: %w", err)
		}
		queued += len(emails)
	}

	if queued > 0 {
		s.logger.WithField("count", queued).Info("Queued inbox emails")
	}
	return queued, nil
}

// claim records the messages not already in flight and returns them
func (s *Scheduler) claim(messages []inbox.Message) []inbox.Message {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()

	fresh := make([]inbox.Message, 0, len(messages))
	for _, m := range messages {
		if _, ok := s.pending[m.Email.ID]; ok {
			continue
		}
		s.pending[m.Email.ID] = m.Path
		fresh = append(fresh, m)
	}
	return fresh
}

func (s *Scheduler) release(messages []inbox.Message) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	for _, m := range messages {
		delete(s.pending, m.Email.ID)
	}
}

// Complete is called once an email has been handled. A nil err moves its
// inbox file out of the inbox; otherwise the file is left for the next
// poll. Emails that did not come from the inbox are ignored.
func (s *Scheduler) Complete(email *models.Email, err error) {
	s.pendingMu.Lock()
	path, ok := s.pending[email.ID]
	delete(s.pending, email.ID)
	s.pendingMu.Unlock()
	if !ok {
		return
	}

	log := s.logger.WithFields(logrus.Fields{"email_id": email.ID, "file": path})
	if err != nil {
		log.WithError(err).Warn("Email left in inbox for retry")
		return
	}
	if err := s.inbox.MarkProcessed(path); err != nil {
		log.WithError(err).Warn("Failed to move processed email")
	}
}

// SendDigest sends a summary of the deal pipeline
func (s *Scheduler) SendDigest() error {
	if s.stats == nil || s.messenger == nil {
		return errors.New("digest is not configured")
	}

	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	stats, err := s.stats.Stats()
	if err != nil {
		return fmt.Errorf("failed to load deal stats: %w", err)
	}
	if err := s.messenger.SendMessage(FormatDigest(stats)); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}
	return nil
}

func FormatDigest(stats models.DealStats) string {
	return fmt.Sprintf(
		"<b>Deal Pipeline Digest</b>\n\n"+
			"📥 Pending review: %d\n"+
			"✅ Approved: %d\n"+
			"❌ Rejected: %d\n"+
			"📊 Total deals: %d\n"+
			"🎯 Average confidence: %.0f%%",
		stats.PendingDeals,
		stats.ApprovedDeals,
		stats.RejectedDeals,
		stats.TotalDeals,
		stats.AverageConfidence,
	)
}
