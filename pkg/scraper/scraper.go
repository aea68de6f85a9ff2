package scraper

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"pubmedscraper/pkg/checkpoint"
	"pubmedscraper/pkg/config"
	"pubmedscraper/pkg/errors"
	"pubmedscraper/pkg/extractor"
	"pubmedscraper/pkg/logger"
	"pubmedscraper/pkg/pubmed"
	"pubmedscraper/pkg/ratelimit"
	"pubmedscraper/pkg/retry"
	"pubmedscraper/pkg/storage"
)

// StopReason explains why a term stopped
type StopReason string

const (
	ReasonNoResults       StopReason = "no_results"
	ReasonTooManyFailures StopReason = "too_many_failures"
	ReasonPageBudget      StopReason = "page_budget"
	ReasonInterrupted     StopReason = "interrupted"
)

// TermResult describes one term's crawl in this run
type TermResult struct {
	Index     int
	Term      string
	StartPage int
	// LastPage is the last page requested
	LastPage     int
	PagesFetched int
	Failures     int
	EmailsFound  int
	UniqueEmails int
	Reason       StopReason
	Duration     time.Duration
}

// Summary describes a whole run
type Summary struct {
	RunID           string
	StartedAt       time.Time
	FinishedAt      time.Time
	Start           checkpoint.Position
	Resumed         bool
	AlreadyComplete bool
	Interrupted     bool
	Terms           []TermResult
}

// PagesFetched totals pages over all terms
func (s *Summary) PagesFetched() int {
	n := 0
	for _, t := range s.Terms {
		n += t.PagesFetched
	}
	return n
}

// EmailsFound totals raw matches over all terms
func (s *Summary) EmailsFound() int {
	n := 0
	for _, t := range s.Terms {
		n += t.EmailsFound
	}
	return n
}

// Duration is the wall time of the run
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Scraper drives the crawl over every configured search term
type Scraper struct {
	config      *config.Config
	terms       []string
	fetcher     PageFetcher
	extractor   EmailExtractor
	limiter     ratelimit.Limiter
	backoff     retry.BackoffStrategy
	checkpoints *checkpoint.Manager
	store       *storage.Manager
	logger      logger.Logger
	runID       string
}

// Option customises a Scraper
type Option func(*Scraper)

// WithFetcher replaces the PubMed client
func WithFetcher(f PageFetcher) Option {
	return func(s *Scraper) { s.fetcher = f }
}

// WithExtractor replaces the email extractor
func WithExtractor(e EmailExtractor) Option {
	return func(s *Scraper) { s.extractor = e }
}

// WithLimiter replaces the request rate limiter
func WithLimiter(l ratelimit.Limiter) Option {
	return func(s *Scraper) { s.limiter = l }
}

// WithBackoff replaces the pause taken between requests
func WithBackoff(b retry.BackoffStrategy) Option {
	return func(s *Scraper) { s.backoff = b }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// New creates a new Scraper instance
func New(cfg *config.Config, opts ...Option) (*Scraper, error) {
	if len(cfg.Search.Terms) == 0 {
		return nil, fmt.Errorf("no search terms configured")
	}

	s := &Scraper{
		config: cfg,
		terms:  append([]string(nil), cfg.Search.Terms...),
		runID:  uuid.NewString(),
		logger: logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("run_id", s.runID)

	if s.fetcher == nil {
		s.fetcher = pubmed.NewClient(&cfg.Search, cfg.Crawl.RequestTimeout, s.logger)
	}
	if s.extractor == nil {
		s.extractor = extractor.New(extractor.Options{FoldCase: cfg.Extract.FoldCase})
	}
	if s.limiter == nil {
		s.limiter = ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}
	if s.backoff == nil {
		s.backoff = retry.NewUniformJitter(cfg.Crawl.MinDelay, cfg.Crawl.MaxDelay)
	}

	store, err := storage.NewManager(cfg.Output.Directory, cfg.CollatedPath())
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}
	s.store = store
	s.checkpoints = checkpoint.NewManager(cfg.CheckpointPath(), s.logger)

	return s, nil
}

// RunID identifies this scraper's run in logs
func (s *Scraper) RunID() string {
	return s.runID
}

// Terms returns the search vocabulary in crawl order
func (s *Scraper) Terms() []string {
	return append([]string(nil), s.terms...)
}

// Storage returns the email file store
func (s *Scraper) Storage() *storage.Manager {
	return s.store
}

// Checkpoints returns the checkpoint manager
func (s *Scraper) Checkpoints() *checkpoint.Manager {
	return s.checkpoints
}

// Run crawls every term from the saved position and marks the scan complete.
// Cancellation or the configured max duration stops the crawl early with
// Summary.Interrupted set and the checkpoint left resumable.
func (s *Scraper) Run(ctx context.Context) (*Summary, error) {
	if s.config.Crawl.MaxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Crawl.MaxDuration)
		defer cancel()
	}

	summary := &Summary{
		RunID:     s.runID,
		StartedAt: time.Now(),
		Start:     checkpoint.Start,
	}
	defer func() { summary.FinishedAt = time.Now() }()

	// each run starts with a full token bucket
	s.limiter.Reset()

	cp, err := s.checkpoints.Load()
	if err != nil {
		return summary, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if cp != nil && cp.Complete {
		s.logger.Info("Scan already complete, nothing to do")
		summary.AlreadyComplete = true
		return summary, nil
	}
	if cp != nil {
		if cp.Position.TermIndex > len(s.terms) {
			return summary, errors.Wrap(errors.ErrorTypeCheckpoint,
				fmt.Sprintf("term index %d out of range for %d terms", cp.Position.TermIndex, len(s.terms)),
				errors.ErrCorruptCheckpoint)
		}
		summary.Start = cp.Position
		summary.Resumed = true
	}

	logger.LogComponentStart(s.logger, "crawler", map[string]interface{}{
		"terms":      len(s.terms),
		"term_index": summary.Start.TermIndex,
		"page":       summary.Start.Page,
		"resumed":    summary.Resumed,
	})

	for i := summary.Start.TermIndex; i < len(s.terms); i++ {
		page := 1
		if i == summary.Start.TermIndex {
			page = summary.Start.Page
		}

		result, err := s.ScrapeTerm(ctx, i, page)
		if result != nil {
			summary.Terms = append(summary.Terms, *result)
		}
		if err != nil {
			if isInterruption(err) {
				summary.Interrupted = true
				s.logger.WithError(err).WarnWithFields("Scan interrupted, progress saved", map[string]interface{}{
					"checkpoint": s.checkpoints.Path(),
				})
				return summary, nil
			}
			return summary, err
		}
	}

	if err := s.checkpoints.MarkComplete(); err != nil {
		return summary, fmt.Errorf("failed to mark checkpoint complete: %w", err)
	}

	logger.LogMetrics(s.logger, "scan", map[string]interface{}{
		"terms":  len(summary.Terms),
		"pages":  summary.PagesFetched(),
		"emails": summary.EmailsFound(),
	})
	return summary, nil
}

// ScrapeTerm crawls one term starting at startPage until it runs out of
// results, pages or patience. The checkpoint is advanced after every page.
func (s *Scraper) ScrapeTerm(ctx context.Context, index, startPage int) (*TermResult, error) {
	if index < 0 || index >= len(s.terms) {
		return nil, fmt.Errorf("term index %d out of range for %d terms", index, len(s.terms))
	}
	if startPage < 1 {
		return nil, fmt.Errorf("start page must be at least 1, got %d", startPage)
	}

	term := s.terms[index]
	log := s.logger.WithFields(map[string]interface{}{
		"term":       term,
		"term_index": index,
	})
	result := &TermResult{
		Index:     index,
		Term:      term,
		StartPage: startPage,
	}
	started := time.Now()
	defer func() { result.Duration = time.Since(started) }()

	log.InfoWithFields("Scanning term", map[string]interface{}{"page": startPage})

	budget := s.config.Crawl.MaxPagesPerTerm
	for page := startPage; ; page++ {
		if budget > 0 && page > budget {
			result.Reason = ReasonPageBudget
			break
		}

		result.LastPage = page
		p, err := s.fetchWithRetry(ctx, log, term, page, result)
		if stderrors.Is(err, retry.ErrMaxAttemptsExceeded) {
			log.WithError(err).WarnWithFields("Too many consecutive failures, abandoning term", map[string]interface{}{
				"page": page,
			})
			result.Reason = ReasonTooManyFailures
			break
		}
		if err != nil {
			if isInterruption(err) {
				result.Reason = ReasonInterrupted
				return result, err
			}
			return result, fmt.Errorf("failed to fetch %q page %d: %w", term, page, err)
		}

		if !p.HasContent {
			result.Reason = ReasonNoResults
			break
		}

		emails := s.extractor.Extract(p.Content)
		if err := s.store.AppendEmails(term, emails); err != nil {
			return result, errors.Wrap(errors.ErrorTypeStorage, "failed to append emails", err)
		}
		result.PagesFetched++
		result.EmailsFound += len(emails)

		if err := s.checkpoints.Save(checkpoint.Position{TermIndex: index, Page: page + 1}); err != nil {
			return result, errors.Wrap(errors.ErrorTypeCheckpoint, "failed to save checkpoint", err)
		}

		if interval := s.config.Crawl.ProgressInterval; interval > 0 && page%interval == 0 {
			logger.LogPageProgress(log, term, page, result.EmailsFound)
		}

		if err := retry.Wait(ctx, s.backoff.NextDelay(1)); err != nil {
			result.Reason = ReasonInterrupted
			return result, err
		}
	}

	unique, err := s.store.DedupeTerm(term)
	if err != nil {
		return result, errors.Wrap(errors.ErrorTypeStorage, "failed to deduplicate term file", err)
	}
	result.UniqueEmails = unique

	if err := s.checkpoints.Save(checkpoint.Position{TermIndex: index, Page: 1}.NextTerm()); err != nil {
		return result, errors.Wrap(errors.ErrorTypeCheckpoint, "failed to save checkpoint", err)
	}

	logger.LogTermFinished(log, term, result.PagesFetched, result.UniqueEmails, string(result.Reason))
	return result, nil
}

// fetchWithRetry requests one page, retrying transient failures with a
// random pause until max_consecutive_failures is exceeded
func (s *Scraper) fetchWithRetry(ctx context.Context, log logger.Logger, term string, page int, result *TermResult) (*pubmed.Page, error) {
	return retry.DoWithResult(func() (*pubmed.Page, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// the limiter refuses waits that would outlast the deadline
			return nil, fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		p, err := s.fetcher.FetchPage(ctx, term, page)
		if err != nil && errors.IsTransient(err) {
			result.Failures++
		}
		return p, err
	}, &retry.Config{
		MaxAttempts: s.config.Crawl.MaxConsecutiveFailures + 1,
		Backoff:     s.backoff,
		RetryIf:     retry.DefaultRetryIf,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			log.WithError(err).DebugWithFields("Page request failed, retrying", map[string]interface{}{
				"page":     page,
				"attempt":  attempt,
				"delay_ms": delay.Milliseconds(),
			})
		},
		Context: ctx,
		Logger:  log,
	})
}

func isInterruption(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}
