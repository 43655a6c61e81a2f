// Package service runs scrapes end to end: it validates the request, claims
// the company, resolves the organization, drives the scraper, persists the
// outcome and writes the output files.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/staffscout/internal/domain"
	"github.com/user/staffscout/internal/monitoring"
	"github.com/user/staffscout/internal/names"
	"github.com/user/staffscout/internal/output"
	"github.com/user/staffscout/internal/scrape"
)

var (
	ErrScrapeInProgress    = errors.New("a scrape for this company is already running")
	ErrPersistenceDisabled = errors.New("run history is not configured")
	ErrUnknownScheme       = errors.New("unknown username scheme")
)

// LinkedIn resolves organizations and fetches search pages.
type LinkedIn interface {
	ResolveOrganization(ctx context.Context, company string) (domain.Organization, error)
	scrape.Fetcher
}

// RunStore keeps the history of scrapes.
type RunStore interface {
	Ping(ctx context.Context) error
	CreateRun(ctx context.Context, run *domain.ScrapeRun, req domain.ScrapeRequest) error
	FinishRun(ctx context.Context, run *domain.ScrapeRun, records []domain.EmployeeRecord) error
	GetRun(ctx context.Context, id string) (*domain.ScrapeRun, error)
	ListEmployees(ctx context.Context, id string) ([]domain.EmployeeRecord, error)
}

// Cache holds organization lookups and per-company scrape locks.
type Cache interface {
	Ping(ctx context.Context) error
	GetOrganization(ctx context.Context, company string) (domain.Organization, bool, error)
	CacheOrganization(ctx context.Context, company string, org domain.Organization, ttl time.Duration) error
	AcquireScrapeLock(ctx context.Context, company, runID string, ttl time.Duration) (bool, error)
	ReleaseScrapeLock(ctx context.Context, company, runID string) error
	IncrementScrapeCount(ctx context.Context, company string) (int64, error)
}

// FileWriter persists a finished scrape as files.
type FileWriter interface {
	Write(company, emailDomain string, records []domain.EmployeeRecord) (output.Summary, error)
}

// Options wires the optional collaborators. A nil store disables the
// feature it backs.
type Options struct {
	Runs   RunStore
	Cache  Cache
	Writer FileWriter
	// AsyncWrites writes files in the background after Scrape returns.
	AsyncWrites bool

	Workers     int
	OrgCacheTTL time.Duration
	LockTTL     time.Duration

	Metrics *monitoring.Metrics
	Logger  *zap.Logger
}

type Service struct {
	linkedin LinkedIn
	scraper  *scrape.Scraper
	opts     Options
	metrics  *monitoring.Metrics
	logger   *zap.Logger

	writes sync.WaitGroup
}

func New(li LinkedIn, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.OrgCacheTTL <= 0 {
		opts.OrgCacheTTL = 24 * time.Hour
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = time.Hour
	}
	return &Service{
		linkedin: li,
		scraper: scrape.NewScraper(li, scrape.Options{
			Workers: opts.Workers,
			Logger:  opts.Logger,
			Metrics: opts.Metrics,
		}),
		opts:    opts,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
}

// Scrape runs one scrape. When the run is cut short the records gathered so
// far are returned together with the error.
func (s *Service) Scrape(ctx context.Context, req domain.ScrapeRequest) (domain.ScrapeResult, error) {
	req.Company = strings.TrimSpace(req.Company)
	if err := scrape.Validate(req); err != nil {
		return domain.ScrapeResult{}, err
	}

	run := &domain.ScrapeRun{
		ID:        uuid.NewString(),
		Company:   req.Company,
		Domain:    req.Domain,
		Status:    domain.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	log := s.logger.With(zap.String("run_id", run.ID), zap.String("company", run.Company))

	if s.opts.Cache != nil {
		ok, err := s.opts.Cache.AcquireScrapeLock(ctx, run.Company, run.ID, s.opts.LockTTL)
		switch {
		case err != nil:
			log.Warn("could not take scrape lock, continuing without it", zap.Error(err))
			s.metrics.IncErrorsTotal("cache_failed")
		case !ok:
			return domain.ScrapeResult{}, fmt.Errorf("%w: %s", ErrScrapeInProgress, run.Company)
		default:
			defer func() {
				if err := s.opts.Cache.ReleaseScrapeLock(context.WithoutCancel(ctx), run.Company, run.ID); err != nil {
					log.Warn("failed to release scrape lock", zap.Error(err))
				}
			}()
		}
	}

	if s.opts.Runs != nil {
		if err := s.opts.Runs.CreateRun(ctx, run, req); err != nil {
			s.metrics.IncErrorsTotal("db_save_failed")
			return domain.ScrapeResult{}, fmt.Errorf("recording run: %w", err)
		}
	}

	records, err := s.execute(ctx, log, run, req)
	run.EmployeeCount = len(records)
	switch {
	case err == nil:
		run.Status = domain.RunStatusCompleted
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		run.Status = domain.RunStatusPartial
		run.FailReason = err.Error()
	default:
		run.Status = domain.RunStatusFailed
		run.FailReason = err.Error()
	}
	finished := time.Now().UTC()
	run.FinishedAt = &finished
	s.finish(ctx, log, run, records)

	result := domain.ScrapeResult{
		RunID:     run.ID,
		Company:   run.Company,
		Status:    run.Status,
		Employees: records,
	}
	if result.Employees == nil {
		result.Employees = []domain.EmployeeRecord{}
	}

	if s.opts.Writer != nil && run.Status != domain.RunStatusFailed && len(records) > 0 {
		if s.opts.AsyncWrites {
			s.writes.Add(1)
			go func() {
				defer s.writes.Done()
				s.writeFiles(log, run.Company, req.Domain, records)
			}()
		} else if werr := s.writeFiles(log, run.Company, req.Domain, records); werr != nil && err == nil {
			err = werr
		}
	}
	return result, err
}

// execute resolves the organization and runs the scraper, filling in the
// plan details on run.
func (s *Service) execute(ctx context.Context, log *zap.Logger, run *domain.ScrapeRun, req domain.ScrapeRequest) ([]domain.EmployeeRecord, error) {
	org, err := s.resolve(ctx, log, req.Company)
	if err != nil {
		s.metrics.IncErrorsTotal("lookup_failed")
		return nil, err
	}
	run.OrganizationID = org.ID
	run.Population = org.Population

	plan, err := scrape.NewPlan(req, org.Population)
	if err != nil {
		return nil, err
	}
	run.Depth = plan.Depth
	run.Dimensions = len(plan.Dimensions)

	if req.Depth != nil && *req.Depth > plan.Depth {
		log.Info("requested depth exceeds the staff count, using the estimate",
			zap.Int("requested", *req.Depth), zap.Int("depth", plan.Depth))
	}

	records, err := s.scraper.Run(ctx, org.ID, plan)
	if err != nil {
		log.Error("scrape stopped early", zap.Error(err), zap.Int("records", len(records)))
	} else {
		log.Info("scrape finished", zap.Int("records", len(records)))
	}
	return records, err
}

func (s *Service) resolve(ctx context.Context, log *zap.Logger, company string) (domain.Organization, error) {
	if s.opts.Cache != nil {
		org, found, err := s.opts.Cache.GetOrganization(ctx, company)
		if err != nil {
			log.Warn("organization cache read failed", zap.Error(err))
			s.metrics.IncErrorsTotal("cache_failed")
		} else if found {
			log.Debug("organization cache hit", zap.String("organization_id", org.ID))
			return org, nil
		}
	}

	org, err := s.linkedin.ResolveOrganization(ctx, company)
	if err != nil {
		return domain.Organization{}, fmt.Errorf("resolving %s: %w", company, err)
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.CacheOrganization(ctx, company, org, s.opts.OrgCacheTTL); err != nil {
			log.Warn("organization cache write failed", zap.Error(err))
			s.metrics.IncErrorsTotal("cache_failed")
		}
	}
	return org, nil
}

func (s *Service) finish(ctx context.Context, log *zap.Logger, run *domain.ScrapeRun, records []domain.EmployeeRecord) {
	s.metrics.IncScrapesTotal(run.Status)

	// a cancelled request must still leave its partial results behind
	ctx = context.WithoutCancel(ctx)
	if s.opts.Runs != nil {
		if err := s.opts.Runs.FinishRun(ctx, run, records); err != nil {
			log.Error("failed to save run", zap.Error(err))
			s.metrics.IncErrorsTotal("db_save_failed")
		}
	}
	if s.opts.Cache != nil {
		if n, err := s.opts.Cache.IncrementScrapeCount(ctx, run.Company); err != nil {
			log.Warn("failed to count scrape", zap.Error(err))
		} else {
			log.Debug("scrapes this week", zap.Int64("count", n))
		}
	}
}

func (s *Service) writeFiles(log *zap.Logger, company, emailDomain string, records []domain.EmployeeRecord) error {
	if _, err := s.opts.Writer.Write(company, emailDomain, records); err != nil {
		log.Error("failed to write output files", zap.Error(err))
		s.metrics.IncErrorsTotal("write_failed")
		return fmt.Errorf("writing output files: %w", err)
	}
	return nil
}

// Wait blocks until background file writes have finished.
func (s *Service) Wait() {
	s.writes.Wait()
}

// GetRun returns a recorded run.
func (s *Service) GetRun(ctx context.Context, id string) (*domain.ScrapeRun, error) {
	if s.opts.Runs == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.opts.Runs.GetRun(ctx, id)
}

// Employees returns the records of a recorded run in scrape order.
func (s *Service) Employees(ctx context.Context, id string) ([]domain.EmployeeRecord, error) {
	if _, err := s.GetRun(ctx, id); err != nil {
		return nil, err
	}
	return s.opts.Runs.ListEmployees(ctx, id)
}

// Usernames derives one scheme's usernames from a recorded run, suffixed
// with the run's domain when it has one.
func (s *Service) Usernames(ctx context.Context, id, scheme string) ([]string, error) {
	sc, ok := names.ParseScheme(scheme)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	records, err := s.opts.Runs.ListEmployees(ctx, id)
	if err != nil {
		return nil, err
	}

	displayNames := make([]string, 0, len(records))
	for _, r := range records {
		displayNames = append(displayNames, r.FullName)
	}
	usernames := names.FromDisplayNames(sc, displayNames).Sorted()
	if run.Domain != "" {
		suffix := "@" + strings.TrimPrefix(run.Domain, "@")
		for i := range usernames {
			usernames[i] += suffix
		}
	}
	return usernames, nil
}

// Health pings the configured stores; a missing store reports "disabled".
func (s *Service) Health(ctx context.Context) (map[string]string, bool) {
	status := map[string]string{"postgres": "disabled", "redis": "disabled"}
	healthy := true
	check := func(name string, ping func(context.Context) error) {
		if err := ping(ctx); err != nil {
			s.logger.Error("health check failed", zap.String("store", name), zap.Error(err))
			status[name] = "unhealthy"
			healthy = false
			return
		}
		status[name] = "healthy"
	}
	if s.opts.Runs != nil {
		check("postgres", s.opts.Runs.Ping)
	}
	if s.opts.Cache != nil {
		check("redis", s.opts.Cache.Ping)
	}
	return status, healthy
}
