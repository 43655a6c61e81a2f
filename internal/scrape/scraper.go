// Package scrape plans and runs the paginated people search for one
// organization and parses its result pages.
package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/user/staffscout/internal/domain"
	"github.com/user/staffscout/internal/monitoring"
)

// RateLimitMarker appears in a response body when the remote service
// throttled the search.
const RateLimitMarker = "UPSELL_LIMIT"

// Fetcher issues one page query and returns the raw response body.
type Fetcher interface {
	FetchPage(ctx context.Context, organizationID string, page int, dim domain.SearchDimension) (string, error)
}

// Options tunes a Scraper. Zero values are usable.
type Options struct {
	// Workers is the number of dimensions fetched at once; 1 or less runs them in order.
	Workers int
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
}

// Scraper drives the dimension and page loops.
type Scraper struct {
	fetcher Fetcher
	parser  *Parser
	workers int
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

func NewScraper(f Fetcher, opts Options) *Scraper {
	l := opts.Logger
	if l == nil {
		l = zap.NewNop()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Scraper{
		fetcher: f,
		parser:  NewParser(l),
		workers: workers,
		metrics: opts.Metrics,
		logger:  l,
	}
}

// Run searches every dimension of the plan and returns the accumulated
// records in dimension order. Records are not deduplicated. On a fetch error
// or a cancelled context, the records gathered so far are returned with the error.
func (s *Scraper) Run(ctx context.Context, organizationID string, plan Plan) ([]domain.EmployeeRecord, error) {
	if plan.Depth <= 0 {
		return nil, ErrInvalidDepth
	}
	// one limiter per run spaces fetch starts across concurrent dimensions;
	// the full sleep after each page is taken inside scrapeDimension
	limiter := rate.NewLimiter(rate.Every(plan.Sleep), 1)

	s.logger.Info("starting scrape",
		zap.String("organization_id", organizationID),
		zap.Int("dimensions", len(plan.Dimensions)),
		zap.Int("depth", plan.Depth),
		zap.Duration("sleep", plan.Sleep),
		zap.Int("workers", s.workers))

	if s.workers == 1 {
		return s.runSequential(ctx, organizationID, plan, limiter)
	}
	return s.runConcurrent(ctx, organizationID, plan, limiter)
}

func (s *Scraper) runSequential(ctx context.Context, organizationID string, plan Plan, limiter *rate.Limiter) ([]domain.EmployeeRecord, error) {
	var all []domain.EmployeeRecord
	for _, dim := range plan.Dimensions {
		found, err := s.scrapeDimension(ctx, organizationID, dim, plan.Depth, plan.Sleep, limiter)
		all = append(all, found...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

func (s *Scraper) runConcurrent(ctx context.Context, organizationID string, plan Plan, limiter *rate.Limiter) ([]domain.EmployeeRecord, error) {
	results := make([][]domain.EmployeeRecord, len(plan.Dimensions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, dim := range plan.Dimensions {
		g.Go(func() error {
			found, err := s.scrapeDimension(gctx, organizationID, dim, plan.Depth, plan.Sleep, limiter)
			results[i] = found
			return err
		})
	}
	err := g.Wait()

	var all []domain.EmployeeRecord
	for _, found := range results {
		all = append(all, found...)
	}
	if err == nil {
		// the group context is cancelled once Wait returns; report the caller's own
		err = ctx.Err()
	}
	return all, err
}

// scrapeDimension pages through one dimension until the depth is reached, the
// service reports throttling, or a page comes back empty. After every page with
// results it sleeps the full interval before asking for the next one.
func (s *Scraper) scrapeDimension(ctx context.Context, organizationID string, dim domain.SearchDimension, depth int, sleep time.Duration, limiter *rate.Limiter) ([]domain.EmployeeRecord, error) {
	log := s.logger.With(zap.String("dimension", dim.String()))
	kind := dimensionKind(dim)

	var found []domain.EmployeeRecord
	for page := 0; page < depth; page++ {
		if err := limiter.Wait(ctx); err != nil {
			s.metrics.IncDimensionsFinished("error")
			return found, fmt.Errorf("waiting to fetch %s page %d: %w", dim, page, contextErr(ctx, err))
		}

		body, err := s.fetcher.FetchPage(ctx, organizationID, page, dim)
		if err != nil {
			s.metrics.IncDimensionsFinished("error")
			return found, fmt.Errorf("fetching %s page %d: %w", dim, page, err)
		}
		s.metrics.IncPagesFetched(kind)

		if strings.Contains(body, RateLimitMarker) {
			log.Warn("search limit reached, moving to next dimension", zap.Int("page", page))
			s.metrics.IncDimensionsFinished("rate_limited")
			return found, nil
		}

		records, err := s.parser.Parse(body)
		if err != nil {
			log.Debug("no more results", zap.Int("page", page))
			s.metrics.IncDimensionsFinished("empty")
			return found, nil
		}

		found = append(found, records...)
		s.metrics.AddEmployeesFound(len(records))
		log.Info("page scraped", zap.Int("page", page), zap.Int("records", len(records)), zap.Int("dimension_total", len(found)))

		if page+1 < depth {
			if err := pause(ctx, sleep); err != nil {
				s.metrics.IncDimensionsFinished("error")
				return found, fmt.Errorf("sleeping after %s page %d: %w", dim, page, err)
			}
		}
	}

	s.metrics.IncDimensionsFinished("depth")
	return found, nil
}

// pause waits d from now, returning early when ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// contextErr prefers the context's own error over the limiter's, which also
// fails when a deadline would expire before the next slot.
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func dimensionKind(d domain.SearchDimension) string {
	switch d.Kind {
	case domain.DimensionGeo:
		return "geo"
	case domain.DimensionKeyword:
		return "keyword"
	default:
		return "none"
	}
}
