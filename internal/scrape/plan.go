package scrape

import (
	"errors"
	"strings"
	"time"

	"github.com/user/staffscout/internal/domain"
	"github.com/user/staffscout/internal/geo"
)

// PageSize is the number of results the remote search returns per page.
const PageSize = 50

var (
	ErrMissingCompany        = errors.New("company is required")
	ErrConflictingPartitions = errors.New("geoblast and keywords are mutually exclusive")
	ErrInvalidDepth          = errors.New("depth must be greater than zero")
	ErrInvalidSleep          = errors.New("sleep must not be negative")
)

// Validate rejects requests that must not reach the remote service.
func Validate(req domain.ScrapeRequest) error {
	if strings.TrimSpace(req.Company) == "" {
		return ErrMissingCompany
	}
	if req.Geoblast && len(req.Keywords) > 0 {
		return ErrConflictingPartitions
	}
	if req.Depth != nil && *req.Depth <= 0 {
		return ErrInvalidDepth
	}
	if req.Sleep < 0 {
		return ErrInvalidSleep
	}
	return nil
}

// EstimateDepth returns how many pages to request per dimension for a
// population. A requested depth only wins when it is smaller.
func EstimateDepth(population int, requested *int) int {
	if population < 0 {
		population = 0
	}
	natural := population/PageSize + 1
	if requested != nil && *requested < natural {
		return *requested
	}
	return natural
}

// PlanDimensions returns the ordered search dimensions for a request:
// every geo region, else every keyword, else a single unpartitioned search.
func PlanDimensions(req domain.ScrapeRequest) []domain.SearchDimension {
	switch {
	case req.Geoblast:
		regions := geo.Regions()
		dims := make([]domain.SearchDimension, 0, len(regions))
		for _, r := range regions {
			dims = append(dims, domain.GeoDimension(r))
		}
		return dims
	case len(req.Keywords) > 0:
		dims := make([]domain.SearchDimension, 0, len(req.Keywords))
		for _, k := range req.Keywords {
			dims = append(dims, domain.KeywordDimension(k))
		}
		return dims
	default:
		return []domain.SearchDimension{domain.NoDimension()}
	}
}

// Plan is the effective shape of one scrape, computed once from an immutable
// request and the organization's population.
type Plan struct {
	Depth      int
	Geoblast   bool
	Dimensions []domain.SearchDimension
	Sleep      time.Duration
}

// NewPlan validates the request and derives the plan.
func NewPlan(req domain.ScrapeRequest, population int) (Plan, error) {
	if err := Validate(req); err != nil {
		return Plan{}, err
	}
	return Plan{
		Depth:      EstimateDepth(population, req.Depth),
		Geoblast:   req.Geoblast,
		Dimensions: PlanDimensions(req),
		Sleep:      req.SleepDuration(),
	}, nil
}
