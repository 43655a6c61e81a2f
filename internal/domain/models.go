package domain

import (
	"fmt"
	"time"

	"github.com/user/staffscout/internal/geo"
)

// ScrapeRequest is the payload for the API and the CLI
type ScrapeRequest struct {
	Company  string   `json:"company"`
	Domain   string   `json:"domain,omitempty"` // appended to every username as @domain
	Depth    *int     `json:"depth,omitempty"`  // user cap on pages per dimension
	Sleep    int      `json:"sleep"`            // seconds between queries
	Keywords []string `json:"keywords,omitempty"`
	Geoblast bool     `json:"geoblast"`
}

// SleepDuration is the configured inter-query delay.
func (r ScrapeRequest) SleepDuration() time.Duration {
	return time.Duration(r.Sleep) * time.Second
}

// EmployeeRecord is one person found on a results page
type EmployeeRecord struct {
	FullName   string `json:"full_name"`
	Occupation string `json:"occupation"`
}

// Organization is the resolved search target
type Organization struct {
	ID         string `json:"id"`
	Population int    `json:"population"`
}

// DimensionKind tags a SearchDimension.
type DimensionKind int

const (
	DimensionNone DimensionKind = iota
	DimensionGeo
	DimensionKeyword
)

// SearchDimension is one partition of the search space.
type SearchDimension struct {
	Kind    DimensionKind
	Region  geo.Region
	Keyword string
}

func NoDimension() SearchDimension {
	return SearchDimension{Kind: DimensionNone}
}

func GeoDimension(r geo.Region) SearchDimension {
	return SearchDimension{Kind: DimensionGeo, Region: r}
}

func KeywordDimension(term string) SearchDimension {
	return SearchDimension{Kind: DimensionKeyword, Keyword: term}
}

func (d SearchDimension) String() string {
	switch d.Kind {
	case DimensionGeo:
		return fmt.Sprintf("geo:%s", d.Region.Code)
	case DimensionKeyword:
		return fmt.Sprintf("keyword:%s", d.Keyword)
	default:
		return "none"
	}
}

// ScrapeResult is the API response for a finished scrape
type ScrapeResult struct {
	RunID     string           `json:"run_id"`
	Company   string           `json:"company"`
	Status    string           `json:"status"`
	Employees []EmployeeRecord `json:"employees"`
}

// Run status values.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusPartial   = "partial"
	RunStatusFailed    = "failed"
)

// ScrapeRun is the persisted record of one scrape invocation
type ScrapeRun struct {
	ID             string     `json:"id"`
	Company        string     `json:"company"`
	Domain         string     `json:"domain,omitempty"`
	Status         string     `json:"status"` // "running", "completed", "partial", "failed"
	OrganizationID string     `json:"organization_id,omitempty"`
	Population     int        `json:"population"`
	Depth          int        `json:"depth"`
	Dimensions     int        `json:"dimensions"`
	EmployeeCount  int        `json:"employee_count"`
	FailReason     string     `json:"fail_reason,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}
