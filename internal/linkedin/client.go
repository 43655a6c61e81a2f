package linkedin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/user/staffscout/internal/domain"
)

const (
	searchQueryID = "voyagerSearchDashClusters.66adc6056cf4138949ca5dcb31bb1749"
	pageSize      = 50

	// liteMarker shows up when the service answers with its lite HTML site,
	// which carries none of the API payloads.
	liteMarker = "mwlite"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrLiteVariant          = errors.New("lite version of the site is not supported")
	ErrUnexpectedStatus     = errors.New("unexpected response status")
)

// Client issues lookups and searches over the provider's session. Every
// request passes a client-wide limiter, so concurrent scrapes sharing the
// client cannot exceed its rate.
type Client struct {
	provider Provider
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewClient asks p for a session on every request, so wrap interactive
// providers in a CachedProvider. minInterval is the floor between any two requests.
func NewClient(p Provider, minInterval time.Duration, l *zap.Logger) *Client {
	if l == nil {
		l = zap.NewNop()
	}
	return &Client{
		provider: p,
		limiter:  rate.NewLimiter(rate.Every(minInterval), 1),
		logger:   l,
	}
}

type companiesResponse struct {
	Elements []struct {
		TrackingInfo struct {
			ObjectUrn string `json:"objectUrn"`
		} `json:"trackingInfo"`
		StaffCount int `json:"staffCount"`
	} `json:"elements"`
}

// ResolveOrganization maps a company's universal name (the slug in its page
// URL) to its numeric id and staff count.
func (c *Client) ResolveOrganization(ctx context.Context, company string) (domain.Organization, error) {
	path := "/voyager/api/organization/companies?q=universalName&universalName=" + url.QueryEscape(company)

	status, body, err := c.get(ctx, path)
	if err != nil {
		return domain.Organization{}, err
	}
	switch {
	case status == http.StatusNotFound:
		return domain.Organization{}, fmt.Errorf("%w: %s", ErrOrganizationNotFound, company)
	case status != http.StatusOK:
		return domain.Organization{}, fmt.Errorf("%w %d looking up %s: %s", ErrUnexpectedStatus, status, company, snippet(body))
	case strings.Contains(body, liteMarker):
		return domain.Organization{}, ErrLiteVariant
	}

	var resp companiesResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return domain.Organization{}, fmt.Errorf("decoding company info: %w", err)
	}
	if len(resp.Elements) == 0 {
		return domain.Organization{}, fmt.Errorf("%w: %s", ErrOrganizationNotFound, company)
	}

	el := resp.Elements[0]
	urn := el.TrackingInfo.ObjectUrn
	id := urn[strings.LastIndex(urn, ":")+1:]
	if id == "" {
		return domain.Organization{}, fmt.Errorf("company info for %s has no organization urn", company)
	}

	c.logger.Info("resolved organization",
		zap.String("company", company),
		zap.String("organization_id", id),
		zap.Int("staff_count", el.StaffCount))
	return domain.Organization{ID: id, Population: el.StaffCount}, nil
}

// FetchPage runs one people search page for an organization, partitioned by
// the dimension, and returns the raw body.
func (c *Client) FetchPage(ctx context.Context, organizationID string, page int, dim domain.SearchDimension) (string, error) {
	status, body, err := c.get(ctx, SearchPath(organizationID, page, dim))
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", fmt.Errorf("%w %d on search page %d: %s", ErrUnexpectedStatus, status, page, snippet(body))
	}
	return body, nil
}

// SearchPath builds the graphql search query for one page.
func SearchPath(organizationID string, page int, dim domain.SearchDimension) string {
	var keyword, region string
	switch dim.Kind {
	case domain.DimensionKeyword:
		keyword = "keywords:" + strings.ReplaceAll(url.QueryEscape(dim.Keyword), "+", "%20") + ","
	case domain.DimensionGeo:
		region = "(key:geoUrn,value:List(" + dim.Region.PlatformID + ")),"
	}

	var b strings.Builder
	b.WriteString("/voyager/api/graphql?variables=(")
	b.WriteString("start:" + strconv.Itoa(page*pageSize) + ",")
	b.WriteString("query:(")
	b.WriteString(keyword)
	b.WriteString("flagshipSearchIntent:SEARCH_SRP,")
	b.WriteString("queryParameters:List((key:currentCompany,value:List(" + organizationID + ")),")
	b.WriteString(region)
	b.WriteString("(key:resultType,value:List(PEOPLE))")
	b.WriteString("),")
	b.WriteString("includeFiltersInResponse:false")
	b.WriteString("),count:" + strconv.Itoa(pageSize) + ")")
	b.WriteString("&queryId=" + searchQueryID)
	return b.String()
}

func (c *Client) get(ctx context.Context, pathAndQuery string) (int, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	session, err := c.provider.Session(ctx)
	if err != nil {
		return 0, "", fmt.Errorf("obtaining session: %w", err)
	}
	req, err := session.newRequest(ctx, pathAndQuery)
	if err != nil {
		return 0, "", err
	}

	start := time.Now()
	resp, err := session.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("reading response body: %w", err)
	}
	c.logger.Debug("voyager request",
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// the session expired or was revoked; the next request logs in again
		if inv, ok := c.provider.(invalidator); ok {
			c.logger.Warn("session rejected, dropping it", zap.Int("status", resp.StatusCode))
			inv.Invalidate()
		}
	}
	return resp.StatusCode, string(raw), nil
}

type invalidator interface {
	Invalidate()
}

func snippet(body string) string {
	if len(body) > 200 {
		body = body[:200]
		for !utf8.ValidString(body) {
			body = body[:len(body)-1]
		}
	}
	return strings.TrimSpace(body)
}
