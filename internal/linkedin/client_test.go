package linkedin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/staffscout/internal/domain"
	"github.com/user/staffscout/internal/geo"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(CookieProvider{BaseURL: srv.URL, LiAt: "token", JSessionID: "ajax:123456"}, 0, nil)
}

func TestResolveOrganization(t *testing.T) {
	var gotQuery string
	var gotHeaders http.Header
	var gotCookie string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotHeaders = r.Header.Clone()
		if ck, err := r.Cookie("li_at"); err == nil {
			gotCookie = ck.Value
		}
		w.Write([]byte(`{"elements":[{"trackingInfo":{"objectUrn":"urn:li:organization:1035"},"staffCount":2345}]}`))
	})

	org, err := c.ResolveOrganization(context.Background(), "acme corp")
	require.NoError(t, err)
	assert.Equal(t, domain.Organization{ID: "1035", Population: 2345}, org)

	assert.Equal(t, "q=universalName&universalName=acme+corp", gotQuery)
	assert.Equal(t, "ajax:123456", gotHeaders.Get("Csrf-Token"))
	assert.Equal(t, "2.0.0", gotHeaders.Get("X-RestLi-Protocol-Version"))
	assert.Equal(t, MobileUserAgent, gotHeaders.Get("User-Agent"))
	assert.Equal(t, "token", gotCookie)
}

func TestResolveOrganizationErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not found status", http.StatusNotFound, "", ErrOrganizationNotFound},
		{"no elements", http.StatusOK, `{"elements":[]}`, ErrOrganizationNotFound},
		{"server error", http.StatusInternalServerError, "oops", ErrUnexpectedStatus},
		{"lite site", http.StatusOK, `<html><body class="mwlite">`, ErrLiteVariant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.ResolveOrganization(context.Background(), "acme")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestResolveOrganizationUndecodableBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements":`))
	})
	_, err := c.ResolveOrganization(context.Background(), "acme")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOrganizationNotFound)
}

func TestFetchPageSendsPartitionedQuery(t *testing.T) {
	var queries []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/voyager/api/graphql", r.URL.Path)
		queries = append(queries, r.URL.RawQuery)
		w.Write([]byte(`{"data":{}}`))
	})

	region, ok := geo.Lookup("us")
	require.True(t, ok)

	body, err := c.FetchPage(context.Background(), "1035", 2, domain.GeoDimension(region))
	require.NoError(t, err)
	assert.Equal(t, `{"data":{}}`, body)

	_, err = c.FetchPage(context.Background(), "1035", 0, domain.KeywordDimension("software engineer"))
	require.NoError(t, err)

	require.Len(t, queries, 2)
	assert.Contains(t, queries[0], "start:100,")
	assert.Contains(t, queries[0], "(key:geoUrn,value:List(103644278)),")
	assert.NotContains(t, queries[0], "keywords:")
	assert.Contains(t, queries[1], "query:(keywords:software%20engineer,flagshipSearchIntent:SEARCH_SRP,")
	assert.NotContains(t, queries[1], "geoUrn")
}

func TestFetchPageNonSuccessStatusIsAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := c.FetchPage(context.Background(), "1", 0, domain.NoDimension())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestFetchPageReturnsRateLimitedBodyVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"UPSELL_LIMIT"}`))
	})
	body, err := c.FetchPage(context.Background(), "1", 0, domain.NoDimension())
	require.NoError(t, err)
	assert.True(t, strings.Contains(body, "UPSELL_LIMIT"))
}

func TestSearchPathUnpartitioned(t *testing.T) {
	want := "/voyager/api/graphql?variables=(start:0,query:(flagshipSearchIntent:SEARCH_SRP," +
		"queryParameters:List((key:currentCompany,value:List(42)),(key:resultType,value:List(PEOPLE)))," +
		"includeFiltersInResponse:false),count:50)&queryId=voyagerSearchDashClusters.66adc6056cf4138949ca5dcb31bb1749"
	assert.Equal(t, want, SearchPath("42", 0, domain.NoDimension()))
}

func TestSearchPathEscapesKeywordSyntax(t *testing.T) {
	path := SearchPath("42", 1, domain.KeywordDimension("r&d (lab), ops"))
	assert.Contains(t, path, "keywords:r%26d%20%28lab%29%2C%20ops,")
}

func TestRejectedSessionIsInvalidated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	inner := &countingProvider{baseURL: srv.URL}
	c := NewClient(NewCachedProvider(inner), 0, nil)

	_, err := c.FetchPage(context.Background(), "1035", 0, domain.NoDimension())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	_, err = c.FetchPage(context.Background(), "1035", 0, domain.NoDimension())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, 2, inner.calls)
}

func TestClientSurfacesLoginFailure(t *testing.T) {
	c := NewClient(CookieProvider{BaseURL: "https://www.linkedin.com"}, 0, nil)
	_, err := c.ResolveOrganization(context.Background(), "acme")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestSnippetKeepsRunesWhole(t *testing.T) {
	body := strings.Repeat("a", 199) + "éééé"
	got := snippet(body)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 199), got)

	assert.Equal(t, "short", snippet("  short \n"))
}
