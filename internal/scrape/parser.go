package scrape

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/user/staffscout/internal/domain"
)

// ErrNoResults means a page yielded nothing usable and the dimension should stop.
var ErrNoResults = errors.New("no results on page")

const diagnosticLen = 200

const honorificPrefix = "Dr "

// document is a decoded JSON object whose accessors never fail: a missing or
// mistyped key reads as an empty container or zero value.
type document map[string]any

func (d document) obj(key string) document {
	if m, ok := d[key].(map[string]any); ok {
		return m
	}
	return document{}
}

func (d document) list(key string) []any {
	if l, ok := d[key].([]any); ok {
		return l
	}
	return nil
}

func (d document) str(key string) string {
	if s, ok := d[key].(string); ok {
		return s
	}
	return ""
}

func (d document) num(key string) float64 {
	if n, ok := d[key].(float64); ok {
		return n
	}
	return 0
}

func asDocument(v any) (document, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}
	return m, true
}

// Parser extracts employee records from one search results page.
type Parser struct {
	logger *zap.Logger
}

func NewParser(l *zap.Logger) *Parser {
	if l == nil {
		l = zap.NewNop()
	}
	return &Parser{logger: l}
}

// Parse returns the records on a page, or ErrNoResults when the page is
// malformed, reports a zero total, or holds no people.
func (p *Parser) Parse(body string) ([]domain.EmployeeRecord, error) {
	var root document
	if err := json.Unmarshal([]byte(body), &root); err != nil || root == nil {
		p.logger.Warn("could not decode search results page",
			zap.Error(err),
			zap.String("body_prefix", truncate(body, diagnosticLen)))
		return nil, ErrNoResults
	}

	clusters := root.obj("data").obj("searchDashClustersByAll")
	// total is authoritative even when elements are present
	if clusters.obj("paging").num("total") == 0 {
		return nil, ErrNoResults
	}

	var records []domain.EmployeeRecord
	for _, el := range clusters.list("elements") {
		element, ok := asDocument(el)
		if !ok {
			continue
		}
		for _, it := range element.list("items") {
			item, ok := asDocument(it)
			if !ok {
				continue
			}
			entity, ok := asDocument(item.obj("item")["entityResult"])
			if !ok {
				continue
			}
			name := strings.TrimSpace(entity.obj("title").str("text"))
			if strings.HasPrefix(name, honorificPrefix) {
				name = strings.TrimSpace(name[len(honorificPrefix):])
			}
			if name == "" {
				continue
			}
			records = append(records, domain.EmployeeRecord{
				FullName:   name,
				Occupation: entity.obj("primarySubtitle").str("text"),
			})
		}
	}

	if len(records) == 0 {
		return nil, ErrNoResults
	}
	return records, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
