// Package output writes a finished scrape to disk: raw names, metadata and
// one username list per scheme.
package output

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/user/staffscout/internal/domain"
	"github.com/user/staffscout/internal/names"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Summary reports what was written.
type Summary struct {
	Files      []string
	Unusable   int                  // names that could not be structured
	PerScheme  map[names.Scheme]int // distinct usernames per scheme
	RawRecords int
}

// Writer writes scrape results under a base directory.
type Writer struct {
	dir    string
	logger *zap.Logger
}

func NewWriter(dir string, l *zap.Logger) *Writer {
	if l == nil {
		l = zap.NewNop()
	}
	return &Writer{dir: dir, logger: l}
}

// Write produces rawnames.txt, metadata.csv and one <scheme>.txt per scheme
// under <dir>/<company>/. A non-empty domain is appended to every username as
// @domain.
func (w *Writer) Write(company, emailDomain string, records []domain.EmployeeRecord) (Summary, error) {
	sub := unsafeFileChars.ReplaceAllString(strings.TrimSpace(company), "_")
	if strings.Trim(sub, "._") == "" {
		sub = "company"
	}
	dir := filepath.Join(w.dir, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("creating output dir: %w", err)
	}
	suffix := ""
	if emailDomain != "" {
		suffix = "@" + strings.TrimPrefix(emailDomain, "@")
	}

	summary := Summary{PerScheme: make(map[names.Scheme]int), RawRecords: len(records)}
	path := func(name string) string {
		p := filepath.Join(dir, name)
		summary.Files = append(summary.Files, p)
		return p
	}

	raw := make([]string, 0, len(records))
	for _, r := range records {
		raw = append(raw, r.FullName)
	}
	if err := writeLines(path("rawnames.txt"), raw); err != nil {
		return summary, err
	}
	if err := writeMetadata(path("metadata.csv"), records); err != nil {
		return summary, err
	}

	merged := make(map[names.Scheme]names.Set, len(names.Schemes))
	for _, s := range names.Schemes {
		merged[s] = names.Set{}
	}
	for _, r := range records {
		n, ok := names.Canonicalize(r.FullName)
		if !ok {
			summary.Unusable++
			w.logger.Debug("skipping name without enough structure", zap.String("name", r.FullName))
			continue
		}
		for scheme, set := range names.All(n) {
			for v := range set {
				merged[scheme][v] = struct{}{}
			}
		}
	}

	for _, scheme := range names.Schemes {
		lines := merged[scheme].Sorted()
		for i := range lines {
			lines[i] += suffix
		}
		summary.PerScheme[scheme] = len(lines)
		if err := writeLines(path(string(scheme)+".txt"), lines); err != nil {
			return summary, err
		}
	}

	w.logger.Info("wrote output files",
		zap.String("company", company),
		zap.String("dir", dir),
		zap.Int("records", len(records)),
		zap.Int("unusable_names", summary.Unusable))
	return summary, nil
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	for _, l := range lines {
		if _, err := bw.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func writeMetadata(path string, records []domain.EmployeeRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"full_name", "occupation"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{r.FullName, r.Occupation}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Close()
}
