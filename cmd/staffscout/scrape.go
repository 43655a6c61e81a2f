package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/staffscout/internal/config"
	"github.com/user/staffscout/internal/domain"
	"github.com/user/staffscout/internal/output"
	"github.com/user/staffscout/internal/service"
)

var (
	scrapeCompany  string
	scrapeDomain   string
	scrapeDepth    int
	scrapeSleep    int
	scrapeKeywords []string
	scrapeGeoblast bool
	scrapeOut      string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape one company and write the username files",
	Long: `Scrape one company and write the username files.

The company is the universal name from its page URL, e.g. 'acme-corp' for
/company/acme-corp. Results land in <out>/<company>/: rawnames.txt,
metadata.csv and one file per username format.

--geoblast and --keywords both split the search into smaller partitions to
get past the cap on results per query; they cannot be combined.`,
	RunE: runScrape,
}

func init() {
	f := scrapeCmd.Flags()
	f.StringVarP(&scrapeCompany, "company", "c", "", "company universal name (required)")
	f.StringVarP(&scrapeDomain, "domain", "d", "", "email domain appended to every username")
	f.IntVar(&scrapeDepth, "depth", 0, "pages per search partition (default: estimated from staff count)")
	f.IntVarP(&scrapeSleep, "sleep", "s", 0, "seconds between requests")
	f.StringSliceVarP(&scrapeKeywords, "keywords", "k", nil, "comma separated keywords, one search partition each")
	f.BoolVarP(&scrapeGeoblast, "geoblast", "g", false, "search each geographic region separately")
	f.StringVarP(&scrapeOut, "out", "o", "", "output directory (default: OUTPUT_DIR)")
	_ = scrapeCmd.MarkFlagRequired("company")
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	req := domain.ScrapeRequest{
		Company:  scrapeCompany,
		Domain:   scrapeDomain,
		Sleep:    scrapeSleep,
		Keywords: scrapeKeywords,
		Geoblast: scrapeGeoblast,
	}
	if cmd.Flags().Changed("depth") {
		depth := scrapeDepth
		req.Depth = &depth
	}
	out := scrapeOut
	if out == "" {
		out = cfg.OutputDir
	}

	// Ctrl-C stops the scrape but still writes what was found
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	client, err := newLinkedInClient(cfg, logger)
	if err != nil {
		return err
	}
	opts := service.Options{
		Writer:      output.NewWriter(out, logger),
		Workers:     cfg.DimensionWorkers,
		OrgCacheTTL: cfg.OrgCacheTTL(),
		LockTTL:     cfg.ScrapeLockTTL(),
		Logger:      logger,
	}
	st.apply(&opts)

	res, err := service.New(client, opts).Scrape(ctx, req)
	if res.RunID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "run %s: %s, %d employees, files in %s\n",
			res.RunID, res.Status, len(res.Employees), out)
	}
	if err != nil {
		logger.Error("scrape failed", zap.Error(err))
		return err
	}
	return nil
}
