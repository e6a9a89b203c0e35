package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"pincrawl/internal/config"
	"pincrawl/internal/llm"
	"pincrawl/internal/matcher"
	"pincrawl/internal/pipeline"
	"pincrawl/internal/scraper"
	"pincrawl/internal/storage"
	"pincrawl/pkg/models"
)

var (
	adsLimit int
	adsStage string
)

var adsCmd = &cobra.Command{
	Use:   "ads",
	Short: "Run the ad pipeline stages",
}

var adsCrawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Discover new ad URLs from the configured search queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()

		sc, err := newScraper(cfg)
		if err != nil {
			return err
		}
		defer sc.Cleanup()

		crawler, err := pipeline.New(cfg, store, sc, nil, nil)
		if err != nil {
			return err
		}

		summary, err := crawler.Crawl(cmd.Context(), adsLimit)
		printSummary(summary)
		return err
	},
}

var adsScrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch content for pending ads",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()

		sc, err := newScraper(cfg)
		if err != nil {
			return err
		}
		defer sc.Cleanup()

		crawler, err := pipeline.New(cfg, store, sc, nil, nil)
		if err != nil {
			return err
		}

		summary, err := crawler.Scrape(cmd.Context(), adsLimit)
		printSummary(summary)
		return err
	},
}

var adsIdentifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Extract listing details and match scraped ads against the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()

		extractor := llm.NewManager(cfg)
		if err := extractor.Start(); err != nil {
			return err
		}
		defer extractor.Stop()

		index, err := matcher.NewPineconeIndex(cfg)
		if err != nil {
			return err
		}
		m := matcher.New(cfg, matcher.NewOpenAIEmbedder(cfg), index)

		crawler, err := pipeline.New(cfg, store, nil, extractor, m)
		if err != nil {
			return err
		}

		summary, err := crawler.Identify(cmd.Context(), adsLimit)
		printSummary(summary)
		return err
	},
}

var adsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored ads",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()

		return listAds(cmd.Context(), store, models.Stage(adsStage))
	},
}

func init() {
	adsCrawlCmd.Flags().IntVar(&adsLimit, "limit", 0, "maximum number of new ads to register (0 = all)")
	adsScrapeCmd.Flags().IntVar(&adsLimit, "limit", 0, "maximum number of ads to process (0 = all)")
	adsIdentifyCmd.Flags().IntVar(&adsLimit, "limit", 0, "maximum number of ads to process (0 = all)")
	adsListCmd.Flags().StringVar(&adsStage, "stage", "new", "stage to list (new, scraped, identified, ignored)")

	adsCmd.AddCommand(adsCrawlCmd)
	adsCmd.AddCommand(adsScrapeCmd)
	adsCmd.AddCommand(adsIdentifyCmd)
	adsCmd.AddCommand(adsListCmd)
}

func setup() (*config.Config, *storage.SQLStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func newScraper(cfg *config.Config) (scraper.Scraper, error) {
	return scraper.NewFactory(cfg).CreateScraper(cfg.Scraper.Provider)
}

func listAds(ctx context.Context, store storage.AdStore, stage models.Stage) error {
	ads, err := store.ListAdsByStage(ctx, stage, 0)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTAGE\tATTEMPTS\tTITLE\tOPDB\tURL")
	for _, ad := range ads {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\n",
			ad.ID, ad.Stage, ad.Attempts, strOrDash(ad.Title), strOrDash(ad.OpdbID), ad.URL)
	}
	return w.Flush()
}

func strOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func printSummary(summary *models.RunSummary) {
	if summary == nil {
		return
	}

	fmt.Printf("\nRun %s (%s) finished in %s\n", summary.RunID, summary.Stage, summary.Duration.Round(time.Millisecond))
	if summary.Discovered > 0 || summary.Stage == "crawl" {
		fmt.Printf("  discovered: %d\n", summary.Discovered)
		fmt.Printf("  skipped:    %d\n", summary.Skipped)
	}
	if summary.Stage == "scrape" {
		fmt.Printf("  scraped:    %d\n", summary.Scraped)
	}
	if summary.Stage == "identify" {
		fmt.Printf("  identified: %d\n", summary.Identified)
	}
	if summary.Ignored > 0 {
		fmt.Printf("  ignored:    %d\n", summary.Ignored)
	}
	fmt.Printf("  processed:  %d\n", summary.Processed())
	fmt.Printf("  failed:     %d\n", summary.Failed)
}
