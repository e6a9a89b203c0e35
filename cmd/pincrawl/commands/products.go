package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pincrawl/internal/catalog"
	"pincrawl/internal/config"
	"pincrawl/internal/logging"
	"pincrawl/internal/matcher"
	"pincrawl/pkg/utils"
)

var (
	populateForce bool
	indexLimit    int
	listLimit     int
	queryTopK     int
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Manage the machine reference catalog",
}

var productsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the Pinecone index sized to the configured embedding dimensions",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Runs before the index host exists, so full validation would reject
		// the configuration; check only what this command needs.
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if err := logging.InitializeLogging(cfg); err != nil {
			return err
		}
		if cfg.Pinecone.APIKey == "" {
			return utils.NewConfigurationError("PINECONE_API_KEY is required")
		}
		if cfg.Pinecone.IndexName == "" {
			return utils.NewConfigurationError("pinecone.index_name is required")
		}

		host, err := matcher.CreateIndex(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		fmt.Printf("Created index %q (%d dimensions)\n", cfg.Pinecone.IndexName, cfg.Embedding.Dimensions)
		fmt.Printf("Set PINECONE_INDEX_HOST=%s\n", host)
		return nil
	},
}

var productsPopulateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Load the OPDB export into the catalog database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()

		indexer := catalog.NewIndexer(store, nil, nil)
		count, err := indexer.Populate(cmd.Context(), cfg.Catalog.DataPath, populateForce)
		if err != nil {
			return err
		}

		fmt.Printf("Stored %d products from %s\n", count, cfg.Catalog.DataPath)
		return nil
	},
}

var productsIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed catalog products and upsert them into the vector index",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()

		index, err := matcher.NewPineconeIndex(cfg)
		if err != nil {
			return err
		}

		indexer := catalog.NewIndexer(store, matcher.NewOpenAIEmbedder(cfg), index)
		count, err := indexer.Index(cmd.Context(), indexLimit)
		if err != nil {
			return err
		}

		fmt.Printf("Indexed %d products\n", count)
		return nil
	},
}

var productsQueryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Search the vector index for the catalog entries nearest to free text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		index, err := matcher.NewPineconeIndex(cfg)
		if err != nil {
			return err
		}
		m := matcher.New(cfg, matcher.NewOpenAIEmbedder(cfg), index)

		matches, err := m.Search(cmd.Context(), strings.Join(args, " "), queryTopK)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCORE\tOPDB\tNAME\tMANUFACTURER\tYEAR")
		for _, match := range matches {
			fmt.Fprintf(w, "%.4f\t%s\t%s\t%s\t%s\n",
				match.Score, match.OpdbID, match.Name, match.Manufacturer, orDash(match.Year))
		}
		return w.Flush()
	},
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog products",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()

		products, err := store.ListProducts(cmd.Context())
		if err != nil {
			return err
		}
		if listLimit > 0 && len(products) > listLimit {
			products = products[:listLimit]
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "OPDB\tNAME\tMANUFACTURER\tYEAR")
		for _, p := range products {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.OpdbID, p.Name, p.Manufacturer, strOrDash(p.Year))
		}
		return w.Flush()
	},
}

func init() {
	productsPopulateCmd.Flags().BoolVar(&populateForce, "force", false, "replace the catalog even if already populated")
	productsIndexCmd.Flags().IntVar(&indexLimit, "limit", 0, "maximum number of products to index (0 = all)")
	productsListCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum number of products to list (0 = all)")
	productsQueryCmd.Flags().IntVar(&queryTopK, "top-k", 5, "number of nearest entries to return")

	productsCmd.AddCommand(productsInitCmd)
	productsCmd.AddCommand(productsPopulateCmd)
	productsCmd.AddCommand(productsIndexCmd)
	productsCmd.AddCommand(productsQueryCmd)
	productsCmd.AddCommand(productsListCmd)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
