// RoboNews ingests robotics and AI news feeds into a deduplicated store.
//
// Usage:
//
//	robonews fetch      # run one ingestion pass and print the report
//	robonews serve      # HTTP API plus periodic ingestion
//	robonews list       # show stored posts
//	robonews version
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/robonews/internal/api"
	"github.com/RobinCoderZhao/robonews/internal/config"
	"github.com/RobinCoderZhao/robonews/internal/ingest/catalog"
	"github.com/RobinCoderZhao/robonews/internal/ingest/publisher"
	"github.com/RobinCoderZhao/robonews/internal/ingest/store"
	"github.com/RobinCoderZhao/robonews/pkg/logger"
)

var version = "dev"

func main() {
	var (
		configPath string
		cfg        config.Config
	)

	rootCmd := &cobra.Command{
		Use:           "robonews",
		Short:         "Robotics news feed ingestion",
		Long:          "RoboNews fetches robotics and AI feeds, classifies every article into a domain and stores it once.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional
			_ = godotenv.Load()

			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.New(cfg.Log)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default robonews.yaml or $ROBONEWS_CONFIG)")

	rootCmd.AddCommand(fetchCmd(&cfg))
	rootCmd.AddCommand(serveCmd(&cfg))
	rootCmd.AddCommand(listCmd(&cfg))
	rootCmd.AddCommand(countCmd(&cfg))
	rootCmd.AddCommand(sourcesCmd(&cfg))
	rootCmd.AddCommand(domainsCmd())
	rootCmd.AddCommand(tokenCmd(&cfg))
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func fetchCmd(cfg *config.Config) *cobra.Command {
	var outputJSON, dryRun bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run one ingestion pass over every source",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := newApp(ctx, *cfg, dryRun)
			defer a.close()

			if !outputJSON {
				fmt.Printf("Fetching %d sources...\n\n", len(a.coordinator.Sources()))
			}
			run := a.coordinator.RunIngestion(ctx)

			if !dryRun {
				a.publish(ctx, run)
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(run)
			}
			fmt.Print(publisher.FormatReport(run))
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "print the run outcome as JSON")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "fetch into memory without touching the database or notifying")
	return cmd
}

func listCmd(cfg *config.Config) *cobra.Command {
	var (
		domain string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored posts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st := store.OpenOrDegrade(ctx, cfg.Database)
			defer st.Close()

			posts := st.ListByDomain(ctx, domain, limit)
			if len(posts) == 0 {
				fmt.Println("No posts.")
				return nil
			}
			for _, p := range posts {
				fmt.Printf("[%-10s] %s  (%s, %s)\n", p.Domain, p.Title, p.SourceID, p.PublishedAt.Local().Format("2006-01-02 15:04"))
				fmt.Printf("             %s\n", p.Link)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", catalog.All, "domain to list")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum posts")
	return cmd
}

func countCmd(cfg *config.Config) *cobra.Command {
	var domain string

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count stored posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st := store.OpenOrDegrade(ctx, cfg.Database)
			defer st.Close()

			fmt.Println(st.CountByDomain(ctx, domain))
			return nil
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", catalog.All, "domain to count")
	return cmd
}

func sourcesCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Show the feed catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tENDPOINT")
			for _, s := range cfg.Catalog() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.DisplayName(), s.Endpoint)
			}
			return w.Flush()
		},
	}
}

func domainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "domains",
		Short: "Show the article domains",
		Run: func(cmd *cobra.Command, args []string) {
			for _, d := range catalog.Domains {
				fmt.Printf("%s %-11s %s\n", d.Icon, d.ID, d.Name)
			}
		},
	}
}

func tokenCmd(cfg *config.Config) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for GET /api/fetch",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := api.GenerateToken(cfg.API.FetchSecret, ttl)
			if err != nil {
				return fmt.Errorf("generate token: %w (set FETCH_SECRET)", err)
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("robonews %s\n", version)
		},
	}
}
