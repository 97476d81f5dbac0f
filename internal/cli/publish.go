package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/credpub/credpub/internal/model"
	"github.com/credpub/credpub/internal/pipeline"
	"github.com/credpub/credpub/internal/schema"
)

var (
	registryBase  string
	registryCtx   string
	orgCTID       string
	vocabPath     string
	timeout       time.Duration
	userAgent     string
	maxBytes      int64
	noCache       bool
	respectRobots bool
	ratePerHost   float64
)

// publishCmd represents the publish command
var publishCmd = &cobra.Command{
	Use:   "publish <location...>",
	Short: "Process source documents and publish their graphs to the registry",
	Long: `Publish fetches each source location (URL or local file), resolves
every entity it contains, and submits one graph per independently
publishable entity to the registry's class-specific endpoints.

Resolution errors are reported and skip the offending entity or
reference; the first rejected submission halts the remaining ones.

Example:
  credpub publish https://example.edu/credentials.json
  credpub publish docs/org.json docs/badges.json --registry https://sandbox.credentialengineregistry.org`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	addRunFlags(publishCmd)
}

// addRunFlags registers the flags shared by publish and plan
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&registryBase, "registry", "", "registry base URL (default from config)")
	cmd.Flags().StringVar(&registryCtx, "context", "", "required vocabulary context URL (default from config)")
	cmd.Flags().StringVar(&orgCTID, "org", "", "publishing organization ctid")
	cmd.Flags().StringVar(&vocabPath, "vocabulary", "", "vocabulary description file (default: built-in)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall run timeout")
	cmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (default from config)")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes to read")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable document cache (force fresh fetches)")
	cmd.Flags().BoolVar(&respectRobots, "respect-robots", false, "honor robots.txt on non-registry hosts")
	cmd.Flags().Float64Var(&ratePerHost, "rate", 0, "max fetches per second per host (0 = config default)")
}

// buildConfig merges flags over the viper-resolved configuration
func buildConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("resolve configuration: %w", err)
	}

	if registryBase != "" {
		cfg.Registry.BaseURL = registryBase
	}
	if registryCtx != "" {
		cfg.Registry.Context = registryCtx
	}
	if orgCTID != "" {
		cfg.Registry.OrganizationCTID = orgCTID
	}
	if key := os.Getenv("CREDPUB_API_KEY"); key != "" {
		cfg.Registry.APIKey = key
	}
	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if cmd.Flags().Changed("timeout") {
		cfg.HTTP.Timeout = timeout
	}
	if cmd.Flags().Changed("max-bytes") {
		cfg.HTTP.MaxBodyBytes = maxBytes
	}
	cfg.HTTP.RespectRobots = respectRobots || cfg.HTTP.RespectRobots
	if ratePerHost > 0 {
		cfg.HTTP.RatePerHost = ratePerHost
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	cfg.Output.Verbose = verbose

	return cfg, nil
}

// loadSchema builds the vocabulary index, from file when --vocabulary is
// given and from the built-in merged vocabulary otherwise
func loadSchema() (*schema.Index, error) {
	if vocabPath != "" {
		return schema.LoadFile(vocabPath)
	}
	return schema.Default()
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Registry.OrganizationCTID == "" {
		return fmt.Errorf("no publishing organization: set --org or registry.organization_ctid")
	}
	if cfg.Registry.APIKey == "" {
		return fmt.Errorf("no API key: set CREDPUB_API_KEY")
	}

	idx, err := loadSchema()
	if err != nil {
		return fmt.Errorf("load vocabulary: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	p := pipeline.New(cfg, idx)
	if verbose {
		p.SetProgress(func(format string, a ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", a...)
		})
	}

	report, runErr := p.Run(ctx, args, true)
	printReport(report)
	if runErr != nil {
		return fmt.Errorf("publish halted: %w", runErr)
	}
	return nil
}

// printReport summarizes a run on stderr
func printReport(report *model.RunReport) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "Processed: %d entities from %d sources\n", len(report.Processed), len(report.Sources))
	if len(report.Order) > 0 {
		fmt.Fprintf(os.Stderr, "Order:     %d graphs\n", len(report.Order))
	}
	if len(report.Published) > 0 {
		fmt.Fprintf(os.Stderr, "Published: %d graphs\n", len(report.Published))
	}
	for _, msg := range report.Errors {
		fmt.Fprintf(os.Stderr, "  ! %s\n", msg)
	}
}
