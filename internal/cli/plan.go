package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/credpub/credpub/internal/pipeline"
)

var planOut string

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan <location...>",
	Short: "Process source documents and print the publication plan without publishing",
	Long: `Plan runs the full normalization pass - identifier
canonicalization, reference resolution, graph extraction and
publication ordering - but stops short of submitting anything.
The assembled graphs and their order are written as JSON.

Example:
  credpub plan docs/org.json
  credpub plan https://example.edu/credentials.json --out plan.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	addRunFlags(planCmd)
	planCmd.Flags().StringVar(&planOut, "out", "", "write the plan to a file instead of stdout")
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
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

	report, runErr := p.Run(ctx, args, false)
	if runErr != nil {
		return fmt.Errorf("plan failed: %w", runErr)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("render plan: %w", err)
	}
	if planOut != "" {
		if err := os.WriteFile(planOut, out, 0o644); err != nil {
			return fmt.Errorf("write plan: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote plan: %s\n", planOut)
		}
	} else {
		fmt.Println(string(out))
	}

	printReport(report)
	return nil
}
