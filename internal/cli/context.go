package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veridoc/citepipe/internal/citectx"
	"github.com/veridoc/citepipe/internal/model"
)

var (
	ctxChapter int
	ctxSection int
	ctxJSON    bool
)

// contextCmd represents the context command
var contextCmd = &cobra.Command{
	Use:   "context <claims.json> <citations.json>",
	Short: "Render the citation context for one section",
	Long: `Context derives the per-section writing constraints from verified
citations: the closed set of claims the section may state, each bound
to its citation, plus the section's reference list.

Example:
  citepipe context claims.json citepipe-output/verified_citations.json --chapter 1 --section 2
  citepipe context claims.json citations.json --chapter 1 --section 2 --json`,
	Args: cobra.ExactArgs(2),
	RunE: runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)

	contextCmd.Flags().IntVar(&ctxChapter, "chapter", 0, "chapter number")
	contextCmd.Flags().IntVar(&ctxSection, "section", 0, "section number")
	contextCmd.Flags().BoolVar(&ctxJSON, "json", false, "emit the context as JSON instead of instruction text")
	_ = contextCmd.MarkFlagRequired("chapter")
	_ = contextCmd.MarkFlagRequired("section")
}

func runContext(cmd *cobra.Command, args []string) error {
	claims, err := LoadClaims(args[0])
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read citations file: %w", err)
	}
	var citations []model.VerifiedCitation
	if err := json.Unmarshal(data, &citations); err != nil {
		return fmt.Errorf("decode citations file: %w", err)
	}

	ctx := citectx.Build(ctxChapter, ctxSection, claims, citations)

	if ctxJSON {
		out, err := json.MarshalIndent(ctx, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal context: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Print(citectx.FormatInstructions(ctx))
	return nil
}
