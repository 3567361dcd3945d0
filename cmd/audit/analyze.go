package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/juparave/gapaudit/internal/app"
	"github.com/juparave/gapaudit/internal/config"
	"github.com/juparave/gapaudit/internal/domain"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		mode        string
		format      string
		outputDir   string
		strict      bool
		interactive bool
		noEmail     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <notice.pdf>",
		Short: "Extract findings from one enforcement notice and write a gap report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(func(cfg *config.Config) {
				if mode != "" {
					cfg.Loader.Mode = mode
				}
				if format != "" {
					cfg.Reports.Format = format
				}
				if outputDir != "" {
					cfg.Reports.OutputDir = outputDir
				}
				if strict {
					cfg.Extraction.Strictness = "strict"
				}
				if noEmail {
					cfg.Email.Enabled = false
				}
			})
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			ctx := cmd.Context()
			runner, err := newRunner(ctx, cfg, logger)
			if err != nil {
				return err
			}

			analysis, err := runner.Analyze(ctx, data, filepath.Base(args[0]))
			if err != nil {
				if raw := domain.RawOf(err); raw != "" {
					fmt.Fprintf(os.Stderr, "Raw Response:\n%s\n", raw)
				}
				return err
			}

			out := cmd.OutOrStdout()
			printAnalysis(cmd, analysis)

			if interactive && len(analysis.Findings) > 0 {
				if err := app.NewQuestionnaire(cmd.InOrStdin(), out).Run(runner.Session()); err != nil {
					return fmt.Errorf("questionnaire: %w", err)
				}
			}

			path, rpt, err := runner.WriteReport("")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nGap report saved to %s\n", path)

			return runner.Notify(ctx, rpt)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Loader mode: inline (local text) or remote (file upload)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Report format: csv or xlsx")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for the gap report")
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject the whole response when any finding is invalid")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Review each finding in the terminal before writing the report")
	cmd.Flags().BoolVar(&noEmail, "no-email", false, "Don't email the report")

	return cmd
}

func printAnalysis(cmd *cobra.Command, a *app.Analysis) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "AI-Generated Gap Questionnaire for %s (%d pages, model %s)\n", a.Source, a.PageCount, a.Model)
	if a.Truncated {
		fmt.Fprintln(out, "Note: the notice was truncated before analysis.")
	}
	for _, w := range a.Warnings {
		fmt.Fprintf(out, "Skipped: %s\n", w)
	}
	if len(a.Findings) == 0 {
		fmt.Fprintln(out, "No operational failures were identified.")
		return
	}
	for i, f := range a.Findings {
		fmt.Fprintf(out, "\n%d. %s\n   %s\n   Suggested fix: %s\n", i+1, f.Area, f.Description, f.RecommendedFix.Label())
	}
}
