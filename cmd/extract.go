package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paris-open-data/budget-cli/internal/budget"
	"github.com/paris-open-data/budget-cli/internal/pdftext"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract budget lines from the voted-budget PDFs",
	Long:  "Downloads the configured budget-vote PDFs, extracts the cross-presentation budget lines page by page, and writes one seed CSV per year.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		years, err := resolveYears(cmd, cfg.Sources.BudgetVote)
		if err != nil {
			return err
		}
		localPDF, _ := cmd.Flags().GetString("pdf")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if localPDF != "" && len(years) > 1 {
			return eris.New("extract: --pdf requires a single --year")
		}

		log := zap.L().With(zap.String("command", "extract"))
		dl := pdftext.NewDownloader(cfg.Paths.CacheDir)
		extractor := pdftext.NewPdfToText(cfg.Extract.PdfToTextPath)

		for _, year := range years {
			pdfPath := localPDF
			if pdfPath == "" {
				pdfPath, err = dl.Fetch(ctx, cfg.Sources.BudgetVote[year])
				if err != nil {
					log.Warn("skipping year, download failed",
						zap.Int("year", year), zap.Error(err))
					continue
				}
			}

			res, err := budget.ExtractDocument(ctx, extractor, pdfPath,
				filepath.Base(pdfPath), year, cfg.Extract.TotalTolerance)
			if err != nil {
				log.Warn("skipping year, extraction failed",
					zap.Int("year", year), zap.Error(err))
				continue
			}

			for _, w := range res.Warnings {
				log.Warn("extraction warning",
					zap.Int("year", year), zap.Int("page", w.Page), zap.String("warning", w.Message))
			}

			out := filepath.Join(cfg.Paths.SeedsDir, fmt.Sprintf("budget_vote_%d.csv", year))
			if dryRun {
				fmt.Printf("%d: %d lines (%.0f€), %d warnings (dry run, nothing written)\n",
					year, len(res.Lines), res.TotalAmount(), len(res.Warnings))
				continue
			}
			if err := budget.WriteSeedCSV(out, res.Lines); err != nil {
				return err
			}

			fmt.Printf("%d: %d lines (%.0f€), %d warnings -> %s\n",
				year, len(res.Lines), res.TotalAmount(), len(res.Warnings), out)
		}
		return nil
	},
}

func init() {
	addYearFlags(extractCmd)
	extractCmd.Flags().String("pdf", "", "extract from a local PDF instead of downloading")
	extractCmd.Flags().Bool("dry-run", false, "extract and report without writing the seed CSV")
	rootCmd.AddCommand(extractCmd)
}
