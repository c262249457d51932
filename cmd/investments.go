package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paris-open-data/budget-cli/internal/investment"
	"github.com/paris-open-data/budget-cli/internal/pdftext"
)

var investmentsCmd = &cobra.Command{
	Use:   "investments",
	Short: "Extract localized investments from the annex PDFs",
	Long:  "Downloads the configured IL annexes, finds the arrondissement pages, extracts per-project amounts, and stores the raw result for the merge step.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		years, err := resolveYears(cmd, cfg.Sources.Investments)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		log := zap.L().With(zap.String("command", "investments"))
		dl := pdftext.NewDownloader(cfg.Paths.CacheDir)
		extractor := pdftext.NewPdfToText(cfg.Extract.PdfToTextPath)

		for _, year := range years {
			pdfPath, err := dl.Fetch(ctx, cfg.Sources.Investments[year])
			if err != nil {
				log.Warn("skipping year, download failed",
					zap.Int("year", year), zap.Error(err))
				continue
			}
			pdfName := filepath.Base(pdfPath)

			pages, err := extractor.Pages(ctx, pdfPath)
			if err != nil {
				log.Warn("skipping year, pdftotext failed",
					zap.Int("year", year), zap.Error(err))
				continue
			}

			var projects []investment.Project
			var warnings int
			for _, idx := range investment.IdentifyILPages(pages) {
				res := investment.ExtractPage(pages[idx], idx+1, year, pdfName)
				projects = append(projects, res.Projects...)
				warnings += len(res.Warnings)
				for _, w := range res.Warnings {
					log.Warn("page warning",
						zap.Int("year", year), zap.Int("page", res.PageNum), zap.String("warning", w))
				}
			}

			var total float64
			for _, p := range projects {
				total += p.Montant
			}

			if dryRun {
				fmt.Printf("%d: %d projects (%.0f€), %d warnings (dry run, nothing written)\n",
					year, len(projects), total, warnings)
				continue
			}
			if err := writePDFProjects(cfg.Paths.DataDir, year, projects); err != nil {
				return err
			}
			fmt.Printf("%d: %d projects (%.0f€), %d warnings -> %s\n",
				year, len(projects), total, warnings, pdfProjectsPath(cfg.Paths.DataDir, year))
		}
		return nil
	},
}

func init() {
	addYearFlags(investmentsCmd)
	investmentsCmd.Flags().Bool("dry-run", false, "extract and report without writing the project JSON")
	rootCmd.AddCommand(investmentsCmd)
}
