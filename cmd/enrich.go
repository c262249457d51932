package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paris-open-data/budget-cli/internal/export"
	"github.com/paris-open-data/budget-cli/internal/geocode"
	"github.com/paris-open-data/budget-cli/internal/investment"
	"github.com/paris-open-data/budget-cli/internal/llm"
	"github.com/paris-open-data/budget-cli/internal/store"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "LLM enrichment of merged projects",
}

var enrichThemesCmd = &cobra.Command{
	Use:   "themes",
	Short: "Classify beneficiary themes",
	Long:  "Collects the unclassified beneficiary names across every published year, assigns each a theme from the fixed taxonomy via batched LLM classification, and feeds the theme cache that `cache export` turns into a seed.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Anthropic.Key == "" {
			return eris.New("enrich: anthropic.key is required")
		}
		limit, _ := cmd.Flags().GetInt("limit")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		log := zap.L().With(zap.String("command", "enrich.themes"))

		years, err := export.ListYears(cfg.Paths.DataDir)
		if err != nil {
			return err
		}

		arts := make(map[int]*export.YearArtifact, len(years))
		var names []string
		for _, year := range years {
			art, err := export.ReadYear(cfg.Paths.DataDir, year)
			if err != nil {
				log.Warn("skipping year, artifact unreadable",
					zap.Int("year", year), zap.Error(err))
				continue
			}
			arts[year] = art
			for _, p := range art.Data {
				if p.Thematique == "" {
					names = append(names, p.NomProjet)
				}
			}
		}

		names = themeCandidates(names, limit)
		if len(names) == 0 {
			fmt.Println("nothing to classify")
			return nil
		}
		if dryRun {
			fmt.Printf("would classify %d beneficiaries (dry run, no LLM calls)\n", len(names))
			return nil
		}

		cache, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer cache.Close()
		if err := cache.Migrate(ctx); err != nil {
			return err
		}

		classifier := llm.NewClassifier(llm.NewClient(cfg.Anthropic.Key), cache,
			cfg.Anthropic.Model, cfg.Anthropic.BatchSize, cfg.Anthropic.RPS)

		classifications, err := classifier.Classify(ctx, names)
		if err != nil {
			return err
		}

		byName := make(map[string]llm.Classification, len(classifications))
		for _, c := range classifications {
			byName[c.Beneficiary] = c
		}

		for _, year := range years {
			art, ok := arts[year]
			if !ok {
				continue
			}

			var updated int
			for i := range art.Data {
				p := &art.Data[i]
				if p.Thematique != "" {
					continue
				}
				if c, ok := byName[p.NomProjet]; ok {
					p.Thematique = c.Theme
					updated++
				}
			}
			if updated == 0 {
				continue
			}

			out := investment.MergeResult{
				Year:     art.Year,
				Status:   art.Status,
				Projects: art.Data,
				Stats:    art.Stats,
			}
			if _, err := export.WriteYear(cfg.Paths.DataDir, out); err != nil {
				return err
			}
			fmt.Printf("%d: %d projects classified\n", year, updated)
		}
		return nil
	},
}

// themeCandidates dedupes beneficiary names, keeps first-seen order, and
// truncates to limit when limit > 0.
func themeCandidates(names []string, limit int) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

var enrichAddressesCmd = &cobra.Command{
	Use:   "addresses",
	Short: "Recover addresses for poorly geocoded projects",
	Long:  "Asks the LLM for a street address on projects the cascade left at centroid precision or unresolved, double-checks each candidate against the BAN address API, and keeps only validated hits.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		years, err := resolveYears(cmd, cfg.Sources.Investments)
		if err != nil {
			return err
		}
		if cfg.Anthropic.Key == "" {
			return eris.New("enrich: anthropic.key is required")
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		log := zap.L().With(zap.String("command", "enrich.addresses"))

		extractor := llm.NewExtractor(llm.NewClient(cfg.Anthropic.Key),
			cfg.Anthropic.Model, cfg.Anthropic.RPS)
		ban := geocode.NewBANClient(
			geocode.WithBaseURL(cfg.BAN.BaseURL),
			geocode.WithRateLimit(cfg.BAN.RPS),
		)

		for _, year := range years {
			art, err := export.ReadYear(cfg.Paths.DataDir, year)
			if err != nil {
				log.Warn("skipping year, artifact missing",
					zap.Int("year", year), zap.Error(err))
				continue
			}

			var candidates, recovered int
			for i := range art.Data {
				p := &art.Data[i]
				if p.GeoTier != string(geocode.TierCentroid) &&
					p.GeoTier != string(geocode.TierNone) && p.GeoTier != "" {
					continue
				}
				candidates++

				addr, confidence, ok, err := extractor.ExtractAddress(ctx, p.NomProjet, p.Arrondissement)
				if err != nil {
					log.Warn("address extraction failed",
						zap.String("project", p.NomProjet), zap.Error(err))
					continue
				}
				if !ok || confidence < cfg.Anthropic.MinConfidence {
					continue
				}

				hit, err := ban.Search(ctx, addr, p.Arrondissement)
				if err != nil {
					log.Warn("ban validation failed",
						zap.String("address", addr), zap.Error(err))
					continue
				}
				if hit == nil || hit.Score < cfg.BAN.AddressScoreFloor {
					continue
				}

				score := confidence
				if hit.Score < score {
					score = hit.Score
				}

				recovered++
				if dryRun {
					fmt.Printf("%d: would place %q at %s (score %.2f)\n",
						year, p.NomProjet, hit.Label, score)
					continue
				}
				p.Lat = hit.Lat
				p.Lon = hit.Lon
				p.GeoScore = score
				p.GeoTier = string(geocode.TierLLMBan)
				p.GeoLabel = hit.Label
			}

			if !dryRun {
				out := investment.MergeResult{
					Year:     art.Year,
					Status:   art.Status,
					Projects: art.Data,
					Stats:    art.Stats,
				}
				if _, err := export.WriteYear(cfg.Paths.DataDir, out); err != nil {
					return err
				}
			}

			fmt.Printf("%d: %d/%d addresses recovered\n", year, recovered, candidates)
		}
		return nil
	},
}

func init() {
	enrichThemesCmd.Flags().Int("limit", 0, "classify at most N new beneficiaries (0 = no limit)")
	enrichThemesCmd.Flags().Bool("dry-run", false, "report candidate beneficiaries without calling the LLM")
	enrichCmd.AddCommand(enrichThemesCmd)
	addYearFlags(enrichAddressesCmd)
	enrichAddressesCmd.Flags().Bool("dry-run", false, "report candidate placements without writing the artifacts")
	enrichCmd.AddCommand(enrichAddressesCmd)
	rootCmd.AddCommand(enrichCmd)
}
