package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/paris-open-data/budget-cli/internal/export"
	"github.com/paris-open-data/budget-cli/internal/geocode"
	"github.com/paris-open-data/budget-cli/internal/investment"
	"github.com/paris-open-data/budget-cli/internal/llm"
	"github.com/paris-open-data/budget-cli/internal/registry"
	"github.com/paris-open-data/budget-cli/internal/store"
)

// geocodeWorkers bounds concurrent cascade lookups; the BAN limiter
// still caps outbound request rate.
const geocodeWorkers = 4

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Geocode merged investment projects",
	Long:  "Resolves each merged project to coordinates through the known-place registry, the BAN address API, LLM address extraction, and arrondissement centroids, then rewrites the year artifacts and the map GeoJSON.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		years, err := resolveYears(cmd, cfg.Sources.Investments)
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		log := zap.L().With(zap.String("command", "geocode"))

		places := registry.New()
		seedCSV := filepath.Join(cfg.Paths.SeedsDir, "lieux_connus.csv")
		if err := places.LoadCSV(seedCSV); err != nil {
			log.Warn("known-place seed unavailable", zap.String("path", seedCSV), zap.Error(err))
		}
		overrideYAML := filepath.Join(cfg.Paths.SeedsDir, "lieux_connus.yaml")
		if _, statErr := os.Stat(overrideYAML); statErr == nil {
			if err := places.LoadYAML(overrideYAML); err != nil {
				return err
			}
		}

		cache, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer cache.Close()
		if err := cache.Migrate(ctx); err != nil {
			return err
		}

		ban := geocode.NewBANClient(
			geocode.WithBaseURL(cfg.BAN.BaseURL),
			geocode.WithRateLimit(cfg.BAN.RPS),
		)

		opts := []geocode.CascadeOption{
			geocode.WithCache(cache),
			geocode.WithScoreFloors(cfg.BAN.AddressScoreFloor, cfg.BAN.PlaceScoreFloor),
			geocode.WithMinConfidence(cfg.Anthropic.MinConfidence),
		}
		if cfg.Anthropic.Key != "" {
			extractor := llm.NewExtractor(llm.NewClient(cfg.Anthropic.Key),
				cfg.Anthropic.Model, cfg.Anthropic.RPS)
			opts = append(opts, geocode.WithAddressExtractor(extractor))
		} else {
			log.Warn("no anthropic key configured, llm tier disabled")
		}
		cascader := geocode.NewCascader(places, ban, opts...)

		for _, year := range years {
			art, err := export.ReadYear(cfg.Paths.DataDir, year)
			if err != nil {
				log.Warn("skipping year, artifact missing",
					zap.Int("year", year), zap.Error(err))
				continue
			}

			var resolved atomic.Int64
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(geocodeWorkers)
			for i := range art.Data {
				p := &art.Data[i]
				if p.GeoTier != "" && !force {
					resolved.Add(1)
					continue
				}

				g.Go(func() error {
					res, err := cascader.Geocode(gctx, p.NomProjet, p.Arrondissement)
					if err != nil {
						log.Warn("geocode failed",
							zap.String("project", p.NomProjet), zap.Error(err))
						return nil
					}

					p.Lat = res.Lat
					p.Lon = res.Lon
					p.GeoScore = res.Score
					p.GeoTier = string(res.Tier)
					p.GeoLabel = res.Label
					if res.Matched() {
						resolved.Add(1)
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
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

			fmt.Printf("%d: %d/%d projects resolved\n", year, resolved.Load(), len(art.Data))
		}

		geoPath := filepath.Join(cfg.Paths.DataDir, "investissements.geojson")
		return export.RefreshGeoJSON(cfg.Paths.DataDir, geoPath)
	},
}

func init() {
	addYearFlags(geocodeCmd)
	geocodeCmd.Flags().Bool("force", false, "re-geocode projects that already have a tier")
	rootCmd.AddCommand(geocodeCmd)
}
