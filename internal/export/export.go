// Package export writes the published JSON artifacts: per-year merged
// investment files, the year index, and the map GeoJSON.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/paris-open-data/budget-cli/internal/investment"
)

const (
	// SourceLabel names the two data sources feeding the artifacts.
	SourceLabel = "Budget primitif Ville de Paris (annexe IL) + entrepôt grandes opérations"

	methodology = "Extraction des annexes PDF investissements localisés, " +
		"complétée par les grandes opérations de l'entrepôt (≥ 500k€, " +
		"localisables), dédoublonnée par similarité de noms."
)

// YearArtifact is the on-disk shape of one merged year.
type YearArtifact struct {
	Year        int                   `json:"year"`
	Source      string                `json:"source"`
	Methodology string                `json:"methodology"`
	GeneratedAt time.Time             `json:"generated_at"`
	Status      string                `json:"status"`
	Stats       investment.MergeStats `json:"stats"`
	Data        []investment.Project  `json:"data"`
}

// Index is the artifact consumed by the frontend year selector.
type Index struct {
	AvailableYears []int                         `json:"availableYears"`
	Source         string                        `json:"source"`
	LastUpdate     time.Time                     `json:"lastUpdate"`
	YearStats      map[int]investment.MergeStats `json:"yearStats"`
}

// WriteYear writes investissements_complet_{year}.json into dir and
// returns the file path.
func WriteYear(dir string, res investment.MergeResult) (string, error) {
	art := YearArtifact{
		Year:        res.Year,
		Source:      SourceLabel,
		Methodology: methodology,
		GeneratedAt: time.Now().UTC(),
		Status:      res.Status,
		Stats:       res.Stats,
		Data:        res.Projects,
	}
	if art.Data == nil {
		art.Data = []investment.Project{}
	}

	path := filepath.Join(dir, fmt.Sprintf("investissements_complet_%d.json", res.Year))
	if err := writeJSON(path, art); err != nil {
		return "", err
	}

	zap.L().Info("wrote year artifact",
		zap.Int("year", res.Year),
		zap.Int("projects", len(art.Data)),
		zap.String("path", path))
	return path, nil
}

// WriteIndex writes investissements_complet_index.json covering the
// given merged years. Years with no PDF data are listed in the stats
// but excluded from availableYears.
func WriteIndex(dir string, results []investment.MergeResult) (string, error) {
	idx := Index{
		Source:     SourceLabel,
		LastUpdate: time.Now().UTC(),
		YearStats:  make(map[int]investment.MergeStats, len(results)),
	}
	for _, r := range results {
		idx.YearStats[r.Year] = r.Stats
		if r.Status == investment.StatusMerged {
			idx.AvailableYears = append(idx.AvailableYears, r.Year)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(idx.AvailableYears)))

	path := filepath.Join(dir, "investissements_complet_index.json")
	if err := writeJSON(path, idx); err != nil {
		return "", err
	}
	return path, nil
}

var yearArtifactRe = regexp.MustCompile(`^investissements_complet_(\d{4})\.json$`)

// ListYears returns, in ascending order, every year with an artifact in dir.
// A missing directory is an empty publication, not an error.
func ListYears(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "export: list %s", dir)
	}

	var years []int
	for _, e := range entries {
		m := yearArtifactRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		year, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		years = append(years, year)
	}
	sort.Ints(years)
	return years, nil
}

// RefreshIndex rebuilds the index from every year artifact present in dir.
// Commands call this instead of WriteIndex directly so a single-year run
// never drops previously published years from the frontend.
func RefreshIndex(dir string) (string, error) {
	years, err := ListYears(dir)
	if err != nil {
		return "", err
	}

	results := make([]investment.MergeResult, 0, len(years))
	for _, year := range years {
		art, err := ReadYear(dir, year)
		if err != nil {
			return "", err
		}
		results = append(results, investment.MergeResult{
			Year:     art.Year,
			Status:   art.Status,
			Projects: art.Data,
			Stats:    art.Stats,
		})
	}
	return WriteIndex(dir, results)
}

// ReadYear loads a previously written year artifact.
func ReadYear(dir string, year int) (*YearArtifact, error) {
	path := filepath.Join(dir, fmt.Sprintf("investissements_complet_%d.json", year))
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: read %s", path)
	}

	var art YearArtifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, eris.Wrapf(err, "export: parse %s", path)
	}
	return &art, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", path)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "export: marshal %s", path)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}
