// Package registry holds the reference data used during geocoding: the
// known-places seed, arrondissement centroids, and the list of iconic
// citywide venues.
package registry

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// KnownPlace is a municipal facility with hand-curated coordinates.
type KnownPlace struct {
	Pattern        string
	Lat            float64
	Lon            float64
	Adresse        string
	Arrondissement int
}

// Registry matches project names against known-place patterns. Patterns
// are tried in load order and the first substring hit wins.
type Registry struct {
	order  []string
	places map[string]KnownPlace
}

func New() *Registry {
	return &Registry{places: make(map[string]KnownPlace)}
}

// LoadCSV reads a seed file with header columns pattern_match, latitude,
// longitude, adresse, arrondissement. The pattern_match column may hold
// several pipe-separated patterns sharing one location.
func (r *Registry) LoadCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "registry: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return eris.Wrapf(err, "registry: read header %s", path)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"pattern_match", "latitude", "longitude"} {
		if _, ok := col[required]; !ok {
			return eris.Errorf("registry: %s missing column %q", path, required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var loaded int
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return eris.Wrapf(err, "registry: read %s", path)
		}

		lat, errLat := strconv.ParseFloat(field(row, "latitude"), 64)
		lon, errLon := strconv.ParseFloat(field(row, "longitude"), 64)
		if errLat != nil || errLon != nil {
			zap.L().Warn("registry: skipping row without coordinates",
				zap.String("pattern", field(row, "pattern_match")))
			continue
		}
		arr := 0
		if v := field(row, "arrondissement"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				arr = n
			}
		}

		for _, pattern := range strings.Split(field(row, "pattern_match"), "|") {
			pattern = strings.ToUpper(strings.TrimSpace(pattern))
			if pattern == "" {
				continue
			}
			r.add(KnownPlace{
				Pattern:        pattern,
				Lat:            lat,
				Lon:            lon,
				Adresse:        field(row, "adresse"),
				Arrondissement: arr,
			})
			loaded++
		}
	}
	zap.L().Info("registry: loaded known places", zap.String("path", path), zap.Int("patterns", loaded))
	return nil
}

type yamlPlace struct {
	Pattern        string  `yaml:"pattern"`
	Latitude       float64 `yaml:"latitude"`
	Longitude      float64 `yaml:"longitude"`
	Adresse        string  `yaml:"adresse"`
	Arrondissement int     `yaml:"arrondissement"`
}

type yamlOverrides struct {
	Lieux []yamlPlace `yaml:"lieux"`
}

// LoadYAML applies local overrides on top of the CSV seed. An override
// with a pattern already present replaces it in place.
func (r *Registry) LoadYAML(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "registry: read %s", path)
	}
	var overrides yamlOverrides
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return eris.Wrapf(err, "registry: parse %s", path)
	}
	for _, p := range overrides.Lieux {
		pattern := strings.ToUpper(strings.TrimSpace(p.Pattern))
		if pattern == "" {
			continue
		}
		r.add(KnownPlace{
			Pattern:        pattern,
			Lat:            p.Latitude,
			Lon:            p.Longitude,
			Adresse:        p.Adresse,
			Arrondissement: p.Arrondissement,
		})
	}
	return nil
}

func (r *Registry) add(p KnownPlace) {
	if _, exists := r.places[p.Pattern]; !exists {
		r.order = append(r.order, p.Pattern)
	}
	r.places[p.Pattern] = p
}

// Match returns the first known place whose pattern appears in the text.
func (r *Registry) Match(text string) (KnownPlace, bool) {
	upper := strings.ToUpper(text)
	for _, pattern := range r.order {
		if strings.Contains(upper, pattern) {
			return r.places[pattern], true
		}
	}
	return KnownPlace{}, false
}

// Len reports the number of loaded patterns.
func (r *Registry) Len() int { return len(r.order) }
