package registry

import (
	"strings"

	"github.com/paris-open-data/budget-cli/internal/frtext"
)

// iconicPlaces are citywide Paris landmarks that are always worth keeping
// on the map, even when the project name looks like a generic subsidy.
// Entries are pre-normalized (lowercase, accents folded).
var iconicPlaces = []string{
	"philharmonie",
	"theatre de la ville",
	"opera bastille",
	"opera garnier",
	"tour eiffel",
	"notre dame",
	"hotel de ville",
	"palais de tokyo",
	"petit palais",
	"grand palais",
}

// IsIconic reports whether the name mentions an iconic Paris landmark.
// The name is normalized first, so accents and punctuation do not matter.
func IsIconic(name string) bool {
	norm := frtext.Normalize(name)
	for _, place := range iconicPlaces {
		if strings.Contains(norm, place) {
			return true
		}
	}
	return false
}
