package frtext

import (
	"regexp"
	"strings"
)

// AddressKind distinguishes how precise an extracted address is.
type AddressKind string

const (
	// AddressNumbered is a street address with a house number.
	AddressNumbered AddressKind = "numero"
	// AddressStreet is a bare street name without a number.
	AddressStreet AddressKind = "rue"
)

// Street-address patterns tried in order: numeric range ("12/14 rue ..."),
// numbered, then bare street name. Project names terminate address fragments
// with "(", "-", "," or end of string.
var addressNumberedRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d{1,4}/\d{1,4})\s+(rue|avenue|av|bd|boulevard|place)\s+([A-Za-zÀ-ÿ'\-\s]+?)(?:\s*\(|\s*-|\s*,|$)`),
	regexp.MustCompile(`(?i)(\d{1,4}(?:\s?(?:bis|ter))?)\s+(rue|avenue|av|bd|boulevard|place|passage|impasse|quai|allée|square|villa|cité|chemin)\s+([A-Za-zÀ-ÿ'\-\s]+?)(?:\s*\(|\s*-|\s*,|$)`),
}

var addressStreetRe = regexp.MustCompile(`(?i)\b(rue|avenue|av|bd|boulevard|place|passage|quai)\s+(d[eu]\s+|du\s+|de\s+la\s+|des\s+)?([A-Za-zÀ-ÿ'\-\s]+?)(?:\s*\(|\s*-|\s*,|$)`)

// PlaceRe families match facility-type phrases ("piscine X", "gymnase Y").
var placeRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(piscine|gymnase|stade|école|college|lycée|crèche|mairie|bibliothèque|médiathèque)\s+([A-Za-zÀ-ÿ'\-\s]+?)(?:\s*\(|\s*-|\s*,|$)`),
	regexp.MustCompile(`(?i)(centre sportif|centre d'animation|maison de la culture)\s+([A-Za-zÀ-ÿ'\-\s]+?)(?:\s*\(|\s*-|\s*,|$)`),
}

var spaceRun = regexp.MustCompile(`\s+`)

// ExtractAddress pulls a street-address-shaped substring from a project
// name. Numbered forms win over bare street names. Returns the address, its
// kind, and whether anything matched.
func ExtractAddress(text string) (string, AddressKind, bool) {
	for _, re := range addressNumberedRes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		street := strings.TrimSpace(spaceRun.ReplaceAllString(m[3], " "))
		if len(street) > 2 {
			return m[1] + " " + m[2] + " " + street, AddressNumbered, true
		}
	}

	if m := addressStreetRe.FindStringSubmatch(text); m != nil {
		street := strings.TrimSpace(spaceRun.ReplaceAllString(m[3], " "))
		if len(street) > 2 {
			return m[1] + " " + m[2] + street, AddressStreet, true
		}
	}

	return "", "", false
}

// ExtractPlace pulls a facility-type phrase ("piscine Keller") from a
// project name. Returns ok=false when nothing facility-shaped is present.
func ExtractPlace(text string) (string, bool) {
	for _, re := range placeRes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(spaceRun.ReplaceAllString(m[2], " "))
		if len(name) > 2 {
			return m[1] + " " + name, true
		}
	}
	return "", false
}
