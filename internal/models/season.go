package models

import "strings"

// Season is the canonical in-game season identifier.
type Season string

// Canonical seasons.
const (
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
	Winter Season = "winter"
)

// Seasons lists the canonical seasons in calendar order.
var Seasons = []Season{Spring, Summer, Autumn, Winter}

var localizedSeasons = map[string]Season{
	"весна": Spring,
	"лето":  Summer,
	"осень": Autumn,
	"зима":  Winter,
	"fall":  Autumn,
}

var seasonNames = map[Season]string{
	Spring: "весна",
	Summer: "лето",
	Autumn: "осень",
	Winter: "зима",
}

// NormalizeSeason resolves a canonical or localized season name.
// The second result is false for unknown names.
func NormalizeSeason(raw string) (Season, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if season, ok := localizedSeasons[s]; ok {
		return season, true
	}

	switch Season(s) {
	case Spring, Summer, Autumn, Winter:
		return Season(s), true
	}

	return Season(s), false
}

// Localized returns the localized display name of the season.
func (s Season) Localized() string {
	if name, ok := seasonNames[s]; ok {
		return name
	}

	return string(s)
}
