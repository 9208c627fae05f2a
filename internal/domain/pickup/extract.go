package pickup

import (
	"regexp"
	"strconv"
	"strings"
)

// coordPairPattern matches the first pair of signed decimals in free text,
// e.g. "37.7749, -122.4194". Model replies and OCR output are fuzzy, so the
// pattern is deliberately permissive; bounds checking happens afterwards.
var coordPairPattern = regexp.MustCompile(`(-?\d{1,3}\.\d+)\s*,\s*(-?\d{1,3}\.\d+)`)

// ExtractCoordinatePair scans text for the first signed decimal pair and
// bounds-checks it against valid latitude/longitude ranges. It is a
// best-effort parser: callers must retain the raw text for diagnostics.
func ExtractCoordinatePair(text string) (GeoPoint, bool) {
	match := coordPairPattern.FindStringSubmatch(text)
	if match == nil {
		return GeoPoint{}, false
	}

	lat, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return GeoPoint{}, false
	}
	lng, err := strconv.ParseFloat(match[2], 64)
	if err != nil {
		return GeoPoint{}, false
	}

	point := GeoPoint{Lat: lat, Lng: lng}
	if !point.Valid() {
		return GeoPoint{}, false
	}
	return point, true
}

// AddressCandidateLines filters recognized text lines down to address-like
// strings: longer than five characters and containing at least one letter.
func AddressCandidateLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 5 {
			continue
		}
		if !containsLetter(line) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func containsLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
