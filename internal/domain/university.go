package domain

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNoMatch is returned by a Geocoder when a query resolves to no place.
	ErrNoMatch = errors.New("no geocoding match")

	// ErrClimateUnavailable is returned when the climate API answers with a
	// non-200 status or a body that cannot be used.
	ErrClimateUnavailable = errors.New("climate normals unavailable")
)

// entryNamespace scopes university IDs so they never collide with UUIDs
// generated elsewhere.
var entryNamespace = uuid.MustParse("6f1d6c58-4b8e-5b8c-9a52-3c2f0e7f4a11")

// RankedEntry is one university as scraped from the ranking page.
type RankedEntry struct {
	ID    string `json:"id"`
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Place string `json:"place"`
}

// NewEntryID derives the stable ID of a university from its name.
func NewEntryID(name string) string {
	return uuid.NewSHA1(entryNamespace, []byte(name)).String()
}

// GeoPoint is a WGS-84 latitude/longitude pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeocodeQuery builds the free-text query for a place, e.g.
// ("Cambridge, Massachusetts", "USA") -> "Cambridge, Massachusetts,USA".
func GeocodeQuery(place, countrySuffix string) string {
	if countrySuffix == "" {
		return place
	}
	return place + "," + countrySuffix
}

// MonthlyNormal holds the climate normals of one calendar month.
type MonthlyNormal struct {
	Month   int     `json:"month"`
	AvgTemp float64 `json:"temp"`
	Precip  float64 `json:"precip"`
	Snow    float64 `json:"snow"`
}

// ClimateNormals is the set of monthly normals returned for one location.
// Records are not assumed to be ordered or complete.
type ClimateNormals struct {
	Point  GeoPoint        `json:"point"`
	Months []MonthlyNormal `json:"months"`
}

// CityClimate ties a ranked university to its resolved location and normals.
type CityClimate struct {
	Entry   RankedEntry
	Point   GeoPoint
	Normals ClimateNormals
}

// SelectTop returns the first n entries in their original order. The slice
// is returned unchanged when it already holds n or fewer entries.
func SelectTop(entries []RankedEntry, n int) []RankedEntry {
	if n < 0 {
		n = 0
	}
	if len(entries) <= n {
		return entries
	}
	return entries[:n]
}
