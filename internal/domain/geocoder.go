package domain

import "context"

// Geocoder resolves a free-text place query to coordinates.
type Geocoder interface {
	// Geocode returns the best match for query, or ErrNoMatch.
	Geocode(ctx context.Context, query string) (GeoPoint, error)
}

// ClimateSource fetches monthly climate normals for a location.
type ClimateSource interface {
	Normals(ctx context.Context, point GeoPoint) (ClimateNormals, error)
}
