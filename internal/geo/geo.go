// Package geo provides the geospatial primitives used by the route engine.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusMeters is the mean Earth radius used for all distance math.
// orb/geo uses the WGS84 equatorial radius, which yields different
// figures than the 6,371 km mean radius the engine's thresholds assume.
const EarthRadiusMeters = 6371000

// Location is an immutable point reference passed by value.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Name    string  `json:"name,omitempty"`
	Address string  `json:"address,omitempty"`
}

// Point converts the location to an orb point (lng, lat order).
func (l Location) Point() orb.Point {
	return orb.Point{l.Lng, l.Lat}
}

// Valid reports whether the coordinates are within WGS84 ranges.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// Distance returns the haversine great-circle distance between a and b in meters.
func Distance(a, b Location) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	sinDLat := math.Sin(dLat / 2)
	sinDLng := math.Sin(dLng / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLng*sinDLng
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Destination projects a point at the given bearing (degrees from north)
// and distance (meters) from origin on a spherical earth.
func Destination(origin Location, bearingDeg, distanceMeters float64) Location {
	delta := distanceMeters / EarthRadiusMeters
	theta := toRadians(bearingDeg)
	lat1 := toRadians(origin.Lat)
	lng1 := toRadians(origin.Lng)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) +
		math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lng2 := lng1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	return Location{
		Lat: toDegrees(lat2),
		Lng: normalizeLng(toDegrees(lng2)),
	}
}

// BoundingBox is a lat/lng rectangle backed by an orb.Bound.
type BoundingBox struct {
	bound orb.Bound
}

// NewBoundingBox creates a bounding box from its corner coordinates.
func NewBoundingBox(minLat, minLng, maxLat, maxLng float64) BoundingBox {
	return BoundingBox{bound: orb.Bound{
		Min: orb.Point{minLng, minLat},
		Max: orb.Point{maxLng, maxLat},
	}}
}

// Contains reports whether the point lies inside the box (edges inclusive).
func (b BoundingBox) Contains(lat, lng float64) bool {
	return b.bound.Contains(orb.Point{lng, lat})
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() Location {
	c := b.bound.Center()
	return Location{Lat: c.Lat(), Lng: c.Lon()}
}

// Around returns the box spanning radiusMeters in every direction from center.
func Around(center Location, radiusMeters float64) BoundingBox {
	dLat := toDegrees(radiusMeters / EarthRadiusMeters)
	cosLat := math.Cos(toRadians(center.Lat))
	dLng := dLat
	if cosLat > 1e-9 {
		dLng = dLat / cosLat
	}
	return NewBoundingBox(center.Lat-dLat, center.Lng-dLng, center.Lat+dLat, center.Lng+dLng)
}

// Min returns the south-west corner.
func (b BoundingBox) Min() Location {
	return Location{Lat: b.bound.Min.Lat(), Lng: b.bound.Min.Lon()}
}

// Max returns the north-east corner.
func (b BoundingBox) Max() Location {
	return Location{Lat: b.bound.Max.Lat(), Lng: b.bound.Max.Lon()}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func normalizeLng(lng float64) float64 {
	return math.Mod(lng+540, 360) - 180
}
