package listings

import (
	"context"
	"fmt"
	"unicode/utf16"

	"github.com/JaimeStill/ineed/internal/categories"
	"github.com/JaimeStill/ineed/pkg/query"
	"github.com/JaimeStill/ineed/pkg/repository"
)

// Base point for generated map pins (Santa Maria, RS).
const (
	baseLat = -29.6849
	baseLng = -53.8068
)

// FeatureCollection is a GeoJSON collection of listing pins.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON point feature.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   Point             `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// Point holds GeoJSON coordinates ordered [longitude, latitude].
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// FeatureProperties carries what the map needs to label and color a pin.
type FeatureProperties struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	CategoryType string `json:"categoryType"`
}

func (r *repo) MapData(ctx context.Context) (*FeatureCollection, error) {
	q, args := query.
		NewBuilder(projection, feedOrder...).
		WhereEquals("Status", StatusPublished).
		Build()

	rows, err := repository.QueryMany(ctx, r.db, q, args, scanListing)
	if err != nil {
		return nil, fmt.Errorf("query map data: %w", err)
	}

	fc := NewFeatureCollection(rows)
	return &fc, nil
}

// NewFeatureCollection projects listings onto map pins. Pins are placed
// around the base point at an offset derived from the listing id, so the
// same listing always lands on the same spot.
func NewFeatureCollection(rows []Listing) FeatureCollection {
	features := make([]Feature, 0, len(rows))

	for _, l := range rows {
		id := l.ID.String()
		lat, lng := pseudoLocation(id)

		props := FeatureProperties{
			ID:           id,
			Title:        l.Title,
			Category:     "default",
			CategoryType: string(categories.TypeProduct),
		}
		if c, ok := categories.Find(l.CategoryID); ok {
			props.Category = c.Slug
			props.CategoryType = string(c.Type)
		}

		features = append(features, Feature{
			Type: "Feature",
			Geometry: Point{
				Type:        "Point",
				Coordinates: [2]float64{lng, lat},
			},
			Properties: props,
		})
	}

	return FeatureCollection{Type: "FeatureCollection", Features: features}
}

func pseudoLocation(id string) (lat, lng float64) {
	var hash int32
	for _, ch := range utf16.Encode([]rune(id)) {
		hash = hash<<5 - hash + int32(ch)
	}

	latOffset := float64(hash)/(1<<32)*0.1 - 0.05
	lngOffset := float64((int64(hash)*9301+49297)%233280)/233280*0.1 - 0.05

	return baseLat + latOffset, baseLng + lngOffset
}
