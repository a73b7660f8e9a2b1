package geocoding

import (
	"context"
	"fmt"
	"math"

	"dealflow/server/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

const (
	metresPerMile = 1609.344

	// Straight-line distance is stretched to approximate the route
	roadFactor = 1.3
	railFactor = 1.2

	carSpeedMPH   = 40.0
	trainSpeedMPH = 50.0
	// Getting to and from stations
	trainOverheadMinutes = 30
)

// TravelEstimate approximates the journey from home to site by car and by
// train from the great-circle distance between them.
func TravelEstimate(home, site orb.Point) models.Travel {
	miles := geo.DistanceHaversine(home, site) / metresPerMile

	carMinutes := miles * roadFactor / carSpeedMPH * 60
	trainMinutes := miles*railFactor/trainSpeedMPH*60 + trainOverheadMinutes

	return models.Travel{
		DistanceMiles: math.Round(miles*10) / 10,
		CarTime:       FormatDuration(carMinutes),
		TrainTime:     FormatDuration(trainMinutes),
	}
}

// FormatDuration renders whole minutes as "1h 12m", or "45m" under an hour
func FormatDuration(minutes float64) string {
	total := int(math.Round(minutes))
	if total < 0 {
		total = 0
	}
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}

// Planner estimates travel from a fixed home point to site addresses.
type Planner struct {
	geocoder *Geocoder
	home     orb.Point
}

func NewPlanner(geocoder *Geocoder, home orb.Point) *Planner {
	return &Planner{geocoder: geocoder, home: home}
}

// Home returns the origin every estimate starts from
func (p *Planner) Home() orb.Point {
	return p.home
}

// Travel geocodes address and estimates the journey to it. The site
// point is returned alongside for mapping.
func (p *Planner) Travel(ctx context.Context, address string) (*models.Travel, orb.Point, error) {
	site, err := p.geocoder.Geocode(ctx, address)
	if err != nil {
		return nil, orb.Point{}, fmt.Errorf("failed to locate site: %w", err)
	}
	travel := TravelEstimate(p.home, site)
	return &travel, site, nil
}
