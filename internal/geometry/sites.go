package geometry

import (
	"dealflow/server/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

const metresPerMile = 1609.344

// SitePoint returns the located site of a deal
func SitePoint(deal *models.Deal) (orb.Point, bool) {
	if deal.Latitude == nil || deal.Longitude == nil {
		return orb.Point{}, false
	}
	return orb.Point{*deal.Longitude, *deal.Latitude}, true
}

// SiteFeatures builds a GeoJSON layer with one point per located deal.
// Deals that were never geocoded are left out.
func SiteFeatures(deals []models.Deal) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range deals {
		deal := &deals[i]
		point, ok := SitePoint(deal)
		if !ok {
			continue
		}

		f := geojson.NewFeature(point)
		f.ID = deal.ID
		f.Properties["id"] = deal.ID
		f.Properties["subject"] = deal.Subject
		f.Properties["deal_type"] = deal.DealType
		f.Properties["status"] = string(deal.Status)
		f.Properties["confidence"] = deal.Confidence
		if deal.GDV != nil {
			f.Properties["gdv"] = *deal.GDV
		}
		if deal.NetProfit != nil {
			f.Properties["net_profit"] = *deal.NetProfit
		}
		fc.Append(f)
	}
	return fc
}

// SitesWithin keeps the located deals no further than radiusMiles from
// center.
func SitesWithin(deals []models.Deal, center orb.Point, radiusMiles float64) []models.Deal {
	var near []models.Deal
	for i := range deals {
		point, ok := SitePoint(&deals[i])
		if !ok {
			continue
		}
		if geo.DistanceHaversine(center, point)/metresPerMile <= radiusMiles {
			near = append(near, deals[i])
		}
	}
	return near
}

// Bounds returns the box around every located deal, or false when none are
func Bounds(deals []models.Deal) (orb.Bound, bool) {
	var points orb.MultiPoint
	for i := range deals {
		if point, ok := SitePoint(&deals[i]); ok {
			points = append(points, point)
		}
	}
	if len(points) == 0 {
		return orb.Bound{}, false
	}
	return points.Bound(), true
}
