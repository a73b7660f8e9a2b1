package appraisal

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"dealflow/server/internal/models"
)

const (
	SqftToM2 = 0.092903
	M2ToSqft = 10.764

	MarketOpen       = "Residential - Open Market"
	MarketAffordable = "Residential - Affordable"
	MarketTotal      = "Residential - Total"
	BuildTypeNew     = "New Build"
)

var accommodationLabels = map[string]string{
	"studio": "Studio Flat",
	"1-bed":  "1 Bed Flat",
	"2-bed":  "2 Bed Flat",
	"3-bed":  "3 Bed Flat",
	"4-bed":  "4 Bed Flat",
	"5-bed":  "5 Bed Flat",
}

// GDV is the priced unit schedule. When non-empty its last row is the
// totals row read by every downstream stage.
type GDV []GDVRow

// Totals returns the aggregate row, or an all-null row when there is none.
func (g GDV) Totals() GDVRow {
	if len(g) == 0 {
		return GDVRow{}
	}
	return g[len(g)-1]
}

// Rows returns the priced rows without the totals row
func (g GDV) Rows() []GDVRow {
	if len(g) == 0 {
		return nil
	}
	return g[:len(g)-1]
}

// BuildGDV flattens the floor schedule into one row per accommodation type
// and appends a totals row.
func BuildGDV(floors []models.Floor) GDV {
	rows := GDV{}
	for _, floor := range floors {
		floorLabel := floorName(floor.FloorType)
		for _, accom := range floor.AccommodationTypes {
			rows = append(rows, gdvRow(floorLabel, accom))
		}
	}
	if len(rows) == 0 {
		return rows
	}
	return append(rows, gdvTotals(rows))
}

func gdvRow(floorLabel string, accom models.AccommodationType) GDVRow {
	marketType := MarketOpen
	if accom.AffordableHousing {
		marketType = MarketAffordable
	}

	sqft, m2 := accom.AreaSqft, accom.AreaM2
	switch {
	case positive(sqft) && !positive(m2):
		m2 = f64(round(*sqft*SqftToM2, 1))
	case positive(m2) && !positive(sqft):
		sqft = f64(round(*m2*M2ToSqft, 1))
	}

	price := accom.PricePerUnit
	pricePerSqft := accom.PricePerSqft
	if positive(price) && positive(sqft) && !positive(pricePerSqft) {
		pricePerSqft = f64(round(*price / *sqft, 2))
	}

	var amount *float64
	if positive(price) && accom.Units != nil && *accom.Units > 0 {
		amount = f64(*price * float64(*accom.Units))
	}

	return GDVRow{
		MarketType:        marketType,
		BuildType:         BuildTypeNew,
		Floor:             floorLabel,
		AccommodationType: accommodationLabel(accom.Type),
		Units:             accom.Units,
		AvgSqmPerUnit:     m2,
		AvgSqftPerUnit:    sqft,
		PricePerUnit:      price,
		PricePerSqft:      pricePerSqft,
		Amount:            amount,
	}
}

// gdvTotals sums units and amounts over the rows that carry them and
// averages areas weighted by unit count.
func gdvTotals(rows []GDVRow) GDVRow {
	var (
		units, sqmUnits, sqftUnits        int
		haveUnits, haveAmount             bool
		amount, weightedSqm, weightedSqft float64
	)

	for _, row := range rows {
		if row.Units != nil {
			haveUnits = true
			units += *row.Units
		}
		if row.Amount != nil {
			haveAmount = true
			amount += *row.Amount
		}
		if row.Units == nil || *row.Units <= 0 {
			continue
		}
		if positive(row.AvgSqmPerUnit) {
			weightedSqm += float64(*row.Units) * *row.AvgSqmPerUnit
			sqmUnits += *row.Units
		}
		if positive(row.AvgSqftPerUnit) {
			weightedSqft += float64(*row.Units) * *row.AvgSqftPerUnit
			sqftUnits += *row.Units
		}
	}

	totals := GDVRow{MarketType: MarketTotal, BuildType: BuildTypeNew}
	if haveUnits {
		totals.Units = intPtr(units)
	}
	if haveAmount {
		totals.Amount = f64(amount)
	}
	if sqmUnits > 0 {
		totals.AvgSqmPerUnit = f64(round(weightedSqm/float64(sqmUnits), 1))
	}
	if sqftUnits > 0 {
		totals.AvgSqftPerUnit = f64(round(weightedSqft/float64(sqftUnits), 1))
	}
	if haveAmount && units > 0 {
		totals.PricePerUnit = f64(round(amount/float64(units), 0))
	}
	if haveAmount && weightedSqft > 0 {
		totals.PricePerSqft = f64(round(amount/weightedSqft, 2))
	}
	return totals
}

// accommodationLabel accepts tags such as "2-bed", "2 bed" or "2_bed_flat"
func accommodationLabel(tag string) string {
	key := strings.ToLower(strings.TrimSpace(tag))
	key = strings.NewReplacer("_", "-", " ", "-").Replace(key)
	key = strings.TrimSuffix(key, "-flat")
	if label, ok := accommodationLabels[key]; ok {
		return label
	}
	return titleCase(strings.ReplaceAll(tag, "_", " "))
}

// floorName turns "ground", "ground_floor" or "Ground Floor" into "Ground Floor"
func floorName(floorType string) string {
	name := strings.ToLower(strings.ReplaceAll(floorType, "_", " "))
	name = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), " floor"))
	if name == "floor" {
		name = ""
	}
	return strings.TrimSpace(titleCase(name) + " Floor")
}

func titleCase(s string) string {
	// Casers keep state, so one per call
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}
