package appraisal

import (
	"encoding/json"
	"math"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealflow/server/internal/models"
)

func TestBuildGDV(t *testing.T) {
	floors := []models.Floor{
		{
			FloorType: "ground",
			AccommodationTypes: []models.AccommodationType{
				{Type: "2-bed", Units: intPtr(10), AreaSqft: f64(750), PricePerUnit: f64(300000)},
			},
		},
		{
			FloorType: "FIRST",
			AccommodationTypes: []models.AccommodationType{
				{Type: "1-bed", Units: intPtr(8), AreaM2: f64(50), PricePerUnit: f64(220000), AffordableHousing: true},
				{Type: "penthouse suite", Units: intPtr(1)},
			},
		},
	}

	gdv := BuildGDV(floors)
	require.Len(t, gdv, 4)
	rows := gdv.Rows()
	require.Len(t, rows, 3)

	assert.Equal(t, MarketOpen, rows[0].MarketType)
	assert.Equal(t, BuildTypeNew, rows[0].BuildType)
	assert.Equal(t, "Ground Floor", rows[0].Floor)
	assert.Equal(t, "2 Bed Flat", rows[0].AccommodationType)
	assert.InDelta(t, 69.7, *rows[0].AvgSqmPerUnit, 1e-9)
	assert.InDelta(t, 400.0, *rows[0].PricePerSqft, 1e-9)
	assert.InDelta(t, 3000000.0, *rows[0].Amount, 1e-9)

	assert.Equal(t, MarketAffordable, rows[1].MarketType)
	assert.Equal(t, "First Floor", rows[1].Floor)
	assert.Equal(t, "1 Bed Flat", rows[1].AccommodationType)
	assert.InDelta(t, 538.2, *rows[1].AvgSqftPerUnit, 1e-9)

	assert.Equal(t, "Penthouse Suite", rows[2].AccommodationType)
	assert.Nil(t, rows[2].Amount)
	assert.Nil(t, rows[2].PricePerSqft)

	totals := gdv.Totals()
	assert.Equal(t, MarketTotal, totals.MarketType)
	assert.Empty(t, totals.Floor)
	assert.Empty(t, totals.AccommodationType)
	require.NotNil(t, totals.Units)
	assert.Equal(t, 19, *totals.Units)
	assert.InDelta(t, 4760000.0, *totals.Amount, 1e-6)
	assert.InDelta(t, 60.9, *totals.AvgSqmPerUnit, 1e-9)
	assert.InDelta(t, 655.9, *totals.AvgSqftPerUnit, 1e-9)
	assert.InDelta(t, 250526.0, *totals.PricePerUnit, 1e-9)
	assert.InDelta(t, 403.2, *totals.PricePerSqft, 1e-9)
}

func TestBuildGDVEmpty(t *testing.T) {
	for _, floors := range [][]models.Floor{
		nil,
		{},
		{{FloorType: "ground"}},
	} {
		gdv := BuildGDV(floors)
		assert.Empty(t, gdv)
		assert.Equal(t, GDVRow{}, gdv.Totals())
		assert.Nil(t, gdv.Rows())

		raw, err := json.Marshal(gdv)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(raw))
	}
}

func TestAreaCrossDerivation(t *testing.T) {
	for _, sqft := range []float64{350, 512.5, 750, 1076.4, 2150} {
		gdv := BuildGDV([]models.Floor{{
			FloorType:          "ground",
			AccommodationTypes: []models.AccommodationType{{Type: "studio", Units: intPtr(1), AreaSqft: f64(sqft)}},
		}})
		m2 := *gdv.Rows()[0].AvgSqmPerUnit
		assert.InDelta(t, round(sqft*SqftToM2, 1), m2, 1e-9)
		assert.LessOrEqual(t, math.Abs(m2-sqft*SqftToM2), 0.05+1e-9)

		// Feeding the derived area back in only m2 lands on the same area
		back := BuildGDV([]models.Floor{{
			FloorType:          "ground",
			AccommodationTypes: []models.AccommodationType{{Type: "studio", Units: intPtr(1), AreaM2: f64(m2)}},
		}})
		derivedSqft := *back.Rows()[0].AvgSqftPerUnit
		assert.LessOrEqual(t, math.Abs(derivedSqft*SqftToM2-m2), 0.1, "sqft %v", sqft)
	}
}

func TestGDVTotalsConsistency(t *testing.T) {
	floors := []models.Floor{
		{
			FloorType: "ground",
			AccommodationTypes: []models.AccommodationType{
				{Type: "studio", Units: intPtr(5)},
				{Type: "1-bed", Units: intPtr(4), PricePerUnit: f64(200000)},
				{Type: "2-bed", PricePerUnit: f64(350000)},
			},
		},
		{
			FloorType: "first",
			AccommodationTypes: []models.AccommodationType{
				{Type: "3-bed", Units: intPtr(2), PricePerUnit: f64(450000)},
			},
		},
	}

	gdv := BuildGDV(floors)

	var units int
	var amount float64
	for _, row := range gdv.Rows() {
		if row.Units != nil {
			units += *row.Units
		}
		if row.Amount != nil {
			amount += *row.Amount
		}
	}

	totals := gdv.Totals()
	require.NotNil(t, totals.Units)
	assert.Equal(t, units, *totals.Units)
	assert.Equal(t, 11, *totals.Units)
	require.NotNil(t, totals.Amount)
	assert.InDelta(t, amount, *totals.Amount, 1e-6)
	assert.InDelta(t, 1700000.0, *totals.Amount, 1e-6)
	assert.Nil(t, totals.AvgSqmPerUnit)
}

func TestGDVTotalsWithoutPrices(t *testing.T) {
	gdv := BuildGDV([]models.Floor{{
		FloorType: "ground",
		AccommodationTypes: []models.AccommodationType{
			{Type: "studio", Units: intPtr(3), AreaM2: f64(30)},
		},
	}})

	totals := gdv.Totals()
	assert.Equal(t, 3, *totals.Units)
	assert.Nil(t, totals.Amount)
	assert.Nil(t, totals.PricePerUnit)
	assert.Nil(t, totals.PricePerSqft)
	assert.InDelta(t, 30.0, *totals.AvgSqmPerUnit, 1e-9)
}

func TestGDVTotalsSkipUnknownAreas(t *testing.T) {
	gdv := BuildGDV([]models.Floor{{
		FloorType: "ground",
		AccommodationTypes: []models.AccommodationType{
			{Type: "1-bed", Units: intPtr(4), AreaM2: f64(50), PricePerUnit: f64(200000)},
			{Type: "2-bed", Units: intPtr(6), PricePerUnit: f64(300000)},
			{Type: "3-bed", AreaM2: f64(90), PricePerUnit: f64(500000)},
		},
	}})

	totals := gdv.Totals()
	assert.Equal(t, 10, *totals.Units)
	// Only the 1-bed row has both units and an area
	assert.InDelta(t, 50.0, *totals.AvgSqmPerUnit, 1e-9)
	require.NotNil(t, totals.Amount)
	assert.InDelta(t, 800000.0+1800000.0, *totals.Amount, 1e-6)
	assert.InDelta(t, 260000.0, *totals.PricePerUnit, 1e-9)
}

func TestBuildGDVLabelSpellings(t *testing.T) {
	tests := []struct {
		name      string
		floorType string
		tag       string
		wantFloor string
		wantAccom string
	}{
		{"classifier examples", "ground", "2-bed", "Ground Floor", "2 Bed Flat"},
		{"underscored", "ground_floor", "2_bed_flat", "Ground Floor", "2 Bed Flat"},
		{"spaced", "First Floor", "Studio Flat", "First Floor", "Studio Flat"},
		{"unknown tag", "lower_ground", "penthouse_suite", "Lower Ground Floor", "Penthouse Suite"},
		{"no floor", "", "1 bed", "Floor", "1 Bed Flat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gdv := BuildGDV([]models.Floor{{
				FloorType: tt.floorType,
				AccommodationTypes: []models.AccommodationType{
					{Type: tt.tag, Units: intPtr(2), AreaM2: f64(60), PricePerUnit: f64(250000)},
				},
			}})
			rows := gdv.Rows()
			require.Len(t, rows, 1)
			assert.Equal(t, tt.wantFloor, rows[0].Floor)
			assert.Equal(t, tt.wantAccom, rows[0].AccommodationType)
		})
	}
}

func TestTitleCaseMultibyte(t *testing.T) {
	got := titleCase("étage  élevé")
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "Étage Élevé", got)
	assert.Equal(t, "Étage Floor", floorName("étage"))
}
