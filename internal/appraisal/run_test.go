package appraisal

import (
	"encoding/json"
	"reflect"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealflow/server/internal/assumptions"
	"dealflow/server/internal/models"
)

func sampleClassification() *models.Classification {
	return &models.Classification{
		DealType:   "Residential – New Build",
		Confidence: 88,
		PropertyDetails: models.PropertyDetails{
			AskingPrice:             f64(1000000),
			ReductionToTargetProfit: f64(300000),
			GDV:                     f64(4500000),
			Floors: []models.Floor{
				{
					FloorType: "ground",
					AccommodationTypes: []models.AccommodationType{
						{Type: "2-bed", Units: intPtr(10), AreaSqft: f64(750), PricePerUnit: f64(300000)},
					},
				},
				{
					FloorType: "first",
					AccommodationTypes: []models.AccommodationType{
						{Type: "1-bed", Units: intPtr(8), AreaM2: f64(50), PricePerUnit: f64(220000), AffordableHousing: true},
					},
				},
			},
			Timeline: &models.Timeline{
				TotalDevelopmentDurationMonths: intPtr(20),
				ConstructionPeriodMonths:       intPtr(14),
			},
		},
	}
}

var runnerDefaults = Defaults{TimelineMonths: 24, OwnFundsInvested: 1500, RentalPerUnitPerMonth: 3000}

func runSample(t *testing.T, c *models.Classification) *Appraisal {
	t.Helper()
	a, err := Run(Prepare(Input{Classification: c}, runnerDefaults), assumptions.Default())
	require.NoError(t, err)
	return a
}

func keySet(t *testing.T, v any) []string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return flattenKeys("", m)
}

func flattenKeys(prefix string, m map[string]any) []string {
	var keys []string
	for k, v := range m {
		keys = append(keys, prefix+k)
		if nested, ok := v.(map[string]any); ok {
			keys = append(keys, flattenKeys(prefix+k+".", nested)...)
		}
	}
	sort.Strings(keys)
	return keys
}

func TestSchemaStability(t *testing.T) {
	full := runSample(t, sampleClassification())
	empty := runSample(t, &models.Classification{})

	records := map[string][2]any{
		"deal_appraisal":            {full.DealAppraisal, empty.DealAppraisal},
		"gdv_row":                   {full.GDV.Totals(), empty.GDV.Totals()},
		"acquisition_costs":         {full.Acquisition, empty.Acquisition},
		"build_costs":               {full.Build, empty.Build},
		"professional_fees":         {full.ProfessionalFees, empty.ProfessionalFees},
		"statutory_costs":           {full.Statutory, empty.Statutory},
		"total_development_costs":   {full.Development, empty.Development},
		"profit_pre_funding_costs":  {full.ProfitPreFunding, empty.ProfitPreFunding},
		"finance_costs":             {full.Finance, empty.Finance},
		"lenders_other_costs":       {full.LendersOther, LendersOtherCosts{}},
		"total_funding_costs":       {full.Funding, empty.Funding},
		"selling_costs":             {full.Selling, empty.Selling},
		"total_costs":               {full.TotalCosts, empty.TotalCosts},
		"net_profit_analysis":       {full.NetProfit, empty.NetProfit},
		"lending_analysis":          {full.Lending, empty.Lending},
		"post_development_analysis": {full.PostDevelopment, empty.PostDevelopment},
		"funding_workings":          {full.Workings, empty.Workings},
		"kpis":                      {full.KPIs, empty.KPIs},
	}

	for name, pair := range records {
		t.Run(name, func(t *testing.T) {
			success, fallback := pair[0], pair[1]
			require.NotEqual(t, reflect.Zero(reflect.TypeOf(success)).Interface(), success, "success path produced an empty record")
			assert.Equal(t, keySet(t, success), keySet(t, fallback))
		})
	}

	assert.Len(t, keySet(t, full.Finance), 21)
	assert.Len(t, keySet(t, full.KPIs), 17)
}

func TestEmptyFloorsPropagateNulls(t *testing.T) {
	a := runSample(t, &models.Classification{})

	assert.Empty(t, a.GDV)
	assert.Equal(t, DealAppraisal{}, a.DealAppraisal)
	assert.Equal(t, AcquisitionCosts{}, a.Acquisition)
	assert.Equal(t, BuildCosts{}, a.Build)
	assert.Equal(t, ProfessionalFees{}, a.ProfessionalFees)
	assert.Equal(t, StatutoryCosts{}, a.Statutory)
	assert.Equal(t, DevelopmentCosts{}, a.Development)
	assert.Equal(t, ProfitPreFunding{}, a.ProfitPreFunding)
	assert.Equal(t, FinanceCosts{}, a.Finance)
	assert.Equal(t, FundingCosts{}, a.Funding)
	assert.Equal(t, SellingCosts{}, a.Selling)
	assert.Equal(t, TotalCosts{}, a.TotalCosts)
	assert.Equal(t, NetProfit{}, a.NetProfit)
	assert.Equal(t, LendingAnalysis{}, a.Lending)
	assert.Equal(t, PostDevelopment{}, a.PostDevelopment)
	assert.Equal(t, FundingWorkings{}, a.Workings)
	assert.Equal(t, KPIs{}, a.KPIs)

	// Lender fees do not depend on the scheme
	assert.NotNil(t, a.LendersOther.Total)

	raw, err := json.Marshal(a)
	require.NoError(t, err)
	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.JSONEq(t, `[]`, string(decoded["gross_development_value"]))
	assert.Len(t, decoded, 18)
}

func TestMissingGDVAmountPropagatesNulls(t *testing.T) {
	c := sampleClassification()
	for i := range c.PropertyDetails.Floors {
		for j := range c.PropertyDetails.Floors[i].AccommodationTypes {
			c.PropertyDetails.Floors[i].AccommodationTypes[j].PricePerUnit = nil
		}
	}

	a := runSample(t, c)
	require.NotEmpty(t, a.GDV)
	assert.Nil(t, a.GDV.Totals().Amount)

	// Acquisition only needs the asking price
	assert.NotNil(t, a.Acquisition.Total)

	assert.Equal(t, BuildCosts{}, a.Build)
	assert.Equal(t, ProfessionalFees{}, a.ProfessionalFees)
	assert.Equal(t, StatutoryCosts{}, a.Statutory)
	assert.Equal(t, ProfitPreFunding{}, a.ProfitPreFunding)
	assert.Equal(t, NetProfit{}, a.NetProfit)
	assert.Equal(t, LendingAnalysis{}, a.Lending)
	assert.Equal(t, PostDevelopment{}, a.PostDevelopment)
	assert.Equal(t, KPIs{}, a.KPIs)
}

func TestRunIsConsistent(t *testing.T) {
	a := runSample(t, sampleClassification())
	totals := a.GDV.Totals()

	assert.InDelta(t, 4760000.0, *totals.Amount, delta)
	assert.InDelta(t, 700000.0, *a.DealAppraisal.TargetStrikePrice, delta)

	// Timeline from the email drives the finance terms
	assert.Equal(t, 20, *a.Finance.LandDurationMonths)
	assert.Equal(t, 14, *a.Finance.DevelopmentDurationMonths)
	assert.Equal(t, 15, *a.LendersOther.QSOngoingMonths)
	assert.Equal(t, 20, *a.ProfessionalFees.ProjectManagementMonths)
	assert.Equal(t, 20, *a.KPIs.TimelineMonths)

	assert.InDelta(t, *a.Build.Total+*a.ProfessionalFees.Total+*a.Statutory.Total, *a.Development.Total, delta)
	assert.InDelta(t, *a.Finance.Total+*a.LendersOther.Total, *a.Funding.Total, delta)
	assert.InDelta(t, *totals.Amount-*a.TotalCosts.Total, *a.NetProfit.NetProfit, delta)
	assert.InDelta(t, *a.TotalCosts.Total, *a.Workings.TotalCosts.Total, 1e-4)
	assert.InDelta(t, *a.Workings.TotalCosts.Own, *a.KPIs.OwnFundsNeeded, delta)
	assert.InDelta(t, *a.NetProfit.NetProfit, *a.KPIs.NetProfit, delta)

	// Lending uses the supplied own funds, KPIs use the funding schedule
	assert.InDelta(t, *a.NetProfit.NetProfit/1500, *a.Lending.ReturnOnOwnFunds, 1e-4)
	assert.InDelta(t, *a.NetProfit.NetProfit / *a.Workings.TotalCosts.Own, *a.KPIs.ReturnOnOwnFunds, delta)

	// Post development units come from the GDV schedule at 3000 a month
	assert.InDelta(t, 18*3000*12.0, *a.PostDevelopment.RentalIncomePerAnnum, delta)

	assert.Equal(t, "Residential – New Build", *a.KPIs.DealType)
	assert.Nil(t, a.KPIs.TravelDistanceMiles)
}

func TestRunRequiresClassification(t *testing.T) {
	_, err := Run(Input{}, assumptions.Default())
	assert.ErrorIs(t, err, ErrMissingClassification)
}

func TestPrepare(t *testing.T) {
	t.Run("Defaults fill the gaps", func(t *testing.T) {
		c := sampleClassification()
		c.PropertyDetails.Timeline = nil

		in := Prepare(Input{Classification: c}, runnerDefaults)
		assert.Equal(t, 24, *in.TimelineMonths)
		assert.Equal(t, 1500.0, *in.OwnFundsInvested)
		assert.Equal(t, 3000.0, *in.RentalPerUnitPerMonth)
		assert.Equal(t, 18, *in.TotalUnits)
	})

	t.Run("Email values win over defaults", func(t *testing.T) {
		in := Prepare(Input{Classification: sampleClassification()}, runnerDefaults)
		assert.Equal(t, 20, *in.TimelineMonths)
	})

	t.Run("Caller values are kept", func(t *testing.T) {
		in := Prepare(Input{
			Classification:   sampleClassification(),
			TimelineMonths:   intPtr(30),
			OwnFundsInvested: f64(250000),
			TotalUnits:       intPtr(40),
		}, runnerDefaults)
		assert.Equal(t, 30, *in.TimelineMonths)
		assert.Equal(t, 250000.0, *in.OwnFundsInvested)
		assert.Equal(t, 40, *in.TotalUnits)
	})

	t.Run("Units fall back to the stated total", func(t *testing.T) {
		c := &models.Classification{PropertyDetails: models.PropertyDetails{TotalUnits: intPtr(12)}}
		in := Prepare(Input{Classification: c}, runnerDefaults)
		assert.Equal(t, 12, *in.TotalUnits)
	})

	t.Run("Nil classification is untouched", func(t *testing.T) {
		assert.Equal(t, Input{}, Prepare(Input{}, runnerDefaults))
	})
}

func TestRateSheetDrivesStages(t *testing.T) {
	rates := assumptions.Default()
	rates.BuildCostPerM2 = 2000
	rates.LTCCriteria = 0.6

	a, err := Run(Prepare(Input{Classification: sampleClassification()}, runnerDefaults), rates)
	require.NoError(t, err)

	assert.InDelta(t, *a.Build.GIA*2000, *a.Build.TotalBuildCosts, delta)
	assert.InDelta(t, *a.TotalCosts.Total*0.6, *a.Lending.MaxLoanLTC, delta)
}
