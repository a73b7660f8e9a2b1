package appraisal

import (
	"errors"

	"dealflow/server/internal/assumptions"
	"dealflow/server/internal/models"
)

var ErrMissingClassification = errors.New("classification is required")

// Input is everything one appraisal run needs besides the rate sheet.
// The scalars are decided by the caller; nil values fall back to the
// stage defaults on the rate sheet.
type Input struct {
	Classification        *models.Classification
	TimelineMonths        *int
	OwnFundsInvested      *float64
	TotalUnits            *int
	RentalPerUnitPerMonth *float64
	Travel                *models.Travel
}

// Defaults are the values the processing pipeline supplies when the deal
// email does not state them.
type Defaults struct {
	TimelineMonths        int     `json:"timeline_months"`
	OwnFundsInvested      float64 `json:"own_funds_invested"`
	RentalPerUnitPerMonth float64 `json:"rental_per_unit_per_month"`
}

// Appraisal is the full output of one run, one record per stage.
type Appraisal struct {
	DealAppraisal    DealAppraisal     `json:"deal_appraisal"`
	GDV              GDV               `json:"gross_development_value"`
	Acquisition      AcquisitionCosts  `json:"acquisition_costs"`
	Build            BuildCosts        `json:"build_costs"`
	ProfessionalFees ProfessionalFees  `json:"professional_fees"`
	Statutory        StatutoryCosts    `json:"statutory_costs"`
	Development      DevelopmentCosts  `json:"total_development_costs"`
	ProfitPreFunding ProfitPreFunding  `json:"profit_pre_funding_costs"`
	Finance          FinanceCosts      `json:"finance_costs"`
	LendersOther     LendersOtherCosts `json:"lenders_other_costs"`
	Funding          FundingCosts      `json:"total_funding_costs"`
	Selling          SellingCosts      `json:"selling_costs"`
	TotalCosts       TotalCosts        `json:"total_costs"`
	NetProfit        NetProfit         `json:"net_profit_analysis"`
	Lending          LendingAnalysis   `json:"lending_analysis"`
	PostDevelopment  PostDevelopment   `json:"post_development_analysis"`
	Workings         FundingWorkings   `json:"funding_workings"`
	KPIs             KPIs              `json:"kpis"`
}

// Prepare fills the caller-decided scalars the way the processing
// pipeline does: the timeline comes from the email or the default, units
// from the GDV schedule, own funds and rent from the defaults. Values
// already set on in are kept.
func Prepare(in Input, defaults Defaults) Input {
	if in.Classification == nil {
		return in
	}
	details := in.Classification.PropertyDetails

	if in.TimelineMonths == nil {
		months := defaults.TimelineMonths
		if details.Timeline != nil && details.Timeline.TotalDevelopmentDurationMonths != nil && *details.Timeline.TotalDevelopmentDurationMonths > 0 {
			months = *details.Timeline.TotalDevelopmentDurationMonths
		}
		in.TimelineMonths = intPtr(months)
	}
	if in.OwnFundsInvested == nil {
		in.OwnFundsInvested = f64(defaults.OwnFundsInvested)
	}
	if in.RentalPerUnitPerMonth == nil {
		in.RentalPerUnitPerMonth = f64(defaults.RentalPerUnitPerMonth)
	}
	if in.TotalUnits == nil {
		if units := BuildGDV(details.Floors).Totals().Units; units != nil {
			in.TotalUnits = units
		} else {
			in.TotalUnits = details.TotalUnits
		}
	}
	return in
}

// Run executes every stage in dependency order. Missing data never fails
// a run; it only nulls the affected records.
func Run(in Input, rates assumptions.RateSheet) (*Appraisal, error) {
	if in.Classification == nil {
		return nil, ErrMissingClassification
	}
	details := in.Classification.PropertyDetails

	var timeline Timeline
	if details.Timeline != nil {
		timeline.LandMonths = details.Timeline.TotalDevelopmentDurationMonths
		timeline.DevelopmentMonths = details.Timeline.ConstructionPeriodMonths
	}

	a := &Appraisal{}
	a.DealAppraisal = AppraiseDeal(details)
	a.GDV = BuildGDV(details.Floors)
	totals := a.GDV.Totals()

	a.Acquisition = CalculateAcquisition(details, rates)
	a.Build = CalculateBuild(totals, rates)
	a.ProfessionalFees = CalculateProfessionalFees(totals, a.Acquisition, a.Build, in.TimelineMonths, rates)
	a.Statutory = CalculateStatutory(totals, rates)
	a.Development = CalculateDevelopment(a.Build, a.ProfessionalFees, a.Statutory)
	a.ProfitPreFunding = CalculateProfitPreFunding(totals, a.Acquisition, a.Development)

	a.Finance = CalculateFinance(a.Acquisition, a.Development, timeline, rates)
	a.LendersOther = CalculateLendersOther(timeline.DevelopmentMonths, rates)
	a.Funding = CalculateFunding(a.Finance, a.LendersOther)
	a.Selling = CalculateSelling(totals, rates)
	a.TotalCosts = CalculateTotalCosts(a.Acquisition, a.Development, a.Funding, a.Selling)
	a.NetProfit = CalculateNetProfit(totals, a.TotalCosts)

	a.Lending = AnalyseLending(a.TotalCosts, totals, in.OwnFundsInvested, rates)
	a.PostDevelopment = AnalysePostDevelopment(totals, in.TotalUnits, in.RentalPerUnitPerMonth, rates)
	a.Workings = CalculateFundingWorkings(a.Acquisition, a.Development, a.Statutory, a.Funding, a.Selling, a.Finance)

	gdvAmount := totals.Amount
	if gdvAmount == nil {
		gdvAmount = details.GDV
	}
	a.KPIs = CalculateKPIs(KPIInput{
		DealType:        in.Classification.DealType,
		Workings:        a.Workings,
		NetProfit:       a.NetProfit,
		Lending:         a.Lending,
		PostDevelopment: a.PostDevelopment,
		GDV:             gdvAmount,
		TimelineMonths:  in.TimelineMonths,
		Travel:          in.Travel,
	}, rates)

	return a, nil
}
