package appraisal

import (
	"math"

	"dealflow/server/internal/assumptions"
	"dealflow/server/internal/models"
)

const (
	CriteriaMet     = "Yes"
	CriteriaNotMet  = "No"
	CriteriaUnknown = "Unknown"

	unknownDealType = "Unknown"
)

// AnalyseLending sizes the maximum loan as the lower of the LTC and LTGDV
// caps and works out the day-1 equity position. ownFunds is optional; when
// it is missing or not positive the shortfall is zero and returns are null.
// The per-annum return uses the rate sheet's fixed term, not the project
// timeline.
func AnalyseLending(costs TotalCosts, gdv GDVRow, ownFunds *float64, rates assumptions.RateSheet) LendingAnalysis {
	if costs.Total == nil || gdv.Amount == nil {
		return LendingAnalysis{}
	}

	total, amount := *costs.Total, *gdv.Amount
	maxLTC := total * rates.LTCCriteria
	maxLTGDV := amount * rates.LTGDVCriteria
	maxLoan := math.Min(maxLTC, maxLTGDV)

	var reduceCosts, reduceLoan float64
	if maxLTC < total {
		reduceCosts = total - maxLTC
	}
	if maxLTGDV < maxLTC {
		reduceLoan = maxLTC - maxLTGDV
	}

	landAdvance := maxLoan - (value(costs.DevelopmentCosts) + value(costs.FundingCosts))
	equityNeeded := value(costs.AcquisitionCosts) - landAdvance

	analysis := LendingAnalysis{
		LTCCriteria:         f64(rates.LTCCriteria),
		LTGDVCriteria:       f64(rates.LTGDVCriteria),
		MaxLoanLTC:          f64(maxLTC),
		MaxLoanLTGDV:        f64(maxLTGDV),
		MaximumLoanAmount:   f64(maxLoan),
		ReduceCostsBy:       f64(reduceCosts),
		ReduceLoanBy:        f64(reduceLoan),
		LandAdvanceDay1:     f64(landAdvance),
		OwnEquityNeededDay1: f64(equityNeeded),
		ShortfallEquityDay1: f64(0),
	}

	if !positive(ownFunds) {
		return analysis
	}
	if equityNeeded > *ownFunds {
		analysis.ShortfallEquityDay1 = f64(equityNeeded - *ownFunds)
	}
	roi := (amount - total) / *ownFunds
	analysis.ReturnOnOwnFunds = f64(roi)
	analysis.ReturnOnOwnFundsAnnum = ratio(roi, float64(rates.LendingROIMonths)/12)

	return analysis
}

// AnalysePostDevelopment models holding the scheme as a rental investment
// refinanced onto a term loan. Deductions are stored as negative numbers.
func AnalysePostDevelopment(gdv GDVRow, units *int, rentPerMonth *float64, rates assumptions.RateSheet) PostDevelopment {
	if gdv.Amount == nil {
		return PostDevelopment{}
	}

	unitCount := rates.PostDevelopmentUnits
	if units != nil && *units > 0 {
		unitCount = *units
	}
	rent := rates.PostDevelopmentRentPerMonth
	if positive(rentPerMonth) {
		rent = *rentPerMonth
	}

	rental := float64(unitCount) * rent * 12
	serviceCharges := -rental * rates.ServiceChargesPercent
	netRental := rental + serviceCharges
	termLoan := *gdv.Amount * rates.TermLoanLTV
	interest := -termLoan * rates.TermLoanInterestRate

	return PostDevelopment{
		RentalIncomePerAnnum:  f64(rental),
		ServiceChargesPercent: f64(rates.ServiceChargesPercent),
		ServiceCharges:        f64(serviceCharges),
		NetRentalIncome:       f64(netRental),
		TermLoanLTV:           f64(rates.TermLoanLTV),
		TermLoanAmount:        f64(termLoan),
		TermLoanInterestRate:  f64(rates.TermLoanInterestRate),
		InterestOnTermLoan:    f64(interest),
		NetCashflowPerAnnum:   f64(netRental + interest),
	}
}

// CalculateFundingWorkings splits every cost line between own funds and
// borrowing. The land loan funds part of the purchase price; build,
// professional and statutory costs are borrowed; everything else is own
// money. Unknown figures count as zero so the schedule always balances.
func CalculateFundingWorkings(acquisition AcquisitionCosts, development DevelopmentCosts, statutory StatutoryCosts, funding FundingCosts, selling SellingCosts, finance FinanceCosts) FundingWorkings {
	if acquisition.Total == nil || development.Total == nil || statutory.Total == nil ||
		funding.Total == nil || selling.Total == nil || finance.Total == nil {
		return FundingWorkings{}
	}

	landLoan := value(finance.LandLendingAmount)
	asking := value(acquisition.AskingPrice)

	w := FundingWorkings{
		AskingPrice:       split(asking-landLoan, landLoan),
		StampDuty:         own(value(acquisition.StampDuty)),
		SourcingFee:       own(value(acquisition.SourcingFee)),
		BuildingInsurance: own(value(acquisition.BuildingInsurance)),
		LegalCosts:        own(value(acquisition.LegalCosts)),
		BuildCosts:        borrowed(value(development.BuildCosts)),
		ProfessionalFees:  borrowed(value(development.ProfessionalFees)),
		StatutoryCosts:    borrowed(value(statutory.Total)),
		FundingCosts:      own(value(funding.Total)),
		SellingCosts:      own(value(selling.Total)),
	}
	w.AcquisitionCosts = sumSplits(w.AskingPrice, w.StampDuty, w.SourcingFee, w.BuildingInsurance, w.LegalCosts)
	w.TotalCosts = sumSplits(w.AcquisitionCosts, w.BuildCosts, w.ProfessionalFees, w.StatutoryCosts, w.FundingCosts, w.SellingCosts)

	return w
}

func split(ownPart, borrowPart float64) Split {
	return Split{Own: f64(ownPart), Borrow: f64(borrowPart), Total: f64(ownPart + borrowPart)}
}

func own(v float64) Split { return split(v, 0) }

func borrowed(v float64) Split { return split(0, v) }

func sumSplits(lines ...Split) Split {
	var o, b float64
	for _, line := range lines {
		o += value(line.Own)
		b += value(line.Borrow)
	}
	return split(o, b)
}

// KPIInput gathers the upstream records summarised by CalculateKPIs.
type KPIInput struct {
	DealType        string
	Workings        FundingWorkings
	NetProfit       NetProfit
	Lending         LendingAnalysis
	PostDevelopment PostDevelopment
	// GDV is the scheme value used for the LTGDV compliance check
	GDV            *float64
	TimelineMonths *int
	Travel         *models.Travel
}

// CalculateKPIs produces the headline figures. Return on own funds is
// measured over the actual project timeline and is the figure shown to
// users.
func CalculateKPIs(in KPIInput, rates assumptions.RateSheet) KPIs {
	if in.Workings.TotalCosts.Total == nil || in.NetProfit.NetProfit == nil || in.Lending.MaximumLoanAmount == nil {
		return KPIs{}
	}

	dealType := in.DealType
	if dealType == "" {
		dealType = unknownDealType
	}
	months := monthsOr(in.TimelineMonths, rates.KPITimelineMonths)
	ownFunds := value(in.Workings.TotalCosts.Own)
	profit := *in.NetProfit.NetProfit
	maxLoan := *in.Lending.MaximumLoanAmount

	kpis := KPIs{
		DealType:                 strPtr(dealType),
		HigherRiskBuilding:       boolPtr(false),
		OwnFundsNeeded:           f64(ownFunds),
		LandPurchaseOwnFunds:     f64(value(in.Workings.AcquisitionCosts.Own)),
		ShortfallLendingCriteria: f64(value(in.Lending.ShortfallEquityDay1)),
		NetProfit:                f64(profit),
		TimelineMonths:           intPtr(months),
		LendingCriteriaLTC:       strPtr(compliance(maxLoan, value(in.Workings.TotalCosts.Total), value(in.Lending.LTCCriteria))),
		LendingCriteriaLTGDV:     strPtr(compliance(maxLoan, value(in.GDV), value(in.Lending.LTGDVCriteria))),
	}

	if ownFunds > 0 {
		roi := profit / ownFunds
		kpis.ReturnOnOwnFunds = f64(roi)
		kpis.ReturnOnOwnFundsPerAnnum = f64(roi / (float64(months) / 12))
	}

	if in.PostDevelopment.TermLoanAmount != nil {
		leftInDeal := ownFunds + maxLoan - *in.PostDevelopment.TermLoanAmount
		cashflow := value(in.PostDevelopment.NetCashflowPerAnnum)
		kpis.OwnFundsLeftInDeal = f64(leftInDeal)
		kpis.YearlyNetCashflow = f64(cashflow)
		if leftInDeal > 0 {
			kpis.AnnualYieldOnOwnFunds = f64(cashflow / leftInDeal)
		}
	}

	if in.Travel != nil {
		kpis.TravelDistanceMiles = f64(in.Travel.DistanceMiles)
		kpis.CarTravelTime = strPtr(in.Travel.CarTime)
		kpis.TrainTravelTime = strPtr(in.Travel.TrainTime)
	}

	return kpis
}

// compliance compares the achieved loan ratio against a lender's cap
func compliance(loan, base, criteria float64) string {
	if base <= 0 {
		return CriteriaUnknown
	}
	if loan/base <= criteria {
		return CriteriaMet
	}
	return CriteriaNotMet
}
