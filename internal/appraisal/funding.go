package appraisal

import (
	"math"

	"dealflow/server/internal/assumptions"
)

// Timeline holds the loan durations used by the finance stages. Nil
// durations fall back to the rate sheet.
type Timeline struct {
	LandMonths        *int
	DevelopmentMonths *int
}

// CalculateFinance sizes the land and development loans. Interest is flat
// over the term; development interest is scaled by the drawdown factor
// since the facility is drawn in stages during construction.
func CalculateFinance(acquisition AcquisitionCosts, development DevelopmentCosts, timeline Timeline, rates assumptions.RateSheet) FinanceCosts {
	if acquisition.Total == nil || development.Total == nil {
		return FinanceCosts{}
	}

	landMonths := monthsOr(timeline.LandMonths, rates.LandDurationMonths)
	devMonths := monthsOr(timeline.DevelopmentMonths, rates.DevelopmentDurationMonths)

	landAmount := *acquisition.Total * rates.LandLTV
	landMonthly := rates.LandInterestAnnual / 12
	landInterest := landAmount * landMonthly * float64(landMonths)
	landEntry := landAmount * rates.LandEntryFeePercent
	landExit := landAmount * rates.LandExitFeePercent

	devAmount := *development.Total * rates.DevelopmentLTV
	devMonthly := rates.DevelopmentInterestAnnual / 12
	devInterest := devAmount * devMonthly * float64(devMonths) * rates.DevelopmentDrawdownFactor
	devEntry := devAmount * rates.DevelopmentEntryFeePercent
	devExit := devAmount * rates.DevelopmentExitFeePercent

	return FinanceCosts{
		LandLTV:                    f64(rates.LandLTV),
		LandLendingAmount:          f64(landAmount),
		LandInterestAnnual:         f64(rates.LandInterestAnnual),
		LandInterestMonthly:        f64(landMonthly),
		LandDurationMonths:         intPtr(landMonths),
		LandInterestTotal:          f64(landInterest),
		LandEntryFeePercent:        f64(rates.LandEntryFeePercent),
		LandEntryFee:               f64(landEntry),
		LandExitFeePercent:         f64(rates.LandExitFeePercent),
		LandExitFee:                f64(landExit),
		DevelopmentLTV:             f64(rates.DevelopmentLTV),
		DevelopmentLendingAmount:   f64(devAmount),
		DevelopmentInterestAnnual:  f64(rates.DevelopmentInterestAnnual),
		DevelopmentInterestMonthly: f64(devMonthly),
		DevelopmentDurationMonths:  intPtr(devMonths),
		DevelopmentInterestTotal:   f64(devInterest),
		DevelopmentEntryFeePercent: f64(rates.DevelopmentEntryFeePercent),
		DevelopmentEntryFee:        f64(devEntry),
		DevelopmentExitFeePercent:  f64(rates.DevelopmentExitFeePercent),
		DevelopmentExitFee:         f64(devExit),
		Total:                      f64(landInterest + landEntry + landExit + devInterest + devEntry + devExit),
	}
}

// CalculateLendersOther always computes; the ongoing QS visits run one
// month past the development term.
func CalculateLendersOther(developmentMonths *int, rates assumptions.RateSheet) LendersOtherCosts {
	months := monthsOr(developmentMonths, rates.DevelopmentDurationMonths) + 1
	ongoing := rates.LendersQSOngoingPerMonth * float64(months)

	return LendersOtherCosts{
		Valuation:         f64(rates.LendersValuation),
		LegalCosts:        f64(rates.LendersLegalCosts),
		QSInitial:         f64(rates.LendersQSInitial),
		QSOngoingPerMonth: f64(rates.LendersQSOngoingPerMonth),
		QSOngoingMonths:   intPtr(months),
		QSOngoingTotal:    f64(ongoing),
		Total:             f64(rates.LendersValuation + rates.LendersLegalCosts + rates.LendersQSInitial + ongoing),
	}
}

func CalculateFunding(finance FinanceCosts, lenders LendersOtherCosts) FundingCosts {
	if finance.Total == nil || lenders.Total == nil {
		return FundingCosts{}
	}

	total := *finance.Total + *lenders.Total
	funding := FundingCosts{
		FinanceCosts:      f64(*finance.Total),
		LendersOtherCosts: f64(*lenders.Total),
		Total:             f64(total),
	}
	if total > 0 {
		funding.FinanceCostsPercent = f64(*finance.Total / total)
		funding.LendersCostsPercent = f64(*lenders.Total / total)
	}
	return funding
}

// CalculateSelling takes the higher of the per-unit and percentage legal
// fee estimates.
func CalculateSelling(gdv GDVRow, rates assumptions.RateSheet) SellingCosts {
	if !positive(gdv.Amount) {
		return SellingCosts{}
	}

	amount := *gdv.Amount
	agent := amount * rates.AgentFeePercent

	var fromUnits float64
	if gdv.Units != nil {
		fromUnits = float64(*gdv.Units) * rates.SellingLegalFeesPerUnit
	}
	fromPercent := amount * rates.SellingLegalFeesPercent
	legal := math.Max(fromUnits, fromPercent)
	total := rates.MarketingCosts + agent + legal

	return SellingCosts{
		MarketingCosts:       f64(rates.MarketingCosts),
		AgentFeePercent:      f64(rates.AgentFeePercent),
		AgentFee:             f64(agent),
		LegalFeesPerUnit:     f64(rates.SellingLegalFeesPerUnit),
		LegalFeesFromUnits:   f64(fromUnits),
		LegalFeesPercent:     f64(rates.SellingLegalFeesPercent),
		LegalFeesFromPercent: f64(fromPercent),
		LegalFeesTotal:       f64(legal),
		Total:                f64(total),
		PercentOfGDV:         f64(total / amount),
	}
}

func CalculateTotalCosts(acquisition AcquisitionCosts, development DevelopmentCosts, funding FundingCosts, selling SellingCosts) TotalCosts {
	if acquisition.Total == nil || development.Total == nil || funding.Total == nil || selling.Total == nil {
		return TotalCosts{}
	}

	total := *acquisition.Total + *development.Total + *funding.Total + *selling.Total
	return TotalCosts{
		AcquisitionCosts:        f64(*acquisition.Total),
		DevelopmentCosts:        f64(*development.Total),
		FundingCosts:            f64(*funding.Total),
		SellingCosts:            f64(*selling.Total),
		Total:                   f64(total),
		AcquisitionCostsPercent: ratio(*acquisition.Total, total),
		DevelopmentCostsPercent: ratio(*development.Total, total),
		FundingCostsPercent:     ratio(*funding.Total, total),
		SellingCostsPercent:     ratio(*selling.Total, total),
	}
}

func CalculateNetProfit(gdv GDVRow, costs TotalCosts) NetProfit {
	if gdv.Amount == nil || costs.Total == nil {
		return NetProfit{}
	}

	profit := *gdv.Amount - *costs.Total
	return NetProfit{
		NetProfit:     f64(profit),
		MarginOnGDV:   ratio(profit, *gdv.Amount),
		MarginOnCosts: ratio(profit, *costs.Total),
	}
}
