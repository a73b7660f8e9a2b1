package appraisal

import (
	"dealflow/server/internal/assumptions"
	"dealflow/server/internal/models"
)

// AppraiseDeal summarises the asking price against the reduction needed to
// hit the target profit. Percent fields are ratios of the asking price.
func AppraiseDeal(details models.PropertyDetails) DealAppraisal {
	asking, reduction := details.AskingPrice, details.ReductionToTargetProfit
	if asking == nil || reduction == nil || *asking == 0 {
		return DealAppraisal{}
	}

	strike := *asking - *reduction
	return DealAppraisal{
		AskingPrice:              f64(*asking),
		Reduction:                f64(*reduction),
		AskingPricePercent:       f64(1),
		ReductionPercent:         ratio(*reduction, *asking),
		TargetStrikePrice:        f64(strike),
		TargetStrikePricePercent: ratio(strike, *asking),
	}
}

func CalculateAcquisition(details models.PropertyDetails, rates assumptions.RateSheet) AcquisitionCosts {
	if details.AskingPrice == nil {
		return AcquisitionCosts{}
	}

	asking := *details.AskingPrice
	stampDuty := rates.StampDuty.Calculate(asking)
	sourcing := asking * rates.SourcingFeePercent
	insurance := asking * rates.BuildingInsurancePercent
	legal := asking * rates.LegalCostsPercent

	return AcquisitionCosts{
		AskingPrice:              f64(asking),
		StampDuty:                f64(stampDuty),
		SourcingFeePercent:       f64(rates.SourcingFeePercent),
		SourcingFee:              f64(sourcing),
		BuildingInsurancePercent: f64(rates.BuildingInsurancePercent),
		BuildingInsurance:        f64(insurance),
		LegalCostsPercent:        f64(rates.LegalCostsPercent),
		LegalCosts:               f64(legal),
		Total:                    f64(asking + stampDuty + sourcing + insurance + legal),
	}
}

// CalculateBuild sizes the gross internal area from the GDV unit schedule
// and prices it per square metre.
func CalculateBuild(gdv GDVRow, rates assumptions.RateSheet) BuildCosts {
	if gdv.Amount == nil || gdv.Units == nil || *gdv.Units == 0 || !positive(gdv.AvgSqmPerUnit) {
		return BuildCosts{}
	}

	units := float64(*gdv.Units)
	nia := units * *gdv.AvgSqmPerUnit
	gia := (1 + rates.NetToGross) * nia
	build := gia * rates.BuildCostPerM2
	contingency := (build + rates.LandscapingCosts) * rates.BuildContingencyPercent

	return BuildCosts{
		NIA:                f64(nia),
		NetToGross:         f64(rates.NetToGross),
		GIA:                f64(gia),
		PricePerM2:         f64(rates.BuildCostPerM2),
		TotalBuildCosts:    f64(build),
		CostPerFlat:        ratio(build, units),
		LandscapingCosts:   f64(rates.LandscapingCosts),
		ContingencyPercent: f64(rates.BuildContingencyPercent),
		ContingencyAmount:  f64(contingency),
		Total:              f64(build + rates.LandscapingCosts + contingency),
	}
}

// CalculateProfessionalFees prices the consultant team. months is the
// project timeline; nil uses the rate sheet's default. The structural
// warranty needs both the build and acquisition totals and is left out of
// the total when either is unknown.
func CalculateProfessionalFees(gdv GDVRow, acquisition AcquisitionCosts, build BuildCosts, months *int, rates assumptions.RateSheet) ProfessionalFees {
	if gdv.Amount == nil || *gdv.Amount == 0 {
		return ProfessionalFees{}
	}

	amount := *gdv.Amount
	duration := monthsOr(months, rates.ProfessionalFeesMonths)
	qsMonths := duration + 1

	fees := ProfessionalFees{
		ArchitectPercent:          f64(rates.ArchitectPercent),
		ArchitectFee:              f64(amount * rates.ArchitectPercent),
		TownPlannerPercent:        f64(rates.TownPlannerPercent),
		TownPlannerFee:            f64(amount * rates.TownPlannerPercent),
		StructuralEngineerPercent: f64(rates.StructuralEngineerPercent),
		StructuralEngineerFee:     f64(amount * rates.StructuralEngineerPercent),
		BuildingControlPerUnit:    f64(rates.BuildingControlPerUnit),
		ProjectManagementPerMonth: f64(rates.ProjectManagementPerMonth),
		ProjectManagementMonths:   intPtr(duration),
		ProjectManagementFee:      f64(rates.ProjectManagementPerMonth * float64(duration)),
		StructuralWarrantyPercent: f64(rates.StructuralWarrantyPercent),
		QuantitySurveyorPerMonth:  f64(rates.QuantitySurveyorPerMonth),
		QuantitySurveyorMonths:    intPtr(qsMonths),
		QuantitySurveyorFee:       f64(rates.QuantitySurveyorPerMonth * float64(qsMonths)),
	}

	if gdv.Units != nil {
		fees.BuildingControlFee = f64(float64(*gdv.Units) * rates.BuildingControlPerUnit)
	}
	if build.Total != nil && acquisition.Total != nil {
		fees.StructuralWarrantyFee = f64((*build.Total + *acquisition.Total) * rates.StructuralWarrantyPercent)
	}

	var total float64
	for _, fee := range []*float64{
		fees.ArchitectFee,
		fees.TownPlannerFee,
		fees.StructuralEngineerFee,
		fees.BuildingControlFee,
		fees.ProjectManagementFee,
		fees.StructuralWarrantyFee,
		fees.QuantitySurveyorFee,
	} {
		if fee != nil {
			total += *fee
		}
	}
	fees.Total = f64(total)

	return fees
}

func CalculateStatutory(gdv GDVRow, rates assumptions.RateSheet) StatutoryCosts {
	if gdv.Units == nil || gdv.Amount == nil {
		return StatutoryCosts{}
	}

	nutrient := float64(*gdv.Units) * rates.NutrientNeutralityPerUnit
	total := nutrient + rates.Section106 + rates.CIL + rates.AffordableContribution

	return StatutoryCosts{
		NutrientNeutralityPerUnit: f64(rates.NutrientNeutralityPerUnit),
		NutrientNeutrality:        f64(nutrient),
		Section106:                f64(rates.Section106),
		CIL:                       f64(rates.CIL),
		Affordable:                f64(rates.AffordableContribution),
		Total:                     f64(total),
		PercentOfGDV:              ratio(total, *gdv.Amount),
	}
}

func CalculateDevelopment(build BuildCosts, fees ProfessionalFees, statutory StatutoryCosts) DevelopmentCosts {
	if build.Total == nil || fees.Total == nil || statutory.Total == nil {
		return DevelopmentCosts{}
	}

	total := *build.Total + *fees.Total + *statutory.Total
	return DevelopmentCosts{
		BuildCosts:              f64(*build.Total),
		ProfessionalFees:        f64(*fees.Total),
		StatutoryCosts:          f64(*statutory.Total),
		Total:                   f64(total),
		BuildCostsPercent:       ratio(*build.Total, total),
		ProfessionalFeesPercent: ratio(*fees.Total, total),
		StatutoryCostsPercent:   ratio(*statutory.Total, total),
	}
}

func CalculateProfitPreFunding(gdv GDVRow, acquisition AcquisitionCosts, development DevelopmentCosts) ProfitPreFunding {
	if gdv.Amount == nil || acquisition.Total == nil || development.Total == nil {
		return ProfitPreFunding{}
	}

	costs := *acquisition.Total + *development.Total
	profit := *gdv.Amount - costs
	return ProfitPreFunding{
		GDV:                  f64(*gdv.Amount),
		AcquisitionCosts:     f64(*acquisition.Total),
		DevelopmentCosts:     f64(*development.Total),
		TotalCostsPreFunding: f64(costs),
		Profit:               f64(profit),
		MarginOnGDV:          ratio(profit, *gdv.Amount),
		MarginOnCosts:        ratio(profit, costs),
	}
}
