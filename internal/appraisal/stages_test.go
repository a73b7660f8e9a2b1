package appraisal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealflow/server/internal/assumptions"
	"dealflow/server/internal/models"
)

const delta = 1e-6

func schemeTotals() GDVRow {
	return GDVRow{
		MarketType:    MarketTotal,
		BuildType:     BuildTypeNew,
		Units:         intPtr(84),
		AvgSqmPerUnit: f64(40),
		Amount:        f64(12600000),
	}
}

func TestAppraiseDeal(t *testing.T) {
	tests := []struct {
		name     string
		details  models.PropertyDetails
		expected DealAppraisal
	}{
		{
			name:    "Strike price",
			details: models.PropertyDetails{AskingPrice: f64(1000000), ReductionToTargetProfit: f64(300000)},
			expected: DealAppraisal{
				AskingPrice:              f64(1000000),
				Reduction:                f64(300000),
				AskingPricePercent:       f64(1),
				ReductionPercent:         f64(0.3),
				TargetStrikePrice:        f64(700000),
				TargetStrikePricePercent: f64(0.7),
			},
		},
		{name: "Missing reduction", details: models.PropertyDetails{AskingPrice: f64(1000000)}},
		{name: "Missing asking price", details: models.PropertyDetails{ReductionToTargetProfit: f64(300000)}},
		{name: "Zero asking price", details: models.PropertyDetails{AskingPrice: f64(0), ReductionToTargetProfit: f64(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AppraiseDeal(tt.details)
			if tt.expected == (DealAppraisal{}) {
				assert.Equal(t, DealAppraisal{}, got)
				return
			}
			assert.InDelta(t, *tt.expected.TargetStrikePrice, *got.TargetStrikePrice, delta)
			assert.InDelta(t, *tt.expected.TargetStrikePricePercent, *got.TargetStrikePricePercent, delta)
			assert.InDelta(t, *tt.expected.ReductionPercent, *got.ReductionPercent, delta)
			assert.InDelta(t, *tt.expected.AskingPricePercent, *got.AskingPricePercent, delta)
		})
	}
}

func TestCalculateAcquisition(t *testing.T) {
	details := models.PropertyDetails{AskingPrice: f64(1000000)}

	t.Run("Default flat stamp duty", func(t *testing.T) {
		acq := CalculateAcquisition(details, assumptions.Default())
		assert.InDelta(t, 158002.0, *acq.StampDuty, delta)
		assert.InDelta(t, 20000.0, *acq.SourcingFee, delta)
		assert.InDelta(t, 7500.0, *acq.BuildingInsurance, delta)
		assert.InDelta(t, 5000.0, *acq.LegalCosts, delta)
		assert.InDelta(t, 1190502.0, *acq.Total, delta)
	})

	t.Run("Banded stamp duty", func(t *testing.T) {
		rates := assumptions.Default()
		rates.StampDuty = assumptions.BandedStampDuty(assumptions.ResidentialBands)
		acq := CalculateAcquisition(details, rates)
		assert.InDelta(t, 43750.0, *acq.StampDuty, delta)
		assert.InDelta(t, 1076250.0, *acq.Total, delta)
	})

	t.Run("Missing asking price", func(t *testing.T) {
		assert.Equal(t, AcquisitionCosts{}, CalculateAcquisition(models.PropertyDetails{}, assumptions.Default()))
	})
}

func TestCalculateBuild(t *testing.T) {
	build := CalculateBuild(schemeTotals(), assumptions.Default())

	assert.InDelta(t, 3360.0, *build.NIA, delta)
	assert.InDelta(t, 4032.0, *build.GIA, delta)
	assert.InDelta(t, 4838400.0, *build.TotalBuildCosts, delta)
	assert.InDelta(t, 57600.0, *build.CostPerFlat, delta)
	assert.InDelta(t, 483840.0, *build.ContingencyAmount, delta)
	assert.InDelta(t, 5322240.0, *build.Total, delta)

	for name, gdv := range map[string]GDVRow{
		"No units":  {AvgSqmPerUnit: f64(40), Amount: f64(1)},
		"Zero area": {Units: intPtr(84), AvgSqmPerUnit: f64(0), Amount: f64(1)},
		"No amount": {Units: intPtr(84), AvgSqmPerUnit: f64(40)},
	} {
		assert.Equal(t, BuildCosts{}, CalculateBuild(gdv, assumptions.Default()), name)
	}
}

func TestCalculateProfessionalFees(t *testing.T) {
	rates := assumptions.Default()
	acq := AcquisitionCosts{Total: f64(1000000)}
	build := BuildCosts{Total: f64(5322240)}

	t.Run("All components", func(t *testing.T) {
		fees := CalculateProfessionalFees(schemeTotals(), acq, build, nil, rates)
		assert.InDelta(t, 126000.0, *fees.ArchitectFee, delta)
		assert.InDelta(t, 12600.0, *fees.TownPlannerFee, delta)
		assert.InDelta(t, 63000.0, *fees.StructuralEngineerFee, delta)
		assert.InDelta(t, 126000.0, *fees.BuildingControlFee, delta)
		assert.Equal(t, 18, *fees.ProjectManagementMonths)
		assert.InDelta(t, 126000.0, *fees.ProjectManagementFee, delta)
		assert.InDelta(t, 63222.4, *fees.StructuralWarrantyFee, delta)
		assert.Equal(t, 19, *fees.QuantitySurveyorMonths)
		assert.InDelta(t, 22800.0, *fees.QuantitySurveyorFee, delta)
		assert.InDelta(t, 539622.4, *fees.Total, delta)
	})

	t.Run("Warranty excluded without build costs", func(t *testing.T) {
		fees := CalculateProfessionalFees(schemeTotals(), acq, BuildCosts{}, nil, rates)
		assert.Nil(t, fees.StructuralWarrantyFee)
		assert.InDelta(t, 476400.0, *fees.Total, delta)
	})

	t.Run("Timeline drives monthly fees", func(t *testing.T) {
		fees := CalculateProfessionalFees(schemeTotals(), acq, build, intPtr(24), rates)
		assert.InDelta(t, 168000.0, *fees.ProjectManagementFee, delta)
		assert.InDelta(t, 30000.0, *fees.QuantitySurveyorFee, delta)
	})

	t.Run("Building control needs units", func(t *testing.T) {
		fees := CalculateProfessionalFees(GDVRow{Amount: f64(12600000)}, acq, build, nil, rates)
		assert.Nil(t, fees.BuildingControlFee)
		assert.InDelta(t, 539622.4-126000, *fees.Total, delta)
	})

	t.Run("Missing GDV", func(t *testing.T) {
		assert.Equal(t, ProfessionalFees{}, CalculateProfessionalFees(GDVRow{Units: intPtr(84)}, acq, build, nil, rates))
	})
}

func TestCalculateStatutory(t *testing.T) {
	stat := CalculateStatutory(schemeTotals(), assumptions.Default())
	assert.InDelta(t, 420000.0, *stat.NutrientNeutrality, delta)
	assert.InDelta(t, 570000.0, *stat.Total, delta)
	assert.InDelta(t, 570000.0/12600000, *stat.PercentOfGDV, delta)

	zeroGDV := CalculateStatutory(GDVRow{Units: intPtr(2), Amount: f64(0)}, assumptions.Default())
	assert.Nil(t, zeroGDV.PercentOfGDV)
	assert.NotNil(t, zeroGDV.Total)

	assert.Equal(t, StatutoryCosts{}, CalculateStatutory(GDVRow{Amount: f64(1)}, assumptions.Default()))
	// Units alone are not enough; the GDV amount gates the record
	assert.Equal(t, StatutoryCosts{}, CalculateStatutory(GDVRow{Units: intPtr(84)}, assumptions.Default()))
}

func TestCalculateDevelopmentAndProfit(t *testing.T) {
	dev := CalculateDevelopment(BuildCosts{Total: f64(600)}, ProfessionalFees{Total: f64(300)}, StatutoryCosts{Total: f64(100)})
	assert.InDelta(t, 1000.0, *dev.Total, delta)
	assert.InDelta(t, 0.6, *dev.BuildCostsPercent, delta)
	assert.InDelta(t, 0.3, *dev.ProfessionalFeesPercent, delta)
	assert.InDelta(t, 0.1, *dev.StatutoryCostsPercent, delta)

	zero := CalculateDevelopment(BuildCosts{Total: f64(0)}, ProfessionalFees{Total: f64(0)}, StatutoryCosts{Total: f64(0)})
	assert.Nil(t, zero.BuildCostsPercent)

	assert.Equal(t, DevelopmentCosts{}, CalculateDevelopment(BuildCosts{}, ProfessionalFees{Total: f64(1)}, StatutoryCosts{Total: f64(1)}))

	profit := CalculateProfitPreFunding(GDVRow{Amount: f64(2000)}, AcquisitionCosts{Total: f64(500)}, dev)
	assert.InDelta(t, 1500.0, *profit.TotalCostsPreFunding, delta)
	assert.InDelta(t, 500.0, *profit.Profit, delta)
	assert.InDelta(t, 0.25, *profit.MarginOnGDV, delta)
	assert.InDelta(t, 1.0/3, *profit.MarginOnCosts, delta)

	assert.Equal(t, ProfitPreFunding{}, CalculateProfitPreFunding(GDVRow{}, AcquisitionCosts{Total: f64(500)}, dev))
}

func TestCalculateFinance(t *testing.T) {
	rates := assumptions.Default()
	acq := AcquisitionCosts{Total: f64(1000000)}
	dev := DevelopmentCosts{Total: f64(2000000)}

	t.Run("Default durations", func(t *testing.T) {
		fin := CalculateFinance(acq, dev, Timeline{}, rates)
		assert.Equal(t, 18, *fin.LandDurationMonths)
		assert.Equal(t, 12, *fin.DevelopmentDurationMonths)
		assert.InDelta(t, 500000.0, *fin.LandLendingAmount, delta)
		assert.InDelta(t, 75000.0, *fin.LandInterestTotal, delta)
		assert.InDelta(t, 10000.0, *fin.LandEntryFee, delta)
		assert.InDelta(t, 5000.0, *fin.LandExitFee, delta)
		assert.InDelta(t, 2000000.0, *fin.DevelopmentLendingAmount, delta)
		assert.InDelta(t, 100000.0, *fin.DevelopmentInterestTotal, delta)
		assert.InDelta(t, 40000.0, *fin.DevelopmentEntryFee, delta)
		assert.InDelta(t, 20000.0, *fin.DevelopmentExitFee, delta)
		assert.InDelta(t, 250000.0, *fin.Total, delta)
	})

	t.Run("Timeline overrides durations", func(t *testing.T) {
		fin := CalculateFinance(acq, dev, Timeline{LandMonths: intPtr(24), DevelopmentMonths: intPtr(18)}, rates)
		assert.InDelta(t, 100000.0, *fin.LandInterestTotal, delta)
		assert.InDelta(t, 150000.0, *fin.DevelopmentInterestTotal, delta)
	})

	t.Run("Missing development total", func(t *testing.T) {
		assert.Equal(t, FinanceCosts{}, CalculateFinance(acq, DevelopmentCosts{}, Timeline{}, rates))
	})
}

func TestCalculateLendersOtherAndFunding(t *testing.T) {
	lenders := CalculateLendersOther(nil, assumptions.Default())
	assert.Equal(t, 13, *lenders.QSOngoingMonths)
	assert.InDelta(t, 14820.0, *lenders.QSOngoingTotal, delta)
	assert.InDelta(t, 44820.0, *lenders.Total, delta)

	longer := CalculateLendersOther(intPtr(18), assumptions.Default())
	assert.Equal(t, 19, *longer.QSOngoingMonths)

	funding := CalculateFunding(FinanceCosts{Total: f64(250000)}, lenders)
	assert.InDelta(t, 294820.0, *funding.Total, delta)
	assert.InDelta(t, 250000.0/294820, *funding.FinanceCostsPercent, delta)
	assert.InDelta(t, 44820.0/294820, *funding.LendersCostsPercent, delta)

	zero := CalculateFunding(FinanceCosts{Total: f64(0)}, LendersOtherCosts{Total: f64(0)})
	assert.InDelta(t, 0.0, *zero.Total, delta)
	assert.Nil(t, zero.FinanceCostsPercent)
	assert.Nil(t, zero.LendersCostsPercent)

	assert.Equal(t, FundingCosts{}, CalculateFunding(FinanceCosts{}, lenders))
}

func TestCalculateSelling(t *testing.T) {
	rates := assumptions.Default()

	tests := []struct {
		name  string
		gdv   GDVRow
		legal float64
		total float64
	}{
		{name: "Per unit fees are higher", gdv: schemeTotals(), legal: 127428, total: 434828},
		{name: "Percentage fees without units", gdv: GDVRow{Amount: f64(12600000)}, legal: 126000, total: 433400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selling := CalculateSelling(tt.gdv, rates)
			assert.InDelta(t, 302400.0, *selling.AgentFee, delta)
			assert.InDelta(t, tt.legal, *selling.LegalFeesTotal, delta)
			assert.InDelta(t, tt.total, *selling.Total, delta)
			assert.InDelta(t, tt.total/12600000, *selling.PercentOfGDV, delta)
		})
	}

	t.Run("Zero GDV", func(t *testing.T) {
		assert.Equal(t, SellingCosts{}, CalculateSelling(GDVRow{Units: intPtr(4), Amount: f64(0)}, rates))
	})
}

func TestCalculateTotalCostsAndNetProfit(t *testing.T) {
	costs := CalculateTotalCosts(
		AcquisitionCosts{Total: f64(400)},
		DevelopmentCosts{Total: f64(400)},
		FundingCosts{Total: f64(100)},
		SellingCosts{Total: f64(100)},
	)
	assert.InDelta(t, 1000.0, *costs.Total, delta)
	assert.InDelta(t, 0.4, *costs.AcquisitionCostsPercent, delta)
	assert.InDelta(t, 0.1, *costs.SellingCostsPercent, delta)

	assert.Equal(t, TotalCosts{}, CalculateTotalCosts(AcquisitionCosts{Total: f64(1)}, DevelopmentCosts{Total: f64(1)}, FundingCosts{}, SellingCosts{Total: f64(1)}))

	profit := CalculateNetProfit(GDVRow{Amount: f64(1250)}, costs)
	assert.InDelta(t, 250.0, *profit.NetProfit, delta)
	assert.InDelta(t, 0.2, *profit.MarginOnGDV, delta)
	assert.InDelta(t, 0.25, *profit.MarginOnCosts, delta)

	loss := CalculateNetProfit(GDVRow{Amount: f64(800)}, costs)
	assert.InDelta(t, -200.0, *loss.NetProfit, delta)

	assert.Equal(t, NetProfit{}, CalculateNetProfit(GDVRow{}, costs))
}

func TestAnalyseLending(t *testing.T) {
	costs := TotalCosts{
		AcquisitionCosts: f64(400000),
		DevelopmentCosts: f64(500000),
		FundingCosts:     f64(50000),
		SellingCosts:     f64(50000),
		Total:            f64(1000000),
	}

	tests := []struct {
		name        string
		gdv         float64
		ownFunds    *float64
		maxLoan     float64
		reduceLoan  float64
		shortfall   float64
		roi         *float64
		roiPerAnnum *float64
	}{
		{
			name:        "LTC binds",
			gdv:         2000000,
			ownFunds:    f64(100000),
			maxLoan:     850000,
			reduceLoan:  0,
			shortfall:   0,
			roi:         f64(10),
			roiPerAnnum: f64(10 / 1.5),
		},
		{
			name:        "LTGDV binds",
			gdv:         1200000,
			ownFunds:    f64(100000),
			maxLoan:     840000,
			reduceLoan:  10000,
			shortfall:   10000,
			roi:         f64(2),
			roiPerAnnum: f64(2 / 1.5),
		},
		{
			name:       "No own funds",
			gdv:        1200000,
			maxLoan:    840000,
			reduceLoan: 10000,
		},
		{
			name:       "Zero own funds",
			gdv:        1200000,
			ownFunds:   f64(0),
			maxLoan:    840000,
			reduceLoan: 10000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lending := AnalyseLending(costs, GDVRow{Amount: f64(tt.gdv)}, tt.ownFunds, assumptions.Default())

			assert.InDelta(t, 850000.0, *lending.MaxLoanLTC, delta)
			assert.InDelta(t, tt.gdv*0.7, *lending.MaxLoanLTGDV, delta)
			assert.InDelta(t, min(*lending.MaxLoanLTC, *lending.MaxLoanLTGDV), *lending.MaximumLoanAmount, delta)
			assert.InDelta(t, tt.maxLoan, *lending.MaximumLoanAmount, delta)
			assert.InDelta(t, 150000.0, *lending.ReduceCostsBy, delta)
			assert.InDelta(t, tt.reduceLoan, *lending.ReduceLoanBy, delta)
			assert.InDelta(t, tt.maxLoan-550000, *lending.LandAdvanceDay1, delta)
			assert.InDelta(t, 400000-(tt.maxLoan-550000), *lending.OwnEquityNeededDay1, delta)
			assert.InDelta(t, tt.shortfall, *lending.ShortfallEquityDay1, delta)

			if tt.roi == nil {
				assert.Nil(t, lending.ReturnOnOwnFunds)
				assert.Nil(t, lending.ReturnOnOwnFundsAnnum)
				return
			}
			assert.InDelta(t, *tt.roi, *lending.ReturnOnOwnFunds, delta)
			assert.InDelta(t, *tt.roiPerAnnum, *lending.ReturnOnOwnFundsAnnum, delta)
		})
	}

	t.Run("Costs within LTC", func(t *testing.T) {
		rates := assumptions.Default()
		rates.LTCCriteria = 1.0
		lending := AnalyseLending(costs, GDVRow{Amount: f64(5000000)}, nil, rates)
		assert.InDelta(t, 0.0, *lending.ReduceCostsBy, delta)
	})

	t.Run("Missing GDV", func(t *testing.T) {
		assert.Equal(t, LendingAnalysis{}, AnalyseLending(costs, GDVRow{}, f64(1500), assumptions.Default()))
	})
}

func TestAnalysePostDevelopment(t *testing.T) {
	rates := assumptions.Default()

	post := AnalysePostDevelopment(GDVRow{Amount: f64(12600000)}, nil, nil, rates)
	assert.InDelta(t, 1209600.0, *post.RentalIncomePerAnnum, delta)
	assert.InDelta(t, -120960.0, *post.ServiceCharges, delta)
	assert.InDelta(t, 1088640.0, *post.NetRentalIncome, delta)
	assert.InDelta(t, 8190000.0, *post.TermLoanAmount, delta)
	assert.InDelta(t, -573300.0, *post.InterestOnTermLoan, delta)
	assert.InDelta(t, 515340.0, *post.NetCashflowPerAnnum, delta)

	supplied := AnalysePostDevelopment(GDVRow{Amount: f64(12600000)}, intPtr(10), f64(3000), rates)
	assert.InDelta(t, 360000.0, *supplied.RentalIncomePerAnnum, delta)

	assert.Equal(t, PostDevelopment{}, AnalysePostDevelopment(GDVRow{Units: intPtr(10)}, intPtr(10), f64(3000), rates))
}

func TestCalculateFundingWorkings(t *testing.T) {
	acq := CalculateAcquisition(models.PropertyDetails{AskingPrice: f64(1000000)}, assumptions.Default())
	dev := DevelopmentCosts{BuildCosts: f64(5322240), ProfessionalFees: f64(539622.4), StatutoryCosts: f64(570000), Total: f64(6431862.4)}
	stat := StatutoryCosts{Total: f64(570000)}
	fin := CalculateFinance(acq, dev, Timeline{}, assumptions.Default())
	funding := CalculateFunding(fin, CalculateLendersOther(nil, assumptions.Default()))
	selling := CalculateSelling(schemeTotals(), assumptions.Default())

	w := CalculateFundingWorkings(acq, dev, stat, funding, selling, fin)

	assert.InDelta(t, *fin.LandLendingAmount, *w.AskingPrice.Borrow, delta)
	assert.InDelta(t, 1000000-*fin.LandLendingAmount, *w.AskingPrice.Own, delta)
	assert.InDelta(t, 0.0, *w.StampDuty.Borrow, delta)
	assert.InDelta(t, 0.0, *w.BuildCosts.Own, delta)
	assert.InDelta(t, *selling.Total, *w.SellingCosts.Own, delta)

	for i, line := range append(w.Lines(), w.TotalCosts) {
		assert.InDelta(t, *line.Total, *line.Own+*line.Borrow, delta, "line %d", i)
	}

	var acqOwn, acqBorrow float64
	for _, line := range []Split{w.AskingPrice, w.StampDuty, w.SourcingFee, w.BuildingInsurance, w.LegalCosts} {
		acqOwn += *line.Own
		acqBorrow += *line.Borrow
	}
	assert.InDelta(t, acqOwn, *w.AcquisitionCosts.Own, delta)
	assert.InDelta(t, acqBorrow, *w.AcquisitionCosts.Borrow, delta)
	assert.InDelta(t, *acq.Total, *w.AcquisitionCosts.Total, delta)

	var own, borrow float64
	for _, line := range []Split{w.AcquisitionCosts, w.BuildCosts, w.ProfessionalFees, w.StatutoryCosts, w.FundingCosts, w.SellingCosts} {
		own += *line.Own
		borrow += *line.Borrow
	}
	assert.InDelta(t, own, *w.TotalCosts.Own, delta)
	assert.InDelta(t, borrow, *w.TotalCosts.Borrow, delta)

	assert.Equal(t, FundingWorkings{}, CalculateFundingWorkings(acq, dev, stat, funding, SellingCosts{}, fin))
	assert.Equal(t, FundingWorkings{}, CalculateFundingWorkings(acq, dev, StatutoryCosts{}, funding, selling, fin))
	assert.Equal(t, FundingWorkings{}, CalculateFundingWorkings(AcquisitionCosts{}, dev, stat, funding, selling, fin))
}

func TestCalculateKPIs(t *testing.T) {
	rates := assumptions.Default()
	workings := FundingWorkings{
		AcquisitionCosts: split(400000, 300000),
		TotalCosts:       split(500000, 500000),
	}
	lending := LendingAnalysis{
		LTCCriteria:         f64(0.85),
		LTGDVCriteria:       f64(0.7),
		MaximumLoanAmount:   f64(840000),
		ShortfallEquityDay1: f64(2500),
	}
	base := KPIInput{
		DealType:        "Residential – New Build",
		Workings:        workings,
		NetProfit:       NetProfit{NetProfit: f64(200000)},
		Lending:         lending,
		PostDevelopment: PostDevelopment{TermLoanAmount: f64(780000), NetCashflowPerAnnum: f64(56000)},
		GDV:             f64(1200000),
		TimelineMonths:  intPtr(24),
	}

	t.Run("Full figures", func(t *testing.T) {
		kpis := CalculateKPIs(base, rates)
		assert.Equal(t, "Residential – New Build", *kpis.DealType)
		assert.False(t, *kpis.HigherRiskBuilding)
		assert.InDelta(t, 500000.0, *kpis.OwnFundsNeeded, delta)
		assert.InDelta(t, 400000.0, *kpis.LandPurchaseOwnFunds, delta)
		assert.InDelta(t, 2500.0, *kpis.ShortfallLendingCriteria, delta)
		assert.Equal(t, 24, *kpis.TimelineMonths)
		assert.InDelta(t, 0.4, *kpis.ReturnOnOwnFunds, delta)
		assert.InDelta(t, 0.2, *kpis.ReturnOnOwnFundsPerAnnum, delta)
		assert.Equal(t, CriteriaMet, *kpis.LendingCriteriaLTC)
		assert.Equal(t, CriteriaMet, *kpis.LendingCriteriaLTGDV)
		assert.InDelta(t, 560000.0, *kpis.OwnFundsLeftInDeal, delta)
		assert.InDelta(t, 56000.0, *kpis.YearlyNetCashflow, delta)
		assert.InDelta(t, 0.1, *kpis.AnnualYieldOnOwnFunds, delta)
		assert.Nil(t, kpis.TravelDistanceMiles)
		assert.Nil(t, kpis.CarTravelTime)
	})

	t.Run("Defaults and travel", func(t *testing.T) {
		in := base
		in.DealType = ""
		in.TimelineMonths = nil
		in.GDV = nil
		in.PostDevelopment = PostDevelopment{}
		in.Travel = &models.Travel{DistanceMiles: 64.1, CarTime: "1h 12m", TrainTime: "2h 51m"}

		kpis := CalculateKPIs(in, rates)
		assert.Equal(t, "Unknown", *kpis.DealType)
		assert.Equal(t, 18, *kpis.TimelineMonths)
		assert.InDelta(t, 0.4/1.5, *kpis.ReturnOnOwnFundsPerAnnum, delta)
		assert.Equal(t, CriteriaUnknown, *kpis.LendingCriteriaLTGDV)
		assert.Nil(t, kpis.OwnFundsLeftInDeal)
		assert.Nil(t, kpis.AnnualYieldOnOwnFunds)
		assert.InDelta(t, 64.1, *kpis.TravelDistanceMiles, delta)
		assert.Equal(t, "1h 12m", *kpis.CarTravelTime)
		assert.Equal(t, "2h 51m", *kpis.TrainTravelTime)
	})

	t.Run("Missing lending analysis", func(t *testing.T) {
		in := base
		in.Lending = LendingAnalysis{}
		assert.Equal(t, KPIs{}, CalculateKPIs(in, rates))
	})
}

func TestCompliance(t *testing.T) {
	tests := []struct {
		name     string
		loan     float64
		base     float64
		criteria float64
		expected string
	}{
		{name: "Within criteria", loan: 850, base: 1000, criteria: 0.85, expected: CriteriaMet},
		{name: "Exceeds criteria", loan: 900, base: 1000, criteria: 0.85, expected: CriteriaNotMet},
		{name: "No base", loan: 900, base: 0, criteria: 0.85, expected: CriteriaUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, compliance(tt.loan, tt.base, tt.criteria))
		})
	}
}
