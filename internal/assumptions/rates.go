package assumptions

// RateSheet carries every policy constant used by the appraisal stages for
// one deal type. Percentages are ratios (0.02 is 2%).
type RateSheet struct {
	DealType string `json:"deal_type"`

	// Acquisition
	StampDuty                StampDuty `json:"stamp_duty"`
	SourcingFeePercent       float64   `json:"sourcing_fee_percent"`
	BuildingInsurancePercent float64   `json:"building_insurance_percent"`
	LegalCostsPercent        float64   `json:"legal_costs_percent"`

	// Build
	NetToGross              float64 `json:"net_to_gross"`
	BuildCostPerM2          float64 `json:"build_cost_per_m2"`
	LandscapingCosts        float64 `json:"landscaping_costs"`
	BuildContingencyPercent float64 `json:"build_contingency_percent"`

	// Professional fees
	ArchitectPercent          float64 `json:"architect_percent"`
	TownPlannerPercent        float64 `json:"town_planner_percent"`
	StructuralEngineerPercent float64 `json:"structural_engineer_percent"`
	BuildingControlPerUnit    float64 `json:"building_control_per_unit"`
	ProjectManagementPerMonth float64 `json:"project_management_per_month"`
	StructuralWarrantyPercent float64 `json:"structural_warranty_percent"`
	QuantitySurveyorPerMonth  float64 `json:"quantity_surveyor_per_month"`
	ProfessionalFeesMonths    int     `json:"professional_fees_months"`

	// Statutory
	NutrientNeutralityPerUnit float64 `json:"nutrient_neutrality_per_unit"`
	Section106                float64 `json:"section_106"`
	CIL                       float64 `json:"cil"`
	AffordableContribution    float64 `json:"affordable"`

	// Finance on land
	LandLTV             float64 `json:"land_ltv"`
	LandInterestAnnual  float64 `json:"land_interest_annual"`
	LandEntryFeePercent float64 `json:"land_entry_fee_percent"`
	LandExitFeePercent  float64 `json:"land_exit_fee_percent"`
	LandDurationMonths  int     `json:"land_duration_months"`

	// Finance on development
	DevelopmentLTV             float64 `json:"development_ltv"`
	DevelopmentInterestAnnual  float64 `json:"development_interest_annual"`
	DevelopmentDrawdownFactor  float64 `json:"development_drawdown_factor"`
	DevelopmentEntryFeePercent float64 `json:"development_entry_fee_percent"`
	DevelopmentExitFeePercent  float64 `json:"development_exit_fee_percent"`
	DevelopmentDurationMonths  int     `json:"development_duration_months"`
	SellingDurationMonths      int     `json:"selling_duration_months"`

	// Lenders' other costs
	LendersValuation         float64 `json:"lenders_valuation"`
	LendersLegalCosts        float64 `json:"lenders_legal_costs"`
	LendersQSInitial         float64 `json:"lenders_qs_initial"`
	LendersQSOngoingPerMonth float64 `json:"lenders_qs_ongoing_per_month"`

	// Selling
	MarketingCosts          float64 `json:"marketing_costs"`
	AgentFeePercent         float64 `json:"agent_fee_percent"`
	SellingLegalFeesPerUnit float64 `json:"legal_fees_per_unit"`
	SellingLegalFeesPercent float64 `json:"legal_fees_percent"`

	// Lending criteria
	LTCCriteria      float64 `json:"ltc_criteria"`
	LTGDVCriteria    float64 `json:"ltgdv_criteria"`
	LendingROIMonths int     `json:"lending_roi_months"`

	// Post development
	ServiceChargesPercent       float64 `json:"service_charges_percent"`
	TermLoanLTV                 float64 `json:"term_loan_ltv"`
	TermLoanInterestRate        float64 `json:"term_loan_interest_rate"`
	PostDevelopmentUnits        int     `json:"post_development_units"`
	PostDevelopmentRentPerMonth float64 `json:"post_development_rent_per_month"`

	KPITimelineMonths int `json:"kpi_timeline_months"`

	TargetMarginYield *float64 `json:"target_margin_yield"`
	HoldingPeriod     string   `json:"holding_period"`
	ExitStrategy      string   `json:"exit_strategy"`
}

// Default returns the standard rate sheet used when no deal type specific
// figures are available.
func Default() RateSheet {
	return RateSheet{
		StampDuty:                FlatStampDuty(158002),
		SourcingFeePercent:       0.02,
		BuildingInsurancePercent: 0.0075,
		LegalCostsPercent:        0.005,

		NetToGross:              0.2,
		BuildCostPerM2:          1200,
		LandscapingCosts:        0,
		BuildContingencyPercent: 0.1,

		ArchitectPercent:          0.01,
		TownPlannerPercent:        0.001,
		StructuralEngineerPercent: 0.005,
		BuildingControlPerUnit:    1500,
		ProjectManagementPerMonth: 7000,
		StructuralWarrantyPercent: 0.01,
		QuantitySurveyorPerMonth:  1200,
		ProfessionalFeesMonths:    18,

		NutrientNeutralityPerUnit: 5000,
		Section106:                0,
		CIL:                       150000,
		AffordableContribution:    0,

		LandLTV:             0.5,
		LandInterestAnnual:  0.1,
		LandEntryFeePercent: 0.02,
		LandExitFeePercent:  0.01,
		LandDurationMonths:  18,

		DevelopmentLTV:             1.0,
		DevelopmentInterestAnnual:  0.1,
		DevelopmentDrawdownFactor:  0.5,
		DevelopmentEntryFeePercent: 0.02,
		DevelopmentExitFeePercent:  0.01,
		DevelopmentDurationMonths:  12,

		LendersValuation:         10000,
		LendersLegalCosts:        15000,
		LendersQSInitial:         5000,
		LendersQSOngoingPerMonth: 1140,

		MarketingCosts:          5000,
		AgentFeePercent:         0.024,
		SellingLegalFeesPerUnit: 1517,
		SellingLegalFeesPercent: 0.01,

		LTCCriteria:      0.85,
		LTGDVCriteria:    0.70,
		LendingROIMonths: 18,

		ServiceChargesPercent:       0.10,
		TermLoanLTV:                 0.65,
		TermLoanInterestRate:        0.07,
		PostDevelopmentUnits:        84,
		PostDevelopmentRentPerMonth: 1200,

		KPITimelineMonths: 18,
	}
}
