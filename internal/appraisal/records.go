package appraisal

// Every record below has a fixed JSON key set. A stage that cannot compute
// returns the zero value, which serializes each key as null.

type DealAppraisal struct {
	AskingPrice              *float64 `json:"asking_price"`
	Reduction                *float64 `json:"reduction_to_achieve_target_profit_percentage_gdv"`
	AskingPricePercent       *float64 `json:"asking_price_percent"`
	ReductionPercent         *float64 `json:"reduction_to_achieve_target_profit_percentage_gdv_percent"`
	TargetStrikePrice        *float64 `json:"target_strike_price"`
	TargetStrikePricePercent *float64 `json:"target_strike_price_percent"`
}

type GDVRow struct {
	MarketType        string   `json:"market_type"`
	BuildType         string   `json:"build_type"`
	Floor             string   `json:"floor"`
	AccommodationType string   `json:"accommodation_type"`
	Units             *int     `json:"no_of_units"`
	AvgSqmPerUnit     *float64 `json:"average_sqm_per_unit"`
	AvgSqftPerUnit    *float64 `json:"average_sqft_per_unit"`
	PricePerUnit      *float64 `json:"price_per_unit"`
	PricePerSqft      *float64 `json:"price_per_sqft"`
	Amount            *float64 `json:"amount"`
}

type AcquisitionCosts struct {
	AskingPrice              *float64 `json:"asking_price"`
	StampDuty                *float64 `json:"stamp_duty"`
	SourcingFeePercent       *float64 `json:"sourcing_fee_percent"`
	SourcingFee              *float64 `json:"sourcing_fee"`
	BuildingInsurancePercent *float64 `json:"building_insurance_percent"`
	BuildingInsurance        *float64 `json:"building_insurance"`
	LegalCostsPercent        *float64 `json:"legal_professional_costs_percent"`
	LegalCosts               *float64 `json:"legal_professional_costs"`
	Total                    *float64 `json:"total_acquisition_costs"`
}

type BuildCosts struct {
	NIA                *float64 `json:"NIA"`
	NetToGross         *float64 `json:"net_to_gross"`
	GIA                *float64 `json:"GIA"`
	PricePerM2         *float64 `json:"price_per_m2"`
	TotalBuildCosts    *float64 `json:"total_build_costs"`
	CostPerFlat        *float64 `json:"cost_per_flat"`
	LandscapingCosts   *float64 `json:"landscaping_costs"`
	ContingencyPercent *float64 `json:"build_contingency_percent"`
	ContingencyAmount  *float64 `json:"build_contingency_amount"`
	Total              *float64 `json:"build_costs_total"`
}

type ProfessionalFees struct {
	ArchitectPercent          *float64 `json:"architect_percent"`
	ArchitectFee              *float64 `json:"architect_fee"`
	TownPlannerPercent        *float64 `json:"town_planner_percent"`
	TownPlannerFee            *float64 `json:"town_planner_fee"`
	StructuralEngineerPercent *float64 `json:"structural_engineer_percent"`
	StructuralEngineerFee     *float64 `json:"structural_engineer_fee"`
	BuildingControlPerUnit    *float64 `json:"building_control_per_unit"`
	BuildingControlFee        *float64 `json:"building_control_fee"`
	ProjectManagementPerMonth *float64 `json:"project_management_per_month"`
	ProjectManagementMonths   *int     `json:"project_management_months"`
	ProjectManagementFee      *float64 `json:"project_management_fee"`
	StructuralWarrantyPercent *float64 `json:"structural_warranty_percent"`
	StructuralWarrantyFee     *float64 `json:"structural_warranty_fee"`
	QuantitySurveyorPerMonth  *float64 `json:"quantity_surveyor_per_month"`
	QuantitySurveyorMonths    *int     `json:"quantity_surveyor_months"`
	QuantitySurveyorFee       *float64 `json:"quantity_surveyor_fee"`
	Total                     *float64 `json:"professional_fees_total"`
}

type StatutoryCosts struct {
	NutrientNeutralityPerUnit *float64 `json:"nutrient_neutrality_per_unit"`
	NutrientNeutrality        *float64 `json:"nutrient_neutrality"`
	Section106                *float64 `json:"section_106"`
	CIL                       *float64 `json:"cil"`
	Affordable                *float64 `json:"affordable"`
	Total                     *float64 `json:"statutory_costs_total"`
	PercentOfGDV              *float64 `json:"statutory_costs_percent"`
}

type DevelopmentCosts struct {
	BuildCosts              *float64 `json:"build_costs_total"`
	ProfessionalFees        *float64 `json:"professional_fees_total"`
	StatutoryCosts          *float64 `json:"statutory_costs_total"`
	Total                   *float64 `json:"total_development_costs"`
	BuildCostsPercent       *float64 `json:"build_costs_percent"`
	ProfessionalFeesPercent *float64 `json:"professional_fees_percent"`
	StatutoryCostsPercent   *float64 `json:"statutory_costs_percent"`
}

type ProfitPreFunding struct {
	GDV                  *float64 `json:"gdv"`
	AcquisitionCosts     *float64 `json:"total_acquisition_costs"`
	DevelopmentCosts     *float64 `json:"total_development_costs"`
	TotalCostsPreFunding *float64 `json:"total_costs_pre_funding"`
	Profit               *float64 `json:"profit_pre_funding_costs"`
	MarginOnGDV          *float64 `json:"profit_margin_on_gdv"`
	MarginOnCosts        *float64 `json:"profit_margin_on_costs"`
}

type FinanceCosts struct {
	LandLTV                    *float64 `json:"land_ltv"`
	LandLendingAmount          *float64 `json:"land_lending_amount"`
	LandInterestAnnual         *float64 `json:"land_interest_annual"`
	LandInterestMonthly        *float64 `json:"land_interest_monthly"`
	LandDurationMonths         *int     `json:"land_duration_months"`
	LandInterestTotal          *float64 `json:"land_interest_total"`
	LandEntryFeePercent        *float64 `json:"land_entry_fee_percent"`
	LandEntryFee               *float64 `json:"land_entry_fee"`
	LandExitFeePercent         *float64 `json:"land_exit_fee_percent"`
	LandExitFee                *float64 `json:"land_exit_fee"`
	DevelopmentLTV             *float64 `json:"development_ltv"`
	DevelopmentLendingAmount   *float64 `json:"development_lending_amount"`
	DevelopmentInterestAnnual  *float64 `json:"development_interest_annual"`
	DevelopmentInterestMonthly *float64 `json:"development_interest_monthly"`
	DevelopmentDurationMonths  *int     `json:"development_duration_months"`
	DevelopmentInterestTotal   *float64 `json:"development_interest_total"`
	DevelopmentEntryFeePercent *float64 `json:"development_entry_fee_percent"`
	DevelopmentEntryFee        *float64 `json:"development_entry_fee"`
	DevelopmentExitFeePercent  *float64 `json:"development_exit_fee_percent"`
	DevelopmentExitFee         *float64 `json:"development_exit_fee"`
	Total                      *float64 `json:"finance_costs_total"`
}

type LendersOtherCosts struct {
	Valuation         *float64 `json:"lenders_valuation"`
	LegalCosts        *float64 `json:"lenders_legal_costs"`
	QSInitial         *float64 `json:"lenders_qs_initial"`
	QSOngoingPerMonth *float64 `json:"lenders_qs_ongoing_per_month"`
	QSOngoingMonths   *int     `json:"lenders_qs_ongoing_months"`
	QSOngoingTotal    *float64 `json:"lenders_qs_ongoing_total"`
	Total             *float64 `json:"lenders_other_costs_total"`
}

type FundingCosts struct {
	FinanceCosts        *float64 `json:"finance_costs_total"`
	LendersOtherCosts   *float64 `json:"lenders_other_costs_total"`
	Total               *float64 `json:"funding_costs_total"`
	FinanceCostsPercent *float64 `json:"finance_costs_percent"`
	LendersCostsPercent *float64 `json:"lenders_costs_percent"`
}

type SellingCosts struct {
	MarketingCosts       *float64 `json:"marketing_costs"`
	AgentFeePercent      *float64 `json:"agent_fee_percent"`
	AgentFee             *float64 `json:"agent_fee"`
	LegalFeesPerUnit     *float64 `json:"legal_fees_per_unit"`
	LegalFeesFromUnits   *float64 `json:"legal_fees_from_units"`
	LegalFeesPercent     *float64 `json:"legal_fees_percent"`
	LegalFeesFromPercent *float64 `json:"legal_fees_from_percent"`
	LegalFeesTotal       *float64 `json:"legal_fees_total"`
	Total                *float64 `json:"selling_costs_total"`
	PercentOfGDV         *float64 `json:"selling_costs_percent"`
}

type TotalCosts struct {
	AcquisitionCosts        *float64 `json:"acquisition_costs"`
	DevelopmentCosts        *float64 `json:"development_costs"`
	FundingCosts            *float64 `json:"funding_costs"`
	SellingCosts            *float64 `json:"selling_costs"`
	Total                   *float64 `json:"total_costs"`
	AcquisitionCostsPercent *float64 `json:"acquisition_costs_percent"`
	DevelopmentCostsPercent *float64 `json:"development_costs_percent"`
	FundingCostsPercent     *float64 `json:"funding_costs_percent"`
	SellingCostsPercent     *float64 `json:"selling_costs_percent"`
}

type NetProfit struct {
	NetProfit     *float64 `json:"net_profit"`
	MarginOnGDV   *float64 `json:"net_profit_on_gdv"`
	MarginOnCosts *float64 `json:"net_profit_on_costs"`
}

type LendingAnalysis struct {
	LTCCriteria           *float64 `json:"ltc_criteria"`
	LTGDVCriteria         *float64 `json:"ltgdv_criteria"`
	MaxLoanLTC            *float64 `json:"max_loan_ltc"`
	MaxLoanLTGDV          *float64 `json:"max_loan_ltgdv"`
	MaximumLoanAmount     *float64 `json:"maximum_loan_amount"`
	ReduceCostsBy         *float64 `json:"reduce_costs_by"`
	ReduceLoanBy          *float64 `json:"reduce_loan_by"`
	LandAdvanceDay1       *float64 `json:"max_lenders_land_advance_day1"`
	OwnEquityNeededDay1   *float64 `json:"own_equity_needed_day1"`
	ShortfallEquityDay1   *float64 `json:"shortfall_equity_needed_day1"`
	ReturnOnOwnFunds      *float64 `json:"return_on_own_funds"`
	ReturnOnOwnFundsAnnum *float64 `json:"return_on_own_funds_per_annum"`
}

type PostDevelopment struct {
	RentalIncomePerAnnum  *float64 `json:"rental_income_per_annum"`
	ServiceChargesPercent *float64 `json:"service_charges_percent"`
	ServiceCharges        *float64 `json:"service_charges"`
	NetRentalIncome       *float64 `json:"net_rental_income"`
	TermLoanLTV           *float64 `json:"term_loan_ltv"`
	TermLoanAmount        *float64 `json:"term_loan_amount"`
	TermLoanInterestRate  *float64 `json:"term_loan_interest_rate"`
	InterestOnTermLoan    *float64 `json:"interest_on_term_loan"`
	NetCashflowPerAnnum   *float64 `json:"net_cashflow_per_annum"`
}

// Split divides a cost line between own funds and borrowing.
type Split struct {
	Own    *float64 `json:"own"`
	Borrow *float64 `json:"borrow"`
	Total  *float64 `json:"total"`
}

type FundingWorkings struct {
	AskingPrice       Split `json:"asking_price"`
	StampDuty         Split `json:"stamp_duty"`
	SourcingFee       Split `json:"sourcing_fee"`
	BuildingInsurance Split `json:"building_insurance"`
	LegalCosts        Split `json:"legal_professional_costs"`
	AcquisitionCosts  Split `json:"acquisition_costs_total"`
	BuildCosts        Split `json:"build_costs_total"`
	ProfessionalFees  Split `json:"professional_fees_total"`
	StatutoryCosts    Split `json:"statutory_costs_total"`
	FundingCosts      Split `json:"funding_costs_total"`
	SellingCosts      Split `json:"selling_costs_total"`
	TotalCosts        Split `json:"total_costs"`
}

// Lines returns the cost lines in report order, excluding the grand total.
func (w FundingWorkings) Lines() []Split {
	return []Split{
		w.AskingPrice, w.StampDuty, w.SourcingFee, w.BuildingInsurance, w.LegalCosts,
		w.AcquisitionCosts, w.BuildCosts, w.ProfessionalFees, w.StatutoryCosts,
		w.FundingCosts, w.SellingCosts,
	}
}

type KPIs struct {
	DealType                 *string  `json:"deal_type"`
	HigherRiskBuilding       *bool    `json:"higher_risk_building"`
	OwnFundsNeeded           *float64 `json:"own_funds_needed"`
	LandPurchaseOwnFunds     *float64 `json:"land_purchase_own_funds"`
	ShortfallLendingCriteria *float64 `json:"shortfall_due_to_lending_criteria"`
	NetProfit                *float64 `json:"net_profit"`
	TimelineMonths           *int     `json:"timeline_months"`
	ReturnOnOwnFunds         *float64 `json:"return_on_own_funds"`
	ReturnOnOwnFundsPerAnnum *float64 `json:"return_on_own_funds_per_annum"`
	LendingCriteriaLTC       *string  `json:"lending_criteria_ltc"`
	LendingCriteriaLTGDV     *string  `json:"lending_criteria_ltgdv"`
	OwnFundsLeftInDeal       *float64 `json:"own_funds_left_in_deal"`
	YearlyNetCashflow        *float64 `json:"yearly_net_cashflow"`
	AnnualYieldOnOwnFunds    *float64 `json:"annual_yield_on_own_funds"`
	TravelDistanceMiles      *float64 `json:"travel_distance_miles"`
	CarTravelTime            *string  `json:"car_travel_time"`
	TrainTravelTime          *string  `json:"train_travel_time"`
}
