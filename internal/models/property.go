package models

// AccommodationType is one unit mix entry on a floor, e.g. 12 x 2-bed flats.
type AccommodationType struct {
	Type              string   `json:"type"`
	Units             *int     `json:"units"`
	AreaM2            *float64 `json:"area_m2"`
	AreaSqft          *float64 `json:"area_sqft"`
	PricePerUnit      *float64 `json:"price_per_unit"`
	RentalValue       *float64 `json:"rental_value"`
	PricePerSqft      *float64 `json:"price_per_sqft"`
	PricePerSqm       *float64 `json:"price_per_sqm"`
	AffordableHousing bool     `json:"affordable_housing"`
}

type Floor struct {
	FloorType          string              `json:"floor_type"`
	AccommodationTypes []AccommodationType `json:"accommodation_types"`
}

type CostsAndRates struct {
	BuildCostPerSqft        *float64 `json:"build_cost_per_sqft"`
	BuildCostPerSqm         *float64 `json:"build_cost_per_sqm"`
	TotalBuildCost          *float64 `json:"total_build_cost"`
	ProfessionalFeesPercent *float64 `json:"professional_fees_percentage"`
	ContingencyPercent      *float64 `json:"contingency_percentage"`
	FinanceCostsPercent     *float64 `json:"finance_costs_percentage"`
	TargetProfitMargin      *float64 `json:"target_profit_margin"`
}

type Timeline struct {
	TotalDevelopmentDurationMonths *int `json:"total_development_duration_months"`
	ConstructionPeriodMonths       *int `json:"construction_period_months"`
	PlanningTimeframeMonths        *int `json:"planning_timeframe_months"`
	SalesPeriodMonths              *int `json:"sales_period_months"`
}

type FundingDetails struct {
	LoanAmount       *float64 `json:"loan_amount"`
	LoanToValue      *float64 `json:"loan_to_value"`
	LoanToCost       *float64 `json:"loan_to_cost"`
	InterestRate     *float64 `json:"interest_rate"`
	EquityRequired   *float64 `json:"equity_required"`
	FundingStructure *string  `json:"funding_structure"`
}

// PropertyDetails is the structured extraction of a deal email. Every
// field is optional; nil means the value was not found, never zero.
type PropertyDetails struct {
	SiteAddress             *string         `json:"site_address"`
	AskingPrice             *float64        `json:"asking_price"`
	ReductionToTargetProfit *float64        `json:"reduction_to_achieve_target_profit_percentage_gdv"`
	PropertyType            *string         `json:"property_type"`
	PlanningStatus          *string         `json:"planning_status"`
	DevelopmentName         *string         `json:"development_name"`
	Floors                  []Floor         `json:"floors"`
	TotalUnits              *int            `json:"total_units"`
	TotalAreaM2             *float64        `json:"total_area_m2"`
	TotalAreaSqft           *float64        `json:"total_area_sqft"`
	NumberOfFloors          *int            `json:"number_of_floors"`
	ConstructionType        *string         `json:"construction_type"`
	GDV                     *float64        `json:"gdv"`
	AveragePricePerSqft     *float64        `json:"avg_price_per_sqft"`
	AveragePricePerSqm      *float64        `json:"avg_price_per_sqm"`
	MarketComparables       []string        `json:"market_comparables"`
	CostsAndRates           *CostsAndRates  `json:"costs_and_rates"`
	Timeline                *Timeline       `json:"timeline"`
	FundingDetails          *FundingDetails `json:"funding_details"`
	SpecialConsiderations   []string        `json:"special_considerations"`
	MissingInformation      []string        `json:"missing_information"`
}

// Classification is what the classifier returns for one email.
type Classification struct {
	DealType           string          `json:"deal_type"`
	Confidence         int             `json:"confidence"`
	Reasoning          string          `json:"reasoning"`
	KeyIndicators      []string        `json:"key_indicators"`
	PropertyDetails    PropertyDetails `json:"property_details"`
	AppliedAssumptions map[string]any  `json:"applied_assumptions,omitempty"`
}

// Travel holds the journey estimate from the office to a site.
type Travel struct {
	DistanceMiles float64 `json:"distance_miles"`
	CarTime       string  `json:"car_travel_time"`
	TrainTime     string  `json:"train_travel_time"`
}
