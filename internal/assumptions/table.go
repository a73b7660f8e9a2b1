package assumptions

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"dealflow/server/config"
)

var ErrUnknownDealType = errors.New("unknown deal type")

// headerLabel heads the first column, which lists the assumption categories
const headerLabel = "Deal Type>>>"

const sqftPerM2 = 0.092903

type ValueKind int

const (
	KindText ValueKind = iota
	KindPercent
	KindMoney
	KindMonths
	KindNumber
)

// Value is a parsed assumption cell. Percentages are already ratios.
type Value struct {
	Kind   ValueKind
	Number float64
	Text   string
}

var numberPattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?|\.\d+`)

// ParseValue interprets a raw cell such as "2%", "£1,500 per unit" or
// "18 months". It returns false for blank cells.
func ParseValue(raw string) (Value, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Value{}, false
	}

	first := func() (float64, bool) {
		m := numberPattern.FindString(s)
		if m == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
		return n, err == nil
	}

	lower := strings.ToLower(s)
	switch {
	case strings.Contains(s, "%"):
		if n, ok := first(); ok {
			return Value{Kind: KindPercent, Number: n / 100, Text: s}, true
		}
	case strings.Contains(s, "£"):
		if n, ok := first(); ok {
			return Value{Kind: KindMoney, Number: n, Text: s}, true
		}
	case strings.Contains(lower, "month"):
		if n, ok := first(); ok {
			return Value{Kind: KindMonths, Number: float64(int(n)), Text: s}, true
		}
	default:
		if n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
			return Value{Kind: KindNumber, Number: n, Text: s}, true
		}
	}
	return Value{Kind: KindText, Text: s}, true
}

// Table holds the per deal type assumption columns loaded from CSV. It is
// read-only once loaded and safe for concurrent use.
type Table struct {
	dealTypes  []string
	categories []string
	columns    map[string]map[string]string
}

// Load reads an assumptions CSV from disk
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open assumptions file: %w", err)
	}
	defer f.Close()

	table, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return table, nil
}

// Parse reads an assumptions CSV whose first column lists categories and
// whose remaining columns hold one deal type each.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse assumptions csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("assumptions csv is empty")
	}

	header := records[0]
	if len(header) < 2 || strings.TrimSpace(strings.TrimPrefix(header[0], "\ufeff")) != headerLabel {
		return nil, fmt.Errorf("assumptions csv must start with a %q column", headerLabel)
	}

	t := &Table{columns: make(map[string]map[string]string)}
	for _, name := range header[1:] {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		t.dealTypes = append(t.dealTypes, name)
		t.columns[config.NormalizeDealType(name)] = make(map[string]string)
	}

	for _, record := range records[1:] {
		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		category := strings.TrimSpace(record[0])
		t.categories = append(t.categories, category)
		for i, name := range header[1:] {
			if i+1 >= len(record) {
				break
			}
			column, ok := t.columns[config.NormalizeDealType(name)]
			if !ok {
				continue
			}
			column[categoryKey(category)] = record[i+1]
		}
	}

	return t, nil
}

func (t *Table) DealTypes() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.dealTypes...)
}

func (t *Table) Categories() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.categories...)
}

// Value returns the parsed cell for a deal type and category
func (t *Table) Value(dealType, category string) (Value, bool) {
	if t == nil {
		return Value{}, false
	}
	column, ok := t.columns[config.NormalizeDealType(dealType)]
	if !ok {
		return Value{}, false
	}
	return ParseValue(column[categoryKey(category)])
}

// RateSheet builds the rate sheet for a deal type by overlaying the table's
// column on Default. Blank or non-numeric cells keep the default figure.
func (t *Table) RateSheet(dealType string) (RateSheet, error) {
	if t == nil {
		return RateSheet{}, fmt.Errorf("%w: %s (no assumptions loaded)", ErrUnknownDealType, dealType)
	}
	column, ok := t.columns[config.NormalizeDealType(dealType)]
	if !ok {
		return RateSheet{}, fmt.Errorf("%w: %s", ErrUnknownDealType, dealType)
	}

	rates := Default()
	rates.DealType = dealType
	for key, raw := range column {
		value, ok := ParseValue(raw)
		if !ok {
			continue
		}
		if apply, found := setters[key]; found {
			apply(&rates, value)
		}
	}
	return rates, nil
}

// RateSheetOrDefault falls back to Default when the deal type has no column
func (t *Table) RateSheetOrDefault(dealType string) RateSheet {
	rates, err := t.RateSheet(dealType)
	if err != nil {
		rates = Default()
		rates.DealType = dealType
	}
	return rates
}

func categoryKey(category string) string {
	replacer := strings.NewReplacer("’", "'", "‘", "'", "–", "-")
	return strings.Join(strings.Fields(strings.ToLower(replacer.Replace(category))), " ")
}

type setter func(*RateSheet, Value)

func ratio(field func(*RateSheet) *float64) setter {
	return func(r *RateSheet, v Value) {
		switch v.Kind {
		case KindPercent:
			*field(r) = v.Number
		case KindNumber:
			if v.Number > 1 {
				*field(r) = v.Number / 100
			} else {
				*field(r) = v.Number
			}
		}
	}
}

func amount(field func(*RateSheet) *float64) setter {
	return func(r *RateSheet, v Value) {
		if v.Kind == KindMoney || v.Kind == KindNumber {
			*field(r) = v.Number
		}
	}
}

func months(field func(*RateSheet) *int) setter {
	return func(r *RateSheet, v Value) {
		if v.Kind == KindMonths || v.Kind == KindNumber {
			*field(r) = int(v.Number)
		}
	}
}

var setters = map[string]setter{
	categoryKey("Duration - Land ownership"):             months(func(r *RateSheet) *int { return &r.LandDurationMonths }),
	categoryKey("Duration - Build phase"):                months(func(r *RateSheet) *int { return &r.DevelopmentDurationMonths }),
	categoryKey("Duration - Selling period / Sign offs"): months(func(r *RateSheet) *int { return &r.SellingDurationMonths }),

	categoryKey("Stamp Duty"): func(r *RateSheet, v Value) {
		switch {
		case v.Kind == KindMoney || v.Kind == KindNumber:
			r.StampDuty = FlatStampDuty(v.Number)
		case strings.Contains(strings.ToLower(v.Text), "band"):
			bands := NonResidentialBands
			if dt := config.GetDealTypeByName(r.DealType); dt == nil || dt.Residential {
				bands = ResidentialBands
			}
			r.StampDuty = BandedStampDuty(bands)
		}
	},
	categoryKey("Sourcing fee"):                       ratio(func(r *RateSheet) *float64 { return &r.SourcingFeePercent }),
	categoryKey("Building Insurance"):                 ratio(func(r *RateSheet) *float64 { return &r.BuildingInsurancePercent }),
	categoryKey("Legal and other professional costs"): ratio(func(r *RateSheet) *float64 { return &r.LegalCostsPercent }),

	// Build costs are quoted per sqft
	categoryKey("Build costs"): func(r *RateSheet, v Value) {
		if v.Kind == KindMoney || v.Kind == KindNumber {
			r.BuildCostPerM2 = v.Number / sqftPerM2
		}
	},
	categoryKey("Build contingency"): ratio(func(r *RateSheet) *float64 { return &r.BuildContingencyPercent }),

	categoryKey("Architect"):                     ratio(func(r *RateSheet) *float64 { return &r.ArchitectPercent }),
	categoryKey("Town Planner"):                  ratio(func(r *RateSheet) *float64 { return &r.TownPlannerPercent }),
	categoryKey("Structural Engineer"):           ratio(func(r *RateSheet) *float64 { return &r.StructuralEngineerPercent }),
	categoryKey("Building Control"):              amount(func(r *RateSheet) *float64 { return &r.BuildingControlPerUnit }),
	categoryKey("Project Management"):            amount(func(r *RateSheet) *float64 { return &r.ProjectManagementPerMonth }),
	categoryKey("Structural Warranty"):           ratio(func(r *RateSheet) *float64 { return &r.StructuralWarrantyPercent }),
	categoryKey("Developers' Quantity Surveyor"): amount(func(r *RateSheet) *float64 { return &r.QuantitySurveyorPerMonth }),

	categoryKey("Nutrient Neutrality"): amount(func(r *RateSheet) *float64 { return &r.NutrientNeutralityPerUnit }),
	categoryKey("Section 106"):         amount(func(r *RateSheet) *float64 { return &r.Section106 }),
	categoryKey("CIL"):                 amount(func(r *RateSheet) *float64 { return &r.CIL }),

	categoryKey("Finance costs on Land (LTV)"):                  ratio(func(r *RateSheet) *float64 { return &r.LandLTV }),
	categoryKey("Finance costs on Land (Interest Rate)"):        ratio(func(r *RateSheet) *float64 { return &r.LandInterestAnnual }),
	categoryKey("Finance costs on Land (Entry)"):                ratio(func(r *RateSheet) *float64 { return &r.LandEntryFeePercent }),
	categoryKey("Finance costs on Land (Exit)"):                 ratio(func(r *RateSheet) *float64 { return &r.LandExitFeePercent }),
	categoryKey("Finance costs on Development (LTV)"):           ratio(func(r *RateSheet) *float64 { return &r.DevelopmentLTV }),
	categoryKey("Finance costs on Development (Interest Rate)"): ratio(func(r *RateSheet) *float64 { return &r.DevelopmentInterestAnnual }),
	categoryKey("Finance costs on Development (Entry)"):         ratio(func(r *RateSheet) *float64 { return &r.DevelopmentEntryFeePercent }),
	categoryKey("Finance costs on Development (Exit)"):          ratio(func(r *RateSheet) *float64 { return &r.DevelopmentExitFeePercent }),

	categoryKey("Lenders' Valuation"):                      amount(func(r *RateSheet) *float64 { return &r.LendersValuation }),
	categoryKey("Lenders' Legal Costs"):                    amount(func(r *RateSheet) *float64 { return &r.LendersLegalCosts }),
	categoryKey("Lenders' Quantity Surveyor - Initial"):    amount(func(r *RateSheet) *float64 { return &r.LendersQSInitial }),
	categoryKey("Lenders' Quantity Surveyor - Ongoing"):    amount(func(r *RateSheet) *float64 { return &r.LendersQSOngoingPerMonth }),
	categoryKey("Lenders' Criteria - Loan to Cost (LTC)"):  ratio(func(r *RateSheet) *float64 { return &r.LTCCriteria }),
	categoryKey("Lenders' Criteria - Loan to GDV (LTGDV)"): ratio(func(r *RateSheet) *float64 { return &r.LTGDVCriteria }),

	categoryKey("Marketing Costs"): amount(func(r *RateSheet) *float64 { return &r.MarketingCosts }),
	categoryKey("Agent Fee"):       ratio(func(r *RateSheet) *float64 { return &r.AgentFeePercent }),
	// Legal fees are quoted either per unit or as a share of GDV
	categoryKey("Legal Fees"): func(r *RateSheet, v Value) {
		switch v.Kind {
		case KindPercent:
			r.SellingLegalFeesPercent = v.Number
		case KindMoney, KindNumber:
			r.SellingLegalFeesPerUnit = v.Number
		}
	},

	categoryKey("Post Development - Service Charges"):                       ratio(func(r *RateSheet) *float64 { return &r.ServiceChargesPercent }),
	categoryKey("Post Development - Interest on term loan (LTV)"):           ratio(func(r *RateSheet) *float64 { return &r.TermLoanLTV }),
	categoryKey("Post Development - Interest on term loan (Interest rate)"): ratio(func(r *RateSheet) *float64 { return &r.TermLoanInterestRate }),

	categoryKey("Margin / Yield"): func(r *RateSheet, v Value) {
		if v.Kind == KindPercent || v.Kind == KindNumber {
			margin := v.Number
			if v.Kind == KindNumber && margin > 1 {
				margin /= 100
			}
			r.TargetMarginYield = &margin
		}
	},
	categoryKey("Holding Period"):  func(r *RateSheet, v Value) { r.HoldingPeriod = v.Text },
	categoryKey("Exit / Strategy"): func(r *RateSheet, v Value) { r.ExitStrategy = v.Text },
}
