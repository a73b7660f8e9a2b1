package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"dealflow/server/internal/appraisal"
	"dealflow/server/internal/models"

	"github.com/tealeg/xlsx/v2"
)

const (
	NotAvailable = "N/A"
	ToBeDecided  = "TBD"

	currencyFormat = "£#,##0"
	percentFormat  = "0.0%"
	numberFormat   = "#,##0.0"
)

// Sheet names in workbook order
const (
	SheetDealBasics      = "DEAL BASICS"
	SheetGDV             = "GDV"
	SheetCosts           = "COSTS"
	SheetFinance         = "FINANCE"
	SheetKPIs            = "KPIS"
	SheetFundingWorkings = "FUNDING WORKINGS"
)

var GDVHeaders = []string{
	"Market Type", "Build Type", "Floor", "Accommodation Type", "No of Units",
	"Avg Sqm/Unit", "Avg Sqft/Unit", "Price/Unit", "Price/Sqft", "Amount",
}

// Write renders the appraisal of deal as an xlsx workbook at path.
func Write(path string, deal *models.Deal, a *appraisal.Appraisal) error {
	if a == nil {
		return fmt.Errorf("failed to write report: no appraisal")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f := xlsx.NewFile()
	builders := []struct {
		name  string
		build func(*sheet)
	}{
		{SheetDealBasics, func(s *sheet) { dealBasics(s, deal, a) }},
		{SheetGDV, func(s *sheet) { gdv(s, a.GDV) }},
		{SheetCosts, func(s *sheet) { costs(s, a) }},
		{SheetFinance, func(s *sheet) { finance(s, a) }},
		{SheetKPIs, func(s *sheet) { kpis(s, a) }},
		{SheetFundingWorkings, func(s *sheet) { fundingWorkings(s, a.Workings) }},
	}
	for _, b := range builders {
		xs, err := f.AddSheet(b.name)
		if err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", b.name, err)
		}
		b.build(&sheet{xs})
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

type sheet struct {
	*xlsx.Sheet
}

type kind int

const (
	text kind = iota
	currency
	percent
	number
)

// field is one labelled value; a nil value renders as N/A
type field struct {
	label string
	kind  kind
	value any
}

func (s *sheet) header(labels ...string) {
	row := s.AddRow()
	for _, l := range labels {
		row.AddCell().SetString(l)
	}
}

func (s *sheet) fields(fields ...field) {
	for _, f := range fields {
		row := s.AddRow()
		row.AddCell().SetString(f.label)
		setValue(row.AddCell(), f.kind, f.value, NotAvailable)
	}
}

func setValue(cell *xlsx.Cell, k kind, v any, missing string) {
	switch val := v.(type) {
	case nil:
		cell.SetString(missing)
	case *float64:
		if val == nil {
			cell.SetString(missing)
			return
		}
		setFloat(cell, k, *val)
	case float64:
		setFloat(cell, k, val)
	case *int:
		if val == nil {
			cell.SetString(missing)
			return
		}
		cell.SetInt(*val)
	case *string:
		if val == nil {
			cell.SetString(missing)
			return
		}
		cell.SetString(*val)
	case string:
		cell.SetString(val)
	default:
		cell.SetString(fmt.Sprint(val))
	}
}

func setFloat(cell *xlsx.Cell, k kind, v float64) {
	switch k {
	case currency:
		cell.SetFloatWithFormat(v, currencyFormat)
	case percent:
		cell.SetFloatWithFormat(v, percentFormat)
	case number:
		cell.SetFloatWithFormat(v, numberFormat)
	default:
		cell.SetFloat(v)
	}
}

func dealBasics(s *sheet, deal *models.Deal, a *appraisal.Appraisal) {
	if deal != nil {
		s.fields(
			field{"Subject", text, deal.Subject},
			field{"Sender", text, deal.Sender},
			field{"Received", text, deal.ReceivedAt.Format("2006-01-02 15:04")},
			field{"Confidence", text, strconv.Itoa(deal.Confidence) + "%"},
		)
		if c := deal.Classification; c != nil {
			s.fields(
				field{"Site Address", text, c.PropertyDetails.SiteAddress},
				field{"Planning Status", text, c.PropertyDetails.PlanningStatus},
			)
		}
	}

	k := a.KPIs
	timeline := any(nil)
	if k.TimelineMonths != nil {
		timeline = fmt.Sprintf("%d months", *k.TimelineMonths)
	}
	higherRisk := any(nil)
	if k.HigherRiskBuilding != nil {
		higherRisk = yesNo(*k.HigherRiskBuilding)
	}
	distance := any(nil)
	if k.TravelDistanceMiles != nil {
		distance = fmt.Sprintf("%.1f miles", *k.TravelDistanceMiles)
	}

	s.fields(
		field{"Deal Type", text, k.DealType},
		field{"Timeline", text, timeline},
		field{"Higher Risk Building", text, higherRisk},
		field{"Travel Distance", text, distance},
		field{"Car Travel Time", text, k.CarTravelTime},
		field{"Train Travel Time", text, k.TrainTravelTime},
		field{"Asking Price", currency, a.DealAppraisal.AskingPrice},
		field{"Target Strike Price", currency, a.DealAppraisal.TargetStrikePrice},
	)
}

func gdv(s *sheet, g appraisal.GDV) {
	if len(g) == 0 {
		s.fields(field{"GDV Data", text, "No data available"})
		return
	}

	s.header(GDVHeaders...)
	for _, r := range g.Rows() {
		gdvRow(s, r, r.MarketType)
	}
	gdvRow(s, g.Totals(), "TOTAL")
}

func gdvRow(s *sheet, r appraisal.GDVRow, label string) {
	row := s.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetString(r.BuildType)
	row.AddCell().SetString(r.Floor)
	row.AddCell().SetString(r.AccommodationType)
	setValue(row.AddCell(), number, r.Units, NotAvailable)
	setValue(row.AddCell(), number, r.AvgSqmPerUnit, NotAvailable)
	setValue(row.AddCell(), number, r.AvgSqftPerUnit, NotAvailable)
	setValue(row.AddCell(), currency, r.PricePerUnit, ToBeDecided)
	setValue(row.AddCell(), currency, r.PricePerSqft, ToBeDecided)
	setValue(row.AddCell(), currency, r.Amount, ToBeDecided)
}

func costs(s *sheet, a *appraisal.Appraisal) {
	acq, build, stat := a.Acquisition, a.Build, a.Statutory
	s.fields(
		field{"Asking Price", currency, acq.AskingPrice},
		field{"Stamp Duty", currency, acq.StampDuty},
		field{"Sourcing Fee", currency, acq.SourcingFee},
		field{"Building Insurance", currency, acq.BuildingInsurance},
		field{"Legal & Professional Costs", currency, acq.LegalCosts},
		field{"Total Acquisition Costs", currency, acq.Total},
		field{"GIA (m²)", number, build.GIA},
		field{"Cost per m²", currency, build.PricePerM2},
		field{"Cost per Flat", currency, build.CostPerFlat},
		field{"Build Contingency", percent, build.ContingencyPercent},
		field{"Build Costs Total", currency, build.Total},
		field{"Professional Fees Total", currency, a.ProfessionalFees.Total},
		field{"Nutrient Neutrality", currency, stat.NutrientNeutrality},
		field{"CIL", currency, stat.CIL},
		field{"Statutory Costs Total", currency, stat.Total},
		field{"Total Development Costs", currency, a.Development.Total},
		field{"Profit Pre Funding", currency, a.ProfitPreFunding.Profit},
		field{"Selling Costs Total", currency, a.Selling.Total},
		field{"Total Costs", currency, a.TotalCosts.Total},
	)
}

func finance(s *sheet, a *appraisal.Appraisal) {
	fin, lend := a.Finance, a.Lending
	s.fields(
		field{"Land LTV", percent, fin.LandLTV},
		field{"Land Interest Rate", percent, fin.LandInterestAnnual},
		field{"Land Interest Total", currency, fin.LandInterestTotal},
		field{"Development LTV", percent, fin.DevelopmentLTV},
		field{"Development Interest Rate", percent, fin.DevelopmentInterestAnnual},
		field{"Development Interest Total", currency, fin.DevelopmentInterestTotal},
		field{"Finance Costs Total", currency, fin.Total},
		field{"Lenders' Other Costs", currency, a.LendersOther.Total},
		field{"Total Funding Costs", currency, a.Funding.Total},
		field{"Maximum Loan", currency, lend.MaximumLoanAmount},
		field{"Reduce Costs By", currency, lend.ReduceCostsBy},
		field{"Reduce Loan By", currency, lend.ReduceLoanBy},
		field{"Land Advance Day 1", currency, lend.LandAdvanceDay1},
		field{"Own Equity Needed Day 1", currency, lend.OwnEquityNeededDay1},
	)
}

func kpis(s *sheet, a *appraisal.Appraisal) {
	k := a.KPIs
	s.fields(
		field{"Net Profit", currency, a.NetProfit.NetProfit},
		field{"Net Profit on GDV", percent, a.NetProfit.MarginOnGDV},
		field{"Net Profit on Costs", percent, a.NetProfit.MarginOnCosts},
		field{"Own Funds Needed", currency, k.OwnFundsNeeded},
		field{"Shortfall due to Lending Criteria", currency, k.ShortfallLendingCriteria},
		field{"Return on Own Funds", percent, k.ReturnOnOwnFunds},
		field{"Return on Own Funds (per annum)", percent, k.ReturnOnOwnFundsPerAnnum},
		field{"LTC Criteria", text, k.LendingCriteriaLTC},
		field{"LTGDV Criteria", text, k.LendingCriteriaLTGDV},
		field{"Own Funds Left in Deal", currency, k.OwnFundsLeftInDeal},
		field{"Yearly Net Cashflow", currency, k.YearlyNetCashflow},
		field{"Annual Yield on Own Funds", percent, k.AnnualYieldOnOwnFunds},
	)
}

var workingsLabels = []string{
	"Asking Price", "Stamp Duty", "Sourcing Fee", "Building Insurance", "Legal Costs",
	"Acquisition Costs Total", "Build Costs Total", "Professional Fees Total",
	"Statutory Costs Total", "Funding Costs Total", "Selling Costs Total",
}

func fundingWorkings(s *sheet, w appraisal.FundingWorkings) {
	s.header("Item", "Own", "Borrow", "Total")
	for i, line := range w.Lines() {
		splitRow(s, workingsLabels[i], line)
	}
	splitRow(s, "TOTAL COSTS", w.TotalCosts)
}

func splitRow(s *sheet, label string, line appraisal.Split) {
	row := s.AddRow()
	row.AddCell().SetString(label)
	setValue(row.AddCell(), currency, line.Own, NotAvailable)
	setValue(row.AddCell(), currency, line.Borrow, NotAvailable)
	setValue(row.AddCell(), currency, line.Total, NotAvailable)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
