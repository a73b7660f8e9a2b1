package config

import "strings"

// DealType represents a deal category the classifier may assign
type DealType struct {
	Name        string `json:"name"`
	Residential bool   `json:"residential"`
}

// SupportedDealTypes is the list of deal types understood by the application
var SupportedDealTypes = []DealType{
	{Name: "Residential – New Build", Residential: true},
	{Name: "Residential – Conversion / Change of Use", Residential: true},
	{Name: "Residential – Extension / Airspace", Residential: true},
	{Name: "Mixed-Use Development"},
	{Name: "Pure Residential Investment (BTL / PRS)", Residential: true},
	{Name: "HMO / Co-Living Investment", Residential: true},
	{Name: "Commercial Investment – Long Income"},
	{Name: "Commercial Value-Add / Asset Mgmt"},
	{Name: "Planning Gain / Land Promotion"},
	{Name: "Forward Funding / Forward Purchase"},
	{Name: "Specialist / Operational Assets"},
}

// GetDealTypeNames returns the names of all supported deal types
func GetDealTypeNames() []string {
	names := make([]string, len(SupportedDealTypes))
	for i, dt := range SupportedDealTypes {
		names[i] = dt.Name
	}
	return names
}

// NormalizeDealType folds case, dash variants and spacing so that
// "residential - new build" matches "Residential – New Build".
func NormalizeDealType(name string) string {
	replacer := strings.NewReplacer("–", "-", "—", "-", "\u00a0", " ")
	normalized := strings.ToLower(replacer.Replace(name))
	return strings.Join(strings.Fields(normalized), " ")
}

// GetDealTypeByName returns the canonical deal type for a loosely formatted name
func GetDealTypeByName(name string) *DealType {
	key := NormalizeDealType(name)
	if key == "" {
		return nil
	}
	for _, dt := range SupportedDealTypes {
		if NormalizeDealType(dt.Name) == key {
			return &dt
		}
	}
	return nil
}
