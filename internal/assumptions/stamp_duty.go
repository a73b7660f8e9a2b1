package assumptions

import "sort"

type StampDutyMode string

const (
	// StampDutyFlat charges a fixed amount regardless of price
	StampDutyFlat StampDutyMode = "flat"
	// StampDutyBanded charges progressive rates per price band
	StampDutyBanded StampDutyMode = "banded"
)

// Band applies Rate to the part of the price above Threshold and below
// the next band's threshold.
type Band struct {
	Threshold float64 `json:"threshold"`
	Rate      float64 `json:"rate"`
}

type StampDuty struct {
	Mode  StampDutyMode `json:"mode"`
	Flat  float64       `json:"flat"`
	Bands []Band        `json:"bands,omitempty"`
}

var (
	ResidentialBands = []Band{
		{Threshold: 0, Rate: 0},
		{Threshold: 125000, Rate: 0.02},
		{Threshold: 250000, Rate: 0.05},
		{Threshold: 925000, Rate: 0.10},
		{Threshold: 1500000, Rate: 0.12},
	}

	NonResidentialBands = []Band{
		{Threshold: 0, Rate: 0},
		{Threshold: 150000, Rate: 0.02},
		{Threshold: 250000, Rate: 0.05},
	}
)

func FlatStampDuty(amount float64) StampDuty {
	return StampDuty{Mode: StampDutyFlat, Flat: amount}
}

func BandedStampDuty(bands []Band) StampDuty {
	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Threshold < sorted[j].Threshold })
	return StampDuty{Mode: StampDutyBanded, Bands: sorted}
}

// Calculate returns the duty payable on price.
func (s StampDuty) Calculate(price float64) float64 {
	if s.Mode != StampDutyBanded {
		return s.Flat
	}

	var duty float64
	for i, band := range s.Bands {
		if price <= band.Threshold {
			break
		}
		upper := price
		if i+1 < len(s.Bands) && s.Bands[i+1].Threshold < price {
			upper = s.Bands[i+1].Threshold
		}
		duty += (upper - band.Threshold) * band.Rate
	}
	return duty
}
