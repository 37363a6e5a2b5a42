package valueobject

import "fmt"

// RiskBand is an immutable value object naming the discrete category a
// probability falls into under a banding policy.
type RiskBand struct {
	value string
}

// Qualitative bands.
var (
	BandLessLikely   = RiskBand{value: "Less likely"}
	BandLikely       = RiskBand{value: "Likely"}
	BandHighlyLikely = RiskBand{value: "Highly likely"}
)

// Threshold bands.
var (
	BandLowRisk    = RiskBand{value: "Low Risk"}
	BandMediumRisk = RiskBand{value: "Medium Risk"}
	BandHighRisk   = RiskBand{value: "High Risk"}
)

var allBands = []RiskBand{
	BandLessLikely, BandLikely, BandHighlyLikely,
	BandLowRisk, BandMediumRisk, BandHighRisk,
}

// RiskBandFromString reconstructs a RiskBand from its string representation.
func RiskBandFromString(s string) (RiskBand, error) {
	for _, b := range allBands {
		if b.value == s {
			return b, nil
		}
	}
	return RiskBand{}, fmt.Errorf("invalid risk band: %q", s)
}

// String returns the display label.
func (b RiskBand) String() string {
	return b.value
}

// IsZero returns true if the RiskBand has not been set.
func (b RiskBand) IsZero() bool {
	return b.value == ""
}

// Equal checks equality with another RiskBand.
func (b RiskBand) Equal(other RiskBand) bool {
	return b.value == other.value
}
