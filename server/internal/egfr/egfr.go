package egfr

import "math"

// MDRD coefficients (IDMS-traceable 175 variant).
const (
	coefficient        = 175.0
	creatinineExponent = -1.154
	ageExponent        = -0.203
	femaleFactor       = 0.742
	blackFactor        = 1.212
	decimalScale       = 10.0
)

// Unit is the display unit of an eGFR value.
const Unit = "ml/min/1.73 m²"

// Sex is the biological sex used by the equation.
type Sex string

const (
	Male   Sex = "male"
	Female Sex = "female"
)

// Race is the three-way race category accepted at the boundary.
type Race string

const (
	RaceBlack    Race = "black"
	RaceNonBlack Race = "non-black"
	RaceNA       Race = "N/A"
)

// IsBlack collapses the category to the boolean indicator the equation uses.
func (r Race) IsBlack() bool { return r == RaceBlack }

// Rounding selects how a result is rounded to one decimal place.
type Rounding string

const (
	// HalfAway rounds halves away from zero (66.25 → 66.3).
	HalfAway Rounding = "half_away"
	// HalfEven rounds halves to the even neighbour (66.25 → 66.2).
	HalfEven Rounding = "half_even"
)

// Input holds one validated set of patient parameters.
type Input struct {
	// SerumCreatinine in mg/dL.
	SerumCreatinine float64

	// Age in whole years.
	Age int

	Sex Sex

	// Black is the race indicator; true applies the 1.212 factor.
	Black bool
}

// Estimate returns the unrounded MDRD eGFR in mL/min/1.73m².
func Estimate(in Input) float64 {
	sexFactor := 1.0
	if in.Sex == Female {
		sexFactor = femaleFactor
	}
	raceFactor := 1.0
	if in.Black {
		raceFactor = blackFactor
	}
	return coefficient *
		math.Pow(in.SerumCreatinine, creatinineExponent) *
		math.Pow(float64(in.Age), ageExponent) *
		sexFactor * raceFactor
}

// Compute returns the MDRD eGFR rounded half away from zero to one decimal.
func Compute(in Input) float64 {
	return ComputeWith(in, HalfAway)
}

// ComputeWith is Compute with an explicit rounding mode.
func ComputeWith(in Input, mode Rounding) float64 {
	return Round(Estimate(in), mode)
}

// Round rounds v to one decimal place. Unknown modes fall back to HalfAway.
func Round(v float64, mode Rounding) float64 {
	if mode == HalfEven {
		return math.RoundToEven(v*decimalScale) / decimalScale
	}
	return math.Round(v*decimalScale) / decimalScale
}
