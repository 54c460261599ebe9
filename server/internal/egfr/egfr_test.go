package egfr

import (
	"math"
	"testing"
)

// almostEqual returns true if a and b are within epsilon of each other.
func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestCompute_ReferenceValues(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want float64
	}{
		{
			name: "male non-black 1.2 mg/dL age 45",
			// 175 × 1.2^-1.154 × 45^-0.203 = 65.4728
			in:   Input{SerumCreatinine: 1.2, Age: 45, Sex: Male},
			want: 65.5,
		},
		{
			name: "baseline 1.0 mg/dL age 30",
			in:   Input{SerumCreatinine: 1.0, Age: 30, Sex: Male},
			want: 87.7,
		},
		{
			name: "female",
			in:   Input{SerumCreatinine: 1.2, Age: 45, Sex: Female},
			want: 48.6,
		},
		{
			name: "black",
			in:   Input{SerumCreatinine: 1.2, Age: 45, Sex: Male, Black: true},
			want: 79.4,
		},
		{
			name: "female and black",
			in:   Input{SerumCreatinine: 1.2, Age: 45, Sex: Female, Black: true},
			want: 58.9,
		},
		{
			name: "severe impairment",
			in:   Input{SerumCreatinine: 3.5, Age: 70, Sex: Male, Black: true},
			want: 21.1,
		},
		{
			name: "strict upper corner",
			in:   Input{SerumCreatinine: 15.0, Age: 120, Sex: Female},
			want: 2.2,
		},
		{
			name: "no upper clamp on output",
			in:   Input{SerumCreatinine: 0.1, Age: 18, Sex: Male, Black: true},
			want: 1681.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.in)
			if !almostEqual(got, tt.want, 1e-9) {
				t.Errorf("Compute(%+v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompute_Deterministic(t *testing.T) {
	in := Input{SerumCreatinine: 0.93, Age: 57, Sex: Female, Black: true}
	first := Compute(in)
	for i := 0; i < 100; i++ {
		if got := Compute(in); got != first {
			t.Fatalf("call %d: got %v, want %v", i, got, first)
		}
	}
}

func TestEstimate_DecreasingInCreatinine(t *testing.T) {
	prev := math.Inf(1)
	for scr := 0.1; scr <= 15.0; scr += 0.1 {
		got := Estimate(Input{SerumCreatinine: scr, Age: 50, Sex: Male})
		if got >= prev {
			t.Fatalf("creatinine %.1f: %v is not below %v", scr, got, prev)
		}
		prev = got
	}
}

func TestEstimate_DecreasingInAge(t *testing.T) {
	prev := math.Inf(1)
	for age := 1; age <= 120; age++ {
		got := Estimate(Input{SerumCreatinine: 1.0, Age: age, Sex: Female})
		if got >= prev {
			t.Fatalf("age %d: %v is not below %v", age, got, prev)
		}
		prev = got
	}
}

func TestCompute_NonIncreasingAfterRounding(t *testing.T) {
	prev := math.Inf(1)
	for scr := 0.1; scr <= 15.0; scr += 0.05 {
		got := Compute(Input{SerumCreatinine: scr, Age: 50, Sex: Male})
		if got > prev {
			t.Fatalf("creatinine %.2f: %v is above %v", scr, got, prev)
		}
		prev = got
	}
}

func TestEstimate_Factors(t *testing.T) {
	for _, scr := range []float64{0.4, 1.0, 1.2, 2.7, 9.9} {
		for _, age := range []int{18, 45, 80, 120} {
			male := Estimate(Input{SerumCreatinine: scr, Age: age, Sex: Male})
			female := Estimate(Input{SerumCreatinine: scr, Age: age, Sex: Female})
			black := Estimate(Input{SerumCreatinine: scr, Age: age, Sex: Male, Black: true})

			if !almostEqual(female, male*0.742, 1e-9*male) {
				t.Errorf("scr=%v age=%d: female %v, want male×0.742 = %v", scr, age, female, male*0.742)
			}
			if !almostEqual(black, male*1.212, 1e-9*male) {
				t.Errorf("scr=%v age=%d: black %v, want male×1.212 = %v", scr, age, black, male*1.212)
			}
		}
	}
}

func TestCompute_FactorsWithinRounding(t *testing.T) {
	// Each side is rounded independently, so the products can differ by at
	// most half a unit in the last place on either side.
	for _, scr := range []float64{0.5, 1.2, 3.3} {
		male := Compute(Input{SerumCreatinine: scr, Age: 45, Sex: Male})
		female := Compute(Input{SerumCreatinine: scr, Age: 45, Sex: Female})
		if !almostEqual(female, male*0.742, 0.1) {
			t.Errorf("scr=%v: female %v vs male×0.742 %v", scr, female, male*0.742)
		}
	}
}

func TestCompute_OneDecimal(t *testing.T) {
	for scr := 0.1; scr <= 15.0; scr += 0.37 {
		for age := 18; age <= 120; age += 7 {
			got := Compute(Input{SerumCreatinine: scr, Age: age, Sex: Female, Black: age%2 == 0})
			scaled := got * 10
			if !almostEqual(scaled, math.Round(scaled), 1e-6) {
				t.Fatalf("Compute(scr=%v, age=%d) = %v has more than one decimal", scr, age, got)
			}
		}
	}
}

func TestRound_Modes(t *testing.T) {
	tests := []struct {
		v    float64
		mode Rounding
		want float64
	}{
		{65.47277, HalfAway, 65.5},
		{65.47277, HalfEven, 65.5},
		{0.25, HalfAway, 0.3},
		{0.25, HalfEven, 0.2},
		{0.35, HalfEven, 0.4},
		{87.736, "", 87.7},
	}
	for _, tt := range tests {
		if got := Round(tt.v, tt.mode); !almostEqual(got, tt.want, 1e-9) {
			t.Errorf("Round(%v, %q) = %v, want %v", tt.v, tt.mode, got, tt.want)
		}
	}
}

func TestRace_IsBlack(t *testing.T) {
	if !RaceBlack.IsBlack() {
		t.Error("black: want true")
	}
	if RaceNonBlack.IsBlack() || RaceNA.IsBlack() {
		t.Error("non-black and N/A: want false")
	}
}
